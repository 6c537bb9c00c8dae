package usecase_test

import (
	"context"
	"io"
	"sort"
	"sync"

	"app/internal/domain/model"
	"app/internal/idp"
	repo "app/internal/repository"
	"app/internal/usecase"

	"github.com/sirupsen/logrus"
)

// =====================
// IdPスパイ（呼び出し回数と内容を全部記録する）
// =====================

type spyIdP struct {
	mu sync.Mutex

	usersCreated  []idp.UserRepresentation
	usersUpdated  map[string]idp.UserRepresentation
	usersDeleted  []string
	roles         map[string][]string
	attrs         map[string]map[string][]string
	rolesAdded    []string
	rolesRemoved  []string
	groupsCreated []idp.GroupRepresentation
	groupsUpdated map[string]idp.GroupRepresentation
	groupsDeleted []string

	//非nilなら全呼び出しをこのerrorで失敗させる
	err error

	callCount int
}

func newSpyIdP() *spyIdP {
	return &spyIdP{
		usersUpdated:  map[string]idp.UserRepresentation{},
		roles:         map[string][]string{},
		attrs:         map[string]map[string][]string{},
		groupsUpdated: map[string]idp.GroupRepresentation{},
	}
}

// ロール付け外しの総呼び出し数（冪等性の検証用）。
func (s *spyIdP) roleCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rolesAdded) + len(s.rolesRemoved)
}

func (s *spyIdP) enter() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.callCount++
	return s.err
}

func (s *spyIdP) CreateUser(ctx context.Context, user idp.UserRepresentation) (string, error) {
	if err := s.enter(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.usersCreated = append(s.usersCreated, user)
	return "user-1", nil
}

func (s *spyIdP) UpdateUser(ctx context.Context, userID string, user idp.UserRepresentation) error {
	if err := s.enter(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.usersUpdated[userID] = user
	return nil
}

func (s *spyIdP) DeleteUser(ctx context.Context, userID string) error {
	if err := s.enter(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.usersDeleted = append(s.usersDeleted, userID)
	return nil
}

func (s *spyIdP) GetUserRoles(ctx context.Context, userID string) ([]string, error) {
	if err := s.enter(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.roles[userID]...), nil
}

func (s *spyIdP) GetUserAttributes(ctx context.Context, userID string) (map[string][]string, error) {
	if err := s.enter(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.attrs[userID] == nil {
		return map[string][]string{}, nil
	}
	return s.attrs[userID], nil
}

func (s *spyIdP) AddRealmRole(ctx context.Context, userID string, role string) error {
	if err := s.enter(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rolesAdded = append(s.rolesAdded, userID+":"+role)
	s.roles[userID] = append(s.roles[userID], role)
	return nil
}

func (s *spyIdP) RemoveRealmRole(ctx context.Context, userID string, role string) error {
	if err := s.enter(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rolesRemoved = append(s.rolesRemoved, userID+":"+role)
	kept := s.roles[userID][:0]
	for _, r := range s.roles[userID] {
		if r != role {
			kept = append(kept, r)
		}
	}
	s.roles[userID] = kept
	return nil
}

func (s *spyIdP) CreateGroup(ctx context.Context, group idp.GroupRepresentation) (string, error) {
	if err := s.enter(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.groupsCreated = append(s.groupsCreated, group)
	return "group-1", nil
}

func (s *spyIdP) UpdateGroup(ctx context.Context, groupID string, group idp.GroupRepresentation) error {
	if err := s.enter(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.groupsUpdated[groupID] = group
	return nil
}

func (s *spyIdP) DeleteGroup(ctx context.Context, groupID string) error {
	if err := s.enter(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.groupsDeleted = append(s.groupsDeleted, groupID)
	return nil
}

// =====================
// インメモリrepositoryフェイク
// =====================

type fakeCRRepo struct {
	mu    sync.Mutex
	store map[string]model.ChangeRequest
}

func newFakeCRRepo() *fakeCRRepo {
	return &fakeCRRepo{store: map[string]model.ChangeRequest{}}
}

func (f *fakeCRRepo) Create(ctx context.Context, cr *model.ChangeRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.store[cr.ID] = *cr
	return nil
}

func (f *fakeCRRepo) FindByID(ctx context.Context, id string) (*model.ChangeRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cr, ok := f.store[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	out := cr
	return &out, nil
}

func (f *fakeCRRepo) Update(ctx context.Context, cr *model.ChangeRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.store[cr.ID]; !ok {
		return repo.ErrNotFound
	}
	f.store[cr.ID] = *cr
	return nil
}

func (f *fakeCRRepo) TransitionFrom(ctx context.Context, cr *model.ChangeRequest, from model.ChangeStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cur, ok := f.store[cr.ID]
	if !ok || cur.Status != from {
		return repo.ErrConflict
	}
	f.store[cr.ID] = *cr
	return nil
}

func (f *fakeCRRepo) List(ctx context.Context, filter repo.ChangeRequestFilter) ([]model.ChangeRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.ChangeRequest
	for _, cr := range f.store {
		if filter.Status != nil && cr.Status != *filter.Status {
			continue
		}
		if filter.ResourceType != nil && cr.ResourceType != *filter.ResourceType {
			continue
		}
		if filter.RequestedBy != nil && cr.RequestedBy != *filter.RequestedBy {
			continue
		}
		out = append(out, cr)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RequestedAt.After(out[j].RequestedAt) })
	return out, nil
}

type fakeOrgRepo struct {
	mu     sync.Mutex
	nextID int64
	store  map[int64]model.OrgUnit
}

func newFakeOrgRepo() *fakeOrgRepo {
	return &fakeOrgRepo{nextID: 1, store: map[int64]model.OrgUnit{}}
}

func (f *fakeOrgRepo) Create(ctx context.Context, unit *model.OrgUnit) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	unit.ID = f.nextID
	f.nextID++
	f.store[unit.ID] = *unit
	return nil
}

func (f *fakeOrgRepo) FindByID(ctx context.Context, id int64) (*model.OrgUnit, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.store[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	out := u
	return &out, nil
}

func (f *fakeOrgRepo) Update(ctx context.Context, unit *model.OrgUnit) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.store[unit.ID]; !ok {
		return repo.ErrNotFound
	}
	f.store[unit.ID] = *unit
	return nil
}

func (f *fakeOrgRepo) Delete(ctx context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.store[id]; !ok {
		return repo.ErrNotFound
	}
	delete(f.store, id)
	return nil
}

type fakeMenuRepo struct {
	mu     sync.Mutex
	nextID int64
	store  map[int64]model.PortalMenu
}

func newFakeMenuRepo() *fakeMenuRepo {
	return &fakeMenuRepo{nextID: 1, store: map[int64]model.PortalMenu{}}
}

func (f *fakeMenuRepo) Create(ctx context.Context, menu *model.PortalMenu) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	menu.ID = f.nextID
	f.nextID++
	f.store[menu.ID] = *menu
	return nil
}

func (f *fakeMenuRepo) FindByID(ctx context.Context, id int64) (*model.PortalMenu, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.store[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	out := m
	return &out, nil
}

func (f *fakeMenuRepo) Update(ctx context.Context, menu *model.PortalMenu) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.store[menu.ID]; !ok {
		return repo.ErrNotFound
	}
	f.store[menu.ID] = *menu
	return nil
}

func (f *fakeMenuRepo) Delete(ctx context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.store[id]; !ok {
		return repo.ErrNotFound
	}
	delete(f.store, id)
	return nil
}

type fakeConfigRepo struct {
	mu    sync.Mutex
	store map[string]model.SystemConfig
}

func newFakeConfigRepo() *fakeConfigRepo {
	return &fakeConfigRepo{store: map[string]model.SystemConfig{}}
}

func (f *fakeConfigRepo) Upsert(ctx context.Context, cfg *model.SystemConfig) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.store[cfg.Key] = *cfg
	return nil
}

func (f *fakeConfigRepo) FindByKey(ctx context.Context, key string) (*model.SystemConfig, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.store[key]
	if !ok {
		return nil, repo.ErrNotFound
	}
	out := c
	return &out, nil
}

type fakeAuditRepo struct {
	mu   sync.Mutex
	logs []model.AuditLog
	//非nilならCreateを失敗させる（監査失敗が主処理を壊さない検証用）
	createErr error
}

func (f *fakeAuditRepo) Create(ctx context.Context, log model.AuditLog) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	f.logs = append(f.logs, log)
	return nil
}

func (f *fakeAuditRepo) List(ctx context.Context, filter repo.AuditLogFilter) ([]model.AuditLog, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.AuditLog(nil), f.logs...), nil
}

// =====================
// 組み立てヘルパー
// =====================

type testEnv struct {
	idp       *spyIdP
	crRepo    *fakeCRRepo
	orgRepo   *fakeOrgRepo
	menuRepo  *fakeMenuRepo
	cfgRepo   *fakeConfigRepo
	auditRepo *fakeAuditRepo
	policy    *usecase.PolicyEngine
	executor  *usecase.ChangeExecutor
	uc        *usecase.ChangeRequestUsecase
}

func newTestEnv() *testEnv {
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	env := &testEnv{
		idp:       newSpyIdP(),
		crRepo:    newFakeCRRepo(),
		orgRepo:   newFakeOrgRepo(),
		menuRepo:  newFakeMenuRepo(),
		cfgRepo:   newFakeConfigRepo(),
		auditRepo: &fakeAuditRepo{},
	}
	env.policy = usecase.NewPolicyEngine(env.idp)
	env.executor = usecase.NewChangeExecutor(env.idp, env.policy, env.orgRepo, env.menuRepo, env.cfgRepo)
	recorder := usecase.NewAuditRecorder(env.auditRepo, logger)
	env.uc = usecase.NewChangeRequestUsecase(env.crRepo, env.executor, recorder)
	return env
}

func sysadmin(name string) usecase.Principal {
	return usecase.Principal{
		Username:   name,
		Email:      name + "@example.com",
		Role:       model.AdminRoleSys,
		RealmRoles: []string{model.RoleSysAdmin},
		IP:         "10.0.0.1",
	}
}

func authadmin(name string) usecase.Principal {
	return usecase.Principal{
		Username:   name,
		Email:      name + "@example.com",
		Role:       model.AdminRoleAuth,
		RealmRoles: []string{model.RoleAuthAdmin},
		IP:         "10.0.0.2",
	}
}
