package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	"app/internal/domain/model"
	"app/internal/idp"
	repo "app/internal/repository"
)

// resourceTypeごとのpayloadの形。Executorの入口で一度だけデコードする。
type userPayload struct {
	Username   string              `json:"username"`
	Email      string              `json:"email"`
	FirstName  string              `json:"first_name"`
	LastName   string              `json:"last_name"`
	Enabled    *bool               `json:"enabled"`
	Attributes map[string][]string `json:"attributes"`
}

type rolePayload struct {
	Name string `json:"name"`
	Path string `json:"path"`
}

type orgPayload struct {
	Name     string `json:"name"`
	Code     string `json:"code"`
	ParentID *int64 `json:"parent_id"`
}

type configPayload struct {
	Key         string `json:"key"`
	Value       string `json:"value"`
	Description string `json:"description"`
}

type menuPayload struct {
	Name      string `json:"name"`
	Path      string `json:"path"`
	Icon      string `json:"icon"`
	ParentID  *int64 `json:"parent_id"`
	SortOrder int    `json:"sort_order"`
}

// 承認済みリクエストを実際の変更に変換する。
// (resourceType, action) で分岐し、ローカルDBかIdPのどちらか片方だけを触る。
type ChangeExecutor struct {
	idp        idp.IdentityProvider
	policy     *PolicyEngine
	orgRepo    repo.OrgUnitRepository
	menuRepo   repo.PortalMenuRepository
	configRepo repo.SystemConfigRepository
}

func NewChangeExecutor(
	provider idp.IdentityProvider,
	policy *PolicyEngine,
	orgRepo repo.OrgUnitRepository,
	menuRepo repo.PortalMenuRepository,
	configRepo repo.SystemConfigRepository,
) *ChangeExecutor {
	return &ChangeExecutor{
		idp:        provider,
		policy:     policy,
		orgRepo:    orgRepo,
		menuRepo:   menuRepo,
		configRepo: configRepo,
	}
}

// 承認済みの1件を適用する。成功ならnil、失敗は分類済みのerror。
// リトライや補償はしない（1リクエスト=1アクションの前提）。
func (e *ChangeExecutor) Execute(ctx context.Context, cr *model.ChangeRequest) error {
	switch cr.ResourceType {
	case model.ResourceUser:
		return e.executeUser(ctx, cr)
	case model.ResourceRole:
		return e.executeRole(ctx, cr)
	case model.ResourceOrg:
		return e.executeOrg(ctx, cr)
	case model.ResourceConfig:
		return e.executeConfig(ctx, cr)
	case model.ResourceMenu:
		return e.executeMenu(ctx, cr)
	}
	return NewUnsupportedOperation("no handler for " + string(cr.ResourceType) + "/" + string(cr.Action))
}

func decodePayload(cr *model.ChangeRequest, out interface{}) error {
	if strings.TrimSpace(cr.PayloadJSON) == "" {
		return NewInvalidPayload("payload required")
	}
	if err := json.Unmarshal([]byte(cr.PayloadJSON), out); err != nil {
		return NewInvalidPayload("malformed payload: " + err.Error())
	}
	return nil
}

func requireResourceID(cr *model.ChangeRequest) (string, error) {
	id := strings.TrimSpace(cr.ResourceID)
	if id == "" {
		return "", NewInvalidPayload("resourceId required")
	}
	return id, nil
}

func (e *ChangeExecutor) executeUser(ctx context.Context, cr *model.ChangeRequest) error {
	switch cr.Action {
	case model.ActionCreate:
		var p userPayload
		if err := decodePayload(cr, &p); err != nil {
			return err
		}
		attrs, err := NormalizeAttributes(p.Attributes)
		if err != nil {
			return err
		}
		userID, err := e.idp.CreateUser(ctx, idp.UserRepresentation{
			Username:   p.Username,
			Email:      p.Email,
			FirstName:  p.FirstName,
			LastName:   p.LastName,
			Enabled:    p.Enabled,
			Attributes: attrs,
		})
		if err != nil {
			return NewExecutionError(err)
		}
		//レベルに応じたDATA_*ロールを付ける
		if userID != "" {
			return e.policy.SyncDataRolesForUser(ctx, userID, attrs)
		}
		return nil

	case model.ActionUpdate:
		userID, err := requireResourceID(cr)
		if err != nil {
			return err
		}
		var p userPayload
		if err := decodePayload(cr, &p); err != nil {
			return err
		}
		attrs, err := NormalizeAttributes(p.Attributes)
		if err != nil {
			return err
		}
		if err := e.idp.UpdateUser(ctx, userID, idp.UserRepresentation{
			Username:   p.Username,
			Email:      p.Email,
			FirstName:  p.FirstName,
			LastName:   p.LastName,
			Enabled:    p.Enabled,
			Attributes: attrs,
		}); err != nil {
			return NewExecutionError(err)
		}
		return e.policy.SyncDataRolesForUser(ctx, userID, attrs)

	case model.ActionDelete:
		userID, err := requireResourceID(cr)
		if err != nil {
			return err
		}
		if err := e.idp.DeleteUser(ctx, userID); err != nil {
			return NewExecutionError(err)
		}
		return nil

	case model.ActionBindRole:
		userID, err := requireResourceID(cr)
		if err != nil {
			return err
		}
		var p rolePayload
		if err := decodePayload(cr, &p); err != nil {
			return err
		}
		if strings.TrimSpace(p.Name) == "" {
			return NewInvalidPayload("role name required")
		}
		//付与はガバナンスチェックを必ず通す
		if err := e.policy.CheckRoleGrants(ctx, userID, []string{p.Name}); err != nil {
			return err
		}
		if err := e.idp.AddRealmRole(ctx, userID, p.Name); err != nil {
			return NewExecutionError(err)
		}
		return nil

	case model.ActionUnbindRole:
		userID, err := requireResourceID(cr)
		if err != nil {
			return err
		}
		var p rolePayload
		if err := decodePayload(cr, &p); err != nil {
			return err
		}
		if strings.TrimSpace(p.Name) == "" {
			return NewInvalidPayload("role name required")
		}
		//レベルが含意するDATA_*の個別剥奪は禁止
		if err := e.policy.CheckRoleRemoval(ctx, userID, p.Name); err != nil {
			return err
		}
		if err := e.idp.RemoveRealmRole(ctx, userID, p.Name); err != nil {
			return NewExecutionError(err)
		}
		return nil
	}
	return NewUnsupportedOperation("no handler for USER/" + string(cr.Action))
}

// ROLEリソースの実体はIdPのグループ。
func (e *ChangeExecutor) executeRole(ctx context.Context, cr *model.ChangeRequest) error {
	switch cr.Action {
	case model.ActionCreate:
		var p rolePayload
		if err := decodePayload(cr, &p); err != nil {
			return err
		}
		if strings.TrimSpace(p.Name) == "" {
			return NewInvalidPayload("name required")
		}
		if _, err := e.idp.CreateGroup(ctx, idp.GroupRepresentation{Name: p.Name, Path: p.Path}); err != nil {
			return NewExecutionError(err)
		}
		return nil

	case model.ActionUpdate:
		groupID, err := requireResourceID(cr)
		if err != nil {
			return err
		}
		var p rolePayload
		if err := decodePayload(cr, &p); err != nil {
			return err
		}
		if err := e.idp.UpdateGroup(ctx, groupID, idp.GroupRepresentation{Name: p.Name, Path: p.Path}); err != nil {
			return NewExecutionError(err)
		}
		return nil

	case model.ActionDelete:
		groupID, err := requireResourceID(cr)
		if err != nil {
			return err
		}
		if err := e.idp.DeleteGroup(ctx, groupID); err != nil {
			return NewExecutionError(err)
		}
		return nil
	}
	return NewUnsupportedOperation("no handler for ROLE/" + string(cr.Action))
}

func parseLocalID(s string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || id <= 0 {
		return 0, NewInvalidPayload("invalid resourceId")
	}
	return id, nil
}

// 親IDの存在を引き直す。見つからなければnilに落とす（エラーにしない）。
func (e *ChangeExecutor) resolveOrgParent(ctx context.Context, parentID *int64) *int64 {
	if parentID == nil {
		return nil
	}
	if _, err := e.orgRepo.FindByID(ctx, *parentID); err != nil {
		return nil
	}
	return parentID
}

func (e *ChangeExecutor) executeOrg(ctx context.Context, cr *model.ChangeRequest) error {
	switch cr.Action {
	case model.ActionCreate:
		var p orgPayload
		if err := decodePayload(cr, &p); err != nil {
			return err
		}
		if strings.TrimSpace(p.Name) == "" || strings.TrimSpace(p.Code) == "" {
			return NewInvalidPayload("name and code required")
		}
		unit := &model.OrgUnit{
			Name:     p.Name,
			Code:     p.Code,
			ParentID: e.resolveOrgParent(ctx, p.ParentID),
		}
		if err := e.orgRepo.Create(ctx, unit); err != nil {
			return NewExecutionError(err)
		}
		return nil

	case model.ActionUpdate:
		rid, err := requireResourceID(cr)
		if err != nil {
			return err
		}
		id, err := parseLocalID(rid)
		if err != nil {
			return err
		}
		var p orgPayload
		if err := decodePayload(cr, &p); err != nil {
			return err
		}
		unit, err := e.orgRepo.FindByID(ctx, id)
		if err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return NewNotFound("org unit not found")
			}
			return NewExecutionError(err)
		}
		if strings.TrimSpace(p.Name) != "" {
			unit.Name = p.Name
		}
		if strings.TrimSpace(p.Code) != "" {
			unit.Code = p.Code
		}
		if err := e.orgRepo.Update(ctx, unit); err != nil {
			return NewExecutionError(err)
		}
		return nil

	case model.ActionDelete:
		rid, err := requireResourceID(cr)
		if err != nil {
			return err
		}
		id, err := parseLocalID(rid)
		if err != nil {
			return err
		}
		if err := e.orgRepo.Delete(ctx, id); err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return NewNotFound("org unit not found")
			}
			return NewExecutionError(err)
		}
		return nil
	}
	return NewUnsupportedOperation("no handler for ORG/" + string(cr.Action))
}

func (e *ChangeExecutor) executeConfig(ctx context.Context, cr *model.ChangeRequest) error {
	if cr.Action != model.ActionConfigSet {
		return NewUnsupportedOperation("no handler for CONFIG/" + string(cr.Action))
	}
	var p configPayload
	if err := decodePayload(cr, &p); err != nil {
		return err
	}
	if strings.TrimSpace(p.Key) == "" {
		return NewInvalidPayload("key required")
	}
	cfg := &model.SystemConfig{
		Key:         p.Key,
		Value:       p.Value,
		Description: p.Description,
		UpdatedBy:   cr.DecidedBy,
		UpdatedAt:   time.Now(),
	}
	if err := e.configRepo.Upsert(ctx, cfg); err != nil {
		return NewExecutionError(err)
	}
	return nil
}

// 親IDの存在を引き直す。見つからなければnilに落とす（エラーにしない）。
func (e *ChangeExecutor) resolveMenuParent(ctx context.Context, parentID *int64) *int64 {
	if parentID == nil {
		return nil
	}
	if _, err := e.menuRepo.FindByID(ctx, *parentID); err != nil {
		return nil
	}
	return parentID
}

func (e *ChangeExecutor) executeMenu(ctx context.Context, cr *model.ChangeRequest) error {
	switch cr.Action {
	case model.ActionCreate:
		var p menuPayload
		if err := decodePayload(cr, &p); err != nil {
			return err
		}
		if strings.TrimSpace(p.Name) == "" {
			return NewInvalidPayload("name required")
		}
		menu := &model.PortalMenu{
			Name:      p.Name,
			Path:      p.Path,
			Icon:      p.Icon,
			ParentID:  e.resolveMenuParent(ctx, p.ParentID),
			SortOrder: p.SortOrder,
		}
		if err := e.menuRepo.Create(ctx, menu); err != nil {
			return NewExecutionError(err)
		}
		return nil

	case model.ActionUpdate:
		rid, err := requireResourceID(cr)
		if err != nil {
			return err
		}
		id, err := parseLocalID(rid)
		if err != nil {
			return err
		}
		var p menuPayload
		if err := decodePayload(cr, &p); err != nil {
			return err
		}
		//自分自身を親にはできない
		if p.ParentID != nil && *p.ParentID == id {
			return NewInvalidPayload("menu cannot be its own parent")
		}
		menu, err := e.menuRepo.FindByID(ctx, id)
		if err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return NewNotFound("menu not found")
			}
			return NewExecutionError(err)
		}
		if strings.TrimSpace(p.Name) != "" {
			menu.Name = p.Name
		}
		menu.Path = p.Path
		menu.Icon = p.Icon
		menu.SortOrder = p.SortOrder
		menu.ParentID = e.resolveMenuParent(ctx, p.ParentID)
		if err := e.menuRepo.Update(ctx, menu); err != nil {
			return NewExecutionError(err)
		}
		return nil

	case model.ActionDelete:
		rid, err := requireResourceID(cr)
		if err != nil {
			return err
		}
		id, err := parseLocalID(rid)
		if err != nil {
			return err
		}
		if err := e.menuRepo.Delete(ctx, id); err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return NewNotFound("menu not found")
			}
			return NewExecutionError(err)
		}
		return nil
	}
	return NewUnsupportedOperation("no handler for MENU/" + string(cr.Action))
}
