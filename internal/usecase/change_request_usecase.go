package usecase

import (
	"context"
	"errors"
	"time"

	"app/internal/domain/model"
	repo "app/internal/repository"

	"github.com/google/uuid"
)

// 変更リクエストのライフサイクルを管理する。
// DRAFT → PENDING → {APPROVED → {APPLIED | FAILED}} | REJECTED
// 承認と適用は1つの呼び出しに融合している（承認したのに未実行、を作らないため）。
type ChangeRequestUsecase struct {
	crRepo   repo.ChangeRequestRepository
	executor *ChangeExecutor
	audit    *AuditRecorder
}

func NewChangeRequestUsecase(crRepo repo.ChangeRequestRepository, executor *ChangeExecutor, audit *AuditRecorder) *ChangeRequestUsecase {
	return &ChangeRequestUsecase{crRepo: crRepo, executor: executor, audit: audit}
}

type CreateDraftInput struct {
	ResourceType string
	ResourceID   string
	Action       string
	PayloadJSON  string
	DiffJSON     string
}

// 編集できるのはこの3つだけ。nilのフィールドは触らない。
type UpdateDraftInput struct {
	ResourceID  *string
	PayloadJSON *string
	DiffJSON    *string
}

// 監査ログのresource欄の形（TYPE:id）。
func auditResource(cr *model.ChangeRequest) string {
	return string(cr.ResourceType) + ":" + cr.ID
}

func (u *ChangeRequestUsecase) CreateDraft(ctx context.Context, in CreateDraftInput, actor Principal) (*model.ChangeRequest, error) {
	rt := model.ResourceType(in.ResourceType)
	if !model.IsValidResourceType(rt) {
		return nil, NewInvalidArgument("unknown resource type: " + in.ResourceType)
	}
	action := model.ChangeAction(in.Action)
	if !model.IsActionAllowed(rt, action) {
		return nil, NewInvalidArgument("action " + in.Action + " is not allowed for " + in.ResourceType)
	}

	cr := &model.ChangeRequest{
		ID:           uuid.NewString(),
		ResourceType: rt,
		ResourceID:   in.ResourceID,
		Action:       action,
		PayloadJSON:  in.PayloadJSON,
		DiffJSON:     in.DiffJSON,
		Status:       model.StatusDraft,
		RequestedBy:  actor.Username,
		RequestedAt:  time.Now(),
	}
	if err := u.crRepo.Create(ctx, cr); err != nil {
		u.audit.Record(ctx, actor, AuditActionCreateDraft, string(rt), err)
		return nil, NewExecutionError(err)
	}
	u.audit.Record(ctx, actor, AuditActionCreateDraft, auditResource(cr), nil)
	return cr, nil
}

// DRAFT中だけ、起票者本人だけが編集できる。
func (u *ChangeRequestUsecase) UpdateDraft(ctx context.Context, id string, patch UpdateDraftInput, actor Principal) (*model.ChangeRequest, error) {
	cr, err := u.findOwnedDraft(ctx, id, actor)
	if err != nil {
		return nil, err
	}

	if patch.ResourceID != nil {
		cr.ResourceID = *patch.ResourceID
	}
	if patch.PayloadJSON != nil {
		cr.PayloadJSON = *patch.PayloadJSON
	}
	if patch.DiffJSON != nil {
		cr.DiffJSON = *patch.DiffJSON
	}

	err = u.crRepo.Update(ctx, cr)
	u.audit.Record(ctx, actor, AuditActionUpdateDraft, auditResource(cr), err)
	if err != nil {
		return nil, NewExecutionError(err)
	}
	return cr, nil
}

// DRAFT → PENDING。提出時刻でrequestedAtを更新する。
func (u *ChangeRequestUsecase) Submit(ctx context.Context, id string, actor Principal) (*model.ChangeRequest, error) {
	cr, err := u.findOwnedDraft(ctx, id, actor)
	if err != nil {
		return nil, err
	}

	cr.Status = model.StatusPending
	cr.RequestedAt = time.Now()

	err = u.transition(ctx, cr, model.StatusDraft)
	u.audit.Record(ctx, actor, AuditActionSubmit, auditResource(cr), err)
	if err != nil {
		return nil, err
	}
	return cr, nil
}

// PENDING → APPROVED、続けてExecutorを同期実行する。
// 実行成功でAPPLIED、失敗ならFAILEDを保存してからerrorをそのまま返す。
func (u *ChangeRequestUsecase) Approve(ctx context.Context, id string, actor Principal, reason string) (*model.ChangeRequest, error) {
	cr, err := u.findPending(ctx, id)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	cr.Status = model.StatusApproved
	cr.DecidedBy = actor.Username
	cr.DecidedAt = &now
	cr.Reason = reason

	//先を越されたらInvalidState（同時approve/reject対策のCAS）
	if err := u.transition(ctx, cr, model.StatusPending); err != nil {
		u.audit.Record(ctx, actor, AuditActionApprove, auditResource(cr), err)
		return nil, err
	}

	execErr := u.executor.Execute(ctx, cr)
	if execErr != nil {
		cr.Status = model.StatusFailed
		cr.ErrorMessage = execErr.Error()
	} else {
		cr.Status = model.StatusApplied
	}

	//FAILEDの記録を先に残してからエラーを表に出す
	if err := u.crRepo.Update(ctx, cr); err != nil {
		u.audit.Record(ctx, actor, AuditActionApprove, auditResource(cr), err)
		return nil, NewExecutionError(err)
	}

	u.audit.Record(ctx, actor, AuditActionApprove, auditResource(cr), execErr)
	if execErr != nil {
		return nil, execErr
	}
	return cr, nil
}

// PENDING → REJECTED。Executorは呼ばない。
func (u *ChangeRequestUsecase) Reject(ctx context.Context, id string, actor Principal, reason string) (*model.ChangeRequest, error) {
	cr, err := u.findPending(ctx, id)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	cr.Status = model.StatusRejected
	cr.DecidedBy = actor.Username
	cr.DecidedAt = &now
	cr.Reason = reason

	err = u.transition(ctx, cr, model.StatusPending)
	u.audit.Record(ctx, actor, AuditActionReject, auditResource(cr), err)
	if err != nil {
		return nil, err
	}
	return cr, nil
}

type ListChangeRequestsInput struct {
	Status       string
	ResourceType string
	Limit        int
	Offset       int
}

func (u *ChangeRequestUsecase) List(ctx context.Context, in ListChangeRequestsInput) ([]model.ChangeRequest, error) {
	filter := repo.ChangeRequestFilter{Limit: in.Limit, Offset: in.Offset}

	if in.Status != "" {
		s := model.ChangeStatus(in.Status)
		if !model.IsValidChangeStatus(s) {
			return nil, NewInvalidArgument("unknown status: " + in.Status)
		}
		filter.Status = &s
	}
	if in.ResourceType != "" {
		rt := model.ResourceType(in.ResourceType)
		if !model.IsValidResourceType(rt) {
			return nil, NewInvalidArgument("unknown resource type: " + in.ResourceType)
		}
		filter.ResourceType = &rt
	}

	crs, err := u.crRepo.List(ctx, filter)
	if err != nil {
		return nil, NewExecutionError(err)
	}
	return crs, nil
}

// 自分が起票したリクエスト（新しい順）。
func (u *ChangeRequestUsecase) ListMine(ctx context.Context, actor Principal) ([]model.ChangeRequest, error) {
	crs, err := u.crRepo.List(ctx, repo.ChangeRequestFilter{RequestedBy: &actor.Username})
	if err != nil {
		return nil, NewExecutionError(err)
	}
	return crs, nil
}

// 起票者本人のDRAFTを取る。NotFound / Forbidden / InvalidStateをここで揃える。
func (u *ChangeRequestUsecase) findOwnedDraft(ctx context.Context, id string, actor Principal) (*model.ChangeRequest, error) {
	cr, err := u.crRepo.FindByID(ctx, id)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, NewNotFound("change request not found")
	}
	if err != nil {
		return nil, NewExecutionError(err)
	}
	if cr.RequestedBy != actor.Username {
		return nil, NewForbidden("only the requester can modify a draft")
	}
	if cr.Status != model.StatusDraft {
		return nil, NewInvalidState("change request is " + string(cr.Status) + ", not DRAFT")
	}
	return cr, nil
}

func (u *ChangeRequestUsecase) findPending(ctx context.Context, id string) (*model.ChangeRequest, error) {
	cr, err := u.crRepo.FindByID(ctx, id)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, NewNotFound("change request not found")
	}
	if err != nil {
		return nil, NewExecutionError(err)
	}
	if cr.Status != model.StatusPending {
		return nil, NewInvalidState("change request is " + string(cr.Status) + ", not PENDING")
	}
	return cr, nil
}

// 条件付き更新。競合はInvalidState扱いにする。
func (u *ChangeRequestUsecase) transition(ctx context.Context, cr *model.ChangeRequest, from model.ChangeStatus) error {
	err := u.crRepo.TransitionFrom(ctx, cr, from)
	if errors.Is(err, repo.ErrConflict) {
		return NewInvalidState("change request is no longer " + string(from))
	}
	if err != nil {
		return NewExecutionError(err)
	}
	return nil
}
