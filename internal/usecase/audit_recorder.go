package usecase

import (
	"context"
	"strings"
	"time"

	"app/internal/domain/model"
	repo "app/internal/repository"

	"github.com/sirupsen/logrus"
)

// 認証済みの管理者。ミドルウェアで組み立ててusecaseへ明示的に渡す。
type Principal struct {
	Username string
	Email    string
	//SYSADMIN / AUTHADMIN / AUDITADMIN
	Role model.AdminRole
	//トークンに載っていたrealmロール全部
	RealmRoles []string
	//接続元IP
	IP string
}

// 監査の操作名。
const (
	AuditActionCreateDraft = "CREATE_DRAFT"
	AuditActionUpdateDraft = "UPDATE_DRAFT"
	AuditActionSubmit      = "SUBMIT"
	AuditActionApprove     = "APPROVE"
	AuditActionReject      = "REJECT"
)

// 変更系操作の前後を包んで監査ログを書くデコレータ。
// 書き込み失敗は主処理を失敗させない（ログに出すだけ）。
type AuditRecorder struct {
	repo   repo.AuditLogRepository
	logger *logrus.Logger
}

func NewAuditRecorder(auditRepo repo.AuditLogRepository, logger *logrus.Logger) *AuditRecorder {
	return &AuditRecorder{repo: auditRepo, logger: logger}
}

// 操作の結果を記録する。成功・失敗どちらでも1行残す。
func (r *AuditRecorder) Record(ctx context.Context, p Principal, action string, resource string, opErr error) {
	outcome := model.AuditOutcomeSuccess
	detail := ""
	if opErr != nil {
		outcome = model.AuditOutcomeFailure
		detail = opErr.Error()
	}

	log := model.AuditLog{
		Timestamp: time.Now(),
		Actor:     p.Username,
		Roles:     strings.Join(p.RealmRoles, ","),
		IP:        p.IP,
		Action:    action,
		Resource:  resource,
		Outcome:   outcome,
		Detail:    detail,
	}
	if err := r.repo.Create(ctx, log); err != nil {
		r.logger.WithFields(logrus.Fields{
			"actor":  p.Username,
			"action": action,
		}).WithError(err).Error("audit write failed")
	}
}
