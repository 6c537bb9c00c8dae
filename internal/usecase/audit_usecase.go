package usecase

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"app/internal/domain/model"
	repo "app/internal/repository"
)

// 監査ログの照会とエクスポート。
type AuditUsecase struct {
	auditRepo repo.AuditLogRepository
}

func NewAuditUsecase(auditRepo repo.AuditLogRepository) *AuditUsecase {
	return &AuditUsecase{auditRepo: auditRepo}
}

type AuditQueryInput struct {
	//ISO-8601（RFC3339）。省略時は直近24時間。
	From     string
	To       string
	Actor    string
	Action   string
	Resource string
	Outcome  string
	Limit    int
	Offset   int
}

func (u *AuditUsecase) Query(ctx context.Context, in AuditQueryInput) ([]model.AuditLog, error) {
	filter := repo.AuditLogFilter{Limit: in.Limit, Offset: in.Offset}

	now := time.Now()
	to := now
	if in.To != "" {
		t, err := time.Parse(time.RFC3339, in.To)
		if err != nil {
			return nil, NewInvalidArgument("invalid to: " + in.To)
		}
		to = t
	}
	from := to.Add(-24 * time.Hour)
	if in.From != "" {
		t, err := time.Parse(time.RFC3339, in.From)
		if err != nil {
			return nil, NewInvalidArgument("invalid from: " + in.From)
		}
		from = t
	}
	filter.From = &from
	filter.To = &to

	if in.Actor != "" {
		filter.Actor = &in.Actor
	}
	if in.Action != "" {
		filter.Action = &in.Action
	}
	if in.Resource != "" {
		filter.Resource = &in.Resource
	}
	if in.Outcome != "" {
		o := model.AuditOutcome(in.Outcome)
		if o != model.AuditOutcomeSuccess && o != model.AuditOutcomeFailure {
			return nil, NewInvalidArgument("unknown outcome: " + in.Outcome)
		}
		filter.Outcome = &o
	}

	logs, err := u.auditRepo.List(ctx, filter)
	if err != nil {
		return nil, NewExecutionError(err)
	}
	return logs, nil
}

// CSVのエスケープ。カンマか改行を含むフィールドだけ"で囲み、"は""に重ねる。
func escapeCSV(s string) string {
	if !strings.ContainsAny(s, ",\n") {
		return s
	}
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// CSV形式（ヘッダ付き）。
func ExportCSV(logs []model.AuditLog) string {
	var b strings.Builder
	b.WriteString("id,timestamp,actor,roles,ip,action,resource,outcome\n")
	for _, l := range logs {
		fields := []string{
			strconv.FormatInt(l.ID, 10),
			l.Timestamp.Format(time.RFC3339),
			l.Actor,
			l.Roles,
			l.IP,
			l.Action,
			l.Resource,
			string(l.Outcome),
		}
		for i, f := range fields {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteString(escapeCSV(f))
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// JSONエクスポートの1行分（平坦な8フィールド）。
type auditExportRecord struct {
	ID        int64  `json:"id"`
	Timestamp string `json:"timestamp"`
	Actor     string `json:"actor"`
	Roles     string `json:"roles"`
	IP        string `json:"ip"`
	Action    string `json:"action"`
	Resource  string `json:"resource"`
	Outcome   string `json:"outcome"`
}

// JSON形式（フラットなオブジェクトの配列）。
func ExportJSON(logs []model.AuditLog) (string, error) {
	records := make([]auditExportRecord, 0, len(logs))
	for _, l := range logs {
		records = append(records, auditExportRecord{
			ID:        l.ID,
			Timestamp: l.Timestamp.Format(time.RFC3339),
			Actor:     l.Actor,
			Roles:     l.Roles,
			IP:        l.IP,
			Action:    l.Action,
			Resource:  l.Resource,
			Outcome:   string(l.Outcome),
		})
	}
	b, err := json.Marshal(records)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
