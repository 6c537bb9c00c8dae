package model

import "time"

// 操作の結果。
type AuditOutcome string

const (
	AuditOutcomeSuccess AuditOutcome = "SUCCESS"
	AuditOutcomeFailure AuditOutcome = "FAILURE"
)

// 監査ログ。「誰が」「どこから」「何を」「どうなったか」を残す。
type AuditLog struct {
	ID int64 `gorm:"primaryKey;autoIncrement" json:"id"`

	//操作時刻
	Timestamp time.Time `gorm:"not null;index" json:"timestamp"`

	//操作した管理者のusername。
	Actor string `gorm:"type:varchar(191);not null;index" json:"actor"`

	//操作時に保持していたロール（カンマ区切り）。
	Roles string `gorm:"type:varchar(255)" json:"roles"`

	//接続元IP。
	IP string `gorm:"type:varchar(64)" json:"ip"`

	//操作の種類（CREATE_DRAFT / SUBMIT / APPROVE / REJECT など）。
	Action string `gorm:"type:varchar(50);not null;index" json:"action"`

	//対象（resourceType:id の形）。
	Resource string `gorm:"type:varchar(255);index" json:"resource"`

	//SUCCESS / FAILURE。
	Outcome AuditOutcome `gorm:"type:varchar(20);not null;index" json:"outcome"`

	//失敗時の補足。
	Detail string `gorm:"type:text" json:"detail"`
}
