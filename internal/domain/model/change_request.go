package model

import "time"

// 変更対象のリソース種別。
type ResourceType string

const (
	ResourceUser   ResourceType = "USER"
	ResourceRole   ResourceType = "ROLE"
	ResourceOrg    ResourceType = "ORG"
	ResourceConfig ResourceType = "CONFIG"
	ResourceMenu   ResourceType = "MENU"
)

// 変更リクエストの操作種別。
type ChangeAction string

const (
	ActionCreate     ChangeAction = "CREATE"
	ActionUpdate     ChangeAction = "UPDATE"
	ActionDelete     ChangeAction = "DELETE"
	ActionBindRole   ChangeAction = "BIND_ROLE"
	ActionUnbindRole ChangeAction = "UNBIND_ROLE"
	ActionConfigSet  ChangeAction = "CONFIG_SET"
)

// 変更リクエストの状態。
// DRAFT → PENDING → {APPROVED → {APPLIED | FAILED}} | REJECTED
type ChangeStatus string

const (
	StatusDraft    ChangeStatus = "DRAFT"
	StatusPending  ChangeStatus = "PENDING"
	StatusApproved ChangeStatus = "APPROVED"
	StatusRejected ChangeStatus = "REJECTED"
	StatusApplied  ChangeStatus = "APPLIED"
	StatusFailed   ChangeStatus = "FAILED"
)

// APPLIED / REJECTED / FAILED は終端。以後の遷移は不可。
func (s ChangeStatus) IsTerminal() bool {
	switch s {
	case StatusApplied, StatusRejected, StatusFailed:
		return true
	default:
		return false
	}
}

// 変更リクエスト本体。履歴として残すので削除はしない。
type ChangeRequest struct {
	//UUID文字列
	ID string `gorm:"type:varchar(36);primaryKey" json:"id"`

	//対象リソース種別（USER / ROLE / ORG / CONFIG / MENU）。
	ResourceType ResourceType `gorm:"type:varchar(20);not null;index" json:"resource_type"`

	//UPDATE / DELETE の対象ID。CREATEでは空。
	ResourceID string `gorm:"type:varchar(191)" json:"resource_id"`

	//操作種別（CREATE / UPDATE / DELETE / BIND_ROLE / UNBIND_ROLE / CONFIG_SET）。
	Action ChangeAction `gorm:"type:varchar(20);not null" json:"action"`

	//適用内容。中身はExecutorだけが解釈する。
	PayloadJSON string `gorm:"type:text" json:"payload_json"`

	//人間向け差分。コアは解釈しない。
	DiffJSON string `gorm:"type:text" json:"diff_json"`

	//現在の状態。
	Status ChangeStatus `gorm:"type:varchar(20);not null;index" json:"status"`

	//起票者。以後変更不可。draftの編集・提出は本人のみ。
	RequestedBy string    `gorm:"type:varchar(191);not null;index" json:"requested_by"`
	RequestedAt time.Time `gorm:"not null" json:"requested_at"`

	//承認・却下した人と時刻、理由。
	DecidedBy string     `gorm:"type:varchar(191)" json:"decided_by"`
	DecidedAt *time.Time `json:"decided_at"`
	Reason    string     `gorm:"type:text" json:"reason"`

	//適用失敗時のエラー内容。
	ErrorMessage string `gorm:"type:text" json:"error_message"`
}

// (resourceType, action) の組が定義表にあるかどうか。
func IsActionAllowed(rt ResourceType, a ChangeAction) bool {
	switch rt {
	case ResourceUser:
		switch a {
		case ActionCreate, ActionUpdate, ActionDelete, ActionBindRole, ActionUnbindRole:
			return true
		}
	case ResourceRole, ResourceOrg, ResourceMenu:
		switch a {
		case ActionCreate, ActionUpdate, ActionDelete:
			return true
		}
	case ResourceConfig:
		return a == ActionConfigSet
	}
	return false
}

func IsValidResourceType(rt ResourceType) bool {
	switch rt {
	case ResourceUser, ResourceRole, ResourceOrg, ResourceConfig, ResourceMenu:
		return true
	}
	return false
}

func IsValidChangeStatus(s ChangeStatus) bool {
	switch s {
	case StatusDraft, StatusPending, StatusApproved, StatusRejected, StatusApplied, StatusFailed:
		return true
	}
	return false
}
