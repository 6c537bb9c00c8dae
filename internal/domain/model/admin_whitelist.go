package model

import "time"

// 管理API側のロール名（トークンのガバナンスロールに対応する）。
type AdminRole string

const (
	AdminRoleSys   AdminRole = "SYSADMIN"
	AdminRoleAuth  AdminRole = "AUTHADMIN"
	AdminRoleAudit AdminRole = "AUDITADMIN"
)

// トークンのrealmロール → 管理ロールの対応。該当なしはfalse。
func AdminRoleForRealmRole(realmRole string) (AdminRole, bool) {
	switch realmRole {
	case RoleSysAdmin:
		return AdminRoleSys, true
	case RoleAuthAdmin:
		return AdminRoleAuth, true
	case RoleAuditorAdmin:
		return AdminRoleAudit, true
	}
	return "", false
}

// 事前登録された管理者。username＋期待ロールが一致した人だけ通す。
type AdminWhitelist struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Username  string    `gorm:"type:varchar(191);uniqueIndex;not null" json:"username"`
	Email     string    `gorm:"type:varchar(191)" json:"email"`
	Role      AdminRole `gorm:"type:varchar(20);not null" json:"role"`
	IsActive  bool      `gorm:"not null;default:true" json:"is_active"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
