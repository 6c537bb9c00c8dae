package model

// 職位に紐づく秘密区分。上位は下位の区分を全部含む。
type PersonSecurityLevel string

const (
	LevelNonSecret PersonSecurityLevel = "NON_SECRET"
	LevelGeneral   PersonSecurityLevel = "GENERAL"
	LevelImportant PersonSecurityLevel = "IMPORTANT"
	LevelCore      PersonSecurityLevel = "CORE"
)

// データ区分ロール。
const (
	RoleDataPublic    = "DATA_PUBLIC"
	RoleDataInternal  = "DATA_INTERNAL"
	RoleDataSecret    = "DATA_SECRET"
	RoleDataTopSecret = "DATA_TOP_SECRET"
)

// ガバナンスロールと運用ロール。両グループの兼任は禁止。
const (
	RoleSysAdmin     = "ROLE_SYS_ADMIN"
	RoleAuthAdmin    = "ROLE_AUTH_ADMIN"
	RoleAuditorAdmin = "ROLE_AUDITOR_ADMIN"
	RoleOpAdmin      = "ROLE_OP_ADMIN"
)

// 既知のDATA_*ロール全部（区分の低い順）。
var AllDataRoles = []string{RoleDataPublic, RoleDataInternal, RoleDataSecret, RoleDataTopSecret}

// ガバナンスロール全部。
var GovernanceRoles = []string{RoleSysAdmin, RoleAuthAdmin, RoleAuditorAdmin}

// レベル文字列を正規化する。該当なしはfalse。
func ParseSecurityLevel(s string) (PersonSecurityLevel, bool) {
	switch PersonSecurityLevel(s) {
	case LevelNonSecret, LevelGeneral, LevelImportant, LevelCore:
		return PersonSecurityLevel(s), true
	}
	return "", false
}

// このレベルで保持できるDATA_*ロール（累積）。
// 上位レベルは必ず下位の集合を包含する。
func (l PersonSecurityLevel) DataRoleNames() []string {
	switch l {
	case LevelNonSecret:
		return AllDataRoles[:1]
	case LevelGeneral:
		return AllDataRoles[:2]
	case LevelImportant:
		return AllDataRoles[:3]
	case LevelCore:
		return AllDataRoles[:4]
	}
	return nil
}

func IsDataRole(name string) bool {
	for _, r := range AllDataRoles {
		if r == name {
			return true
		}
	}
	return false
}

func IsGovernanceRole(name string) bool {
	for _, r := range GovernanceRoles {
		if r == name {
			return true
		}
	}
	return false
}
