package usecase

import (
	"context"
	"strings"

	"app/internal/domain/model"
	"app/internal/idp"
)

// 属性名。person_levelは旧システム互換の別名。
const (
	AttrSecurityLevel       = "person_security_level"
	AttrSecurityLevelLegacy = "person_level"
	AttrDataLevels          = "data_levels"
)

// ロール付与のガバナンスルールを一箇所で見るエンジン。
// ルールA: 運用ロールとガバナンスロールの兼任禁止。
// ルールB: DATA_*ロールは本人のperson_security_levelが許す範囲のみ。
type PolicyEngine struct {
	idp idp.IdentityProvider
}

func NewPolicyEngine(provider idp.IdentityProvider) *PolicyEngine {
	return &PolicyEngine{idp: provider}
}

// ロール付与前のチェック。違反があれば何も変更せずにerrorを返す。
// requestedは同一バッチで付与しようとしているロール全部。
func (p *PolicyEngine) CheckRoleGrants(ctx context.Context, userID string, requested []string) error {
	current, err := p.idp.GetUserRoles(ctx, userID)
	if err != nil {
		return NewExecutionError(err)
	}

	//ルールA: 現在ロール＋今回付与分を合わせて判定する
	union := map[string]bool{}
	for _, r := range current {
		union[r] = true
	}
	for _, r := range requested {
		union[r] = true
	}
	if union[model.RoleOpAdmin] {
		for _, g := range model.GovernanceRoles {
			if union[g] {
				return NewPolicyViolation("operational and governance roles cannot be held together")
			}
		}
	}

	//ルールB: DATA_*はレベルの解放範囲内のみ
	var dataRequested []string
	for _, r := range requested {
		if model.IsDataRole(r) {
			dataRequested = append(dataRequested, r)
		}
	}
	if len(dataRequested) == 0 {
		return nil
	}

	attrs, err := p.idp.GetUserAttributes(ctx, userID)
	if err != nil {
		return NewExecutionError(err)
	}
	level, ok := securityLevelFromAttributes(attrs)
	if !ok {
		return NewPolicyViolation("configure person_security_level first")
	}
	unlocked := map[string]bool{}
	for _, r := range level.DataRoleNames() {
		unlocked[r] = true
	}
	for _, r := range dataRequested {
		if !unlocked[r] {
			return NewPolicyViolation("role " + r + " is not unlocked by security level " + string(level))
		}
	}
	return nil
}

// ロール剥奪前のチェック。
// レベルがまだ含意しているDATA_*ロールの個別剥奪は禁止（レベル変更で同期するのが正）。
func (p *PolicyEngine) CheckRoleRemoval(ctx context.Context, userID string, role string) error {
	if !model.IsDataRole(role) {
		return nil
	}
	attrs, err := p.idp.GetUserAttributes(ctx, userID)
	if err != nil {
		return NewExecutionError(err)
	}
	level, ok := securityLevelFromAttributes(attrs)
	if !ok {
		return nil
	}
	for _, implied := range level.DataRoleNames() {
		if implied == role {
			return NewPolicyViolation("role " + role + " is implied by security level " + string(level) + "; change the level instead")
		}
	}
	return nil
}

// 属性バッグからレベルを読む。person_security_level優先、無ければperson_level。
func securityLevelFromAttributes(attrs map[string][]string) (model.PersonSecurityLevel, bool) {
	for _, key := range []string{AttrSecurityLevel, AttrSecurityLevelLegacy} {
		for _, v := range attrs[key] {
			if strings.TrimSpace(v) != "" {
				return model.ParseSecurityLevel(strings.TrimSpace(v))
			}
		}
	}
	return "", false
}

// 属性の正規化。レベルが設定されていれば派生属性3つを書き直し、
// 無ければ派生属性を消す（古い値を残さない）。入力は変更しない。
func NormalizeAttributes(raw map[string][]string) (map[string][]string, error) {
	out := make(map[string][]string, len(raw))
	for k, v := range raw {
		out[k] = append([]string(nil), v...)
	}

	var rawLevel string
	for _, key := range []string{AttrSecurityLevel, AttrSecurityLevelLegacy} {
		for _, v := range out[key] {
			if strings.TrimSpace(v) != "" {
				rawLevel = strings.TrimSpace(v)
				break
			}
		}
		if rawLevel != "" {
			break
		}
	}

	if rawLevel == "" {
		delete(out, AttrSecurityLevel)
		delete(out, AttrSecurityLevelLegacy)
		delete(out, AttrDataLevels)
		return out, nil
	}

	level, ok := model.ParseSecurityLevel(rawLevel)
	if !ok {
		return nil, NewInvalidArgument("unknown person_security_level: " + rawLevel)
	}

	levels := make([]string, 0, 4)
	for _, r := range level.DataRoleNames() {
		levels = append(levels, strings.TrimPrefix(r, "DATA_"))
	}

	out[AttrSecurityLevel] = []string{string(level)}
	out[AttrSecurityLevelLegacy] = []string{string(level)}
	out[AttrDataLevels] = levels
	return out, nil
}

// DATA_*ロールをレベルに合わせて同期する。
// desired−currentを付与、current−desiredを剥奪。差分ゼロならIdPを一切呼ばない。
func (p *PolicyEngine) SyncDataRolesForUser(ctx context.Context, userID string, attrs map[string][]string) error {
	desired := map[string]bool{}
	if level, ok := securityLevelFromAttributes(attrs); ok {
		for _, r := range level.DataRoleNames() {
			desired[r] = true
		}
	}

	held, err := p.idp.GetUserRoles(ctx, userID)
	if err != nil {
		return NewExecutionError(err)
	}
	current := map[string]bool{}
	for _, r := range held {
		if model.IsDataRole(r) {
			current[r] = true
		}
	}

	//区分の低い順に処理して呼び出し順を安定させる
	for _, r := range model.AllDataRoles {
		if desired[r] && !current[r] {
			if err := p.idp.AddRealmRole(ctx, userID, r); err != nil {
				return NewExecutionError(err)
			}
		}
	}
	for _, r := range model.AllDataRoles {
		if current[r] && !desired[r] {
			if err := p.idp.RemoveRealmRole(ctx, userID, r); err != nil {
				return NewExecutionError(err)
			}
		}
	}
	return nil
}
