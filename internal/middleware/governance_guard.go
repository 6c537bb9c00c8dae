package middleware

import (
	"net/http"

	"app/internal/domain/model"
	"app/internal/repository"

	"github.com/labstack/echo/v4"
)

// トークンのガバナンスロールとホワイトリストを突き合わせるガード。
// ガバナンスロールがちょうど1つで、事前登録の期待ロールと一致した人だけ通す。
func GovernanceGuard(whitelistRepo repository.AdminWhitelistRepository) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			//AuthJWTが入れたusernameを取得する
			rawUsername := c.Get(CtxUsernameKey)
			username, ok := rawUsername.(string)
			if !ok || username == "" {
				return c.JSON(http.StatusUnauthorized, errorJSON("unauthorized"))
			}

			//AuthJWTが入れたrealmロールを取得する
			rawRoles := c.Get(CtxRealmRolesKey)
			roles, ok := rawRoles.([]string)
			if !ok {
				return c.JSON(http.StatusUnauthorized, errorJSON("unauthorized"))
			}

			//ガバナンスロールはちょうど1つだけ
			var held []string
			for _, r := range roles {
				if model.IsGovernanceRole(r) {
					held = append(held, r)
				}
			}
			if len(held) != 1 {
				return c.JSON(http.StatusForbidden, errorJSON("exactly one governance role required"))
			}

			adminRole, ok := model.AdminRoleForRealmRole(held[0])
			if !ok {
				return c.JSON(http.StatusForbidden, errorJSON("forbidden"))
			}

			//ホワイトリストの期待ロールと一致するか
			entry, err := whitelistRepo.FindByUsername(c.Request().Context(), username)
			if err != nil || entry == nil {
				return c.JSON(http.StatusForbidden, errorJSON("not whitelisted"))
			}
			if entry.Role != adminRole {
				return c.JSON(http.StatusForbidden, errorJSON("role mismatch"))
			}

			c.Set(CtxAdminRoleKey, string(adminRole))
			return next(c)
		}
	}
}

// 指定ロールのどれかを持っていなければ403。
func RequireRole(allowed ...model.AdminRole) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			rawRole := c.Get(CtxAdminRoleKey)
			role, ok := rawRole.(string)
			if !ok || role == "" {
				return c.JSON(http.StatusUnauthorized, errorJSON("unauthorized"))
			}
			for _, a := range allowed {
				if model.AdminRole(role) == a {
					return next(c)
				}
			}
			return c.JSON(http.StatusForbidden, errorJSON("forbidden"))
		}
	}
}
