package middleware

import (
	"app/internal/domain/model"
	"app/internal/usecase"

	"github.com/labstack/echo/v4"
)

// ガード通過後のcontextからPrincipalを組み立てる。
// usecaseへはこれを明示的に渡す（ambientな参照はしない）。
func PrincipalFromContext(c echo.Context) (usecase.Principal, bool) {
	username, ok := c.Get(CtxUsernameKey).(string)
	if !ok || username == "" {
		return usecase.Principal{}, false
	}
	role, ok := c.Get(CtxAdminRoleKey).(string)
	if !ok || role == "" {
		return usecase.Principal{}, false
	}
	email, _ := c.Get(CtxEmailKey).(string)
	roles, _ := c.Get(CtxRealmRolesKey).([]string)

	return usecase.Principal{
		Username:   username,
		Email:      email,
		Role:       model.AdminRole(role),
		RealmRoles: roles,
		IP:         c.RealIP(),
	}, true
}
