package middleware_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"app/internal/domain/model"
	"app/internal/middleware"
	"app/internal/repository"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
)

// username→登録行の固定マップ。未登録はErrNotFound。
type fakeWhitelistRepo struct {
	entries map[string]*model.AdminWhitelist
}

func (f *fakeWhitelistRepo) FindByUsername(ctx context.Context, username string) (*model.AdminWhitelist, error) {
	if e, ok := f.entries[username]; ok {
		return e, nil
	}
	return nil, repository.ErrNotFound
}

func whitelistWith(username string, role model.AdminRole) *fakeWhitelistRepo {
	return &fakeWhitelistRepo{entries: map[string]*model.AdminWhitelist{
		username: {Username: username, Role: role, IsActive: true},
	}}
}

// AuthJWT通過後の状態を作ってガードに通す。
func invokeGuard(mw echo.MiddlewareFunc, username string, roles []string) (*httptest.ResponseRecorder, echo.Context, bool) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/admin/change-requests", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if username != "" {
		c.Set(middleware.CtxUsernameKey, username)
	}
	if roles != nil {
		c.Set(middleware.CtxRealmRolesKey, roles)
	}

	reached := false
	h := mw(func(c echo.Context) error {
		reached = true
		return c.NoContent(http.StatusOK)
	})
	_ = h(c)
	return rec, c, reached
}

func TestGovernanceGuard_RequiresExactlyOneGovernanceRole(t *testing.T) {
	mw := middleware.GovernanceGuard(whitelistWith("alice", model.AdminRoleSys))

	//0個
	rec, _, reached := invokeGuard(mw, "alice", []string{"app-viewer"})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.False(t, reached)
	assert.Contains(t, rec.Body.String(), "exactly one governance role required")

	//2個
	rec, _, reached = invokeGuard(mw, "alice", []string{model.RoleSysAdmin, model.RoleAuthAdmin})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.False(t, reached)
}

func TestGovernanceGuard_NotWhitelisted(t *testing.T) {
	mw := middleware.GovernanceGuard(whitelistWith("alice", model.AdminRoleSys))

	rec, _, reached := invokeGuard(mw, "mallory", []string{model.RoleSysAdmin})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.False(t, reached)
	assert.Contains(t, rec.Body.String(), "not whitelisted")
}

func TestGovernanceGuard_RoleMismatch(t *testing.T) {
	//登録はAUTHADMINなのにトークンはSYSADMIN
	mw := middleware.GovernanceGuard(whitelistWith("alice", model.AdminRoleAuth))

	rec, _, reached := invokeGuard(mw, "alice", []string{model.RoleSysAdmin})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.False(t, reached)
	assert.Contains(t, rec.Body.String(), "role mismatch")
}

func TestGovernanceGuard_MissingAuthContext(t *testing.T) {
	mw := middleware.GovernanceGuard(whitelistWith("alice", model.AdminRoleSys))

	rec, _, reached := invokeGuard(mw, "", []string{model.RoleSysAdmin})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, reached)

	rec, _, reached = invokeGuard(mw, "alice", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, reached)
}

func TestGovernanceGuard_SetsAdminRole(t *testing.T) {
	mw := middleware.GovernanceGuard(whitelistWith("carol", model.AdminRoleAudit))

	rec, c, reached := invokeGuard(mw, "carol", []string{"app-viewer", model.RoleAuditorAdmin})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, reached)
	assert.Equal(t, string(model.AdminRoleAudit), c.Get(middleware.CtxAdminRoleKey))
}

func TestRequireRole(t *testing.T) {
	mw := middleware.RequireRole(model.AdminRoleSys, model.AdminRoleAuth)

	run := func(role string) (*httptest.ResponseRecorder, bool) {
		e := echo.New()
		req := httptest.NewRequest(http.MethodPost, "/admin/change-requests", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		if role != "" {
			c.Set(middleware.CtxAdminRoleKey, role)
		}
		reached := false
		h := mw(func(c echo.Context) error {
			reached = true
			return c.NoContent(http.StatusOK)
		})
		_ = h(c)
		return rec, reached
	}

	rec, reached := run(string(model.AdminRoleSys))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, reached)

	rec, reached = run(string(model.AdminRoleAudit))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.False(t, reached)

	rec, reached = run("")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, reached)
}
