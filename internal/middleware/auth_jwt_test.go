package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"app/internal/config"
	"app/internal/domain/model"
	"app/internal/middleware"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
)

const testSecret = "unit-test-secret"

func testConfig() config.Config {
	return config.Config{
		JWTSecret:   testSecret,
		JWTAudience: "admin-portal",
	}
}

// HS256で署名したトークンを作る。
func signToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(testSecret))
	assert.NoError(t, err)
	return signed
}

func validClaims(roles ...string) jwt.MapClaims {
	return jwt.MapClaims{
		"aud":                "admin-portal",
		"preferred_username": "alice",
		"email":              "alice@example.com",
		"exp":                time.Now().Add(time.Hour).Unix(),
		"realm_access":       map[string]interface{}{"roles": rolesToIface(roles)},
	}
}

func rolesToIface(roles []string) []interface{} {
	out := make([]interface{}, 0, len(roles))
	for _, r := range roles {
		out = append(out, r)
	}
	return out
}

// ミドルウェアに1リクエストを通す。nextに到達したらcontextを記録する。
func invoke(mw echo.MiddlewareFunc, req *http.Request) (*httptest.ResponseRecorder, echo.Context, bool) {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	reached := false
	h := mw(func(c echo.Context) error {
		reached = true
		return c.NoContent(http.StatusOK)
	})
	_ = h(c)
	return rec, c, reached
}

func bearerRequest(token string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/admin/change-requests", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req
}

func TestAuthJWT_MissingOrMalformedHeader(t *testing.T) {
	mw := middleware.AuthJWT(testConfig())

	rec, _, reached := invoke(mw, bearerRequest(""))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, reached)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Basic abc")
	rec, _, reached = invoke(mw, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, reached)
}

func TestAuthJWT_BadSignature(t *testing.T) {
	mw := middleware.AuthJWT(testConfig())

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, validClaims(model.RoleSysAdmin))
	signed, err := token.SignedString([]byte("other-secret"))
	assert.NoError(t, err)

	rec, _, reached := invoke(mw, bearerRequest(signed))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, reached)
}

func TestAuthJWT_AudienceMismatch(t *testing.T) {
	mw := middleware.AuthJWT(testConfig())

	claims := validClaims(model.RoleSysAdmin)
	claims["aud"] = "other-client"
	rec, _, reached := invoke(mw, bearerRequest(signToken(t, claims)))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, reached)
}

func TestAuthJWT_AudienceArrayAccepted(t *testing.T) {
	mw := middleware.AuthJWT(testConfig())

	claims := validClaims(model.RoleSysAdmin)
	claims["aud"] = []string{"account", "admin-portal"}
	rec, _, reached := invoke(mw, bearerRequest(signToken(t, claims)))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, reached)
}

func TestAuthJWT_MissingUsername(t *testing.T) {
	mw := middleware.AuthJWT(testConfig())

	claims := validClaims(model.RoleSysAdmin)
	delete(claims, "preferred_username")
	rec, _, reached := invoke(mw, bearerRequest(signToken(t, claims)))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, reached)
}

func TestAuthJWT_SetsContextValues(t *testing.T) {
	mw := middleware.AuthJWT(testConfig())

	rec, c, reached := invoke(mw, bearerRequest(signToken(t, validClaims(model.RoleSysAdmin, "app-viewer"))))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, reached)
	assert.Equal(t, "alice", c.Get(middleware.CtxUsernameKey))
	assert.Equal(t, "alice@example.com", c.Get(middleware.CtxEmailKey))
	assert.Equal(t, []string{model.RoleSysAdmin, "app-viewer"}, c.Get(middleware.CtxRealmRolesKey))
}
