package handler

import (
	"net/http"

	"app/internal/config"
	"app/internal/middleware"
	"app/internal/repository"

	"github.com/labstack/echo/v4"
)

type WhoamiResponse struct {
	Allowed  bool   `json:"allowed"`
	Role     string `json:"role"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// ガードを通れた人に自分の解決結果を返すだけ。
type WhoamiHandler struct {
	cfg           config.Config
	whitelistRepo repository.AdminWhitelistRepository
}

func NewWhoamiHandler(cfg config.Config, whitelistRepo repository.AdminWhitelistRepository) *WhoamiHandler {
	return &WhoamiHandler{cfg: cfg, whitelistRepo: whitelistRepo}
}

func (h *WhoamiHandler) RegisterRoutes(e *echo.Echo) {
	admin := e.Group(
		"/admin",
		middleware.AuthJWT(h.cfg),
		middleware.GovernanceGuard(h.whitelistRepo),
	)

	admin.GET("/whoami", h.whoami)
}

func (h *WhoamiHandler) whoami(c echo.Context) error {
	p, ok := middleware.PrincipalFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}
	return c.JSON(http.StatusOK, WhoamiResponse{
		Allowed:  true,
		Role:     string(p.Role),
		Username: p.Username,
		Email:    p.Email,
	})
}
