package handler

import (
	"net/http"
	"strconv"

	"app/internal/config"
	"app/internal/domain/model"
	"app/internal/middleware"
	"app/internal/repository"
	"app/internal/usecase"

	"github.com/labstack/echo/v4"
)

type AuditHandler struct {
	cfg           config.Config
	whitelistRepo repository.AdminWhitelistRepository
	uc            *usecase.AuditUsecase
}

func NewAuditHandler(cfg config.Config, whitelistRepo repository.AdminWhitelistRepository, uc *usecase.AuditUsecase) *AuditHandler {
	return &AuditHandler{cfg: cfg, whitelistRepo: whitelistRepo, uc: uc}
}

func (h *AuditHandler) RegisterRoutes(e *echo.Echo) {
	admin := e.Group(
		"/admin",
		middleware.AuthJWT(h.cfg),
		middleware.GovernanceGuard(h.whitelistRepo),
	)

	admin.GET("/audit", h.query, middleware.RequireRole(model.AdminRoleAudit))
	admin.GET("/audit/export", h.export, middleware.RequireRole(model.AdminRoleAudit))
}

func (h *AuditHandler) queryInput(c echo.Context) usecase.AuditQueryInput {
	return usecase.AuditQueryInput{
		From:     c.QueryParam("from"),
		To:       c.QueryParam("to"),
		Actor:    c.QueryParam("actor"),
		Action:   c.QueryParam("action"),
		Resource: c.QueryParam("resource"),
		Outcome:  c.QueryParam("outcome"),
	}
}

func (h *AuditHandler) query(c echo.Context) error {
	in := h.queryInput(c)
	in.Limit, _ = strconv.Atoi(c.QueryParam("limit"))
	in.Offset, _ = strconv.Atoi(c.QueryParam("offset"))

	logs, err := h.uc.Query(c.Request().Context(), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, logs)
}

// csv / json を添付ファイルで返す。
func (h *AuditHandler) export(c echo.Context) error {
	in := h.queryInput(c)
	//エクスポートは上限を広めに取る
	in.Limit = 1000

	logs, err := h.uc.Query(c.Request().Context(), in)
	if err != nil {
		return writeError(c, err)
	}

	switch c.QueryParam("format") {
	case "", "csv":
		c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="audit.csv"`)
		return c.Blob(http.StatusOK, "text/csv", []byte(usecase.ExportCSV(logs)))
	case "json":
		out, err := usecase.ExportJSON(logs)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
		}
		c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="audit.json"`)
		return c.Blob(http.StatusOK, echo.MIMEApplicationJSON, []byte(out))
	default:
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "format must be csv or json"})
	}
}
