package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"app/internal/config"
	"app/internal/domain/model"
	"app/internal/middleware"
	"app/internal/repository"
	"app/internal/usecase"

	"github.com/labstack/echo/v4"
)

// 起票リクエスト。payload/diffはそのまま保存する（解釈しない）。
type CreateChangeRequestRequest struct {
	ResourceType string          `json:"resource_type" validate:"required"`
	ResourceID   string          `json:"resource_id"`
	Action       string          `json:"action" validate:"required"`
	Payload      json.RawMessage `json:"payload"`
	Diff         json.RawMessage `json:"diff"`
}

type UpdateChangeRequestRequest struct {
	ResourceID *string          `json:"resource_id"`
	Payload    *json.RawMessage `json:"payload"`
	Diff       *json.RawMessage `json:"diff"`
}

// 承認・却下の理由（任意）。
type DecisionRequest struct {
	Reason string `json:"reason"`
}

type ChangeRequestHandler struct {
	cfg           config.Config
	whitelistRepo repository.AdminWhitelistRepository
	uc            *usecase.ChangeRequestUsecase
}

func NewChangeRequestHandler(cfg config.Config, whitelistRepo repository.AdminWhitelistRepository, uc *usecase.ChangeRequestUsecase) *ChangeRequestHandler {
	return &ChangeRequestHandler{cfg: cfg, whitelistRepo: whitelistRepo, uc: uc}
}

func (h *ChangeRequestHandler) RegisterRoutes(e *echo.Echo) {
	// ★ /admin 配下は全部「JWT必須 + ホワイトリスト一致」
	admin := e.Group(
		"/admin",
		middleware.AuthJWT(h.cfg),
		middleware.GovernanceGuard(h.whitelistRepo),
	)

	admin.POST("/change-requests", h.createDraft, middleware.RequireRole(model.AdminRoleSys))
	admin.PUT("/change-requests/:id", h.updateDraft, middleware.RequireRole(model.AdminRoleSys))
	admin.POST("/change-requests/:id/submit", h.submit, middleware.RequireRole(model.AdminRoleSys))
	admin.POST("/change-requests/:id/approve", h.approve, middleware.RequireRole(model.AdminRoleAuth))
	admin.POST("/change-requests/:id/reject", h.reject, middleware.RequireRole(model.AdminRoleAuth))
	admin.GET("/change-requests", h.list, middleware.RequireRole(model.AdminRoleSys, model.AdminRoleAuth, model.AdminRoleAudit))
	admin.GET("/change-requests/mine", h.listMine, middleware.RequireRole(model.AdminRoleSys))
}

func (h *ChangeRequestHandler) createDraft(c echo.Context) error {
	var req CreateChangeRequestRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	}

	actor, ok := middleware.PrincipalFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	cr, err := h.uc.CreateDraft(c.Request().Context(), usecase.CreateDraftInput{
		ResourceType: req.ResourceType,
		ResourceID:   req.ResourceID,
		Action:       req.Action,
		PayloadJSON:  string(req.Payload),
		DiffJSON:     string(req.Diff),
	}, actor)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, cr)
}

func (h *ChangeRequestHandler) updateDraft(c echo.Context) error {
	var req UpdateChangeRequestRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	actor, ok := middleware.PrincipalFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	patch := usecase.UpdateDraftInput{ResourceID: req.ResourceID}
	if req.Payload != nil {
		s := string(*req.Payload)
		patch.PayloadJSON = &s
	}
	if req.Diff != nil {
		s := string(*req.Diff)
		patch.DiffJSON = &s
	}

	cr, err := h.uc.UpdateDraft(c.Request().Context(), c.Param("id"), patch, actor)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, cr)
}

func (h *ChangeRequestHandler) submit(c echo.Context) error {
	actor, ok := middleware.PrincipalFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	cr, err := h.uc.Submit(c.Request().Context(), c.Param("id"), actor)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, cr)
}

func (h *ChangeRequestHandler) approve(c echo.Context) error {
	var req DecisionRequest
	//bodyは任意
	_ = c.Bind(&req)

	actor, ok := middleware.PrincipalFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	cr, err := h.uc.Approve(c.Request().Context(), c.Param("id"), actor, req.Reason)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, cr)
}

func (h *ChangeRequestHandler) reject(c echo.Context) error {
	var req DecisionRequest
	//bodyは任意
	_ = c.Bind(&req)

	actor, ok := middleware.PrincipalFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	cr, err := h.uc.Reject(c.Request().Context(), c.Param("id"), actor, req.Reason)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, cr)
}

func (h *ChangeRequestHandler) list(c echo.Context) error {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	offset, _ := strconv.Atoi(c.QueryParam("offset"))

	crs, err := h.uc.List(c.Request().Context(), usecase.ListChangeRequestsInput{
		Status:       c.QueryParam("status"),
		ResourceType: c.QueryParam("type"),
		Limit:        limit,
		Offset:       offset,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, crs)
}

func (h *ChangeRequestHandler) listMine(c echo.Context) error {
	actor, ok := middleware.PrincipalFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	crs, err := h.uc.ListMine(c.Request().Context(), actor)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, crs)
}
