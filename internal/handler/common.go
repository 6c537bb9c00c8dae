package handler

import (
	"net/http"

	"app/internal/usecase"

	"github.com/labstack/echo/v4"
)

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// usecaseのエラーをHTTPに変換する。分類済みならそのstatus、それ以外は500。
func writeError(c echo.Context, err error) error {
	if ue, ok := usecase.AsError(err); ok {
		return c.JSON(ue.Status, ErrorResponse{Error: ue.Message, Code: ue.Code})
	}
	return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
}
