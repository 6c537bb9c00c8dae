package server

import (
	"net/http"

	"app/internal/handler"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

// echoに渡すvalidatorの薄いラッパ。
type requestValidator struct {
	v *validator.Validate
}

func (rv *requestValidator) Validate(i interface{}) error {
	return rv.v.Struct(i)
}

// ルートを登録済みのechoインスタンスを作る。
func New(crH *handler.ChangeRequestHandler, auditH *handler.AuditHandler, whoamiH *handler.WhoamiHandler) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = &requestValidator{v: validator.New()}

	//死活確認（認証なし）
	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	crH.RegisterRoutes(e)
	auditH.RegisterRoutes(e)
	whoamiH.RegisterRoutes(e)

	return e
}
