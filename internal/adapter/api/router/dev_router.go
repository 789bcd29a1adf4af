package router

import (
	"github.com/labstack/echo/v4"

	"livemarket/internal/adapter/api/handler"
)

// SetupDevRouter exposes token minting for the in-memory local mode only.
func SetupDevRouter(e *echo.Echo, environment string, memoryStore bool) {
	if environment != "development" || !memoryStore {
		return
	}
	devTokenHandler := handler.NewDevTokenHandler()

	e.GET("/_dev/token/:uid", devTokenHandler.GenerateUserToken)
}
