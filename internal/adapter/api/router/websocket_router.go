package router

import (
	"github.com/labstack/echo/v4"

	"livemarket/internal/adapter/api/handler"
	"livemarket/internal/adapter/api/middleware"
)

// SetupWebSocketRouter: browsers cannot set headers on upgrade, so the token
// may come as ?token=.
func SetupWebSocketRouter(e *echo.Echo, authMiddleware *middleware.AuthMiddleware) {
	wsHandler := handler.GetWebSocketHandler()
	e.GET("/ws", wsHandler.HandleWebSocket, authMiddleware.AuthenticateQuery)
}
