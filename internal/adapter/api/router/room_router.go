package router

import (
	"github.com/labstack/echo/v4"

	"livemarket/internal/adapter/api/handler"
	"livemarket/internal/adapter/api/middleware"
	"livemarket/internal/usecase"
)

// SetupRoomRouter: anyone watching a show can read its chat; posting needs an account.
func SetupRoomRouter(e *echo.Echo, authMiddleware *middleware.AuthMiddleware, verifier usecase.TokenVerifier) {
	roomHandler := handler.GetRoomHandler()

	showGroup := e.Group("/v1/shows")
	showGroup.GET("/:id/messages", roomHandler.GetRoomMessages, OptionalAuth(verifier))
	showGroup.POST("/:id/messages", roomHandler.SendRoomMessage, authMiddleware.Authenticate)
}
