package router

import (
	"github.com/labstack/echo/v4"

	"livemarket/internal/adapter/api/middleware"
	"livemarket/internal/usecase"
)

// Setup registers every route. handler.Setup must run first.
func Setup(e *echo.Echo, authMiddleware *middleware.AuthMiddleware, verifier usecase.TokenVerifier, limiter usecase.RateLimiter) {
	SetupChatRouter(e, authMiddleware)
	SetupRoomRouter(e, authMiddleware, verifier)
	SetupBlockRouter(e, authMiddleware)
	SetupPresenceRouter(e, authMiddleware, limiter)
	SetupWebSocketRouter(e, authMiddleware)
	SetupHealthRouter(e)
	SetupMetricsRouter(e)
}
