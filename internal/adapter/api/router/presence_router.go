package router

import (
	"github.com/labstack/echo/v4"

	"livemarket/internal/adapter/api/handler"
	"livemarket/internal/adapter/api/middleware"
	"livemarket/internal/infrastructure/ratelimit"
	"livemarket/internal/usecase"
)

func SetupPresenceRouter(e *echo.Echo, authMiddleware *middleware.AuthMiddleware, limiter usecase.RateLimiter) {
	presenceHandler := handler.GetPresenceHandler()

	e.GET("/v1/presence/:userId", presenceHandler.GetPresence, authMiddleware.Authenticate)

	// unload beacons cannot carry auth headers
	e.POST("/api/presence/offline", presenceHandler.MarkOffline, middleware.RateLimit(limiter, ratelimit.ActionBeacon))
}
