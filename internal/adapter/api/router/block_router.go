package router

import (
	"github.com/labstack/echo/v4"

	"livemarket/internal/adapter/api/handler"
	"livemarket/internal/adapter/api/middleware"
)

func SetupBlockRouter(e *echo.Echo, authMiddleware *middleware.AuthMiddleware) {
	blockHandler := handler.GetBlockHandler()

	blockGroup := e.Group("/v1/blocks")
	blockGroup.Use(authMiddleware.Authenticate)

	blockGroup.POST("", blockHandler.BlockUser)
	blockGroup.GET("", blockHandler.ListBlocked)
	blockGroup.DELETE("/:userId", blockHandler.UnblockUser)
	blockGroup.GET("/:userId/status", blockHandler.GetBlockStatus)
}
