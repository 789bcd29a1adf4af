package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// ConnectionTester probes the identity backend.
type ConnectionTester interface {
	TestConnection(ctx context.Context) error
}

type HealthHandler struct {
	auth ConnectionTester
}

func NewHealthHandler(auth ConnectionTester) *HealthHandler {
	return &HealthHandler{
		auth: auth,
	}
}

func (h *HealthHandler) CheckHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status": "ok",
		"time":   time.Now().Format(time.RFC3339),
	})
}

func (h *HealthHandler) CheckFirebaseHealth(c echo.Context) error {
	if h.auth == nil {
		return c.JSON(http.StatusOK, map[string]string{
			"status": "Firebase Auth not configured",
		})
	}

	if err := h.auth.TestConnection(c.Request().Context()); err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"status": "Firebase Auth connection failed",
			"error":  err.Error(),
		})
	}

	return c.JSON(http.StatusOK, map[string]string{
		"status": "Firebase Auth connected successfully",
	})
}
