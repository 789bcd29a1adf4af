package handler

import (
	"github.com/labstack/echo/v4"

	"livemarket/internal/infrastructure/firebase"
	"livemarket/pkg/errors"
	"livemarket/pkg/response"
)

// DevTokenHandler mints tokens accepted by firebase.DevTokenVerifier.
type DevTokenHandler struct{}

func NewDevTokenHandler() *DevTokenHandler {
	return &DevTokenHandler{}
}

func (h *DevTokenHandler) GenerateUserToken(c echo.Context) error {
	uid := c.Param("uid")
	if uid == "" {
		return response.Error(c, errors.BadRequest("uid is required", nil))
	}

	return response.Success(c, map[string]interface{}{
		"token":   firebase.DevToken(uid),
		"user_id": uid,
	})
}
