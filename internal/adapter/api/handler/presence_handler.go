package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	"livemarket/internal/usecase"
	"livemarket/pkg/errors"
	"livemarket/pkg/logger"
	"livemarket/pkg/response"
)

const maxBeaconSize = 1 << 10

type PresenceHandler struct {
	presence *usecase.PresenceUseCase
}

func NewPresenceHandler(presence *usecase.PresenceUseCase) *PresenceHandler {
	return &PresenceHandler{presence: presence}
}

// offlineBeacon is what the page-unload fallback posts.
type offlineBeacon struct {
	UserID    string      `json:"userId" validate:"required"`
	Online    bool        `json:"online"`
	Timestamp interface{} `json:"timestamp"`
}

func (h *PresenceHandler) GetPresence(c echo.Context) error {
	view, err := h.presence.GetPresence(c.Request().Context(), c.Param("userId"))
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, view)
}

// MarkOffline serves the unload beacon. Beacons are often sent as text/plain,
// so the body is decoded as JSON whatever the content type.
func (h *PresenceHandler) MarkOffline(c echo.Context) error {
	body, err := io.ReadAll(io.LimitReader(c.Request().Body, maxBeaconSize))
	if err != nil {
		return response.Error(c, errors.BadRequest("Invalid beacon body", err))
	}

	var beacon offlineBeacon
	if err := json.NewDecoder(bytes.NewReader(body)).Decode(&beacon); err != nil {
		return response.Error(c, errors.BadRequest("Invalid beacon body", err))
	}
	if err := c.Validate(&beacon); err != nil {
		return response.Error(c, err)
	}
	if beacon.Online {
		return response.Error(c, errors.BadRequest("Beacon can only mark users offline", nil))
	}

	if err := h.presence.GoOffline(c.Request().Context(), beacon.UserID); err != nil {
		logger.Warn("Offline beacon for %s failed: %v", beacon.UserID, err)
		return response.Error(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
