package handler

import (
	"github.com/labstack/echo/v4"

	"livemarket/internal/adapter/api/middleware"
	"livemarket/internal/usecase"
	"livemarket/pkg/errors"
	"livemarket/pkg/response"
)

type BlockHandler struct {
	blocks *usecase.BlockUseCase
}

func NewBlockHandler(blocks *usecase.BlockUseCase) *BlockHandler {
	return &BlockHandler{blocks: blocks}
}

type blockRequest struct {
	UserID string `json:"user_id" validate:"required"`
}

func (h *BlockHandler) BlockUser(c echo.Context) error {
	var req blockRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, errors.BadRequest("Invalid request body", err))
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	if !h.blocks.BlockUser(c.Request().Context(), middleware.UserID(c), req.UserID) {
		return response.Error(c, errors.BadRequest("Could not block user", nil))
	}
	return response.Success(c, map[string]interface{}{"user_id": req.UserID, "blocked": true})
}

func (h *BlockHandler) UnblockUser(c echo.Context) error {
	targetID := c.Param("userId")
	if !h.blocks.UnblockUser(c.Request().Context(), middleware.UserID(c), targetID) {
		return response.Error(c, errors.BadRequest("Could not unblock user", nil))
	}
	return response.Success(c, map[string]interface{}{"user_id": targetID, "blocked": false})
}

func (h *BlockHandler) ListBlocked(c echo.Context) error {
	blocked, err := h.blocks.ListBlocked(c.Request().Context(), middleware.UserID(c))
	if err != nil {
		return response.Error(c, err)
	}
	return response.List(c, blocked, len(blocked))
}

func (h *BlockHandler) GetBlockStatus(c echo.Context) error {
	status, err := h.blocks.CheckBlockStatus(c.Request().Context(), middleware.UserID(c), c.Param("userId"))
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, status)
}
