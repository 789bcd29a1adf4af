package handler

import (
	"github.com/labstack/echo/v4"

	"livemarket/internal/adapter/api/middleware"
	"livemarket/internal/domain/entity"
	"livemarket/internal/usecase"
	"livemarket/pkg/errors"
	"livemarket/pkg/response"
	"livemarket/pkg/utils"
)

// RoomHandler serves the live-show chat.
type RoomHandler struct {
	messages *usecase.MessageUseCase
	chats    *usecase.ChatUseCase
}

func NewRoomHandler(messages *usecase.MessageUseCase, chats *usecase.ChatUseCase) *RoomHandler {
	return &RoomHandler{
		messages: messages,
		chats:    chats,
	}
}

type mentionRequest struct {
	ID   string `json:"id" validate:"required"`
	Name string `json:"name"`
}

type sendRoomMessageRequest struct {
	Message  string           `json:"message" validate:"required,max=4000"`
	Mentions []mentionRequest `json:"mentions" validate:"omitempty,max=20,dive"`
}

func (h *RoomHandler) SendRoomMessage(c echo.Context) error {
	var req sendRoomMessageRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, errors.BadRequest("Invalid request body", err))
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	ctx := c.Request().Context()
	userID := middleware.UserID(c)
	profile := h.chats.ResolveProfile(ctx, userID)

	mentions := make([]entity.Mention, 0, len(req.Mentions))
	for _, m := range req.Mentions {
		mentions = append(mentions, entity.Mention{ID: m.ID, Name: m.Name})
	}

	message, err := h.messages.SendRoomMessage(ctx, usecase.SendRoomMessageInput{
		ShowID:       c.Param("id"),
		SenderID:     userID,
		SenderName:   profile.Name,
		SenderAvatar: profile.ProfileURL,
		Text:         req.Message,
		Mentions:     mentions,
	})
	if err != nil {
		return response.Error(c, err)
	}

	return response.Created(c, message)
}

func (h *RoomHandler) GetRoomMessages(c echo.Context) error {
	messages, err := h.messages.ListRoomMessages(c.Request().Context(), c.Param("id"))
	if err != nil {
		return response.Error(c, err)
	}
	return response.List(c, utils.Tail(messages, utils.GetPaginationParams(c)), len(messages))
}
