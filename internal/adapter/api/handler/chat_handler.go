package handler

import (
	"context"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	"livemarket/internal/adapter/api/middleware"
	"livemarket/internal/usecase"
	"livemarket/pkg/errors"
	"livemarket/pkg/response"
	"livemarket/pkg/utils"
)

const maxImageSize = 10 << 20

// ImageUploader stores a chat image and returns the URL sent as the message.
type ImageUploader interface {
	UploadChatImage(ctx context.Context, chatID, contentType string, file io.Reader) (string, error)
}

type ChatHandler struct {
	chats         *usecase.ChatUseCase
	messages      *usecase.MessageUseCase
	conversations *usecase.ConversationUseCase
	typing        *usecase.TypingUseCase
	uploader      ImageUploader
}

func NewChatHandler(
	chats *usecase.ChatUseCase,
	messages *usecase.MessageUseCase,
	conversations *usecase.ConversationUseCase,
	typing *usecase.TypingUseCase,
	uploader ImageUploader,
) *ChatHandler {
	return &ChatHandler{
		chats:         chats,
		messages:      messages,
		conversations: conversations,
		typing:        typing,
		uploader:      uploader,
	}
}

type createChatRequest struct {
	RecipientID string `json:"recipient_id" validate:"required"`
}

type sendMessageRequest struct {
	Message string `json:"message" validate:"required,max=4000"`
}

type typingRequest struct {
	Typing *bool `json:"typing" validate:"required"`
}

type disableChatRequest struct {
	Disabled *bool `json:"disabled" validate:"required"`
}

// CreateChat returns the chat with the recipient, creating it on first contact.
func (h *ChatHandler) CreateChat(c echo.Context) error {
	var req createChatRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, errors.BadRequest("Invalid request body", err))
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	userID := middleware.UserID(c)
	chatID, err := h.chats.GetOrCreateChat(c.Request().Context(), userID, req.RecipientID, nil, nil)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Created(c, map[string]string{"chat_id": chatID})
}

func (h *ChatHandler) GetUserChats(c echo.Context) error {
	conversations, err := h.conversations.ListConversations(c.Request().Context(), middleware.UserID(c))
	if err != nil {
		return response.Error(c, err)
	}
	return response.List(c, conversations, len(conversations))
}

func (h *ChatHandler) GetChatByID(c echo.Context) error {
	chat, err := h.chats.GetChat(c.Request().Context(), middleware.UserID(c), c.Param("id"))
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, chat)
}

func (h *ChatHandler) GetChatMessages(c echo.Context) error {
	messages, err := h.messages.ListMessages(c.Request().Context(), middleware.UserID(c), c.Param("id"))
	if err != nil {
		return response.Error(c, err)
	}
	return response.List(c, utils.Tail(messages, utils.GetPaginationParams(c)), len(messages))
}

func (h *ChatHandler) SendMessage(c echo.Context) error {
	var req sendMessageRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, errors.BadRequest("Invalid request body", err))
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	message, err := h.messages.SendMessage(c.Request().Context(), usecase.SendMessageInput{
		ChatID:   c.Param("id"),
		SenderID: middleware.UserID(c),
		Text:     req.Message,
	})
	if err != nil {
		return response.Error(c, err)
	}

	return response.Created(c, message)
}

// UploadImage stores the multipart "image" file and sends its URL as a message.
func (h *ChatHandler) UploadImage(c echo.Context) error {
	if h.uploader == nil {
		return response.Error(c, errors.New("SERVICE_UNAVAILABLE", "Image uploads are not configured", http.StatusServiceUnavailable, nil))
	}

	ctx := c.Request().Context()
	userID := middleware.UserID(c)
	chatID := c.Param("id")

	if _, err := h.chats.GetChat(ctx, userID, chatID); err != nil {
		return response.Error(c, err)
	}

	fileHeader, err := c.FormFile("image")
	if err != nil {
		return response.Error(c, errors.BadRequest("Image file is required", err))
	}
	if fileHeader.Size > maxImageSize {
		return response.Error(c, errors.BadRequest("Image must be 10MB or smaller", nil))
	}

	file, err := fileHeader.Open()
	if err != nil {
		return response.Error(c, errors.BadRequest("Failed to read image", err))
	}
	defer file.Close()

	url, err := h.uploader.UploadChatImage(ctx, chatID, fileHeader.Header.Get("Content-Type"), file)
	if err != nil {
		return response.Error(c, errors.BadRequest("Failed to upload image", err))
	}

	message, err := h.messages.SendMessage(ctx, usecase.SendMessageInput{
		ChatID:   chatID,
		SenderID: userID,
		Text:     url,
	})
	if err != nil {
		return response.Error(c, err)
	}

	return response.Created(c, message)
}

func (h *ChatHandler) MarkChatAsRead(c echo.Context) error {
	chatID := c.Param("id")
	if err := h.messages.MarkMessagesAsRead(c.Request().Context(), chatID, middleware.UserID(c)); err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, map[string]interface{}{"chat_id": chatID, "read": true})
}

func (h *ChatHandler) UpdateTyping(c echo.Context) error {
	var req typingRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, errors.BadRequest("Invalid request body", err))
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	chatID := c.Param("id")
	if err := h.typing.UpdateTypingStatus(c.Request().Context(), chatID, middleware.UserID(c), *req.Typing); err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, map[string]interface{}{"chat_id": chatID, "typing": *req.Typing})
}

func (h *ChatHandler) SetChatDisabled(c echo.Context) error {
	var req disableChatRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, errors.BadRequest("Invalid request body", err))
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	chatID := c.Param("id")
	if err := h.chats.SetChatDisabled(c.Request().Context(), middleware.UserID(c), chatID, *req.Disabled); err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, map[string]interface{}{"chat_id": chatID, "chat_disabled": *req.Disabled})
}
