package usecase

import (
	"context"
	"html"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"

	"livemarket/internal/domain/entity"
	"livemarket/internal/domain/repository"
	"livemarket/internal/infrastructure/metrics"
	"livemarket/internal/infrastructure/ratelimit"
	"livemarket/pkg/errors"
	"livemarket/pkg/logger"
)

const maxMessageLength = 4000

// Sanitizer strips markup from user text; bluemonday policies satisfy it.
type Sanitizer interface {
	Sanitize(s string) string
}

type MessageUseCase struct {
	chatRepo    repository.ChatRepository
	messageRepo repository.MessageRepository
	blocks      *BlockUseCase
	rateLimiter RateLimiter
	sanitizer   Sanitizer
	hostMarker  string
	clock       func() time.Time
}

func NewMessageUseCase(
	chatRepo repository.ChatRepository,
	messageRepo repository.MessageRepository,
	blocks *BlockUseCase,
	rateLimiter RateLimiter,
	hostMarker string,
) *MessageUseCase {
	if rateLimiter == nil {
		rateLimiter = allowAll{}
	}
	if hostMarker == "" {
		hostMarker = DefaultStorageHostMarker
	}
	return &MessageUseCase{
		chatRepo:    chatRepo,
		messageRepo: messageRepo,
		blocks:      blocks,
		rateLimiter: rateLimiter,
		sanitizer:   bluemonday.StrictPolicy(),
		hostMarker:  hostMarker,
		clock:       time.Now,
	}
}

type SendMessageInput struct {
	ChatID       string
	SenderID     string
	SenderName   string
	SenderAvatar string
	Text         string
}

type SendRoomMessageInput struct {
	ShowID       string
	SenderID     string
	SenderName   string
	SenderAvatar string
	Text         string
	Mentions     []entity.Mention
}

// SubscribeToMessages delivers the chat's full message list, oldest first, on every change.
func (uc *MessageUseCase) SubscribeToMessages(ctx context.Context, chatID string, onUpdate func([]*entity.Message), onError ErrorHandler) Unsubscribe {
	return subscribe(ctx, "messages", onError, func(ctx context.Context) error {
		return uc.messageRepo.WatchByChat(ctx, chatID, func(messages []*entity.Message) {
			guard("messages", onError, func() { onUpdate(messages) })
		})
	})
}

// SubscribeToRoomMessages delivers the show's messages normalised and ordered by date.
func (uc *MessageUseCase) SubscribeToRoomMessages(ctx context.Context, showID string, onUpdate func([]*entity.RoomMessage), onError ErrorHandler) Unsubscribe {
	return subscribe(ctx, "room_messages", onError, func(ctx context.Context) error {
		return uc.messageRepo.WatchRoom(ctx, showID, func(raw []entity.RawRoomMessage) {
			guard("room_messages", onError, func() {
				onUpdate(NormalizeRoomMessages(raw))
			})
		})
	})
}

// ListMessages returns the chat history for a participant.
func (uc *MessageUseCase) ListMessages(ctx context.Context, userID, chatID string) ([]*entity.Message, error) {
	if _, err := uc.participantChat(ctx, userID, chatID); err != nil {
		return nil, err
	}
	return uc.messageRepo.ListByChat(ctx, chatID)
}

func (uc *MessageUseCase) ListRoomMessages(ctx context.Context, showID string) ([]*entity.RoomMessage, error) {
	raw, err := uc.messageRepo.ListRoomMessages(ctx, showID)
	if err != nil {
		return nil, err
	}
	return NormalizeRoomMessages(raw), nil
}

// SendMessage appends a direct message unless either participant has blocked
// the other, then refreshes the chat's last-message fields and the sender's
// own profile snapshot.
func (uc *MessageUseCase) SendMessage(ctx context.Context, input SendMessageInput) (*entity.Message, error) {
	allowed, wait := uc.rateLimiter.Allow(input.SenderID, ratelimit.ActionSendMessage)
	if !allowed {
		metrics.SendsRejected.WithLabelValues("rate_limited").Inc()
		logger.Warn("SendMessage rate limited: user %s must wait %v", input.SenderID, wait)
		return nil, errors.TooManyRequests("Rate limit exceeded. Please wait before sending another message")
	}

	chat, err := uc.participantChat(ctx, input.SenderID, input.ChatID)
	if err != nil {
		return nil, err
	}
	if chat.ChatDisabled {
		metrics.SendsRejected.WithLabelValues("disabled").Inc()
		return nil, errors.ChatDisabled("This chat has been disabled")
	}

	otherID := chat.OtherParticipant(input.SenderID)
	status, err := uc.blocks.CheckBlockStatus(ctx, input.SenderID, otherID)
	if err != nil {
		return nil, err
	}
	if status.HasBlockedOther {
		metrics.SendsRejected.WithLabelValues("blocked").Inc()
		return nil, errors.Blocked("You have blocked this user. Unblock them to send messages")
	}
	if status.IsBlockedByOther {
		metrics.SendsRejected.WithLabelValues("blocked").Inc()
		return nil, errors.Blocked("You can't send messages to this user")
	}

	text, err := uc.cleanText(input.Text)
	if err != nil {
		return nil, err
	}

	sender := chat.Profile(input.SenderID)
	if input.SenderName != "" {
		sender.Name = input.SenderName
	}
	if input.SenderAvatar != "" {
		sender.ProfileURL = input.SenderAvatar
	}

	now := uc.clock()
	message := &entity.Message{
		ID:               uuid.New().String(),
		Message:          text,
		Sender:           input.SenderID,
		SenderName:       sender.Name,
		SenderProfileURL: sender.ProfileURL,
		Date:             entity.FormatMillis(now.UnixMilli()),
	}
	if err := uc.messageRepo.Create(ctx, chat.ID, message); err != nil {
		return nil, err
	}

	update := entity.LastMessageUpdate{
		Text:   PreviewText(text, uc.hostMarker),
		Time:   now,
		Sender: sender,
	}
	if err := uc.chatRepo.UpdateLastMessage(ctx, chat.ID, update); err != nil {
		// the message is stored; a stale preview self-heals on the next send
		logger.Warn("Message %s stored but chat %s preview not updated: %v", message.ID, chat.ID, err)
	}

	kind := "direct"
	if IsImageMessage(text, uc.hostMarker) {
		kind = "image"
	}
	metrics.MessagesSent.WithLabelValues(kind).Inc()
	return message, nil
}

// SendRoomMessage appends a show message. Rooms are broadcast, so no block check applies.
func (uc *MessageUseCase) SendRoomMessage(ctx context.Context, input SendRoomMessageInput) (*entity.RoomMessage, error) {
	if input.ShowID == "" {
		return nil, errors.BadRequest("Show ID is required", nil)
	}
	text, err := uc.cleanText(input.Text)
	if err != nil {
		return nil, err
	}

	name := input.SenderName
	if name == "" {
		name = anonymousSender
	}
	message := &entity.RoomMessage{
		ID:               uuid.New().String(),
		Message:          text,
		Sender:           input.SenderID,
		SenderName:       name,
		SenderProfileURL: input.SenderAvatar,
		Date:             entity.FormatMillis(uc.clock().UnixMilli()),
		Mentions:         input.Mentions,
	}
	if err := uc.messageRepo.CreateRoomMessage(ctx, input.ShowID, message); err != nil {
		return nil, err
	}
	metrics.MessagesSent.WithLabelValues("room").Inc()
	return message, nil
}

// MarkMessagesAsRead moves the reader's watermark to now.
func (uc *MessageUseCase) MarkMessagesAsRead(ctx context.Context, chatID, userID string) error {
	if _, err := uc.participantChat(ctx, userID, chatID); err != nil {
		return err
	}
	return uc.chatRepo.SetLastRead(ctx, chatID, userID, uc.clock().UnixMilli())
}

// UnreadCount counts messages in chat unread by reader.
func (uc *MessageUseCase) UnreadCount(ctx context.Context, chatID, reader string) (int, error) {
	chat, err := uc.participantChat(ctx, reader, chatID)
	if err != nil {
		return 0, err
	}
	messages, err := uc.messageRepo.ListByChat(ctx, chatID)
	if err != nil {
		return 0, err
	}
	return CountUnread(messages, reader, chat.OtherParticipant(reader), chat.LastReadOf(reader)), nil
}

func (uc *MessageUseCase) participantChat(ctx context.Context, userID, chatID string) (*entity.Chat, error) {
	if chatID == "" {
		return nil, errors.BadRequest("Chat ID is required", nil)
	}
	chat, err := uc.chatRepo.GetByID(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if !chat.HasParticipant(userID) {
		return nil, errors.Forbidden("You are not a participant in this chat", nil)
	}
	return chat, nil
}

// cleanText strips markup and returns plain text. Entities are decoded until
// stable before sanitizing, so encoded tags are stripped like literal ones;
// the final unescape only reverses the escaping the policy itself adds.
func (uc *MessageUseCase) cleanText(text string) (string, error) {
	plain := text
	for {
		decoded := html.UnescapeString(plain)
		if decoded == plain {
			break
		}
		plain = decoded
	}
	cleaned := strings.TrimSpace(html.UnescapeString(uc.sanitizer.Sanitize(plain)))
	if cleaned == "" {
		return "", errors.BadRequest("Message cannot be empty", nil)
	}
	if len([]rune(cleaned)) > maxMessageLength {
		return "", errors.BadRequest("Message is too long", nil)
	}
	return cleaned, nil
}

// IsUnread applies the read-watermark rule for one message.
func IsUnread(message *entity.Message, reader string, lastRead int64) bool {
	return message.Sender != reader && message.DateMillis() > lastRead && !message.Seen
}

// CountUnread counts unread messages, ignoring any not sent by reader or other.
func CountUnread(messages []*entity.Message, reader, other string, lastRead int64) int {
	count := 0
	for _, message := range messages {
		if message.Sender != reader && message.Sender != other {
			continue
		}
		if IsUnread(message, reader, lastRead) {
			count++
		}
	}
	return count
}
