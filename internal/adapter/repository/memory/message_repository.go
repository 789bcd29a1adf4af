package memory

import (
	"context"
	"sort"

	"livemarket/internal/domain/entity"
	"livemarket/internal/domain/repository"
	"livemarket/pkg/errors"
)

type messageRepository struct {
	store *Store
}

func NewMessageRepository(store *Store) repository.MessageRepository {
	return &messageRepository{store: store}
}

func (r *messageRepository) Create(ctx context.Context, chatID string, message *entity.Message) error {
	if err := r.store.failed(); err != nil {
		return errors.Internal("Failed to create message", err)
	}

	copied := *message
	r.store.mu.Lock()
	r.store.messages[chatID] = append(r.store.messages[chatID], &copied)
	r.store.mu.Unlock()

	r.store.notify()
	return nil
}

func (r *messageRepository) ListByChat(ctx context.Context, chatID string) ([]*entity.Message, error) {
	if err := r.store.failed(); err != nil {
		return nil, errors.Internal("Failed to fetch messages", err)
	}
	return r.list(chatID), nil
}

func (r *messageRepository) list(chatID string) []*entity.Message {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	messages := make([]*entity.Message, 0, len(r.store.messages[chatID]))
	for _, message := range r.store.messages[chatID] {
		copied := *message
		messages = append(messages, &copied)
	}
	sort.SliceStable(messages, func(i, j int) bool {
		return messages[i].Date < messages[j].Date
	})
	return messages
}

func (r *messageRepository) WatchByChat(ctx context.Context, chatID string, fn func([]*entity.Message)) error {
	return watch(ctx, r.store, func() ([]*entity.Message, error) {
		if err := r.store.failed(); err != nil {
			return nil, errors.Internal("Message snapshot stream failed", err)
		}
		return r.list(chatID), nil
	}, fn)
}

func (r *messageRepository) CreateRoomMessage(ctx context.Context, showID string, message *entity.RoomMessage) error {
	if err := r.store.failed(); err != nil {
		return errors.Internal("Failed to create room message", err)
	}

	mentions := make([]interface{}, 0, len(message.Mentions))
	for _, m := range message.Mentions {
		mentions = append(mentions, map[string]interface{}{"id": m.ID, "name": m.Name})
	}

	r.store.PutRoomMessage(showID, entity.RawRoomMessage{
		ID: message.ID,
		Data: map[string]interface{}{
			"message":          message.Message,
			"sender":           message.Sender,
			"senderName":       message.SenderName,
			"senderProfileUrl": message.SenderProfileURL,
			"date":             message.Date,
			"mentions":         mentions,
		},
	})
	return nil
}

func (r *messageRepository) ListRoomMessages(ctx context.Context, showID string) ([]entity.RawRoomMessage, error) {
	if err := r.store.failed(); err != nil {
		return nil, errors.Internal("Failed to fetch room messages", err)
	}
	return r.listRoom(showID), nil
}

func (r *messageRepository) listRoom(showID string) []entity.RawRoomMessage {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	return append([]entity.RawRoomMessage(nil), r.store.roomMessages[showID]...)
}

func (r *messageRepository) WatchRoom(ctx context.Context, showID string, fn func([]entity.RawRoomMessage)) error {
	return watch(ctx, r.store, func() ([]entity.RawRoomMessage, error) {
		if err := r.store.failed(); err != nil {
			return nil, errors.Internal("Room snapshot stream failed", err)
		}
		return r.listRoom(showID), nil
	}, fn)
}
