package repository

import (
	"context"

	"livemarket/internal/domain/entity"
)

type MessageRepository interface {
	Create(ctx context.Context, chatID string, message *entity.Message) error
	// ListByChat returns messages ordered by date ascending.
	ListByChat(ctx context.Context, chatID string) ([]*entity.Message, error)
	WatchByChat(ctx context.Context, chatID string, fn func([]*entity.Message)) error

	CreateRoomMessage(ctx context.Context, showID string, message *entity.RoomMessage) error
	// Room documents carry no ordering guarantee.
	ListRoomMessages(ctx context.Context, showID string) ([]entity.RawRoomMessage, error)
	WatchRoom(ctx context.Context, showID string, fn func([]entity.RawRoomMessage)) error
}
