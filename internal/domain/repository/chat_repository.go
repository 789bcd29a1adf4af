package repository

import (
	"context"
	"time"

	"livemarket/internal/domain/entity"
)

// Watch methods block, calling fn with the full current state on every change,
// until ctx is cancelled (returns nil) or the stream fails (returns the error).

type ChatRepository interface {
	// Create fails with a CONFLICT AppError when a chat with the same id exists.
	Create(ctx context.Context, chat *entity.Chat) error
	GetByID(ctx context.Context, id string) (*entity.Chat, error)
	ListByUserID(ctx context.Context, userID string) ([]*entity.Chat, error)

	UpdateLastMessage(ctx context.Context, chatID string, update entity.LastMessageUpdate) error
	SetLastRead(ctx context.Context, chatID, userID string, at int64) error
	SetTyping(ctx context.Context, chatID, userID string, typing bool, at time.Time) error
	SetDisabled(ctx context.Context, chatID string, disabled bool) error

	Watch(ctx context.Context, chatID string, fn func(*entity.Chat)) error
	WatchByUserID(ctx context.Context, userID string, fn func([]*entity.Chat)) error
}
