package repository

import (
	"context"

	"livemarket/internal/domain/entity"
)

type BlockRepository interface {
	// Get returns an empty list when the user never blocked anyone.
	Get(ctx context.Context, userID string) (*entity.BlockList, error)
	Add(ctx context.Context, userID, targetID string) error
	Remove(ctx context.Context, userID, targetID string) error
}
