package repository

import (
	"context"
	"time"

	"livemarket/internal/domain/entity"
)

type PresenceRepository interface {
	// SetOnline merges {online, lastSeen}; lastUpdate is written too when going online.
	SetOnline(ctx context.Context, userID string, online bool, at time.Time) error
	// Touch merges lastUpdate only.
	Touch(ctx context.Context, userID string, at time.Time) error
	// Get returns an offline record when the user has none.
	Get(ctx context.Context, userID string) (*entity.Presence, error)
	Watch(ctx context.Context, userID string, fn func(*entity.Presence)) error
}
