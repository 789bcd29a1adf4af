package memory

import (
	"context"
	"time"

	"livemarket/internal/domain/entity"
	"livemarket/internal/domain/repository"
	"livemarket/pkg/errors"
)

type presenceRepository struct {
	store *Store
}

func NewPresenceRepository(store *Store) repository.PresenceRepository {
	return &presenceRepository{store: store}
}

func (r *presenceRepository) SetOnline(ctx context.Context, userID string, online bool, at time.Time) error {
	return r.merge(userID, "Failed to update presence", func(p *entity.Presence) {
		p.Online = online
		p.LastSeen = at
		if online {
			p.LastUpdate = at.UnixMilli()
		}
	})
}

func (r *presenceRepository) Touch(ctx context.Context, userID string, at time.Time) error {
	return r.merge(userID, "Failed to refresh presence heartbeat", func(p *entity.Presence) {
		p.LastUpdate = at.UnixMilli()
	})
}

func (r *presenceRepository) merge(userID, message string, apply func(*entity.Presence)) error {
	if err := r.store.failed(); err != nil {
		return errors.Internal(message, err)
	}

	r.store.mu.Lock()
	presence, ok := r.store.presence[userID]
	if !ok {
		presence = &entity.Presence{UserID: userID}
		r.store.presence[userID] = presence
	}
	apply(presence)
	r.store.mu.Unlock()

	r.store.notify()
	return nil
}

func (r *presenceRepository) Get(ctx context.Context, userID string) (*entity.Presence, error) {
	if err := r.store.failed(); err != nil {
		return nil, errors.Internal("Failed to get presence", err)
	}
	return r.get(userID), nil
}

func (r *presenceRepository) get(userID string) *entity.Presence {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	if presence, ok := r.store.presence[userID]; ok {
		copied := *presence
		return &copied
	}
	return &entity.Presence{UserID: userID}
}

func (r *presenceRepository) Watch(ctx context.Context, userID string, fn func(*entity.Presence)) error {
	return watch(ctx, r.store, func() (*entity.Presence, error) {
		if err := r.store.failed(); err != nil {
			return nil, errors.Internal("Presence snapshot stream failed", err)
		}
		return r.get(userID), nil
	}, fn)
}
