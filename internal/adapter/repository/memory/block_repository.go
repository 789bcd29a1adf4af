package memory

import (
	"context"

	"livemarket/internal/domain/entity"
	"livemarket/internal/domain/repository"
	"livemarket/pkg/errors"
)

type blockRepository struct {
	store *Store
}

func NewBlockRepository(store *Store) repository.BlockRepository {
	return &blockRepository{store: store}
}

func (r *blockRepository) Get(ctx context.Context, userID string) (*entity.BlockList, error) {
	if err := r.store.failed(); err != nil {
		return nil, errors.Internal("Failed to get block list", err)
	}

	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	return &entity.BlockList{
		UserID:       userID,
		BlockedUsers: append([]string(nil), r.store.blocks[userID]...),
	}, nil
}

func (r *blockRepository) Add(ctx context.Context, userID, targetID string) error {
	if err := r.store.failed(); err != nil {
		return errors.Internal("Failed to block user", err)
	}

	r.store.mu.Lock()
	list := &entity.BlockList{BlockedUsers: r.store.blocks[userID]}
	if !list.Contains(targetID) {
		r.store.blocks[userID] = append(r.store.blocks[userID], targetID)
	}
	r.store.mu.Unlock()

	r.store.notify()
	return nil
}

func (r *blockRepository) Remove(ctx context.Context, userID, targetID string) error {
	if err := r.store.failed(); err != nil {
		return errors.Internal("Failed to unblock user", err)
	}

	r.store.mu.Lock()
	kept := r.store.blocks[userID][:0]
	for _, id := range r.store.blocks[userID] {
		if id != targetID {
			kept = append(kept, id)
		}
	}
	r.store.blocks[userID] = kept
	r.store.mu.Unlock()

	r.store.notify()
	return nil
}
