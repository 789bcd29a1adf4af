package usecase

import (
	"context"

	"livemarket/internal/domain/entity"
	"livemarket/internal/domain/repository"
	"livemarket/pkg/errors"
	"livemarket/pkg/logger"
)

type BlockUseCase struct {
	blockRepo repository.BlockRepository
}

func NewBlockUseCase(blockRepo repository.BlockRepository) *BlockUseCase {
	return &BlockUseCase{blockRepo: blockRepo}
}

// BlockUser adds targetID to selfID's block list. Blocking twice is a no-op.
// Failures are logged and reported as false.
func (uc *BlockUseCase) BlockUser(ctx context.Context, selfID, targetID string) bool {
	if selfID == "" || targetID == "" || selfID == targetID {
		logger.Warn("BlockUser rejected: invalid pair %q -> %q", selfID, targetID)
		return false
	}
	if err := uc.blockRepo.Add(ctx, selfID, targetID); err != nil {
		logger.Error("Failed to block user %s for %s: %v", targetID, selfID, err)
		return false
	}
	logger.Info("User %s blocked %s", selfID, targetID)
	return true
}

func (uc *BlockUseCase) UnblockUser(ctx context.Context, selfID, targetID string) bool {
	if selfID == "" || targetID == "" || selfID == targetID {
		logger.Warn("UnblockUser rejected: invalid pair %q -> %q", selfID, targetID)
		return false
	}
	if err := uc.blockRepo.Remove(ctx, selfID, targetID); err != nil {
		logger.Error("Failed to unblock user %s for %s: %v", targetID, selfID, err)
		return false
	}
	logger.Info("User %s unblocked %s", selfID, targetID)
	return true
}

// CheckBlockStatus reads both block lists independently; either may be missing.
func (uc *BlockUseCase) CheckBlockStatus(ctx context.Context, selfID, otherID string) (entity.BlockStatus, error) {
	mine, err := uc.blockRepo.Get(ctx, selfID)
	if err != nil {
		return entity.BlockStatus{}, errors.Internal("Failed to check block status", err)
	}
	theirs, err := uc.blockRepo.Get(ctx, otherID)
	if err != nil {
		return entity.BlockStatus{}, errors.Internal("Failed to check block status", err)
	}
	return entity.BlockStatus{
		HasBlockedOther:  mine.Contains(otherID),
		IsBlockedByOther: theirs.Contains(selfID),
	}, nil
}

func (uc *BlockUseCase) ListBlocked(ctx context.Context, selfID string) ([]string, error) {
	list, err := uc.blockRepo.Get(ctx, selfID)
	if err != nil {
		return nil, errors.Internal("Failed to fetch block list", err)
	}
	if list.BlockedUsers == nil {
		return []string{}, nil
	}
	return list.BlockedUsers, nil
}
