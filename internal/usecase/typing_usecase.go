package usecase

import (
	"context"
	"time"

	"livemarket/internal/domain/entity"
	"livemarket/internal/domain/repository"
	"livemarket/internal/infrastructure/ratelimit"
	"livemarket/pkg/errors"
)

const DefaultTypingTTL = 10 * time.Second

type TypingUseCase struct {
	chatRepo    repository.ChatRepository
	rateLimiter RateLimiter
	ttl         time.Duration
	clock       func() time.Time
}

// NewTypingUseCase builds the typing channel. Flags older than ttl read as
// false; a zero ttl keeps flags until cleared.
func NewTypingUseCase(chatRepo repository.ChatRepository, rateLimiter RateLimiter, ttl time.Duration) *TypingUseCase {
	if rateLimiter == nil {
		rateLimiter = allowAll{}
	}
	if ttl < 0 {
		ttl = 0
	}
	return &TypingUseCase{
		chatRepo:    chatRepo,
		rateLimiter: rateLimiter,
		ttl:         ttl,
		clock:       time.Now,
	}
}

func (uc *TypingUseCase) UpdateTypingStatus(ctx context.Context, chatID, userID string, typing bool) error {
	if typing {
		if allowed, _ := uc.rateLimiter.Allow(userID, ratelimit.ActionTyping); !allowed {
			return errors.TooManyRequests("Too many typing updates")
		}
	}

	chat, err := uc.chatRepo.GetByID(ctx, chatID)
	if err != nil {
		return err
	}
	if !chat.HasParticipant(userID) {
		return errors.Forbidden("You are not a participant in this chat", nil)
	}
	return uc.chatRepo.SetTyping(ctx, chatID, userID, typing, uc.clock())
}

// SubscribeToTypingStatus delivers whether otherUserID is typing in chatID.
// Only changes are delivered; an expiring flag is re-delivered as false.
func (uc *TypingUseCase) SubscribeToTypingStatus(ctx context.Context, chatID, otherUserID string, onUpdate func(bool), onError ErrorHandler) Unsubscribe {
	return subscribe(ctx, "typing", onError, func(ctx context.Context) error {
		return uc.watchTyping(ctx, chatID, otherUserID, onUpdate, onError)
	})
}

func (uc *TypingUseCase) watchTyping(ctx context.Context, chatID, otherUserID string, onUpdate func(bool), onError ErrorHandler) error {
	snapshots := make(chan *entity.Chat)
	watchErr := make(chan error, 1)
	go func() {
		watchErr <- uc.chatRepo.Watch(ctx, chatID, func(chat *entity.Chat) {
			select {
			case snapshots <- chat:
			case <-ctx.Done():
			}
		})
	}()

	var (
		current   *entity.Chat
		delivered *bool
		expiry    *time.Timer
		expired   <-chan time.Time
	)
	defer func() {
		if expiry != nil {
			expiry.Stop()
		}
	}()

	evaluate := func() {
		now := uc.clock()
		typing := current != nil && current.IsTyping(otherUserID, now, uc.ttl)

		if expiry != nil {
			expiry.Stop()
			expiry, expired = nil, nil
		}
		if typing && uc.ttl > 0 {
			if at := current.Typing[otherUserID].At; !at.IsZero() {
				expiry = time.NewTimer(at.Add(uc.ttl).Sub(now))
				expired = expiry.C
			}
		}

		if delivered != nil && *delivered == typing {
			return
		}
		delivered = &typing
		guard("typing", onError, func() { onUpdate(typing) })
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-watchErr:
			return err
		case chat := <-snapshots:
			current = chat
			evaluate()
		case <-expired:
			expiry, expired = nil, nil
			evaluate()
		}
	}
}
