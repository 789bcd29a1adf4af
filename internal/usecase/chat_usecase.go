package usecase

import (
	"context"
	"time"

	"livemarket/internal/domain/entity"
	"livemarket/internal/domain/repository"
	"livemarket/internal/infrastructure/ratelimit"
	"livemarket/pkg/errors"
	"livemarket/pkg/logger"
)

type ChatUseCase struct {
	chatRepo    repository.ChatRepository
	userRepo    repository.UserRepository
	rateLimiter RateLimiter
	clock       func() time.Time
}

func NewChatUseCase(
	chatRepo repository.ChatRepository,
	userRepo repository.UserRepository,
	rateLimiter RateLimiter,
) *ChatUseCase {
	if rateLimiter == nil {
		rateLimiter = allowAll{}
	}
	return &ChatUseCase{
		chatRepo:    chatRepo,
		userRepo:    userRepo,
		rateLimiter: rateLimiter,
		clock:       time.Now,
	}
}

// GetOrCreateChat returns the id of the chat between idA and idB, creating it
// on first contact. Either argument order yields the same chat. A nil profile
// is resolved from the users collection.
func (uc *ChatUseCase) GetOrCreateChat(ctx context.Context, idA, idB string, profileA, profileB *entity.ParticipantProfile) (string, error) {
	if idA == "" || idB == "" {
		return "", errors.BadRequest("Both participant IDs are required", nil)
	}
	if idA == idB {
		return "", errors.BadRequest("Cannot start a chat with yourself", nil)
	}

	key := entity.PairKey(idA, idB)
	existing, err := uc.chatRepo.GetByID(ctx, key)
	if err == nil {
		return uc.pairChatID(existing, idA, idB)
	}
	if !errors.Is(err, errors.CodeNotFound) {
		return "", err
	}

	// chats created before pair keys have random ids
	legacy, err := uc.findLegacyChat(ctx, idA, idB)
	if err != nil {
		return "", err
	}
	if legacy != "" {
		return legacy, nil
	}

	allowed, wait := uc.rateLimiter.Allow(idA, ratelimit.ActionCreateChat)
	if !allowed {
		logger.Warn("GetOrCreateChat rate limited: user %s must wait %v", idA, wait)
		return "", errors.TooManyRequests("Rate limit exceeded. Please wait before starting another chat")
	}

	a := uc.resolveProfile(ctx, idA, profileA)
	b := uc.resolveProfile(ctx, idB, profileB)

	chat := &entity.Chat{
		ID:      key,
		PairKey: key,
		UserIDs: []string{idA, idB},
		Users: map[string]entity.ParticipantProfile{
			idA: a,
			idB: b,
		},
		LastRead: map[string]int64{
			idA: 0,
			idB: 0,
		},
		CreatedAt: uc.clock(),
	}

	err = uc.chatRepo.Create(ctx, chat)
	if errors.Is(err, errors.CodeConflict) {
		// lost the creation race; the winner's chat has the same key
		winner, getErr := uc.chatRepo.GetByID(ctx, key)
		if getErr != nil {
			return "", getErr
		}
		return uc.pairChatID(winner, idA, idB)
	}
	if err != nil {
		return "", err
	}

	logger.Info("Chat %s created between %s and %s", chat.ID, idA, idB)
	return chat.ID, nil
}

// pairChatID guards against a document at the pair key that belongs to
// other users.
func (uc *ChatUseCase) pairChatID(chat *entity.Chat, idA, idB string) (string, error) {
	if !chat.IsPair(idA, idB) {
		logger.Error("Chat %s at pair key of %s/%s has participants %v", chat.ID, idA, idB, chat.UserIDs)
		return "", errors.Conflict("Chat key is held by another conversation", nil)
	}
	return chat.ID, nil
}

func (uc *ChatUseCase) findLegacyChat(ctx context.Context, idA, idB string) (string, error) {
	chats, err := uc.chatRepo.ListByUserID(ctx, idA)
	if err != nil {
		return "", err
	}
	for _, chat := range chats {
		if chat.IsPair(idA, idB) {
			return chat.ID, nil
		}
	}
	return "", nil
}

func (uc *ChatUseCase) resolveProfile(ctx context.Context, userID string, given *entity.ParticipantProfile) entity.ParticipantProfile {
	if given != nil {
		profile := *given
		profile.ID = userID
		return profile
	}
	if uc.userRepo != nil {
		user, err := uc.userRepo.GetByID(ctx, userID)
		if err == nil {
			profile := user.Profile()
			profile.ID = userID
			return profile
		}
		logger.Debug("No profile for %s, using bare id: %v", userID, err)
	}
	return entity.ParticipantProfile{ID: userID}
}

// ResolveProfile returns the display snapshot for a user, falling back to the bare id.
func (uc *ChatUseCase) ResolveProfile(ctx context.Context, userID string) entity.ParticipantProfile {
	return uc.resolveProfile(ctx, userID, nil)
}

func (uc *ChatUseCase) GetChat(ctx context.Context, userID, chatID string) (*entity.Chat, error) {
	chat, err := uc.chatRepo.GetByID(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if !chat.HasParticipant(userID) {
		return nil, errors.Forbidden("You are not a participant in this chat", nil)
	}
	return chat, nil
}

// SetChatDisabled flips the chat_disabled escape hatch. Either participant may set it.
func (uc *ChatUseCase) SetChatDisabled(ctx context.Context, userID, chatID string, disabled bool) error {
	if _, err := uc.GetChat(ctx, userID, chatID); err != nil {
		return err
	}
	if err := uc.chatRepo.SetDisabled(ctx, chatID, disabled); err != nil {
		return err
	}
	logger.Info("Chat %s disabled=%t by %s", chatID, disabled, userID)
	return nil
}
