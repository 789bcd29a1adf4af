package memory

import (
	"context"
	"sort"
	"time"

	"livemarket/internal/domain/entity"
	"livemarket/internal/domain/repository"
	"livemarket/pkg/errors"
)

type chatRepository struct {
	store *Store
}

func NewChatRepository(store *Store) repository.ChatRepository {
	return &chatRepository{store: store}
}

func (r *chatRepository) Create(ctx context.Context, chat *entity.Chat) error {
	if err := r.store.failed(); err != nil {
		return errors.Internal("Failed to create chat", err)
	}

	r.store.mu.Lock()
	if _, exists := r.store.chats[chat.ID]; exists {
		r.store.mu.Unlock()
		return errors.Conflict("Chat already exists", nil)
	}
	if chat.CreatedAt.IsZero() {
		chat.CreatedAt = time.Now()
	}
	r.store.chats[chat.ID] = cloneChat(chat)
	r.store.mu.Unlock()

	r.store.notify()
	return nil
}

func (r *chatRepository) GetByID(ctx context.Context, id string) (*entity.Chat, error) {
	if err := r.store.failed(); err != nil {
		return nil, errors.Internal("Failed to get chat", err)
	}

	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	chat, ok := r.store.chats[id]
	if !ok {
		return nil, errors.NotFound("Chat", nil)
	}
	return cloneChat(chat), nil
}

func (r *chatRepository) ListByUserID(ctx context.Context, userID string) ([]*entity.Chat, error) {
	if err := r.store.failed(); err != nil {
		return nil, errors.Internal("Failed to list chats", err)
	}
	return r.listByUserID(userID), nil
}

func (r *chatRepository) listByUserID(userID string) []*entity.Chat {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	chats := make([]*entity.Chat, 0)
	for _, chat := range r.store.chats {
		if chat.HasParticipant(userID) {
			chats = append(chats, cloneChat(chat))
		}
	}
	sort.SliceStable(chats, func(i, j int) bool {
		if chats[i].LastMessageTime.Equal(chats[j].LastMessageTime) {
			return chats[i].ID < chats[j].ID
		}
		return chats[i].LastMessageTime.After(chats[j].LastMessageTime)
	})
	return chats
}

func (r *chatRepository) UpdateLastMessage(ctx context.Context, chatID string, update entity.LastMessageUpdate) error {
	return r.mutate(chatID, "Failed to update last message", func(chat *entity.Chat) {
		chat.LastMessage = update.Text
		chat.LastMessageTime = update.Time
		chat.LastSender = update.Sender.ID
		if chat.Users == nil {
			chat.Users = make(map[string]entity.ParticipantProfile)
		}
		chat.Users[update.Sender.ID] = update.Sender
	})
}

func (r *chatRepository) SetLastRead(ctx context.Context, chatID, userID string, at int64) error {
	return r.mutate(chatID, "Failed to mark chat as read", func(chat *entity.Chat) {
		if chat.LastRead == nil {
			chat.LastRead = make(map[string]int64)
		}
		chat.LastRead[userID] = at
	})
}

func (r *chatRepository) SetTyping(ctx context.Context, chatID, userID string, typing bool, at time.Time) error {
	return r.mutate(chatID, "Failed to update typing status", func(chat *entity.Chat) {
		if chat.Typing == nil {
			chat.Typing = make(map[string]entity.TypingState)
		}
		chat.Typing[userID] = entity.TypingState{Typing: typing, At: at}
	})
}

func (r *chatRepository) SetDisabled(ctx context.Context, chatID string, disabled bool) error {
	return r.mutate(chatID, "Failed to update chat", func(chat *entity.Chat) {
		chat.ChatDisabled = disabled
	})
}

func (r *chatRepository) mutate(chatID, message string, apply func(*entity.Chat)) error {
	if err := r.store.failed(); err != nil {
		return errors.Internal(message, err)
	}

	r.store.mu.Lock()
	chat, ok := r.store.chats[chatID]
	if !ok {
		r.store.mu.Unlock()
		return errors.NotFound("Chat", nil)
	}
	apply(chat)
	r.store.mu.Unlock()

	r.store.notify()
	return nil
}

func (r *chatRepository) Watch(ctx context.Context, chatID string, fn func(*entity.Chat)) error {
	return watch(ctx, r.store, func() (*entity.Chat, error) {
		if err := r.store.failed(); err != nil {
			return nil, errors.Internal("Chat snapshot stream failed", err)
		}
		r.store.mu.RLock()
		defer r.store.mu.RUnlock()
		chat, ok := r.store.chats[chatID]
		if !ok {
			return nil, nil
		}
		return cloneChat(chat), nil
	}, fn)
}

func (r *chatRepository) WatchByUserID(ctx context.Context, userID string, fn func([]*entity.Chat)) error {
	return watch(ctx, r.store, func() ([]*entity.Chat, error) {
		if err := r.store.failed(); err != nil {
			return nil, errors.Internal("Chat list snapshot stream failed", err)
		}
		return r.listByUserID(userID), nil
	}, fn)
}

func cloneChat(chat *entity.Chat) *entity.Chat {
	copied := *chat
	copied.UserIDs = append([]string(nil), chat.UserIDs...)
	copied.Users = make(map[string]entity.ParticipantProfile, len(chat.Users))
	for id, profile := range chat.Users {
		copied.Users[id] = profile
	}
	copied.LastRead = make(map[string]int64, len(chat.LastRead))
	for id, at := range chat.LastRead {
		copied.LastRead[id] = at
	}
	copied.Typing = make(map[string]entity.TypingState, len(chat.Typing))
	for id, state := range chat.Typing {
		copied.Typing[id] = state
	}
	return &copied
}
