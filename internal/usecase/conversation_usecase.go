package usecase

import (
	"context"
	"sort"
	"time"

	"livemarket/internal/domain/entity"
	"livemarket/internal/domain/repository"
	"livemarket/pkg/logger"
)

type ConversationUseCase struct {
	chatRepo    repository.ChatRepository
	messageRepo repository.MessageRepository
	blocks      *BlockUseCase
	presence    *PresenceUseCase
	hostMarker  string
	clock       func() time.Time
}

func NewConversationUseCase(
	chatRepo repository.ChatRepository,
	messageRepo repository.MessageRepository,
	blocks *BlockUseCase,
	presence *PresenceUseCase,
	hostMarker string,
) *ConversationUseCase {
	if hostMarker == "" {
		hostMarker = DefaultStorageHostMarker
	}
	return &ConversationUseCase{
		chatRepo:    chatRepo,
		messageRepo: messageRepo,
		blocks:      blocks,
		presence:    presence,
		hostMarker:  hostMarker,
		clock:       time.Now,
	}
}

// ListConversations projects the user's chat list once, without live updates.
func (uc *ConversationUseCase) ListConversations(ctx context.Context, userID string) ([]entity.Conversation, error) {
	chats, err := uc.chatRepo.ListByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	p := newProjector(uc, userID)
	p.refreshBlocks(ctx, chats)
	for _, chat := range chats {
		other := chat.OtherParticipant(userID)
		if other == "" || p.blocks[other].IsBlockedByOther {
			continue
		}
		if _, seen := p.online[other]; seen {
			continue
		}
		view, err := uc.presence.GetPresence(ctx, other)
		if err != nil {
			logger.Warn("Presence lookup for %s failed: %v", other, err)
			continue
		}
		p.online[other] = view.Online
	}
	return p.project(ctx, chats), nil
}

// SubscribeToChats keeps the user's conversation list projected. Presence of
// each visible counterparty is watched once, lazily, and torn down when they
// leave the list or with the subscription.
func (uc *ConversationUseCase) SubscribeToChats(ctx context.Context, userID string, onUpdate func([]entity.Conversation), onError ErrorHandler) Unsubscribe {
	return subscribe(ctx, "conversations", onError, func(ctx context.Context) error {
		p := newProjector(uc, userID)
		p.onUpdate = onUpdate
		p.onError = onError
		return p.run(ctx)
	})
}

type presenceChange struct {
	userID string
	online bool
}

type unreadEntry struct {
	lastMessageTime time.Time
	lastMessage     string
	lastSender      string
	lastRead        int64
	count           int
}

// projector owns all projection state. Only run's goroutine touches it.
type projector struct {
	uc       *ConversationUseCase
	userID   string
	onUpdate func([]entity.Conversation)
	onError  ErrorHandler

	chats        []*entity.Chat
	online       map[string]bool
	presenceSubs map[string]Unsubscribe
	blocks       map[string]entity.BlockStatus
	unread       map[string]unreadEntry
}

func newProjector(uc *ConversationUseCase, userID string) *projector {
	return &projector{
		uc:           uc,
		userID:       userID,
		online:       make(map[string]bool),
		presenceSubs: make(map[string]Unsubscribe),
		blocks:       make(map[string]entity.BlockStatus),
		unread:       make(map[string]unreadEntry),
	}
}

func (p *projector) run(ctx context.Context) error {
	defer p.teardown()

	snapshots := make(chan []*entity.Chat)
	presence := make(chan presenceChange)
	watchErr := make(chan error, 1)

	go func() {
		watchErr <- p.uc.chatRepo.WatchByUserID(ctx, p.userID, func(chats []*entity.Chat) {
			select {
			case snapshots <- chats:
			case <-ctx.Done():
			}
		})
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-watchErr:
			return err
		case chats := <-snapshots:
			p.chats = chats
			p.refreshBlocks(ctx, chats)
			p.watchPresence(ctx, presence)
			p.deliver(ctx)
		case change := <-presence:
			if _, watched := p.presenceSubs[change.userID]; !watched {
				continue
			}
			if previous, ok := p.online[change.userID]; ok && previous == change.online {
				continue
			}
			p.online[change.userID] = change.online
			p.deliver(ctx)
		}
	}
}

func (p *projector) refreshBlocks(ctx context.Context, chats []*entity.Chat) {
	checked := make(map[string]bool)
	for _, chat := range chats {
		other := chat.OtherParticipant(p.userID)
		if other == "" || checked[other] {
			continue
		}
		checked[other] = true

		status, err := p.uc.blocks.CheckBlockStatus(ctx, p.userID, other)
		if err != nil {
			logger.Warn("Block check for %s/%s failed, keeping last known state: %v", p.userID, other, err)
			continue
		}
		p.blocks[other] = status
	}
}

// watchPresence keeps exactly one presence listener per visible counterparty,
// closing listeners for users who left the list or blocked the user.
func (p *projector) watchPresence(ctx context.Context, changes chan<- presenceChange) {
	visible := make(map[string]bool)
	for _, chat := range p.chats {
		other := chat.OtherParticipant(p.userID)
		if other == "" || p.blocks[other].IsBlockedByOther {
			continue
		}
		visible[other] = true
	}

	for userID, unsubscribe := range p.presenceSubs {
		if visible[userID] {
			continue
		}
		unsubscribe()
		delete(p.presenceSubs, userID)
		delete(p.online, userID)
	}

	for other := range visible {
		if _, ok := p.presenceSubs[other]; ok {
			continue
		}
		userID := other
		p.presenceSubs[userID] = p.uc.presence.SubscribeToPresence(ctx, userID, func(view entity.PresenceView) {
			select {
			case changes <- presenceChange{userID: userID, online: view.Online}:
			case <-ctx.Done():
			}
		}, func(err error) {
			logger.Warn("Presence stream for %s failed: %v", userID, err)
		})
	}
}

func (p *projector) deliver(ctx context.Context) {
	conversations := p.project(ctx, p.chats)
	guard("conversations", p.onError, func() { p.onUpdate(conversations) })
}

func (p *projector) project(ctx context.Context, chats []*entity.Chat) []entity.Conversation {
	now := p.uc.clock()
	conversations := make([]entity.Conversation, 0, len(chats))

	for _, chat := range chats {
		other := chat.OtherParticipant(p.userID)
		if other == "" {
			continue
		}
		status := p.blocks[other]
		if status.IsBlockedByOther {
			continue
		}

		profile := chat.Profile(other)
		conversations = append(conversations, entity.Conversation{
			ChatID:          chat.ID,
			OtherUserID:     other,
			OtherUserName:   profile.Name,
			OtherUserAvatar: profile.ProfileURL,
			Online:          p.online[other],
			LastMessage:     PreviewText(chat.LastMessage, p.uc.hostMarker),
			LastMessageTime: chat.LastMessageTime,
			TimeLabel:       RelativeTime(chat.LastMessageTime, now),
			LastSender:      chat.LastSender,
			UnreadCount:     p.unreadCount(ctx, chat, other),
			HasBlockedOther: status.HasBlockedOther,
			ChatDisabled:    chat.ChatDisabled,
		})
	}

	sort.SliceStable(conversations, func(i, j int) bool {
		a, b := conversations[i], conversations[j]
		if !a.LastMessageTime.Equal(b.LastMessageTime) {
			return a.LastMessageTime.After(b.LastMessageTime)
		}
		return a.ChatID < b.ChatID
	})
	return conversations
}

func (p *projector) unreadCount(ctx context.Context, chat *entity.Chat, other string) int {
	lastRead := chat.LastReadOf(p.userID)
	if cached, ok := p.unread[chat.ID]; ok &&
		cached.lastMessageTime.Equal(chat.LastMessageTime) &&
		cached.lastMessage == chat.LastMessage &&
		cached.lastSender == chat.LastSender &&
		cached.lastRead == lastRead {
		return cached.count
	}

	messages, err := p.uc.messageRepo.ListByChat(ctx, chat.ID)
	if err != nil {
		logger.Warn("Unread count for chat %s unavailable: %v", chat.ID, err)
		return 0
	}
	count := CountUnread(messages, p.userID, other, lastRead)
	p.unread[chat.ID] = unreadEntry{
		lastMessageTime: chat.LastMessageTime,
		lastMessage:     chat.LastMessage,
		lastSender:      chat.LastSender,
		lastRead:        lastRead,
		count:           count,
	}
	return count
}

func (p *projector) teardown() {
	for userID, unsubscribe := range p.presenceSubs {
		unsubscribe()
		delete(p.presenceSubs, userID)
	}
	p.chats = nil
	p.online = make(map[string]bool)
	p.blocks = make(map[string]entity.BlockStatus)
	p.unread = make(map[string]unreadEntry)
}
