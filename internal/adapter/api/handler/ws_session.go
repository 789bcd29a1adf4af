package handler

import (
	"context"
	"errors"
	"sync"

	"livemarket/internal/domain/entity"
	ws "livemarket/internal/infrastructure/websocket"
	"livemarket/internal/usecase"
	apperrors "livemarket/pkg/errors"
	"livemarket/pkg/logger"
)

// wsSession is the per-connection state: one presence session plus the live
// subscriptions the client opened, keyed by the key echoed in server frames.
type wsSession struct {
	deps     Dependencies
	client   *ws.Client
	ctx      context.Context
	cancel   context.CancelFunc
	presence *usecase.PresenceSession

	mu   sync.Mutex
	subs map[string]usecase.Unsubscribe
}

func newWSSession(deps Dependencies, client *ws.Client) *wsSession {
	ctx, cancel := context.WithCancel(context.Background())
	return &wsSession{
		deps:     deps,
		client:   client,
		ctx:      ctx,
		cancel:   cancel,
		presence: deps.Presence.NewSession(client.UserID),
		subs:     make(map[string]usecase.Unsubscribe),
	}
}

func (s *wsSession) start() {
	if err := s.presence.Start(s.ctx); err != nil {
		logger.Warn("Presence start failed for %s: %v", s.client.UserID, err)
	}
}

func (s *wsSession) HandleFrame(client *ws.Client, frame ws.WSMessage) {
	switch frame.Type {
	case ws.MessageTypePing:
		client.Push(ws.MessageTypePong, frame.Key, nil)

	case ws.MessageTypeVisibility:
		var data ws.VisibilityData
		if !s.decode(frame, &data) {
			return
		}
		if err := s.presence.SetVisible(s.ctx, data.Visible); err != nil {
			s.fail(frame.Key, err)
		}

	case ws.MessageTypeSubscribeChats:
		s.subscribeChats()

	case ws.MessageTypeSubscribeMessages:
		var data ws.ChatData
		if !s.decode(frame, &data) {
			return
		}
		s.subscribeMessages(data.ChatID)

	case ws.MessageTypeSubscribeRoom:
		var data ws.RoomData
		if !s.decode(frame, &data) {
			return
		}
		s.subscribeRoom(data.ShowID)

	case ws.MessageTypeSubscribePresence:
		var data ws.PresenceRequestData
		if !s.decode(frame, &data) {
			return
		}
		s.subscribePresence(data.UserID)

	case ws.MessageTypeSubscribeTyping:
		var data ws.TypingSubscribeData
		if !s.decode(frame, &data) {
			return
		}
		s.subscribeTyping(data.ChatID, data.UserID)

	case ws.MessageTypeUnsubscribe:
		var data ws.UnsubscribeData
		if !s.decode(frame, &data) {
			return
		}
		key := data.Key
		if key == "" {
			key = frame.Key
		}
		s.unsubscribe(key)

	case ws.MessageTypeTyping:
		var data ws.TypingData
		if !s.decode(frame, &data) {
			return
		}
		if err := s.deps.Typing.UpdateTypingStatus(s.ctx, data.ChatID, client.UserID, data.Typing); err != nil {
			s.fail(frame.Key, err)
		}

	default:
		client.PushError(frame.Key, apperrors.CodeBadRequest, "Unknown message type: "+frame.Type)
	}
}

// Close tears down every subscription and marks the user offline.
func (s *wsSession) Close(client *ws.Client) {
	s.mu.Lock()
	for key, unsubscribe := range s.subs {
		unsubscribe()
		delete(s.subs, key)
	}
	s.mu.Unlock()

	s.cancel()
	if err := s.presence.Stop(context.Background()); err != nil {
		logger.Warn("Presence stop failed for %s: %v", client.UserID, err)
	}
}

func (s *wsSession) subscribeChats() {
	const key = "chats"
	s.track(key, s.deps.Conversations.SubscribeToChats(s.ctx, s.client.UserID, func(conversations []entity.Conversation) {
		s.client.Push(ws.MessageTypeConversations, key, conversations)
	}, s.onError(key)))
}

func (s *wsSession) subscribeMessages(chatID string) {
	key := "messages:" + chatID
	if _, err := s.deps.Chats.GetChat(s.ctx, s.client.UserID, chatID); err != nil {
		s.fail(key, err)
		return
	}
	s.track(key, s.deps.Messages.SubscribeToMessages(s.ctx, chatID, func(messages []*entity.Message) {
		s.client.Push(ws.MessageTypeMessages, key, messages)
	}, s.onError(key)))
}

func (s *wsSession) subscribeRoom(showID string) {
	key := "room:" + showID
	if showID == "" {
		s.fail(key, apperrors.BadRequest("show_id is required", nil))
		return
	}
	s.track(key, s.deps.Messages.SubscribeToRoomMessages(s.ctx, showID, func(messages []*entity.RoomMessage) {
		s.client.Push(ws.MessageTypeRoomMessages, key, messages)
	}, s.onError(key)))
}

func (s *wsSession) subscribePresence(userID string) {
	key := "presence:" + userID
	if userID == "" {
		s.fail(key, apperrors.BadRequest("user_id is required", nil))
		return
	}
	s.track(key, s.deps.Presence.SubscribeToPresence(s.ctx, userID, func(view entity.PresenceView) {
		s.client.Push(ws.MessageTypePresence, key, view)
	}, s.onError(key)))
}

func (s *wsSession) subscribeTyping(chatID, otherUserID string) {
	key := "typing:" + chatID + ":" + otherUserID
	chat, err := s.deps.Chats.GetChat(s.ctx, s.client.UserID, chatID)
	if err != nil {
		s.fail(key, err)
		return
	}
	if otherUserID == "" {
		otherUserID = chat.OtherParticipant(s.client.UserID)
		key = "typing:" + chatID + ":" + otherUserID
	}
	s.track(key, s.deps.Typing.SubscribeToTypingStatus(s.ctx, chatID, otherUserID, func(typing bool) {
		s.client.Push(ws.MessageTypeTypingStatus, key, ws.TypingData{ChatID: chatID, UserID: otherUserID, Typing: typing})
	}, s.onError(key)))
}

// track stores the handle under key, replacing any earlier subscription.
func (s *wsSession) track(key string, unsubscribe usecase.Unsubscribe) {
	s.mu.Lock()
	previous, ok := s.subs[key]
	s.subs[key] = unsubscribe
	s.mu.Unlock()

	if ok {
		previous()
	}
	s.client.Push(ws.MessageTypeSubscribed, key, nil)
}

func (s *wsSession) unsubscribe(key string) {
	s.mu.Lock()
	unsubscribe, ok := s.subs[key]
	delete(s.subs, key)
	s.mu.Unlock()

	if ok {
		unsubscribe()
	}
}

func (s *wsSession) onError(key string) usecase.ErrorHandler {
	return func(err error) {
		s.fail(key, err)
	}
}

func (s *wsSession) decode(frame ws.WSMessage, v interface{}) bool {
	if err := frame.DecodeData(v); err != nil {
		s.client.PushError(frame.Key, apperrors.CodeBadRequest, "Invalid "+frame.Type+" payload")
		return false
	}
	return true
}

func (s *wsSession) fail(key string, err error) {
	code := apperrors.CodeInternal
	message := "Something went wrong"
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		code = appErr.Code
		message = appErr.Message
	}
	if code == apperrors.CodeInternal {
		logger.Error("WebSocket %s for user %s: %v", key, s.client.UserID, err)
	}
	s.client.PushError(key, code, message)
}
