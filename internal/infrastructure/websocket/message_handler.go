package websocket

import (
	"encoding/json"
	"errors"
	"time"

	"livemarket/pkg/logger"
)

// Client frame types
const (
	MessageTypePing              = "ping"
	MessageTypeVisibility        = "visibility"
	MessageTypeSubscribeChats    = "subscribe_chats"
	MessageTypeSubscribeMessages = "subscribe_messages"
	MessageTypeSubscribeRoom     = "subscribe_room"
	MessageTypeSubscribePresence = "subscribe_presence"
	MessageTypeSubscribeTyping   = "subscribe_typing"
	MessageTypeUnsubscribe       = "unsubscribe"
	MessageTypeTyping            = "typing"
)

// Server frame types
const (
	MessageTypePong          = "pong"
	MessageTypeConversations = "conversations"
	MessageTypeMessages      = "messages"
	MessageTypeRoomMessages  = "room_messages"
	MessageTypePresence      = "presence"
	MessageTypeTypingStatus  = "typing"
	MessageTypeSubscribed    = "subscribed"
	MessageTypeError         = "error"
)

var ErrMissingType = errors.New("frame type is required")

// WSMessage is the envelope for both directions. Key names the subscription a
// server frame belongs to; clients send it back to unsubscribe.
type WSMessage struct {
	Type      string          `json:"type"`
	Key       string          `json:"key,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp string          `json:"timestamp,omitempty"`
}

type outgoingMessage struct {
	Type      string      `json:"type"`
	Key       string      `json:"key,omitempty"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp string      `json:"timestamp"`
}

type VisibilityData struct {
	Visible bool `json:"visible"`
}

type ChatData struct {
	ChatID string `json:"chat_id"`
}

type RoomData struct {
	ShowID string `json:"show_id"`
}

type PresenceRequestData struct {
	UserID string `json:"user_id"`
}

type TypingSubscribeData struct {
	ChatID string `json:"chat_id"`
	UserID string `json:"user_id"`
}

type TypingData struct {
	ChatID string `json:"chat_id"`
	UserID string `json:"user_id,omitempty"`
	Typing bool   `json:"typing"`
}

type UnsubscribeData struct {
	Key string `json:"key"`
}

type ErrorData struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// FrameHandler serves one connection. Close runs once when the connection ends.
type FrameHandler interface {
	HandleFrame(client *Client, frame WSMessage)
	Close(client *Client)
}

func DecodeFrame(raw []byte) (WSMessage, error) {
	var frame WSMessage
	if err := json.Unmarshal(raw, &frame); err != nil {
		return WSMessage{}, err
	}
	if frame.Type == "" {
		return WSMessage{}, ErrMissingType
	}
	return frame, nil
}

// DecodeData unmarshals the frame payload into v. An empty payload leaves v untouched.
func (f WSMessage) DecodeData(v interface{}) error {
	if len(f.Data) == 0 {
		return nil
	}
	return json.Unmarshal(f.Data, v)
}

func EncodeFrame(frameType, key string, data interface{}) ([]byte, error) {
	return json.Marshal(outgoingMessage{
		Type:      frameType,
		Key:       key,
		Data:      data,
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
	})
}

// Push encodes and queues a server frame.
func (c *Client) Push(frameType, key string, data interface{}) bool {
	payload, err := EncodeFrame(frameType, key, data)
	if err != nil {
		logger.Error("WebSocket: failed to encode %s frame for user %s: %v", frameType, c.UserID, err)
		return false
	}
	return c.enqueue(payload)
}

func (c *Client) PushError(key, code, message string) bool {
	return c.Push(MessageTypeError, key, ErrorData{Code: code, Message: message})
}
