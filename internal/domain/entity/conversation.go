package entity

import "time"

// Conversation is the derived, never persisted, row of a user's chat list.
type Conversation struct {
	ChatID          string    `json:"chat_id"`
	OtherUserID     string    `json:"other_user_id"`
	OtherUserName   string    `json:"other_user_name"`
	OtherUserAvatar string    `json:"other_user_avatar"`
	Online          bool      `json:"online"`
	LastMessage     string    `json:"last_message"`
	LastMessageTime time.Time `json:"last_message_time"`
	TimeLabel       string    `json:"time_label"`
	LastSender      string    `json:"last_sender"`
	UnreadCount     int       `json:"unread_count"`
	HasBlockedOther bool      `json:"has_blocked_other"`
	ChatDisabled    bool      `json:"chat_disabled"`
}
