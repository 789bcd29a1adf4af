package entity

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"
)

const (
	lastReadPrefix = "last_read_"
	typingPrefix   = "typing_"
	typingAtPrefix = "typingAt_"
)

// ParticipantProfile is the denormalized display snapshot of a chat member.
// It is refreshed on send and may be stale.
type ParticipantProfile struct {
	ID         string `json:"id" firestore:"id"`
	Name       string `json:"name" firestore:"name"`
	ProfileURL string `json:"profile_url" firestore:"profileUrl"`
}

type TypingState struct {
	Typing bool      `json:"typing"`
	At     time.Time `json:"at"`
}

type Chat struct {
	ID              string                        `json:"id"`
	PairKey         string                        `json:"pair_key,omitempty"`
	UserIDs         []string                      `json:"user_ids"`
	Users           map[string]ParticipantProfile `json:"users"`
	LastMessage     string                        `json:"last_message"`
	LastMessageTime time.Time                     `json:"last_message_time"`
	LastSender      string                        `json:"last_sender"`
	ChatDisabled    bool                          `json:"chat_disabled"`
	LastRead        map[string]int64              `json:"last_read"`
	Typing          map[string]TypingState        `json:"-"`
	CreatedAt       time.Time                     `json:"created_at"`
}

// LastMessageUpdate is what a send writes back onto the parent chat.
type LastMessageUpdate struct {
	Text   string
	Time   time.Time
	Sender ParticipantProfile
}

// PairKey is the deterministic id of the chat between two users,
// independent of argument order. Ids without "_" join as "min_max"; any other
// pair hashes to 64 hex digits, which never contain "_", so two pairs cannot
// share a key.
func PairKey(a, b string) string {
	if b < a {
		a, b = b, a
	}
	if strings.Contains(a, "_") || strings.Contains(b, "_") {
		sum := sha256.Sum256([]byte(a + "\x00" + b))
		return hex.EncodeToString(sum[:])
	}
	return a + "_" + b
}

func LastReadField(userID string) string {
	return lastReadPrefix + userID
}

func TypingField(userID string) string {
	return typingPrefix + userID
}

func TypingAtField(userID string) string {
	return typingAtPrefix + userID
}

// ParseParticipantField splits a per-participant field name such as
// "last_read_<uid>" into its prefix kind and user id.
func ParseParticipantField(field string) (kind, userID string, ok bool) {
	switch {
	case strings.HasPrefix(field, lastReadPrefix):
		return "last_read", strings.TrimPrefix(field, lastReadPrefix), true
	case strings.HasPrefix(field, typingAtPrefix):
		return "typing_at", strings.TrimPrefix(field, typingAtPrefix), true
	case strings.HasPrefix(field, typingPrefix):
		return "typing", strings.TrimPrefix(field, typingPrefix), true
	}
	return "", "", false
}

func (c *Chat) HasParticipant(userID string) bool {
	for _, id := range c.UserIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// IsPair reports whether the chat is exactly the conversation between a and b.
func (c *Chat) IsPair(a, b string) bool {
	return len(c.UserIDs) == 2 && c.HasParticipant(a) && c.HasParticipant(b)
}

// OtherParticipant returns the member that is not userID, or "" when userID
// is not part of the chat.
func (c *Chat) OtherParticipant(userID string) string {
	if !c.HasParticipant(userID) {
		return ""
	}
	for _, id := range c.UserIDs {
		if id != userID {
			return id
		}
	}
	return ""
}

func (c *Chat) LastReadOf(userID string) int64 {
	if c.LastRead == nil {
		return 0
	}
	return c.LastRead[userID]
}

// IsTyping reports the typing flag of userID, treating flags older than ttl as cleared.
// A zero ttl disables expiry.
func (c *Chat) IsTyping(userID string, now time.Time, ttl time.Duration) bool {
	state, ok := c.Typing[userID]
	if !ok || !state.Typing {
		return false
	}
	if ttl <= 0 || state.At.IsZero() {
		return true
	}
	return now.Sub(state.At) < ttl
}

func (c *Chat) Profile(userID string) ParticipantProfile {
	if profile, ok := c.Users[userID]; ok {
		if profile.ID == "" {
			profile.ID = userID
		}
		return profile
	}
	return ParticipantProfile{ID: userID}
}
