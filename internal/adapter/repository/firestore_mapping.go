package repository

import (
	"strconv"
	"time"

	"livemarket/internal/domain/entity"
)

const (
	chatsCollection        = "chats"
	messagesCollection     = "messages"
	roomMessagesCollection = "room_messages"
	presenceCollection     = "presence"
	blockedUsersCollection = "blocked_users"
	usersCollection        = "users"
)

// The chat document is schema-less: per-participant fields are keyed by user id
// and older documents use other shapes, so chats are mapped by hand. Missing or
// malformed values fall back to zero values.

func decodeChat(id string, data map[string]interface{}) *entity.Chat {
	chat := &entity.Chat{
		ID:              id,
		PairKey:         toString(data["pairKey"]),
		UserIDs:         toStringSlice(data["userIds"]),
		Users:           decodeProfiles(data["users"]),
		LastMessage:     toString(data["lastMessage"]),
		LastMessageTime: toTime(data["lastMessageTime"]),
		LastSender:      toString(data["lastSender"]),
		ChatDisabled:    toBool(data["chat_disabled"]),
		LastRead:        make(map[string]int64),
		Typing:          make(map[string]entity.TypingState),
		CreatedAt:       toTime(data["createdAt"]),
	}

	for field, value := range data {
		kind, userID, ok := entity.ParseParticipantField(field)
		if !ok || userID == "" {
			continue
		}
		switch kind {
		case "last_read":
			chat.LastRead[userID] = toInt64(value)
		case "typing":
			state := chat.Typing[userID]
			state.Typing = toBool(value)
			chat.Typing[userID] = state
		case "typing_at":
			state := chat.Typing[userID]
			state.At = toTime(value)
			chat.Typing[userID] = state
		}
	}

	return chat
}

func encodeChat(chat *entity.Chat) map[string]interface{} {
	users := make(map[string]interface{}, len(chat.Users))
	for id, profile := range chat.Users {
		users[id] = encodeProfile(profile)
	}

	data := map[string]interface{}{
		"pairKey":       chat.PairKey,
		"userIds":       chat.UserIDs,
		"users":         users,
		"lastMessage":   chat.LastMessage,
		"lastSender":    chat.LastSender,
		"chat_disabled": chat.ChatDisabled,
		"createdAt":     chat.CreatedAt,
	}
	if !chat.LastMessageTime.IsZero() {
		data["lastMessageTime"] = chat.LastMessageTime
	}
	for id, at := range chat.LastRead {
		data[entity.LastReadField(id)] = at
	}
	for _, id := range chat.UserIDs {
		data[entity.TypingField(id)] = false
	}
	return data
}

func encodeProfile(profile entity.ParticipantProfile) map[string]interface{} {
	return map[string]interface{}{
		"id":         profile.ID,
		"name":       profile.Name,
		"profileUrl": profile.ProfileURL,
	}
}

// decodeProfiles accepts the keyed map layout and the legacy array of
// {id, name, profileUrl} objects.
func decodeProfiles(value interface{}) map[string]entity.ParticipantProfile {
	profiles := make(map[string]entity.ParticipantProfile)

	add := func(key string, raw interface{}) {
		m, ok := raw.(map[string]interface{})
		if !ok {
			return
		}
		profile := entity.ParticipantProfile{
			ID:         toString(m["id"]),
			Name:       toString(m["name"]),
			ProfileURL: toString(m["profileUrl"]),
		}
		if profile.ID == "" {
			profile.ID = key
		}
		if profile.ID != "" {
			profiles[profile.ID] = profile
		}
	}

	switch v := value.(type) {
	case map[string]interface{}:
		for key, raw := range v {
			add(key, raw)
		}
	case []interface{}:
		for _, raw := range v {
			add("", raw)
		}
	}
	return profiles
}

func decodeMessage(id string, data map[string]interface{}) *entity.Message {
	message := &entity.Message{
		ID:               id,
		Message:          toString(data["message"]),
		Sender:           toString(data["sender"]),
		SenderName:       toString(data["senderName"]),
		SenderProfileURL: toString(data["senderProfileUrl"]),
		Date:             toString(data["date"]),
		Seen:             toBool(data["seen"]),
		Mentions:         decodeMentions(data["mentions"]),
	}
	if message.Date == "" {
		if ms := toInt64(data["date"]); ms > 0 {
			message.Date = entity.FormatMillis(ms)
		}
	}
	return message
}

func encodeMentions(mentions []entity.Mention) []interface{} {
	out := make([]interface{}, 0, len(mentions))
	for _, m := range mentions {
		out = append(out, map[string]interface{}{"id": m.ID, "name": m.Name})
	}
	return out
}

func decodeMentions(value interface{}) []entity.Mention {
	items, ok := value.([]interface{})
	if !ok {
		return nil
	}
	var mentions []entity.Mention
	for _, item := range items {
		m, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		mentions = append(mentions, entity.Mention{ID: toString(m["id"]), Name: toString(m["name"])})
	}
	return mentions
}

func toString(value interface{}) string {
	switch v := value.(type) {
	case string:
		return v
	case int64:
		return strconv.FormatInt(v, 10)
	case int:
		return strconv.Itoa(v)
	case float64:
		return strconv.FormatInt(int64(v), 10)
	}
	return ""
}

func toBool(value interface{}) bool {
	b, _ := value.(bool)
	return b
}

func toInt64(value interface{}) int64 {
	switch v := value.(type) {
	case int64:
		return v
	case int:
		return int64(v)
	case float64:
		return int64(v)
	case string:
		return entity.ParseMillis(v)
	case time.Time:
		return v.UnixMilli()
	}
	return 0
}

func toTime(value interface{}) time.Time {
	switch v := value.(type) {
	case time.Time:
		return v
	case int64, int, float64, string:
		if ms := toInt64(v); ms > 0 {
			return time.UnixMilli(ms)
		}
	}
	return time.Time{}
}

func toStringSlice(value interface{}) []string {
	switch v := value.(type) {
	case []string:
		return v
	case []interface{}:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok && s != "" {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}
