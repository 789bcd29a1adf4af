package usecase

import (
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"livemarket/internal/domain/entity"
)

const anonymousSender = "Anonymous"

// Numeric timestamps below this are taken as epoch seconds, above as millis.
const secondsThreshold = 1e12

// NormalizeRoomMessages maps room documents written by any client generation onto
// the canonical shape and orders them by date ascending.
func NormalizeRoomMessages(raw []entity.RawRoomMessage) []*entity.RoomMessage {
	out := make([]*entity.RoomMessage, 0, len(raw))
	for _, doc := range raw {
		out = append(out, normalizeRoomMessage(doc))
	}
	sort.SliceStable(out, func(i, j int) bool {
		di, dj := out[i].DateMillis(), out[j].DateMillis()
		if di != dj {
			return di < dj
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func normalizeRoomMessage(doc entity.RawRoomMessage) *entity.RoomMessage {
	data := doc.Data
	msg := &entity.RoomMessage{
		ID:               doc.ID,
		Message:          firstString(data, "message", "text"),
		Sender:           firstString(data, "sender", "senderId"),
		SenderName:       firstString(data, "senderName", "name"),
		SenderProfileURL: firstString(data, "senderProfileUrl", "profileUrl", "avatar"),
		Mentions:         roomMentions(data["mentions"]),
	}
	if msg.SenderName == "" {
		msg.SenderName = anonymousSender
	}
	msg.Date = entity.FormatMillis(roomDateMillis(data))
	return msg
}

func roomDateMillis(data map[string]interface{}) int64 {
	if date, ok := data["date"]; ok {
		switch v := date.(type) {
		case string:
			if ms := entity.ParseMillis(strings.TrimSpace(v)); ms > 0 {
				return ms
			}
		default:
			if ms := timestampMillis(v); ms > 0 {
				return ms
			}
		}
	}
	return timestampMillis(data["timestamp"])
}

func timestampMillis(value interface{}) int64 {
	switch v := value.(type) {
	case time.Time:
		return v.UnixMilli()
	case *time.Time:
		if v == nil {
			return 0
		}
		return v.UnixMilli()
	case map[string]interface{}:
		seconds, ok := numberOf(v["seconds"])
		if !ok {
			seconds, ok = numberOf(v["_seconds"])
		}
		if !ok {
			return 0
		}
		nanos, found := numberOf(v["nanoseconds"])
		if !found {
			nanos, _ = numberOf(v["_nanoseconds"])
		}
		return int64(seconds)*1000 + int64(nanos)/int64(time.Millisecond)
	case string:
		n, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0
		}
		return scaleEpoch(n)
	default:
		if n, ok := numberOf(v); ok {
			return scaleEpoch(n)
		}
	}
	return 0
}

func scaleEpoch(n float64) int64 {
	if n <= 0 || math.IsNaN(n) || math.IsInf(n, 0) {
		return 0
	}
	if n < secondsThreshold {
		return int64(n * 1000)
	}
	return int64(n)
}

func numberOf(value interface{}) (float64, bool) {
	switch v := value.(type) {
	case int:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case float32:
		return float64(v), true
	case float64:
		return v, true
	}
	return 0, false
}

func firstString(data map[string]interface{}, keys ...string) string {
	for _, key := range keys {
		if s, ok := data[key].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

func roomMentions(value interface{}) []entity.Mention {
	items, ok := value.([]interface{})
	if !ok {
		return nil
	}
	mentions := make([]entity.Mention, 0, len(items))
	for _, item := range items {
		m, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		mention := entity.Mention{
			ID:   firstString(m, "id", "userId"),
			Name: firstString(m, "name"),
		}
		if mention.ID == "" && mention.Name == "" {
			continue
		}
		mentions = append(mentions, mention)
	}
	if len(mentions) == 0 {
		return nil
	}
	return mentions
}
