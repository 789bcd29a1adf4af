package entity

import "strconv"

type Mention struct {
	ID   string `json:"id" firestore:"id"`
	Name string `json:"name" firestore:"name"`
}

// Message lives under chats/{chatId}/messages. Date is epoch-millis stored as a string.
type Message struct {
	ID               string    `json:"id" firestore:"-"`
	Message          string    `json:"message" firestore:"message"`
	Sender           string    `json:"sender" firestore:"sender"`
	SenderName       string    `json:"sender_name" firestore:"senderName"`
	SenderProfileURL string    `json:"sender_profile_url" firestore:"senderProfileUrl"`
	Date             string    `json:"date" firestore:"date"`
	Seen             bool      `json:"seen" firestore:"seen"`
	Mentions         []Mention `json:"mentions,omitempty" firestore:"mentions,omitempty"`
}

func (m *Message) DateMillis() int64 {
	return ParseMillis(m.Date)
}

// ParseMillis reads an epoch-millis string, returning 0 for anything unparsable.
func ParseMillis(value string) int64 {
	ms, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		f, ferr := strconv.ParseFloat(value, 64)
		if ferr != nil {
			return 0
		}
		return int64(f)
	}
	return ms
}

func FormatMillis(ms int64) string {
	return strconv.FormatInt(ms, 10)
}
