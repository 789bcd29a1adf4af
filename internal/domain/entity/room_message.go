package entity

// RoomMessage is a live-show chat line in its canonical shape.
type RoomMessage struct {
	ID               string    `json:"id" firestore:"-"`
	Message          string    `json:"message" firestore:"message"`
	Sender           string    `json:"sender" firestore:"sender"`
	SenderName       string    `json:"sender_name" firestore:"senderName"`
	SenderProfileURL string    `json:"sender_profile_url" firestore:"senderProfileUrl"`
	Date             string    `json:"date" firestore:"date"`
	Mentions         []Mention `json:"mentions,omitempty" firestore:"mentions,omitempty"`
}

func (m *RoomMessage) DateMillis() int64 {
	return ParseMillis(m.Date)
}

// RawRoomMessage is a room document as stored. Older clients wrote different
// field names, so the data is kept untyped until normalisation.
type RawRoomMessage struct {
	ID   string
	Data map[string]interface{}
}
