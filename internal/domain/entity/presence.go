package entity

import "time"

type Presence struct {
	UserID     string    `json:"user_id" firestore:"-"`
	Online     bool      `json:"online" firestore:"online"`
	LastSeen   time.Time `json:"last_seen" firestore:"lastSeen"`
	LastUpdate int64     `json:"last_update" firestore:"lastUpdate"`
}

// PresenceView is what presence subscribers receive. Typing is always false
// here; typing has its own channel.
type PresenceView struct {
	Online   bool   `json:"online"`
	LastSeen string `json:"last_seen"`
	Typing   bool   `json:"typing"`
}
