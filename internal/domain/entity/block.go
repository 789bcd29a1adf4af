package entity

type BlockList struct {
	UserID       string   `json:"user_id" firestore:"-"`
	BlockedUsers []string `json:"blocked_users" firestore:"blockedUsers"`
}

func (b *BlockList) Contains(userID string) bool {
	if b == nil {
		return false
	}
	for _, id := range b.BlockedUsers {
		if id == userID {
			return true
		}
	}
	return false
}

// BlockStatus is asymmetric: each direction is read from its own block list.
type BlockStatus struct {
	HasBlockedOther  bool `json:"has_blocked_other"`
	IsBlockedByOther bool `json:"is_blocked_by_other"`
}

func (s BlockStatus) Blocked() bool {
	return s.HasBlockedOther || s.IsBlockedByOther
}
