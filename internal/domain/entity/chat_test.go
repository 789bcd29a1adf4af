package entity

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPairKey(t *testing.T) {
	assert.Equal(t, "alice_bob", PairKey("bob", "alice"))
	assert.Equal(t, PairKey("alice", "bob"), PairKey("bob", "alice"))

	hashed := PairKey("a_b", "c")
	assert.Len(t, hashed, 64)
	assert.False(t, strings.Contains(hashed, "_"))
	assert.Equal(t, hashed, PairKey("c", "a_b"))
	assert.NotEqual(t, hashed, PairKey("a", "b_c"))
}

func TestChatIsPair(t *testing.T) {
	chat := &Chat{UserIDs: []string{"bob", "alice"}}
	assert.True(t, chat.IsPair("alice", "bob"))
	assert.False(t, chat.IsPair("alice", "carol"))

	group := &Chat{UserIDs: []string{"alice", "bob", "carol"}}
	assert.False(t, group.IsPair("alice", "bob"))
}
