package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAllowConsumesBurstThenRejects(t *testing.T) {
	rl := NewRateLimiter(map[string]Policy{
		ActionSendMessage: {Burst: 3, Every: time.Hour},
	})

	for i := 0; i < 3; i++ {
		allowed, wait := rl.Allow("alice", ActionSendMessage)
		assert.True(t, allowed, "attempt %d should pass", i)
		assert.Zero(t, wait)
	}

	allowed, wait := rl.Allow("alice", ActionSendMessage)
	assert.False(t, allowed)
	assert.Greater(t, wait, time.Duration(0))
}

func TestAllowIsolatesKeysAndActions(t *testing.T) {
	rl := NewRateLimiter(map[string]Policy{
		ActionSendMessage: {Burst: 1, Every: time.Hour},
		ActionTyping:      {Burst: 1, Every: time.Hour},
	})

	allowed, _ := rl.Allow("alice", ActionSendMessage)
	assert.True(t, allowed)

	allowed, _ = rl.Allow("bob", ActionSendMessage)
	assert.True(t, allowed, "another user has its own bucket")

	allowed, _ = rl.Allow("alice", ActionTyping)
	assert.True(t, allowed, "another action has its own bucket")

	allowed, _ = rl.Allow("alice", ActionSendMessage)
	assert.False(t, allowed)
}

func TestUnknownActionUsesFallback(t *testing.T) {
	rl := NewRateLimiter(nil)

	for i := 0; i < 20; i++ {
		allowed, _ := rl.Allow("alice", "something")
		assert.True(t, allowed)
	}
	allowed, _ := rl.Allow("alice", "something")
	assert.False(t, allowed)
}

func TestCleanupDropsIdleBuckets(t *testing.T) {
	rl := NewRateLimiter(DefaultPolicies(30))
	rl.Allow("alice", ActionSendMessage)
	rl.Allow("bob", ActionTyping)
	assert.Equal(t, 2, rl.Size())

	rl.Cleanup(time.Hour)
	assert.Equal(t, 2, rl.Size())

	rl.Cleanup(-time.Second)
	assert.Equal(t, 0, rl.Size())
}

func TestDefaultPoliciesFallsBackOnInvalidRate(t *testing.T) {
	policies := DefaultPolicies(0)
	assert.Equal(t, 30, policies[ActionSendMessage].Burst)
	assert.Equal(t, 2*time.Second, policies[ActionSendMessage].Every)
}
