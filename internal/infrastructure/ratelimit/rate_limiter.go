package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	ActionSendMessage = "send_message"
	ActionCreateChat  = "create_chat"
	ActionTyping      = "typing"
	ActionBeacon      = "presence_beacon"
)

// Policy is a token bucket: Burst tokens refilled at one per Every.
type Policy struct {
	Burst int
	Every time.Duration
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter keeps one token bucket per key and action.
type RateLimiter struct {
	limiters map[string]*limiterEntry
	policies map[string]Policy
	fallback Policy
	mutex    sync.Mutex
}

func NewRateLimiter(policies map[string]Policy) *RateLimiter {
	copied := make(map[string]Policy, len(policies))
	for action, policy := range policies {
		copied[action] = policy
	}
	return &RateLimiter{
		limiters: make(map[string]*limiterEntry),
		policies: copied,
		// 20 actions per minute
		fallback: Policy{Burst: 20, Every: 3 * time.Second},
	}
}

// DefaultPolicies derives the chat limits from the configured messages per minute.
func DefaultPolicies(messagesPerMinute int) map[string]Policy {
	if messagesPerMinute <= 0 {
		messagesPerMinute = 30
	}
	return map[string]Policy{
		ActionSendMessage: {Burst: messagesPerMinute, Every: time.Minute / time.Duration(messagesPerMinute)},
		ActionCreateChat:  {Burst: 20, Every: 3 * time.Minute},
		ActionTyping:      {Burst: 30, Every: 2 * time.Second},
		ActionBeacon:      {Burst: 10, Every: 6 * time.Second},
	}
}

// Allow consumes a token for key/action. When none is available it reports how
// long the caller has to wait.
func (rl *RateLimiter) Allow(key, action string) (bool, time.Duration) {
	limiter := rl.limiter(key, action)

	reservation := limiter.Reserve()
	if !reservation.OK() {
		return false, 0
	}
	if delay := reservation.Delay(); delay > 0 {
		reservation.Cancel()
		return false, delay
	}
	return true, 0
}

func (rl *RateLimiter) limiter(key, action string) *rate.Limiter {
	rl.mutex.Lock()
	defer rl.mutex.Unlock()

	id := key + ":" + action
	entry, ok := rl.limiters[id]
	if !ok {
		policy, found := rl.policies[action]
		if !found {
			policy = rl.fallback
		}
		entry = &limiterEntry{limiter: rate.NewLimiter(rate.Every(policy.Every), policy.Burst)}
		rl.limiters[id] = entry
	}
	entry.lastSeen = time.Now()
	return entry.limiter
}

// Cleanup drops buckets idle for longer than ttl.
func (rl *RateLimiter) Cleanup(ttl time.Duration) {
	rl.mutex.Lock()
	defer rl.mutex.Unlock()

	now := time.Now()
	for id, entry := range rl.limiters {
		if now.Sub(entry.lastSeen) > ttl {
			delete(rl.limiters, id)
		}
	}
}

func (rl *RateLimiter) Size() int {
	rl.mutex.Lock()
	defer rl.mutex.Unlock()
	return len(rl.limiters)
}

// StartCleanupRoutine runs Cleanup every interval until ctx is done.
func (rl *RateLimiter) StartCleanupRoutine(ctx context.Context, interval, ttl time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				rl.Cleanup(ttl)
			}
		}
	}()
}
