package usecase

import (
	"context"
	"time"
)

// TokenVerifier resolves a Firebase ID token to the caller's uid.
type TokenVerifier interface {
	VerifyToken(ctx context.Context, token string) (string, error)
}

// RateLimiter is satisfied by ratelimit.RateLimiter.
type RateLimiter interface {
	Allow(key, action string) (bool, time.Duration)
}

type allowAll struct{}

func (allowAll) Allow(string, string) (bool, time.Duration) { return true, 0 }
