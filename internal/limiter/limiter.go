// Package limiter defines interfaces and implementations for PIN-attempt rate limiting.
package limiter

import (
	"context"
	"time"
)

// Limiter controls login attempts and temporary lockouts per user.
type Limiter interface {
	// Allow reports whether login is currently allowed and optional retry-after.
	Allow(ctx context.Context, userID string) (bool, time.Duration, error)
	// Success resets counters after a successful login.
	Success(ctx context.Context, userID string) error
	// Failure records a failed attempt; may place a temporary block.
	Failure(ctx context.Context, userID string) (bool, time.Duration, error)
}
