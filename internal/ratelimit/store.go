package ratelimit

import (
	"context"
	"time"
)

// Store keeps sliding-window request counters.
type Store interface {
	// Record counts a request under key, forgets requests older than window
	// and returns how many remain.
	Record(ctx context.Context, key string, window time.Duration) (int64, error)
}
