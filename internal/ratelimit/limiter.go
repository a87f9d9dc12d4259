package ratelimit

import (
	"context"
	"fmt"
	"time"
)

// Limiter decides whether a client may make another request.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// Exceeded describes the limit a rejected request ran into.
type Exceeded struct {
	Scope Scope
	Limit LimitConfig
	Count int64
}

func (e *Exceeded) Error() string {
	if e.Scope == "" {
		return fmt.Sprintf("rate limit exceeded: %d/%d requests in %s", e.Count, e.Limit.Max, e.Limit.Window)
	}

	return fmt.Sprintf("rate limit exceeded: %s scope, %d/%d requests in %s",
		e.Scope, e.Count, e.Limit.Max, e.Limit.Window)
}

// RetryAfter is the longest a client may have to wait before the window
// frees up.
func (e *Exceeded) RetryAfter() time.Duration {
	return e.Limit.Window
}

// WindowLimiter allows at most one LimitConfig worth of requests per key.
type WindowLimiter struct {
	store Store
	limit LimitConfig
}

// NewWindowLimiter creates a limiter of maxRequests per window.
func NewWindowLimiter(store Store, maxRequests int64, window time.Duration) *WindowLimiter {
	return &WindowLimiter{
		store: store,
		limit: LimitConfig{Window: window, Max: maxRequests},
	}
}

func (l *WindowLimiter) Allow(ctx context.Context, key string) (bool, error) {
	count, err := l.store.Record(ctx, "burst:"+key, l.limit.Window)
	if err != nil {
		return false, err
	}

	return count <= l.limit.Max, nil
}
