package store

import (
	"context"
	"sync"
	"time"

	"github.com/samber/lo"
	"github.com/serroba/swiftlink/internal/ratelimit"
)

// RateLimitMemoryStore keeps request timestamps per key in process memory.
// Limits only hold for a single instance; use RateLimitRedisStore when
// several servers share traffic.
type RateLimitMemoryStore struct {
	mu      sync.Mutex
	windows map[string][]time.Time
	now     func() time.Time

	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

// NewRateLimitMemoryStore creates a new in-memory rate limit store.
func NewRateLimitMemoryStore() *RateLimitMemoryStore {
	return &RateLimitMemoryStore{
		windows: make(map[string][]time.Time),
		now:     time.Now,
	}
}

// WithClock overrides the time source.
func (s *RateLimitMemoryStore) WithClock(now func() time.Time) *RateLimitMemoryStore {
	s.now = now

	return s
}

func (s *RateLimitMemoryStore) Record(_ context.Context, key string, window time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	cutoff := now.Add(-window)

	live := lo.Filter(s.windows[key], func(ts time.Time, _ int) bool {
		return ts.After(cutoff)
	})
	live = append(live, now)
	s.windows[key] = live

	return int64(len(live)), nil
}

// Keys reports how many keys are currently tracked.
func (s *RateLimitMemoryStore) Keys() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.windows)
}

// Sweep drops keys whose newest request is older than window.
func (s *RateLimitMemoryStore) Sweep(window time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.now().Add(-window)

	for key, ts := range s.windows {
		if len(ts) == 0 || !ts[len(ts)-1].After(cutoff) {
			delete(s.windows, key)
		}
	}
}

// StartSweeper drops idle keys every interval until Shutdown. window must
// be at least the longest limit window recorded in the store.
func (s *RateLimitMemoryStore) StartSweeper(interval, window time.Duration) {
	s.stop = make(chan struct{})
	s.done = make(chan struct{})

	go func() {
		defer close(s.done)

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-s.stop:
				return
			case <-ticker.C:
				s.Sweep(window)
			}
		}
	}()
}

// Shutdown stops the sweeper, if one was started.
func (s *RateLimitMemoryStore) Shutdown() error {
	if s.stop == nil {
		return nil
	}

	s.stopOnce.Do(func() { close(s.stop) })
	<-s.done

	return nil
}

var _ ratelimit.Store = (*RateLimitMemoryStore)(nil)
