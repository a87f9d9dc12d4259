package store_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/serroba/swiftlink/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.now = c.now.Add(d)
}

func TestRateLimitMemoryStore(t *testing.T) {
	t.Run("records and counts requests", func(t *testing.T) {
		s := store.NewRateLimitMemoryStore()

		for want := int64(1); want <= 3; want++ {
			count, err := s.Record(context.Background(), "key1", time.Minute)

			require.NoError(t, err)
			assert.Equal(t, want, count)
		}
	})

	t.Run("tracks keys independently", func(t *testing.T) {
		s := store.NewRateLimitMemoryStore()

		_, _ = s.Record(context.Background(), "key1", time.Minute)
		_, _ = s.Record(context.Background(), "key1", time.Minute)

		count, err := s.Record(context.Background(), "key2", time.Minute)

		require.NoError(t, err)
		assert.Equal(t, int64(1), count, "key2 should have its own counter")
	})

	t.Run("prunes expired entries", func(t *testing.T) {
		clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
		s := store.NewRateLimitMemoryStore().WithClock(clock.Now)

		_, _ = s.Record(context.Background(), "key1", time.Minute)
		_, _ = s.Record(context.Background(), "key1", time.Minute)

		clock.Advance(61 * time.Second)

		count, err := s.Record(context.Background(), "key1", time.Minute)

		require.NoError(t, err)
		assert.Equal(t, int64(1), count, "expired entries should be pruned")
	})

	t.Run("sweep drops idle keys", func(t *testing.T) {
		clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
		s := store.NewRateLimitMemoryStore().WithClock(clock.Now)

		_, _ = s.Record(context.Background(), "idle", time.Minute)

		clock.Advance(2 * time.Minute)

		_, _ = s.Record(context.Background(), "active", time.Minute)

		s.Sweep(time.Minute)

		assert.Equal(t, 1, s.Keys())
	})

	t.Run("sweeper drops idle keys in the background", func(t *testing.T) {
		clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
		s := store.NewRateLimitMemoryStore().WithClock(clock.Now)

		_, _ = s.Record(context.Background(), "idle", time.Minute)
		require.Equal(t, 1, s.Keys())

		s.StartSweeper(5*time.Millisecond, time.Minute)
		defer func() { _ = s.Shutdown() }()

		clock.Advance(2 * time.Minute)

		assert.Eventually(t, func() bool { return s.Keys() == 0 }, time.Second, 5*time.Millisecond)
	})

	t.Run("shutdown stops the sweeper and is idempotent", func(t *testing.T) {
		s := store.NewRateLimitMemoryStore()
		s.StartSweeper(time.Millisecond, time.Minute)

		require.NoError(t, s.Shutdown())
		assert.NoError(t, s.Shutdown())
	})

	t.Run("shutdown without sweeper is a no-op", func(t *testing.T) {
		assert.NoError(t, store.NewRateLimitMemoryStore().Shutdown())
	})
}
