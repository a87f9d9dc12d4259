package store

import (
	"context"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/serroba/swiftlink/internal/ratelimit"
)

// RateLimitRedisStore is a Redis implementation of ratelimit.Store using one
// sorted set per key, scored by request time, so limits hold across instances.
type RateLimitRedisStore struct {
	client *redis.Client
	prefix string
}

// NewRateLimitRedisStore creates a new Redis-backed rate limit store.
func NewRateLimitRedisStore(client *redis.Client) *RateLimitRedisStore {
	return &RateLimitRedisStore{
		client: client,
		prefix: "swiftlink:ratelimit:",
	}
}

func (s *RateLimitRedisStore) Record(ctx context.Context, key string, window time.Duration) (int64, error) {
	now := time.Now()
	// Same-nanosecond requests from different instances must stay distinct.
	member := strconv.FormatInt(now.UnixNano(), 10) + "-" + uuid.NewString()
	cutoff := strconv.FormatInt(now.Add(-window).UnixNano(), 10)
	redisKey := s.prefix + key

	pipe := s.client.TxPipeline()
	pipe.ZRemRangeByScore(ctx, redisKey, "-inf", "("+cutoff)
	pipe.ZAdd(ctx, redisKey, redis.Z{Score: float64(now.UnixNano()), Member: member})
	count := pipe.ZCard(ctx, redisKey)
	pipe.PExpire(ctx, redisKey, window)

	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}

	return count.Val(), nil
}

// Compile-time check.
var _ ratelimit.Store = (*RateLimitRedisStore)(nil)
