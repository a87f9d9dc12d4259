package store

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
	"github.com/serroba/swiftlink/internal/links"
)

// RedisStore is a Redis implementation of links.Storage.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore creates a new Redis-backed blob store.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{
		client: client,
		prefix: "swiftlink:",
	}
}

func (r *RedisStore) Read(ctx context.Context, key string) ([]byte, error) {
	data, err := r.client.Get(ctx, r.prefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, links.ErrNotFound
		}

		return nil, err
	}

	return data, nil
}

func (r *RedisStore) Write(ctx context.Context, key string, data []byte) error {
	return r.client.Set(ctx, r.prefix+key, data, 0).Err()
}

// Compile-time check.
var _ links.Storage = (*RedisStore)(nil)
