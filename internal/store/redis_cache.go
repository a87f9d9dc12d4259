package store

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/serroba/swiftlink/internal/links"
)

// RedisCacheStore wraps a links.Storage with a Redis read cache.
type RedisCacheStore struct {
	store  links.Storage
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisCacheStore creates a new Redis-cached storage decorator.
func NewRedisCacheStore(store links.Storage, client *redis.Client, ttl time.Duration) *RedisCacheStore {
	return &RedisCacheStore{
		store:  store,
		client: client,
		prefix: "swiftlink:cache:",
		ttl:    ttl,
	}
}

// Read returns the cached blob, falling back to the underlying store on a miss.
func (r *RedisCacheStore) Read(ctx context.Context, key string) ([]byte, error) {
	if data, err := r.client.Get(ctx, r.prefix+key).Bytes(); err == nil {
		return data, nil
	}

	data, err := r.store.Read(ctx, key)
	if err != nil {
		return nil, err
	}

	r.cache(ctx, key, data)

	return data, nil
}

// Write stores the blob in the underlying store and then refreshes the cache.
func (r *RedisCacheStore) Write(ctx context.Context, key string, data []byte) error {
	if err := r.store.Write(ctx, key, data); err != nil {
		// Drop the cached copy so readers do not see a blob the store rejected.
		_ = r.client.Del(ctx, r.prefix+key).Err()

		return err
	}

	r.cache(ctx, key, data)

	return nil
}

func (r *RedisCacheStore) cache(ctx context.Context, key string, data []byte) {
	_ = r.client.Set(ctx, r.prefix+key, data, r.ttl).Err()
}

// Ping checks the wrapped store, never the cache, so a warm cache cannot
// hide a backend outage.
func (r *RedisCacheStore) Ping(ctx context.Context) error {
	if p, ok := r.store.(interface{ Ping(ctx context.Context) error }); ok {
		return p.Ping(ctx)
	}

	_, err := r.store.Read(ctx, links.StorageKey)
	if errors.Is(err, links.ErrNotFound) {
		return nil
	}

	return err
}

// Shutdown shuts down the wrapped store when it supports it. The Redis
// client is managed externally.
func (r *RedisCacheStore) Shutdown() error {
	if s, ok := r.store.(interface{ Shutdown() error }); ok {
		return s.Shutdown()
	}

	return nil
}

// Compile-time check.
var _ links.Storage = (*RedisCacheStore)(nil)
