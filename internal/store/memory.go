package store

import (
	"context"
	"sync"

	"github.com/serroba/swiftlink/internal/links"
)

// MemoryStore is an in-memory implementation of links.Storage.
type MemoryStore struct {
	mu    sync.RWMutex
	blobs map[string][]byte
}

// NewMemoryStore creates a new in-memory blob store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		blobs: make(map[string][]byte),
	}
}

func (m *MemoryStore) Read(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	data, ok := m.blobs[key]
	if !ok {
		return nil, links.ErrNotFound
	}

	return append([]byte(nil), data...), nil
}

func (m *MemoryStore) Write(_ context.Context, key string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.blobs[key] = append([]byte(nil), data...)

	return nil
}

// Compile-time check.
var _ links.Storage = (*MemoryStore)(nil)
