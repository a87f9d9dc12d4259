package links_test

import (
	"context"
	"errors"
	"sync"

	"github.com/serroba/swiftlink/internal/links"
)

var errMock = errors.New("mock error")

// mockStorage is an in-memory links.Storage that can be configured to fail.
type mockStorage struct {
	mu       sync.Mutex
	blobs    map[string][]byte
	readErr  error
	writeErr error
	writes   int
}

func newMockStorage() *mockStorage {
	return &mockStorage{blobs: make(map[string][]byte)}
}

func (m *mockStorage) Read(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.readErr != nil {
		return nil, m.readErr
	}

	data, ok := m.blobs[key]
	if !ok {
		return nil, links.ErrNotFound
	}

	return data, nil
}

func (m *mockStorage) Write(_ context.Context, key string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.writeErr != nil {
		return m.writeErr
	}

	m.writes++
	m.blobs[key] = data

	return nil
}

func (m *mockStorage) seed(c links.Collection) {
	data, err := links.Encode(c)
	if err != nil {
		panic(err)
	}

	m.blobs[links.StorageKey] = data
}

func (m *mockStorage) persisted() links.Collection {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, err := links.Decode(m.blobs[links.StorageKey])
	if err != nil {
		panic(err)
	}

	return c
}
