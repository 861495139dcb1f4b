package session

import (
	"context"
	"sync"
)

// Durable storage keys.
const (
	KeyCredential = "token"
	KeyIdentity   = "user"
)

// Storage is the durable per-browser key-value store.
type Storage interface {
	Get(ctx context.Context, key string) (string, bool)
	Put(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
}

// Renewer is implemented by storages that can rotate their own identifier.
// Rotation happens on login to prevent session fixation.
type Renewer interface {
	Renew(ctx context.Context) error
}

// MemoryStorage is a Storage backed by a map. Used by tests and the CLI.
type MemoryStorage struct {
	mu     sync.RWMutex
	values map[string]string
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{values: make(map[string]string)}
}

func (m *MemoryStorage) Get(_ context.Context, key string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	return v, ok
}

func (m *MemoryStorage) Put(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

func (m *MemoryStorage) Remove(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
	return nil
}

// Len returns the number of stored keys.
func (m *MemoryStorage) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.values)
}
