package credstore

import (
	"context"
	"sync"
)

type memoryBackend struct {
	mu    sync.RWMutex
	items map[string]string
}

// NewMemory builds an in-memory backend. It serves as the session tier of
// every Store and as the default durable tier.
func NewMemory() Backend {
	return &memoryBackend{items: make(map[string]string)}
}

func (m *memoryBackend) Get(_ context.Context, key string) (string, error) {
	m.mu.RLock()
	v, ok := m.items[key]
	m.mu.RUnlock()
	if !ok {
		return "", ErrNotFound
	}
	return v, nil
}

func (m *memoryBackend) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	m.items[key] = value
	m.mu.Unlock()
	return nil
}

func (m *memoryBackend) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.items, key)
	m.mu.Unlock()
	return nil
}

func (m *memoryBackend) Close() error { return nil }
