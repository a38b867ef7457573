package db

import (
	"context"
	"sync"
)

type memStore struct {
	mu   sync.RWMutex
	byID map[string][]byte
}

func newMemStore() *memStore {
	return &memStore{byID: make(map[string][]byte)}
}

// NewMem returns an empty in-memory Store.
func NewMem() Store { return newMemStore() }

func (m *memStore) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.byID[key]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), v...), nil
}

func (m *memStore) Put(ctx context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byID[key] = append([]byte(nil), value...)
	return nil
}

func (m *memStore) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.byID, key)
	return nil
}

func (m *memStore) Close() error { return nil }
