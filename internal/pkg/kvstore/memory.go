package kvstore

import (
	"context"
	"sync"
)

type MemoryStore struct {
	mu   sync.RWMutex
	data map[string][]byte
	subs subscribers
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		data: make(map[string][]byte),
		subs: newSubscribers(),
	}
}

func (m *MemoryStore) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), v...), nil
}

func (m *MemoryStore) Set(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	m.data[key] = append([]byte(nil), value...)
	fns := m.subs.snapshot(key)
	m.mu.Unlock()

	for _, fn := range fns {
		fn(append([]byte(nil), value...))
	}
	return nil
}

func (m *MemoryStore) Subscribe(key string, fn func([]byte)) func() {
	m.mu.Lock()
	id := m.subs.add(key, fn)
	m.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			m.mu.Lock()
			m.subs.remove(key, id)
			m.mu.Unlock()
		})
	}
}
