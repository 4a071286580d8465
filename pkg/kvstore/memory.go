package kvstore

import (
	"context"
	"sync"
)

// MemoryTier is a process-local tier. It is always available.
type MemoryTier struct {
	mu    sync.RWMutex
	items map[string][]byte
}

func NewMemoryTier() *MemoryTier {
	return &MemoryTier{items: map[string][]byte{}}
}

func (m *MemoryTier) Name() string { return "memory" }

func (m *MemoryTier) Available(context.Context) bool { return true }

func (m *MemoryTier) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.RLock()
	v, ok := m.items[key]
	m.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}
	return clone(v), true, nil
}

func (m *MemoryTier) Set(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	m.items[key] = clone(value)
	m.mu.Unlock()
	return nil
}

func clone(b []byte) []byte {
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
