package kv

import (
	"context"
	"strings"
	"sync"
)

// Memory is the in-process Store used by tests and by the default dev setup.
type Memory struct {
	mu   sync.RWMutex
	docs map[string][]byte
}

func NewMemory() *Memory {
	return &Memory{docs: make(map[string][]byte)}
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	doc, ok := m.docs[key]
	if !ok {
		return nil, false, nil
	}
	// Copy so callers can't mutate the stored document in place.
	out := make([]byte, len(doc))
	copy(out, doc)
	return out, true, nil
}

func (m *Memory) Put(_ context.Context, key string, doc []byte) error {
	cp := make([]byte, len(doc))
	copy(cp, doc)
	m.mu.Lock()
	m.docs[key] = cp
	m.mu.Unlock()
	return nil
}

func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.docs, key)
	m.mu.Unlock()
	return nil
}

func (m *Memory) Keys(_ context.Context, prefix string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var keys []string
	for k := range m.docs {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	return keys, nil
}

func (m *Memory) Close() error { return nil }
