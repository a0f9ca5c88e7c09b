// Package store implements the domain record collections (repairs,
// deliveries, support messages, carts, wishlists, products) over the kv
// document port. Each collection is one JSON document; every mutation is a
// read-modify-write of the whole document, serialized per key so invariant
// checks and the following write are one critical section.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/averybrooks/fonezone/internal/kv"
)

type Store struct {
	db kv.Store

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewStore(db kv.Store) *Store {
	return &Store{db: db, locks: make(map[string]*sync.Mutex)}
}

// lock serializes writers of one collection key. Readers go lock-free: the
// kv port returns complete documents, so a read observes either the previous
// or the next version, never a partial write.
func (s *Store) lock(key string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.locks[key]
	if !ok {
		m = &sync.Mutex{}
		s.locks[key] = m
	}
	return m
}

// readList decodes the collection document under key. A document that fails
// to decode is discarded and treated as empty rather than propagated, so a
// single corrupt write cannot take a whole view down.
func readList[T any](ctx context.Context, db kv.Store, key string) ([]T, error) {
	doc, ok, err := db.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", key, err)
	}
	if !ok {
		return nil, nil
	}
	var list []T
	if err := json.Unmarshal(doc, &list); err != nil {
		slog.Warn("Discarding corrupt collection document", "key", key, "error", err)
		_ = db.Delete(ctx, key)
		return nil, nil
	}
	return list, nil
}

func sortNewestFirst[T any](list []T, at func(T) time.Time) {
	sort.SliceStable(list, func(i, j int) bool { return at(list[i]).After(at(list[j])) })
}

// writeList persists the whole collection in one atomic Put.
func writeList[T any](ctx context.Context, db kv.Store, key string, list []T) error {
	doc, err := json.Marshal(list)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := db.Put(ctx, key, doc); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}
