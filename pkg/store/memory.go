package store

import (
	"context"
	"sort"
	"strings"

	cmap "github.com/orcaman/concurrent-map/v2"
)

// MemoryStore is an in-process Gateway backed by sharded concurrent maps.
// Its contents are lost on restart.
type MemoryStore struct {
	docs    cmap.ConcurrentMap[string, []byte]
	history cmap.ConcurrentMap[string, [][]byte]
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		docs:    cmap.New[[]byte](),
		history: cmap.New[[][]byte](),
	}
}

// Read returns a copy of the document at key.
func (m *MemoryStore) Read(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	doc, ok := m.docs.Get(key)
	if !ok {
		return nil, ErrNotFound
	}
	return clone(doc), nil
}

// Write stores a copy of doc at key.
func (m *MemoryStore) Write(ctx context.Context, key string, doc []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.docs.Set(key, clone(doc))
	return nil
}

// AppendHistory appends a copy of record to key's history.
func (m *MemoryStore) AppendHistory(ctx context.Context, key string, record []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.history.Upsert(key, [][]byte{clone(record)}, func(exist bool, current, added [][]byte) [][]byte {
		if !exist {
			return added
		}
		next := make([][]byte, 0, len(current)+len(added))
		next = append(next, current...)
		return append(next, added...)
	})
	return nil
}

// ReadHistory returns up to limit records, newest first.
func (m *MemoryStore) ReadHistory(ctx context.Context, key string, limit int) ([][]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	records, ok := m.history.Get(key)
	if !ok || limit <= 0 {
		return [][]byte{}, nil
	}
	if limit > len(records) {
		limit = len(records)
	}
	out := make([][]byte, 0, limit)
	for i := len(records) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, clone(records[i]))
	}
	return out, nil
}

// List returns documents under prefix ordered by key.
func (m *MemoryStore) List(ctx context.Context, prefix string) ([][]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	keys := make([]string, 0)
	for _, key := range m.docs.Keys() {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)

	out := make([][]byte, 0, len(keys))
	for _, key := range keys {
		if doc, ok := m.docs.Get(key); ok {
			out = append(out, clone(doc))
		}
	}
	return out, nil
}

// Ping always succeeds for the in-memory store.
func (m *MemoryStore) Ping(ctx context.Context) error {
	return ctx.Err()
}

// Close is a no-op.
func (m *MemoryStore) Close(ctx context.Context) error {
	return nil
}

func clone(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
