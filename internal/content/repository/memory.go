package repository

import (
	"context"
	"sync"

	"github.com/lovenotes/anniversary/internal/content"
)

// MemoryRepo is an in-memory repository used for local development and
// unit tests. Contents are lost on restart.
type MemoryRepo struct {
	mu    sync.RWMutex
	store map[string]content.Document
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{store: make(map[string]content.Document)}
}

func memoryKey(collection, id string) string {
	return collection + "/" + id
}

func (m *MemoryRepo) Fetch(ctx context.Context, collection, id string) (content.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if d, ok := m.store[memoryKey(collection, id)]; ok {
		return d.Clone(), nil
	}
	return nil, ErrNotFound
}

func (m *MemoryRepo) MergeWrite(ctx context.Context, collection, id string, fields content.Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	key := memoryKey(collection, id)
	d, ok := m.store[key]
	if !ok {
		d = make(content.Document, len(fields))
		m.store[key] = d
	}
	d.Merge(fields)
	return nil
}
