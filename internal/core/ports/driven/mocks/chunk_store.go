package mocks

import (
	"context"
	"sort"
	"sync"

	"github.com/custodia-labs/similarity-core/internal/core/domain"
	"github.com/custodia-labs/similarity-core/internal/core/ports/driven"
)

var _ driven.ChunkStore = (*MockChunkStore)(nil)

// MockChunkStore is an in-memory ChunkStore for testing
type MockChunkStore struct {
	mu         sync.RWMutex
	byMaterial map[string][]*domain.Chunk

	ReplaceErr error
}

// NewMockChunkStore creates a new MockChunkStore
func NewMockChunkStore() *MockChunkStore {
	return &MockChunkStore{
		byMaterial: make(map[string][]*domain.Chunk),
	}
}

func (m *MockChunkStore) ReplaceForMaterial(ctx context.Context, materialID string, chunks []*domain.Chunk) error {
	if m.ReplaceErr != nil {
		return m.ReplaceErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byMaterial[materialID] = append([]*domain.Chunk(nil), chunks...)
	return nil
}

func (m *MockChunkStore) GetByMaterial(ctx context.Context, materialID string) ([]*domain.Chunk, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	chunks := append([]*domain.Chunk(nil), m.byMaterial[materialID]...)
	sort.Slice(chunks, func(i, j int) bool { return chunks[i].Index < chunks[j].Index })
	return chunks, nil
}

func (m *MockChunkStore) DeleteByMaterials(ctx context.Context, materialIDs []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range materialIDs {
		delete(m.byMaterial, id)
	}
	return nil
}

func (m *MockChunkStore) List(ctx context.Context, afterID string, limit int) ([]*domain.Chunk, error) {
	m.mu.RLock()
	var all []*domain.Chunk
	for _, chunks := range m.byMaterial {
		all = append(all, chunks...)
	}
	m.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	var out []*domain.Chunk
	for _, c := range all {
		if c.ID > afterID {
			out = append(out, c)
			if len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

// Count returns the number of stored chunks (for test assertions)
func (m *MockChunkStore) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, chunks := range m.byMaterial {
		n += len(chunks)
	}
	return n
}
