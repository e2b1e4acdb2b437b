package mocks

import (
	"context"
	"sort"
	"sync"

	"github.com/custodia-labs/similarity-core/internal/core/domain"
	"github.com/custodia-labs/similarity-core/internal/core/ports/driven"
)

var _ driven.CorpusIndex = (*MockCorpusIndex)(nil)

// MockCorpusIndex is a brute-force CorpusIndex with an optional query hook
type MockCorpusIndex struct {
	mu     sync.RWMutex
	chunks map[string]*domain.Chunk

	QueryFn func(ctx context.Context, q driven.CorpusQuery) ([]driven.CorpusHit, error)
}

// NewMockCorpusIndex creates a new MockCorpusIndex
func NewMockCorpusIndex() *MockCorpusIndex {
	return &MockCorpusIndex{
		chunks: make(map[string]*domain.Chunk),
	}
}

func (m *MockCorpusIndex) Upsert(ctx context.Context, chunks []*domain.Chunk) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range chunks {
		m.chunks[c.ID] = c
	}
	return nil
}

func (m *MockCorpusIndex) Query(ctx context.Context, q driven.CorpusQuery) ([]driven.CorpusHit, error) {
	if m.QueryFn != nil {
		return m.QueryFn(ctx, q)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	var hits []driven.CorpusHit
	for _, c := range m.chunks {
		if c.Space() != q.Space || c.Scope() == q.ExcludeScope || domain.IsZeroVector(c.Embedding) || domain.IsZeroVector(q.Vector) {
			continue
		}
		if q.CourseID != "" && c.OwnerType != domain.OwnerExternalReference && c.CourseID != q.CourseID {
			continue
		}
		sim, err := domain.Cosine(q.Vector, c.Embedding)
		if err != nil || sim < 0 {
			continue
		}
		hits = append(hits, driven.CorpusHit{Chunk: c, Similarity: sim})
	}
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Similarity != hits[j].Similarity {
			return hits[i].Similarity > hits[j].Similarity
		}
		if !hits[i].Chunk.CreatedAt.Equal(hits[j].Chunk.CreatedAt) {
			return hits[i].Chunk.CreatedAt.Before(hits[j].Chunk.CreatedAt)
		}
		return hits[i].Chunk.ID < hits[j].Chunk.ID
	})
	if len(hits) > q.TopK {
		hits = hits[:q.TopK]
	}
	return hits, nil
}

func (m *MockCorpusIndex) DeleteByMaterials(ctx context.Context, materialIDs []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	drop := make(map[string]bool, len(materialIDs))
	for _, id := range materialIDs {
		drop[id] = true
	}
	for id, c := range m.chunks {
		if drop[c.MaterialID] {
			delete(m.chunks, id)
		}
	}
	return nil
}

func (m *MockCorpusIndex) Count(ctx context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.chunks), nil
}
