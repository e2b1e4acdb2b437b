// Package memory provides an in-process corpus index. It is rebuilt from the
// chunk store at startup and suits single-instance deployments and tests.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/custodia-labs/similarity-core/internal/core/domain"
	"github.com/custodia-labs/similarity-core/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.CorpusIndex = (*Index)(nil)

// warmPageSize is how many chunks Warm loads per page
const warmPageSize = 500

// Index is a brute-force cosine index guarded by a RWMutex.
// Queries snapshot the candidate set and score outside the lock.
type Index struct {
	mu         sync.RWMutex
	chunks     map[string]*domain.Chunk
	byMaterial map[string]map[string]struct{}
}

// NewIndex creates an empty index
func NewIndex() *Index {
	return &Index{
		chunks:     make(map[string]*domain.Chunk),
		byMaterial: make(map[string]map[string]struct{}),
	}
}

// Warm loads every embedded chunk from the store
func (i *Index) Warm(ctx context.Context, store driven.ChunkStore) (int, error) {
	loaded := 0
	after := ""
	for {
		page, err := store.List(ctx, after, warmPageSize)
		if err != nil {
			return loaded, fmt.Errorf("list chunks after %q: %w", after, err)
		}
		if len(page) == 0 {
			return loaded, nil
		}

		var embedded []*domain.Chunk
		for _, c := range page {
			if len(c.Embedding) > 0 && len(c.Embedding) == c.Dimension {
				embedded = append(embedded, c)
			}
		}
		if err := i.Upsert(ctx, embedded); err != nil {
			return loaded, err
		}
		loaded += len(embedded)
		after = page[len(page)-1].ID

		if len(page) < warmPageSize {
			return loaded, nil
		}
	}
}

// Upsert adds or replaces chunks keyed by chunk id
func (i *Index) Upsert(ctx context.Context, chunks []*domain.Chunk) error {
	for _, c := range chunks {
		if len(c.Embedding) == 0 || len(c.Embedding) != c.Dimension {
			return fmt.Errorf("chunk %s has %d values for dimension %d: %w",
				c.ID, len(c.Embedding), c.Dimension, domain.ErrModelMismatch)
		}
	}

	i.mu.Lock()
	defer i.mu.Unlock()

	for _, c := range chunks {
		cp := *c
		cp.Embedding = append([]float32(nil), c.Embedding...)

		if old, ok := i.chunks[c.ID]; ok && old.MaterialID != c.MaterialID {
			i.unlinkLocked(old)
		}
		i.chunks[c.ID] = &cp

		ids, ok := i.byMaterial[c.MaterialID]
		if !ok {
			ids = make(map[string]struct{})
			i.byMaterial[c.MaterialID] = ids
		}
		ids[c.ID] = struct{}{}
	}
	return nil
}

func (i *Index) unlinkLocked(c *domain.Chunk) {
	if ids, ok := i.byMaterial[c.MaterialID]; ok {
		delete(ids, c.ID)
		if len(ids) == 0 {
			delete(i.byMaterial, c.MaterialID)
		}
	}
}

// Query returns up to TopK chunks of the query's space ordered by descending
// cosine, then earliest created, then id. Zero vectors on either side never
// match, as with pgvector where their cosine distance is NaN.
func (i *Index) Query(ctx context.Context, q driven.CorpusQuery) ([]driven.CorpusHit, error) {
	if q.TopK <= 0 {
		return nil, nil
	}
	if len(q.Vector) != q.Space.Dimension {
		return nil, fmt.Errorf("query vector has %d values for %s: %w", len(q.Vector), q.Space, domain.ErrModelMismatch)
	}
	if domain.IsZeroVector(q.Vector) {
		return nil, nil
	}

	candidates := i.candidates(q)

	hits := make([]driven.CorpusHit, 0, len(candidates))
	for n, c := range candidates {
		if n%256 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		sim, err := domain.Cosine(q.Vector, c.Embedding)
		if err != nil || sim < 0 {
			continue
		}
		hits = append(hits, driven.CorpusHit{Chunk: c, Similarity: sim})
	}

	sort.Slice(hits, func(a, b int) bool {
		ha, hb := hits[a], hits[b]
		if ha.Similarity != hb.Similarity {
			return ha.Similarity > hb.Similarity
		}
		if !ha.Chunk.CreatedAt.Equal(hb.Chunk.CreatedAt) {
			return ha.Chunk.CreatedAt.Before(hb.Chunk.CreatedAt)
		}
		return ha.Chunk.ID < hb.Chunk.ID
	})

	if len(hits) > q.TopK {
		hits = hits[:q.TopK]
	}

	// Callers get their own copies
	for n := range hits {
		cp := *hits[n].Chunk
		hits[n].Chunk = &cp
	}
	return hits, nil
}

// candidates filters under the read lock. Stored chunks are never mutated
// in place, so the returned pointers stay valid after unlocking.
func (i *Index) candidates(q driven.CorpusQuery) []*domain.Chunk {
	i.mu.RLock()
	defer i.mu.RUnlock()

	out := make([]*domain.Chunk, 0, len(i.chunks))
	for _, c := range i.chunks {
		if c.Model != q.Space.Model || c.Dimension != q.Space.Dimension {
			continue
		}
		if q.ExcludeScope != "" && c.Scope() == q.ExcludeScope {
			continue
		}
		if domain.IsZeroVector(c.Embedding) {
			continue
		}
		if q.CourseID != "" && c.OwnerType != domain.OwnerExternalReference && c.CourseID != q.CourseID {
			continue
		}
		out = append(out, c)
	}
	return out
}

// DeleteByMaterials removes every chunk of the given materials
func (i *Index) DeleteByMaterials(ctx context.Context, materialIDs []string) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	for _, id := range materialIDs {
		for chunkID := range i.byMaterial[id] {
			delete(i.chunks, chunkID)
		}
		delete(i.byMaterial, id)
	}
	return nil
}

// Count returns the number of indexed chunks
func (i *Index) Count(ctx context.Context) (int, error) {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return len(i.chunks), nil
}
