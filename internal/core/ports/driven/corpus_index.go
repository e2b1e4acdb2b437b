package driven

import (
	"context"

	"github.com/custodia-labs/similarity-core/internal/core/domain"
)

// CorpusQuery describes one nearest-neighbour lookup
type CorpusQuery struct {
	Vector []float32

	// Space restricts candidates to vectors from the same model and dimension
	Space domain.EmbeddingSpace

	// ExcludeScope drops every chunk whose Scope() equals it
	ExcludeScope string

	// CourseID, when set, restricts internal candidates to that course.
	// External references are always eligible.
	CourseID string

	TopK int
}

// CorpusHit is one ranked query result
type CorpusHit struct {
	Chunk      *domain.Chunk
	Similarity float64 // Cosine, always >= 0
}

// CorpusIndex is the shared, append-mostly collection of embedded chunks.
// Results are ordered by descending similarity, then earliest created chunk,
// then chunk id. Hits with negative similarity are never returned.
type CorpusIndex interface {
	// Upsert adds or replaces chunks keyed by chunk id
	Upsert(ctx context.Context, chunks []*domain.Chunk) error

	// Query returns up to TopK nearest chunks
	Query(ctx context.Context, q CorpusQuery) ([]CorpusHit, error)

	// DeleteByMaterials removes every chunk of the given materials
	DeleteByMaterials(ctx context.Context, materialIDs []string) error

	// Count returns the number of indexed chunks
	Count(ctx context.Context) (int, error)
}
