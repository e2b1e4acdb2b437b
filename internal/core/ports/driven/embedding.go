package driven

import (
	"context"
	"time"
)

// EmbeddingService generates text embeddings
type EmbeddingService interface {
	// Embed generates one vector per text, in input order.
	// On transient unavailability it returns an error wrapping
	// domain.ErrEmbeddingUnavailable and never a partial or zero-filled result.
	Embed(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the embedding dimension size
	Dimensions() int

	// Model returns the model identifier stored alongside every vector
	Model() string

	// Deterministic reports whether the same text and model always yield the same vector.
	// Rechecks are only reproducible when this is true.
	Deterministic() bool

	// MaxBatchSize is the largest number of texts accepted by one Embed call
	MaxBatchSize() int

	// HealthCheck verifies the embedding service is available
	HealthCheck(ctx context.Context) error

	// Close releases resources held by the embedding service
	Close() error
}

// EmbeddingCache stores vectors keyed by model and content hash.
// Keys are model-scoped so entries never need invalidation on corpus writes.
type EmbeddingCache interface {
	// GetMany returns the cached vectors for the given content hashes; misses are absent
	GetMany(ctx context.Context, model string, hashes []string) (map[string][]float32, error)

	// PutMany stores vectors by content hash
	PutMany(ctx context.Context, model string, vectors map[string][]float32, ttl time.Duration) error
}
