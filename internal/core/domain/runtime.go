package domain

import "sync"

// RuntimeConfig records which backends were selected at startup and whether
// the embedder is currently reachable. Safe for concurrent use.
type RuntimeConfig struct {
	mu sync.RWMutex

	// Static (set at startup, read-only)
	QueueBackend string // "redis" or "postgres"
	LockBackend  string // "redis" or "postgres"
	IndexBackend string // "memory" or "pgvector"

	embeddingAvailable bool
	space              EmbeddingSpace
}

// NewRuntimeConfig creates a RuntimeConfig with the embedder marked unavailable
func NewRuntimeConfig(queueBackend, lockBackend, indexBackend string) *RuntimeConfig {
	return &RuntimeConfig{
		QueueBackend: queueBackend,
		LockBackend:  lockBackend,
		IndexBackend: indexBackend,
	}
}

// EmbeddingAvailable returns whether the last embedder health check passed
func (c *RuntimeConfig) EmbeddingAvailable() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.embeddingAvailable
}

// SetEmbeddingAvailable updates the embedding availability flag
func (c *RuntimeConfig) SetEmbeddingAvailable(available bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.embeddingAvailable = available
}

// EmbeddingSpace returns the active model and dimension
func (c *RuntimeConfig) EmbeddingSpace() EmbeddingSpace {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.space
}

// SetEmbeddingSpace records the active model and dimension
func (c *RuntimeConfig) SetEmbeddingSpace(space EmbeddingSpace) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.space = space
}

// CanCheck returns true if plagiarism checks can currently run
func (c *RuntimeConfig) CanCheck() bool {
	return c.EmbeddingAvailable()
}
