package mocks

import (
	"context"
	"fmt"
	"hash/fnv"
	"strings"
	"sync"

	"github.com/custodia-labs/similarity-core/internal/core/domain"
	"github.com/custodia-labs/similarity-core/internal/core/ports/driven"
)

var _ driven.EmbeddingService = (*MockEmbeddingService)(nil)

// MockEmbeddingService is a deterministic bag-of-words embedder for testing.
// Texts sharing words get positive cosine similarity; identical texts get 1.
type MockEmbeddingService struct {
	mu         sync.Mutex
	dimensions int
	model      string
	failures   int
	calls      int
	batchSize  int
}

// NewMockEmbeddingService creates a new MockEmbeddingService
func NewMockEmbeddingService() *MockEmbeddingService {
	return &MockEmbeddingService{
		dimensions: 64,
		model:      "mock-embedding-model",
		batchSize:  16,
	}
}

func (m *MockEmbeddingService) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	m.mu.Lock()
	m.calls++
	if m.failures > 0 {
		m.failures--
		m.mu.Unlock()
		return nil, fmt.Errorf("mock embedder: %w", domain.ErrEmbeddingUnavailable)
	}
	m.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result := make([][]float32, len(texts))
	for i, text := range texts {
		result[i] = m.generateEmbedding(text)
	}
	return result, nil
}

func (m *MockEmbeddingService) Dimensions() int     { return m.dimensions }
func (m *MockEmbeddingService) Model() string       { return m.model }
func (m *MockEmbeddingService) Deterministic() bool { return true }
func (m *MockEmbeddingService) MaxBatchSize() int   { return m.batchSize }

func (m *MockEmbeddingService) HealthCheck(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failures > 0 {
		return domain.ErrEmbeddingUnavailable
	}
	return nil
}

func (m *MockEmbeddingService) Close() error {
	return nil
}

func (m *MockEmbeddingService) generateEmbedding(text string) []float32 {
	embedding := make([]float32, m.dimensions)
	for _, word := range strings.Fields(strings.ToLower(text)) {
		h := fnv.New32a()
		h.Write([]byte(word))
		embedding[h.Sum32()%uint32(m.dimensions)] += 1
	}
	return domain.Normalize(embedding)
}

// Helper methods for testing

// FailNext makes the next n Embed calls fail with ErrEmbeddingUnavailable
func (m *MockEmbeddingService) FailNext(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures = n
}

// Calls returns how many times Embed was invoked
func (m *MockEmbeddingService) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func (m *MockEmbeddingService) SetModel(model string) {
	m.model = model
}

func (m *MockEmbeddingService) SetDimensions(dim int) {
	m.dimensions = dim
}

func (m *MockEmbeddingService) SetBatchSize(n int) {
	m.batchSize = n
}
