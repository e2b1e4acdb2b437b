package postprocessors

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/custodia-labs/similarity-core/internal/core/domain"
	"github.com/custodia-labs/similarity-core/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.PostProcessorPipeline = (*Pipeline)(nil)

// Pipeline chains post-processors in Order(). It starts from a single chunk
// holding the whole text, so whole-text filters run before the chunker.
type Pipeline struct {
	mu         sync.RWMutex
	processors []driven.PostProcessor
}

// NewPipeline creates an empty pipeline.
func NewPipeline() *Pipeline {
	return &Pipeline{}
}

// Add adds a processor, keeping the list sorted by Order().
func (p *Pipeline) Add(processor driven.PostProcessor) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.processors = append(p.processors, processor)
	sort.SliceStable(p.processors, func(i, j int) bool {
		return p.processors[i].Order() < p.processors[j].Order()
	})
}

// Process runs every processor over content and renumbers the resulting
// chunks 0..n-1. Blank content fails with domain.ErrInvalidInput.
func (p *Pipeline) Process(content string) ([]driven.Chunk, error) {
	if strings.TrimSpace(content) == "" {
		return nil, fmt.Errorf("%w: no extractable text", domain.ErrInvalidInput)
	}

	p.mu.RLock()
	processors := append([]driven.PostProcessor(nil), p.processors...)
	p.mu.RUnlock()

	chunks := []driven.Chunk{{
		Content:   content,
		EndOffset: len([]rune(content)),
	}}
	for _, proc := range processors {
		chunks = proc.Process(chunks)
	}

	if len(chunks) == 0 {
		return nil, fmt.Errorf("%w: no extractable text", domain.ErrInvalidInput)
	}
	for i := range chunks {
		chunks[i].Position = i
	}
	return chunks, nil
}

// List returns processor names in order.
func (p *Pipeline) List() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()

	names := make([]string, len(p.processors))
	for i, proc := range p.processors {
		names[i] = proc.Name()
	}
	return names
}

// DefaultPipeline normalises whitespace and then chunks with cfg.
func DefaultPipeline(cfg ChunkConfig) (*Pipeline, error) {
	chunker, err := NewChunker(cfg)
	if err != nil {
		return nil, err
	}
	p := NewPipeline()
	p.Add(NewWhitespaceNormalizer())
	p.Add(chunker)
	return p, nil
}
