package ai

import (
	"context"
	"encoding/binary"
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/crypto/blake2b"

	"github.com/custodia-labs/similarity-core/internal/core/domain"
	"github.com/custodia-labs/similarity-core/internal/core/ports/driven"
)

// Ensure HashingEmbedding implements EmbeddingService
var _ driven.EmbeddingService = (*HashingEmbedding)(nil)

const (
	hashingModelPrefix      = "hash-v1-"
	defaultHashingBatchSize = 256
)

// HashingEmbedding is a local feature-hashing embedder. Word unigrams and
// bigrams are hashed into a fixed number of buckets with a hash-derived sign,
// and the result is L2-normalised. It needs no network and is deterministic.
type HashingEmbedding struct {
	dimensions int
	batchSize  int
}

// NewHashingEmbedding creates a hashing embedder with the given dimension
func NewHashingEmbedding(dimensions, batchSize int) (*HashingEmbedding, error) {
	if dimensions < 8 {
		return nil, fmt.Errorf("%w: hash embedder needs at least 8 dimensions", domain.ErrInvalidInput)
	}
	if batchSize <= 0 {
		batchSize = defaultHashingBatchSize
	}
	return &HashingEmbedding{dimensions: dimensions, batchSize: batchSize}, nil
}

// Embed hashes every text. It only fails when ctx is done.
func (h *HashingEmbedding) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	out := make([][]float32, len(texts))
	for i, text := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out[i] = h.vector(text)
	}
	return out, nil
}

func (h *HashingEmbedding) Dimensions() int     { return h.dimensions }
func (h *HashingEmbedding) Model() string       { return fmt.Sprintf("%s%d", hashingModelPrefix, h.dimensions) }
func (h *HashingEmbedding) Deterministic() bool { return true }
func (h *HashingEmbedding) MaxBatchSize() int   { return h.batchSize }

// HealthCheck always succeeds
func (h *HashingEmbedding) HealthCheck(ctx context.Context) error { return nil }

// Close is a no-op
func (h *HashingEmbedding) Close() error { return nil }

func (h *HashingEmbedding) vector(text string) []float32 {
	v := make([]float32, h.dimensions)
	words := tokenize(text)
	for i, w := range words {
		h.add(v, w, 1)
		if i > 0 {
			h.add(v, words[i-1]+" "+w, 0.5)
		}
	}
	return domain.Normalize(v)
}

func (h *HashingEmbedding) add(v []float32, feature string, weight float32) {
	sum := blake2b.Sum256([]byte(feature))
	bucket := binary.LittleEndian.Uint64(sum[:8]) % uint64(h.dimensions)
	if sum[8]&1 == 1 {
		weight = -weight
	}
	v[bucket] += weight
}

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
