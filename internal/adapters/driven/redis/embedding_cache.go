package redis

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/custodia-labs/similarity-core/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.EmbeddingCache = (*EmbeddingCache)(nil)

const embeddingPrefix = "similarity:emb:"

// EmbeddingCache stores vectors as little-endian float32 blobs keyed by
// model and content hash.
type EmbeddingCache struct {
	client *redis.Client
}

// NewEmbeddingCache creates a Redis-backed embedding cache
func NewEmbeddingCache(client *redis.Client) *EmbeddingCache {
	return &EmbeddingCache{client: client}
}

func embeddingKey(model, hash string) string {
	return embeddingPrefix + model + ":" + hash
}

// GetMany returns cached vectors by content hash. Misses and corrupt entries are absent.
func (c *EmbeddingCache) GetMany(ctx context.Context, model string, hashes []string) (map[string][]float32, error) {
	out := make(map[string][]float32, len(hashes))
	if len(hashes) == 0 {
		return out, nil
	}

	keys := make([]string, len(hashes))
	for i, h := range hashes {
		keys[i] = embeddingKey(model, h)
	}

	values, err := c.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("get embeddings: %w", err)
	}

	for i, v := range values {
		s, ok := v.(string)
		if !ok {
			continue
		}
		if vec, ok := decodeVector([]byte(s)); ok {
			out[hashes[i]] = vec
		}
	}
	return out, nil
}

// PutMany stores vectors by content hash with the given TTL (0 keeps them forever)
func (c *EmbeddingCache) PutMany(ctx context.Context, model string, vectors map[string][]float32, ttl time.Duration) error {
	if len(vectors) == 0 {
		return nil
	}

	_, err := c.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for hash, vec := range vectors {
			pipe.Set(ctx, embeddingKey(model, hash), encodeVector(vec), ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("put embeddings: %w", err)
	}
	return nil
}

func encodeVector(v []float32) []byte {
	buf := make([]byte, 4*len(v))
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(f))
	}
	return buf
}

func decodeVector(b []byte) ([]float32, bool) {
	if len(b) == 0 || len(b)%4 != 0 {
		return nil, false
	}
	v := make([]float32, len(b)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[4*i:]))
	}
	return v, true
}
