package domain

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCosine(t *testing.T) {
	tests := []struct {
		name string
		a, b []float32
		want float64
	}{
		{"identical", []float32{1, 2, 3}, []float32{1, 2, 3}, 1},
		{"scaled", []float32{1, 2, 3}, []float32{2, 4, 6}, 1},
		{"orthogonal", []float32{1, 0}, []float32{0, 1}, 0},
		{"opposite", []float32{1, 0}, []float32{-1, 0}, -1},
		{"zero vector", []float32{0, 0}, []float32{1, 1}, 0},
		{"empty", []float32{}, []float32{}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Cosine(tt.a, tt.b)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestCosine_DimensionMismatch(t *testing.T) {
	_, err := Cosine([]float32{1, 2}, []float32{1, 2, 3})
	assert.True(t, errors.Is(err, ErrModelMismatch))
}

func TestNormalize(t *testing.T) {
	v := Normalize([]float32{3, 4})
	assert.InDelta(t, 0.6, v[0], 1e-6)
	assert.InDelta(t, 0.8, v[1], 1e-6)

	zero := Normalize([]float32{0, 0})
	assert.Equal(t, []float32{0, 0}, zero)
}

func TestEmbeddingSpace_Check(t *testing.T) {
	a := EmbeddingSpace{Model: "hash-v1-256", Dimension: 256}

	assert.NoError(t, a.Check(EmbeddingSpace{Model: "hash-v1-256", Dimension: 256}))
	assert.ErrorIs(t, a.Check(EmbeddingSpace{Model: "text-embedding-3-small", Dimension: 256}), ErrModelMismatch)
	assert.ErrorIs(t, a.Check(EmbeddingSpace{Model: "hash-v1-256", Dimension: 128}), ErrModelMismatch)
}

func TestEmbedding_Valid(t *testing.T) {
	assert.True(t, Embedding{Vector: []float32{1, 2}, Dimension: 2}.Valid())
	assert.False(t, Embedding{Vector: []float32{1}, Dimension: 2}.Valid())
	assert.False(t, Embedding{}.Valid())
}

func TestClamp01(t *testing.T) {
	assert.Equal(t, 0.0, Clamp01(-0.3))
	assert.Equal(t, 0.5, Clamp01(0.5))
	assert.Equal(t, 1.0, Clamp01(1.0000001))
	assert.Equal(t, 0.0, Clamp01(math.NaN()))
}

func TestRoundScore(t *testing.T) {
	assert.Equal(t, 0.1235, RoundScore(0.123456))
	assert.Equal(t, 1.0, RoundScore(0.99999))
	assert.Equal(t, 0.0, RoundScore(0))
}

func TestContentHash(t *testing.T) {
	h1 := ContentHash("the quick brown fox")
	h2 := ContentHash("the quick brown fox")
	h3 := ContentHash("the quick brown fix")

	assert.Len(t, h1, 64)
	assert.Equal(t, h1, h2)
	assert.NotEqual(t, h1, h3)
}
