package domain

import (
	"fmt"
	"math"
)

// EmbeddingSpace identifies which model and dimension produced a vector.
// Vectors are only comparable within one space.
type EmbeddingSpace struct {
	Model     string `json:"model"`
	Dimension int    `json:"dimension"`
}

func (s EmbeddingSpace) String() string {
	return fmt.Sprintf("%s/%d", s.Model, s.Dimension)
}

// Check returns ErrModelMismatch when other is a different space.
func (s EmbeddingSpace) Check(other EmbeddingSpace) error {
	if s.Model != other.Model || s.Dimension != other.Dimension {
		return fmt.Errorf("%w: %s vs %s", ErrModelMismatch, s, other)
	}
	return nil
}

// Embedding is one embedder output, tagged with the space it belongs to
type Embedding struct {
	Vector    []float32 `json:"vector"`
	Dimension int       `json:"dimension"`
	Model     string    `json:"model"`
}

// Space returns the embedding's space.
func (e Embedding) Space() EmbeddingSpace {
	return EmbeddingSpace{Model: e.Model, Dimension: e.Dimension}
}

// Valid reports whether the vector length matches the declared dimension.
func (e Embedding) Valid() bool {
	return e.Dimension > 0 && len(e.Vector) == e.Dimension
}

// Cosine returns dot(a,b)/(|a||b|) in [-1,1]. A zero vector has similarity 0
// with everything. Vectors of different length are a model mismatch.
func Cosine(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("%w: dimension %d vs %d", ErrModelMismatch, len(a), len(b))
	}
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0, nil
	}
	sim := dot / (math.Sqrt(na) * math.Sqrt(nb))
	// Rounding can push identical vectors slightly past 1
	return math.Max(-1, math.Min(1, sim)), nil
}

// IsZeroVector reports whether v has no non-zero component. A zero vector
// has no direction, so it is never a nearest neighbour of anything.
func IsZeroVector(v []float32) bool {
	for _, x := range v {
		if x != 0 {
			return false
		}
	}
	return true
}

// Normalize scales v to unit length in place and returns it.
func Normalize(v []float32) []float32 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return v
	}
	inv := 1 / math.Sqrt(sum)
	for i := range v {
		v[i] = float32(float64(v[i]) * inv)
	}
	return v
}

// Clamp01 bounds x to [0,1]. NaN becomes 0.
func Clamp01(x float64) float64 {
	if math.IsNaN(x) || x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}

// RoundScore rounds a score to four decimal places so that stored scores
// compare equal across rechecks despite float summation order.
func RoundScore(x float64) float64 {
	return math.Round(x*1e4) / 1e4
}
