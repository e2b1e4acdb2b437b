package domain

import (
	"encoding/hex"
	"time"

	"golang.org/x/crypto/blake2b"
)

// Chunk is a contiguous span of a material's extracted text together with its
// embedding. Chunks are never mutated; they are replaced wholesale per material.
type Chunk struct {
	ID           string    `json:"id"`
	MaterialID   string    `json:"material_id"`
	OwnerType    OwnerType `json:"owner_type"`
	CourseID     string    `json:"course_id,omitempty"`
	SubmissionID string    `json:"submission_id,omitempty"`
	SourceURL    string    `json:"source_url,omitempty"`

	// Index is the zero-based position within the material; indices are contiguous
	Index     int    `json:"index"`
	Content   string `json:"content"`
	StartChar int    `json:"start_char"`
	EndChar   int    `json:"end_char"`

	ContentHash string    `json:"content_hash"`
	Embedding   []float32 `json:"embedding,omitempty"`
	Dimension   int       `json:"dimension"`
	Model       string    `json:"model"`
	CreatedAt   time.Time `json:"created_at"`
}

// Scope returns the exclusion scope of the chunk; see Material.Scope.
func (c *Chunk) Scope() string {
	if c.OwnerType == OwnerSubmission && c.SubmissionID != "" {
		return c.SubmissionID
	}
	return c.MaterialID
}

// Space returns the embedding space the chunk's vector lives in.
func (c *Chunk) Space() EmbeddingSpace {
	return EmbeddingSpace{Model: c.Model, Dimension: c.Dimension}
}

// Len returns the chunk length in characters.
func (c *Chunk) Len() int {
	return len([]rune(c.Content))
}

// ContentHash returns the hex blake2b-256 digest of text.
func ContentHash(text string) string {
	sum := blake2b.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}
