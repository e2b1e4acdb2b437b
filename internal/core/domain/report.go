package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// SourceType distinguishes in-system matches from external reference matches
type SourceType string

const (
	SourceInternal SourceType = "internal"
	SourceExternal SourceType = "external"
)

// Source identifies where a match came from. It is either InternalSource
// or ExternalSource; no other implementations exist.
type Source interface {
	Type() SourceType
	// ID is the identifier reported to callers as sourceId
	ID() string
	sealed()
}

// InternalSource is a match against another submission or course material
type InternalSource struct {
	ChunkID      string `json:"chunkId"`
	MaterialID   string `json:"materialId"`
	SubmissionID string `json:"submissionId,omitempty"`
	CourseID     string `json:"courseId,omitempty"`
}

func (InternalSource) Type() SourceType { return SourceInternal }

// ID is the matched submission when there is one, otherwise the matched material.
func (s InternalSource) ID() string {
	if s.SubmissionID != "" {
		return s.SubmissionID
	}
	return s.MaterialID
}

func (InternalSource) sealed() {}

// ExternalSource is a match against a registered external reference
type ExternalSource struct {
	URL         string `json:"url"`
	ReferenceID string `json:"referenceId"`
}

func (ExternalSource) Type() SourceType { return SourceExternal }

// ID is the reference URL, or the reference material id when no URL was registered.
func (s ExternalSource) ID() string {
	if s.URL != "" {
		return s.URL
	}
	return s.ReferenceID
}

func (ExternalSource) sealed() {}

// SourceForChunk classifies a matched corpus chunk.
func SourceForChunk(c *Chunk) Source {
	if c.OwnerType == OwnerExternalReference {
		return ExternalSource{URL: c.SourceURL, ReferenceID: c.MaterialID}
	}
	return InternalSource{
		ChunkID:      c.ID,
		MaterialID:   c.MaterialID,
		SubmissionID: c.SubmissionID,
		CourseID:     c.CourseID,
	}
}

// MatchType classifies why a chunk matched
type MatchType string

const (
	// MatchExactCopy is near-identical characters or heavily shared phrasing
	MatchExactCopy MatchType = "EXACT_COPY"
	// MatchSemantic is a high blended score without shared phrasing
	MatchSemantic MatchType = "SEMANTIC_MATCH"
	MatchLow      MatchType = "LOW_MATCH"
)

// MatchedSource is the best corpus match for one submission chunk
type MatchedSource struct {
	Source      Source
	ChunkIndex  int     // Position of the submission chunk in its file
	ChunkText   string  // Submission side
	MatchedText string  // Corpus side
	Similarity  float64 // In [0,1]

	SemanticSimilarity float64 // Cosine of the two embeddings
	NGramSimilarity    float64 // Word n-gram Jaccard
	ExactSimilarity    float64 // Character matching ratio of the normalised texts
	MatchType          MatchType
}

type matchedSourceJSON struct {
	SourceType  SourceType `json:"sourceType"`
	SourceID    string     `json:"sourceId"`
	ChunkIndex  int        `json:"chunkIndex"`
	ChunkText   string     `json:"chunkText"`
	MatchedText string     `json:"matchedText"`
	Similarity  float64    `json:"similarity"`

	SemanticSimilarity float64   `json:"semanticSimilarity"`
	NGramSimilarity    float64   `json:"ngramSimilarity"`
	ExactSimilarity    float64   `json:"exactSimilarity"`
	MatchType          MatchType `json:"matchType,omitempty"`

	ChunkID      string `json:"chunkId,omitempty"`
	MaterialID   string `json:"materialId,omitempty"`
	SubmissionID string `json:"submissionId,omitempty"`
	CourseID     string `json:"courseId,omitempty"`

	URL         string `json:"url,omitempty"`
	ReferenceID string `json:"referenceId,omitempty"`
}

// MarshalJSON flattens the source variant next to sourceType and sourceId.
func (m MatchedSource) MarshalJSON() ([]byte, error) {
	if m.Source == nil {
		return nil, fmt.Errorf("matched source without source: %w", ErrInvalidInput)
	}
	out := matchedSourceJSON{
		SourceType:  m.Source.Type(),
		SourceID:    m.Source.ID(),
		ChunkIndex:  m.ChunkIndex,
		ChunkText:   m.ChunkText,
		MatchedText: m.MatchedText,
		Similarity:  m.Similarity,

		SemanticSimilarity: m.SemanticSimilarity,
		NGramSimilarity:    m.NGramSimilarity,
		ExactSimilarity:    m.ExactSimilarity,
		MatchType:          m.MatchType,
	}
	switch s := m.Source.(type) {
	case InternalSource:
		out.ChunkID = s.ChunkID
		out.MaterialID = s.MaterialID
		out.SubmissionID = s.SubmissionID
		out.CourseID = s.CourseID
	case ExternalSource:
		out.URL = s.URL
		out.ReferenceID = s.ReferenceID
	}
	return json.Marshal(out)
}

// UnmarshalJSON rebuilds the source variant from sourceType.
func (m *MatchedSource) UnmarshalJSON(data []byte) error {
	var in matchedSourceJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	switch in.SourceType {
	case SourceInternal:
		m.Source = InternalSource{
			ChunkID:      in.ChunkID,
			MaterialID:   in.MaterialID,
			SubmissionID: in.SubmissionID,
			CourseID:     in.CourseID,
		}
	case SourceExternal:
		m.Source = ExternalSource{URL: in.URL, ReferenceID: in.ReferenceID}
	default:
		return fmt.Errorf("unknown source type %q: %w", in.SourceType, ErrInvalidInput)
	}
	m.ChunkIndex = in.ChunkIndex
	m.ChunkText = in.ChunkText
	m.MatchedText = in.MatchedText
	m.Similarity = in.Similarity
	m.SemanticSimilarity = in.SemanticSimilarity
	m.NGramSimilarity = in.NGramSimilarity
	m.ExactSimilarity = in.ExactSimilarity
	m.MatchType = in.MatchType
	return nil
}

// FileResult is the per-file breakdown of a report
type FileResult struct {
	FileName          string          `json:"fileName"`
	MaterialID        string          `json:"materialId"`
	SimilarityScore   float64         `json:"similarityScore"`
	ChunkCount        int             `json:"chunkCount"`
	MatchedChunks     int             `json:"matchedChunks"`
	UnavailableChunks int             `json:"unavailableChunks"`
	ReportDetails     string          `json:"reportDetails"`
	MatchedSources    []MatchedSource `json:"matchedSources"`
}

// ReportMetadata describes how a report was computed
type ReportMetadata struct {
	MaterialID   string   `json:"materialId"` // First processed material of the submission
	MaterialIDs  []string `json:"materialIds"`
	TotalSources int      `json:"totalSources"` // Distinct source ids across all files
	Model        string   `json:"model"`
	Dimension    int      `json:"dimension"`
	Aggregation  string   `json:"aggregation"`
	Degraded     bool     `json:"degraded"` // Some chunk queries were unavailable
}

// Report is the persisted similarity outcome for one submission.
// There is at most one per submission id; rechecks replace it.
type Report struct {
	ID              string         `json:"id"`
	SubmissionID    string         `json:"submissionId"`
	SimilarityScore float64        `json:"similarityScore"`
	Files           []FileResult   `json:"files"`
	Metadata        ReportMetadata `json:"reportMetadata"`
	CreatedAt       time.Time      `json:"createdAt"`
	UpdatedAt       time.Time      `json:"updatedAt"`
}

// MatchedSources flattens the per-file matches in file order.
func (r *Report) MatchedSources() []MatchedSource {
	var out []MatchedSource
	for _, f := range r.Files {
		out = append(out, f.MatchedSources...)
	}
	return out
}

// SourceIDs returns the distinct source ids referenced by the report in first-seen order.
func (r *Report) SourceIDs() []string {
	seen := make(map[string]bool)
	var ids []string
	for _, m := range r.MatchedSources() {
		id := m.Source.ID()
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	return ids
}
