package domain

import "time"

// OwnerType identifies what a material belongs to
type OwnerType string

const (
	OwnerCourseMaterial    OwnerType = "course_material"
	OwnerAssignment        OwnerType = "assignment"
	OwnerSubmission        OwnerType = "submission"
	OwnerExternalReference OwnerType = "external_reference"
)

// IsValid reports whether o is a known owner type.
func (o OwnerType) IsValid() bool {
	switch o {
	case OwnerCourseMaterial, OwnerAssignment, OwnerSubmission, OwnerExternalReference:
		return true
	}
	return false
}

// ProcessingStatus tracks a material through extraction and indexing
type ProcessingStatus string

const (
	ProcessingPending    ProcessingStatus = "pending"
	ProcessingProcessing ProcessingStatus = "processing"
	ProcessingDone       ProcessingStatus = "done"
	ProcessingError      ProcessingStatus = "error"
)

// Material is an uploaded document: course material, assignment attachment,
// submission file, or a registered external reference. Only its processing
// fields change after creation.
type Material struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	MimeType     string    `json:"mime_type"`
	OwnerType    OwnerType `json:"owner_type"`
	CourseID     string    `json:"course_id,omitempty"`
	AssignmentID string    `json:"assignment_id,omitempty"`
	SubmissionID string    `json:"submission_id,omitempty"`

	StorageKey string `json:"storage_key,omitempty"` // Object store key of the uploaded bytes
	StorageURL string `json:"storage_url,omitempty"` // Public URL of the upload, if any
	SourceURL  string `json:"source_url,omitempty"`  // External references only

	// InlineText holds text supplied directly at registration instead of an upload
	InlineText string `json:"-"`

	Status              ProcessingStatus `json:"processing_status"`
	StatusError         string           `json:"processing_error,omitempty"`
	ChunkCount          int              `json:"chunk_count"`
	ExtractedTextLength int              `json:"extracted_text_length"`
	EmbeddingModel      string           `json:"embedding_model,omitempty"`

	UploadedAt  time.Time  `json:"uploaded_at"`
	ProcessedAt *time.Time `json:"processed_at,omitempty"`
}

// Scope returns the identifier a corpus query excludes so that a document
// never matches itself: the submission for submission files, the material otherwise.
func (m *Material) Scope() string {
	if m.OwnerType == OwnerSubmission && m.SubmissionID != "" {
		return m.SubmissionID
	}
	return m.ID
}

// IsExternal reports whether the material belongs to the external reference corpus.
func (m *Material) IsExternal() bool {
	return m.OwnerType == OwnerExternalReference
}

// MarkProcessing moves the material into the processing state
func (m *Material) MarkProcessing() {
	m.Status = ProcessingProcessing
	m.StatusError = ""
}

// MarkDone records a successful extraction
func (m *Material) MarkDone(chunkCount, textLength int, model string) {
	now := time.Now()
	m.Status = ProcessingDone
	m.StatusError = ""
	m.ChunkCount = chunkCount
	m.ExtractedTextLength = textLength
	m.EmbeddingModel = model
	m.ProcessedAt = &now
}

// MarkError records a failed extraction. Counts from a previous success are kept
// since the previous chunks stay indexed.
func (m *Material) MarkError(err error) {
	now := time.Now()
	m.Status = ProcessingError
	if err != nil {
		m.StatusError = err.Error()
	}
	m.ProcessedAt = &now
}

// MaterialText is the reconstructed extracted text of a material
type MaterialText struct {
	MaterialID string `json:"material_id"`
	Title      string `json:"title"`
	Text       string `json:"text"`
	ChunkCount int    `json:"chunk_count"`
}
