package driving

import (
	"context"

	"github.com/custodia-labs/similarity-core/internal/core/domain"
)

// RegisterMaterialRequest describes a new material. Exactly one of Text or
// StorageKey supplies the content.
type RegisterMaterialRequest struct {
	Title        string           `json:"title" validate:"required,max=500"`
	MimeType     string           `json:"mime_type" validate:"max=255"`
	OwnerType    domain.OwnerType `json:"owner_type" validate:"required,oneof=course_material assignment submission external_reference"`
	CourseID     string           `json:"course_id" validate:"max=255"`
	AssignmentID string           `json:"assignment_id" validate:"max=255"`
	SubmissionID string           `json:"submission_id" validate:"required_if=OwnerType submission,max=255"`
	StorageKey   string           `json:"storage_key" validate:"required_without=Text,max=1024"`
	StorageURL   string           `json:"storage_url" validate:"omitempty,url"`
	SourceURL    string           `json:"source_url" validate:"omitempty,url"`
	Text         string           `json:"text" validate:"required_without=StorageKey"`
}

// MaterialService registers and ingests materials into the corpus
type MaterialService interface {
	// Register stores a new material in the pending state
	Register(ctx context.Context, req RegisterMaterialRequest) (*domain.Material, error)

	// Upload stores raw bytes in the object store and registers them as a material
	Upload(ctx context.Context, req RegisterMaterialRequest, data []byte) (*domain.Material, error)

	// Process extracts, chunks, embeds and indexes a material.
	// Materials already processed with the current model are returned unchanged.
	Process(ctx context.Context, materialID string) (*domain.Material, error)

	// Reprocess re-runs processing regardless of state. This is the migration
	// path after the embedding model changes.
	Reprocess(ctx context.Context, materialID string) (*domain.Material, error)

	// Get retrieves a material by ID
	Get(ctx context.Context, materialID string) (*domain.Material, error)

	// ListBySubmission returns a submission's materials, or domain.ErrNotFound if it has none
	ListBySubmission(ctx context.Context, submissionID string) ([]*domain.Material, error)

	// GetText reconstructs the extracted text of a processed material from its chunks
	GetText(ctx context.Context, materialID string) (*domain.MaterialText, error)

	// ListReferences returns every registered external reference
	ListReferences(ctx context.Context) ([]*domain.Material, error)

	// ListByCourse returns a course's course materials and assignments
	ListByCourse(ctx context.Context, courseID string) ([]*domain.Material, error)

	// Delete removes a course material, assignment or external reference
	// together with its chunks and index entries. Submission files are
	// removed with their submission.
	Delete(ctx context.Context, materialID string) (*DeleteResult, error)

	// DeleteCourse removes a course's course materials and assignments, or
	// returns domain.ErrNotFound if it has none
	DeleteCourse(ctx context.Context, courseID string) (*DeleteResult, error)

	// DeleteAllCourses removes every course material and assignment
	DeleteAllCourses(ctx context.Context) (*DeleteResult, error)
}
