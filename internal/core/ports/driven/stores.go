package driven

import (
	"context"

	"github.com/custodia-labs/similarity-core/internal/core/domain"
)

// MaterialStore handles material persistence (PostgreSQL)
type MaterialStore interface {
	// Save creates or updates a material
	Save(ctx context.Context, m *domain.Material) error

	// Get retrieves a material by ID
	Get(ctx context.Context, id string) (*domain.Material, error)

	// ListBySubmission retrieves a submission's materials, oldest first
	ListBySubmission(ctx context.Context, submissionID string) ([]*domain.Material, error)

	// ListByOwnerType retrieves all materials of one owner type, oldest first
	ListByOwnerType(ctx context.Context, ownerType domain.OwnerType) ([]*domain.Material, error)

	// ListByCourse retrieves a course's materials of the given owner types, oldest first
	ListByCourse(ctx context.Context, courseID string, ownerTypes ...domain.OwnerType) ([]*domain.Material, error)

	// ListByStatus retrieves up to limit materials in the given processing state, oldest first
	ListByStatus(ctx context.Context, status domain.ProcessingStatus, limit int) ([]*domain.Material, error)

	// Delete deletes one material and returns it, or domain.ErrNotFound
	Delete(ctx context.Context, id string) (*domain.Material, error)

	// DeleteByCourse deletes a course's materials of the given owner types and returns what was deleted
	DeleteByCourse(ctx context.Context, courseID string, ownerTypes ...domain.OwnerType) ([]*domain.Material, error)

	// DeleteBySubmission deletes a submission's materials and returns what was deleted
	DeleteBySubmission(ctx context.Context, submissionID string) ([]*domain.Material, error)

	// DeleteByOwnerType deletes all materials of one owner type and returns what was deleted
	DeleteByOwnerType(ctx context.Context, ownerType domain.OwnerType) ([]*domain.Material, error)
}

// ChunkStore handles chunk persistence (PostgreSQL)
type ChunkStore interface {
	// ReplaceForMaterial atomically swaps a material's chunks for a new set
	ReplaceForMaterial(ctx context.Context, materialID string, chunks []*domain.Chunk) error

	// GetByMaterial retrieves a material's chunks ordered by index
	GetByMaterial(ctx context.Context, materialID string) ([]*domain.Chunk, error)

	// DeleteByMaterials deletes all chunks of the given materials
	DeleteByMaterials(ctx context.Context, materialIDs []string) error

	// List pages through all chunks ordered by id, starting after afterID
	List(ctx context.Context, afterID string, limit int) ([]*domain.Chunk, error)
}

// ReportStore persists one plagiarism report per submission
type ReportStore interface {
	// Upsert creates the submission's report or atomically replaces the existing one.
	// The returned report keeps the original ID and CreatedAt on replace.
	Upsert(ctx context.Context, report *domain.Report) (*domain.Report, error)

	// Get retrieves the report for a submission, or domain.ErrNotFound
	Get(ctx context.Context, submissionID string) (*domain.Report, error)

	// DeleteBySubmissions deletes the reports of the given submissions
	DeleteBySubmissions(ctx context.Context, submissionIDs []string) (int, error)

	// DeleteAll deletes every report
	DeleteAll(ctx context.Context) (int, error)
}

// ObjectStore reads and writes uploaded material bytes (S3-compatible)
type ObjectStore interface {
	// Get downloads an object; missing keys return domain.ErrNotFound
	Get(ctx context.Context, key string) ([]byte, error)

	// Put uploads an object
	Put(ctx context.Context, key string, data []byte, contentType string) error

	// Ping checks the bucket is reachable
	Ping(ctx context.Context) error
}
