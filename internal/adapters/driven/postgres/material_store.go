package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"github.com/custodia-labs/similarity-core/internal/core/domain"
	"github.com/custodia-labs/similarity-core/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.MaterialStore = (*MaterialStore)(nil)

const materialColumns = `id, title, mime_type, owner_type, course_id, assignment_id, submission_id,
	storage_key, storage_url, source_url, inline_text, processing_status, processing_error,
	chunk_count, extracted_text_length, embedding_model, uploaded_at, processed_at`

// MaterialStore implements driven.MaterialStore using PostgreSQL
type MaterialStore struct {
	db *DB
}

// NewMaterialStore creates a new MaterialStore
func NewMaterialStore(db *DB) *MaterialStore {
	return &MaterialStore{db: db}
}

// Save creates or updates a material. Only processing fields change on update.
func (s *MaterialStore) Save(ctx context.Context, m *domain.Material) error {
	query := `
		INSERT INTO materials (` + materialColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
		ON CONFLICT (id) DO UPDATE SET
			processing_status = EXCLUDED.processing_status,
			processing_error = EXCLUDED.processing_error,
			chunk_count = EXCLUDED.chunk_count,
			extracted_text_length = EXCLUDED.extracted_text_length,
			embedding_model = EXCLUDED.embedding_model,
			processed_at = EXCLUDED.processed_at
	`

	_, err := s.db.ExecContext(ctx, query,
		m.ID,
		m.Title,
		m.MimeType,
		m.OwnerType,
		m.CourseID,
		m.AssignmentID,
		m.SubmissionID,
		m.StorageKey,
		m.StorageURL,
		m.SourceURL,
		m.InlineText,
		m.Status,
		m.StatusError,
		m.ChunkCount,
		m.ExtractedTextLength,
		m.EmbeddingModel,
		m.UploadedAt,
		nullTime(m.ProcessedAt),
	)
	if err != nil {
		return fmt.Errorf("save material: %w", err)
	}
	return nil
}

// Get retrieves a material by ID
func (s *MaterialStore) Get(ctx context.Context, id string) (*domain.Material, error) {
	query := `SELECT ` + materialColumns + ` FROM materials WHERE id = $1`

	m, err := scanMaterial(s.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get material: %w", err)
	}
	return m, nil
}

// ListBySubmission retrieves a submission's materials, oldest first
func (s *MaterialStore) ListBySubmission(ctx context.Context, submissionID string) ([]*domain.Material, error) {
	query := `SELECT ` + materialColumns + ` FROM materials
		WHERE submission_id = $1 AND owner_type = $2
		ORDER BY uploaded_at ASC, id ASC`
	return s.list(ctx, query, submissionID, domain.OwnerSubmission)
}

// ListByOwnerType retrieves all materials of one owner type, oldest first
func (s *MaterialStore) ListByOwnerType(ctx context.Context, ownerType domain.OwnerType) ([]*domain.Material, error) {
	query := `SELECT ` + materialColumns + ` FROM materials
		WHERE owner_type = $1
		ORDER BY uploaded_at ASC, id ASC`
	return s.list(ctx, query, ownerType)
}

// ListByCourse retrieves a course's materials of the given owner types, oldest first
func (s *MaterialStore) ListByCourse(ctx context.Context, courseID string, ownerTypes ...domain.OwnerType) ([]*domain.Material, error) {
	query := `SELECT ` + materialColumns + ` FROM materials
		WHERE course_id = $1 AND owner_type = ANY($2)
		ORDER BY uploaded_at ASC, id ASC`
	return s.list(ctx, query, courseID, ownerTypeArray(ownerTypes))
}

// ListByStatus retrieves up to limit materials in the given processing state, oldest first
func (s *MaterialStore) ListByStatus(ctx context.Context, status domain.ProcessingStatus, limit int) ([]*domain.Material, error) {
	query := `SELECT ` + materialColumns + ` FROM materials
		WHERE processing_status = $1
		ORDER BY uploaded_at ASC, id ASC
		LIMIT $2`
	return s.list(ctx, query, status, limit)
}

// Delete deletes one material and returns it. Chunks go with it via ON DELETE CASCADE.
func (s *MaterialStore) Delete(ctx context.Context, id string) (*domain.Material, error) {
	query := `DELETE FROM materials WHERE id = $1 RETURNING ` + materialColumns

	m, err := scanMaterial(s.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("delete material: %w", err)
	}
	return m, nil
}

// DeleteByCourse deletes a course's materials of the given owner types and returns what was deleted
func (s *MaterialStore) DeleteByCourse(ctx context.Context, courseID string, ownerTypes ...domain.OwnerType) ([]*domain.Material, error) {
	query := `DELETE FROM materials WHERE course_id = $1 AND owner_type = ANY($2) RETURNING ` + materialColumns
	return s.list(ctx, query, courseID, ownerTypeArray(ownerTypes))
}

// DeleteBySubmission deletes a submission's materials and returns what was deleted.
// Chunks go with them via ON DELETE CASCADE.
func (s *MaterialStore) DeleteBySubmission(ctx context.Context, submissionID string) ([]*domain.Material, error) {
	query := `DELETE FROM materials WHERE submission_id = $1 AND owner_type = $2 RETURNING ` + materialColumns
	return s.list(ctx, query, submissionID, domain.OwnerSubmission)
}

// DeleteByOwnerType deletes all materials of one owner type and returns what was deleted
func (s *MaterialStore) DeleteByOwnerType(ctx context.Context, ownerType domain.OwnerType) ([]*domain.Material, error) {
	query := `DELETE FROM materials WHERE owner_type = $1 RETURNING ` + materialColumns
	return s.list(ctx, query, ownerType)
}

func (s *MaterialStore) list(ctx context.Context, query string, args ...any) ([]*domain.Material, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query materials: %w", err)
	}
	defer rows.Close()

	var materials []*domain.Material
	for rows.Next() {
		m, err := scanMaterial(rows)
		if err != nil {
			return nil, fmt.Errorf("scan material: %w", err)
		}
		materials = append(materials, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate materials: %w", err)
	}
	return materials, nil
}

func ownerTypeArray(ownerTypes []domain.OwnerType) any {
	out := make([]string, len(ownerTypes))
	for i, o := range ownerTypes {
		out[i] = string(o)
	}
	return pq.Array(out)
}

// rowScanner is satisfied by *sql.Row and *sql.Rows
type rowScanner interface {
	Scan(dest ...any) error
}

func scanMaterial(row rowScanner) (*domain.Material, error) {
	var m domain.Material
	var processedAt sql.NullTime

	err := row.Scan(
		&m.ID,
		&m.Title,
		&m.MimeType,
		&m.OwnerType,
		&m.CourseID,
		&m.AssignmentID,
		&m.SubmissionID,
		&m.StorageKey,
		&m.StorageURL,
		&m.SourceURL,
		&m.InlineText,
		&m.Status,
		&m.StatusError,
		&m.ChunkCount,
		&m.ExtractedTextLength,
		&m.EmbeddingModel,
		&m.UploadedAt,
		&processedAt,
	)
	if err != nil {
		return nil, err
	}
	m.ProcessedAt = timePtr(processedAt)
	return &m, nil
}
