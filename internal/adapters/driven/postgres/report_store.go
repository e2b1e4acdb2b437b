package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/custodia-labs/similarity-core/internal/core/domain"
	"github.com/custodia-labs/similarity-core/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.ReportStore = (*ReportStore)(nil)

// ReportStore implements driven.ReportStore using PostgreSQL.
// The UNIQUE constraint on submission_id keeps one report per submission.
type ReportStore struct {
	db *DB
}

// NewReportStore creates a new ReportStore
func NewReportStore(db *DB) *ReportStore {
	return &ReportStore{db: db}
}

// Upsert inserts the report or replaces the submission's existing one in a single statement
func (s *ReportStore) Upsert(ctx context.Context, report *domain.Report) (*domain.Report, error) {
	filesJSON, err := json.Marshal(report.Files)
	if err != nil {
		return nil, fmt.Errorf("marshal files: %w", err)
	}
	metadataJSON, err := json.Marshal(report.Metadata)
	if err != nil {
		return nil, fmt.Errorf("marshal metadata: %w", err)
	}

	if report.ID == "" {
		report.ID = domain.NewID()
	}
	now := time.Now()

	query := `
		INSERT INTO reports (id, submission_id, similarity_score, files, metadata, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $6)
		ON CONFLICT (submission_id) DO UPDATE SET
			similarity_score = EXCLUDED.similarity_score,
			files = EXCLUDED.files,
			metadata = EXCLUDED.metadata,
			updated_at = EXCLUDED.updated_at
		RETURNING id, created_at, updated_at
	`

	saved := *report
	err = s.db.QueryRowContext(ctx, query,
		report.ID,
		report.SubmissionID,
		report.SimilarityScore,
		filesJSON,
		metadataJSON,
		now,
	).Scan(&saved.ID, &saved.CreatedAt, &saved.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("upsert report: %w", err)
	}
	return &saved, nil
}

// Get retrieves the report for a submission
func (s *ReportStore) Get(ctx context.Context, submissionID string) (*domain.Report, error) {
	query := `
		SELECT id, submission_id, similarity_score, files, metadata, created_at, updated_at
		FROM reports
		WHERE submission_id = $1
	`

	var r domain.Report
	var filesJSON, metadataJSON []byte
	err := s.db.QueryRowContext(ctx, query, submissionID).Scan(
		&r.ID,
		&r.SubmissionID,
		&r.SimilarityScore,
		&filesJSON,
		&metadataJSON,
		&r.CreatedAt,
		&r.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get report: %w", err)
	}

	if err := json.Unmarshal(filesJSON, &r.Files); err != nil {
		return nil, fmt.Errorf("unmarshal files: %w", err)
	}
	if err := json.Unmarshal(metadataJSON, &r.Metadata); err != nil {
		return nil, fmt.Errorf("unmarshal metadata: %w", err)
	}
	return &r, nil
}

// DeleteBySubmissions deletes the reports of the given submissions
func (s *ReportStore) DeleteBySubmissions(ctx context.Context, submissionIDs []string) (int, error) {
	if len(submissionIDs) == 0 {
		return 0, nil
	}
	result, err := s.db.ExecContext(ctx, `DELETE FROM reports WHERE submission_id = ANY($1)`, pq.Array(submissionIDs))
	if err != nil {
		return 0, fmt.Errorf("delete reports: %w", err)
	}
	return rowsAffected(result)
}

// DeleteAll deletes every report
func (s *ReportStore) DeleteAll(ctx context.Context) (int, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM reports`)
	if err != nil {
		return 0, fmt.Errorf("delete reports: %w", err)
	}
	return rowsAffected(result)
}

func rowsAffected(result sql.Result) (int, error) {
	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("get rows affected: %w", err)
	}
	return int(rows), nil
}
