package driving

import (
	"context"

	"github.com/custodia-labs/similarity-core/internal/core/domain"
)

// DeleteResult lists what a cascade delete removed. Storage keys are returned
// so the caller can delete the backing files.
type DeleteResult struct {
	StorageKeys      []string `json:"s3_keys"`
	MaterialsDeleted int      `json:"materials_deleted"`
	ChunksDeleted    int      `json:"chunks_deleted"`
	ReportsDeleted   int      `json:"reports_deleted"`
}

// PlagiarismService computes and serves per-submission similarity reports
type PlagiarismService interface {
	// Check computes the submission's report and upserts it.
	// A failed check leaves any previous report untouched.
	Check(ctx context.Context, submissionID string) (*domain.Report, error)

	// GetReport retrieves the stored report, or domain.ErrNotFound
	GetReport(ctx context.Context, submissionID string) (*domain.Report, error)

	// DeleteSubmission removes a submission's materials, chunks and report
	DeleteSubmission(ctx context.Context, submissionID string) (*DeleteResult, error)

	// DeleteAllSubmissions removes every submission material, chunk and report
	DeleteAllSubmissions(ctx context.Context) (*DeleteResult, error)
}

// TaskService enqueues background work and reports its progress
type TaskService interface {
	// EnqueueCheck schedules a plagiarism check for a submission
	EnqueueCheck(ctx context.Context, courseID, submissionID string) (*domain.Task, error)

	// EnqueueIngest schedules processing of a material
	EnqueueIngest(ctx context.Context, courseID, materialID string) (*domain.Task, error)

	// GetTask retrieves a task by ID
	GetTask(ctx context.Context, taskID string) (*domain.Task, error)
}
