package driven

import (
	"context"
	"time"

	"github.com/custodia-labs/similarity-core/internal/core/domain"
)

// TaskQueue handles background task queuing and processing.
// Implementations use Redis Streams when Redis is configured, Postgres otherwise.
type TaskQueue interface {
	// Enqueue adds a task to the queue for processing.
	Enqueue(ctx context.Context, task *domain.Task) error

	// DequeueWithTimeout retrieves the next ready task, waiting up to timeout.
	// Returns nil, nil if the timeout elapses with no task available.
	// The returned task is marked processing and is not handed to other workers.
	DequeueWithTimeout(ctx context.Context, timeout time.Duration) (*domain.Task, error)

	// Ack marks a task completed.
	Ack(ctx context.Context, taskID string) error

	// Nack records a failed attempt. The task is rescheduled with backoff while
	// attempts remain, and marked failed after that.
	Nack(ctx context.Context, taskID string, reason string) error

	// Fail marks a task failed without further retries.
	Fail(ctx context.Context, taskID string, reason string) error

	// GetTask retrieves a task by ID.
	GetTask(ctx context.Context, taskID string) (*domain.Task, error)

	// ListTasks retrieves tasks matching the filter, newest first.
	ListTasks(ctx context.Context, filter TaskFilter) ([]*domain.Task, error)

	// Stats returns queue statistics.
	Stats(ctx context.Context) (*QueueStats, error)

	// Ping checks if the queue backend is healthy.
	Ping(ctx context.Context) error

	// Close cleans up resources.
	Close() error
}

// TaskFilter specifies criteria for listing tasks
type TaskFilter struct {
	CourseID string            // Optional
	Status   domain.TaskStatus // Optional
	Type     domain.TaskType   // Optional
	Limit    int
}

// QueueStats contains queue statistics
type QueueStats struct {
	PendingCount    int64 `json:"pending_count"`
	ProcessingCount int64 `json:"processing_count"`
	CompletedCount  int64 `json:"completed_count"`
	FailedCount     int64 `json:"failed_count"`
}
