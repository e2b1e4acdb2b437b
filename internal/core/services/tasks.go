package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/custodia-labs/similarity-core/internal/core/domain"
	"github.com/custodia-labs/similarity-core/internal/core/ports/driven"
	"github.com/custodia-labs/similarity-core/internal/core/ports/driving"
)

// Ensure taskService implements driving.TaskService
var _ driving.TaskService = (*taskService)(nil)

// taskService implements driving.TaskService over a TaskQueue
type taskService struct {
	queue  driven.TaskQueue
	logger *slog.Logger
}

// NewTaskService creates a new TaskService
func NewTaskService(queue driven.TaskQueue, logger *slog.Logger) driving.TaskService {
	if logger == nil {
		logger = slog.Default()
	}
	return &taskService{queue: queue, logger: logger}
}

// EnqueueCheck schedules a plagiarism check for a submission
func (s *taskService) EnqueueCheck(ctx context.Context, courseID, submissionID string) (*domain.Task, error) {
	if submissionID == "" {
		return nil, fmt.Errorf("submission id is required: %w", domain.ErrInvalidInput)
	}
	return s.enqueue(ctx, domain.NewCheckSubmissionTask(courseID, submissionID))
}

// EnqueueIngest schedules processing of a material
func (s *taskService) EnqueueIngest(ctx context.Context, courseID, materialID string) (*domain.Task, error) {
	if materialID == "" {
		return nil, fmt.Errorf("material id is required: %w", domain.ErrInvalidInput)
	}
	return s.enqueue(ctx, domain.NewIngestMaterialTask(courseID, materialID))
}

// GetTask retrieves a task by ID
func (s *taskService) GetTask(ctx context.Context, taskID string) (*domain.Task, error) {
	return s.queue.GetTask(ctx, taskID)
}

func (s *taskService) enqueue(ctx context.Context, task *domain.Task) (*domain.Task, error) {
	if s.queue == nil {
		return nil, fmt.Errorf("task queue not configured: %w", domain.ErrServiceUnavailable)
	}
	if err := s.queue.Enqueue(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to enqueue %s task: %w", task.Type, err)
	}
	s.logger.Info("task enqueued", "task_id", task.ID, "task_type", task.Type, "course_id", task.CourseID)
	return task, nil
}
