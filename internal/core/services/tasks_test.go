package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/similarity-core/internal/core/domain"
	"github.com/custodia-labs/similarity-core/internal/core/ports/driven/mocks"
)

func TestTaskService_EnqueueCheck(t *testing.T) {
	queue := mocks.NewMockTaskQueue()
	svc := NewTaskService(queue, discardLogger())
	ctx := context.Background()

	task, err := svc.EnqueueCheck(ctx, "course-1", "sub-1")
	require.NoError(t, err)
	assert.Equal(t, domain.TaskTypeCheckSubmission, task.Type)
	assert.Equal(t, "sub-1", task.SubmissionID())
	assert.Equal(t, "course-1", task.CourseID)

	stored, err := svc.GetTask(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TaskStatusPending, stored.Status)
}

func TestTaskService_EnqueueIngest(t *testing.T) {
	svc := NewTaskService(mocks.NewMockTaskQueue(), discardLogger())

	task, err := svc.EnqueueIngest(context.Background(), "", "mat-1")
	require.NoError(t, err)
	assert.Equal(t, domain.TaskTypeIngestMaterial, task.Type)
	assert.Equal(t, "mat-1", task.MaterialID())
}

func TestTaskService_Validation(t *testing.T) {
	svc := NewTaskService(mocks.NewMockTaskQueue(), discardLogger())

	_, err := svc.EnqueueCheck(context.Background(), "course-1", "")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = svc.EnqueueIngest(context.Background(), "course-1", "")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestTaskService_EnqueueError(t *testing.T) {
	queue := mocks.NewMockTaskQueue()
	queue.EnqueueErr = errors.New("queue full")
	svc := NewTaskService(queue, discardLogger())

	_, err := svc.EnqueueCheck(context.Background(), "course-1", "sub-1")
	assert.Error(t, err)
}

func TestTaskService_NoQueue(t *testing.T) {
	svc := NewTaskService(nil, discardLogger())

	_, err := svc.EnqueueCheck(context.Background(), "course-1", "sub-1")
	assert.ErrorIs(t, err, domain.ErrServiceUnavailable)
}

func TestTaskService_GetTask_NotFound(t *testing.T) {
	svc := NewTaskService(mocks.NewMockTaskQueue(), discardLogger())

	_, err := svc.GetTask(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
