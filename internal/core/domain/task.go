package domain

import (
	"time"

	"github.com/google/uuid"
)

// NewID returns a time-ordered UUIDv7 string. Lexical order of ids
// follows creation order, which the corpus index relies on for tie-breaks.
func NewID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// TaskType identifies the type of background task
type TaskType string

const (
	// TaskTypeIngestMaterial extracts, chunks, embeds and indexes one material
	TaskTypeIngestMaterial TaskType = "ingest_material"
	// TaskTypeCheckSubmission computes and stores the plagiarism report for a submission
	TaskTypeCheckSubmission TaskType = "check_submission"
)

// TaskStatus represents the current state of a task
type TaskStatus string

const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusProcessing TaskStatus = "processing"
	TaskStatusCompleted  TaskStatus = "completed"
	TaskStatusFailed     TaskStatus = "failed"
)

const (
	defaultMaxAttempts = 3
	maxRetryBackoff    = 5 * time.Minute
)

// Task represents a background job to be processed by workers
type Task struct {
	ID   string   `json:"id"`
	Type TaskType `json:"type"`

	// CourseID scopes the task for listing; empty for tasks without a course
	CourseID string `json:"course_id,omitempty"`

	// Payload contains task-specific data
	// For ingest_material: {"material_id": "..."}
	// For check_submission: {"submission_id": "..."}
	Payload map[string]string `json:"payload"`

	Status TaskStatus `json:"status"`

	// Priority determines processing order (higher = more urgent)
	Priority int `json:"priority"`

	Attempts    int    `json:"attempts"`
	MaxAttempts int    `json:"max_attempts"`
	Error       string `json:"error,omitempty"`

	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	StartedAt    *time.Time `json:"started_at,omitempty"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
	ScheduledFor time.Time  `json:"scheduled_for"`
}

// NewTask creates a new task with default values
func NewTask(taskType TaskType, courseID string, payload map[string]string) *Task {
	now := time.Now()
	return &Task{
		ID:           NewID(),
		Type:         taskType,
		CourseID:     courseID,
		Payload:      payload,
		Status:       TaskStatusPending,
		MaxAttempts:  defaultMaxAttempts,
		CreatedAt:    now,
		UpdatedAt:    now,
		ScheduledFor: now,
	}
}

// NewIngestMaterialTask creates a task to process a registered material
func NewIngestMaterialTask(courseID, materialID string) *Task {
	return NewTask(TaskTypeIngestMaterial, courseID, map[string]string{
		"material_id": materialID,
	})
}

// NewCheckSubmissionTask creates a task to (re)compute a submission's report.
// Checks run ahead of ingestion so a waiting user is served first.
func NewCheckSubmissionTask(courseID, submissionID string) *Task {
	t := NewTask(TaskTypeCheckSubmission, courseID, map[string]string{
		"submission_id": submissionID,
	})
	t.Priority = 10
	return t
}

// MaterialID extracts the material_id from the payload
func (t *Task) MaterialID() string {
	if t.Payload == nil {
		return ""
	}
	return t.Payload["material_id"]
}

// SubmissionID extracts the submission_id from the payload
func (t *Task) SubmissionID() string {
	if t.Payload == nil {
		return ""
	}
	return t.Payload["submission_id"]
}

// CanRetry returns true if the task can be retried
func (t *Task) CanRetry() bool {
	return t.Attempts < t.MaxAttempts
}

// IsReady returns true if the task is ready to be processed
func (t *Task) IsReady() bool {
	return t.Status == TaskStatusPending && !time.Now().Before(t.ScheduledFor)
}

// MarkProcessing updates the task to processing state
func (t *Task) MarkProcessing() {
	now := time.Now()
	t.Status = TaskStatusProcessing
	t.StartedAt = &now
	t.UpdatedAt = now
	t.Attempts++
}

// MarkCompleted updates the task to completed state
func (t *Task) MarkCompleted() {
	now := time.Now()
	t.Status = TaskStatusCompleted
	t.CompletedAt = &now
	t.UpdatedAt = now
	t.Error = ""
}

// MarkFailed updates the task to failed state
func (t *Task) MarkFailed(err string) {
	t.Status = TaskStatusFailed
	t.UpdatedAt = time.Now()
	t.Error = err
}

// RetryBackoff returns the delay before the next attempt: 1s, 2s, 4s... capped at 5 minutes.
func (t *Task) RetryBackoff() time.Duration {
	if t.Attempts >= 9 {
		return maxRetryBackoff
	}
	backoff := time.Duration(1<<t.Attempts) * time.Second
	if backoff > maxRetryBackoff {
		return maxRetryBackoff
	}
	return backoff
}

// Retry resets the task for retry with exponential backoff
func (t *Task) Retry(err string) {
	now := time.Now()
	t.Status = TaskStatusPending
	t.UpdatedAt = now
	t.Error = err
	t.ScheduledFor = now.Add(t.RetryBackoff())
}

// TaskResult represents the outcome of processing a task
type TaskResult struct {
	TaskID   string        `json:"task_id"`
	Success  bool          `json:"success"`
	Error    string        `json:"error,omitempty"`
	Duration time.Duration `json:"duration"`
}
