package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/custodia-labs/similarity-core/internal/core/domain"
	"github.com/custodia-labs/similarity-core/internal/core/ports/driven"
	"github.com/custodia-labs/similarity-core/internal/core/ports/driving"
	"github.com/custodia-labs/similarity-core/internal/core/services"
)

// Worker processes tasks from the task queue: material ingestion and
// plagiarism checks.
type Worker struct {
	taskQueue  driven.TaskQueue
	materials  driving.MaterialService
	plagiarism driving.PlagiarismService
	scheduler  *services.Scheduler
	logger     *slog.Logger

	// Configuration
	concurrency    int
	dequeueTimeout time.Duration
	errorBackoff   time.Duration

	// Internal state
	mu      sync.RWMutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// WorkerConfig holds configuration for the worker.
type WorkerConfig struct {
	TaskQueue      driven.TaskQueue
	Materials      driving.MaterialService
	Plagiarism     driving.PlagiarismService
	Scheduler      *services.Scheduler // Optional
	Logger         *slog.Logger
	Concurrency    int           // Number of concurrent task processors
	DequeueTimeout time.Duration // How long to wait for a task before checking again
	ErrorBackoff   time.Duration // Pause after a queue error (default: 1s)
}

// NewWorker creates a new task worker.
func NewWorker(cfg WorkerConfig) *Worker {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}

	dequeueTimeout := cfg.DequeueTimeout
	if dequeueTimeout <= 0 {
		dequeueTimeout = 5 * time.Second
	}

	errorBackoff := cfg.ErrorBackoff
	if errorBackoff <= 0 {
		errorBackoff = time.Second
	}

	return &Worker{
		taskQueue:      cfg.TaskQueue,
		materials:      cfg.Materials,
		plagiarism:     cfg.Plagiarism,
		scheduler:      cfg.Scheduler,
		logger:         logger,
		concurrency:    concurrency,
		dequeueTimeout: dequeueTimeout,
		errorBackoff:   errorBackoff,
	}
}

// Start begins the worker loop.
// It runs until Stop is called or context is cancelled.
func (w *Worker) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.stopCh = make(chan struct{})
	w.doneCh = make(chan struct{})
	w.mu.Unlock()

	w.logger.Info("worker starting",
		"concurrency", w.concurrency,
		"dequeue_timeout", w.dequeueTimeout,
	)

	if w.scheduler != nil {
		if err := w.scheduler.Start(ctx); err != nil {
			w.logger.Error("failed to start scheduler", "error", err)
		}
	}

	// Cancelling loopCtx aborts blocking dequeues on Stop
	loopCtx, cancel := context.WithCancel(ctx)
	go func() {
		select {
		case <-w.stopCh:
		case <-loopCtx.Done():
		}
		cancel()
	}()

	var wg sync.WaitGroup
	for i := 0; i < w.concurrency; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			w.processLoop(loopCtx, workerID)
		}(i)
	}

	go func() {
		wg.Wait()
		cancel()
		close(w.doneCh)
	}()

	return nil
}

// Stop gracefully stops the worker. In-flight tasks finish first.
func (w *Worker) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	close(w.stopCh)
	w.mu.Unlock()

	if w.scheduler != nil {
		w.scheduler.Stop()
	}

	<-w.doneCh

	w.mu.Lock()
	w.running = false
	w.mu.Unlock()

	w.logger.Info("worker stopped")
}

// processLoop is the main processing loop for a worker goroutine.
func (w *Worker) processLoop(ctx context.Context, workerID int) {
	logger := w.logger.With("worker_id", workerID)
	logger.Debug("worker goroutine started")

	for {
		if ctx.Err() != nil {
			logger.Debug("worker goroutine exiting")
			return
		}

		task, err := w.taskQueue.DequeueWithTimeout(ctx, w.dequeueTimeout)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				continue
			}
			logger.Error("failed to dequeue task", "error", err)
			select {
			case <-time.After(w.errorBackoff):
			case <-ctx.Done():
			}
			continue
		}
		if task == nil {
			continue
		}

		// A dequeued task runs to completion even if Stop is called meanwhile
		w.processTask(context.WithoutCancel(ctx), task, logger)
	}
}

// processTask runs one task and settles it on the queue:
//   - success acks
//   - bad input or missing data fails permanently
//   - anything else is nacked for a delayed retry
func (w *Worker) processTask(ctx context.Context, task *domain.Task, logger *slog.Logger) {
	logger = logger.With(
		"task_id", task.ID,
		"task_type", task.Type,
		"course_id", task.CourseID,
		"attempt", task.Attempts,
	)
	logger.Info("processing task")

	startTime := time.Now()
	var err error

	switch task.Type {
	case domain.TaskTypeIngestMaterial:
		err = w.handleIngestMaterial(ctx, task)
	case domain.TaskTypeCheckSubmission:
		err = w.handleCheckSubmission(ctx, task)
	default:
		err = fmt.Errorf("unknown task type %s: %w", task.Type, domain.ErrInvalidInput)
	}

	duration := time.Since(startTime)

	switch {
	case err == nil:
		logger.Info("task completed", "duration", duration)
		if ackErr := w.taskQueue.Ack(ctx, task.ID); ackErr != nil {
			logger.Error("failed to ack task", "ack_error", ackErr)
		}

	case domain.IsUserActionable(err):
		logger.Warn("task rejected", "duration", duration, "error", err)
		if failErr := w.taskQueue.Fail(ctx, task.ID, err.Error()); failErr != nil {
			logger.Error("failed to fail task", "fail_error", failErr)
		}

	default:
		logger.Error("task failed", "duration", duration, "error", err)
		if nackErr := w.taskQueue.Nack(ctx, task.ID, err.Error()); nackErr != nil {
			logger.Error("failed to nack task", "nack_error", nackErr)
		}
	}
}

// handleIngestMaterial handles an ingest_material task.
func (w *Worker) handleIngestMaterial(ctx context.Context, task *domain.Task) error {
	materialID := task.MaterialID()
	if materialID == "" {
		return fmt.Errorf("material_id not found in task payload: %w", domain.ErrInvalidInput)
	}

	_, err := w.materials.Process(ctx, materialID)
	if errors.Is(err, domain.ErrConflict) {
		// Another worker or an API request is already processing it
		return nil
	}
	return err
}

// handleCheckSubmission handles a check_submission task.
func (w *Worker) handleCheckSubmission(ctx context.Context, task *domain.Task) error {
	submissionID := task.SubmissionID()
	if submissionID == "" {
		return fmt.Errorf("submission_id not found in task payload: %w", domain.ErrInvalidInput)
	}

	report, err := w.plagiarism.Check(ctx, submissionID)
	if err != nil {
		return err
	}

	w.logger.Info("submission checked",
		"submission_id", submissionID,
		"similarity_score", report.SimilarityScore,
		"files", len(report.Files),
	)
	return nil
}

// Health reports whether the worker is running and its queue reachable.
type Health struct {
	Running     bool   `json:"running"`
	QueueHealth bool   `json:"queue_health"`
	Error       string `json:"error,omitempty"`
}

// Health returns the health status of the worker.
func (w *Worker) Health(ctx context.Context) Health {
	w.mu.RLock()
	running := w.running
	w.mu.RUnlock()

	health := Health{
		Running: running,
	}

	if err := w.taskQueue.Ping(ctx); err != nil {
		health.QueueHealth = false
		health.Error = err.Error()
	} else {
		health.QueueHealth = true
	}

	return health
}

// Ping fails when the worker is not running or its queue is unreachable.
// It lets the API report an in-process worker on its readiness endpoint.
func (w *Worker) Ping(ctx context.Context) error {
	health := w.Health(ctx)
	if !health.Running {
		return errors.New("worker not running")
	}
	if !health.QueueHealth {
		return fmt.Errorf("task queue unreachable: %s", health.Error)
	}
	return nil
}
