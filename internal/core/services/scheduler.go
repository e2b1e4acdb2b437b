package services

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/custodia-labs/similarity-core/internal/core/domain"
	"github.com/custodia-labs/similarity-core/internal/core/ports/driven"
	"github.com/custodia-labs/similarity-core/internal/runtime"
)

const schedulerLockName = "scheduler"

// Scheduler runs periodic housekeeping on worker nodes:
//   - checks embedding health and updates runtime availability
//   - enqueues ingest tasks for materials left pending longer than the grace period
//
// For multi-worker deployments, configure a DistributedLock to prevent
// duplicate enqueuing across instances.
type Scheduler struct {
	materials driven.MaterialStore
	taskQueue driven.TaskQueue
	lock      driven.DistributedLock
	services  *runtime.Services
	logger    *slog.Logger

	// Internal state
	mu       sync.RWMutex
	running  bool
	stopCh   chan struct{}
	doneCh   chan struct{}
	interval time.Duration

	grace     time.Duration
	batchSize int
	lockTTL   time.Duration
}

// SchedulerConfig holds configuration for the scheduler.
type SchedulerConfig struct {
	MaterialStore driven.MaterialStore
	TaskQueue     driven.TaskQueue
	Lock          driven.DistributedLock // Optional: distributed lock for multi-instance coordination
	Services      *runtime.Services      // Optional: embedding health check
	Logger        *slog.Logger
	PollInterval  time.Duration // How often to sweep (default: 30s)
	PendingGrace  time.Duration // How long a material may stay pending before it is re-enqueued (default: 2m)
	BatchSize     int           // Max materials enqueued per sweep (default: 100)
	LockTTL       time.Duration // TTL for the distributed lock (default: 60s)
}

// NewScheduler creates a new scheduler.
func NewScheduler(cfg SchedulerConfig) *Scheduler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	interval := cfg.PollInterval
	if interval <= 0 {
		interval = 30 * time.Second
	}
	grace := cfg.PendingGrace
	if grace <= 0 {
		grace = 2 * time.Minute
	}
	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = 100
	}
	lockTTL := cfg.LockTTL
	if lockTTL <= 0 {
		lockTTL = 2 * interval
	}

	return &Scheduler{
		materials: cfg.MaterialStore,
		taskQueue: cfg.TaskQueue,
		lock:      cfg.Lock,
		services:  cfg.Services,
		logger:    logger,
		interval:  interval,
		grace:     grace,
		batchSize: batchSize,
		lockTTL:   lockTTL,
	}
}

// Start begins the scheduler loop.
// It runs until Stop is called or context is cancelled.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = true
	s.stopCh = make(chan struct{})
	s.doneCh = make(chan struct{})
	s.mu.Unlock()

	s.logger.Info("scheduler starting", "poll_interval", s.interval, "pending_grace", s.grace)

	go s.run(ctx)

	return nil
}

// Stop gracefully stops the scheduler.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	close(s.stopCh)
	s.mu.Unlock()

	<-s.doneCh

	s.mu.Lock()
	s.running = false
	s.mu.Unlock()

	s.logger.Info("scheduler stopped")
}

func (s *Scheduler) run(ctx context.Context) {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	// Run immediately on start
	s.Sweep(ctx)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("scheduler context cancelled")
			return
		case <-s.stopCh:
			return
		case <-ticker.C:
			s.Sweep(ctx)
		}
	}
}

// Sweep runs one housekeeping cycle and returns the number of ingest tasks enqueued.
func (s *Scheduler) Sweep(ctx context.Context) int {
	if s.services != nil {
		if err := s.services.CheckHealth(ctx); err != nil {
			s.logger.Warn("embedding service unhealthy", "error", err)
		}
	}

	if s.lock != nil {
		acquired, err := s.lock.Acquire(ctx, schedulerLockName, s.lockTTL)
		if err != nil {
			s.logger.Warn("failed to acquire scheduler lock", "error", err)
			return 0
		}
		if !acquired {
			s.logger.Debug("scheduler lock held by another instance, skipping cycle")
			return 0
		}
		defer func() {
			if err := s.lock.Release(context.WithoutCancel(ctx), schedulerLockName); err != nil {
				s.logger.Warn("failed to release scheduler lock", "error", err)
			}
		}()
	}

	pending, err := s.materials.ListByStatus(ctx, domain.ProcessingPending, s.batchSize)
	if err != nil {
		s.logger.Error("failed to list pending materials", "error", err)
		return 0
	}

	cutoff := time.Now().Add(-s.grace)
	enqueued := 0
	for _, m := range pending {
		if m.UploadedAt.After(cutoff) {
			continue
		}

		task := domain.NewIngestMaterialTask(m.CourseID, m.ID)
		if err := s.taskQueue.Enqueue(ctx, task); err != nil {
			s.logger.Error("failed to enqueue ingest task",
				"material_id", m.ID,
				"error", err,
			)
			continue
		}
		enqueued++
		s.logger.Info("enqueued ingest task for pending material",
			"material_id", m.ID,
			"task_id", task.ID,
		)
	}
	return enqueued
}
