package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/custodia-labs/similarity-core/internal/core/domain"
	"github.com/custodia-labs/similarity-core/internal/core/ports/driven"
)

const (
	// Stream names. Checks have their own stream so a waiting user is not
	// queued behind a bulk ingestion.
	urgentStream   = "similarity:tasks:urgent"
	taskStream     = "similarity:tasks"
	taskGroup      = "similarity:workers"
	scheduledTasks = "similarity:scheduled"

	// Key prefixes
	taskKeyPrefix = "similarity:task:"
	msgKeySuffix  = ":msg"

	// Default consumer name prefix
	consumerPrefix = "worker-"

	// Task records outlive their processing by this long
	taskTTL = 24 * time.Hour

	// Claim timeout - how long before a task is considered abandoned
	claimTimeout = 5 * time.Minute

	// Longest single blocking read, so urgent tasks are noticed while waiting
	maxBlock = time.Second
)

// Verify interface compliance
var _ driven.TaskQueue = (*Queue)(nil)

// Queue implements TaskQueue using Redis Streams.
// Redis Streams provide reliable message queuing with consumer groups
// and acknowledgment tracking. Task state lives in a JSON record per task.
type Queue struct {
	client       *redis.Client
	consumerName string
}

// NewQueue creates a new Redis-backed task queue.
// The consumerName should be unique per worker instance (e.g., hostname + PID).
func NewQueue(ctx context.Context, client *redis.Client, consumerName string) (*Queue, error) {
	if client == nil {
		return nil, errors.New("redis client is required")
	}
	if consumerName == "" {
		consumerName = fmt.Sprintf("%s%d", consumerPrefix, time.Now().UnixNano())
	}

	q := &Queue{
		client:       client,
		consumerName: consumerName,
	}

	for _, stream := range []string{urgentStream, taskStream} {
		err := q.client.XGroupCreateMkStream(ctx, stream, taskGroup, "0").Err()
		if err != nil && !isGroupExistsError(err) {
			return nil, fmt.Errorf("failed to create consumer group: %w", err)
		}
	}

	return q, nil
}

// streamFor picks the stream by priority
func streamFor(task *domain.Task) string {
	if task.Priority > 0 {
		return urgentStream
	}
	return taskStream
}

func streamValues(task *domain.Task) map[string]interface{} {
	return map[string]interface{}{
		"task_id":   task.ID,
		"type":      string(task.Type),
		"course_id": task.CourseID,
		"priority":  task.Priority,
	}
}

// Enqueue adds a task to the queue for processing.
func (q *Queue) Enqueue(ctx context.Context, task *domain.Task) error {
	if task == nil {
		return errors.New("task is required")
	}

	taskData, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("failed to marshal task: %w", err)
	}

	pipe := q.client.Pipeline()
	pipe.Set(ctx, taskKeyPrefix+task.ID, taskData, taskTTL)

	if task.ScheduledFor.After(time.Now()) {
		pipe.ZAdd(ctx, scheduledTasks, redis.Z{
			Score:  float64(task.ScheduledFor.Unix()),
			Member: task.ID,
		})
	} else {
		pipe.XAdd(ctx, &redis.XAddArgs{
			Stream: streamFor(task),
			Values: streamValues(task),
		})
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to enqueue task: %w", err)
	}

	return nil
}

// DequeueWithTimeout retrieves the next available task, waiting up to timeout.
// Urgent tasks are always taken before normal ones.
func (q *Queue) DequeueWithTimeout(ctx context.Context, timeout time.Duration) (*domain.Task, error) {
	// Best effort; a failure here only delays retries
	_ = q.promoteScheduledTasks(ctx)

	task, err := q.claimAbandonedTask(ctx)
	if err == nil && task != nil {
		return task, nil
	}

	deadline := time.Now().Add(timeout)
	for {
		task, err := q.read(ctx, urgentStream, -1)
		if err != nil || task != nil {
			return task, err
		}

		wait := time.Until(deadline)
		if wait <= 0 {
			return nil, nil
		}
		if wait > maxBlock {
			wait = maxBlock
		}

		task, err = q.read(ctx, taskStream, wait)
		if err != nil || task != nil {
			return task, err
		}
		if ctx.Err() != nil {
			return nil, nil
		}
	}
}

// read takes one new message from a stream. A negative block does not wait.
func (q *Queue) read(ctx context.Context, stream string, block time.Duration) (*domain.Task, error) {
	streams, err := q.client.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    taskGroup,
		Consumer: q.consumerName,
		Streams:  []string{stream, ">"},
		Count:    1,
		Block:    block,
	}).Result()

	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read from stream: %w", err)
	}

	if len(streams) == 0 || len(streams[0].Messages) == 0 {
		return nil, nil
	}

	return q.start(ctx, stream, streams[0].Messages[0])
}

// start loads the task behind a delivered message and marks it processing.
// Messages without a task record are acknowledged and dropped.
func (q *Queue) start(ctx context.Context, stream string, msg redis.XMessage) (*domain.Task, error) {
	taskID, ok := msg.Values["task_id"].(string)
	if !ok {
		q.drop(ctx, stream, msg.ID)
		return nil, nil
	}

	task, err := q.GetTask(ctx, taskID)
	if errors.Is(err, domain.ErrNotFound) {
		q.drop(ctx, stream, msg.ID)
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get task data: %w", err)
	}

	task.MarkProcessing()

	taskData, err := json.Marshal(task)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal task: %w", err)
	}
	pipe := q.client.Pipeline()
	pipe.Set(ctx, taskKeyPrefix+task.ID, taskData, taskTTL)
	pipe.Set(ctx, taskKeyPrefix+task.ID+msgKeySuffix, stream+"|"+msg.ID, taskTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("failed to mark task processing: %w", err)
	}

	return task, nil
}

func (q *Queue) drop(ctx context.Context, stream, msgID string) {
	q.client.XAck(ctx, stream, taskGroup, msgID)
	q.client.XDel(ctx, stream, msgID)
}

// Ack acknowledges successful completion of a task.
func (q *Queue) Ack(ctx context.Context, taskID string) error {
	return q.finish(ctx, taskID, func(task *domain.Task, pipe redis.Pipeliner) {
		task.MarkCompleted()
	})
}

// Nack indicates task processing failed. The task is rescheduled with backoff
// while attempts remain and marked failed after that.
func (q *Queue) Nack(ctx context.Context, taskID string, reason string) error {
	return q.finish(ctx, taskID, func(task *domain.Task, pipe redis.Pipeliner) {
		if !task.CanRetry() {
			task.MarkFailed(reason)
			return
		}
		task.Retry(reason)
		pipe.ZAdd(ctx, scheduledTasks, redis.Z{
			Score:  float64(task.ScheduledFor.Unix()),
			Member: task.ID,
		})
	})
}

// Fail marks a task failed without further retries.
func (q *Queue) Fail(ctx context.Context, taskID string, reason string) error {
	return q.finish(ctx, taskID, func(task *domain.Task, pipe redis.Pipeliner) {
		task.MarkFailed(reason)
	})
}

// finish acknowledges the task's stream message and stores the updated record
func (q *Queue) finish(ctx context.Context, taskID string, update func(*domain.Task, redis.Pipeliner)) error {
	task, err := q.GetTask(ctx, taskID)
	if err != nil {
		return err
	}

	ref, err := q.client.Get(ctx, taskKeyPrefix+taskID+msgKeySuffix).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("failed to get message ID: %w", err)
	}

	pipe := q.client.Pipeline()

	if stream, msgID, ok := strings.Cut(ref, "|"); ok {
		pipe.XAck(ctx, stream, taskGroup, msgID)
		pipe.XDel(ctx, stream, msgID)
	}

	update(task, pipe)

	taskData, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("failed to marshal task: %w", err)
	}
	pipe.Set(ctx, taskKeyPrefix+taskID, taskData, taskTTL)
	pipe.Del(ctx, taskKeyPrefix+taskID+msgKeySuffix)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to update task: %w", err)
	}

	return nil
}

// GetTask retrieves a task by ID.
func (q *Queue) GetTask(ctx context.Context, taskID string) (*domain.Task, error) {
	data, err := q.client.Get(ctx, taskKeyPrefix+taskID).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get task: %w", err)
	}

	var task domain.Task
	if err := json.Unmarshal([]byte(data), &task); err != nil {
		return nil, fmt.Errorf("failed to unmarshal task: %w", err)
	}

	return &task, nil
}

// ListTasks retrieves tasks matching the filter criteria, newest first.
// This scans every task record, so it is meant for admin use.
func (q *Queue) ListTasks(ctx context.Context, filter driven.TaskFilter) ([]*domain.Task, error) {
	var tasks []*domain.Task

	err := q.scanTasks(ctx, func(task *domain.Task) {
		if filter.CourseID != "" && task.CourseID != filter.CourseID {
			return
		}
		if filter.Status != "" && task.Status != filter.Status {
			return
		}
		if filter.Type != "" && task.Type != filter.Type {
			return
		}
		tasks = append(tasks, task)
	})
	if err != nil {
		return nil, err
	}

	// uuid v7 ids sort by creation time
	sort.Slice(tasks, func(i, j int) bool { return tasks[i].ID > tasks[j].ID })

	if filter.Limit > 0 && len(tasks) > filter.Limit {
		tasks = tasks[:filter.Limit]
	}
	return tasks, nil
}

// Stats returns queue statistics.
func (q *Queue) Stats(ctx context.Context) (*driven.QueueStats, error) {
	stats := &driven.QueueStats{}

	err := q.scanTasks(ctx, func(task *domain.Task) {
		switch task.Status {
		case domain.TaskStatusPending:
			stats.PendingCount++
		case domain.TaskStatusProcessing:
			stats.ProcessingCount++
		case domain.TaskStatusCompleted:
			stats.CompletedCount++
		case domain.TaskStatusFailed:
			stats.FailedCount++
		}
	})
	if err != nil {
		return nil, err
	}
	return stats, nil
}

// scanTasks visits every stored task record
func (q *Queue) scanTasks(ctx context.Context, visit func(*domain.Task)) error {
	var cursor uint64
	pattern := taskKeyPrefix + "*"

	for {
		keys, newCursor, err := q.client.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			return fmt.Errorf("failed to scan tasks: %w", err)
		}

		for _, key := range keys {
			if strings.HasSuffix(key, msgKeySuffix) {
				continue
			}

			data, err := q.client.Get(ctx, key).Result()
			if err != nil {
				continue
			}

			var task domain.Task
			if err := json.Unmarshal([]byte(data), &task); err != nil {
				continue
			}
			visit(&task)
		}

		cursor = newCursor
		if cursor == 0 {
			return nil
		}
	}
}

// Ping checks if the queue backend is healthy.
func (q *Queue) Ping(ctx context.Context) error {
	return q.client.Ping(ctx).Err()
}

// Close cleans up resources.
func (q *Queue) Close() error {
	// Redis client is shared, don't close it here
	return nil
}

// promoteScheduledTasks moves due scheduled tasks to their stream.
func (q *Queue) promoteScheduledTasks(ctx context.Context) error {
	now := time.Now().Unix()

	ids, err := q.client.ZRangeByScore(ctx, scheduledTasks, &redis.ZRangeBy{
		Min: "-inf",
		Max: fmt.Sprintf("%d", now),
	}).Result()
	if err != nil {
		return err
	}

	if len(ids) == 0 {
		return nil
	}

	pipe := q.client.Pipeline()

	for _, taskID := range ids {
		pipe.ZRem(ctx, scheduledTasks, taskID)

		task, err := q.GetTask(ctx, taskID)
		if err != nil || task.Status != domain.TaskStatusPending {
			continue
		}

		pipe.XAdd(ctx, &redis.XAddArgs{
			Stream: streamFor(task),
			Values: streamValues(task),
		})
	}

	_, err = pipe.Exec(ctx)
	return err
}

// claimAbandonedTask tries to claim a task that was abandoned by another worker.
func (q *Queue) claimAbandonedTask(ctx context.Context) (*domain.Task, error) {
	for _, stream := range []string{urgentStream, taskStream} {
		pending, err := q.client.XPendingExt(ctx, &redis.XPendingExtArgs{
			Stream: stream,
			Group:  taskGroup,
			Start:  "-",
			End:    "+",
			Count:  10,
			Idle:   claimTimeout,
		}).Result()
		if err != nil {
			return nil, err
		}

		for _, p := range pending {
			claimed, err := q.client.XClaim(ctx, &redis.XClaimArgs{
				Stream:   stream,
				Group:    taskGroup,
				Consumer: q.consumerName,
				MinIdle:  claimTimeout,
				Messages: []string{p.ID},
			}).Result()
			if err != nil || len(claimed) == 0 {
				continue
			}

			task, err := q.start(ctx, stream, claimed[0])
			if err != nil || task == nil {
				continue
			}
			return task, nil
		}
	}

	return nil, nil
}

func isGroupExistsError(err error) bool {
	return err != nil && strings.HasPrefix(err.Error(), "BUSYGROUP")
}
