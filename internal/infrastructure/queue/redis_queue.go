package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"metaforge-shopify-sync/internal/domain"
	"metaforge-shopify-sync/internal/infrastructure/pubsub"
	"metaforge-shopify-sync/internal/ports"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Options configures the queue's admission control. The defaults encode the
// deliberate backpressure against the remote platform's API budget: one job
// at a time, at least a second between starts.
type Options struct {
	// Key is the Redis list the queue drains.
	Key string
	// MinInterval is the minimum spacing between job starts.
	MinInterval time.Duration
	// PopTimeout bounds each blocking pop so the consumer can observe
	// context cancellation.
	PopTimeout time.Duration
	// StatusTTL is how long per-job status records are retained.
	StatusTTL time.Duration
}

// DefaultOptions returns the production queue configuration.
func DefaultOptions() Options {
	return Options{
		Key:         "metaforge:jobs",
		MinInterval: time.Second,
		PopTimeout:  5 * time.Second,
		StatusTTL:   24 * time.Hour,
	}
}

// JobStatus is the persisted per-job state, readable by id after the job has
// left the list.
type JobStatus struct {
	Status   string `json:"status"`
	Progress int    `json:"progress"`
	Error    string `json:"error,omitempty"`
}

// RedisQueue is a durable work queue over a Redis list. A single consumer
// goroutine drains it serially; there is no concurrent admission. Failed
// jobs are recorded and not retried.
type RedisQueue struct {
	rdb     *redis.Client
	handler ports.JobHandler
	events  *pubsub.JobPubSub
	metrics *Metrics
	opts    Options
	logger  zerolog.Logger

	lastStart time.Time
}

// NewRedisQueue creates a queue over the given Redis client. The handler is
// invoked for every popped job; events are published on the job event bus.
func NewRedisQueue(
	rdb *redis.Client,
	handler ports.JobHandler,
	events *pubsub.JobPubSub,
	metrics *Metrics,
	logger zerolog.Logger,
	opts Options,
) *RedisQueue {
	if opts.Key == "" {
		opts.Key = DefaultOptions().Key
	}
	if opts.MinInterval <= 0 {
		opts.MinInterval = time.Second
	}
	if opts.PopTimeout <= 0 {
		opts.PopTimeout = 5 * time.Second
	}
	if opts.StatusTTL <= 0 {
		opts.StatusTTL = 24 * time.Hour
	}
	return &RedisQueue{
		rdb:     rdb,
		handler: handler,
		events:  events,
		metrics: metrics,
		opts:    opts,
		logger:  logger,
	}
}

// Enqueue admits a job to the tail of the queue.
func (q *RedisQueue) Enqueue(ctx context.Context, job *domain.Job) error {
	payload, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to encode job: %w", err)
	}

	if err := q.rdb.LPush(ctx, q.opts.Key, payload).Err(); err != nil {
		return fmt.Errorf("failed to enqueue job: %w", err)
	}
	q.setStatus(ctx, job.ID, "queued", 0, "")
	if q.metrics != nil {
		q.metrics.JobsQueued.Inc()
	}
	q.publish(&domain.JobEvent{Type: domain.JobQueued, JobID: job.ID, RuleID: job.RuleID, At: time.Now()})

	q.logger.Info().
		Str("jobId", job.ID).
		Str("ruleId", job.RuleID).
		Msg("Job enqueued")
	return nil
}

// Run drains the queue until the context is cancelled. It is the single
// consumer: at most one job runs at a time system-wide.
func (q *RedisQueue) Run(ctx context.Context) error {
	q.logger.Info().
		Str("key", q.opts.Key).
		Dur("minInterval", q.opts.MinInterval).
		Msg("Queue consumer started")

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		result, err := q.rdb.BRPop(ctx, q.opts.PopTimeout, q.opts.Key).Result()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			q.logger.Error().Err(err).Msg("Queue pop failed")
			select {
			case <-time.After(time.Second):
			case <-ctx.Done():
				return ctx.Err()
			}
			continue
		}

		var job domain.Job
		if err := json.Unmarshal([]byte(result[1]), &job); err != nil {
			q.logger.Error().Err(err).Msg("Discarding undecodable job payload")
			continue
		}

		if err := q.throttle(ctx); err != nil {
			return err
		}
		q.process(ctx, &job)
	}
}

// throttle enforces the minimum spacing between job starts.
func (q *RedisQueue) throttle(ctx context.Context) error {
	if q.lastStart.IsZero() {
		return nil
	}
	if wait := q.opts.MinInterval - time.Since(q.lastStart); wait > 0 {
		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

func (q *RedisQueue) process(ctx context.Context, job *domain.Job) {
	q.lastStart = time.Now()
	if q.metrics != nil {
		q.metrics.JobsInFlight.Inc()
		defer q.metrics.JobsInFlight.Dec()
	}

	q.setStatus(ctx, job.ID, "active", 0, "")
	q.publish(&domain.JobEvent{Type: domain.JobStarted, JobID: job.ID, RuleID: job.RuleID, At: time.Now()})

	progress := func(percent int) {
		if percent < 0 {
			percent = 0
		}
		if percent > 100 {
			percent = 100
		}
		q.setStatus(ctx, job.ID, "active", percent, "")
		q.publish(&domain.JobEvent{Type: domain.JobProgress, JobID: job.ID, RuleID: job.RuleID, Progress: percent, At: time.Now()})
	}

	err := q.handler.Handle(ctx, job, progress)
	elapsed := time.Since(q.lastStart)
	if q.metrics != nil {
		q.metrics.JobDuration.Observe(elapsed.Seconds())
	}

	if err != nil {
		q.setStatus(ctx, job.ID, "failed", 0, err.Error())
		if q.metrics != nil {
			q.metrics.JobsFailed.Inc()
		}
		q.publish(&domain.JobEvent{Type: domain.JobFailed, JobID: job.ID, RuleID: job.RuleID, Error: err.Error(), At: time.Now()})
		q.logger.Error().
			Err(err).
			Str("jobId", job.ID).
			Str("ruleId", job.RuleID).
			Dur("elapsed", elapsed).
			Msg("Job failed")
		return
	}

	q.setStatus(ctx, job.ID, "completed", 100, "")
	if q.metrics != nil {
		q.metrics.JobsCompleted.Inc()
	}
	q.publish(&domain.JobEvent{Type: domain.JobCompleted, JobID: job.ID, RuleID: job.RuleID, Progress: 100, At: time.Now()})
	q.logger.Info().
		Str("jobId", job.ID).
		Str("ruleId", job.RuleID).
		Dur("elapsed", elapsed).
		Msg("Job completed")
}

// Status reads the persisted state of a job by id, or nil if unknown.
func (q *RedisQueue) Status(ctx context.Context, jobID string) (*JobStatus, error) {
	fields, err := q.rdb.HGetAll(ctx, q.statusKey(jobID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read job status: %w", err)
	}
	if len(fields) == 0 {
		return nil, nil
	}
	progress, _ := strconv.Atoi(fields["progress"])
	return &JobStatus{
		Status:   fields["status"],
		Progress: progress,
		Error:    fields["error"],
	}, nil
}

func (q *RedisQueue) statusKey(jobID string) string {
	return q.opts.Key + ":" + jobID
}

func (q *RedisQueue) setStatus(ctx context.Context, jobID, status string, progress int, errText string) {
	key := q.statusKey(jobID)
	fields := map[string]any{
		"status":   status,
		"progress": progress,
	}
	if errText != "" {
		fields["error"] = errText
	}
	if err := q.rdb.HSet(ctx, key, fields).Err(); err != nil {
		q.logger.Warn().Err(err).Str("jobId", jobID).Msg("Failed to record job status")
		return
	}
	q.rdb.Expire(ctx, key, q.opts.StatusTTL)
}

func (q *RedisQueue) publish(event *domain.JobEvent) {
	if q.events != nil {
		q.events.Publish(event)
	}
}
