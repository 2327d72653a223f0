package ports

import (
	"context"

	"metaforge-shopify-sync/internal/domain"
)

// ProgressFunc reports fractional job progress in [0,100].
type ProgressFunc func(percent int)

// JobHandler processes one queue job. A returned error marks the job failed;
// the queue does not retry.
type JobHandler interface {
	Handle(ctx context.Context, job *domain.Job, progress ProgressFunc) error
}

// JobHandlerFunc adapts a function to the JobHandler interface.
type JobHandlerFunc func(ctx context.Context, job *domain.Job, progress ProgressFunc) error

func (f JobHandlerFunc) Handle(ctx context.Context, job *domain.Job, progress ProgressFunc) error {
	return f(ctx, job, progress)
}

// JobQueue admits rule-application jobs for the single background worker.
type JobQueue interface {
	Enqueue(ctx context.Context, job *domain.Job) error
}
