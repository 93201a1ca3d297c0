// Package jobs runs background work stored in the jobs table. Failed jobs are
// retried with backoff and moved to the dead letter table once they run out
// of attempts or fail permanently.
package jobs

import (
	"context"
	"errors"
	"time"

	"github.com/garnizeh/portfolio/pkg/models"
	"github.com/garnizeh/portfolio/pkg/repository"
)

// Job statuses as stored in the jobs table.
const (
	StatusQueued  = "queued"
	StatusRunning = "running"
	StatusRetry   = "retry"
	StatusDone    = "done"
	StatusFailed  = "failed"
)

// Store is the persistence the worker pool needs.
type Store interface {
	repository.JobRepo
	// RequeueRunning returns jobs stuck in 'running' to the queue.
	RequeueRunning(ctx context.Context) (int64, error)
}

// Handler is the function that processes a job
type Handler func(ctx context.Context, j *models.BackgroundJob) error

// ErrMaxAttempts indicates the job reached max attempts
var ErrMaxAttempts = errors.New("max attempts reached")

// ErrPermanent marks a handler failure that retrying cannot fix. Handlers wrap
// it and the job goes straight to the dead letter table.
var ErrPermanent = errors.New("permanent job failure")

// BackoffDuration returns exponential backoff duration for attempt n
func BackoffDuration(attempt int) time.Duration {
	if attempt <= 0 {
		return time.Second
	}
	if attempt > 16 {
		attempt = 16
	}
	// simple exponential: base 2^attempt seconds, capped
	d := time.Duration(1<<uint(attempt)) * time.Second
	max := 5 * time.Minute
	if d > max {
		return max
	}
	return d
}
