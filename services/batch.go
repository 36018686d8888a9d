package services

import (
	"context"
	"errors"
	"log"
)

// ErrNoReservations is returned when a batch is requested with nothing to download.
var ErrNoReservations = errors.New("no reserved bookings to download")

// BatchRunner is the outward face of the download pipeline: it authenticates,
// builds the job list from reserved bookings, and hands the batch to the
// scheduler on a background goroutine. HTTP handlers and the CLI both drive it.
type BatchRunner struct {
	auth           *AuthClient
	builder        *JobBuilder
	scheduler      *Scheduler
	maxConcurrency int
}

// NewBatchRunner creates a runner over its collaborators. maxConcurrency is
// resolved once at startup from the user's entitlement.
func NewBatchRunner(auth *AuthClient, builder *JobBuilder, scheduler *Scheduler, maxConcurrency int) *BatchRunner {
	return &BatchRunner{
		auth:           auth,
		builder:        builder,
		scheduler:      scheduler,
		maxConcurrency: maxConcurrency,
	}
}

// Start authenticates and launches a batch for every reserved booking.
// The expensive download phase runs asynchronously; progress and terminal
// states are published through the scheduler's notifier. Errors that prevent
// the batch from starting at all (nothing reserved, authentication failure,
// a batch already active) are returned synchronously so the caller can
// surface a retryable failure instead of partial results.
func (b *BatchRunner) Start(ctx context.Context, creds Credentials) error {
	if b.scheduler.Running() {
		return ErrBatchActive
	}

	jobs, err := b.builder.Build(ctx)
	if err != nil {
		return err
	}
	if len(jobs) == 0 {
		return ErrNoReservations
	}

	token, err := b.auth.Authenticate(ctx, creds)
	if err != nil {
		return err
	}

	go func() {
		results, err := b.scheduler.Run(context.Background(), jobs, token, b.maxConcurrency)
		if err != nil {
			log.Printf("Batch did not run: %v", err)
			return
		}
		for _, r := range results {
			log.Printf("  %s: %s", r.Title, r.Status)
		}
	}()
	return nil
}

// Cancel forwards a cancellation request to the running batch, if any.
func (b *BatchRunner) Cancel() {
	b.scheduler.Cancel()
}

// Running reports whether a batch is currently in flight.
func (b *BatchRunner) Running() bool {
	return b.scheduler.Running()
}
