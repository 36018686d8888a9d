package services

import (
	"context"
	"errors"
	"log"
	"os"
	"sync"
	"time"

	"radisnap/store"
	"radisnap/types"
)

// ErrBatchActive is returned when a batch is started while one is running.
var ErrBatchActive = errors.New("a download batch is already running")

// Notifier delivers job events to the UI layer. Events for a single job are
// delivered in emission order.
type Notifier interface {
	Notify(event types.Event)
}

// Scheduler dispatches download jobs with bounded parallelism, tracks their
// progress, and commits terminal results back to the booking store.
//
// One instance is constructed at startup and injected into its callers;
// Run may not be re-entered while a batch is active.
type Scheduler struct {
	bookings   store.BookingStore
	downloads  store.DownloadStore
	quota      *QuotaGate
	transcoder Transcoder
	notifier   Notifier
	leaser     Leaser
	wake       WakeLock

	// mu is the single serialization point for every mutation of shared
	// batch state, including persisted status writes from worker callbacks.
	mu        sync.Mutex
	running   bool
	cancelled bool
	handles   map[string]TranscodeHandle
}

// NewScheduler creates a scheduler over its collaborators.
func NewScheduler(bookings store.BookingStore, downloads store.DownloadStore, quota *QuotaGate, transcoder Transcoder, notifier Notifier, leaser Leaser, wake WakeLock) *Scheduler {
	return &Scheduler{
		bookings:   bookings,
		downloads:  downloads,
		quota:      quota,
		transcoder: transcoder,
		notifier:   notifier,
		leaser:     leaser,
		wake:       wake,
		handles:    make(map[string]TranscodeHandle),
	}
}

// Running reports whether a batch is currently active.
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Cancel requests cooperative cancellation of the running batch: jobs not
// yet dispatched never start a worker and every in-flight worker receives a
// terminate signal. Idempotent; also invoked on lease expiry.
func (s *Scheduler) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running || s.cancelled {
		return
	}
	s.cancelled = true
	log.Printf("Cancelling batch: %d worker(s) in flight", len(s.handles))
	for _, handle := range s.handles {
		handle.Cancel()
	}
}

// Run executes one batch. Jobs are dispatched in input order with at most
// maxConcurrency active workers; completion order is not guaranteed and the
// returned results carry one entry per input job, correlated by id. Run
// returns exactly once per call, after every job's terminal status has been
// persisted, regardless of how the batch ended.
func (s *Scheduler) Run(ctx context.Context, jobs []types.DownloadJob, token string, maxConcurrency int) ([]types.JobResult, error) {
	if maxConcurrency < 1 {
		maxConcurrency = 1
	}

	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil, ErrBatchActive
	}
	s.running = true
	s.cancelled = false
	s.handles = make(map[string]TranscodeHandle)
	s.mu.Unlock()

	lease := s.leaser.Acquire("audio-batch-download", s.Cancel)
	s.wake.Engage()

	var wakeReleased sync.Once
	defer func() {
		lease.Release()
		wakeReleased.Do(s.wake.Release)

		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	log.Printf("Batch started: %d job(s), max %d in parallel", len(jobs), maxConcurrency)

	// Slot admission happens here, in the coordinating goroutine, before a
	// worker goroutine is spawned; a waiting job never occupies a worker.
	slots := make(chan struct{}, maxConcurrency)
	var wg sync.WaitGroup

	for i := range jobs {
		if s.isCancelled() {
			s.finishJob(ctx, &jobs[i], types.OutcomeCancelled)
			continue
		}

		slots <- struct{}{}

		// Re-check after waiting: the flag may have been raised while
		// this job was queued for a slot.
		if s.isCancelled() {
			<-slots
			s.finishJob(ctx, &jobs[i], types.OutcomeCancelled)
			continue
		}

		wg.Add(1)
		go func(job *types.DownloadJob) {
			defer func() {
				<-slots
				wg.Done()
			}()
			s.runJob(ctx, job, token)
		}(&jobs[i])
	}

	wg.Wait()

	results := make([]types.JobResult, 0, len(jobs))
	for i := range jobs {
		results = append(results, types.JobResult{
			ID:     jobs[i].ID,
			Title:  jobs[i].Title,
			Status: jobs[i].Outcome.Status(),
		})
	}
	log.Printf("Batch finished: %d result(s)", len(results))
	return results, nil
}

func (s *Scheduler) isCancelled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancelled
}

// runJob drives a single job from dispatch to its terminal status.
func (s *Scheduler) runJob(ctx context.Context, job *types.DownloadJob, token string) {
	// Idempotent retry: a stale file from a previous attempt is removed
	// before the worker writes the same deterministic path.
	if _, err := os.Stat(job.OutputPath); err == nil {
		if err := os.Remove(job.OutputPath); err != nil {
			log.Printf("Could not remove stale file %s: %v", job.OutputPath, err)
		} else {
			log.Printf("Removed stale file: %s", job.OutputPath)
		}
	}

	s.mu.Lock()
	if _, err := s.bookings.UpdateStatus(ctx, job.ID, types.StatusDownloading); err != nil {
		log.Printf("Status write failed for job %s: %v", job.ID, err)
	}
	s.notifier.Notify(types.Event{
		JobID:     job.ID,
		Kind:      types.EventStarted,
		Message:   job.Title,
		Timestamp: time.Now(),
	})
	s.mu.Unlock()

	done := make(chan bool, 1)

	var progressMu sync.Mutex
	lastPercent := -1
	onProgress := func(elapsedMs int64) {
		if job.ExpectedSec <= 0 {
			return
		}
		percent := int(float64(elapsedMs) / float64(job.ExpectedSec*1000) * 100)
		if percent < 0 {
			percent = 0
		}
		if percent > 100 {
			percent = 100
		}

		progressMu.Lock()
		changed := percent > lastPercent
		if changed {
			lastPercent = percent
		}
		progressMu.Unlock()

		// Emit only when the integer percent moves, so the bus is not
		// flooded by the worker's statistics cadence.
		if changed {
			s.notifier.Notify(types.Event{
				JobID:     job.ID,
				Kind:      types.EventProgress,
				Percent:   percent,
				Timestamp: time.Now(),
			})
		}
	}

	handle, err := s.transcoder.Start(TranscodeRequest{
		StreamURL:  job.StreamURL,
		OutputPath: job.OutputPath,
		AuthToken:  token,
		CoverPath:  job.CoverPath,
		Artist:     job.Artist,
		Album:      job.Title,
	}, onProgress, func(success bool) {
		done <- success
	})
	if err != nil {
		log.Printf("Worker start failed for job %s: %v", job.ID, err)
		outcome := types.OutcomeFailure
		if s.isCancelled() {
			outcome = types.OutcomeCancelled
		}
		s.finishJob(ctx, job, outcome)
		return
	}

	s.mu.Lock()
	s.handles[job.ID] = handle
	if s.cancelled {
		// Cancel raced with the worker start; terminate it now.
		handle.Cancel()
	}
	s.mu.Unlock()

	success := <-done

	s.mu.Lock()
	delete(s.handles, job.ID)
	cancelled := s.cancelled
	s.mu.Unlock()

	var outcome types.JobOutcome
	switch {
	case cancelled:
		// A requested cancellation wins over the worker's exit code.
		outcome = types.OutcomeCancelled
	case success:
		outcome = types.OutcomeSuccess
	default:
		outcome = types.OutcomeFailure
	}
	log.Printf("Job %s [%s] finished: %s", job.ID, job.Title, outcome.Status())
	s.finishJob(ctx, job, outcome)
}

// finishJob records a job's terminal outcome: persists the status, updates
// the library and the coupon balance on success, and emits the terminal
// event. Serialized with every other state mutation.
func (s *Scheduler) finishJob(ctx context.Context, job *types.DownloadJob, outcome types.JobOutcome) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job.Outcome = outcome
	status := outcome.Status()
	if _, err := s.bookings.UpdateStatus(ctx, job.ID, status); err != nil {
		log.Printf("Status write failed for job %s: %v", job.ID, err)
	}

	percent := 0
	if outcome == types.OutcomeSuccess {
		percent = 100
		s.recordDownload(ctx, job)
		if err := s.quota.ConsumeOne(ctx); err != nil {
			log.Printf("Coupon consume failed for job %s: %v", job.ID, err)
		}
	}

	s.notifier.Notify(types.Event{
		JobID:          job.ID,
		Kind:           types.EventCompleted,
		Percent:        percent,
		TerminalStatus: status,
		Message:        job.Title,
		Timestamp:      time.Now(),
	})
}

// recordDownload adds the finished recording to the playlist library,
// replacing any previous entry for the same (station, start) pair; the
// on-disk file was already overwritten at the same path.
func (s *Scheduler) recordDownload(ctx context.Context, job *types.DownloadJob) {
	rec, err := s.bookings.Get(ctx, job.ID)
	if err != nil {
		log.Printf("Library record skipped for job %s: %v", job.ID, err)
		return
	}

	if existing, err := s.downloads.Exists(ctx, rec.StationID, rec.Start); err == nil && existing != "" {
		_ = s.downloads.Remove(ctx, existing)
	}

	dl := types.DownloadRecord{
		StationID:   rec.StationID,
		StationName: job.Artist,
		Start:       rec.Start,
		End:         rec.End,
		Title:       rec.Title,
		Performer:   rec.Performer,
		ImageURL:    rec.ImageURL,
		DurationSec: job.ExpectedSec,
	}
	if _, err := s.downloads.Store(ctx, &dl); err != nil {
		log.Printf("Library record failed for job %s: %v", job.ID, err)
	}
}
