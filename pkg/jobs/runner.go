package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ccsmith33/GroupProject2-sub001/pkg/config"
	"github.com/ccsmith33/GroupProject2-sub001/pkg/observability"
)

// Handler executes one job. A nil error completes the job; any error
// sends it down the retry path.
type Handler func(ctx context.Context, job *Job) error

// Runner executes jobs from a shared queue with a fixed-size worker
// pool. It owns every status transition: Pending -> Processing ->
// Completed, Pending (retry) or Failed. A Failed job is terminal and is
// never retried again.
type Runner struct {
	cfg   config.QueueConfig
	queue *Queue
	store Store

	handlersMu sync.RWMutex
	handlers   map[Kind]Handler

	ctx    context.Context
	cancel context.CancelFunc

	workerWG sync.WaitGroup
	retryWG  sync.WaitGroup

	stateMu sync.Mutex
	started bool
	stopped bool
}

// NewRunner creates a runner with its own queue and the given store.
func NewRunner(cfg config.QueueConfig, store Store) *Runner {
	ctx, cancel := context.WithCancel(context.Background())
	return &Runner{
		cfg:      cfg,
		queue:    NewQueue(cfg.Size),
		store:    store,
		handlers: make(map[Kind]Handler),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// RegisterHandler installs the handler for a job kind. Registration must
// happen before Start.
func (r *Runner) RegisterHandler(kind Kind, handler Handler) {
	r.handlersMu.Lock()
	defer r.handlersMu.Unlock()
	r.handlers[kind] = handler
}

// Enqueue submits a job for execution. Fire-and-forget: it records the
// job as Pending and returns without waiting for execution.
func (r *Runner) Enqueue(job *Job) error {
	r.stateMu.Lock()
	stopped := r.stopped
	r.stateMu.Unlock()
	if stopped {
		return ErrQueueClosed
	}

	if err := r.store.Save(context.Background(), job); err != nil {
		return fmt.Errorf("failed to record job: %w", err)
	}
	if err := r.queue.Enqueue(job); err != nil {
		return err
	}

	slog.Debug("Job enqueued", "job_id", job.ID, "kind", job.Kind)
	return nil
}

// Resume requeues jobs a previous run recorded as Pending, so work
// still buffered at the last shutdown is picked up again when the store
// is durable. Call it after Start and before submitting new work.
func (r *Runner) Resume(ctx context.Context) (int, error) {
	pending, err := r.store.ListByStatus(ctx, StatusPending)
	if err != nil {
		return 0, fmt.Errorf("failed to list pending jobs: %w", err)
	}

	requeued := 0
	for _, job := range pending {
		if err := r.queue.Enqueue(job); err != nil {
			return requeued, err
		}
		requeued++
	}
	if requeued > 0 {
		slog.Info("Resumed pending jobs", "count", requeued)
	}
	return requeued, nil
}

// Start launches the worker pool.
func (r *Runner) Start() {
	r.stateMu.Lock()
	defer r.stateMu.Unlock()
	if r.started {
		return
	}
	r.started = true

	for i := 0; i < r.cfg.Workers; i++ {
		r.workerWG.Add(1)
		go r.worker(i)
	}

	slog.Info("Job runner started", "workers", r.cfg.Workers, "max_retries", r.cfg.MaxRetries)
}

// Stop shuts the runner down: intake closes immediately, in-flight and
// already-buffered jobs get until ctx expires to finish, then handler
// contexts are cancelled. Jobs that started always reach a recorded
// terminal status; jobs still buffered at expiry stay Pending.
func (r *Runner) Stop(ctx context.Context) error {
	r.stateMu.Lock()
	if r.stopped {
		r.stateMu.Unlock()
		return nil
	}
	r.stopped = true
	r.stateMu.Unlock()

	r.queue.Close()

	done := make(chan struct{})
	go func() {
		// Workers are the only spawners of retry goroutines, so they
		// must drain first or a retry scheduled mid-shutdown is missed.
		r.workerWG.Wait()
		r.retryWG.Wait()
		close(done)
	}()

	select {
	case <-done:
		slog.Info("Job runner stopped")
		return nil
	case <-ctx.Done():
		r.cancel()
		<-done
		slog.Warn("Job runner stopped after grace period expired")
		return ctx.Err()
	}
}

func (r *Runner) worker(id int) {
	defer r.workerWG.Done()

	for job := range r.queue.Jobs() {
		if r.ctx.Err() != nil {
			// Shutdown grace period expired; leave drained jobs Pending.
			continue
		}
		r.process(job)
	}
	slog.Debug("Worker exiting", "worker", id)
}

func (r *Runner) process(job *Job) {
	processing := job.withStatus(StatusProcessing)
	if err := r.store.Save(context.Background(), processing); err != nil {
		slog.Warn("Failed to record job transition", "job_id", job.ID, "error", err)
	}

	r.handlersMu.RLock()
	handler, ok := r.handlers[job.Kind]
	r.handlersMu.RUnlock()

	if !ok {
		// Retrying an unrecognized kind can never succeed.
		slog.Error("Unknown job kind, failing immediately", "job_id", job.ID, "kind", job.Kind)
		r.finish(processing.withFailure(fmt.Errorf("unknown job kind: %s", job.Kind)))
		return
	}

	start := time.Now()
	err := r.invoke(handler, processing)
	observability.ObserveJobDuration(string(job.Kind), time.Since(start))

	if err == nil {
		r.finish(processing.withStatus(StatusCompleted))
		return
	}

	if processing.Retries < r.cfg.MaxRetries {
		r.retry(processing, err)
		return
	}

	slog.Error("Job failed permanently",
		"job_id", job.ID,
		"kind", job.Kind,
		"retries", processing.Retries,
		"error", err)
	r.finish(processing.withFailure(err))
}

// invoke runs the handler, converting a panic into an error so one bad
// job cannot take a worker down.
func (r *Runner) invoke(handler Handler, job *Job) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("handler panicked: %v", rec)
		}
	}()
	return handler(r.ctx, job)
}

func (r *Runner) retry(job *Job, cause error) {
	retried := job.withRetry(cause)
	if err := r.store.Save(context.Background(), retried); err != nil {
		slog.Warn("Failed to record job retry", "job_id", job.ID, "error", err)
	}
	observability.CountJobRetry(string(job.Kind))

	delay := r.backoff(retried.Retries)
	slog.Warn("Job failed, scheduling retry",
		"job_id", job.ID,
		"kind", job.Kind,
		"attempt", retried.Retries,
		"max_retries", r.cfg.MaxRetries,
		"delay", delay,
		"error", cause)

	r.retryWG.Add(1)
	go func() {
		defer r.retryWG.Done()

		timer := time.NewTimer(delay)
		defer timer.Stop()

		select {
		case <-r.ctx.Done():
			// Hard shutdown. The job already started once, so it must
			// still reach a recorded terminal status.
			r.finish(retried.withFailure(fmt.Errorf("retry abandoned during shutdown (last handler error: %s)", retried.LastError)))
			return
		case <-timer.C:
		}

		if err := r.queue.Enqueue(retried); err != nil {
			r.finish(retried.withFailure(fmt.Errorf("requeue failed: %w (last handler error: %s)", err, retried.LastError)))
		}
	}()
}

func (r *Runner) backoff(attempt int) time.Duration {
	base := r.cfg.RetryBackoff.Duration()
	delay := base << (attempt - 1)
	if max := time.Minute; delay > max {
		delay = max
	}
	return delay
}

// finish records a terminal status. It deliberately uses a fresh
// context: terminal transitions must be recorded even during shutdown.
func (r *Runner) finish(job *Job) {
	if err := r.store.Save(context.Background(), job); err != nil {
		slog.Warn("Failed to record job completion", "job_id", job.ID, "error", err)
	}
	observability.CountJobProcessed(string(job.Kind), string(job.Status))

	if job.Status == StatusCompleted {
		slog.Debug("Job completed", "job_id", job.ID, "kind", job.Kind)
	}
}

// Queue exposes the underlying queue, mainly for tests and diagnostics.
func (r *Runner) Queue() *Queue {
	return r.queue
}
