package jobs

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ccsmith33/GroupProject2-sub001/pkg/config"
)

func testQueueConfig() config.QueueConfig {
	return config.QueueConfig{
		Workers:         4,
		Size:            256,
		MaxRetries:      3,
		RetryBackoff:    config.Duration(time.Millisecond),
		ShutdownTimeout: config.Duration(5 * time.Second),
	}
}

func waitForTerminal(t *testing.T, store Store, id string, timeout time.Duration) *Job {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		job, err := store.Get(context.Background(), id)
		if err == nil && job.Status.IsTerminal() {
			return job
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("job %s did not reach a terminal status within %s", id, timeout)
	return nil
}

func TestRunner_CompletesJob(t *testing.T) {
	store := NewMemoryStore()
	r := NewRunner(testQueueConfig(), store)
	r.RegisterHandler(KindNotification, func(_ context.Context, _ *Job) error {
		return nil
	})
	r.Start()
	defer r.Stop(context.Background())

	job := NewJob(KindNotification, Payload{"user_id": "u1"})
	if err := r.Enqueue(job); err != nil {
		t.Fatalf("enqueue failed: %v", err)
	}

	final := waitForTerminal(t, store, job.ID, 2*time.Second)
	if final.Status != StatusCompleted {
		t.Errorf("expected completed, got %s (%s)", final.Status, final.LastError)
	}
}

func TestRunner_AlwaysFailingJobRetriedExactlyMaxTimes(t *testing.T) {
	store := NewMemoryStore()
	cfg := testQueueConfig()
	r := NewRunner(cfg, store)

	var attempts int32
	r.RegisterHandler(KindAIAnalysis, func(_ context.Context, _ *Job) error {
		atomic.AddInt32(&attempts, 1)
		return errors.New("model unavailable")
	})
	r.Start()
	defer r.Stop(context.Background())

	job := NewJob(KindAIAnalysis, nil)
	if err := r.Enqueue(job); err != nil {
		t.Fatalf("enqueue failed: %v", err)
	}

	final := waitForTerminal(t, store, job.ID, 5*time.Second)
	if final.Status != StatusFailed {
		t.Fatalf("expected failed, got %s", final.Status)
	}
	if final.Retries != cfg.MaxRetries {
		t.Errorf("expected retry counter %d, got %d", cfg.MaxRetries, final.Retries)
	}
	if final.LastError == "" {
		t.Error("expected the handler error to be recorded")
	}

	// One initial attempt plus MaxRetries retries, then no more.
	want := int32(cfg.MaxRetries + 1)
	time.Sleep(100 * time.Millisecond)
	if got := atomic.LoadInt32(&attempts); got != want {
		t.Errorf("expected %d handler attempts, got %d", want, got)
	}
}

func TestRunner_UnknownKindFailsImmediately(t *testing.T) {
	store := NewMemoryStore()
	r := NewRunner(testQueueConfig(), store)
	r.Start()
	defer r.Stop(context.Background())

	job := NewJob(Kind("no_such_kind"), nil)
	if err := r.Enqueue(job); err != nil {
		t.Fatalf("enqueue failed: %v", err)
	}

	final := waitForTerminal(t, store, job.ID, 2*time.Second)
	if final.Status != StatusFailed {
		t.Errorf("expected failed, got %s", final.Status)
	}
	if final.Retries != 0 {
		t.Errorf("unknown kind must not be retried, got %d retries", final.Retries)
	}
}

func TestRunner_PanickingHandlerDoesNotKillWorker(t *testing.T) {
	store := NewMemoryStore()
	cfg := testQueueConfig()
	cfg.MaxRetries = 1
	r := NewRunner(cfg, store)

	r.RegisterHandler(KindNotification, func(_ context.Context, _ *Job) error {
		panic("boom")
	})
	r.RegisterHandler(KindAIAnalysis, func(_ context.Context, _ *Job) error {
		return nil
	})
	r.Start()
	defer r.Stop(context.Background())

	bad := NewJob(KindNotification, nil)
	good := NewJob(KindAIAnalysis, nil)
	if err := r.Enqueue(bad); err != nil {
		t.Fatal(err)
	}
	if err := r.Enqueue(good); err != nil {
		t.Fatal(err)
	}

	if final := waitForTerminal(t, store, bad.ID, 5*time.Second); final.Status != StatusFailed {
		t.Errorf("expected panicking job to fail, got %s", final.Status)
	}
	if final := waitForTerminal(t, store, good.ID, 2*time.Second); final.Status != StatusCompleted {
		t.Errorf("expected healthy job to complete, got %s", final.Status)
	}
}

func TestRunner_FiftyJobsFourWorkersAllTerminalOnce(t *testing.T) {
	store := NewMemoryStore()
	r := NewRunner(testQueueConfig(), store)

	var mu sync.Mutex
	processed := make(map[string]int)

	r.RegisterHandler(KindContentExtraction, func(_ context.Context, job *Job) error {
		mu.Lock()
		processed[job.ID]++
		mu.Unlock()
		return nil
	})
	r.Start()

	ids := make([]string, 0, 50)
	for i := 0; i < 50; i++ {
		job := NewJob(KindContentExtraction, Payload{"file_id": fmt.Sprintf("f%d", i)})
		if err := r.Enqueue(job); err != nil {
			t.Fatalf("enqueue %d failed: %v", i, err)
		}
		ids = append(ids, job.ID)
	}

	for _, id := range ids {
		final := waitForTerminal(t, store, id, 5*time.Second)
		if !final.Status.IsTerminal() {
			t.Errorf("job %s not terminal: %s", id, final.Status)
		}
	}

	if err := r.Stop(context.Background()); err != nil {
		t.Fatalf("stop failed: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(processed) != 50 {
		t.Errorf("expected 50 distinct jobs processed, got %d", len(processed))
	}
	for id, count := range processed {
		if count != 1 {
			t.Errorf("job %s processed %d times", id, count)
		}
	}
}

func TestRunner_ResumeRequeuesPendingJobs(t *testing.T) {
	store := NewMemoryStore()

	// Jobs a previous run recorded but never finished.
	leftovers := []*Job{
		NewJob(KindNotification, Payload{"user_id": "u1"}),
		NewJob(KindNotification, Payload{"user_id": "u2"}),
	}
	for _, job := range leftovers {
		if err := store.Save(context.Background(), job); err != nil {
			t.Fatal(err)
		}
	}

	r := NewRunner(testQueueConfig(), store)
	r.RegisterHandler(KindNotification, func(_ context.Context, _ *Job) error {
		return nil
	})
	r.Start()
	defer r.Stop(context.Background())

	resumed, err := r.Resume(context.Background())
	if err != nil {
		t.Fatalf("resume failed: %v", err)
	}
	if resumed != len(leftovers) {
		t.Errorf("expected %d resumed jobs, got %d", len(leftovers), resumed)
	}

	for _, job := range leftovers {
		final := waitForTerminal(t, store, job.ID, 2*time.Second)
		if final.Status != StatusCompleted {
			t.Errorf("resumed job %s: expected completed, got %s", job.ID, final.Status)
		}
	}
}

func TestRunner_EnqueueAfterStop(t *testing.T) {
	r := NewRunner(testQueueConfig(), NewMemoryStore())
	r.Start()
	if err := r.Stop(context.Background()); err != nil {
		t.Fatalf("stop failed: %v", err)
	}

	err := r.Enqueue(NewJob(KindNotification, nil))
	if !errors.Is(err, ErrQueueClosed) {
		t.Errorf("expected ErrQueueClosed, got %v", err)
	}
}

func TestRunner_StopWaitsForInFlightJob(t *testing.T) {
	store := NewMemoryStore()
	r := NewRunner(testQueueConfig(), store)

	release := make(chan struct{})
	started := make(chan struct{})
	r.RegisterHandler(KindNotification, func(_ context.Context, _ *Job) error {
		close(started)
		<-release
		return nil
	})
	r.Start()

	job := NewJob(KindNotification, nil)
	if err := r.Enqueue(job); err != nil {
		t.Fatal(err)
	}
	<-started

	done := make(chan error, 1)
	go func() {
		done <- r.Stop(context.Background())
	}()

	select {
	case <-done:
		t.Fatal("stop returned while a job was still in flight")
	case <-time.After(50 * time.Millisecond):
	}

	close(release)
	if err := <-done; err != nil {
		t.Fatalf("stop failed: %v", err)
	}

	final, err := store.Get(context.Background(), job.ID)
	if err != nil {
		t.Fatal(err)
	}
	if final.Status != StatusCompleted {
		t.Errorf("in-flight job must reach a recorded terminal status, got %s", final.Status)
	}
}

func TestRunner_JobFailingDuringStopIsNotDropped(t *testing.T) {
	store := NewMemoryStore()
	cfg := testQueueConfig()
	cfg.Workers = 1
	cfg.RetryBackoff = config.Duration(10 * time.Second)
	r := NewRunner(cfg, store)

	started := make(chan struct{})
	release := make(chan struct{})
	r.RegisterHandler(KindAIAnalysis, func(_ context.Context, _ *Job) error {
		close(started)
		<-release
		return errors.New("transient")
	})
	r.Start()

	job := NewJob(KindAIAnalysis, nil)
	if err := r.Enqueue(job); err != nil {
		t.Fatal(err)
	}
	<-started

	// The handler fails only after Stop is already waiting, so the retry
	// goroutine is spawned mid-shutdown with its backoff far in the future.
	done := make(chan error, 1)
	go func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
		defer cancel()
		done <- r.Stop(stopCtx)
	}()

	time.Sleep(50 * time.Millisecond)
	close(release)
	<-done

	final, err := store.Get(context.Background(), job.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !final.Status.IsTerminal() {
		t.Errorf("job that started before shutdown must be terminal after Stop, got %s (retries=%d)", final.Status, final.Retries)
	}
}

func TestRunner_ExpiredGraceRecordsTerminalStatusForStartedJob(t *testing.T) {
	store := NewMemoryStore()
	cfg := testQueueConfig()
	cfg.RetryBackoff = config.Duration(10 * time.Second)
	r := NewRunner(cfg, store)

	r.RegisterHandler(KindAIAnalysis, func(_ context.Context, _ *Job) error {
		return errors.New("transient")
	})
	r.Start()

	job := NewJob(KindAIAnalysis, nil)
	if err := r.Enqueue(job); err != nil {
		t.Fatal(err)
	}

	// Wait for the first attempt to fail and the retry to be scheduled
	// far in the future, then force a hard shutdown.
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		j, err := store.Get(context.Background(), job.ID)
		if err == nil && j.Retries > 0 {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}

	stopCtx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_ = r.Stop(stopCtx)

	final, err := store.Get(context.Background(), job.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !final.Status.IsTerminal() {
		t.Errorf("started job must not be dropped without a terminal status, got %s", final.Status)
	}
}
