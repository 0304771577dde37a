package jobs

import (
	"fmt"
	"sync"
)

// Queue is an in-process job queue. Enqueue is non-blocking and safe for
// concurrent producers; Dequeue transfers ownership of a job to exactly
// one worker (pop-and-own, never peek-and-leave).
type Queue struct {
	mu     sync.Mutex
	ch     chan *Job
	closed bool
}

// NewQueue creates a queue with the given capacity.
func NewQueue(size int) *Queue {
	if size <= 0 {
		size = 256
	}
	return &Queue{ch: make(chan *Job, size)}
}

// Enqueue appends a pending job. It returns immediately: ErrQueueClosed
// after shutdown has begun, ErrQueueFull when the buffer is exhausted.
func (q *Queue) Enqueue(job *Job) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return ErrQueueClosed
	}

	select {
	case q.ch <- job:
		return nil
	default:
		return ErrQueueFull
	}
}

// Jobs exposes the receive side for workers. The channel is closed by
// Close; a worker that drains it owns every job it receives.
func (q *Queue) Jobs() <-chan *Job {
	return q.ch
}

// Close stops intake and closes the channel once no producer can be
// mid-send. Pending jobs still buffered remain receivable.
func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}
	q.closed = true
	close(q.ch)
}

// Len returns the number of buffered jobs.
func (q *Queue) Len() int {
	return len(q.ch)
}

var (
	ErrQueueClosed = fmt.Errorf("job queue is closed")
	ErrQueueFull   = fmt.Errorf("job queue is full")
)
