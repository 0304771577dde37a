// Package jobs implements the background work queue of the ingestion
// pipeline: typed jobs, a pop-and-own queue, a worker-pool runner with
// bounded retries, and pluggable job status stores.
package jobs

import (
	"time"

	"github.com/google/uuid"
)

// Kind identifies what a job does.
type Kind string

const (
	KindContentExtraction Kind = "content_extraction"
	KindAIAnalysis        Kind = "ai_analysis"
	KindNotification      Kind = "notification"
)

// Status is the lifecycle state of a job.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// IsTerminal returns whether this status allows no more transitions.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Payload is the opaque key-value payload of a job. File payloads are
// referenced by storage key, never embedded, so the queue stays light.
type Payload map[string]string

// Job is an immutable work record. A retry does not mutate the job in
// place; the runner produces a new record with an incremented counter
// and moves it through the queue by value, so no two workers ever share
// mutable job state.
type Job struct {
	ID      string
	Kind    Kind
	Payload Payload

	Status  Status
	Retries int

	// LastError is the message of the most recent handler failure.
	LastError string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewJob creates a pending job of the given kind.
func NewJob(kind Kind, payload Payload) *Job {
	now := time.Now()
	if payload == nil {
		payload = Payload{}
	}
	return &Job{
		ID:        uuid.NewString(),
		Kind:      kind,
		Payload:   payload,
		Status:    StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// clone returns a copy of the job with a fresh UpdatedAt.
func (j *Job) clone() *Job {
	copied := *j
	copied.Payload = make(Payload, len(j.Payload))
	for k, v := range j.Payload {
		copied.Payload[k] = v
	}
	copied.UpdatedAt = time.Now()
	return &copied
}

// withStatus returns a copy in the given status.
func (j *Job) withStatus(status Status) *Job {
	copied := j.clone()
	copied.Status = status
	return copied
}

// withRetry returns a pending copy with the retry counter incremented
// and the failure recorded.
func (j *Job) withRetry(cause error) *Job {
	copied := j.clone()
	copied.Status = StatusPending
	copied.Retries++
	if cause != nil {
		copied.LastError = cause.Error()
	}
	return copied
}

// withFailure returns a terminally failed copy.
func (j *Job) withFailure(cause error) *Job {
	copied := j.clone()
	copied.Status = StatusFailed
	if cause != nil {
		copied.LastError = cause.Error()
	}
	return copied
}
