package jobs

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Store tracks job status. The runner writes every transition through
// the store so the surrounding application can observe terminal states.
type Store interface {
	// Save upserts the job record.
	Save(ctx context.Context, job *Job) error

	// Get returns the job by id.
	Get(ctx context.Context, id string) (*Job, error)

	// ListByStatus returns jobs in the given status, oldest first.
	ListByStatus(ctx context.Context, status Status) ([]*Job, error)

	// Close releases store resources.
	Close() error
}

// ErrJobNotFound is returned by Get for unknown ids.
var ErrJobNotFound = fmt.Errorf("job not found")

// MemoryStore is the default, process-local job store.
type MemoryStore struct {
	mu   sync.RWMutex
	jobs map[string]*Job
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{jobs: make(map[string]*Job)}
}

func (s *MemoryStore) Save(ctx context.Context, job *Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.jobs[job.ID] = job.clone()
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, id string) (*Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	job, ok := s.jobs[id]
	if !ok {
		return nil, ErrJobNotFound
	}
	return job.clone(), nil
}

func (s *MemoryStore) ListByStatus(ctx context.Context, status Status) ([]*Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*Job
	for _, job := range s.jobs {
		if job.Status == status {
			result = append(result, job.clone())
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result, nil
}

func (s *MemoryStore) Close() error {
	return nil
}

var _ Store = (*MemoryStore)(nil)
