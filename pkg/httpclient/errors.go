package httpclient

import (
	"errors"
	"fmt"
	"time"
)

// RetryableError reports an HTTP failure that survived the client's own
// retry budget. Callers (the job runner) may still retry the whole
// operation as a transient failure.
type RetryableError struct {
	StatusCode int
	Message    string
	RetryAfter time.Duration
	Err        error
}

func (e *RetryableError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("HTTP %d: %s (retry after %v)", e.StatusCode, e.Message, e.RetryAfter)
	}
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
}

func (e *RetryableError) Unwrap() error {
	return e.Err
}

// IsRetryable reports whether err represents a transient HTTP failure.
func IsRetryable(err error) bool {
	var re *RetryableError
	return errors.As(err, &re)
}
