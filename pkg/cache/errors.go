package cache

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound reports that the backing source has no such item. It is
	// distinct from a cache miss: a miss falls through to the source, while
	// ErrNotFound means the source itself came up empty.
	ErrNotFound = errors.New("not found")

	// ErrNetwork reports a transport failure talking to a remote backend.
	ErrNetwork = errors.New("network error")
)

// RetryableError marks an error as transient. RetryWithBackoff retries only
// errors carrying this marker.
type RetryableError struct{ Err error }

func (e *RetryableError) Error() string { return e.Err.Error() }
func (e *RetryableError) Unwrap() error { return e.Err }

// Retryable marks err as transient. A nil err stays nil.
func Retryable(err error) error {
	if err == nil {
		return nil
	}
	return &RetryableError{Err: err}
}

// IsRetryable reports whether err carries the transient marker anywhere in
// its chain.
func IsRetryable(err error) bool {
	var re *RetryableError
	return errors.As(err, &re)
}

const (
	retryAttempts  = 3
	retryBaseDelay = time.Second
)

// RetryWithBackoff runs fn, retrying transient failures with doubling delays
// (1s, 2s). Non-retryable errors and context cancellation end the loop
// immediately.
func RetryWithBackoff(ctx context.Context, fn func() error) error {
	var lastErr error
	for attempt, delay := 0, retryBaseDelay; attempt < retryAttempts; attempt, delay = attempt+1, delay*2 {
		lastErr = fn()
		if lastErr == nil || !IsRetryable(lastErr) {
			return lastErr
		}
		if attempt == retryAttempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
	return lastErr
}
