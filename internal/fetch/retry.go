package fetch

import (
	"context"
	"errors"
	"time"
)

// retryableError marks a failure worth another attempt.
type retryableError struct{ err error }

func retryable(err error) error { return &retryableError{err: err} }

func (e *retryableError) Error() string { return e.err.Error() }
func (e *retryableError) Unwrap() error { return e.err }

// IsRetryable reports whether err was marked as transient.
func IsRetryable(err error) bool {
	var re *retryableError
	return errors.As(err, &re)
}

// retry runs fn until it succeeds, fails permanently, or the attempts run
// out. The returned error has the retry marker removed.
func (c *Client) retry(ctx context.Context, fn func() error) error {
	delay := c.backoff
	var lastErr error
	for i := 0; i < c.attempts; i++ {
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err
		if !IsRetryable(err) {
			return err
		}
		if i < c.attempts-1 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
				delay *= 2
			}
		}
	}
	var re *retryableError
	if errors.As(lastErr, &re) {
		return re.err
	}
	return lastErr
}
