package storage

import (
	"context"
	"time"
)

// withRetry runs fn once and then up to retries more times while it fails with
// a retryable error. Exhaustion is reported as a ConflictError.
func withRetry(ctx context.Context, retries int, key string, retryable func(error) bool, fn func() error) error {
	err := fn()
	for retry := 1; retry <= retries; retry++ {
		if err == nil || !retryable(err) {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(retry) * 5 * time.Millisecond):
		}
		err = fn()
	}
	if err == nil || !retryable(err) {
		return err
	}
	return &ConflictError{Resource: "repo", Key: key, Err: err}
}
