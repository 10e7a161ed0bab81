package docstore

import (
	"context"
	"errors"
	"time"
)

// RetryPolicy bounds how reads are retried. Writes are never retried.
type RetryPolicy struct {
	Retries int
	Backoff time.Duration
	Timeout time.Duration
}

// GetWithRetry reads path, retrying transient failures with a linear backoff.
// Invalid paths, a closed store and an ended ctx fail immediately.
func GetWithRetry(ctx context.Context, s Store, path string, policy RetryPolicy) (*Snapshot, error) {
	var lastErr error
	for attempt := 0; attempt <= policy.Retries; attempt++ {
		if attempt > 0 {
			if err := sleep(ctx, policy.Backoff*time.Duration(attempt)); err != nil {
				return nil, lastErr
			}
		}

		snap, err := getOnce(ctx, s, path, policy.Timeout)
		if err == nil {
			return snap, nil
		}
		lastErr = err
		if !retryable(ctx, err) {
			break
		}
	}
	return nil, lastErr
}

func getOnce(ctx context.Context, s Store, path string, timeout time.Duration) (*Snapshot, error) {
	ctx, cancel := WithTimeout(ctx, timeout)
	defer cancel()
	return s.Get(ctx, path)
}

// WithTimeout applies timeout unless ctx already carries a deadline or timeout is zero.
func WithTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if _, ok := ctx.Deadline(); ok || timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}

func retryable(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return false
	}
	switch {
	case errors.Is(err, ErrInvalidPath), errors.Is(err, ErrInvalidValue), errors.Is(err, ErrClosed):
		return false
	case errors.Is(err, context.Canceled):
		return false
	}
	return true
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
