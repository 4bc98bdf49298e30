package services

import (
	"context"
	"errors"
	"math/rand/v2"
	"time"

	"github.com/custodia-labs/sercha-context/internal/core/domain"
)

// maxBackoff caps a single retry delay.
const maxBackoff = 30 * time.Second

// RetryPolicy controls how a failed upstream call is retried.
type RetryPolicy struct {
	// Attempts is the total number of calls, including the first. Values below one mean one.
	Attempts int

	// BaseDelay is doubled on each retry, with jitter of a quarter either way.
	BaseDelay time.Duration
}

// DefaultRetryPolicy retries once after roughly half a second.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{Attempts: 2, BaseDelay: 250 * time.Millisecond}
}

// backoff returns exponential backoff with jitter for the given retry attempt.
func backoff(base time.Duration, attempt int) time.Duration {
	if attempt <= 0 || base <= 0 {
		return 0
	}
	if attempt > 30 {
		attempt = 30
	}
	d := base * time.Duration(1<<uint(attempt))
	if d > maxBackoff || d <= 0 {
		d = maxBackoff
	}
	jitter := time.Duration(rand.Int64N(int64(d)/2+1)) - d/4
	return d + jitter
}

// retryable reports whether err is a transient upstream failure.
// Caller cancellation and bad input are never retried.
func retryable(err error) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return false
	case errors.Is(err, domain.ErrInvalidInput):
		return false
	default:
		return true
	}
}

// retry runs op until it succeeds, fails permanently, or the policy is exhausted.
// The last error is returned.
func retry(ctx context.Context, policy RetryPolicy, op func(ctx context.Context) error) error {
	attempts := policy.Attempts
	if attempts < 1 {
		attempts = 1
	}

	var err error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			timer := time.NewTimer(backoff(policy.BaseDelay, attempt))
			select {
			case <-ctx.Done():
				timer.Stop()
				return errors.Join(err, ctx.Err())
			case <-timer.C:
			}
		}

		err = op(ctx)
		if !retryable(err) {
			return err
		}
	}
	return err
}
