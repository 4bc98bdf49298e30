// Package ratelimit throttles requests to external HTTP services.
// It pairs a token bucket with a backoff window set when the service answers 429.
package ratelimit

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// DefaultBackoff is used when a 429 response carries no usable Retry-After.
const DefaultBackoff = 60 * time.Second

// Limiter throttles requests with a token bucket and honours server backoff.
// A nil *Limiter never blocks.
type Limiter struct {
	mu      sync.Mutex
	bucket  *rate.Limiter
	retryAt time.Time
}

// New creates a limiter allowing perSecond sustained requests with the given burst.
// A perSecond of zero or less disables the token bucket; backoff still applies.
func New(perSecond float64, burst int) *Limiter {
	if burst < 1 {
		burst = 1
	}
	limit := rate.Inf
	if perSecond > 0 {
		limit = rate.Limit(perSecond)
	}
	return &Limiter{bucket: rate.NewLimiter(limit, burst)}
}

// Wait blocks until a request may be sent or ctx is done.
func (l *Limiter) Wait(ctx context.Context) error {
	if l == nil {
		return nil
	}

	l.mu.Lock()
	retryAt := l.retryAt
	l.mu.Unlock()

	if wait := time.Until(retryAt); wait > 0 {
		timer := time.NewTimer(wait)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}

	return l.bucket.Wait(ctx)
}

// Backoff delays further requests by d. Shorter backoffs never shorten a longer one.
func (l *Limiter) Backoff(d time.Duration) {
	if l == nil {
		return
	}
	if d <= 0 {
		d = DefaultBackoff
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if at := time.Now().Add(d); at.After(l.retryAt) {
		l.retryAt = at
	}
}

// Observe inspects a response and starts a backoff when it is a 429.
// It reports whether the response was rate limited.
func (l *Limiter) Observe(resp *http.Response) bool {
	if resp == nil || resp.StatusCode != http.StatusTooManyRequests {
		return false
	}
	l.Backoff(RetryAfter(resp.Header.Get("Retry-After")))
	return true
}

// RetryAfter parses a Retry-After header given in seconds or as an HTTP date.
// It returns zero when the header is absent or invalid.
func RetryAfter(header string) time.Duration {
	if header == "" {
		return 0
	}
	if secs, err := strconv.Atoi(header); err == nil {
		if secs <= 0 {
			return 0
		}
		return time.Duration(secs) * time.Second
	}
	if at, err := http.ParseTime(header); err == nil {
		if d := time.Until(at); d > 0 {
			return d
		}
	}
	return 0
}
