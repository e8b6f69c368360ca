package engine

import (
	"context"
	"math/rand"
	"strings"
	"time"
)

// DefaultTimeout bounds how long a single node's capability method may
// run before its context is cancelled.
const DefaultTimeout = 30 * time.Minute

// WithTimeout returns a context that is cancelled after d, or after
// ctx's own deadline, whichever comes first.
func WithTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		d = DefaultTimeout
	}
	return context.WithTimeout(ctx, d)
}

// RetryPolicy configures RetryWithBackoff. It is never invoked by the
// core applier itself — the engine makes exactly one attempt per node
// and surfaces whatever error the capability method returns. A concrete
// resource type's Create/Read/Update/Delete body may use RetryWithBackoff
// internally against its own platform calls if it wants retries; that is
// a decision for the resource author, not the engine.
type RetryPolicy struct {
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
}

// DefaultRetryPolicy returns a reasonable exponential-backoff policy for
// resource authors who opt into RetryWithBackoff.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries: 5,
		BaseDelay:  200 * time.Millisecond,
		MaxDelay:   10 * time.Second,
	}
}

// RetryWithBackoff calls fn until it succeeds, shouldRetry returns
// false for the returned error, or the policy's retry budget is spent.
func RetryWithBackoff(ctx context.Context, policy RetryPolicy, fn func() error, shouldRetry func(error) bool) error {
	var err error
	for attempt := 0; attempt <= policy.MaxRetries; attempt++ {
		err = fn()
		if err == nil {
			return nil
		}
		if !shouldRetry(err) {
			return err
		}
		if attempt == policy.MaxRetries {
			break
		}
		delay := backoffDelay(policy, attempt)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
	return err
}

func backoffDelay(policy RetryPolicy, attempt int) time.Duration {
	delay := policy.BaseDelay << attempt
	if delay > policy.MaxDelay || delay <= 0 {
		delay = policy.MaxDelay
	}
	jitter := time.Duration(rand.Int63n(int64(delay) / 2))
	return delay/2 + jitter
}

// IsTransientError is a default shouldRetry for RetryWithBackoff,
// recognizing the error message shapes most platform clients use for
// throttling, rate limiting, and connection hiccups.
func IsTransientError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, pattern := range []string{"throttl", "rate limit", "timeout", "timed out", "connection reset", "temporarily unavailable"} {
		if strings.Contains(msg, pattern) {
			return true
		}
	}
	return false
}
