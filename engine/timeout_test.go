package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRetryWithBackoffStopsOnSuccess(t *testing.T) {
	attempts := 0
	err := RetryWithBackoff(context.Background(), RetryPolicy{MaxRetries: 3, BaseDelay: time.Millisecond, MaxDelay: time.Millisecond}, func() error {
		attempts++
		if attempts < 2 {
			return errors.New("throttled")
		}
		return nil
	}, IsTransientError)
	require.NoError(t, err)
	assert.Equal(t, 2, attempts)
}

func TestRetryWithBackoffStopsWhenNotRetryable(t *testing.T) {
	attempts := 0
	permanent := errors.New("invalid configuration")
	err := RetryWithBackoff(context.Background(), DefaultRetryPolicy(), func() error {
		attempts++
		return permanent
	}, IsTransientError)
	require.ErrorIs(t, err, permanent)
	assert.Equal(t, 1, attempts)
}

func TestRetryWithBackoffExhaustsBudget(t *testing.T) {
	attempts := 0
	err := RetryWithBackoff(context.Background(), RetryPolicy{MaxRetries: 2, BaseDelay: time.Millisecond, MaxDelay: time.Millisecond}, func() error {
		attempts++
		return errors.New("rate limit exceeded")
	}, IsTransientError)
	require.Error(t, err)
	assert.Equal(t, 3, attempts) // initial attempt + 2 retries
}

func TestIsTransientError(t *testing.T) {
	assert.True(t, IsTransientError(errors.New("request throttled by platform")))
	assert.True(t, IsTransientError(errors.New("Connection Reset by peer")))
	assert.False(t, IsTransientError(errors.New("invalid resource name")))
	assert.False(t, IsTransientError(nil))
}

func TestWithTimeoutUsesDefaultWhenZero(t *testing.T) {
	ctx, cancel := WithTimeout(context.Background(), 0)
	defer cancel()
	deadline, ok := ctx.Deadline()
	require.True(t, ok)
	assert.WithinDuration(t, time.Now().Add(DefaultTimeout), deadline, time.Second)
}
