package utils

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errFlaky = errors.New("flaky")

func TestWithRetrySucceedsAfterFailures(t *testing.T) {
	calls := 0
	got, err := WithRetry(context.Background(), func(ctx context.Context) (string, error) {
		calls++
		if calls < 3 {
			return "", errFlaky
		}
		return "ok", nil
	}, RetryConfig{MaxRetries: 3, Delay: time.Millisecond})

	require.NoError(t, err)
	assert.Equal(t, "ok", got)
	assert.Equal(t, 3, calls)
}

func TestWithRetryStopsOnNonRetryable(t *testing.T) {
	calls := 0
	_, err := WithRetry(context.Background(), func(ctx context.Context) (int, error) {
		calls++
		return 0, errFlaky
	}, RetryConfig{
		MaxRetries: 5,
		Delay:      time.Millisecond,
		Retryable:  func(error) bool { return false },
	})

	assert.ErrorIs(t, err, errFlaky)
	assert.Equal(t, 1, calls)
}

func TestWithRetrySingleAttemptReturnsBareError(t *testing.T) {
	_, err := WithRetry(context.Background(), func(ctx context.Context) (int, error) {
		return 0, errFlaky
	}, RetryConfig{MaxRetries: 1})

	assert.Equal(t, errFlaky, err)
}

func TestWithRetryExhausted(t *testing.T) {
	_, err := WithRetry(context.Background(), func(ctx context.Context) (int, error) {
		return 0, errFlaky
	}, RetryConfig{MaxRetries: 2, Delay: time.Millisecond})

	assert.ErrorIs(t, err, errFlaky)
	assert.Contains(t, err.Error(), "max retries exceeded")
}

func TestSleepHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	err := Sleep(ctx, time.Minute)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Less(t, time.Since(start), time.Second)
}

func TestIsRetryableError(t *testing.T) {
	assert.False(t, IsRetryableError(nil))
	assert.True(t, IsRetryableError(errors.New("dial tcp: connection refused")))
	assert.True(t, IsRetryableError(errors.New("Client.Timeout exceeded")))
	assert.False(t, IsRetryableError(errors.New("bad request")))
}

func TestDefaultRetryConfig(t *testing.T) {
	cfg := DefaultRetryConfig()
	assert.Equal(t, 3, cfg.MaxRetries)
	assert.Equal(t, 500*time.Millisecond, cfg.Delay)
	require.NotNil(t, cfg.Retryable)
	assert.True(t, cfg.Retryable(errors.New("read: connection reset by peer")))
	assert.False(t, cfg.Retryable(errors.New("webhook returned status 500")))
}
