package utils

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

// RetryConfig configures retry behavior
type RetryConfig struct {
	MaxRetries int
	Delay      time.Duration
	Retryable  func(error) bool
}

// DefaultRetryConfig returns default retry configuration
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries: 3,
		Delay:      500 * time.Millisecond,
		Retryable:  IsRetryableError,
	}
}

// WithRetry executes fn until it succeeds, the error is not retryable,
// attempts run out or ctx is done.
func WithRetry[T any](ctx context.Context, fn func(ctx context.Context) (T, error), config RetryConfig) (T, error) {
	var lastErr error
	var zero T

	attempts := config.MaxRetries
	if attempts < 1 {
		attempts = 1
	}

	for i := 0; i < attempts; i++ {
		result, err := fn(ctx)
		if err == nil {
			return result, nil
		}

		lastErr = err

		// Check if error is retryable
		if config.Retryable != nil && !config.Retryable(err) {
			return zero, err
		}

		// Don't wait after last attempt
		if i < attempts-1 {
			zap.S().Infof("🔁 [RETRY] Attempt %d failed, retrying in %v...", i+1, config.Delay)
			if err := Sleep(ctx, config.Delay); err != nil {
				return zero, err
			}
		}
	}

	if attempts == 1 {
		return zero, lastErr
	}
	return zero, fmt.Errorf("max retries exceeded: %w", lastErr)
}

// Sleep waits for d or until ctx is done, whichever comes first.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// IsRetryableError checks if an error should be retried
func IsRetryableError(err error) bool {
	if err == nil {
		return false
	}

	errMsg := strings.ToLower(err.Error())
	retryablePatterns := []string{
		"context deadline exceeded",
		"connection reset",
		"connection refused",
		"timeout",
		"temporary failure",
		"unavailable",
	}

	for _, pattern := range retryablePatterns {
		if strings.Contains(errMsg, pattern) {
			return true
		}
	}

	return false
}
