package insights

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testRetryConfig = RetryConfig{
	MaxRetries:    3,
	InitialDelay:  time.Millisecond,
	MaxDelay:      10 * time.Millisecond,
	BackoffFactor: 2.0,
}

func TestWithRetrySuccessFirstAttempt(t *testing.T) {
	attempts := 0
	result, err := withRetry(context.Background(), testRetryConfig, func(ctx context.Context) (string, error) {
		attempts++
		return "ok", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "ok", result)
	assert.Equal(t, 1, attempts)
}

func TestWithRetryTransientThenSuccess(t *testing.T) {
	attempts := 0
	result, err := withRetry(context.Background(), testRetryConfig, func(ctx context.Context) (string, error) {
		attempts++
		if attempts < 3 {
			return "", &AnalysisError{Code: ErrModelUnavailable, Message: "transient", Retryable: true}
		}
		return "recovered", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "recovered", result)
	assert.Equal(t, 3, attempts)
}

func TestWithRetryNonRetryableStopsImmediately(t *testing.T) {
	attempts := 0
	_, err := withRetry(context.Background(), testRetryConfig, func(ctx context.Context) (string, error) {
		attempts++
		return "", &AnalysisError{Code: ErrSchemaValidation, Message: "bad shape"}
	})

	require.Error(t, err)
	assert.Equal(t, 1, attempts)
	var ae *AnalysisError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, ErrSchemaValidation, ae.Code)
}

func TestWithRetryExhaustsAttempts(t *testing.T) {
	attempts := 0
	_, err := withRetry(context.Background(), testRetryConfig, func(ctx context.Context) (string, error) {
		attempts++
		return "", &AnalysisError{Code: ErrModelRateLimited, Message: "rate limited", Retryable: true}
	})

	require.Error(t, err)
	assert.Equal(t, testRetryConfig.MaxRetries+1, attempts)
}

func TestWithRetryContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	_, err := withRetry(ctx, testRetryConfig, func(ctx context.Context) (string, error) {
		cancel()
		return "", &AnalysisError{Code: ErrModelUnavailable, Message: "transient", Retryable: true}
	})

	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}
