package retry_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/rohmanhakim/newsletter-triage/pkg/failure"
	"github.com/rohmanhakim/newsletter-triage/pkg/retry"
	"github.com/rohmanhakim/newsletter-triage/pkg/timeutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// defaultBackoffParam returns a default backoff parameter for tests
func defaultBackoffParam() timeutil.BackoffParam {
	return timeutil.NewBackoffParam(
		time.Millisecond,
		2.0,
		10*time.Millisecond,
	)
}

// mockError is a mock implementation of failure.ClassifiedError for testing
type mockError struct {
	msg       string
	retryable bool
}

func (m *mockError) Error() string {
	return m.msg
}

func (m *mockError) Severity() failure.Severity {
	if m.retryable {
		return failure.SeverityRecoverable
	}
	return failure.SeverityFatal
}

func (m *mockError) IsRetryable() bool {
	return m.retryable
}

func TestRetry_SuccessOnFirstAttempt(t *testing.T) {
	callCount := 0
	fn := func(ctx context.Context) (string, failure.ClassifiedError) {
		callCount++
		return "success", nil
	}

	result := retry.Retry(context.Background(), retry.NewRetryParam(0, 42, 3, defaultBackoffParam()), fn)

	require.False(t, result.IsFailure())
	assert.Equal(t, "success", result.Value())
	assert.Equal(t, 1, result.Attempts())
	assert.Equal(t, 1, callCount)
}

func TestRetry_SucceedsAfterRecoverableFailures(t *testing.T) {
	callCount := 0
	fn := func(ctx context.Context) (int, failure.ClassifiedError) {
		callCount++
		if callCount < 3 {
			return 0, &mockError{msg: fmt.Sprintf("attempt %d failed", callCount), retryable: true}
		}
		return 7, nil
	}

	result := retry.Retry(context.Background(), retry.NewRetryParam(0, 42, 5, defaultBackoffParam()), fn)

	require.False(t, result.IsFailure())
	assert.Equal(t, 7, result.Value())
	assert.Equal(t, 3, result.Attempts())
}

func TestRetry_StopsOnFatalError(t *testing.T) {
	callCount := 0
	fatal := &mockError{msg: "bad credentials", retryable: false}
	fn := func(ctx context.Context) (string, failure.ClassifiedError) {
		callCount++
		return "", fatal
	}

	result := retry.Retry(context.Background(), retry.NewRetryParam(0, 42, 5, defaultBackoffParam()), fn)

	require.True(t, result.IsFailure())
	assert.Equal(t, 1, callCount)
	assert.Same(t, fatal, result.Err())
}

func TestRetry_ExhaustsAttempts(t *testing.T) {
	callCount := 0
	fn := func(ctx context.Context) (string, failure.ClassifiedError) {
		callCount++
		return "", &mockError{msg: "timeout", retryable: true}
	}

	result := retry.Retry(context.Background(), retry.NewRetryParam(0, 42, 3, defaultBackoffParam()), fn)

	require.True(t, result.IsFailure())
	assert.Equal(t, 3, callCount)

	var retryErr *retry.RetryError
	require.True(t, errors.As(result.Err(), &retryErr))
	assert.Equal(t, retry.ErrExhaustedAttempts, retryErr.Cause)
	assert.Equal(t, failure.SeverityRecoverable, retryErr.Severity())

	var last *mockError
	assert.True(t, errors.As(result.Err(), &last), "last attempt error should be unwrappable")
}

func TestRetry_ZeroAttempts(t *testing.T) {
	fn := func(ctx context.Context) (string, failure.ClassifiedError) {
		t.Fatal("fn must not be called")
		return "", nil
	}

	result := retry.Retry(context.Background(), retry.NewRetryParam(0, 42, 0, defaultBackoffParam()), fn)

	var retryErr *retry.RetryError
	require.True(t, errors.As(result.Err(), &retryErr))
	assert.Equal(t, retry.ErrZeroAttempt, retryErr.Cause)
}

func TestRetry_CanceledDuringBackoff(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	fn := func(ctx context.Context) (string, failure.ClassifiedError) {
		cancel()
		return "", &mockError{msg: "temporary", retryable: true}
	}

	slow := timeutil.NewBackoffParam(time.Hour, 2.0, time.Hour)
	result := retry.Retry(ctx, retry.NewRetryParam(0, 42, 3, slow), fn)

	var retryErr *retry.RetryError
	require.True(t, errors.As(result.Err(), &retryErr))
	assert.Equal(t, retry.ErrCanceled, retryErr.Cause)
	assert.Equal(t, 1, result.Attempts())
}

func TestRetryError_IsMatchesAnyRetryError(t *testing.T) {
	err := &retry.RetryError{Cause: retry.ErrExhaustedAttempts}
	assert.True(t, errors.Is(err, &retry.RetryError{}))
}
