package connection

import (
	"errors"
	"fmt"

	"github.com/rohmanhakim/newsletter-triage/internal/metadata"
	"github.com/rohmanhakim/newsletter-triage/pkg/failure"
)

var (
	ErrNotConnected    = errors.New("provider not connected")
	ErrUnknownProvider = errors.New("unknown provider")
	ErrInvalidToken    = errors.New("invalid token")
)

func unknownProvider(name string) error {
	return fmt.Errorf("%w: %q", ErrUnknownProvider, name)
}

type ConnectionErrorCause string

const (
	ErrCauseRefreshFailed  ConnectionErrorCause = "token refresh failed"
	ErrCauseTokenExpired   ConnectionErrorCause = "token expired"
	ErrCauseStoreFailed    ConnectionErrorCause = "token store failed"
	ErrCauseCorruptedToken ConnectionErrorCause = "stored token unreadable"
)

type ConnectionError struct {
	Message   string
	Retryable bool
	Cause     ConnectionErrorCause
	Provider  Provider
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("connection error: %s: %s: %s", e.Provider, e.Cause, e.Message)
}

func (e *ConnectionError) Severity() failure.Severity {
	if e.Retryable {
		return failure.SeverityRecoverable
	}
	return failure.SeverityFatal
}

func (e *ConnectionError) IsRetryable() bool {
	return e.Retryable
}

// mapConnectionErrorToMetadataCause is observational only.
func mapConnectionErrorToMetadataCause(err *ConnectionError) metadata.ErrorCause {
	switch err.Cause {
	case ErrCauseRefreshFailed, ErrCauseTokenExpired:
		return metadata.CauseAuthFailure
	case ErrCauseStoreFailed:
		return metadata.CauseStorageFailure
	case ErrCauseCorruptedToken:
		return metadata.CauseInvariantViolation
	default:
		return metadata.CauseUnknown
	}
}
