package mailsync

import (
	"errors"
	"fmt"

	"github.com/rohmanhakim/newsletter-triage/internal/mailbox"
	"github.com/rohmanhakim/newsletter-triage/internal/metadata"
	"github.com/rohmanhakim/newsletter-triage/pkg/failure"
	"github.com/rohmanhakim/newsletter-triage/pkg/retry"
)

var ErrNoCredentials = errors.New("no mailbox credentials")

type SyncErrorCause string

const (
	ErrCauseCredentials SyncErrorCause = "credentials unavailable"
	ErrCauseMailbox     SyncErrorCause = "mailbox failure"
	ErrCausePersistence SyncErrorCause = "persistence failure"
	ErrCauseSettings    SyncErrorCause = "settings unavailable"
)

type SyncError struct {
	Message   string
	Retryable bool
	Cause     SyncErrorCause
	Err       error
}

func (e *SyncError) Error() string {
	return fmt.Sprintf("sync error: %s: %s", e.Cause, e.Message)
}

func (e *SyncError) Unwrap() error {
	return e.Err
}

func (e *SyncError) Severity() failure.Severity {
	if e.Retryable {
		return failure.SeverityRecoverable
	}
	return failure.SeverityFatal
}

// mapSyncErrorToMetadataCause is observational only.
func mapSyncErrorToMetadataCause(err *SyncError) metadata.ErrorCause {
	switch err.Cause {
	case ErrCauseCredentials:
		return metadata.CauseAuthFailure
	case ErrCausePersistence:
		return metadata.CauseStorageFailure
	case ErrCauseSettings:
		return metadata.CauseInvariantViolation
	case ErrCauseMailbox:
		var retryErr *retry.RetryError
		if errors.As(err.Err, &retryErr) && retryErr.Cause == retry.ErrExhaustedAttempts {
			return metadata.CauseRetryExhausted
		}
		var mbErr *mailbox.MailboxError
		if errors.As(err.Err, &mbErr) {
			return mailbox.MapMailboxErrorToMetadataCause(mbErr)
		}
		return metadata.CauseNetworkFailure
	default:
		return metadata.CauseUnknown
	}
}
