package mailbox

import (
	"fmt"

	"github.com/rohmanhakim/newsletter-triage/internal/metadata"
	"github.com/rohmanhakim/newsletter-triage/pkg/failure"
)

type MailboxErrorCause string

const (
	ErrCauseDialFailure   MailboxErrorCause = "dial failure"
	ErrCauseAuthFailure   MailboxErrorCause = "authentication failure"
	ErrCauseSelectFailure MailboxErrorCause = "select failure"
	ErrCauseSearchFailure MailboxErrorCause = "search failure"
	ErrCauseFetchFailure  MailboxErrorCause = "fetch failure"
	ErrCauseStoreFailure  MailboxErrorCause = "store failure"
	ErrCauseParseFailure  MailboxErrorCause = "message parse failure"
	ErrCauseCanceled      MailboxErrorCause = "canceled"
)

type MailboxError struct {
	Message   string
	Retryable bool
	Cause     MailboxErrorCause
}

func (e *MailboxError) Error() string {
	return fmt.Sprintf("mailbox error: %s: %s", e.Cause, e.Message)
}

func (e *MailboxError) Severity() failure.Severity {
	if e.Retryable {
		return failure.SeverityRecoverable
	}
	return failure.SeverityFatal
}

func (e *MailboxError) IsRetryable() bool {
	return e.Retryable
}

// MapMailboxErrorToMetadataCause maps mailbox-local error semantics
// to the canonical metadata.ErrorCause table.
//
// This mapping is observational only and MUST NOT be used
// to derive control-flow decisions.
func MapMailboxErrorToMetadataCause(err *MailboxError) metadata.ErrorCause {
	switch err.Cause {
	case ErrCauseDialFailure, ErrCauseSelectFailure, ErrCauseSearchFailure, ErrCauseFetchFailure, ErrCauseStoreFailure:
		return metadata.CauseNetworkFailure
	case ErrCauseAuthFailure:
		return metadata.CauseAuthFailure
	case ErrCauseParseFailure:
		return metadata.CauseContentInvalid
	default:
		return metadata.CauseUnknown
	}
}
