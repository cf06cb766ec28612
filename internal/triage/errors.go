package triage

import (
	"errors"
	"fmt"

	"github.com/rohmanhakim/newsletter-triage/internal/metadata"
	"github.com/rohmanhakim/newsletter-triage/pkg/failure"
)

var (
	ErrQueueEmpty        = errors.New("no pending links")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrNotFound          = errors.New("link not found")
	// ErrExportSkipped is returned by an Exporter that has nothing to export to.
	ErrExportSkipped = errors.New("export skipped")
)

type ExportErrorCause string

const (
	ErrCauseExportRejected ExportErrorCause = "export rejected"
	ErrCauseExportNetwork  ExportErrorCause = "export network failure"
	ErrCauseExportAuth     ExportErrorCause = "export unauthorized"
)

type ExportError struct {
	Message   string
	Retryable bool
	Cause     ExportErrorCause
}

func (e *ExportError) Error() string {
	return fmt.Sprintf("export error: %s: %s", e.Cause, e.Message)
}

func (e *ExportError) Severity() failure.Severity {
	if e.Retryable {
		return failure.SeverityRecoverable
	}
	return failure.SeverityFatal
}

func (e *ExportError) IsRetryable() bool {
	return e.Retryable
}

// mapExportErrorToMetadataCause is observational only.
func mapExportErrorToMetadataCause(err error) metadata.ErrorCause {
	var exportErr *ExportError
	if !errors.As(err, &exportErr) {
		return metadata.CauseUnknown
	}
	switch exportErr.Cause {
	case ErrCauseExportNetwork:
		return metadata.CauseNetworkFailure
	case ErrCauseExportAuth:
		return metadata.CauseAuthFailure
	case ErrCauseExportRejected:
		return metadata.CauseContentInvalid
	default:
		return metadata.CauseUnknown
	}
}
