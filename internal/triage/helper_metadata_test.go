package triage_test

import (
	"time"

	"github.com/rohmanhakim/newsletter-triage/internal/metadata"
)

type recordedError struct {
	action string
	cause  metadata.ErrorCause
}

type recordingSink struct {
	metadata.NoopSink
	errors []recordedError
}

func (r *recordingSink) RecordError(_ time.Time, _ string, action string, cause metadata.ErrorCause, _ string, _ []metadata.Attribute) {
	r.errors = append(r.errors, recordedError{action: action, cause: cause})
}
