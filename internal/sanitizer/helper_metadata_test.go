package sanitizer_test

import (
	"sync"
	"time"

	"github.com/rohmanhakim/newsletter-triage/internal/metadata"
)

// recordingSink is a test double for metadata.MetadataSink
type recordingSink struct {
	mu     sync.Mutex
	errors []recordedError
}

type recordedError struct {
	packageName string
	action      string
	cause       metadata.ErrorCause
	details     string
}

func (m *recordingSink) RecordError(
	_ time.Time,
	packageName string,
	action string,
	cause metadata.ErrorCause,
	details string,
	_ []metadata.Attribute,
) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors = append(m.errors, recordedError{
		packageName: packageName,
		action:      action,
		cause:       cause,
		details:     details,
	})
}

func (m *recordingSink) RecordMailFetch(metadata.MailFetchEvent) {}
func (m *recordingSink) RecordArtifact(metadata.ArtifactKind, string, []metadata.Attribute) {}

func (m *recordingSink) Errors() []recordedError {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]recordedError(nil), m.errors...)
}
