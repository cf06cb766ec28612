package triage_test

import (
	"context"
	"sync"

	"github.com/rohmanhakim/newsletter-triage/internal/triage"
)

type fakeExporter struct {
	mu       sync.Mutex
	err      error
	exported []string
}

func (f *fakeExporter) Export(_ context.Context, _ string, link triage.Link) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.exported = append(f.exported, link.URL)
	return nil
}
