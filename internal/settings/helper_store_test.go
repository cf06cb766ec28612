package settings_test

import (
	"context"
	"errors"

	"github.com/rohmanhakim/newsletter-triage/internal/database"
)

type memoryStore struct {
	bodies map[string][]byte
	putErr error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{bodies: map[string][]byte{}}
}

func (m *memoryStore) SettingsBody(_ context.Context, userID string) ([]byte, error) {
	body, ok := m.bodies[userID]
	if !ok {
		return nil, database.ErrNotFound
	}
	return body, nil
}

func (m *memoryStore) PutSettingsBody(_ context.Context, userID string, body []byte) error {
	if m.putErr != nil {
		return m.putErr
	}
	m.bodies[userID] = body
	return nil
}

var errDiskFull = errors.New("disk full")
