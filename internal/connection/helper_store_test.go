package connection_test

import (
	"context"
	"testing"
	"time"

	"github.com/rohmanhakim/newsletter-triage/internal/database"
	"github.com/stretchr/testify/require"
)

func openStore(t *testing.T) (*database.Store, string) {
	t.Helper()
	store, err := database.Open(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	u, err := store.EnsureUser(context.Background(), "reader@example.com")
	require.NoError(t, err)
	return store, u.ID
}

func databaseNewsletter(userID string) database.Newsletter {
	return database.Newsletter{
		ID:         "nl-1",
		UserID:     userID,
		MessageID:  "<1@mail>",
		Subject:    "Weekly Digest",
		ReceivedAt: time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
	}
}

func databaseLinks() []database.Link {
	return []database.Link{{ID: "link-1", URL: "https://example.com/post", Text: "A good post", Position: 0}}
}
