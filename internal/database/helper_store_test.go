package database_test

import (
	"context"
	"testing"
	"time"

	"github.com/rohmanhakim/newsletter-triage/internal/database"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

func openTestStore(t *testing.T) *database.Store {
	t.Helper()
	store, err := database.Open(context.Background(), ":memory:")
	require.NoError(t, err)
	store.WithClock(func() time.Time { return fixedNow })
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func createUser(t *testing.T, store *database.Store, email string) database.User {
	t.Helper()
	u, err := store.EnsureUser(context.Background(), email)
	require.NoError(t, err)
	return u
}

func saveNewsletter(t *testing.T, store *database.Store, userID, messageID string, received time.Time, urls ...string) database.Newsletter {
	t.Helper()
	n := database.Newsletter{
		ID:         userID + ":" + messageID,
		UserID:     userID,
		MessageID:  messageID,
		Subject:    "Issue " + messageID,
		Sender:     "editor@example.com",
		ReceivedAt: received,
		Markdown:   "body",
	}
	links := make([]database.Link, 0, len(urls))
	for i, u := range urls {
		links = append(links, database.Link{
			ID:       n.ID + ":" + u,
			URL:      u,
			RawURL:   u,
			Text:     "link " + u,
			Host:     "example.com",
			Position: i,
		})
	}
	inserted, err := store.SaveNewsletter(context.Background(), n, links)
	require.NoError(t, err)
	require.True(t, inserted)
	return n
}
