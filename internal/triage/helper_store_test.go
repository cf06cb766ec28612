package triage_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/rohmanhakim/newsletter-triage/internal/database"
	"github.com/stretchr/testify/require"
)

var baseTime = time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)

func openStore(t *testing.T) (*database.Store, string) {
	t.Helper()
	store, err := database.Open(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	u, err := store.EnsureUser(context.Background(), "reader@example.com")
	require.NoError(t, err)
	return store, u.ID
}

// seed stores one newsletter per entry; entry i is received i days before baseTime.
func seed(t *testing.T, store *database.Store, userID string, linksPerNewsletter ...int) []string {
	t.Helper()
	ids := make([]string, 0, len(linksPerNewsletter))
	for i, count := range linksPerNewsletter {
		id := fmt.Sprintf("nl-%d", i)
		links := make([]database.Link, 0, count)
		for p := 0; p < count; p++ {
			links = append(links, database.Link{
				ID:       fmt.Sprintf("%s-l%d", id, p),
				URL:      fmt.Sprintf("https://example.com/%d/%d", i, p),
				Text:     fmt.Sprintf("Story %d.%d", i, p),
				Host:     "example.com",
				Position: p,
			})
		}
		_, err := store.SaveNewsletter(context.Background(), database.Newsletter{
			ID:         id,
			UserID:     userID,
			MessageID:  fmt.Sprintf("<%d@mail>", i),
			Subject:    fmt.Sprintf("Issue %d", i),
			Sender:     "editor@example.com",
			ReceivedAt: baseTime.Add(-time.Duration(i) * 24 * time.Hour),
		}, links)
		require.NoError(t, err)
		ids = append(ids, id)
	}
	return ids
}
