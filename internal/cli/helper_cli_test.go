package cmd_test

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	cmd "github.com/rohmanhakim/newsletter-triage/internal/cli"
	"github.com/rohmanhakim/newsletter-triage/internal/database"
	"github.com/stretchr/testify/require"
)

const testUser = "reader@example.com"

// workspace is a temp directory holding the database, lock and archive of one test.
type workspace struct {
	dir string
	db  string
}

func newWorkspace(t *testing.T) workspace {
	t.Helper()
	dir := t.TempDir()
	return workspace{dir: dir, db: filepath.Join(dir, "triage.db")}
}

// run executes the command tree in process with the workspace flags prepended.
func (w workspace) run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd.ResetFlags()
	t.Cleanup(cmd.ResetFlags)

	full := append([]string{}, args...)
	full = append(full,
		"--user", testUser,
		"--db", w.db,
		"--lock-file", filepath.Join(w.dir, "sync.lock"),
		"--archive-dir", filepath.Join(w.dir, "archive"),
		"--log-level", "error",
	)

	var out, errOut bytes.Buffer
	root := cmd.Root()
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(full)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

// seedQueue stores one newsletter with two pending links for testUser.
func (w workspace) seedQueue(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	store, err := database.Open(ctx, w.db)
	require.NoError(t, err)
	defer store.Close()

	user, err := store.EnsureUser(ctx, testUser)
	require.NoError(t, err)

	inserted, err := store.SaveNewsletter(ctx, database.Newsletter{
		ID:         "nl-1",
		UserID:     user.ID,
		MessageID:  "<issue-1@news.example.com>",
		Subject:    "Weekly Issue 1",
		Sender:     "Weekly <editor@news.example.com>",
		ReceivedAt: time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC),
		Markdown:   "[First story](https://example.com/a)\n\n[Second story](https://example.com/b)",
	}, []database.Link{
		{ID: "l-1", URL: "https://example.com/a", RawURL: "https://example.com/a", Text: "First story", Host: "example.com", Position: 0},
		{ID: "l-2", URL: "https://example.com/b", RawURL: "https://example.com/b", Text: "Second story", Host: "example.com", Position: 1},
	})
	require.NoError(t, err)
	require.True(t, inserted)
}

const newsletterHTML = `<html><head><style>p { color: red }</style></head><body>
<p>This week in Go</p>
<p><a href="https://example.com/a?utm_source=newsletter">First story</a></p>
<p><a href="https://news.example.com/unsubscribe">Unsubscribe</a></p>
<img src="https://track.example.com/open.gif" width="1" height="1">
</body></html>`
