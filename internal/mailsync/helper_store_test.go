package mailsync_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rohmanhakim/newsletter-triage/internal/database"
	"github.com/rohmanhakim/newsletter-triage/internal/mailsync"
	"github.com/rohmanhakim/newsletter-triage/internal/metadata"
	"github.com/rohmanhakim/newsletter-triage/internal/settings"
	"github.com/rohmanhakim/newsletter-triage/internal/storage"
	"github.com/rohmanhakim/newsletter-triage/pkg/limiter"
	"github.com/rohmanhakim/newsletter-triage/pkg/retry"
	"github.com/rohmanhakim/newsletter-triage/pkg/timeutil"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	store    *database.Store
	settings *settings.Service
	user     database.User
	dialer   *fakeDialer
	box      *fakeMailbox
	sink     *countingSink
	syncer   *mailsync.Syncer
	archive  string
}

func newFixture(t *testing.T, creds mailsync.CredentialResolver) *fixture {
	t.Helper()
	ctx := context.Background()
	store, err := database.Open(ctx, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	user, err := store.EnsureUser(ctx, "reader@example.com")
	require.NoError(t, err)

	if creds == nil {
		creds = staticCredentials{}
	}
	box := &fakeMailbox{}
	dialer := &fakeDialer{box: box}
	sink := &countingSink{}
	settingsSvc := settings.NewService(store, "INBOX")

	rateLimiter := limiter.NewConcurrentRateLimiter()
	rateLimiter.SetBackoffParam(timeutil.NewBackoffParam(time.Millisecond, 2, 5*time.Millisecond))

	archive := t.TempDir()
	storageSink := storage.NewLocalSink(sink)
	syncer := mailsync.NewSyncer(
		sink,
		store,
		settingsSvc,
		creds,
		dialer,
		rateLimiter,
		&storageSink,
		"imap.example.com",
		retry.NewRetryParam(0, 1, 3, timeutil.NewBackoffParam(time.Millisecond, 2, 5*time.Millisecond)),
	).WithArchiveDir(archive)

	return &fixture{
		store:    store,
		settings: settingsSvc,
		user:     user,
		dialer:   dialer,
		box:      box,
		sink:     sink,
		syncer:   syncer,
		archive:  archive,
	}
}

type countingSink struct {
	metadata.NoopSink
	mu        sync.Mutex
	errors    []metadata.ErrorCause
	fetches   int
	artifacts int
	stats     []int
}

func (c *countingSink) RecordError(_ time.Time, _ string, _ string, cause metadata.ErrorCause, _ string, _ []metadata.Attribute) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.errors = append(c.errors, cause)
}

func (c *countingSink) RecordMailFetch(metadata.MailFetchEvent) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fetches++
}

func (c *countingSink) RecordArtifact(metadata.ArtifactKind, string, []metadata.Attribute) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.artifacts++
}

func (c *countingSink) RecordSyncStats(newsletters int, links int, errors int, _ time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stats = append(c.stats, newsletters, links, errors)
}
