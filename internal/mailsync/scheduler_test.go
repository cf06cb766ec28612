package mailsync_test

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/rohmanhakim/newsletter-triage/internal/database"
	"github.com/rohmanhakim/newsletter-triage/internal/mailsync"
	"github.com/rohmanhakim/newsletter-triage/internal/settings"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var schedulerNow = time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

// recordingSyncer remembers which users it was asked to sync.
type recordingSyncer struct {
	mu       sync.Mutex
	emails   []string
	failFor  map[string]error
	result   mailsync.SyncResult
	inFlight int
	maxSeen  int
	delay    time.Duration
	onSync   func()
}

func (r *recordingSyncer) SyncUser(ctx context.Context, user database.User) (mailsync.SyncResult, error) {
	r.mu.Lock()
	r.emails = append(r.emails, user.Email)
	r.inFlight++
	if r.inFlight > r.maxSeen {
		r.maxSeen = r.inFlight
	}
	r.mu.Unlock()

	if r.delay > 0 {
		time.Sleep(r.delay)
	}
	if r.onSync != nil {
		r.onSync()
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.inFlight--
	res := r.result
	res.UserID = user.ID
	return res, r.failFor[user.Email]
}

func (r *recordingSyncer) synced() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := append([]string(nil), r.emails...)
	sort.Strings(out)
	return out
}

type schedulerFixture struct {
	store    *database.Store
	settings *settings.Service
	syncer   *recordingSyncer
	sink     *countingSink
}

func newSchedulerFixture(t *testing.T, emails ...string) (*schedulerFixture, map[string]database.User) {
	t.Helper()
	ctx := context.Background()
	store, err := database.Open(ctx, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	users := make(map[string]database.User, len(emails))
	for _, email := range emails {
		u, err := store.EnsureUser(ctx, email)
		require.NoError(t, err)
		users[email] = u
	}
	return &schedulerFixture{
		store:    store,
		settings: settings.NewService(store, "INBOX"),
		syncer:   &recordingSyncer{failFor: map[string]error{}},
		sink:     &countingSink{},
	}, users
}

func (f *schedulerFixture) scheduler(concurrency int) *mailsync.Scheduler {
	return mailsync.NewScheduler(f.syncer, f.store, f.settings, f.sink, time.Hour, concurrency).
		WithClock(func() time.Time { return schedulerNow })
}

func TestScheduler_RunOnceSelectsDueUsers(t *testing.T) {
	ctx := context.Background()
	f, users := newSchedulerFixture(t,
		"fresh@example.com",
		"recent@example.com",
		"stale@example.com",
		"disabled@example.com",
	)

	require.NoError(t, f.store.PutSyncState(ctx, database.SyncState{
		UserID:       users["recent@example.com"].ID,
		Folder:       "INBOX",
		LastSyncedAt: schedulerNow.Add(-10 * time.Minute),
	}))
	require.NoError(t, f.store.PutSyncState(ctx, database.SyncState{
		UserID:       users["stale@example.com"].ID,
		Folder:       "INBOX",
		LastSyncedAt: schedulerNow.Add(-61 * time.Minute),
	}))
	_, err := f.settings.Set(ctx, users["disabled@example.com"].ID, "sync_enabled", "false")
	require.NoError(t, err)

	stats, err := f.scheduler(2).RunOnce(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, []string{"fresh@example.com", "stale@example.com"}, f.syncer.synced())
	assert.Equal(t, 2, stats.Users)
}

func TestScheduler_RunOnceForceIgnoresInterval(t *testing.T) {
	ctx := context.Background()
	f, users := newSchedulerFixture(t, "recent@example.com", "disabled@example.com")
	require.NoError(t, f.store.PutSyncState(ctx, database.SyncState{
		UserID:       users["recent@example.com"].ID,
		Folder:       "INBOX",
		LastSyncedAt: schedulerNow.Add(-time.Minute),
	}))
	_, err := f.settings.Set(ctx, users["disabled@example.com"].ID, "sync_enabled", "false")
	require.NoError(t, err)

	_, err = f.scheduler(1).RunOnce(ctx, true)
	require.NoError(t, err)
	assert.Equal(t, []string{"recent@example.com"}, f.syncer.synced())
}

func TestScheduler_RunOnceCountsFailuresAndRecordsStats(t *testing.T) {
	ctx := context.Background()
	f, _ := newSchedulerFixture(t, "a@example.com", "b@example.com", "c@example.com")
	f.syncer.result = mailsync.SyncResult{Newsletters: 2, Links: 5}
	f.syncer.failFor["b@example.com"] = errors.New("mailbox unreachable")

	stats, err := f.scheduler(3).RunOnce(ctx, false)
	require.NoError(t, err, "per-user failures are not returned")
	assert.Len(t, f.syncer.synced(), 3, "one failure does not cancel the others")
	assert.Equal(t, 3, stats.Users)
	assert.Equal(t, 6, stats.Newsletters)
	assert.Equal(t, 15, stats.Links)
	assert.Equal(t, 1, stats.Errors)
	assert.Equal(t, []int{6, 15, 1}, f.sink.stats)
}

func TestScheduler_RunOnceRespectsConcurrency(t *testing.T) {
	f, _ := newSchedulerFixture(t,
		"u1@example.com", "u2@example.com", "u3@example.com",
		"u4@example.com", "u5@example.com", "u6@example.com",
	)
	f.syncer.delay = 5 * time.Millisecond

	_, err := f.scheduler(2).RunOnce(context.Background(), false)
	require.NoError(t, err)
	assert.Len(t, f.syncer.synced(), 6)
	assert.LessOrEqual(t, f.syncer.maxSeen, 2)
}

func TestScheduler_RunOnceWithoutUsers(t *testing.T) {
	f, _ := newSchedulerFixture(t)

	stats, err := f.scheduler(1).RunOnce(context.Background(), false)
	require.NoError(t, err)
	assert.Zero(t, stats.Users)
	assert.Equal(t, []int{0, 0, 0}, f.sink.stats)
}

func TestScheduler_RunStopsWhenContextDone(t *testing.T) {
	f, _ := newSchedulerFixture(t, "a@example.com")
	ctx, cancel := context.WithCancel(context.Background())
	f.syncer.onSync = cancel

	done := make(chan error, 1)
	go func() { done <- f.scheduler(1).Run(ctx) }()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancellation")
	}
	assert.Equal(t, []string{"a@example.com"}, f.syncer.synced())
}
