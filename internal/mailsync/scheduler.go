package mailsync

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/rohmanhakim/newsletter-triage/internal/database"
	"github.com/rohmanhakim/newsletter-triage/internal/metadata"
	"golang.org/x/sync/errgroup"
)

// UserSyncer is the per-user unit of work the scheduler fans out.
type UserSyncer interface {
	SyncUser(ctx context.Context, user database.User) (SyncResult, error)
}

var _ UserSyncer = (*Syncer)(nil)

/*
Scheduler decides when each user is synced.

  - a user is due when sync is enabled and their interval has elapsed since the
    last attempt, successful or not
  - due users are synced concurrently, at most `concurrency` at a time
  - one failing user never cancels the others
*/
type Scheduler struct {
	syncer        UserSyncer
	store         Store
	settings      SettingsProvider
	syncFinalizer metadata.SyncFinalizer
	logger        *slog.Logger
	tick          time.Duration
	concurrency   int
	now           func() time.Time
}

func NewScheduler(
	syncer UserSyncer,
	store Store,
	settingsProvider SettingsProvider,
	syncFinalizer metadata.SyncFinalizer,
	tick time.Duration,
	concurrency int,
) *Scheduler {
	if syncFinalizer == nil {
		syncFinalizer = metadata.NoopSink{}
	}
	if concurrency < 1 {
		concurrency = 1
	}
	return &Scheduler{
		syncer:        syncer,
		store:         store,
		settings:      settingsProvider,
		syncFinalizer: syncFinalizer,
		logger:        slog.Default(),
		tick:          tick,
		concurrency:   concurrency,
		now:           time.Now,
	}
}

func (s *Scheduler) WithLogger(logger *slog.Logger) *Scheduler {
	if logger != nil {
		s.logger = logger
	}
	return s
}

func (s *Scheduler) WithClock(now func() time.Time) *Scheduler {
	s.now = now
	return s
}

// Run syncs due users immediately and then on every tick until ctx is done.
func (s *Scheduler) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()

	if _, err := s.RunOnce(ctx, false); err != nil {
		s.logger.Error("sync pass failed", slog.Any("error", err))
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if _, err := s.RunOnce(ctx, false); err != nil {
				s.logger.Error("sync pass failed", slog.Any("error", err))
			}
		}
	}
}

// RunOnce syncs every due user, or every enabled user when force is set.
// The returned error is only about selecting users; per-user failures are
// counted in the stats.
func (s *Scheduler) RunOnce(ctx context.Context, force bool) (RunStats, error) {
	start := s.now()
	var (
		mu    sync.Mutex
		stats RunStats
	)

	due, err := s.dueUsers(ctx, force)
	if err != nil {
		s.finish(&stats, start)
		return stats, err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for _, user := range due {
		user := user
		g.Go(func() error {
			res, err := s.syncer.SyncUser(gctx, user)
			mu.Lock()
			defer mu.Unlock()
			if res.Skipped {
				return nil
			}
			stats.add(res)
			if err != nil {
				stats.Errors++
				s.logger.Warn("user sync failed",
					slog.String("user", user.Email),
					slog.Any("error", err),
				)
				return nil
			}
			s.logger.Info("user synced",
				slog.String("user", user.Email),
				slog.Int("fetched", res.Fetched),
				slog.Int("newsletters", res.Newsletters),
				slog.Int("links", res.Links),
			)
			return nil
		})
	}
	_ = g.Wait()
	s.finish(&stats, start)
	return stats, nil
}

func (s *Scheduler) finish(stats *RunStats, start time.Time) {
	stats.Duration = s.now().Sub(start)
	s.syncFinalizer.RecordSyncStats(stats.Newsletters, stats.Links, stats.Errors, stats.Duration)
}

func (s *Scheduler) dueUsers(ctx context.Context, force bool) ([]database.User, error) {
	users, err := s.store.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	now := s.now()
	var due []database.User
	for _, u := range users {
		prefs, err := s.settings.Get(ctx, u.ID)
		if err != nil {
			s.logger.Warn("settings unavailable", slog.String("user", u.Email), slog.Any("error", err))
			continue
		}
		if !prefs.SyncEnabled {
			continue
		}
		if force {
			due = append(due, u)
			continue
		}
		state, err := s.store.SyncState(ctx, u.ID)
		if err != nil {
			s.logger.Warn("sync state unavailable", slog.String("user", u.Email), slog.Any("error", err))
			continue
		}
		if state.LastSyncedAt.IsZero() || now.Sub(state.LastSyncedAt) >= prefs.SyncInterval() {
			due = append(due, u)
		}
	}
	return due, nil
}
