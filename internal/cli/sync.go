package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofrs/flock"
	"github.com/rohmanhakim/newsletter-triage/internal/mailbox"
	"github.com/rohmanhakim/newsletter-triage/internal/mailsync"
	"github.com/rohmanhakim/newsletter-triage/internal/storage"
	"github.com/rohmanhakim/newsletter-triage/pkg/limiter"
	"github.com/rohmanhakim/newsletter-triage/pkg/retry"
	"github.com/rohmanhakim/newsletter-triage/pkg/timeutil"
	"github.com/spf13/cobra"
)

// ErrSyncRunning is returned when another process holds the sync lock.
var ErrSyncRunning = errors.New("another sync is already running")

var (
	syncWatch bool
	syncAll   bool
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Fetch new newsletters and queue their links",
	Long: `sync fetches messages received since the last sync, keeps the
newsletters, and queues their links for review.

Without flags only --user is synced, once. --all syncs every enabled
account in the database. --watch keeps running and syncs each account
whenever its sync interval has elapsed.`,
	Args: cobra.NoArgs,
	RunE: withApp(func(cmd *cobra.Command, a *app, _ []string) error {
		lock := flock.New(a.cfg.LockPath())
		locked, err := lock.TryLock()
		if err != nil {
			return fmt.Errorf("acquire sync lock %s: %w", a.cfg.LockPath(), err)
		}
		if !locked {
			return fmt.Errorf("%w (lock %s)", ErrSyncRunning, a.cfg.LockPath())
		}
		defer lock.Unlock()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		syncer := newSyncer(a, mailbox.NewIMAPDialer())
		scheduler := mailsync.NewScheduler(
			syncer,
			a.store,
			a.settings,
			a.recorder,
			a.cfg.SchedulerTick(),
			a.cfg.Concurrency(),
		).WithLogger(a.logger)

		switch {
		case syncWatch:
			a.logger.Info("watching mailboxes", "tick", a.cfg.SchedulerTick())
			return scheduler.Run(ctx)
		case syncAll:
			stats, err := scheduler.RunOnce(ctx, true)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "synced %d accounts: %d newsletters, %d links, %d errors\n",
				stats.Users, stats.Newsletters, stats.Links, stats.Errors)
			return nil
		default:
			return syncCurrentUser(ctx, cmd, a, syncer)
		}
	}),
}

func syncCurrentUser(ctx context.Context, cmd *cobra.Command, a *app, syncer *mailsync.Syncer) error {
	start := time.Now()
	res, err := syncer.SyncUser(ctx, a.user)
	errorCount := res.Errors
	if err != nil {
		errorCount++
	}
	a.recorder.RecordSyncStats(res.Newsletters, res.Links, errorCount, time.Since(start))
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if res.Skipped {
		fmt.Fprintln(out, "sync is disabled for", a.user.Email)
		return nil
	}
	fmt.Fprintf(out, "fetched %d messages: %d newsletters, %d links queued, %d duplicates, %d filtered, %d errors\n",
		res.Fetched, res.Newsletters, res.Links, res.Duplicates, res.Filtered, res.Errors)
	return nil
}

func newSyncer(a *app, dialer mailbox.Dialer) *mailsync.Syncer {
	backoff := timeutil.NewBackoffParam(
		a.cfg.BackoffInitialDuration(),
		a.cfg.BackoffMultiplier(),
		a.cfg.BackoffMaxDuration(),
	)

	rateLimiter := limiter.NewConcurrentRateLimiter()
	rateLimiter.SetBaseDelay(a.cfg.BaseDelay())
	rateLimiter.SetJitter(a.cfg.Jitter())
	rateLimiter.SetRandomSeed(a.cfg.RandomSeed())
	rateLimiter.SetBackoffParam(backoff)

	username := ""
	if a.cfg.ImapUsername() != a.cfg.UserEmail() {
		username = a.cfg.ImapUsername()
	}
	credentials := mailsync.NewAccountCredentials(a.connections, a.cfg.ImapAddress(), a.cfg.ImapHost(), username)

	storageSink := storage.NewLocalSink(a.recorder)
	return mailsync.NewSyncer(
		a.recorder,
		a.store,
		a.settings,
		credentials,
		dialer,
		rateLimiter,
		&storageSink,
		a.cfg.ImapHost(),
		retry.NewRetryParam(a.cfg.Jitter(), a.cfg.RandomSeed(), a.cfg.MaxAttempt(), backoff),
	).
		WithArchiveDir(a.cfg.ArchiveDir()).
		WithDryRun(a.cfg.DryRun())
}

func init() {
	syncCmd.Flags().BoolVar(&syncWatch, "watch", false, "keep running and sync accounts when they are due")
	syncCmd.Flags().BoolVar(&syncAll, "all", false, "sync every enabled account once")
	rootCmd.AddCommand(syncCmd)
}
