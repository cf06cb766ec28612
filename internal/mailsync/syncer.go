// Package mailsync pulls newsletters from a user's mailbox and turns them into
// triage links.
package mailsync

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"time"

	"github.com/rohmanhakim/newsletter-triage/internal/database"
	"github.com/rohmanhakim/newsletter-triage/internal/linkextract"
	"github.com/rohmanhakim/newsletter-triage/internal/mailbox"
	"github.com/rohmanhakim/newsletter-triage/internal/metadata"
	"github.com/rohmanhakim/newsletter-triage/internal/sanitizer"
	"github.com/rohmanhakim/newsletter-triage/internal/settings"
	"github.com/rohmanhakim/newsletter-triage/internal/storage"
	"github.com/rohmanhakim/newsletter-triage/pkg/failure"
	"github.com/rohmanhakim/newsletter-triage/pkg/hashutil"
	"github.com/rohmanhakim/newsletter-triage/pkg/limiter"
	"github.com/rohmanhakim/newsletter-triage/pkg/retry"
)

/*
Syncer owns control flow for one user's sync:
  - stages (mailbox, sanitizer, storage) classify failures, the syncer decides
    whether to retry, skip the message or stop
  - the mailbox cursor only moves past messages that were handled, so a failed
    sync resumes where it stopped
  - metadata emission is observational only
*/

type Store interface {
	ListUsers(ctx context.Context) ([]database.User, error)
	SyncState(ctx context.Context, userID string) (database.SyncState, error)
	PutSyncState(ctx context.Context, st database.SyncState) error
	SaveNewsletter(ctx context.Context, n database.Newsletter, links []database.Link) (bool, error)
}

var _ Store = (*database.Store)(nil)

type SettingsProvider interface {
	Get(ctx context.Context, userID string) (settings.Settings, error)
}

type Syncer struct {
	metadataSink metadata.MetadataSink
	store        Store
	settings     SettingsProvider
	credentials  CredentialResolver
	dialer       mailbox.Dialer
	rateLimiter  limiter.RateLimiter
	sanitizer    sanitizer.Sanitizer
	storageSink  storage.Sink
	archiveDir   string
	hashAlgo     hashutil.HashAlgo
	retryParam   retry.RetryParam
	imapHost     string
	dryRun       bool
	now          func() time.Time
}

func NewSyncer(
	metadataSink metadata.MetadataSink,
	store Store,
	settingsProvider SettingsProvider,
	credentials CredentialResolver,
	dialer mailbox.Dialer,
	rateLimiter limiter.RateLimiter,
	storageSink storage.Sink,
	imapHost string,
	retryParam retry.RetryParam,
) *Syncer {
	if metadataSink == nil {
		metadataSink = metadata.NoopSink{}
	}
	return &Syncer{
		metadataSink: metadataSink,
		store:        store,
		settings:     settingsProvider,
		credentials:  credentials,
		dialer:       dialer,
		rateLimiter:  rateLimiter,
		sanitizer:    sanitizer.NewNewsletterSanitizer(metadataSink),
		storageSink:  storageSink,
		hashAlgo:     hashutil.HashAlgoBLAKE3,
		retryParam:   retryParam,
		imapHost:     imapHost,
		now:          time.Now,
	}
}

// WithArchiveDir enables markdown archiving under dir, one subdirectory per user.
func (s *Syncer) WithArchiveDir(dir string) *Syncer {
	s.archiveDir = dir
	return s
}

func (s *Syncer) WithSanitizer(san sanitizer.Sanitizer) *Syncer {
	s.sanitizer = san
	return s
}

// WithDryRun makes the syncer fetch and process without writing anything.
func (s *Syncer) WithDryRun(dryRun bool) *Syncer {
	s.dryRun = dryRun
	return s
}

func (s *Syncer) WithClock(now func() time.Time) *Syncer {
	s.now = now
	return s
}

// SyncUser fetches new messages for user and stores their links.
// Per-message failures are counted in the result; an error is returned only
// when the sync could not run or had to stop early.
func (s *Syncer) SyncUser(ctx context.Context, user database.User) (SyncResult, error) {
	start := s.now()
	result := SyncResult{UserID: user.ID}

	prefs, err := s.settings.Get(ctx, user.ID)
	if err != nil {
		return result, s.fail(user, &SyncError{Message: err.Error(), Cause: ErrCauseSettings, Err: err})
	}
	if !prefs.SyncEnabled {
		result.Skipped = true
		return result, nil
	}

	state, err := s.store.SyncState(ctx, user.ID)
	if err != nil {
		return result, s.fail(user, &SyncError{Message: err.Error(), Retryable: true, Cause: ErrCausePersistence, Err: err})
	}
	if state.Folder != prefs.MailFolder {
		// UIDs are only meaningful within one folder
		state.Folder = prefs.MailFolder
		state.LastUID = 0
	}
	result.LastUID = state.LastUID

	creds, err := s.credentials.Resolve(ctx, user)
	if err != nil {
		syncErr := &SyncError{Message: err.Error(), Cause: ErrCauseCredentials, Err: err}
		s.saveFailure(ctx, state, syncErr)
		return result, s.fail(user, syncErr)
	}

	box, attempts, syncErr := s.dial(ctx, creds)
	if syncErr != nil {
		s.saveFailure(ctx, state, syncErr)
		return result, s.fail(user, syncErr)
	}
	defer box.Close()

	fetchStart := s.now()
	fetchResult := retry.Retry(ctx, s.retryParam, func(ctx context.Context) ([]mailbox.Message, failure.ClassifiedError) {
		return box.FetchSince(ctx, state.Folder, state.LastUID, prefs.MaxMessagesPerSync)
	})
	if fetchResult.IsFailure() {
		syncErr := &SyncError{Message: fetchResult.Err().Error(), Retryable: true, Cause: ErrCauseMailbox, Err: fetchResult.Err()}
		s.saveFailure(ctx, state, syncErr)
		return result, s.fail(user, syncErr)
	}
	messages := fetchResult.Value()
	result.Fetched = len(messages)
	s.metadataSink.RecordMailFetch(metadata.NewMailFetchEvent(
		s.imapHost,
		state.Folder,
		len(messages),
		s.now().Sub(fetchStart),
		attempts-1+fetchResult.Attempts()-1,
	))

	var handled []uint32
	for _, msg := range messages {
		if ctx.Err() != nil {
			break
		}
		stored, err := s.processMessage(ctx, user, prefs, state.Folder, msg, &result)
		if err != nil {
			// cursor stays before this message so the next sync retries it
			result.Errors++
			s.fail(user, err)
			break
		}
		// skipped mail is passed by the cursor but left unread
		if stored {
			handled = append(handled, msg.UID)
		}
		if msg.UID > state.LastUID {
			state.LastUID = msg.UID
		}
	}
	result.LastUID = state.LastUID

	if prefs.MarkSeen && !s.dryRun && len(handled) > 0 {
		if err := box.MarkSeen(ctx, state.Folder, handled); err != nil {
			result.Errors++
			s.recordMailboxError(user, "Mailbox.MarkSeen", err)
		}
	}

	if !s.dryRun {
		state.LastSyncedAt = s.now()
		state.LastError = ""
		if err := s.store.PutSyncState(ctx, state); err != nil {
			return result, s.fail(user, &SyncError{Message: err.Error(), Retryable: true, Cause: ErrCausePersistence, Err: err})
		}
	}

	result.Duration = s.now().Sub(start)
	return result, nil
}

// dial opens the mailbox, pacing and backing off per IMAP host.
func (s *Syncer) dial(ctx context.Context, creds mailbox.Credentials) (mailbox.Mailbox, int, *SyncError) {
	dialResult := retry.Retry(ctx, s.retryParam, func(ctx context.Context) (mailbox.Mailbox, failure.ClassifiedError) {
		if err := s.rateLimiter.Wait(ctx, s.imapHost); err != nil {
			return nil, &mailbox.MailboxError{Message: err.Error(), Cause: mailbox.ErrCauseCanceled}
		}
		box, err := s.dialer.Dial(ctx, creds)
		s.rateLimiter.MarkLastAccessAsNow(s.imapHost)
		if err != nil {
			if failure.IsRecoverable(err) {
				s.rateLimiter.Backoff(s.imapHost)
			}
			return nil, err
		}
		return box, nil
	})
	if dialResult.IsFailure() {
		return nil, dialResult.Attempts(), &SyncError{
			Message:   dialResult.Err().Error(),
			Retryable: failure.IsRecoverable(dialResult.Err()),
			Cause:     ErrCauseMailbox,
			Err:       dialResult.Err(),
		}
	}
	s.rateLimiter.ResetBackoff(s.imapHost)
	return dialResult.Value(), dialResult.Attempts(), nil
}

// processMessage reports whether msg is now stored as a newsletter, new or duplicate.
// It returns an error only for failures that must stop the sync.
func (s *Syncer) processMessage(
	ctx context.Context,
	user database.User,
	prefs settings.Settings,
	folder string,
	msg mailbox.Message,
	result *SyncResult,
) (bool, *SyncError) {
	parsed, parseErr := mailbox.ParseMessage(msg.Raw)
	if parseErr != nil {
		// unreadable forever, skip it
		result.Errors++
		s.recordMailboxError(user, "mailbox.ParseMessage", parseErr,
			metadata.NewAttr(metadata.AttrUID, strconv.FormatUint(uint64(msg.UID), 10)),
		)
		return false, nil
	}
	if !prefs.AllowsSender(parsed.FromAddress) {
		result.Filtered++
		return false, nil
	}

	messageID := parsed.MessageID
	if messageID == "" {
		messageID = msg.MessageID
	}
	if messageID == "" {
		messageID = fmt.Sprintf("<uid-%d.%s@%s>", msg.UID, folder, s.imapHost)
	}
	received := parsed.Date
	if received.IsZero() {
		received = msg.InternalDate
	}
	if received.IsZero() {
		received = s.now()
	}
	sender := parsed.FromAddress
	if parsed.FromName != "" {
		sender = fmt.Sprintf("%s <%s>", parsed.FromName, parsed.FromAddress)
	}
	subject := parsed.Subject
	if subject == "" {
		subject = msg.Subject
	}

	doc := s.sanitizer.Sanitize(parsed.HTMLBody())
	candidates := linkextract.Extract(doc.Markdown())

	if s.dryRun {
		result.Newsletters++
		result.Links += len(candidates)
		return true, nil
	}

	archivePath := ""
	if prefs.ArchiveMarkdown && s.archiveDir != "" && s.storageSink != nil {
		writeResult, err := s.storageSink.Write(
			filepath.Join(s.archiveDir, user.ID),
			storage.NewArchiveDoc(messageID, subject, sender, received, doc.Markdown()),
			s.hashAlgo,
		)
		if err != nil {
			// the archive is a copy; the newsletter is still stored
			result.Errors++
		} else {
			archivePath = writeResult.Path()
		}
	}

	newsletterID := hashutil.StableID(user.ID, messageID)
	newsletter := database.Newsletter{
		ID:          newsletterID,
		UserID:      user.ID,
		MessageID:   messageID,
		Subject:     subject,
		Sender:      sender,
		ReceivedAt:  received,
		Markdown:    doc.Markdown(),
		ArchivePath: archivePath,
	}
	links := make([]database.Link, 0, len(candidates))
	for _, c := range candidates {
		links = append(links, database.Link{
			ID:       hashutil.StableID(newsletterID, c.URL),
			URL:      c.URL,
			RawURL:   c.RawURL,
			Text:     c.Text,
			Host:     c.Host,
			Position: c.Position,
		})
	}

	inserted, err := s.store.SaveNewsletter(ctx, newsletter, links)
	if err != nil {
		return false, &SyncError{
			Message:   fmt.Sprintf("message %s: %v", messageID, err),
			Retryable: true,
			Cause:     ErrCausePersistence,
			Err:       err,
		}
	}
	if !inserted {
		result.Duplicates++
		return true, nil
	}
	result.Newsletters++
	result.Links += len(links)
	return true, nil
}

func (s *Syncer) saveFailure(ctx context.Context, state database.SyncState, syncErr *SyncError) {
	if s.dryRun {
		return
	}
	// failed users wait a full interval before the next attempt
	state.LastSyncedAt = s.now()
	state.LastError = syncErr.Error()
	_ = s.store.PutSyncState(ctx, state)
}

func (s *Syncer) fail(user database.User, syncErr *SyncError) *SyncError {
	s.metadataSink.RecordError(
		s.now(),
		"mailsync",
		"Syncer.SyncUser",
		mapSyncErrorToMetadataCause(syncErr),
		syncErr.Error(),
		[]metadata.Attribute{
			metadata.NewAttr(metadata.AttrUser, user.Email),
			metadata.NewAttr(metadata.AttrHost, s.imapHost),
		},
	)
	return syncErr
}

func (s *Syncer) recordMailboxError(user database.User, action string, err failure.ClassifiedError, attrs ...metadata.Attribute) {
	cause := metadata.CauseUnknown
	if mbErr, ok := err.(*mailbox.MailboxError); ok {
		cause = mailbox.MapMailboxErrorToMetadataCause(mbErr)
	}
	s.metadataSink.RecordError(
		s.now(),
		"mailsync",
		action,
		cause,
		err.Error(),
		append([]metadata.Attribute{metadata.NewAttr(metadata.AttrUser, user.Email)}, attrs...),
	)
}
