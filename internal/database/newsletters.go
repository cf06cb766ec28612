package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type Newsletter struct {
	ID          string
	UserID      string
	MessageID   string
	Subject     string
	Sender      string
	ReceivedAt  time.Time
	Markdown    string
	ArchivePath string
	CreatedAt   time.Time
}

// SaveNewsletter inserts n and its links in one transaction.
// A newsletter already stored for the same user and message id is left untouched
// and inserted is false, so re-syncing a message is a no-op.
func (s *Store) SaveNewsletter(ctx context.Context, n Newsletter, links []Link) (inserted bool, err error) {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin save newsletter: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `
INSERT OR IGNORE INTO newsletters (id, user_id, message_id, subject, sender, received_at, markdown, archive_path, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?);`,
		n.ID, n.UserID, n.MessageID, n.Subject, n.Sender, toMillis(n.ReceivedAt), n.Markdown, n.ArchivePath, toMillis(s.now()),
	)
	if err != nil {
		return false, fmt.Errorf("insert newsletter: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("insert newsletter: %w", err)
	}
	if affected == 0 {
		return false, tx.Commit()
	}

	for _, l := range links {
		if l.ID == "" {
			l.ID = uuid.NewString()
		}
		_, err := tx.ExecContext(ctx, `
INSERT OR IGNORE INTO links (id, user_id, newsletter_id, url, raw_url, text, host, position, status, status_changed_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?);`,
			l.ID, n.UserID, n.ID, l.URL, l.RawURL, l.Text, l.Host, l.Position, StatusPending, toMillis(s.now()),
		)
		if err != nil {
			return false, fmt.Errorf("insert link: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit newsletter: %w", err)
	}
	return true, nil
}

func (s *Store) NewsletterByID(ctx context.Context, userID, newsletterID string) (Newsletter, error) {
	var (
		n                 Newsletter
		received, created int64
	)
	err := s.db.QueryRowContext(ctx, `
SELECT id, user_id, message_id, subject, sender, received_at, markdown, archive_path, created_at
FROM newsletters WHERE id = ? AND user_id = ?;`,
		newsletterID, userID,
	).Scan(&n.ID, &n.UserID, &n.MessageID, &n.Subject, &n.Sender, &received, &n.Markdown, &n.ArchivePath, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return Newsletter{}, fmt.Errorf("%w: newsletter %s", ErrNotFound, newsletterID)
	}
	if err != nil {
		return Newsletter{}, fmt.Errorf("get newsletter: %w", err)
	}
	n.ReceivedAt = fromMillis(received)
	n.CreatedAt = fromMillis(created)
	return n, nil
}
