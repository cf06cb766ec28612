package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	StatusPending   = "pending"
	StatusSaved     = "saved"
	StatusDiscarded = "discarded"
)

type Link struct {
	ID              string
	UserID          string
	NewsletterID    string
	URL             string
	RawURL          string
	Text            string
	Host            string
	Position        int
	Status          string
	StatusChangedAt time.Time
	ExportedAt      time.Time
}

// LinkView is a link joined with the newsletter it came from.
type LinkView struct {
	Link
	NewsletterSubject    string
	NewsletterSender     string
	NewsletterReceivedAt time.Time
}

// LinkFilter narrows ListLinks. Zero values mean no restriction.
type LinkFilter struct {
	Status       string
	NewsletterID string
	Limit        int
}

const linkViewColumns = `
l.id, l.user_id, l.newsletter_id, l.url, l.raw_url, l.text, l.host, l.position,
l.status, l.status_changed_at, l.exported_at,
n.subject, n.sender, n.received_at`

// triage order: newest newsletter first, then reading order inside it
const linkOrder = `ORDER BY n.received_at DESC, n.id ASC, l.position ASC`

func scanLinkView(row interface{ Scan(...any) error }) (LinkView, error) {
	var (
		v                          LinkView
		changed, exported, receive int64
	)
	err := row.Scan(
		&v.ID, &v.UserID, &v.NewsletterID, &v.URL, &v.RawURL, &v.Text, &v.Host, &v.Position,
		&v.Status, &changed, &exported,
		&v.NewsletterSubject, &v.NewsletterSender, &receive,
	)
	if err != nil {
		return LinkView{}, err
	}
	v.StatusChangedAt = fromMillis(changed)
	v.ExportedAt = fromMillis(exported)
	v.NewsletterReceivedAt = fromMillis(receive)
	return v, nil
}

// NextPendingLink returns the first pending link in triage order.
func (s *Store) NextPendingLink(ctx context.Context, userID string) (LinkView, error) {
	row := s.db.QueryRowContext(ctx, `
SELECT`+linkViewColumns+`
FROM links l JOIN newsletters n ON n.id = l.newsletter_id
WHERE l.user_id = ? AND l.status = ?
`+linkOrder+`
LIMIT 1;`, userID, StatusPending)

	v, err := scanLinkView(row)
	if errors.Is(err, sql.ErrNoRows) {
		return LinkView{}, fmt.Errorf("%w: no pending link", ErrNotFound)
	}
	if err != nil {
		return LinkView{}, fmt.Errorf("next pending link: %w", err)
	}
	return v, nil
}

func (s *Store) LinkByID(ctx context.Context, userID, linkID string) (LinkView, error) {
	row := s.db.QueryRowContext(ctx, `
SELECT`+linkViewColumns+`
FROM links l JOIN newsletters n ON n.id = l.newsletter_id
WHERE l.user_id = ? AND l.id = ?;`, userID, linkID)

	v, err := scanLinkView(row)
	if errors.Is(err, sql.ErrNoRows) {
		return LinkView{}, fmt.Errorf("%w: link %s", ErrNotFound, linkID)
	}
	if err != nil {
		return LinkView{}, fmt.Errorf("get link: %w", err)
	}
	return v, nil
}

// ListLinks returns the user's links in triage order.
func (s *Store) ListLinks(ctx context.Context, userID string, filter LinkFilter) ([]LinkView, error) {
	where := []string{"l.user_id = ?"}
	args := []any{userID}
	if filter.Status != "" {
		where = append(where, "l.status = ?")
		args = append(args, filter.Status)
	}
	if filter.NewsletterID != "" {
		where = append(where, "l.newsletter_id = ?")
		args = append(args, filter.NewsletterID)
	}
	query := `
SELECT` + linkViewColumns + `
FROM links l JOIN newsletters n ON n.id = l.newsletter_id
WHERE ` + strings.Join(where, " AND ") + `
` + linkOrder
	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query+";", args...)
	if err != nil {
		return nil, fmt.Errorf("list links: %w", err)
	}
	defer rows.Close()

	var out []LinkView
	for rows.Next() {
		v, err := scanLinkView(rows)
		if err != nil {
			return nil, fmt.Errorf("scan link: %w", err)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// UpdateLinkStatus moves one link to status `to` only if its current status is in `from`.
// It reports whether a row changed.
func (s *Store) UpdateLinkStatus(ctx context.Context, userID, linkID string, from []string, to string) (bool, error) {
	if len(from) == 0 {
		return false, nil
	}
	args := []any{to, toMillis(s.now()), userID, linkID}
	for _, f := range from {
		args = append(args, f)
	}
	res, err := s.db.ExecContext(ctx, `
UPDATE links SET status = ?, status_changed_at = ?
WHERE user_id = ? AND id = ? AND status IN (`+placeholders(len(from))+`);`, args...)
	if err != nil {
		return false, fmt.Errorf("update link status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("update link status: %w", err)
	}
	return n > 0, nil
}

// UpdateNewsletterLinkStatus moves every link of a newsletter from `from` to `to`.
func (s *Store) UpdateNewsletterLinkStatus(ctx context.Context, userID, newsletterID, from, to string) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
UPDATE links SET status = ?, status_changed_at = ?
WHERE user_id = ? AND newsletter_id = ? AND status = ?;`,
		to, toMillis(s.now()), userID, newsletterID, from,
	)
	if err != nil {
		return 0, fmt.Errorf("update newsletter links: %w", err)
	}
	return res.RowsAffected()
}

func (s *Store) MarkLinkExported(ctx context.Context, userID, linkID string) error {
	_, err := s.db.ExecContext(ctx, `
UPDATE links SET exported_at = ? WHERE user_id = ? AND id = ?;`,
		toMillis(s.now()), userID, linkID,
	)
	if err != nil {
		return fmt.Errorf("mark link exported: %w", err)
	}
	return nil
}

// CountLinksByStatus returns link counts keyed by status. Missing statuses are absent.
func (s *Store) CountLinksByStatus(ctx context.Context, userID string) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT status, COUNT(*) FROM links WHERE user_id = ? GROUP BY status;`, userID)
	if err != nil {
		return nil, fmt.Errorf("count links: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var (
			status string
			n      int
		)
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("scan count: %w", err)
		}
		counts[status] = n
	}
	return counts, rows.Err()
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}
