package triage

import (
	"context"

	"github.com/rohmanhakim/newsletter-triage/internal/database"
)

// Store is the subset of the database the triage flows need.
type Store interface {
	NextPendingLink(ctx context.Context, userID string) (database.LinkView, error)
	LinkByID(ctx context.Context, userID, linkID string) (database.LinkView, error)
	ListLinks(ctx context.Context, userID string, filter database.LinkFilter) ([]database.LinkView, error)
	UpdateLinkStatus(ctx context.Context, userID, linkID string, from []string, to string) (bool, error)
	UpdateNewsletterLinkStatus(ctx context.Context, userID, newsletterID, from, to string) (int64, error)
	CountLinksByStatus(ctx context.Context, userID string) (map[string]int, error)
	MarkLinkExported(ctx context.Context, userID, linkID string) error
}

var _ Store = (*database.Store)(nil)

// Exporter pushes a saved link to a read-later service.
type Exporter interface {
	Export(ctx context.Context, userID string, link Link) error
}
