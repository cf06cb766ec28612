package triage

import (
	"time"

	"github.com/rohmanhakim/newsletter-triage/internal/database"
)

type Status string

const (
	StatusPending   Status = database.StatusPending
	StatusSaved     Status = database.StatusSaved
	StatusDiscarded Status = database.StatusDiscarded
)

func ParseStatus(s string) (Status, bool) {
	switch Status(s) {
	case StatusPending, StatusSaved, StatusDiscarded:
		return Status(s), true
	}
	return "", false
}

// Link is one candidate link as the reviewer sees it.
type Link struct {
	ID                   string
	NewsletterID         string
	URL                  string
	Text                 string
	Host                 string
	Position             int
	Status               Status
	StatusChangedAt      time.Time
	ExportedAt           time.Time
	NewsletterSubject    string
	NewsletterSender     string
	NewsletterReceivedAt time.Time
}

// Title is the anchor text, or the URL when the anchor had none.
func (l Link) Title() string {
	if l.Text != "" {
		return l.Text
	}
	return l.URL
}

func linkFromView(v database.LinkView) Link {
	return Link{
		ID:                   v.ID,
		NewsletterID:         v.NewsletterID,
		URL:                  v.URL,
		Text:                 v.Text,
		Host:                 v.Host,
		Position:             v.Position,
		Status:               Status(v.Status),
		StatusChangedAt:      v.StatusChangedAt,
		ExportedAt:           v.ExportedAt,
		NewsletterSubject:    v.NewsletterSubject,
		NewsletterSender:     v.NewsletterSender,
		NewsletterReceivedAt: v.NewsletterReceivedAt,
	}
}

// Group is one newsletter with its links in position order.
type Group struct {
	NewsletterID string
	Subject      string
	Sender       string
	ReceivedAt   time.Time
	Links        []Link
}

type InboxFilter struct {
	Status       Status
	NewsletterID string
}

type Stats struct {
	Pending   int
	Saved     int
	Discarded int
}

func (s Stats) Total() int {
	return s.Pending + s.Saved + s.Discarded
}

// SaveOutcome reports what happened after a link was saved.
// ExportErr is set when the read-later export failed; the save itself stands.
type SaveOutcome struct {
	Link      Link
	Exported  bool
	ExportErr error
}
