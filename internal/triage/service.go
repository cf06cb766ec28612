// Package triage implements the save/discard review flows over extracted links.
package triage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rohmanhakim/newsletter-triage/internal/database"
	"github.com/rohmanhakim/newsletter-triage/internal/metadata"
)

type Service struct {
	store        Store
	exporter     Exporter
	metadataSink metadata.MetadataSink
	now          func() time.Time
}

func NewService(store Store, metadataSink metadata.MetadataSink) *Service {
	if metadataSink == nil {
		metadataSink = metadata.NoopSink{}
	}
	return &Service{
		store:        store,
		metadataSink: metadataSink,
		now:          time.Now,
	}
}

// WithExporter enables export of saved links. A nil exporter disables it.
func (s *Service) WithExporter(exporter Exporter) *Service {
	s.exporter = exporter
	return s
}

// Next returns the link the focused flow should show: the first pending link
// of the most recently received newsletter.
func (s *Service) Next(ctx context.Context, userID string) (Link, error) {
	v, err := s.store.NextPendingLink(ctx, userID)
	if errors.Is(err, database.ErrNotFound) {
		return Link{}, ErrQueueEmpty
	}
	if err != nil {
		return Link{}, err
	}
	return linkFromView(v), nil
}

// Inbox returns links grouped by newsletter, newest newsletter first.
func (s *Service) Inbox(ctx context.Context, userID string, filter InboxFilter) ([]Group, error) {
	views, err := s.store.ListLinks(ctx, userID, database.LinkFilter{
		Status:       string(filter.Status),
		NewsletterID: filter.NewsletterID,
	})
	if err != nil {
		return nil, err
	}

	var groups []Group
	for _, v := range views {
		if len(groups) == 0 || groups[len(groups)-1].NewsletterID != v.NewsletterID {
			groups = append(groups, Group{
				NewsletterID: v.NewsletterID,
				Subject:      v.NewsletterSubject,
				Sender:       v.NewsletterSender,
				ReceivedAt:   v.NewsletterReceivedAt,
			})
		}
		last := &groups[len(groups)-1]
		last.Links = append(last.Links, linkFromView(v))
	}
	return groups, nil
}

// Save marks a pending link saved and exports it when an exporter is set.
// An export failure is returned in the outcome and never undoes the save.
func (s *Service) Save(ctx context.Context, userID, linkID string) (SaveOutcome, error) {
	link, err := s.transition(ctx, userID, linkID, []Status{StatusPending}, StatusSaved)
	if err != nil {
		return SaveOutcome{}, err
	}
	outcome := SaveOutcome{Link: link}
	if s.exporter == nil {
		return outcome, nil
	}

	exportErr := s.exporter.Export(ctx, userID, link)
	switch {
	case exportErr == nil:
		if err := s.store.MarkLinkExported(ctx, userID, linkID); err != nil {
			return outcome, err
		}
		outcome.Exported = true
	case errors.Is(exportErr, ErrExportSkipped):
	default:
		outcome.ExportErr = exportErr
		s.metadataSink.RecordError(
			s.now(),
			"triage",
			"Service.Save",
			mapExportErrorToMetadataCause(exportErr),
			exportErr.Error(),
			[]metadata.Attribute{
				metadata.NewAttr(metadata.AttrUser, userID),
				metadata.NewAttr(metadata.AttrURL, link.URL),
			},
		)
	}
	return outcome, nil
}

func (s *Service) Discard(ctx context.Context, userID, linkID string) (Link, error) {
	return s.transition(ctx, userID, linkID, []Status{StatusPending}, StatusDiscarded)
}

// Restore puts a saved or discarded link back into the pending queue.
func (s *Service) Restore(ctx context.Context, userID, linkID string) (Link, error) {
	return s.transition(ctx, userID, linkID, []Status{StatusSaved, StatusDiscarded}, StatusPending)
}

// SaveAll saves every pending link of one newsletter and exports each of them.
// It returns the number of links saved.
func (s *Service) SaveAll(ctx context.Context, userID, newsletterID string) (int, []SaveOutcome, error) {
	pending, err := s.store.ListLinks(ctx, userID, database.LinkFilter{
		Status:       string(StatusPending),
		NewsletterID: newsletterID,
	})
	if err != nil {
		return 0, nil, err
	}

	outcomes := make([]SaveOutcome, 0, len(pending))
	for _, v := range pending {
		outcome, err := s.Save(ctx, userID, v.ID)
		if errors.Is(err, ErrInvalidTransition) {
			// changed concurrently
			continue
		}
		if err != nil {
			return len(outcomes), outcomes, err
		}
		outcomes = append(outcomes, outcome)
	}
	return len(outcomes), outcomes, nil
}

// DiscardAll discards every pending link of one newsletter.
func (s *Service) DiscardAll(ctx context.Context, userID, newsletterID string) (int, error) {
	n, err := s.store.UpdateNewsletterLinkStatus(ctx, userID, newsletterID, string(StatusPending), string(StatusDiscarded))
	return int(n), err
}

func (s *Service) Stats(ctx context.Context, userID string) (Stats, error) {
	counts, err := s.store.CountLinksByStatus(ctx, userID)
	if err != nil {
		return Stats{}, err
	}
	return Stats{
		Pending:   counts[string(StatusPending)],
		Saved:     counts[string(StatusSaved)],
		Discarded: counts[string(StatusDiscarded)],
	}, nil
}

func (s *Service) transition(ctx context.Context, userID, linkID string, from []Status, to Status) (Link, error) {
	fromStr := make([]string, len(from))
	for i, f := range from {
		fromStr[i] = string(f)
	}

	changed, err := s.store.UpdateLinkStatus(ctx, userID, linkID, fromStr, string(to))
	if err != nil {
		return Link{}, err
	}

	v, err := s.store.LinkByID(ctx, userID, linkID)
	if errors.Is(err, database.ErrNotFound) {
		return Link{}, fmt.Errorf("%w: %s", ErrNotFound, linkID)
	}
	if err != nil {
		return Link{}, err
	}
	if !changed {
		return Link{}, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, v.Status, to)
	}
	return linkFromView(v), nil
}
