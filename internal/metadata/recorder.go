package metadata

import (
	"context"
	"log/slog"
	"time"
)

/*
Recorder captures structured sync events and writes them as slog records.
It must not:
  - affect control flow
  - be read back by any component

Ordering: events from one worker are logged in the order received.
No ordering across workers is guaranteed.
*/
type Recorder struct {
	workerId string
	logger   *slog.Logger
}

func NewRecorder(workerId string, logger *slog.Logger) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{
		workerId: workerId,
		logger:   logger.With(slog.String("worker", workerId)),
	}
}

func (r *Recorder) RecordError(
	observedAt time.Time,
	packageName string,
	action string,
	cause ErrorCause,
	errorString string,
	attrs []Attribute,
) {
	args := []slog.Attr{
		slog.Time("observed_at", observedAt),
		slog.String("package", packageName),
		slog.String("action", action),
		slog.String("cause", cause.String()),
		slog.String("error", errorString),
	}
	r.logger.LogAttrs(context.Background(), slog.LevelError, "operation failed", append(args, toSlog(attrs)...)...)
}

func (r *Recorder) RecordMailFetch(event MailFetchEvent) {
	r.logger.LogAttrs(context.Background(), slog.LevelInfo, "mail fetched",
		slog.String(string(AttrHost), event.host),
		slog.String(string(AttrFolder), event.folder),
		slog.Int("messages", event.messages),
		slog.Duration("duration", event.duration),
		slog.Int("retry_count", event.retryCount),
	)
}

func (r *Recorder) RecordArtifact(kind ArtifactKind, path string, attrs []Attribute) {
	args := []slog.Attr{
		slog.String("kind", string(kind)),
		slog.String(string(AttrWritePath), path),
	}
	r.logger.LogAttrs(context.Background(), slog.LevelInfo, "artifact written", append(args, toSlog(attrs)...)...)
}

/*
RecordSyncStats records the terminal summary of a sync run.

Contract:
  - MUST be called exactly once per run, after the run ends.
  - The stats MUST be derived from the syncer's own counters, not from the recorder.
*/
func (r *Recorder) RecordSyncStats(
	totalNewsletters int,
	totalLinks int,
	totalErrors int,
	duration time.Duration,
) {
	stats := syncStats{
		totalNewsletters: totalNewsletters,
		totalLinks:       totalLinks,
		totalErrors:      totalErrors,
		durationMs:       duration.Milliseconds(),
	}
	r.logger.LogAttrs(context.Background(), slog.LevelInfo, "sync finished",
		slog.Int("newsletters", stats.totalNewsletters),
		slog.Int("links", stats.totalLinks),
		slog.Int("errors", stats.totalErrors),
		slog.Int64("duration_ms", stats.durationMs),
	)
}

func NewMailFetchEvent(host, folder string, messages int, duration time.Duration, retryCount int) MailFetchEvent {
	return MailFetchEvent{
		host:       host,
		folder:     folder,
		messages:   messages,
		duration:   duration,
		retryCount: retryCount,
	}
}

func toSlog(attrs []Attribute) []slog.Attr {
	out := make([]slog.Attr, 0, len(attrs))
	for _, a := range attrs {
		out = append(out, slog.String(string(a.Key), a.Value))
	}
	return out
}

type MetadataSink interface {
	RecordError(
		observedAt time.Time,
		packageName string,
		action string,
		cause ErrorCause,
		details string,
		attrs []Attribute,
	)
	RecordMailFetch(event MailFetchEvent)
	RecordArtifact(kind ArtifactKind, path string, attrs []Attribute)
}

type SyncFinalizer interface {
	RecordSyncStats(totalNewsletters int, totalLinks int, totalErrors int, duration time.Duration)
}

// NoopSink discards everything.
type NoopSink struct{}

func (NoopSink) RecordError(time.Time, string, string, ErrorCause, string, []Attribute) {}
func (NoopSink) RecordMailFetch(MailFetchEvent) {}
func (NoopSink) RecordArtifact(ArtifactKind, string, []Attribute) {}
func (NoopSink) RecordSyncStats(int, int, int, time.Duration) {}
