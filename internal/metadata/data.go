package metadata

import (
	"time"
)

// MailFetchEvent describes one batch fetched from a mail folder.
type MailFetchEvent struct {
	host       string
	folder     string
	messages   int
	duration   time.Duration
	retryCount int
}

/*
syncStats
  - Terminal summary of one sync run (a scheduler tick or a one-shot sync)
  - Contains only aggregate counts and durations
  - Is computed by the syncer after the run ends
  - Is recorded exactly once per run
  - Must not influence which users are synced next
*/
type syncStats struct {
	totalNewsletters int
	totalLinks       int
	totalErrors      int
	durationMs       int64
}

type ArtifactKind string

const (
	ArtifactMarkdown ArtifactKind = "markdown"
	ArtifactExport   ArtifactKind = "export"
)

/*
ErrorCause is a closed classification used only for observability
(logging, reporting).

Rules:
  - ErrorCause MUST NOT influence control flow.
  - ErrorCause MUST NOT be used for retry, skip or abort decisions.
  - Packages MAY map their local errors to ErrorCause but MUST NOT invent new meanings.

If a failure does not clearly match a defined cause, CauseUnknown MUST be used.
*/
type ErrorCause int

/*
Canonical ErrorCause Table

# CauseUnknown
  - Unexpected internal errors, unclassified library failures.

# CauseNetworkFailure
  - IMAP dial timeouts, connection resets, bookmark API unreachable.

# CauseAuthFailure
  - Rejected IMAP login, revoked or unrefreshable OAuth token, missing secret.

# CauseContentInvalid
  - Unparsable MIME message, empty newsletter body, converter failure.

# CauseStorageFailure
  - Database write errors, disk full while archiving markdown.

# CauseInvariantViolation
  - Illegal triage transition, link belonging to another user.

# CauseRetryExhausted
  - A recoverable operation failed on every allowed attempt.
*/
const (
	CauseUnknown ErrorCause = iota
	CauseNetworkFailure
	CauseAuthFailure
	CauseContentInvalid
	CauseStorageFailure
	CauseInvariantViolation
	CauseRetryExhausted
)

func (c ErrorCause) String() string {
	switch c {
	case CauseNetworkFailure:
		return "network_failure"
	case CauseAuthFailure:
		return "auth_failure"
	case CauseContentInvalid:
		return "content_invalid"
	case CauseStorageFailure:
		return "storage_failure"
	case CauseInvariantViolation:
		return "invariant_violation"
	case CauseRetryExhausted:
		return "retry_exhausted"
	default:
		return "unknown"
	}
}

type Attribute struct {
	Key   AttributeKey
	Value string
}

func NewAttr(key AttributeKey, val string) Attribute {
	return Attribute{
		Key:   key,
		Value: val,
	}
}

type AttributeKey string

const (
	AttrUser       AttributeKey = "user"
	AttrHost       AttributeKey = "host"
	AttrFolder     AttributeKey = "folder"
	AttrMessageID  AttributeKey = "message_id"
	AttrUID        AttributeKey = "uid"
	AttrURL        AttributeKey = "url"
	AttrProvider   AttributeKey = "provider"
	AttrWritePath  AttributeKey = "write_path"
	AttrField      AttributeKey = "field"
	AttrNoiseNodes AttributeKey = "noise_nodes"
	AttrAnchors    AttributeKey = "ignored_anchors"
)
