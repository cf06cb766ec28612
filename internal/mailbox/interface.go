package mailbox

import (
	"context"

	"github.com/rohmanhakim/newsletter-triage/pkg/failure"
)

// Dialer opens an authenticated mailbox session.
type Dialer interface {
	Dial(ctx context.Context, creds Credentials) (Mailbox, failure.ClassifiedError)
}

// Mailbox is one authenticated IMAP session. It is not safe for concurrent use.
type Mailbox interface {
	// FetchSince returns up to max messages in folder with UID greater than sinceUID,
	// oldest first.
	FetchSince(ctx context.Context, folder string, sinceUID uint32, max int) ([]Message, failure.ClassifiedError)
	// MarkSeen adds \Seen to uids in folder.
	MarkSeen(ctx context.Context, folder string, uids []uint32) failure.ClassifiedError
	Close() error
}

// Compile-time interface checks
var _ Dialer = (*IMAPDialer)(nil)
var _ Mailbox = (*imapMailbox)(nil)
