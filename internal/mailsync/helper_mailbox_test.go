package mailsync_test

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/rohmanhakim/newsletter-triage/internal/database"
	"github.com/rohmanhakim/newsletter-triage/internal/mailbox"
	"github.com/rohmanhakim/newsletter-triage/pkg/failure"
)

type fakeMailbox struct {
	mu       sync.Mutex
	messages []mailbox.Message
	fetchErr failure.ClassifiedError
	seen     []uint32
	closed   bool
	folders  []string
}

func (m *fakeMailbox) FetchSince(_ context.Context, folder string, sinceUID uint32, max int) ([]mailbox.Message, failure.ClassifiedError) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.folders = append(m.folders, folder)
	if m.fetchErr != nil {
		return nil, m.fetchErr
	}
	var out []mailbox.Message
	for _, msg := range m.messages {
		if msg.UID > sinceUID {
			out = append(out, msg)
		}
		if max > 0 && len(out) == max {
			break
		}
	}
	return out, nil
}

func (m *fakeMailbox) MarkSeen(_ context.Context, _ string, uids []uint32) failure.ClassifiedError {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seen = append(m.seen, uids...)
	return nil
}

func (m *fakeMailbox) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// fakeDialer fails with errs in order, then returns box.
type fakeDialer struct {
	mu    sync.Mutex
	box   *fakeMailbox
	errs  []failure.ClassifiedError
	calls int
	creds []mailbox.Credentials
}

func (d *fakeDialer) Dial(_ context.Context, creds mailbox.Credentials) (mailbox.Mailbox, failure.ClassifiedError) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls++
	d.creds = append(d.creds, creds)
	if len(d.errs) > 0 {
		err := d.errs[0]
		d.errs = d.errs[1:]
		return nil, err
	}
	return d.box, nil
}

type staticCredentials struct {
	err error
}

func (c staticCredentials) Resolve(_ context.Context, user database.User) (mailbox.Credentials, error) {
	if c.err != nil {
		return mailbox.Credentials{}, c.err
	}
	return mailbox.Credentials{Address: "imap.example.com:993", Username: user.Email, Password: "pw"}, nil
}

// newsletterMessage builds a raw HTML newsletter with one anchor per url.
func newsletterMessage(uid uint32, from string, urls ...string) mailbox.Message {
	var body strings.Builder
	body.WriteString("<html><head><style>p{}</style></head><body>")
	for i, u := range urls {
		fmt.Fprintf(&body, "<p><a href=\"%s\">Story %d</a></p>", u, i)
	}
	body.WriteString("<p><a href=\"https://news.example.com/unsub\">Unsubscribe</a></p>")
	body.WriteString("<img src=\"https://track.example.com/p.gif\"></body></html>")

	raw := strings.Join([]string{
		"From: \"Weekly\" <" + from + ">",
		"To: reader@example.com",
		fmt.Sprintf("Subject: Issue %d", uid),
		fmt.Sprintf("Date: Mon, %02d Mar 2026 09:00:00 +0000", uid%28+1),
		fmt.Sprintf("Message-ID: <issue-%d@news.example.com>", uid),
		"MIME-Version: 1.0",
		"Content-Type: text/html; charset=utf-8",
		"",
		body.String(),
		"",
	}, "\r\n")
	return mailbox.Message{UID: uid, Raw: []byte(raw)}
}
