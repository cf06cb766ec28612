package mailbox

import (
	"context"
	"crypto/tls"
	"errors"
	"net"
	"sort"
	"strings"
	"sync"

	"github.com/emersion/go-imap/v2"
	"github.com/emersion/go-imap/v2/imapclient"
	"github.com/emersion/go-sasl"
	"github.com/rohmanhakim/newsletter-triage/pkg/failure"
)

// IMAPDialer connects over implicit TLS (port 993).
type IMAPDialer struct {
	tlsConfig *tls.Config
}

func NewIMAPDialer() *IMAPDialer {
	return &IMAPDialer{}
}

// WithTLSConfig overrides the TLS settings, e.g. to trust a test server.
func (d *IMAPDialer) WithTLSConfig(cfg *tls.Config) *IMAPDialer {
	d.tlsConfig = cfg
	return d
}

func (d *IMAPDialer) Dial(ctx context.Context, creds Credentials) (Mailbox, failure.ClassifiedError) {
	if creds.Address == "" || creds.Username == "" {
		return nil, &MailboxError{
			Message:   "imap address and username are required",
			Retryable: false,
			Cause:     ErrCauseDialFailure,
		}
	}
	if creds.Password == "" && creds.OAuthToken == "" {
		return nil, &MailboxError{
			Message:   "no password or oauth token for " + creds.Username,
			Retryable: false,
			Cause:     ErrCauseAuthFailure,
		}
	}

	tlsConfig := d.tlsConfig
	if tlsConfig == nil {
		host, _, _ := net.SplitHostPort(creds.Address)
		tlsConfig = &tls.Config{MinVersion: tls.VersionTLS12, ServerName: host}
	}

	client, err := imapclient.DialTLS(creds.Address, &imapclient.Options{TLSConfig: tlsConfig})
	if err != nil {
		return nil, &MailboxError{
			Message:   err.Error(),
			Retryable: true,
			Cause:     ErrCauseDialFailure,
		}
	}

	box := newIMAPMailbox(ctx, client)

	if creds.UsesOAuth() {
		err = client.Authenticate(sasl.NewOAuthBearerClient(&sasl.OAuthBearerOptions{
			Username: creds.Username,
			Token:    creds.OAuthToken,
		}))
	} else {
		err = client.Login(creds.Username, creds.Password).Wait()
	}
	if err != nil {
		_ = box.Close()
		return nil, classifyCommandError(ctx, err, ErrCauseAuthFailure)
	}

	return box, nil
}

type imapMailbox struct {
	client    *imapclient.Client
	closeOnce sync.Once
	done      chan struct{}
	selected  string
}

// newIMAPMailbox closes the connection when ctx ends, go-imap commands take no context.
func newIMAPMailbox(ctx context.Context, client *imapclient.Client) *imapMailbox {
	box := &imapMailbox{
		client: client,
		done:   make(chan struct{}),
	}
	go func() {
		select {
		case <-ctx.Done():
			_ = client.Close()
		case <-box.done:
		}
	}()
	return box
}

func (m *imapMailbox) selectFolder(ctx context.Context, folder string) failure.ClassifiedError {
	if m.selected == folder {
		return nil
	}
	if _, err := m.client.Select(folder, &imap.SelectOptions{ReadOnly: false}).Wait(); err != nil {
		return classifyCommandError(ctx, err, ErrCauseSelectFailure)
	}
	m.selected = folder
	return nil
}

func (m *imapMailbox) FetchSince(ctx context.Context, folder string, sinceUID uint32, max int) ([]Message, failure.ClassifiedError) {
	if err := m.selectFolder(ctx, folder); err != nil {
		return nil, err
	}
	if max <= 0 {
		max = 50
	}

	// UID n:* always matches the highest UID, even when it is below n
	criteria := &imap.SearchCriteria{
		UID: []imap.UIDSet{{imap.UIDRange{Start: imap.UID(sinceUID + 1), Stop: 0}}},
	}
	searchData, err := m.client.UIDSearch(criteria, nil).Wait()
	if err != nil {
		return nil, classifyCommandError(ctx, err, ErrCauseSearchFailure)
	}

	var uids []imap.UID
	for _, uid := range searchData.AllUIDs() {
		if uint32(uid) > sinceUID {
			uids = append(uids, uid)
		}
	}
	if len(uids) == 0 {
		return []Message{}, nil
	}
	sort.Slice(uids, func(i, j int) bool { return uids[i] < uids[j] })
	if len(uids) > max {
		uids = uids[:max]
	}

	bodyAll := &imap.FetchItemBodySection{
		Specifier: imap.PartSpecifierNone,
		Peek:      true,
	}
	fetchCmd := m.client.Fetch(imap.UIDSetNum(uids...), &imap.FetchOptions{
		UID:          true,
		Envelope:     true,
		InternalDate: true,
		BodySection:  []*imap.FetchItemBodySection{bodyAll},
	})
	defer func() { _ = fetchCmd.Close() }()

	out := make([]Message, 0, len(uids))
	for {
		msgData := fetchCmd.Next()
		if msgData == nil {
			break
		}
		buf, err := msgData.Collect()
		if err != nil {
			return nil, classifyCommandError(ctx, err, ErrCauseFetchFailure)
		}

		msg := Message{
			UID:          uint32(buf.UID),
			InternalDate: buf.InternalDate,
		}
		if buf.Envelope != nil {
			msg.MessageID = buf.Envelope.MessageID
			msg.Subject = buf.Envelope.Subject
			msg.Date = buf.Envelope.Date
			if len(buf.Envelope.From) > 0 {
				msg.From = strings.ToLower(buf.Envelope.From[0].Addr())
			}
		}
		if body := buf.FindBodySection(bodyAll); body != nil {
			msg.Raw = append([]byte(nil), body...)
		}
		out = append(out, msg)
	}

	if err := fetchCmd.Close(); err != nil {
		return nil, classifyCommandError(ctx, err, ErrCauseFetchFailure)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].UID < out[j].UID })
	return out, nil
}

func (m *imapMailbox) MarkSeen(ctx context.Context, folder string, uids []uint32) failure.ClassifiedError {
	if len(uids) == 0 {
		return nil
	}
	if err := m.selectFolder(ctx, folder); err != nil {
		return err
	}

	set := make([]imap.UID, 0, len(uids))
	for _, uid := range uids {
		set = append(set, imap.UID(uid))
	}
	storeFlags := &imap.StoreFlags{
		Op:     imap.StoreFlagsAdd,
		Silent: true,
		Flags:  []imap.Flag{imap.FlagSeen},
	}
	if err := m.client.Store(imap.UIDSetNum(set...), storeFlags, nil).Close(); err != nil {
		return classifyCommandError(ctx, err, ErrCauseStoreFailure)
	}
	return nil
}

// Close logs out and closes the connection. Safe to call more than once.
func (m *imapMailbox) Close() error {
	var err error
	m.closeOnce.Do(func() {
		close(m.done)
		_ = m.client.Logout().Wait()
		err = m.client.Close()
	})
	return err
}

// classifyCommandError separates server rejections (not retryable) from transport errors.
func classifyCommandError(ctx context.Context, err error, cause MailboxErrorCause) *MailboxError {
	if ctx.Err() != nil {
		return &MailboxError{
			Message:   ctx.Err().Error(),
			Retryable: false,
			Cause:     ErrCauseCanceled,
		}
	}

	var imapErr *imap.Error
	if errors.As(err, &imapErr) {
		if imapErr.Code == imap.ResponseCodeAuthenticationFailed || imapErr.Code == imap.ResponseCodeAuthorizationFailed {
			cause = ErrCauseAuthFailure
		}
		return &MailboxError{
			Message:   err.Error(),
			Retryable: false,
			Cause:     cause,
		}
	}

	// the server never answered, so even a failed login is worth retrying
	if cause == ErrCauseAuthFailure {
		cause = ErrCauseDialFailure
	}
	return &MailboxError{
		Message:   err.Error(),
		Retryable: true,
		Cause:     cause,
	}
}
