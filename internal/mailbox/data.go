package mailbox

import (
	"html"
	"strings"
	"time"
)

// Credentials select the IMAP auth mechanism: OAuthToken wins over Password.
type Credentials struct {
	Address    string
	Username   string
	Password   string
	OAuthToken string
}

func (c Credentials) UsesOAuth() bool {
	return c.OAuthToken != ""
}

// Message is one fetched message. Raw holds the full RFC 822 bytes,
// fetched with BODY.PEEK[] so fetching never sets \Seen.
type Message struct {
	UID          uint32
	MessageID    string
	Subject      string
	From         string
	Date         time.Time
	InternalDate time.Time
	Raw          []byte
}

// Parsed is the decoded content of a message.
type Parsed struct {
	MessageID string
	Subject   string
	FromName  string
	// FromAddress is lowercased.
	FromAddress string
	Date        time.Time
	HTML        string
	Text        string
}

// HTMLBody returns the HTML part, or the plain part wrapped in <pre> when there is no HTML.
func (p Parsed) HTMLBody() string {
	if strings.TrimSpace(p.HTML) != "" {
		return p.HTML
	}
	if strings.TrimSpace(p.Text) == "" {
		return ""
	}
	return "<pre>" + html.EscapeString(p.Text) + "</pre>"
}
