package mailbox_test

import (
	"testing"
	"time"

	"github.com/rohmanhakim/newsletter-triage/internal/mailbox"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMessage_MultipartAlternative(t *testing.T) {
	parsed, err := mailbox.ParseMessage(multipartNewsletter())
	require.Nil(t, err)

	assert.Equal(t, "issue-42@goweekly.example", parsed.MessageID)
	assert.Equal(t, "Issue 42 édition", parsed.Subject)
	assert.Equal(t, "Go Weekly", parsed.FromName)
	assert.Equal(t, "editor@goweekly.example", parsed.FromAddress)
	assert.True(t, parsed.Date.Equal(time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC)))
	assert.Contains(t, parsed.Text, "Plain version")
	assert.Contains(t, parsed.HTML, `<a href="https://go.dev/blog">Blog</a>`)
	assert.Equal(t, parsed.HTML, parsed.HTMLBody())
}

func TestParseMessage_PlainOnlyWrappedInPre(t *testing.T) {
	raw := rfc822(
		"From: news@example.com",
		"Subject: Plain",
		"Content-Type: text/plain; charset=utf-8",
		"",
		"Read <this> at https://example.com/a",
	)

	parsed, err := mailbox.ParseMessage(raw)
	require.Nil(t, err)

	assert.Empty(t, parsed.HTML)
	assert.Equal(t, "<pre>Read &lt;this&gt; at https://example.com/a</pre>", parsed.HTMLBody())
}

func TestParseMessage_SinglePartHTMLWithLatin1(t *testing.T) {
	raw := rfc822(
		"From: Caf\xe9 <cafe@example.com>",
		"Subject: Menu",
		"Content-Type: text/html; charset=iso-8859-1",
		"",
		"<p>Caf\xe9 cr\xe8me</p>",
	)

	parsed, err := mailbox.ParseMessage(raw)
	require.Nil(t, err)
	assert.Equal(t, "<p>Café crème</p>", parsed.HTML)
}

func TestParseMessage_SkipsAttachments(t *testing.T) {
	raw := rfc822(
		"From: news@example.com",
		"Subject: With attachment",
		"Content-Type: multipart/mixed; boundary=\"m\"",
		"",
		"--m",
		"Content-Type: text/html; charset=utf-8",
		"",
		"<p>Body</p>",
		"--m",
		"Content-Type: text/html; charset=utf-8",
		"Content-Disposition: attachment; filename=\"old.html\"",
		"",
		"<p>Attachment</p>",
		"--m--",
		"",
	)

	parsed, err := mailbox.ParseMessage(raw)
	require.Nil(t, err)
	assert.Equal(t, "<p>Body</p>", parsed.HTML)
}

func TestParseMessage_EmptyInput(t *testing.T) {
	_, err := mailbox.ParseMessage([]byte("  \r\n"))
	require.NotNil(t, err)

	var mbErr *mailbox.MailboxError
	require.ErrorAs(t, err, &mbErr)
	assert.Equal(t, mailbox.ErrCauseParseFailure, mbErr.Cause)
	assert.False(t, mbErr.IsRetryable())
}

func TestParsed_HTMLBodyEmpty(t *testing.T) {
	assert.Equal(t, "", mailbox.Parsed{}.HTMLBody())
}

func TestCredentials_UsesOAuth(t *testing.T) {
	assert.True(t, mailbox.Credentials{OAuthToken: "t"}.UsesOAuth())
	assert.False(t, mailbox.Credentials{Password: "p"}.UsesOAuth())
}
