package mailbox

import (
	"bytes"
	"errors"
	"io"
	"strings"

	"github.com/emersion/go-message"
	_ "github.com/emersion/go-message/charset"
	"github.com/emersion/go-message/mail"
	"github.com/rohmanhakim/newsletter-triage/pkg/failure"
)

// ParseMessage decodes headers and the first text/html and text/plain inline parts of raw.
// Transfer encodings and charsets are decoded; attachments are ignored.
func ParseMessage(raw []byte) (Parsed, failure.ClassifiedError) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return Parsed{}, &MailboxError{
			Message:   "empty message",
			Retryable: false,
			Cause:     ErrCauseParseFailure,
		}
	}

	mr, err := mail.CreateReader(bytes.NewReader(raw))
	if err != nil && !message.IsUnknownCharset(err) {
		return Parsed{}, &MailboxError{
			Message:   err.Error(),
			Retryable: false,
			Cause:     ErrCauseParseFailure,
		}
	}
	if mr == nil {
		return Parsed{}, &MailboxError{
			Message:   "no message reader",
			Retryable: false,
			Cause:     ErrCauseParseFailure,
		}
	}
	defer mr.Close()

	parsed := Parsed{}
	h := mr.Header
	// header decoding is best effort, a broken field must not lose the body
	parsed.Subject, _ = h.Subject()
	parsed.MessageID, _ = h.MessageID()
	parsed.Date, _ = h.Date()
	if from, err := h.AddressList("From"); err == nil && len(from) > 0 {
		parsed.FromName = from[0].Name
		parsed.FromAddress = strings.ToLower(from[0].Address)
	}

	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			if message.IsUnknownCharset(err) {
				continue
			}
			if parsed.HTML != "" || parsed.Text != "" {
				break
			}
			return parsed, &MailboxError{
				Message:   err.Error(),
				Retryable: false,
				Cause:     ErrCauseParseFailure,
			}
		}

		inline, ok := part.Header.(*mail.InlineHeader)
		if !ok {
			continue
		}
		contentType, _, err := inline.ContentType()
		if err != nil {
			continue
		}

		switch strings.ToLower(contentType) {
		case "text/html":
			if parsed.HTML == "" {
				parsed.HTML = readPart(part.Body)
			}
		case "text/plain":
			if parsed.Text == "" {
				parsed.Text = readPart(part.Body)
			}
		}
	}

	return parsed, nil
}

func readPart(r io.Reader) string {
	body, err := io.ReadAll(r)
	if err != nil && len(body) == 0 {
		return ""
	}
	return string(body)
}
