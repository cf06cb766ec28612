package connection

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rohmanhakim/newsletter-triage/internal/build"
	"github.com/rohmanhakim/newsletter-triage/internal/triage"
	"golang.org/x/oauth2"
)

const DefaultRaindropBaseURL = "https://api.raindrop.io"

type tokenSourcer interface {
	TokenSource(ctx context.Context, userID string, provider Provider) (oauth2.TokenSource, error)
}

// RaindropExporter saves links to the user's Raindrop.io "Unsorted" collection.
type RaindropExporter struct {
	tokens     tokenSourcer
	baseURL    string
	httpClient *http.Client
	userAgent  string
	tags       []string
}

var _ triage.Exporter = (*RaindropExporter)(nil)

func NewRaindropExporter(tokens *Manager) *RaindropExporter {
	return &RaindropExporter{
		tokens:     tokens,
		baseURL:    DefaultRaindropBaseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		userAgent:  build.UserAgent(),
		tags:       []string{"newsletter"},
	}
}

func (e *RaindropExporter) WithBaseURL(baseURL string) *RaindropExporter {
	e.baseURL = strings.TrimRight(baseURL, "/")
	return e
}

func (e *RaindropExporter) WithHTTPClient(client *http.Client) *RaindropExporter {
	e.httpClient = client
	return e
}

func (e *RaindropExporter) WithUserAgent(agent string) *RaindropExporter {
	e.userAgent = agent
	return e
}

type raindropCreate struct {
	Link        string   `json:"link"`
	Title       string   `json:"title,omitempty"`
	Excerpt     string   `json:"excerpt,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	PleaseParse struct{} `json:"pleaseParse"`
}

// Export creates one raindrop for link. Without a Raindrop connection it
// returns an error wrapping triage.ErrExportSkipped.
func (e *RaindropExporter) Export(ctx context.Context, userID string, link triage.Link) error {
	ts, err := e.tokens.TokenSource(ctx, userID, ProviderRaindrop)
	if errors.Is(err, ErrNotConnected) {
		return fmt.Errorf("%w: %v", triage.ErrExportSkipped, err)
	}
	if err != nil {
		return toExportError(err)
	}

	payload := raindropCreate{
		Link:  link.URL,
		Title: link.Title(),
		Tags:  e.tags,
	}
	if link.NewsletterSubject != "" {
		payload.Excerpt = "From " + link.NewsletterSubject
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return &triage.ExportError{Message: err.Error(), Cause: triage.ErrCauseExportRejected}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/rest/v1/raindrop", bytes.NewReader(body))
	if err != nil {
		return &triage.ExportError{Message: err.Error(), Cause: triage.ErrCauseExportRejected}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", e.userAgent)

	client := oauth2.NewClient(context.WithValue(ctx, oauth2.HTTPClient, e.httpClient), ts)
	resp, err := client.Do(req)
	if err != nil {
		return toExportError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	return statusToExportError(resp.StatusCode, strings.TrimSpace(string(snippet)))
}

func statusToExportError(status int, body string) *triage.ExportError {
	msg := fmt.Sprintf("raindrop responded %d", status)
	if body != "" {
		msg += ": " + body
	}
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return &triage.ExportError{Message: msg, Cause: triage.ErrCauseExportAuth}
	case status == http.StatusTooManyRequests || status >= 500:
		return &triage.ExportError{Message: msg, Retryable: true, Cause: triage.ErrCauseExportNetwork}
	default:
		return &triage.ExportError{Message: msg, Cause: triage.ErrCauseExportRejected}
	}
}

func toExportError(err error) *triage.ExportError {
	var connErr *ConnectionError
	if errors.As(err, &connErr) {
		return &triage.ExportError{Message: connErr.Error(), Retryable: connErr.Retryable, Cause: triage.ErrCauseExportAuth}
	}
	return &triage.ExportError{Message: err.Error(), Retryable: true, Cause: triage.ErrCauseExportNetwork}
}
