// Package connection stores OAuth grants for external providers and hands out
// refreshing token sources built on them.
package connection

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/rohmanhakim/newsletter-triage/internal/database"
	"github.com/rohmanhakim/newsletter-triage/internal/metadata"
	"golang.org/x/oauth2"
)

type Store interface {
	Connection(ctx context.Context, userID, provider string) (database.Connection, error)
	UpsertConnection(ctx context.Context, c database.Connection) error
	SetConnectionStatus(ctx context.Context, userID, provider, status, lastError string) error
	DeleteConnection(ctx context.Context, userID, provider string) error
	ListConnections(ctx context.Context, userID string) ([]database.Connection, error)
}

var _ Store = (*database.Store)(nil)

type Manager struct {
	store        Store
	configs      map[Provider]*oauth2.Config
	httpClient   *http.Client
	metadataSink metadata.MetadataSink
	now          func() time.Time
}

func NewManager(store Store, metadataSink metadata.MetadataSink) *Manager {
	if metadataSink == nil {
		metadataSink = metadata.NoopSink{}
	}
	return &Manager{
		store:        store,
		configs:      make(map[Provider]*oauth2.Config),
		metadataSink: metadataSink,
		now:          time.Now,
	}
}

// WithProvider registers the refresh configuration for provider. A nil config is ignored.
func (m *Manager) WithProvider(provider Provider, cfg *oauth2.Config) *Manager {
	if cfg != nil {
		m.configs[provider] = cfg
	}
	return m
}

// WithHTTPClient sets the client used for token refresh requests.
func (m *Manager) WithHTTPClient(client *http.Client) *Manager {
	m.httpClient = client
	return m
}

func (m *Manager) WithClock(now func() time.Time) *Manager {
	m.now = now
	return m
}

// Connect stores a token obtained out of band and marks the provider connected.
func (m *Manager) Connect(ctx context.Context, userID string, provider Provider, token *oauth2.Token) error {
	if _, err := ParseProvider(string(provider)); err != nil {
		return err
	}
	if token == nil || token.AccessToken == "" {
		return fmt.Errorf("%w: access token is empty", ErrInvalidToken)
	}
	if token.TokenType == "" {
		token.TokenType = "Bearer"
	}
	return m.saveToken(ctx, userID, provider, token)
}

func (m *Manager) Disconnect(ctx context.Context, userID string, provider Provider) error {
	if _, err := ParseProvider(string(provider)); err != nil {
		return err
	}
	return m.store.DeleteConnection(ctx, userID, string(provider))
}

// List returns one card per known provider, including the ones never connected.
func (m *Manager) List(ctx context.Context, userID string) ([]Card, error) {
	rows, err := m.store.ListConnections(ctx, userID)
	if err != nil {
		return nil, err
	}
	byProvider := make(map[Provider]database.Connection, len(rows))
	for _, r := range rows {
		byProvider[Provider(r.Provider)] = r
	}

	cards := make([]Card, 0, len(Providers()))
	for _, p := range Providers() {
		row, ok := byProvider[p]
		if !ok {
			cards = append(cards, Card{Provider: p, Status: StatusDisconnected})
			continue
		}
		cards = append(cards, m.card(p, row))
	}
	return cards, nil
}

func (m *Manager) card(provider Provider, row database.Connection) Card {
	card := Card{
		Provider:  provider,
		Status:    Status(row.Status),
		LastError: row.LastError,
		UpdatedAt: row.UpdatedAt,
	}
	tok, err := decodeToken(row.Token)
	if err != nil {
		card.Status = StatusError
		card.LastError = err.Error()
		return card
	}
	card.Expiry = tok.Expiry
	if card.Status != StatusConnected {
		return card
	}
	_, canRefresh := m.configs[provider]
	if !tok.Expiry.IsZero() && !tok.Expiry.After(m.now()) && (tok.RefreshToken == "" || !canRefresh) {
		card.Status = StatusExpired
	}
	return card
}

// TokenSource returns a source that refreshes the stored token when it expires
// and writes every new token back to the store. Refresh failures mark the
// connection as errored.
func (m *Manager) TokenSource(ctx context.Context, userID string, provider Provider) (oauth2.TokenSource, error) {
	row, err := m.store.Connection(ctx, userID, string(provider))
	if errors.Is(err, database.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrNotConnected, provider)
	}
	if err != nil {
		return nil, err
	}
	tok, err := decodeToken(row.Token)
	if err != nil {
		return nil, &ConnectionError{
			Message:  err.Error(),
			Cause:    ErrCauseCorruptedToken,
			Provider: provider,
		}
	}

	if m.httpClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, m.httpClient)
	}
	var refresher oauth2.TokenSource = expiredSource{provider: provider}
	if cfg, ok := m.configs[provider]; ok && tok.RefreshToken != "" {
		refresher = cfg.TokenSource(ctx, tok)
	}

	persisting := &persistingSource{
		ctx:      ctx,
		manager:  m,
		userID:   userID,
		provider: provider,
		base:     refresher,
		last:     tok.AccessToken,
	}
	return oauth2.ReuseTokenSource(tok, persisting), nil
}

// AccessToken returns a currently valid access token for provider.
func (m *Manager) AccessToken(ctx context.Context, userID string, provider Provider) (string, error) {
	ts, err := m.TokenSource(ctx, userID, provider)
	if err != nil {
		return "", err
	}
	tok, err := ts.Token()
	if err != nil {
		return "", err
	}
	return tok.AccessToken, nil
}

func (m *Manager) saveToken(ctx context.Context, userID string, provider Provider, token *oauth2.Token) error {
	raw, err := json.Marshal(token)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	return m.store.UpsertConnection(ctx, database.Connection{
		UserID:   userID,
		Provider: string(provider),
		Token:    string(raw),
		Status:   string(StatusConnected),
	})
}

func (m *Manager) recordFailure(ctx context.Context, userID string, connErr *ConnectionError) {
	status := StatusError
	if connErr.Cause == ErrCauseTokenExpired {
		status = StatusExpired
	}
	// the failure is already being returned; a failed status write only loses the card state
	_ = m.store.SetConnectionStatus(ctx, userID, string(connErr.Provider), string(status), connErr.Message)

	m.metadataSink.RecordError(
		m.now(),
		"connection",
		"TokenSource.Token",
		mapConnectionErrorToMetadataCause(connErr),
		connErr.Error(),
		[]metadata.Attribute{
			metadata.NewAttr(metadata.AttrUser, userID),
			metadata.NewAttr(metadata.AttrProvider, string(connErr.Provider)),
		},
	)
}

func decodeToken(raw string) (*oauth2.Token, error) {
	var tok oauth2.Token
	if err := json.Unmarshal([]byte(raw), &tok); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if tok.AccessToken == "" {
		return nil, fmt.Errorf("%w: access token is empty", ErrInvalidToken)
	}
	return &tok, nil
}

// persistingSource is only asked for a token once the cached one expired.
type persistingSource struct {
	ctx      context.Context
	manager  *Manager
	userID   string
	provider Provider
	base     oauth2.TokenSource

	mu   sync.Mutex
	last string
}

func (p *persistingSource) Token() (*oauth2.Token, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	tok, err := p.base.Token()
	if err != nil {
		connErr := &ConnectionError{
			Message:   err.Error(),
			Retryable: false,
			Cause:     ErrCauseRefreshFailed,
			Provider:  p.provider,
		}
		var expired *expiredError
		if errors.As(err, &expired) {
			connErr.Cause = ErrCauseTokenExpired
		}
		var retrieveErr *oauth2.RetrieveError
		if !errors.As(err, &retrieveErr) && connErr.Cause == ErrCauseRefreshFailed {
			// no response from the token endpoint
			connErr.Retryable = true
		}
		p.manager.recordFailure(p.ctx, p.userID, connErr)
		return nil, connErr
	}

	if tok.AccessToken != p.last {
		if err := p.manager.saveToken(p.ctx, p.userID, p.provider, tok); err != nil {
			return nil, &ConnectionError{
				Message:   err.Error(),
				Retryable: true,
				Cause:     ErrCauseStoreFailed,
				Provider:  p.provider,
			}
		}
		p.last = tok.AccessToken
	}
	return tok, nil
}

type expiredError struct {
	provider Provider
}

func (e *expiredError) Error() string {
	return fmt.Sprintf("%s token expired and cannot be refreshed", e.provider)
}

// expiredSource stands in for a refresher when the provider has no client
// configuration or the grant has no refresh token.
type expiredSource struct {
	provider Provider
}

func (s expiredSource) Token() (*oauth2.Token, error) {
	return nil, &expiredError{provider: s.provider}
}
