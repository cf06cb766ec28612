package mailsync_test

import (
	"context"
	"testing"
	"time"

	"github.com/rohmanhakim/newsletter-triage/internal/connection"
	"github.com/rohmanhakim/newsletter-triage/internal/database"
	"github.com/rohmanhakim/newsletter-triage/internal/mailsync"
	"github.com/rohmanhakim/newsletter-triage/internal/metadata"
	"github.com/rohmanhakim/newsletter-triage/internal/secrets"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"
	"golang.org/x/oauth2"
)

func TestAccountCredentials_PasswordFromKeychain(t *testing.T) {
	keyring.MockInit()
	ctx := context.Background()
	user := database.User{ID: "u1", Email: "reader@example.com"}
	creds := mailsync.NewAccountCredentials(nil, "imap.example.com:993", "imap.example.com", "")

	_, err := creds.Resolve(ctx, user)
	assert.ErrorIs(t, err, mailsync.ErrNoCredentials)

	require.NoError(t, secrets.SetIMAPPassword(secrets.IMAPAccount("reader@example.com", "imap.example.com"), "app-pw"))
	got, err := creds.Resolve(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, "imap.example.com:993", got.Address)
	assert.Equal(t, "reader@example.com", got.Username)
	assert.Equal(t, "app-pw", got.Password)
	assert.False(t, got.UsesOAuth())
}

func TestAccountCredentials_UsernameOverride(t *testing.T) {
	keyring.MockInit()
	require.NoError(t, secrets.SetIMAPPassword(secrets.IMAPAccount("login", "imap.example.com"), "pw"))
	creds := mailsync.NewAccountCredentials(nil, "imap.example.com:993", "imap.example.com", "login")

	got, err := creds.Resolve(context.Background(), database.User{ID: "u1", Email: "reader@example.com"})
	require.NoError(t, err)
	assert.Equal(t, "login", got.Username)
}

func TestAccountCredentials_PrefersGoogleToken(t *testing.T) {
	keyring.MockInit()
	ctx := context.Background()
	store, err := database.Open(ctx, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	user, err := store.EnsureUser(ctx, "reader@example.com")
	require.NoError(t, err)

	manager := connection.NewManager(store, metadata.NoopSink{})
	creds := mailsync.NewAccountCredentials(manager, "imap.gmail.com:993", "imap.gmail.com", "")

	// not connected: falls through to the keychain
	_, err = creds.Resolve(ctx, user)
	assert.ErrorIs(t, err, mailsync.ErrNoCredentials)

	require.NoError(t, manager.Connect(ctx, user.ID, connection.ProviderGoogle, &oauth2.Token{
		AccessToken: "ya29.token",
		Expiry:      time.Now().Add(time.Hour),
	}))
	got, err := creds.Resolve(ctx, user)
	require.NoError(t, err)
	assert.True(t, got.UsesOAuth())
	assert.Equal(t, "ya29.token", got.OAuthToken)
	assert.Empty(t, got.Password)
}
