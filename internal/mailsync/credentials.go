package mailsync

import (
	"context"
	"errors"
	"fmt"

	"github.com/rohmanhakim/newsletter-triage/internal/connection"
	"github.com/rohmanhakim/newsletter-triage/internal/database"
	"github.com/rohmanhakim/newsletter-triage/internal/mailbox"
	"github.com/rohmanhakim/newsletter-triage/internal/secrets"
)

// CredentialResolver turns a user into IMAP credentials.
type CredentialResolver interface {
	Resolve(ctx context.Context, user database.User) (mailbox.Credentials, error)
}

type accessTokener interface {
	AccessToken(ctx context.Context, userID string, provider connection.Provider) (string, error)
}

// AccountCredentials prefers a Google connection (OAUTHBEARER) and falls back
// to an app password stored in the OS keychain.
type AccountCredentials struct {
	tokens   accessTokener
	address  string
	host     string
	username string
	password func(account string) (string, error)
}

// NewAccountCredentials resolves credentials for the IMAP server at address.
// username overrides the user's email as the IMAP login when set.
func NewAccountCredentials(tokens *connection.Manager, address, host, username string) *AccountCredentials {
	c := &AccountCredentials{
		address:  address,
		host:     host,
		username: username,
		password: secrets.GetIMAPPassword,
	}
	if tokens != nil {
		c.tokens = tokens
	}
	return c
}

func (c *AccountCredentials) Resolve(ctx context.Context, user database.User) (mailbox.Credentials, error) {
	creds := mailbox.Credentials{
		Address:  c.address,
		Username: user.Email,
	}
	if c.username != "" {
		creds.Username = c.username
	}

	if c.tokens != nil {
		token, err := c.tokens.AccessToken(ctx, user.ID, connection.ProviderGoogle)
		switch {
		case err == nil:
			creds.OAuthToken = token
			return creds, nil
		case !errors.Is(err, connection.ErrNotConnected):
			// a broken Google grant should surface rather than silently fall back
			return mailbox.Credentials{}, err
		}
	}

	pw, err := c.password(secrets.IMAPAccount(creds.Username, c.host))
	if err != nil {
		return mailbox.Credentials{}, fmt.Errorf("%w for %s: %v", ErrNoCredentials, creds.Username, err)
	}
	creds.Password = pw
	return creds, nil
}
