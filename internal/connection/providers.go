package connection

import (
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// GmailScope grants full IMAP access.
const GmailScope = "https://mail.google.com/"

var raindropEndpoint = oauth2.Endpoint{
	AuthURL:   "https://raindrop.io/oauth/authorize",
	TokenURL:  "https://raindrop.io/oauth/access_token",
	AuthStyle: oauth2.AuthStyleInParams,
}

// OAuthConfig returns the client configuration used to refresh tokens of provider.
// An empty clientID means the provider cannot refresh; stored tokens are used until they expire.
func OAuthConfig(provider Provider, clientID, clientSecret string) *oauth2.Config {
	if clientID == "" {
		return nil
	}
	cfg := &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
	}
	switch provider {
	case ProviderGoogle:
		cfg.Endpoint = google.Endpoint
		cfg.Scopes = []string{GmailScope}
	case ProviderRaindrop:
		cfg.Endpoint = raindropEndpoint
	default:
		return nil
	}
	return cfg
}
