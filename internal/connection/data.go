package connection

import "time"

type Provider string

const (
	// ProviderGoogle grants mailbox access over IMAP with OAUTHBEARER.
	ProviderGoogle Provider = "google"
	// ProviderRaindrop receives saved links.
	ProviderRaindrop Provider = "raindrop"
)

// Providers in display order.
func Providers() []Provider {
	return []Provider{ProviderGoogle, ProviderRaindrop}
}

func ParseProvider(s string) (Provider, error) {
	switch Provider(s) {
	case ProviderGoogle, ProviderRaindrop:
		return Provider(s), nil
	}
	return "", unknownProvider(s)
}

type Status string

const (
	StatusConnected    Status = "connected"
	StatusExpired      Status = "expired"
	StatusDisconnected Status = "disconnected"
	StatusError        Status = "error"
)

// Card summarizes one provider connection for display.
type Card struct {
	Provider  Provider
	Status    Status
	LastError string
	Expiry    time.Time
	UpdatedAt time.Time
}
