package model

import "time"

// Credential providers.
const (
	ProviderGmail = "gmail"
	ProviderPlaid = "plaid"
)

// ExpiryLeeway is how close to expiry a token is still treated as expired.
// Refreshing slightly early avoids mid-run authorization failures.
const ExpiryLeeway = 5 * time.Minute

// Credentials holds stored OAuth credentials for one user and provider.
type Credentials struct {
	Expiry       time.Time `json:"expiry"`
	UpdatedAt    time.Time `json:"updated_at"`
	UserID       string    `json:"user_id"`
	Provider     string    `json:"provider"`
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token,omitempty"`
}

// Valid reports whether the access token can still be used. A token with no
// recorded expiry is assumed valid; otherwise it must outlive the leeway.
func (c *Credentials) Valid() bool {
	if c == nil || c.AccessToken == "" {
		return false
	}
	if c.Expiry.IsZero() {
		return true
	}
	return time.Until(c.Expiry) > ExpiryLeeway
}
