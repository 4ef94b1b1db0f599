// Package plaid provides a client for interacting with the Plaid API.
package plaid

import (
	"context"
	"time"

	"github.com/TysunM/subzero/internal/model"
)

// BankClient defines the contract for bank data access. Access tokens are
// per-user and passed on every call; the client itself holds only the
// application's API credentials. This interface allows for easy mocking in
// tests.
type BankClient interface {
	// CreateLinkToken creates a Plaid Link token that the frontend uses to
	// start the account-linking flow for the given user.
	CreateLinkToken(ctx context.Context, userID string) (string, error)

	// ExchangePublicToken trades the public token produced by Link for a
	// long-lived access token and the item ID it belongs to.
	ExchangePublicToken(ctx context.Context, publicToken string) (string, string, error)

	// GetAccounts returns the account IDs reachable with the access token.
	GetAccounts(ctx context.Context, accessToken string) ([]string, error)

	// GetTransactions fetches the user's transactions in the date range.
	GetTransactions(ctx context.Context, accessToken, userID string, startDate, endDate time.Time) ([]model.Transaction, error)

	// GetRecurringStreams returns Plaid's own recurring-payment detection
	// results as subscription candidates.
	GetRecurringStreams(ctx context.Context, accessToken, userID string) ([]model.DiscoveredSubscription, error)
}
