package plaid

import (
	"context"
	"sync"
	"time"

	"github.com/TysunM/subzero/internal/model"
)

// MockClient is a mock implementation of BankClient for testing.
type MockClient struct {
	CreateLinkTokenFunc     func(ctx context.Context, userID string) (string, error)
	ExchangePublicTokenFunc func(ctx context.Context, publicToken string) (string, string, error)
	GetAccountsFunc         func(ctx context.Context, accessToken string) ([]string, error)
	GetTransactionsFunc     func(ctx context.Context, accessToken, userID string, startDate, endDate time.Time) ([]model.Transaction, error)
	GetRecurringStreamsFunc func(ctx context.Context, accessToken, userID string) ([]model.DiscoveredSubscription, error)

	CreateLinkTokenCallCount     int
	ExchangePublicTokenCallCount int
	GetAccountsCallCount         int
	GetTransactionsCallCount     int
	GetRecurringStreamsCallCount int
	mu                           sync.Mutex
}

// CreateLinkToken implements the BankClient interface.
func (m *MockClient) CreateLinkToken(ctx context.Context, userID string) (string, error) {
	m.mu.Lock()
	m.CreateLinkTokenCallCount++
	m.mu.Unlock()

	if m.CreateLinkTokenFunc != nil {
		return m.CreateLinkTokenFunc(ctx, userID)
	}
	return "link-sandbox-token", nil
}

// ExchangePublicToken implements the BankClient interface.
func (m *MockClient) ExchangePublicToken(ctx context.Context, publicToken string) (string, string, error) {
	m.mu.Lock()
	m.ExchangePublicTokenCallCount++
	m.mu.Unlock()

	if m.ExchangePublicTokenFunc != nil {
		return m.ExchangePublicTokenFunc(ctx, publicToken)
	}
	return "access-sandbox-token", "item-id", nil
}

// GetAccounts implements the BankClient interface.
func (m *MockClient) GetAccounts(ctx context.Context, accessToken string) ([]string, error) {
	m.mu.Lock()
	m.GetAccountsCallCount++
	m.mu.Unlock()

	if m.GetAccountsFunc != nil {
		return m.GetAccountsFunc(ctx, accessToken)
	}
	return nil, nil
}

// GetTransactions implements the BankClient interface.
func (m *MockClient) GetTransactions(ctx context.Context, accessToken, userID string, startDate, endDate time.Time) ([]model.Transaction, error) {
	m.mu.Lock()
	m.GetTransactionsCallCount++
	m.mu.Unlock()

	if m.GetTransactionsFunc != nil {
		return m.GetTransactionsFunc(ctx, accessToken, userID, startDate, endDate)
	}
	return nil, nil
}

// GetRecurringStreams implements the BankClient interface.
func (m *MockClient) GetRecurringStreams(ctx context.Context, accessToken, userID string) ([]model.DiscoveredSubscription, error) {
	m.mu.Lock()
	m.GetRecurringStreamsCallCount++
	m.mu.Unlock()

	if m.GetRecurringStreamsFunc != nil {
		return m.GetRecurringStreamsFunc(ctx, accessToken, userID)
	}
	return nil, nil
}

// Ensure MockClient implements the BankClient interface.
var _ BankClient = (*MockClient)(nil)
