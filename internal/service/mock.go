package service

import (
	"context"
	"sync"
	"time"

	"github.com/TysunM/subzero/internal/model"
)

// MockStorage is a mock implementation of Storage for testing.
type MockStorage struct {
	SaveCredentialsFunc          func(ctx context.Context, creds *model.Credentials) error
	GetCredentialsFunc           func(ctx context.Context, userID, provider string) (*model.Credentials, error)
	DeleteCredentialsFunc        func(ctx context.Context, userID, provider string) error
	SaveSubscriptionFunc         func(ctx context.Context, sub *model.Subscription) error
	GetSubscriptionsFunc         func(ctx context.Context, userID string) ([]model.Subscription, error)
	GetSubscriptionByIDFunc      func(ctx context.Context, id string) (*model.Subscription, error)
	UpdateSubscriptionStatusFunc func(ctx context.Context, id string, status model.SubscriptionStatus) error
	DeleteSubscriptionFunc       func(ctx context.Context, id string) error
	SaveTransactionsFunc         func(ctx context.Context, transactions []model.Transaction) error
	GetTransactionsByUserFunc    func(ctx context.Context, userID string, since time.Time) ([]model.Transaction, error)

	SavedSubscriptions []model.Subscription
	mu                 sync.Mutex
}

// SaveCredentials implements the Storage interface.
func (m *MockStorage) SaveCredentials(ctx context.Context, creds *model.Credentials) error {
	if m.SaveCredentialsFunc != nil {
		return m.SaveCredentialsFunc(ctx, creds)
	}
	return nil
}

// GetCredentials implements the Storage interface.
func (m *MockStorage) GetCredentials(ctx context.Context, userID, provider string) (*model.Credentials, error) {
	if m.GetCredentialsFunc != nil {
		return m.GetCredentialsFunc(ctx, userID, provider)
	}
	return nil, nil
}

// DeleteCredentials implements the Storage interface.
func (m *MockStorage) DeleteCredentials(ctx context.Context, userID, provider string) error {
	if m.DeleteCredentialsFunc != nil {
		return m.DeleteCredentialsFunc(ctx, userID, provider)
	}
	return nil
}

// SaveSubscription implements the Storage interface.
func (m *MockStorage) SaveSubscription(ctx context.Context, sub *model.Subscription) error {
	m.mu.Lock()
	m.SavedSubscriptions = append(m.SavedSubscriptions, *sub)
	m.mu.Unlock()

	if m.SaveSubscriptionFunc != nil {
		return m.SaveSubscriptionFunc(ctx, sub)
	}
	return nil
}

// GetSubscriptions implements the Storage interface.
func (m *MockStorage) GetSubscriptions(ctx context.Context, userID string) ([]model.Subscription, error) {
	if m.GetSubscriptionsFunc != nil {
		return m.GetSubscriptionsFunc(ctx, userID)
	}
	return nil, nil
}

// GetSubscriptionByID implements the Storage interface.
func (m *MockStorage) GetSubscriptionByID(ctx context.Context, id string) (*model.Subscription, error) {
	if m.GetSubscriptionByIDFunc != nil {
		return m.GetSubscriptionByIDFunc(ctx, id)
	}
	return nil, nil
}

// UpdateSubscriptionStatus implements the Storage interface.
func (m *MockStorage) UpdateSubscriptionStatus(ctx context.Context, id string, status model.SubscriptionStatus) error {
	if m.UpdateSubscriptionStatusFunc != nil {
		return m.UpdateSubscriptionStatusFunc(ctx, id, status)
	}
	return nil
}

// DeleteSubscription implements the Storage interface.
func (m *MockStorage) DeleteSubscription(ctx context.Context, id string) error {
	if m.DeleteSubscriptionFunc != nil {
		return m.DeleteSubscriptionFunc(ctx, id)
	}
	return nil
}

// SaveTransactions implements the Storage interface.
func (m *MockStorage) SaveTransactions(ctx context.Context, transactions []model.Transaction) error {
	if m.SaveTransactionsFunc != nil {
		return m.SaveTransactionsFunc(ctx, transactions)
	}
	return nil
}

// GetTransactionsByUser implements the Storage interface.
func (m *MockStorage) GetTransactionsByUser(ctx context.Context, userID string, since time.Time) ([]model.Transaction, error) {
	if m.GetTransactionsByUserFunc != nil {
		return m.GetTransactionsByUserFunc(ctx, userID, since)
	}
	return nil, nil
}

// Migrate implements the Storage interface.
func (m *MockStorage) Migrate(_ context.Context) error { return nil }

// Close implements the Storage interface.
func (m *MockStorage) Close() error { return nil }

// Ensure MockStorage implements the Storage interface.
var _ Storage = (*MockStorage)(nil)
