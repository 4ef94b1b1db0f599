package discovery

import (
	"context"
	"sync"

	"github.com/TysunM/subzero/internal/model"
)

// MockTokenStore is a mock implementation of TokenStore for testing.
type MockTokenStore struct {
	GetFunc          func(ctx context.Context, userID string) (*model.Credentials, error)
	SaveFunc         func(ctx context.Context, creds *model.Credentials) error
	RefreshFunc      func(ctx context.Context, userID string) (*model.Credentials, error)
	GetCallCount     int
	SaveCallCount    int
	RefreshCallCount int
	mu               sync.Mutex
}

// Get implements the TokenStore interface.
func (m *MockTokenStore) Get(ctx context.Context, userID string) (*model.Credentials, error) {
	m.mu.Lock()
	m.GetCallCount++
	m.mu.Unlock()

	if m.GetFunc != nil {
		return m.GetFunc(ctx, userID)
	}
	return nil, nil
}

// Save implements the TokenStore interface.
func (m *MockTokenStore) Save(ctx context.Context, creds *model.Credentials) error {
	m.mu.Lock()
	m.SaveCallCount++
	m.mu.Unlock()

	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, creds)
	}
	return nil
}

// Refresh implements the TokenStore interface.
func (m *MockTokenStore) Refresh(ctx context.Context, userID string) (*model.Credentials, error) {
	m.mu.Lock()
	m.RefreshCallCount++
	m.mu.Unlock()

	if m.RefreshFunc != nil {
		return m.RefreshFunc(ctx, userID)
	}
	return nil, nil
}

// MockMailProvider is a mock implementation of MailSearchProvider for testing.
type MockMailProvider struct {
	SearchFunc      func(ctx context.Context, creds *model.Credentials, query string, limit int) ([]MessageRef, error)
	FetchFunc       func(ctx context.Context, creds *model.Credentials, ref MessageRef) (*Message, error)
	SearchQueries   []string
	SearchCallCount int
	FetchCallCount  int
	mu              sync.Mutex
}

// Search implements the MailSearchProvider interface.
func (m *MockMailProvider) Search(ctx context.Context, creds *model.Credentials, query string, limit int) ([]MessageRef, error) {
	m.mu.Lock()
	m.SearchCallCount++
	m.SearchQueries = append(m.SearchQueries, query)
	m.mu.Unlock()

	if m.SearchFunc != nil {
		return m.SearchFunc(ctx, creds, query, limit)
	}
	return nil, nil
}

// Fetch implements the MailSearchProvider interface.
func (m *MockMailProvider) Fetch(ctx context.Context, creds *model.Credentials, ref MessageRef) (*Message, error) {
	m.mu.Lock()
	m.FetchCallCount++
	m.mu.Unlock()

	if m.FetchFunc != nil {
		return m.FetchFunc(ctx, creds, ref)
	}
	return nil, nil
}

// Ensure mocks implement the interfaces.
var (
	_ TokenStore         = (*MockTokenStore)(nil)
	_ MailSearchProvider = (*MockMailProvider)(nil)
)
