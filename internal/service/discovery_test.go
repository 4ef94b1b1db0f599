package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TysunM/subzero/internal/common"
	"github.com/TysunM/subzero/internal/model"
	"github.com/TysunM/subzero/internal/plaid"
)

type mockMailDiscoverer struct {
	discoverFunc func(ctx context.Context, userID string, maxResults int) ([]model.DiscoveredSubscription, error)
	callCount    int
}

func (m *mockMailDiscoverer) Discover(ctx context.Context, userID string, maxResults int) ([]model.DiscoveredSubscription, error) {
	m.callCount++
	if m.discoverFunc != nil {
		return m.discoverFunc(ctx, userID, maxResults)
	}
	return nil, nil
}

func notFoundStorage() *MockStorage {
	return &MockStorage{
		GetCredentialsFunc: func(_ context.Context, userID, provider string) (*model.Credentials, error) {
			return nil, fmt.Errorf("credentials for %s/%s: %w", userID, provider, common.ErrNotFound)
		},
	}
}

func storageWithProviders(providers ...string) *MockStorage {
	connected := make(map[string]bool)
	for _, p := range providers {
		connected[p] = true
	}
	return &MockStorage{
		GetCredentialsFunc: func(_ context.Context, userID, provider string) (*model.Credentials, error) {
			if connected[provider] {
				return &model.Credentials{UserID: userID, Provider: provider, AccessToken: "token"}, nil
			}
			return nil, fmt.Errorf("credentials for %s/%s: %w", userID, provider, common.ErrNotFound)
		},
	}
}

func TestStatus(t *testing.T) {
	tests := []struct {
		name      string
		providers []string
		wantGmail bool
		wantBank  bool
	}{
		{"nothing connected", nil, false, false},
		{"gmail only", []string{model.ProviderGmail}, true, false},
		{"bank only", []string{model.ProviderPlaid}, false, true},
		{"both", []string{model.ProviderGmail, model.ProviderPlaid}, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewDiscoveryService(&mockMailDiscoverer{}, &plaid.MockClient{}, storageWithProviders(tt.providers...), nil)

			status, err := svc.Status(context.Background(), "user-1")

			require.NoError(t, err)
			assert.Equal(t, tt.wantGmail, status.GmailConnected)
			assert.Equal(t, tt.wantBank, status.BankConnected)
		})
	}
}

func TestDiscoverMergesSources(t *testing.T) {
	mail := &mockMailDiscoverer{
		discoverFunc: func(_ context.Context, _ string, _ int) ([]model.DiscoveredSubscription, error) {
			return []model.DiscoveredSubscription{
				{Service: "Spotify Premium", Amount: 9.99, Frequency: model.FrequencyMonthly, Source: model.SourceGmail, Confidence: 0.75},
			}, nil
		},
	}
	bank := &plaid.MockClient{
		GetRecurringStreamsFunc: func(_ context.Context, _, _ string) ([]model.DiscoveredSubscription, error) {
			return []model.DiscoveredSubscription{
				{Service: "Spotify", Amount: 10.99, Frequency: model.FrequencyMonthly, Source: model.SourceBank, Confidence: 0.90},
			}, nil
		},
	}
	svc := NewDiscoveryService(mail, bank, storageWithProviders(model.ProviderGmail, model.ProviderPlaid), nil)

	got, err := svc.Discover(context.Background(), "user-1", DiscoverOptions{})

	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, model.SourceBoth, got[0].Source)
	assert.Equal(t, "Spotify Premium", got[0].Service)
	assert.InDelta(t, 10.99, got[0].Amount, 0.001)
	assert.InDelta(t, 1.0, got[0].Confidence, 0.001)
}

func TestDiscoverSkipsUnconnectedSource(t *testing.T) {
	mail := &mockMailDiscoverer{
		discoverFunc: func(_ context.Context, userID string, _ int) ([]model.DiscoveredSubscription, error) {
			return nil, fmt.Errorf("mail account for user %s: %w", userID, common.ErrNotConnected)
		},
	}
	bank := &plaid.MockClient{
		GetRecurringStreamsFunc: func(_ context.Context, _, _ string) ([]model.DiscoveredSubscription, error) {
			return []model.DiscoveredSubscription{
				{Service: "Netflix", Amount: 15.49, Source: model.SourceBank, Confidence: 0.90},
			}, nil
		},
	}
	svc := NewDiscoveryService(mail, bank, storageWithProviders(model.ProviderPlaid), nil)

	got, err := svc.Discover(context.Background(), "user-1", DiscoverOptions{})

	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Netflix", got[0].Service)
}

func TestDiscoverNothingConnected(t *testing.T) {
	mail := &mockMailDiscoverer{
		discoverFunc: func(_ context.Context, userID string, _ int) ([]model.DiscoveredSubscription, error) {
			return nil, fmt.Errorf("mail account for user %s: %w", userID, common.ErrNotConnected)
		},
	}
	svc := NewDiscoveryService(mail, &plaid.MockClient{}, notFoundStorage(), nil)

	_, err := svc.Discover(context.Background(), "user-1", DiscoverOptions{})

	assert.ErrorIs(t, err, common.ErrNotConnected)
}

func TestDiscoverEmailOnlyPropagatesErrors(t *testing.T) {
	mail := &mockMailDiscoverer{
		discoverFunc: func(_ context.Context, _ string, _ int) ([]model.DiscoveredSubscription, error) {
			return nil, common.ErrTokenRefresh
		},
	}
	svc := NewDiscoveryService(mail, &plaid.MockClient{}, storageWithProviders(model.ProviderGmail), nil)

	_, err := svc.Discover(context.Background(), "user-1", DiscoverOptions{Email: true})

	assert.ErrorIs(t, err, common.ErrTokenRefresh)
}

func TestDiscoverBankUsesStoredTransactions(t *testing.T) {
	store := storageWithProviders(model.ProviderPlaid)
	start := time.Now().AddDate(0, -4, 0)
	store.GetTransactionsByUserFunc = func(_ context.Context, _ string, _ time.Time) ([]model.Transaction, error) {
		var txns []model.Transaction
		for i := 0; i < 4; i++ {
			txns = append(txns, model.Transaction{
				ID:           fmt.Sprintf("t%d", i),
				UserID:       "user-1",
				MerchantName: "Hulu",
				Name:         "HULU",
				AccountID:    "acct",
				Date:         start.AddDate(0, i, 0),
				Amount:       7.99,
			})
		}
		return txns, nil
	}
	svc := NewDiscoveryService(&mockMailDiscoverer{}, &plaid.MockClient{}, store, nil)

	got, err := svc.Discover(context.Background(), "user-1", DiscoverOptions{Bank: true})

	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Hulu", got[0].Service)
	assert.Equal(t, model.SourceBank, got[0].Source)
}

func TestSaveDiscovered(t *testing.T) {
	store := &MockStorage{}
	svc := NewDiscoveryService(&mockMailDiscoverer{}, &plaid.MockClient{}, store, nil)

	sub, err := svc.SaveDiscovered(context.Background(), "user-1", model.DiscoveredSubscription{
		Service:    "Netflix",
		Amount:     15.49,
		Frequency:  model.FrequencyMonthly,
		Category:   model.CategoryEntertainment,
		Source:     model.SourceGmail,
		Confidence: 0.9,
	})

	require.NoError(t, err)
	assert.NotEmpty(t, sub.ID)
	assert.Equal(t, "user-1", sub.UserID)
	assert.Equal(t, model.StatusActive, sub.Status)
	assert.Equal(t, "USD", sub.Currency)
	require.Len(t, store.SavedSubscriptions, 1)

	t.Run("defaults applied", func(t *testing.T) {
		sub, err := svc.SaveDiscovered(context.Background(), "user-1", model.DiscoveredSubscription{Service: "Gym"})
		require.NoError(t, err)
		assert.Equal(t, model.FrequencyMonthly, sub.Frequency)
	})

	t.Run("empty service rejected", func(t *testing.T) {
		_, err := svc.SaveDiscovered(context.Background(), "user-1", model.DiscoveredSubscription{})
		assert.Error(t, err)
	})
}

func TestSummaryCountsOnlyActive(t *testing.T) {
	store := &MockStorage{
		GetSubscriptionsFunc: func(_ context.Context, _ string) ([]model.Subscription, error) {
			return []model.Subscription{
				{ID: "1", Service: "Netflix", Amount: 15.49, Frequency: model.FrequencyMonthly, Category: model.CategoryEntertainment, Status: model.StatusActive},
				{ID: "2", Service: "Hulu", Amount: 7.99, Frequency: model.FrequencyMonthly, Category: model.CategoryEntertainment, Status: model.StatusCancelled},
			}, nil
		},
	}
	svc := NewDiscoveryService(&mockMailDiscoverer{}, &plaid.MockClient{}, store, nil)

	summary, err := svc.Summary(context.Background(), "user-1")

	require.NoError(t, err)
	assert.Equal(t, 1, summary.Analysis.Count)
	assert.InDelta(t, 15.49, summary.Analysis.TotalMonthly, 0.01)
	assert.NotNil(t, summary.Recommendations)
}

func TestConnectBank(t *testing.T) {
	var saved *model.Credentials
	store := &MockStorage{
		SaveCredentialsFunc: func(_ context.Context, creds *model.Credentials) error {
			saved = creds
			return nil
		},
	}
	bank := &plaid.MockClient{
		ExchangePublicTokenFunc: func(_ context.Context, publicToken string) (string, string, error) {
			assert.Equal(t, "public-token", publicToken)
			return "access-token", "item-1", nil
		},
	}
	svc := NewDiscoveryService(&mockMailDiscoverer{}, bank, store, nil)

	require.NoError(t, svc.ConnectBank(context.Background(), "user-1", "public-token"))

	require.NotNil(t, saved)
	assert.Equal(t, model.ProviderPlaid, saved.Provider)
	assert.Equal(t, "access-token", saved.AccessToken)
}

func TestSyncBankTransactions(t *testing.T) {
	t.Run("not connected", func(t *testing.T) {
		svc := NewDiscoveryService(&mockMailDiscoverer{}, &plaid.MockClient{}, notFoundStorage(), nil)

		_, err := svc.SyncBankTransactions(context.Background(), "user-1", time.Now().AddDate(0, -6, 0))
		assert.ErrorIs(t, err, common.ErrNotConnected)
	})

	t.Run("saves fetched transactions", func(t *testing.T) {
		var savedCount int
		store := storageWithProviders(model.ProviderPlaid)
		store.SaveTransactionsFunc = func(_ context.Context, txns []model.Transaction) error {
			savedCount = len(txns)
			return nil
		}
		bank := &plaid.MockClient{
			GetTransactionsFunc: func(_ context.Context, _, userID string, _, _ time.Time) ([]model.Transaction, error) {
				return []model.Transaction{
					{ID: "t1", UserID: userID, Name: "NETFLIX", Date: time.Now(), Amount: 15.49},
					{ID: "t2", UserID: userID, Name: "SPOTIFY", Date: time.Now(), Amount: 10.99},
				}, nil
			},
		}
		svc := NewDiscoveryService(&mockMailDiscoverer{}, bank, store, nil)

		n, err := svc.SyncBankTransactions(context.Background(), "user-1", time.Now().AddDate(0, -6, 0))

		require.NoError(t, err)
		assert.Equal(t, 2, n)
		assert.Equal(t, 2, savedCount)
	})
}
