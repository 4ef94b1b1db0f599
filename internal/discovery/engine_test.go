package discovery

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TysunM/subzero/internal/common"
	"github.com/TysunM/subzero/internal/model"
)

func validCredentials() *model.Credentials {
	return &model.Credentials{
		UserID:       "user-1",
		Provider:     model.ProviderGmail,
		AccessToken:  "access-token",
		RefreshToken: "refresh-token",
		Expiry:       time.Now().Add(time.Hour),
	}
}

func connectedTokenStore() *MockTokenStore {
	return &MockTokenStore{
		GetFunc: func(_ context.Context, _ string) (*model.Credentials, error) {
			return validCredentials(), nil
		},
	}
}

func billingMessage(id, from, body string) *Message {
	return &Message{
		ID: id,
		Headers: map[string]string{
			"From":    from,
			"Subject": "Subscription receipt",
			"Date":    "Sat, 01 Jun 2024 10:00:00 +0000",
		},
		Payload: &MessagePart{
			MimeType: "text/plain",
			Data:     base64.RawURLEncoding.EncodeToString([]byte(body)),
		},
	}
}

func TestDiscoverNotConnected(t *testing.T) {
	tokens := &MockTokenStore{
		GetFunc: func(_ context.Context, _ string) (*model.Credentials, error) {
			return nil, fmt.Errorf("credentials for user-1: %w", common.ErrNotFound)
		},
	}
	mail := &MockMailProvider{}
	engine := NewEngine(tokens, mail, nil)

	_, err := engine.Discover(context.Background(), "user-1", 0)

	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrNotConnected)
	assert.Equal(t, 0, mail.SearchCallCount)
}

func TestDiscoverTokenRefresh(t *testing.T) {
	expired := validCredentials()
	expired.Expiry = time.Now().Add(-time.Hour)

	t.Run("refreshes an expired token before searching", func(t *testing.T) {
		refreshed := validCredentials()
		tokens := &MockTokenStore{
			GetFunc: func(_ context.Context, _ string) (*model.Credentials, error) {
				return expired, nil
			},
			RefreshFunc: func(_ context.Context, _ string) (*model.Credentials, error) {
				return refreshed, nil
			},
		}
		var searchCreds *model.Credentials
		mail := &MockMailProvider{
			SearchFunc: func(_ context.Context, creds *model.Credentials, _ string, _ int) ([]MessageRef, error) {
				searchCreds = creds
				return nil, nil
			},
		}
		engine := NewEngine(tokens, mail, nil)

		_, err := engine.Discover(context.Background(), "user-1", 0)

		require.NoError(t, err)
		assert.Equal(t, 1, tokens.RefreshCallCount)
		assert.Equal(t, refreshed, searchCreds)
	})

	t.Run("refresh failure is fatal", func(t *testing.T) {
		tokens := &MockTokenStore{
			GetFunc: func(_ context.Context, _ string) (*model.Credentials, error) {
				return expired, nil
			},
			RefreshFunc: func(_ context.Context, _ string) (*model.Credentials, error) {
				return nil, fmt.Errorf("oauth server said no")
			},
		}
		mail := &MockMailProvider{}
		engine := NewEngine(tokens, mail, nil)

		_, err := engine.Discover(context.Background(), "user-1", 0)

		assert.ErrorIs(t, err, common.ErrTokenRefresh)
		assert.Equal(t, 0, mail.SearchCallCount)
	})

	t.Run("expired token without refresh token is fatal", func(t *testing.T) {
		noRefresh := validCredentials()
		noRefresh.Expiry = time.Now().Add(-time.Hour)
		noRefresh.RefreshToken = ""
		tokens := &MockTokenStore{
			GetFunc: func(_ context.Context, _ string) (*model.Credentials, error) {
				return noRefresh, nil
			},
		}
		engine := NewEngine(tokens, &MockMailProvider{}, nil)

		_, err := engine.Discover(context.Background(), "user-1", 0)

		assert.ErrorIs(t, err, common.ErrTokenRefresh)
		assert.Equal(t, 0, tokens.RefreshCallCount)
	})
}

func TestDiscoverRunsEveryQueryWithBudget(t *testing.T) {
	tokens := connectedTokenStore()
	var limits []int
	mail := &MockMailProvider{
		SearchFunc: func(_ context.Context, _ *model.Credentials, _ string, limit int) ([]MessageRef, error) {
			limits = append(limits, limit)
			return nil, nil
		},
	}
	engine := NewEngine(tokens, mail, nil)

	_, err := engine.Discover(context.Background(), "user-1", 0)

	require.NoError(t, err)
	assert.Equal(t, len(searchQueries), mail.SearchCallCount)
	want := defaultMaxResults / len(searchQueries)
	for _, limit := range limits {
		assert.Equal(t, want, limit)
	}
	for _, query := range mail.SearchQueries {
		assert.Contains(t, query, "after:")
	}
}

func TestDiscoverPerQueryLimitBounds(t *testing.T) {
	tests := []struct {
		name       string
		maxResults int
		wantLimit  int
	}{
		{"large budget is capped", 10000, perQueryLimit},
		{"tiny budget still searches", 5, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotLimit int
			mail := &MockMailProvider{
				SearchFunc: func(_ context.Context, _ *model.Credentials, _ string, limit int) ([]MessageRef, error) {
					gotLimit = limit
					return nil, nil
				},
			}
			engine := NewEngine(connectedTokenStore(), mail, nil)

			_, err := engine.Discover(context.Background(), "user-1", tt.maxResults)

			require.NoError(t, err)
			assert.Equal(t, tt.wantLimit, gotLimit)
		})
	}
}

func TestDiscoverDeduplicatesByService(t *testing.T) {
	messages := map[string]*Message{
		"weak":   billingMessage("weak", "no-reply@netflix.com", "Your subscription renewed."),
		"strong": billingMessage("strong", "info@NETFLIX.com", "Your subscription payment of $15.49 was confirmed."),
	}

	// The stronger candidate must win whichever message arrives first.
	orders := map[string][]MessageRef{
		"weak first":   {{ID: "weak"}, {ID: "strong"}},
		"strong first": {{ID: "strong"}, {ID: "weak"}},
	}

	for name, refs := range orders {
		t.Run(name, func(t *testing.T) {
			mail := &MockMailProvider{
				SearchFunc: func(_ context.Context, _ *model.Credentials, query string, _ int) ([]MessageRef, error) {
					if strings.HasPrefix(query, searchQueries[0]) {
						return refs, nil
					}
					return nil, nil
				},
				FetchFunc: func(_ context.Context, _ *model.Credentials, ref MessageRef) (*Message, error) {
					return messages[ref.ID], nil
				},
			}
			engine := NewEngine(connectedTokenStore(), mail, nil)

			results, err := engine.Discover(context.Background(), "user-1", 0)

			require.NoError(t, err)
			require.Len(t, results, 1)
			assert.Equal(t, "Netflix", results[0].Service)
			assert.InDelta(t, 15.49, results[0].Amount, 0.001)
		})
	}
}

func TestDiscoverFiltersLowConfidence(t *testing.T) {
	mail := &MockMailProvider{
		SearchFunc: func(_ context.Context, _ *model.Credentials, query string, _ int) ([]MessageRef, error) {
			if strings.HasPrefix(query, searchQueries[0]) {
				return []MessageRef{{ID: "m1"}}, nil
			}
			return nil, nil
		},
		FetchFunc: func(_ context.Context, _ *model.Credentials, _ MessageRef) (*Message, error) {
			// Keyword gate passes but no service, amount, or date signal.
			return billingMessage("m1", "someone@gmail.com", "here is your invoice"), nil
		},
	}
	engine := NewEngine(connectedTokenStore(), mail, nil)

	results, err := engine.Discover(context.Background(), "user-1", 0)

	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestDiscoverContainsPerQueryFailures(t *testing.T) {
	mail := &MockMailProvider{
		SearchFunc: func(_ context.Context, _ *model.Credentials, query string, _ int) ([]MessageRef, error) {
			switch {
			case strings.HasPrefix(query, searchQueries[0]):
				return nil, fmt.Errorf("rate limited")
			case strings.HasPrefix(query, searchQueries[1]):
				return []MessageRef{{ID: "bad"}, {ID: "good"}}, nil
			default:
				return nil, nil
			}
		},
		FetchFunc: func(_ context.Context, _ *model.Credentials, ref MessageRef) (*Message, error) {
			if ref.ID == "bad" {
				return nil, fmt.Errorf("message vanished")
			}
			return billingMessage("good", "no-reply@spotify.com", "Subscription payment of $10.99 confirmed."), nil
		},
	}
	engine := NewEngine(connectedTokenStore(), mail, nil)

	results, err := engine.Discover(context.Background(), "user-1", 0)

	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "Spotify Premium", results[0].Service)
}

func TestDiscoverRanksAndTruncates(t *testing.T) {
	var refs []MessageRef
	messages := make(map[string]*Message)
	for i := 0; i < 40; i++ {
		id := fmt.Sprintf("m%02d", i)
		refs = append(refs, MessageRef{ID: id})
		from := fmt.Sprintf("billing@svc%02d.com", i)
		messages[id] = billingMessage(id, from, "Subscription payment of $9.99 confirmed.")
	}
	mail := &MockMailProvider{
		SearchFunc: func(_ context.Context, _ *model.Credentials, query string, _ int) ([]MessageRef, error) {
			if strings.HasPrefix(query, searchQueries[0]) {
				return refs, nil
			}
			return nil, nil
		},
		FetchFunc: func(_ context.Context, _ *model.Credentials, ref MessageRef) (*Message, error) {
			return messages[ref.ID], nil
		},
	}
	engine := NewEngine(connectedTokenStore(), mail, nil)

	results, err := engine.Discover(context.Background(), "user-1", 0)

	require.NoError(t, err)
	assert.Len(t, results, maxCandidates)
	for i := 1; i < len(results); i++ {
		assert.GreaterOrEqual(t, results[i-1].Confidence, results[i].Confidence)
	}
}

func TestDiscoverValidation(t *testing.T) {
	engine := NewEngine(connectedTokenStore(), &MockMailProvider{}, nil)

	t.Run("empty user", func(t *testing.T) {
		_, err := engine.Discover(context.Background(), "  ", 0)
		assert.Error(t, err)
	})

	t.Run("cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := engine.Discover(ctx, "user-1", 0)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestRankCandidates(t *testing.T) {
	best := map[string]model.DiscoveredSubscription{
		"b": {Service: "Bravo", Confidence: 0.80},
		"a": {Service: "Alpha", Confidence: 0.95},
		"c": {Service: "Charlie", Confidence: 0.65},
		"d": {Service: "Delta", Confidence: 0.80},
	}

	got := rankCandidates(best)

	require.Len(t, got, 4)
	assert.Equal(t, "Alpha", got[0].Service)
	assert.Equal(t, "Bravo", got[1].Service)
	assert.Equal(t, "Delta", got[2].Service)
	assert.Equal(t, "Charlie", got[3].Service)
}
