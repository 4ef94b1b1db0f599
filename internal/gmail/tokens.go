package gmail

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/oauth2"

	"github.com/TysunM/subzero/internal/common"
	"github.com/TysunM/subzero/internal/discovery"
	"github.com/TysunM/subzero/internal/model"
	"github.com/TysunM/subzero/internal/service"
)

// TokenStore persists Gmail OAuth credentials and refreshes them through the
// configured OAuth endpoint.
type TokenStore struct {
	storage service.Storage
	config  *oauth2.Config
	logger  *slog.Logger
}

// NewTokenStore creates a token store over persistent storage.
func NewTokenStore(storage service.Storage, config *oauth2.Config, logger *slog.Logger) *TokenStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &TokenStore{
		storage: storage,
		config:  config,
		logger:  logger,
	}
}

// Get returns the stored Gmail credentials for the user.
func (s *TokenStore) Get(ctx context.Context, userID string) (*model.Credentials, error) {
	return s.storage.GetCredentials(ctx, userID, model.ProviderGmail)
}

// Save persists credentials, stamping provider and update time.
func (s *TokenStore) Save(ctx context.Context, creds *model.Credentials) error {
	if creds == nil {
		return fmt.Errorf("credentials cannot be nil")
	}
	creds.Provider = model.ProviderGmail
	creds.UpdatedAt = time.Now()
	return s.storage.SaveCredentials(ctx, creds)
}

// Refresh exchanges the stored refresh token for a new access token and
// persists the result.
func (s *TokenStore) Refresh(ctx context.Context, userID string) (*model.Credentials, error) {
	creds, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if creds.RefreshToken == "" {
		return nil, fmt.Errorf("no refresh token stored for user %s: %w", userID, common.ErrTokenRefresh)
	}

	stale := &oauth2.Token{
		AccessToken:  creds.AccessToken,
		RefreshToken: creds.RefreshToken,
		// Force the token source to refresh rather than echo the old token.
		Expiry: time.Now().Add(-time.Minute),
	}
	fresh, err := s.config.TokenSource(ctx, stale).Token()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrTokenRefresh, err)
	}

	creds.AccessToken = fresh.AccessToken
	creds.Expiry = fresh.Expiry
	if fresh.RefreshToken != "" {
		creds.RefreshToken = fresh.RefreshToken
	}

	if err := s.Save(ctx, creds); err != nil {
		return nil, fmt.Errorf("saving refreshed credentials: %w", err)
	}

	s.logger.Info("refreshed gmail token",
		"user_id", userID,
		"expiry", creds.Expiry)
	return creds, nil
}

// Disconnect removes the user's stored Gmail credentials.
func (s *TokenStore) Disconnect(ctx context.Context, userID string) error {
	return s.storage.DeleteCredentials(ctx, userID, model.ProviderGmail)
}

var _ discovery.TokenStore = (*TokenStore)(nil)
