package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/viper"
	"golang.org/x/oauth2"

	"github.com/TysunM/subzero/internal/common"
	"github.com/TysunM/subzero/internal/config"
	"github.com/TysunM/subzero/internal/discovery"
	"github.com/TysunM/subzero/internal/gmail"
	"github.com/TysunM/subzero/internal/plaid"
	"github.com/TysunM/subzero/internal/service"
	"github.com/TysunM/subzero/internal/storage"
)

// initStorage initializes the storage service with proper path expansion.
func initStorage(ctx context.Context) (service.Storage, error) {
	// Get database path from config
	dbPath := viper.GetString("database.path")
	if dbPath == "" {
		dbPath = config.DefaultDatabasePath()
	}

	// Expand tilde and environment variables
	dbPath = config.ExpandPath(dbPath)

	// Initialize storage
	store, err := storage.NewSQLiteStorage(dbPath)
	if err != nil {
		return nil, err
	}

	// Run migrations
	if err := store.Migrate(ctx); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

func currentUser() string {
	user := viper.GetString("user")
	if user == "" {
		return "default"
	}
	return user
}

func gmailOAuthConfig() *oauth2.Config {
	clientID := viper.GetString("gmail.client_id")
	if clientID == "" {
		clientID = os.Getenv("GMAIL_CLIENT_ID")
	}
	clientSecret := viper.GetString("gmail.client_secret")
	if clientSecret == "" {
		clientSecret = os.Getenv("GMAIL_CLIENT_SECRET")
	}

	return gmail.OAuthConfig(gmail.OAuthSettings{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  viper.GetString("gmail.redirect_url"),
	})
}

// plaidClient builds the Plaid client from config. A missing Plaid
// configuration is not an error here; callers get a nil client and the
// service layer reports bank features as unavailable.
func plaidClient() (*plaid.Client, error) {
	cfg := plaid.Config{
		ClientID:    viper.GetString("plaid.client_id"),
		Secret:      viper.GetString("plaid.secret"),
		Environment: viper.GetString("plaid.environment"),
	}
	if cfg.ClientID == "" {
		cfg.ClientID = os.Getenv("PLAID_CLIENT_ID")
	}
	if cfg.Secret == "" {
		cfg.Secret = os.Getenv("PLAID_SECRET")
	}
	if cfg.Environment == "" {
		cfg.Environment = os.Getenv("PLAID_ENV")
	}

	if cfg.ClientID == "" && cfg.Secret == "" {
		slog.Debug("plaid not configured, bank features disabled")
		return nil, nil
	}

	client, err := plaid.NewClient(cfg)
	if err != nil {
		if errors.Is(err, common.ErrMissingConfig) || errors.Is(err, common.ErrInvalidConfig) {
			return nil, fmt.Errorf("incomplete plaid configuration: %w", err)
		}
		return nil, err
	}
	return client, nil
}

// newDiscoveryService wires storage, Gmail, and Plaid into the discovery
// service the commands share.
func newDiscoveryService(store service.Storage) (*service.DiscoveryService, *gmail.TokenStore, error) {
	logger := slog.Default()
	oauthCfg := gmailOAuthConfig()
	tokens := gmail.NewTokenStore(store, oauthCfg, logger)
	engine := discovery.NewEngine(tokens, gmail.NewClient(logger), logger)

	bank, err := plaidClient()
	if err != nil {
		return nil, nil, err
	}

	// A nil *plaid.Client must stay a nil interface inside the service.
	var bankClient plaid.BankClient
	if bank != nil {
		bankClient = bank
	}

	return service.NewDiscoveryService(engine, bankClient, store, logger), tokens, nil
}
