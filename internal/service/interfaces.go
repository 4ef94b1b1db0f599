// Package service defines the interfaces for all application services.
package service

import (
	"context"
	"time"

	"github.com/TysunM/subzero/internal/model"
)

// Storage defines the contract for our persistence layer.
type Storage interface {
	// Credential operations
	SaveCredentials(ctx context.Context, creds *model.Credentials) error
	GetCredentials(ctx context.Context, userID, provider string) (*model.Credentials, error)
	DeleteCredentials(ctx context.Context, userID, provider string) error

	// Subscription operations
	SaveSubscription(ctx context.Context, sub *model.Subscription) error
	GetSubscriptions(ctx context.Context, userID string) ([]model.Subscription, error)
	GetSubscriptionByID(ctx context.Context, id string) (*model.Subscription, error)
	UpdateSubscriptionStatus(ctx context.Context, id string, status model.SubscriptionStatus) error
	DeleteSubscription(ctx context.Context, id string) error

	// Transaction operations
	SaveTransactions(ctx context.Context, transactions []model.Transaction) error
	GetTransactionsByUser(ctx context.Context, userID string, since time.Time) ([]model.Transaction, error)

	// Database management
	Migrate(ctx context.Context) error
	Close() error
}
