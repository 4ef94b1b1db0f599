// Package storage provides the data persistence layer backing the
// subscription tracker.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/TysunM/subzero/internal/model"
)

// Validation errors.
var (
	ErrNilContext          = errors.New("context cannot be nil")
	ErrEmptyString         = errors.New("string parameter cannot be empty")
	ErrNilParameter        = errors.New("parameter cannot be nil")
	ErrEmptySlice          = errors.New("slice cannot be empty")
	ErrInvalidStatus       = errors.New("invalid subscription status")
	ErrInvalidSubscription = errors.New("invalid subscription")
	ErrInvalidTransaction  = errors.New("invalid transaction")
	ErrInvalidCredentials  = errors.New("invalid credentials")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

func validateCredentials(creds *model.Credentials) error {
	if creds == nil {
		return fmt.Errorf("%w: credentials", ErrNilParameter)
	}
	if strings.TrimSpace(creds.UserID) == "" {
		return fmt.Errorf("%w: user ID is required", ErrInvalidCredentials)
	}
	if strings.TrimSpace(creds.Provider) == "" {
		return fmt.Errorf("%w: provider is required", ErrInvalidCredentials)
	}
	if creds.AccessToken == "" {
		return fmt.Errorf("%w: access token is required", ErrInvalidCredentials)
	}
	return nil
}

func validateSubscription(sub *model.Subscription) error {
	if sub == nil {
		return fmt.Errorf("%w: subscription", ErrNilParameter)
	}
	if strings.TrimSpace(sub.ID) == "" {
		return fmt.Errorf("%w: ID is required", ErrInvalidSubscription)
	}
	if strings.TrimSpace(sub.UserID) == "" {
		return fmt.Errorf("%w: user ID is required", ErrInvalidSubscription)
	}
	if strings.TrimSpace(sub.Service) == "" {
		return fmt.Errorf("%w: service is required", ErrInvalidSubscription)
	}
	if sub.Amount < 0 {
		return fmt.Errorf("%w: amount cannot be negative", ErrInvalidSubscription)
	}
	return nil
}

func validateStatus(status model.SubscriptionStatus) error {
	switch status {
	case model.StatusActive, model.StatusCancelled, model.StatusPaused:
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}
}

// validateTransactions validates a slice of transactions.
func validateTransactions(transactions []model.Transaction) error {
	if transactions == nil {
		return fmt.Errorf("%w: transactions", ErrNilParameter)
	}
	if len(transactions) == 0 {
		return fmt.Errorf("%w: transactions", ErrEmptySlice)
	}

	for i, txn := range transactions {
		if err := validateTransaction(&txn); err != nil {
			return fmt.Errorf("transaction at index %d: %w", i, err)
		}
	}
	return nil
}

// validateTransaction validates a single transaction.
func validateTransaction(txn *model.Transaction) error {
	if txn == nil {
		return fmt.Errorf("%w: transaction", ErrNilParameter)
	}
	if strings.TrimSpace(txn.ID) == "" {
		return fmt.Errorf("%w: ID is required", ErrInvalidTransaction)
	}
	if strings.TrimSpace(txn.UserID) == "" {
		return fmt.Errorf("%w: user ID is required", ErrInvalidTransaction)
	}
	if txn.Date.IsZero() {
		return fmt.Errorf("%w: date is required", ErrInvalidTransaction)
	}
	return nil
}
