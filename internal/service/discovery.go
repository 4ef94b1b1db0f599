package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/TysunM/subzero/internal/common"
	"github.com/TysunM/subzero/internal/discovery"
	"github.com/TysunM/subzero/internal/model"
	"github.com/TysunM/subzero/internal/plaid"
)

// MailDiscoverer runs mailbox-based subscription discovery.
type MailDiscoverer interface {
	Discover(ctx context.Context, userID string, maxResults int) ([]model.DiscoveredSubscription, error)
}

// transactionLookback bounds how far back stored bank transactions are
// considered for recurring-charge detection.
const transactionLookback = 12 * 30 * 24 * time.Hour

// DiscoveryService orchestrates subscription discovery across mail and bank
// sources and manages the resulting tracked subscriptions.
type DiscoveryService struct {
	mail   MailDiscoverer
	bank   plaid.BankClient
	store  Storage
	logger *slog.Logger
}

// NewDiscoveryService wires the discovery sources together.
func NewDiscoveryService(mail MailDiscoverer, bank plaid.BankClient, store Storage, logger *slog.Logger) *DiscoveryService {
	if logger == nil {
		logger = slog.Default()
	}
	return &DiscoveryService{
		mail:   mail,
		bank:   bank,
		store:  store,
		logger: logger,
	}
}

// DiscoverOptions selects which sources a discovery run uses. When neither
// flag is set, both sources are tried.
type DiscoverOptions struct {
	MaxResults int
	Email      bool
	Bank       bool
}

// AccountStatus reports which providers a user has connected.
type AccountStatus struct {
	GmailConnected bool `json:"gmail_connected"`
	BankConnected  bool `json:"bank_connected"`
}

// Status returns the user's connected-account status.
func (s *DiscoveryService) Status(ctx context.Context, userID string) (*AccountStatus, error) {
	status := &AccountStatus{}

	if _, err := s.store.GetCredentials(ctx, userID, model.ProviderGmail); err == nil {
		status.GmailConnected = true
	} else if !errors.Is(err, common.ErrNotFound) {
		return nil, err
	}

	if _, err := s.store.GetCredentials(ctx, userID, model.ProviderPlaid); err == nil {
		status.BankConnected = true
	} else if !errors.Is(err, common.ErrNotFound) {
		return nil, err
	}

	return status, nil
}

// Discover runs discovery over the selected sources and merges the results.
// When both sources are selected, a source the user has not connected is
// skipped rather than failing the run; if every selected source is
// unconnected the run fails with common.ErrNotConnected.
func (s *DiscoveryService) Discover(ctx context.Context, userID string, opts DiscoverOptions) ([]model.DiscoveredSubscription, error) {
	if !opts.Email && !opts.Bank {
		opts.Email = true
		opts.Bank = true
	}
	both := opts.Email && opts.Bank

	var emailSubs, bankSubs []model.DiscoveredSubscription
	var sourcesRun int

	if opts.Email {
		subs, err := s.mail.Discover(ctx, userID, opts.MaxResults)
		switch {
		case err == nil:
			emailSubs = subs
			sourcesRun++
		case both && errors.Is(err, common.ErrNotConnected):
			s.logger.Info("mail not connected, skipping email discovery", "user_id", userID)
		default:
			return nil, err
		}
	}

	if opts.Bank {
		subs, err := s.discoverBank(ctx, userID)
		switch {
		case err == nil:
			bankSubs = subs
			sourcesRun++
		case both && errors.Is(err, common.ErrNotConnected):
			s.logger.Info("bank not connected, skipping bank discovery", "user_id", userID)
		default:
			return nil, err
		}
	}

	if sourcesRun == 0 {
		return nil, fmt.Errorf("no discovery source available for user %s: %w", userID, common.ErrNotConnected)
	}

	return discovery.MergeCandidates(emailSubs, bankSubs), nil
}

// discoverBank combines Plaid's own recurring-stream analysis with our
// interval detection over locally stored transactions (Plaid syncs and OFX
// imports alike).
func (s *DiscoveryService) discoverBank(ctx context.Context, userID string) ([]model.DiscoveredSubscription, error) {
	creds, err := s.store.GetCredentials(ctx, userID, model.ProviderPlaid)
	var streams []model.DiscoveredSubscription
	switch {
	case err == nil:
		if s.bank != nil {
			streams, err = s.bank.GetRecurringStreams(ctx, creds.AccessToken, userID)
			if err != nil {
				s.logger.Warn("recurring stream fetch failed", "user_id", userID, "error", err)
				streams = nil
			}
		}
	case errors.Is(err, common.ErrNotFound):
		// No linked bank; stored transactions may still exist from imports.
	default:
		return nil, err
	}

	now := time.Now()
	txns, err := s.store.GetTransactionsByUser(ctx, userID, now.Add(-transactionLookback))
	if err != nil {
		return nil, err
	}
	detected := DeduplicateAgainst(discovery.DetectRecurring(txns, now), streams)

	if len(streams) == 0 && len(detected) == 0 && creds == nil {
		return nil, fmt.Errorf("bank account for user %s: %w", userID, common.ErrNotConnected)
	}

	return append(streams, detected...), nil
}

// DeduplicateAgainst drops candidates whose service already appears in the
// reference set, matching case-insensitively.
func DeduplicateAgainst(candidates, reference []model.DiscoveredSubscription) []model.DiscoveredSubscription {
	seen := make(map[string]bool, len(reference))
	for _, ref := range reference {
		seen[strings.ToLower(ref.Service)] = true
	}

	var out []model.DiscoveredSubscription
	for _, cand := range candidates {
		if !seen[strings.ToLower(cand.Service)] {
			out = append(out, cand)
		}
	}
	return out
}

// SaveDiscovered accepts a discovered candidate into the user's tracked
// subscriptions and returns the stored record.
func (s *DiscoveryService) SaveDiscovered(ctx context.Context, userID string, cand model.DiscoveredSubscription) (*model.Subscription, error) {
	if strings.TrimSpace(cand.Service) == "" {
		return nil, fmt.Errorf("candidate service name is required: %w", common.ErrInvalidInput)
	}

	currency := cand.Currency
	if currency == "" {
		currency = "USD"
	}
	frequency := cand.Frequency
	if frequency == "" {
		frequency = model.FrequencyMonthly
	}

	sub := &model.Subscription{
		ID:          uuid.New().String(),
		UserID:      userID,
		Service:     cand.Service,
		Amount:      cand.Amount,
		Currency:    currency,
		Frequency:   frequency,
		Category:    cand.Category,
		NextBilling: cand.NextBilling,
		Source:      cand.Source,
		Confidence:  cand.Confidence,
		Details:     cand.Details,
		Status:      model.StatusActive,
	}
	if err := s.store.SaveSubscription(ctx, sub); err != nil {
		return nil, err
	}

	s.logger.Info("saved subscription",
		"user_id", userID,
		"subscription_id", sub.ID,
		"service", sub.Service)
	return sub, nil
}

// SubscriptionSummary bundles a spending analysis with the recommendations
// derived from it.
type SubscriptionSummary struct {
	Analysis        model.SpendingAnalysis `json:"analysis"`
	Recommendations []model.Recommendation `json:"recommendations"`
}

// Summary analyzes the user's active subscriptions.
func (s *DiscoveryService) Summary(ctx context.Context, userID string) (*SubscriptionSummary, error) {
	subs, err := s.store.GetSubscriptions(ctx, userID)
	if err != nil {
		return nil, err
	}

	var active []model.DiscoveredSubscription
	for _, sub := range subs {
		if sub.Status != model.StatusActive {
			continue
		}
		active = append(active, model.DiscoveredSubscription{
			Service:     sub.Service,
			Amount:      sub.Amount,
			Currency:    sub.Currency,
			Frequency:   sub.Frequency,
			Category:    sub.Category,
			NextBilling: sub.NextBilling,
			Source:      sub.Source,
			Confidence:  sub.Confidence,
		})
	}

	recs := discovery.Recommend(active)
	if recs == nil {
		recs = []model.Recommendation{}
	}
	return &SubscriptionSummary{
		Analysis:        discovery.AnalyzeSpending(active),
		Recommendations: recs,
	}, nil
}

// ListSubscriptions returns the user's saved subscriptions, newest first.
func (s *DiscoveryService) ListSubscriptions(ctx context.Context, userID string) ([]model.Subscription, error) {
	return s.store.GetSubscriptions(ctx, userID)
}

// RemoveSubscription deletes a saved subscription.
func (s *DiscoveryService) RemoveSubscription(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("subscription id is required: %w", common.ErrInvalidInput)
	}
	return s.store.DeleteSubscription(ctx, id)
}

// ConnectBank completes the Plaid Link flow: it exchanges the public token
// and stores the resulting access token as the user's bank credentials.
func (s *DiscoveryService) ConnectBank(ctx context.Context, userID, publicToken string) error {
	if s.bank == nil {
		return fmt.Errorf("plaid client not configured: %w", common.ErrMissingConfig)
	}
	accessToken, itemID, err := s.bank.ExchangePublicToken(ctx, publicToken)
	if err != nil {
		return err
	}

	creds := &model.Credentials{
		UserID:      userID,
		Provider:    model.ProviderPlaid,
		AccessToken: accessToken,
		UpdatedAt:   time.Now(),
	}
	if err := s.store.SaveCredentials(ctx, creds); err != nil {
		return err
	}

	s.logger.Info("linked bank account", "user_id", userID, "item_id", itemID)
	return nil
}

// LinkToken creates a Plaid Link token for the user.
func (s *DiscoveryService) LinkToken(ctx context.Context, userID string) (string, error) {
	if s.bank == nil {
		return "", fmt.Errorf("plaid client not configured: %w", common.ErrMissingConfig)
	}
	return s.bank.CreateLinkToken(ctx, userID)
}

// SyncBankTransactions pulls the user's recent bank transactions into local
// storage so recurring-charge detection can run over them.
func (s *DiscoveryService) SyncBankTransactions(ctx context.Context, userID string, since time.Time) (int, error) {
	if s.bank == nil {
		return 0, fmt.Errorf("plaid client not configured: %w", common.ErrMissingConfig)
	}
	creds, err := s.store.GetCredentials(ctx, userID, model.ProviderPlaid)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return 0, fmt.Errorf("bank account for user %s: %w", userID, common.ErrNotConnected)
		}
		return 0, err
	}

	txns, err := s.bank.GetTransactions(ctx, creds.AccessToken, userID, since, time.Now())
	if err != nil {
		return 0, err
	}
	if len(txns) == 0 {
		return 0, nil
	}

	if err := s.store.SaveTransactions(ctx, txns); err != nil {
		return 0, err
	}
	return len(txns), nil
}
