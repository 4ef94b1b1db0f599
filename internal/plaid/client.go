package plaid

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/plaid/plaid-go/v20/plaid"

	"github.com/TysunM/subzero/internal/common"
	"github.com/TysunM/subzero/internal/discovery"
	"github.com/TysunM/subzero/internal/model"
)

// Config holds Plaid API configuration.
type Config struct {
	ClientID    string
	Secret      string
	Environment string // sandbox or production
}

// Validate ensures all required fields are present.
func (c *Config) Validate() error {
	if c.ClientID == "" {
		return fmt.Errorf("plaid client ID is required: %w", common.ErrMissingConfig)
	}
	if c.Secret == "" {
		return fmt.Errorf("plaid secret is required: %w", common.ErrMissingConfig)
	}
	if c.Environment == "" {
		return fmt.Errorf("plaid environment is required: %w", common.ErrMissingConfig)
	}

	validEnvs := map[string]bool{
		"sandbox":    true,
		"production": true,
	}
	if !validEnvs[c.Environment] {
		return fmt.Errorf("plaid environment must be sandbox or production: %w", common.ErrInvalidConfig)
	}

	return nil
}

// Recurring-stream confidence: Plaid has already done the pattern analysis,
// so streams start high and active ones higher still.
const (
	streamBaseConfidence = 0.70
	streamActiveBonus    = 0.20
	clientNamePrefix     = "subzero-user-"
	plaidRateLimitCode   = "RATE_LIMIT_EXCEEDED"
	transactionsPageSize = int32(500) // Plaid's max page size
)

// Client implements the BankClient interface against the Plaid API.
type Client struct {
	client      *plaid.APIClient
	logger      *slog.Logger
	retryOpts   common.RetryOptions
	environment string
}

// NewClient creates a new Plaid client with the given configuration.
func NewClient(cfg Config) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	configuration := plaid.NewConfiguration()
	configuration.AddDefaultHeader("PLAID-CLIENT-ID", cfg.ClientID)
	configuration.AddDefaultHeader("PLAID-SECRET", cfg.Secret)

	switch cfg.Environment {
	case "sandbox":
		configuration.UseEnvironment(plaid.Sandbox)
	case "production":
		configuration.UseEnvironment(plaid.Production)
	}

	return &Client{
		client:      plaid.NewAPIClient(configuration),
		environment: cfg.Environment,
		logger:      slog.Default().With("component", "plaid"),
		retryOpts: common.RetryOptions{
			MaxAttempts:  3,
			InitialDelay: 1 * time.Second,
			MaxDelay:     30 * time.Second,
			Multiplier:   2.0,
		},
	}, nil
}

// CreateLinkToken creates a Link token for Plaid Link initialization.
func (c *Client) CreateLinkToken(ctx context.Context, userID string) (string, error) {
	user := plaid.LinkTokenCreateRequestUser{
		ClientUserId: clientNamePrefix + userID,
	}

	request := plaid.NewLinkTokenCreateRequest(
		"SubZero Subscription Tracker",
		"en",
		[]plaid.CountryCode{plaid.COUNTRYCODE_US},
		user,
	)
	request.SetProducts([]plaid.Products{plaid.PRODUCTS_TRANSACTIONS})

	resp, _, err := c.client.PlaidApi.LinkTokenCreate(ctx).LinkTokenCreateRequest(*request).Execute()
	if err != nil {
		return "", c.wrapPlaidError("create link token", err)
	}

	return resp.GetLinkToken(), nil
}

// ExchangePublicToken exchanges a public token from Link for an access token.
func (c *Client) ExchangePublicToken(ctx context.Context, publicToken string) (string, string, error) {
	request := plaid.NewItemPublicTokenExchangeRequest(publicToken)
	resp, _, err := c.client.PlaidApi.ItemPublicTokenExchange(ctx).ItemPublicTokenExchangeRequest(*request).Execute()
	if err != nil {
		return "", "", c.wrapPlaidError("exchange public token", err)
	}

	return resp.GetAccessToken(), resp.GetItemId(), nil
}

// GetAccounts fetches account IDs reachable with the access token.
func (c *Client) GetAccounts(ctx context.Context, accessToken string) ([]string, error) {
	if accessToken == "" {
		return nil, common.ErrNotConnected
	}

	var accounts []plaid.AccountBase
	retryErr := common.WithRetry(ctx, func() error {
		request := plaid.NewAccountsGetRequest(accessToken)
		resp, _, err := c.client.PlaidApi.AccountsGet(ctx).AccountsGetRequest(*request).Execute()
		if err != nil {
			return c.classifyError("fetch accounts", err)
		}
		accounts = resp.GetAccounts()
		return nil
	}, c.retryOpts)
	if retryErr != nil {
		return nil, retryErr
	}

	accountIDs := make([]string, 0, len(accounts))
	for _, account := range accounts {
		accountIDs = append(accountIDs, account.GetAccountId())
	}
	return accountIDs, nil
}

// GetTransactions fetches transactions from Plaid within the specified date
// range, paging through the full result set.
func (c *Client) GetTransactions(ctx context.Context, accessToken, userID string, startDate, endDate time.Time) ([]model.Transaction, error) {
	if accessToken == "" {
		return nil, common.ErrNotConnected
	}
	if startDate.After(endDate) {
		return nil, fmt.Errorf("start date must be before end date")
	}

	c.logger.Info("Fetching transactions from Plaid",
		"user_id", userID,
		"start_date", startDate.Format("2006-01-02"),
		"end_date", endDate.Format("2006-01-02"))

	var allTransactions []plaid.Transaction
	offset := int32(0)

	for {
		var page []plaid.Transaction

		retryErr := common.WithRetry(ctx, func() error {
			request := plaid.NewTransactionsGetRequest(
				accessToken,
				startDate.Format("2006-01-02"),
				endDate.Format("2006-01-02"),
			)
			options := plaid.TransactionsGetRequestOptions{
				Count:  plaid.PtrInt32(transactionsPageSize),
				Offset: plaid.PtrInt32(offset),
			}
			request.SetOptions(options)

			resp, _, err := c.client.PlaidApi.TransactionsGet(ctx).TransactionsGetRequest(*request).Execute()
			if err != nil {
				return c.classifyError("fetch transactions", err)
			}

			page = resp.GetTransactions()
			c.logger.Debug("Fetched transaction batch",
				"count", len(page),
				"offset", offset,
				"total", resp.GetTotalTransactions())
			return nil
		}, c.retryOpts)
		if retryErr != nil {
			return nil, retryErr
		}

		allTransactions = append(allTransactions, page...)
		if len(page) < int(transactionsPageSize) {
			break
		}
		offset += transactionsPageSize
	}

	c.logger.Info("Fetched all transactions", "count", len(allTransactions))

	transactions := make([]model.Transaction, 0, len(allTransactions))
	for _, pt := range allTransactions {
		transactions = append(transactions, c.mapPlaidTransaction(pt, userID))
	}
	return transactions, nil
}

// GetRecurringStreams asks Plaid for its own recurring-payment analysis of
// the user's accounts and converts the outflow streams into subscription
// candidates.
func (c *Client) GetRecurringStreams(ctx context.Context, accessToken, userID string) ([]model.DiscoveredSubscription, error) {
	accountIDs, err := c.GetAccounts(ctx, accessToken)
	if err != nil {
		return nil, err
	}
	if len(accountIDs) == 0 {
		return nil, nil
	}

	var streams []plaid.TransactionStream
	retryErr := common.WithRetry(ctx, func() error {
		request := plaid.NewTransactionsRecurringGetRequest(accessToken, accountIDs)
		resp, _, err := c.client.PlaidApi.TransactionsRecurringGet(ctx).TransactionsRecurringGetRequest(*request).Execute()
		if err != nil {
			return c.classifyError("fetch recurring streams", err)
		}
		streams = resp.GetOutflowStreams()
		return nil
	}, c.retryOpts)
	if retryErr != nil {
		return nil, retryErr
	}

	subs := make([]model.DiscoveredSubscription, 0, len(streams))
	for _, stream := range streams {
		if sub := mapStream(stream); sub != nil {
			subs = append(subs, *sub)
		}
	}
	sort.Slice(subs, func(i, j int) bool {
		if subs[i].Confidence != subs[j].Confidence {
			return subs[i].Confidence > subs[j].Confidence
		}
		return subs[i].Service < subs[j].Service
	})

	c.logger.Info("Fetched recurring streams",
		"user_id", userID,
		"streams", len(streams),
		"candidates", len(subs))
	return subs, nil
}

// mapStream converts one Plaid transaction stream into a candidate. Streams
// with no usable merchant name are dropped.
func mapStream(stream plaid.TransactionStream) *model.DiscoveredSubscription {
	service := strings.TrimSpace(stream.GetMerchantName())
	if service == "" {
		service = strings.TrimSpace(stream.GetDescription())
	}
	if service == "" {
		return nil
	}
	if name, known := discovery.LookupService(strings.ToLower(service)); known {
		service = name
	}

	confidence := streamBaseConfidence
	if stream.GetIsActive() {
		confidence += streamActiveBonus
	}

	frequency := mapStreamFrequency(stream.GetFrequency())
	avg := stream.GetAverageAmount()
	amount := math.Abs(avg.GetAmount())

	var nextBilling *time.Time
	if last, err := time.Parse("2006-01-02", stream.GetLastDate()); err == nil {
		next := frequency.NextAfter(last)
		for !next.After(time.Now()) {
			next = frequency.NextAfter(next)
		}
		nextBilling = &next
	}

	return &model.DiscoveredSubscription{
		Service:     service,
		Amount:      math.Round(amount*100) / 100,
		Currency:    "USD",
		Frequency:   frequency,
		Category:    discovery.CategoryFor(service),
		NextBilling: nextBilling,
		Source:      model.SourceBank,
		Confidence:  confidence,
		Details:     "Detected by bank recurring-payment analysis",
	}
}

// mapStreamFrequency converts Plaid's recurrence labels to billing cycles.
// Sub-monthly cadences that have no direct equivalent are treated as monthly
// so cost normalization stays conservative.
func mapStreamFrequency(freq plaid.RecurringTransactionFrequency) model.Frequency {
	switch freq {
	case plaid.RECURRINGTRANSACTIONFREQUENCY_WEEKLY:
		return model.FrequencyWeekly
	case plaid.RECURRINGTRANSACTIONFREQUENCY_ANNUALLY:
		return model.FrequencyYearly
	default:
		return model.FrequencyMonthly
	}
}

// mapPlaidTransaction converts a Plaid transaction to our internal model.
func (c *Client) mapPlaidTransaction(pt plaid.Transaction, userID string) model.Transaction {
	date, err := time.Parse("2006-01-02", pt.GetDate())
	if err != nil {
		c.logger.Error("Failed to parse transaction date", "date", pt.GetDate(), "error", err)
		date = time.Now()
	}

	merchantName := pt.GetMerchantName()
	if merchantName == "" {
		merchantName = pt.GetName()
	}

	tx := model.Transaction{
		Date:         date,
		ID:           pt.GetTransactionId(),
		UserID:       userID,
		Name:         pt.GetName(),
		MerchantName: cleanMerchantName(merchantName),
		AccountID:    pt.GetAccountId(),
		Amount:       pt.GetAmount(),
	}
	tx.Hash = tx.GenerateHash()
	return tx
}

// cleanMerchantName title-cases raw merchant strings, which Plaid often
// reports in shouting caps.
func cleanMerchantName(name string) string {
	words := strings.Fields(strings.ToLower(name))
	for i, word := range words {
		runes := []rune(word)
		for j := range runes {
			if j == 0 && runes[j] >= 'a' && runes[j] <= 'z' {
				runes[j] = runes[j] - 'a' + 'A'
			}
		}
		words[i] = string(runes)
	}
	return strings.Join(words, " ")
}

// classifyError marks Plaid rate limits as retryable for the retry loop.
func (c *Client) classifyError(operation string, err error) error {
	if plaidError := extractPlaidError(err); plaidError != nil {
		if plaidError.ErrorCode == plaidRateLimitCode {
			c.logger.Warn("Rate limit hit, will retry", "error", plaidError.ErrorMessage)
			return &common.RetryableError{Err: fmt.Errorf("%w: %s", common.ErrPlaidRateLimit, plaidError.ErrorMessage), Retryable: true}
		}
		return fmt.Errorf("plaid API error during %s: %s - %s", operation, plaidError.ErrorCode, plaidError.ErrorMessage)
	}
	return fmt.Errorf("failed to %s: %w", operation, err)
}

func (c *Client) wrapPlaidError(operation string, err error) error {
	if plaidError := extractPlaidError(err); plaidError != nil {
		return fmt.Errorf("plaid API error during %s: %s - %s", operation, plaidError.ErrorCode, plaidError.ErrorMessage)
	}
	return fmt.Errorf("failed to %s: %w", operation, err)
}

// extractPlaidError attempts to extract a Plaid error from a generic error.
func extractPlaidError(err error) *plaid.PlaidError {
	plaidErr, convErr := plaid.ToPlaidError(err)
	if convErr != nil {
		return nil
	}
	return &plaidErr
}

// Ensure Client implements the BankClient interface.
var _ BankClient = (*Client)(nil)
