package discovery

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/TysunM/subzero/internal/common"
	"github.com/TysunM/subzero/internal/model"
)

const (
	// defaultMaxResults bounds the total number of messages examined when
	// the caller passes no explicit budget.
	defaultMaxResults = 200

	// perQueryLimit caps how many hits any single query may contribute,
	// keeping one noisy query from starving the rest of the budget.
	perQueryLimit = 25

	// confidenceThreshold is the minimum score a candidate must exceed to
	// survive; at the 0.4 base this demands at least two extra signals.
	confidenceThreshold = 0.6

	// maxCandidates bounds the final ranked result list.
	maxCandidates = 30
)

// Engine runs mailbox-based subscription discovery. It owns the token
// lifecycle and contains per-query and per-message failures so a single bad
// message never aborts a scan.
type Engine struct {
	tokens TokenStore
	mail   MailSearchProvider
	logger *slog.Logger
	now    func() time.Time
}

// NewEngine creates a discovery engine over the given token store and mail
// provider.
func NewEngine(tokens TokenStore, mail MailSearchProvider, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		tokens: tokens,
		mail:   mail,
		logger: logger,
		now:    time.Now,
	}
}

// Discover scans the user's mailbox and returns ranked subscription
// candidates, best first. maxResults bounds the number of messages examined
// across all queries; zero or negative selects the default budget.
//
// It returns common.ErrNotConnected when the user has no stored mail
// credentials and common.ErrTokenRefresh when the stored token is expired
// and cannot be refreshed. All other failures are logged and skipped.
func (e *Engine) Discover(ctx context.Context, userID string, maxResults int) ([]model.DiscoveredSubscription, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("discovering subscriptions: %w", err)
	}
	if strings.TrimSpace(userID) == "" {
		return nil, fmt.Errorf("user ID cannot be empty")
	}
	if maxResults <= 0 {
		maxResults = defaultMaxResults
	}

	creds, err := e.credentials(ctx, userID)
	if err != nil {
		return nil, err
	}

	perQuery := maxResults / len(searchQueries)
	if perQuery > perQueryLimit {
		perQuery = perQueryLimit
	}
	if perQuery < 1 {
		perQuery = 1
	}

	now := e.now()
	seen := make(map[string]bool)
	best := make(map[string]model.DiscoveredSubscription)

	for _, query := range searchQueries {
		refs, err := e.mail.Search(ctx, creds, windowedQuery(query, now), perQuery)
		if err != nil {
			e.logger.Warn("mail search failed",
				"user_id", userID,
				"query", query,
				"error", err)
			continue
		}

		for _, ref := range refs {
			if seen[ref.ID] {
				continue
			}
			seen[ref.ID] = true

			msg, err := e.mail.Fetch(ctx, creds, ref)
			if err != nil {
				e.logger.Warn("message fetch failed",
					"user_id", userID,
					"message_id", ref.ID,
					"error", err)
				continue
			}

			candidate := extractSubscription(msg, now)
			if candidate == nil || candidate.Confidence <= confidenceThreshold {
				continue
			}

			key := strings.ToLower(candidate.Service)
			if existing, ok := best[key]; !ok || candidate.Confidence > existing.Confidence {
				best[key] = *candidate
			}
		}
	}

	results := rankCandidates(best)
	e.logger.Info("mailbox discovery complete",
		"user_id", userID,
		"messages_examined", len(seen),
		"candidates", len(results))
	return results, nil
}

// credentials loads the user's mail credentials, refreshing them when they
// are expired or about to expire.
func (e *Engine) credentials(ctx context.Context, userID string) (*model.Credentials, error) {
	creds, err := e.tokens.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, fmt.Errorf("mail account for user %s: %w", userID, common.ErrNotConnected)
		}
		return nil, fmt.Errorf("loading mail credentials: %w", err)
	}

	if creds.Valid() {
		return creds, nil
	}

	if creds.RefreshToken == "" {
		return nil, fmt.Errorf("token expired and no refresh token stored: %w", common.ErrTokenRefresh)
	}

	refreshed, err := e.tokens.Refresh(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrTokenRefresh, err)
	}
	return refreshed, nil
}

// rankCandidates orders deduplicated candidates by confidence, best first,
// and truncates to the result bound. Ties break alphabetically so output is
// stable.
func rankCandidates(best map[string]model.DiscoveredSubscription) []model.DiscoveredSubscription {
	results := make([]model.DiscoveredSubscription, 0, len(best))
	for _, c := range best {
		results = append(results, c)
	}
	sort.Slice(results, func(i, j int) bool {
		if results[i].Confidence != results[j].Confidence {
			return results[i].Confidence > results[j].Confidence
		}
		return results[i].Service < results[j].Service
	})
	if len(results) > maxCandidates {
		results = results[:maxCandidates]
	}
	return results
}
