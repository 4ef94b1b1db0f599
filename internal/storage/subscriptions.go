package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/TysunM/subzero/internal/common"
	"github.com/TysunM/subzero/internal/model"
)

// SaveSubscription stores or replaces one tracked subscription.
func (s *SQLiteStorage) SaveSubscription(ctx context.Context, sub *model.Subscription) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateSubscription(sub); err != nil {
		return err
	}

	now := time.Now()
	if sub.CreatedAt.IsZero() {
		sub.CreatedAt = now
	}
	sub.UpdatedAt = now
	if sub.Status == "" {
		sub.Status = model.StatusActive
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO subscriptions (
			id, user_id, service, amount, currency, frequency, category,
			next_billing, source, confidence, details, status, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			service = excluded.service,
			amount = excluded.amount,
			currency = excluded.currency,
			frequency = excluded.frequency,
			category = excluded.category,
			next_billing = excluded.next_billing,
			source = excluded.source,
			confidence = excluded.confidence,
			details = excluded.details,
			status = excluded.status,
			updated_at = excluded.updated_at
	`, sub.ID, sub.UserID, sub.Service, sub.Amount, sub.Currency, sub.Frequency,
		sub.Category, sub.NextBilling, sub.Source, sub.Confidence, sub.Details,
		sub.Status, sub.CreatedAt, sub.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to save subscription: %w", err)
	}
	return nil
}

// GetSubscriptions returns all subscriptions for a user, most recently
// updated first.
func (s *SQLiteStorage) GetSubscriptions(ctx context.Context, userID string) ([]model.Subscription, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(userID, "userID"); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, service, amount, currency, frequency, category,
			next_billing, source, confidence, details, status, created_at, updated_at
		FROM subscriptions
		WHERE user_id = ?
		ORDER BY updated_at DESC, id
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query subscriptions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var subs []model.Subscription
	for rows.Next() {
		sub, scanErr := scanSubscription(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		subs = append(subs, *sub)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate subscriptions: %w", err)
	}
	return subs, nil
}

// GetSubscriptionByID returns a single subscription, or an error wrapping
// common.ErrNotFound.
func (s *SQLiteStorage) GetSubscriptionByID(ctx context.Context, id string) (*model.Subscription, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, service, amount, currency, frequency, category,
			next_billing, source, confidence, details, status, created_at, updated_at
		FROM subscriptions
		WHERE id = ?
	`, id)

	sub, err := scanSubscription(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("subscription %s: %w", id, common.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return sub, nil
}

// UpdateSubscriptionStatus changes the lifecycle status of a subscription.
func (s *SQLiteStorage) UpdateSubscriptionStatus(ctx context.Context, id string, status model.SubscriptionStatus) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(id, "id"); err != nil {
		return err
	}
	if err := validateStatus(status); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx,
		`UPDATE subscriptions SET status = ?, updated_at = ? WHERE id = ?`,
		status, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update subscription status: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check updated rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("subscription %s: %w", id, common.ErrNotFound)
	}
	return nil
}

// DeleteSubscription removes a subscription permanently.
func (s *SQLiteStorage) DeleteSubscription(ctx context.Context, id string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(id, "id"); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `DELETE FROM subscriptions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete subscription: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check deleted rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("subscription %s: %w", id, common.ErrNotFound)
	}
	return nil
}

// scanner covers both sql.Row and sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanSubscription(row scanner) (*model.Subscription, error) {
	var sub model.Subscription
	var category, source, details sql.NullString
	var nextBilling sql.NullTime

	err := row.Scan(
		&sub.ID, &sub.UserID, &sub.Service, &sub.Amount, &sub.Currency,
		&sub.Frequency, &category, &nextBilling, &source, &sub.Confidence,
		&details, &sub.Status, &sub.CreatedAt, &sub.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan subscription: %w", err)
	}

	sub.Category = category.String
	sub.Source = source.String
	sub.Details = details.String
	if nextBilling.Valid {
		t := nextBilling.Time
		sub.NextBilling = &t
	}
	return &sub, nil
}
