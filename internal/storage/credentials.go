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

// SaveCredentials stores or replaces the credentials for one user/provider
// pair.
func (s *SQLiteStorage) SaveCredentials(ctx context.Context, creds *model.Credentials) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateCredentials(creds); err != nil {
		return err
	}

	if creds.UpdatedAt.IsZero() {
		creds.UpdatedAt = time.Now()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO credentials (user_id, provider, access_token, refresh_token, expiry, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id, provider) DO UPDATE SET
			access_token = excluded.access_token,
			refresh_token = excluded.refresh_token,
			expiry = excluded.expiry,
			updated_at = excluded.updated_at
	`, creds.UserID, creds.Provider, creds.AccessToken, creds.RefreshToken, creds.Expiry, creds.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to save credentials: %w", err)
	}
	return nil
}

// GetCredentials returns the stored credentials for a user and provider, or
// an error wrapping common.ErrNotFound.
func (s *SQLiteStorage) GetCredentials(ctx context.Context, userID, provider string) (*model.Credentials, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(userID, "userID"); err != nil {
		return nil, err
	}
	if err := validateString(provider, "provider"); err != nil {
		return nil, err
	}

	var creds model.Credentials
	var refreshToken sql.NullString
	var expiry sql.NullTime
	err := s.db.QueryRowContext(ctx, `
		SELECT user_id, provider, access_token, refresh_token, expiry, updated_at
		FROM credentials
		WHERE user_id = ? AND provider = ?
	`, userID, provider).Scan(
		&creds.UserID, &creds.Provider, &creds.AccessToken,
		&refreshToken, &expiry, &creds.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("credentials for %s/%s: %w", userID, provider, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get credentials: %w", err)
	}

	creds.RefreshToken = refreshToken.String
	if expiry.Valid {
		creds.Expiry = expiry.Time
	}
	return &creds, nil
}

// DeleteCredentials removes stored credentials for a user and provider.
func (s *SQLiteStorage) DeleteCredentials(ctx context.Context, userID, provider string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(userID, "userID"); err != nil {
		return err
	}
	if err := validateString(provider, "provider"); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx,
		`DELETE FROM credentials WHERE user_id = ? AND provider = ?`,
		userID, provider)
	if err != nil {
		return fmt.Errorf("failed to delete credentials: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check deleted rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("credentials for %s/%s: %w", userID, provider, common.ErrNotFound)
	}
	return nil
}
