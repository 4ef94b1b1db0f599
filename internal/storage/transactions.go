package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/TysunM/subzero/internal/model"
)

// SaveTransactions saves multiple transactions to the database. Duplicates,
// identified by hash, are silently skipped so repeated imports are safe.
func (s *SQLiteStorage) SaveTransactions(ctx context.Context, transactions []model.Transaction) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateTransactions(transactions); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR IGNORE INTO transactions (
			id, user_id, hash, date, name, merchant_name, amount, account_id
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for i := range transactions {
		txn := &transactions[i]
		if txn.Hash == "" {
			txn.Hash = txn.GenerateHash()
		}
		if _, err := stmt.ExecContext(ctx,
			txn.ID, txn.UserID, txn.Hash, txn.Date, txn.Name,
			txn.MerchantName, txn.Amount, txn.AccountID,
		); err != nil {
			return fmt.Errorf("failed to save transaction %s: %w", txn.ID, err)
		}
	}

	return tx.Commit()
}

// GetTransactionsByUser returns a user's transactions dated on or after
// since, oldest first.
func (s *SQLiteStorage) GetTransactionsByUser(ctx context.Context, userID string, since time.Time) ([]model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(userID, "userID"); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, hash, date, name, merchant_name, amount, account_id
		FROM transactions
		WHERE user_id = ? AND date >= ?
		ORDER BY date, id
	`, userID, since)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var transactions []model.Transaction
	for rows.Next() {
		var txn model.Transaction
		var merchantName, accountID sql.NullString
		if err := rows.Scan(
			&txn.ID, &txn.UserID, &txn.Hash, &txn.Date, &txn.Name,
			&merchantName, &txn.Amount, &accountID,
		); err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		txn.MerchantName = merchantName.String
		txn.AccountID = accountID.String
		transactions = append(transactions, txn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate transactions: %w", err)
	}
	return transactions, nil
}
