package model

import (
	"crypto/sha256"
	"fmt"
	"time"
)

// Transaction represents a single bank transaction from any source
// (Plaid sync or OFX import).
type Transaction struct {
	Date         time.Time `json:"date"`
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	Name         string    `json:"name"`          // Raw transaction description
	MerchantName string    `json:"merchant_name"` // Cleaned merchant name
	AccountID    string    `json:"account_id"`
	Hash         string    `json:"hash"`
	Amount       float64   `json:"amount"`
}

// GenerateHash creates a unique hash for duplicate detection.
func (t *Transaction) GenerateHash() string {
	data := fmt.Sprintf("%s:%.2f:%s:%s",
		t.Date.Format("2006-01-02"),
		t.Amount,
		t.MerchantName,
		t.AccountID)
	hash := sha256.Sum256([]byte(data))
	return fmt.Sprintf("%x", hash)
}
