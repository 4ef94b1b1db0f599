package model

import "time"

// SubscriptionStatus tracks the lifecycle of a saved subscription.
type SubscriptionStatus string

const (
	// StatusActive indicates the subscription is believed to be billing.
	StatusActive SubscriptionStatus = "active"
	// StatusCancelled indicates the user has cancelled the subscription.
	StatusCancelled SubscriptionStatus = "cancelled"
	// StatusPaused indicates billing is temporarily suspended.
	StatusPaused SubscriptionStatus = "paused"
)

// Subscription is a discovered candidate the user has accepted into their
// tracked list. Unlike DiscoveredSubscription it has identity and persists.
type Subscription struct {
	NextBilling *time.Time         `json:"next_billing,omitempty"`
	CreatedAt   time.Time          `json:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at"`
	ID          string             `json:"id"`
	UserID      string             `json:"user_id"`
	Service     string             `json:"service"`
	Currency    string             `json:"currency"`
	Frequency   Frequency          `json:"frequency"`
	Category    string             `json:"category"`
	Source      string             `json:"source"`
	Details     string             `json:"details"`
	Status      SubscriptionStatus `json:"status"`
	Amount      float64            `json:"amount"`
	Confidence  float64            `json:"confidence"`
}

// AnnualCost returns the projected yearly cost of this subscription.
func (s *Subscription) AnnualCost() float64 {
	return s.Frequency.AnnualCost(s.Amount)
}

// MonthlyCost returns the normalized monthly cost of this subscription.
func (s *Subscription) MonthlyCost() float64 {
	return s.Frequency.MonthlyCost(s.Amount)
}
