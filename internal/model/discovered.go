// Package model defines the core domain types shared across the application.
package model

import "time"

// Frequency is a billing cycle for a subscription.
type Frequency string

const (
	// FrequencyMonthly is the default cycle when no explicit signal is found.
	FrequencyMonthly Frequency = "monthly"
	// FrequencyYearly indicates annual billing.
	FrequencyYearly Frequency = "yearly"
	// FrequencyWeekly indicates weekly billing.
	FrequencyWeekly Frequency = "weekly"
	// FrequencyQuarterly indicates quarterly billing.
	FrequencyQuarterly Frequency = "quarterly"
)

// NextAfter returns the instant one billing cycle after t.
func (f Frequency) NextAfter(t time.Time) time.Time {
	switch f {
	case FrequencyYearly:
		return t.AddDate(1, 0, 0)
	case FrequencyWeekly:
		return t.AddDate(0, 0, 7)
	case FrequencyQuarterly:
		return t.AddDate(0, 3, 0)
	default:
		return t.AddDate(0, 1, 0)
	}
}

// MonthlyCost normalizes an amount billed at this frequency to a monthly cost.
func (f Frequency) MonthlyCost(amount float64) float64 {
	switch f {
	case FrequencyYearly:
		return amount / 12
	case FrequencyWeekly:
		return amount * 4.33 // average weeks per month
	case FrequencyQuarterly:
		return amount / 3
	default:
		return amount
	}
}

// AnnualCost normalizes an amount billed at this frequency to an annual cost.
func (f Frequency) AnnualCost(amount float64) float64 {
	switch f {
	case FrequencyYearly:
		return amount
	case FrequencyWeekly:
		return amount * 52
	case FrequencyQuarterly:
		return amount * 4
	default:
		return amount * 12
	}
}

// Discovery source tags.
const (
	// SourceGmail marks candidates extracted from Gmail messages.
	SourceGmail = "gmail"
	// SourceBank marks candidates derived from bank transaction data.
	SourceBank = "bank"
	// SourceBoth marks candidates confirmed by both gmail and bank data.
	SourceBoth = "both"
)

// UnknownService is the service name used when no better name can be resolved.
const UnknownService = "Unknown Service"

// Subscription categories. The set is closed; CategoryOther is the fallback.
const (
	CategoryEntertainment = "Entertainment"
	CategoryMusic         = "Music"
	CategorySoftware      = "Software"
	CategoryCloudStorage  = "Cloud Storage"
	CategoryProductivity  = "Productivity"
	CategoryDevelopment   = "Development"
	CategoryShopping      = "Shopping"
	CategoryNews          = "News"
	CategoryOther         = "Other"
)

// DiscoveredSubscription is a single subscription candidate produced by a
// discovery run. It is a value object: once constructed it is never mutated,
// only replaced by a higher-confidence candidate for the same service.
type DiscoveredSubscription struct {
	NextBilling *time.Time `json:"next_billing,omitempty"`
	Service     string     `json:"service"`
	Currency    string     `json:"currency"`
	Frequency   Frequency  `json:"frequency"`
	Category    string     `json:"category"`
	Source      string     `json:"source"`
	Details     string     `json:"details"`
	Amount      float64    `json:"amount"`
	Confidence  float64    `json:"confidence"`
}
