package model

// CategorySummary aggregates subscriptions that share a category.
type CategorySummary struct {
	Count       int     `json:"count"`
	MonthlyCost float64 `json:"monthly_cost"`
}

// SpendingAnalysis summarizes the cost profile of a set of subscriptions.
type SpendingAnalysis struct {
	ByCategory      map[string]CategorySummary `json:"by_category"`
	ByFrequency     map[Frequency]int          `json:"by_frequency"`
	Highest         *DiscoveredSubscription    `json:"highest,omitempty"`
	TotalMonthly    float64                    `json:"total_monthly"`
	TotalAnnual     float64                    `json:"total_annual"`
	AverageMonthly  float64                    `json:"average_monthly"`
	Count           int                        `json:"count"`
}

// RecommendationPriority orders recommendations for display.
type RecommendationPriority string

const (
	// PriorityHigh recommendations should be acted on promptly.
	PriorityHigh RecommendationPriority = "high"
	// PriorityMedium recommendations are worth reviewing.
	PriorityMedium RecommendationPriority = "medium"
	// PriorityLow recommendations are optional optimizations.
	PriorityLow RecommendationPriority = "low"
)

// Recommendation is a suggested action to reduce subscription spending.
type Recommendation struct {
	Type             string                 `json:"type"`
	Title            string                 `json:"title"`
	Description      string                 `json:"description"`
	Priority         RecommendationPriority `json:"priority"`
	PotentialSavings float64                `json:"potential_savings"`
}
