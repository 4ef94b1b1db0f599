package discovery

import (
	"fmt"
	"math"
	"strings"

	"github.com/TysunM/subzero/internal/model"
)

const (
	// highSpendingThreshold is the monthly total above which spending is
	// flagged for review.
	highSpendingThreshold = 100.0

	// annualDiscount estimates the typical saving from switching a monthly
	// plan to annual billing.
	annualDiscount = 0.15
)

// AnalyzeSpending computes the cost profile of a candidate set: totals,
// averages, and breakdowns by category and billing cycle. All costs are
// normalized to monthly figures before aggregation.
func AnalyzeSpending(subs []model.DiscoveredSubscription) model.SpendingAnalysis {
	analysis := model.SpendingAnalysis{
		ByCategory:  make(map[string]model.CategorySummary),
		ByFrequency: make(map[model.Frequency]int),
		Count:       len(subs),
	}

	var highestMonthly float64
	for i, sub := range subs {
		monthly := sub.Frequency.MonthlyCost(sub.Amount)
		analysis.TotalMonthly += monthly
		analysis.TotalAnnual += sub.Frequency.AnnualCost(sub.Amount)
		analysis.ByFrequency[sub.Frequency]++

		summary := analysis.ByCategory[sub.Category]
		summary.Count++
		summary.MonthlyCost = roundCents(summary.MonthlyCost + monthly)
		analysis.ByCategory[sub.Category] = summary

		if monthly > highestMonthly {
			highestMonthly = monthly
			analysis.Highest = &subs[i]
		}
	}

	analysis.TotalMonthly = roundCents(analysis.TotalMonthly)
	analysis.TotalAnnual = roundCents(analysis.TotalAnnual)
	if len(subs) > 0 {
		analysis.AverageMonthly = roundCents(analysis.TotalMonthly / float64(len(subs)))
	}
	return analysis
}

// Recommend derives cost-saving suggestions from an analysis: overall
// spending level, overlapping services within a category, and monthly plans
// that would be cheaper billed annually.
func Recommend(subs []model.DiscoveredSubscription) []model.Recommendation {
	analysis := AnalyzeSpending(subs)
	var recs []model.Recommendation

	if analysis.TotalMonthly > highSpendingThreshold {
		recs = append(recs, model.Recommendation{
			Type:     "high_spending",
			Title:    "High subscription spending",
			Priority: model.PriorityHigh,
			Description: fmt.Sprintf(
				"You spend $%.2f per month on subscriptions. Review the list and cancel anything you no longer use.",
				analysis.TotalMonthly),
		})
	}

	for category, summary := range analysis.ByCategory {
		if summary.Count < 2 || category == model.CategoryOther {
			continue
		}
		cheapest := cheapestInCategory(subs, category)
		recs = append(recs, model.Recommendation{
			Type:     "duplicate_category",
			Title:    fmt.Sprintf("Multiple %s subscriptions", strings.ToLower(category)),
			Priority: model.PriorityMedium,
			Description: fmt.Sprintf(
				"You have %d subscriptions in %s costing $%.2f per month. Consider keeping just one.",
				summary.Count, category, summary.MonthlyCost),
			PotentialSavings: roundCents(summary.MonthlyCost - cheapest),
		})
	}

	for _, sub := range subs {
		if sub.Frequency != model.FrequencyMonthly || sub.Amount <= 0 {
			continue
		}
		saving := roundCents(sub.Amount * 12 * annualDiscount)
		recs = append(recs, model.Recommendation{
			Type:     "annual_billing",
			Title:    fmt.Sprintf("Switch %s to annual billing", sub.Service),
			Priority: model.PriorityLow,
			Description: fmt.Sprintf(
				"Annual plans typically cost about %d%% less; %s could save roughly $%.2f per year.",
				int(annualDiscount*100), sub.Service, saving),
			PotentialSavings: saving,
		})
	}

	return recs
}

func cheapestInCategory(subs []model.DiscoveredSubscription, category string) float64 {
	cheapest := math.MaxFloat64
	for _, sub := range subs {
		if sub.Category != category {
			continue
		}
		if monthly := sub.Frequency.MonthlyCost(sub.Amount); monthly < cheapest {
			cheapest = monthly
		}
	}
	if cheapest == math.MaxFloat64 {
		return 0
	}
	return cheapest
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}
