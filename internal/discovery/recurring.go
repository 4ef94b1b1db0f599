package discovery

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/TysunM/subzero/internal/model"
)

const (
	// minOccurrences is the fewest charges a merchant needs before an
	// interval pattern is meaningful.
	minOccurrences = 3

	// amountTolerance is the allowed relative deviation of each charge from
	// the merchant's average. Subscriptions with usage components (cloud
	// bills, metered plans) drift a little month to month.
	amountTolerance = 0.20

	recurringBaseConfidence = 0.50
	recurringPerCharge      = 0.10
	recurringMaxConfidence  = 0.90
)

// intervalBands classify the median gap between charges into a billing
// cycle. Gaps outside every band are treated as non-recurring.
var intervalBands = []struct {
	min, max  int
	frequency model.Frequency
}{
	{6, 8, model.FrequencyWeekly},
	{25, 35, model.FrequencyMonthly},
	{85, 95, model.FrequencyQuarterly},
	{350, 375, model.FrequencyYearly},
}

// DetectRecurring scans bank transactions for merchants that charge at a
// regular cadence with a stable amount, and returns one candidate per such
// merchant. Transactions may arrive in any order.
func DetectRecurring(transactions []model.Transaction, now time.Time) []model.DiscoveredSubscription {
	groups := make(map[string][]model.Transaction)
	for _, txn := range transactions {
		key := merchantKey(txn)
		if key == "" {
			continue
		}
		groups[key] = append(groups[key], txn)
	}

	var results []model.DiscoveredSubscription
	for _, group := range groups {
		if candidate := recurringCandidate(group, now); candidate != nil {
			results = append(results, *candidate)
		}
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Confidence != results[j].Confidence {
			return results[i].Confidence > results[j].Confidence
		}
		return results[i].Service < results[j].Service
	})
	return results
}

func merchantKey(txn model.Transaction) string {
	name := txn.MerchantName
	if name == "" {
		name = txn.Name
	}
	return strings.ToLower(strings.TrimSpace(name))
}

func merchantDisplayName(txn model.Transaction) string {
	if txn.MerchantName != "" {
		return txn.MerchantName
	}
	return txn.Name
}

// recurringCandidate decides whether one merchant's charges form a
// subscription pattern: enough occurrences, a consistent cadence, and a
// stable amount.
func recurringCandidate(group []model.Transaction, now time.Time) *model.DiscoveredSubscription {
	if len(group) < minOccurrences {
		return nil
	}

	sort.Slice(group, func(i, j int) bool {
		return group[i].Date.Before(group[j].Date)
	})

	frequency, ok := classifyIntervals(group)
	if !ok {
		return nil
	}

	amount, ok := stableAmount(group)
	if !ok {
		return nil
	}

	service := merchantDisplayName(group[len(group)-1])
	if name, known := LookupService(strings.ToLower(service)); known {
		service = name
	}

	confidence := recurringBaseConfidence + recurringPerCharge*float64(len(group)-minOccurrences)
	if confidence > recurringMaxConfidence {
		confidence = recurringMaxConfidence
	}

	last := group[len(group)-1].Date
	next := frequency.NextAfter(last)
	for !next.After(now) {
		next = frequency.NextAfter(next)
	}

	return &model.DiscoveredSubscription{
		Service:     service,
		Amount:      amount,
		Currency:    currencyUSD,
		Frequency:   frequency,
		Category:    CategoryFor(service),
		NextBilling: &next,
		Source:      model.SourceBank,
		Confidence:  confidence,
		Details:     "Detected from recurring bank charges",
	}
}

// classifyIntervals maps the gaps between consecutive charges to a billing
// cycle. Every gap must land in the same band.
func classifyIntervals(sorted []model.Transaction) (model.Frequency, bool) {
	var matched model.Frequency
	for i := 1; i < len(sorted); i++ {
		days := int(sorted[i].Date.Sub(sorted[i-1].Date).Hours() / 24)
		frequency, ok := bandFor(days)
		if !ok {
			return "", false
		}
		if i == 1 {
			matched = frequency
		} else if frequency != matched {
			return "", false
		}
	}
	return matched, true
}

func bandFor(days int) (model.Frequency, bool) {
	for _, band := range intervalBands {
		if days >= band.min && days <= band.max {
			return band.frequency, true
		}
	}
	return "", false
}

// stableAmount returns the mean charge when every charge sits within the
// tolerance of that mean.
func stableAmount(group []model.Transaction) (float64, bool) {
	var sum float64
	for _, txn := range group {
		sum += math.Abs(txn.Amount)
	}
	mean := sum / float64(len(group))
	if mean == 0 {
		return 0, false
	}

	for _, txn := range group {
		if math.Abs(math.Abs(txn.Amount)-mean)/mean > amountTolerance {
			return 0, false
		}
	}
	return math.Round(mean*100) / 100, true
}
