package discovery

import (
	"sort"
	"strings"

	"github.com/TysunM/subzero/internal/model"
)

// matchBonus rewards a subscription confirmed by two independent sources.
const matchBonus = 0.10

// MergeCandidates combines candidates found in email with candidates found
// in bank activity. When both sources report the same service the merged
// entry keeps the bank's billing figures, which come from actual charges,
// and the email's service name, which is usually the cleaner label. Entries
// seen by only one source pass through unchanged.
func MergeCandidates(email, bank []model.DiscoveredSubscription) []model.DiscoveredSubscription {
	merged := make([]model.DiscoveredSubscription, 0, len(email)+len(bank))
	claimed := make([]bool, len(bank))

	for _, e := range email {
		matched := false
		for i, b := range bank {
			if claimed[i] || !sameService(e.Service, b.Service) {
				continue
			}
			merged = append(merged, mergePair(e, b))
			claimed[i] = true
			matched = true
			break
		}
		if !matched {
			merged = append(merged, e)
		}
	}

	for i, b := range bank {
		if !claimed[i] {
			merged = append(merged, b)
		}
	}

	sort.Slice(merged, func(i, j int) bool {
		if merged[i].Confidence != merged[j].Confidence {
			return merged[i].Confidence > merged[j].Confidence
		}
		return merged[i].Service < merged[j].Service
	})
	return merged
}

// sameService matches service names case-insensitively, allowing one to be
// a prefix-level mention of the other ("Spotify" vs "Spotify Premium").
func sameService(a, b string) bool {
	la, lb := strings.ToLower(a), strings.ToLower(b)
	if la == "" || lb == "" {
		return false
	}
	return la == lb || strings.Contains(la, lb) || strings.Contains(lb, la)
}

func mergePair(email, bank model.DiscoveredSubscription) model.DiscoveredSubscription {
	merged := bank
	merged.Service = email.Service
	merged.Category = email.Category
	merged.Source = model.SourceBoth
	merged.Details = "Confirmed by email and bank activity"

	merged.Confidence = email.Confidence
	if bank.Confidence > merged.Confidence {
		merged.Confidence = bank.Confidence
	}
	merged.Confidence += matchBonus
	if merged.Confidence > 1.0 {
		merged.Confidence = 1.0
	}
	return merged
}
