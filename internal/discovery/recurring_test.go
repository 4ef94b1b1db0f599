package discovery

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TysunM/subzero/internal/model"
)

func txn(merchant string, date time.Time, amount float64) model.Transaction {
	return model.Transaction{
		ID:           merchant + date.Format("2006-01-02"),
		UserID:       "user-1",
		MerchantName: merchant,
		Name:         merchant + " purchase",
		AccountID:    "acct-1",
		Date:         date,
		Amount:       amount,
	}
}

func monthlySeries(merchant string, amount float64, months int) []model.Transaction {
	start := time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)
	var out []model.Transaction
	for i := 0; i < months; i++ {
		out = append(out, txn(merchant, start.AddDate(0, i, 0), amount))
	}
	return out
}

func TestDetectRecurring(t *testing.T) {
	now := time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)

	t.Run("monthly charges become a candidate", func(t *testing.T) {
		got := DetectRecurring(monthlySeries("Netflix", 15.49, 4), now)

		require.Len(t, got, 1)
		assert.Equal(t, "Netflix", got[0].Service)
		assert.InDelta(t, 15.49, got[0].Amount, 0.001)
		assert.Equal(t, model.FrequencyMonthly, got[0].Frequency)
		assert.Equal(t, model.SourceBank, got[0].Source)
		require.NotNil(t, got[0].NextBilling)
		assert.True(t, got[0].NextBilling.After(now))
	})

	t.Run("weekly cadence is classified", func(t *testing.T) {
		start := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
		txns := []model.Transaction{
			txn("HelloFresh", start, 62.99),
			txn("HelloFresh", start.AddDate(0, 0, 7), 62.99),
			txn("HelloFresh", start.AddDate(0, 0, 14), 62.99),
		}

		got := DetectRecurring(txns, now)

		require.Len(t, got, 1)
		assert.Equal(t, model.FrequencyWeekly, got[0].Frequency)
	})

	t.Run("yearly cadence is classified", func(t *testing.T) {
		txns := []model.Transaction{
			txn("Amazon Prime", time.Date(2022, 3, 10, 0, 0, 0, 0, time.UTC), 139),
			txn("Amazon Prime", time.Date(2023, 3, 10, 0, 0, 0, 0, time.UTC), 139),
			txn("Amazon Prime", time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC), 139),
		}

		got := DetectRecurring(txns, now)

		require.Len(t, got, 1)
		assert.Equal(t, model.FrequencyYearly, got[0].Frequency)
		assert.Equal(t, "Amazon Prime", got[0].Service)
		assert.Equal(t, model.CategoryShopping, got[0].Category)
	})

	t.Run("too few occurrences are ignored", func(t *testing.T) {
		got := DetectRecurring(monthlySeries("Netflix", 15.49, 2), now)
		assert.Empty(t, got)
	})

	t.Run("irregular intervals are ignored", func(t *testing.T) {
		start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
		txns := []model.Transaction{
			txn("Coffee Shop", start, 4.50),
			txn("Coffee Shop", start.AddDate(0, 0, 3), 4.50),
			txn("Coffee Shop", start.AddDate(0, 0, 45), 4.50),
		}

		got := DetectRecurring(txns, now)
		assert.Empty(t, got)
	})

	t.Run("unstable amounts are ignored", func(t *testing.T) {
		start := time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)
		txns := []model.Transaction{
			txn("Grocery Store", start, 40),
			txn("Grocery Store", start.AddDate(0, 1, 0), 95),
			txn("Grocery Store", start.AddDate(0, 2, 0), 160),
		}

		got := DetectRecurring(txns, now)
		assert.Empty(t, got)
	})

	t.Run("small drift within tolerance is accepted", func(t *testing.T) {
		start := time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)
		txns := []model.Transaction{
			txn("DigitalOcean", start, 24.00),
			txn("DigitalOcean", start.AddDate(0, 1, 0), 26.00),
			txn("DigitalOcean", start.AddDate(0, 2, 0), 25.00),
		}

		got := DetectRecurring(txns, now)

		require.Len(t, got, 1)
		assert.InDelta(t, 25.00, got[0].Amount, 0.001)
		assert.Equal(t, model.CategoryDevelopment, got[0].Category)
	})

	t.Run("confidence grows with more charges", func(t *testing.T) {
		three := DetectRecurring(monthlySeries("Hulu", 7.99, 3), now)
		five := DetectRecurring(monthlySeries("Hulu", 7.99, 5), now)

		require.Len(t, three, 1)
		require.Len(t, five, 1)
		assert.Greater(t, five[0].Confidence, three[0].Confidence)
		assert.LessOrEqual(t, five[0].Confidence, recurringMaxConfidence)
	})

	t.Run("results are ordered by confidence", func(t *testing.T) {
		txns := append(monthlySeries("Netflix", 15.49, 6), monthlySeries("Hulu", 7.99, 3)...)

		got := DetectRecurring(txns, now)

		require.Len(t, got, 2)
		assert.Equal(t, "Netflix", got[0].Service)
		assert.Equal(t, "Hulu", got[1].Service)
	})
}
