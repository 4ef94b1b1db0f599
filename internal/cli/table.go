package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/TysunM/subzero/internal/model"
)

// RenderCandidates renders discovered subscription candidates as a table,
// one row per candidate in the order given.
func RenderCandidates(candidates []model.DiscoveredSubscription) string {
	if len(candidates) == 0 {
		return SubtleStyle.Render("No subscriptions found.")
	}

	var b strings.Builder
	b.WriteString(renderRow(TableHeaderStyle, "SERVICE", "AMOUNT", "FREQUENCY", "CATEGORY", "SOURCE", "CONFIDENCE"))
	b.WriteString("\n")
	for _, c := range candidates {
		b.WriteString(renderRow(TableCellStyle,
			c.Service,
			formatAmount(c.Amount, c.Currency),
			string(c.Frequency),
			c.Category,
			c.Source,
			fmt.Sprintf("%.0f%%", c.Confidence*100)))
		b.WriteString("\n")
	}
	return b.String()
}

// RenderSubscriptions renders saved subscriptions as a table.
func RenderSubscriptions(subs []model.Subscription) string {
	if len(subs) == 0 {
		return SubtleStyle.Render("No subscriptions saved yet. Run 'subzero discover' to find some.")
	}

	var b strings.Builder
	b.WriteString(renderRow(TableHeaderStyle, "ID", "SERVICE", "AMOUNT", "FREQUENCY", "NEXT BILLING", "STATUS"))
	b.WriteString("\n")
	for _, s := range subs {
		next := "-"
		if s.NextBilling != nil {
			next = s.NextBilling.Format("2006-01-02")
		}
		b.WriteString(renderRow(TableCellStyle,
			shortID(s.ID),
			s.Service,
			formatAmount(s.Amount, s.Currency),
			string(s.Frequency),
			next,
			string(s.Status)))
		b.WriteString("\n")
	}
	return b.String()
}

// RenderAnalysis renders a spending analysis summary block.
func RenderAnalysis(analysis model.SpendingAnalysis) string {
	var b strings.Builder
	b.WriteString(BoldStyle.Render(fmt.Sprintf("%d active subscriptions", analysis.Count)))
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("Monthly: $%.2f   Annual: $%.2f   Average: $%.2f/mo\n",
		analysis.TotalMonthly, analysis.TotalAnnual, analysis.AverageMonthly))
	if analysis.Highest != nil {
		b.WriteString(SubtleStyle.Render(fmt.Sprintf("Biggest: %s ($%.2f/mo)",
			analysis.Highest.Service, analysis.Highest.Amount)))
		b.WriteString("\n")
	}
	for category, summary := range analysis.ByCategory {
		b.WriteString(fmt.Sprintf("  %-15s %2d  $%.2f/mo\n", category, summary.Count, summary.MonthlyCost))
	}
	return b.String()
}

// RenderRecommendations renders savings recommendations, one block each.
func RenderRecommendations(recs []model.Recommendation) string {
	if len(recs) == 0 {
		return SubtleStyle.Render("No savings recommendations right now.")
	}

	var b strings.Builder
	for _, rec := range recs {
		b.WriteString(BoldStyle.Render(rec.Title))
		b.WriteString("\n  ")
		b.WriteString(rec.Description)
		if rec.PotentialSavings > 0 {
			b.WriteString(SuccessStyle.Render(fmt.Sprintf(" (save about $%.2f)", rec.PotentialSavings)))
		}
		b.WriteString("\n")
	}
	return b.String()
}

func renderRow(style lipgloss.Style, cols ...string) string {
	widths := []int{24, 12, 10, 14, 6, 10}
	var cells []string
	for i, col := range cols {
		w := 10
		if i < len(widths) {
			w = widths[i]
		}
		cells = append(cells, style.Render(pad(col, w)))
	}
	return strings.Join(cells, "")
}

func pad(s string, width int) string {
	if runewidth.StringWidth(s) >= width {
		return runewidth.Truncate(s, width-1, "") + " "
	}
	return s + strings.Repeat(" ", width-runewidth.StringWidth(s))
}

func formatAmount(amount float64, currency string) string {
	if amount == 0 {
		return "-"
	}
	if currency == "" || currency == "USD" {
		return fmt.Sprintf("$%.2f", amount)
	}
	return fmt.Sprintf("%.2f %s", amount, currency)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
