package report

import (
	"fmt"
	"strings"
)

// BuildMarkdown renders the spending report document.
func BuildMarkdown(stats Stats, plotCreated bool) string {
	if !stats.HasData {
		return "# Spending Report\n\n" +
			"Not enough valid data in the database to generate a report yet.\n"
	}

	var b strings.Builder
	line := func(format string, args ...any) {
		fmt.Fprintf(&b, format+"\n", args...)
	}

	line("# Spending Report")
	line("")

	line("## Overview")
	line("")
	line("- **Period**: %s to %s", stats.StartDate, stats.EndDate)
	line("- **Total spend**: %.2f", stats.TotalSpend)
	line("- **Average monthly spend**: %.2f", stats.AverageMonthlySpend)
	if stats.Currency != "" {
		note := fmt.Sprintf("All amounts below are shown in **%s**.", stats.Currency)
		if stats.MultiCurrency {
			note += fmt.Sprintf(" Original data contained multiple currencies %v; only the most common currency (%s) is shown.",
				stats.Currencies, stats.Currency)
		}
		line("- %s", note)
	}
	line("")

	line("## Monthly Trend")
	line("")
	if stats.MaxMonth != nil && stats.MinMonth != nil {
		line("- **Highest month**: %s with %.2f", stats.MaxMonth.Month, stats.MaxMonth.Total)
		line("- **Lowest month**: %s with %.2f", stats.MinMonth.Month, stats.MinMonth.Total)
	} else {
		line("- Not enough data to compute monthly highs/lows.")
	}
	if plotCreated {
		line("")
		line("![Monthly Spend](monthly_spend.png)")
	}
	line("")

	line("## Top Vendors")
	line("")
	if len(stats.TopVendors) == 0 {
		line("No vendor information available.")
	} else {
		for _, vendor := range stats.TopVendors {
			line("- **%s**: %.2f", vendor.IssuerName, vendor.Total)
		}
	}
	line("")

	line("## Biggest Bills")
	line("")
	if len(stats.BiggestBills) == 0 {
		line("No bill information available.")
	} else {
		for _, bill := range stats.BiggestBills {
			parts := make([]string, 0, 4)
			if bill.DocNumber != "" {
				parts = append(parts, fmt.Sprintf("**%s**", bill.DocNumber))
			}
			if bill.IssuerName != "" {
				parts = append(parts, "from "+bill.IssuerName)
			}
			if bill.IssueDate != "" {
				parts = append(parts, "on "+bill.IssueDate)
			}
			parts = append(parts, fmt.Sprintf("amount: %.2f", bill.Total))
			line("- %s", strings.Join(parts, ", "))
		}
	}
	line("")

	return b.String()
}
