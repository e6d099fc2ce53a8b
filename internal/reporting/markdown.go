package reporting

import (
	"fmt"
	"strings"
	"time"
)

// RenderMarkdown renders report as Markdown string.
func RenderMarkdown(r *Report) string {
	var sb strings.Builder

	// Header
	sb.WriteString(fmt.Sprintf("# Bridge Volume Report (%s)\n\n", r.Network))
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", r.GeneratedAt.Format(time.RFC3339)))
	sb.WriteString(fmt.Sprintf("Period: %s | Interval: %s | Total: $%s\n\n", r.Period, r.Granularity, r.TotalUSD.StringFixed(2)))

	// Cards
	sb.WriteString("## Summary\n\n")
	sb.WriteString("| Card | Value | Change |\n")
	sb.WriteString("|------|-------|--------|\n")
	for _, c := range r.Cards {
		value := fmt.Sprintf("%.2f", c.Value)
		if c.Dollars {
			value = "$" + value
		}
		change := "n/a"
		if c.PercentageChange != nil {
			change = fmt.Sprintf("%+.2f%%", *c.PercentageChange)
		}
		sb.WriteString(fmt.Sprintf("| %s | %s | %s |\n", c.Title, value, change))
	}
	sb.WriteString("\n")

	// Volume
	sb.WriteString("## Volume by Token\n\n")
	rows := SeriesRows(r.Series)
	if len(rows) > 0 {
		sb.WriteString("| Period | Token | Amount | USD | Transfers |\n")
		sb.WriteString("|--------|-------|--------|-----|-----------|\n")
		for _, row := range rows {
			sb.WriteString(fmt.Sprintf("| %s | %s | %s | %s | %d |\n",
				row.Period, row.Token, row.Value.String(), row.USDValue.StringFixed(2), row.Count))
		}
	} else {
		sb.WriteString("No transfers in this period.\n")
	}
	sb.WriteString("\n")

	// Flow
	sb.WriteString("## Inflow vs Outflow\n\n")
	flows := r.FlowRows()
	if len(flows) > 0 {
		sb.WriteString("| Period | Inflow | Outflow | Net |\n")
		sb.WriteString("|--------|--------|---------|-----|\n")
		for _, row := range flows {
			sb.WriteString(fmt.Sprintf("| %s | %s | %s | %s |\n",
				row.Period, row.InflowUSD.StringFixed(2), row.OutflowUSD.StringFixed(2), row.NetUSD.StringFixed(2)))
		}
	} else {
		sb.WriteString("No flow data available.\n")
	}
	sb.WriteString("\n")

	return sb.String()
}
