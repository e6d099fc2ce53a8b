package reporting

import (
	"fmt"
	"strings"

	"bridge-flow-lab/internal/domain"
)

// RenderSeriesCSV renders per-token series as CSV string.
func RenderSeriesCSV(series []domain.Series) string {
	var sb strings.Builder

	// Header
	sb.WriteString("period,token_id,token,value,usd_value,count\n")

	// Rows
	for _, row := range SeriesRows(series) {
		sb.WriteString(fmt.Sprintf("%s,%d,%s,%s,%s,%d\n",
			row.Period,
			row.TokenID,
			row.Token,
			row.Value.String(),
			row.USDValue.StringFixed(2),
			row.Count,
		))
	}

	return sb.String()
}

// RenderFlowCSV renders the per-period inflow/outflow totals as CSV string.
func RenderFlowCSV(r *Report) string {
	var sb strings.Builder

	sb.WriteString("period,inflow_usd,outflow_usd,net_usd\n")
	for _, row := range r.FlowRows() {
		sb.WriteString(fmt.Sprintf("%s,%s,%s,%s\n",
			row.Period,
			row.InflowUSD.StringFixed(2),
			row.OutflowUSD.StringFixed(2),
			row.NetUSD.StringFixed(2),
		))
	}

	return sb.String()
}
