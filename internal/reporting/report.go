package reporting

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"bridge-flow-lab/internal/aggregation"
	"bridge-flow-lab/internal/domain"
)

// Report represents one network's bridge volume report.
type Report struct {
	// Metadata
	GeneratedAt time.Time
	Network     domain.Network
	Period      domain.TimePeriod
	Granularity domain.Granularity

	// Chart data (series ordered by token id, points by period)
	Categories []string
	Series     []domain.Series
	Inflow     []domain.Series
	Outflow    []domain.Series // positive values

	// Summary
	Cards    []domain.Card
	TotalUSD decimal.Decimal
}

// SeriesRow represents one (period, token) row of the volume table.
type SeriesRow struct {
	Period   string
	TokenID  int
	Token    string
	Value    decimal.Decimal
	USDValue decimal.Decimal
	Count    int
}

// FlowRow represents one period of the inflow/outflow table.
type FlowRow struct {
	Period     string
	InflowUSD  decimal.Decimal
	OutflowUSD decimal.Decimal
	NetUSD     decimal.Decimal // inflow - outflow
}

// SeriesRows flattens series into rows sorted by (period, token_id).
func SeriesRows(series []domain.Series) []SeriesRow {
	var rows []SeriesRow
	for _, s := range series {
		for _, p := range s.Points {
			rows = append(rows, SeriesRow{
				Period:   p.Period,
				TokenID:  s.TokenID,
				Token:    s.Name,
				Value:    p.Value,
				USDValue: p.USDValue,
				Count:    p.Count,
			})
		}
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Period != rows[j].Period {
			return rows[i].Period < rows[j].Period
		}
		return rows[i].TokenID < rows[j].TokenID
	})
	return rows
}

// FlowRows returns one row per category, zero-filled.
func (r *Report) FlowRows() []FlowRow {
	inflow := aggregation.Align(aggregation.Merge(aggregation.InflowName, aggregation.InflowColor, r.Inflow...), r.Categories)
	outflow := aggregation.Align(aggregation.Merge(aggregation.OutflowName, aggregation.OutflowColor, r.Outflow...), r.Categories)

	rows := make([]FlowRow, len(r.Categories))
	for i, period := range r.Categories {
		rows[i] = FlowRow{
			Period:     period,
			InflowUSD:  inflow[i].USDValue,
			OutflowUSD: outflow[i].USDValue,
			NetUSD:     inflow[i].USDValue.Sub(outflow[i].USDValue),
		}
	}
	return rows
}
