package domain

import "github.com/shopspring/decimal"

// AggregatedPoint is the sum of all transfers of one token inside one period bucket.
type AggregatedPoint struct {
	Period   string          // period key, fixed width per granularity
	Value    decimal.Decimal // sum of normalized amounts
	USDValue decimal.Decimal // sum of USD amounts
	Count    int             // number of contributing transfers
}

// Series is one token's (or one metric's) ordered list of points.
type Series struct {
	TokenID int
	Name    string
	Color   string
	Points  []AggregatedPoint // ascending by Period
}

// Granularity selects the period bucketing rule.
type Granularity string

// Supported granularities.
const (
	GranularityHourly  Granularity = "Hourly"
	GranularityDaily   Granularity = "Daily"
	GranularityWeekly  Granularity = "Weekly"
	GranularityMonthly Granularity = "Monthly"
)

// TimePeriod selects the lower bound of the time window.
type TimePeriod string

// Supported time periods.
const (
	PeriodLast24h   TimePeriod = "Last 24h"
	PeriodLastWeek  TimePeriod = "Last Week"
	PeriodLastMonth TimePeriod = "Last Month"
	PeriodLastYear  TimePeriod = "Last year"
	PeriodAllTime   TimePeriod = "All time"
)

// TimePeriods lists periods in display order.
var TimePeriods = []TimePeriod{
	PeriodLast24h,
	PeriodLastWeek,
	PeriodLastMonth,
	PeriodLastYear,
	PeriodAllTime,
}

// Granularities lists the chart intervals in display order.
var Granularities = []Granularity{
	GranularityDaily,
	GranularityWeekly,
	GranularityMonthly,
}

// SeriesSnapshot is one persisted aggregated point.
// Corresponds to bridge_volume_series table in ClickHouse.
type SeriesSnapshot struct {
	Network     Network
	Granularity Granularity
	Direction   string // "all" | "inflow" | "outflow"
	TokenID     int
	TokenName   string
	Period      string // period key
	Value       decimal.Decimal
	USDValue    decimal.Decimal
	Count       int
	ComputedAt  int64 // snapshot time (ms)
}

// Snapshot directions.
const (
	SnapshotAll     = "all"
	SnapshotInflow  = "inflow"
	SnapshotOutflow = "outflow"
)
