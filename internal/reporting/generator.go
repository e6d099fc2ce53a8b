package reporting

import (
	"context"
	"fmt"
	"time"

	"bridge-flow-lab/internal/aggregation"
	"bridge-flow-lab/internal/dashboard"
	"bridge-flow-lab/internal/domain"
	"bridge-flow-lab/internal/observability"
	"bridge-flow-lab/internal/storage"
)

// Generator produces reports from a dashboard service.
type Generator struct {
	service *dashboard.Service
	now     func() time.Time // Injectable clock for deterministic output
}

// NewGenerator creates a new report generator.
func NewGenerator(service *dashboard.Service) *Generator {
	return &Generator{
		service: service,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// WithClock sets a custom clock function for deterministic output.
func (g *Generator) WithClock(now func() time.Time) *Generator {
	g.now = now
	return g
}

// Generate produces a complete report for one network, period and granularity.
func (g *Generator) Generate(ctx context.Context, q dashboard.Query) (*Report, error) {
	volume, err := g.service.Volume(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("volume: %w", err)
	}

	flow, err := g.service.Flow(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("flow: %w", err)
	}

	summary, err := g.service.Cards(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("cards: %w", err)
	}

	outflow := make([]domain.Series, len(flow.Outflow))
	for i, s := range flow.Outflow {
		outflow[i] = aggregation.Negate(s)
	}

	return &Report{
		GeneratedAt: g.now(),
		Network:     q.Network,
		Period:      q.Period,
		Granularity: q.Granularity,
		Categories:  volume.Categories,
		Series:      volume.Series,
		Inflow:      flow.Inflow,
		Outflow:     outflow,
		Cards:       summary,
		TotalUSD:    volume.TotalUSD,
	}, nil
}

// Snapshots converts a report into series snapshot rows stamped with its generation time.
func Snapshots(r *Report) []*domain.SeriesSnapshot {
	computedAt := r.GeneratedAt.UnixMilli()

	var result []*domain.SeriesSnapshot
	add := func(direction string, series []domain.Series) {
		for _, row := range SeriesRows(series) {
			result = append(result, &domain.SeriesSnapshot{
				Network:     r.Network,
				Granularity: r.Granularity,
				Direction:   direction,
				TokenID:     row.TokenID,
				TokenName:   row.Token,
				Period:      row.Period,
				Value:       row.Value,
				USDValue:    row.USDValue,
				Count:       row.Count,
				ComputedAt:  computedAt,
			})
		}
	}

	add(domain.SnapshotAll, r.Series)
	add(domain.SnapshotInflow, r.Inflow)
	add(domain.SnapshotOutflow, r.Outflow)
	return result
}

// Publish stores a report's snapshot rows. Returns the number of rows written.
func Publish(ctx context.Context, store storage.SeriesStore, r *Report) (int, error) {
	snapshots := Snapshots(r)
	if len(snapshots) == 0 {
		return 0, nil
	}
	if err := store.InsertBulk(ctx, snapshots); err != nil {
		return 0, fmt.Errorf("store snapshots (%s, %s): %w", r.Network, r.Granularity, err)
	}
	observability.RecordSnapshots(string(r.Network), string(r.Granularity), len(snapshots))
	return len(snapshots), nil
}
