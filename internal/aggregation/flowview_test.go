package aggregation

import (
	"testing"

	"github.com/shopspring/decimal"

	"bridge-flow-lab/internal/domain"
)

func TestBuildFlowView_NetIsInflowMinusOutflow(t *testing.T) {
	transfers := []domain.ClassifiedTransfer{
		transfer(tokenUSDC, 10_000_000, at("2024-01-01T00:00:00Z"), domain.DirectionInflow),
		transfer(tokenUSDC, 4_000_000, at("2024-01-01T06:00:00Z"), domain.DirectionOutflow),
		transfer(tokenUSDC, 3_000_000, at("2024-01-02T00:00:00Z"), domain.DirectionOutflow),
		transfer(tokenUSDC, 1_000_000, at("2024-01-03T00:00:00Z"), domain.DirectionInflow),
	}

	view, err := BuildFlowView(transfers, Filter{Granularity: domain.GranularityDaily}, nil)
	if err != nil {
		t.Fatalf("BuildFlowView failed: %v", err)
	}

	if len(view.Inflow) != 1 || len(view.Outflow) != 1 {
		t.Fatalf("Expected one inflow and one outflow series, got %d/%d", len(view.Inflow), len(view.Outflow))
	}
	for _, p := range view.Outflow[0].Points {
		if p.USDValue.IsPositive() {
			t.Errorf("Outflow point %s must be negated, got %s", p.Period, p.USDValue)
		}
	}

	if !view.ShowNet || len(view.Totals) != 3 {
		t.Fatalf("Expected Inflow, Outflow and Net totals, got %d (showNet=%v)", len(view.Totals), view.ShowNet)
	}
	net := view.Totals[2]
	if net.Name != NetName {
		t.Fatalf("Expected third total to be %s, got %s", NetName, net.Name)
	}

	want := map[string]int64{
		"2024-01-01": 6,
		"2024-01-02": -3,
		"2024-01-03": 1,
	}
	for _, p := range net.Points {
		if !p.USDValue.Equal(decimal.NewFromInt(want[p.Period])) {
			t.Errorf("Net %s: expected %d, got %s", p.Period, want[p.Period], p.USDValue)
		}
	}

	if len(view.Categories) != 3 {
		t.Errorf("Expected 3 categories, got %v", view.Categories)
	}
}

func TestBuildFlowView_NetHiddenForShortSeries(t *testing.T) {
	transfers := []domain.ClassifiedTransfer{
		transfer(tokenUSDC, 1, at("2024-01-01T00:00:00Z"), domain.DirectionInflow),
		transfer(tokenUSDC, 1, at("2024-01-02T00:00:00Z"), domain.DirectionOutflow),
	}

	view, _ := BuildFlowView(transfers, Filter{Granularity: domain.GranularityDaily}, nil)

	if view.ShowNet {
		t.Error("Net must be hidden with only 2 points")
	}
	if len(view.Totals) != 2 {
		t.Errorf("Expected 2 totals, got %d", len(view.Totals))
	}
}
