package aggregation

import (
	"bridge-flow-lab/internal/domain"
	"bridge-flow-lab/internal/flow"
)

// Names and colors of the combined flow series.
const (
	InflowName  = "Inflow"
	OutflowName = "Outflow"
	NetName     = "Net"

	InflowColor  = "#4caf50"
	OutflowColor = "#f44336"
	NetColor     = "#2196f3"
)

// minNetPoints is the point count above which the net line is worth drawing.
const minNetPoints = 2

// FlowView splits volume into inflow and outflow relative to the home chain.
type FlowView struct {
	Inflow     []domain.Series // per token, positive values
	Outflow    []domain.Series // per token, negated values
	Totals     []domain.Series // Inflow, Outflow (negated) and, when ShowNet, Net
	Categories []string
	ShowNet    bool
}

// BuildFlowView aggregates inflow and outflow separately and derives per-period totals.
// Net for a period is inflow minus outflow, computed from the per-period sums.
func BuildFlowView(transfers []domain.ClassifiedTransfer, f Filter, colors ColorLookup) (FlowView, error) {
	inflow, outflow := flow.SplitByDirection(transfers)

	in, err := Aggregate(inflow, f, colors)
	if err != nil {
		return FlowView{}, err
	}
	out, err := Aggregate(outflow, f, colors)
	if err != nil {
		return FlowView{}, err
	}

	negated := make([]domain.Series, len(out.Series))
	for i, s := range out.Series {
		negated[i] = Negate(s)
	}

	inTotal := Merge(InflowName, InflowColor, in.Series...)
	outTotal := Merge(OutflowName, OutflowColor, negated...)
	net := Merge(NetName, NetColor, inTotal, outTotal)

	view := FlowView{
		Inflow:     in.Series,
		Outflow:    negated,
		Totals:     []domain.Series{inTotal, outTotal},
		Categories: UnionCategories(in.Categories, out.Categories),
	}
	if len(net.Points) > minNetPoints {
		view.ShowNet = true
		view.Totals = append(view.Totals, net)
	}
	return view, nil
}
