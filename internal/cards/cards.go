// Package cards reduces classified transfers to dashboard summary figures.
package cards

import (
	"strings"

	"github.com/axiomhq/hyperloglog"
	"github.com/shopspring/decimal"

	"bridge-flow-lab/internal/aggregation"
	"bridge-flow-lab/internal/domain"
)

// Card colors.
const (
	colorVolume    = "#5c6bc0"
	colorTransfers = "#26A17B"
	colorAddresses = "#f7941a"
	colorAverage   = "#2775CA"
	colorInflow    = "#4caf50"
	colorOutflow   = "#f44336"
)

// Totals holds the raw figures for one window.
type Totals struct {
	VolumeUSD       decimal.Decimal
	InflowUSD       decimal.Decimal
	OutflowUSD      decimal.Decimal
	Transfers       int
	UniqueAddresses uint64 // senders and recipients; estimated above exactAddressLimit
}

// exactAddressLimit is the distinct address count up to which addresses are
// counted exactly. Larger windows switch to a HyperLogLog estimate.
const exactAddressLimit = 50_000

// addressCounter counts distinct addresses exactly until the limit, then estimates.
type addressCounter struct {
	exact  map[string]struct{}
	sketch *hyperloglog.Sketch
}

func newAddressCounter() *addressCounter {
	return &addressCounter{exact: make(map[string]struct{})}
}

func (c *addressCounter) insert(address string) {
	if address == "" {
		return
	}
	address = strings.ToLower(address)
	if c.sketch != nil {
		c.sketch.Insert([]byte(address))
		return
	}
	c.exact[address] = struct{}{}
	if len(c.exact) > exactAddressLimit {
		c.sketch = hyperloglog.New16()
		for a := range c.exact {
			c.sketch.Insert([]byte(a))
		}
		c.exact = nil
	}
}

func (c *addressCounter) count() uint64 {
	if c.sketch != nil {
		return c.sketch.Estimate()
	}
	return uint64(len(c.exact))
}

// AverageUSD returns volume per transfer, zero when there are no transfers.
func (t Totals) AverageUSD() decimal.Decimal {
	if t.Transfers == 0 {
		return decimal.Zero
	}
	return t.VolumeUSD.Div(decimal.NewFromInt(int64(t.Transfers)))
}

// Compute sums the transfers inside a window that pass the token filter.
// Non-finalized records and records without a timestamp are skipped.
func Compute(transfers []domain.ClassifiedTransfer, w Window, tokens aggregation.TokenFilter) Totals {
	totals := Totals{
		VolumeUSD:  decimal.Zero,
		InflowUSD:  decimal.Zero,
		OutflowUSD: decimal.Zero,
	}
	addresses := newAddressCounter()

	for _, t := range transfers {
		r := t.Record
		if r == nil || !r.Finalized || !r.HasTimestamp() {
			continue
		}
		if !w.Contains(r.TimestampMs) || !tokens.Allows(t.Token.Name) {
			continue
		}

		totals.Transfers++
		totals.VolumeUSD = totals.VolumeUSD.Add(t.USDAmount)
		if t.Direction == domain.DirectionInflow {
			totals.InflowUSD = totals.InflowUSD.Add(t.USDAmount)
		} else {
			totals.OutflowUSD = totals.OutflowUSD.Add(t.USDAmount)
		}

		addresses.insert(r.Sender)
		addresses.insert(r.Recipient)
	}

	totals.UniqueAddresses = addresses.count()
	return totals
}

// PercentageChange returns (cur-prev)/prev*100. ok is false when prev is zero.
func PercentageChange(cur, prev decimal.Decimal) (float64, bool) {
	if prev.IsZero() {
		return 0, false
	}
	change, _ := cur.Sub(prev).Div(prev).Mul(decimal.NewFromInt(100)).Float64()
	return change, true
}

// Calculate builds the dashboard cards for a window, comparing against the preceding window.
// Cards carry a nil PercentageChange when there is no prior data.
func Calculate(transfers []domain.ClassifiedTransfer, w Window, tokens aggregation.TokenFilter) []domain.Card {
	cur := Compute(transfers, w, tokens)

	var prev *Totals
	if pw, ok := w.Previous(); ok {
		p := Compute(transfers, pw, tokens)
		prev = &p
	}

	change := func(pick func(Totals) decimal.Decimal) *float64 {
		if prev == nil {
			return nil
		}
		v, ok := PercentageChange(pick(cur), pick(*prev))
		if !ok {
			return nil
		}
		return &v
	}

	volume := func(t Totals) decimal.Decimal { return t.VolumeUSD }
	count := func(t Totals) decimal.Decimal { return decimal.NewFromInt(int64(t.Transfers)) }
	unique := func(t Totals) decimal.Decimal { return decimal.NewFromInt(int64(t.UniqueAddresses)) }
	average := func(t Totals) decimal.Decimal { return t.AverageUSD() }
	inflow := func(t Totals) decimal.Decimal { return t.InflowUSD }
	outflow := func(t Totals) decimal.Decimal { return t.OutflowUSD }

	return []domain.Card{
		newCard(domain.CardTotalVolume, volume(cur), colorVolume, true, change(volume)),
		newCard(domain.CardTotalTransfers, count(cur), colorTransfers, false, change(count)),
		newCard(domain.CardUniqueAddresses, unique(cur), colorAddresses, false, change(unique)),
		newCard(domain.CardAverageTransfer, average(cur), colorAverage, true, change(average)),
		newCard(domain.CardInflowVolume, inflow(cur), colorInflow, true, change(inflow)),
		newCard(domain.CardOutflowVolume, outflow(cur), colorOutflow, true, change(outflow)),
	}
}

func newCard(title string, value decimal.Decimal, color string, dollars bool, change *float64) domain.Card {
	f, _ := value.Round(2).Float64()
	return domain.Card{
		Title:            title,
		Value:            f,
		Color:            color,
		Dollars:          dollars,
		PercentageChange: change,
	}
}
