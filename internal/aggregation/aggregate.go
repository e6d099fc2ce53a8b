package aggregation

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"bridge-flow-lab/internal/domain"
)

// FallbackColor is used for tokens without a color entry.
const FallbackColor = "#9e9e9e"

// ColorLookup resolves presentation colors by token name.
// registry.NetworkConfig satisfies it.
type ColorLookup interface {
	ColorFor(name string) (domain.TokenColorInfo, bool)
}

// Result is the output of one aggregation pass.
type Result struct {
	Series     []domain.Series // ordered by token id
	Categories []string        // sorted union of period keys
}

// Aggregate groups classified transfers by token, then sums them per period key.
// A nil colors lookup gives every series the fallback color.
func Aggregate(transfers []domain.ClassifiedTransfer, f Filter, colors ColorLookup) (Result, error) {
	if _, err := PeriodKey(time.Unix(0, 0), f.Granularity); err != nil {
		return Result{}, err
	}

	// Map: tokenID -> periodKey -> point
	buckets := make(map[int]map[string]*domain.AggregatedPoint)
	names := make(map[int]string)
	categories := make(map[string]struct{})

	for _, t := range transfers {
		if !f.Includes(t) {
			continue
		}

		key, _ := PeriodKey(time.UnixMilli(t.Record.TimestampMs), f.Granularity)

		tokenBuckets, ok := buckets[t.Token.ID]
		if !ok {
			tokenBuckets = make(map[string]*domain.AggregatedPoint)
			buckets[t.Token.ID] = tokenBuckets
			names[t.Token.ID] = t.Token.Name
		}

		point, ok := tokenBuckets[key]
		if !ok {
			point = &domain.AggregatedPoint{Period: key}
			tokenBuckets[key] = point
		}

		point.Value = point.Value.Add(t.NormalizedAmount)
		point.USDValue = point.USDValue.Add(t.USDAmount)
		point.Count++

		categories[key] = struct{}{}
	}

	result := Result{
		Series:     make([]domain.Series, 0, len(buckets)),
		Categories: sortedKeys(categories),
	}

	for tokenID, tokenBuckets := range buckets {
		s := domain.Series{
			TokenID: tokenID,
			Name:    names[tokenID],
			Color:   colorFor(colors, names[tokenID]),
			Points:  make([]domain.AggregatedPoint, 0, len(tokenBuckets)),
		}
		for _, point := range tokenBuckets {
			s.Points = append(s.Points, *point)
		}
		sortPoints(s.Points)
		result.Series = append(result.Series, s)
	}

	sort.Slice(result.Series, func(i, j int) bool {
		return result.Series[i].TokenID < result.Series[j].TokenID
	})

	return result, nil
}

// Merge sums several series per period key into one series.
// Only the per-period sums are read; raw records are never revisited.
func Merge(name, color string, series ...domain.Series) domain.Series {
	byPeriod := make(map[string]*domain.AggregatedPoint)

	for _, s := range series {
		for _, p := range s.Points {
			acc, ok := byPeriod[p.Period]
			if !ok {
				acc = &domain.AggregatedPoint{Period: p.Period}
				byPeriod[p.Period] = acc
			}
			acc.Value = acc.Value.Add(p.Value)
			acc.USDValue = acc.USDValue.Add(p.USDValue)
			acc.Count += p.Count
		}
	}

	merged := domain.Series{Name: name, Color: color, Points: make([]domain.AggregatedPoint, 0, len(byPeriod))}
	for _, p := range byPeriod {
		merged.Points = append(merged.Points, *p)
	}
	sortPoints(merged.Points)
	return merged
}

// Negate returns a copy of s with every value sign-flipped. Counts are kept.
func Negate(s domain.Series) domain.Series {
	out := s
	out.Points = make([]domain.AggregatedPoint, len(s.Points))
	for i, p := range s.Points {
		out.Points[i] = domain.AggregatedPoint{
			Period:   p.Period,
			Value:    p.Value.Neg(),
			USDValue: p.USDValue.Neg(),
			Count:    p.Count,
		}
	}
	return out
}

// Total sums the USD value of every point of every series.
func Total(series ...domain.Series) decimal.Decimal {
	total := decimal.Zero
	for _, s := range series {
		for _, p := range s.Points {
			total = total.Add(p.USDValue)
		}
	}
	return total
}

// Align returns the points of s laid out on categories, zero-filled where s has no point.
func Align(s domain.Series, categories []string) []domain.AggregatedPoint {
	byPeriod := make(map[string]domain.AggregatedPoint, len(s.Points))
	for _, p := range s.Points {
		byPeriod[p.Period] = p
	}

	result := make([]domain.AggregatedPoint, len(categories))
	for i, c := range categories {
		if p, ok := byPeriod[c]; ok {
			result[i] = p
		} else {
			result[i] = domain.AggregatedPoint{Period: c}
		}
	}
	return result
}

// UnionCategories returns the sorted, deduplicated union of several category lists.
func UnionCategories(lists ...[]string) []string {
	set := make(map[string]struct{})
	for _, list := range lists {
		for _, c := range list {
			set[c] = struct{}{}
		}
	}
	return sortedKeys(set)
}

func colorFor(colors ColorLookup, name string) string {
	if colors == nil {
		return FallbackColor
	}
	if info, ok := colors.ColorFor(name); ok && info.Color != "" {
		return info.Color
	}
	return FallbackColor
}

// Period keys are fixed width per granularity, so string order is time order.
func sortPoints(points []domain.AggregatedPoint) {
	sort.Slice(points, func(i, j int) bool { return points[i].Period < points[j].Period })
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
