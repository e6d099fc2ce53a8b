// Package aggregation buckets classified bridge transfers into per-token chart series.
package aggregation

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"bridge-flow-lab/internal/domain"
)

var (
	// ErrUnknownGranularity is returned for an unsupported bucketing rule.
	ErrUnknownGranularity = errors.New("unknown granularity")

	// ErrUnknownPeriod is returned for an unsupported time period.
	ErrUnknownPeriod = errors.New("unknown time period")
)

// Period key layouts. All keys are computed in UTC.
const (
	hourLayout = "2006-01-02T15:00"
	dayLayout  = "2006-01-02"
)

// PeriodKey returns the bucket key a timestamp falls into.
//
//   - Hourly:  YYYY-MM-DDTHH:00
//   - Daily:   YYYY-MM-DD
//   - Weekly:  YYYY-MM-DD of the Monday starting the ISO week
//   - Monthly: YYYY-MM-01
func PeriodKey(ts time.Time, g domain.Granularity) (string, error) {
	ts = ts.UTC()

	switch g {
	case domain.GranularityHourly:
		return ts.Format(hourLayout), nil
	case domain.GranularityDaily:
		return ts.Format(dayLayout), nil
	case domain.GranularityWeekly:
		offset := (int(ts.Weekday()) + 6) % 7
		monday := time.Date(ts.Year(), ts.Month(), ts.Day()-offset, 0, 0, 0, 0, time.UTC)
		return monday.Format(dayLayout), nil
	case domain.GranularityMonthly:
		return time.Date(ts.Year(), ts.Month(), 1, 0, 0, 0, 0, time.UTC).Format(dayLayout), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownGranularity, g)
	}
}

// ParseGranularity resolves a query value (case-insensitive).
func ParseGranularity(value string) (domain.Granularity, error) {
	for _, g := range []domain.Granularity{
		domain.GranularityHourly,
		domain.GranularityDaily,
		domain.GranularityWeekly,
		domain.GranularityMonthly,
	} {
		if strings.EqualFold(string(g), strings.TrimSpace(value)) {
			return g, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownGranularity, value)
}

// ParseTimePeriod resolves a query value (case-insensitive).
func ParseTimePeriod(value string) (domain.TimePeriod, error) {
	for _, p := range domain.TimePeriods {
		if strings.EqualFold(string(p), strings.TrimSpace(value)) {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownPeriod, value)
}

// Cutoff returns the earliest included instant for a period.
// bounded is false for All time.
func Cutoff(period domain.TimePeriod, now time.Time) (cutoff time.Time, bounded bool, err error) {
	now = now.UTC()

	switch period {
	case domain.PeriodLast24h:
		return now.Add(-24 * time.Hour), true, nil
	case domain.PeriodLastWeek:
		return now.AddDate(0, 0, -7), true, nil
	case domain.PeriodLastMonth:
		return addMonthsClamped(now, -1), true, nil
	case domain.PeriodLastYear:
		return addMonthsClamped(now, -12), true, nil
	case domain.PeriodAllTime:
		return time.Time{}, false, nil
	default:
		return time.Time{}, false, fmt.Errorf("%w: %q", ErrUnknownPeriod, period)
	}
}

// addMonthsClamped shifts t by whole months, keeping the day within the
// target month: Mar 31 minus one month is Feb 28 (or 29), not Mar 2.
func addMonthsClamped(t time.Time, months int) time.Time {
	first := time.Date(t.Year(), t.Month()+time.Month(months), 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
	day := t.Day()
	if last := first.AddDate(0, 1, -1).Day(); day > last {
		day = last
	}
	return first.AddDate(0, 0, day-1)
}

// IntervalsForPeriod lists the chart granularities offered for a period.
func IntervalsForPeriod(period domain.TimePeriod) []domain.Granularity {
	switch period {
	case domain.PeriodLast24h, domain.PeriodLastWeek:
		return []domain.Granularity{domain.GranularityDaily}
	case domain.PeriodLastMonth:
		return []domain.Granularity{domain.GranularityDaily, domain.GranularityWeekly}
	default:
		result := make([]domain.Granularity, len(domain.Granularities))
		copy(result, domain.Granularities)
		return result
	}
}

// DefaultInterval returns the granularity preselected for a period.
func DefaultInterval(period domain.TimePeriod) domain.Granularity {
	switch period {
	case domain.PeriodLast24h, domain.PeriodLastWeek, domain.PeriodLastMonth:
		return domain.GranularityDaily
	default:
		return domain.GranularityWeekly
	}
}
