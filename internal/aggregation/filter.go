package aggregation

import (
	"strings"
	"time"

	"bridge-flow-lab/internal/domain"
)

// AllTokens is the token filter value that selects every token.
const AllTokens = "All"

// TokenFilter selects tokens by display name. Empty means all tokens.
type TokenFilter []string

// ParseTokenFilter splits a comma separated list of token names.
func ParseTokenFilter(value string) TokenFilter {
	var f TokenFilter
	for _, part := range strings.Split(value, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			f = append(f, part)
		}
	}
	return f
}

// Allows reports whether a token name passes the filter.
func (f TokenFilter) Allows(name string) bool {
	if len(f) == 0 {
		return true
	}
	for _, n := range f {
		if strings.EqualFold(n, AllTokens) || strings.EqualFold(n, name) {
			return true
		}
	}
	return false
}

// Filter controls one aggregation pass.
type Filter struct {
	Granularity domain.Granularity
	Since       time.Time // records strictly before Since are excluded; zero disables
	Until       time.Time // records at or after Until are excluded; zero disables
	Tokens      TokenFilter
}

// ForPeriod builds a filter whose lower bound is the period cutoff.
func ForPeriod(period domain.TimePeriod, g domain.Granularity, tokens TokenFilter, now time.Time) (Filter, error) {
	cutoff, bounded, err := Cutoff(period, now)
	if err != nil {
		return Filter{}, err
	}
	f := Filter{Granularity: g, Tokens: tokens}
	if bounded {
		f.Since = cutoff
	}
	return f, nil
}

// Includes reports whether a classified transfer takes part in the pass.
// Non-finalized records and records without a timestamp never do.
func (f Filter) Includes(t domain.ClassifiedTransfer) bool {
	r := t.Record
	if r == nil || !r.Finalized || !r.HasTimestamp() {
		return false
	}
	if !f.Since.IsZero() && r.TimestampMs < f.Since.UnixMilli() {
		return false
	}
	if !f.Until.IsZero() && r.TimestampMs >= f.Until.UnixMilli() {
		return false
	}
	return f.Tokens.Allows(t.Token.Name)
}
