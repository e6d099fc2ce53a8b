package cards

import (
	"time"

	"bridge-flow-lab/internal/aggregation"
	"bridge-flow-lab/internal/domain"
)

// Window is a half-open time range [Start, End).
// An unbounded window has no lower bound and no preceding window.
type Window struct {
	Start   time.Time
	End     time.Time
	Bounded bool
}

// WindowFor returns the window a time period covers, ending at now.
func WindowFor(period domain.TimePeriod, now time.Time) (Window, error) {
	cutoff, bounded, err := aggregation.Cutoff(period, now)
	if err != nil {
		return Window{}, err
	}
	// End is exclusive; keep records stamped exactly at now.
	end := now.UTC().Add(time.Millisecond)
	if !bounded {
		return Window{End: end}, nil
	}
	return Window{Start: cutoff, End: end, Bounded: true}, nil
}

// Previous returns the equal-length window immediately before w.
func (w Window) Previous() (Window, bool) {
	if !w.Bounded {
		return Window{}, false
	}
	length := w.End.Sub(w.Start)
	return Window{Start: w.Start.Add(-length), End: w.Start, Bounded: true}, true
}

// Contains reports whether a millisecond timestamp falls inside the window.
func (w Window) Contains(ms int64) bool {
	if w.Bounded && ms < w.Start.UnixMilli() {
		return false
	}
	if !w.End.IsZero() && ms >= w.End.UnixMilli() {
		return false
	}
	return true
}
