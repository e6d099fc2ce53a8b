package aggregation

import (
	"testing"
	"time"

	"bridge-flow-lab/internal/domain"
)

func TestPeriodKey(t *testing.T) {
	tests := []struct {
		ts   string
		g    domain.Granularity
		want string
	}{
		{"2024-01-01T10:30:00Z", domain.GranularityHourly, "2024-01-01T10:00"},
		{"2024-01-01T23:59:59Z", domain.GranularityDaily, "2024-01-01"},
		// Wednesday -> Monday of the same ISO week
		{"2024-01-03T12:00:00Z", domain.GranularityWeekly, "2024-01-01"},
		// Sunday belongs to the week started the previous Monday
		{"2024-01-07T23:00:00Z", domain.GranularityWeekly, "2024-01-01"},
		{"2024-01-08T00:00:00Z", domain.GranularityWeekly, "2024-01-08"},
		// week spanning a year boundary
		{"2025-01-01T00:00:00Z", domain.GranularityWeekly, "2024-12-30"},
		{"2024-02-29T18:00:00Z", domain.GranularityMonthly, "2024-02-01"},
		// non-UTC input is bucketed in UTC
		{"2024-03-01T01:00:00+03:00", domain.GranularityDaily, "2024-02-29"},
	}

	for _, tt := range tests {
		got, err := PeriodKey(at(tt.ts), tt.g)
		if err != nil {
			t.Errorf("PeriodKey(%s, %s) failed: %v", tt.ts, tt.g, err)
			continue
		}
		if got != tt.want {
			t.Errorf("PeriodKey(%s, %s): expected %s, got %s", tt.ts, tt.g, tt.want, got)
		}
	}
}

func TestCutoff(t *testing.T) {
	now := at("2024-03-31T12:00:00Z")

	tests := []struct {
		period  domain.TimePeriod
		want    time.Time
		bounded bool
	}{
		{domain.PeriodLast24h, at("2024-03-30T12:00:00Z"), true},
		{domain.PeriodLastWeek, at("2024-03-24T12:00:00Z"), true},
		// Feb 31 does not exist; clamped to the last day of February
		{domain.PeriodLastMonth, at("2024-02-29T12:00:00Z"), true},
		{domain.PeriodLastYear, at("2023-03-31T12:00:00Z"), true},
		{domain.PeriodAllTime, time.Time{}, false},
	}

	for _, tt := range tests {
		got, bounded, err := Cutoff(tt.period, now)
		if err != nil {
			t.Errorf("Cutoff(%s) failed: %v", tt.period, err)
			continue
		}
		if bounded != tt.bounded || !got.Equal(tt.want) {
			t.Errorf("Cutoff(%s): expected %v (%v), got %v (%v)", tt.period, tt.want, tt.bounded, got, bounded)
		}
	}

	if _, _, err := Cutoff("Last decade", now); err == nil {
		t.Error("Expected error for unknown period")
	}
}

func TestCutoff_MonthEnd(t *testing.T) {
	tests := []struct {
		name   string
		period domain.TimePeriod
		now    string
		want   string
	}{
		{"last month from Mar 31", domain.PeriodLastMonth, "2025-03-31T12:00:00Z", "2025-02-28T12:00:00Z"},
		{"last month from Mar 31 leap year", domain.PeriodLastMonth, "2024-03-31T12:00:00Z", "2024-02-29T12:00:00Z"},
		{"last month from May 31", domain.PeriodLastMonth, "2025-05-31T08:30:00Z", "2025-04-30T08:30:00Z"},
		{"last month from Jan 31", domain.PeriodLastMonth, "2025-01-31T00:00:00Z", "2024-12-31T00:00:00Z"},
		{"last month mid-month", domain.PeriodLastMonth, "2025-03-15T12:00:00Z", "2025-02-15T12:00:00Z"},
		{"last year from Feb 29", domain.PeriodLastYear, "2024-02-29T12:00:00Z", "2023-02-28T12:00:00Z"},
		{"last year regular", domain.PeriodLastYear, "2025-06-15T12:00:00Z", "2024-06-15T12:00:00Z"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, bounded, err := Cutoff(tt.period, at(tt.now))
			if err != nil {
				t.Fatalf("Cutoff failed: %v", err)
			}
			if !bounded || !got.Equal(at(tt.want)) {
				t.Errorf("expected %s, got %v (bounded=%v)", tt.want, got, bounded)
			}
		})
	}
}

func TestIntervalsForPeriod(t *testing.T) {
	if got := IntervalsForPeriod(domain.PeriodLast24h); len(got) != 1 || got[0] != domain.GranularityDaily {
		t.Errorf("Last 24h: unexpected intervals %v", got)
	}
	if got := IntervalsForPeriod(domain.PeriodLastMonth); len(got) != 2 || got[1] != domain.GranularityWeekly {
		t.Errorf("Last Month: unexpected intervals %v", got)
	}
	if got := IntervalsForPeriod(domain.PeriodAllTime); len(got) != 3 {
		t.Errorf("All time: unexpected intervals %v", got)
	}

	if DefaultInterval(domain.PeriodLastMonth) != domain.GranularityDaily {
		t.Error("Last Month default should be Daily")
	}
	if DefaultInterval(domain.PeriodLastYear) != domain.GranularityWeekly {
		t.Error("Last year default should be Weekly")
	}
}

func TestParse(t *testing.T) {
	g, err := ParseGranularity("weekly")
	if err != nil || g != domain.GranularityWeekly {
		t.Errorf("ParseGranularity(weekly): got %s, %v", g, err)
	}
	if _, err := ParseGranularity("yearly"); err == nil {
		t.Error("Expected error for yearly")
	}

	p, err := ParseTimePeriod("last week")
	if err != nil || p != domain.PeriodLastWeek {
		t.Errorf("ParseTimePeriod(last week): got %s, %v", p, err)
	}
}

func TestThinLabels(t *testing.T) {
	short := []string{"a", "b", "c"}
	if got := ThinLabels(short); len(got) != 3 || got[1] != "b" {
		t.Errorf("Short list must be unchanged, got %v", got)
	}

	long := make([]string, 101)
	for i := range long {
		long[i] = "x"
	}
	got := ThinLabels(long)
	shown := 0
	for i, l := range got {
		if l != "" {
			shown++
			if i%8 != 0 {
				t.Errorf("Label %d should be blank", i)
			}
		}
	}
	if shown != 13 {
		t.Errorf("Expected 13 labels shown, got %d", shown)
	}
	if long[1] != "x" {
		t.Error("Input categories must not be modified")
	}
}

func TestParseTokenFilter(t *testing.T) {
	f := ParseTokenFilter(" ETH, ,usdc ")
	if len(f) != 2 || !f.Allows("USDC") || f.Allows("WBTC") {
		t.Errorf("Unexpected filter %v", f)
	}
	if !ParseTokenFilter("").Allows("anything") {
		t.Error("Empty filter must allow all")
	}
}
