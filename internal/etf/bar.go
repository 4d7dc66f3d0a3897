package etf

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// Kind distinguishes the two series a symbol can have on disk.
type Kind string

const (
	KindDaily    Kind = "daily"
	KindIntraday Kind = "intraday"
)

// Valid reports whether k is a known series kind.
func (k Kind) Valid() bool {
	return k == KindDaily || k == KindIntraday
}

// Bar is one day's open/high/low/close/volume for an instrument.
// Prices are kept as decimals so vendor strings and the CSV cache
// round-trip without float drift; the scoring math converts once.
type Bar struct {
	Date   time.Time
	Open   decimal.Decimal
	High   decimal.Decimal
	Low    decimal.Decimal
	Close  decimal.Decimal
	Volume decimal.Decimal
}

// Validate checks the per-bar invariants: positive prices,
// non-negative volume, a real date.
func (b Bar) Validate() error {
	if b.Date.IsZero() {
		return fmt.Errorf("bar has zero date")
	}
	for _, p := range []struct {
		name  string
		value decimal.Decimal
	}{
		{"open", b.Open},
		{"high", b.High},
		{"low", b.Low},
		{"close", b.Close},
	} {
		if p.value.LessThanOrEqual(decimal.Zero) {
			return fmt.Errorf("bar %s: %s must be positive, got %s", b.Date.Format("2006-01-02"), p.name, p.value)
		}
	}
	if b.Volume.IsNegative() {
		return fmt.Errorf("bar %s: volume must be non-negative, got %s", b.Date.Format("2006-01-02"), b.Volume)
	}
	return nil
}

// Day returns the bar's calendar day truncated to UTC midnight.
// Dates inside a series are compared at day granularity only.
func (b Bar) Day() time.Time {
	y, m, d := b.Date.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Series is an ordered sequence of bars for one (symbol, kind).
// After a merge the dates are strictly increasing and unique.
type Series []Bar

// LastDate returns the newest bar date, or the zero time for an
// empty series.
func (s Series) LastDate() time.Time {
	if len(s) == 0 {
		return time.Time{}
	}
	return s[len(s)-1].Day()
}

// Closes returns closing prices as float64 for the scoring math.
func (s Series) Closes() []float64 {
	closes := make([]float64, len(s))
	for i, b := range s {
		closes[i] = b.Close.InexactFloat64()
	}
	return closes
}

// Volumes returns volumes as float64 for the scoring math.
func (s Series) Volumes() []float64 {
	volumes := make([]float64, len(s))
	for i, b := range s {
		volumes[i] = b.Volume.InexactFloat64()
	}
	return volumes
}

// IsSortedUnique reports whether dates are strictly increasing.
func (s Series) IsSortedUnique() bool {
	for i := 1; i < len(s); i++ {
		if !s[i-1].Day().Before(s[i].Day()) {
			return false
		}
	}
	return true
}

// Merge combines s with newer rows: duplicates by calendar day are
// resolved in favour of the later occurrence in (s, rows) order and
// the result is sorted ascending. Neither input is mutated.
func (s Series) Merge(rows Series) Series {
	byDay := make(map[time.Time]Bar, len(s)+len(rows))
	for _, b := range s {
		byDay[b.Day()] = b
	}
	for _, b := range rows {
		byDay[b.Day()] = b
	}

	merged := make(Series, 0, len(byDay))
	for _, b := range byDay {
		merged = append(merged, b)
	}
	sort.Slice(merged, func(i, j int) bool {
		return merged[i].Day().Before(merged[j].Day())
	})
	return merged
}

// Since returns the sub-series with dates on or after day.
func (s Series) Since(day time.Time) Series {
	out := make(Series, 0, len(s))
	for _, b := range s {
		if !b.Day().Before(day) {
			out = append(out, b)
		}
	}
	return out
}
