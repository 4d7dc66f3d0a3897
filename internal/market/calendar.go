// Package market holds the China A-share market calendar helpers:
// Beijing time, trading days and trading sessions. Every freshness and
// scheduling decision in the pipeline goes through this package so the
// host's local timezone never leaks into data-date math.
package market

import "time"

// Session labels the part of the trading day a timestamp falls into.
type Session string

const (
	SessionPreMarket  Session = "pre_market"
	SessionMorning    Session = "morning"
	SessionAfternoon  Session = "afternoon"
	SessionPostMarket Session = "post_market"
)

// beijing is the fixed UTC+8 offset. Mainland China has no DST, so a
// fixed zone avoids depending on the host tzdata.
var beijing = time.FixedZone("CST", 8*60*60)

// TZ returns the Beijing location, for schedulers and formatters that
// need an explicit zone.
func TZ() *time.Location { return beijing }

// Clock supplies the current time. The real clock is the package
// default; tests swap in a frozen one.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// Now returns the current Beijing time.
func Now(clock Clock) time.Time {
	return clock.Now().In(beijing)
}

// ToBeijing converts t to Beijing time. A zero-zone timestamp is
// treated as UTC.
func ToBeijing(t time.Time) time.Time {
	return t.In(beijing)
}

// Day truncates t to midnight of its Beijing calendar day, returned
// in UTC so day values compare cleanly with cached bar dates.
func Day(t time.Time) time.Time {
	y, m, d := t.In(beijing).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// IsTradingDay reports whether t falls on a weekday in Beijing.
// Exchange holidays are not modelled; a holiday shows up as a fetch
// returning no new rows, which the cache layer already tolerates.
func IsTradingDay(t time.Time) bool {
	wd := t.In(beijing).Weekday()
	return wd != time.Saturday && wd != time.Sunday
}

// CurrentSession classifies t against the Shanghai/Shenzhen trading
// sessions and reports whether the market is open.
func CurrentSession(t time.Time) (bool, Session) {
	if !IsTradingDay(t) {
		return false, SessionPostMarket
	}
	bt := t.In(beijing)
	minutes := bt.Hour()*60 + bt.Minute()

	switch {
	case minutes >= 9*60+15 && minutes < 9*60+25:
		return true, SessionPreMarket
	case minutes >= 9*60+30 && minutes < 11*60+30:
		return true, SessionMorning
	case minutes >= 13*60 && minutes < 15*60:
		return true, SessionAfternoon
	default:
		return false, SessionPostMarket
	}
}

// PreviousTradingDay returns the last weekday strictly before the
// Beijing calendar day of t, as a UTC midnight day value.
func PreviousTradingDay(t time.Time) time.Time {
	day := Day(t)
	for {
		day = day.AddDate(0, 0, -1)
		if wd := day.Weekday(); wd != time.Saturday && wd != time.Sunday {
			return day
		}
	}
}

// LatestCompleteTradingDay returns the newest trading day whose bar
// can exist: today if the afternoon session has closed, otherwise the
// previous trading day. Used to judge cache freshness.
func LatestCompleteTradingDay(t time.Time) time.Time {
	bt := t.In(beijing)
	if IsTradingDay(bt) && bt.Hour() >= 15 {
		return Day(bt)
	}
	return PreviousTradingDay(bt)
}
