// Package calendar classifies exchange trading days and computes session time boundaries.
//
// All exchange-local wall-clock times are converted to server-local instants
// using a fixed hour offset: the broker server clock runs a constant number of
// hours ahead of exchange-local time, with no daylight-saving adjustment to
// the offset itself. That is a deliberate simplification inherited from the
// originating strategy and is load-bearing for output parity.
package calendar

import "time"

// SessionType selects the exchange-local opening wall clock for a session.
type SessionType string

const (
	// SessionClassic opens at the 09:30 cash open.
	SessionClassic SessionType = "CLASSIC"
	// SessionEarly opens at the 08:00 pre-market.
	SessionEarly SessionType = "EARLY"
)

// Options configures calendar construction.
type Options struct {
	OffsetHours int       // server clock hours ahead of exchange-local
	Start       time.Time // prewarm window start (exchange-local date, inclusive)
	End         time.Time // prewarm window end (exchange-local date, inclusive)
}

// Calendar answers trading-day queries in O(1) after a prewarm pass over the
// requested date range. The holiday table is read-only once built and safe to
// share without locking.
type Calendar struct {
	offset   time.Duration
	holidays map[int]bool
}

// New builds a Calendar and precomputes the holiday table for every date in
// the option window, padded by a day on each side so boundary conversions
// never miss.
func New(opts Options) *Calendar {
	c := &Calendar{
		offset:   time.Duration(opts.OffsetHours) * time.Hour,
		holidays: make(map[int]bool),
	}
	if opts.Start.IsZero() || opts.End.IsZero() {
		return c
	}
	for d := opts.Start.AddDate(0, 0, -1); !d.After(opts.End.AddDate(0, 0, 1)); d = d.AddDate(0, 0, 1) {
		c.holidays[dateKey(d)] = isHoliday(d)
	}
	return c
}

// ExchangeDate converts a server-local instant to the exchange-local calendar
// date it falls on, truncated to midnight.
func (c *Calendar) ExchangeDate(server time.Time) time.Time {
	local := server.Add(-c.offset)
	y, m, d := local.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// IsTradingDay reports whether the exchange trades on the given
// exchange-local date. Weekends and the full-day holiday policy below both
// close the exchange.
func (c *Calendar) IsTradingDay(date time.Time) bool {
	switch date.Weekday() {
	case time.Saturday, time.Sunday:
		return false
	}
	hol, ok := c.holidays[dateKey(date)]
	if !ok {
		hol = isHoliday(date)
	}
	return !hol
}

// SessionBoundaries returns the server-local session window and the end of
// the opening-range formation window for an exchange-local trading date.
func (c *Calendar) SessionBoundaries(date time.Time, st SessionType, rangeMinutes, closeHour int) (start, end, rangeEnd time.Time) {
	y, m, d := date.Date()
	openHour, openMin := 9, 30
	if st == SessionEarly {
		openHour, openMin = 8, 0
	}
	start = time.Date(y, m, d, openHour, openMin, 0, 0, time.UTC).Add(c.offset)
	end = time.Date(y, m, d, closeHour, 0, 0, 0, time.UTC).Add(c.offset)
	rangeEnd = start.Add(time.Duration(rangeMinutes) * time.Minute)
	return start, end, rangeEnd
}

// Full-day closure policy. Early closes (Jul 3, Christmas Eve, post
// Thanksgiving Friday) are modeled as full holidays on purpose; keep the
// rules exactly as listed even where the real exchange only closed early.
func isHoliday(d time.Time) bool {
	y, m, day := d.Date()
	switch m {
	case time.January:
		return day == 1 || day == NthWeekday(y, time.January, time.Monday, 3)
	case time.February:
		return day == NthWeekday(y, time.February, time.Monday, 3)
	case time.March, time.April:
		gf := GoodFriday(y)
		return m == gf.Month() && day == gf.Day()
	case time.May:
		return day == LastWeekday(y, time.May, time.Monday)
	case time.June:
		return day == 19
	case time.July:
		return day == 3 || day == 4
	case time.September:
		return day == NthWeekday(y, time.September, time.Monday, 1)
	case time.November:
		thanksgiving := NthWeekday(y, time.November, time.Thursday, 4)
		return day == thanksgiving || day == thanksgiving+1
	case time.December:
		return day == 24 || day == 25
	}
	return false
}

// EasterSunday computes the Gregorian Easter date for a year using the
// anonymous algorithm (integer arithmetic only).
func EasterSunday(year int) time.Time {
	a := year % 19
	b := year / 100
	c := year % 100
	d := b / 4
	e := b % 4
	f := (b + 8) / 25
	g := (b - f + 1) / 3
	h := (19*a + b - d - g + 15) % 30
	i := c / 4
	k := c % 4
	l := (32 + 2*e + 2*i - h - k) % 7
	m := (a + 11*h + 22*l) / 451
	month := (h + l - 7*m + 114) / 31
	day := (h+l-7*m+114)%31 + 1
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
}

// GoodFriday is two days before Easter Sunday.
func GoodFriday(year int) time.Time {
	return EasterSunday(year).AddDate(0, 0, -2)
}

// NthWeekday returns the day of month of the n-th given weekday (n >= 1).
func NthWeekday(year int, month time.Month, weekday time.Weekday, n int) int {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	offset := (int(weekday) - int(first.Weekday()) + 7) % 7
	return 1 + offset + (n-1)*7
}

// LastWeekday returns the day of month of the last given weekday.
func LastWeekday(year int, month time.Month, weekday time.Weekday) int {
	last := time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC)
	offset := (int(last.Weekday()) - int(weekday) + 7) % 7
	return last.Day() - offset
}

func dateKey(d time.Time) int {
	y, m, day := d.Date()
	return y*10000 + int(m)*100 + day
}
