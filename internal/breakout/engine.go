// Package breakout computes opening-range excursion multiples for closed sessions.
package breakout

import (
	"sort"
	"time"

	"rangemult-go/internal/calendar"
	"rangemult-go/internal/partition"
)

// Direction classifies which side of the opening range produced the larger
// excursion.
type Direction string

const (
	None    Direction = "NONE"
	Bullish Direction = "BULLISH"
	Bearish Direction = "BEARISH"
)

// Skip enumerates the reasons a session is excluded from results. These are
// expected business outcomes, not errors.
type Skip int

const (
	SkipNone Skip = iota
	SkipEmptyRange
	SkipZeroWidth
	SkipNoPostRange
)

func (s Skip) String() string {
	switch s {
	case SkipEmptyRange:
		return "empty_range"
	case SkipZeroWidth:
		return "zero_width"
	case SkipNoPostRange:
		return "no_post_range"
	}
	return "none"
}

// Params groups the tunable knobs for session analysis.
type Params struct {
	SessionType     calendar.SessionType
	RangeMinutes    int
	CloseHour       int
	AllowAfterHours bool
}

// Result is one finalized session record, immutable once returned.
type Result struct {
	Date         time.Time `json:"date"`
	SessionStart time.Time `json:"session_start"`
	SessionEnd   time.Time `json:"session_end"`
	RangeHigh    float64   `json:"range_high"`
	RangeLow     float64   `json:"range_low"`
	RangeSize    float64   `json:"range_size"`
	MaxRangeMult float64   `json:"max_range_mult"`
	Direction    Direction `json:"direction"`
}

// Engine turns per-date tick groups into session results.
type Engine struct {
	cal *calendar.Calendar
	cfg Params
}

// NewEngine builds an engine, defaulting to a 30 minute classic session
// closing at 16:00 exchange-local.
func NewEngine(cal *calendar.Calendar, cfg Params) *Engine {
	if cfg.SessionType == "" {
		cfg.SessionType = calendar.SessionClassic
	}
	if cfg.RangeMinutes <= 0 {
		cfg.RangeMinutes = 30
	}
	if cfg.CloseHour <= 0 {
		cfg.CloseHour = 16
	}
	return &Engine{cal: cal, cfg: cfg}
}

// Analyze computes the opening range and the maximum directional excursion
// multiple for one session. A pure function of the group and params: the same
// inputs always yield the same Result.
func (e *Engine) Analyze(g partition.Group) (Result, Skip) {
	start, end, rangeEnd := e.cal.SessionBoundaries(g.Date, e.cfg.SessionType, e.cfg.RangeMinutes, e.cfg.CloseHour)
	startUS := start.UnixMicro()
	endUS := end.UnixMicro()
	rangeEndUS := rangeEnd.UnixMicro()

	times := g.Times
	mids := g.Mids

	// Timestamps are non-decreasing, so the window bounds are binary searches.
	lo := sort.Search(len(times), func(i int) bool { return times[i] >= startUS })
	hi := sort.Search(len(times), func(i int) bool { return times[i] >= rangeEndUS })
	if lo >= hi {
		return Result{}, SkipEmptyRange
	}

	rangeHigh, rangeLow := mids[lo], mids[lo]
	for i := lo + 1; i < hi; i++ {
		m := mids[i]
		if m > rangeHigh {
			rangeHigh = m
		}
		if m < rangeLow {
			rangeLow = m
		}
	}
	rangeSize := rangeHigh - rangeLow
	if rangeSize <= 0 {
		return Result{}, SkipZeroWidth
	}

	stop := len(times)
	if !e.cfg.AllowAfterHours {
		stop = sort.Search(len(times), func(i int) bool { return times[i] > endUS })
		if hi >= stop {
			return Result{}, SkipNoPostRange
		}
	}

	// Hot path: one branch-predictable pass over the primitive slices, no
	// allocation. Sessions can hold hundreds of thousands of ticks.
	var maxBull, maxBear float64
	for i := hi; i < stop; i++ {
		m := mids[i]
		if m > rangeHigh {
			if mult := (m - rangeHigh) / rangeSize; mult > maxBull {
				maxBull = mult
			}
		} else if m < rangeLow {
			if mult := (rangeLow - m) / rangeSize; mult > maxBear {
				maxBear = mult
			}
		}
	}

	mult := maxBull
	dir := None
	switch {
	case maxBear > maxBull:
		mult = maxBear
		dir = Bearish
	case maxBull > 0:
		dir = Bullish
	}

	return Result{
		Date:         g.Date,
		SessionStart: start,
		SessionEnd:   end,
		RangeHigh:    rangeHigh,
		RangeLow:     rangeLow,
		RangeSize:    rangeSize,
		MaxRangeMult: mult,
		Direction:    dir,
	}, SkipNone
}
