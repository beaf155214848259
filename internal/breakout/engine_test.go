package breakout

import (
	"testing"
	"time"

	"rangemult-go/internal/calendar"
	"rangemult-go/internal/partition"
)

var testDate = time.Date(2024, time.March, 5, 0, 0, 0, 0, time.UTC)

// server-local instant on the test date (offset 7: session runs 16:30-23:00).
func at(hour, min int) int64 {
	return time.Date(2024, time.March, 5, hour, min, 0, 0, time.UTC).UnixMicro()
}

func newTestEngine(afterHours bool) *Engine {
	cal := calendar.New(calendar.Options{OffsetHours: 7, Start: testDate, End: testDate})
	return NewEngine(cal, Params{
		SessionType:     calendar.SessionClassic,
		RangeMinutes:    30,
		CloseHour:       16,
		AllowAfterHours: afterHours,
	})
}

func group(times []int64, mids []float64) partition.Group {
	return partition.Group{Date: testDate, Times: times, Mids: mids}
}

func TestAnalyzeTieResolvesBullish(t *testing.T) {
	// Opening range [100,102,98] then post ticks [104,110,90]: both sides
	// reach 2.0x and the tie goes to the bullish side.
	g := group(
		[]int64{at(16, 30), at(16, 40), at(16, 50), at(17, 10), at(17, 30), at(18, 0)},
		[]float64{100, 102, 98, 104, 110, 90},
	)
	res, skip := newTestEngine(false).Analyze(g)
	if skip != SkipNone {
		t.Fatalf("unexpected skip: %s", skip)
	}
	if res.RangeHigh != 102 || res.RangeLow != 98 || res.RangeSize != 4 {
		t.Fatalf("unexpected range: %+v", res)
	}
	if res.MaxRangeMult != 2.0 {
		t.Fatalf("expected multiplier 2.0, got %v", res.MaxRangeMult)
	}
	if res.Direction != Bullish {
		t.Fatalf("tie must resolve bullish, got %s", res.Direction)
	}
}

func TestAnalyzeBearish(t *testing.T) {
	g := group(
		[]int64{at(16, 30), at(16, 45), at(17, 15)},
		[]float64{100, 101, 97},
	)
	res, skip := newTestEngine(false).Analyze(g)
	if skip != SkipNone {
		t.Fatalf("unexpected skip: %s", skip)
	}
	if res.Direction != Bearish {
		t.Fatalf("expected bearish, got %s", res.Direction)
	}
	if res.MaxRangeMult != 3.0 {
		t.Fatalf("expected (100-97)/1 = 3.0, got %v", res.MaxRangeMult)
	}
}

func TestAnalyzeInsideRangeIsNone(t *testing.T) {
	g := group(
		[]int64{at(16, 30), at(16, 45), at(17, 15), at(18, 0)},
		[]float64{100, 102, 101, 100.5},
	)
	res, skip := newTestEngine(false).Analyze(g)
	if skip != SkipNone {
		t.Fatalf("a never-breaking session is still a result, got skip %s", skip)
	}
	if res.MaxRangeMult != 0 || res.Direction != None {
		t.Fatalf("expected 0/NONE, got %v/%s", res.MaxRangeMult, res.Direction)
	}
}

func TestAnalyzeSkipsZeroWidthRange(t *testing.T) {
	g := group(
		[]int64{at(16, 30), at(16, 45), at(17, 15)},
		[]float64{100, 100, 105},
	)
	if _, skip := newTestEngine(false).Analyze(g); skip != SkipZeroWidth {
		t.Fatalf("expected zero-width skip, got %s", skip)
	}
}

func TestAnalyzeSkipsEmptyOpeningRange(t *testing.T) {
	// All ticks land after the formation window.
	g := group(
		[]int64{at(17, 30), at(18, 0)},
		[]float64{100, 101},
	)
	if _, skip := newTestEngine(false).Analyze(g); skip != SkipEmptyRange {
		t.Fatalf("expected empty-range skip, got %s", skip)
	}
}

func TestAnalyzeSkipsNoPostRangeData(t *testing.T) {
	// Post-range ticks exist only after the close and after hours are off.
	g := group(
		[]int64{at(16, 30), at(16, 45), at(23, 30)},
		[]float64{100, 102, 110},
	)
	if _, skip := newTestEngine(false).Analyze(g); skip != SkipNoPostRange {
		t.Fatalf("expected no-post-range skip, got %s", skip)
	}
}

func TestAnalyzeAfterHoursExtendsScan(t *testing.T) {
	g := group(
		[]int64{at(16, 30), at(16, 45), at(23, 30)},
		[]float64{100, 102, 110},
	)
	res, skip := newTestEngine(true).Analyze(g)
	if skip != SkipNone {
		t.Fatalf("unexpected skip with after hours on: %s", skip)
	}
	if res.MaxRangeMult != 4.0 || res.Direction != Bullish {
		t.Fatalf("expected (110-102)/2 = 4.0 bullish, got %v/%s", res.MaxRangeMult, res.Direction)
	}
}

func TestAnalyzeExcludesTicksAfterClose(t *testing.T) {
	// The 23:30 spike must be invisible when after hours are off.
	g := group(
		[]int64{at(16, 30), at(16, 45), at(17, 30), at(23, 30)},
		[]float64{100, 102, 103, 110},
	)
	res, skip := newTestEngine(false).Analyze(g)
	if skip != SkipNone {
		t.Fatalf("unexpected skip: %s", skip)
	}
	if res.MaxRangeMult != 0.5 {
		t.Fatalf("expected (103-102)/2 = 0.5, got %v", res.MaxRangeMult)
	}
}

func TestAnalyzeIsIdempotent(t *testing.T) {
	g := group(
		[]int64{at(16, 30), at(16, 40), at(16, 50), at(17, 10), at(17, 30), at(18, 0)},
		[]float64{100, 102, 98, 104, 110, 90},
	)
	e := newTestEngine(false)
	first, skip1 := e.Analyze(g)
	second, skip2 := e.Analyze(g)
	if skip1 != skip2 || first != second {
		t.Fatalf("Analyze is not idempotent: %+v vs %+v", first, second)
	}
}
