package report

import (
	"fmt"
	"sort"
	"strings"

	"rangemult-go/internal/breakout"
	"rangemult-go/internal/config"
)

// Stats holds the distribution of positive range multipliers.
type Stats struct {
	Count  int
	Mean   float64
	Median float64
	P75    float64
	P90    float64
	P95    float64
	P99    float64
}

// Summary is the aggregate view of one run, handed to the rendering layer.
type Summary struct {
	TotalSessions int
	Bullish       int
	Bearish       int
	Flat          int
	Best          breakout.Result
	HasBest       bool
	Stats         Stats
	Skips         map[string]int
}

// Summarize reduces a ledger to its aggregate report.
func Summarize(l *Ledger) Summary {
	results := l.Snapshot()
	s := Summary{TotalSessions: len(results), Skips: l.Skips()}
	s.Best, s.HasBest = l.Best()

	positive := make([]float64, 0, len(results))
	for _, r := range results {
		switch r.Direction {
		case breakout.Bullish:
			s.Bullish++
		case breakout.Bearish:
			s.Bearish++
		default:
			s.Flat++
		}
		if r.MaxRangeMult > 0 {
			positive = append(positive, r.MaxRangeMult)
		}
	}
	s.Stats = computeStats(positive)
	return s
}

func computeStats(values []float64) Stats {
	st := Stats{Count: len(values)}
	if len(values) == 0 {
		return st
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	var sum float64
	for _, v := range sorted {
		sum += v
	}
	st.Mean = sum / float64(len(sorted))
	st.Median = percentile(sorted, 50)
	st.P75 = percentile(sorted, 75)
	st.P90 = percentile(sorted, 90)
	st.P95 = percentile(sorted, 95)
	st.P99 = percentile(sorted, 99)
	return st
}

// percentile interpolates linearly between the closest ranks of a sorted
// slice. p is in [0,100].
func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if len(sorted) == 1 {
		return sorted[0]
	}
	rank := p / 100 * float64(len(sorted)-1)
	lo := int(rank)
	if lo >= len(sorted)-1 {
		return sorted[len(sorted)-1]
	}
	frac := rank - float64(lo)
	return sorted[lo] + frac*(sorted[lo+1]-sorted[lo])
}

// RenderMarkdown formats a Summary with its configuration echo.
func RenderMarkdown(s Summary, cfg *config.Config) string {
	var b strings.Builder
	b.WriteString("# Range multiplier report\n\n")

	b.WriteString("## Configuration\n\n")
	fmt.Fprintf(&b, "- Date range: %s to %s\n", cfg.Analysis.StartDate, cfg.Analysis.EndDate)
	fmt.Fprintf(&b, "- Session: %s, opening range %d min, close %02d:00\n",
		cfg.Analysis.SessionType, cfg.Analysis.RangeMinutes, cfg.Analysis.CloseHour)
	fmt.Fprintf(&b, "- After-hours breakouts: %v\n", cfg.Analysis.AllowAfterHours)
	fmt.Fprintf(&b, "- Server offset: +%dh\n", cfg.Analysis.ServerOffsetHours)
	fmt.Fprintf(&b, "- Input: %s\n\n", cfg.Input.Path)

	b.WriteString("## Sessions\n\n")
	fmt.Fprintf(&b, "- Total analyzed: %d\n", s.TotalSessions)
	fmt.Fprintf(&b, "- Bullish: %d, bearish: %d, no breakout: %d\n", s.Bullish, s.Bearish, s.Flat)
	if len(s.Skips) > 0 {
		var parts []string
		for _, kv := range sortedSkips(s.Skips) {
			parts = append(parts, fmt.Sprintf("%s=%d", kv.reason, kv.n))
		}
		fmt.Fprintf(&b, "- Skipped: %s\n", strings.Join(parts, ", "))
	}
	b.WriteString("\n")

	if s.HasBest {
		b.WriteString("## Best session\n\n")
		fmt.Fprintf(&b, "- Date: %s\n", s.Best.Date.Format("2006-01-02"))
		fmt.Fprintf(&b, "- Max multiplier: %.4f (%s)\n", s.Best.MaxRangeMult, s.Best.Direction)
		fmt.Fprintf(&b, "- Range: %.5f - %.5f (size %.5f)\n\n", s.Best.RangeLow, s.Best.RangeHigh, s.Best.RangeSize)
	}

	b.WriteString("## Multiplier distribution (sessions with breakout)\n\n")
	fmt.Fprintf(&b, "| metric | value |\n|---|---|\n")
	fmt.Fprintf(&b, "| count | %d |\n", s.Stats.Count)
	fmt.Fprintf(&b, "| mean | %.4f |\n", s.Stats.Mean)
	fmt.Fprintf(&b, "| median | %.4f |\n", s.Stats.Median)
	fmt.Fprintf(&b, "| p75 | %.4f |\n", s.Stats.P75)
	fmt.Fprintf(&b, "| p90 | %.4f |\n", s.Stats.P90)
	fmt.Fprintf(&b, "| p95 | %.4f |\n", s.Stats.P95)
	fmt.Fprintf(&b, "| p99 | %.4f |\n", s.Stats.P99)
	return b.String()
}

type skipCount struct {
	reason string
	n      int
}

func sortedSkips(skips map[string]int) []skipCount {
	out := make([]skipCount, 0, len(skips))
	for reason, n := range skips {
		out = append(out, skipCount{reason, n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].reason < out[j].reason })
	return out
}
