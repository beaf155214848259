// Package partition groups streamed tick rows into per-date session groups.
package partition

import (
	"time"

	"github.com/rs/zerolog"

	"rangemult-go/internal/calendar"
	"rangemult-go/internal/metrics"
	"rangemult-go/internal/tick"
)

// Group holds one exchange-local trading date's ticks in arrival order.
// Times and Mids are parallel slices so the breakout scan can run over
// primitive buffers without per-tick allocation.
type Group struct {
	Date  time.Time // exchange-local date, midnight
	Times []int64   // server-local unix microseconds, non-decreasing
	Mids  []float64
}

// Len returns the number of ticks in the group.
func (g *Group) Len() int { return len(g.Times) }

// Outcome summarizes one chunk's partitioning.
type Outcome struct {
	Closed  []Group // groups finalized by this chunk, in date order
	Rows    int     // rows examined
	BadRows int     // rows dropped for parse failures
	// Empty is true when the chunk contributed no in-range trading rows;
	// the stream driver counts these toward its early-termination heuristic.
	Empty bool
}

// Partitioner converts raw CSV records into per-date groups, carrying the
// currently open group across chunk boundaries so a date split over two
// chunks is never finalized prematurely.
type Partitioner struct {
	cal        *calendar.Calendar
	start, end time.Time // inclusive exchange-local date filter
	log        zerolog.Logger

	open     *Group
	skipDate time.Time // most recent non-trading date, to drop siblings cheaply
}

// New builds a Partitioner over the given calendar and date filter.
func New(cal *calendar.Calendar, start, end time.Time, log zerolog.Logger) *Partitioner {
	return &Partitioner{cal: cal, start: start, end: end, log: log}
}

// Partition consumes one chunk of raw records. Parse failures are skipped and
// counted, out-of-range dates filtered, non-trading dates dropped whole.
func (p *Partitioner) Partition(records [][]string) Outcome {
	var out Outcome
	kept := 0
	for _, rec := range records {
		out.Rows++
		metrics.RowsTotal.Inc()

		tk, err := tick.ParseRow(rec)
		if err != nil {
			out.BadRows++
			metrics.RowsSkipped.WithLabelValues("parse").Inc()
			continue
		}

		date := p.cal.ExchangeDate(tk.Ts)
		if date.Before(p.start) || date.After(p.end) {
			metrics.RowsSkipped.WithLabelValues("out_of_range").Inc()
			continue
		}
		if !p.skipDate.IsZero() && date.Equal(p.skipDate) {
			metrics.RowsSkipped.WithLabelValues("non_trading").Inc()
			continue
		}

		if p.open != nil && !date.Equal(p.open.Date) {
			out.Closed = append(out.Closed, *p.open)
			p.open = nil
		}
		if p.open == nil {
			if !p.cal.IsTradingDay(date) {
				p.skipDate = date
				p.log.Debug().Str("date", date.Format("2006-01-02")).Msg("dropping non-trading day")
				metrics.NonTradingDays.Inc()
				metrics.RowsSkipped.WithLabelValues("non_trading").Inc()
				continue
			}
			p.open = &Group{Date: date}
		}
		p.open.Times = append(p.open.Times, tk.Ts.UnixMicro())
		p.open.Mids = append(p.open.Mids, tk.Mid())
		kept++
	}
	out.Empty = kept == 0
	return out
}

// Flush closes and returns the open group at end of input, or nil.
func (p *Partitioner) Flush() *Group {
	g := p.open
	p.open = nil
	return g
}
