// Package tick standardizes the market data payloads shared between ingestion and analysis layers.
package tick

import (
	"fmt"
	"strconv"
	"time"
)

// TimeLayout matches the timestamp column of broker tick exports (server-local wall clock).
const TimeLayout = "2006.01.02 15:04:05.000000"

// Tick models one quote row from a historical tick file.
type Tick struct {
	Ts  time.Time // server-local, parsed as naive UTC
	Bid float64
	Ask float64
}

// Mid returns the bid/ask midpoint used for all range math.
func (t Tick) Mid() float64 { return (t.Bid + t.Ask) / 2 }

// ParseRow decodes one CSV record (timestamp, bid, ask) into a Tick.
func ParseRow(fields []string) (Tick, error) {
	if len(fields) != 3 {
		return Tick{}, fmt.Errorf("want 3 columns, got %d", len(fields))
	}
	ts, err := time.Parse(TimeLayout, fields[0])
	if err != nil {
		return Tick{}, fmt.Errorf("timestamp %q: %w", fields[0], err)
	}
	bid, err := strconv.ParseFloat(fields[1], 64)
	if err != nil {
		return Tick{}, fmt.Errorf("bid %q: %w", fields[1], err)
	}
	ask, err := strconv.ParseFloat(fields[2], 64)
	if err != nil {
		return Tick{}, fmt.Errorf("ask %q: %w", fields[2], err)
	}
	return Tick{Ts: ts, Bid: bid, Ask: ask}, nil
}
