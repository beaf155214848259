// Package report collects finalized session results and renders run output.
package report

import (
	"sync"

	"rangemult-go/internal/breakout"
)

// Ledger stores session results in memory as the stream driver closes them.
// It is the only shared mutable state in the pipeline, so access is locked.
type Ledger struct {
	mu      sync.Mutex
	results []breakout.Result
	best    breakout.Result
	hasBest bool
	skips   map[string]int
}

// NewLedger creates an empty ledger optionally pre-sizing storage.
func NewLedger(capacity int) *Ledger {
	if capacity < 0 {
		capacity = 0
	}
	return &Ledger{
		results: make([]breakout.Result, 0, capacity),
		skips:   make(map[string]int),
	}
}

// Add appends a result and reports whether it is the new best session by
// multiplier, for progress logging.
func (l *Ledger) Add(r breakout.Result) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.results = append(l.results, r)
	if !l.hasBest || r.MaxRangeMult > l.best.MaxRangeMult {
		l.best = r
		l.hasBest = true
		return true
	}
	return false
}

// CountSkip tallies a session excluded from results.
func (l *Ledger) CountSkip(s breakout.Skip) {
	l.mu.Lock()
	l.skips[s.String()]++
	l.mu.Unlock()
}

// Snapshot returns a copy of the recorded results.
func (l *Ledger) Snapshot() []breakout.Result {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]breakout.Result, len(l.results))
	copy(out, l.results)
	return out
}

// Best returns the highest-multiplier session seen so far.
func (l *Ledger) Best() (breakout.Result, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.best, l.hasBest
}

// Skips returns a copy of the per-reason skip counts.
func (l *Ledger) Skips() map[string]int {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make(map[string]int, len(l.skips))
	for k, v := range l.skips {
		out[k] = v
	}
	return out
}

// Len returns the number of recorded results.
func (l *Ledger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.results)
}
