// Package quality guards runs against malformed input files.
package quality

// Budget caps the tolerated share of unparsable rows in one chunk. A breach
// signals a file-format mismatch rather than isolated bad data.
type Budget struct {
	MaxSkipRatio float64
}

// Exceeded reports whether bad rows out of total breach the budget.
func (b Budget) Exceeded(bad, total int) bool {
	if total == 0 || b.MaxSkipRatio <= 0 {
		return false
	}
	return float64(bad)/float64(total) > b.MaxSkipRatio
}
