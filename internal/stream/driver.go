// Package stream drives chunked reads of historical tick files through the
// partition and breakout stages.
package stream

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"

	"rangemult-go/internal/breakout"
	"rangemult-go/internal/metrics"
	"rangemult-go/internal/partition"
	"rangemult-go/internal/quality"
	"rangemult-go/internal/report"
)

// ErrTooManyBadRows is returned when a chunk's parse failures exceed the
// quality budget, which signals a file-format mismatch.
var ErrTooManyBadRows = errors.New("too many unparsable rows in chunk")

// errEarlyStop is an internal control signal for the early-termination
// heuristic; Run converts it into a normal completion.
var errEarlyStop = errors.New("early stop")

// Chunk size tiers by input file size. Pure throughput tuning; results are
// invariant to chunking.
const (
	tierLargeBytes  = 1 << 30
	tierMediumBytes = 64 << 20
	chunkRowsLarge  = 500_000
	chunkRowsMedium = 200_000
	chunkRowsSmall  = 50_000
)

// Driver owns the chunked read loop over one tick file and accumulates
// session results. It is chunk-synchronous: every chunk is fully partitioned
// and analyzed before the next read.
type Driver struct {
	part   *partition.Partitioner
	engine *breakout.Engine
	budget quality.Budget
	log    zerolog.Logger

	chunkRows int
	// emptyChunkLimit stops the read after this many consecutive chunks with
	// no in-range trading rows. Tick files are time-ordered, so a long empty
	// run means the rest of the file is beyond the requested date range.
	// This trades a small risk of missing sparse trailing data for large
	// speedups on huge files; 0 disables it, and it must be disabled for
	// concatenated or unordered input.
	emptyChunkLimit int

	emptyRun int
}

// Option configures Driver construction parameters.
type Option func(*Driver)

// WithChunkRows forces a chunk size instead of deriving one from file size.
func WithChunkRows(n int) Option {
	return func(d *Driver) {
		if n > 0 {
			d.chunkRows = n
		}
	}
}

// WithEmptyChunkLimit overrides the early-termination threshold; 0 disables.
func WithEmptyChunkLimit(n int) Option {
	return func(d *Driver) { d.emptyChunkLimit = n }
}

// WithBudget overrides the per-chunk parse-failure budget.
func WithBudget(b quality.Budget) Option {
	return func(d *Driver) { d.budget = b }
}

// New constructs a driver around a partitioner and engine.
func New(part *partition.Partitioner, engine *breakout.Engine, log zerolog.Logger, opts ...Option) *Driver {
	d := &Driver{
		part:            part,
		engine:          engine,
		budget:          quality.Budget{MaxSkipRatio: 0.05},
		log:             log,
		emptyChunkLimit: 20,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Run streams the tick file and returns the accumulated results.
func (d *Driver) Run(path string) (*report.Ledger, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open input: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat input: %w", err)
	}
	rows := d.chunkRows
	if rows <= 0 {
		rows = chunkRowsFor(info.Size())
	}
	d.log.Info().
		Str("path", path).
		Int64("bytes", info.Size()).
		Int("chunk_rows", rows).
		Msg("streaming tick file")

	reader := csv.NewReader(bufio.NewReaderSize(file, 1<<20))
	reader.FieldsPerRecord = -1

	ledger := report.NewLedger(256)
	d.emptyRun = 0
	chunk := make([][]string, 0, rows)
	eof := false
	for !eof {
		chunk = chunk[:0]
		csvBad := 0
		for len(chunk) < rows {
			rec, err := reader.Read()
			if err == io.EOF {
				eof = true
				break
			}
			if err != nil {
				// csv-level damage (bad quoting etc); same budget as parse failures
				csvBad++
				metrics.RowsSkipped.WithLabelValues("csv").Inc()
				continue
			}
			chunk = append(chunk, rec)
		}
		if len(chunk) == 0 && csvBad == 0 {
			break
		}
		if err := d.process(chunk, csvBad, ledger); err != nil {
			if errors.Is(err, errEarlyStop) {
				d.log.Info().
					Int("empty_chunks", d.emptyRun).
					Msg("early stop: remaining file is outside the requested date range")
				break
			}
			return nil, err
		}
	}

	if g := d.part.Flush(); g != nil {
		d.finalize(*g, ledger)
	}
	d.log.Info().Int("sessions", ledger.Len()).Msg("stream complete")
	return ledger, nil
}

func (d *Driver) process(chunk [][]string, csvBad int, ledger *report.Ledger) error {
	metrics.ChunksTotal.Inc()
	out := d.part.Partition(chunk)

	bad := out.BadRows + csvBad
	total := out.Rows + csvBad
	if d.budget.Exceeded(bad, total) {
		return fmt.Errorf("%w: %d of %d rows", ErrTooManyBadRows, bad, total)
	}
	if bad > 0 {
		d.log.Warn().Int("bad_rows", bad).Int("rows", total).Msg("skipped unparsable rows")
	}

	for _, g := range out.Closed {
		d.finalize(g, ledger)
	}

	if out.Empty {
		d.emptyRun++
		if d.emptyChunkLimit > 0 && d.emptyRun >= d.emptyChunkLimit {
			return errEarlyStop
		}
	} else {
		d.emptyRun = 0
	}
	return nil
}

func (d *Driver) finalize(g partition.Group, ledger *report.Ledger) {
	res, skip := d.engine.Analyze(g)
	if skip != breakout.SkipNone {
		ledger.CountSkip(skip)
		metrics.SessionsSkipped.WithLabelValues(skip.String()).Inc()
		d.log.Debug().
			Str("date", g.Date.Format("2006-01-02")).
			Str("reason", skip.String()).
			Msg("session skipped")
		return
	}
	metrics.SessionsTotal.WithLabelValues(string(res.Direction)).Inc()
	if ledger.Add(res) {
		d.log.Info().
			Str("date", res.Date.Format("2006-01-02")).
			Float64("mult", res.MaxRangeMult).
			Str("direction", string(res.Direction)).
			Msg("new best session")
	}
}

func chunkRowsFor(size int64) int {
	switch {
	case size >= tierLargeBytes:
		return chunkRowsLarge
	case size >= tierMediumBytes:
		return chunkRowsMedium
	default:
		return chunkRowsSmall
	}
}
