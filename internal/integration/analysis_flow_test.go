package integration

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"rangemult-go/internal/breakout"
	"rangemult-go/internal/calendar"
	"rangemult-go/internal/config"
	"rangemult-go/internal/partition"
	"rangemult-go/internal/report"
	"rangemult-go/internal/stream"
)

// TestAnalysisFlow drives the full pipeline the way cmd/analyze wires it:
// synthetic two-day file, calendar prewarm, chunked stream, summary render
// and CSV export.
func TestAnalysisFlow(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "ticks.csv")

	var b strings.Builder
	write := func(ts string, mid float64) {
		fmt.Fprintf(&b, "%s,%.5f,%.5f\n", ts, mid-0.5, mid+0.5)
	}
	// Saturday: must contribute no session.
	write("2024.03.02 16:30:00.000000", 100)
	write("2024.03.02 16:45:00.000000", 101)
	// Tuesday: 30-minute opening range 98..102, then a bearish breakout.
	write("2024.03.05 16:30:00.000000", 100)
	write("2024.03.05 16:40:00.000000", 102)
	write("2024.03.05 16:50:00.000000", 98)
	write("2024.03.05 17:15:00.000000", 96)
	write("2024.03.05 18:00:00.000000", 90)
	if err := os.WriteFile(input, []byte(b.String()), 0o644); err != nil {
		t.Fatalf("write input: %v", err)
	}

	cfg := &config.Config{
		Analysis: config.Analysis{
			StartDate:         "2024-03-01",
			EndDate:           "2024-03-31",
			SessionType:       "CLASSIC",
			RangeMinutes:      30,
			CloseHour:         16,
			ServerOffsetHours: 7,
		},
		Input: config.Input{Path: input, MaxSkipRatio: 0.05},
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate returned error: %v", err)
	}

	start, _ := cfg.Analysis.Start()
	end, _ := cfg.Analysis.End()
	cal := calendar.New(calendar.Options{OffsetHours: cfg.Analysis.ServerOffsetHours, Start: start, End: end})
	part := partition.New(cal, start, end, zerolog.Nop())
	engine := breakout.NewEngine(cal, breakout.Params{
		SessionType:  calendar.SessionType(cfg.Analysis.SessionType),
		RangeMinutes: cfg.Analysis.RangeMinutes,
		CloseHour:    cfg.Analysis.CloseHour,
	})
	driver := stream.New(part, engine, zerolog.Nop(),
		stream.WithEmptyChunkLimit(cfg.Input.EarlyStopLimit()),
	)

	ledger, err := driver.Run(cfg.Input.Path)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	results := ledger.Snapshot()
	if len(results) != 1 {
		t.Fatalf("expected exactly 1 session, got %d", len(results))
	}
	r := results[0]
	if !r.Date.Equal(time.Date(2024, time.March, 5, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected session date: %s", r.Date)
	}
	if r.Direction != breakout.Bearish {
		t.Fatalf("expected bearish session, got %s", r.Direction)
	}
	if r.MaxRangeMult != 2.0 {
		t.Fatalf("expected (98-90)/4 = 2.0, got %v", r.MaxRangeMult)
	}

	summary := report.Summarize(ledger)
	if summary.TotalSessions != 1 || summary.Bearish != 1 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	md := report.RenderMarkdown(summary, cfg)
	if !strings.Contains(md, "Total analyzed: 1") || !strings.Contains(md, "BEARISH") {
		t.Fatalf("markdown missing expected content:\n%s", md)
	}

	csvPath := filepath.Join(dir, "sessions.csv")
	if err := report.WriteCSV(csvPath, results); err != nil {
		t.Fatalf("WriteCSV returned error: %v", err)
	}
	data, err := os.ReadFile(csvPath)
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	if !strings.Contains(string(data), "2024-03-05") {
		t.Fatalf("csv export missing session row:\n%s", data)
	}
}
