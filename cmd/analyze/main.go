package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"rangemult-go/internal/breakout"
	"rangemult-go/internal/calendar"
	"rangemult-go/internal/config"
	"rangemult-go/internal/metrics"
	"rangemult-go/internal/partition"
	"rangemult-go/internal/quality"
	"rangemult-go/internal/report"
	"rangemult-go/internal/stream"
	"rangemult-go/internal/util"
)

func main() {
	_ = godotenv.Load()

	cfgPath := "internal/config/config.yaml"
	if len(os.Args) > 1 {
		cfgPath = os.Args[1]
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		boot := util.NewLogger("info")
		boot.Fatal().Err(err).Msg("load config")
	}
	log := util.NewLogger(cfg.App.LogLevel)
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid config")
	}

	_ = metrics.Serve(cfg.App.MetricsAddr)
	log.Info().Str("addr", cfg.App.MetricsAddr).Msg("metrics up")

	start, _ := cfg.Analysis.Start()
	end, _ := cfg.Analysis.End()

	cal := calendar.New(calendar.Options{
		OffsetHours: cfg.Analysis.ServerOffsetHours,
		Start:       start,
		End:         end,
	})
	part := partition.New(cal, start, end, log)
	engine := breakout.NewEngine(cal, breakout.Params{
		SessionType:     calendar.SessionType(strings.ToUpper(cfg.Analysis.SessionType)),
		RangeMinutes:    cfg.Analysis.RangeMinutes,
		CloseHour:       cfg.Analysis.CloseHour,
		AllowAfterHours: cfg.Analysis.AllowAfterHours,
	})
	driver := stream.New(part, engine, log,
		stream.WithChunkRows(cfg.Input.ChunkRows),
		stream.WithEmptyChunkLimit(cfg.Input.EarlyStopLimit()),
		stream.WithBudget(quality.Budget{MaxSkipRatio: cfg.Input.MaxSkipRatio}),
	)

	ledger, err := driver.Run(cfg.Input.Path)
	if err != nil {
		log.Fatal().Err(err).Msg("analysis failed")
	}

	summary := report.Summarize(ledger)
	md := report.RenderMarkdown(summary, cfg)
	fmt.Println(md)

	results := ledger.Snapshot()
	if cfg.Report.SummaryPath != "" {
		if err := os.WriteFile(cfg.Report.SummaryPath, []byte(md), 0o644); err != nil {
			log.Error().Err(err).Msg("write summary")
		}
	}
	if cfg.Report.CSVPath != "" {
		if err := report.WriteCSV(cfg.Report.CSVPath, results); err != nil {
			log.Error().Err(err).Msg("write csv export")
		}
	}
	if cfg.Report.JSONLPath != "" {
		recorder, err := report.NewJSONLRecorder(cfg.Report.JSONLPath)
		if err != nil {
			log.Error().Err(err).Msg("open jsonl recorder")
		} else {
			for _, r := range results {
				recorder.Record(r)
			}
			_ = recorder.Close()
		}
	}
	if cfg.Report.XLSXPath != "" {
		if err := report.WriteXLSX(cfg.Report.XLSXPath, results); err != nil {
			log.Error().Err(err).Msg("write xlsx export")
		}
	}

	log.Info().
		Int("sessions", summary.TotalSessions).
		Int("bullish", summary.Bullish).
		Int("bearish", summary.Bearish).
		Msg("analysis complete")
}
