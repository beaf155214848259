// Package config exposes strongly typed application configuration structs loaded from YAML.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// EnvPrefix namespaces the environment variables that override file values.
const EnvPrefix = "RANGEMULT"

// DateLayout is the wire format for config date fields.
const DateLayout = "2006-01-02"

const defaultEmptyChunkLimit = 20

// App captures process-wide runtime settings such as name, environment, metrics, and logging levels.
type App struct {
	Name        string `yaml:"name"`
	Env         string `yaml:"env"`
	MetricsAddr string `yaml:"metrics_addr" envconfig:"METRICS_ADDR"`
	LogLevel    string `yaml:"log_level" envconfig:"LOG_LEVEL"`
}

// Analysis describes the session/range study to run.
type Analysis struct {
	StartDate       string `yaml:"start_date"` // exchange-local, inclusive
	EndDate         string `yaml:"end_date"`   // exchange-local, inclusive
	SessionType     string `yaml:"session_type"` // CLASSIC or EARLY
	RangeMinutes    int    `yaml:"range_minutes"`
	CloseHour       int    `yaml:"close_hour"` // exchange-local hour
	AllowAfterHours bool   `yaml:"allow_after_hours"`
	// ServerOffsetHours is the fixed number of hours the broker server clock
	// runs ahead of exchange-local time. Deliberately not DST-aware.
	ServerOffsetHours int `yaml:"server_offset_hours"`
}

// Input configures the tick file read loop.
type Input struct {
	Path string `yaml:"path" envconfig:"INPUT_PATH"`
	// ChunkRows forces a chunk size; 0 derives one from the file size.
	ChunkRows int `yaml:"chunk_rows"`
	// EmptyChunkLimit stops the read early after this many consecutive chunks
	// with no in-range trading rows; 0 disables, absent defaults to 20. A
	// pointer so an explicit 0 survives defaulting. The heuristic assumes a
	// time-ordered single file. Disable it for concatenated or unordered
	// input or trailing sessions will be silently missed.
	EmptyChunkLimit *int `yaml:"empty_chunk_limit"`
	// MaxSkipRatio escalates a chunk to a fatal error when the share of
	// unparsable rows exceeds it.
	MaxSkipRatio float64 `yaml:"max_skip_ratio"`
}

// Report selects output destinations; empty paths disable the writer.
type Report struct {
	SummaryPath string `yaml:"summary_path"`
	CSVPath     string `yaml:"csv_path"`
	JSONLPath   string `yaml:"jsonl_path"`
	XLSXPath    string `yaml:"xlsx_path"`
}

// Config collects every configuration leaf for easy marshaling from YAML.
type Config struct {
	App      App      `yaml:"app"`
	Analysis Analysis `yaml:"analysis"`
	Input    Input    `yaml:"input"`
	Report   Report   `yaml:"report"`
}

// Load reads a YAML file from disk, hydrates a Config struct, and applies
// RANGEMULT_* environment overrides on top.
func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	var config Config
	if err := yaml.NewDecoder(file).Decode(&config); err != nil {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}
	if err := envconfig.Process(EnvPrefix, &config); err != nil {
		return nil, fmt.Errorf("env overrides: %w", err)
	}
	config.applyDefaults()
	return &config, nil
}

// Save persists a Config struct to disk as YAML.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("nil config")
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.App.LogLevel == "" {
		c.App.LogLevel = "info"
	}
	if c.App.MetricsAddr == "" {
		c.App.MetricsAddr = ":9109"
	}
	if c.Analysis.SessionType == "" {
		c.Analysis.SessionType = "CLASSIC"
	}
	if c.Analysis.RangeMinutes == 0 {
		c.Analysis.RangeMinutes = 30
	}
	if c.Analysis.CloseHour == 0 {
		c.Analysis.CloseHour = 16
	}
	if c.Analysis.ServerOffsetHours == 0 {
		c.Analysis.ServerOffsetHours = 7
	}
	if c.Input.EmptyChunkLimit == nil {
		limit := defaultEmptyChunkLimit
		c.Input.EmptyChunkLimit = &limit
	}
	if c.Input.MaxSkipRatio == 0 {
		c.Input.MaxSkipRatio = 0.05
	}
}

// Validate reports fatal configuration errors before any processing begins.
func (c *Config) Validate() error {
	if c.Input.Path == "" {
		return fmt.Errorf("input.path is required")
	}
	start, err := c.Analysis.Start()
	if err != nil {
		return err
	}
	end, err := c.Analysis.End()
	if err != nil {
		return err
	}
	if !start.Before(end) {
		return fmt.Errorf("start_date %s must be before end_date %s", c.Analysis.StartDate, c.Analysis.EndDate)
	}
	switch strings.ToUpper(c.Analysis.SessionType) {
	case "CLASSIC", "EARLY":
	default:
		return fmt.Errorf("session_type %q: want CLASSIC or EARLY", c.Analysis.SessionType)
	}
	if c.Analysis.RangeMinutes <= 0 {
		return fmt.Errorf("range_minutes must be positive, got %d", c.Analysis.RangeMinutes)
	}
	if c.Analysis.CloseHour < 1 || c.Analysis.CloseHour > 23 {
		return fmt.Errorf("close_hour %d out of range", c.Analysis.CloseHour)
	}
	if c.Input.MaxSkipRatio < 0 || c.Input.MaxSkipRatio > 1 {
		return fmt.Errorf("max_skip_ratio %.3f out of [0,1]", c.Input.MaxSkipRatio)
	}
	if c.Input.EarlyStopLimit() < 0 {
		return fmt.Errorf("empty_chunk_limit %d must not be negative", c.Input.EarlyStopLimit())
	}
	return nil
}

// EarlyStopLimit returns the effective early-termination threshold: an
// explicit value when set (0 disables the heuristic), the default otherwise.
func (i Input) EarlyStopLimit() int {
	if i.EmptyChunkLimit == nil {
		return defaultEmptyChunkLimit
	}
	return *i.EmptyChunkLimit
}

// Start parses the inclusive start date.
func (a Analysis) Start() (time.Time, error) {
	t, err := time.Parse(DateLayout, a.StartDate)
	if err != nil {
		return time.Time{}, fmt.Errorf("start_date %q: %w", a.StartDate, err)
	}
	return t, nil
}

// End parses the inclusive end date.
func (a Analysis) End() (time.Time, error) {
	t, err := time.Parse(DateLayout, a.EndDate)
	if err != nil {
		return time.Time{}, fmt.Errorf("end_date %q: %w", a.EndDate, err)
	}
	return t, nil
}
