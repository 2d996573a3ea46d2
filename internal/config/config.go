package config

import (
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// FileName is the default config file name inside a loanlens workspace.
const FileName = "loanlens.yaml"

// Config represents the top-level loanlens.yaml configuration.
type Config struct {
	Source SourceConfig `yaml:"source"`
	Report ReportConfig `yaml:"report"`
	Output OutputConfig `yaml:"output"`
	Log    LogConfig    `yaml:"log"`
}

// SourceConfig says where loan snapshots are read from.
type SourceConfig struct {
	Kind  string `yaml:"kind"`            // csv, sqlite or postgres
	Path  string `yaml:"path,omitempty"`  // CSV file or directory of CSV files
	DSN   string `yaml:"dsn,omitempty"`   // database connection string
	Table string `yaml:"table,omitempty"` // snapshot table for SQL sources
}

// ReportConfig holds the tunables shared by the reports.
type ReportConfig struct {
	TopN                int        `yaml:"top_n"`
	LookbackWeeks       int        `yaml:"lookback_weeks"`
	BaselineMonths      int        `yaml:"baseline_months"`
	PaymentWindowDays   int        `yaml:"payment_window_days"`
	MovingAverageWindow int        `yaml:"moving_average_window"`
	Risk                RiskConfig `yaml:"risk"`
}

// RiskConfig defines when a borrower's latest record counts as risky.
type RiskConfig struct {
	MinDaysDue int             `yaml:"min_days_due"`
	MinBalance decimal.Decimal `yaml:"min_balance"`
}

// OutputConfig says where report tables are written.
type OutputConfig struct {
	Format string `yaml:"format"`         // csv or sqlite
	Path   string `yaml:"path,omitempty"` // CSV file; stdout when empty
	DSN    string `yaml:"dsn,omitempty"`  // SQLite database for the sqlite format
}

// LogConfig controls logging.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // console or json
}

// Load reads a loanlens.yaml file from disk.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return cfg, nil
}

// Save writes a Config to a YAML file.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Default returns a Config reading data/loan_snapshots.csv with the
// reference report settings.
func Default() *Config {
	return &Config{
		Source: SourceConfig{
			Kind:  "csv",
			Path:  "data/loan_snapshots.csv",
			Table: "loan_snapshots",
		},
		Report: ReportConfig{
			TopN:                10,
			LookbackWeeks:       6,
			BaselineMonths:      3,
			PaymentWindowDays:   30,
			MovingAverageWindow: 21,
			Risk: RiskConfig{
				MinDaysDue: 10,
				MinBalance: decimal.NewFromInt(2000),
			},
		},
		Output: OutputConfig{
			Format: "csv",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
	}
}
