package config

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"
)

// Issue describes a single configuration problem.
type Issue struct {
	Path    string
	Message string
}

func (i Issue) Error() string {
	return fmt.Sprintf("%s: %s", i.Path, i.Message)
}

// Validate returns every problem found in cfg. It does not mutate cfg.
func Validate(cfg *Config) []Issue {
	var issues []Issue
	add := func(path, format string, args ...any) {
		issues = append(issues, Issue{Path: path, Message: fmt.Sprintf(format, args...)})
	}

	switch cfg.Source.Kind {
	case "csv":
		if strings.TrimSpace(cfg.Source.Path) == "" {
			add("source.path", "required for csv sources")
		}
	case "sqlite", "postgres":
		if strings.TrimSpace(cfg.Source.DSN) == "" {
			add("source.dsn", "required for %s sources", cfg.Source.Kind)
		}
		if strings.TrimSpace(cfg.Source.Table) == "" {
			add("source.table", "required for %s sources", cfg.Source.Kind)
		}
	default:
		add("source.kind", "unknown kind %q (want csv, sqlite or postgres)", cfg.Source.Kind)
	}

	r := cfg.Report
	if r.TopN < 1 {
		add("report.top_n", "must be at least 1, got %d", r.TopN)
	}
	if r.LookbackWeeks < 1 {
		add("report.lookback_weeks", "must be at least 1, got %d", r.LookbackWeeks)
	}
	if r.BaselineMonths < 1 {
		add("report.baseline_months", "must be at least 1, got %d", r.BaselineMonths)
	}
	if r.PaymentWindowDays < 1 {
		add("report.payment_window_days", "must be at least 1, got %d", r.PaymentWindowDays)
	}
	if r.MovingAverageWindow < 1 {
		add("report.moving_average_window", "must be at least 1, got %d", r.MovingAverageWindow)
	}
	if r.Risk.MinBalance.IsNegative() {
		add("report.risk.min_balance", "must not be negative, got %s", r.Risk.MinBalance)
	}

	switch cfg.Output.Format {
	case "csv":
	case "sqlite":
		if strings.TrimSpace(cfg.Output.DSN) == "" {
			add("output.dsn", "required for sqlite output")
		}
	default:
		add("output.format", "unknown format %q (want csv or sqlite)", cfg.Output.Format)
	}

	if _, err := zerolog.ParseLevel(cfg.Log.Level); err != nil {
		add("log.level", "%v", err)
	}
	if cfg.Log.Format != "console" && cfg.Log.Format != "json" {
		add("log.format", "unknown format %q (want console or json)", cfg.Log.Format)
	}

	return issues
}
