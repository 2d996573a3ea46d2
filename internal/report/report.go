// Package report builds the loan risk and recovery reports from clean
// records. Each report is a pure function of the records and its Options.
package report

import (
	"time"

	"github.com/loanlens/loanlens/internal/config"
	"github.com/loanlens/loanlens/internal/export"
	"github.com/loanlens/loanlens/internal/model"
	"github.com/loanlens/loanlens/internal/selector"
)

// Options parameterise every report.
type Options struct {
	// AsOf hides records reported after it. Zero means no cut-off.
	AsOf                time.Time
	TopN                int
	LookbackWeeks       int
	BaselineMonths      int
	PaymentWindowDays   int
	MovingAverageWindow int
	Risk                selector.Threshold
	// PerBorrower partitions the daily recovery reports by borrower instead
	// of totalling the whole portfolio per day.
	PerBorrower bool
}

// OptionsFrom converts report configuration into Options.
func OptionsFrom(cfg config.ReportConfig) Options {
	return Options{
		TopN:                cfg.TopN,
		LookbackWeeks:       cfg.LookbackWeeks,
		BaselineMonths:      cfg.BaselineMonths,
		PaymentWindowDays:   cfg.PaymentWindowDays,
		MovingAverageWindow: cfg.MovingAverageWindow,
		Risk: selector.Threshold{
			MinDaysDue: cfg.Risk.MinDaysDue,
			MinBalance: cfg.Risk.MinBalance,
		},
	}
}

// Result is the outcome of one report run.
type Result struct {
	Anchor time.Time // zero when there were no records
	Table  export.Table
}

// scope applies the as-of cut-off and finds the anchor date.
func scope(records []model.CleanRecord, opts Options) ([]model.CleanRecord, time.Time, bool) {
	recs := selector.AsOf(records, opts.AsOf)
	anchor, ok := selector.Anchor(recs)
	return recs, anchor, ok
}

func dateCell(t time.Time) export.Cell {
	if t.IsZero() {
		return export.Cell{}
	}
	return export.Str(t.Format(model.DateFormat))
}
