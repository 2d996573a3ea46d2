package report

import (
	"context"
	"fmt"

	"github.com/loanlens/loanlens/internal/model"
)

// Report names accepted by Run.
const (
	NameWeeklyTrend = "weekly-trend"
	NameRisk        = "risk"
	NameRecovery    = "recovery"
	NameRecoveryMA  = "recovery-ma"
)

// Names lists every report in display order.
var Names = []string{NameWeeklyTrend, NameRisk, NameRecovery, NameRecoveryMA}

// Run builds the named report and renders it as a table.
func Run(ctx context.Context, name string, records []model.CleanRecord, opts Options) (Result, error) {
	switch name {
	case NameWeeklyTrend:
		rows, anchor, err := WeeklyTrend(ctx, records, opts)
		return Result{Anchor: anchor, Table: WeeklyTrendTable(rows)}, err
	case NameRisk:
		rows, anchor, err := Risk(ctx, records, opts)
		return Result{Anchor: anchor, Table: RiskTable(rows)}, err
	case NameRecovery:
		rows, anchor, err := Recovery(ctx, records, opts)
		return Result{Anchor: anchor, Table: RecoveryTable(rows, opts.PerBorrower)}, err
	case NameRecoveryMA:
		rows, anchor, err := RecoveryMA(ctx, records, opts)
		return Result{Anchor: anchor, Table: RecoveryMATable(rows, opts.PerBorrower)}, err
	default:
		return Result{}, fmt.Errorf("unknown report %q", name)
	}
}
