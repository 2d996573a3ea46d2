package report

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/loanlens/loanlens/internal/aggregate"
	"github.com/loanlens/loanlens/internal/export"
	"github.com/loanlens/loanlens/internal/model"
	"github.com/loanlens/loanlens/internal/trend"
)

// RecoveryRow is one day of the recovery report.
type RecoveryRow struct {
	BorrowerID            string // empty for portfolio totals
	ReportDate            time.Time
	TotalOutstanding      decimal.Decimal
	TotalRepayment        decimal.Decimal
	RecoveryRate          decimal.Decimal
	CumulativeOutstanding decimal.Decimal
	CumulativeRepayment   decimal.Decimal
	Worsened              bool
}

// RecoveryMARow is one day of the recovery moving-average report.
type RecoveryMARow struct {
	BorrowerID       string // empty for portfolio totals
	ReportDate       time.Time
	TotalOutstanding decimal.Decimal
	TotalRepayment   decimal.Decimal
	RecoveryRate     decimal.Decimal
	MovingAverage    decimal.Decimal
	WindowSize       int
}

// Recovery computes the daily recovery rate with running totals and flags
// days whose rate fell below the previous day's.
func Recovery(ctx context.Context, records []model.CleanRecord, opts Options) ([]RecoveryRow, time.Time, error) {
	parts, anchor := dailyPartitions(records, opts)

	results := make([][]RecoveryRow, len(parts))
	err := trend.ForEachPartition(ctx, len(parts), func(_ context.Context, i int) error {
		days := parts[i]
		outstanding, repaid, rates := dailySeries(days)
		cumOutstanding := trend.CumulativeSum(outstanding)
		cumRepaid := trend.CumulativeSum(repaid)
		worsened := trend.Deteriorated(rates)

		rows := make([]RecoveryRow, len(days))
		for j, d := range days {
			rows[j] = RecoveryRow{
				BorrowerID:            d.Key.BorrowerID,
				ReportDate:            d.Key.Day,
				TotalOutstanding:      outstanding[j],
				TotalRepayment:        repaid[j],
				RecoveryRate:          rates[j],
				CumulativeOutstanding: cumOutstanding[j],
				CumulativeRepayment:   cumRepaid[j],
				Worsened:              worsened[j],
			}
		}
		results[i] = rows
		return nil
	})
	if err != nil {
		return nil, anchor, err
	}
	return flatten(results), anchor, nil
}

// RecoveryMA computes the daily recovery rate and its trailing moving
// average over MovingAverageWindow rows.
func RecoveryMA(ctx context.Context, records []model.CleanRecord, opts Options) ([]RecoveryMARow, time.Time, error) {
	parts, anchor := dailyPartitions(records, opts)

	results := make([][]RecoveryMARow, len(parts))
	err := trend.ForEachPartition(ctx, len(parts), func(_ context.Context, i int) error {
		days := parts[i]
		outstanding, repaid, rates := dailySeries(days)
		avgs := trend.MovingAverage(rates, opts.MovingAverageWindow)

		rows := make([]RecoveryMARow, len(days))
		for j, d := range days {
			rows[j] = RecoveryMARow{
				BorrowerID:       d.Key.BorrowerID,
				ReportDate:       d.Key.Day,
				TotalOutstanding: outstanding[j],
				TotalRepayment:   repaid[j],
				RecoveryRate:     rates[j],
				MovingAverage:    avgs[j].Value,
				WindowSize:       avgs[j].WindowSize,
			}
		}
		results[i] = rows
		return nil
	})
	if err != nil {
		return nil, anchor, err
	}
	return flatten(results), anchor, nil
}

func dailyPartitions(records []model.CleanRecord, opts Options) ([][]model.AggregateRecord, time.Time) {
	recs, anchor, ok := scope(records, opts)
	if !ok {
		return nil, time.Time{}
	}
	if opts.PerBorrower {
		return aggregate.Partition(aggregate.Sum(recs, aggregate.ByBorrowerDay), aggregate.Borrower), anchor
	}
	return [][]model.AggregateRecord{aggregate.Sum(recs, aggregate.ByDay)}, anchor
}

func dailySeries(days []model.AggregateRecord) (outstanding, repaid, rates []decimal.Decimal) {
	outstanding = make([]decimal.Decimal, len(days))
	repaid = make([]decimal.Decimal, len(days))
	rates = make([]decimal.Decimal, len(days))
	for i, d := range days {
		outstanding[i] = d.TotalOutstanding
		repaid[i] = d.TotalRepayment
		rates[i] = trend.RecoveryRate(d.TotalRepayment, d.TotalOutstanding)
	}
	return outstanding, repaid, rates
}

func flatten[T any](parts [][]T) []T {
	var out []T
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

// RecoveryTable renders recovery rows. Per-borrower runs add a borrower
// column and use their own table name.
func RecoveryTable(rows []RecoveryRow, perBorrower bool) export.Table {
	t := export.Table{
		Name: "daily_recovery",
		Columns: []string{
			"report_date", "total_outstanding", "total_repayment", "recovery_rate",
			"cumulative_outstanding", "cumulative_repayment", "recovery_worsened_flag",
		},
	}
	if perBorrower {
		t.Name = "daily_recovery_by_borrower"
		t.Columns = append([]string{"borrower_id"}, t.Columns...)
	}
	for _, r := range rows {
		cells := []export.Cell{
			dateCell(r.ReportDate),
			export.Money(r.TotalOutstanding),
			export.Money(r.TotalRepayment),
			export.Percent(r.RecoveryRate),
			export.Money(r.CumulativeOutstanding),
			export.Money(r.CumulativeRepayment),
			export.Bool(r.Worsened),
		}
		if perBorrower {
			cells = append([]export.Cell{export.Str(r.BorrowerID)}, cells...)
		}
		t.Rows = append(t.Rows, cells)
	}
	return t
}

// RecoveryMATable renders recovery moving-average rows.
func RecoveryMATable(rows []RecoveryMARow, perBorrower bool) export.Table {
	t := export.Table{
		Name: "daily_recovery_ma",
		Columns: []string{
			"report_date", "total_outstanding", "total_repayment", "recovery_rate",
			"recovery_rate_ma", "window_size",
		},
	}
	if perBorrower {
		t.Name = "daily_recovery_ma_by_borrower"
		t.Columns = append([]string{"borrower_id"}, t.Columns...)
	}
	for _, r := range rows {
		cells := []export.Cell{
			dateCell(r.ReportDate),
			export.Money(r.TotalOutstanding),
			export.Money(r.TotalRepayment),
			export.Percent(r.RecoveryRate),
			export.Percent(r.MovingAverage),
			export.Int(r.WindowSize),
		}
		if perBorrower {
			cells = append([]export.Cell{export.Str(r.BorrowerID)}, cells...)
		}
		t.Rows = append(t.Rows, cells)
	}
	return t
}
