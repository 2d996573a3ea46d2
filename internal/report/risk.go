package report

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/loanlens/loanlens/internal/aggregate"
	"github.com/loanlens/loanlens/internal/export"
	"github.com/loanlens/loanlens/internal/model"
	"github.com/loanlens/loanlens/internal/selector"
)

// RiskRow describes one active risky borrower.
type RiskRow struct {
	BorrowerID      string
	LoanID          string // loan of the representative latest record
	ReportDate      time.Time
	DaysDue         int
	LatestBalance   decimal.Decimal
	BaselineDate    time.Time // zero when the borrower has no baseline
	BalanceAgo      decimal.NullDecimal
	RecentRepayment decimal.Decimal
	PriorRepayment  decimal.Decimal
	PaymentDrop     bool
	BalanceUp       bool
}

// Risk selects borrowers whose latest record is overdue with a material
// balance and flags falling repayments and rising balances.
//
// The latest balance totals every loan on the borrower's latest report date.
// The baseline balance totals the borrower's earliest report on or after
// anchor minus BaselineMonths. Repayments are compared over two consecutive
// windows of PaymentWindowDays ending at the anchor.
func Risk(ctx context.Context, records []model.CleanRecord, opts Options) ([]RiskRow, time.Time, error) {
	if err := ctx.Err(); err != nil {
		return nil, time.Time{}, err
	}
	recs, anchor, ok := scope(records, opts)
	if !ok {
		return nil, time.Time{}, nil
	}

	risky := opts.Risk.Filter(selector.LatestPerBorrower(recs))
	if len(risky) == 0 {
		return nil, anchor, nil
	}

	latest := totalsByBorrower(aggregate.Latest(recs, aggregate.ByBorrower))
	baselines := selector.Baseline(recs, anchor, opts.BaselineMonths)
	baselineBalance := make(map[string]decimal.Decimal, len(baselines))
	for _, r := range recs {
		if d, ok := baselines[r.BorrowerID]; ok && r.ReportDate.Equal(d) {
			baselineBalance[r.BorrowerID] = baselineBalance[r.BorrowerID].Add(r.NormalizedBalance)
		}
	}

	window := time.Duration(opts.PaymentWindowDays) * 24 * time.Hour
	recentFrom := anchor.Add(-window)
	priorFrom := recentFrom.Add(-window)
	recent := totalsByBorrower(aggregate.Sum(selector.Between(recs, recentFrom, anchor), aggregate.ByBorrower))
	prior := totalsByBorrower(aggregate.Sum(selector.Between(recs, priorFrom, recentFrom), aggregate.ByBorrower))

	out := make([]RiskRow, 0, len(risky))
	for _, r := range risky {
		row := RiskRow{
			BorrowerID:      r.BorrowerID,
			LoanID:          r.LoanID,
			ReportDate:      r.ReportDate,
			DaysDue:         r.DaysDue,
			LatestBalance:   latest[r.BorrowerID].TotalOutstanding,
			RecentRepayment: recent[r.BorrowerID].TotalRepayment,
			PriorRepayment:  prior[r.BorrowerID].TotalRepayment,
		}
		if d, ok := baselines[r.BorrowerID]; ok {
			row.BaselineDate = d
			row.BalanceAgo = decimal.NewNullDecimal(baselineBalance[r.BorrowerID])
			row.BalanceUp = row.LatestBalance.GreaterThan(row.BalanceAgo.Decimal)
		}
		row.PaymentDrop = row.RecentRepayment.LessThan(row.PriorRepayment)
		out = append(out, row)
	}
	return out, anchor, nil
}

// totalsByBorrower indexes aggregates by borrower. Missing borrowers read
// as zero totals.
func totalsByBorrower(aggs []model.AggregateRecord) map[string]model.AggregateRecord {
	m := make(map[string]model.AggregateRecord, len(aggs))
	for _, a := range aggs {
		m[a.Key.BorrowerID] = a
	}
	return m
}

// RiskTable renders risk rows.
func RiskTable(rows []RiskRow) export.Table {
	t := export.Table{
		Name: "risk_flags",
		Columns: []string{
			"borrower_id", "loan_id", "report_date", "days_due", "latest_balance",
			"baseline_date", "balance_3m_ago", "recent_repayment", "prior_repayment",
			"payment_drop_flag", "balance_increased_flag",
		},
	}
	for _, r := range rows {
		t.Rows = append(t.Rows, []export.Cell{
			export.Str(r.BorrowerID),
			export.Str(r.LoanID),
			dateCell(r.ReportDate),
			export.Int(r.DaysDue),
			export.Money(r.LatestBalance),
			dateCell(r.BaselineDate),
			export.NullMoney(r.BalanceAgo),
			export.Money(r.RecentRepayment),
			export.Money(r.PriorRepayment),
			export.Bool(r.PaymentDrop),
			export.Bool(r.BalanceUp),
		})
	}
	return t
}
