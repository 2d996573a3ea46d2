package report

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/loanlens/loanlens/internal/aggregate"
	"github.com/loanlens/loanlens/internal/export"
	"github.com/loanlens/loanlens/internal/model"
	"github.com/loanlens/loanlens/internal/selector"
	"github.com/loanlens/loanlens/internal/trend"
)

// WeeklyTrendRow is one borrower-week of the weekly balance trend.
type WeeklyTrendRow struct {
	Rank             int
	BorrowerID       string
	Week             model.WeekKey
	WeekEndDate      time.Time
	TotalOutstanding decimal.Decimal
	ChangeAbs        decimal.NullDecimal
	ChangePct        decimal.NullDecimal
}

// WeeklyTrend ranks borrowers by the outstanding balance of their latest
// snapshot within the last LookbackWeeks ISO weeks, keeps the top N and
// reports each one's week-over-week balance change. A week's balance is the
// borrower's total on the last report date of that week.
func WeeklyTrend(ctx context.Context, records []model.CleanRecord, opts Options) ([]WeeklyTrendRow, time.Time, error) {
	recs, anchor, ok := scope(records, opts)
	if !ok {
		return nil, time.Time{}, nil
	}
	inRange := selector.InWeeks(recs, anchor, opts.LookbackWeeks)

	latest := aggregate.Latest(inRange, aggregate.ByBorrower)
	top := selector.TopN(latest, opts.TopN, func(a model.AggregateRecord) decimal.Decimal {
		return a.TotalOutstanding
	})
	rank := make(map[string]int, len(top))
	for i, a := range top {
		rank[a.Key.BorrowerID] = i + 1
	}

	var selected []model.CleanRecord
	for _, r := range inRange {
		if _, ok := rank[r.BorrowerID]; ok {
			selected = append(selected, r)
		}
	}
	parts := aggregate.Partition(aggregate.Latest(selected, aggregate.ByBorrowerWeek), aggregate.Borrower)
	sort.SliceStable(parts, func(i, j int) bool {
		return rank[parts[i][0].Key.BorrowerID] < rank[parts[j][0].Key.BorrowerID]
	})

	results := make([][]WeeklyTrendRow, len(parts))
	err := trend.ForEachPartition(ctx, len(parts), func(_ context.Context, i int) error {
		weeks := parts[i]
		values := make([]decimal.Decimal, len(weeks))
		for j, w := range weeks {
			values[j] = w.TotalOutstanding
		}
		deltas := trend.LagDelta(values)

		rows := make([]WeeklyTrendRow, len(weeks))
		for j, w := range weeks {
			rows[j] = WeeklyTrendRow{
				Rank:             rank[w.Key.BorrowerID],
				BorrowerID:       w.Key.BorrowerID,
				Week:             w.Key.Week,
				WeekEndDate:      w.WeekEndDate,
				TotalOutstanding: w.TotalOutstanding,
				ChangeAbs:        deltas[j].Abs,
				ChangePct:        deltas[j].Pct,
			}
		}
		results[i] = rows
		return nil
	})
	if err != nil {
		return nil, anchor, err
	}

	var out []WeeklyTrendRow
	for _, rows := range results {
		out = append(out, rows...)
	}
	return out, anchor, nil
}

// WeeklyTrendTable renders weekly trend rows.
func WeeklyTrendTable(rows []WeeklyTrendRow) export.Table {
	t := export.Table{
		Name:    "weekly_trend",
		Columns: []string{"rank", "borrower_id", "iso_year", "iso_week", "week_end_date", "total_outstanding", "change_abs", "change_pct"},
	}
	for _, r := range rows {
		t.Rows = append(t.Rows, []export.Cell{
			export.Int(r.Rank),
			export.Str(r.BorrowerID),
			export.Int(r.Week.Year),
			export.Int(r.Week.Week),
			dateCell(r.WeekEndDate),
			export.Money(r.TotalOutstanding),
			export.NullMoney(r.ChangeAbs),
			export.NullPercent(r.ChangePct),
		})
	}
	return t
}
