// Package aggregate groups clean loan records and totals their amounts.
package aggregate

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/loanlens/loanlens/internal/model"
)

// KeyFunc derives the grouping key of a record.
type KeyFunc func(model.CleanRecord) model.Key

// ByBorrower groups by borrower.
func ByBorrower(r model.CleanRecord) model.Key {
	return model.Key{BorrowerID: r.BorrowerID}
}

// ByBorrowerLoan groups by borrower and loan.
func ByBorrowerLoan(r model.CleanRecord) model.Key {
	return model.Key{BorrowerID: r.BorrowerID, LoanID: r.LoanID}
}

// ByBorrowerWeek groups by borrower and ISO week.
func ByBorrowerWeek(r model.CleanRecord) model.Key {
	return model.Key{BorrowerID: r.BorrowerID, Week: model.WeekOf(r.ReportDate)}
}

// ByBorrowerLoanWeek groups by borrower, loan and ISO week.
func ByBorrowerLoanWeek(r model.CleanRecord) model.Key {
	return model.Key{BorrowerID: r.BorrowerID, LoanID: r.LoanID, Week: model.WeekOf(r.ReportDate)}
}

// ByBorrowerDay groups by borrower and report date.
func ByBorrowerDay(r model.CleanRecord) model.Key {
	return model.Key{BorrowerID: r.BorrowerID, Day: r.ReportDate}
}

// ByDay groups by report date across all borrowers.
func ByDay(r model.CleanRecord) model.Key {
	return model.Key{Day: r.ReportDate}
}

// Sum totals balance and repayment over every record of each group.
// Output is sorted by key.
func Sum(records []model.CleanRecord, key KeyFunc) []model.AggregateRecord {
	groups := make(map[model.Key]*model.AggregateRecord)
	for _, r := range records {
		k := key(r)
		g, ok := groups[k]
		if !ok {
			g = &model.AggregateRecord{
				Key:              k,
				TotalOutstanding: decimal.Zero,
				TotalRepayment:   decimal.Zero,
			}
			groups[k] = g
		}
		g.TotalOutstanding = g.TotalOutstanding.Add(r.NormalizedBalance)
		g.TotalRepayment = g.TotalRepayment.Add(r.Repayment)
		if r.ReportDate.After(g.WeekEndDate) {
			g.WeekEndDate = r.ReportDate
		}
		g.Rows++
	}
	return sorted(groups)
}

// Latest totals, for each group, only the records on the group's latest
// report date. Several records sharing that date (a borrower with more than
// one loan) are all summed.
func Latest(records []model.CleanRecord, key KeyFunc) []model.AggregateRecord {
	latest := make(map[model.Key]model.AggregateRecord)
	for _, r := range records {
		k := key(r)
		g, ok := latest[k]
		switch {
		case !ok || r.ReportDate.After(g.WeekEndDate):
			g = model.AggregateRecord{
				Key:              k,
				TotalOutstanding: r.NormalizedBalance,
				TotalRepayment:   r.Repayment,
				WeekEndDate:      r.ReportDate,
				Rows:             1,
			}
		case r.ReportDate.Equal(g.WeekEndDate):
			g.TotalOutstanding = g.TotalOutstanding.Add(r.NormalizedBalance)
			g.TotalRepayment = g.TotalRepayment.Add(r.Repayment)
			g.Rows++
		default:
			continue
		}
		latest[k] = g
	}

	out := make([]model.AggregateRecord, 0, len(latest))
	for _, g := range latest {
		out = append(out, g)
	}
	sortByKey(out)
	return out
}

// Partition splits sorted aggregates into runs sharing the same partition
// key, preserving order within each run.
func Partition(aggs []model.AggregateRecord, key func(model.Key) string) [][]model.AggregateRecord {
	var parts [][]model.AggregateRecord
	for i, a := range aggs {
		if i == 0 || key(a.Key) != key(aggs[i-1].Key) {
			parts = append(parts, nil)
		}
		parts[len(parts)-1] = append(parts[len(parts)-1], a)
	}
	return parts
}

// Borrower is a partition key function selecting the borrower.
func Borrower(k model.Key) string { return k.BorrowerID }

func sorted(groups map[model.Key]*model.AggregateRecord) []model.AggregateRecord {
	out := make([]model.AggregateRecord, 0, len(groups))
	for _, g := range groups {
		out = append(out, *g)
	}
	sortByKey(out)
	return out
}

func sortByKey(aggs []model.AggregateRecord) {
	sort.Slice(aggs, func(i, j int) bool { return aggs[i].Key.Less(aggs[j].Key) })
}
