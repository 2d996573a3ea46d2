// Package selector narrows clean records and aggregates to the subsets the
// reports are computed over.
package selector

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/loanlens/loanlens/internal/model"
)

// Anchor returns the latest report date in the whole dataset. The second
// result is false when records is empty.
func Anchor(records []model.CleanRecord) (time.Time, bool) {
	var anchor time.Time
	for _, r := range records {
		if r.ReportDate.After(anchor) {
			anchor = r.ReportDate
		}
	}
	return anchor, len(records) > 0
}

// AsOf drops records reported after asOf. A zero asOf keeps everything.
func AsOf(records []model.CleanRecord, asOf time.Time) []model.CleanRecord {
	if asOf.IsZero() {
		return records
	}
	out := make([]model.CleanRecord, 0, len(records))
	for _, r := range records {
		if !r.ReportDate.After(asOf) {
			out = append(out, r)
		}
	}
	return out
}

// TopN returns the n items with the largest metric, largest first. The sort
// is stable, so ties at the cutoff keep input order; pass input sorted by
// key for reproducible output.
func TopN[T any](items []T, n int, metric func(T) decimal.Decimal) []T {
	ranked := make([]T, len(items))
	copy(ranked, items)
	sort.SliceStable(ranked, func(i, j int) bool {
		return metric(ranked[i]).GreaterThan(metric(ranked[j]))
	})
	if n < len(ranked) {
		ranked = ranked[:n]
	}
	return ranked
}

// LatestPerBorrower picks one representative record per borrower: latest
// report date first, then lowest loan ID, then highest days due. Output is
// sorted by borrower ID.
func LatestPerBorrower(records []model.CleanRecord) []model.CleanRecord {
	best := make(map[string]model.CleanRecord)
	for _, r := range records {
		cur, ok := best[r.BorrowerID]
		if !ok || ranksBefore(r, cur) {
			best[r.BorrowerID] = r
		}
	}
	out := make([]model.CleanRecord, 0, len(best))
	for _, r := range best {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].BorrowerID < out[j].BorrowerID })
	return out
}

func ranksBefore(a, b model.CleanRecord) bool {
	if !a.ReportDate.Equal(b.ReportDate) {
		return a.ReportDate.After(b.ReportDate)
	}
	if a.LoanID != b.LoanID {
		return a.LoanID < b.LoanID
	}
	return a.DaysDue > b.DaysDue
}

// Threshold keeps records that are both overdue and carry a material balance.
type Threshold struct {
	MinDaysDue int
	MinBalance decimal.Decimal
}

// Match reports whether r exceeds both limits (strictly).
func (t Threshold) Match(r model.CleanRecord) bool {
	return r.DaysDue > t.MinDaysDue && r.NormalizedBalance.GreaterThan(t.MinBalance)
}

// Filter returns the records matching t, in input order.
func (t Threshold) Filter(records []model.CleanRecord) []model.CleanRecord {
	var out []model.CleanRecord
	for _, r := range records {
		if t.Match(r) {
			out = append(out, r)
		}
	}
	return out
}

// Baseline returns, per borrower, the earliest report date on or after
// anchor minus the given number of calendar months. The anchor is shared by
// all borrowers. Borrowers with no report in the window are absent.
func Baseline(records []model.CleanRecord, anchor time.Time, months int) map[string]time.Time {
	from := MonthsBefore(anchor, months)
	out := make(map[string]time.Time)
	for _, r := range records {
		if r.ReportDate.Before(from) || r.ReportDate.After(anchor) {
			continue
		}
		if cur, ok := out[r.BorrowerID]; !ok || r.ReportDate.Before(cur) {
			out[r.BorrowerID] = r.ReportDate
		}
	}
	return out
}

// MonthsBefore steps back whole calendar months, clamping the day to the end
// of the target month: 2024-05-31 minus 3 months is 2024-02-29.
func MonthsBefore(t time.Time, months int) time.Time {
	y, m, d := t.Date()
	first := time.Date(y, m-time.Month(months), 1, 0, 0, 0, 0, t.Location())
	if last := first.AddDate(0, 1, -1).Day(); d > last {
		d = last
	}
	return time.Date(first.Year(), first.Month(), d, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

// WeekRange returns the Monday that starts the earliest of the last n ISO
// weeks ending with the anchor's week. A record is in range when its own
// week start is on or after the returned date.
func WeekRange(anchor time.Time, n int) time.Time {
	if n < 1 {
		n = 1
	}
	return model.WeekStart(anchor).AddDate(0, 0, -7*(n-1))
}

// InWeeks keeps records whose ISO week falls within the last n weeks up to
// and including the anchor's week.
func InWeeks(records []model.CleanRecord, anchor time.Time, n int) []model.CleanRecord {
	from := WeekRange(anchor, n)
	var out []model.CleanRecord
	for _, r := range records {
		if !r.ReportDate.Before(from) && !r.ReportDate.After(anchor) {
			out = append(out, r)
		}
	}
	return out
}

// Between keeps records with from < report date <= to.
func Between(records []model.CleanRecord, from, to time.Time) []model.CleanRecord {
	var out []model.CleanRecord
	for _, r := range records {
		if r.ReportDate.After(from) && !r.ReportDate.After(to) {
			out = append(out, r)
		}
	}
	return out
}
