// Package normalize turns raw loan snapshot rows into clean records.
package normalize

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/loanlens/loanlens/internal/model"
)

// dateLayouts are tried in order. Time-of-day and zone are discarded after
// parsing; only the calendar date as written is kept.
var dateLayouts = []string{
	model.DateFormat,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339,
	"2006-01-02 15:04:05-07",
	"2006-01-02 15:04:05Z07:00",
}

// Stats counts what the normalizer did to its input.
type Stats struct {
	Read    int
	Kept    int
	Dropped int
	Clamped int // numeric fields that were NULL or negative
}

// Records cleans raw rows. Rows with a missing identifier or a missing or
// unparseable date are dropped. NULL and negative amounts become zero.
func Records(raw []model.RawRecord) ([]model.CleanRecord, Stats) {
	stats := Stats{Read: len(raw)}
	out := make([]model.CleanRecord, 0, len(raw))
	for _, r := range raw {
		rec, clamped, ok := Record(r)
		if !ok {
			stats.Dropped++
			continue
		}
		stats.Kept++
		stats.Clamped += clamped
		out = append(out, rec)
	}
	return out, stats
}

// Record cleans a single row. It reports how many amounts were clamped and
// whether the row is valid.
func Record(r model.RawRecord) (model.CleanRecord, int, bool) {
	borrower := strings.TrimSpace(r.BorrowerID)
	loan := strings.TrimSpace(r.LoanID)
	if borrower == "" || loan == "" {
		return model.CleanRecord{}, 0, false
	}

	start, ok := ParseDate(r.LoanIssuedAt)
	if !ok {
		return model.CleanRecord{}, 0, false
	}
	report, ok := ParseDate(r.ReportDateLocal)
	if !ok {
		return model.CleanRecord{}, 0, false
	}

	balance, c1 := nonNegative(r.OutstandingBalance)
	repayment, c2 := nonNegative(r.RepaidAmountDay)

	return model.CleanRecord{
		BorrowerID:        borrower,
		LoanID:            loan,
		LoanStart:         start,
		ReportDate:        report,
		NormalizedBalance: balance,
		Repayment:         repayment,
		DaysDue:           DaysBetween(start, report),
	}, c1 + c2, true
}

// ParseDate parses a date or timestamp and returns its calendar date at UTC midnight.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), true
		}
	}
	return time.Time{}, false
}

// DaysBetween returns the whole days from start to end, truncated toward zero.
func DaysBetween(start, end time.Time) int {
	return int(end.Sub(start) / (24 * time.Hour))
}

func nonNegative(d decimal.NullDecimal) (decimal.Decimal, int) {
	if !d.Valid || d.Decimal.IsNegative() {
		return decimal.Zero, 1
	}
	return d.Decimal, 0
}
