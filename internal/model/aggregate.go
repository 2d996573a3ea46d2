package model

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// WeekKey identifies an ISO-8601 week (Monday start, ISO year).
type WeekKey struct {
	Year int
	Week int
}

// WeekOf returns the ISO week containing t.
func WeekOf(t time.Time) WeekKey {
	y, w := t.ISOWeek()
	return WeekKey{Year: y, Week: w}
}

// WeekStart returns the Monday (UTC midnight) of the ISO week containing t.
func WeekStart(t time.Time) time.Time {
	d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	offset := (int(d.Weekday()) + 6) % 7
	return d.AddDate(0, 0, -offset)
}

// Less orders weeks chronologically.
func (w WeekKey) Less(o WeekKey) bool {
	if w.Year != o.Year {
		return w.Year < o.Year
	}
	return w.Week < o.Week
}

func (w WeekKey) String() string {
	return fmt.Sprintf("%04d-W%02d", w.Year, w.Week)
}

// Key is a grouping key. Fields not used by a grouping stay zero.
type Key struct {
	BorrowerID string
	LoanID     string
	Week       WeekKey
	Day        time.Time
}

// Less orders keys by borrower, loan, week and day.
func (k Key) Less(o Key) bool {
	if k.BorrowerID != o.BorrowerID {
		return k.BorrowerID < o.BorrowerID
	}
	if k.LoanID != o.LoanID {
		return k.LoanID < o.LoanID
	}
	if k.Week != o.Week {
		return k.Week.Less(o.Week)
	}
	return k.Day.Before(o.Day)
}

// AggregateRecord holds per-key totals.
type AggregateRecord struct {
	Key              Key
	TotalOutstanding decimal.Decimal
	TotalRepayment   decimal.Decimal
	WeekEndDate      time.Time // latest report date within the group
	Rows             int
}
