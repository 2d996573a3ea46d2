package model

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestCleanRecordRaw(t *testing.T) {
	rec := CleanRecord{
		BorrowerID:        "B1",
		LoanID:            "L1",
		LoanStart:         time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		ReportDate:        time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC),
		NormalizedBalance: decimal.RequireFromString("150.25"),
		Repayment:         decimal.Zero,
		DaysDue:           31,
	}

	raw := rec.Raw()
	assert.Equal(t, "B1", raw.BorrowerID)
	assert.Equal(t, "2025-01-01", raw.LoanIssuedAt)
	assert.Equal(t, "2025-02-01", raw.ReportDateLocal)
	assert.True(t, raw.OutstandingBalance.Valid)
	assert.True(t, raw.OutstandingBalance.Decimal.Equal(rec.NormalizedBalance))
	assert.True(t, raw.RepaidAmountDay.Valid)
	assert.True(t, raw.RepaidAmountDay.Decimal.IsZero())
}

func TestWeekOf_YearBoundary(t *testing.T) {
	tests := []struct {
		date  time.Time
		want  WeekKey
		start string
	}{
		{time.Date(2024, 12, 30, 0, 0, 0, 0, time.UTC), WeekKey{2025, 1}, "2024-12-30"},
		{time.Date(2025, 1, 5, 0, 0, 0, 0, time.UTC), WeekKey{2025, 1}, "2024-12-30"},
		{time.Date(2021, 1, 3, 0, 0, 0, 0, time.UTC), WeekKey{2020, 53}, "2020-12-28"},
		{time.Date(2025, 3, 12, 15, 30, 0, 0, time.UTC), WeekKey{2025, 11}, "2025-03-10"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, WeekOf(tt.date), "WeekOf(%s)", tt.date)
		assert.Equal(t, tt.start, WeekStart(tt.date).Format(DateFormat), "WeekStart(%s)", tt.date)
	}
}

func TestKeyLess(t *testing.T) {
	a := Key{BorrowerID: "A", Week: WeekKey{2024, 52}}
	b := Key{BorrowerID: "A", Week: WeekKey{2025, 1}}
	c := Key{BorrowerID: "B"}

	assert.True(t, a.Less(b))
	assert.False(t, b.Less(a))
	assert.True(t, b.Less(c))
	assert.Equal(t, "2025-W01", b.Week.String())
}
