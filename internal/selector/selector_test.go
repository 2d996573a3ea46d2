package selector

import (
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loanlens/loanlens/internal/model"
)

func day(y, m, d int) time.Time {
	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
}

func rec(borrower, loan string, reported time.Time, daysDue int, balance int64) model.CleanRecord {
	return model.CleanRecord{
		BorrowerID:        borrower,
		LoanID:            loan,
		ReportDate:        reported,
		DaysDue:           daysDue,
		NormalizedBalance: decimal.NewFromInt(balance),
		Repayment:         decimal.Zero,
	}
}

func TestAnchor(t *testing.T) {
	_, ok := Anchor(nil)
	assert.False(t, ok)

	anchor, ok := Anchor([]model.CleanRecord{
		rec("B1", "L1", day(2025, 3, 1), 0, 1),
		rec("B2", "L2", day(2025, 4, 2), 0, 1),
		rec("B1", "L1", day(2025, 2, 1), 0, 1),
	})
	require.True(t, ok)
	assert.Equal(t, day(2025, 4, 2), anchor)
}

func TestAsOf(t *testing.T) {
	records := []model.CleanRecord{
		rec("B1", "L1", day(2025, 3, 1), 0, 1),
		rec("B1", "L1", day(2025, 3, 2), 0, 1),
	}
	assert.Len(t, AsOf(records, time.Time{}), 2)
	got := AsOf(records, day(2025, 3, 1))
	require.Len(t, got, 1)
	assert.Equal(t, day(2025, 3, 1), got[0].ReportDate)
}

type item struct {
	name  string
	value decimal.Decimal
}

func metric(i item) decimal.Decimal { return i.value }

func TestTopN_StableTies(t *testing.T) {
	items := []item{
		{"a", decimal.NewFromInt(5)},
		{"b", decimal.NewFromInt(9)},
		{"c", decimal.NewFromInt(5)},
		{"d", decimal.NewFromInt(1)},
	}
	got := TopN(items, 2, metric)
	require.Len(t, got, 2)
	assert.Equal(t, "b", got[0].name)
	assert.Equal(t, "a", got[1].name, "tie at cutoff keeps input order")

	assert.Len(t, TopN(items, 10, metric), 4)
	assert.Equal(t, "a", items[0].name, "input must not be reordered")
}

func TestTopN_MinimumDominatesExcluded(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for round := 0; round < 50; round++ {
		items := make([]item, 25)
		for i := range items {
			items[i] = item{fmt.Sprintf("i%02d", i), decimal.NewFromInt(rng.Int63n(20))}
		}
		top := TopN(items, 10, metric)
		require.Len(t, top, 10)

		picked := make(map[string]bool)
		minTop := top[0].value
		for _, it := range top {
			picked[it.name] = true
			minTop = decimal.Min(minTop, it.value)
		}
		for _, it := range items {
			if !picked[it.name] {
				assert.True(t, minTop.GreaterThanOrEqual(it.value), "round %d: excluded %s=%s > min %s", round, it.name, it.value, minTop)
			}
		}
	}
}

func TestLatestPerBorrower_DeterministicTies(t *testing.T) {
	records := []model.CleanRecord{
		rec("B2", "L9", day(2025, 1, 5), 3, 10),
		rec("B1", "L2", day(2025, 1, 5), 20, 5000),
		rec("B1", "L1", day(2025, 1, 5), 15, 2500),
		rec("B1", "L0", day(2025, 1, 4), 99, 9999),
		rec("B2", "L9", day(2025, 1, 5), 7, 10),
	}

	got := LatestPerBorrower(records)
	require.Len(t, got, 2)
	assert.Equal(t, "B1", got[0].BorrowerID)
	assert.Equal(t, "L1", got[0].LoanID)
	assert.Equal(t, "B2", got[1].BorrowerID)
	assert.Equal(t, 7, got[1].DaysDue)

	// Input order must not matter.
	reversed := make([]model.CleanRecord, len(records))
	for i, r := range records {
		reversed[len(records)-1-i] = r
	}
	assert.Equal(t, got, LatestPerBorrower(reversed))
}

func TestThreshold(t *testing.T) {
	th := Threshold{MinDaysDue: 10, MinBalance: decimal.NewFromInt(2000)}

	assert.True(t, th.Match(rec("B1", "L1", day(2025, 1, 1), 11, 2001)))
	assert.False(t, th.Match(rec("B1", "L1", day(2025, 1, 1), 10, 5000)), "days due must be strictly greater")
	assert.False(t, th.Match(rec("B1", "L1", day(2025, 1, 1), 30, 2000)), "balance must be strictly greater")

	got := th.Filter([]model.CleanRecord{
		rec("B1", "L1", day(2025, 1, 1), 11, 2001),
		rec("B2", "L2", day(2025, 1, 1), 1, 9000),
	})
	require.Len(t, got, 1)
	assert.Equal(t, "B1", got[0].BorrowerID)
}

func TestBaseline_SharedAnchor(t *testing.T) {
	records := []model.CleanRecord{
		rec("B1", "L1", day(2025, 1, 10), 0, 1), // before window
		rec("B1", "L1", day(2025, 1, 20), 0, 1),
		rec("B1", "L1", day(2025, 3, 1), 0, 1),
		rec("B2", "L2", day(2025, 2, 1), 0, 1),
		rec("B3", "L3", day(2024, 12, 1), 0, 1),
	}
	anchor := day(2025, 4, 15)

	got := Baseline(records, anchor, 3)
	assert.Equal(t, day(2025, 1, 20), got["B1"])
	assert.Equal(t, day(2025, 2, 1), got["B2"])
	_, ok := got["B3"]
	assert.False(t, ok)

	// Month-end anchors clamp to the end of the target month.
	monthEnd := []model.CleanRecord{
		rec("B4", "L4", day(2024, 2, 28), 0, 1), // before window
		rec("B4", "L4", day(2024, 2, 29), 0, 1),
		rec("B4", "L4", day(2024, 3, 1), 0, 1),
		rec("B4", "L4", day(2024, 5, 31), 0, 1),
	}
	got = Baseline(monthEnd, day(2024, 5, 31), 3)
	assert.Equal(t, day(2024, 2, 29), got["B4"])
}

func TestMonthsBefore(t *testing.T) {
	tests := []struct {
		from   time.Time
		months int
		want   time.Time
	}{
		{day(2024, 5, 31), 3, day(2024, 2, 29)},
		{day(2025, 5, 31), 3, day(2025, 2, 28)},
		{day(2025, 3, 31), 1, day(2025, 2, 28)},
		{day(2025, 4, 15), 3, day(2025, 1, 15)},
		{day(2025, 1, 31), 2, day(2024, 11, 30)},
		{day(2025, 2, 28), 12, day(2024, 2, 28)},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, MonthsBefore(tt.from, tt.months), "%s minus %d months", tt.from.Format("2006-01-02"), tt.months)
	}
}

func TestWeekRange_AcrossYearBoundary(t *testing.T) {
	anchor := day(2025, 1, 8) // Wednesday of 2025-W02
	from := WeekRange(anchor, 6)
	assert.Equal(t, day(2024, 12, 2), from)
	assert.Equal(t, model.WeekKey{Year: 2024, Week: 49}, model.WeekOf(from))

	records := []model.CleanRecord{
		rec("B1", "L1", day(2024, 12, 1), 0, 1), // Sunday of 2024-W48
		rec("B1", "L1", day(2024, 12, 2), 0, 1),
		rec("B1", "L1", day(2024, 12, 31), 0, 1),
		rec("B1", "L1", day(2025, 1, 8), 0, 1),
	}
	got := InWeeks(records, anchor, 6)
	require.Len(t, got, 3)
	assert.Equal(t, day(2024, 12, 2), got[0].ReportDate)
}

func TestBetween(t *testing.T) {
	records := []model.CleanRecord{
		rec("B1", "L1", day(2025, 1, 1), 0, 1),
		rec("B1", "L1", day(2025, 1, 2), 0, 1),
		rec("B1", "L1", day(2025, 1, 3), 0, 1),
	}
	got := Between(records, day(2025, 1, 1), day(2025, 1, 2))
	require.Len(t, got, 1)
	assert.Equal(t, day(2025, 1, 2), got[0].ReportDate)
}
