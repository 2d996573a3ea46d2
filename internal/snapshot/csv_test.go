package snapshot

import (
	"bytes"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loanlens/loanlens/internal/model"
)

func TestReadRecords(t *testing.T) {
	input := `borrower_id,loan_id,loan_issued_at,report_date_local,outstanding_balance,repaid_amount_day
 B1 ,L1,2025-01-01,2025-01-15,1500.50,25.00
B2,L7,2025-01-03,2025-01-15,,NULL
`
	recs, err := ReadRecords(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, recs, 2)

	// Trimming is the normalizer's job; the codec keeps raw text.
	assert.Equal(t, " B1 ", recs[0].BorrowerID)
	assert.Equal(t, "2025-01-15", recs[0].ReportDateLocal)
	assert.True(t, recs[0].OutstandingBalance.Valid)
	assert.Equal(t, "1500.50", recs[0].OutstandingBalance.Decimal.StringFixed(2))
	assert.True(t, recs[0].RepaidAmountDay.Decimal.Equal(decimal.NewFromInt(25)))

	assert.False(t, recs[1].OutstandingBalance.Valid)
	assert.False(t, recs[1].RepaidAmountDay.Valid)
}

func TestReadRecords_ColumnOrderAndExtras(t *testing.T) {
	input := "\uFEFFreport_date_local,Loan_ID,region,borrower_id,repaid_amount_day,outstanding_balance,loan_issued_at\n" +
		"2025-02-01,L9,north,B9,10,200,2025-01-01\n"

	recs, err := ReadRecords(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "B9", recs[0].BorrowerID)
	assert.Equal(t, "L9", recs[0].LoanID)
	assert.Equal(t, "2025-01-01", recs[0].LoanIssuedAt)
	assert.Equal(t, "2025-02-01", recs[0].ReportDateLocal)
	assert.True(t, recs[0].OutstandingBalance.Decimal.Equal(decimal.NewFromInt(200)))
}

func TestReadRecords_MissingColumn(t *testing.T) {
	input := "borrower_id,loan_id,loan_issued_at,report_date_local,outstanding_balance\nB1,L1,2025-01-01,2025-01-02,5\n"

	_, err := ReadRecords(strings.NewReader(input))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMissingColumn)
	assert.Contains(t, err.Error(), "repaid_amount_day")
}

func TestReadRecords_Empty(t *testing.T) {
	_, err := ReadRecords(strings.NewReader(""))
	assert.ErrorIs(t, err, ErrMissingColumn)
}

func TestReadRecords_ShortRow(t *testing.T) {
	input := "borrower_id,loan_id,loan_issued_at,report_date_local,outstanding_balance,repaid_amount_day\nB1,L1\n"

	recs, err := ReadRecords(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "B1", recs[0].BorrowerID)
	assert.Empty(t, recs[0].ReportDateLocal)
	assert.False(t, recs[0].OutstandingBalance.Valid)
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in    string
		valid bool
		want  string
	}{
		{"12.5", true, "12.50"},
		{"-40", true, "-40.00"},
		{" 7 ", true, "7.00"},
		{"", false, ""},
		{"null", false, ""},
		{"n/a", false, ""},
	}
	for _, tt := range tests {
		got := ParseAmount(tt.in)
		assert.Equal(t, tt.valid, got.Valid, "ParseAmount(%q)", tt.in)
		if tt.valid {
			assert.Equal(t, tt.want, got.Decimal.StringFixed(2), "ParseAmount(%q)", tt.in)
		}
	}
}

func TestWriteRecords(t *testing.T) {
	recs := []model.RawRecord{
		{
			BorrowerID:         "B1",
			LoanID:             "L1",
			LoanIssuedAt:       "2025-01-01",
			ReportDateLocal:    "2025-01-20",
			OutstandingBalance: decimal.NewNullDecimal(decimal.RequireFromString("99.5")),
		},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteRecords(&buf, recs))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, strings.Join(Columns, ","), lines[0])
	assert.Equal(t, "B1,L1,2025-01-01,2025-01-20,99.5,", lines[1])

	got, err := ReadRecords(&buf)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, recs[0].LoanID, got[0].LoanID)
	assert.False(t, got[0].RepaidAmountDay.Valid)
}

func TestWriteRecords_KeepsFullPrecision(t *testing.T) {
	recs := []model.RawRecord{
		{
			BorrowerID:         "B1",
			LoanID:             "L1",
			LoanIssuedAt:       "2025-01-01",
			ReportDateLocal:    "2025-01-20",
			OutstandingBalance: decimal.NewNullDecimal(decimal.RequireFromString("100.125")),
			RepaidAmountDay:    decimal.NewNullDecimal(decimal.RequireFromString("0.004")),
		},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteRecords(&buf, recs))
	assert.Contains(t, buf.String(), ",100.125,0.004")

	got, err := ReadRecords(&buf)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.True(t, got[0].OutstandingBalance.Decimal.Equal(recs[0].OutstandingBalance.Decimal),
		"balance: got %s", got[0].OutstandingBalance.Decimal)
	assert.True(t, got[0].RepaidAmountDay.Decimal.Equal(recs[0].RepaidAmountDay.Decimal),
		"repaid: got %s", got[0].RepaidAmountDay.Decimal)
}
