package snapshot

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/loanlens/loanlens/internal/model"
)

// Column names of the loan snapshot table.
const (
	ColBorrowerID   = "borrower_id"
	ColLoanID       = "loan_id"
	ColLoanIssuedAt = "loan_issued_at"
	ColReportDate   = "report_date_local"
	ColBalance      = "outstanding_balance"
	ColRepaid       = "repaid_amount_day"
)

// Columns lists the required columns in canonical order.
var Columns = []string{ColBorrowerID, ColLoanID, ColLoanIssuedAt, ColReportDate, ColBalance, ColRepaid}

// ErrMissingColumn is returned when the input lacks a required column.
var ErrMissingColumn = errors.New("missing required column")

const utf8BOM = "\uFEFF"

// Header maps required column names to their position in a CSV header row.
type Header map[string]int

// ParseHeader locates every required column. Column order is free and
// unknown columns are ignored.
func ParseHeader(row []string) (Header, error) {
	h := make(Header, len(Columns))
	for i, name := range row {
		if i == 0 {
			name = strings.TrimPrefix(name, utf8BOM)
		}
		name = strings.ToLower(strings.TrimSpace(name))
		if _, dup := h[name]; !dup {
			h[name] = i
		}
	}
	for _, c := range Columns {
		if _, ok := h[c]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, c)
		}
	}
	return h, nil
}

// ReadRecords reads all raw records from a snapshot CSV with a header row.
func ReadRecords(r io.Reader) ([]model.RawRecord, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("reading snapshot CSV: %w: empty input has no header", ErrMissingColumn)
	}
	if err != nil {
		return nil, fmt.Errorf("reading snapshot CSV header: %w", err)
	}

	h, err := ParseHeader(header)
	if err != nil {
		return nil, err
	}

	var recs []model.RawRecord
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading snapshot CSV: %w", err)
		}
		recs = append(recs, h.Unmarshal(row))
	}
	return recs, nil
}

// Unmarshal converts a CSV row to a RawRecord. Short rows leave the missing
// fields empty; those rows are rejected later by the normalizer. Numbers
// that do not parse are treated as NULL.
func (h Header) Unmarshal(row []string) model.RawRecord {
	get := func(col string) string {
		i := h[col]
		if i >= len(row) {
			return ""
		}
		return row[i]
	}
	return model.RawRecord{
		BorrowerID:         get(ColBorrowerID),
		LoanID:             get(ColLoanID),
		LoanIssuedAt:       get(ColLoanIssuedAt),
		ReportDateLocal:    get(ColReportDate),
		OutstandingBalance: ParseAmount(get(ColBalance)),
		RepaidAmountDay:    ParseAmount(get(ColRepaid)),
	}
}

// ParseAmount parses a nullable decimal. Empty strings, "NULL" and values
// that are not numbers yield an invalid NullDecimal.
func ParseAmount(s string) decimal.NullDecimal {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "null") {
		return decimal.NullDecimal{}
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(d)
}

// WriteRecords writes raw records to w, including the header.
func WriteRecords(w io.Writer, recs []model.RawRecord) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write(Columns); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for i, rec := range recs {
		if err := cw.Write(MarshalRecord(rec)); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// MarshalRecord converts a RawRecord to a CSV row in canonical column order.
func MarshalRecord(rec model.RawRecord) []string {
	return []string{
		rec.BorrowerID,
		rec.LoanID,
		rec.LoanIssuedAt,
		rec.ReportDateLocal,
		formatAmount(rec.OutstandingBalance),
		formatAmount(rec.RepaidAmountDay),
	}
}

func formatAmount(d decimal.NullDecimal) string {
	if !d.Valid {
		return ""
	}
	return d.Decimal.String()
}
