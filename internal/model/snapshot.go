package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// DateFormat is the calendar-date layout used on every input and output surface.
const DateFormat = "2006-01-02"

// RawRecord is one row of the loan snapshot table as read from a source.
// Dates stay as text so that unparseable values can be rejected by the
// normalizer instead of failing the whole read.
type RawRecord struct {
	BorrowerID         string
	LoanID             string
	LoanIssuedAt       string
	ReportDateLocal    string
	OutstandingBalance decimal.NullDecimal
	RepaidAmountDay    decimal.NullDecimal
}

// CleanRecord is a RawRecord that passed validation.
// NormalizedBalance and Repayment are never negative.
type CleanRecord struct {
	BorrowerID        string
	LoanID            string
	LoanStart         time.Time // UTC midnight
	ReportDate        time.Time // UTC midnight
	NormalizedBalance decimal.Decimal
	Repayment         decimal.Decimal
	DaysDue           int
}

// Raw converts a clean record back into source form.
func (r CleanRecord) Raw() RawRecord {
	return RawRecord{
		BorrowerID:         r.BorrowerID,
		LoanID:             r.LoanID,
		LoanIssuedAt:       r.LoanStart.Format(DateFormat),
		ReportDateLocal:    r.ReportDate.Format(DateFormat),
		OutstandingBalance: decimal.NewNullDecimal(r.NormalizedBalance),
		RepaidAmountDay:    decimal.NewNullDecimal(r.Repayment),
	}
}
