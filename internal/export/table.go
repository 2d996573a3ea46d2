// Package export writes report tables to CSV or to a SQL database.
package export

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/shopspring/decimal"
)

// ErrEmptyTable is returned when a table has no columns.
var ErrEmptyTable = errors.New("table has no columns")

// Cell is a nullable string value.
type Cell struct {
	Value string
	Valid bool
}

// Table is a named, ordered result set.
type Table struct {
	Name    string
	Columns []string
	Rows    [][]Cell
}

// Str returns a non-null cell.
func Str(s string) Cell { return Cell{Value: s, Valid: true} }

// Int returns a non-null integer cell.
func Int(n int) Cell { return Str(strconv.Itoa(n)) }

// Bool returns a non-null boolean cell rendered as true/false.
func Bool(b bool) Cell { return Str(strconv.FormatBool(b)) }

// Money renders an amount with two decimal places.
func Money(d decimal.Decimal) Cell { return Str(d.StringFixed(2)) }

// Percent renders a rate with four decimal places.
func Percent(d decimal.Decimal) Cell { return Str(d.StringFixed(4)) }

// NullMoney renders an amount, or NULL when d is invalid.
func NullMoney(d decimal.NullDecimal) Cell {
	if !d.Valid {
		return Cell{}
	}
	return Money(d.Decimal)
}

// NullPercent renders a rate, or NULL when d is invalid.
func NullPercent(d decimal.NullDecimal) Cell {
	if !d.Valid {
		return Cell{}
	}
	return Percent(d.Decimal)
}

// WriteCSV writes the table with a header row. NULL cells are empty.
func WriteCSV(w io.Writer, t Table) error {
	if len(t.Columns) == 0 {
		return ErrEmptyTable
	}
	cw := csv.NewWriter(w)

	if err := cw.Write(t.Columns); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	row := make([]string, len(t.Columns))
	for i, cells := range t.Rows {
		for j := range row {
			row[j] = ""
			if j < len(cells) {
				row[j] = cells[j].Value
			}
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	cw.Flush()
	return cw.Error()
}
