// Package trend computes sequential metrics over date-ordered partitions.
//
// Every function takes the values of a single partition, already ordered by
// date, and returns one result per input position.
package trend

import (
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Delta is the change of a value relative to its predecessor. Both fields
// are invalid (NULL) for the first position; Pct is also NULL when the
// predecessor is not positive.
type Delta struct {
	Abs decimal.NullDecimal
	Pct decimal.NullDecimal
}

// LagDelta computes the absolute and percent change of each value over the
// previous one.
func LagDelta(values []decimal.Decimal) []Delta {
	out := make([]Delta, len(values))
	for i := 1; i < len(values); i++ {
		prev := values[i-1]
		change := values[i].Sub(prev)
		out[i].Abs = decimal.NewNullDecimal(change)
		if prev.IsPositive() {
			out[i].Pct = decimal.NewNullDecimal(change.Mul(hundred).Div(prev))
		}
	}
	return out
}

// Average is a trailing moving average and the number of rows it covers.
type Average struct {
	Value      decimal.Decimal
	WindowSize int
}

// MovingAverage averages each value with up to window-1 preceding values.
// The first window-1 positions use the shorter window that is available.
func MovingAverage(values []decimal.Decimal, window int) []Average {
	if window < 1 {
		window = 1
	}
	out := make([]Average, len(values))
	sum := decimal.Zero
	for i, v := range values {
		sum = sum.Add(v)
		if i >= window {
			sum = sum.Sub(values[i-window])
		}
		size := min(i+1, window)
		out[i] = Average{
			Value:      sum.Div(decimal.NewFromInt(int64(size))),
			WindowSize: size,
		}
	}
	return out
}

// CumulativeSum returns the running total up to and including each position.
func CumulativeSum(values []decimal.Decimal) []decimal.Decimal {
	out := make([]decimal.Decimal, len(values))
	total := decimal.Zero
	for i, v := range values {
		total = total.Add(v)
		out[i] = total
	}
	return out
}

// Deteriorated flags positions whose value is strictly below the previous one.
func Deteriorated(values []decimal.Decimal) []bool {
	out := make([]bool, len(values))
	for i := 1; i < len(values); i++ {
		out[i] = values[i].LessThan(values[i-1])
	}
	return out
}

// RecoveryRate is repayment as a percentage of balance. A zero balance
// yields a rate of exactly zero rather than an undefined value.
func RecoveryRate(repayment, balance decimal.Decimal) decimal.Decimal {
	if !balance.IsPositive() {
		return decimal.Zero
	}
	return repayment.Mul(hundred).Div(balance)
}
