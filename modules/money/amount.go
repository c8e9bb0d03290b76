// Package money holds the fixed-point amount type used for fines, bail and
// redemption prices. Coin amounts carry exactly eight decimal places.
package money

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// Scale is the number of decimal places kept for every amount.
const Scale = 8

// Amount is a Coin amount in units of 10^-8.
type Amount int64

var (
	ErrInvalidAmount = errors.New("invalid amount")
	ErrOutOfRange    = fmt.Errorf("%w: out of range", ErrInvalidAmount)
)

var (
	maxUnits = decimal.NewFromInt(math.MaxInt64)
	minUnits = decimal.NewFromInt(math.MinInt64)
)

// FromFloat converts a user supplied value, truncating toward zero.
func FromFloat(v float64) (Amount, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, ErrInvalidAmount
	}
	return FromDecimal(decimal.NewFromFloat(v))
}

// FromDecimal truncates d to eight decimals. Values that do not fit in an
// Amount are rejected with ErrOutOfRange.
func FromDecimal(d decimal.Decimal) (Amount, error) {
	units := d.Truncate(Scale).Shift(Scale)
	if units.GreaterThan(maxUnits) || units.LessThan(minUnits) {
		return 0, ErrOutOfRange
	}
	return Amount(units.IntPart()), nil
}

// Parse reads a decimal string such as "12.5" or "0.00000001".
func Parse(s string) (Amount, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return 0, ErrInvalidAmount
	}
	return FromDecimal(d)
}

func (a Amount) Decimal() decimal.Decimal {
	return decimal.New(int64(a), -Scale)
}

func (a Amount) String() string {
	return a.Decimal().String()
}

func (a Amount) Positive() bool {
	return a > 0
}

// Percent returns p percent of a, truncated to the unit. p must be within
// [0, 100].
func (a Amount) Percent(p int64) Amount {
	return a/100*Amount(p) + a%100*Amount(p)/100
}

// Add returns a+b, or ErrOutOfRange when the sum does not fit.
func (a Amount) Add(b Amount) (Amount, error) {
	if (b > 0 && a > math.MaxInt64-b) || (b < 0 && a < math.MinInt64-b) {
		return 0, ErrOutOfRange
	}
	return a + b, nil
}

func Sum(amounts ...Amount) (Amount, error) {
	var total Amount
	for _, a := range amounts {
		var err error
		if total, err = total.Add(a); err != nil {
			return 0, err
		}
	}
	return total, nil
}
