package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// ParseAmountToCents converts a decimal amount string into integer cents.
// Both dot and comma decimal separators are accepted; the third decimal
// place rounds half-up. Amounts must be strictly positive.
func ParseAmountToCents(s string) (int64, error) {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", "."))
	if s == "" {
		return 0, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	if d.Sign() <= 0 {
		return 0, ErrInvalidAmount
	}
	cents := d.Shift(2).Round(0)
	if !cents.IsInteger() || cents.Exponent() < 0 {
		return 0, ErrInvalidAmount
	}
	return cents.IntPart(), nil
}

// ConvertToReference converts an amount in cents to the workspace's
// reference currency using the given exchange rate, rounding half-up.
// A rate of 1 (or the zero value) leaves the amount unchanged.
func ConvertToReference(cents int64, rate decimal.Decimal) int64 {
	if rate.IsZero() || rate.Equal(decimal.NewFromInt(1)) {
		return cents
	}
	return decimal.NewFromInt(cents).Mul(rate).Round(0).IntPart()
}
