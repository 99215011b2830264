// Package core provides money and quantity parsing utilities.
//
// Amounts are stored as integer cents; quantities keep arbitrary decimal
// precision so "2,5" kilos survive a round trip.
package core

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// ParseDecimalToCents converts a decimal string to cents with half-up rounding.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators.
// Signed, zero and malformed values return ErrInvalidAmount.
//
// Examples:
//
//	ParseDecimalToCents("12.34")  -> 1234, nil
//	ParseDecimalToCents("12,345") -> 1235, nil
//	ParseDecimalToCents("300")    -> 30000, nil
func ParseDecimalToCents(s string) (int64, error) {
	d, err := parseUnsignedDecimal(s)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	cents := d.Mul(hundred).Round(0)
	if !cents.IsPositive() || !cents.IsInteger() {
		return 0, ErrInvalidAmount
	}
	// Reject values that do not fit in int64 cents.
	if cents.GreaterThan(decimal.NewFromInt(int64(^uint64(0) >> 1))) {
		return 0, ErrInvalidAmount
	}
	return cents.IntPart(), nil
}

// ParseQuantity parses a spoken or typed quantity. Empty input means one unit.
func ParseQuantity(s string) (decimal.Decimal, error) {
	if strings.TrimSpace(s) == "" {
		return decimal.NewFromInt(1), nil
	}
	d, err := parseUnsignedDecimal(s)
	if err != nil || !d.IsPositive() {
		return decimal.Zero, ErrInvalidQuantity
	}
	return d, nil
}

func parseUnsignedDecimal(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return decimal.Zero, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	if strings.Count(s, ".") > 1 || strings.ContainsAny(s, "eE") {
		return decimal.Zero, ErrInvalidAmount
	}
	if strings.HasPrefix(s, ".") {
		s = "0" + s
	}
	return decimal.NewFromString(s)
}

// Euros returns the amount as a decimal number of euros.
func (m Money) Euros() decimal.Decimal {
	return decimal.New(m.Cents, -2)
}

// String formats the amount with a comma decimal separator, e.g. "12,34".
func (m Money) String() string {
	neg := m.Cents < 0
	cents := m.Cents
	if neg {
		cents = -cents
	}
	s := strconv.FormatInt(cents/100, 10) + "," + leftPad2(cents%100)
	if neg {
		return "-" + s
	}
	return s
}

func leftPad2(v int64) string {
	if v < 10 {
		return "0" + strconv.FormatInt(v, 10)
	}
	return strconv.FormatInt(v, 10)
}
