// Package core holds the dashboard's data model and aggregation logic.
//
// This file contains functions for parsing monetary amounts from workbook
// cells and formatting cents for display.
package core

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// ParseAmountToCents converts a workbook cell to cents with half-up
// rounding on the third decimal place.
//
// It tolerates the formats spreadsheet exports produce: an optional leading
// dollar sign, thousands-separator commas, and surrounding whitespace.
// Amounts are monetary values and must be non-negative; an empty cell is
// zero (missing optional columns default to zero).
//
// Examples:
//
//	ParseAmountToCents("1234.56")   -> 123456, nil
//	ParseAmountToCents("$1,234.56") -> 123456, nil
//	ParseAmountToCents("")          -> 0, nil
//	ParseAmountToCents("-5")        -> 0, ErrNegativeAmount
func ParseAmountToCents(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	if strings.HasPrefix(s, "-") || strings.HasPrefix(s, "($") {
		return 0, ErrNegativeAmount
	}
	s = strings.TrimPrefix(s, "$")
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidAmount
	}

	parts := strings.Split(s, ".")
	if len(parts) > 2 {
		return 0, ErrInvalidAmount
	}
	intPart := parts[0]
	fracPart := ""
	if len(parts) == 2 {
		fracPart = parts[1]
	}
	if intPart == "" {
		intPart = "0"
	}
	for _, r := range intPart {
		if !unicode.IsDigit(r) {
			return 0, ErrInvalidAmount
		}
	}
	for _, r := range fracPart {
		if !unicode.IsDigit(r) {
			return 0, ErrInvalidAmount
		}
	}

	iv, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	const maxSafeInt64 = (1<<63 - 1) / 100
	if iv > maxSafeInt64 {
		return 0, ErrInvalidAmount
	}
	// Take first two fractional digits; half-up rounding on the third.
	var fracCents int64
	if len(fracPart) > 0 {
		d1 := int64(fracPart[0] - '0')
		fracCents = d1 * 10
		if len(fracPart) > 1 {
			d2 := int64(fracPart[1] - '0')
			fracCents += d2
			if len(fracPart) > 2 && fracPart[2] >= '5' {
				fracCents++
			}
		}
	}
	return iv*100 + fracCents, nil
}

// Dollars returns the dollar value as a float64 for chart scaling.
// Use cents for arithmetic to avoid floating-point drift.
func (m Money) Dollars() float64 {
	return float64(m.Cents) / 100.0
}

// Add returns the sum of two amounts.
func (m Money) Add(o Money) Money {
	return Money{Cents: m.Cents + o.Cents}
}

// Sub returns the difference m - o. The result may be negative (net
// income below zero is a meaningful display state).
func (m Money) Sub(o Money) Money {
	return Money{Cents: m.Cents - o.Cents}
}

// FormatUSD renders whole dollars with thousands separators, matching the
// dashboard's display convention ("$1,234"; cents are shown only in
// detail tables).
func FormatUSD(cents int64) string {
	neg := cents < 0
	if neg {
		cents = -cents
	}
	// Round to whole dollars, half up.
	dollars := (cents + 50) / 100
	s := strconv.FormatInt(dollars, 10)
	var b strings.Builder
	pre := len(s) % 3
	if pre > 0 {
		b.WriteString(s[:pre])
	}
	for i := pre; i < len(s); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(s[i : i+3])
	}
	if neg {
		return "-$" + b.String()
	}
	return "$" + b.String()
}

// FormatUSDExact renders dollars and cents, e.g. "$1,234.56".
func FormatUSDExact(cents int64) string {
	neg := cents < 0
	if neg {
		cents = -cents
	}
	whole := FormatUSD(cents / 100 * 100)
	out := fmt.Sprintf("%s.%02d", whole, cents%100)
	if neg {
		return "-" + out
	}
	return out
}

// FormatPercent renders a percentage with one decimal, e.g. "7.8%".
func FormatPercent(pct float64) string {
	return strconv.FormatFloat(pct, 'f', 1, 64) + "%"
}

// FormatCount renders a unitless goal value with thousands separators.
func FormatCount(v float64) string {
	s := strconv.FormatInt(int64(v+0.5), 10)
	var b strings.Builder
	pre := len(s) % 3
	if pre > 0 {
		b.WriteString(s[:pre])
	}
	for i := pre; i < len(s); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(s[i : i+3])
	}
	return b.String()
}
