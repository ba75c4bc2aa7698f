// Package core provides money parsing and handling utilities.
//
// This file contains the decimal-backed Money type used for payment amounts
// and the parser that turns user input into it.
package core

import (
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

// Money is a non-negative decimal amount in the payee's single currency.
type Money struct {
	Value decimal.Decimal
}

// MoneyFromInt returns a whole-unit amount.
func MoneyFromInt(units int64) Money {
	return Money{Value: decimal.NewFromInt(units)}
}

// MoneyFromFloat converts a float hint (e.g. from receipt extraction).
func MoneyFromFloat(f float64) Money {
	return Money{Value: decimal.NewFromFloat(f)}
}

// ParseMoney converts a decimal string to Money.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators. When both
// appear, the last one is the decimal separator and the other groups
// thousands (1.234,56 or 1,234.56). A lone separator followed by exactly
// three digits groups thousands too (1.234 and 1,234 are both 1234). Signs are rejected: amounts are never
// negative.
//
// Examples:
//
//	ParseMoney("2500")      -> 2500
//	ParseMoney("12,34")     -> 12.34
//	ParseMoney("1.234,56")  -> 1234.56
//	ParseMoney("1.234")     -> 1234
//	ParseMoney("$2,500.00") -> 2500
func ParseMoney(s string) (Money, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "$")
	s = strings.TrimSpace(s)
	if s == "" {
		return Money{}, ErrInvalidAmount
	}
	for _, r := range s {
		if !unicode.IsDigit(r) && r != '.' && r != ',' {
			return Money{}, ErrInvalidAmount
		}
	}

	lastDot := strings.LastIndex(s, ".")
	lastComma := strings.LastIndex(s, ",")
	switch {
	case lastDot >= 0 && lastComma >= 0:
		if lastComma > lastDot {
			s = strings.ReplaceAll(s, ".", "")
			s = strings.Replace(s, ",", ".", 1)
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	case lastComma >= 0:
		if strings.Count(s, ",") > 1 || groupsThousands(s, lastComma) {
			s = strings.ReplaceAll(s, ",", "")
		} else {
			s = strings.Replace(s, ",", ".", 1)
		}
	case lastDot >= 0:
		if strings.Count(s, ".") > 1 || groupsThousands(s, lastDot) {
			s = strings.ReplaceAll(s, ".", "")
		}
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, ErrInvalidAmount
	}
	if d.IsNegative() {
		return Money{}, ErrInvalidAmount
	}
	return Money{Value: d}, nil
}

// groupsThousands reports whether the lone separator at i is followed by
// exactly three digits after a non-zero integer part, as in 2,500 or 1.234.
func groupsThousands(s string, i int) bool {
	return len(s)-i-1 == 3 && i > 0 && s[:i] != "0"
}

// Validate requires a strictly positive amount (used for expected amounts).
func (m Money) Validate() error {
	if !m.Value.IsPositive() {
		return ErrInvalidAmount
	}
	return nil
}

func (m Money) IsZero() bool     { return m.Value.IsZero() }
func (m Money) IsNegative() bool { return m.Value.IsNegative() }

func (m Money) Add(o Money) Money {
	return Money{Value: m.Value.Add(o.Value)}
}

// Times multiplies the amount by a count, e.g. expected amount per payday.
func (m Money) Times(n int) Money {
	return Money{Value: m.Value.Mul(decimal.NewFromInt(int64(n)))}
}

func (m Money) Equal(o Money) bool { return m.Value.Equal(o.Value) }

// Float64 returns the value for display purposes only.
func (m Money) Float64() float64 {
	f, _ := m.Value.Float64()
	return f
}

// String renders the amount with two decimals, e.g. "2500.00".
func (m Money) String() string {
	return m.Value.StringFixed(2)
}

// MarshalJSON renders the amount as a bare JSON number, the format the
// stored ledgers have always used.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.Value.String()), nil
}

// UnmarshalJSON accepts both bare numbers and quoted decimal strings.
func (m *Money) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*m = Money{}
		return nil
	}
	var d decimal.Decimal
	if err := d.UnmarshalJSON(b); err != nil {
		return ErrInvalidAmount
	}
	*m = Money{Value: d}
	return nil
}
