// Package core provides money parsing and handling utilities.
//
// Amounts are held as integer cents so totals, payments and balances
// subtract exactly. Text input goes through shopspring/decimal.
package core

import (
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

var maxCents = decimal.NewFromInt(math.MaxInt64)

const rupee = "₹"

// ParseAmount converts a decimal string to Money with half-up rounding to cents.
//
// The dot is the decimal separator. Commas group thousands and are ignored,
// as is a leading rupee sign, so ParseAmount reads back what Money.String
// prints. Zero is a valid amount; negative values return ErrNegativeAmount
// and anything that is not a number returns ErrInvalidAmount.
//
// Examples:
//
//	ParseAmount("500")       -> Money{50000}, nil
//	ParseAmount("1,000")     -> Money{100000}, nil
//	ParseAmount("₹1,234.50") -> Money{123450}, nil
//	ParseAmount("12.345")    -> Money{1235}, nil
//	ParseAmount("-10")       -> Money{}, ErrNegativeAmount
func ParseAmount(s string) (Money, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Money{}, ErrInvalidAmount
	}
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")
	s = strings.TrimSpace(strings.TrimPrefix(s, rupee))
	if strings.HasPrefix(s, ",") || strings.HasSuffix(s, ",") || strings.Contains(s, ",,") {
		return Money{}, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", "")
	if neg {
		s = "-" + s
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, ErrInvalidAmount
	}
	if d.IsNegative() {
		return Money{}, ErrNegativeAmount
	}
	cents := d.Round(2).Shift(2)
	if cents.GreaterThan(maxCents) {
		return Money{}, ErrInvalidAmount
	}
	return Money{Cents: cents.IntPart()}, nil
}

// ParseOptionalAmount is ParseAmount with empty input meaning zero.
func ParseOptionalAmount(s string) (Money, error) {
	if strings.TrimSpace(s) == "" {
		return Money{}, nil
	}
	return ParseAmount(s)
}

// PreviewBalance computes the live balance shown while the payment form is
// being filled in. Unparseable input counts as zero.
func PreviewBalance(total, paid string) Money {
	t, err := ParseAmount(total)
	if err != nil {
		t = Money{}
	}
	p, err := ParseAmount(paid)
	if err != nil {
		p = Money{}
	}
	return t.Sub(p)
}

// Sub returns m - o.
func (m Money) Sub(o Money) Money {
	return Money{Cents: m.Cents - o.Cents}
}

// Add returns m + o.
func (m Money) Add(o Money) Money {
	return Money{Cents: m.Cents + o.Cents}
}

// IsPositive reports whether something is still owed.
func (m Money) IsPositive() bool { return m.Cents > 0 }

// Decimal returns the amount as a decimal in currency units.
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(m.Cents, -2)
}

// String formats the amount as rupees with grouped thousands, e.g. "₹1,234.50".
// Whole amounts drop the fraction: "₹500".
func (m Money) String() string {
	cents := m.Cents
	neg := cents < 0
	if neg {
		cents = -cents
	}
	whole := groupThousands(strconv.FormatInt(cents/100, 10))
	if frac := cents % 100; frac != 0 {
		whole += "." + strconv.FormatInt(frac/10, 10) + strconv.FormatInt(frac%10, 10)
	}
	if neg {
		return "-₹" + whole
	}
	return "₹" + whole
}

func groupThousands(digits string) string {
	if len(digits) <= 3 {
		return digits
	}
	var b strings.Builder
	lead := len(digits) % 3
	if lead > 0 {
		b.WriteString(digits[:lead])
	}
	for i := lead; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}
