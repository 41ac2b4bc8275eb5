// Package input normalizes raw form values before they reach a ledger.Manager.
//
// Numeric fields are forgiving: a leading number is taken and anything
// unparsable becomes zero, the way a form field left half-typed behaves.
// Negative quantities, rates and percentages are clamped to zero.
package input

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/xraph/invoicer/document"
	"github.com/xraph/invoicer/types"
)

// ErrInvalidDate is returned by Date for values in no accepted layout.
var ErrInvalidDate = errors.New("input: invalid date")

// DateLayouts are tried in order by Date.
var DateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02T15:04",
	"02/01/2006",
}

var maxQuantity = decimal.NewFromInt(document.MaxQuantity)

// Quantity parses a whole quantity. "3.7" is 3, "12 boxes" is 12, garbage
// and negatives are 0. Values above document.MaxQuantity are clamped to it.
func Quantity(s string) int64 {
	d := leadingDecimal(s)
	switch {
	case d.IsNegative():
		return 0
	case d.GreaterThan(maxQuantity):
		return document.MaxQuantity
	}
	return d.IntPart()
}

// Rate parses a major-unit price such as "1,250.50" into Money. Garbage and
// negatives are zero; values beyond types.MaxAmount are clamped to it.
func Rate(s, currency string) types.Money {
	d := leadingDecimal(s)
	if d.IsNegative() {
		return types.Zero(currency)
	}
	return types.FromDecimal(d, currency)
}

// Percent parses a percentage such as "7.5". Garbage and negatives are 0.
func Percent(s string) decimal.Decimal {
	d := leadingDecimal(s)
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}

// Date parses a date in one of DateLayouts. Date-only values are midnight
// UTC.
func Date(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range DateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
}

// leadingDecimal returns the longest numeric prefix of s, ignoring
// thousands separators. No numeric prefix yields zero.
func leadingDecimal(s string) decimal.Decimal {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")

	end, digits, dot := 0, 0, false
	if end < len(s) && (s[end] == '-' || s[end] == '+') {
		end++
	}
scan:
	for ; end < len(s); end++ {
		switch c := s[end]; {
		case c >= '0' && c <= '9':
			digits++
		case c == '.' && !dot:
			dot = true
		default:
			break scan
		}
	}
	if digits == 0 {
		return decimal.Zero
	}
	num := strings.TrimPrefix(strings.TrimSuffix(s[:end], "."), "+")
	d, err := decimal.NewFromString(num)
	if err != nil {
		return decimal.Zero
	}
	return d
}
