// Package words spells monetary amounts in English long form, the way they
// are written on the "amount in words" line of an invoice.
//
//	words.Amount(decimal.RequireFromString("1234.56"))
//	// One Thousand Two Hundred and Thirty Four Naira and Fifty Six Kobo Only
//
// Conversion is pure and deterministic. Amounts are rounded half-up to two
// decimal places before they are split into whole and fractional units.
package words

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Units names the major and minor unit of a currency.
type Units struct {
	Major string
	Minor string
}

// Naira is the default unit pair.
var Naira = Units{Major: "Naira", Minor: "Kobo"}

var ones = [20]string{
	"", "One", "Two", "Three", "Four", "Five", "Six", "Seven", "Eight", "Nine",
	"Ten", "Eleven", "Twelve", "Thirteen", "Fourteen", "Fifteen", "Sixteen",
	"Seventeen", "Eighteen", "Nineteen",
}

var tens = [10]string{
	"", "", "Twenty", "Thirty", "Forty", "Fifty", "Sixty", "Seventy", "Eighty", "Ninety",
}

// magnitudes is ordered largest first.
var magnitudes = []struct {
	value int64
	name  string
}{
	{1_000_000_000, "Billion"},
	{1_000_000, "Million"},
	{1_000, "Thousand"},
}

var hundred = decimal.NewFromInt(100)

// Amount spells d in Naira and Kobo.
func Amount(d decimal.Decimal) string {
	return AmountIn(d, Naira)
}

// AmountIn spells d using the given unit names. Negative amounts are
// prefixed with "Minus".
func AmountIn(d decimal.Decimal, u Units) string {
	d = d.Round(2)
	if d.IsZero() {
		return "Zero " + u.Major + " Only"
	}

	var b strings.Builder
	if d.IsNegative() {
		b.WriteString("Minus ")
		d = d.Neg()
	}

	whole := d.IntPart()
	cents := d.Sub(decimal.NewFromInt(whole)).Mul(hundred).IntPart()

	if whole == 0 {
		b.WriteString("Zero")
	} else {
		b.WriteString(Number(whole))
	}
	b.WriteString(" ")
	b.WriteString(u.Major)

	if cents != 0 {
		b.WriteString(" and ")
		b.WriteString(Number(cents))
		b.WriteString(" ")
		b.WriteString(u.Minor)
	}

	b.WriteString(" Only")
	return b.String()
}

// Number spells a non-negative integer. Zero yields an empty string, so
// callers decide how a bare zero reads. Negative input is spelled by its
// absolute value.
func Number(n int64) string {
	if n < 0 {
		n = -n
	}
	return spell(n)
}

func spell(n int64) string {
	switch {
	case n < 20:
		return ones[n]
	case n < 100:
		return join(tens[n/10], ones[n%10], " ")
	case n < 1000:
		rest := n % 100
		if rest == 0 {
			return ones[n/100] + " Hundred"
		}
		return ones[n/100] + " Hundred and " + spell(rest)
	}

	for _, m := range magnitudes {
		if n >= m.value {
			return join(spell(n/m.value)+" "+m.name, spell(n%m.value), " ")
		}
	}
	return ""
}

func join(head, tail, sep string) string {
	if tail == "" {
		return head
	}
	return head + sep + tail
}
