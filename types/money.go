// Package types provides common types used across invoicer.
package types

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Money represents a monetary value in the smallest currency unit.
// Line arithmetic is integer-only; percentages go through decimal and are
// rounded back to the minor unit.
//
// Examples:
//   - NGN(215000) = ₦2,150.00 (215000 kobo)
//   - NGN(5) = ₦0.05
type Money struct {
	Amount   int64  `json:"amount"`   // Smallest unit (kobo)
	Currency string `json:"currency"` // ISO 4217 lowercase: "ngn"
}

// Currency describes how a currency is named and displayed.
type Currency struct {
	Code     string `json:"code" yaml:"code"`
	Symbol   string `json:"symbol" yaml:"symbol"`
	Major    string `json:"major" yaml:"major"` // "Naira"
	Minor    string `json:"minor" yaml:"minor"` // "Kobo"
	Decimals int    `json:"decimals" yaml:"decimals"`
}

// MaxAmount is the largest magnitude a Money value holds in minor units:
// 999,999,999,999.99 in a two-decimal currency. Arithmetic and conversions
// saturate at ±MaxAmount instead of wrapping.
const MaxAmount int64 = 99_999_999_999_999

var maxAmount = decimal.NewFromInt(MaxAmount)

// Naira is the only currency documents are issued in.
var Naira = Currency{
	Code:     "ngn",
	Symbol:   "₦",
	Major:    "Naira",
	Minor:    "Kobo",
	Decimals: 2,
}

// NGN creates a Money value in Nigerian Naira (kobo).
func NGN(kobo int64) Money { return Money{Amount: kobo, Currency: Naira.Code} }

// Zero returns a zero Money value in the specified currency.
func Zero(currency string) Money { return Money{Amount: 0, Currency: strings.ToLower(currency)} }

// FromDecimal converts a major-unit decimal (e.g. 1234.56) into Money,
// rounding half-up to the minor unit.
func FromDecimal(d decimal.Decimal, currency string) Money {
	decimals := currencyDecimals(currency)
	minor := d.Shift(int32(decimals)).Round(0)
	return Money{Amount: bounded(minor), Currency: strings.ToLower(currency)}
}

// ParseMajor parses a major-unit string such as "1,250.50" into Money.
func ParseMajor(s, currency string) (Money, error) {
	clean := strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	d, err := decimal.NewFromString(clean)
	if err != nil {
		return Zero(currency), fmt.Errorf("money: parse %q: %w", s, err)
	}
	return FromDecimal(d, currency), nil
}

// Arithmetic operations

// Add adds two Money values, saturating at ±MaxAmount. Panics if currencies
// don't match.
func (m Money) Add(other Money) Money {
	m.assertSameCurrency(other)
	sum := decimal.NewFromInt(m.Amount).Add(decimal.NewFromInt(other.Amount))
	return Money{Amount: bounded(sum), Currency: m.Currency}
}

// Subtract subtracts another Money value. Panics if currencies don't match.
func (m Money) Subtract(other Money) Money {
	m.assertSameCurrency(other)
	diff := decimal.NewFromInt(m.Amount).Sub(decimal.NewFromInt(other.Amount))
	return Money{Amount: bounded(diff), Currency: m.Currency}
}

// Multiply multiplies the Money by a quantity, saturating at ±MaxAmount.
func (m Money) Multiply(qty int64) Money {
	product := decimal.NewFromInt(m.Amount).Mul(decimal.NewFromInt(qty))
	return Money{Amount: bounded(product), Currency: m.Currency}
}

// Percent returns rate percent of m, rounded half-up to the minor unit.
// Percent(7.5) of NGN(200000) is NGN(15000).
func (m Money) Percent(rate decimal.Decimal) Money {
	v := decimal.NewFromInt(m.Amount).Mul(rate).Div(decimal.NewFromInt(100)).Round(0)
	return Money{Amount: bounded(v), Currency: m.Currency}
}

// Decimal returns the value in major units.
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(m.Amount, -int32(currencyDecimals(m.Currency)))
}

// Comparison methods

// IsZero returns true if the amount is zero.
func (m Money) IsZero() bool { return m.Amount == 0 }

// IsPositive returns true if the amount is greater than zero.
func (m Money) IsPositive() bool { return m.Amount > 0 }

// IsNegative returns true if the amount is less than zero.
func (m Money) IsNegative() bool { return m.Amount < 0 }

// Equal returns true if both Money values are equal (same amount and currency).
func (m Money) Equal(other Money) bool {
	return m.Amount == other.Amount && m.Currency == other.Currency
}

// Formatting methods

// FormatMajor returns the major unit string without currency symbol,
// e.g. "2150.00" for NGN(215000).
func (m Money) FormatMajor() string {
	major, minor, negative := m.split()
	decimals := currencyDecimals(m.Currency)
	result := fmt.Sprintf("%d", major)
	if decimals > 0 {
		result += fmt.Sprintf(".%0*d", decimals, minor)
	}
	if negative {
		return "-" + result
	}
	return result
}

// FormatGrouped is FormatMajor with thousands separators: "2,150.00".
func (m Money) FormatGrouped() string {
	major, minor, negative := m.split()
	digits := fmt.Sprintf("%d", major)

	var b strings.Builder
	if negative {
		b.WriteByte('-')
	}
	lead := len(digits) % 3
	if lead == 0 {
		lead = 3
	}
	b.WriteString(digits[:lead])
	for i := lead; i < len(digits); i += 3 {
		b.WriteByte(',')
		b.WriteString(digits[i : i+3])
	}
	if decimals := currencyDecimals(m.Currency); decimals > 0 {
		fmt.Fprintf(&b, ".%0*d", decimals, minor)
	}
	return b.String()
}

// String returns a human-readable string with currency symbol.
// Example: "₦2,150.00"
func (m Money) String() string {
	return currencySymbol(m.Currency) + m.FormatGrouped()
}

// MarshalJSON implements json.Marshaler.
func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Amount   int64  `json:"amount"`
		Currency string `json:"currency"`
		Display  string `json:"display"`
	}{
		Amount:   m.Amount,
		Currency: m.Currency,
		Display:  m.String(),
	})
}

// UnmarshalJSON implements json.Unmarshaler. The display field is ignored.
func (m *Money) UnmarshalJSON(data []byte) error {
	var raw struct {
		Amount   int64  `json:"amount"`
		Currency string `json:"currency"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	m.Amount = raw.Amount
	m.Currency = strings.ToLower(raw.Currency)
	return nil
}

// Helper functions

func (m Money) split() (major, minor int64, negative bool) {
	abs := m.Amount
	if abs < 0 {
		abs = -abs
		negative = true
	}
	divisor := int64(1)
	for i := 0; i < currencyDecimals(m.Currency); i++ {
		divisor *= 10
	}
	return abs / divisor, abs % divisor, negative
}

// bounded converts a whole number of minor units to int64, clamped to
// ±MaxAmount.
func bounded(d decimal.Decimal) int64 {
	switch {
	case d.GreaterThan(maxAmount):
		return MaxAmount
	case d.LessThan(maxAmount.Neg()):
		return -MaxAmount
	}
	return d.IntPart()
}

// assertSameCurrency panics if currencies don't match.
func (m Money) assertSameCurrency(other Money) {
	if m.Currency != other.Currency {
		panic(fmt.Sprintf("money: currency mismatch: %s != %s", m.Currency, other.Currency))
	}
}

// currencySymbol returns the symbol for a currency code.
func currencySymbol(currency string) string {
	if strings.EqualFold(currency, Naira.Code) {
		return Naira.Symbol
	}
	return strings.ToUpper(currency) + " "
}

// currencyDecimals returns the number of decimal places for a currency.
func currencyDecimals(currency string) int {
	if strings.EqualFold(currency, Naira.Code) {
		return Naira.Decimals
	}
	return 2
}

// Sum calculates the sum of multiple Money values. All must have the same currency.
func Sum(currency string, values ...Money) Money {
	result := Zero(currency)
	for _, v := range values {
		result = result.Add(v)
	}
	return result
}
