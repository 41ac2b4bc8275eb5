package types

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestMoneyArithmetic(t *testing.T) {
	tests := []struct {
		name     string
		op       func() Money
		expected Money
	}{
		{"Add", func() Money { return NGN(100).Add(NGN(200)) }, NGN(300)},
		{"Subtract", func() Money { return NGN(500).Subtract(NGN(200)) }, NGN(300)},
		{"Multiply", func() Money { return NGN(5000).Multiply(3) }, NGN(15000)},
		{"Multiply by zero", func() Money { return NGN(5000).Multiply(0) }, NGN(0)},
		{"Complex", func() Money {
			return NGN(1000).Add(NGN(500)).Multiply(2).Subtract(NGN(1000))
		}, NGN(2000)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := tt.op()
			if !result.Equal(tt.expected) {
				t.Errorf("Got %v, want %v", result, tt.expected)
			}
		})
	}
}

func TestMoneySaturates(t *testing.T) {
	tests := []struct {
		name     string
		op       func() Money
		expected int64
	}{
		{"Multiply past int64", func() Money { return NGN(10_000_000_000_000).Multiply(1_000_000_000) }, MaxAmount},
		{"Multiply negative", func() Money { return NGN(-MaxAmount).Multiply(2) }, -MaxAmount},
		{"Multiply at the edge", func() Money { return NGN(MaxAmount).Multiply(1) }, MaxAmount},
		{"Add", func() Money { return NGN(MaxAmount).Add(NGN(1)) }, MaxAmount},
		{"Add past int64", func() Money { return NGN(math.MaxInt64).Add(NGN(math.MaxInt64)) }, MaxAmount},
		{"Subtract", func() Money { return NGN(-MaxAmount).Subtract(NGN(5)) }, -MaxAmount},
		{"Percent", func() Money { return NGN(MaxAmount).Percent(decimal.NewFromInt(200)) }, MaxAmount},
		{"FromDecimal", func() Money { return FromDecimal(decimal.RequireFromString("1e30"), "ngn") }, MaxAmount},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.op().Amount; got != tt.expected {
				t.Errorf("Got %d, want %d", got, tt.expected)
			}
		})
	}
}

func TestMoneyCurrencyMismatch(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("Expected panic for currency mismatch")
		}
	}()

	// This should panic
	_ = NGN(100).Add(Zero("usd"))
}

func TestMoneyPercent(t *testing.T) {
	tests := []struct {
		name     string
		money    Money
		rate     string
		expected Money
	}{
		{"VAT on 2000", NGN(200000), "7.5", NGN(15000)},
		{"Zero rate", NGN(200000), "0", NGN(0)},
		{"Zero base", NGN(0), "7.5", NGN(0)},
		{"Half rounds up", NGN(10), "5", NGN(1)},          // 0.5 kobo
		{"Above half", NGN(13), "7.5", NGN(1)},            // 0.975 kobo
		{"Below half", NGN(6), "7.5", NGN(0)},             // 0.45 kobo
		{"Over hundred", NGN(100), "150", NGN(150)},       // surcharge-style rates
		{"Fractional", NGN(123456), "12.25", NGN(15123)}, // 15123.36 kobo
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.money.Percent(decimal.RequireFromString(tt.rate))
			if !got.Equal(tt.expected) {
				t.Errorf("Percent(%s): got %d, want %d", tt.rate, got.Amount, tt.expected.Amount)
			}
		})
	}
}

func TestMoneyPredicates(t *testing.T) {
	tests := []struct {
		name       string
		money      Money
		isZero     bool
		isPositive bool
		isNegative bool
	}{
		{"Zero", NGN(0), true, false, false},
		{"Positive", NGN(100), false, true, false},
		{"Negative", NGN(-100), false, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.money.IsZero(); got != tt.isZero {
				t.Errorf("IsZero: got %v, want %v", got, tt.isZero)
			}
			if got := tt.money.IsPositive(); got != tt.isPositive {
				t.Errorf("IsPositive: got %v, want %v", got, tt.isPositive)
			}
			if got := tt.money.IsNegative(); got != tt.isNegative {
				t.Errorf("IsNegative: got %v, want %v", got, tt.isNegative)
			}
		})
	}
}

func TestMoneyFormatting(t *testing.T) {
	tests := []struct {
		money   Money
		major   string
		grouped string
		display string
	}{
		{NGN(215000), "2150.00", "2,150.00", "₦2,150.00"},
		{NGN(100), "1.00", "1.00", "₦1.00"},
		{NGN(1), "0.01", "0.01", "₦0.01"},
		{NGN(0), "0.00", "0.00", "₦0.00"},
		{NGN(-123456789), "-1234567.89", "-1,234,567.89", "₦-1,234,567.89"},
		{NGN(100000000), "1000000.00", "1,000,000.00", "₦1,000,000.00"},
		{Zero("usd").Add(Money{Amount: 4900, Currency: "usd"}), "49.00", "49.00", "USD 49.00"},
	}

	for _, tt := range tests {
		t.Run(tt.major, func(t *testing.T) {
			if got := tt.money.FormatMajor(); got != tt.major {
				t.Errorf("FormatMajor: got %s, want %s", got, tt.major)
			}
			if got := tt.money.FormatGrouped(); got != tt.grouped {
				t.Errorf("FormatGrouped: got %s, want %s", got, tt.grouped)
			}
			if got := tt.money.String(); got != tt.display {
				t.Errorf("String: got %s, want %s", got, tt.display)
			}
		})
	}
}

func TestParseMajor(t *testing.T) {
	tests := []struct {
		input   string
		want    Money
		wantErr bool
	}{
		{"1000", NGN(100000), false},
		{"1,250.50", NGN(125050), false},
		{" 0.005 ", NGN(1), false},
		{"12.344", NGN(1234), false},
		{"", NGN(0), true},
		{"abc", NGN(0), true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseMajor(tt.input, "ngn")
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseMajor(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if !got.Equal(tt.want) {
				t.Errorf("ParseMajor(%q) = %d, want %d", tt.input, got.Amount, tt.want.Amount)
			}
		})
	}
}

func TestMoneyDecimal(t *testing.T) {
	if got := NGN(123456).Decimal().String(); got != "1234.56" {
		t.Errorf("Decimal: got %s, want 1234.56", got)
	}
	if got := FromDecimal(decimal.RequireFromString("1234.56"), "NGN"); !got.Equal(NGN(123456)) {
		t.Errorf("FromDecimal: got %+v", got)
	}
}

func TestMoneyJSON(t *testing.T) {
	m := NGN(215000)

	data, err := json.Marshal(m)
	if err != nil {
		t.Fatalf("Marshal error: %v", err)
	}

	expected := `{"amount":215000,"currency":"ngn","display":"₦2,150.00"}`
	if string(data) != expected {
		t.Errorf("JSON: got %s, want %s", string(data), expected)
	}

	var restored Money
	if err := json.Unmarshal(data, &restored); err != nil {
		t.Fatalf("Unmarshal error: %v", err)
	}
	if !restored.Equal(m) {
		t.Errorf("Unmarshaled data incorrect: %+v", restored)
	}
}

func TestSum(t *testing.T) {
	tests := []struct {
		name     string
		values   []Money
		expected Money
	}{
		{"Empty", []Money{}, Zero("ngn")},
		{"Single", []Money{NGN(100)}, NGN(100)},
		{"Multiple", []Money{NGN(100), NGN(200), NGN(300)}, NGN(600)},
		{"All zero", []Money{NGN(0), NGN(0), NGN(0)}, NGN(0)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Sum("ngn", tt.values...)
			if !result.Equal(tt.expected) {
				t.Errorf("Sum: got %v, want %v", result, tt.expected)
			}
		})
	}
}

func TestEntityStaleness(t *testing.T) {
	opened := time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)
	e := NewEntity(opened)

	if e.IsStale(opened.Add(10*time.Minute), 30*time.Minute) {
		t.Error("entity should not be stale inside ttl")
	}
	if !e.IsStale(opened.Add(31*time.Minute), 30*time.Minute) {
		t.Error("entity should be stale after ttl")
	}

	e.Touch(opened.Add(20 * time.Minute))
	if e.IsStale(opened.Add(31*time.Minute), 30*time.Minute) {
		t.Error("touch should reset idle time")
	}
	if e.IsStale(opened.Add(1000*time.Hour), 0) {
		t.Error("zero ttl should never expire")
	}
}

func BenchmarkMoneyString(b *testing.B) {
	m := NGN(123456789)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = m.String()
	}
}
