package input

import (
	"bytes"
	"encoding/json"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/xraph/invoicer/types"
)

// Value is a raw numeric form value. It decodes from a JSON or YAML number
// or string and never fails on content: whatever arrives is kept as text and
// normalized on read.
type Value string

// UnmarshalJSON accepts numbers, strings and null.
func (v *Value) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*v = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = Value(s)
		return nil
	}
	*v = Value(data)
	return nil
}

// MarshalJSON encodes the raw text as a JSON string.
func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(v))
}

// UnmarshalYAML accepts any scalar.
func (v *Value) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		*v = ""
		return nil
	}
	*v = Value(node.Value)
	return nil
}

// String returns the raw text.
func (v Value) String() string { return string(v) }

// Quantity normalizes v with Quantity.
func (v Value) Quantity() int64 { return Quantity(string(v)) }

// Rate normalizes v with Rate.
func (v Value) Rate(currency string) types.Money { return Rate(string(v), currency) }

// Percent normalizes v with Percent.
func (v Value) Percent() decimal.Decimal { return Percent(string(v)) }
