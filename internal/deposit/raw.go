package deposit

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Raw is deposit as providers send it: a bare number, a string such as "£1,500" or "5 weeks",
// or an object with amount/fixed/weeks/months/type fields.
type Raw struct {
	Amount   *decimal.Decimal
	Fixed    *decimal.Decimal
	Weeks    *int
	Months   *int
	Type     string
	Currency string
}

type rawObject struct {
	Amount   json.RawMessage `json:"amount"`
	Value    json.RawMessage `json:"value"`
	Fixed    json.RawMessage `json:"fixed"`
	Weeks    json.RawMessage `json:"weeks"`
	Months   json.RawMessage `json:"months"`
	Type     string          `json:"type"`
	Currency string          `json:"currency"`
}

// IsZero reports whether nothing was provided.
func (r Raw) IsZero() bool {
	return r.Amount == nil && r.Fixed == nil && r.Weeks == nil && r.Months == nil && r.Type == ""
}

// UnmarshalJSON decodes any supported deposit representation. Unparsable values are left empty.
func (r *Raw) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	*r = Raw{}

	switch {
	case len(data) == 0 || bytes.Equal(data, []byte("null")):
		return nil
	case data[0] == '{':
		var obj rawObject
		if err := json.Unmarshal(data, &obj); err != nil {
			return fmt.Errorf("can't decode deposit object: %w", err)
		}
		r.Amount = DecodeAmount(obj.Amount)
		if r.Amount == nil {
			r.Amount = DecodeAmount(obj.Value)
		}
		r.Fixed = DecodeAmount(obj.Fixed)
		r.Weeks = decodeInt(obj.Weeks)
		r.Months = decodeInt(obj.Months)
		r.Type = obj.Type
		r.Currency = obj.Currency
		return nil
	case data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("can't decode deposit string: %w", err)
		}
		r.parseString(s)
		return nil
	default:
		r.Amount = DecodeAmount(data)
		return nil
	}
}

func (r *Raw) parseString(s string) {
	if weeks, months, ok := LookupType(s); ok {
		if weeks > 0 {
			r.Weeks = &weeks
		}
		if months > 0 {
			r.Months = &months
		}
		return
	}
	r.Amount = ParseAmount(s)
}

// ParseAmount parses currency string such as "£1,250.50". It returns nil when s holds no number.
func ParseAmount(s string) *decimal.Decimal {
	cleaned := strings.Map(func(r rune) rune {
		if (r >= '0' && r <= '9') || r == '.' || r == '-' {
			return r
		}
		return -1
	}, s)
	if cleaned == "" {
		return nil
	}

	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return nil
	}
	return &d
}

// DecodeAmount decodes JSON number or currency string. It returns nil for null and unparsable values.
func DecodeAmount(data json.RawMessage) *decimal.Decimal {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}

	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return nil
		}
		return ParseAmount(s)
	}

	d, err := decimal.NewFromString(string(data))
	if err != nil {
		return nil
	}
	return &d
}

func decodeInt(data json.RawMessage) *int {
	amount := DecodeAmount(data)
	if amount == nil {
		return nil
	}

	n := int(amount.Round(0).IntPart())
	return &n
}
