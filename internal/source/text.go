package source

import (
	"bytes"
	"encoding/json"
	"strings"
)

// Text is identifier-like value sent either as JSON string or bare number.
type Text string

// UnmarshalJSON decodes string, number or null. Other values are left empty.
func (t *Text) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0 || bytes.Equal(data, []byte("null")):
		*t = ""
	case data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*t = Text(strings.TrimSpace(s))
	case data[0] == '-' || (data[0] >= '0' && data[0] <= '9'):
		*t = Text(data)
	default:
		*t = ""
	}
	return nil
}

func (t Text) String() string {
	return string(t)
}
