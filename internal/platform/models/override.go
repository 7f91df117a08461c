package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

const updatedAtField = "updatedAt"

// Patch is partial listing update keyed by JSON field name.
type Patch map[string]json.RawMessage

// IsEmpty reports whether patch has no fields.
func (p Patch) IsEmpty() bool {
	return len(p) == 0
}

// Override is operator patch persisted for a listing.
// It is encoded as flat JSON object: patch fields plus updatedAt.
type Override struct {
	Fields    Patch
	UpdatedAt time.Time
}

// MarshalJSON encodes override as flat object.
func (o Override) MarshalJSON() ([]byte, error) {
	flat := make(map[string]json.RawMessage, len(o.Fields)+1)
	for field, value := range o.Fields {
		flat[field] = value
	}

	updatedAt, err := json.Marshal(o.UpdatedAt)
	if err != nil {
		return nil, err
	}
	flat[updatedAtField] = updatedAt

	return json.Marshal(flat)
}

// UnmarshalJSON decodes flat override object.
func (o *Override) UnmarshalJSON(data []byte) error {
	var flat map[string]json.RawMessage
	if err := json.Unmarshal(data, &flat); err != nil {
		return err
	}

	o.Fields = make(Patch, len(flat))
	for field, value := range flat {
		if field == updatedAtField {
			if err := json.Unmarshal(value, &o.UpdatedAt); err != nil {
				return fmt.Errorf("can't decode %s: %w", updatedAtField, err)
			}
			continue
		}
		var compact bytes.Buffer
		if err := json.Compact(&compact, value); err != nil {
			return fmt.Errorf("can't decode %s: %w", field, err)
		}
		o.Fields[field] = compact.Bytes()
	}

	return nil
}
