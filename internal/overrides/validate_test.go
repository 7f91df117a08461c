package overrides_test

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/ewebtechsuk/aktonz2-sub001/internal/overrides"
	"github.com/ewebtechsuk/aktonz2-sub001/internal/platform/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func patch(t *testing.T, doc string) models.Patch {
	t.Helper()

	var p models.Patch
	require.NoError(t, json.Unmarshal([]byte(doc), &p))
	return p
}

func TestUnitValidate(t *testing.T) {
	tests := map[string]struct {
		doc string
	}{
		"empty patch": {
			doc: `{}`,
		},
		"status only": {
			doc: `{"status": "let_agreed"}`,
		},
		"full nested objects": {
			doc: `{
				"price": "1350.50",
				"rent": {"amount": 1350.5, "frequency": "monthly", "currency": "GBP"},
				"address": {"line1": "1 High Street", "postcode": "E1 6AN"},
				"marketing": {"headline": "Bright flat", "featured": true},
				"matchingAreas": ["Shoreditch"],
				"metadata": [{"key": "floor", "value": "2"}],
				"availableAt": "2024-04-01",
				"images": ["https://img.example/1.jpg"],
				"securityDeposit": {"weeks": 5}
			}`,
		},
		"null reverts": {
			doc: `{"bedrooms": null, "rent": null}`,
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			assert.NoError(t, overrides.Validate(patch(t, tc.doc)))
		})
	}
}

func TestUnitValidateRejects(t *testing.T) {
	tests := map[string]struct {
		doc       string
		wantField string
	}{
		"unknown status":       {doc: `{"status": "on_hold"}`, wantField: "status"},
		"derived field":        {doc: `{"statusLabel": "Let"}`, wantField: "statusLabel"},
		"identity field":       {doc: `{"id": "other"}`, wantField: "id"},
		"negative bedrooms":    {doc: `{"bedrooms": -1}`, wantField: "bedrooms"},
		"fractional bedrooms":  {doc: `{"bedrooms": 1.5}`, wantField: "bedrooms"},
		"price with symbol":    {doc: `{"price": "£1,200"}`, wantField: "price"},
		"lowercase currency":   {doc: `{"priceCurrency": "gbp"}`, wantField: "priceCurrency"},
		"invalid date":         {doc: `{"availableAt": "next week"}`, wantField: "availableAt"},
		"rent without amount":  {doc: `{"rent": {"frequency": "monthly"}}`, wantField: "rent"},
		"partial address type": {doc: `{"address": {"line1": 1}}`, wantField: "address/line1"},
		"metadata without key": {doc: `{"metadata": [{"value": "x"}]}`, wantField: "metadata/0"},
		"latitude range":       {doc: `{"latitude": 91}`, wantField: "latitude"},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			err := overrides.Validate(patch(t, tc.doc))

			var validationErr *overrides.ValidationError
			require.ErrorAs(t, err, &validationErr)
			require.NotEmpty(t, validationErr.Messages)
			assert.Contains(t, validationErr.Error(), tc.wantField)
		})
	}
}

func TestUnitValidateCollectsEveryViolation(t *testing.T) {
	err := overrides.Validate(patch(t, `{"status": "gone", "bedrooms": -2}`))

	var validationErr *overrides.ValidationError
	require.ErrorAs(t, err, &validationErr)
	require.Len(t, validationErr.Messages, 2)
	assert.True(t, strings.HasPrefix(validationErr.Messages[0], "bedrooms: "))
	assert.True(t, strings.HasPrefix(validationErr.Messages[1], "status: "))
}

func TestUnitValidateNil(t *testing.T) {
	assert.NoError(t, overrides.Validate(nil))
}
