package overrides_test

import (
	"strings"
	"testing"

	"github.com/ewebtechsuk/aktonz2-sub001/internal/derived"
	"github.com/ewebtechsuk/aktonz2-sub001/internal/overrides"
	"github.com/ewebtechsuk/aktonz2-sub001/internal/platform/models"
	"github.com/ewebtechsuk/aktonz2-sub001/internal/platform/models/modelstesting"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func baseListing() models.Listing {
	listing := modelstesting.FakeListing(func(l *models.Listing) {
		l.Price = decimal.NewFromInt(1200)
		l.Bedrooms = lo.ToPtr(2)
		l.Rent = &models.Rent{Amount: decimal.NewFromInt(1200), Frequency: models.FrequencyMonthly, Currency: "GBP"}
		l.Latitude = lo.ToPtr(51.5237)
		l.Longitude = lo.ToPtr(-0.0786)
	})
	derived.Apply(&listing)
	return listing
}

func TestUnitMergeEmptyPatch(t *testing.T) {
	base := baseListing()

	merged, err := overrides.Merge(base, models.Patch{})

	require.NoError(t, err)
	assert.Equal(t, base, merged)
}

func TestUnitMergeStatusOnly(t *testing.T) {
	base := baseListing()

	merged, err := overrides.Merge(base, patch(t, `{"status": "let_agreed"}`))

	require.NoError(t, err)
	assert.Equal(t, models.StatusLetAgreed, merged.Status)
	assert.Equal(t, "Let Agreed", merged.StatusLabel)
	assert.Equal(t, "warning", merged.StatusTone)
	assert.Equal(t, "progressing", merged.Pipeline)
	assert.Equal(t, base.Rent, merged.Rent)
	assert.Equal(t, base.Address, merged.Address)
	assert.Equal(t, base.Price, merged.Price)
	assert.Equal(t, models.StatusAvailable, base.Status)
}

func TestUnitMerge(t *testing.T) {
	tests := map[string]struct {
		doc    string
		assert func(t *testing.T, base, merged models.Listing)
	}{
		"rent syncs price": {
			doc: `{"rent": {"amount": 300, "frequency": "weekly", "currency": "GBP"}}`,
			assert: func(t *testing.T, _, merged models.Listing) {
				assert.True(t, decimal.NewFromInt(300).Equal(merged.Price))
				assert.Equal(t, models.FrequencyWeekly, *merged.RentFrequency)
				assert.Equal(t, "£300 pw", merged.RentLabel)
				assert.True(t, decimal.NewFromInt(1300).Equal(*merged.MonthlyRent))
			},
		},
		"price rebuilds rent": {
			doc: `{"price": "1500"}`,
			assert: func(t *testing.T, _, merged models.Listing) {
				require.NotNil(t, merged.Rent)
				assert.True(t, decimal.NewFromInt(1500).Equal(merged.Rent.Amount))
				assert.Equal(t, models.FrequencyMonthly, merged.Rent.Frequency)
				assert.Equal(t, "£1,500 pcm", merged.RentLabel)
			},
		},
		"nested object replaced whole": {
			doc: `{"address": {"line1": "1 High Street"}}`,
			assert: func(t *testing.T, base, merged models.Listing) {
				assert.Equal(t, &models.Address{Line1: "1 High Street"}, merged.Address)
				assert.NotEqual(t, "1 High Street", base.Address.Line1)
			},
		},
		"array replaced whole": {
			doc: `{"matchingAreas": ["Hoxton"]}`,
			assert: func(t *testing.T, _, merged models.Listing) {
				assert.Equal(t, []string{"Hoxton"}, merged.MatchingAreas)
				assert.Contains(t, merged.SearchIndex, "hoxton")
			},
		},
		"null clears field": {
			doc: `{"bedrooms": null}`,
			assert: func(t *testing.T, base, merged models.Listing) {
				assert.Nil(t, merged.Bedrooms)
				assert.Equal(t, 2, *base.Bedrooms)
			},
		},
		"coordinates recompute geohash": {
			doc: `{"latitude": 48.8584, "longitude": 2.2945}`,
			assert: func(t *testing.T, base, merged models.Listing) {
				assert.NotEqual(t, base.Geohash, merged.Geohash)
				assert.True(t, strings.HasPrefix(merged.Geohash, "u09t"), merged.Geohash)
			},
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			base := baseListing()

			merged, err := overrides.Merge(base, patch(t, tc.doc))

			require.NoError(t, err)
			tc.assert(t, base, merged)
		})
	}
}

func TestUnitMergeRejectsUnknownField(t *testing.T) {
	base := baseListing()

	merged, err := overrides.Merge(base, patch(t, `{"statusLabel": "Gone"}`))

	assert.Error(t, err)
	assert.Equal(t, base, merged)
}

func TestUnitFields(t *testing.T) {
	fields := overrides.Fields()

	assert.IsIncreasing(t, fields)
	assert.Contains(t, fields, "status")
	assert.Contains(t, fields, "rent")
	assert.NotContains(t, fields, "id")
	assert.NotContains(t, fields, "statusLabel")
}
