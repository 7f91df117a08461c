package overrides

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/ewebtechsuk/aktonz2-sub001/internal/derived"
	"github.com/ewebtechsuk/aktonz2-sub001/internal/platform/models"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// field binds JSON field of override to listing field.
type field struct {
	decode func(l *models.Listing, value json.RawMessage) error
	encode func(l *models.Listing) ([]byte, error)
}

func bind[T any](ref func(l *models.Listing) *T) field {
	return field{
		decode: func(l *models.Listing, value json.RawMessage) error {
			// fresh value, so listings sharing nested structures are never mutated
			var v T
			if err := json.Unmarshal(value, &v); err != nil {
				return err
			}
			*ref(l) = v
			return nil
		},
		encode: func(l *models.Listing) ([]byte, error) {
			return json.Marshal(*ref(l))
		},
	}
}

// fields are listing fields operators may override. Nested objects and arrays replace
// the whole value. Identity, provenance and derived fields are never overridable.
var fields = map[string]field{
	"transactionType": bind(func(l *models.Listing) *models.TransactionType { return &l.TransactionType }),
	"price":           bind(func(l *models.Listing) *decimal.Decimal { return &l.Price }),
	"priceCurrency":   bind(func(l *models.Listing) *string { return &l.PriceCurrency }),
	"rentFrequency":   bind(func(l *models.Listing) **models.RentFrequency { return &l.RentFrequency }),
	"pricePrefix":     bind(func(l *models.Listing) **string { return &l.PricePrefix }),
	"bedrooms":        bind(func(l *models.Listing) **int { return &l.Bedrooms }),
	"bathrooms":       bind(func(l *models.Listing) **int { return &l.Bathrooms }),
	"receptions":      bind(func(l *models.Listing) **int { return &l.Receptions }),
	"propertyType":    bind(func(l *models.Listing) *string { return &l.PropertyType }),
	"status":          bind(func(l *models.Listing) *models.Status { return &l.Status }),
	"latitude":        bind(func(l *models.Listing) **float64 { return &l.Latitude }),
	"longitude":       bind(func(l *models.Listing) **float64 { return &l.Longitude }),
	"images":          bind(func(l *models.Listing) *[]string { return &l.Images }),
	"securityDeposit": bind(func(l *models.Listing) **models.DepositSpec { return &l.SecurityDeposit }),
	"holdingDeposit":  bind(func(l *models.Listing) **models.DepositSpec { return &l.HoldingDeposit }),
	"availableAt":     bind(func(l *models.Listing) **string { return &l.AvailableAt }),
	"rent":            bind(func(l *models.Listing) **models.Rent { return &l.Rent }),
	"address":         bind(func(l *models.Listing) **models.Address { return &l.Address }),
	"marketing":       bind(func(l *models.Listing) **models.Marketing { return &l.Marketing }),
	"matchingAreas":   bind(func(l *models.Listing) *[]string { return &l.MatchingAreas }),
	"metadata":        bind(func(l *models.Listing) *[]models.MetadataEntry { return &l.Metadata }),
}

// Fields returns names of overridable fields in alphabetical order.
func Fields() []string {
	names := lo.Keys(fields)
	sort.Strings(names)
	return names
}

// Merge returns copy of base with patch applied and derived fields recomputed.
// base is never modified.
func Merge(base models.Listing, patch models.Patch) (models.Listing, error) {
	merged := base
	for name, value := range patch {
		f, ok := fields[name]
		if !ok {
			return base, fmt.Errorf("field %q can't be overridden", name)
		}
		if err := f.decode(&merged, value); err != nil {
			return base, fmt.Errorf("can't apply override of %s: %w", name, err)
		}
	}

	if _, ok := patch["rent"]; ok {
		syncPriceFromRent(&merged)
	} else if lo.SomeBy([]string{"price", "priceCurrency", "rentFrequency"}, func(name string) bool {
		_, ok := patch[name]
		return ok
	}) {
		syncRentFromPrice(&merged)
	}

	derived.Apply(&merged)

	return merged, nil
}

// syncPriceFromRent copies overridden rent terms onto price fields of rental listings.
func syncPriceFromRent(l *models.Listing) {
	if l.TransactionType != models.TransactionRent || l.Rent == nil {
		return
	}

	l.Price = l.Rent.Amount
	if l.Rent.Currency != "" {
		l.PriceCurrency = l.Rent.Currency
	}
	freq := l.Rent.Frequency
	l.RentFrequency = &freq
}

// syncRentFromPrice rebuilds rent terms of rental listings from overridden price fields.
func syncRentFromPrice(l *models.Listing) {
	if l.TransactionType != models.TransactionRent || l.RentFrequency == nil {
		return
	}

	l.Rent = &models.Rent{
		Amount:    l.Price,
		Frequency: *l.RentFrequency,
		Currency:  l.PriceCurrency,
	}
}

// equalToBase reports whether applying value leaves field of base unchanged.
func equalToBase(base models.Listing, name string, value json.RawMessage) (bool, error) {
	f, ok := fields[name]
	if !ok {
		return false, fmt.Errorf("field %q can't be overridden", name)
	}

	current, err := f.encode(&base)
	if err != nil {
		return false, fmt.Errorf("can't encode %s: %w", name, err)
	}

	patched := base
	if err := f.decode(&patched, value); err != nil {
		return false, fmt.Errorf("can't decode %s: %w", name, err)
	}
	next, err := f.encode(&patched)
	if err != nil {
		return false, fmt.Errorf("can't encode %s: %w", name, err)
	}

	return bytes.Equal(current, next), nil
}
