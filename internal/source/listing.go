// Package source holds behaviour shared by upstream adapters: record mapping,
// filtering, status vocabulary and tiered lookups.
package source

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/ewebtechsuk/aktonz2-sub001/internal/derived"
	"github.com/ewebtechsuk/aktonz2-sub001/internal/identity"
	"github.com/ewebtechsuk/aktonz2-sub001/internal/platform/models"
	"github.com/rs/zerolog"
	"github.com/samber/lo"
)

// Decoder maps single raw upstream record to listing.
type Decoder func(record json.RawMessage) (models.Listing, error)

// Finalize assigns canonical id and derived fields to listing mapped from upstream record.
// It returns false when record exposes no usable identifier.
func Finalize(l *models.Listing) bool {
	id, ok := identity.Resolve(l.Aliases)
	if !ok {
		return false
	}
	l.ID = id
	derived.Apply(l)
	return true
}

// MapRecords decodes records, dropping malformed ones and ones without identifier.
func MapRecords(records []json.RawMessage, decode Decoder, logger zerolog.Logger) []models.Listing {
	listings := make([]models.Listing, 0, len(records))
	for i, record := range records {
		listing, err := decode(record)
		if err != nil {
			logger.Warn().Err(err).Int("index", i).Msg("can't decode listing record")
			continue
		}
		if !Finalize(&listing) {
			logger.Warn().Int("index", i).Msg("listing record has no identifier")
			continue
		}
		listing.Raw = record
		listings = append(listings, listing)
	}

	return listings
}

// FindByID returns first listing matching id under any of its identifier representations.
func FindByID(listings []models.Listing, id string) *models.Listing {
	listing, ok := lo.Find(listings, func(l models.Listing) bool {
		return identity.Matches(l, id)
	})
	if !ok {
		return nil
	}
	return &listing
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.DateOnly,
}

// ParseTimestamp parses upstream timestamp. Unparsable values are absent.
func ParseTimestamp(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return lo.ToPtr(ts.UTC())
		}
	}
	return nil
}

// ParseDate returns ISO date part of upstream date or timestamp.
func ParseDate(s string) *string {
	ts := ParseTimestamp(s)
	if ts == nil {
		return nil
	}
	return lo.ToPtr(ts.Format(time.DateOnly))
}

// NonEmpty returns trimmed s, or nil when it is blank.
func NonEmpty(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
