package overrides

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/ewebtechsuk/aktonz2-sub001/internal/platform/models"
)

// Apply validates patch, folds it into the stored override of base and returns base merged with the result.
// base must be the listing as upstreams provide it, without any override applied.
// Fields equal to base are dropped from the override and null reverts a field to upstream value.
// An override left without fields is deleted.
func (s *Store) Apply(ctx context.Context, base models.Listing, patch models.Patch) (models.Listing, error) {
	if err := Validate(patch); err != nil {
		return base, err
	}

	var merged models.Listing
	_, err := s.Update(ctx, base.ID, func(current models.Patch) (models.Patch, error) {
		for name, value := range patch {
			if isNull(value) {
				delete(current, name)
				continue
			}

			same, err := equalToBase(base, name, value)
			if err != nil {
				return nil, &ValidationError{Messages: []string{fmt.Sprintf("%s: %v", name, err)}}
			}
			if same {
				delete(current, name)
				continue
			}

			var compact bytes.Buffer
			if err := json.Compact(&compact, value); err != nil {
				return nil, &ValidationError{Messages: []string{fmt.Sprintf("%s: %v", name, err)}}
			}
			current[name] = compact.Bytes()
		}

		next, err := Merge(base, current)
		if err != nil {
			return nil, err
		}
		if err := checkRules(next, current); err != nil {
			return nil, err
		}

		merged = next
		return current, nil
	})
	if err != nil {
		return base, err
	}

	return merged, nil
}

// Transform returns listings with their overrides merged. It never modifies its input.
// Overrides that can't be merged are logged and skipped.
func (s *Store) Transform(ctx context.Context, listings []models.Listing) []models.Listing {
	all, err := s.All(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Msg("serving listings without overrides")
		return listings
	}
	if len(all) == 0 {
		return listings
	}

	result := make([]models.Listing, len(listings))
	for i, listing := range listings {
		result[i] = s.merge(listing, all)
	}
	return result
}

// MergeOne returns listing with its override merged.
func (s *Store) MergeOne(ctx context.Context, listing models.Listing) models.Listing {
	all, err := s.All(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Str("id", listing.ID).Msg("serving listing without override")
		return listing
	}
	return s.merge(listing, all)
}

func (s *Store) merge(listing models.Listing, all map[string]models.Override) models.Listing {
	override, ok := all[listing.ID]
	if !ok {
		return listing
	}

	merged, err := Merge(listing, override.Fields)
	if err != nil {
		s.logger.Warn().Err(err).Str("id", listing.ID).Msg("can't merge override")
		return listing
	}
	return merged
}

// checkRules validates merged listing as a whole.
func checkRules(merged models.Listing, fields models.Patch) error {
	var messages []string

	if merged.TransactionType != models.TransactionRent {
		for _, name := range []string{"rent", "rentFrequency", "securityDeposit", "holdingDeposit"} {
			if _, ok := fields[name]; ok {
				messages = append(messages, fmt.Sprintf("%s: only rental listings have rent terms", name))
			}
		}
	}
	if (merged.Latitude == nil) != (merged.Longitude == nil) {
		messages = append(messages, "latitude and longitude must be set together")
	}

	if len(messages) > 0 {
		return &ValidationError{Messages: messages}
	}
	return nil
}

func isNull(value json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(value), []byte("null"))
}
