package storage

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/ewebtechsuk/aktonz2-sub001/internal/platform/models"

	pgmodels "github.com/ewebtechsuk/aktonz2-sub001/internal/platform/storage/gen/postgres/public/model"
)

//go:generate jet -dsn=$DATABASE_URL -schema=public -path=./gen

// ToDBOverride converts models.Override of listing id into postgres row.
func ToDBOverride(id string, override models.Override) (*pgmodels.ListingOverrides, error) {
	patch, err := json.Marshal(override.Fields)
	if err != nil {
		return nil, fmt.Errorf("can't encode override fields: %w", err)
	}

	return &pgmodels.ListingOverrides{
		ID:        id,
		Patch:     string(patch),
		UpdatedAt: override.UpdatedAt.UTC(),
	}, nil
}

func fromDBOverride(row pgmodels.ListingOverrides) (models.Override, error) {
	var fields models.Patch
	if err := json.Unmarshal([]byte(row.Patch), &fields); err != nil {
		return models.Override{}, fmt.Errorf("can't decode override fields: %w", err)
	}

	return models.Override{
		Fields:    fields,
		UpdatedAt: row.UpdatedAt.In(time.UTC),
	}, nil
}
