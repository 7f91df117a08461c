// Package listing is the read and write surface of the listings core.
package listing

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/ewebtechsuk/aktonz2-sub001/internal/overrides"
	"github.com/ewebtechsuk/aktonz2-sub001/internal/platform/models"
	"github.com/rs/zerolog"
	"github.com/samber/lo"
)

//go:generate mockery --name Aggregator --filename aggregator.go
//go:generate mockery --name Finder --filename finder.go
//go:generate mockery --name Overrides --filename overrides.go

// Aggregator lists listings of all upstreams with overrides merged.
type Aggregator interface {
	ListByType(ctx context.Context, transactionType models.TransactionType, opts models.FetchOptions) []models.Listing
	Purge(ctx context.Context)
}

// Finder looks up single listing in one upstream. It returns listing without overrides.
type Finder interface {
	Source() models.Source
	FetchByID(ctx context.Context, id string, opts models.FetchOptions) *models.Listing
}

// Overrides merges and stores operator edits.
type Overrides interface {
	MergeOne(ctx context.Context, listing models.Listing) models.Listing
	Apply(ctx context.Context, base models.Listing, patch models.Patch) (models.Listing, error)
}

// Option is custom configuration of Service.
type Option func(s *Service)

// Service composes aggregator, upstream finders and override store.
type Service struct {
	aggregator   Aggregator
	finders      []Finder
	overrides    Overrides
	applyOptions models.FetchOptions
	logger       zerolog.Logger
}

// NewService returns new Service. Finders are asked in order, first match wins.
func NewService(aggregator Aggregator, finders []Finder, overrides Overrides, ops ...Option) *Service {
	s := &Service{
		aggregator:   aggregator,
		finders:      finders,
		overrides:    overrides,
		applyOptions: models.FetchOptions{AllowNetwork: true},
		logger:       zerolog.Nop(),
	}

	for _, op := range ops {
		op(s)
	}

	return s
}

// ListListingsByType returns listings of transaction type matching options' filters.
// It never fails; unavailable upstreams yield stale or empty results.
func (s *Service) ListListingsByType(ctx context.Context, transactionType models.TransactionType, opts models.FetchOptions) []models.Listing {
	listings := s.aggregator.ListByType(ctx, transactionType, opts)

	s.logger.Debug().
		Str("transactionType", string(transactionType)).
		Bool("allowNetwork", opts.AllowNetwork).
		Bool("useCacheOnly", opts.UseCacheOnly).
		Int("listings", len(listings)).
		Msg("listings served")

	return listings
}

// GetListingByID returns listing with override merged or nil when no upstream knows id.
func (s *Service) GetListingByID(ctx context.Context, id string, opts models.FetchOptions) *models.Listing {
	base := s.find(ctx, id, opts)
	if base == nil {
		return nil
	}

	merged := s.overrides.MergeOne(ctx, *base)
	return &merged
}

// ApplyOverride validates patch and folds it into override of listing id.
// It returns the listing with updated override merged, ErrNotFound for unknown listing
// or *overrides.ValidationError for invalid patch.
func (s *Service) ApplyOverride(ctx context.Context, id string, patch models.Patch) (models.Listing, error) {
	if err := overrides.Validate(patch); err != nil {
		return models.Listing{}, err
	}

	base := s.find(ctx, id, s.applyOptions)
	if base == nil {
		return models.Listing{}, fmt.Errorf("can't apply override of %q: %w", id, ErrNotFound)
	}

	merged, err := s.overrides.Apply(ctx, *base, patch)
	if err != nil {
		return models.Listing{}, fmt.Errorf("can't apply override of %q: %w", base.ID, err)
	}

	s.logger.Info().Str("id", base.ID).Strs("fields", patchFields(patch)).Msg("override applied")

	return merged, nil
}

// Invalidate drops live results cached in memory, so next reads go to upstreams again.
func (s *Service) Invalidate(ctx context.Context) {
	s.aggregator.Purge(ctx)
	s.logger.Info().Msg("live listings cache purged")
}

// Warm loads listings of every transaction type so later reads are served from cache.
// It returns number of listings loaded per type.
func (s *Service) Warm(ctx context.Context, transactionTypes ...models.TransactionType) map[models.TransactionType]int {
	if len(transactionTypes) == 0 {
		transactionTypes = []models.TransactionType{models.TransactionSale, models.TransactionRent}
	}

	loaded := make(map[models.TransactionType]int, len(transactionTypes))
	for _, transactionType := range transactionTypes {
		listings := s.aggregator.ListByType(ctx, transactionType, models.FetchOptions{AllowNetwork: true})
		loaded[transactionType] = len(listings)

		s.logger.Info().Str("transactionType", string(transactionType)).Int("listings", len(listings)).Msg("cache warmed")
	}

	return loaded
}

func (s *Service) find(ctx context.Context, id string, opts models.FetchOptions) *models.Listing {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil
	}

	for _, finder := range s.finders {
		if listing := finder.FetchByID(ctx, id, opts); listing != nil {
			return listing
		}
		s.logger.Debug().Str("id", id).Str("source", string(finder.Source())).Msg("listing not found in source")
	}

	return nil
}

func patchFields(patch models.Patch) []string {
	fields := lo.Keys(patch)
	sort.Strings(fields)
	return fields
}

// WithApplyOptions sets options used to look up base listing of an override.
func WithApplyOptions(opts models.FetchOptions) Option {
	return func(s *Service) {
		s.applyOptions = opts
	}
}

// WithLogger sets Service's logger.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Service) {
		s.logger = l
	}
}
