package source

import (
	"context"
	"time"

	"github.com/ewebtechsuk/aktonz2-sub001/internal/platform/models"
	"github.com/rs/zerolog"
)

// Feed is upstream listing feed backed by on-disk snapshots.
type Feed interface {
	Cached(ctx context.Context, transactionType models.TransactionType) ([]models.Listing, time.Time)
	Live(ctx context.Context, transactionType models.TransactionType) ([]models.Listing, error)
	CanAttemptNetwork() bool
}

// FetchByType returns listings of transaction type matching options' filters.
// Snapshot listings are served when network is not permitted, when they suffice
// for cache-only reads, and when live call fails.
func FetchByType(ctx context.Context, feed Feed, transactionType models.TransactionType, opts models.FetchOptions, logger zerolog.Logger) []models.Listing {
	cached, _ := feed.Cached(ctx, transactionType)
	if opts.UseCacheOnly && len(cached) > 0 {
		return Filter(cached, opts.Filters)
	}
	if !opts.AllowNetwork || !feed.CanAttemptNetwork() {
		return Filter(cached, opts.Filters)
	}

	live, err := feed.Live(ctx, transactionType)
	if err != nil {
		logger.Warn().Err(err).Str("transactionType", string(transactionType)).Msg("falling back to snapshot listings")
		return Filter(cached, opts.Filters)
	}

	return Filter(live, opts.Filters)
}

// CachedLookup returns lookup searching snapshots of every transaction type.
func CachedLookup(feed Feed) Lookup {
	return func(ctx context.Context, id string) (*models.Listing, error) {
		for _, transactionType := range []models.TransactionType{models.TransactionRent, models.TransactionSale} {
			cached, _ := feed.Cached(ctx, transactionType)
			if listing := FindByID(cached, id); listing != nil {
				return listing, nil
			}
		}
		return nil, nil
	}
}

// ByIDTiers returns lookup tiers of FetchByID: snapshots, then network tiers when options allow them.
func ByIDTiers(feed Feed, opts models.FetchOptions, network ...Tier) []Tier {
	tiers := []Tier{{Name: "snapshot", Lookup: CachedLookup(feed)}}
	if opts.AllowNetwork && !opts.UseCacheOnly {
		tiers = append(tiers, network...)
	}
	return tiers
}
