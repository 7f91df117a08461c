// Package aggregator merges snapshot and live listings of every upstream into one deduplicated list.
package aggregator

import (
	"context"
	"fmt"
	"time"

	"github.com/ewebtechsuk/aktonz2-sub001/internal/identity"
	"github.com/ewebtechsuk/aktonz2-sub001/internal/platform/clock"
	"github.com/ewebtechsuk/aktonz2-sub001/internal/platform/models"
	"github.com/ewebtechsuk/aktonz2-sub001/internal/source"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

//go:generate mockery --name Feed --filename feed.go

// DefaultMaxSnapshotAge is age under which complete snapshots are served without live fetch.
const DefaultMaxSnapshotAge = 10 * time.Minute

// Feed is upstream listing feed.
type Feed interface {
	Source() models.Source
	Cached(ctx context.Context, transactionType models.TransactionType) ([]models.Listing, time.Time)
	Live(ctx context.Context, transactionType models.TransactionType) ([]models.Listing, error)
	CanAttemptNetwork() bool
}

// Cache keeps live results for a short time.
type Cache interface {
	Get(ctx context.Context, key string) ([]models.Listing, bool)
	Set(ctx context.Context, key string, listings []models.Listing)
	Purge(ctx context.Context)
}

// Transform rewrites deduplicated listings before filters are applied. It must not mutate its input.
type Transform func(ctx context.Context, listings []models.Listing) []models.Listing

// Option is custom configuration of Aggregator.
type Option func(a *Aggregator)

// Aggregator lists listings of all feeds, preferring snapshots and merging live results when permitted.
type Aggregator struct {
	feeds          []Feed
	cache          Cache
	inflight       singleflight.Group
	maxSnapshotAge time.Duration
	transform      Transform
	clock          clock.Clock
	logger         zerolog.Logger
}

// NewAggregator returns new Aggregator. Feeds earlier in the list win identity ties.
func NewAggregator(feeds []Feed, cache Cache, ops ...Option) *Aggregator {
	a := &Aggregator{
		feeds:          feeds,
		cache:          cache,
		maxSnapshotAge: DefaultMaxSnapshotAge,
		transform:      func(_ context.Context, listings []models.Listing) []models.Listing { return listings },
		clock:          clock.System{},
		logger:         zerolog.Nop(),
	}

	for _, op := range ops {
		op(a)
	}

	return a
}

type snapshotResult struct {
	listings    []models.Listing
	generatedAt time.Time
}

// ListByType returns deduplicated listings of transaction type matching options' filters.
// Snapshots are always read first. They are returned alone when cache only read is requested,
// when network is not allowed or when every snapshot is fresh. Otherwise live results of
// every feed are merged in front of them.
func (a *Aggregator) ListByType(ctx context.Context, transactionType models.TransactionType, opts models.FetchOptions) []models.Listing {
	logger := a.logger.With().Str("transactionType", string(transactionType)).Logger()

	snapshots := a.loadSnapshots(ctx, transactionType)
	var cached []models.Listing
	for _, snap := range snapshots {
		cached = append(cached, snap.listings...)
	}

	if len(cached) > 0 && (opts.UseCacheOnly || a.fresh(snapshots)) {
		logger.Debug().Int("listings", len(cached)).Msg("serving snapshot listings")
		return a.finish(ctx, dedup(cached), opts.Filters)
	}
	if !opts.AllowNetwork {
		return a.finish(ctx, dedup(cached), opts.Filters)
	}

	live := a.loadLive(ctx, transactionType)
	logger.Debug().Int("live", len(live)).Int("snapshot", len(cached)).Msg("merging live and snapshot listings")

	return a.finish(ctx, dedup(append(live, cached...)), opts.Filters)
}

// Purge drops cached live results.
func (a *Aggregator) Purge(ctx context.Context) {
	a.cache.Purge(ctx)
}

func (a *Aggregator) loadSnapshots(ctx context.Context, transactionType models.TransactionType) []snapshotResult {
	results := make([]snapshotResult, len(a.feeds))

	var group errgroup.Group
	for i, feed := range a.feeds {
		group.Go(func() error {
			listings, generatedAt := feed.Cached(ctx, transactionType)
			results[i] = snapshotResult{listings: listings, generatedAt: generatedAt}
			return nil
		})
	}
	_ = group.Wait()

	return results
}

func (a *Aggregator) loadLive(ctx context.Context, transactionType models.TransactionType) []models.Listing {
	results := make([][]models.Listing, len(a.feeds))

	var group errgroup.Group
	for i, feed := range a.feeds {
		group.Go(func() error {
			results[i] = a.live(ctx, feed, transactionType)
			return nil
		})
	}
	_ = group.Wait()

	var live []models.Listing
	for _, listings := range results {
		live = append(live, listings...)
	}
	return live
}

// live returns live listings of feed. Concurrent callers of the same feed and type share
// one upstream call and results are cached for the cache's time to live.
func (a *Aggregator) live(ctx context.Context, feed Feed, transactionType models.TransactionType) []models.Listing {
	if !feed.CanAttemptNetwork() {
		return nil
	}

	key := cacheKey(transactionType, feed.Source())
	if listings, ok := a.cache.Get(ctx, key); ok {
		return listings
	}

	value, err, shared := a.inflight.Do(key, func() (any, error) {
		if listings, ok := a.cache.Get(ctx, key); ok {
			return listings, nil
		}

		listings, err := feed.Live(context.WithoutCancel(ctx), transactionType)
		if err != nil {
			return nil, err
		}
		a.cache.Set(ctx, key, listings)
		return listings, nil
	})
	if err != nil {
		a.logger.Warn().
			Err(err).
			Str("source", string(feed.Source())).
			Str("transactionType", string(transactionType)).
			Msg("live fetch failed, using snapshot listings")
		return nil
	}
	if shared {
		a.logger.Debug().Str("key", key).Msg("joined in-flight live fetch")
	}

	return value.([]models.Listing)
}

func (a *Aggregator) fresh(snapshots []snapshotResult) bool {
	if a.maxSnapshotAge <= 0 {
		return false
	}

	now := a.clock.Now()
	for _, snap := range snapshots {
		if len(snap.listings) == 0 || snap.generatedAt.IsZero() || now.Sub(snap.generatedAt) > a.maxSnapshotAge {
			return false
		}
	}
	return true
}

func (a *Aggregator) finish(ctx context.Context, listings []models.Listing, filters models.Filters) []models.Listing {
	return source.Filter(a.transform(ctx, listings), filters)
}

// dedup keeps the first listing of every identity.
func dedup(listings []models.Listing) []models.Listing {
	seen := identity.NewSeen()
	result := make([]models.Listing, 0, len(listings))
	for _, listing := range listings {
		if seen.Add(listing) {
			result = append(result, listing)
		}
	}
	return result
}

func cacheKey(transactionType models.TransactionType, src models.Source) string {
	return fmt.Sprintf("%s/%s", transactionType, src)
}

// WithMaxSnapshotAge sets age under which complete snapshots are served without live fetch.
// Zero always merges live results when network is allowed.
func WithMaxSnapshotAge(d time.Duration) Option {
	return func(a *Aggregator) {
		a.maxSnapshotAge = d
	}
}

// WithTransform sets Transform applied to deduplicated listings.
func WithTransform(t Transform) Option {
	return func(a *Aggregator) {
		a.transform = t
	}
}

// WithClock sets Aggregator's custom Clock.
func WithClock(c clock.Clock) Option {
	return func(a *Aggregator) {
		a.clock = c
	}
}

// WithLogger sets Aggregator's logger.
func WithLogger(l zerolog.Logger) Option {
	return func(a *Aggregator) {
		a.logger = l
	}
}
