package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"

	"github.com/ewebtechsuk/aktonz2-sub001/cmd/listings/config"
	"github.com/ewebtechsuk/aktonz2-sub001/internal/aggregator"
	"github.com/ewebtechsuk/aktonz2-sub001/internal/fetcher"
	"github.com/ewebtechsuk/aktonz2-sub001/internal/listing"
	"github.com/ewebtechsuk/aktonz2-sub001/internal/overrides"
	"github.com/ewebtechsuk/aktonz2-sub001/internal/platform/models"
	"github.com/ewebtechsuk/aktonz2-sub001/internal/platform/storage"
	"github.com/ewebtechsuk/aktonz2-sub001/internal/ratelimit"
	"github.com/ewebtechsuk/aktonz2-sub001/internal/snapshot"
	"github.com/ewebtechsuk/aktonz2-sub001/internal/source/crm"
	"github.com/ewebtechsuk/aktonz2-sub001/internal/source/marketplace"
	"github.com/ewebtechsuk/aktonz2-sub001/internal/ttlcache"
	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog"

	_ "github.com/lib/pq"
)

const (
	// UserAgent is user agent header value used when calling upstreams.
	UserAgent = "aktonz-listings/1.0.0"

	redisPrefix = "listings:live:"
)

// components are long living parts of the service. Closers release them in reverse order.
type components struct {
	service *listing.Service
	store   *overrides.Store
	closers []func() error
}

func (c *components) close(logger zerolog.Logger) {
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i](); err != nil {
			logger.Error().Err(err).Msg("can't release resource")
		}
	}
}

func newComponents(ctx context.Context, cfg config.Config, httpClient *http.Client, logger zerolog.Logger) (*components, error) {
	c := &components{}

	tracker := ratelimit.NewTracker(
		ratelimit.WithDefaultCooldown(cfg.RateLimitCooldown),
		ratelimit.WithLogger(logger),
	)
	tracker.Register(crm.Upstream, cfg.CRM.APIKey != "")
	tracker.Register(marketplace.Upstream, cfg.Marketplace.Token != "")

	snapshots := snapshot.NewReader(cfg.CacheDir, snapshot.WithLogger(logger))

	crmClient := crm.NewClient(
		fetcher.NewFetcher(httpClient, crm.Upstream, UserAgent, tracker,
			fetcher.WithTimeout(cfg.HTTPTimeout),
			fetcher.WithRequestsPerSecond(cfg.CRM.RequestsPerSecond),
			fetcher.WithLogger(logger),
		),
		snapshots,
		cfg.CRM.BaseURL,
		cfg.CRM.APIKey,
		crm.WithBranchID(cfg.CRM.BranchID),
		crm.WithPageSize(cfg.CRM.PageSize),
		crm.WithMaxPages(cfg.CRM.MaxPages),
		crm.WithLogger(logger),
	)

	marketplaceClient := marketplace.NewClient(
		fetcher.NewFetcher(httpClient, marketplace.Upstream, UserAgent, tracker,
			fetcher.WithTimeout(cfg.HTTPTimeout),
			fetcher.WithRequestsPerSecond(cfg.Marketplace.RequestsPerSecond),
			fetcher.WithLogger(logger),
		),
		snapshots,
		cfg.Marketplace.Endpoint,
		cfg.Marketplace.Token,
		marketplace.WithPageSize(cfg.Marketplace.PageSize),
		marketplace.WithMaxPages(cfg.Marketplace.MaxPages),
		marketplace.WithLogger(logger),
	)

	cache, err := c.newCache(cfg, logger)
	if err != nil {
		c.close(logger)
		return nil, err
	}

	persister, err := c.newPersister(ctx, cfg, logger)
	if err != nil {
		c.close(logger)
		return nil, err
	}

	c.store = overrides.NewStore(persister, overrides.WithLogger(logger))
	c.closers = append(c.closers, func() error {
		c.store.Close()
		return nil
	})

	agg := aggregator.NewAggregator(
		[]aggregator.Feed{crmClient, marketplaceClient},
		cache,
		aggregator.WithMaxSnapshotAge(cfg.MaxSnapshotAge),
		aggregator.WithTransform(c.store.Transform),
		aggregator.WithLogger(logger),
	)

	c.service = listing.NewService(
		agg,
		[]listing.Finder{crmClient, marketplaceClient},
		c.store,
		listing.WithLogger(logger),
	)

	return c, nil
}

func (c *components) newCache(cfg config.Config, logger zerolog.Logger) (aggregator.Cache, error) {
	if cfg.RedisURL == "" {
		return ttlcache.NewMemory[[]models.Listing](cfg.LiveCacheTTL, ttlcache.WithLogger(logger)), nil
	}

	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("can't parse redis url: %w", err)
	}

	client := redis.NewClient(opts)
	c.closers = append(c.closers, client.Close)

	return ttlcache.NewRedis[[]models.Listing](client, redisPrefix, cfg.LiveCacheTTL, ttlcache.WithLogger(logger)), nil
}

func (c *components) newPersister(ctx context.Context, cfg config.Config, logger zerolog.Logger) (overrides.Persister, error) {
	file := overrides.NewFile(cfg.OverridesFile, logger)
	if cfg.OverridesBackend == config.BackendFile {
		return file, nil
	}

	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("can't open Postgres connection: %w", err)
	}
	c.closers = append(c.closers, db.Close)

	pg := storage.NewPostgres(db, logger)
	if err := pg.EnsureSchema(ctx); err != nil {
		return nil, err
	}

	if cfg.ImportOverrides {
		stored, err := file.Load(ctx)
		if err != nil {
			return nil, err
		}
		if err := pg.Import(ctx, stored); err != nil {
			return nil, fmt.Errorf("can't import overrides: %w", err)
		}
		logger.Info().Int("overrides", len(stored)).Str("file", cfg.OverridesFile).Msg("overrides imported")
	}

	return pg, nil
}
