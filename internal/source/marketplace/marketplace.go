// Package marketplace is adapter of the marketplace GraphQL API.
package marketplace

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ewebtechsuk/aktonz2-sub001/internal/fetcher"
	"github.com/ewebtechsuk/aktonz2-sub001/internal/platform/models"
	"github.com/ewebtechsuk/aktonz2-sub001/internal/snapshot"
	"github.com/ewebtechsuk/aktonz2-sub001/internal/source"
	"github.com/rs/zerolog"
)

// Upstream is name the marketplace is registered under in rate limit tracker and snapshot files.
const Upstream = "marketplace"

const (
	// DefaultPageSize is number of listings requested per page.
	DefaultPageSize = 50
	// DefaultMaxPages bounds pagination of a single list call.
	DefaultMaxPages = 20
)

var (
	idFilterFields      = []string{"externalReference", "slug"}
	numericFilterFields = []string{"externalReference"}
)

var listingTypes = map[models.TransactionType]string{
	models.TransactionRent: "RENTAL",
	models.TransactionSale: "SALE",
}

// Fetcher performs upstream calls.
type Fetcher interface {
	Fetch(ctx context.Context, req fetcher.Request) (*fetcher.Response, error)
	CanAttemptNetwork() bool
}

// Snapshots reads on-disk listing snapshots.
type Snapshots interface {
	Read(ctx context.Context, upstream string, transactionType models.TransactionType) snapshot.Entry
}

// Option is custom configuration of Client.
type Option func(c *Client)

// Client maps marketplace listings into canonical listings.
type Client struct {
	fetcher   Fetcher
	snapshots Snapshots
	endpoint  string
	token     string
	pageSize  int
	maxPages  int
	logger    zerolog.Logger
}

// NewClient returns new marketplace Client.
func NewClient(f Fetcher, snapshots Snapshots, endpoint, token string, ops ...Option) *Client {
	c := &Client{
		fetcher:   f,
		snapshots: snapshots,
		endpoint:  endpoint,
		token:     token,
		pageSize:  DefaultPageSize,
		maxPages:  DefaultMaxPages,
		logger:    zerolog.Nop(),
	}

	for _, op := range ops {
		op(c)
	}

	c.logger = c.logger.With().Str("upstream", Upstream).Logger()

	return c
}

// Source returns source of listings produced by Client.
func (c *Client) Source() models.Source {
	return models.SourceMarketplace
}

// CanAttemptNetwork reports whether marketplace may be called now.
func (c *Client) CanAttemptNetwork() bool {
	return c.fetcher.CanAttemptNetwork()
}

// Cached returns listings of on-disk snapshot and time it was generated at.
func (c *Client) Cached(ctx context.Context, transactionType models.TransactionType) ([]models.Listing, time.Time) {
	entry := c.snapshots.Read(ctx, Upstream, transactionType)
	return source.MapRecords(entry.Listings, decode, c.logger), entry.GeneratedAt
}

// Live returns every listing of transaction type from marketplace, following cursors.
func (c *Client) Live(ctx context.Context, transactionType models.TransactionType) ([]models.Listing, error) {
	listingType, ok := listingTypes[transactionType]
	if !ok {
		return nil, fmt.Errorf("unsupported transaction type %q", transactionType)
	}

	var (
		listings []models.Listing
		cursor   string
	)
	for page := 1; page <= c.maxPages; page++ {
		results, err := c.execute(ctx, searchOp(listingType, c.pageSize, cursor, nil))
		if err != nil {
			return nil, fmt.Errorf("can't search %s listings page %d: %w", transactionType, page, err)
		}

		var data searchData
		if err := results[0].decodeData(&data); err != nil {
			return nil, fmt.Errorf("can't read %s listings page %d: %w", transactionType, page, err)
		}
		if data.ListingSearch == nil {
			return nil, fmt.Errorf("can't read %s listings page %d: %w", transactionType, page, ErrMalformedResult)
		}

		listings = append(listings, source.MapRecords(data.ListingSearch.Nodes, decode, c.logger)...)

		info := data.ListingSearch.PageInfo
		if !info.HasNextPage || info.EndCursor == "" || info.EndCursor == cursor {
			break
		}
		cursor = info.EndCursor
	}

	return listings, nil
}

// FetchByType returns listings of transaction type matching options' filters.
// Upstream failures are logged and snapshot listings are returned instead.
func (c *Client) FetchByType(ctx context.Context, transactionType models.TransactionType, opts models.FetchOptions) []models.Listing {
	return source.FetchByType(ctx, c, transactionType, opts, c.logger)
}

// FetchByID returns listing known under id, or nil. Snapshots are searched first, then
// the detail operation and finally one batch of filtered searches while network is permitted.
func (c *Client) FetchByID(ctx context.Context, id string, opts models.FetchOptions) *models.Listing {
	tiers := source.ByIDTiers(c, opts,
		source.Tier{Name: "detail", Network: true, Lookup: c.findDetail},
		source.Tier{Name: "search", Network: true, Lookup: c.search},
	)

	return source.NewChain(c.CanAttemptNetwork, c.logger, tiers...).Find(ctx, id)
}

func (c *Client) findDetail(ctx context.Context, id string) (*models.Listing, error) {
	results, err := c.execute(ctx, detailOp(id))
	if err != nil {
		return nil, fmt.Errorf("can't get listing detail: %w", err)
	}

	var data detailData
	if err := results[0].decodeData(&data); err != nil {
		return nil, fmt.Errorf("can't read listing detail: %w", err)
	}
	if len(data.Listing) == 0 || string(data.Listing) == "null" {
		return nil, nil
	}

	listings := source.MapRecords([]json.RawMessage{data.Listing}, decode, c.logger)
	return source.FindByID(listings, id), nil
}

// search sends every candidate filter for both listing types in one batch.
// Result of the earliest operation wins.
func (c *Client) search(ctx context.Context, id string) (*models.Listing, error) {
	params := source.CandidateParams(id, idFilterFields, numericFilterFields)
	if len(params) == 0 {
		return nil, nil
	}

	var ops []operation
	for _, param := range params {
		for _, transactionType := range []models.TransactionType{models.TransactionRent, models.TransactionSale} {
			filter := map[string]any{param.Name: param.Value}
			ops = append(ops, searchOp(listingTypes[transactionType], c.pageSize, "", filter))
		}
	}

	results, err := c.execute(ctx, ops...)
	if err != nil {
		return nil, fmt.Errorf("can't search listing: %w", err)
	}

	for i, res := range results {
		var data searchData
		if err := res.decodeData(&data); err != nil || data.ListingSearch == nil {
			c.logger.Debug().Err(err).Int("operation", i).Msg("skipping unusable search result")
			continue
		}
		listings := source.MapRecords(data.ListingSearch.Nodes, decode, c.logger)
		if listing := source.FindByID(listings, id); listing != nil {
			return listing, nil
		}
	}

	return nil, nil
}

// WithPageSize sets number of listings requested per page.
func WithPageSize(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.pageSize = n
		}
	}
}

// WithMaxPages bounds pagination of a single list call.
func WithMaxPages(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxPages = n
		}
	}
}

// WithLogger sets Client's logger.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Client) {
		c.logger = l
	}
}
