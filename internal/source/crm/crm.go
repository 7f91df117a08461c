// Package crm is adapter of the CRM REST API.
package crm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/ewebtechsuk/aktonz2-sub001/internal/fetcher"
	"github.com/ewebtechsuk/aktonz2-sub001/internal/platform/models"
	"github.com/ewebtechsuk/aktonz2-sub001/internal/snapshot"
	"github.com/ewebtechsuk/aktonz2-sub001/internal/source"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Upstream is name the CRM is registered under in rate limit tracker and snapshot files.
const Upstream = "crm"

const (
	// DefaultPageSize is number of listings requested per page.
	DefaultPageSize = 100
	// DefaultMaxPages bounds pagination of a single list call.
	DefaultMaxPages = 20

	apiKeyHeader    = "x-api-key"
	pageCountHeader = "X-Page-Count"
	searchParallel  = 3
)

var (
	idSearchFields      = []string{"reference", "externalReference"}
	numericSearchFields = []string{"id", "referenceNumber"}
)

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

// Client maps CRM listings into canonical listings.
type Client struct {
	fetcher   Fetcher
	snapshots Snapshots
	baseURL   string
	apiKey    string
	branchID  string
	pageSize  int
	maxPages  int
	logger    zerolog.Logger
}

// NewClient returns new CRM Client.
func NewClient(f Fetcher, snapshots Snapshots, baseURL, apiKey string, ops ...Option) *Client {
	c := &Client{
		fetcher:   f,
		snapshots: snapshots,
		baseURL:   strings.TrimRight(baseURL, "/"),
		apiKey:    apiKey,
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
	return models.SourceCRM
}

// CanAttemptNetwork reports whether CRM may be called now.
func (c *Client) CanAttemptNetwork() bool {
	return c.fetcher.CanAttemptNetwork()
}

// Cached returns listings of on-disk snapshot and time it was generated at.
func (c *Client) Cached(ctx context.Context, transactionType models.TransactionType) ([]models.Listing, time.Time) {
	entry := c.snapshots.Read(ctx, Upstream, transactionType)
	return source.MapRecords(entry.Listings, decode, c.logger), entry.GeneratedAt
}

// Live returns every listing of transaction type from CRM, following pagination.
func (c *Client) Live(ctx context.Context, transactionType models.TransactionType) ([]models.Listing, error) {
	var listings []models.Listing
	for page := 1; page <= c.maxPages; page++ {
		query := c.listQuery(transactionType)
		query.Set("page", strconv.Itoa(page))

		records, pageCount, err := c.list(ctx, query)
		if err != nil {
			return nil, fmt.Errorf("can't list %s listings page %d: %w", transactionType, page, err)
		}

		listings = append(listings, source.MapRecords(records, decode, c.logger)...)

		if pageCount > 0 && page >= pageCount {
			break
		}
		if pageCount == 0 && len(records) < c.pageSize {
			break
		}
	}

	return listings, nil
}

// FetchByType returns listings of transaction type matching options' filters.
// Upstream failures are logged and snapshot listings are returned instead.
func (c *Client) FetchByType(ctx context.Context, transactionType models.TransactionType, opts models.FetchOptions) []models.Listing {
	return source.FetchByType(ctx, c, transactionType, opts, c.logger)
}

// FetchByID returns listing known under id, or nil. Snapshots are searched first, then
// the detail endpoint and finally list searches by id-like parameters while network is permitted.
func (c *Client) FetchByID(ctx context.Context, id string, opts models.FetchOptions) *models.Listing {
	tiers := source.ByIDTiers(c, opts,
		source.Tier{Name: "detail", Network: true, Lookup: c.findDetail},
		source.Tier{Name: "search", Network: true, Lookup: c.search},
	)

	return source.NewChain(c.CanAttemptNetwork, c.logger, tiers...).Find(ctx, id)
}

func (c *Client) findDetail(ctx context.Context, id string) (*models.Listing, error) {
	resp, err := c.fetcher.Fetch(ctx, c.request(c.baseURL+"/listings/"+url.PathEscape(strings.TrimSpace(id)), nil))
	if err != nil {
		var statusErr *fetcher.StatusError
		if errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("can't get listing detail: %w", err)
	}

	listings := source.MapRecords([]json.RawMessage{resp.Body}, decode, c.logger)
	return source.FindByID(listings, id), nil
}

// search queries list endpoint with every candidate parameter concurrently.
// Result of the earliest candidate wins.
func (c *Client) search(ctx context.Context, id string) (*models.Listing, error) {
	params := source.CandidateParams(id, idSearchFields, numericSearchFields)
	if len(params) == 0 {
		return nil, nil
	}

	results := make([]*models.Listing, len(params))
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(searchParallel)
	for i, param := range params {
		group.Go(func() error {
			query := url.Values{}
			query.Set(param.Name, param.Value)
			query.Set("pageSize", strconv.Itoa(c.pageSize))

			records, _, err := c.list(groupCtx, query)
			if err != nil {
				return fmt.Errorf("can't search by %s: %w", param.Name, err)
			}
			results[i] = source.FindByID(source.MapRecords(records, decode, c.logger), id)
			return nil
		})
	}
	err := group.Wait()

	for _, listing := range results {
		if listing != nil {
			return listing, nil
		}
	}
	return nil, err
}

func (c *Client) listQuery(transactionType models.TransactionType) url.Values {
	query := url.Values{}
	query.Set("transactionType", string(transactionType))
	query.Set("pageSize", strconv.Itoa(c.pageSize))
	query.Set("includeImages", "1")
	if c.branchID != "" {
		query.Set("branchId", c.branchID)
	}
	return query
}

func (c *Client) list(ctx context.Context, query url.Values) ([]json.RawMessage, int, error) {
	resp, err := c.fetcher.Fetch(ctx, c.request(c.baseURL+"/listings", query))
	if err != nil {
		return nil, 0, err
	}

	var records []json.RawMessage
	if err := json.Unmarshal(resp.Body, &records); err != nil {
		return nil, 0, fmt.Errorf("can't decode listings page: %w", err)
	}

	pageCount, _ := strconv.Atoi(resp.Header.Get(pageCountHeader))
	return records, pageCount, nil
}

func (c *Client) request(endpoint string, query url.Values) fetcher.Request {
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	header := http.Header{}
	header.Set(apiKeyHeader, c.apiKey)

	return fetcher.Request{
		Method: http.MethodGet,
		URL:    endpoint,
		Header: header,
	}
}

// WithBranchID limits listings to single branch.
func WithBranchID(id string) Option {
	return func(c *Client) {
		c.branchID = id
	}
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
