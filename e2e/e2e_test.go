package e2e

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/ewebtechsuk/aktonz2-sub001/cmd/listings/config"
	"github.com/ewebtechsuk/aktonz2-sub001/e2e/helpers"
	"github.com/ewebtechsuk/aktonz2-sub001/internal/aggregator"
	"github.com/ewebtechsuk/aktonz2-sub001/internal/fetcher"
	"github.com/ewebtechsuk/aktonz2-sub001/internal/handler"
	"github.com/ewebtechsuk/aktonz2-sub001/internal/listing"
	"github.com/ewebtechsuk/aktonz2-sub001/internal/overrides"
	"github.com/ewebtechsuk/aktonz2-sub001/internal/platform/clock/clocktesting"
	"github.com/ewebtechsuk/aktonz2-sub001/internal/platform/models"
	"github.com/ewebtechsuk/aktonz2-sub001/internal/platform/rabbitmq"
	"github.com/ewebtechsuk/aktonz2-sub001/internal/platform/storage"
	"github.com/ewebtechsuk/aktonz2-sub001/internal/platform/storage/storagetesting"
	"github.com/ewebtechsuk/aktonz2-sub001/internal/ratelimit"
	"github.com/ewebtechsuk/aktonz2-sub001/internal/snapshot"
	"github.com/ewebtechsuk/aktonz2-sub001/internal/source/crm"
	"github.com/ewebtechsuk/aktonz2-sub001/internal/source/marketplace"
	"github.com/ewebtechsuk/aktonz2-sub001/internal/ttlcache"
	"github.com/ewebtechsuk/aktonz2-sub001/pkg/v1/commander"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	_ "github.com/lib/pq"
)

const (
	userAgent = "aktonz-e2e-test/0.0.1"
	exchange  = "listings-e2e"
	apiKey    = "crm-key"
	token     = "marketplace-token"

	liveCacheTTL   = time.Minute
	maxSnapshotAge = 10 * time.Minute

	crmLetAgreed = `{
		"id": 101,
		"reference": "AKT-00101",
		"branch": {"code": "SHO"},
		"transactionType": "rent",
		"status": "Let Agreed",
		"price": 1200,
		"rentFrequency": "M",
		"bedrooms": 2,
		"propertyType": "Flat",
		"displayAddress": "1 High Street, London",
		"postalCode": "E1 6AN",
		"securityDepositType": "FIVE_WEEKS"
	}`
	crmAvailable      = `{"id": 102, "reference": "AKT-00102", "transactionType": "rent", "status": "available", "price": "£950", "rentFrequency": "week"}`
	crmSnapshotRecord = `{"id": 9, "reference": "AKT-00009", "transactionType": "rent", "status": "available", "price": 800}`

	marketplaceMirror = `{
		"id": "mkt_1",
		"slug": "two-bed-flat-shoreditch",
		"externalReference": "AKT-00101",
		"listingType": "RENTAL",
		"state": "UNDER_OFFER",
		"price": {"amount": "300.00", "currency": "gbp", "frequency": "PER_WEEK"}
	}`
	marketplaceOnly           = `{"id": "mkt_2", "listingType": "RENTAL", "state": "ACTIVE", "price": {"amount": 1500, "frequency": "PER_MONTH"}}`
	marketplaceSnapshotRecord = `{"id": "mkt_9", "slug": "cosy-studio", "listingType": "RENTAL", "state": "ACTIVE", "price": {"amount": 700}}`
)

var now = time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC)

func TestMain(m *testing.M) {
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
	os.Exit(m.Run())
}

// pipeline is listings service wired the same way the service binary wires it,
// talking to fake upstreams and driven by fake clock.
type pipeline struct {
	clock         *clocktesting.Fake
	crm           *helpers.CRMServer
	marketplace   *helpers.MarketplaceServer
	snapshots     *snapshot.Reader
	overridesFile string
	store         *overrides.Store
	service       *listing.Service
	logs          *bytes.Buffer
	logger        zerolog.Logger
}

func newPipeline(t *testing.T, persister overrides.Persister) *pipeline {
	t.Helper()

	p := &pipeline{
		clock:         clocktesting.NewFake(now),
		crm:           helpers.PrepareCRMServer(t, apiKey),
		marketplace:   helpers.PrepareMarketplaceServer(t, token),
		snapshots:     snapshot.NewReader(t.TempDir()),
		overridesFile: filepath.Join(t.TempDir(), "overrides.json"),
		logs:          &bytes.Buffer{},
	}
	p.logger = zerolog.New(zerolog.SyncWriter(p.logs)).Level(zerolog.DebugLevel)

	if persister == nil {
		persister = overrides.NewFile(p.overridesFile, p.logger)
	}

	tracker := ratelimit.NewTracker(ratelimit.WithClock(p.clock), ratelimit.WithLogger(p.logger))
	tracker.Register(crm.Upstream, true)
	tracker.Register(marketplace.Upstream, true)

	noSleep := fetcher.WithSleep(func(context.Context, time.Duration) error { return nil })

	crmClient := crm.NewClient(
		fetcher.NewFetcher(p.crm.Client(), crm.Upstream, userAgent, tracker,
			fetcher.WithClock(p.clock), noSleep, fetcher.WithLogger(p.logger)),
		p.snapshots,
		p.crm.URL(),
		apiKey,
		crm.WithLogger(p.logger),
	)
	marketplaceClient := marketplace.NewClient(
		fetcher.NewFetcher(p.marketplace.Client(), marketplace.Upstream, userAgent, tracker,
			fetcher.WithClock(p.clock), noSleep, fetcher.WithLogger(p.logger)),
		p.snapshots,
		p.marketplace.URL(),
		token,
		marketplace.WithLogger(p.logger),
	)

	p.store = overrides.NewStore(persister, overrides.WithClock(p.clock), overrides.WithLogger(p.logger))
	t.Cleanup(p.store.Close)

	agg := aggregator.NewAggregator(
		[]aggregator.Feed{crmClient, marketplaceClient},
		ttlcache.NewMemory[[]models.Listing](liveCacheTTL, ttlcache.WithClock(p.clock)),
		aggregator.WithMaxSnapshotAge(maxSnapshotAge),
		aggregator.WithTransform(p.store.Transform),
		aggregator.WithClock(p.clock),
		aggregator.WithLogger(p.logger),
	)

	p.service = listing.NewService(
		agg,
		[]listing.Finder{crmClient, marketplaceClient},
		p.store,
		listing.WithLogger(p.logger),
	)

	return p
}

func (p *pipeline) rentals(ctx context.Context, filters models.Filters) []models.Listing {
	return p.service.ListListingsByType(ctx, models.TransactionRent, models.FetchOptions{AllowNetwork: true, Filters: filters})
}

func ids(listings []models.Listing) []string {
	return lo.Map(listings, func(l models.Listing, _ int) string { return l.ID })
}

func TestPipeline(t *testing.T) {
	suite.Run(t, new(PipelineTestSuite))
}

type PipelineTestSuite struct {
	suite.Suite
	ctx context.Context
	p   *pipeline
}

func (s *PipelineTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.p = newPipeline(s.T(), nil)
}

func (s *PipelineTestSuite) TestLiveSourcesAreMergedAndCached() {
	s.p.crm.SetRecords(models.TransactionRent, crmLetAgreed, crmAvailable)
	s.p.marketplace.SetRecords(models.TransactionRent, marketplaceMirror, marketplaceOnly)

	listings := s.p.rentals(s.ctx, models.Filters{})

	s.ElementsMatch([]string{"101", "102", "mkt_2"}, ids(listings), "mirrored marketplace listing should be dropped")
	mirrored, ok := lo.Find(listings, func(l models.Listing) bool { return l.ID == "101" })
	s.Require().True(ok)
	s.Equal(models.SourceCRM, mirrored.Source, "CRM record should win over its marketplace mirror")
	s.Equal(1, s.p.crm.Calls())
	s.Equal(1, s.p.marketplace.Calls())

	s.p.clock.Advance(liveCacheTTL / 2)
	s.ElementsMatch(ids(listings), ids(s.p.rentals(s.ctx, models.Filters{})))
	s.Equal(1, s.p.crm.Calls(), "live results should be served from cache")
	s.Equal(1, s.p.marketplace.Calls(), "live results should be served from cache")

	s.p.clock.Advance(liveCacheTTL)
	s.p.rentals(s.ctx, models.Filters{})
	s.Equal(2, s.p.crm.Calls(), "expired live results should be fetched again")
	s.Equal(2, s.p.marketplace.Calls(), "expired live results should be fetched again")
}

func (s *PipelineTestSuite) TestFreshSnapshotsAreServedWithoutNetwork() {
	helpers.WriteSnapshot(s.T(), s.p.snapshots, crm.Upstream, models.TransactionRent, now.Add(-time.Minute), crmSnapshotRecord)
	helpers.WriteSnapshot(s.T(), s.p.snapshots, marketplace.Upstream, models.TransactionRent, now.Add(-time.Minute), marketplaceSnapshotRecord)
	s.p.crm.SetRecords(models.TransactionRent, crmLetAgreed)

	s.ElementsMatch([]string{"9", "mkt_9"}, ids(s.p.rentals(s.ctx, models.Filters{})))
	s.Zero(s.p.crm.Calls())
	s.Zero(s.p.marketplace.Calls())

	s.p.clock.Advance(maxSnapshotAge)
	s.ElementsMatch([]string{"101", "9", "mkt_9"}, ids(s.p.rentals(s.ctx, models.Filters{})), "stale snapshots should be merged with live listings")
	s.Equal(1, s.p.crm.Calls())
}

func (s *PipelineTestSuite) TestRateLimitedUpstreamFallsBackToSnapshot() {
	helpers.WriteSnapshot(s.T(), s.p.snapshots, crm.Upstream, models.TransactionRent, now.Add(-time.Hour), crmSnapshotRecord)
	s.p.crm.SetRecords(models.TransactionRent, crmLetAgreed)
	s.p.crm.RespondWith(http.StatusTooManyRequests, "30")
	s.p.marketplace.SetRecords(models.TransactionRent, marketplaceOnly)

	s.ElementsMatch([]string{"9", "mkt_2"}, ids(s.p.rentals(s.ctx, models.Filters{})))
	s.Equal(1, s.p.crm.Calls(), "rate limited upstream shouldn't be retried")
	s.Contains(s.p.logs.String(), "live fetch failed, using snapshot listings")

	s.p.clock.Advance(29 * time.Second)
	s.p.service.Invalidate(s.ctx)
	s.ElementsMatch([]string{"9", "mkt_2"}, ids(s.p.rentals(s.ctx, models.Filters{})))
	s.Equal(1, s.p.crm.Calls(), "upstream shouldn't be called before retry window passes")
	s.Equal(2, s.p.marketplace.Calls(), "other upstream should be unaffected")

	s.p.crm.RespondWith(http.StatusOK, "")
	s.p.clock.Advance(2 * time.Second)
	s.p.service.Invalidate(s.ctx)
	s.ElementsMatch([]string{"101", "9", "mkt_2"}, ids(s.p.rentals(s.ctx, models.Filters{})))
	s.Equal(2, s.p.crm.Calls(), "upstream should be called again after retry window")
}

func (s *PipelineTestSuite) TestRevokedCredentialsDisableUpstream() {
	s.p.crm.RespondWith(http.StatusForbidden, "")
	s.p.marketplace.SetRecords(models.TransactionRent, marketplaceOnly)

	s.ElementsMatch([]string{"mkt_2"}, ids(s.p.rentals(s.ctx, models.Filters{})))

	s.p.crm.RespondWith(http.StatusOK, "")
	s.p.crm.SetRecords(models.TransactionRent, crmAvailable)
	s.p.clock.Advance(time.Hour)
	s.p.rentals(s.ctx, models.Filters{})

	s.Equal(1, s.p.crm.Calls(), "disabled upstream should stay disabled until restart")
}

func (s *PipelineTestSuite) TestOverrideCommandIsServed() {
	s.p.crm.SetRecords(models.TransactionRent, crmLetAgreed, crmAvailable)
	s.p.marketplace.SetRecords(models.TransactionRent, marketplaceMirror, marketplaceOnly)
	han := handler.NewHandler(nil, s.p.service, &s.p.logger)

	err := han.Handle(s.ctx, []byte(`{"type": "apply_override", "listingId": "akt-00101", "patch": {"status": "under_offer", "bedrooms": 3}}`))
	s.Require().NoError(err)

	underOffer := s.p.rentals(s.ctx, models.Filters{Statuses: []models.Status{models.StatusUnderOffer}})
	s.Require().Len(underOffer, 1)
	s.Equal("101", underOffer[0].ID)
	s.Equal(lo.ToPtr(3), underOffer[0].Bedrooms)

	byID := s.p.service.GetListingByID(s.ctx, "AKT-00101", models.FetchOptions{AllowNetwork: true})
	s.Require().NotNil(byID)
	s.Equal(models.StatusUnderOffer, byID.Status)

	stored, err := overrides.NewFile(s.p.overridesFile, zerolog.Nop()).Load(s.ctx)
	s.Require().NoError(err)
	s.Require().Contains(stored, "101")
	s.JSONEq(`"under_offer"`, string(stored["101"].Fields["status"]))
	s.Equal(now, stored["101"].UpdatedAt)

	err = han.Handle(s.ctx, []byte(`{"type": "apply_override", "listingId": "101", "patch": {"status": null, "bedrooms": null}}`))
	s.Require().NoError(err)

	s.Empty(s.p.rentals(s.ctx, models.Filters{Statuses: []models.Status{models.StatusUnderOffer}}))
	stored, err = overrides.NewFile(s.p.overridesFile, zerolog.Nop()).Load(s.ctx)
	s.Require().NoError(err)
	s.NotContains(stored, "101", "reverted override should be removed")
}

func (s *PipelineTestSuite) TestInvalidOverrideCommandIsRejected() {
	s.p.crm.SetRecords(models.TransactionRent, crmLetAgreed)
	han := handler.NewHandler(nil, s.p.service, &s.p.logger)

	tests := map[string]string{
		"unknown listing": `{"type": "apply_override", "listingId": "AKT-99999", "patch": {"status": "let"}}`,
		"derived field":   `{"type": "apply_override", "listingId": "101", "patch": {"statusLabel": "Let"}}`,
		"malformed price": `{"type": "apply_override", "listingId": "101", "patch": {"price": "cheap"}}`,
	}

	for name, message := range tests {
		s.Run(name, func() {
			s.Error(han.Handle(s.ctx, []byte(message)))
		})
	}

	stored, err := overrides.NewFile(s.p.overridesFile, zerolog.Nop()).Load(s.ctx)
	s.Require().NoError(err)
	s.Empty(stored)
}

func (s *PipelineTestSuite) TestCacheCommands() {
	s.p.crm.SetRecords(models.TransactionRent, crmAvailable)
	s.p.marketplace.SetRecords(models.TransactionRent, marketplaceOnly)
	han := handler.NewHandler(nil, s.p.service, &s.p.logger)

	s.Require().NoError(han.Handle(s.ctx, []byte(`{"type": "warm_cache"}`)))
	s.Equal(2, s.p.crm.Calls(), "both transaction types should be warmed")
	s.Equal(2, s.p.marketplace.Calls(), "both transaction types should be warmed")

	s.ElementsMatch([]string{"102", "mkt_2"}, ids(s.p.rentals(s.ctx, models.Filters{})))
	s.Equal(2, s.p.crm.Calls(), "warmed listings should be served from cache")

	s.Require().NoError(han.Handle(s.ctx, []byte(`{"type": "invalidate_cache"}`)))
	s.p.rentals(s.ctx, models.Filters{})
	s.Equal(3, s.p.crm.Calls(), "purged listings should be fetched again")

	s.Require().NoError(han.Handle(s.ctx, []byte(`{"type": "warm_cache", "transactionType": "sale"}`)))
	s.Equal(4, s.p.crm.Calls(), "only requested transaction type should be warmed")
}

func TestE2E(t *testing.T) {
	var cfg config.Config
	if err := env.Parse(&cfg); err != nil {
		require.FailNow(t, "can't parse env variables", err)
	}
	if cfg.RabbitMQ.URL == "" || cfg.DatabaseURL == "" {
		t.Skip("please provide RABBITMQ_URL and DATABASE_URL environment variables")
	}

	suite.Run(t, &E2ETestSuite{cfg: &cfg})
}

// E2ETestSuite sends commands through RabbitMQ and keeps overrides in Postgres.
type E2ETestSuite struct {
	suite.Suite
	cfg        *config.Config
	connection *amqp.Connection
	channel    *amqp.Channel
	db         *sql.DB
}

func (s *E2ETestSuite) SetupSuite() {
	var err error

	if s.connection, err = amqp.Dial(s.cfg.RabbitMQ.URL); err != nil {
		s.Require().FailNow("can't open RabbitMQ connection", err)
	}

	if s.channel, err = s.connection.Channel(); err != nil {
		s.Require().FailNow("can't open RabbitMQ channel", err)
	}

	if s.db, err = sql.Open("postgres", s.cfg.DatabaseURL); err != nil {
		s.Require().FailNow("can't open Postgres connection", err)
	}

	if err := storage.NewPostgres(s.db, zerolog.Nop()).EnsureSchema(context.Background()); err != nil {
		s.Require().FailNow("can't create schema", err)
	}
}

func (s *E2ETestSuite) TearDownSuite() {
	storagetesting.CleanupData(s.T(), s.db)
	if err := s.db.Close(); err != nil {
		s.FailNow("can't close Postgres connection", err)
	}

	if err := s.channel.Close(); err != nil {
		s.FailNow("can't close RabbitMQ channel", err)
	}

	if err := s.connection.Close(); err != nil {
		s.FailNow("can't close RabbitMQ connection", err)
	}
}

func (s *E2ETestSuite) TestOverrideCommand() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	storagetesting.CleanupData(s.T(), s.db)

	// Prepare RMQ client and test queue
	rmq, err := rabbitmq.NewRabbitMQ(s.connection, exchange)
	if err != nil {
		s.Require().FailNow("can't create RabbitMQ client", err)
	}
	queue := fmt.Sprintf("listings-e2e-test-%d", rand.Int63n(100000))
	routingKey := fmt.Sprintf("listings.e2e.%d", rand.Int63n(100000))
	helpers.DeclareRMQQueue(s.T(), s.channel, queue, exchange, routingKey+".*")

	// Prepare pipeline keeping overrides in Postgres
	p := newPipeline(s.T(), storage.NewPostgres(s.db, zerolog.Nop()))
	p.crm.SetRecords(models.TransactionRent, crmLetAgreed, crmAvailable)

	// Prepare and run handler
	han := handler.NewHandler(rmq, p.service, &p.logger)
	s.Require().NoError(han.Start(ctx, queue), "handler shouldn't return any error")

	cmdr := commander.NewListingsCommander(commander.NewRabbitMQSender(rmq, routingKey))
	if err := cmdr.SendApplyOverride(ctx, "AKT-00102", json.RawMessage(`{"status": "let_agreed"}`)); err != nil {
		s.Require().FailNow("can't publish apply override command", err)
	}

	row := helpers.WaitForOverride(s.T(), s.db, "102", 10*time.Second)

	// Cancel context to stop consumer
	cancel()
	<-rmq.Done()
	s.Require().NoError(rmq.Close())

	s.JSONEq(`{"status": "let_agreed"}`, row.Patch)
	s.Equal(now, row.UpdatedAt.UTC())

	letAgreed := p.rentals(context.Background(), models.Filters{Statuses: []models.Status{models.StatusLetAgreed}})
	s.ElementsMatch([]string{"101", "102"}, ids(letAgreed))

	assertLogsMessages(s.T(), p.logs.String(), "override applied")
}

// assertLogsMessages is helper function which unmarshals json logs and asserts every expected message was logged.
func assertLogsMessages(t *testing.T, logs string, expected ...string) {
	t.Helper()

	var messages []string
	for _, line := range strings.Split(logs, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}

		var log struct {
			Message string `json:"message"`
		}
		if err := json.Unmarshal([]byte(line), &log); err != nil {
			require.FailNow(t, "can't unmarshal json log", err)
		}
		messages = append(messages, log.Message)
	}

	for _, exp := range expected {
		assert.Containsf(t, messages, exp, "message %q should be logged", exp)
	}
}
