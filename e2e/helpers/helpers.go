package helpers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ewebtechsuk/aktonz2-sub001/internal/platform/models"
	pgmodels "github.com/ewebtechsuk/aktonz2-sub001/internal/platform/storage/gen/postgres/public/model"
	"github.com/ewebtechsuk/aktonz2-sub001/internal/platform/storage/storagetesting"
	"github.com/ewebtechsuk/aktonz2-sub001/internal/snapshot"
	"github.com/go-jet/jet/v2/qrm"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/samber/lo"
	"github.com/stretchr/testify/require"
)

const (
	contentType = "Content-Type"
	pageCount   = "X-Page-Count"
)

// WriteSnapshot is helper function which stores snapshot document of upstream listings in reader's directory.
func WriteSnapshot(
	t *testing.T,
	reader *snapshot.Reader,
	upstream string,
	transactionType models.TransactionType,
	generatedAt time.Time,
	records ...string,
) {
	t.Helper()

	document := fmt.Sprintf(`{"generatedAt": %q, "listings": [%s]}`,
		generatedAt.UTC().Format(time.RFC3339), strings.Join(records, ","))

	if err := os.WriteFile(reader.Path(upstream, transactionType), []byte(document), 0o600); err != nil {
		require.FailNow(t, "can't write snapshot", err)
	}
}

// upstream is shared state of fake upstream servers.
type upstream struct {
	server *httptest.Server
	calls  atomic.Int32

	mu         sync.Mutex
	records    map[models.TransactionType][]string
	status     int
	retryAfter string
}

// URL returns base URL of fake upstream.
func (u *upstream) URL() string {
	return u.server.URL
}

// Client returns http client talking to fake upstream.
func (u *upstream) Client() *http.Client {
	return u.server.Client()
}

// Calls returns number of requests received so far.
func (u *upstream) Calls() int {
	return int(u.calls.Load())
}

// SetRecords replaces raw records served for transaction type.
func (u *upstream) SetRecords(transactionType models.TransactionType, records ...string) {
	u.mu.Lock()
	defer u.mu.Unlock()

	u.records[transactionType] = records
}

// RespondWith makes every following request fail with status. Zero or 200 status restores normal responses.
func (u *upstream) RespondWith(status int, retryAfter string) {
	u.mu.Lock()
	defer u.mu.Unlock()

	u.status = status
	u.retryAfter = retryAfter
}

// failure writes configured failure status, if any.
func (u *upstream) failure(wrt http.ResponseWriter) bool {
	u.mu.Lock()
	defer u.mu.Unlock()

	if u.status == 0 || u.status == http.StatusOK {
		return false
	}
	if u.retryAfter != "" {
		wrt.Header().Set("Retry-After", u.retryAfter)
	}
	wrt.WriteHeader(u.status)
	return true
}

func (u *upstream) recordsOf(transactionType models.TransactionType) []string {
	u.mu.Lock()
	defer u.mu.Unlock()

	return u.records[transactionType]
}

func (u *upstream) allRecords() []string {
	u.mu.Lock()
	defer u.mu.Unlock()

	return lo.Flatten(lo.Values(u.records))
}

// CRMServer is fake CRM REST upstream.
type CRMServer struct {
	upstream
}

// PrepareCRMServer is helper function for mocking CRM REST API guarded by apiKey.
// Every record of transaction type is served on a single page; detail endpoint matches records by id or reference.
func PrepareCRMServer(t *testing.T, apiKey string) *CRMServer {
	t.Helper()

	srv := &CRMServer{upstream: upstream{records: make(map[models.TransactionType][]string)}}
	srv.server = httptest.NewServer(http.HandlerFunc(func(wrt http.ResponseWriter, req *http.Request) {
		srv.calls.Add(1)

		if req.Header.Get("x-api-key") != apiKey {
			wrt.WriteHeader(http.StatusUnauthorized)
			return
		}
		if srv.failure(wrt) {
			return
		}

		wrt.Header().Set(contentType, "application/json")

		if req.URL.Path == "/listings" {
			records := srv.recordsOf(models.TransactionType(req.URL.Query().Get("transactionType")))
			wrt.Header().Set(pageCount, "1")
			_, _ = wrt.Write([]byte("[" + strings.Join(records, ",") + "]"))
			return
		}

		id := strings.TrimPrefix(req.URL.Path, "/listings/")
		for _, record := range srv.allRecords() {
			if crmRecordMatches(t, record, id) {
				_, _ = wrt.Write([]byte(record))
				return
			}
		}
		wrt.WriteHeader(http.StatusNotFound)
	}))

	t.Cleanup(func() {
		srv.server.Close()
	})

	return srv
}

func crmRecordMatches(t *testing.T, record, id string) bool {
	t.Helper()

	var rec struct {
		ID        any    `json:"id"`
		Reference string `json:"reference"`
	}
	if err := json.Unmarshal([]byte(record), &rec); err != nil {
		require.FailNow(t, "can't decode CRM record", err)
	}

	return fmt.Sprint(rec.ID) == id || strings.EqualFold(rec.Reference, id)
}

// MarketplaceServer is fake marketplace GraphQL upstream.
type MarketplaceServer struct {
	upstream
}

type graphqlOperation struct {
	OperationName string         `json:"operationName"`
	Variables     map[string]any `json:"variables"`
}

// PrepareMarketplaceServer is helper function for mocking marketplace GraphQL API guarded by bearer token.
// Unfiltered searches return every node of listing type on a single page. Detail and filtered
// searches find nothing.
func PrepareMarketplaceServer(t *testing.T, token string) *MarketplaceServer {
	t.Helper()

	listingTypes := map[string]models.TransactionType{
		"RENTAL": models.TransactionRent,
		"SALE":   models.TransactionSale,
	}

	srv := &MarketplaceServer{upstream: upstream{records: make(map[models.TransactionType][]string)}}
	srv.server = httptest.NewServer(http.HandlerFunc(func(wrt http.ResponseWriter, req *http.Request) {
		srv.calls.Add(1)

		if req.Header.Get("Authorization") != "Bearer "+token {
			wrt.WriteHeader(http.StatusForbidden)
			return
		}
		if srv.failure(wrt) {
			return
		}

		var ops []graphqlOperation
		if err := json.NewDecoder(req.Body).Decode(&ops); err != nil {
			wrt.WriteHeader(http.StatusBadRequest)
			return
		}

		results := lo.Map(ops, func(op graphqlOperation, _ int) string {
			if op.OperationName != "ListingSearch" {
				return `{"data": {"listing": null}}`
			}

			var nodes []string
			if _, filtered := op.Variables["filter"]; !filtered {
				listingType, _ := op.Variables["listingType"].(string)
				nodes = srv.recordsOf(listingTypes[listingType])
			}
			return `{"data": {"listingSearch": {"nodes": [` + strings.Join(nodes, ",") +
				`], "pageInfo": {"hasNextPage": false, "endCursor": ""}}}}`
		})

		wrt.Header().Set(contentType, "application/json")
		_, _ = wrt.Write([]byte("[" + strings.Join(results, ",") + "]"))
	}))

	t.Cleanup(func() {
		srv.server.Close()
	})

	return srv
}

// WaitForOverride is blocking helper function, returns stored override row of listing id
// or fails the test after timeout.
func WaitForOverride(t *testing.T, queryable qrm.Queryable, id string, timeout time.Duration) pgmodels.ListingOverrides {
	t.Helper()

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		<-time.After(time.Millisecond * 250)

		rows := storagetesting.GetOverrides(t, queryable)
		if row, ok := lo.Find(rows, func(r pgmodels.ListingOverrides) bool { return r.ID == id }); ok {
			return row
		}
	}

	require.FailNow(t, "override was not stored in time", id)
	return pgmodels.ListingOverrides{}
}

// DeclareRMQQueue is helper function for declaring RMQ queue and binding and cleaning them after test is finished.
func DeclareRMQQueue(t *testing.T, channel *amqp.Channel, queueName, exchange, routingKey string) {
	t.Helper()

	_, err := channel.QueueDeclare(queueName, true, false, false, false, nil)
	if err != nil {
		require.FailNow(t, "can't declare queue", queueName, err)
	}

	err = channel.QueueBind(queueName, routingKey, exchange, false, nil)
	if err != nil {
		require.FailNow(t, "can't bind queue", queueName, routingKey, err)
	}

	t.Cleanup(func() {
		_, err := channel.QueueDelete(queueName, false, false, true)
		if err != nil {
			require.FailNow(t, "can't delete queue", queueName, err)
		}
	})
}
