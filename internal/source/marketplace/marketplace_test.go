package marketplace_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ewebtechsuk/aktonz2-sub001/internal/fetcher"
	"github.com/ewebtechsuk/aktonz2-sub001/internal/platform/models"
	"github.com/ewebtechsuk/aktonz2-sub001/internal/ratelimit"
	"github.com/ewebtechsuk/aktonz2-sub001/internal/snapshot"
	"github.com/ewebtechsuk/aktonz2-sub001/internal/source/marketplace"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	token = "token"

	firstNode = `{
		"id": "mkt_1",
		"slug": "two-bed-flat-shoreditch",
		"externalReference": "AKT-00101",
		"listingType": "RENTAL",
		"state": "UNDER_OFFER",
		"price": {"amount": "300.00", "currency": "gbp", "frequency": "PER_WEEK"},
		"bedrooms": 2,
		"propertyType": "Flat",
		"location": {"latitude": 51.52, "longitude": -0.07},
		"address": {"display": "Shoreditch, London", "postcode": "e2 7aa"},
		"photos": [{"url": "https://img.example/a.jpg"}],
		"deposit": {"weeks": 5},
		"title": "Two bed flat",
		"areas": ["Shoreditch"]
	}`
	secondNode       = `{"id": "mkt_2", "listingType": "RENTAL", "state": "ACTIVE", "price": {"amount": 1500, "frequency": "PER_MONTH"}}`
	snapshotDocument = `{"generatedAt": "2024-03-01T12:00:00Z", "listings": [{"id": "mkt_9", "slug": "cosy-studio", "listingType": "RENTAL", "state": "ACTIVE", "price": {"amount": 700}}]}`
)

type operation struct {
	OperationName string         `json:"operationName"`
	Variables     map[string]any `json:"variables"`
}

type upstream struct {
	server *httptest.Server
	calls  atomic.Int32
}

func newUpstream(t *testing.T, respond func(ops []operation) []string) *upstream {
	t.Helper()

	u := &upstream{}
	u.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u.calls.Add(1)
		assert.Equal(t, http.MethodPost, r.Method)
		if r.Header.Get("Authorization") != "Bearer "+token {
			w.WriteHeader(http.StatusForbidden)
			return
		}

		var ops []operation
		if !assert.NoError(t, json.NewDecoder(r.Body).Decode(&ops)) {
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		results := respond(ops)
		_, _ = w.Write([]byte("[" + joinResults(results) + "]"))
	}))
	t.Cleanup(u.server.Close)

	return u
}

func joinResults(results []string) string {
	joined := ""
	for i, result := range results {
		if i > 0 {
			joined += ","
		}
		joined += result
	}
	return joined
}

func searchResult(hasNext bool, cursor string, nodes ...string) string {
	return `{"data": {"listingSearch": {"nodes": [` + joinResults(nodes) + `], "pageInfo": {"hasNextPage": ` +
		lo.Ternary(hasNext, "true", "false") + `, "endCursor": "` + cursor + `"}}}}`
}

func newClient(t *testing.T, u *upstream) *marketplace.Client {
	t.Helper()

	reader := snapshot.NewReader(t.TempDir())
	require.NoError(t, os.WriteFile(reader.Path(marketplace.Upstream, models.TransactionRent), []byte(snapshotDocument), 0o600))

	tracker := ratelimit.NewTracker()
	tracker.Register(marketplace.Upstream, true)
	f := fetcher.NewFetcher(u.server.Client(), marketplace.Upstream, "test/0.0.0", tracker,
		fetcher.WithSleep(func(context.Context, time.Duration) error { return nil }),
	)

	return marketplace.NewClient(f, reader, u.server.URL, token)
}

func TestUnitFetchByTypeFollowsCursor(t *testing.T) {
	u := newUpstream(t, func(ops []operation) []string {
		if !assert.Len(t, ops, 1) {
			return nil
		}
		assert.Equal(t, "ListingSearch", ops[0].OperationName)
		assert.Equal(t, "RENTAL", ops[0].Variables["listingType"])

		if ops[0].Variables["after"] == nil {
			return []string{searchResult(true, "c1", firstNode)}
		}
		assert.Equal(t, "c1", ops[0].Variables["after"])
		return []string{searchResult(false, "c2", secondNode)}
	})
	client := newClient(t, u)

	listings := client.FetchByType(context.Background(), models.TransactionRent, models.FetchOptions{AllowNetwork: true})

	require.Len(t, listings, 2)
	assert.Equal(t, int32(2), u.calls.Load())

	first := listings[0]
	assert.Equal(t, "mkt_1", first.ID)
	assert.Equal(t, models.SourceMarketplace, first.Source)
	assert.Equal(t, "AKT-00101", first.Aliases.ExternalReference)
	assert.Equal(t, models.StatusUnderOffer, first.Status)
	assert.Equal(t, "GBP", first.PriceCurrency)
	assert.Equal(t, models.FrequencyWeekly, *first.RentFrequency)
	assert.Equal(t, "£300 pw", first.RentLabel)
	assert.True(t, decimal.NewFromInt(1300).Equal(*first.MonthlyRent))
	assert.Equal(t, "E2 7AA", first.Address.Postcode)
	assert.Equal(t, "Two bed flat", first.Marketing.Headline)
	require.NotNil(t, first.SecurityDeposit)
	assert.True(t, decimal.NewFromInt(1500).Equal(*first.SecurityDeposit.Amount))
	assert.Equal(t, models.BasisWeeks, *first.SecurityDeposit.CalculatedFrom)
	assert.NotEmpty(t, first.Geohash)

	assert.Equal(t, "mkt_2", listings[1].ID)
	assert.Equal(t, models.FrequencyMonthly, *listings[1].RentFrequency)
}

func TestUnitFetchByTypeFallsBackToSnapshot(t *testing.T) {
	tests := map[string]struct {
		respond func(ops []operation) []string
	}{
		"graphql errors without data": {
			respond: func([]operation) []string {
				return []string{`{"data": null, "errors": [{"message": "internal error"}]}`}
			},
		},
		"unexpected shape": {
			respond: func([]operation) []string {
				return []string{`{"data": {"somethingElse": true}}`}
			},
		},
		"result count mismatch": {
			respond: func([]operation) []string {
				return nil
			},
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			u := newUpstream(t, tc.respond)
			client := newClient(t, u)

			listings := client.FetchByType(context.Background(), models.TransactionRent, models.FetchOptions{AllowNetwork: true})

			require.Len(t, listings, 1)
			assert.Equal(t, "mkt_9", listings[0].ID)
			assert.Equal(t, int32(1), u.calls.Load())
		})
	}
}

func TestUnitFetchByID(t *testing.T) {
	tests := map[string]struct {
		id        string
		respond   func(t *testing.T, ops []operation) []string
		wantID    string
		wantCalls int32
	}{
		"snapshot by slug": {
			id:     "Cosy-Studio",
			wantID: "mkt_9",
		},
		"detail operation": {
			id: "mkt_1",
			respond: func(t *testing.T, ops []operation) []string {
				assert.Len(t, ops, 1)
				assert.Equal(t, "ListingDetail", ops[0].OperationName)
				assert.Equal(t, "mkt_1", ops[0].Variables["id"])
				return []string{`{"data": {"listing": ` + firstNode + `}}`}
			},
			wantID:    "mkt_1",
			wantCalls: 1,
		},
		"batched search by external reference": {
			id: "akt-00101",
			respond: func(t *testing.T, ops []operation) []string {
				if ops[0].OperationName == "ListingDetail" {
					return []string{`{"data": {"listing": null}}`}
				}

				// externalReference and slug with id, externalReference with 00101 and 101, for both types
				assert.Len(t, ops, 8)
				results := make([]string, len(ops))
				for i, op := range ops {
					filter, _ := op.Variables["filter"].(map[string]any)
					if filter["externalReference"] == "akt-00101" && op.Variables["listingType"] == "RENTAL" {
						results[i] = searchResult(false, "", firstNode)
						continue
					}
					results[i] = searchResult(false, "")
				}
				return results
			},
			wantID:    "mkt_1",
			wantCalls: 2,
		},
		"not found anywhere": {
			id: "missing",
			respond: func(t *testing.T, ops []operation) []string {
				if ops[0].OperationName == "ListingDetail" {
					return []string{`{"data": {"listing": null}}`}
				}
				return lo.Map(ops, func(operation, int) string { return searchResult(false, "") })
			},
			wantCalls: 2,
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			u := newUpstream(t, func(ops []operation) []string {
				if tc.respond == nil {
					t.Errorf("unexpected upstream call")
					return nil
				}
				return tc.respond(t, ops)
			})
			client := newClient(t, u)

			listing := client.FetchByID(context.Background(), tc.id, models.FetchOptions{AllowNetwork: true})

			if tc.wantID == "" {
				assert.Nil(t, listing)
			} else {
				require.NotNil(t, listing)
				assert.Equal(t, tc.wantID, listing.ID)
			}
			assert.Equal(t, tc.wantCalls, u.calls.Load())
		})
	}
}

func TestUnitForbiddenDisablesNetwork(t *testing.T) {
	u := newUpstream(t, func([]operation) []string { return nil })
	tracker := ratelimit.NewTracker()
	tracker.Register(marketplace.Upstream, true)
	f := fetcher.NewFetcher(u.server.Client(), marketplace.Upstream, "test/0.0.0", tracker)
	client := marketplace.NewClient(f, snapshot.NewReader(t.TempDir()), u.server.URL, "expired")

	listings := client.FetchByType(context.Background(), models.TransactionRent, models.FetchOptions{AllowNetwork: true})

	assert.Empty(t, listings)
	assert.False(t, client.CanAttemptNetwork())
	assert.False(t, tracker.CanAttemptNetwork(marketplace.Upstream))
}
