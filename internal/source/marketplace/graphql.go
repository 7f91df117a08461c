package marketplace

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/ewebtechsuk/aktonz2-sub001/internal/fetcher"
	"github.com/samber/lo"
)

const listingFields = `
fragment ListingFields on Listing {
  id
  slug
  externalReference
  listingType
  state
  price { amount currency frequency qualifier }
  bedrooms
  bathrooms
  receptions
  propertyType
  location { latitude longitude }
  address { display line1 line2 city county postcode country }
  photos { url }
  deposit
  depositType
  holdingDeposit
  availableFrom
  createdAt
  updatedAt
  title
  summary
  description
  featured
  areas
}`

const (
	searchOperation = "ListingSearch"
	detailOperation = "ListingDetail"

	searchQuery = `query ListingSearch($listingType: ListingType!, $first: Int!, $after: String, $filter: ListingFilter) {
  listingSearch(listingType: $listingType, first: $first, after: $after, filter: $filter) {
    nodes { ...ListingFields }
    pageInfo { hasNextPage endCursor }
  }
}` + listingFields

	detailQuery = `query ListingDetail($id: ID!) {
  listing(id: $id) { ...ListingFields }
}` + listingFields
)

// ErrMalformedResult is returned when operation result carries neither data nor usable shape.
var ErrMalformedResult = errors.New("malformed graphql result")

type operation struct {
	OperationName string         `json:"operationName"`
	Query         string         `json:"query"`
	Variables     map[string]any `json:"variables"`
}

type graphqlError struct {
	Message string `json:"message"`
}

type result struct {
	Data   json.RawMessage `json:"data"`
	Errors []graphqlError  `json:"errors"`
}

type searchData struct {
	ListingSearch *struct {
		Nodes    []json.RawMessage `json:"nodes"`
		PageInfo struct {
			HasNextPage bool   `json:"hasNextPage"`
			EndCursor   string `json:"endCursor"`
		} `json:"pageInfo"`
	} `json:"listingSearch"`
}

type detailData struct {
	Listing json.RawMessage `json:"listing"`
}

// execute sends operations as single batched request. Results are returned in operation order.
func (c *Client) execute(ctx context.Context, ops ...operation) ([]result, error) {
	body, err := json.Marshal(ops)
	if err != nil {
		return nil, fmt.Errorf("can't encode graphql batch: %w", err)
	}

	header := http.Header{}
	header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.fetcher.Fetch(ctx, fetcher.Request{
		Method: http.MethodPost,
		URL:    c.endpoint,
		Header: header,
		Body:   body,
	})
	if err != nil {
		return nil, err
	}

	var results []result
	if err := json.Unmarshal(resp.Body, &results); err != nil {
		return nil, fmt.Errorf("can't decode graphql batch response: %w", err)
	}
	if len(results) != len(ops) {
		return nil, fmt.Errorf("%w: %d results for %d operations", ErrMalformedResult, len(results), len(ops))
	}

	return results, nil
}

// decodeData unmarshals operation data into v. Errors without data make the result malformed.
func (r result) decodeData(v any) error {
	if len(r.Data) == 0 || string(r.Data) == "null" {
		if len(r.Errors) > 0 {
			messages := lo.Map(r.Errors, func(e graphqlError, _ int) string { return e.Message })
			return fmt.Errorf("%w: %s", ErrMalformedResult, strings.Join(messages, "; "))
		}
		return ErrMalformedResult
	}

	if err := json.Unmarshal(r.Data, v); err != nil {
		return fmt.Errorf("%w: %w", ErrMalformedResult, err)
	}
	return nil
}

func searchOp(listingType string, first int, after string, filter map[string]any) operation {
	variables := map[string]any{
		"listingType": listingType,
		"first":       first,
	}
	if after != "" {
		variables["after"] = after
	}
	if len(filter) > 0 {
		variables["filter"] = filter
	}

	return operation{
		OperationName: searchOperation,
		Query:         searchQuery,
		Variables:     variables,
	}
}

func detailOp(id string) operation {
	return operation{
		OperationName: detailOperation,
		Query:         detailQuery,
		Variables:     map[string]any{"id": id},
	}
}
