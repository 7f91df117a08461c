package marketplace

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ewebtechsuk/aktonz2-sub001/internal/deposit"
	"github.com/ewebtechsuk/aktonz2-sub001/internal/platform/models"
	"github.com/ewebtechsuk/aktonz2-sub001/internal/source"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

type price struct {
	Amount    json.RawMessage `json:"amount"`
	Currency  string          `json:"currency"`
	Frequency string          `json:"frequency"`
	Qualifier string          `json:"qualifier"`
}

type location struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

type address struct {
	Display  string `json:"display"`
	Line1    string `json:"line1"`
	Line2    string `json:"line2"`
	City     string `json:"city"`
	County   string `json:"county"`
	Postcode string `json:"postcode"`
	Country  string `json:"country"`
}

type photo struct {
	URL string `json:"url"`
}

// record is marketplace Listing node.
type record struct {
	ID                source.Text `json:"id"`
	Slug              string      `json:"slug"`
	ExternalReference string      `json:"externalReference"`
	ListingType       string      `json:"listingType"`
	State             string      `json:"state"`
	Price             *price      `json:"price"`
	Bedrooms          *int        `json:"bedrooms"`
	Bathrooms         *int        `json:"bathrooms"`
	Receptions        *int        `json:"receptions"`
	PropertyType      string      `json:"propertyType"`
	Location          *location   `json:"location"`
	Address           *address    `json:"address"`
	Photos            []photo     `json:"photos"`
	Deposit           deposit.Raw `json:"deposit"`
	DepositType       string      `json:"depositType"`
	HoldingDeposit    deposit.Raw `json:"holdingDeposit"`
	AvailableFrom     string      `json:"availableFrom"`
	CreatedAt         string      `json:"createdAt"`
	UpdatedAt         string      `json:"updatedAt"`
	Title             string      `json:"title"`
	Summary           string      `json:"summary"`
	Description       string      `json:"description"`
	Featured          bool        `json:"featured"`
	Areas             []string    `json:"areas"`
}

func decode(data json.RawMessage) (models.Listing, error) {
	var rec record
	if err := json.Unmarshal(data, &rec); err != nil {
		return models.Listing{}, fmt.Errorf("can't decode marketplace record: %w", err)
	}

	return rec.toListing()
}

func (r record) toListing() (models.Listing, error) {
	transactionType, ok := models.ParseTransactionType(r.ListingType)
	if !ok {
		return models.Listing{}, fmt.Errorf("unknown listing type %q", r.ListingType)
	}

	status, ok := source.ParseStatus(r.State)
	if !ok {
		status = models.StatusAvailable
	}

	listing := models.Listing{
		Source: models.SourceMarketplace,
		Aliases: models.Aliases{
			SourceID:          r.ID.String(),
			ExternalReference: r.ExternalReference,
			Slug:              r.Slug,
		},
		TransactionType: transactionType,
		Price:           decimal.Zero,
		PriceCurrency:   deposit.DefaultCurrency,
		Bedrooms:        r.Bedrooms,
		Bathrooms:       r.Bathrooms,
		Receptions:      r.Receptions,
		PropertyType:    strings.TrimSpace(r.PropertyType),
		Status:          status,
		Images: lo.FilterMap(r.Photos, func(p photo, _ int) (string, bool) {
			return p.URL, strings.TrimSpace(p.URL) != ""
		}),
		AvailableAt:   source.ParseDate(r.AvailableFrom),
		CreatedAt:     source.ParseTimestamp(r.CreatedAt),
		UpdatedAt:     source.ParseTimestamp(r.UpdatedAt),
		MatchingAreas: r.Areas,
	}

	freqText := ""
	if r.Price != nil {
		if amount := deposit.DecodeAmount(r.Price.Amount); amount != nil {
			listing.Price = *amount
		}
		if r.Price.Currency != "" {
			listing.PriceCurrency = strings.ToUpper(r.Price.Currency)
		}
		listing.PricePrefix = source.NonEmpty(r.Price.Qualifier)
		freqText = r.Price.Frequency
	}

	if r.Location != nil {
		listing.Latitude, listing.Longitude = r.Location.Latitude, r.Location.Longitude
	}

	if r.Address != nil {
		listing.Address = &models.Address{
			Display:  strings.TrimSpace(r.Address.Display),
			Line1:    strings.TrimSpace(r.Address.Line1),
			Line2:    strings.TrimSpace(r.Address.Line2),
			Town:     strings.TrimSpace(r.Address.City),
			County:   strings.TrimSpace(r.Address.County),
			Postcode: strings.ToUpper(strings.TrimSpace(r.Address.Postcode)),
			Country:  strings.TrimSpace(r.Address.Country),
		}
	}

	if r.Title != "" || r.Summary != "" || r.Description != "" || r.Featured {
		listing.Marketing = &models.Marketing{
			Headline:    r.Title,
			Summary:     r.Summary,
			Description: r.Description,
			Featured:    r.Featured,
		}
	}

	if transactionType == models.TransactionRent {
		freq, ok := deposit.ParseFrequency(freqText)
		if !ok {
			freq = models.FrequencyMonthly
		}
		listing.RentFrequency = &freq
		listing.Rent = &models.Rent{Amount: listing.Price, Frequency: freq, Currency: listing.PriceCurrency}
		listing.SecurityDeposit = deposit.Normalize(r.Deposit, listing.Price, freq, r.DepositType)
		listing.HoldingDeposit = deposit.Normalize(r.HoldingDeposit, listing.Price, freq, "")
	}

	return listing, nil
}
