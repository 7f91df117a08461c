package crm

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

type branch struct {
	ID   source.Text `json:"id"`
	Code string      `json:"code"`
}

type image struct {
	URL string `json:"url"`
}

// record is listing as CRM list and detail endpoints return it.
type record struct {
	ID                  source.Text     `json:"id"`
	PropertyID          source.Text     `json:"propertyId"`
	Reference           string          `json:"reference"`
	ReferencePrefix     string          `json:"referencePrefix"`
	ReferenceNumber     source.Text     `json:"referenceNumber"`
	ExternalReference   string          `json:"externalReference"`
	Branch              *branch         `json:"branch"`
	TransactionType     string          `json:"transactionType"`
	Status              string          `json:"status"`
	Price               json.RawMessage `json:"price"`
	PriceCurrency       string          `json:"priceCurrency"`
	PricePrefix         string          `json:"pricePrefix"`
	RentFrequency       string          `json:"rentFrequency"`
	Bedrooms            *int            `json:"bedrooms"`
	Bathrooms           *int            `json:"bathrooms"`
	Receptions          *int            `json:"receptions"`
	PropertyType        string          `json:"propertyType"`
	DisplayAddress      string          `json:"displayAddress"`
	Address1            string          `json:"address1"`
	Address2            string          `json:"address2"`
	City                string          `json:"city"`
	County              string          `json:"county"`
	Postcode            string          `json:"postalCode"`
	Country             string          `json:"country"`
	Latitude            *float64        `json:"latitude"`
	Longitude           *float64        `json:"longitude"`
	Images              []image         `json:"images"`
	SecurityDeposit     deposit.Raw     `json:"securityDeposit"`
	SecurityDepositType string          `json:"securityDepositType"`
	HoldingDeposit      deposit.Raw     `json:"holdingDeposit"`
	DateAvailableFrom   string          `json:"dateAvailableFrom"`
	DtsCreated          string          `json:"dtsCreated"`
	DtsUpdated          string          `json:"dtsUpdated"`
	Headline            string          `json:"headline"`
	Summary             string          `json:"summary"`
	Description         string          `json:"description"`
	Featured            bool            `json:"isFeatured"`
	MatchingAreas       []string        `json:"matchingAreas"`
}

// decode maps single CRM record to listing. Listing id and derived fields are assigned later.
func decode(data json.RawMessage) (models.Listing, error) {
	var rec record
	if err := json.Unmarshal(data, &rec); err != nil {
		return models.Listing{}, fmt.Errorf("can't decode crm record: %w", err)
	}

	return rec.toListing()
}

func (r record) toListing() (models.Listing, error) {
	transactionType, ok := models.ParseTransactionType(r.TransactionType)
	if !ok {
		return models.Listing{}, fmt.Errorf("unknown transaction type %q", r.TransactionType)
	}

	status, ok := source.ParseStatus(r.Status)
	if !ok {
		status = models.StatusAvailable
	}

	price := decimal.Zero
	if amount := deposit.DecodeAmount(r.Price); amount != nil {
		price = *amount
	}

	listing := models.Listing{
		Source: models.SourceCRM,
		Aliases: models.Aliases{
			SourceID:          r.ID.String(),
			PropertyID:        r.PropertyID.String(),
			Reference:         r.Reference,
			ReferencePrefix:   r.ReferencePrefix,
			ReferenceNumber:   r.ReferenceNumber.String(),
			ExternalReference: r.ExternalReference,
		},
		TransactionType: transactionType,
		Price:           price,
		PriceCurrency:   lo.Ternary(r.PriceCurrency != "", strings.ToUpper(r.PriceCurrency), deposit.DefaultCurrency),
		PricePrefix:     source.NonEmpty(r.PricePrefix),
		Bedrooms:        r.Bedrooms,
		Bathrooms:       r.Bathrooms,
		Receptions:      r.Receptions,
		PropertyType:    strings.TrimSpace(r.PropertyType),
		Status:          status,
		Latitude:        r.Latitude,
		Longitude:       r.Longitude,
		Images: lo.FilterMap(r.Images, func(img image, _ int) (string, bool) {
			return img.URL, strings.TrimSpace(img.URL) != ""
		}),
		AvailableAt:   source.ParseDate(r.DateAvailableFrom),
		CreatedAt:     source.ParseTimestamp(r.DtsCreated),
		UpdatedAt:     source.ParseTimestamp(r.DtsUpdated),
		MatchingAreas: r.MatchingAreas,
	}
	if r.Branch != nil {
		listing.Aliases.BranchCode = lo.Ternary(r.Branch.Code != "", r.Branch.Code, r.Branch.ID.String())
	}

	address := models.Address{
		Display:  strings.TrimSpace(r.DisplayAddress),
		Line1:    strings.TrimSpace(r.Address1),
		Line2:    strings.TrimSpace(r.Address2),
		Town:     strings.TrimSpace(r.City),
		County:   strings.TrimSpace(r.County),
		Postcode: strings.ToUpper(strings.TrimSpace(r.Postcode)),
		Country:  strings.TrimSpace(r.Country),
	}
	if address != (models.Address{}) {
		listing.Address = &address
	}

	if r.Headline != "" || r.Summary != "" || r.Description != "" || r.Featured {
		listing.Marketing = &models.Marketing{
			Headline:    r.Headline,
			Summary:     r.Summary,
			Description: r.Description,
			Featured:    r.Featured,
		}
	}

	if transactionType == models.TransactionRent {
		freq, ok := deposit.ParseFrequency(r.RentFrequency)
		if !ok {
			freq = models.FrequencyMonthly
		}
		listing.RentFrequency = &freq
		listing.Rent = &models.Rent{Amount: price, Frequency: freq, Currency: listing.PriceCurrency}
		listing.SecurityDeposit = deposit.Normalize(r.SecurityDeposit, price, freq, r.SecurityDepositType)
		listing.HoldingDeposit = deposit.Normalize(r.HoldingDeposit, price, freq, "")
	}

	return listing, nil
}
