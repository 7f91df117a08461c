package models

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Source is the upstream a listing was ingested from.
type Source string

const (
	SourceCRM         Source = "crm"
	SourceMarketplace Source = "marketplace"
)

// TransactionType is listing transaction type.
type TransactionType string

const (
	TransactionSale TransactionType = "sale"
	TransactionRent TransactionType = "rent"
)

// ParseTransactionType parses loosely formatted transaction type.
func ParseTransactionType(s string) (TransactionType, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "sale", "sales", "buy", "for_sale":
		return TransactionSale, true
	case "rent", "rental", "lettings", "letting", "let", "to_let":
		return TransactionRent, true
	default:
		return "", false
	}
}

// RentFrequency is period the rent price is quoted for.
type RentFrequency string

const (
	FrequencyWeekly    RentFrequency = "weekly"
	FrequencyMonthly   RentFrequency = "monthly"
	FrequencyQuarterly RentFrequency = "quarterly"
	FrequencyAnnual    RentFrequency = "annual"
)

// Status is listing status normalized to shared vocabulary.
type Status string

const (
	StatusAvailable  Status = "available"
	StatusUnderOffer Status = "under_offer"
	StatusLetAgreed  Status = "let_agreed"
	StatusLet        Status = "let"
	StatusSold       Status = "sold"
	StatusWithdrawn  Status = "withdrawn"
)

// Statuses lists every status of the shared vocabulary.
var Statuses = []Status{
	StatusAvailable,
	StatusUnderOffer,
	StatusLetAgreed,
	StatusLet,
	StatusSold,
	StatusWithdrawn,
}

// DepositBasis tells which branch of deposit normalization produced the amount.
type DepositBasis string

const (
	BasisFixed      DepositBasis = "fixed"
	BasisAmount     DepositBasis = "amount"
	BasisWeeks      DepositBasis = "weeks"
	BasisMonths     DepositBasis = "months"
	BasisTypeWeeks  DepositBasis = "type-weeks"
	BasisTypeMonths DepositBasis = "type-months"
)

// DepositSpec is canonical deposit. At least one of Amount, Fixed, Weeks and Months is set.
type DepositSpec struct {
	Amount         *decimal.Decimal `json:"amount"`
	Fixed          *decimal.Decimal `json:"fixed"`
	Weeks          *int             `json:"weeks"`
	Months         *int             `json:"months"`
	Currency       string           `json:"currency"`
	CalculatedFrom *DepositBasis    `json:"calculatedFrom"`
}

// Address is listing postal address.
type Address struct {
	Display  string `json:"display,omitempty"`
	Line1    string `json:"line1,omitempty"`
	Line2    string `json:"line2,omitempty"`
	Town     string `json:"town,omitempty"`
	County   string `json:"county,omitempty"`
	Postcode string `json:"postcode,omitempty"`
	Country  string `json:"country,omitempty"`
}

// Rent is rent terms of a rental listing.
type Rent struct {
	Amount    decimal.Decimal `json:"amount"`
	Frequency RentFrequency   `json:"frequency"`
	Currency  string          `json:"currency"`
}

// Marketing holds advertising copy.
type Marketing struct {
	Headline    string   `json:"headline,omitempty"`
	Summary     string   `json:"summary,omitempty"`
	Description string   `json:"description,omitempty"`
	Featured    bool     `json:"featured,omitempty"`
	Tags        []string `json:"tags,omitempty"`
}

// MetadataEntry is free-form key value pair attached by operators.
type MetadataEntry struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Aliases are all id-like values an upstream exposed for a listing.
type Aliases struct {
	SourceID          string `json:"sourceId,omitempty"`
	ListingID         string `json:"listingId,omitempty"`
	PropertyID        string `json:"propertyId,omitempty"`
	Reference         string `json:"reference,omitempty"`
	ReferencePrefix   string `json:"referencePrefix,omitempty"`
	ReferenceNumber   string `json:"referenceNumber,omitempty"`
	BranchCode        string `json:"branchCode,omitempty"`
	ExternalReference string `json:"externalReference,omitempty"`
	Slug              string `json:"slug,omitempty"`
}

// IdentityAliases returns aliases of the listing.
func (a Aliases) IdentityAliases() Aliases {
	return a
}

// Listing is canonical listing model.
type Listing struct {
	ID              string           `json:"id"`
	Source          Source           `json:"source"`
	Aliases         Aliases          `json:"aliases"`
	TransactionType TransactionType  `json:"transactionType"`
	Price           decimal.Decimal  `json:"price"`
	PriceCurrency   string           `json:"priceCurrency"`
	RentFrequency   *RentFrequency   `json:"rentFrequency"`
	PricePrefix     *string          `json:"pricePrefix"`
	Bedrooms        *int             `json:"bedrooms"`
	Bathrooms       *int             `json:"bathrooms"`
	Receptions      *int             `json:"receptions"`
	PropertyType    string           `json:"propertyType"`
	Status          Status           `json:"status"`
	Latitude        *float64         `json:"latitude"`
	Longitude       *float64         `json:"longitude"`
	Images          []string         `json:"images"`
	SecurityDeposit *DepositSpec     `json:"securityDeposit"`
	HoldingDeposit  *DepositSpec     `json:"holdingDeposit"`
	AvailableAt     *string          `json:"availableAt"`
	CreatedAt       *time.Time       `json:"createdAt"`
	UpdatedAt       *time.Time       `json:"updatedAt"`
	Address         *Address         `json:"address"`
	Rent            *Rent            `json:"rent"`
	Marketing       *Marketing       `json:"marketing"`
	MatchingAreas   []string         `json:"matchingAreas"`
	Metadata        []MetadataEntry  `json:"metadata"`
	Raw             json.RawMessage  `json:"-"`

	// Derived fields, recomputed from the fields above.
	StatusLabel string           `json:"statusLabel"`
	StatusTone  string           `json:"statusTone"`
	Pipeline    string           `json:"pipeline"`
	RentLabel   string           `json:"rentLabel"`
	MonthlyRent *decimal.Decimal `json:"monthlyRent"`
	WeeklyRent  *decimal.Decimal `json:"weeklyRent"`
	Geohash     string           `json:"geohash,omitempty"`
	SearchIndex string           `json:"searchIndex"`
}

// IdentityAliases returns listing aliases with canonical ID as the leading candidate.
func (l Listing) IdentityAliases() Aliases {
	aliases := l.Aliases
	if aliases.ListingID == "" {
		aliases.ListingID = l.ID
	}
	return aliases
}

// Filters narrows listings returned to callers.
type Filters struct {
	Statuses     []Status         `json:"statuses,omitempty"`
	MinPrice     *decimal.Decimal `json:"minPrice,omitempty"`
	MaxPrice     *decimal.Decimal `json:"maxPrice,omitempty"`
	MinBedrooms  *int             `json:"minBedrooms,omitempty"`
	MaxBedrooms  *int             `json:"maxBedrooms,omitempty"`
	PropertyType string           `json:"propertyType,omitempty"`
}

// FetchOptions controls how listings are retrieved.
type FetchOptions struct {
	// AllowNetwork permits upstream calls.
	AllowNetwork bool
	// UseCacheOnly returns on-disk snapshot results whenever there are any.
	UseCacheOnly bool

	Filters
}
