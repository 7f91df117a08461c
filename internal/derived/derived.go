// Package derived computes listing fields that are functions of other listing fields.
// They are recomputed after every change and never stored in overrides.
package derived

import (
	"sort"
	"strings"

	"github.com/ewebtechsuk/aktonz2-sub001/internal/deposit"
	"github.com/ewebtechsuk/aktonz2-sub001/internal/platform/models"
	"github.com/mmcloughlin/geohash"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// GeohashPrecision is number of geohash characters stored on listing.
const GeohashPrecision = 7

type statusPresentation struct {
	tone     string
	pipeline string
}

var statusPresentations = map[models.Status]statusPresentation{
	models.StatusAvailable:  {tone: "positive", pipeline: "marketing"},
	models.StatusUnderOffer: {tone: "warning", pipeline: "progressing"},
	models.StatusLetAgreed:  {tone: "warning", pipeline: "progressing"},
	models.StatusLet:        {tone: "neutral", pipeline: "completed"},
	models.StatusSold:       {tone: "neutral", pipeline: "completed"},
	models.StatusWithdrawn:  {tone: "negative", pipeline: "archived"},
}

var currencySymbols = map[string]string{
	"GBP": "£",
	"EUR": "€",
	"USD": "$",
}

var frequencySuffixes = map[models.RentFrequency]string{
	models.FrequencyWeekly:    "pw",
	models.FrequencyMonthly:   "pcm",
	models.FrequencyQuarterly: "pq",
	models.FrequencyAnnual:    "pa",
}

// Apply recomputes all derived fields of l in place.
func Apply(l *models.Listing) {
	l.StatusLabel = StatusLabel(l.Status)
	presentation, ok := statusPresentations[l.Status]
	if !ok {
		presentation = statusPresentation{tone: "neutral", pipeline: "unknown"}
	}
	l.StatusTone = presentation.tone
	l.Pipeline = presentation.pipeline

	l.MonthlyRent, l.WeeklyRent = nil, nil
	if l.TransactionType == models.TransactionRent && l.RentFrequency != nil && l.Price.IsPositive() {
		if monthly, ok := deposit.ToMonthly(l.Price, *l.RentFrequency); ok {
			l.MonthlyRent = lo.ToPtr(monthly.Round(2))
		}
		if weekly, ok := deposit.ToWeekly(l.Price, *l.RentFrequency); ok {
			l.WeeklyRent = lo.ToPtr(weekly.Round(2))
		}
	}
	l.RentLabel = PriceLabel(l)

	l.Geohash = ""
	if l.Latitude != nil && l.Longitude != nil {
		l.Geohash = geohash.EncodeWithPrecision(*l.Latitude, *l.Longitude, GeohashPrecision)
	}

	l.SearchIndex = SearchIndex(l)
}

// StatusLabel returns human readable status, e.g. "Let Agreed".
func StatusLabel(status models.Status) string {
	if status == "" {
		return "Unknown"
	}
	return cases.Title(language.English).String(strings.ReplaceAll(string(status), "_", " "))
}

// PriceLabel returns formatted price, e.g. "£1,200 pcm" or "Guide Price £450,000".
func PriceLabel(l *models.Listing) string {
	if !l.Price.IsPositive() {
		return "Price on application"
	}

	label := FormatMoney(l.Price, l.PriceCurrency)
	if l.TransactionType == models.TransactionRent && l.RentFrequency != nil {
		if suffix, ok := frequencySuffixes[*l.RentFrequency]; ok {
			label += " " + suffix
		}
	}
	if l.PricePrefix != nil && strings.TrimSpace(*l.PricePrefix) != "" {
		label = strings.TrimSpace(*l.PricePrefix) + " " + label
	}

	return label
}

// FormatMoney formats amount with currency symbol and thousands separators.
func FormatMoney(amount decimal.Decimal, currency string) string {
	printer := message.NewPrinter(language.BritishEnglish)

	var number string
	if amount.Equal(amount.Truncate(0)) {
		number = printer.Sprintf("%d", amount.IntPart())
	} else {
		f, _ := amount.Round(2).Float64()
		number = printer.Sprintf("%.2f", f)
	}

	currency = strings.ToUpper(currency)
	if symbol, ok := currencySymbols[currency]; ok {
		return symbol + number
	}
	if currency == "" {
		return currencySymbols["GBP"] + number
	}
	return number + " " + currency
}

// SearchIndex returns lowercase, de-duplicated, sorted tokens describing listing.
func SearchIndex(l *models.Listing) string {
	parts := []string{
		l.ID,
		l.Aliases.Reference,
		l.Aliases.ExternalReference,
		string(l.TransactionType),
		l.PropertyType,
		string(l.Status),
		l.Geohash,
	}
	if l.Address != nil {
		parts = append(parts,
			l.Address.Display, l.Address.Line1, l.Address.Line2,
			l.Address.Town, l.Address.County, l.Address.Postcode,
		)
		if pc := strings.ReplaceAll(l.Address.Postcode, " ", ""); pc != "" {
			parts = append(parts, pc)
		}
	}
	if l.Marketing != nil {
		parts = append(parts, l.Marketing.Headline)
		parts = append(parts, l.Marketing.Tags...)
	}
	parts = append(parts, l.MatchingAreas...)

	tokens := make(map[string]struct{})
	for _, part := range parts {
		for _, token := range strings.FieldsFunc(strings.ToLower(part), isSeparator) {
			tokens[token] = struct{}{}
		}
	}

	result := lo.Keys(tokens)
	sort.Strings(result)
	return strings.Join(result, " ")
}

func isSeparator(r rune) bool {
	switch r {
	case ' ', ',', ';', '/', '|', '\t', '\n', '(', ')':
		return true
	default:
		return false
	}
}
