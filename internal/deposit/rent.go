package deposit

import (
	"strings"

	"github.com/ewebtechsuk/aktonz2-sub001/internal/platform/models"
	"github.com/shopspring/decimal"
)

// periodsPerYear is the only rent frequency table. Deposit calculation and
// displayed rent equivalents both convert through it.
var periodsPerYear = map[models.RentFrequency]int64{
	models.FrequencyWeekly:    52,
	models.FrequencyMonthly:   12,
	models.FrequencyQuarterly: 4,
	models.FrequencyAnnual:    1,
}

var frequencyAliases = map[string]models.RentFrequency{
	"w":          models.FrequencyWeekly,
	"week":       models.FrequencyWeekly,
	"weekly":     models.FrequencyWeekly,
	"pw":         models.FrequencyWeekly,
	"per_week":   models.FrequencyWeekly,
	"m":          models.FrequencyMonthly,
	"month":      models.FrequencyMonthly,
	"monthly":    models.FrequencyMonthly,
	"pcm":        models.FrequencyMonthly,
	"per_month":  models.FrequencyMonthly,
	"q":          models.FrequencyQuarterly,
	"quarter":    models.FrequencyQuarterly,
	"quarterly":  models.FrequencyQuarterly,
	"a":          models.FrequencyAnnual,
	"y":          models.FrequencyAnnual,
	"pa":         models.FrequencyAnnual,
	"annual":     models.FrequencyAnnual,
	"annually":   models.FrequencyAnnual,
	"yearly":     models.FrequencyAnnual,
	"per_annum":  models.FrequencyAnnual,
	"per_year":   models.FrequencyAnnual,
}

// ParseFrequency parses provider specific rent frequency notation.
func ParseFrequency(s string) (models.RentFrequency, bool) {
	key := strings.ToLower(strings.TrimSpace(s))
	key = strings.NewReplacer(" ", "_", "-", "_").Replace(key)
	freq, ok := frequencyAliases[key]
	return freq, ok
}

// Convert converts rent quoted per from into rent quoted per to.
func Convert(amount decimal.Decimal, from, to models.RentFrequency) (decimal.Decimal, bool) {
	fromPeriods, ok := periodsPerYear[from]
	if !ok {
		return decimal.Zero, false
	}
	toPeriods, ok := periodsPerYear[to]
	if !ok {
		return decimal.Zero, false
	}

	return amount.Mul(decimal.NewFromInt(fromPeriods)).Div(decimal.NewFromInt(toPeriods)), true
}

// ToMonthly returns monthly equivalent of rent.
func ToMonthly(amount decimal.Decimal, freq models.RentFrequency) (decimal.Decimal, bool) {
	return Convert(amount, freq, models.FrequencyMonthly)
}

// ToWeekly returns weekly equivalent of rent.
func ToWeekly(amount decimal.Decimal, freq models.RentFrequency) (decimal.Decimal, bool) {
	return Convert(amount, freq, models.FrequencyWeekly)
}
