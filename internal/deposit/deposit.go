package deposit

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/ewebtechsuk/aktonz2-sub001/internal/platform/models"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// DefaultCurrency is used when provider didn't say which currency deposit is in.
const DefaultCurrency = "GBP"

var (
	minorUnitThreshold = decimal.NewFromInt(10000)
	minorUnitRatio     = decimal.NewFromInt(10)
	hundred            = decimal.NewFromInt(100)
)

type duration struct {
	weeks  int
	months int
}

var typeDurations = map[string]duration{
	"ONE_WEEK":     {weeks: 1},
	"TWO_WEEKS":    {weeks: 2},
	"THREE_WEEKS":  {weeks: 3},
	"FOUR_WEEKS":   {weeks: 4},
	"FIVE_WEEKS":   {weeks: 5},
	"SIX_WEEKS":    {weeks: 6},
	"ONE_MONTH":    {months: 1},
	"TWO_MONTHS":   {months: 2},
	"THREE_MONTHS": {months: 3},
	"SIX_MONTHS":   {months: 6},
}

var numericType = regexp.MustCompile(`^(\d+)_?(WEEK|WEEKS|MONTH|MONTHS)$`)

// LookupType returns duration of deposit type enum such as FIVE_WEEKS or "2 months".
func LookupType(depositType string) (weeks, months int, ok bool) {
	key := strings.ToUpper(strings.TrimSpace(depositType))
	key = strings.NewReplacer(" ", "_", "-", "_").Replace(key)
	if key == "" {
		return 0, 0, false
	}

	if d, found := typeDurations[key]; found {
		return d.weeks, d.months, true
	}

	match := numericType.FindStringSubmatch(key)
	if match == nil {
		return 0, 0, false
	}
	n, err := strconv.Atoi(match[1])
	if err != nil || n <= 0 {
		return 0, 0, false
	}
	if strings.HasPrefix(match[2], "WEEK") {
		return n, 0, true
	}
	return 0, n, true
}

// Normalize converts raw deposit into canonical DepositSpec.
// price and freq describe listing rent, depositType is optional enum used when raw has no duration.
// It returns nil when there is neither duration nor amount.
func Normalize(raw Raw, price decimal.Decimal, freq models.RentFrequency, depositType string) *models.DepositSpec {
	if freq == "" {
		freq = models.FrequencyMonthly
	}

	spec := models.DepositSpec{
		Weeks:    positive(raw.Weeks),
		Months:   positive(raw.Months),
		Currency: lo.Ternary(raw.Currency != "", strings.ToUpper(raw.Currency), DefaultCurrency),
	}

	fromType := false
	if spec.Weeks == nil && spec.Months == nil {
		if depositType == "" {
			depositType = raw.Type
		}
		if weeks, months, ok := LookupType(depositType); ok {
			spec.Weeks, spec.Months = positive(&weeks), positive(&months)
			fromType = true
		}
	}

	switch {
	case isPositive(raw.Fixed):
		amount := fromMinorUnits(*raw.Fixed, price).Round(0)
		spec.Amount, spec.Fixed = &amount, &amount
		spec.CalculatedFrom = lo.ToPtr(models.BasisFixed)
	case isPositive(raw.Amount):
		amount := fromMinorUnits(*raw.Amount, price).Round(0)
		spec.Amount, spec.Fixed = &amount, &amount
		spec.CalculatedFrom = lo.ToPtr(models.BasisAmount)
	case price.IsPositive() && spec.Weeks != nil:
		if weekly, ok := ToWeekly(price, freq); ok {
			amount := weekly.Mul(decimal.NewFromInt(int64(*spec.Weeks))).Round(0)
			spec.Amount = &amount
			spec.CalculatedFrom = lo.ToPtr(lo.Ternary(fromType, models.BasisTypeWeeks, models.BasisWeeks))
		}
	case price.IsPositive() && spec.Months != nil:
		if monthly, ok := ToMonthly(price, freq); ok {
			amount := monthly.Mul(decimal.NewFromInt(int64(*spec.Months))).Round(0)
			spec.Amount = &amount
			spec.CalculatedFrom = lo.ToPtr(lo.Ternary(fromType, models.BasisTypeMonths, models.BasisMonths))
		}
	}

	if spec.Amount == nil && spec.Fixed == nil && spec.Weeks == nil && spec.Months == nil {
		return nil
	}

	return &spec
}

// fromMinorUnits detects amounts encoded in pence: anything above 10,000
// or above ten times the rent is divided by 100.
func fromMinorUnits(amount, rent decimal.Decimal) decimal.Decimal {
	if amount.GreaterThan(minorUnitThreshold) {
		return amount.Div(hundred)
	}
	if rent.IsPositive() && amount.GreaterThan(rent.Mul(minorUnitRatio)) {
		return amount.Div(hundred)
	}
	return amount
}

func positive(n *int) *int {
	if n == nil || *n <= 0 {
		return nil
	}
	return lo.ToPtr(*n)
}

func isPositive(d *decimal.Decimal) bool {
	return d != nil && d.IsPositive()
}
