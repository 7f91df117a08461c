package source

import (
	"strings"

	"github.com/ewebtechsuk/aktonz2-sub001/internal/platform/models"
	"github.com/samber/lo"
)

// Filter returns listings matching filters, preserving order.
func Filter(listings []models.Listing, filters models.Filters) []models.Listing {
	return lo.Filter(listings, func(l models.Listing, _ int) bool {
		return Matches(l, filters)
	})
}

// Matches reports whether listing passes every set filter.
func Matches(l models.Listing, filters models.Filters) bool {
	if len(filters.Statuses) > 0 && !lo.Contains(filters.Statuses, l.Status) {
		return false
	}
	if filters.MinPrice != nil && l.Price.LessThan(*filters.MinPrice) {
		return false
	}
	if filters.MaxPrice != nil && l.Price.GreaterThan(*filters.MaxPrice) {
		return false
	}
	if filters.MinBedrooms != nil && (l.Bedrooms == nil || *l.Bedrooms < *filters.MinBedrooms) {
		return false
	}
	if filters.MaxBedrooms != nil && (l.Bedrooms == nil || *l.Bedrooms > *filters.MaxBedrooms) {
		return false
	}
	if filters.PropertyType != "" && !strings.EqualFold(strings.TrimSpace(l.PropertyType), strings.TrimSpace(filters.PropertyType)) {
		return false
	}
	return true
}
