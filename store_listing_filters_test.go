package main

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildListingFiltersPlaceholdersStayAligned(t *testing.T) {
	clause, args := buildListingFilters(map[string]any{
		"q":             "canal",
		"city":          "Amsterdam",
		"property_type": "apartment",
		"guests":        4,
		"published":     true,
	})

	assert.Len(t, args, 5)
	assert.Contains(t, clause, "$1")
	assert.Contains(t, clause, "$5")
	assert.NotContains(t, clause, "$6")
	assert.Equal(t, "%canal%", args[0])
	assert.Equal(t, "Amsterdam", args[1])
	assert.Equal(t, "apartment", args[2])
	assert.Equal(t, 4, args[3])
	assert.Equal(t, true, args[4])
}

func TestBuildListingFiltersSkipsEmptyValues(t *testing.T) {
	clause, args := buildListingFilters(map[string]any{
		"q":    "",
		"city": "",
	})
	assert.Empty(t, clause)
	assert.Empty(t, args)
}

func TestBuildListingFiltersPriceRangeAndAmenity(t *testing.T) {
	clause, args := buildListingFilters(map[string]any{
		"min_price_cents": 10000,
		"max_price_cents": 30000,
		"amenity":         "wifi",
	})

	assert.Len(t, args, 3)
	assert.Contains(t, clause, "display_price_cents >= $1")
	assert.Contains(t, clause, "display_price_cents <= $2")
	assert.Contains(t, clause, "jsonb_exists(units.shared_amenities, $3)")
	assert.Equal(t, []any{10000, 30000, "wifi"}, args)
}

func TestBuildListingFiltersPublishedFalseIsKept(t *testing.T) {
	clause, args := buildListingFilters(map[string]any{"published": false})
	assert.Contains(t, clause, "is_published = $1")
	assert.Equal(t, []any{false}, args)
}

func TestBuildBookingFilters(t *testing.T) {
	clause, args := buildBookingFilters(map[string]any{
		"status":     "pending",
		"listing_id": 7,
		"from":       "2026-09-01",
		"to":         "2026-09-30",
	})

	assert.Len(t, args, 4)
	assert.Contains(t, clause, "bookings.status = $1")
	assert.Contains(t, clause, "bookings.listing_id = $2")
	assert.Contains(t, clause, "bookings.check_in >= $3")
	assert.Contains(t, clause, "bookings.check_in <= $4")
}

func TestBuildBookingFiltersGuestSearch(t *testing.T) {
	clause, args := buildBookingFilters(map[string]any{"q": "jordan"})
	assert.Contains(t, clause, "guest_name ILIKE $1")
	assert.Contains(t, clause, "guest_email ILIKE $1")
	assert.Equal(t, []any{"%jordan%"}, args)
}

func TestSlugifyListingName(t *testing.T) {
	assert.Equal(t, "canal-view-apartment", slugifyListingName("Canal View Apartment"))
	assert.Equal(t, "caf-du-nord", slugifyListingName("  Café du  Nord  "))
	assert.Equal(t, "no-9-guesthouse", slugifyListingName("No. 9 Guesthouse!"))
	assert.True(t, strings.HasPrefix(slugifyListingName("???"), "listing-"))
}
