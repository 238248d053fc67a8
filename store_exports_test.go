package main

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildBookingCSV(t *testing.T) {
	note := "late arrival"
	bookings := []Booking{
		{
			ID: 1, PublicID: "AB12CD34", ListingName: "Canal View Apartment", UnitName: "Garden Studio",
			GuestName: "Jordan Guest", GuestEmail: "jordan@example.com",
			CheckIn: "2026-09-01", CheckOut: "2026-09-04",
			Nights: 3, Guests: 2, QuoteTotalCents: 37500, Status: "confirmed",
			CreatedAt: "2026-08-01T10:00:00Z", Note: &note,
		},
	}

	csvData, err := buildBookingCSV(bookings)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(csvData), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "public_id")
	assert.Contains(t, lines[0], "quote_total_cents")
	assert.Contains(t, lines[1], "AB12CD34")
	assert.Contains(t, lines[1], "37500")
	assert.Contains(t, lines[1], "confirmed")
}

func TestBuildBookingCSVEmpty(t *testing.T) {
	csvData, err := buildBookingCSV(nil)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(csvData), "\n")
	assert.Len(t, lines, 1)
}

func TestBuildBookingPDFProducesDocument(t *testing.T) {
	bookings := []Booking{
		{ID: 1, ListingName: "Canal View Apartment", Status: "confirmed", QuoteTotalCents: 37500, Nights: 3, CheckIn: "2026-09-01"},
		{ID: 2, ListingName: "Harbour Loft", Status: "pending", QuoteTotalCents: 20000, Nights: 2, CheckIn: "2026-09-02"},
	}

	pdfData, err := buildBookingPDF(bookings, "2026-09-01", "2026-09-07", "Stayport Booking Export")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(pdfData), "%PDF"))
}

func TestGetBookingWindowExplicitRangeWins(t *testing.T) {
	start := "2026-01-01"
	end := "2026-01-31"
	gotStart, gotEnd := getBookingWindow("monthly", &start, &end)
	assert.Equal(t, start, gotStart)
	assert.Equal(t, end, gotEnd)
}

func TestGetBookingWindowWeeklyCoversSevenDays(t *testing.T) {
	gotStart, gotEnd := getBookingWindow("weekly", nil, nil)

	start, err := time.Parse(stayDateLayout, gotStart)
	require.NoError(t, err)
	end, err := time.Parse(stayDateLayout, gotEnd)
	require.NoError(t, err)

	assert.Equal(t, time.Monday, start.Weekday())
	assert.Equal(t, 6, int(end.Sub(start).Hours()/24))
	assert.True(t, end.Before(time.Now().UTC()))
}

func TestGetBookingWindowMonthlyStartsOnFirst(t *testing.T) {
	gotStart, gotEnd := getBookingWindow("monthly", nil, nil)

	start, err := time.Parse(stayDateLayout, gotStart)
	require.NoError(t, err)
	end, err := time.Parse(stayDateLayout, gotEnd)
	require.NoError(t, err)

	assert.Equal(t, 1, start.Day())
	assert.Equal(t, start.AddDate(0, 1, 0).AddDate(0, 0, -1), end)
}

func TestSanitizeFileNamePart(t *testing.T) {
	assert.Equal(t, "2026-09-01T10-00-00Z", sanitizeFileNamePart("2026-09-01T10:00:00Z"))
}
