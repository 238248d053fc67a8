package main

import (
	"fmt"
	"net/http"
	"time"
)

func nowUTC() time.Time {
	return time.Now().UTC()
}

// stayNights counts whole nights between check-in and check-out. Both dates
// are interpreted as calendar days, time-of-day is ignored.
func stayNights(checkIn, checkOut time.Time) int {
	in := time.Date(checkIn.Year(), checkIn.Month(), checkIn.Day(), 0, 0, 0, 0, time.UTC)
	out := time.Date(checkOut.Year(), checkOut.Month(), checkOut.Day(), 0, 0, 0, 0, time.UTC)
	return int(out.Sub(in).Hours() / 24)
}

// quoteTotalCents prices a stay. The quote is fixed at creation time and is
// not recomputed when the unit's nightly price later changes.
func quoteTotalCents(nightlyPriceCents, nights int) int {
	return nightlyPriceCents * nights
}

// displayPriceCents derives a listing's headline price from its published
// units' nightly prices: the cheapest one, or nil when nothing is published.
func displayPriceCents(nightlyPrices []int) *int {
	if len(nightlyPrices) == 0 {
		return nil
	}
	min := nightlyPrices[0]
	for _, price := range nightlyPrices[1:] {
		if price < min {
			min = price
		}
	}
	return &min
}

func parseStayDate(value string) (time.Time, error) {
	parsed, err := time.Parse(stayDateLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", value)
	}
	return parsed, nil
}

func validateStayDates(checkIn, checkOut, today time.Time) error {
	todayMidnight := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)
	if checkIn.Before(todayMidnight) {
		return &apiError{Status: http.StatusUnprocessableEntity, Code: "check_in_past", Message: "Check-in date must not be in the past"}
	}
	nights := stayNights(checkIn, checkOut)
	if nights < 1 {
		return &apiError{Status: http.StatusUnprocessableEntity, Code: "invalid_stay", Message: "Check-out must be after check-in"}
	}
	if nights > maxBookingNights {
		return &apiError{Status: http.StatusUnprocessableEntity, Code: "stay_too_long", Message: fmt.Sprintf("Stays are limited to %d nights", maxBookingNights)}
	}
	leadDays := int(checkIn.Sub(todayMidnight).Hours() / 24)
	if leadDays > maxBookingLeadDays {
		return &apiError{Status: http.StatusUnprocessableEntity, Code: "check_in_too_far", Message: fmt.Sprintf("Check-in must be within %d days", maxBookingLeadDays)}
	}
	return nil
}

func canTransitionBookingStatus(from, to string) bool {
	return containsString(bookingStatusTransitions[from], to)
}
