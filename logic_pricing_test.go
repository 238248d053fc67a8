package main

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func mustDate(t *testing.T, value string) time.Time {
	t.Helper()
	parsed, err := parseStayDate(value)
	if err != nil {
		t.Fatalf("parse date %s: %v", value, err)
	}
	return parsed
}

func TestStayNights(t *testing.T) {
	assert.Equal(t, 1, stayNights(mustDate(t, "2026-09-01"), mustDate(t, "2026-09-02")))
	assert.Equal(t, 7, stayNights(mustDate(t, "2026-09-01"), mustDate(t, "2026-09-08")))
	assert.Equal(t, 0, stayNights(mustDate(t, "2026-09-01"), mustDate(t, "2026-09-01")))
	assert.Equal(t, -1, stayNights(mustDate(t, "2026-09-02"), mustDate(t, "2026-09-01")))
}

func TestQuoteTotalCents(t *testing.T) {
	assert.Equal(t, 36000, quoteTotalCents(12000, 3))
	assert.Equal(t, 0, quoteTotalCents(12000, 0))
}

func TestDisplayPriceCents(t *testing.T) {
	assert.Nil(t, displayPriceCents(nil))
	assert.Nil(t, displayPriceCents([]int{}))

	price := displayPriceCents([]int{14500, 9900, 12000})
	if assert.NotNil(t, price) {
		assert.Equal(t, 9900, *price)
	}
}

func TestValidateStayDates(t *testing.T) {
	today := mustDate(t, "2026-09-01")

	cases := []struct {
		name     string
		checkIn  string
		checkOut string
		wantCode string
	}{
		{"valid stay", "2026-09-10", "2026-09-14", ""},
		{"same day check-in", "2026-09-01", "2026-09-03", ""},
		{"check-in in the past", "2026-08-31", "2026-09-03", "check_in_past"},
		{"check-out before check-in", "2026-09-10", "2026-09-09", "invalid_stay"},
		{"zero nights", "2026-09-10", "2026-09-10", "invalid_stay"},
		{"over the nights limit", "2026-09-10", "2026-11-20", "stay_too_long"},
		{"too far in the future", "2028-06-01", "2028-06-05", "check_in_too_far"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := validateStayDates(mustDate(t, tc.checkIn), mustDate(t, tc.checkOut), today)
			if tc.wantCode == "" {
				assert.NoError(t, err)
				return
			}
			var apiErr *apiError
			if assert.True(t, errors.As(err, &apiErr)) {
				assert.Equal(t, tc.wantCode, apiErr.Code)
			}
		})
	}
}

func TestParseStayDateRejectsGarbage(t *testing.T) {
	_, err := parseStayDate("01-09-2026")
	assert.Error(t, err)
	_, err = parseStayDate("not a date")
	assert.Error(t, err)
}

func TestBookingStatusTransitions(t *testing.T) {
	assert.True(t, canTransitionBookingStatus("pending", "confirmed"))
	assert.True(t, canTransitionBookingStatus("pending", "declined"))
	assert.True(t, canTransitionBookingStatus("pending", "cancelled"))
	assert.True(t, canTransitionBookingStatus("confirmed", "completed"))
	assert.True(t, canTransitionBookingStatus("confirmed", "cancelled"))

	assert.False(t, canTransitionBookingStatus("pending", "completed"))
	assert.False(t, canTransitionBookingStatus("declined", "confirmed"))
	assert.False(t, canTransitionBookingStatus("completed", "cancelled"))
	assert.False(t, canTransitionBookingStatus("cancelled", "pending"))
	assert.False(t, canTransitionBookingStatus("confirmed", "pending"))
}
