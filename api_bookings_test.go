package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func bookingTestHooks(app *App) {
	app.getBookableUnit = func(ctx context.Context, listingSlug string, unitID int) (*Listing, *Unit, error) {
		if listingSlug != "canal-view-apartment" || unitID != 3 {
			return nil, nil, &apiError{Status: http.StatusNotFound, Code: "not_found", Message: "Unit not found"}
		}
		return &Listing{ID: 1, Slug: listingSlug, Name: "Canal View Apartment"},
			&Unit{ID: 3, ListingID: 1, Name: "Garden Studio", Sleeps: 2, NightlyPriceCents: 12500},
			nil
	}
	app.createBookingStore = func(ctx context.Context, booking *Booking) error {
		booking.ID = 42
		booking.PublicID = "AB12CD34"
		booking.Status = "pending"
		booking.ListingName = "Canal View Apartment"
		booking.UnitName = "Garden Studio"
		return nil
	}
}

func bookingPayload(t *testing.T, overrides map[string]any) string {
	t.Helper()
	checkIn := time.Now().UTC().AddDate(0, 0, 30).Format(stayDateLayout)
	checkOut := time.Now().UTC().AddDate(0, 0, 33).Format(stayDateLayout)

	payload := map[string]any{
		"listingSlug": "canal-view-apartment",
		"unitId":      3,
		"guestName":   "Jordan Guest",
		"guestEmail":  "jordan@example.com",
		"checkIn":     checkIn,
		"checkOut":    checkOut,
		"guests":      2,
	}
	for key, value := range overrides {
		payload[key] = value
	}
	encoded, err := json.Marshal(payload)
	require.NoError(t, err)
	return string(encoded)
}

func postBooking(router http.Handler, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/bookings", strings.NewReader(body))
	req.Header.Set("content-type", "application/json")
	router.ServeHTTP(w, req)
	return w
}

func TestCreateBookingComputesQuote(t *testing.T) {
	app, router := newTestServer(t)
	bookingTestHooks(app)

	var stored Booking
	createStore := app.createBookingStore
	app.createBookingStore = func(ctx context.Context, booking *Booking) error {
		stored = *booking
		return createStore(ctx, booking)
	}

	w := postBooking(router, bookingPayload(t, nil))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	assert.Equal(t, 3, stored.Nights)
	assert.Equal(t, 37500, stored.QuoteTotalCents)
	assert.Equal(t, 1, stored.ListingID)
	assert.Equal(t, 3, stored.UnitID)

	var response struct {
		Booking     Booking `json:"booking"`
		TrackingURL string  `json:"trackingUrl"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, "AB12CD34", response.Booking.PublicID)
	assert.Equal(t, "pending", response.Booking.Status)
	assert.Contains(t, response.TrackingURL, "/bookings/AB12CD34")
}

func TestCreateBookingRejectsTooManyGuests(t *testing.T) {
	app, router := newTestServer(t)
	bookingTestHooks(app)

	w := postBooking(router, bookingPayload(t, map[string]any{"guests": 5}))
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), "too_many_guests")
}

func TestCreateBookingRejectsPastCheckIn(t *testing.T) {
	app, router := newTestServer(t)
	bookingTestHooks(app)

	past := time.Now().UTC().AddDate(0, 0, -2).Format(stayDateLayout)
	w := postBooking(router, bookingPayload(t, map[string]any{"checkIn": past}))
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), "check_in_past")
}

func TestCreateBookingRejectsBadEmail(t *testing.T) {
	app, router := newTestServer(t)
	bookingTestHooks(app)

	w := postBooking(router, bookingPayload(t, map[string]any{"guestEmail": "not-an-email"}))
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), "invalid_guest")
}

func TestCreateBookingRejectsOverlongNote(t *testing.T) {
	app, router := newTestServer(t)
	bookingTestHooks(app)

	w := postBooking(router, bookingPayload(t, map[string]any{"note": strings.Repeat("x", maxBookingNoteLength+1)}))
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), "note_too_long")
}

func TestCreateBookingUnknownUnit(t *testing.T) {
	app, router := newTestServer(t)
	bookingTestHooks(app)

	w := postBooking(router, bookingPayload(t, map[string]any{"unitId": 99}))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestBookingStatusLookupHidesGuestContact(t *testing.T) {
	app, router := newTestServer(t)
	note := "door code 4821"
	app.getBookingByPublicID = func(ctx context.Context, publicID string) (*Booking, error) {
		assert.Equal(t, "AB12CD34", publicID)
		return &Booking{
			ID: 42, PublicID: "AB12CD34",
			ListingName: "Canal View Apartment", UnitName: "Garden Studio",
			GuestName: "Jordan Guest", GuestEmail: "jordan@example.com",
			CheckIn: "2026-10-01", CheckOut: "2026-10-04",
			Guests: 2, Nights: 3, QuoteTotalCents: 37500,
			Status: "confirmed", Note: &note,
		}, nil
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/bookings/AB12CD34/status", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "confirmed")
	assert.Contains(t, body, "Canal View Apartment")
	assert.NotContains(t, body, "jordan@example.com")
	assert.NotContains(t, body, "Jordan Guest")
	assert.NotContains(t, body, "door code")
}

func TestAdminBookingStatusHandlerPassesSession(t *testing.T) {
	app, router := newTestServer(t)

	var capturedStatus string
	var capturedSession OperatorSession
	app.adminSetBookingStatus = func(ctx context.Context, id int, status string, session OperatorSession) (*Booking, error) {
		capturedStatus = status
		capturedSession = session
		return &Booking{ID: id, Status: status}, nil
	}

	w := httptest.NewRecorder()
	req := authenticatedRequest(t, app, http.MethodPost, "/api/v1/admin/bookings/42/status", `{"status":"confirmed"}`)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "confirmed", capturedStatus)
	assert.Equal(t, "operator@stayport.local", capturedSession.Email)
}

func TestAdminBookingsFilterValidation(t *testing.T) {
	app, router := newTestServer(t)
	app.adminListBookings = func(ctx context.Context, filters map[string]any, page, pageSize int) (*PaginatedBookings, error) {
		t.Fatal("store must not be reached for an invalid status filter")
		return nil, nil
	}

	w := httptest.NewRecorder()
	req := authenticatedRequest(t, app, http.MethodGet, fmt.Sprintf("/api/v1/admin/bookings?status=%s", "archived"), "")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "invalid_status")
}
