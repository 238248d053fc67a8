package main

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

type createBookingRequest struct {
	ListingSlug string  `json:"listingSlug" binding:"required"`
	UnitID      int     `json:"unitId" binding:"required"`
	GuestName   string  `json:"guestName" binding:"required"`
	GuestEmail  string  `json:"guestEmail" binding:"required"`
	CheckIn     string  `json:"checkIn" binding:"required"`
	CheckOut    string  `json:"checkOut" binding:"required"`
	Guests      int     `json:"guests" binding:"required"`
	Note        *string `json:"note"`
}

func (a *App) createBookingHandler(c *gin.Context) {
	var body createBookingRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		writeAPIError(c, &apiError{Status: http.StatusBadRequest, Code: "invalid_payload", Message: "Invalid payload"})
		return
	}

	body.GuestName = strings.TrimSpace(body.GuestName)
	body.GuestEmail = strings.ToLower(strings.TrimSpace(body.GuestEmail))
	if body.GuestName == "" || !strings.Contains(body.GuestEmail, "@") {
		writeAPIError(c, &apiError{Status: http.StatusUnprocessableEntity, Code: "invalid_guest", Message: "Guest name and a valid email are required"})
		return
	}
	if body.Note != nil && len(*body.Note) > maxBookingNoteLength {
		writeAPIError(c, &apiError{Status: http.StatusUnprocessableEntity, Code: "note_too_long", Message: "Note is too long"})
		return
	}

	checkIn, err := parseStayDate(body.CheckIn)
	if err != nil {
		writeAPIError(c, &apiError{Status: http.StatusUnprocessableEntity, Code: "invalid_date", Message: err.Error()})
		return
	}
	checkOut, err := parseStayDate(body.CheckOut)
	if err != nil {
		writeAPIError(c, &apiError{Status: http.StatusUnprocessableEntity, Code: "invalid_date", Message: err.Error()})
		return
	}
	if err := validateStayDates(checkIn, checkOut, nowUTC()); err != nil {
		writeAPIError(c, err)
		return
	}

	listing, unit, err := a.getBookableUnit(c.Request.Context(), body.ListingSlug, body.UnitID)
	if err != nil {
		writeAPIError(c, err)
		return
	}
	if body.Guests < 1 || body.Guests > unit.Sleeps {
		writeAPIError(c, &apiError{Status: http.StatusUnprocessableEntity, Code: "too_many_guests", Message: "Guest count exceeds unit capacity"})
		return
	}

	nights := stayNights(checkIn, checkOut)
	booking := &Booking{
		ListingID:       listing.ID,
		UnitID:          unit.ID,
		GuestName:       body.GuestName,
		GuestEmail:      body.GuestEmail,
		CheckIn:         checkIn.Format(stayDateLayout),
		CheckOut:        checkOut.Format(stayDateLayout),
		Guests:          body.Guests,
		Nights:          nights,
		QuoteTotalCents: quoteTotalCents(unit.NightlyPriceCents, nights),
		Note:            body.Note,
	}

	if err := a.createBookingStore(c.Request.Context(), booking); err != nil {
		writeAPIError(c, err)
		return
	}

	a.metrics.bookingsCreated.Inc()
	a.sendBookingRequestEmails(booking)
	c.JSON(http.StatusCreated, gin.H{
		"booking":     booking,
		"trackingUrl": buildPublicURL(a.cfg.PublicBaseURL, "/bookings/"+booking.PublicID),
	})
}

// bookingStatusHandler is the public lookup by reference code. It exposes the
// stay summary and status but not the guest's contact details.
func (a *App) bookingStatusHandler(c *gin.Context) {
	booking, err := a.getBookingByPublicID(c.Request.Context(), c.Param("public_id"))
	if err != nil {
		writeAPIError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"publicId":        booking.PublicID,
		"listingName":     booking.ListingName,
		"unitName":        booking.UnitName,
		"checkIn":         booking.CheckIn,
		"checkOut":        booking.CheckOut,
		"guests":          booking.Guests,
		"nights":          booking.Nights,
		"quoteTotalCents": booking.QuoteTotalCents,
		"status":          booking.Status,
	})
}
