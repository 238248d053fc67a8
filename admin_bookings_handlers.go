package main

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

func (a *App) adminBookingsHandler(c *gin.Context) {
	filters := map[string]any{}
	if status := strings.TrimSpace(c.Query("status")); status != "" {
		if !containsString(bookingStatuses, status) {
			writeAPIError(c, &apiError{Status: http.StatusBadRequest, Code: "invalid_status", Message: "Unknown status filter"})
			return
		}
		filters["status"] = status
	}
	if listingID, err := strconv.Atoi(c.Query("listing_id")); err == nil && listingID > 0 {
		filters["listing_id"] = listingID
	}
	if from := strings.TrimSpace(c.Query("from")); from != "" {
		filters["from"] = from
	}
	if to := strings.TrimSpace(c.Query("to")); to != "" {
		filters["to"] = to
	}
	if email := strings.TrimSpace(c.Query("guest_email")); email != "" {
		filters["guest_email"] = email
	}
	if q := strings.TrimSpace(c.Query("q")); q != "" {
		filters["q"] = q
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "50"))

	result, err := a.adminListBookings(c.Request.Context(), filters, page, pageSize)
	if err != nil {
		writeAPIError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (a *App) adminBookingDetailsHandler(c *gin.Context) {
	booking, err := a.adminGetBookingByID(c.Request.Context(), parseIDParam(c))
	if err != nil {
		writeAPIError(c, err)
		return
	}
	c.JSON(http.StatusOK, booking)
}

func (a *App) adminBookingStatusHandler(c *gin.Context) {
	session, err := getOperatorSession(c)
	if err != nil {
		writeAPIError(c, &apiError{Status: http.StatusUnauthorized, Code: "unauthorized", Message: "Operator session required"})
		return
	}

	var body struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		writeAPIError(c, &apiError{Status: http.StatusBadRequest, Code: "invalid_payload", Message: "Invalid payload"})
		return
	}

	updated, err := a.adminSetBookingStatus(c.Request.Context(), parseIDParam(c), body.Status, session)
	if err != nil {
		writeAPIError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}
