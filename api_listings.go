package main

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

func (a *App) publicListingsHandler(c *gin.Context) {
	filters := map[string]any{"published": true}

	if q := strings.TrimSpace(c.Query("q")); q != "" {
		filters["q"] = q
	}
	if city := strings.TrimSpace(c.Query("city")); city != "" {
		filters["city"] = city
	}
	if propertyType := strings.TrimSpace(c.Query("property_type")); propertyType != "" {
		filters["property_type"] = propertyType
	}
	if guests, err := strconv.Atoi(c.Query("guests")); err == nil && guests > 0 {
		filters["guests"] = guests
	}
	if minPrice, err := strconv.Atoi(c.Query("min_price_cents")); err == nil && minPrice > 0 {
		filters["min_price_cents"] = minPrice
	}
	if maxPrice, err := strconv.Atoi(c.Query("max_price_cents")); err == nil && maxPrice > 0 {
		filters["max_price_cents"] = maxPrice
	}
	if amenity := strings.TrimSpace(c.Query("amenity")); amenity != "" {
		filters["amenity"] = amenity
	}
	if sortBy := strings.TrimSpace(c.Query("sort")); sortBy != "" {
		filters["sort"] = sortBy
	}
	if c.Query("desc") == "true" {
		filters["desc"] = true
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	if pageSize > 100 {
		pageSize = 100
	}

	result, err := a.publicSearchListings(c.Request.Context(), filters, page, pageSize)
	if err != nil {
		writeAPIError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (a *App) publicListingDetailsHandler(c *gin.Context) {
	listing, err := a.publicGetListing(c.Request.Context(), c.Param("slug"))
	if err != nil {
		writeAPIError(c, err)
		return
	}
	c.JSON(http.StatusOK, listing)
}

func (a *App) publicListingUnitsHandler(c *gin.Context) {
	listing, err := a.publicGetListing(c.Request.Context(), c.Param("slug"))
	if err != nil {
		writeAPIError(c, err)
		return
	}
	units, err := a.publicListUnits(c.Request.Context(), listing.ID)
	if err != nil {
		writeAPIError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"listing": listing, "units": units})
}
