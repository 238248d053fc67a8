package main

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

type listingPayload struct {
	Name         string   `json:"name" binding:"required"`
	Summary      string   `json:"summary"`
	Description  string   `json:"description"`
	PropertyType string   `json:"propertyType" binding:"required"`
	City         string   `json:"city"`
	Address      string   `json:"address"`
	Lat          *float64 `json:"lat"`
	Lng          *float64 `json:"lng"`
	MaxGuests    int      `json:"maxGuests" binding:"required"`
}

func (a *App) validateListingPayload(c *gin.Context, body *listingPayload) error {
	body.Name = strings.TrimSpace(body.Name)
	if body.Name == "" {
		return &apiError{Status: http.StatusUnprocessableEntity, Code: "invalid_name", Message: "Listing name is required"}
	}
	if body.MaxGuests < 1 {
		return &apiError{Status: http.StatusUnprocessableEntity, Code: "invalid_guests", Message: "Max guests must be at least 1"}
	}

	types, err := a.storeListSimpleTypes(c.Request.Context(), "property_types", false)
	if err != nil {
		return err
	}
	for _, t := range types {
		if t.Key == body.PropertyType {
			return nil
		}
	}
	return &apiError{Status: http.StatusUnprocessableEntity, Code: "unknown_property_type", Message: "Unknown property type"}
}

func (a *App) adminListingsHandler(c *gin.Context) {
	filters := map[string]any{}
	if q := strings.TrimSpace(c.Query("q")); q != "" {
		filters["q"] = q
	}
	if published := c.Query("published"); published == "true" || published == "false" {
		filters["published"] = published == "true"
	}
	if sortBy := strings.TrimSpace(c.Query("sort")); sortBy != "" {
		filters["sort"] = sortBy
	}
	if c.Query("desc") == "true" {
		filters["desc"] = true
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "50"))

	result, err := a.publicSearchListings(c.Request.Context(), filters, page, pageSize)
	if err != nil {
		writeAPIError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (a *App) adminListingDetailsHandler(c *gin.Context) {
	listing, err := a.storeGetListingByID(c.Request.Context(), parseIDParam(c))
	if err != nil {
		writeAPIError(c, err)
		return
	}
	c.JSON(http.StatusOK, listing)
}

func (a *App) adminCreateListingHandler(c *gin.Context) {
	var body listingPayload
	if err := c.ShouldBindJSON(&body); err != nil {
		writeAPIError(c, &apiError{Status: http.StatusBadRequest, Code: "invalid_payload", Message: "Invalid payload"})
		return
	}
	if err := a.validateListingPayload(c, &body); err != nil {
		writeAPIError(c, err)
		return
	}

	listing := &Listing{
		Name:         body.Name,
		Summary:      body.Summary,
		Description:  body.Description,
		PropertyType: body.PropertyType,
		City:         body.City,
		Address:      body.Address,
		Lat:          body.Lat,
		Lng:          body.Lng,
		MaxGuests:    body.MaxGuests,
	}
	if err := a.storeCreateListing(c.Request.Context(), listing); err != nil {
		writeAPIError(c, err)
		return
	}
	c.JSON(http.StatusCreated, listing)
}

func (a *App) adminUpdateListingHandler(c *gin.Context) {
	var body listingPayload
	if err := c.ShouldBindJSON(&body); err != nil {
		writeAPIError(c, &apiError{Status: http.StatusBadRequest, Code: "invalid_payload", Message: "Invalid payload"})
		return
	}
	if err := a.validateListingPayload(c, &body); err != nil {
		writeAPIError(c, err)
		return
	}

	listing := &Listing{
		ID:           parseIDParam(c),
		Name:         body.Name,
		Summary:      body.Summary,
		Description:  body.Description,
		PropertyType: body.PropertyType,
		City:         body.City,
		Address:      body.Address,
		Lat:          body.Lat,
		Lng:          body.Lng,
		MaxGuests:    body.MaxGuests,
	}
	if err := a.storeUpdateListing(c.Request.Context(), listing); err != nil {
		writeAPIError(c, err)
		return
	}
	c.JSON(http.StatusOK, listing)
}

func (a *App) adminDeleteListingHandler(c *gin.Context) {
	if err := a.storeDeleteListing(c.Request.Context(), parseIDParam(c)); err != nil {
		writeAPIError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

func (a *App) adminPublishListingHandler(c *gin.Context) {
	var body struct {
		Published bool `json:"published"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		writeAPIError(c, &apiError{Status: http.StatusBadRequest, Code: "invalid_payload", Message: "Invalid payload"})
		return
	}

	listing, err := a.storeSetListingPublished(c.Request.Context(), parseIDParam(c), body.Published)
	if err != nil {
		writeAPIError(c, err)
		return
	}
	c.JSON(http.StatusOK, listing)
}

type unitPayload struct {
	Name               string    `json:"name" binding:"required"`
	Sleeps             int       `json:"sleeps" binding:"required"`
	Bedrooms           int       `json:"bedrooms"`
	Bathrooms          int       `json:"bathrooms"`
	NightlyPriceCents  int       `json:"nightlyPriceCents" binding:"required"`
	IsPublished        bool      `json:"isPublished"`
	Beds               []UnitBed `json:"beds"`
	SharedAmenityKeys  []string  `json:"sharedAmenityKeys"`
	PrivateAmenityKeys []string  `json:"privateAmenityKeys"`
}

func validateUnitPayload(body *unitPayload) error {
	body.Name = strings.TrimSpace(body.Name)
	if body.Name == "" {
		return &apiError{Status: http.StatusUnprocessableEntity, Code: "invalid_name", Message: "Unit name is required"}
	}
	if body.Sleeps < 1 {
		return &apiError{Status: http.StatusUnprocessableEntity, Code: "invalid_sleeps", Message: "Unit must sleep at least 1"}
	}
	if body.NightlyPriceCents < 0 {
		return &apiError{Status: http.StatusUnprocessableEntity, Code: "invalid_price", Message: "Nightly price must not be negative"}
	}
	return nil
}

func (a *App) adminUnitsHandler(c *gin.Context) {
	listing, err := a.storeGetListingByID(c.Request.Context(), parseIDParam(c))
	if err != nil {
		writeAPIError(c, err)
		return
	}
	units, err := a.storeListUnitsAdmin(c.Request.Context(), listing.ID)
	if err != nil {
		writeAPIError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"listing": listing, "units": units})
}

func (a *App) adminCreateUnitHandler(c *gin.Context) {
	listing, err := a.storeGetListingByID(c.Request.Context(), parseIDParam(c))
	if err != nil {
		writeAPIError(c, err)
		return
	}

	var body unitPayload
	if err := c.ShouldBindJSON(&body); err != nil {
		writeAPIError(c, &apiError{Status: http.StatusBadRequest, Code: "invalid_payload", Message: "Invalid payload"})
		return
	}
	if err := validateUnitPayload(&body); err != nil {
		writeAPIError(c, err)
		return
	}

	unit := &Unit{
		ListingID:          listing.ID,
		Name:               body.Name,
		Sleeps:             body.Sleeps,
		Bedrooms:           body.Bedrooms,
		Bathrooms:          body.Bathrooms,
		NightlyPriceCents:  body.NightlyPriceCents,
		IsPublished:        body.IsPublished,
		Beds:               body.Beds,
		SharedAmenityKeys:  body.SharedAmenityKeys,
		PrivateAmenityKeys: body.PrivateAmenityKeys,
	}
	if err := a.storeCreateUnit(c.Request.Context(), unit); err != nil {
		writeAPIError(c, err)
		return
	}
	c.JSON(http.StatusCreated, unit)
}

func (a *App) adminUpdateUnitHandler(c *gin.Context) {
	var body unitPayload
	if err := c.ShouldBindJSON(&body); err != nil {
		writeAPIError(c, &apiError{Status: http.StatusBadRequest, Code: "invalid_payload", Message: "Invalid payload"})
		return
	}
	if err := validateUnitPayload(&body); err != nil {
		writeAPIError(c, err)
		return
	}

	unit := &Unit{
		ID:                 parseIDParam(c),
		Name:               body.Name,
		Sleeps:             body.Sleeps,
		Bedrooms:           body.Bedrooms,
		Bathrooms:          body.Bathrooms,
		NightlyPriceCents:  body.NightlyPriceCents,
		IsPublished:        body.IsPublished,
		Beds:               body.Beds,
		SharedAmenityKeys:  body.SharedAmenityKeys,
		PrivateAmenityKeys: body.PrivateAmenityKeys,
	}
	if err := a.storeUpdateUnit(c.Request.Context(), unit); err != nil {
		writeAPIError(c, err)
		return
	}
	c.JSON(http.StatusOK, unit)
}

func (a *App) adminDeleteUnitHandler(c *gin.Context) {
	if err := a.storeDeleteUnit(c.Request.Context(), parseIDParam(c)); err != nil {
		writeAPIError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}
