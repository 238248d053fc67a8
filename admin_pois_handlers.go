package main

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

type poiPayload struct {
	Name        string   `json:"name" binding:"required"`
	CategoryKey string   `json:"categoryKey" binding:"required"`
	Description string   `json:"description"`
	City        string   `json:"city"`
	Lat         *float64 `json:"lat"`
	Lng         *float64 `json:"lng"`
	IsActive    *bool    `json:"isActive"`
}

func poiFromPayload(body *poiPayload) (*POI, error) {
	name := strings.TrimSpace(body.Name)
	if name == "" {
		return nil, &apiError{Status: http.StatusUnprocessableEntity, Code: "invalid_name", Message: "POI name is required"}
	}
	isActive := true
	if body.IsActive != nil {
		isActive = *body.IsActive
	}
	return &POI{
		Name:        name,
		CategoryKey: strings.TrimSpace(body.CategoryKey),
		Description: body.Description,
		City:        strings.TrimSpace(body.City),
		Lat:         body.Lat,
		Lng:         body.Lng,
		IsActive:    isActive,
	}, nil
}

func (a *App) adminPOIsHandler(c *gin.Context) {
	pois, err := a.storeListPOIs(c.Request.Context(), strings.TrimSpace(c.Query("category")), strings.TrimSpace(c.Query("city")), false)
	if err != nil {
		writeAPIError(c, err)
		return
	}
	c.JSON(http.StatusOK, pois)
}

func (a *App) adminCreatePOIHandler(c *gin.Context) {
	var body poiPayload
	if err := c.ShouldBindJSON(&body); err != nil {
		writeAPIError(c, &apiError{Status: http.StatusBadRequest, Code: "invalid_payload", Message: "Invalid payload"})
		return
	}
	poi, err := poiFromPayload(&body)
	if err != nil {
		writeAPIError(c, err)
		return
	}
	if err := a.storeCreatePOI(c.Request.Context(), poi); err != nil {
		writeAPIError(c, err)
		return
	}
	c.JSON(http.StatusCreated, poi)
}

func (a *App) adminUpdatePOIHandler(c *gin.Context) {
	var body poiPayload
	if err := c.ShouldBindJSON(&body); err != nil {
		writeAPIError(c, &apiError{Status: http.StatusBadRequest, Code: "invalid_payload", Message: "Invalid payload"})
		return
	}
	poi, err := poiFromPayload(&body)
	if err != nil {
		writeAPIError(c, err)
		return
	}
	poi.ID = parseIDParam(c)
	if err := a.storeUpdatePOI(c.Request.Context(), poi); err != nil {
		writeAPIError(c, err)
		return
	}
	c.JSON(http.StatusOK, poi)
}

func (a *App) adminDeletePOIHandler(c *gin.Context) {
	if err := a.storeDeletePOI(c.Request.Context(), parseIDParam(c)); err != nil {
		writeAPIError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}
