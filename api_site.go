package main

import (
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
)

func (a *App) publicTaxonomyHandler(c *gin.Context, name string) {
	tax, err := taxonomyByName(name)
	if err != nil {
		writeAPIError(c, err)
		return
	}
	sources, err := a.adminLoadTaxonomySources(c.Request.Context(), tax)
	if err != nil {
		writeAPIError(c, err)
		return
	}
	c.JSON(http.StatusOK, sources)
}

func (a *App) publicAmenitiesHandler(c *gin.Context) {
	a.publicTaxonomyHandler(c, "amenities")
}

func (a *App) publicAccessibilityHandler(c *gin.Context) {
	a.publicTaxonomyHandler(c, "accessibility-features")
}

func (a *App) publicPOICategoriesHandler(c *gin.Context) {
	a.publicTaxonomyHandler(c, "poi-categories")
}

func (a *App) publicPOIsHandler(c *gin.Context) {
	pois, err := a.storeListPOIs(c.Request.Context(), strings.TrimSpace(c.Query("category")), strings.TrimSpace(c.Query("city")), true)
	if err != nil {
		writeAPIError(c, err)
		return
	}
	c.JSON(http.StatusOK, pois)
}

func (a *App) publicBedTypesHandler(c *gin.Context) {
	types, err := a.storeListSimpleTypes(c.Request.Context(), "bed_types", true)
	if err != nil {
		writeAPIError(c, err)
		return
	}
	c.JSON(http.StatusOK, types)
}

func (a *App) publicPropertyTypesHandler(c *gin.Context) {
	types, err := a.storeListSimpleTypes(c.Request.Context(), "property_types", true)
	if err != nil {
		writeAPIError(c, err)
		return
	}
	c.JSON(http.StatusOK, types)
}

func (a *App) publicHeroImagesHandler(c *gin.Context) {
	images, err := a.storeListHeroImages(c.Request.Context(), true)
	if err != nil {
		writeAPIError(c, err)
		return
	}
	c.JSON(http.StatusOK, images)
}

func (a *App) publicHeroImagePhotoHandler(c *gin.Context) {
	image, err := a.storeGetHeroImage(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeAPIError(c, err)
		return
	}
	if !image.IsActive {
		writeAPIError(c, &apiError{Status: http.StatusNotFound, Code: "not_found", Message: "Hero image not found"})
		return
	}
	c.Header("Cache-Control", "public, max-age=86400")
	c.Header("Content-Type", image.MimeType)
	c.File(filepath.Join(a.cfg.DataRoot, image.StoragePath))
}

func (a *App) publicLegalPageHandler(c *gin.Context) {
	page, ok := GetLegalPage(c.Param("slug"))
	if !ok {
		writeAPIError(c, &apiError{Status: http.StatusNotFound, Code: "not_found", Message: "Page not found"})
		return
	}
	c.JSON(http.StatusOK, page)
}
