package main

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

func (a *App) adminHeroImagesHandler(c *gin.Context) {
	images, err := a.storeListHeroImages(c.Request.Context(), false)
	if err != nil {
		writeAPIError(c, err)
		return
	}
	c.JSON(http.StatusOK, images)
}

func (a *App) adminUploadHeroImageHandler(c *gin.Context) {
	fileHeader, err := c.FormFile("photo")
	if err != nil {
		writeAPIError(c, &apiError{Status: http.StatusBadRequest, Code: "missing_photo", Message: "A photo file is required"})
		return
	}
	if fileHeader.Size > maxUploadBytes {
		writeAPIError(c, &apiError{Status: http.StatusRequestEntityTooLarge, Code: "too_large", Message: "Image exceeds the upload limit"})
		return
	}

	mimeType := fileHeader.Header.Get("Content-Type")
	if _, ok := allowedImageTypes[mimeType]; !ok {
		writeAPIError(c, &apiError{Status: http.StatusUnsupportedMediaType, Code: "unsupported_type", Message: "Only JPEG, WebP and PNG images are accepted"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		writeAPIError(c, err)
		return
	}
	defer file.Close()

	image, err := a.storeCreateHeroImage(
		c.Request.Context(),
		strings.TrimSpace(c.PostForm("title")),
		strings.TrimSpace(c.PostForm("altText")),
		mimeType,
		file,
	)
	if err != nil {
		writeAPIError(c, err)
		return
	}
	c.JSON(http.StatusCreated, image)
}

func (a *App) adminUpdateHeroImageHandler(c *gin.Context) {
	var body struct {
		Title    string `json:"title"`
		AltText  string `json:"altText"`
		IsActive bool   `json:"isActive"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		writeAPIError(c, &apiError{Status: http.StatusBadRequest, Code: "invalid_payload", Message: "Invalid payload"})
		return
	}

	image, err := a.storeUpdateHeroImage(c.Request.Context(), c.Param("id"), strings.TrimSpace(body.Title), strings.TrimSpace(body.AltText), body.IsActive)
	if err != nil {
		writeAPIError(c, err)
		return
	}
	c.JSON(http.StatusOK, image)
}

func (a *App) adminDeleteHeroImageHandler(c *gin.Context) {
	if err := a.storeDeleteHeroImage(c.Request.Context(), c.Param("id")); err != nil {
		writeAPIError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

func (a *App) adminReorderHeroImagesHandler(c *gin.Context) {
	var body struct {
		IDs []string `json:"ids" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		writeAPIError(c, &apiError{Status: http.StatusBadRequest, Code: "invalid_payload", Message: "Invalid payload"})
		return
	}

	if err := a.adminReorderHero(c.Request.Context(), body.IDs); err != nil {
		writeAPIError(c, err)
		return
	}

	images, err := a.storeListHeroImages(c.Request.Context(), false)
	if err != nil {
		writeAPIError(c, err)
		return
	}
	c.JSON(http.StatusOK, images)
}
