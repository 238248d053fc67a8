package main

import (
	"net/http"
	"regexp"
	"strings"

	"github.com/gin-gonic/gin"
)

var legalSlugPattern = regexp.MustCompile(`^[a-z0-9-]+$`)

func (a *App) adminLegalPagesHandler(c *gin.Context) {
	c.JSON(http.StatusOK, GetAllLegalPages())
}

func (a *App) adminUpsertLegalPageHandler(c *gin.Context) {
	slug := c.Param("slug")
	if !legalSlugPattern.MatchString(slug) {
		writeAPIError(c, &apiError{Status: http.StatusUnprocessableEntity, Code: "invalid_slug", Message: "Slug must be lowercase alphanumeric with hyphens"})
		return
	}

	var body struct {
		Title    string `json:"title" binding:"required"`
		BodyHTML string `json:"bodyHtml"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		writeAPIError(c, &apiError{Status: http.StatusBadRequest, Code: "invalid_payload", Message: "Invalid payload"})
		return
	}

	session, err := getOperatorSession(c)
	if err != nil {
		writeAPIError(c, &apiError{Status: http.StatusUnauthorized, Code: "unauthorized", Message: "Operator session required"})
		return
	}

	page := LegalPage{
		Slug:      slug,
		Title:     strings.TrimSpace(body.Title),
		BodyHTML:  body.BodyHTML,
		UpdatedBy: session.Email,
	}
	if err := SaveLegalPage(c.Request.Context(), a.db, page); err != nil {
		writeAPIError(c, err)
		return
	}

	saved, _ := GetLegalPage(slug)
	c.JSON(http.StatusOK, saved)
}
