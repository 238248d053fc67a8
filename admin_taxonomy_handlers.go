package main

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"stayport/libs/masterlist"
)

type taxonomyItemView struct {
	Key      string          `json:"key"`
	Label    string          `json:"label"`
	Category string          `json:"category"`
	Facets   map[string]bool `json:"facets"`
}

// adminTaxonomyMasterHandler returns the merged master view of a taxonomy:
// one row per key with a flag per facet, filtered and sorted per query.
func (a *App) adminTaxonomyMasterHandler(c *gin.Context) {
	tax, err := taxonomyByName(c.Param("name"))
	if err != nil {
		writeAPIError(c, err)
		return
	}

	sources, err := a.adminLoadTaxonomySources(c.Request.Context(), tax)
	if err != nil {
		writeAPIError(c, err)
		return
	}
	categories, err := a.adminLoadTaxonomyCategories(c.Request.Context(), tax)
	if err != nil {
		writeAPIError(c, err)
		return
	}

	editor := masterlist.NewEditor(tax.Facets, sources, masterlist.WithCategories(categories...))
	query := masterlist.Query{
		Search:     strings.TrimSpace(c.Query("search")),
		Category:   strings.TrimSpace(c.Query("category")),
		Facet:      strings.TrimSpace(c.Query("facet")),
		SortKey:    strings.TrimSpace(c.Query("sort")),
		Descending: c.Query("desc") == "true",
	}

	items := editor.Visible(query)
	views := make([]taxonomyItemView, 0, len(items))
	for _, item := range items {
		views = append(views, taxonomyItemView{
			Key:      item.Key,
			Label:    item.Label,
			Category: item.Category,
			Facets:   item.Facets,
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"taxonomy":   tax.Name,
		"facets":     tax.Facets,
		"categories": editor.Categories(),
		"items":      views,
	})
}

type taxonomyEntryPayload struct {
	Key      string `json:"key"`
	Label    string `json:"label"`
	Category string `json:"category"`
}

// adminTaxonomyFacetReplaceHandler replaces one facet's rows wholesale.
// Entries without a key are new rows and get their key derived from the
// label; labels must be unique per facet under case-folding.
func (a *App) adminTaxonomyFacetReplaceHandler(c *gin.Context) {
	tax, err := taxonomyByName(c.Param("name"))
	if err != nil {
		writeAPIError(c, err)
		return
	}
	facet := c.Param("facet")
	if !containsString(tax.Facets, facet) {
		writeAPIError(c, &apiError{Status: http.StatusNotFound, Code: "unknown_facet", Message: fmt.Sprintf("Taxonomy %q has no facet %q", tax.Name, facet)})
		return
	}

	var body struct {
		Entries []taxonomyEntryPayload `json:"entries"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		writeAPIError(c, &apiError{Status: http.StatusBadRequest, Code: "invalid_payload", Message: "Invalid payload"})
		return
	}

	entries := make([]masterlist.Entry, 0, len(body.Entries))
	seenKeys := make(map[string]struct{}, len(body.Entries))
	seenLabels := make(map[string]struct{}, len(body.Entries))
	for _, payload := range body.Entries {
		label := strings.TrimSpace(payload.Label)
		category := strings.TrimSpace(payload.Category)
		if masterlist.FoldLabel(label) == "" {
			writeAPIError(c, &apiError{Status: http.StatusUnprocessableEntity, Code: "empty_label", Message: "Every entry needs a label"})
			return
		}
		if category == "" {
			writeAPIError(c, &apiError{Status: http.StatusUnprocessableEntity, Code: "empty_category", Message: fmt.Sprintf("Entry %q needs a category", label)})
			return
		}

		key := strings.TrimSpace(payload.Key)
		if key == "" {
			key = masterlist.GenerateKey(label)
		}
		if _, dup := seenKeys[key]; dup {
			writeAPIError(c, &apiError{Status: http.StatusConflict, Code: "duplicate_key", Message: fmt.Sprintf("Key %q appears twice", key)})
			return
		}
		if _, dup := seenLabels[masterlist.FoldLabel(label)]; dup {
			writeAPIError(c, &apiError{Status: http.StatusConflict, Code: "duplicate_label", Message: fmt.Sprintf("Label %q appears twice", label)})
			return
		}
		seenKeys[key] = struct{}{}
		seenLabels[masterlist.FoldLabel(label)] = struct{}{}
		entries = append(entries, masterlist.Entry{Key: key, Label: label, Category: category})
	}

	if err := a.adminReplaceTaxonomyFacet(c.Request.Context(), tax, facet, entries); err != nil {
		writeAPIError(c, err)
		return
	}

	session, _ := getOperatorSession(c)
	a.log.Info("taxonomy facet replaced",
		"taxonomy", tax.Name,
		"facet", facet,
		"entries", len(entries),
		"operator", session.Email,
	)
	c.JSON(http.StatusOK, gin.H{"taxonomy": tax.Name, "facet": facet, "entries": entries})
}

func (a *App) adminBedTypesHandler(c *gin.Context) {
	types, err := a.storeListSimpleTypes(c.Request.Context(), "bed_types", false)
	if err != nil {
		writeAPIError(c, err)
		return
	}
	c.JSON(http.StatusOK, types)
}

func (a *App) adminPropertyTypesHandler(c *gin.Context) {
	types, err := a.storeListSimpleTypes(c.Request.Context(), "property_types", false)
	if err != nil {
		writeAPIError(c, err)
		return
	}
	c.JSON(http.StatusOK, types)
}

func (a *App) adminUpsertSimpleTypeHandler(c *gin.Context, table string) {
	var body struct {
		Label    string `json:"label" binding:"required"`
		IsActive *bool  `json:"isActive"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		writeAPIError(c, &apiError{Status: http.StatusBadRequest, Code: "invalid_payload", Message: "Invalid payload"})
		return
	}

	key := strings.TrimSpace(c.Param("key"))
	if key == "" || masterlist.GenerateKey(key) != key {
		writeAPIError(c, &apiError{Status: http.StatusUnprocessableEntity, Code: "invalid_key", Message: "Key must be lowercase alphanumeric with underscores"})
		return
	}
	label := strings.TrimSpace(body.Label)
	if label == "" {
		writeAPIError(c, &apiError{Status: http.StatusUnprocessableEntity, Code: "empty_label", Message: "Label is required"})
		return
	}
	isActive := true
	if body.IsActive != nil {
		isActive = *body.IsActive
	}

	if err := a.storeUpsertSimpleType(c.Request.Context(), table, key, label, isActive); err != nil {
		writeAPIError(c, err)
		return
	}
	c.JSON(http.StatusOK, TaxonomySeed{Key: key, Label: label, IsActive: isActive})
}

func (a *App) adminUpsertBedTypeHandler(c *gin.Context) {
	a.adminUpsertSimpleTypeHandler(c, "bed_types")
}

func (a *App) adminUpsertPropertyTypeHandler(c *gin.Context) {
	a.adminUpsertSimpleTypeHandler(c, "property_types")
}
