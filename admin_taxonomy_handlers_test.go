package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stayport/libs/masterlist"
)

func hookTaxonomySources(app *App, sources map[string][]masterlist.Entry, categories []string) {
	app.adminLoadTaxonomySources = func(ctx context.Context, tax taxonomyDef) (map[string][]masterlist.Entry, error) {
		return sources, nil
	}
	app.adminLoadTaxonomyCategories = func(ctx context.Context, tax taxonomyDef) ([]string, error) {
		return categories, nil
	}
}

func TestAdminTaxonomyMasterMergesFacets(t *testing.T) {
	app, router := newTestServer(t)
	hookTaxonomySources(app, map[string][]masterlist.Entry{
		"shared": {
			{Key: "wifi", Label: "Wi-Fi", Category: "Comfort"},
			{Key: "parking", Label: "Parking", Category: "Logistics"},
		},
		"private": {
			{Key: "wifi", Label: "WiFi (unit)", Category: "Connectivity"},
			{Key: "bathtub", Label: "Bathtub", Category: "Bathroom"},
		},
	}, []string{"Comfort", "Logistics", "Bathroom"})

	w := httptest.NewRecorder()
	req := authenticatedRequest(t, app, http.MethodGet, "/api/v1/admin/taxonomies/amenities/master", "")
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Taxonomy   string             `json:"taxonomy"`
		Facets     []string           `json:"facets"`
		Categories []string           `json:"categories"`
		Items      []taxonomyItemView `json:"items"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))

	assert.Equal(t, "amenities", body.Taxonomy)
	assert.Equal(t, []string{"shared", "private"}, body.Facets)
	require.Len(t, body.Items, 3)

	byKey := map[string]taxonomyItemView{}
	for _, item := range body.Items {
		byKey[item.Key] = item
	}

	// wifi exists in both facets; the shared facet wins label and category
	wifi := byKey["wifi"]
	assert.Equal(t, "Wi-Fi", wifi.Label)
	assert.Equal(t, "Comfort", wifi.Category)
	assert.True(t, wifi.Facets["shared"])
	assert.True(t, wifi.Facets["private"])

	bathtub := byKey["bathtub"]
	assert.False(t, bathtub.Facets["shared"])
	assert.True(t, bathtub.Facets["private"])
}

func TestAdminTaxonomyMasterAppliesQuery(t *testing.T) {
	app, router := newTestServer(t)
	hookTaxonomySources(app, map[string][]masterlist.Entry{
		"shared": {
			{Key: "wifi", Label: "Wi-Fi", Category: "Comfort"},
			{Key: "sauna", Label: "Sauna", Category: "Comfort"},
			{Key: "parking", Label: "Parking", Category: "Logistics"},
		},
		"private": {},
	}, nil)

	w := httptest.NewRecorder()
	req := authenticatedRequest(t, app, http.MethodGet, "/api/v1/admin/taxonomies/amenities/master?category=Comfort&search=wi", "")
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Items []taxonomyItemView `json:"items"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Items, 1)
	assert.Equal(t, "wifi", body.Items[0].Key)
}

func TestAdminTaxonomyMasterUnknownName(t *testing.T) {
	app, router := newTestServer(t)

	w := httptest.NewRecorder()
	req := authenticatedRequest(t, app, http.MethodGet, "/api/v1/admin/taxonomies/colours/master", "")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "unknown_taxonomy")
}

func TestAdminTaxonomyFacetReplaceGeneratesKeys(t *testing.T) {
	app, router := newTestServer(t)

	var capturedFacet string
	var capturedEntries []masterlist.Entry
	app.adminReplaceTaxonomyFacet = func(ctx context.Context, tax taxonomyDef, facet string, entries []masterlist.Entry) error {
		capturedFacet = facet
		capturedEntries = entries
		return nil
	}

	payload := `{"entries":[
		{"key":"wifi","label":"Wi-Fi","category":"Comfort"},
		{"label":"Beauty & Wellbeing","category":"Comfort"}
	]}`

	w := httptest.NewRecorder()
	req := authenticatedRequest(t, app, http.MethodPut, "/api/v1/admin/taxonomies/amenities/facets/shared", payload)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "shared", capturedFacet)
	require.Len(t, capturedEntries, 2)
	assert.Equal(t, "wifi", capturedEntries[0].Key)
	assert.Equal(t, "beauty__wellbeing", capturedEntries[1].Key)
	assert.Equal(t, "Beauty & Wellbeing", capturedEntries[1].Label)
}

func TestAdminTaxonomyFacetReplaceValidation(t *testing.T) {
	app, router := newTestServer(t)
	app.adminReplaceTaxonomyFacet = func(ctx context.Context, tax taxonomyDef, facet string, entries []masterlist.Entry) error {
		t.Fatal("store must not be reached on validation failure")
		return nil
	}

	cases := []struct {
		name     string
		payload  string
		status   int
		wantCode string
	}{
		{
			"empty label",
			`{"entries":[{"label":"   ","category":"Comfort"}]}`,
			http.StatusUnprocessableEntity, "empty_label",
		},
		{
			"missing category",
			`{"entries":[{"label":"Sauna","category":""}]}`,
			http.StatusUnprocessableEntity, "empty_category",
		},
		{
			"duplicate label case-insensitive",
			`{"entries":[{"label":"Sauna","category":"Comfort"},{"label":"  SAUNA ","category":"Comfort","key":"sauna2"}]}`,
			http.StatusConflict, "duplicate_label",
		},
		{
			"duplicate key",
			`{"entries":[{"key":"sauna","label":"Sauna","category":"Comfort"},{"key":"sauna","label":"Steam room","category":"Comfort"}]}`,
			http.StatusConflict, "duplicate_key",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := authenticatedRequest(t, app, http.MethodPut, "/api/v1/admin/taxonomies/amenities/facets/shared", tc.payload)
			router.ServeHTTP(w, req)

			assert.Equal(t, tc.status, w.Code)
			assert.Contains(t, w.Body.String(), tc.wantCode)
		})
	}
}

func TestAdminTaxonomyFacetReplaceUnknownFacet(t *testing.T) {
	app, router := newTestServer(t)

	w := httptest.NewRecorder()
	req := authenticatedRequest(t, app, http.MethodPut, "/api/v1/admin/taxonomies/amenities/facets/communal", `{"entries":[]}`)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "unknown_facet")
}
