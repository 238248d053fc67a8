package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdminReorderHeroImagesPassesIDs(t *testing.T) {
	app, router := newTestServer(t)

	// the store hook fails after capturing so the handler stops before its
	// follow-up listing query, which would need a database
	var capturedIDs []string
	app.adminReorderHero = func(ctx context.Context, ids []string) error {
		capturedIDs = ids
		return &apiError{Status: http.StatusConflict, Code: "captured", Message: "captured"}
	}

	w := httptest.NewRecorder()
	req := authenticatedRequest(t, app, http.MethodPost, "/api/v1/admin/hero-images/reorder",
		`{"ids":["b2c3","a1b2","c3d4"]}`)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, []string{"b2c3", "a1b2", "c3d4"}, capturedIDs)
}

func TestAdminReorderHeroImagesRejectsMissingIDs(t *testing.T) {
	app, router := newTestServer(t)
	app.adminReorderHero = func(ctx context.Context, ids []string) error {
		t.Fatal("store must not be reached on invalid payload")
		return nil
	}

	w := httptest.NewRecorder()
	req := authenticatedRequest(t, app, http.MethodPost, "/api/v1/admin/hero-images/reorder", `{}`)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAdminReorderHeroImagesSurfacesStoreErrors(t *testing.T) {
	app, router := newTestServer(t)
	app.adminReorderHero = func(ctx context.Context, ids []string) error {
		return &apiError{Status: http.StatusUnprocessableEntity, Code: "incomplete_order", Message: "Expected 3 image IDs, got 2"}
	}

	w := httptest.NewRecorder()
	req := authenticatedRequest(t, app, http.MethodPost, "/api/v1/admin/hero-images/reorder", `{"ids":["a1b2","b2c3"]}`)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), "incomplete_order")
}
