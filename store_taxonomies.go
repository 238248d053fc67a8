package main

import (
	"context"
	"fmt"
	"net/http"
	"sort"

	"stayport/libs/masterlist"
)

// taxonomyDef describes one dual-facet master list editable through the admin
// taxonomy endpoints. Table names come from this registry only, never from
// request input.
type taxonomyDef struct {
	Name              string
	Table             string
	Facets            []string
	DefaultCategories []string
}

var taxonomyDefs = map[string]taxonomyDef{
	"amenities": {
		Name:              "amenities",
		Table:             "amenities",
		Facets:            []string{"shared", "private"},
		DefaultCategories: []string{"Comfort", "Kitchen", "Bathroom", "Outdoors", "Logistics"},
	},
	"accessibility-features": {
		Name:              "accessibility-features",
		Table:             "accessibility_features",
		Facets:            []string{"property", "unit"},
		DefaultCategories: []string{"Mobility", "Vision", "Hearing", "General"},
	},
	"poi-categories": {
		Name:              "poi-categories",
		Table:             "poi_categories",
		Facets:            []string{"standard", "featured"},
		DefaultCategories: []string{"Food & Drink", "Nature", "Culture", "Transport"},
	},
}

func taxonomyByName(name string) (taxonomyDef, error) {
	tax, ok := taxonomyDefs[name]
	if !ok {
		return taxonomyDef{}, &apiError{Status: http.StatusNotFound, Code: "unknown_taxonomy", Message: fmt.Sprintf("Unknown taxonomy %q", name)}
	}
	return tax, nil
}

func (a *App) storeLoadTaxonomySources(ctx context.Context, tax taxonomyDef) (map[string][]masterlist.Entry, error) {
	query := fmt.Sprintf(`SELECT facet, key, label, category FROM %s ORDER BY facet, label`, tax.Table)
	rows, err := a.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sources := make(map[string][]masterlist.Entry, len(tax.Facets))
	for _, facet := range tax.Facets {
		sources[facet] = []masterlist.Entry{}
	}
	for rows.Next() {
		var facet string
		var entry masterlist.Entry
		if err := rows.Scan(&facet, &entry.Key, &entry.Label, &entry.Category); err != nil {
			return nil, err
		}
		if _, ok := sources[facet]; !ok {
			continue
		}
		sources[facet] = append(sources[facet], entry)
	}
	return sources, rows.Err()
}

// storeLoadTaxonomyCategories returns the taxonomy's category registry: the
// built-in defaults plus any category already present on persisted rows.
func (a *App) storeLoadTaxonomyCategories(ctx context.Context, tax taxonomyDef) ([]string, error) {
	query := fmt.Sprintf(`SELECT DISTINCT category FROM %s`, tax.Table)
	rows, err := a.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	seen := make(map[string]struct{}, len(tax.DefaultCategories))
	categories := make([]string, 0, len(tax.DefaultCategories))
	for _, category := range tax.DefaultCategories {
		seen[category] = struct{}{}
		categories = append(categories, category)
	}
	extra := []string{}
	for rows.Next() {
		var category string
		if err := rows.Scan(&category); err != nil {
			return nil, err
		}
		if _, ok := seen[category]; ok {
			continue
		}
		seen[category] = struct{}{}
		extra = append(extra, category)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	sort.Strings(extra)
	return append(categories, extra...), nil
}

// storeReplaceTaxonomyFacet swaps one facet's rows for the given entries in a
// single transaction. Other facets of the same taxonomy are untouched.
func (a *App) storeReplaceTaxonomyFacet(ctx context.Context, tax taxonomyDef, facet string, entries []masterlist.Entry) error {
	if !containsString(tax.Facets, facet) {
		return &apiError{Status: http.StatusNotFound, Code: "unknown_facet", Message: fmt.Sprintf("Taxonomy %q has no facet %q", tax.Name, facet)}
	}

	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s WHERE facet = $1`, tax.Table), facet); err != nil {
		return err
	}
	insert := fmt.Sprintf(`INSERT INTO %s (facet, key, label, category) VALUES ($1, $2, $3, $4)`, tax.Table)
	for _, entry := range entries {
		if _, err := tx.ExecContext(ctx, insert, facet, entry.Key, entry.Label, entry.Category); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (a *App) storeListSimpleTypes(ctx context.Context, table string, activeOnly bool) ([]TaxonomySeed, error) {
	query := fmt.Sprintf(`SELECT key, label, is_active FROM %s`, table)
	if activeOnly {
		query += ` WHERE is_active = TRUE`
	}
	query += ` ORDER BY label`

	rows, err := a.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	types := []TaxonomySeed{}
	for rows.Next() {
		var t TaxonomySeed
		if err := rows.Scan(&t.Key, &t.Label, &t.IsActive); err != nil {
			return nil, err
		}
		types = append(types, t)
	}
	return types, rows.Err()
}

func (a *App) storeUpsertSimpleType(ctx context.Context, table, key, label string, isActive bool) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (key, label, is_active)
		VALUES ($1, $2, $3)
		ON CONFLICT (key)
		DO UPDATE SET label = EXCLUDED.label, is_active = EXCLUDED.is_active
	`, table)
	_, err := a.db.ExecContext(ctx, query, key, label, isActive)
	return err
}

// seedDefaultTaxonomies inserts the built-in bed and property types, keeping
// any operator edits to labels or active flags.
func (a *App) seedDefaultTaxonomies(ctx context.Context) error {
	seed := func(table string, seeds []TaxonomySeed) error {
		query := fmt.Sprintf(`
			INSERT INTO %s (key, label, is_active)
			VALUES ($1, $2, $3)
			ON CONFLICT (key) DO NOTHING
		`, table)
		for _, s := range seeds {
			if _, err := a.db.ExecContext(ctx, query, s.Key, s.Label, s.IsActive); err != nil {
				return err
			}
		}
		return nil
	}

	if err := seed("bed_types", defaultBedTypes); err != nil {
		return err
	}
	if err := seed("property_types", defaultPropertyTypes); err != nil {
		return err
	}
	a.log.Info("default taxonomies ensured", "bed_types", len(defaultBedTypes), "property_types", len(defaultPropertyTypes))
	return nil
}
