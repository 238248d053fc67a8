package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
)

const poiSelectColumns = `id, name, category_key, description, city, lat, lng, is_active`

func scanPOI(scan func(dest ...any) error) (POI, error) {
	var p POI
	var lat, lng sql.NullFloat64
	if err := scan(&p.ID, &p.Name, &p.CategoryKey, &p.Description, &p.City, &lat, &lng, &p.IsActive); err != nil {
		return POI{}, err
	}
	if lat.Valid {
		p.Lat = &lat.Float64
	}
	if lng.Valid {
		p.Lng = &lng.Float64
	}
	return p, nil
}

func (a *App) storeListPOIs(ctx context.Context, categoryKey, city string, activeOnly bool) ([]POI, error) {
	query := `SELECT ` + poiSelectColumns + ` FROM pois WHERE 1=1`
	args := []any{}
	argIndex := 1

	if categoryKey != "" {
		query += fmt.Sprintf(" AND category_key = $%d", argIndex)
		args = append(args, categoryKey)
		argIndex++
	}
	if city != "" {
		query += fmt.Sprintf(" AND LOWER(city) = LOWER($%d)", argIndex)
		args = append(args, city)
		argIndex++
	}
	if activeOnly {
		query += " AND is_active = TRUE"
	}
	query += " ORDER BY name"

	rows, err := a.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	pois := []POI{}
	for rows.Next() {
		p, err := scanPOI(rows.Scan)
		if err != nil {
			return nil, err
		}
		pois = append(pois, p)
	}
	return pois, rows.Err()
}

// validatePOICategory requires the category key to exist in either facet of
// the POI category taxonomy.
func (a *App) validatePOICategory(ctx context.Context, categoryKey string) error {
	var exists bool
	if err := a.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM poi_categories WHERE key = $1)`, categoryKey).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return &apiError{Status: http.StatusUnprocessableEntity, Code: "unknown_poi_category", Message: fmt.Sprintf("Unknown POI category %q", categoryKey)}
	}
	return nil
}

func (a *App) storeCreatePOI(ctx context.Context, p *POI) error {
	if err := a.validatePOICategory(ctx, p.CategoryKey); err != nil {
		return err
	}

	row := a.db.QueryRowContext(ctx, `
		INSERT INTO pois (name, category_key, description, city, lat, lng, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+poiSelectColumns+`
	`, p.Name, p.CategoryKey, p.Description, p.City, p.Lat, p.Lng, p.IsActive)

	created, err := scanPOI(row.Scan)
	if err != nil {
		return err
	}
	*p = created
	return nil
}

func (a *App) storeUpdatePOI(ctx context.Context, p *POI) error {
	if err := a.validatePOICategory(ctx, p.CategoryKey); err != nil {
		return err
	}

	row := a.db.QueryRowContext(ctx, `
		UPDATE pois
		SET name = $2, category_key = $3, description = $4, city = $5, lat = $6, lng = $7, is_active = $8
		WHERE id = $1
		RETURNING `+poiSelectColumns+`
	`, p.ID, p.Name, p.CategoryKey, p.Description, p.City, p.Lat, p.Lng, p.IsActive)

	updated, err := scanPOI(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return &apiError{Status: http.StatusNotFound, Code: "not_found", Message: "POI not found"}
	}
	if err != nil {
		return err
	}
	*p = updated
	return nil
}

func (a *App) storeDeletePOI(ctx context.Context, id int) error {
	result, err := a.db.ExecContext(ctx, `DELETE FROM pois WHERE id = $1`, id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return &apiError{Status: http.StatusNotFound, Code: "not_found", Message: "POI not found"}
	}
	return nil
}
