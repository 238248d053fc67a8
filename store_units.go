package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

const unitSelectColumns = `
	units.id, units.listing_id, units.name, units.sleeps, units.bedrooms, units.bathrooms,
	units.nightly_price_cents, units.is_published, units.beds,
	units.shared_amenities, units.private_amenities,
	units.created_at, units.updated_at
`

func scanUnit(scan func(dest ...any) error) (Unit, error) {
	var u Unit
	var bedsRaw, sharedRaw, privateRaw []byte
	var createdAt, updatedAt time.Time

	err := scan(
		&u.ID, &u.ListingID, &u.Name, &u.Sleeps, &u.Bedrooms, &u.Bathrooms,
		&u.NightlyPriceCents, &u.IsPublished, &bedsRaw,
		&sharedRaw, &privateRaw,
		&createdAt, &updatedAt,
	)
	if err != nil {
		return Unit{}, err
	}

	if err := json.Unmarshal(bedsRaw, &u.Beds); err != nil {
		return Unit{}, fmt.Errorf("corrupt beds payload for unit %d: %w", u.ID, err)
	}
	if err := json.Unmarshal(sharedRaw, &u.SharedAmenityKeys); err != nil {
		return Unit{}, fmt.Errorf("corrupt shared amenities for unit %d: %w", u.ID, err)
	}
	if err := json.Unmarshal(privateRaw, &u.PrivateAmenityKeys); err != nil {
		return Unit{}, fmt.Errorf("corrupt private amenities for unit %d: %w", u.ID, err)
	}
	u.CreatedAt = createdAt.UTC().Format(time.RFC3339)
	u.UpdatedAt = updatedAt.UTC().Format(time.RFC3339)
	return u, nil
}

func (a *App) storeListPublishedUnits(ctx context.Context, listingID int) ([]Unit, error) {
	return a.listUnits(ctx, listingID, true)
}

func (a *App) storeListUnitsAdmin(ctx context.Context, listingID int) ([]Unit, error) {
	return a.listUnits(ctx, listingID, false)
}

func (a *App) listUnits(ctx context.Context, listingID int, publishedOnly bool) ([]Unit, error) {
	query := `SELECT ` + unitSelectColumns + ` FROM units WHERE listing_id = $1`
	if publishedOnly {
		query += ` AND is_published = TRUE`
	}
	query += ` ORDER BY nightly_price_cents, id`

	rows, err := a.db.QueryContext(ctx, query, listingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	units := []Unit{}
	for rows.Next() {
		u, err := scanUnit(rows.Scan)
		if err != nil {
			return nil, err
		}
		units = append(units, u)
	}
	return units, rows.Err()
}

// validateUnitReferences checks bed type keys against the bed_types table and
// amenity keys against the matching amenity facet.
func (a *App) validateUnitReferences(ctx context.Context, u *Unit) error {
	for _, bed := range u.Beds {
		if bed.Count < 1 {
			return &apiError{Status: http.StatusUnprocessableEntity, Code: "invalid_bed_count", Message: "Bed counts must be at least 1"}
		}
		var exists bool
		if err := a.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM bed_types WHERE key = $1 AND is_active = TRUE)`, bed.BedTypeKey).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return &apiError{Status: http.StatusUnprocessableEntity, Code: "unknown_bed_type", Message: fmt.Sprintf("Unknown bed type %q", bed.BedTypeKey)}
		}
	}

	checkAmenities := func(facet string, keys []string) error {
		for _, key := range keys {
			var exists bool
			if err := a.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM amenities WHERE facet = $1 AND key = $2)`, facet, key).Scan(&exists); err != nil {
				return err
			}
			if !exists {
				return &apiError{Status: http.StatusUnprocessableEntity, Code: "unknown_amenity", Message: fmt.Sprintf("Unknown %s amenity %q", facet, key)}
			}
		}
		return nil
	}
	if err := checkAmenities("shared", u.SharedAmenityKeys); err != nil {
		return err
	}
	return checkAmenities("private", u.PrivateAmenityKeys)
}

func mustJSON(value any) []byte {
	encoded, _ := json.Marshal(value)
	return encoded
}

func (a *App) storeCreateUnit(ctx context.Context, u *Unit) error {
	if err := a.validateUnitReferences(ctx, u); err != nil {
		return err
	}
	if u.Beds == nil {
		u.Beds = []UnitBed{}
	}
	if u.SharedAmenityKeys == nil {
		u.SharedAmenityKeys = []string{}
	}
	if u.PrivateAmenityKeys == nil {
		u.PrivateAmenityKeys = []string{}
	}

	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	row := tx.QueryRowContext(ctx, `
		INSERT INTO units (listing_id, name, sleeps, bedrooms, bathrooms, nightly_price_cents, is_published, beds, shared_amenities, private_amenities)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING `+unitSelectColumns+`
	`, u.ListingID, u.Name, u.Sleeps, u.Bedrooms, u.Bathrooms, u.NightlyPriceCents, u.IsPublished,
		mustJSON(u.Beds), mustJSON(u.SharedAmenityKeys), mustJSON(u.PrivateAmenityKeys))

	created, err := scanUnit(row.Scan)
	if err != nil {
		return err
	}
	if err := recomputeDisplayPrice(ctx, tx, created.ListingID); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	*u = created
	return nil
}

func (a *App) storeUpdateUnit(ctx context.Context, u *Unit) error {
	if err := a.validateUnitReferences(ctx, u); err != nil {
		return err
	}

	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	row := tx.QueryRowContext(ctx, `
		UPDATE units
		SET name = $2, sleeps = $3, bedrooms = $4, bathrooms = $5,
		    nightly_price_cents = $6, is_published = $7,
		    beds = $8, shared_amenities = $9, private_amenities = $10,
		    updated_at = NOW()
		WHERE id = $1
		RETURNING `+unitSelectColumns+`
	`, u.ID, u.Name, u.Sleeps, u.Bedrooms, u.Bathrooms, u.NightlyPriceCents, u.IsPublished,
		mustJSON(u.Beds), mustJSON(u.SharedAmenityKeys), mustJSON(u.PrivateAmenityKeys))

	updated, err := scanUnit(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return &apiError{Status: http.StatusNotFound, Code: "not_found", Message: "Unit not found"}
	}
	if err != nil {
		return err
	}
	if err := recomputeDisplayPrice(ctx, tx, updated.ListingID); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	*u = updated
	return nil
}

func (a *App) storeDeleteUnit(ctx context.Context, id int) error {
	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var listingID int
	err = tx.QueryRowContext(ctx, `DELETE FROM units WHERE id = $1 RETURNING listing_id`, id).Scan(&listingID)
	if errors.Is(err, sql.ErrNoRows) {
		return &apiError{Status: http.StatusNotFound, Code: "not_found", Message: "Unit not found"}
	}
	if err != nil {
		return err
	}
	if err := recomputeDisplayPrice(ctx, tx, listingID); err != nil {
		return err
	}
	return tx.Commit()
}

// recomputeDisplayPrice refreshes the listing's denormalized display price
// from its cheapest published unit. NULL when no unit is published.
func recomputeDisplayPrice(ctx context.Context, tx *sql.Tx, listingID int) error {
	rows, err := tx.QueryContext(ctx, `
		SELECT nightly_price_cents FROM units
		WHERE listing_id = $1 AND is_published = TRUE
	`, listingID)
	if err != nil {
		return err
	}
	defer rows.Close()

	prices := []int{}
	for rows.Next() {
		var price int
		if err := rows.Scan(&price); err != nil {
			return err
		}
		prices = append(prices, price)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE listings SET display_price_cents = $2, updated_at = NOW() WHERE id = $1
	`, listingID, displayPriceCents(prices))
	return err
}

func (a *App) storeGetBookableUnit(ctx context.Context, listingSlug string, unitID int) (*Listing, *Unit, error) {
	listing, err := a.storeGetListingBySlug(ctx, listingSlug)
	if err != nil {
		return nil, nil, err
	}

	row := a.db.QueryRowContext(ctx, `SELECT `+unitSelectColumns+` FROM units WHERE id = $1 AND listing_id = $2 AND is_published = TRUE`, unitID, listing.ID)
	unit, err := scanUnit(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil, &apiError{Status: http.StatusNotFound, Code: "not_found", Message: "Unit not found"}
	}
	if err != nil {
		return nil, nil, err
	}
	return listing, &unit, nil
}
