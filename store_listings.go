package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"
)

type PaginatedListings struct {
	Listings    []Listing `json:"listings"`
	TotalCount  int       `json:"totalCount"`
	TotalPages  int       `json:"totalPages"`
	CurrentPage int       `json:"currentPage"`
	PageSize    int       `json:"pageSize"`
}

var slugStripChars = regexp.MustCompile(`[^a-z0-9-]`)
var slugDashRuns = regexp.MustCompile(`-+`)

// slugifyListingName derives a URL slug from a listing name. Collisions are
// resolved by the caller with a numeric suffix.
func slugifyListingName(name string) string {
	slug := strings.ToLower(strings.TrimSpace(name))
	slug = strings.ReplaceAll(slug, " ", "-")
	slug = slugStripChars.ReplaceAllString(slug, "")
	slug = slugDashRuns.ReplaceAllString(slug, "-")
	slug = strings.Trim(slug, "-")
	if slug == "" {
		slug = fmt.Sprintf("listing-%d", time.Now().UnixNano())
	}
	return slug
}

func buildListingFilters(filters map[string]any) (string, []any) {
	whereClause := ""
	args := make([]any, 0)
	argIndex := 1

	if q, ok := filters["q"].(string); ok && q != "" {
		whereClause += fmt.Sprintf(" AND (listings.name ILIKE $%d OR listings.summary ILIKE $%d OR listings.city ILIKE $%d)", argIndex, argIndex, argIndex)
		args = append(args, "%"+q+"%")
		argIndex++
	}
	if city, ok := filters["city"].(string); ok && city != "" {
		whereClause += fmt.Sprintf(" AND LOWER(listings.city) = LOWER($%d)", argIndex)
		args = append(args, city)
		argIndex++
	}
	if propertyType, ok := filters["property_type"].(string); ok && propertyType != "" {
		whereClause += fmt.Sprintf(" AND listings.property_type = $%d", argIndex)
		args = append(args, propertyType)
		argIndex++
	}
	if guests, ok := filters["guests"].(int); ok && guests > 0 {
		whereClause += fmt.Sprintf(" AND listings.max_guests >= $%d", argIndex)
		args = append(args, guests)
		argIndex++
	}
	if minPrice, ok := filters["min_price_cents"].(int); ok && minPrice > 0 {
		whereClause += fmt.Sprintf(" AND listings.display_price_cents >= $%d", argIndex)
		args = append(args, minPrice)
		argIndex++
	}
	if maxPrice, ok := filters["max_price_cents"].(int); ok && maxPrice > 0 {
		whereClause += fmt.Sprintf(" AND listings.display_price_cents <= $%d", argIndex)
		args = append(args, maxPrice)
		argIndex++
	}
	if amenity, ok := filters["amenity"].(string); ok && amenity != "" {
		whereClause += fmt.Sprintf(` AND EXISTS (
			SELECT 1 FROM units
			WHERE units.listing_id = listings.id AND units.is_published = TRUE
			AND (jsonb_exists(units.shared_amenities, $%d) OR jsonb_exists(units.private_amenities, $%d))
		)`, argIndex, argIndex)
		args = append(args, amenity)
		argIndex++
	}
	if published, ok := filters["published"].(bool); ok {
		whereClause += fmt.Sprintf(" AND listings.is_published = $%d", argIndex)
		args = append(args, published)
		argIndex++
	}

	return whereClause, args
}

const listingSelectColumns = `
	listings.id, listings.slug, listings.name, listings.summary, listings.description,
	listings.property_type, listings.city, listings.address, listings.lat, listings.lng,
	listings.max_guests, listings.display_price_cents, listings.is_published,
	listings.created_at, listings.updated_at
`

func scanListing(scan func(dest ...any) error, extra ...any) (Listing, error) {
	var l Listing
	var lat, lng sql.NullFloat64
	var displayPrice sql.NullInt64
	var createdAt, updatedAt time.Time

	dest := []any{
		&l.ID, &l.Slug, &l.Name, &l.Summary, &l.Description,
		&l.PropertyType, &l.City, &l.Address, &lat, &lng,
		&l.MaxGuests, &displayPrice, &l.IsPublished,
		&createdAt, &updatedAt,
	}
	dest = append(dest, extra...)
	if err := scan(dest...); err != nil {
		return Listing{}, err
	}

	if lat.Valid {
		l.Lat = &lat.Float64
	}
	if lng.Valid {
		l.Lng = &lng.Float64
	}
	if displayPrice.Valid {
		val := int(displayPrice.Int64)
		l.DisplayPriceCents = &val
	}
	l.CreatedAt = createdAt.UTC().Format(time.RFC3339)
	l.UpdatedAt = updatedAt.UTC().Format(time.RFC3339)
	return l, nil
}

// storeSearchListings powers both the public catalogue (published filter set
// by the handler) and the admin listing table.
func (a *App) storeSearchListings(ctx context.Context, filters map[string]any, page, pageSize int) (*PaginatedListings, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}

	query := `SELECT ` + listingSelectColumns + `, COUNT(*) OVER() AS total_count FROM listings WHERE 1=1`
	whereClause, args := buildListingFilters(filters)
	query += whereClause
	argIndex := len(args) + 1

	sortColumn := "name"
	if sortBy, ok := filters["sort"].(string); ok {
		if column, known := listingSortColumns[sortBy]; known {
			sortColumn = column
		}
	}
	direction := "ASC"
	if desc, ok := filters["desc"].(bool); ok && desc {
		direction = "DESC"
	}
	query += fmt.Sprintf(" ORDER BY listings.%s %s NULLS LAST, listings.id", sortColumn, direction)

	offset := (page - 1) * pageSize
	query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", argIndex, argIndex+1)
	args = append(args, pageSize, offset)

	rows, err := a.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	listings := []Listing{}
	totalCount := 0
	for rows.Next() {
		l, err := scanListing(rows.Scan, &totalCount)
		if err != nil {
			return nil, err
		}
		listings = append(listings, l)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	totalPages := 0
	if totalCount > 0 {
		totalPages = (totalCount + pageSize - 1) / pageSize
	}

	return &PaginatedListings{
		Listings:    listings,
		TotalCount:  totalCount,
		TotalPages:  totalPages,
		CurrentPage: page,
		PageSize:    pageSize,
	}, nil
}

func (a *App) storeGetListingBySlug(ctx context.Context, slug string) (*Listing, error) {
	row := a.db.QueryRowContext(ctx, `SELECT `+listingSelectColumns+` FROM listings WHERE slug = $1 AND is_published = TRUE`, slug)
	l, err := scanListing(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &apiError{Status: http.StatusNotFound, Code: "not_found", Message: "Listing not found"}
	}
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func (a *App) storeGetListingByID(ctx context.Context, id int) (*Listing, error) {
	row := a.db.QueryRowContext(ctx, `SELECT `+listingSelectColumns+` FROM listings WHERE id = $1`, id)
	l, err := scanListing(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &apiError{Status: http.StatusNotFound, Code: "not_found", Message: "Listing not found"}
	}
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func (a *App) storeCreateListing(ctx context.Context, l *Listing) error {
	base := slugifyListingName(l.Name)
	slug := base
	for attempt := 2; ; attempt++ {
		var exists bool
		if err := a.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM listings WHERE slug = $1)`, slug).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			break
		}
		slug = fmt.Sprintf("%s-%d", base, attempt)
	}
	l.Slug = slug

	row := a.db.QueryRowContext(ctx, `
		INSERT INTO listings (slug, name, summary, description, property_type, city, address, lat, lng, max_guests)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING `+listingSelectColumns+`
	`, l.Slug, l.Name, l.Summary, l.Description, l.PropertyType, l.City, l.Address, l.Lat, l.Lng, l.MaxGuests)

	created, err := scanListing(row.Scan)
	if err != nil {
		return err
	}
	*l = created
	return nil
}

func (a *App) storeUpdateListing(ctx context.Context, l *Listing) error {
	row := a.db.QueryRowContext(ctx, `
		UPDATE listings
		SET name = $2, summary = $3, description = $4, property_type = $5,
		    city = $6, address = $7, lat = $8, lng = $9, max_guests = $10,
		    updated_at = NOW()
		WHERE id = $1
		RETURNING `+listingSelectColumns+`
	`, l.ID, l.Name, l.Summary, l.Description, l.PropertyType, l.City, l.Address, l.Lat, l.Lng, l.MaxGuests)

	updated, err := scanListing(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return &apiError{Status: http.StatusNotFound, Code: "not_found", Message: "Listing not found"}
	}
	if err != nil {
		return err
	}
	*l = updated
	return nil
}

func (a *App) storeDeleteListing(ctx context.Context, id int) error {
	result, err := a.db.ExecContext(ctx, `DELETE FROM listings WHERE id = $1`, id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return &apiError{Status: http.StatusNotFound, Code: "not_found", Message: "Listing not found"}
	}
	return nil
}

func (a *App) storeSetListingPublished(ctx context.Context, id int, published bool) (*Listing, error) {
	row := a.db.QueryRowContext(ctx, `
		UPDATE listings
		SET is_published = $2, updated_at = NOW()
		WHERE id = $1
		RETURNING `+listingSelectColumns+`
	`, id, published)

	l, err := scanListing(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &apiError{Status: http.StatusNotFound, Code: "not_found", Message: "Listing not found"}
	}
	if err != nil {
		return nil, err
	}
	return &l, nil
}
