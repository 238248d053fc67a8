package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

type PaginatedBookings struct {
	Bookings    []Booking `json:"bookings"`
	TotalCount  int       `json:"totalCount"`
	TotalPages  int       `json:"totalPages"`
	CurrentPage int       `json:"currentPage"`
	PageSize    int       `json:"pageSize"`
}

const bookingSelectColumns = `
	bookings.id, bookings.public_id, bookings.listing_id, bookings.unit_id,
	listings.name, units.name,
	bookings.guest_name, bookings.guest_email,
	to_char(bookings.check_in, 'YYYY-MM-DD'), to_char(bookings.check_out, 'YYYY-MM-DD'),
	bookings.guests, bookings.nights, bookings.quote_total_cents, bookings.status, bookings.note,
	bookings.created_at, bookings.updated_at
`

const bookingFromClause = `
	FROM bookings
	JOIN listings ON bookings.listing_id = listings.id
	JOIN units ON bookings.unit_id = units.id
`

func scanBooking(scan func(dest ...any) error, extra ...any) (Booking, error) {
	var b Booking
	var note sql.NullString
	var createdAt, updatedAt time.Time

	dest := []any{
		&b.ID, &b.PublicID, &b.ListingID, &b.UnitID,
		&b.ListingName, &b.UnitName,
		&b.GuestName, &b.GuestEmail,
		&b.CheckIn, &b.CheckOut,
		&b.Guests, &b.Nights, &b.QuoteTotalCents, &b.Status, &note,
		&createdAt, &updatedAt,
	}
	dest = append(dest, extra...)
	if err := scan(dest...); err != nil {
		return Booking{}, err
	}

	if note.Valid {
		b.Note = &note.String
	}
	b.CreatedAt = createdAt.UTC().Format(time.RFC3339)
	b.UpdatedAt = updatedAt.UTC().Format(time.RFC3339)
	return b, nil
}

func buildBookingFilters(filters map[string]any) (string, []any) {
	whereClause := ""
	args := make([]any, 0)
	argIndex := 1

	if status, ok := filters["status"].(string); ok && status != "" {
		whereClause += fmt.Sprintf(" AND bookings.status = $%d", argIndex)
		args = append(args, status)
		argIndex++
	}
	if listingID, ok := filters["listing_id"].(int); ok && listingID > 0 {
		whereClause += fmt.Sprintf(" AND bookings.listing_id = $%d", argIndex)
		args = append(args, listingID)
		argIndex++
	}
	if from, ok := filters["from"].(string); ok && from != "" {
		whereClause += fmt.Sprintf(" AND bookings.check_in >= $%d", argIndex)
		args = append(args, from)
		argIndex++
	}
	if to, ok := filters["to"].(string); ok && to != "" {
		whereClause += fmt.Sprintf(" AND bookings.check_in <= $%d", argIndex)
		args = append(args, to)
		argIndex++
	}
	if email, ok := filters["guest_email"].(string); ok && email != "" {
		whereClause += fmt.Sprintf(" AND LOWER(bookings.guest_email) = LOWER($%d)", argIndex)
		args = append(args, email)
		argIndex++
	}
	if q, ok := filters["q"].(string); ok && q != "" {
		whereClause += fmt.Sprintf(" AND (bookings.guest_name ILIKE $%d OR bookings.guest_email ILIKE $%d OR bookings.public_id ILIKE $%d)", argIndex, argIndex, argIndex)
		args = append(args, "%"+q+"%")
		argIndex++
	}

	return whereClause, args
}

func (a *App) storeCreateBooking(ctx context.Context, booking *Booking) error {
	var lastErr error
	for attempt := 0; attempt < bookingPublicIDAttempts; attempt++ {
		publicID := generateBookingPublicID()
		row := a.db.QueryRowContext(ctx, `
			WITH inserted AS (
				INSERT INTO bookings (public_id, listing_id, unit_id, guest_name, guest_email, check_in, check_out, guests, nights, quote_total_cents, note)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NULLIF($11, ''))
				RETURNING *
			)
			SELECT
				bookings.id, bookings.public_id, bookings.listing_id, bookings.unit_id,
				listings.name, units.name,
				bookings.guest_name, bookings.guest_email,
				to_char(bookings.check_in, 'YYYY-MM-DD'), to_char(bookings.check_out, 'YYYY-MM-DD'),
				bookings.guests, bookings.nights, bookings.quote_total_cents, bookings.status, bookings.note,
				bookings.created_at, bookings.updated_at
			FROM inserted bookings
			JOIN listings ON bookings.listing_id = listings.id
			JOIN units ON bookings.unit_id = units.id
		`, publicID, booking.ListingID, booking.UnitID, booking.GuestName, booking.GuestEmail,
			booking.CheckIn, booking.CheckOut, booking.Guests, booking.Nights, booking.QuoteTotalCents, derefString(booking.Note))

		created, err := scanBooking(row.Scan)
		if err == nil {
			*booking = created
			return nil
		}
		if !strings.Contains(err.Error(), "duplicate key") {
			return err
		}
		lastErr = err
	}
	return fmt.Errorf("could not allocate a unique booking reference: %w", lastErr)
}

func derefString(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}

func (a *App) storeGetBookingByPublicID(ctx context.Context, publicID string) (*Booking, error) {
	row := a.db.QueryRowContext(ctx, `SELECT `+bookingSelectColumns+bookingFromClause+` WHERE bookings.public_id = $1`, strings.ToUpper(strings.TrimSpace(publicID)))
	b, err := scanBooking(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &apiError{Status: http.StatusNotFound, Code: "not_found", Message: "Booking not found"}
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (a *App) storeGetBookingByID(ctx context.Context, id int) (*Booking, error) {
	row := a.db.QueryRowContext(ctx, `SELECT `+bookingSelectColumns+bookingFromClause+` WHERE bookings.id = $1`, id)
	b, err := scanBooking(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &apiError{Status: http.StatusNotFound, Code: "not_found", Message: "Booking not found"}
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (a *App) storeListBookingsPaginated(ctx context.Context, filters map[string]any, page, pageSize int) (*PaginatedBookings, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 50
	}

	query := `SELECT ` + bookingSelectColumns + `, COUNT(*) OVER() AS total_count` + bookingFromClause + ` WHERE 1=1`
	whereClause, args := buildBookingFilters(filters)
	query += whereClause
	argIndex := len(args) + 1

	query += " ORDER BY bookings.created_at DESC"

	offset := (page - 1) * pageSize
	query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", argIndex, argIndex+1)
	args = append(args, pageSize, offset)

	rows, err := a.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	bookings := []Booking{}
	totalCount := 0
	for rows.Next() {
		b, err := scanBooking(rows.Scan, &totalCount)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	totalPages := 0
	if totalCount > 0 {
		totalPages = (totalCount + pageSize - 1) / pageSize
	}

	return &PaginatedBookings{
		Bookings:    bookings,
		TotalCount:  totalCount,
		TotalPages:  totalPages,
		CurrentPage: page,
		PageSize:    pageSize,
	}, nil
}

// updateBookingStatus applies an operator status change after checking the
// transition table, then notifies the guest by email.
func (a *App) updateBookingStatus(ctx context.Context, id int, status string, session OperatorSession) (*Booking, error) {
	if !containsString(bookingStatuses, status) {
		return nil, &apiError{Status: http.StatusUnprocessableEntity, Code: "invalid_status", Message: fmt.Sprintf("Unknown status %q", status)}
	}

	current, err := a.storeGetBookingByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canTransitionBookingStatus(current.Status, status) {
		return nil, &apiError{
			Status:  http.StatusConflict,
			Code:    "invalid_transition",
			Message: fmt.Sprintf("Cannot move booking from %s to %s", current.Status, status),
		}
	}

	if _, err := a.db.ExecContext(ctx, `UPDATE bookings SET status = $2, updated_at = NOW() WHERE id = $1`, id, status); err != nil {
		return nil, err
	}

	updated, err := a.storeGetBookingByID(ctx, id)
	if err != nil {
		return nil, err
	}

	a.log.Info("booking status updated",
		"booking_id", id,
		"public_id", updated.PublicID,
		"from", current.Status,
		"to", status,
		"operator", session.Email,
	)
	a.sendBookingStatusEmail(updated)
	return updated, nil
}
