package main

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/csv"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"

	"stayport/libs/mailer"
)

// generateExportBatch builds the CSV and PDF booking report for a period,
// stores the artifacts under DATA_ROOT/exports and records the batch.
func (a *App) generateExportBatch(ctx context.Context, input map[string]any, session OperatorSession) (*ExportBatch, error) {
	periodType, _ := input["period_type"].(string)
	if periodType == "" {
		periodType = "weekly"
	}
	if periodType != "weekly" && periodType != "monthly" && periodType != "all" {
		return nil, &apiError{Status: http.StatusBadRequest, Code: "invalid_period", Message: "Invalid period type"}
	}

	var requestedStart *string
	if value, ok := input["period_start"].(string); ok && strings.TrimSpace(value) != "" {
		trimmed := strings.TrimSpace(value)
		requestedStart = &trimmed
	}
	var requestedEnd *string
	if value, ok := input["period_end"].(string); ok && strings.TrimSpace(value) != "" {
		trimmed := strings.TrimSpace(value)
		requestedEnd = &trimmed
	}

	periodStart, periodEnd := getBookingWindow(periodType, requestedStart, requestedEnd)

	status, _ := input["status"].(string)
	if status != "" && !containsString(bookingStatuses, status) {
		return nil, &apiError{Status: http.StatusBadRequest, Code: "invalid_status", Message: fmt.Sprintf("Unknown status %q", status)}
	}

	filters := map[string]any{"from": periodStart, "to": periodEnd}
	if status != "" {
		filters["status"] = status
	}

	// One oversized page; exports are bounded by the booking volume of a
	// single period.
	page, err := a.storeListBookingsPaginated(ctx, filters, 1, 100000)
	if err != nil {
		return nil, err
	}
	bookings := page.Bookings

	titleParts := []string{"Stayport Booking Export"}
	if status != "" {
		titleParts = append(titleParts, fmt.Sprintf("Status: %s", status))
	}
	title := strings.Join(titleParts, " - ")

	artifacts, err := buildExportArtifacts(bookings, periodStart, periodEnd, title)
	if err != nil {
		return nil, err
	}

	var filterStatus sql.NullString
	if status != "" {
		filterStatus = sql.NullString{String: status, Valid: true}
	}

	var exportID int
	if err := a.db.QueryRowContext(ctx, `
		INSERT INTO export_batches (period_type, period_start, period_end, generated_by, row_count, filter_status, csv_path, pdf_path)
		VALUES ($1, $2, $3, $4, $5, $6, '', '')
		RETURNING id
	`, periodType, periodStart, periodEnd, session.Email, len(bookings), filterStatus).Scan(&exportID); err != nil {
		return nil, err
	}

	exportDir := filepath.Join(a.cfg.DataRoot, "exports", strconv.Itoa(exportID))
	if err := os.MkdirAll(exportDir, 0o755); err != nil {
		return nil, err
	}

	baseName := fmt.Sprintf("stayport-%s-%s", periodType, sanitizeFileNamePart(periodStart))
	csvFile := filepath.Join(exportDir, baseName+".csv")
	pdfFile := filepath.Join(exportDir, baseName+".pdf")

	if err := os.WriteFile(csvFile, []byte(artifacts.CSV), 0o644); err != nil {
		return nil, err
	}
	if err := os.WriteFile(pdfFile, artifacts.PDF, 0o644); err != nil {
		return nil, err
	}

	relCSV, _ := filepath.Rel(a.cfg.DataRoot, csvFile)
	relPDF, _ := filepath.Rel(a.cfg.DataRoot, pdfFile)

	if _, err := a.db.ExecContext(ctx, `
		UPDATE export_batches SET csv_path = $1, pdf_path = $2 WHERE id = $3
	`, relCSV, relPDF, exportID); err != nil {
		return nil, err
	}

	a.metrics.exportsTotal.WithLabelValues(periodType).Inc()
	a.notifyExportGenerated(exportID, periodType, periodStart, periodEnd, len(bookings))

	return &ExportBatch{
		ID:          exportID,
		PeriodType:  periodType,
		PeriodStart: periodStart,
		PeriodEnd:   periodEnd,
		GeneratedAt: time.Now().UTC().Format(time.RFC3339),
		GeneratedBy: session.Email,
		RowCount:    len(bookings),
		FilterStatus: func() *string {
			if status == "" {
				return nil
			}
			return &status
		}(),
		Artifacts: ExportArtifacts{CSV: "", PDF: []byte{}},
	}, nil
}

func (a *App) notifyExportGenerated(exportID int, periodType, periodStart, periodEnd string, rowCount int) {
	downloadURL := buildPublicURL(a.cfg.PublicBaseURL, fmt.Sprintf("/api/v1/admin/exports/%d/download", exportID))
	_, err := a.mailer.Send(mailer.Message{
		To:      []string{a.cfg.ExportEmailTo},
		Subject: fmt.Sprintf("[Stayport] %s booking export generated", periodType),
		Text: fmt.Sprintf("Export %d covers %s to %s and contains %d bookings.\nDownload: %s",
			exportID, periodStart, periodEnd, rowCount, downloadURL),
	})
	if err != nil {
		a.log.Error("export notification failed", "export_id", exportID, "err", err)
	}
}

func buildPublicURL(baseURL, path string) string {
	if strings.HasPrefix(path, "/") {
		return strings.TrimRight(baseURL, "/") + path
	}
	return strings.TrimRight(baseURL, "/") + "/" + path
}

// getBookingWindow resolves a period type to an explicit check-in window.
// Weekly and monthly cover the previous full week or month.
func getBookingWindow(periodType string, requestedStart, requestedEnd *string) (string, string) {
	if requestedStart != nil && requestedEnd != nil {
		return *requestedStart, *requestedEnd
	}

	now := time.Now().UTC()

	if periodType == "all" {
		return "2020-01-01", now.Format(stayDateLayout)
	}

	if periodType == "weekly" {
		previousWeek := now.AddDate(0, 0, -7)
		start := startOfWeek(previousWeek)
		end := start.AddDate(0, 0, 6)
		return start.Format(stayDateLayout), end.Format(stayDateLayout)
	}

	previousMonth := now.AddDate(0, -1, 0)
	start := time.Date(previousMonth.Year(), previousMonth.Month(), 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0).AddDate(0, 0, -1)
	return start.Format(stayDateLayout), end.Format(stayDateLayout)
}

func startOfWeek(value time.Time) time.Time {
	weekday := int(value.Weekday())
	if weekday == 0 {
		weekday = 7
	}
	start := value.AddDate(0, 0, -(weekday - 1))
	return time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, value.Location())
}

func sanitizeFileNamePart(value string) string {
	value = strings.ReplaceAll(value, ":", "-")
	value = strings.ReplaceAll(value, ".", "-")
	return value
}

func buildExportArtifacts(bookings []Booking, periodStart, periodEnd, title string) (ExportArtifacts, error) {
	sorted := append([]Booking{}, bookings...)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].CheckIn != sorted[j].CheckIn {
			return sorted[i].CheckIn < sorted[j].CheckIn
		}
		return sorted[i].ID < sorted[j].ID
	})

	csvData, err := buildBookingCSV(sorted)
	if err != nil {
		return ExportArtifacts{}, err
	}
	pdfData, err := buildBookingPDF(sorted, periodStart, periodEnd, title)
	if err != nil {
		return ExportArtifacts{}, err
	}
	return ExportArtifacts{CSV: csvData, PDF: pdfData}, nil
}

func buildBookingCSV(bookings []Booking) (string, error) {
	buffer := bytes.NewBuffer(nil)
	writer := csv.NewWriter(buffer)
	headers := []string{"booking_id", "public_id", "listing", "unit", "guest_name", "guest_email", "check_in", "check_out", "nights", "guests", "quote_total_cents", "status", "created_at"}
	if err := writer.Write(headers); err != nil {
		return "", err
	}
	for _, b := range bookings {
		row := []string{
			strconv.Itoa(b.ID),
			b.PublicID,
			b.ListingName,
			b.UnitName,
			b.GuestName,
			b.GuestEmail,
			b.CheckIn,
			b.CheckOut,
			strconv.Itoa(b.Nights),
			strconv.Itoa(b.Guests),
			strconv.Itoa(b.QuoteTotalCents),
			b.Status,
			b.CreatedAt,
		}
		if err := writer.Write(row); err != nil {
			return "", err
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return "", err
	}
	return buffer.String(), nil
}

func buildBookingPDF(bookings []Booking, periodStart, periodEnd, title string) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Helvetica", "", 16)
	pdf.Cell(0, 10, title)

	pdf.Ln(12)

	totalRevenueCents := 0
	totalNights := 0
	statusCounts := map[string]int{}
	listingCounts := map[string]int{}
	for _, b := range bookings {
		statusCounts[b.Status]++
		listingCounts[b.ListingName]++
		if b.Status == "confirmed" || b.Status == "completed" {
			totalRevenueCents += b.QuoteTotalCents
			totalNights += b.Nights
		}
	}

	pdf.SetFont("Helvetica", "", 11)
	pdf.Cell(0, 8, fmt.Sprintf("Period: %s - %s", periodStart, periodEnd))
	pdf.Ln(7)
	pdf.Cell(0, 8, fmt.Sprintf("Total bookings: %d", len(bookings)))
	pdf.Ln(7)
	pdf.Cell(0, 8, fmt.Sprintf("Confirmed revenue: EUR %.2f over %d nights", float64(totalRevenueCents)/100, totalNights))
	pdf.Ln(10)

	pdf.SetFont("Helvetica", "B", 11)
	pdf.Cell(0, 8, "Status distribution")
	pdf.Ln(8)
	pdf.SetFont("Helvetica", "", 10)
	statusKeys := make([]string, 0, len(statusCounts))
	for key := range statusCounts {
		statusKeys = append(statusKeys, key)
	}
	sort.Slice(statusKeys, func(i, j int) bool { return statusCounts[statusKeys[i]] > statusCounts[statusKeys[j]] })
	for _, key := range statusKeys {
		pdf.Cell(0, 6, fmt.Sprintf("- %s: %d", key, statusCounts[key]))
		pdf.Ln(6)
	}

	pdf.Ln(4)
	pdf.SetFont("Helvetica", "B", 11)
	pdf.Cell(0, 8, "Top listings")
	pdf.Ln(8)
	pdf.SetFont("Helvetica", "", 10)
	type listingCount struct {
		Name  string
		Count int
	}
	listings := make([]listingCount, 0, len(listingCounts))
	for name, count := range listingCounts {
		listings = append(listings, listingCount{Name: name, Count: count})
	}
	sort.Slice(listings, func(i, j int) bool { return listings[i].Count > listings[j].Count })
	limit := len(listings)
	if limit > 10 {
		limit = 10
	}
	for i := 0; i < limit; i++ {
		pdf.Cell(0, 6, fmt.Sprintf("- %s: %d", listings[i].Name, listings[i].Count))
		pdf.Ln(6)
	}

	buffer := bytes.NewBuffer(nil)
	if err := pdf.Output(buffer); err != nil {
		return nil, err
	}
	return buffer.Bytes(), nil
}

func (a *App) storeListExportBatches(ctx context.Context) ([]ExportBatch, error) {
	rows, err := a.db.QueryContext(ctx, `
		SELECT id, period_type, period_start, period_end, generated_at, generated_by, row_count, filter_status
		FROM export_batches
		ORDER BY generated_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	batches := []ExportBatch{}
	for rows.Next() {
		var batch ExportBatch
		var periodStart, periodEnd, generatedAt time.Time
		var filterStatus sql.NullString
		if err := rows.Scan(&batch.ID, &batch.PeriodType, &periodStart, &periodEnd, &generatedAt, &batch.GeneratedBy, &batch.RowCount, &filterStatus); err != nil {
			return nil, err
		}
		if filterStatus.Valid {
			batch.FilterStatus = &filterStatus.String
		}
		batch.PeriodStart = periodStart.UTC().Format(time.RFC3339)
		batch.PeriodEnd = periodEnd.UTC().Format(time.RFC3339)
		batch.GeneratedAt = generatedAt.UTC().Format(time.RFC3339)
		batch.Artifacts = ExportArtifacts{CSV: "", PDF: []byte{}}
		batches = append(batches, batch)
	}
	return batches, rows.Err()
}

func (a *App) getExportAsset(ctx context.Context, exportID int, format string) (string, []byte, string, error) {
	var periodType string
	var periodStart time.Time
	var csvPath, pdfPath sql.NullString
	err := a.db.QueryRowContext(ctx, `
		SELECT period_type, period_start, csv_path, pdf_path
		FROM export_batches
		WHERE id = $1
	`, exportID).Scan(&periodType, &periodStart, &csvPath, &pdfPath)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil, "", &apiError{Status: http.StatusNotFound, Code: "export_not_found", Message: "Export batch not found"}
	}
	if err != nil {
		return "", nil, "", err
	}

	base := fmt.Sprintf("stayport-%s-%s", periodType, sanitizeFileNamePart(periodStart.UTC().Format(stayDateLayout)))
	var selectedPath string
	switch format {
	case "pdf":
		if !pdfPath.Valid || pdfPath.String == "" {
			return "", nil, "", &apiError{Status: http.StatusNotFound, Code: "export_not_found", Message: "PDF artifact not found"}
		}
		selectedPath = pdfPath.String
	default:
		if !csvPath.Valid || csvPath.String == "" {
			return "", nil, "", &apiError{Status: http.StatusNotFound, Code: "export_not_found", Message: "CSV artifact not found"}
		}
		selectedPath = csvPath.String
	}

	body, err := os.ReadFile(filepath.Join(a.cfg.DataRoot, selectedPath))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", nil, "", &apiError{Status: http.StatusNotFound, Code: "export_not_found", Message: "Export artifact not found"}
		}
		return "", nil, "", err
	}

	if format == "pdf" {
		return "application/pdf", body, base + ".pdf", nil
	}
	return "text/csv; charset=utf-8", body, base + ".csv", nil
}
