package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

const heroSelectColumns = `id, title, alt_text, storage_path, mime_type, size_bytes, sort_order, is_active, created_at, updated_at`

var imageExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/webp": ".webp",
	"image/png":  ".png",
}

func scanHeroImage(scan func(dest ...any) error) (HeroImage, error) {
	var h HeroImage
	var createdAt, updatedAt time.Time
	if err := scan(&h.ID, &h.Title, &h.AltText, &h.StoragePath, &h.MimeType, &h.SizeBytes, &h.SortOrder, &h.IsActive, &createdAt, &updatedAt); err != nil {
		return HeroImage{}, err
	}
	h.CreatedAt = createdAt.UTC().Format(time.RFC3339)
	h.UpdatedAt = updatedAt.UTC().Format(time.RFC3339)
	return h, nil
}

func (a *App) storeListHeroImages(ctx context.Context, activeOnly bool) ([]HeroImage, error) {
	query := `SELECT ` + heroSelectColumns + ` FROM hero_images`
	if activeOnly {
		query += ` WHERE is_active = TRUE`
	}
	query += ` ORDER BY sort_order, created_at`

	rows, err := a.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	images := []HeroImage{}
	for rows.Next() {
		h, err := scanHeroImage(rows.Scan)
		if err != nil {
			return nil, err
		}
		images = append(images, h)
	}
	return images, rows.Err()
}

func (a *App) storeGetHeroImage(ctx context.Context, id string) (*HeroImage, error) {
	row := a.db.QueryRowContext(ctx, `SELECT `+heroSelectColumns+` FROM hero_images WHERE id = $1`, id)
	h, err := scanHeroImage(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &apiError{Status: http.StatusNotFound, Code: "not_found", Message: "Hero image not found"}
	}
	if err != nil {
		return nil, err
	}
	return &h, nil
}

// storeCreateHeroImage writes the upload under DATA_ROOT and inserts the row.
// New images go to the end of the carousel.
func (a *App) storeCreateHeroImage(ctx context.Context, title, altText, mimeType string, body io.Reader) (*HeroImage, error) {
	ext, ok := imageExtensions[mimeType]
	if !ok {
		return nil, &apiError{Status: http.StatusUnsupportedMediaType, Code: "unsupported_type", Message: "Only JPEG, WebP and PNG images are accepted"}
	}

	id := uuid.NewString()
	relPath := filepath.Join("uploads", "hero", id+ext)
	absPath := filepath.Join(a.cfg.DataRoot, relPath)

	file, err := os.Create(absPath)
	if err != nil {
		return nil, err
	}
	written, err := io.Copy(file, io.LimitReader(body, maxUploadBytes+1))
	if closeErr := file.Close(); err == nil {
		err = closeErr
	}
	if err == nil && written > maxUploadBytes {
		err = &apiError{Status: http.StatusRequestEntityTooLarge, Code: "too_large", Message: fmt.Sprintf("Images are limited to %d bytes", maxUploadBytes)}
	}
	if err != nil {
		_ = os.Remove(absPath)
		return nil, err
	}

	row := a.db.QueryRowContext(ctx, `
		INSERT INTO hero_images (id, title, alt_text, storage_path, mime_type, size_bytes, sort_order)
		VALUES ($1, $2, $3, $4, $5, $6, COALESCE((SELECT MAX(sort_order) + 1 FROM hero_images), 0))
		RETURNING `+heroSelectColumns+`
	`, id, title, altText, relPath, mimeType, written)

	h, err := scanHeroImage(row.Scan)
	if err != nil {
		_ = os.Remove(absPath)
		return nil, err
	}
	return &h, nil
}

func (a *App) storeUpdateHeroImage(ctx context.Context, id, title, altText string, isActive bool) (*HeroImage, error) {
	row := a.db.QueryRowContext(ctx, `
		UPDATE hero_images
		SET title = $2, alt_text = $3, is_active = $4, updated_at = NOW()
		WHERE id = $1
		RETURNING `+heroSelectColumns+`
	`, id, title, altText, isActive)

	h, err := scanHeroImage(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &apiError{Status: http.StatusNotFound, Code: "not_found", Message: "Hero image not found"}
	}
	if err != nil {
		return nil, err
	}
	return &h, nil
}

func (a *App) storeDeleteHeroImage(ctx context.Context, id string) error {
	var storagePath string
	err := a.db.QueryRowContext(ctx, `DELETE FROM hero_images WHERE id = $1 RETURNING storage_path`, id).Scan(&storagePath)
	if errors.Is(err, sql.ErrNoRows) {
		return &apiError{Status: http.StatusNotFound, Code: "not_found", Message: "Hero image not found"}
	}
	if err != nil {
		return err
	}

	if removeErr := os.Remove(filepath.Join(a.cfg.DataRoot, storagePath)); removeErr != nil && !errors.Is(removeErr, os.ErrNotExist) {
		a.log.Warn("orphaned hero image file", "path", storagePath, "err", removeErr)
	}
	return nil
}

// storeReorderHeroImages rewrites sort_order from the given ID sequence. The
// sequence must name every image exactly once.
func (a *App) storeReorderHeroImages(ctx context.Context, ids []string) error {
	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var total int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM hero_images`).Scan(&total); err != nil {
		return err
	}
	if total != len(ids) {
		return &apiError{Status: http.StatusUnprocessableEntity, Code: "incomplete_order", Message: fmt.Sprintf("Expected %d image IDs, got %d", total, len(ids))}
	}

	seen := make(map[string]struct{}, len(ids))
	for position, id := range ids {
		if _, dup := seen[id]; dup {
			return &apiError{Status: http.StatusUnprocessableEntity, Code: "duplicate_id", Message: fmt.Sprintf("Image %s listed twice", id)}
		}
		seen[id] = struct{}{}

		result, err := tx.ExecContext(ctx, `UPDATE hero_images SET sort_order = $2, updated_at = NOW() WHERE id = $1`, id, position)
		if err != nil {
			return err
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return err
		}
		if affected == 0 {
			return &apiError{Status: http.StatusUnprocessableEntity, Code: "unknown_id", Message: fmt.Sprintf("Unknown image %s", id)}
		}
	}
	return tx.Commit()
}
