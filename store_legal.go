package main

import (
	"context"
	"database/sql"
	"sort"
	"sync"
	"time"
)

var (
	legalCacheMu sync.RWMutex
	legalCache   map[string]LegalPage
)

// InitLegalPageCache preloads all legal pages from the database.
func InitLegalPageCache(ctx context.Context, db *sql.DB) error {
	rows, err := db.QueryContext(ctx, "SELECT slug, title, body_html, updated_at, updated_by FROM legal_pages")
	if err != nil {
		return err
	}
	defer rows.Close()

	newCache := make(map[string]LegalPage)
	for rows.Next() {
		var p LegalPage
		if err := rows.Scan(&p.Slug, &p.Title, &p.BodyHTML, &p.UpdatedAt, &p.UpdatedBy); err != nil {
			return err
		}
		newCache[p.Slug] = p
	}
	if err := rows.Err(); err != nil {
		return err
	}

	legalCacheMu.Lock()
	legalCache = newCache
	legalCacheMu.Unlock()

	return nil
}

func GetLegalPage(slug string) (LegalPage, bool) {
	legalCacheMu.RLock()
	defer legalCacheMu.RUnlock()

	page, ok := legalCache[slug]
	return page, ok
}

// GetAllLegalPages returns the cached pages sorted by slug, used by the admin UI.
func GetAllLegalPages() []LegalPage {
	legalCacheMu.RLock()
	defer legalCacheMu.RUnlock()

	pages := []LegalPage{}
	for _, p := range legalCache {
		pages = append(pages, p)
	}
	sort.Slice(pages, func(i, j int) bool {
		return pages[i].Slug < pages[j].Slug
	})
	return pages
}

// SaveLegalPage updates the database and immediately updates the cache on success.
func SaveLegalPage(ctx context.Context, db *sql.DB, page LegalPage) error {
	now := time.Now()
	_, err := db.ExecContext(ctx, `
		INSERT INTO legal_pages (slug, title, body_html, updated_at, updated_by)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (slug) DO UPDATE SET
			title = EXCLUDED.title,
			body_html = EXCLUDED.body_html,
			updated_at = EXCLUDED.updated_at,
			updated_by = EXCLUDED.updated_by
	`, page.Slug, page.Title, page.BodyHTML, now, page.UpdatedBy)
	if err != nil {
		return err
	}

	page.UpdatedAt = now
	legalCacheMu.Lock()
	if legalCache == nil {
		legalCache = make(map[string]LegalPage)
	}
	legalCache[page.Slug] = page
	legalCacheMu.Unlock()

	return nil
}
