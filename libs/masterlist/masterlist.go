// Package masterlist implements the unified taxonomy editor used by the
// admin back-office: several per-facet source lists (e.g. shared vs private
// amenities) are merged into one deduplicated row-per-key view, edited one
// row at a time, and written back as independent per-facet collections.
package masterlist

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// Entry is the persisted shape of a taxonomy row within a single facet.
type Entry struct {
	Key      string `json:"key"`
	Label    string `json:"label"`
	Category string `json:"category"`
}

// Item is one row of the merged view. Facets holds one flag per declared
// facet name. Draft marks a row added in the current editing session that has
// not survived a successful save yet; it is never persisted.
type Item struct {
	Key      string
	Label    string
	Category string
	Facets   map[string]bool
	Draft    bool
}

func (i Item) clone() Item {
	facets := make(map[string]bool, len(i.Facets))
	for name, on := range i.Facets {
		facets[name] = on
	}
	i.Facets = facets
	return i
}

func cloneItems(items []Item) []Item {
	out := make([]Item, len(items))
	for idx, item := range items {
		out[idx] = item.clone()
	}
	return out
}

func itemsEqual(a, b []Item) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Key != b[i].Key || a[i].Label != b[i].Label || a[i].Category != b[i].Category || a[i].Draft != b[i].Draft {
			return false
		}
		if len(a[i].Facets) != len(b[i].Facets) {
			return false
		}
		for name, on := range a[i].Facets {
			if b[i].Facets[name] != on {
				return false
			}
		}
	}
	return true
}

var (
	whitespaceRuns = regexp.MustCompile(`\s+`)
	keyStripChars  = regexp.MustCompile(`[^a-z0-9_-]`)
)

// FoldLabel is the single case-folding used for both key derivation and
// duplicate-label detection, so the two can never drift apart. Callers that
// validate labels before persisting entries use it too.
func FoldLabel(label string) string {
	return strings.ToLower(strings.TrimSpace(label))
}

// GenerateKey derives a stable, URL-safe key from a free-text label:
// lowercased, whitespace runs collapsed to a single underscore, every other
// character outside [a-z0-9_-] stripped. An all-symbolic label falls back to
// a timestamped synthetic key so the result is never empty.
func GenerateKey(label string) string {
	return generateKeyAt(label, time.Now)
}

func generateKeyAt(label string, now func() time.Time) string {
	key := whitespaceRuns.ReplaceAllString(FoldLabel(label), "_")
	key = keyStripChars.ReplaceAllString(key, "")
	if key == "" {
		return fmt.Sprintf("item_%d", now().UnixNano())
	}
	return key
}

// Merge combines the per-facet source lists into one deduplicated list. The
// declared facet order decides which source wins label and category when the
// same key appears in more than one facet; later facets only turn their flag
// on. The result is sorted by label with locale-aware collation.
func Merge(facets []string, sources map[string][]Entry) []Item {
	index := make(map[string]int)
	items := make([]Item, 0)

	for _, facet := range facets {
		for _, entry := range sources[facet] {
			if pos, ok := index[entry.Key]; ok {
				items[pos].Facets[facet] = true
				continue
			}
			item := Item{
				Key:      entry.Key,
				Label:    entry.Label,
				Category: entry.Category,
				Facets:   make(map[string]bool, len(facets)),
			}
			for _, name := range facets {
				item.Facets[name] = false
			}
			item.Facets[facet] = true
			index[entry.Key] = len(items)
			items = append(items, item)
		}
	}

	sortItemsByLabel(items, false)
	return items
}

func sortItemsByLabel(items []Item, descending bool) {
	collator := collate.New(language.English, collate.IgnoreCase)
	sort.SliceStable(items, func(i, j int) bool {
		cmp := collator.CompareString(items[i].Label, items[j].Label)
		if descending {
			return cmp > 0
		}
		return cmp < 0
	})
}
