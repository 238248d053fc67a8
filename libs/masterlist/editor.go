package masterlist

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

var (
	ErrEmptyLabel        = errors.New("label must not be empty")
	ErrEmptyCategory     = errors.New("category must not be empty")
	ErrDuplicateLabel    = errors.New("another row already uses this label")
	ErrDuplicateKey      = errors.New("another row already uses this key")
	ErrAlreadyEditing    = errors.New("another row is being edited")
	ErrNotEditing        = errors.New("no row is being edited")
	ErrEditingInProgress = errors.New("finish editing first")
	ErrUnknownKey        = errors.New("no row with this key")
	ErrUnknownFacet      = errors.New("unknown facet")
)

// SaveFunc persists the full collection for one facet. Implementations
// replace the facet's backing list with exactly the entries given.
type SaveFunc func(ctx context.Context, entries []Entry) error

// Query selects and orders the visible subset of the merged list.
// Empty Category/Facet mean "All". Empty SortKey sorts by label.
type Query struct {
	Search     string
	Category   string
	Facet      string
	SortKey    string
	Descending bool
}

type editState struct {
	key     string
	scratch Item
}

// Editor owns the merged list, the single-row edit state, the known category
// set, and the saved baseline used for dirty tracking. It is not safe for
// concurrent use; callers serialize access the way a UI event loop does.
type Editor struct {
	facets     []string
	items      []Item
	baseline   []Item
	categories []string
	editing    *editState
	now        func() time.Time
}

// Option configures a new Editor.
type Option func(*Editor)

// WithClock replaces the timestamp source used for placeholder and fallback
// keys. Tests inject a fake clock here.
func WithClock(now func() time.Time) Option {
	return func(e *Editor) { e.now = now }
}

// WithCategories seeds the known category set ahead of whatever the merged
// rows already reference.
func WithCategories(categories ...string) Option {
	return func(e *Editor) {
		for _, category := range categories {
			e.RegisterCategory(category)
		}
	}
}

// NewEditor merges the per-facet sources and returns an editor in the idle
// state with the merge result as its saved baseline.
func NewEditor(facets []string, sources map[string][]Entry, opts ...Option) *Editor {
	items := Merge(facets, sources)
	e := &Editor{
		facets:   append([]string(nil), facets...),
		items:    items,
		baseline: cloneItems(items),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	for _, item := range items {
		e.RegisterCategory(item.Category)
	}
	return e
}

// Facets returns the declared facet names in order.
func (e *Editor) Facets() []string {
	return append([]string(nil), e.facets...)
}

// Items returns a copy of the full merged list in its current order.
func (e *Editor) Items() []Item {
	return cloneItems(e.items)
}

// Editing reports the key of the row currently in edit mode, if any.
func (e *Editor) Editing() (string, bool) {
	if e.editing == nil {
		return "", false
	}
	return e.editing.key, true
}

// Scratch returns a copy of the in-progress edit buffer.
func (e *Editor) Scratch() (Item, bool) {
	if e.editing == nil {
		return Item{}, false
	}
	return e.editing.scratch.clone(), true
}

// Categories returns the known category set in registration order.
func (e *Editor) Categories() []string {
	return append([]string(nil), e.categories...)
}

// RegisterCategory adds a category typed in by the user to the known set for
// the rest of the session. Blank and already-known values are ignored.
func (e *Editor) RegisterCategory(category string) {
	if category == "" {
		return
	}
	for _, known := range e.categories {
		if known == category {
			return
		}
	}
	e.categories = append(e.categories, category)
}

func (e *Editor) indexOf(key string) int {
	for i := range e.items {
		if e.items[i].Key == key {
			return i
		}
	}
	return -1
}

// StartEdit moves the editor from idle into editing the given row, capturing
// a scratch copy of it. Only one row may be edited at a time.
func (e *Editor) StartEdit(key string) error {
	if e.editing != nil {
		return ErrAlreadyEditing
	}
	pos := e.indexOf(key)
	if pos < 0 {
		return ErrUnknownKey
	}
	e.editing = &editState{key: key, scratch: e.items[pos].clone()}
	return nil
}

// SetLabel mutates the scratch buffer's label. The list itself is untouched
// until Commit.
func (e *Editor) SetLabel(label string) error {
	if e.editing == nil {
		return ErrNotEditing
	}
	e.editing.scratch.Label = label
	return nil
}

// SetCategory mutates the scratch buffer's category.
func (e *Editor) SetCategory(category string) error {
	if e.editing == nil {
		return ErrNotEditing
	}
	e.editing.scratch.Category = category
	return nil
}

// SetFacet toggles one facet flag on the scratch buffer.
func (e *Editor) SetFacet(name string, on bool) error {
	if e.editing == nil {
		return ErrNotEditing
	}
	if _, ok := e.editing.scratch.Facets[name]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownFacet, name)
	}
	e.editing.scratch.Facets[name] = on
	return nil
}

// Commit validates the scratch buffer and copies it over the list entry,
// returning the editor to idle. A draft row gets its real key derived from
// the validated label here; on any validation error the editor stays in the
// editing state so the user can correct and retry.
func (e *Editor) Commit() error {
	if e.editing == nil {
		return ErrNotEditing
	}
	scratch := e.editing.scratch
	if FoldLabel(scratch.Label) == "" {
		return ErrEmptyLabel
	}
	if scratch.Category == "" {
		return ErrEmptyCategory
	}
	for i := range e.items {
		if e.items[i].Key == e.editing.key {
			continue
		}
		if FoldLabel(e.items[i].Label) == FoldLabel(scratch.Label) {
			return ErrDuplicateLabel
		}
	}

	pos := e.indexOf(e.editing.key)
	if pos < 0 {
		return ErrUnknownKey
	}

	if e.items[pos].Draft {
		derived := generateKeyAt(scratch.Label, e.now)
		for i := range e.items {
			if i != pos && e.items[i].Key == derived {
				return ErrDuplicateKey
			}
		}
		scratch.Key = derived
	}

	scratch.Draft = e.items[pos].Draft
	e.items[pos] = scratch
	e.RegisterCategory(scratch.Category)
	e.editing = nil
	return nil
}

// Cancel discards the scratch buffer. A draft row is removed from the list
// entirely; an existing row is left exactly as it was before the edit began.
func (e *Editor) Cancel() error {
	if e.editing == nil {
		return ErrNotEditing
	}
	pos := e.indexOf(e.editing.key)
	if pos >= 0 && e.items[pos].Draft {
		e.items = append(e.items[:pos], e.items[pos+1:]...)
	}
	e.editing = nil
	return nil
}

// AddRow prepends a draft row with a placeholder key, an empty label, the
// first known category and all facets off, then immediately starts editing
// it. The placeholder key is returned.
func (e *Editor) AddRow() (string, error) {
	if e.editing != nil {
		return "", ErrAlreadyEditing
	}
	key := fmt.Sprintf("new_%d", e.now().UnixNano())
	category := ""
	if len(e.categories) > 0 {
		category = e.categories[0]
	}
	item := Item{
		Key:      key,
		Category: category,
		Facets:   make(map[string]bool, len(e.facets)),
		Draft:    true,
	}
	for _, name := range e.facets {
		item.Facets[name] = false
	}
	e.items = append([]Item{item}, e.items...)
	e.editing = &editState{key: key, scratch: item.clone()}
	return key, nil
}

// DeleteRow removes a row unconditionally. Deletion is only legal while no
// row is mid-edit; confirmation dialogs are a concern of the layer above.
func (e *Editor) DeleteRow(key string) error {
	if e.editing != nil {
		return ErrEditingInProgress
	}
	pos := e.indexOf(key)
	if pos < 0 {
		return ErrUnknownKey
	}
	e.items = append(e.items[:pos], e.items[pos+1:]...)
	return nil
}

// Dirty reports whether the current list differs from the last successfully
// saved baseline.
func (e *Editor) Dirty() bool {
	return !itemsEqual(e.items, e.baseline)
}

// Visible projects the ordered, filtered subset of the list for display. The
// row currently being edited is always included so an in-progress edit can
// never be filtered out from under the user. The projection is a pure
// function of the editor state and the query.
func (e *Editor) Visible(q Query) []Item {
	editingKey := ""
	if e.editing != nil {
		editingKey = e.editing.key
	}
	search := FoldLabel(q.Search)

	visible := make([]Item, 0, len(e.items))
	for _, item := range e.items {
		if item.Key == editingKey {
			visible = append(visible, item.clone())
			continue
		}
		if search != "" && !strings.Contains(FoldLabel(item.Label), search) {
			continue
		}
		if q.Category != "" && item.Category != q.Category {
			continue
		}
		if q.Facet != "" && !item.Facets[q.Facet] {
			continue
		}
		visible = append(visible, item.clone())
	}

	e.sortVisible(visible, q)
	return visible
}

func (e *Editor) sortVisible(items []Item, q Query) {
	switch q.SortKey {
	case "", "label":
		sortItemsByLabel(items, q.Descending)
	case "category":
		collator := collate.New(language.English, collate.IgnoreCase)
		stableSort(items, func(a, b Item) int { return collator.CompareString(a.Category, b.Category) }, q.Descending)
	default:
		if !e.hasFacet(q.SortKey) {
			sortItemsByLabel(items, q.Descending)
			return
		}
		// booleans sort true before false on ascending
		stableSort(items, func(a, b Item) int {
			av, bv := a.Facets[q.SortKey], b.Facets[q.SortKey]
			if av == bv {
				return 0
			}
			if av {
				return -1
			}
			return 1
		}, q.Descending)
	}
}

func (e *Editor) hasFacet(name string) bool {
	for _, facet := range e.facets {
		if facet == name {
			return true
		}
	}
	return false
}

func stableSort(items []Item, cmp func(a, b Item) int, descending bool) {
	sort.SliceStable(items, func(i, j int) bool {
		c := cmp(items[i], items[j])
		if descending {
			return c > 0
		}
		return c < 0
	})
}

// Partition projects the facet-true subset of the current list as persisted
// entries, preserving list order. Draft state and facet flags are not part of
// the projection.
func (e *Editor) Partition(facet string) ([]Entry, error) {
	if !e.hasFacet(facet) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownFacet, facet)
	}
	entries := make([]Entry, 0)
	for _, item := range e.items {
		if item.Facets[facet] {
			entries = append(entries, Entry{Key: item.Key, Label: item.Label, Category: item.Category})
		}
	}
	return entries, nil
}

// Save partitions the list per declared facet and issues every facet's
// SaveFunc concurrently. The save succeeds only if all facets succeed; the
// first failure is returned and the baseline is left untouched so unsaved
// changes remain visible and the user can retry. Partial persistence on the
// far side is not rolled back.
func (e *Editor) Save(ctx context.Context, savers map[string]SaveFunc) error {
	if e.editing != nil {
		return ErrEditingInProgress
	}

	group := new(errgroup.Group)
	for _, facet := range e.facets {
		saver, ok := savers[facet]
		if !ok {
			return fmt.Errorf("no saver for facet %q", facet)
		}
		entries, err := e.Partition(facet)
		if err != nil {
			return err
		}
		group.Go(func() error {
			return saver(ctx, entries)
		})
	}
	if err := group.Wait(); err != nil {
		return err
	}

	for i := range e.items {
		e.items[i].Draft = false
	}
	e.baseline = cloneItems(e.items)
	return nil
}
