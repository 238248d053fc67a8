package masterlist

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var amenityFacets = []string{"shared", "private"}

func amenitySources() map[string][]Entry {
	return map[string][]Entry{
		"shared": {
			{Key: "wifi", Label: "WiFi", Category: "Tech"},
			{Key: "sauna", Label: "Sauna", Category: "Wellness"},
			{Key: "gym", Label: "Gym", Category: "Wellness"},
		},
		"private": {
			{Key: "wifi", Label: "WiFi", Category: "Tech"},
			{Key: "parking", Label: "Parking", Category: "Access"},
			{Key: "terrace", Label: "Terrace", Category: "Access"},
		},
	}
}

func newTestEditor(t *testing.T) *Editor {
	t.Helper()
	return NewEditor(amenityFacets, amenitySources(), WithClock(fakeClock(5000)))
}

func TestStartEditIsExclusive(t *testing.T) {
	editor := newTestEditor(t)

	require.NoError(t, editor.StartEdit("wifi"))
	assert.ErrorIs(t, editor.StartEdit("sauna"), ErrAlreadyEditing)

	key, editing := editor.Editing()
	assert.True(t, editing)
	assert.Equal(t, "wifi", key)
}

func TestCancelLeavesExistingRowUntouched(t *testing.T) {
	editor := newTestEditor(t)
	before := editor.Items()

	require.NoError(t, editor.StartEdit("parking"))
	require.NoError(t, editor.SetLabel("Garage"))
	require.NoError(t, editor.SetCategory("Logistics"))
	require.NoError(t, editor.SetFacet("shared", true))
	require.NoError(t, editor.Cancel())

	assert.True(t, itemsEqual(before, editor.Items()), "cancel must leave the list field-for-field identical")
	assert.False(t, editor.Dirty())
}

func TestAddRowThenCancelRemovesRow(t *testing.T) {
	editor := newTestEditor(t)
	before := editor.Items()

	key, err := editor.AddRow()
	require.NoError(t, err)
	assert.Contains(t, key, "new_")
	assert.Len(t, editor.Items(), len(before)+1)

	require.NoError(t, editor.Cancel())
	assert.True(t, itemsEqual(before, editor.Items()))
}

func TestCommitValidatesScratch(t *testing.T) {
	editor := newTestEditor(t)

	require.NoError(t, editor.StartEdit("parking"))
	require.NoError(t, editor.SetLabel("   "))
	assert.ErrorIs(t, editor.Commit(), ErrEmptyLabel)

	// editor stays in editing state so the user can correct and retry
	_, editing := editor.Editing()
	assert.True(t, editing)

	require.NoError(t, editor.SetLabel("Parking"))
	require.NoError(t, editor.SetCategory(""))
	assert.ErrorIs(t, editor.Commit(), ErrEmptyCategory)

	require.NoError(t, editor.SetCategory("Access"))
	require.NoError(t, editor.SetLabel("wifi"))
	assert.ErrorIs(t, editor.Commit(), ErrDuplicateLabel, "duplicate detection is case-insensitive")

	require.NoError(t, editor.SetLabel("Parking"))
	require.NoError(t, editor.Commit())
}

func TestCommitRekeysDraftRowFromLabel(t *testing.T) {
	editor := newTestEditor(t)

	placeholder, err := editor.AddRow()
	require.NoError(t, err)
	require.NoError(t, editor.SetLabel("Beauty & Wellbeing"))
	require.NoError(t, editor.SetCategory("Wellness"))
	require.NoError(t, editor.Commit())

	items := editor.Items()
	var found *Item
	for i := range items {
		assert.NotEqual(t, placeholder, items[i].Key, "placeholder key must be replaced on commit")
		if items[i].Label == "Beauty & Wellbeing" {
			found = &items[i]
		}
	}
	require.NotNil(t, found)
	assert.Equal(t, "beauty__wellbeing", found.Key)
	assert.True(t, found.Draft, "row stays a draft until a successful save")
}

func TestDeleteRowRejectedWhileEditing(t *testing.T) {
	editor := newTestEditor(t)

	require.NoError(t, editor.StartEdit("wifi"))
	assert.ErrorIs(t, editor.DeleteRow("sauna"), ErrEditingInProgress)
	require.NoError(t, editor.Cancel())

	require.NoError(t, editor.DeleteRow("sauna"))
	assert.ErrorIs(t, editor.DeleteRow("sauna"), ErrUnknownKey)
}

func TestKeysStayUniqueAcrossOperations(t *testing.T) {
	editor := newTestEditor(t)

	_, err := editor.AddRow()
	require.NoError(t, err)
	require.NoError(t, editor.SetLabel("Pool"))
	require.NoError(t, editor.SetCategory("Wellness"))
	require.NoError(t, editor.Commit())

	require.NoError(t, editor.DeleteRow("gym"))

	_, err = editor.AddRow()
	require.NoError(t, err)
	require.NoError(t, editor.SetLabel("Gym"))
	require.NoError(t, editor.SetCategory("Wellness"))
	require.NoError(t, editor.Commit())

	seen := map[string]bool{}
	for _, item := range editor.Items() {
		assert.False(t, seen[item.Key], "duplicate key %s", item.Key)
		seen[item.Key] = true
	}
}

func TestVisibleComposesCategoryFilterAndSearch(t *testing.T) {
	editor := NewEditor([]string{"shared"}, map[string][]Entry{
		"shared": {
			{Key: "wifi", Label: "WiFi", Category: "Tech"},
			{Key: "smart_tv", Label: "Smart TV", Category: "Tech"},
			{Key: "soundbar", Label: "Soundbar", Category: "Tech"},
			{Key: "parking", Label: "Parking", Category: "Access"},
			{Key: "terrace", Label: "Terrace", Category: "Access"},
		},
	}, WithClock(fakeClock(9000)))

	for _, sortKey := range []string{"", "label", "category", "shared"} {
		visible := editor.Visible(Query{Search: "smart", Category: "Tech", SortKey: sortKey})
		require.Len(t, visible, 1, "sort key %q", sortKey)
		assert.Equal(t, "smart_tv", visible[0].Key)
	}
}

func TestVisibleAlwaysIncludesEditingRow(t *testing.T) {
	editor := newTestEditor(t)
	require.NoError(t, editor.StartEdit("parking"))

	visible := editor.Visible(Query{Category: "Tech"})

	keys := make([]string, 0, len(visible))
	for _, item := range visible {
		keys = append(keys, item.Key)
	}
	assert.Contains(t, keys, "parking", "in-progress edits are never hidden")
	assert.Contains(t, keys, "wifi")
	assert.NotContains(t, keys, "sauna")
}

func TestVisibleFacetFilterAndBoolSort(t *testing.T) {
	editor := newTestEditor(t)

	sharedOnly := editor.Visible(Query{Facet: "shared"})
	for _, item := range sharedOnly {
		assert.True(t, item.Facets["shared"])
	}

	sorted := editor.Visible(Query{SortKey: "private"})
	require.NotEmpty(t, sorted)
	assert.True(t, sorted[0].Facets["private"], "true sorts before false ascending")
	assert.False(t, sorted[len(sorted)-1].Facets["private"])
}

func TestSavePartitionsPerFacet(t *testing.T) {
	editor := NewEditor(amenityFacets, map[string][]Entry{
		"shared": {
			{Key: "only_shared", Label: "Only Shared", Category: "Tech"},
			{Key: "both", Label: "Both", Category: "Tech"},
		},
		"private": {
			{Key: "only_private", Label: "Only Private", Category: "Tech"},
			{Key: "both", Label: "Both", Category: "Tech"},
		},
	}, WithClock(fakeClock(7000)))

	// a row with neither facet set appears in no partition
	require.NoError(t, editor.StartEdit("only_shared"))
	require.NoError(t, editor.SetFacet("shared", false))
	require.NoError(t, editor.Commit())

	var mu sync.Mutex
	captured := map[string][]Entry{}
	savers := map[string]SaveFunc{}
	for _, facet := range amenityFacets {
		savers[facet] = func(facet string) SaveFunc {
			return func(ctx context.Context, entries []Entry) error {
				mu.Lock()
				defer mu.Unlock()
				captured[facet] = entries
				return nil
			}
		}(facet)
	}

	require.NoError(t, editor.Save(context.Background(), savers))

	sharedKeys := entryKeys(captured["shared"])
	privateKeys := entryKeys(captured["private"])
	assert.ElementsMatch(t, []string{"both"}, sharedKeys)
	assert.ElementsMatch(t, []string{"both", "only_private"}, privateKeys)
}

func TestSaveRejectedWhileEditing(t *testing.T) {
	editor := newTestEditor(t)
	require.NoError(t, editor.StartEdit("wifi"))

	err := editor.Save(context.Background(), map[string]SaveFunc{
		"shared":  func(ctx context.Context, entries []Entry) error { return nil },
		"private": func(ctx context.Context, entries []Entry) error { return nil },
	})
	assert.ErrorIs(t, err, ErrEditingInProgress)
}

func TestSaveFailureKeepsBaselineDirty(t *testing.T) {
	editor := newTestEditor(t)

	require.NoError(t, editor.StartEdit("parking"))
	require.NoError(t, editor.SetCategory("Logistics"))
	require.NoError(t, editor.Commit())
	require.True(t, editor.Dirty())

	boom := errors.New("facet write failed")
	err := editor.Save(context.Background(), map[string]SaveFunc{
		"shared":  func(ctx context.Context, entries []Entry) error { return nil },
		"private": func(ctx context.Context, entries []Entry) error { return boom },
	})

	assert.ErrorIs(t, err, boom)
	assert.True(t, editor.Dirty(), "baseline must not advance on partial failure")

	// retry with everything succeeding clears the dirty flag
	require.NoError(t, editor.Save(context.Background(), map[string]SaveFunc{
		"shared":  func(ctx context.Context, entries []Entry) error { return nil },
		"private": func(ctx context.Context, entries []Entry) error { return nil },
	}))
	assert.False(t, editor.Dirty())
}

func TestEndToEndEditAndSaveScenario(t *testing.T) {
	editor := NewEditor(amenityFacets, map[string][]Entry{
		"shared": {{Key: "wifi", Label: "WiFi", Category: "Tech"}},
		"private": {
			{Key: "wifi", Label: "WiFi", Category: "Tech"},
			{Key: "parking", Label: "Parking", Category: "Access"},
		},
	}, WithClock(fakeClock(8000)))

	items := editor.Items()
	require.Len(t, items, 2)
	assert.Equal(t, "parking", items[0].Key)
	assert.False(t, items[0].Facets["shared"])
	assert.True(t, items[0].Facets["private"])
	assert.Equal(t, "wifi", items[1].Key)
	assert.True(t, items[1].Facets["shared"])
	assert.True(t, items[1].Facets["private"])

	require.NoError(t, editor.StartEdit("parking"))
	require.NoError(t, editor.SetCategory("Logistics"))
	require.NoError(t, editor.Commit())

	items = editor.Items()
	assert.Equal(t, "Logistics", items[0].Category)
	assert.Equal(t, "Tech", items[1].Category, "wifi unchanged")

	var mu sync.Mutex
	captured := map[string][]Entry{}
	require.NoError(t, editor.Save(context.Background(), map[string]SaveFunc{
		"shared": func(ctx context.Context, entries []Entry) error {
			mu.Lock()
			defer mu.Unlock()
			captured["shared"] = entries
			return nil
		},
		"private": func(ctx context.Context, entries []Entry) error {
			mu.Lock()
			defer mu.Unlock()
			captured["private"] = entries
			return nil
		},
	}))

	require.Len(t, captured["shared"], 1)
	assert.Equal(t, "wifi", captured["shared"][0].Key)

	require.Len(t, captured["private"], 2)
	assert.ElementsMatch(t, []string{"wifi", "parking"}, entryKeys(captured["private"]))
	for _, entry := range captured["private"] {
		if entry.Key == "parking" {
			assert.Equal(t, "Logistics", entry.Category)
		}
	}
	assert.False(t, editor.Dirty())
}

func entryKeys(entries []Entry) []string {
	keys := make([]string, 0, len(entries))
	for _, entry := range entries {
		keys = append(keys, entry.Key)
	}
	return keys
}
