package store

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/shelf/internal/models"
)

var t0 = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func seeded() models.State {
	s, _ := Add(models.NewState(), models.NewItem{
		Title:    "Dune",
		Category: models.CategoryBooks,
		Status:   models.StatusTodo,
		Notes:    models.Ptr("classic"),
		Mood:     models.Ptr("curious"),
	}, "id-1", t0)
	return s
}

func TestAddDoesNotMutateInput(t *testing.T) {
	before := models.NewState()
	after, item := Add(before, models.NewItem{Title: "X", Category: models.CategoryShows, Status: models.StatusTodo}, "id", t0)

	assert.Empty(t, before.Items)
	require.Len(t, after.Items, 1)
	assert.Equal(t, "id", item.ID)
	assert.Equal(t, t0, item.DateAdded)
	assert.Equal(t, after.Items[0], item)
}

func TestAddCopiesOptionalPointers(t *testing.T) {
	notes := "mine"
	s, item := Add(models.NewState(), models.NewItem{Title: "X", Category: models.CategoryBooks, Status: models.StatusTodo, Notes: &notes}, "id", t0)
	notes = "changed"
	assert.Equal(t, "mine", *item.Notes)
	assert.Equal(t, "mine", *s.Items[0].Notes)
}

func TestUpdateMergesOnlySuppliedFields(t *testing.T) {
	s := seeded()
	next, item, ok := Update(s, "id-1", models.ItemPatch{
		Status:   models.Val(models.StatusProgress),
		Progress: models.Val(40),
	})
	require.True(t, ok)

	want := s.Items[0].Clone()
	want.Status = models.StatusProgress
	want.Progress = models.Ptr(40)
	if diff := cmp.Diff(want, item); diff != "" {
		t.Errorf("item mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(want, next.Items[0]); diff != "" {
		t.Errorf("state item mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, models.StatusTodo, s.Items[0].Status, "input snapshot must be untouched")
}

func TestUpdateNullClearsOptional(t *testing.T) {
	next, item, ok := Update(seeded(), "id-1", models.ItemPatch{Mood: models.Null[string]()})
	require.True(t, ok)
	assert.Nil(t, item.Mood)
	assert.Nil(t, next.Items[0].Mood)
	assert.Equal(t, "classic", *item.Notes)
}

func TestUpdateNullRequiredFieldIgnored(t *testing.T) {
	_, item, ok := Update(seeded(), "id-1", models.ItemPatch{Title: models.Null[string]()})
	require.True(t, ok)
	assert.Equal(t, "Dune", item.Title)
}

func TestUpdateUnknownIDIsNoOp(t *testing.T) {
	s := seeded()
	next, _, ok := Update(s, "missing", models.ItemPatch{Title: models.Val("Other")})
	assert.False(t, ok)
	if diff := cmp.Diff(s, next); diff != "" {
		t.Errorf("state changed (-want +got):\n%s", diff)
	}
}

func TestDelete(t *testing.T) {
	s := seeded()
	next, ok := Delete(s, "id-1")
	assert.True(t, ok)
	assert.Empty(t, next.Items)
	assert.Len(t, s.Items, 1)

	again, ok := Delete(next, "id-1")
	assert.False(t, ok)
	assert.Empty(t, again.Items)
}

func TestPreferenceTransitions(t *testing.T) {
	s := WithTheme(models.NewState(), models.ThemeLight)
	s = WithGlassIntensity(s, models.GlassHigh)
	s = WithAccentColor(s, "#00ff00")

	assert.Equal(t, models.Preferences{
		CurrentTheme:   models.ThemeLight,
		GlassIntensity: models.GlassHigh,
		AccentColor:    "#00ff00",
	}, s.Preferences)
}
