package store

import (
	"slices"
	"time"

	"github.com/starford/shelf/internal/models"
)

// The functions in this file are the pure state transitions behind Store.
// Each takes the previous snapshot and returns a new one; the input is never
// modified, so callers may keep old snapshots around.

// Add appends a new item built from in with the given id and timestamp.
func Add(s models.State, in models.NewItem, id string, at time.Time) (models.State, models.MediaItem) {
	item := models.MediaItem{
		ID:         id,
		Title:      in.Title,
		Category:   in.Category,
		Status:     in.Status,
		CoverImage: in.CoverImage,
		Notes:      in.Notes,
		Mood:       in.Mood,
		Progress:   in.Progress,
		DateAdded:  at,
	}.Clone()

	next := s.Clone()
	next.Items = append(next.Items, item)
	return next, item.Clone()
}

// Update merges patch into the item with the given id. The second return value
// is false, and s is returned unchanged, when no item matches.
func Update(s models.State, id string, patch models.ItemPatch) (models.State, models.MediaItem, bool) {
	idx := indexOf(s.Items, id)
	if idx < 0 {
		return s, models.MediaItem{}, false
	}

	next := s.Clone()
	item := &next.Items[idx]
	if patch.Title.Set && patch.Title.Value != nil {
		item.Title = *patch.Title.Value
	}
	if patch.Category.Set && patch.Category.Value != nil {
		item.Category = *patch.Category.Value
	}
	if patch.Status.Set && patch.Status.Value != nil {
		item.Status = *patch.Status.Value
	}
	applyOptional(&item.CoverImage, patch.CoverImage)
	applyOptional(&item.Notes, patch.Notes)
	applyOptional(&item.Mood, patch.Mood)
	applyOptional(&item.Progress, patch.Progress)

	return next, item.Clone(), true
}

// Delete removes the item with the given id. It reports whether anything was removed.
func Delete(s models.State, id string) (models.State, bool) {
	idx := indexOf(s.Items, id)
	if idx < 0 {
		return s, false
	}
	next := s.Clone()
	next.Items = slices.Delete(next.Items, idx, idx+1)
	return next, true
}

// WithTheme sets the theme preference.
func WithTheme(s models.State, t models.Theme) models.State {
	next := s.Clone()
	next.CurrentTheme = t
	return next
}

// WithGlassIntensity sets the glass intensity preference.
func WithGlassIntensity(s models.State, g models.GlassIntensity) models.State {
	next := s.Clone()
	next.GlassIntensity = g
	return next
}

// WithAccentColor sets the accent colour preference.
func WithAccentColor(s models.State, color string) models.State {
	next := s.Clone()
	next.AccentColor = color
	return next
}

func applyOptional[T any](dst **T, f models.Field[T]) {
	if !f.Set {
		return
	}
	if f.Value == nil {
		*dst = nil
		return
	}
	v := *f.Value
	*dst = &v
}

func indexOf(items []models.MediaItem, id string) int {
	return slices.IndexFunc(items, func(it models.MediaItem) bool { return it.ID == id })
}
