// Package models defines the domain types for shelf.
package models

import (
	"encoding/json"
	"time"
)

// Category classifies a MediaItem and selects a search provider.
type Category string

const (
	CategoryBooks    Category = "books"
	CategoryShows    Category = "shows"
	CategoryPodcasts Category = "podcasts"
)

// Categories lists every category in display order.
var Categories = []Category{CategoryBooks, CategoryShows, CategoryPodcasts}

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	switch c {
	case CategoryBooks, CategoryShows, CategoryPodcasts:
		return true
	}
	return false
}

// Status is the user's progress state for an item.
type Status string

const (
	StatusTodo     Status = "todo"
	StatusProgress Status = "progress"
	StatusFinished Status = "finished"
)

// Statuses lists every status in shelf-tab order.
var Statuses = []Status{StatusTodo, StatusProgress, StatusFinished}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusTodo, StatusProgress, StatusFinished:
		return true
	}
	return false
}

// MediaItem is one catalogued book, show or podcast.
// Optional fields are pointers so that absent values are omitted, not zeroed.
type MediaItem struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	Category   Category  `json:"category"`
	Status     Status    `json:"status"`
	CoverImage *string   `json:"coverImage,omitempty"`
	Notes      *string   `json:"notes,omitempty"`
	Mood       *string   `json:"mood,omitempty"`
	Progress   *int      `json:"progress,omitempty"`
	DateAdded  time.Time `json:"dateAdded"`
}

// Clone returns a deep copy of the item.
func (m MediaItem) Clone() MediaItem {
	m.CoverImage = clonePtr(m.CoverImage)
	m.Notes = clonePtr(m.Notes)
	m.Mood = clonePtr(m.Mood)
	m.Progress = clonePtr(m.Progress)
	return m
}

// NewItem carries every MediaItem field except the ones the store assigns.
type NewItem struct {
	Title      string   `json:"title"`
	Category   Category `json:"category"`
	Status     Status   `json:"status"`
	CoverImage *string  `json:"coverImage,omitempty"`
	Notes      *string  `json:"notes,omitempty"`
	Mood       *string  `json:"mood,omitempty"`
	Progress   *int     `json:"progress,omitempty"`
}

// ItemPatch is a partial update. Fields that are not Set are left untouched.
// Identity fields (id, dateAdded) are deliberately absent.
type ItemPatch struct {
	Title      Field[string]   `json:"title,omitzero"`
	Category   Field[Category] `json:"category,omitzero"`
	Status     Field[Status]   `json:"status,omitzero"`
	CoverImage Field[string]   `json:"coverImage,omitzero"`
	Notes      Field[string]   `json:"notes,omitzero"`
	Mood       Field[string]   `json:"mood,omitzero"`
	Progress   Field[int]      `json:"progress,omitzero"`
}

// Empty reports whether the patch changes nothing.
func (p ItemPatch) Empty() bool {
	return !p.Title.Set && !p.Category.Set && !p.Status.Set &&
		!p.CoverImage.Set && !p.Notes.Set && !p.Mood.Set && !p.Progress.Set
}

// Field is a tri-state patch value: absent, set to a value, or set to null.
type Field[T any] struct {
	Set   bool
	Value *T
}

// Val returns a Field set to v.
func Val[T any](v T) Field[T] {
	return Field[T]{Set: true, Value: &v}
}

// Null returns a Field that clears the target.
func Null[T any]() Field[T] {
	return Field[T]{Set: true}
}

// IsZero lets `omitzero` drop unset fields when encoding.
func (f Field[T]) IsZero() bool { return !f.Set }

// MarshalJSON encodes the value, or null when cleared.
func (f Field[T]) MarshalJSON() ([]byte, error) {
	if f.Value == nil {
		return []byte("null"), nil
	}
	return json.Marshal(*f.Value)
}

// UnmarshalJSON is only invoked for keys present in the input, which is what
// distinguishes "absent" from "null".
func (f *Field[T]) UnmarshalJSON(data []byte) error {
	f.Set = true
	if string(data) == "null" {
		f.Value = nil
		return nil
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	f.Value = &v
	return nil
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T {
	return &v
}
