package search

import "github.com/starford/shelf/internal/models"

const (
	importNotesPrefix = "Added from search: "
	importNotesRunes  = 100
)

// ImportItem turns a search result into a new collection item with the given
// status (todo when empty). Only title, category, cover and a notes excerpt
// are kept.
func ImportItem(r models.SearchResult, status models.Status) models.NewItem {
	if status == "" {
		status = models.StatusTodo
	}
	desc := []rune(r.Description)
	if len(desc) > importNotesRunes {
		desc = desc[:importNotesRunes]
	}
	notes := importNotesPrefix + string(desc) + "..."
	in := models.NewItem{
		Title:    r.Title,
		Category: r.Type,
		Status:   status,
		Notes:    &notes,
	}
	if r.Image != "" {
		in.CoverImage = models.Ptr(r.Image)
	}
	return in
}
