package api

import (
	"github.com/starford/shelf/internal/models"
	"github.com/starford/shelf/internal/store"
)

// ItemListResponse wraps a filtered item listing.
type ItemListResponse struct {
	Items []models.MediaItem `json:"items" validate:"required"`
	Total int                `json:"total" example:"3" validate:"required"`
}

// PreferencesRequest is a partial preferences update.
type PreferencesRequest struct {
	CurrentTheme   *models.Theme          `json:"currentTheme,omitempty" example:"light"`
	GlassIntensity *models.GlassIntensity `json:"glassIntensity,omitempty" example:"high"`
	AccentColor    *string                `json:"accentColor,omitempty" example:"#8b5cf6"`
}

// apply returns p with the supplied fields overwritten.
func (r PreferencesRequest) apply(p models.Preferences) models.Preferences {
	if r.CurrentTheme != nil {
		p.CurrentTheme = *r.CurrentTheme
	}
	if r.GlassIntensity != nil {
		p.GlassIntensity = *r.GlassIntensity
	}
	if r.AccentColor != nil {
		p.AccentColor = *r.AccentColor
	}
	return p
}

// StatsResponse is the collection counters.
type StatsResponse = store.Stats

// SearchResponse wraps the results of one catalog search.
type SearchResponse struct {
	Results []models.SearchResult `json:"results" validate:"required"`
	Seq     uint64                `json:"seq" example:"3"`
	Stale   bool                  `json:"stale"`
	Notice  string                `json:"notice,omitempty" example:"Failed to search. Please try again."`
}

// ImportRequest adds a search result to the collection.
type ImportRequest struct {
	Result models.SearchResult `json:"result" validate:"required"`
	Status models.Status       `json:"status,omitempty" example:"todo"`
}
