package models

import "encoding/json"

// Normalization defaults shared by every provider adapter.
const (
	PlaceholderImage       = "/placeholder.svg"
	PlaceholderDescription = "No description available"
	UnknownTitle           = "Unknown Title"
)

// SearchResult is the provider-agnostic shape of one catalog hit.
// It is transient: results live for one search response and are never persisted.
type SearchResult struct {
	ID          string          `json:"id"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Image       string          `json:"image"`
	Type        Category        `json:"type"`
	Author      string          `json:"author,omitempty"`
	Year        string          `json:"year,omitempty"`
	Original    json.RawMessage `json:"original,omitempty"`
}
