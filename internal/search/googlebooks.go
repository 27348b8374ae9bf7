package search

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/starford/shelf/internal/models"
)

// GoogleBooksURL is the public Google Books API root.
const GoogleBooksURL = "https://www.googleapis.com/books/v1"

// GoogleBooks searches the Google Books volumes API.
type GoogleBooks struct {
	cfg ClientConfig
}

// NewGoogleBooks returns a books provider. Zero config fields take defaults.
func NewGoogleBooks(cfg ClientConfig) *GoogleBooks {
	return &GoogleBooks{cfg: cfg.withDefaults(GoogleBooksURL)}
}

type booksResponse struct {
	Items []json.RawMessage `json:"items"`
}

type bookVolume struct {
	ID         string `json:"id"`
	VolumeInfo struct {
		Title         string   `json:"title"`
		Authors       []string `json:"authors"`
		Description   string   `json:"description"`
		PublishedDate string   `json:"publishedDate"`
		ImageLinks    struct {
			Thumbnail string `json:"thumbnail"`
		} `json:"imageLinks"`
	} `json:"volumeInfo"`
}

// Search implements Provider.
func (g *GoogleBooks) Search(ctx context.Context, query string) ([]models.SearchResult, error) {
	u := fmt.Sprintf("%s/volumes?q=%s&maxResults=%d", g.cfg.BaseURL, url.QueryEscape(query), g.cfg.MaxResults)

	var resp booksResponse
	if err := getJSON(ctx, g.cfg.HTTPClient, u, &resp); err != nil {
		return nil, fmt.Errorf("google books: %w", err)
	}

	out := make([]models.SearchResult, 0, len(resp.Items))
	for _, raw := range resp.Items {
		var v bookVolume
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, fmt.Errorf("google books: decode volume: %w", err)
		}
		out = append(out, convertVolume(v, raw))
	}
	return out, nil
}

func convertVolume(v bookVolume, raw json.RawMessage) models.SearchResult {
	info := v.VolumeInfo
	return models.SearchResult{
		ID:          v.ID,
		Title:       firstNonEmpty(info.Title, models.UnknownTitle),
		Description: firstNonEmpty(info.Description, models.PlaceholderDescription),
		Image:       firstNonEmpty(info.ImageLinks.Thumbnail, models.PlaceholderImage),
		Type:        models.CategoryBooks,
		Author:      strings.Join(info.Authors, ", "),
		Year:        leadingYear(info.PublishedDate),
		Original:    raw,
	}
}
