package search

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/starford/shelf/internal/models"
)

// ITunesURL is the public iTunes Search API root.
const ITunesURL = "https://itunes.apple.com"

// ITunesPodcasts searches podcasts through the iTunes Search API.
type ITunesPodcasts struct {
	cfg ClientConfig
}

// NewITunesPodcasts returns a podcasts provider. Zero config fields take defaults.
func NewITunesPodcasts(cfg ClientConfig) *ITunesPodcasts {
	return &ITunesPodcasts{cfg: cfg.withDefaults(ITunesURL)}
}

type itunesResponse struct {
	Results []json.RawMessage `json:"results"`
}

type itunesPodcast struct {
	TrackID       json.Number `json:"trackId"`
	TrackName     string      `json:"trackName"`
	ArtistName    string      `json:"artistName"`
	ArtworkURL100 string      `json:"artworkUrl100"`
	Description   string      `json:"description"`
	ReleaseDate   string      `json:"releaseDate"`
}

// Search implements Provider.
func (p *ITunesPodcasts) Search(ctx context.Context, query string) ([]models.SearchResult, error) {
	u := fmt.Sprintf("%s/search?term=%s&media=podcast&limit=%d", p.cfg.BaseURL, url.QueryEscape(query), p.cfg.MaxResults)

	var resp itunesResponse
	if err := getJSON(ctx, p.cfg.HTTPClient, u, &resp); err != nil {
		return nil, fmt.Errorf("itunes: %w", err)
	}

	out := make([]models.SearchResult, 0, len(resp.Results))
	for _, raw := range resp.Results {
		var r itunesPodcast
		if err := json.Unmarshal(raw, &r); err != nil {
			return nil, fmt.Errorf("itunes: decode result: %w", err)
		}
		out = append(out, convertPodcast(r, raw))
	}
	return out, nil
}

func convertPodcast(r itunesPodcast, raw json.RawMessage) models.SearchResult {
	return models.SearchResult{
		ID:          r.TrackID.String(),
		Title:       firstNonEmpty(r.TrackName, models.UnknownTitle),
		Description: firstNonEmpty(r.Description, models.PlaceholderDescription),
		Image:       firstNonEmpty(r.ArtworkURL100, models.PlaceholderImage),
		Type:        models.CategoryPodcasts,
		Author:      r.ArtistName,
		Year:        leadingYear(r.ReleaseDate),
		Original:    raw,
	}
}
