package search

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/starford/shelf/internal/models"
)

const (
	// TMDBURL is the public TMDB API root.
	TMDBURL = "https://api.themoviedb.org/3"
	// TMDBImageURL is the TMDB image CDN root.
	TMDBImageURL = "https://image.tmdb.org/t/p"
	// TMDBImageSize is the poster width requested from the CDN.
	TMDBImageSize = "w300"
)

// ErrNotConfigured is returned by providers that are missing credentials.
var ErrNotConfigured = errors.New("provider not configured")

// TMDBConfig configures the TMDB provider.
type TMDBConfig struct {
	ClientConfig
	APIKey       string
	ImageBaseURL string
	ImageSize    string
}

// TMDB searches movies and TV series through TMDB's multi search.
type TMDB struct {
	cfg TMDBConfig
}

// NewTMDB returns a shows provider. Zero config fields take defaults.
func NewTMDB(cfg TMDBConfig) *TMDB {
	cfg.ClientConfig = cfg.ClientConfig.withDefaults(TMDBURL)
	if cfg.ImageBaseURL == "" {
		cfg.ImageBaseURL = TMDBImageURL
	}
	cfg.ImageBaseURL = strings.TrimRight(cfg.ImageBaseURL, "/")
	if cfg.ImageSize == "" {
		cfg.ImageSize = TMDBImageSize
	}
	return &TMDB{cfg: cfg}
}

type tmdbResponse struct {
	Results []json.RawMessage `json:"results"`
}

type tmdbResult struct {
	ID           json.Number `json:"id"`
	MediaType    string      `json:"media_type"`
	Title        string      `json:"title"`
	Name         string      `json:"name"`
	Overview     string      `json:"overview"`
	PosterPath   string      `json:"poster_path"`
	ReleaseDate  string      `json:"release_date"`
	FirstAirDate string      `json:"first_air_date"`
}

// Search implements Provider.
func (t *TMDB) Search(ctx context.Context, query string) ([]models.SearchResult, error) {
	if t.cfg.APIKey == "" {
		return nil, fmt.Errorf("tmdb: %w: api key is empty", ErrNotConfigured)
	}
	u := fmt.Sprintf("%s/search/multi?api_key=%s&query=%s&page=1",
		t.cfg.BaseURL, url.QueryEscape(t.cfg.APIKey), url.QueryEscape(query))

	var resp tmdbResponse
	if err := getJSON(ctx, t.cfg.HTTPClient, u, &resp); err != nil {
		return nil, fmt.Errorf("tmdb: %w", err)
	}

	out := make([]models.SearchResult, 0, t.cfg.MaxResults)
	for _, raw := range resp.Results {
		if len(out) == t.cfg.MaxResults {
			break
		}
		var r tmdbResult
		if err := json.Unmarshal(raw, &r); err != nil {
			return nil, fmt.Errorf("tmdb: decode result: %w", err)
		}
		if r.MediaType != "movie" && r.MediaType != "tv" {
			continue
		}
		out = append(out, t.convert(r, raw))
	}
	return out, nil
}

func (t *TMDB) convert(r tmdbResult, raw json.RawMessage) models.SearchResult {
	image := models.PlaceholderImage
	if r.PosterPath != "" {
		image = t.cfg.ImageBaseURL + "/" + t.cfg.ImageSize + r.PosterPath
	}
	return models.SearchResult{
		ID:          r.ID.String(),
		Title:       firstNonEmpty(r.Title, r.Name, models.UnknownTitle),
		Description: firstNonEmpty(r.Overview, models.PlaceholderDescription),
		Image:       image,
		Type:        models.CategoryShows,
		Year:        leadingYear(firstNonEmpty(r.ReleaseDate, r.FirstAirDate)),
		Original:    raw,
	}
}
