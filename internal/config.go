package internal

import (
	"fmt"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"

	"github.com/starford/shelf/internal/search"
	"github.com/starford/shelf/internal/storage"
)

// Storage drivers.
const (
	DriverFile   = "file"
	DriverSQLite = "sqlite"
	DriverMemory = "memory"
)

// Config represents the application configuration.
type Config struct {
	App     ApplicationConfig `yaml:"app"`
	Storage StorageConfig     `yaml:"storage"`
	Search  SearchConfig      `yaml:"search"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return fmt.Errorf("app: %w", err)
	}
	if err := c.Storage.Validate(); err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	if err := c.Search.Validate(); err != nil {
		return fmt.Errorf("search: %w", err)
	}
	return nil
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	HTTP     HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// StorageConfig selects where the collection is persisted.
//
// Driver is one of:
//   - "file" (default): <dir>/<namespace>.json, optionally watched for external edits.
//   - "sqlite": a key/value row per namespace in <dir>/shelf.db.
//   - "memory": nothing survives the process.
type StorageConfig struct {
	Driver    string `yaml:"driver"`
	Dir       string `yaml:"dir"`
	Namespace string `yaml:"namespace"`
	Watch     bool   `yaml:"watch"`
}

// Validate validates the storage configuration.
func (c *StorageConfig) Validate() error {
	if c.Driver == "" {
		c.Driver = DriverFile
	}
	if c.Namespace == "" {
		c.Namespace = storage.DefaultNamespace
	}
	return validation.ValidateStruct(c,
		validation.Field(&c.Driver, validation.In(DriverFile, DriverSQLite, DriverMemory)),
		validation.Field(&c.Dir, validation.When(c.Driver != DriverMemory, validation.Required)),
		validation.Field(&c.Namespace, validation.Length(1, 128)),
	)
}

// SearchConfig configures the catalog providers and the aggregator around them.
type SearchConfig struct {
	Timeout    time.Duration  `yaml:"timeout"`
	MaxResults int            `yaml:"max_results"`
	CacheTTL   time.Duration  `yaml:"cache_ttl"`
	SessionTTL time.Duration  `yaml:"session_ttl"`
	Books      ProviderConfig `yaml:"books"`
	TMDB       TMDBConfig     `yaml:"tmdb"`
	Podcasts   ProviderConfig `yaml:"podcasts"`
}

// Validate validates the search configuration.
func (c *SearchConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Timeout, validation.Required, validation.Min(100*time.Millisecond)),
		validation.Field(&c.MaxResults, validation.Required, validation.Min(1), validation.Max(40)),
		validation.Field(&c.CacheTTL, validation.Min(time.Duration(0))),
		validation.Field(&c.SessionTTL, validation.Required),
		validation.Field(&c.Books),
		validation.Field(&c.TMDB),
		validation.Field(&c.Podcasts),
	)
}

// ProviderConfig points a provider at its API root.
type ProviderConfig struct {
	BaseURL string `yaml:"base_url"`
}

// Validate implements validation.Validatable.
func (c ProviderConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.BaseURL, validation.Required, is.URL),
	)
}

// TMDBConfig configures the shows provider. An empty APIKey leaves the
// provider registered but every search degrades to no results.
type TMDBConfig struct {
	BaseURL      string `yaml:"base_url"`
	ImageBaseURL string `yaml:"image_base_url"`
	ImageSize    string `yaml:"image_size"`
	APIKey       string `yaml:"api_key"`
}

// Validate implements validation.Validatable.
func (c TMDBConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.BaseURL, validation.Required, is.URL),
		validation.Field(&c.ImageBaseURL, validation.Required, is.URL),
		validation.Field(&c.ImageSize, validation.Required),
	)
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		Storage: StorageConfig{
			Driver:    DriverFile,
			Dir:       "./data",
			Namespace: storage.DefaultNamespace,
			Watch:     true,
		},
		Search: SearchConfig{
			Timeout:    search.DefaultTimeout,
			MaxResults: search.DefaultMaxResults,
			CacheTTL:   5 * time.Minute,
			SessionTTL: 10 * time.Minute,
			Books:      ProviderConfig{BaseURL: search.GoogleBooksURL},
			TMDB: TMDBConfig{
				BaseURL:      search.TMDBURL,
				ImageBaseURL: search.TMDBImageURL,
				ImageSize:    search.TMDBImageSize,
			},
			Podcasts: ProviderConfig{BaseURL: search.ITunesURL},
		},
	}
}
