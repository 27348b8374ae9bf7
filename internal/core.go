package internal

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"github.com/starford/shelf/internal/metrics"
	"github.com/starford/shelf/internal/models"
	"github.com/starford/shelf/internal/search"
	"github.com/starford/shelf/internal/storage"
	"github.com/starford/shelf/internal/store"
)

// SQLiteFile is the database name used by the sqlite driver inside storage.dir.
const SQLiteFile = "shelf.db"

// Core bundles the collaborators every command needs.
type Core struct {
	Config  *Config
	Logger  *slog.Logger
	Metrics *metrics.Metrics
	Store   *store.Store
	Search  *search.Aggregator

	// File is set for the file driver so the caller can watch it.
	File *storage.FileState

	closers []func() error
}

// NewCore resolves the options and builds the store and the aggregator.
func NewCore(opts ...Option) (*Core, error) {
	app := &application{}
	for _, opt := range opts {
		opt(app)
	}
	if app.config == nil {
		return nil, fmt.Errorf("config is required")
	}
	cfg := app.config

	logger := app.logger
	if logger == nil {
		out := app.logOutput
		if out == nil {
			out = os.Stdout
		}
		logger = NewLogger(out, cfg.App.LogLevel)
	}

	c := &Core{
		Config:  cfg,
		Logger:  logger,
		Metrics: metrics.New(),
	}

	p, err := c.openPersister(cfg.Storage)
	if err != nil {
		return nil, err
	}
	c.Store = store.New(p, store.WithLogger(logger), store.WithMetrics(c.Metrics))
	c.Search = NewAggregator(cfg.Search, logger, c.Metrics)

	logger.Info("Collection loaded",
		slog.String("driver", cfg.Storage.Driver),
		slog.String("namespace", cfg.Storage.Namespace),
		slog.Int("items", len(c.Store.Items())))

	return c, nil
}

// NewLogger returns a JSON logger at level and installs it as the default.
func NewLogger(w io.Writer, level slog.Level) *slog.Logger {
	logger := slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)
	return logger
}

func (c *Core) openPersister(cfg StorageConfig) (storage.Persister, error) {
	switch cfg.Driver {
	case DriverMemory:
		return storage.NewMemory(), nil
	case DriverSQLite:
		if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
			return nil, fmt.Errorf("create storage dir: %w", err)
		}
		db, err := storage.OpenSQLite(filepath.Join(cfg.Dir, SQLiteFile), cfg.Namespace)
		if err != nil {
			return nil, fmt.Errorf("init sqlite storage: %w", err)
		}
		c.closers = append(c.closers, db.Close)
		return db, nil
	case DriverFile, "":
		fs, err := storage.NewFileState(cfg.Dir, cfg.Namespace)
		if err != nil {
			return nil, fmt.Errorf("init file storage: %w", err)
		}
		c.File = fs
		return fs, nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}

// NewAggregator registers the three catalog providers behind one HTTP client.
func NewAggregator(cfg SearchConfig, logger *slog.Logger, m *metrics.Metrics) *search.Aggregator {
	client := &http.Client{Timeout: cfg.Timeout}
	base := func(url string) search.ClientConfig {
		return search.ClientConfig{BaseURL: url, MaxResults: cfg.MaxResults, HTTPClient: client}
	}

	if cfg.TMDB.APIKey == "" {
		logger.Warn("TMDB api key is not set, show searches will return no results")
	}

	return search.NewAggregator(
		search.WithLogger(logger),
		search.WithMetrics(m),
		search.WithCacheTTL(cfg.CacheTTL),
		search.WithProvider(models.CategoryBooks, search.NewGoogleBooks(base(cfg.Books.BaseURL))),
		search.WithProvider(models.CategoryShows, search.NewTMDB(search.TMDBConfig{
			ClientConfig: base(cfg.TMDB.BaseURL),
			APIKey:       cfg.TMDB.APIKey,
			ImageBaseURL: cfg.TMDB.ImageBaseURL,
			ImageSize:    cfg.TMDB.ImageSize,
		})),
		search.WithProvider(models.CategoryPodcasts, search.NewITunesPodcasts(base(cfg.Podcasts.BaseURL))),
	)
}

// Close releases the storage backend.
func (c *Core) Close() error {
	var errs []error
	for i := len(c.closers) - 1; i >= 0; i-- {
		errs = append(errs, c.closers[i]())
	}
	return errors.Join(errs...)
}
