// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/starford/shelf/internal/api"
	"github.com/starford/shelf/internal/mcpserver"
	"github.com/starford/shelf/internal/sse"
)

// Run starts the HTTP server, the SSE broker and the state file watcher, and
// blocks until ctx is cancelled or a shutdown signal arrives.
func Run(ctx context.Context, opts ...Option) error {
	core, err := NewCore(opts...)
	if err != nil {
		return err
	}
	defer core.Close()

	cfg := core.Config
	logger := core.Logger

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("storage_driver", cfg.Storage.Driver),
		slog.String("storage_dir", cfg.Storage.Dir),
		slog.Bool("watch", cfg.Storage.Watch),
		slog.String("log_level", cfg.App.LogLevel.String()))

	broker := sse.NewBroker(2 * time.Second)
	defer broker.Close()
	unsubscribe := core.Store.Subscribe(broker.PublishChange)
	defer unsubscribe()

	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           NewHandler(core, broker),
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	// Pick up edits made to the state file by another process.
	if core.File != nil && cfg.Storage.Watch {
		g.Go(func() error {
			return core.File.Watch(gCtx, logger, func() {
				if err := core.Store.Reload(); err != nil {
					logger.Warn("reload failed", slog.String("error", err.Error()))
				}
			})
		})
	}

	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...")

		// SSE streams stay open until their clients go away; close them first.
		broker.Close()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}

		return errShutdown
	})

	if err := g.Wait(); err != nil && !errors.Is(err, errShutdown) {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// errShutdown cancels the group so the watcher stops with the server.
var errShutdown = errors.New("shutdown")

// NewHandler builds the root router: /api, health probes and /metrics.
func NewHandler(core *Core, events http.Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		writeStatus(w, http.StatusOK, map[string]any{"status": "ok"})
	})
	r.Get("/health/ready", func(w http.ResponseWriter, _ *http.Request) {
		writeStatus(w, http.StatusOK, map[string]any{
			"status": "ok",
			"items":  core.Store.Stats().Total,
			"kinds":  core.Search.Kinds(),
		})
	})
	r.Handle("/metrics", core.Metrics.Handler())

	r.Mount("/api", api.NewRouter(api.Deps{
		Store:      core.Store,
		Search:     core.Search,
		SessionTTL: core.Config.Search.SessionTTL,
		Events:     events,
	}))

	return r
}

func writeStatus(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// RunMCP serves the collection over MCP on stdin/stdout until the client
// disconnects. Logs must not go to stdout here.
func RunMCP(_ context.Context, opts ...Option) error {
	app := &application{}
	for _, opt := range opts {
		opt(app)
	}
	opts = append(opts, WithLogOutput(os.Stderr))
	core, err := NewCore(opts...)
	if err != nil {
		return err
	}
	defer core.Close()

	version := app.version
	if version == "" {
		version = "dev"
	}
	core.Logger.Info("MCP server starting", slog.String("version", version))
	return mcpserver.New(core.Store, core.Search, version).ServeStdio()
}
