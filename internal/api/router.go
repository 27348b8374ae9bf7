package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/starford/shelf/internal/search"
	"github.com/starford/shelf/internal/store"
)

// Deps are the collaborators the API routes need.
type Deps struct {
	Store  *store.Store
	Search *search.Aggregator
	// SessionTTL is the idle expiry of search sessions.
	SessionTTL time.Duration
	// Events, if non-nil, is mounted at GET /events.
	Events http.Handler
}

// NewRouter creates a chi router with all API routes mounted.
func NewRouter(d Deps) chi.Router {
	h := NewHandler(d.Store)
	sh := NewSearchHandler(d.Search, d.Store, d.SessionTTL)

	r := chi.NewRouter()

	r.Route("/items", func(r chi.Router) {
		r.Get("/", h.ListItems)
		r.Post("/", h.CreateItem)
		r.Get("/{id}", h.GetItem)
		r.Patch("/{id}", h.UpdateItem)
		r.Delete("/{id}", h.DeleteItem)
	})

	r.Get("/preferences", h.GetPreferences)
	r.Patch("/preferences", h.UpdatePreferences)
	r.Get("/stats", h.Stats)

	r.Get("/search", sh.Search)
	r.Post("/search/import", sh.Import)

	if d.Events != nil {
		r.Get("/events", d.Events.ServeHTTP)
	}

	return r
}
