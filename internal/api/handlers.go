// Package api implements the shelf REST API using chi.
package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/shelf/internal/apperr"
	"github.com/starford/shelf/internal/models"
	"github.com/starford/shelf/internal/store"
)

var errTrailingData = errors.New("unexpected data after JSON body")

// Handler holds the collection route handlers.
type Handler struct {
	store *store.Store
}

// NewHandler creates a new Handler.
func NewHandler(s *store.Store) *Handler {
	return &Handler{store: s}
}

// ListItems handles GET /api/items.
//
//	@Summary		List items in insertion order
//	@Tags			items
//	@Produce		json
//	@Param			category	query		string	false	"Filter by category"	Enums(books, shows, podcasts)
//	@Param			status		query		string	false	"Filter by status"		Enums(todo, progress, finished)
//	@Success		200			{object}	ItemListResponse
//	@Failure		400			{object}	errResponse
//	@Router			/items [get]
func (h *Handler) ListItems(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	category := models.Category(q.Get("category"))
	status := models.Status(q.Get("status"))
	if category != "" && !category.Valid() {
		writeJSON(w, http.StatusBadRequest, errorBody("unknown category"))
		return
	}
	if status != "" && !status.Valid() {
		writeJSON(w, http.StatusBadRequest, errorBody("unknown status"))
		return
	}
	items := h.store.Filter(category, status)
	writeJSON(w, http.StatusOK, ItemListResponse{Items: items, Total: len(items)})
}

// GetItem handles GET /api/items/{id}.
//
//	@Summary		Get a single item
//	@Tags			items
//	@Produce		json
//	@Param			id	path		string	true	"Item id"
//	@Success		200	{object}	models.MediaItem
//	@Failure		404	{object}	errResponse
//	@Router			/items/{id} [get]
func (h *Handler) GetItem(w http.ResponseWriter, r *http.Request) {
	item, err := h.store.Item(chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorBody("not found"))
		} else {
			slog.Error("get item failed", slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		}
		return
	}
	writeJSON(w, http.StatusOK, item)
}

// CreateItem handles POST /api/items.
//
//	@Summary		Add an item to the collection
//	@Tags			items
//	@Accept			json
//	@Produce		json
//	@Param			body	body		models.NewItem	true	"Item to add"
//	@Success		201		{object}	models.MediaItem
//	@Failure		400		{object}	errResponse
//	@Router			/items [post]
func (h *Handler) CreateItem(w http.ResponseWriter, r *http.Request) {
	var in models.NewItem
	if err := readJSON(w, r, &in); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if err := in.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	item := h.store.AddItem(in.Normalized())
	writeJSON(w, http.StatusCreated, item)
}

// UpdateItem handles PATCH /api/items/{id}.
//
// Unknown ids are not an error: the update is dropped and 204 is returned.
//
//	@Summary		Merge fields into an item
//	@Tags			items
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string				true	"Item id"
//	@Param			body	body		models.ItemPatch	true	"Fields to change; null clears optional fields"
//	@Success		200		{object}	models.MediaItem
//	@Success		204
//	@Failure		400		{object}	errResponse
//	@Router			/items/{id} [patch]
func (h *Handler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	var patch models.ItemPatch
	if err := readJSON(w, r, &patch); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if err := patch.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	item, ok := h.store.UpdateItem(chi.URLParam(r, "id"), patch)
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

// DeleteItem handles DELETE /api/items/{id}. It is idempotent.
//
//	@Summary		Remove an item
//	@Tags			items
//	@Param			id	path	string	true	"Item id"
//	@Success		204
//	@Router			/items/{id} [delete]
func (h *Handler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	h.store.DeleteItem(chi.URLParam(r, "id"))
	w.WriteHeader(http.StatusNoContent)
}

// GetPreferences handles GET /api/preferences.
func (h *Handler) GetPreferences(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.store.Preferences())
}

// UpdatePreferences handles PATCH /api/preferences.
//
//	@Summary		Change display preferences
//	@Tags			preferences
//	@Accept			json
//	@Produce		json
//	@Param			body	body		PreferencesRequest	true	"Preferences to change"
//	@Success		200		{object}	models.Preferences
//	@Failure		400		{object}	errResponse
//	@Router			/preferences [patch]
func (h *Handler) UpdatePreferences(w http.ResponseWriter, r *http.Request) {
	var req PreferencesRequest
	if err := readJSON(w, r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	current := h.store.Preferences()
	next := req.apply(current)
	if err := next.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	if next.CurrentTheme != current.CurrentTheme {
		h.store.SetTheme(next.CurrentTheme)
	}
	if next.GlassIntensity != current.GlassIntensity {
		h.store.SetGlassIntensity(next.GlassIntensity)
	}
	if next.AccentColor != current.AccentColor {
		h.store.SetAccentColor(next.AccentColor)
	}
	writeJSON(w, http.StatusOK, h.store.Preferences())
}

// Stats handles GET /api/stats.
//
//	@Summary		Collection counters per category and status
//	@Tags			items
//	@Produce		json
//	@Success		200	{object}	StatsResponse
//	@Router			/stats [get]
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.store.Stats())
}
