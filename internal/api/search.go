package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/starford/shelf/internal/models"
	"github.com/starford/shelf/internal/search"
	"github.com/starford/shelf/internal/store"
)

// SearchHandler serves catalog search and import.
type SearchHandler struct {
	agg      *search.Aggregator
	store    *store.Store
	sessions *cache.Cache
}

// NewSearchHandler creates a SearchHandler. Idle search sessions are dropped
// after sessionTTL.
func NewSearchHandler(agg *search.Aggregator, s *store.Store, sessionTTL time.Duration) *SearchHandler {
	if sessionTTL <= 0 {
		sessionTTL = 10 * time.Minute
	}
	return &SearchHandler{
		agg:      agg,
		store:    s,
		sessions: cache.New(sessionTTL, sessionTTL),
	}
}

// session returns the search session for id, creating it if needed.
// go-cache's Add is atomic, so concurrent first requests share one session.
func (h *SearchHandler) session(id string) *search.Session {
	if v, ok := h.sessions.Get(id); ok {
		h.sessions.SetDefault(id, v) // refresh idle expiry
		return v.(*search.Session)
	}
	s := h.agg.NewSession()
	if err := h.sessions.Add(id, s, cache.DefaultExpiration); err != nil {
		if v, ok := h.sessions.Get(id); ok {
			return v.(*search.Session)
		}
	}
	return s
}

// Search handles GET /api/search.
//
// With a session id, a newer search from the same session cancels the older
// one and the older response comes back with stale=true. The client seq, when
// given, is echoed so out-of-order responses can be discarded client side.
//
//	@Summary		Search an external catalog
//	@Tags			search
//	@Produce		json
//	@Param			q		query		string	true	"Search text"
//	@Param			kind	query		string	true	"Catalog"	Enums(books, shows, podcasts)
//	@Param			session	query		string	false	"Client session id"
//	@Param			seq		query		int		false	"Client sequence number"
//	@Success		200		{object}	SearchResponse
//	@Failure		400		{object}	errResponse
//	@Router			/search [get]
func (h *SearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req := search.Request{Query: q.Get("q"), Kind: models.Category(q.Get("kind"))}

	var (
		resp search.Response
		err  error
	)
	if id := q.Get("session"); id != "" {
		resp, err = h.session(id).Do(r.Context(), req)
	} else {
		resp, err = h.agg.Do(r.Context(), req)
	}
	if err != nil {
		if errors.Is(err, search.ErrUnknownKind) {
			writeJSON(w, http.StatusBadRequest, errorBody("unknown kind"))
		} else {
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		}
		return
	}

	out := SearchResponse{Results: resp.Results, Seq: resp.Seq, Stale: resp.Stale}
	if out.Results == nil {
		out.Results = []models.SearchResult{}
	}
	if seq, perr := strconv.ParseUint(q.Get("seq"), 10, 64); perr == nil {
		out.Seq = seq
	}
	if resp.Degraded {
		out.Notice = search.FailureNotice
	}
	writeJSON(w, http.StatusOK, out)
}

// Import handles POST /api/search/import.
//
//	@Summary		Add a search result to the collection
//	@Tags			search
//	@Accept			json
//	@Produce		json
//	@Param			body	body		ImportRequest	true	"Result to import"
//	@Success		201		{object}	models.MediaItem
//	@Failure		400		{object}	errResponse
//	@Router			/search/import [post]
func (h *SearchHandler) Import(w http.ResponseWriter, r *http.Request) {
	var req ImportRequest
	if err := readJSON(w, r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	in := search.ImportItem(req.Result, req.Status)
	if err := in.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	item := h.store.AddItem(in.Normalized())
	writeJSON(w, http.StatusCreated, item)
}
