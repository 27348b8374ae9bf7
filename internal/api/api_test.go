package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/starford/shelf/internal/models"
	"github.com/starford/shelf/internal/search"
	"github.com/starford/shelf/internal/store"
	"github.com/starford/shelf/internal/testutil"
)

// testEnv builds an in-memory store and a router whose providers are the
// given functions.
func testEnv(t *testing.T, providers map[models.Category]search.Provider) (*store.Store, http.Handler) {
	t.Helper()
	s, _ := testutil.Store(t)
	return s, NewRouter(Deps{Store: s, Search: testutil.Catalog(t, providers)})
}

func do(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		r = strings.NewReader(b)
	default:
		raw, err := json.Marshal(b)
		if err != nil {
			t.Fatal(err)
		}
		r = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, r)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %s: %v", w.Body.String(), err)
	}
	return v
}

func TestItemLifecycle(t *testing.T) {
	_, router := testEnv(t, nil)

	w := do(t, router, http.MethodPost, "/items", `{"title":"Dune","category":"books","status":"todo"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body = %s", w.Code, w.Body.String())
	}
	created := decode[models.MediaItem](t, w)
	if created.ID == "" || created.Title != "Dune" || created.DateAdded.IsZero() {
		t.Fatalf("created = %+v", created)
	}

	w = do(t, router, http.MethodGet, "/items/"+created.ID, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get status = %d", w.Code)
	}

	w = do(t, router, http.MethodPatch, "/items/"+created.ID, `{"status":"progress","progress":40}`)
	if w.Code != http.StatusOK {
		t.Fatalf("patch status = %d, body = %s", w.Code, w.Body.String())
	}
	updated := decode[models.MediaItem](t, w)
	if updated.Status != models.StatusProgress || updated.Progress == nil || *updated.Progress != 40 {
		t.Errorf("updated = %+v", updated)
	}
	if updated.Title != "Dune" || !updated.DateAdded.Equal(created.DateAdded) {
		t.Errorf("untouched fields changed: %+v", updated)
	}

	w = do(t, router, http.MethodDelete, "/items/"+created.ID, nil)
	if w.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d", w.Code)
	}
	list := decode[ItemListResponse](t, do(t, router, http.MethodGet, "/items", nil))
	if list.Total != 0 || len(list.Items) != 0 {
		t.Errorf("list after delete = %+v", list)
	}
}

func TestCreateItemValidation(t *testing.T) {
	_, router := testEnv(t, nil)

	cases := map[string]string{
		"blank title":      `{"title":"   ","category":"books","status":"todo"}`,
		"bad category":     `{"title":"X","category":"games","status":"todo"}`,
		"missing status":   `{"title":"X","category":"books"}`,
		"progress too big": `{"title":"X","category":"books","status":"progress","progress":101}`,
		"negative":         `{"title":"X","category":"books","status":"progress","progress":-1}`,
		"not json":         `{"title":`,
		"trailing data":    `{"title":"X","category":"books","status":"todo"} {}`,
	}
	for name, body := range cases {
		w := do(t, router, http.MethodPost, "/items", body)
		if w.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", name, w.Code)
		}
	}
}

func TestCreateItemDropsProgressUnlessInProgress(t *testing.T) {
	_, router := testEnv(t, nil)
	w := do(t, router, http.MethodPost, "/items", `{"title":"X","category":"shows","status":"todo","progress":30}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d", w.Code)
	}
	if item := decode[models.MediaItem](t, w); item.Progress != nil {
		t.Errorf("progress kept on todo item: %d", *item.Progress)
	}
	if strings.Contains(w.Body.String(), "progress") {
		t.Errorf("absent progress serialized: %s", w.Body.String())
	}
}

func TestPatchUnknownIDIsNoOp(t *testing.T) {
	s, router := testEnv(t, nil)
	w := do(t, router, http.MethodPatch, "/items/nope", `{"title":"X"}`)
	if w.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", w.Code)
	}
	if len(s.Items()) != 0 {
		t.Error("unknown-id patch created an item")
	}
}

func TestPatchClearsOptionalAndRejectsNullRequired(t *testing.T) {
	s, router := testEnv(t, nil)
	item := s.AddItem(models.NewItem{Title: "Dune", Category: models.CategoryBooks, Status: models.StatusTodo, Mood: models.Ptr("calm")})

	w := do(t, router, http.MethodPatch, "/items/"+item.ID, `{"mood":null}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if got := decode[models.MediaItem](t, w); got.Mood != nil {
		t.Errorf("mood not cleared: %q", *got.Mood)
	}

	w = do(t, router, http.MethodPatch, "/items/"+item.ID, `{"title":null}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("null title status = %d, want 400", w.Code)
	}
	w = do(t, router, http.MethodPatch, "/items/"+item.ID, `{"status":"done"}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("bad status = %d, want 400", w.Code)
	}

	for _, body := range []string{`{"status":""}`, `{"category":""}`, `{"status":"","category":""}`} {
		if w := do(t, router, http.MethodPatch, "/items/"+item.ID, body); w.Code != http.StatusBadRequest {
			t.Errorf("%s status = %d, want 400", body, w.Code)
		}
	}
	got, err := s.Item(item.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Category != models.CategoryBooks || got.Status != models.StatusTodo {
		t.Errorf("empty enums reached the store: %+v", got)
	}
}

func TestDeleteIsIdempotent(t *testing.T) {
	_, router := testEnv(t, nil)
	for i := 0; i < 2; i++ {
		if w := do(t, router, http.MethodDelete, "/items/missing", nil); w.Code != http.StatusNoContent {
			t.Fatalf("delete #%d status = %d", i, w.Code)
		}
	}
}

func TestGetUnknownItem(t *testing.T) {
	_, router := testEnv(t, nil)
	if w := do(t, router, http.MethodGet, "/items/missing", nil); w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
}

func TestListFilters(t *testing.T) {
	s, router := testEnv(t, nil)
	s.AddItem(models.NewItem{Title: "Dune", Category: models.CategoryBooks, Status: models.StatusTodo})
	s.AddItem(models.NewItem{Title: "Severance", Category: models.CategoryShows, Status: models.StatusFinished})

	list := decode[ItemListResponse](t, do(t, router, http.MethodGet, "/items?category=shows", nil))
	if list.Total != 1 || list.Items[0].Title != "Severance" {
		t.Errorf("filtered = %+v", list)
	}
	if w := do(t, router, http.MethodGet, "/items?status=later", nil); w.Code != http.StatusBadRequest {
		t.Errorf("bad status filter = %d", w.Code)
	}
}

func TestPreferences(t *testing.T) {
	_, router := testEnv(t, nil)

	got := decode[models.Preferences](t, do(t, router, http.MethodGet, "/preferences", nil))
	if got != models.DefaultPreferences() {
		t.Errorf("defaults = %+v", got)
	}

	w := do(t, router, http.MethodPatch, "/preferences", `{"currentTheme":"light","accentColor":"#00ff00"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	got = decode[models.Preferences](t, w)
	want := models.Preferences{CurrentTheme: models.ThemeLight, GlassIntensity: models.GlassDefault, AccentColor: "#00ff00"}
	if got != want {
		t.Errorf("prefs = %+v, want %+v", got, want)
	}

	if w := do(t, router, http.MethodPatch, "/preferences", `{"glassIntensity":"ultra"}`); w.Code != http.StatusBadRequest {
		t.Errorf("bad intensity status = %d", w.Code)
	}
}

func TestStats(t *testing.T) {
	s, router := testEnv(t, nil)
	s.AddItem(models.NewItem{Title: "Dune", Category: models.CategoryBooks, Status: models.StatusTodo})

	st := decode[StatsResponse](t, do(t, router, http.MethodGet, "/stats", nil))
	if st.Total != 1 || st.ByCategory[models.CategoryBooks] != 1 || st.ByStatus[models.CategoryBooks][models.StatusTodo] != 1 {
		t.Errorf("stats = %+v", st)
	}
}

func TestSearchEndpoint(t *testing.T) {
	calls := 0
	books := search.ProviderFunc(func(ctx context.Context, q string) ([]models.SearchResult, error) {
		calls++
		return []models.SearchResult{{ID: "v1", Title: "Dune", Type: models.CategoryBooks, Image: models.PlaceholderImage, Description: "Spice"}}, nil
	})
	_, router := testEnv(t, map[models.Category]search.Provider{models.CategoryBooks: books})

	resp := decode[SearchResponse](t, do(t, router, http.MethodGet, "/search?q=dune&kind=books&seq=7", nil))
	if len(resp.Results) != 1 || resp.Results[0].Title != "Dune" || resp.Seq != 7 || resp.Notice != "" {
		t.Errorf("resp = %+v", resp)
	}

	w := do(t, router, http.MethodGet, "/search?q=%20%20&kind=books", nil)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"results":[]`) {
		t.Errorf("empty query = %d %s", w.Code, w.Body.String())
	}
	if calls != 1 {
		t.Errorf("provider calls = %d, want 1", calls)
	}

	if w := do(t, router, http.MethodGet, "/search?q=dune&kind=games", nil); w.Code != http.StatusBadRequest {
		t.Errorf("unknown kind status = %d", w.Code)
	}
}

func TestSearchDegradedNotice(t *testing.T) {
	failing := testutil.Failing(errors.New("unexpected status: 500"))
	_, router := testEnv(t, map[models.Category]search.Provider{models.CategoryPodcasts: failing})

	w := do(t, router, http.MethodGet, "/search?q=daily&kind=podcasts&session=tab-1", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	resp := decode[SearchResponse](t, w)
	if len(resp.Results) != 0 || resp.Notice != search.FailureNotice || resp.Seq != 1 {
		t.Errorf("resp = %+v", resp)
	}

	// The session keeps counting.
	resp = decode[SearchResponse](t, do(t, router, http.MethodGet, "/search?q=daily&kind=podcasts&session=tab-1", nil))
	if resp.Seq != 2 {
		t.Errorf("second seq = %d, want 2", resp.Seq)
	}
}

func TestSearchSessionsAreIndependent(t *testing.T) {
	_, router := testEnv(t, map[models.Category]search.Provider{models.CategoryShows: testutil.Results()})

	do(t, router, http.MethodGet, "/search?q=a&kind=shows&session=one", nil)
	resp := decode[SearchResponse](t, do(t, router, http.MethodGet, "/search?q=a&kind=shows&session=two", nil))
	if resp.Seq != 1 {
		t.Errorf("seq for new session = %d, want 1", resp.Seq)
	}
}

func TestDuneImportScenario(t *testing.T) {
	books := testutil.Results(models.SearchResult{
		ID: "v1", Title: "Dune", Type: models.CategoryBooks,
		Description: "Set on the desert planet Arrakis.", Image: "http://img/dune.jpg",
		Author: "Frank Herbert", Year: "1965",
	})
	s, router := testEnv(t, map[models.Category]search.Provider{models.CategoryBooks: books})

	results := decode[SearchResponse](t, do(t, router, http.MethodGet, "/search?q=dune&kind=books", nil)).Results
	if len(results) != 1 {
		t.Fatalf("results = %+v", results)
	}

	before := time.Now().UTC()
	w := do(t, router, http.MethodPost, "/search/import", ImportRequest{Result: results[0]})
	if w.Code != http.StatusCreated {
		t.Fatalf("import status = %d, body = %s", w.Code, w.Body.String())
	}
	item := decode[models.MediaItem](t, w)
	if item.Title != "Dune" || item.Category != models.CategoryBooks || item.Status != models.StatusTodo {
		t.Errorf("item = %+v", item)
	}
	if item.CoverImage == nil || *item.CoverImage != "http://img/dune.jpg" {
		t.Errorf("cover = %v", item.CoverImage)
	}
	if item.Notes == nil || *item.Notes != "Added from search: Set on the desert planet Arrakis...." {
		t.Errorf("notes = %v", item.Notes)
	}
	if item.DateAdded.Before(before.Add(-time.Second)) {
		t.Errorf("dateAdded = %v", item.DateAdded)
	}
	if len(s.Items()) != 1 {
		t.Errorf("store has %d items", len(s.Items()))
	}

	if w := do(t, router, http.MethodPost, "/search/import", `{"result":{"title":"X","type":"games"}}`); w.Code != http.StatusBadRequest {
		t.Errorf("bad import status = %d", w.Code)
	}
}

func TestEventsMounted(t *testing.T) {
	s, _ := testutil.Store(t)
	called := false
	events := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true })
	router := NewRouter(Deps{Store: s, Search: search.NewAggregator(), Events: events})

	do(t, router, http.MethodGet, "/events", nil)
	if !called {
		t.Error("events handler not mounted")
	}
}
