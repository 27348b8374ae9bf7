// Package store holds the media collection and display preferences.
package store

import (
	"errors"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/starford/shelf/internal/apperr"
	"github.com/starford/shelf/internal/metrics"
	"github.com/starford/shelf/internal/models"
	"github.com/starford/shelf/internal/storage"
)

// ChangeKind names a store notification.
type ChangeKind string

const (
	ItemAdded          ChangeKind = "item.added"
	ItemUpdated        ChangeKind = "item.updated"
	ItemDeleted        ChangeKind = "item.deleted"
	PreferencesUpdated ChangeKind = "preferences.updated"
	StateReloaded      ChangeKind = "state.reloaded"
)

// Change describes one applied mutation. Item is set for added and updated
// items, ID for deletions, Preferences for preference changes.
type Change struct {
	Kind        ChangeKind          `json:"kind"`
	ID          string              `json:"id,omitempty"`
	Item        *models.MediaItem   `json:"item,omitempty"`
	Preferences *models.Preferences `json:"preferences,omitempty"`
}

// Store is the single source of truth for the collection. Every mutation
// replaces the snapshot under the write lock and then persists it.
type Store struct {
	mu    sync.RWMutex
	state models.State

	persister storage.Persister
	now       func() time.Time
	newID     func() string
	logger    *slog.Logger
	metrics   *metrics.Metrics

	// pending holds committed changes not yet delivered, in commit order.
	// Guarded by mu, as is flushing.
	pending  []Change
	flushing bool

	subMu  sync.Mutex
	subs   map[int]func(Change)
	nextID int
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the time source used for DateAdded.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithIDFunc overrides the id generator.
func WithIDFunc(fn func() string) Option {
	return func(s *Store) { s.newID = fn }
}

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// WithMetrics records mutations and persist failures on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Store) { s.metrics = m }
}

// New builds a Store and rehydrates it from p. Missing or unreadable state
// starts an empty collection with default preferences.
func New(p storage.Persister, opts ...Option) *Store {
	s := &Store{
		persister: p,
		now:       time.Now,
		newID:     uuid.NewString,
		logger:    slog.Default(),
		subs:      make(map[int]func(Change)),
	}
	for _, o := range opts {
		o(s)
	}
	s.state = s.load()
	s.updateGauge()
	return s
}

func (s *Store) load() models.State {
	st, err := s.persister.Load()
	switch {
	case errors.Is(err, storage.ErrNoState):
		return models.NewState()
	case err != nil:
		s.logger.Warn("store: persisted state unreadable, starting empty",
			slog.String("error", err.Error()))
		return models.NewState()
	}
	return st
}

// AddItem appends a new item with a fresh id and the current time.
func (s *Store) AddItem(in models.NewItem) models.MediaItem {
	s.mu.Lock()
	id := s.uniqueID()
	at := s.now().UTC()
	if n := len(s.state.Items); n > 0 {
		if last := s.state.Items[n-1].DateAdded; at.Before(last) {
			at = last
		}
	}
	next, item := Add(s.state, in, id, at)
	s.commit(next, "add")
	s.enqueue(Change{Kind: ItemAdded, ID: item.ID, Item: models.Ptr(item)})
	s.mu.Unlock()
	s.flush()
	return item
}

// uniqueID must be called with s.mu held.
func (s *Store) uniqueID() string {
	for {
		id := s.newID()
		if indexOf(s.state.Items, id) < 0 {
			return id
		}
	}
}

// UpdateItem merges patch into the item with the given id. An unknown id is
// a silent no-op and reports false.
func (s *Store) UpdateItem(id string, patch models.ItemPatch) (models.MediaItem, bool) {
	s.mu.Lock()
	next, item, ok := Update(s.state, id, patch)
	if !ok {
		s.mu.Unlock()
		return models.MediaItem{}, false
	}
	s.commit(next, "update")
	s.enqueue(Change{Kind: ItemUpdated, ID: id, Item: models.Ptr(item)})
	s.mu.Unlock()
	s.flush()
	return item, true
}

// DeleteItem removes the item with the given id and reports whether it existed.
func (s *Store) DeleteItem(id string) bool {
	s.mu.Lock()
	next, ok := Delete(s.state, id)
	if !ok {
		s.mu.Unlock()
		return false
	}
	s.commit(next, "delete")
	s.enqueue(Change{Kind: ItemDeleted, ID: id})
	s.mu.Unlock()
	s.flush()
	return true
}

// SetTheme updates the theme preference.
func (s *Store) SetTheme(t models.Theme) {
	s.setPreferences(func(st models.State) models.State { return WithTheme(st, t) })
}

// SetGlassIntensity updates the glass intensity preference.
func (s *Store) SetGlassIntensity(g models.GlassIntensity) {
	s.setPreferences(func(st models.State) models.State { return WithGlassIntensity(st, g) })
}

// SetAccentColor updates the accent colour preference.
func (s *Store) SetAccentColor(color string) {
	s.setPreferences(func(st models.State) models.State { return WithAccentColor(st, color) })
}

func (s *Store) setPreferences(fn func(models.State) models.State) {
	s.mu.Lock()
	next := fn(s.state)
	s.commit(next, "preferences")
	prefs := next.Preferences
	s.enqueue(Change{Kind: PreferencesUpdated, Preferences: &prefs})
	s.mu.Unlock()
	s.flush()
}

// commit installs next and persists it. Must be called with s.mu held so
// saves happen in mutation order.
func (s *Store) commit(next models.State, op string) {
	s.state = next
	s.metrics.ObserveMutation(op)
	s.updateGauge()
	if err := s.persister.Save(next); err != nil {
		s.metrics.ObservePersistFailure()
		s.logger.Error("store: persist failed",
			slog.String("op", op),
			slog.String("error", err.Error()))
	}
}

func (s *Store) updateGauge() {
	if s.metrics == nil {
		return
	}
	counts := make(map[string]int, len(models.Categories))
	for _, c := range models.Categories {
		counts[string(c)] = 0
	}
	for _, it := range s.state.Items {
		counts[string(it.Category)]++
	}
	s.metrics.SetCollectionSize(counts)
}

// Reload replaces the in-memory snapshot with the persisted one.
func (s *Store) Reload() error {
	st, err := s.persister.Load()
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.state = st
	s.updateGauge()
	s.enqueue(Change{Kind: StateReloaded})
	s.mu.Unlock()

	s.logger.Info("store: reloaded", slog.Int("items", len(st.Items)))
	s.flush()
	return nil
}

// Items returns a copy of every item in insertion order.
func (s *Store) Items() []models.MediaItem {
	return s.Filter("", "")
}

// Item returns the item with the given id or apperr.ErrNotFound.
func (s *Store) Item(id string) (models.MediaItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	idx := indexOf(s.state.Items, id)
	if idx < 0 {
		return models.MediaItem{}, apperr.ErrNotFound
	}
	return s.state.Items[idx].Clone(), nil
}

// Filter returns items in insertion order, narrowed to category and status
// when they are non-empty.
func (s *Store) Filter(category models.Category, status models.Status) []models.MediaItem {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.MediaItem, 0, len(s.state.Items))
	for _, it := range s.state.Items {
		if category != "" && it.Category != category {
			continue
		}
		if status != "" && it.Status != status {
			continue
		}
		out = append(out, it.Clone())
	}
	return out
}

// Preferences returns the current display preferences.
func (s *Store) Preferences() models.Preferences {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Preferences
}

// Snapshot returns a deep copy of the whole state.
func (s *Store) Snapshot() models.State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Clone()
}

// Stats holds the collection counters.
type Stats struct {
	Total      int                                       `json:"total"`
	ByCategory map[models.Category]int                   `json:"byCategory"`
	ByStatus   map[models.Category]map[models.Status]int `json:"byStatus"`
}

// Stats counts items per category, and per status within each category.
// Every known category and status is present, zero or not.
func (s *Store) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := Stats{
		ByCategory: make(map[models.Category]int, len(models.Categories)),
		ByStatus:   make(map[models.Category]map[models.Status]int, len(models.Categories)),
	}
	for _, c := range models.Categories {
		st.ByCategory[c] = 0
		st.ByStatus[c] = make(map[models.Status]int, len(models.Statuses))
		for _, status := range models.Statuses {
			st.ByStatus[c][status] = 0
		}
	}
	for _, it := range s.state.Items {
		st.Total++
		st.ByCategory[it.Category]++
		if _, ok := st.ByStatus[it.Category]; ok {
			st.ByStatus[it.Category][it.Status]++
		}
	}
	return st
}

// Subscribe registers fn for change notifications and returns a function
// that removes it. Changes are delivered one at a time in commit order.
// fn may call the store's mutators; their changes are delivered after fn returns.
func (s *Store) Subscribe(fn func(Change)) (unsubscribe func()) {
	s.subMu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	s.subMu.Unlock()

	return func() {
		s.subMu.Lock()
		delete(s.subs, id)
		s.subMu.Unlock()
	}
}

// enqueue must be called with s.mu held, right after the commit it describes.
func (s *Store) enqueue(c Change) {
	s.pending = append(s.pending, c)
}

// flush delivers pending changes. Only one goroutine delivers at a time; a
// caller that finds delivery in progress leaves its changes to that goroutine.
func (s *Store) flush() {
	s.mu.Lock()
	if s.flushing {
		s.mu.Unlock()
		return
	}
	s.flushing = true
	for len(s.pending) > 0 {
		batch := s.pending
		s.pending = nil
		s.mu.Unlock()
		for _, c := range batch {
			s.notify(c)
		}
		s.mu.Lock()
	}
	s.flushing = false
	s.mu.Unlock()
}

func (s *Store) notify(c Change) {
	s.subMu.Lock()
	ids := make([]int, 0, len(s.subs))
	for id := range s.subs {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	fns := make([]func(Change), 0, len(ids))
	for _, id := range ids {
		fns = append(fns, s.subs[id])
	}
	s.subMu.Unlock()

	for _, fn := range fns {
		fn(c)
	}
}
