// Package storage persists the shelf state and provides the atomic file writer
// shared by the state file and the Markdown exporter.
package storage

import (
	"errors"

	"github.com/starford/shelf/internal/models"
)

// DefaultNamespace is the key under which the state is stored.
const DefaultNamespace = "media-tracker-storage"

// ErrNoState is returned by Load when nothing has been persisted yet.
var ErrNoState = errors.New("storage: no persisted state")

// Persister loads and saves the complete state record.
type Persister interface {
	// Load returns the persisted state, or ErrNoState if there is none.
	Load() (models.State, error)
	// Save replaces the persisted state with s.
	Save(s models.State) error
}
