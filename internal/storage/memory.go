package storage

import (
	"sync"

	"github.com/starford/shelf/internal/models"
)

// Memory keeps the state in process memory. It backs ephemeral runs and tests.
type Memory struct {
	mu    sync.Mutex
	state *models.State
	err   error
	saves int
}

// NewMemory returns an empty in-memory persister.
func NewMemory() *Memory { return &Memory{} }

// Load implements Persister.
func (m *Memory) Load() (models.State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == nil {
		return models.State{}, ErrNoState
	}
	return m.state.Clone(), nil
}

// Save implements Persister.
func (m *Memory) Save(s models.State) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	c := s.Clone()
	m.state = &c
	m.saves++
	return nil
}

// FailWith makes subsequent saves return err. A nil err restores them.
func (m *Memory) FailWith(err error) {
	m.mu.Lock()
	m.err = err
	m.mu.Unlock()
}

// Saves returns the number of successful saves.
func (m *Memory) Saves() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}
