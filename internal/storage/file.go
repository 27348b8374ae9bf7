package storage

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/starford/shelf/internal/models"
)

// watchDebounce coalesces the burst of events produced by one atomic rename.
const watchDebounce = 150 * time.Millisecond

// FileState persists the state as <dir>/<namespace>.json.
type FileState struct {
	fs   *FS
	name string

	mu      sync.Mutex
	lastSum string // checksum of the last content written or read by us
}

// NewFileState opens (creating if needed) dir and returns a file persister.
func NewFileState(dir, namespace string) (*FileState, error) {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	fs, err := NewFS(dir)
	if err != nil {
		return nil, err
	}
	return &FileState{fs: fs, name: namespace + ".json"}, nil
}

// Path returns the absolute path of the state file.
func (f *FileState) Path() string {
	return filepath.Join(f.fs.Root(), f.name)
}

// Load implements Persister.
func (f *FileState) Load() (models.State, error) {
	data, err := f.fs.Read(f.name)
	if errors.Is(err, os.ErrNotExist) {
		return models.State{}, ErrNoState
	}
	if err != nil {
		return models.State{}, err
	}
	var s models.State
	if err := json.Unmarshal(data, &s); err != nil {
		return models.State{}, fmt.Errorf("storage: decode %s: %w", f.name, err)
	}
	f.remember(data)
	return s, nil
}

// Save implements Persister.
func (f *FileState) Save(s models.State) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("storage: encode state: %w", err)
	}
	if err := f.fs.Write(f.name, data); err != nil {
		return err
	}
	f.remember(data)
	return nil
}

func (f *FileState) remember(data []byte) {
	f.mu.Lock()
	f.lastSum = sum(data)
	f.mu.Unlock()
}

// changedExternally reports whether the file on disk differs from what this
// process last wrote or read.
func (f *FileState) changedExternally() bool {
	data, err := f.fs.Read(f.name)
	if err != nil {
		return false
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return sum(data) != f.lastSum
}

// Watch observes the state directory until ctx is cancelled and calls
// onChange after the state file was modified by another process.
func (f *FileState) Watch(ctx context.Context, logger *slog.Logger, onChange func()) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	// The directory is watched rather than the file: atomic writes replace
	// the inode, which would drop a file watch.
	if err := w.Add(f.fs.Root()); err != nil {
		return fmt.Errorf("storage: watch %s: %w", f.fs.Root(), err)
	}
	logger.Info("watcher: started", slog.String("path", f.Path()))

	var timer *time.Timer
	var fire <-chan time.Time
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	target := f.Path()
	for {
		select {
		case <-ctx.Done():
			logger.Info("watcher: stopped")
			return nil

		case <-fire:
			fire = nil
			if !f.changedExternally() {
				continue
			}
			logger.Info("watcher: state changed on disk", slog.String("path", target))
			onChange()

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != target {
				continue
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(watchDebounce)
			} else {
				timer.Reset(watchDebounce)
			}
			fire = timer.C

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

func sum(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}
