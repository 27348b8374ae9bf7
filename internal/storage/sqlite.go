package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/starford/shelf/internal/models"
)

const kvSchemaSQL = `
CREATE TABLE IF NOT EXISTS kv_store (
	namespace  TEXT PRIMARY KEY,
	value      TEXT NOT NULL,
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

// SQLiteState persists the state as one JSON row per namespace.
type SQLiteState struct {
	conn      *sql.DB
	namespace string
}

// OpenSQLite opens (or creates) the database at path and applies the schema.
func OpenSQLite(path, namespace string) (*SQLiteState, error) {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	conn, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("storage: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("storage: ping: %w", err)
	}
	if _, err := conn.Exec(kvSchemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("storage: apply schema: %w", err)
	}
	return &SQLiteState{conn: conn, namespace: namespace}, nil
}

// Load implements Persister.
func (s *SQLiteState) Load() (models.State, error) {
	var raw string
	err := s.conn.QueryRow(`SELECT value FROM kv_store WHERE namespace = ?`, s.namespace).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return models.State{}, ErrNoState
	}
	if err != nil {
		return models.State{}, fmt.Errorf("storage: load %s: %w", s.namespace, err)
	}
	var st models.State
	if err := json.Unmarshal([]byte(raw), &st); err != nil {
		return models.State{}, fmt.Errorf("storage: decode %s: %w", s.namespace, err)
	}
	return st, nil
}

// Save implements Persister.
func (s *SQLiteState) Save(st models.State) error {
	data, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("storage: encode state: %w", err)
	}
	_, err = s.conn.Exec(`
		INSERT INTO kv_store (namespace, value, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(namespace) DO UPDATE SET
			value      = excluded.value,
			updated_at = excluded.updated_at
	`, s.namespace, string(data), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("storage: save %s: %w", s.namespace, err)
	}
	return nil
}

// Close closes the underlying database connection.
func (s *SQLiteState) Close() error {
	return s.conn.Close()
}
