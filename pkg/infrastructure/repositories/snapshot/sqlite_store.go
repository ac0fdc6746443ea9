package snapshot

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/vsinha/aps/pkg/domain/repositories"
)

const schema = `CREATE TABLE IF NOT EXISTS snapshots (
	kind TEXT PRIMARY KEY,
	payload TEXT NOT NULL,
	updated_at TEXT NOT NULL
)`

// SQLiteStore keeps one JSON row per entity kind in a SQLite database
type SQLiteStore struct {
	db *sql.DB
}

// Verify interface compliance
var _ repositories.SnapshotStore = (*SQLiteStore)(nil)

// OpenSQLite opens (or creates) the database file and ensures the schema
func OpenSQLite(path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	conn, err := sql.Open("sqlite", fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)", path))
	if err != nil {
		return nil, err
	}
	conn.SetMaxOpenConns(1)
	if _, err := conn.Exec(schema); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create snapshots table: %w", err)
	}
	return &SQLiteStore{db: conn}, nil
}

// Close releases the database handle
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Load decodes the kind's payload into out
func (s *SQLiteStore) Load(kind string, out any) (bool, error) {
	var payload string
	err := s.db.QueryRow(`SELECT payload FROM snapshots WHERE kind = ?`, kind).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read %s snapshot: %w", kind, err)
	}
	if err := json.Unmarshal([]byte(payload), out); err != nil {
		return false, fmt.Errorf("invalid %s snapshot payload: %w", kind, err)
	}
	return true, nil
}

// Save upserts the whole collection for the kind
func (s *SQLiteStore) Save(kind string, records any) error {
	payload, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("failed to encode %s snapshot: %w", kind, err)
	}
	_, err = s.db.Exec(
		`INSERT INTO snapshots (kind, payload, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(kind) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at`,
		kind, string(payload), time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to write %s snapshot: %w", kind, err)
	}
	return nil
}
