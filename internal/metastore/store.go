// Package metastore persists session provenance metadata (origin and
// starred flag) in a SQLite database shared across the application.
// The store is owned by the host; storage backends that track origins
// receive a reference at construction time so every subsystem reads and
// writes the same record.
package metastore

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/ryanhaqueIT/agentdeck/internal/storage"
)

const schema = `
CREATE TABLE IF NOT EXISTS session_meta (
	project_path TEXT NOT NULL,
	session_id   TEXT NOT NULL,
	origin       TEXT NOT NULL DEFAULT 'user',
	starred      INTEGER NOT NULL DEFAULT 0,
	updated_at   TEXT NOT NULL,
	PRIMARY KEY (project_path, session_id)
);
`

// Store is a persistent key-value record of per-session metadata, keyed
// by (projectPath, sessionID).
type Store struct {
	db *sql.DB
}

// Open creates or opens the metadata database at path, creating parent
// directories as needed.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create metastore dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open metastore: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("metastore ping failed: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init metastore schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// SessionMeta returns the stored metadata for a session. The second
// return value is false when no record exists.
func (s *Store) SessionMeta(projectPath, sessionID string) (storage.SessionMeta, bool, error) {
	var origin string
	var starred int
	err := s.db.QueryRow(
		`SELECT origin, starred FROM session_meta WHERE project_path = ? AND session_id = ?`,
		projectPath, sessionID,
	).Scan(&origin, &starred)
	if err == sql.ErrNoRows {
		return storage.SessionMeta{}, false, nil
	}
	if err != nil {
		return storage.SessionMeta{}, false, fmt.Errorf("query session meta: %w", err)
	}
	return storage.SessionMeta{
		Origin:  storage.Origin(origin),
		Starred: starred != 0,
	}, true, nil
}

// SetSessionOrigin records how a session came to exist, preserving any
// existing starred flag.
func (s *Store) SetSessionOrigin(projectPath, sessionID string, origin storage.Origin) error {
	_, err := s.db.Exec(`
		INSERT INTO session_meta (project_path, session_id, origin, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (project_path, session_id)
		DO UPDATE SET origin = excluded.origin, updated_at = excluded.updated_at`,
		projectPath, sessionID, string(origin), now())
	if err != nil {
		return fmt.Errorf("set session origin: %w", err)
	}
	return nil
}

// SetStarred toggles the starred flag, preserving any existing origin.
func (s *Store) SetStarred(projectPath, sessionID string, starred bool) error {
	val := 0
	if starred {
		val = 1
	}
	_, err := s.db.Exec(`
		INSERT INTO session_meta (project_path, session_id, starred, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (project_path, session_id)
		DO UPDATE SET starred = excluded.starred, updated_at = excluded.updated_at`,
		projectPath, sessionID, val, now())
	if err != nil {
		return fmt.Errorf("set starred: %w", err)
	}
	return nil
}

// Delete removes a session's metadata record. Deleting a missing record
// is not an error.
func (s *Store) Delete(projectPath, sessionID string) error {
	_, err := s.db.Exec(
		`DELETE FROM session_meta WHERE project_path = ? AND session_id = ?`,
		projectPath, sessionID)
	if err != nil {
		return fmt.Errorf("delete session meta: %w", err)
	}
	return nil
}

func now() string {
	return time.Now().UTC().Format(time.RFC3339)
}
