// Package cache persists compiled bytecode keyed by the content hash of
// the sources that produced it, so repeated CLI invocations over
// unchanged sources skip the pipeline.
package cache

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Store is a content-addressed blob store over a single sqlite file.
type Store struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS artifacts (
    hash       TEXT PRIMARY KEY,
    blob       BLOB NOT NULL,
    created_at INTEGER NOT NULL
);
`

// Open creates (or opens) the store at path, creating parent
// directories as needed.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("cache: init: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error { return s.db.Close() }

// Key hashes a set of source texts into the cache key. Order matters:
// callers pass sources in a stable order.
func Key(sources ...string) string {
	h := sha256.New()
	for _, src := range sources {
		fmt.Fprintf(h, "%d:", len(src))
		h.Write([]byte(src))
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Get looks a blob up by key.
func (s *Store) Get(key string) ([]byte, bool, error) {
	var blob []byte
	err := s.db.QueryRow(`SELECT blob FROM artifacts WHERE hash = ?`, key).Scan(&blob)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return blob, true, nil
}

// Put stores a blob under key, replacing any previous entry.
func (s *Store) Put(key string, blob []byte) error {
	_, err := s.db.Exec(
		`INSERT INTO artifacts (hash, blob, created_at) VALUES (?, ?, ?)
		 ON CONFLICT(hash) DO UPDATE SET blob = excluded.blob, created_at = excluded.created_at`,
		key, blob, time.Now().Unix(),
	)
	return err
}

// Stats reports entry count and total blob bytes for CLI reporting.
func (s *Store) Stats() (entries int64, bytes int64, err error) {
	err = s.db.QueryRow(`SELECT COUNT(*), COALESCE(SUM(LENGTH(blob)), 0) FROM artifacts`).Scan(&entries, &bytes)
	return entries, bytes, err
}

// Clear drops every entry.
func (s *Store) Clear() error {
	_, err := s.db.Exec(`DELETE FROM artifacts`)
	return err
}
