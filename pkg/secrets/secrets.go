// Package secrets stores credentials captured by the setup wizard in a
// local SQLite database, keyed by name and scope.
package secrets

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// EnvDataDir overrides the directory holding the secrets database when set.
const EnvDataDir = "ODEV_AI_DATA_DIR"

const schema = `
CREATE TABLE IF NOT EXISTS secrets (
	name       TEXT NOT NULL,
	scope      TEXT NOT NULL,
	value      TEXT NOT NULL,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL,
	UNIQUE (name, scope)
);`

// Store persists named secrets in a SQLite database restricted to the
// owning user.
type Store struct {
	db *sql.DB
}

// Entry describes one stored secret. Values are never listed.
type Entry struct {
	Name      string
	Scope     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// DefaultPath returns the database location: $ODEV_AI_DATA_DIR/secrets.db
// when the override is set, otherwise ~/.local/share/odev/secrets.db.
func DefaultPath() (string, error) {
	if dir := os.Getenv(EnvDataDir); dir != "" {
		return filepath.Join(dir, "secrets.db"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("locating data directory: %w", err)
	}
	return filepath.Join(home, ".local", "share", "odev", "secrets.db"), nil
}

// Open opens the secrets database at path, creating the file, its parent
// directory, and the schema as needed.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening secrets database %s: %w", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing secrets database %s: %w", path, err)
	}

	// The file only exists after the first statement ran; tighten it now.
	if err := os.Chmod(path, 0o600); err != nil {
		db.Close()
		return nil, fmt.Errorf("restricting secrets database %s: %w", path, err)
	}

	return &Store{db: db}, nil
}

// Set inserts or updates the value for (name, scope).
func (s *Store) Set(name, scope, value string) error {
	now := time.Now().UTC()
	_, err := s.db.Exec(`
		INSERT INTO secrets (name, scope, value, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (name, scope)
		DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		name, scope, value, now, now)
	if err != nil {
		return fmt.Errorf("storing secret %s/%s: %w", scope, name, err)
	}
	return nil
}

// Get returns the value for (name, scope), or the empty string when no such
// secret is stored.
func (s *Store) Get(name, scope string) (string, error) {
	var value string
	err := s.db.QueryRow(
		"SELECT value FROM secrets WHERE name = ? AND scope = ?",
		name, scope).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("reading secret %s/%s: %w", scope, name, err)
	}
	return value, nil
}

// Delete removes the secret for (name, scope). Deleting an absent secret is
// not an error.
func (s *Store) Delete(name, scope string) error {
	_, err := s.db.Exec(
		"DELETE FROM secrets WHERE name = ? AND scope = ?",
		name, scope)
	if err != nil {
		return fmt.Errorf("deleting secret %s/%s: %w", scope, name, err)
	}
	return nil
}

// List returns the stored secrets ordered by scope then name.
func (s *Store) List() ([]Entry, error) {
	rows, err := s.db.Query(
		"SELECT name, scope, created_at, updated_at FROM secrets ORDER BY scope, name")
	if err != nil {
		return nil, fmt.Errorf("listing secrets: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.Name, &e.Scope, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning secret row: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing secrets: %w", err)
	}
	return entries, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}
