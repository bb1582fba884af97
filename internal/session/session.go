// Package session persists explorer state between runs: which
// directories were expanded and which buffer was active.
package session

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

// DB is a session database scoped to one dust root.
type DB struct {
	conn *sql.DB
	path string
	root string
}

// Open opens or creates the session database at dbPath. State is keyed
// by root so several dust directories can share one file.
func Open(dbPath, root string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("creating session directory: %w", err)
	}

	conn, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening session database: %w", err)
	}

	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	db := &DB{conn: conn, path: dbPath, root: root}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Path returns the database file path.
func (db *DB) Path() string {
	return db.path
}

func (db *DB) migrate() error {
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER PRIMARY KEY,
			applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_version table: %w", err)
	}

	var currentVersion int
	row := db.conn.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_version")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting schema version: %w", err)
	}

	migrations := []struct {
		version int
		sql     string
	}{
		{1, migrationV1},
	}

	for _, m := range migrations {
		if m.version > currentVersion {
			if _, err := db.conn.Exec(m.sql); err != nil {
				return fmt.Errorf("migration v%d: %w", m.version, err)
			}
			if _, err := db.conn.Exec("INSERT INTO schema_version (version) VALUES (?)", m.version); err != nil {
				return fmt.Errorf("recording migration v%d: %w", m.version, err)
			}
		}
	}

	return nil
}

const migrationV1 = `
CREATE TABLE IF NOT EXISTS expanded (
    root TEXT NOT NULL,
    url TEXT NOT NULL,
    PRIMARY KEY (root, url)
);

CREATE TABLE IF NOT EXISTS state (
    root TEXT NOT NULL,
    key TEXT NOT NULL,
    value TEXT NOT NULL,
    updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    PRIMARY KEY (root, key)
);
`

const keyActiveBuffer = "active_buffer"

// SaveExpanded replaces the set of expanded directory URLs.
func (db *DB) SaveExpanded(urls []string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM expanded WHERE root = ?", db.root); err != nil {
		return fmt.Errorf("clearing expanded: %w", err)
	}
	for _, url := range urls {
		if _, err := tx.Exec("INSERT OR IGNORE INTO expanded (root, url) VALUES (?, ?)", db.root, url); err != nil {
			return fmt.Errorf("saving expanded %s: %w", url, err)
		}
	}

	return tx.Commit()
}

// Expanded returns the saved expanded directory URLs, shallowest first.
func (db *DB) Expanded() ([]string, error) {
	rows, err := db.conn.Query("SELECT url FROM expanded WHERE root = ? ORDER BY length(url), url", db.root)
	if err != nil {
		return nil, fmt.Errorf("querying expanded: %w", err)
	}
	defer rows.Close()

	var urls []string
	for rows.Next() {
		var url string
		if err := rows.Scan(&url); err != nil {
			return nil, fmt.Errorf("scanning expanded: %w", err)
		}
		urls = append(urls, url)
	}
	return urls, rows.Err()
}

// SetActiveBuffer records the active buffer URL. An empty URL clears it.
func (db *DB) SetActiveBuffer(url string) error {
	if url == "" {
		_, err := db.conn.Exec("DELETE FROM state WHERE root = ? AND key = ?", db.root, keyActiveBuffer)
		return err
	}
	_, err := db.conn.Exec(`
		INSERT INTO state (root, key, value) VALUES (?, ?, ?)
		ON CONFLICT(root, key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP
	`, db.root, keyActiveBuffer, url)
	if err != nil {
		return fmt.Errorf("saving active buffer: %w", err)
	}
	return nil
}

// ActiveBuffer returns the recorded active buffer, or "" if none.
func (db *DB) ActiveBuffer() (string, error) {
	var url string
	err := db.conn.QueryRow("SELECT value FROM state WHERE root = ? AND key = ?", db.root, keyActiveBuffer).Scan(&url)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("loading active buffer: %w", err)
	}
	return url, nil
}
