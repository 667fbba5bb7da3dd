// Package db owns the SQLite connection and the authoritative schema.
package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

// Open opens (creating if needed) the warden database at the given
// path and initializes the schema. The control plane keeps all shared
// state here so the server can restart without losing in-flight state.
func Open(path string) (*sql.DB, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// Connection options ride on the DSN so every pooled connection
	// carries them; a PRAGMA issued through the pool would only reach
	// one. WAL lets agent polls read while owner writes commit, the
	// busy timeout covers the per-kingdom write serialization window,
	// and immediate transactions take the write lock up front so
	// concurrent read-modify-write sections queue on busy_timeout
	// instead of failing on a stale snapshot.
	dsn := fmt.Sprintf("file:%s?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000&_txlock=immediate", path)
	database, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := database.Exec(SchemaSQL); err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return database, nil
}

// GetSchemaSQL returns the authoritative schema. Tests must build
// their databases from this, never from hardcoded CREATE TABLE text.
func GetSchemaSQL() string {
	return SchemaSQL
}
