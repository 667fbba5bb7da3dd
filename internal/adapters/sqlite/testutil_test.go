// Package sqlite_test contains integration tests for SQLite repositories.
//
// # Schema Protection
//
// This file is the SINGLE POINT where the database schema is loaded for
// tests. All test setup uses db.GetSchemaSQL() so tests run against the
// authoritative schema, preventing drift between test and production.
//
// DO NOT hardcode CREATE TABLE statements in test files. Use
// setupTestDB() and the seed* helpers instead.
package sqlite_test

import (
	"database/sql"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/example/warden/internal/db"
	"github.com/example/warden/internal/models"
)

const testKingdom = 3328

// setupTestDB creates an in-memory database with the authoritative schema.
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	testDB, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}

	if _, err := testDB.Exec(db.GetSchemaSQL()); err != nil {
		t.Fatalf("failed to create schema: %v", err)
	}

	t.Cleanup(func() {
		testDB.Close()
	})

	return testDB
}

// seedKingdom inserts a kingdom row.
func seedKingdom(t *testing.T, db *sql.DB, number int) {
	t.Helper()
	if _, err := db.Exec("INSERT OR IGNORE INTO kingdoms (number) VALUES (?)", number); err != nil {
		t.Fatalf("failed to seed kingdom: %v", err)
	}
}

// seedTitleRequest inserts a title request and returns its ID.
func seedTitleRequest(t *testing.T, db *sql.DB, kingdom int, governorID int64, name string, kind models.TitleKind, status models.TitleStatus, priority int, createdAt time.Time) int64 {
	t.Helper()
	seedKingdom(t, db, kingdom)

	result, err := db.Exec(`
		INSERT INTO title_requests (kingdom, governor_id, governor_name, kind, duration_hours, status, priority, created_at)
		VALUES (?, ?, ?, ?, 24, ?, ?, ?)`,
		kingdom, governorID, name, kind, status, priority, createdAt)
	if err != nil {
		t.Fatalf("failed to seed title request: %v", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		t.Fatalf("failed to get seeded request id: %v", err)
	}
	return id
}

// seedBan inserts an active ban and returns its ID.
func seedBan(t *testing.T, db *sql.DB, kingdom int, governorID int64, banType models.BanType, expiresAt time.Time) int64 {
	t.Helper()
	seedKingdom(t, db, kingdom)

	var expires any
	if !expiresAt.IsZero() {
		expires = expiresAt
	}
	result, err := db.Exec(`
		INSERT INTO player_bans (kingdom, governor_id, governor_name, ban_type, active, created_at, expires_at)
		VALUES (?, ?, 'Seeded', ?, 1, ?, ?)`,
		kingdom, governorID, banType, time.Now().UTC(), expires)
	if err != nil {
		t.Fatalf("failed to seed ban: %v", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		t.Fatalf("failed to get seeded ban id: %v", err)
	}
	return id
}
