package db_test

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/example/warden/internal/db"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	database, err := db.Open(filepath.Join(t.TempDir(), "warden.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	return database
}

// Holding several connections open at once forces the pool to dial new
// ones; each must carry the DSN options, not just the first.
func TestOpen_OptionsApplyToEveryConnection(t *testing.T) {
	database := openTestDB(t)
	ctx := context.Background()

	var conns []*sql.Conn
	defer func() {
		for _, c := range conns {
			c.Close()
		}
	}()

	for i := 0; i < 3; i++ {
		conn, err := database.Conn(ctx)
		if err != nil {
			t.Fatalf("Conn %d failed: %v", i, err)
		}
		conns = append(conns, conn)

		var fk int
		if err := conn.QueryRowContext(ctx, "PRAGMA foreign_keys").Scan(&fk); err != nil {
			t.Fatalf("conn %d: foreign_keys query failed: %v", i, err)
		}
		if fk != 1 {
			t.Errorf("conn %d: foreign_keys = %d, want 1", i, fk)
		}

		var mode string
		if err := conn.QueryRowContext(ctx, "PRAGMA journal_mode").Scan(&mode); err != nil {
			t.Fatalf("conn %d: journal_mode query failed: %v", i, err)
		}
		if mode != "wal" {
			t.Errorf("conn %d: journal_mode = %q, want wal", i, mode)
		}

		var timeout int
		if err := conn.QueryRowContext(ctx, "PRAGMA busy_timeout").Scan(&timeout); err != nil {
			t.Fatalf("conn %d: busy_timeout query failed: %v", i, err)
		}
		if timeout != 5000 {
			t.Errorf("conn %d: busy_timeout = %d, want 5000", i, timeout)
		}
	}
}

func TestOpen_ForeignKeysEnforced(t *testing.T) {
	database := openTestDB(t)

	_, err := database.Exec(
		"INSERT INTO bot_modes (kingdom, mode, updated_at) VALUES (999, 'idle', CURRENT_TIMESTAMP)")
	if err == nil {
		t.Fatal("expected a foreign key violation for an unknown kingdom")
	}
}
