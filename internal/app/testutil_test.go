package app

import (
	"database/sql"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/example/warden/internal/adapters/sqlite"
	"github.com/example/warden/internal/db"
)

const testKingdom = 3328

// fixture wires the services against a fresh in-memory database with a
// controllable clock.
type fixture struct {
	db      *sql.DB
	control *ControlServiceImpl
	titles  *TitleServiceImpl
	bans    *BanServiceImpl
	imports *ImportServiceImpl
	now     time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	testDB, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	if _, err := testDB.Exec(db.GetSchemaSQL()); err != nil {
		t.Fatalf("failed to create schema: %v", err)
	}
	t.Cleanup(func() { testDB.Close() })

	logger := zap.NewNop()
	controlRepo := sqlite.NewControlRepository(testDB)
	titleRepo := sqlite.NewTitleRequestRepository(testDB)
	banRepo := sqlite.NewBanRepository(testDB)
	ingestRepo := sqlite.NewIngestRepository(testDB)

	f := &fixture{
		db:      testDB,
		control: NewControlService(controlRepo, 15*time.Second, logger),
		titles:  NewTitleService(titleRepo, banRepo, controlRepo, 180*time.Second, true, logger),
		bans:    NewBanService(banRepo, controlRepo, logger),
		imports: NewImportService(ingestRepo, testKingdom, logger),
		now:     time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC),
	}

	clock := func() time.Time { return f.now }
	f.control.now = clock
	f.titles.now = clock
	f.bans.now = clock
	f.imports.now = clock
	return f
}

// advance moves the fixture clock forward.
func (f *fixture) advance(d time.Duration) {
	f.now = f.now.Add(d)
}
