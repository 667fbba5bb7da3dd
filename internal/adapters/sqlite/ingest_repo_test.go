package sqlite_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/warden/internal/adapters/sqlite"
	"github.com/example/warden/internal/models"
)

func testIngestFile(fingerprint, snapshotID string) *models.IngestFile {
	return &models.IngestFile{
		Kingdom:     testKingdom,
		ScanType:    models.ScanKingdom,
		SourceFile:  "TOP250-2025-12-29-3328-[gs1dp0ow].csv",
		Fingerprint: fingerprint,
		SnapshotID:  snapshotID,
	}
}

func TestIngestRepository_ImportSnapshot(t *testing.T) {
	db := setupTestDB(t)
	repo := sqlite.NewIngestRepository(db)
	ctx := context.Background()
	now := time.Now().UTC()

	rows := []models.GovernorRow{
		{GovernorID: 11111, GovernorName: "Alice", AllianceName: "KoA", Power: 50_000_000, KillPoints: 1_200_000},
		{GovernorID: 22222, GovernorName: "Bob", Power: 30_000_000},
	}
	file := testIngestFile("fp-1", "snap-1")
	if err := repo.ImportSnapshot(ctx, file, rows, now); err != nil {
		t.Fatalf("ImportSnapshot failed: %v", err)
	}
	if file.ID == 0 || file.RecordCount != 2 {
		t.Errorf("expected file metadata populated, got %+v", file)
	}

	exists, err := repo.FingerprintExists(ctx, "fp-1")
	if err != nil {
		t.Fatalf("FingerprintExists failed: %v", err)
	}
	if !exists {
		t.Error("expected fingerprint recorded")
	}

	var governors, snapshots int
	if err := db.QueryRow("SELECT COUNT(*) FROM governors").Scan(&governors); err != nil {
		t.Fatalf("count governors failed: %v", err)
	}
	if err := db.QueryRow("SELECT COUNT(*) FROM governor_snapshots").Scan(&snapshots); err != nil {
		t.Fatalf("count snapshots failed: %v", err)
	}
	if governors != 2 || snapshots != 2 {
		t.Errorf("expected 2 governors and 2 snapshots, got %d/%d", governors, snapshots)
	}
}

func TestIngestRepository_ImportSnapshot_DuplicateFingerprint(t *testing.T) {
	db := setupTestDB(t)
	repo := sqlite.NewIngestRepository(db)
	ctx := context.Background()
	now := time.Now().UTC()

	rows := []models.GovernorRow{{GovernorID: 11111, GovernorName: "Alice"}}
	if err := repo.ImportSnapshot(ctx, testIngestFile("fp-dup", "snap-1"), rows, now); err != nil {
		t.Fatalf("first ImportSnapshot failed: %v", err)
	}

	err := repo.ImportSnapshot(ctx, testIngestFile("fp-dup", "snap-2"), rows, now)
	if !errors.Is(err, models.ErrDuplicateImport) {
		t.Errorf("expected ErrDuplicateImport, got %v", err)
	}

	// The losing import must leave no partial snapshot behind.
	var snapshots int
	if err := db.QueryRow("SELECT COUNT(*) FROM governor_snapshots").Scan(&snapshots); err != nil {
		t.Fatalf("count snapshots failed: %v", err)
	}
	if snapshots != 1 {
		t.Errorf("expected 1 snapshot row, got %d", snapshots)
	}
}

func TestIngestRepository_ImportSnapshot_TracksNameChanges(t *testing.T) {
	db := setupTestDB(t)
	repo := sqlite.NewIngestRepository(db)
	ctx := context.Background()
	now := time.Now().UTC()

	first := []models.GovernorRow{{GovernorID: 11111, GovernorName: "Alice"}}
	if err := repo.ImportSnapshot(ctx, testIngestFile("fp-a", "snap-a"), first, now); err != nil {
		t.Fatalf("first import failed: %v", err)
	}

	renamed := []models.GovernorRow{{GovernorID: 11111, GovernorName: "Alicia", AllianceName: "KoA"}}
	if err := repo.ImportSnapshot(ctx, testIngestFile("fp-b", "snap-b"), renamed, now.Add(time.Hour)); err != nil {
		t.Fatalf("second import failed: %v", err)
	}

	var oldName, newName string
	err := db.QueryRow("SELECT old_name, new_name FROM governor_name_history WHERE governor_id = 11111").Scan(&oldName, &newName)
	if err != nil {
		t.Fatalf("name history lookup failed: %v", err)
	}
	if oldName != "Alice" || newName != "Alicia" {
		t.Errorf("expected Alice -> Alicia, got %s -> %s", oldName, newName)
	}

	var current string
	if err := db.QueryRow("SELECT name FROM governors WHERE governor_id = 11111").Scan(&current); err != nil {
		t.Fatalf("governor lookup failed: %v", err)
	}
	if current != "Alicia" {
		t.Errorf("expected governor renamed to Alicia, got %s", current)
	}
}
