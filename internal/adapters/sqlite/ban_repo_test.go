package sqlite_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/warden/internal/adapters/sqlite"
	"github.com/example/warden/internal/models"
)

func TestBanRepository_Create(t *testing.T) {
	db := setupTestDB(t)
	repo := sqlite.NewBanRepository(db)
	ctx := context.Background()
	seedKingdom(t, db, testKingdom)

	id, err := repo.Create(ctx, &models.Ban{
		Kingdom:      testKingdom,
		GovernorID:   11111,
		GovernorName: "Troll",
		Type:         models.BanTitles,
		Reason:       "title trolling",
		BannedBy:     "owner",
		CreatedAt:    time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if id == 0 {
		t.Error("expected a ban id")
	}
}

func TestBanRepository_Create_DuplicateActive(t *testing.T) {
	db := setupTestDB(t)
	repo := sqlite.NewBanRepository(db)
	ctx := context.Background()
	seedBan(t, db, testKingdom, 11111, models.BanTitles, time.Time{})

	_, err := repo.Create(ctx, &models.Ban{
		Kingdom:      testKingdom,
		GovernorID:   11111,
		GovernorName: "Troll",
		Type:         models.BanTitles,
		CreatedAt:    time.Now().UTC(),
	})
	if !errors.Is(err, models.ErrAlreadyBanned) {
		t.Errorf("expected ErrAlreadyBanned, got %v", err)
	}
}

func TestBanRepository_Deactivate(t *testing.T) {
	db := setupTestDB(t)
	repo := sqlite.NewBanRepository(db)
	ctx := context.Background()

	id := seedBan(t, db, testKingdom, 11111, models.BanTitles, time.Time{})
	if err := repo.Deactivate(ctx, testKingdom, id); err != nil {
		t.Fatalf("Deactivate failed: %v", err)
	}

	// The row survives as an audit record.
	var active int
	if err := db.QueryRow("SELECT active FROM player_bans WHERE id = ?", id).Scan(&active); err != nil {
		t.Fatalf("lookup failed: %v", err)
	}
	if active != 0 {
		t.Error("expected ban deactivated")
	}

	if err := repo.Deactivate(ctx, testKingdom, id); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("expected ErrNotFound on second deactivate, got %v", err)
	}
}

func TestBanRepository_List_OnlyActive(t *testing.T) {
	db := setupTestDB(t)
	repo := sqlite.NewBanRepository(db)
	ctx := context.Background()

	seedBan(t, db, testKingdom, 1, models.BanTitles, time.Time{})
	inactive := seedBan(t, db, testKingdom, 2, models.BanAll, time.Time{})
	if err := repo.Deactivate(ctx, testKingdom, inactive); err != nil {
		t.Fatalf("Deactivate failed: %v", err)
	}

	bans, err := repo.List(ctx, testKingdom)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(bans) != 1 {
		t.Fatalf("expected 1 active ban, got %d", len(bans))
	}
	if bans[0].GovernorID != 1 {
		t.Errorf("unexpected ban: %+v", bans[0])
	}
}

func TestBanRepository_FindBlocking(t *testing.T) {
	db := setupTestDB(t)
	repo := sqlite.NewBanRepository(db)
	ctx := context.Background()
	now := time.Now().UTC()

	seedBan(t, db, testKingdom, 11111, models.BanTitles, time.Time{})

	ban, err := repo.FindBlocking(ctx, testKingdom, 11111, models.TitleDuke, now)
	if err != nil {
		t.Fatalf("FindBlocking failed: %v", err)
	}
	if ban == nil {
		t.Fatal("expected a blocking ban")
	}

	ban, err = repo.FindBlocking(ctx, testKingdom, 99999, models.TitleDuke, now)
	if err != nil {
		t.Fatalf("FindBlocking failed: %v", err)
	}
	if ban != nil {
		t.Errorf("expected no ban for clean governor, got %+v", ban)
	}
}

func TestBanRepository_FindBlocking_AllTypeBlocksTitles(t *testing.T) {
	db := setupTestDB(t)
	repo := sqlite.NewBanRepository(db)
	ctx := context.Background()

	seedBan(t, db, testKingdom, 11111, models.BanAll, time.Time{})

	ban, err := repo.FindBlocking(ctx, testKingdom, 11111, models.TitleScientist, time.Now().UTC())
	if err != nil {
		t.Fatalf("FindBlocking failed: %v", err)
	}
	if ban == nil {
		t.Error("expected the all-type ban to block title requests")
	}
}

func TestBanRepository_FindBlocking_LapsesExpired(t *testing.T) {
	db := setupTestDB(t)
	repo := sqlite.NewBanRepository(db)
	ctx := context.Background()
	now := time.Now().UTC()

	id := seedBan(t, db, testKingdom, 11111, models.BanTitles, now.Add(-time.Hour))

	ban, err := repo.FindBlocking(ctx, testKingdom, 11111, models.TitleDuke, now)
	if err != nil {
		t.Fatalf("FindBlocking failed: %v", err)
	}
	if ban != nil {
		t.Errorf("expected lapsed ban not to block, got %+v", ban)
	}

	var active int
	if err := db.QueryRow("SELECT active FROM player_bans WHERE id = ?", id).Scan(&active); err != nil {
		t.Fatalf("lookup failed: %v", err)
	}
	if active != 0 {
		t.Error("expected lapsed ban deactivated in passing")
	}
}
