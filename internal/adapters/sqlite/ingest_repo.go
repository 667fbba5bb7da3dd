package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/example/warden/internal/models"
	"github.com/example/warden/internal/ports/secondary"
)

// IngestRepository implements secondary.IngestRepository with SQLite.
type IngestRepository struct {
	db *sql.DB
}

// NewIngestRepository creates a new SQLite ingest repository.
func NewIngestRepository(db *sql.DB) *IngestRepository {
	return &IngestRepository{db: db}
}

// FingerprintExists reports whether this scan was already imported.
func (r *IngestRepository) FingerprintExists(ctx context.Context, fingerprint string) (bool, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM ingest_files WHERE fingerprint = ?", fingerprint,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check fingerprint: %w", err)
	}
	return count > 0, nil
}

// ImportSnapshot writes the ingest record and merges the governor rows
// into the stats store as one immutable snapshot, all in a single
// transaction. The UNIQUE fingerprint constraint is the authoritative
// at-most-once guard: a concurrent import of the same file loses the
// race and surfaces models.ErrDuplicateImport.
func (r *IngestRepository) ImportSnapshot(ctx context.Context, file *models.IngestFile, rows []models.GovernorRow, now time.Time) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "INSERT OR IGNORE INTO kingdoms (number) VALUES (?)", file.Kingdom); err != nil {
		return fmt.Errorf("failed to ensure kingdom: %w", err)
	}

	result, err := tx.ExecContext(ctx, `
		INSERT INTO ingest_files (kingdom, scan_type, source_file, fingerprint, snapshot_id, record_count, imported_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		file.Kingdom, file.ScanType, file.SourceFile, file.Fingerprint, file.SnapshotID, len(rows), now,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed: ingest_files.fingerprint") {
			return models.ErrDuplicateImport
		}
		return fmt.Errorf("failed to record ingest file: %w", err)
	}
	ingestID, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get ingest id: %w", err)
	}

	for _, row := range rows {
		if err := r.mergeGovernor(ctx, tx, file.Kingdom, ingestID, row, now); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit import: %w", err)
	}
	file.ID = ingestID
	file.RecordCount = len(rows)
	file.ImportedAt = now
	return nil
}

// mergeGovernor upserts the governor master record, tracks name
// changes, and appends the snapshot row.
func (r *IngestRepository) mergeGovernor(ctx context.Context, tx *sql.Tx, kingdom int, ingestID int64, row models.GovernorRow, now time.Time) error {
	var currentName string
	err := tx.QueryRowContext(ctx,
		"SELECT name FROM governors WHERE governor_id = ?", row.GovernorID,
	).Scan(&currentName)

	var alliance sql.NullString
	if row.AllianceName != "" {
		alliance = sql.NullString{String: row.AllianceName, Valid: true}
	}

	switch {
	case errors.Is(err, sql.ErrNoRows):
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO governors (governor_id, name, alliance_name, kingdom) VALUES (?, ?, ?, ?)",
			row.GovernorID, row.GovernorName, alliance, kingdom); err != nil {
			return fmt.Errorf("failed to create governor %d: %w", row.GovernorID, err)
		}
	case err != nil:
		return fmt.Errorf("failed to look up governor %d: %w", row.GovernorID, err)
	default:
		if strings.TrimSpace(currentName) != strings.TrimSpace(row.GovernorName) && row.GovernorName != "" {
			if _, err := tx.ExecContext(ctx,
				"INSERT INTO governor_name_history (governor_id, old_name, new_name, ingest_file_id, changed_at) VALUES (?, ?, ?, ?, ?)",
				row.GovernorID, currentName, row.GovernorName, ingestID, now); err != nil {
				return fmt.Errorf("failed to record name change: %w", err)
			}
		}
		if _, err := tx.ExecContext(ctx,
			"UPDATE governors SET name = ?, alliance_name = COALESCE(?, alliance_name) WHERE governor_id = ?",
			row.GovernorName, alliance, row.GovernorID); err != nil {
			return fmt.Errorf("failed to update governor %d: %w", row.GovernorID, err)
		}
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO governor_snapshots (governor_id, ingest_file_id, power, kill_points, t1_kills, t2_kills, t3_kills, t4_kills, t5_kills, dead, rss_gathered, rss_assistance, helps, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		row.GovernorID, ingestID, row.Power, row.KillPoints,
		row.T1Kills, row.T2Kills, row.T3Kills, row.T4Kills, row.T5Kills,
		row.Dead, row.RssGathered, row.RssAssistance, row.Helps, now,
	)
	if err != nil {
		return fmt.Errorf("failed to insert snapshot for governor %d: %w", row.GovernorID, err)
	}
	return nil
}

// Ensure IngestRepository implements the interface
var _ secondary.IngestRepository = (*IngestRepository)(nil)
