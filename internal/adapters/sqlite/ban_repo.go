package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/example/warden/internal/models"
	"github.com/example/warden/internal/ports/secondary"
)

// BanRepository implements secondary.BanRepository with SQLite.
type BanRepository struct {
	db *sql.DB
}

// NewBanRepository creates a new SQLite ban repository.
func NewBanRepository(db *sql.DB) *BanRepository {
	return &BanRepository{db: db}
}

const banSelectCols = "id, kingdom, governor_id, governor_name, ban_type, reason, banned_by, active, created_at, expires_at"

func scanBan(scanner interface {
	Scan(dest ...any) error
}) (*models.Ban, error) {
	var (
		reason    sql.NullString
		bannedBy  sql.NullString
		expiresAt sql.NullTime
	)

	ban := &models.Ban{}
	err := scanner.Scan(
		&ban.ID, &ban.Kingdom, &ban.GovernorID, &ban.GovernorName,
		&ban.Type, &reason, &bannedBy, &ban.Active, &ban.CreatedAt, &expiresAt,
	)
	if err != nil {
		return nil, err
	}

	ban.Reason = reason.String
	ban.BannedBy = bannedBy.String
	ban.ExpiresAt = expiresAt.Time
	return ban, nil
}

// Create adds a ban unless an active one for the same (governor, type)
// already exists.
func (r *BanRepository) Create(ctx context.Context, ban *models.Ban) (int64, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM player_bans WHERE kingdom = ? AND governor_id = ? AND ban_type = ? AND active = 1",
		ban.Kingdom, ban.GovernorID, ban.Type,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to check existing ban: %w", err)
	}
	if count > 0 {
		return 0, models.ErrAlreadyBanned
	}

	var reason, bannedBy sql.NullString
	var expiresAt sql.NullTime
	if ban.Reason != "" {
		reason = sql.NullString{String: ban.Reason, Valid: true}
	}
	if ban.BannedBy != "" {
		bannedBy = sql.NullString{String: ban.BannedBy, Valid: true}
	}
	if !ban.ExpiresAt.IsZero() {
		expiresAt = sql.NullTime{Time: ban.ExpiresAt, Valid: true}
	}

	result, err := r.db.ExecContext(ctx, `
		INSERT INTO player_bans (kingdom, governor_id, governor_name, ban_type, reason, banned_by, active, created_at, expires_at)
		VALUES (?, ?, ?, ?, ?, ?, 1, ?, ?)`,
		ban.Kingdom, ban.GovernorID, ban.GovernorName, ban.Type, reason, bannedBy, ban.CreatedAt, expiresAt,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to create ban: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get ban id: %w", err)
	}
	return id, nil
}

// Deactivate removes a ban by id (soft delete, audit trail kept).
func (r *BanRepository) Deactivate(ctx context.Context, kingdom int, id int64) error {
	result, err := r.db.ExecContext(ctx,
		"UPDATE player_bans SET active = 0 WHERE id = ? AND kingdom = ? AND active = 1",
		id, kingdom)
	if err != nil {
		return fmt.Errorf("failed to deactivate ban: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("ban %d: %w", id, models.ErrNotFound)
	}
	return nil
}

// List returns the active bans for a kingdom, newest first.
func (r *BanRepository) List(ctx context.Context, kingdom int) ([]*models.Ban, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+banSelectCols+" FROM player_bans WHERE kingdom = ? AND active = 1 ORDER BY created_at DESC",
		kingdom)
	if err != nil {
		return nil, fmt.Errorf("failed to list bans: %w", err)
	}
	defer rows.Close()

	var bans []*models.Ban
	for rows.Next() {
		ban, err := scanBan(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan ban: %w", err)
		}
		bans = append(bans, ban)
	}
	return bans, rows.Err()
}

// FindBlocking returns the active ban suppressing the governor for the
// given title kind, or nil. A ban that lapsed is deactivated on the
// way through so it stops matching without an owner action.
func (r *BanRepository) FindBlocking(ctx context.Context, kingdom int, governorID int64, kind models.TitleKind, now time.Time) (*models.Ban, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+banSelectCols+" FROM player_bans WHERE kingdom = ? AND governor_id = ? AND active = 1 AND ban_type IN ('titles', 'all')",
		kingdom, governorID)
	if err != nil {
		return nil, fmt.Errorf("failed to find bans: %w", err)
	}
	defer rows.Close()

	var blocking *models.Ban
	var expired []int64
	for rows.Next() {
		ban, err := scanBan(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan ban: %w", err)
		}
		if ban.Expired(now) {
			expired = append(expired, ban.ID)
			continue
		}
		if blocking == nil && ban.Blocks(kind, now) {
			blocking = ban
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, id := range expired {
		if _, err := r.db.ExecContext(ctx, "UPDATE player_bans SET active = 0 WHERE id = ?", id); err != nil {
			return nil, fmt.Errorf("failed to lapse expired ban: %w", err)
		}
	}
	return blocking, nil
}

// Ensure BanRepository implements the interface
var _ secondary.BanRepository = (*BanRepository)(nil)
