// Package sqlite contains SQLite implementations of the repository
// interfaces in ports/secondary.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/example/warden/internal/models"
	"github.com/example/warden/internal/ports/secondary"
)

// ControlRepository implements secondary.ControlRepository with SQLite.
// Mode, command and status each keep exactly one row per kingdom.
type ControlRepository struct {
	db *sql.DB
}

// NewControlRepository creates a new SQLite control repository.
func NewControlRepository(db *sql.DB) *ControlRepository {
	return &ControlRepository{db: db}
}

// EnsureKingdom creates the kingdom row on first observation.
func (r *ControlRepository) EnsureKingdom(ctx context.Context, kingdom int) error {
	_, err := r.db.ExecContext(ctx, "INSERT OR IGNORE INTO kingdoms (number) VALUES (?)", kingdom)
	if err != nil {
		return fmt.Errorf("failed to ensure kingdom %d: %w", kingdom, err)
	}
	return nil
}

// GetMode retrieves the intended mode, defaulting to idle for a
// kingdom that has never had an owner transition.
func (r *ControlRepository) GetMode(ctx context.Context, kingdom int) (*models.ModeState, error) {
	state := &models.ModeState{Kingdom: kingdom}
	var requestedBy sql.NullString

	err := r.db.QueryRowContext(ctx,
		"SELECT mode, requested_by, updated_at FROM bot_modes WHERE kingdom = ?",
		kingdom,
	).Scan(&state.Mode, &requestedBy, &state.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		state.Mode = models.ModeIdle
		return state, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get mode: %w", err)
	}

	state.RequestedBy = requestedBy.String
	return state, nil
}

// SetMode overwrites the intended mode in place.
func (r *ControlRepository) SetMode(ctx context.Context, state *models.ModeState) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO bot_modes (kingdom, mode, requested_by, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(kingdom) DO UPDATE SET
			mode = excluded.mode,
			requested_by = excluded.requested_by,
			updated_at = excluded.updated_at`,
		state.Kingdom, state.Mode, state.RequestedBy, state.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to set mode: %w", err)
	}
	return nil
}

// IssueCommand replaces any unconsumed command. Last write wins: the
// agent is only guaranteed the most recent command at poll time.
func (r *ControlRepository) IssueCommand(ctx context.Context, cmd *models.Command) error {
	var scanType, options sql.NullString
	if cmd.ScanType != "" {
		scanType = sql.NullString{String: string(cmd.ScanType), Valid: true}
	}
	if cmd.Options != "" {
		options = sql.NullString{String: cmd.Options, Valid: true}
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO bot_commands (kingdom, kind, scan_type, options, issued_at, consumed) VALUES (?, ?, ?, ?, ?, 0)
		ON CONFLICT(kingdom) DO UPDATE SET
			kind = excluded.kind,
			scan_type = excluded.scan_type,
			options = excluded.options,
			issued_at = excluded.issued_at,
			consumed = 0`,
		cmd.Kingdom, cmd.Kind, scanType, options, cmd.IssuedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to issue command: %w", err)
	}
	return nil
}

// ConsumeCommand takes the unconsumed command in a single atomic
// check-and-set. Two concurrent pollers cannot both receive it: the
// conditional UPDATE flips consumed exactly once and RETURNING hands
// the row to whichever statement won.
func (r *ControlRepository) ConsumeCommand(ctx context.Context, kingdom int) (*models.Command, error) {
	cmd := &models.Command{Kingdom: kingdom, Consumed: true}
	var scanType, options sql.NullString

	err := r.db.QueryRowContext(ctx, `
		UPDATE bot_commands SET consumed = 1
		WHERE kingdom = ? AND consumed = 0
		RETURNING kind, scan_type, options, issued_at`,
		kingdom,
	).Scan(&cmd.Kind, &scanType, &options, &cmd.IssuedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrNoCommand
	}
	if err != nil {
		return nil, fmt.Errorf("failed to consume command: %w", err)
	}

	cmd.ScanType = models.ScanType(scanType.String)
	cmd.Options = options.String
	return cmd, nil
}

// UpsertStatus records a heartbeat. The timestamp guard makes writes
// last-write-wins so a stale agent process cannot roll status back.
func (r *ControlRepository) UpsertStatus(ctx context.Context, status *models.AgentStatus) error {
	var message sql.NullString
	if status.Message != "" {
		message = sql.NullString{String: status.Message, Valid: true}
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO bot_status (kingdom, activity, message, progress, total, updated_at) VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(kingdom) DO UPDATE SET
			activity = excluded.activity,
			message = excluded.message,
			progress = excluded.progress,
			total = excluded.total,
			updated_at = excluded.updated_at
		WHERE excluded.updated_at >= bot_status.updated_at`,
		status.Kingdom, status.Activity, message, status.Progress, status.Total, status.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert status: %w", err)
	}
	return nil
}

// GetStatus returns the latest heartbeat for a kingdom.
func (r *ControlRepository) GetStatus(ctx context.Context, kingdom int) (*models.AgentStatus, error) {
	status := &models.AgentStatus{Kingdom: kingdom}
	var message sql.NullString

	err := r.db.QueryRowContext(ctx,
		"SELECT activity, message, progress, total, updated_at FROM bot_status WHERE kingdom = ?",
		kingdom,
	).Scan(&status.Activity, &message, &status.Progress, &status.Total, &status.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("no heartbeat for kingdom %d: %w", kingdom, models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get status: %w", err)
	}

	status.Message = message.String
	return status, nil
}

// Ensure ControlRepository implements the interface
var _ secondary.ControlRepository = (*ControlRepository)(nil)
