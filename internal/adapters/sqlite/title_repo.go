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

// TitleRequestRepository implements secondary.TitleRequestRepository
// with SQLite.
type TitleRequestRepository struct {
	db *sql.DB
}

// NewTitleRequestRepository creates a new SQLite title request repository.
func NewTitleRequestRepository(db *sql.DB) *TitleRequestRepository {
	return &TitleRequestRepository{db: db}
}

const titleSelectCols = "id, kingdom, governor_id, governor_name, alliance_tag, kind, duration_hours, status, priority, note, created_at, assigned_at, completed_at, expires_at"

// scanTitleRequest scans a title request row.
func scanTitleRequest(scanner interface {
	Scan(dest ...any) error
}) (*models.TitleRequest, error) {
	var (
		allianceTag sql.NullString
		note        sql.NullString
		assignedAt  sql.NullTime
		completedAt sql.NullTime
		expiresAt   sql.NullTime
	)

	req := &models.TitleRequest{}
	err := scanner.Scan(
		&req.ID, &req.Kingdom, &req.GovernorID, &req.GovernorName, &allianceTag,
		&req.Kind, &req.DurationHours, &req.Status, &req.Priority, &note,
		&req.CreatedAt, &assignedAt, &completedAt, &expiresAt,
	)
	if err != nil {
		return nil, err
	}

	req.AllianceTag = allianceTag.String
	req.Note = note.String
	req.AssignedAt = assignedAt.Time
	req.CompletedAt = completedAt.Time
	req.ExpiresAt = expiresAt.Time
	return req, nil
}

// Create admits a request as pending. The partial unique indexes on
// outstanding requests are the authoritative duplicate guard: a
// concurrent admission for the same requester and kind loses the race
// here and surfaces models.ErrDuplicateRequest.
func (r *TitleRequestRepository) Create(ctx context.Context, req *models.TitleRequest) (int64, error) {
	var allianceTag sql.NullString
	if req.AllianceTag != "" {
		allianceTag = sql.NullString{String: req.AllianceTag, Valid: true}
	}

	result, err := r.db.ExecContext(ctx, `
		INSERT INTO title_requests (kingdom, governor_id, governor_name, alliance_tag, kind, duration_hours, status, priority, created_at)
		VALUES (?, ?, ?, ?, ?, ?, 'pending', ?, ?)`,
		req.Kingdom, req.GovernorID, req.GovernorName, allianceTag, req.Kind, req.DurationHours, req.Priority, req.CreatedAt,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return 0, fmt.Errorf("outstanding %s request exists for this governor: %w", req.Kind, models.ErrDuplicateRequest)
		}
		return 0, fmt.Errorf("failed to create title request: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get request id: %w", err)
	}
	return id, nil
}

// GetByID retrieves a request by its ID.
func (r *TitleRequestRepository) GetByID(ctx context.Context, id int64) (*models.TitleRequest, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+titleSelectCols+" FROM title_requests WHERE id = ?", id)

	req, err := scanTitleRequest(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("title request %d: %w", id, models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get title request: %w", err)
	}
	return req, nil
}

// HasOutstanding reports whether a pending|assigned request exists for
// the governor and kind. Requests from unresolved governors carry id 0
// and are matched case-insensitively by name instead.
func (r *TitleRequestRepository) HasOutstanding(ctx context.Context, kingdom int, governorID int64, governorName string, kind models.TitleKind) (bool, error) {
	query := "SELECT COUNT(*) FROM title_requests WHERE kingdom = ? AND kind = ? AND status IN ('pending', 'assigned')"
	args := []any{kingdom, kind}

	if governorID > 0 {
		query += " AND governor_id = ?"
		args = append(args, governorID)
	} else {
		query += " AND governor_id = 0 AND LOWER(governor_name) = LOWER(?)"
		args = append(args, governorName)
	}

	var count int
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return false, fmt.Errorf("failed to check outstanding requests: %w", err)
	}
	return count > 0, nil
}

// List returns queue entries in assignment order.
func (r *TitleRequestRepository) List(ctx context.Context, kingdom int, filters secondary.TitleFilters) ([]*models.TitleRequest, error) {
	query := "SELECT " + titleSelectCols + " FROM title_requests WHERE kingdom = ?"
	args := []any{kingdom}

	if filters.Status != "" {
		query += " AND status = ?"
		args = append(args, filters.Status)
	} else {
		query += " AND status IN ('pending', 'assigned')"
	}

	query += " ORDER BY priority DESC, created_at ASC"
	if filters.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filters.Limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list title requests: %w", err)
	}
	defer rows.Close()

	var requests []*models.TitleRequest
	for rows.Next() {
		req, err := scanTitleRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan title request: %w", err)
		}
		requests = append(requests, req)
	}
	return requests, rows.Err()
}

// QueuePosition returns the 1-based position of a pending request
// within its kingdom's assignment order.
func (r *TitleRequestRepository) QueuePosition(ctx context.Context, kingdom int, id int64) (int, error) {
	req, err := r.GetByID(ctx, id)
	if err != nil {
		return 0, err
	}

	var ahead int
	err = r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM title_requests
		WHERE kingdom = ? AND status = 'pending'
		AND (priority > ? OR (priority = ? AND created_at < ?))`,
		kingdom, req.Priority, req.Priority, req.CreatedAt,
	).Scan(&ahead)
	if err != nil {
		return 0, fmt.Errorf("failed to compute queue position: %w", err)
	}
	return ahead + 1, nil
}

// TakeNext transactionally assigns the next eligible request.
//
// This is the serialization point that maps the FIFO/priority queue
// onto the single physical agent: the whole walk runs in one
// transaction, every candidate's ban is re-checked at assignment time
// (a ban issued after admission still blocks here), banned candidates
// are cancelled with the banned-before-assignment note and returned as
// skipped, and at most one request per kingdom ends up assigned. An
// assigned request whose agent went silent before recycleBefore is
// re-offered instead of blocking the queue forever.
func (r *TitleRequestRepository) TakeNext(ctx context.Context, kingdom int, now time.Time, recycleBefore time.Time) (*models.TitleRequest, bool, []*models.TitleRequest, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, false, nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// In-flight slot check, with stale-assignment recycling.
	row := tx.QueryRowContext(ctx,
		"SELECT "+titleSelectCols+" FROM title_requests WHERE kingdom = ? AND status = 'assigned' ORDER BY assigned_at ASC LIMIT 1",
		kingdom)
	inflight, err := scanTitleRequest(row)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil, fmt.Errorf("failed to check in-flight request: %w", err)
	}
	if inflight != nil {
		if !inflight.AssignedAt.Before(recycleBefore) {
			return nil, false, nil, models.ErrNoRequest
		}
		// The agent that took this one crashed or lost connectivity.
		if _, err := tx.ExecContext(ctx,
			"UPDATE title_requests SET assigned_at = ? WHERE id = ? AND status = 'assigned'",
			now, inflight.ID); err != nil {
			return nil, false, nil, fmt.Errorf("failed to recycle assignment: %w", err)
		}
		if err := tx.Commit(); err != nil {
			return nil, false, nil, fmt.Errorf("failed to commit recycle: %w", err)
		}
		inflight.AssignedAt = now
		return inflight, true, nil, nil
	}

	candidates, err := r.pendingCandidates(ctx, tx, kingdom)
	if err != nil {
		return nil, false, nil, err
	}

	var skipped []*models.TitleRequest
	for _, candidate := range candidates {
		banned, err := r.isBannedTx(ctx, tx, kingdom, candidate.GovernorID, now)
		if err != nil {
			return nil, false, nil, err
		}
		if banned {
			if _, err := tx.ExecContext(ctx,
				"UPDATE title_requests SET status = 'cancelled', note = ? WHERE id = ? AND status = 'pending'",
				models.NoteBannedBeforeAssignment, candidate.ID); err != nil {
				return nil, false, nil, fmt.Errorf("failed to cancel banned request: %w", err)
			}
			candidate.Status = models.TitleCancelled
			candidate.Note = models.NoteBannedBeforeAssignment
			skipped = append(skipped, candidate)
			continue
		}

		result, err := tx.ExecContext(ctx,
			"UPDATE title_requests SET status = 'assigned', assigned_at = ? WHERE id = ? AND status = 'pending'",
			now, candidate.ID)
		if err != nil {
			return nil, false, nil, fmt.Errorf("failed to assign request: %w", err)
		}
		if n, _ := result.RowsAffected(); n == 0 {
			continue
		}

		if err := tx.Commit(); err != nil {
			return nil, false, nil, fmt.Errorf("failed to commit assignment: %w", err)
		}
		candidate.Status = models.TitleAssigned
		candidate.AssignedAt = now
		return candidate, false, skipped, nil
	}

	// Commit so auto-cancellations of banned entries stick even when
	// nothing was assignable.
	if err := tx.Commit(); err != nil {
		return nil, false, nil, fmt.Errorf("failed to commit queue walk: %w", err)
	}
	return nil, false, skipped, models.ErrNoRequest
}

// pendingCandidates loads the pending queue in assignment order. The
// rows are materialized before the walk so updates do not interleave
// with an open cursor.
func (r *TitleRequestRepository) pendingCandidates(ctx context.Context, tx *sql.Tx, kingdom int) ([]*models.TitleRequest, error) {
	rows, err := tx.QueryContext(ctx,
		"SELECT "+titleSelectCols+" FROM title_requests WHERE kingdom = ? AND status = 'pending' ORDER BY priority DESC, created_at ASC",
		kingdom)
	if err != nil {
		return nil, fmt.Errorf("failed to load pending requests: %w", err)
	}
	defer rows.Close()

	var candidates []*models.TitleRequest
	for rows.Next() {
		req, err := scanTitleRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan pending request: %w", err)
		}
		candidates = append(candidates, req)
	}
	return candidates, rows.Err()
}

// isBannedTx evaluates the ban filter inside the assignment
// transaction. Expired bans are lapsed in place.
func (r *TitleRequestRepository) isBannedTx(ctx context.Context, tx *sql.Tx, kingdom int, governorID int64, now time.Time) (bool, error) {
	if governorID == 0 {
		return false, nil
	}

	rows, err := tx.QueryContext(ctx,
		"SELECT id, expires_at FROM player_bans WHERE kingdom = ? AND governor_id = ? AND active = 1 AND ban_type IN ('titles', 'all')",
		kingdom, governorID)
	if err != nil {
		return false, fmt.Errorf("failed to check bans: %w", err)
	}
	defer rows.Close()

	var blocking bool
	var expired []int64
	for rows.Next() {
		var id int64
		var expiresAt sql.NullTime
		if err := rows.Scan(&id, &expiresAt); err != nil {
			return false, fmt.Errorf("failed to scan ban: %w", err)
		}
		if expiresAt.Valid && expiresAt.Time.Before(now) {
			expired = append(expired, id)
			continue
		}
		blocking = true
	}
	if err := rows.Err(); err != nil {
		return false, err
	}

	for _, id := range expired {
		if _, err := tx.ExecContext(ctx, "UPDATE player_bans SET active = 0 WHERE id = ?", id); err != nil {
			return false, fmt.Errorf("failed to lapse expired ban: %w", err)
		}
	}
	return blocking, nil
}

// UpdateOutcome moves an assigned request to a terminal outcome. The
// status guard makes the update atomic: a duplicate report from a
// retrying agent finds no assigned row and fails cleanly.
func (r *TitleRequestRepository) UpdateOutcome(ctx context.Context, id int64, status models.TitleStatus, note string, now time.Time, expiresAt time.Time) error {
	var noteVal, expiresVal any
	if note != "" {
		noteVal = note
	}
	if !expiresAt.IsZero() {
		expiresVal = expiresAt
	}

	result, err := r.db.ExecContext(ctx,
		"UPDATE title_requests SET status = ?, note = ?, completed_at = ?, expires_at = ? WHERE id = ? AND status = 'assigned'",
		status, noteVal, now, expiresVal, id)
	if err != nil {
		return fmt.Errorf("failed to record outcome: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("title request %d is not assigned: %w", id, models.ErrNotFound)
	}
	return nil
}

// Cancel moves a pending request to cancelled.
func (r *TitleRequestRepository) Cancel(ctx context.Context, id int64, note string) error {
	result, err := r.db.ExecContext(ctx,
		"UPDATE title_requests SET status = 'cancelled', note = ? WHERE id = ? AND status = 'pending'",
		note, id)
	if err != nil {
		return fmt.Errorf("failed to cancel request: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("title request %d is not pending: %w", id, models.ErrNotFound)
	}
	return nil
}

// Clear bulk-cancels requests in scope. Terminal requests, completed
// ones in particular, are never touched.
func (r *TitleRequestRepository) Clear(ctx context.Context, kingdom int, scope secondary.ClearScope) (int64, error) {
	query := "UPDATE title_requests SET status = 'cancelled', note = 'cleared by owner' WHERE kingdom = ?"
	switch scope {
	case secondary.ClearAll:
		query += " AND status IN ('pending', 'assigned')"
	case secondary.ClearPending:
		query += " AND status = 'pending'"
	default:
		return 0, fmt.Errorf("%w: unknown clear scope %q", models.ErrInvalidInput, scope)
	}

	result, err := r.db.ExecContext(ctx, query, kingdom)
	if err != nil {
		return 0, fmt.Errorf("failed to clear queue: %w", err)
	}
	n, _ := result.RowsAffected()
	return n, nil
}

// Stats returns dashboard counters for a kingdom's queue.
func (r *TitleRequestRepository) Stats(ctx context.Context, kingdom int, startOfDay time.Time) (*secondary.TitleStats, error) {
	stats := &secondary.TitleStats{}
	err := r.db.QueryRowContext(ctx, `
		SELECT
			COUNT(CASE WHEN status = 'pending' THEN 1 END),
			COUNT(CASE WHEN status = 'assigned' THEN 1 END),
			COUNT(CASE WHEN status = 'completed' AND completed_at >= ? THEN 1 END)
		FROM title_requests WHERE kingdom = ?`,
		startOfDay, kingdom,
	).Scan(&stats.Pending, &stats.Assigned, &stats.CompletedToday)
	if err != nil {
		return nil, fmt.Errorf("failed to compute title stats: %w", err)
	}
	return stats, nil
}

// Ensure TitleRequestRepository implements the interface
var _ secondary.TitleRequestRepository = (*TitleRequestRepository)(nil)
