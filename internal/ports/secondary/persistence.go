// Package secondary defines the secondary ports (driven adapters) for
// the control plane. These are the interfaces through which the
// application drives durable storage.
package secondary

import (
	"context"
	"time"

	"github.com/example/warden/internal/models"
)

// ControlRepository persists the per-kingdom mode, command slot and
// agent status. All three are current-value-only records keyed by
// kingdom; every mutation is a single atomic read-modify-write.
type ControlRepository interface {
	// EnsureKingdom creates the kingdom row on first observation.
	EnsureKingdom(ctx context.Context, kingdom int) error

	// GetMode returns the intended mode, defaulting to idle for a
	// kingdom that has never had a transition.
	GetMode(ctx context.Context, kingdom int) (*models.ModeState, error)

	// SetMode overwrites the intended mode and timestamps the change.
	SetMode(ctx context.Context, state *models.ModeState) error

	// IssueCommand replaces any unconsumed command (last write wins).
	IssueCommand(ctx context.Context, cmd *models.Command) error

	// ConsumeCommand atomically takes the unconsumed command for a
	// kingdom. Concurrent pollers race on a single check-and-set;
	// losers get models.ErrNoCommand.
	ConsumeCommand(ctx context.Context, kingdom int) (*models.Command, error)

	// UpsertStatus records a heartbeat, last-write-wins by UpdatedAt.
	UpsertStatus(ctx context.Context, status *models.AgentStatus) error

	// GetStatus returns the latest heartbeat, or models.ErrNotFound
	// if the agent has never reported.
	GetStatus(ctx context.Context, kingdom int) (*models.AgentStatus, error)
}

// TitleFilters narrows queue listings.
type TitleFilters struct {
	Status models.TitleStatus // empty means pending+assigned
	Limit  int
}

// ClearScope selects which requests an administrative clear touches.
type ClearScope string

const (
	// ClearPending cancels pending requests only.
	ClearPending ClearScope = "pending"
	// ClearAll cancels every non-terminal request (pending+assigned).
	ClearAll ClearScope = "all"
)

// TitleStats summarizes a kingdom's queue for the dashboard.
type TitleStats struct {
	Pending        int
	Assigned       int
	CompletedToday int
}

// TitleRequestRepository persists the title queue. Take-next is the
// serialization point mapping the queue onto the single agent; it must
// run as one transaction per call.
type TitleRequestRepository interface {
	// Create admits a request as pending.
	Create(ctx context.Context, req *models.TitleRequest) (int64, error)

	// GetByID retrieves one request.
	GetByID(ctx context.Context, id int64) (*models.TitleRequest, error)

	// HasOutstanding reports whether a pending|assigned request
	// exists for (governor, kind). Governors the chat reader could
	// not resolve carry id 0 and are matched by name instead. This is
	// the advisory pre-check; Create enforces the invariant.
	HasOutstanding(ctx context.Context, kingdom int, governorID int64, governorName string, kind models.TitleKind) (bool, error)

	// List returns queue entries in assignment order (priority DESC,
	// created_at ASC).
	List(ctx context.Context, kingdom int, filters TitleFilters) ([]*models.TitleRequest, error)

	// QueuePosition returns the 1-based position of a pending
	// request among its kingdom's pending requests.
	QueuePosition(ctx context.Context, kingdom int, id int64) (int, error)

	// TakeNext transactionally assigns the next eligible request.
	// It re-checks the ban filter for every candidate, cancelling
	// banned-in-the-meantime entries with the banned-before-assignment
	// note and returning them as skipped, enforces the
	// one-assigned-per-kingdom invariant, and recycles an assigned
	// request whose agent went silent before recycleBefore. The
	// second return is true when the assignment is such a recycle.
	// Returns models.ErrNoRequest when nothing is eligible; the
	// skipped slice is valid even then.
	TakeNext(ctx context.Context, kingdom int, now time.Time, recycleBefore time.Time) (*models.TitleRequest, bool, []*models.TitleRequest, error)

	// UpdateOutcome moves an assigned request to completed|failed.
	// The update is conditional on the request still being assigned.
	UpdateOutcome(ctx context.Context, id int64, status models.TitleStatus, note string, now time.Time, expiresAt time.Time) error

	// Cancel moves a pending request to cancelled.
	Cancel(ctx context.Context, id int64, note string) error

	// Clear bulk-cancels requests in scope; completed requests are
	// never touched. Returns the number of requests cancelled.
	Clear(ctx context.Context, kingdom int, scope ClearScope) (int64, error)

	// Stats returns dashboard counters.
	Stats(ctx context.Context, kingdom int, startOfDay time.Time) (*TitleStats, error)
}

// BanRepository persists the eligibility denylist.
type BanRepository interface {
	// Create adds a ban; models.ErrAlreadyBanned if an active ban
	// for the same (governor, type) exists.
	Create(ctx context.Context, ban *models.Ban) (int64, error)

	// Deactivate removes a ban by id (soft delete).
	Deactivate(ctx context.Context, kingdom int, id int64) error

	// List returns the active bans for a kingdom, newest first.
	List(ctx context.Context, kingdom int) ([]*models.Ban, error)

	// FindBlocking returns the active, unexpired ban that blocks the
	// governor for the given title kind, or nil. Lapsed bans are
	// deactivated on the way through.
	FindBlocking(ctx context.Context, kingdom int, governorID int64, kind models.TitleKind, now time.Time) (*models.Ban, error)
}

// IngestRepository persists imported scans and the stats store.
type IngestRepository interface {
	// FingerprintExists reports whether a scan with this fingerprint
	// was already imported.
	FingerprintExists(ctx context.Context, fingerprint string) (bool, error)

	// ImportSnapshot writes the ingest record and merges the rows
	// into the stats store in one transaction. A concurrent import
	// of the same fingerprint yields models.ErrDuplicateImport.
	ImportSnapshot(ctx context.Context, file *models.IngestFile, rows []models.GovernorRow, now time.Time) error
}
