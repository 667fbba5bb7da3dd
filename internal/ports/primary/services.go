// Package primary defines the primary ports (driving interfaces) for
// the control plane: what the HTTP server and the CLI call into.
package primary

import (
	"context"

	"github.com/example/warden/internal/models"
	"github.com/example/warden/internal/ports/secondary"
)

// HeartbeatRequest is the agent's periodic status report.
type HeartbeatRequest struct {
	Kingdom  int
	Activity string
	Message  string
	Progress int
	Total    int
}

// CommandRequest is an owner-issued one-shot command.
type CommandRequest struct {
	Kingdom  int
	Kind     string
	ScanType string
	Options  string
}

// ControlService covers the mode/command/status control plane the
// agent polls and the dashboard drives.
type ControlService interface {
	// Heartbeat records an agent status report.
	Heartbeat(ctx context.Context, req HeartbeatRequest) error

	// Status returns the latest agent status, with offline
	// synthesized when the last heartbeat is stale.
	Status(ctx context.Context, kingdom int) (*models.AgentStatus, error)

	// Mode returns the owner-intended mode.
	Mode(ctx context.Context, kingdom int) (*models.ModeState, error)

	// SetMode records an owner transition. Any mode may follow any
	// other; the agent unwinds its own in-flight work.
	SetMode(ctx context.Context, kingdom int, mode string, requestedBy string) (*models.ModeState, error)

	// IssueCommand places a command in the single-slot mailbox,
	// overwriting an unconsumed predecessor.
	IssueCommand(ctx context.Context, req CommandRequest) error

	// PollCommand consumes the pending command exactly once.
	// models.ErrNoCommand when the slot is empty or already taken.
	PollCommand(ctx context.Context, kingdom int) (*models.Command, error)
}

// SubmitTitleRequest is a chat-derived title request.
type SubmitTitleRequest struct {
	Kingdom       int
	GovernorID    int64
	GovernorName  string
	AllianceTag   string
	Kind          string
	DurationHours int
	Priority      int
}

// AdmissionResult reports the synchronous admission verdict.
type AdmissionResult struct {
	Admitted   bool
	ReasonCode string // set when rejected
	RequestID  int64
	Position   int // 1-based pending queue position when admitted
}

// Assignment is what the agent receives from take-next.
type Assignment struct {
	Request  *models.TitleRequest
	Recycled bool // true when a stale assigned request was re-offered
	// Skipped holds requests cancelled during this walk because their
	// requester was banned after admission. Populated only when
	// requester notification is enabled; the agent relays the verdict
	// back to chat.
	Skipped []*models.TitleRequest
}

// TitleService owns the title request queue.
type TitleService interface {
	// Submit admits or rejects a chat-derived request.
	Submit(ctx context.Context, req SubmitTitleRequest) (*AdmissionResult, error)

	// Queue lists requests in assignment order.
	Queue(ctx context.Context, kingdom int, filters secondary.TitleFilters) ([]*models.TitleRequest, error)

	// Next assigns the next eligible request to the agent.
	// models.ErrNoRequest when the queue is empty or the in-flight
	// slot is occupied.
	Next(ctx context.Context, kingdom int) (*Assignment, error)

	// ReportOutcome records the agent's completed/failed verdict for
	// its assigned request, freeing the in-flight slot.
	ReportOutcome(ctx context.Context, requestID int64, success bool, message string) error

	// Cancel withdraws a requester's own pending request.
	Cancel(ctx context.Context, kingdom int, requestID int64, governorID int64) error

	// Clear bulk-cancels requests in scope. Completed requests are
	// never affected.
	Clear(ctx context.Context, kingdom int, scope secondary.ClearScope) (int64, error)

	// Stats returns dashboard counters for the queue.
	Stats(ctx context.Context, kingdom int) (*secondary.TitleStats, error)
}

// AddBanRequest creates a denylist entry.
type AddBanRequest struct {
	Kingdom      int
	GovernorID   int64
	GovernorName string
	BanType      string
	Reason       string
	BannedBy     string
	ExpiresDays  int // 0 means permanent
}

// BanVerdict is the agent-side pre-check result.
type BanVerdict struct {
	Banned    bool
	Reason    string
	ExpiresAt string
}

// BanService owns the eligibility denylist.
type BanService interface {
	Add(ctx context.Context, req AddBanRequest) (int64, error)
	Remove(ctx context.Context, kingdom int, banID int64) error
	List(ctx context.Context, kingdom int) ([]*models.Ban, error)
	Check(ctx context.Context, kingdom int, governorID int64, kind string) (*BanVerdict, error)
}

// ImportService ingests scan CSV files idempotently. A non-zero
// fallbackKingdom claims files whose name carries no kingdom number;
// zero falls back to the configured default.
type ImportService interface {
	// ImportFolder imports every CSV in the folder; per-file
	// outcomes are independent and the batch never aborts early.
	ImportFolder(ctx context.Context, dir string, fallbackKingdom int) (*models.ImportResult, error)

	// ImportFile imports a single file.
	ImportFile(ctx context.Context, path string, fallbackKingdom int) models.FileResult
}
