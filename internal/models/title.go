package models

import (
	"fmt"
	"time"
)

// TitleKind is one of the in-game titles the agent can grant.
type TitleKind string

const (
	TitleScientist TitleKind = "scientist"
	TitleArchitect TitleKind = "architect"
	TitleDuke      TitleKind = "duke"
	TitleJustice   TitleKind = "justice"
)

// ParseTitleKind validates a title string from a chat-derived request.
func ParseTitleKind(s string) (TitleKind, error) {
	switch t := TitleKind(s); t {
	case TitleScientist, TitleArchitect, TitleDuke, TitleJustice:
		return t, nil
	}
	return "", fmt.Errorf("%w: unknown title %q", ErrInvalidInput, s)
}

// TitleStatus is the lifecycle state of a title request.
type TitleStatus string

const (
	TitlePending   TitleStatus = "pending"
	TitleAssigned  TitleStatus = "assigned"
	TitleCompleted TitleStatus = "completed"
	TitleFailed    TitleStatus = "failed"
	TitleCancelled TitleStatus = "cancelled"
)

// NoteBannedBeforeAssignment is the note written on a request that was
// admitted, then banned, then skipped at assignment time.
const NoteBannedBeforeAssignment = "banned-before-assignment"

// Terminal reports whether the status can no longer change.
func (s TitleStatus) Terminal() bool {
	switch s {
	case TitleCompleted, TitleFailed, TitleCancelled:
		return true
	case TitlePending, TitleAssigned:
		return false
	}
	return false
}

// TitleRequest is one entry in the per-kingdom title queue.
//
// Invariants enforced by the queue:
//   - at most one pending|assigned request per (governor, title kind)
//   - at most one assigned request per kingdom
type TitleRequest struct {
	ID            int64
	Kingdom       int
	GovernorID    int64
	GovernorName  string
	AllianceTag   string
	Kind          TitleKind
	DurationHours int
	Status        TitleStatus
	Priority      int
	Note          string // outcome message from the agent, or skip reason
	CreatedAt     time.Time
	AssignedAt    time.Time
	CompletedAt   time.Time
	ExpiresAt     time.Time
}
