// Package title contains the pure business logic for the title queue.
// Guards are pure functions that evaluate preconditions without side
// effects; the sqlite adapter applies their outcomes transactionally.
package title

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/example/warden/internal/models"
)

// GuardResult represents the outcome of a guard evaluation.
type GuardResult struct {
	Allowed bool
	Reason  string
	Code    string // stable reason code for the HTTP layer
}

// Error converts the guard result to an error if not allowed.
func (r GuardResult) Error() error {
	if r.Allowed {
		return nil
	}
	return fmt.Errorf("%s", r.Reason)
}

// Reason codes surfaced by admission rejections.
const (
	ReasonBadName   = "invalid-governor-name"
	ReasonBanned    = "banned"
	ReasonDuplicate = "duplicate-pending"
)

// Chat OCR occasionally hands us Android exception text or clipboard
// garbage where a player name should be. Observed: '........A.t.t.e.'
var dottedArtifact = regexp.MustCompile(`^\.{4,}([a-zA-Z]\.){2,}`)

// ValidGovernorName reports whether a chat-derived name is plausible.
func ValidGovernorName(name string) bool {
	name = strings.TrimSpace(name)
	if len(name) < 2 {
		return false
	}
	low := strings.ToLower(name)
	if low == "null" {
		return false
	}
	if strings.Contains(low, "attempt to invoke virtual method") || strings.Contains(low, "not a data message") {
		return false
	}
	if strings.HasPrefix(low, "__rok_sentinel__") {
		return false
	}
	return !dottedArtifact.MatchString(name)
}

// AdmissionContext provides the facts needed to admit a new request.
type AdmissionContext struct {
	GovernorName   string
	Kind           models.TitleKind
	Banned         bool // ban filter verdict at admission time
	HasOutstanding bool // pending|assigned request exists for (governor, kind)
}

// CanAdmit evaluates whether a chat-derived request enters the queue.
// Rules:
//   - governor name must survive the OCR-artifact filter
//   - requester must not be banned for this title kind
//   - no second request while one is pending or assigned
func CanAdmit(ctx AdmissionContext) GuardResult {
	if !ValidGovernorName(ctx.GovernorName) {
		return GuardResult{
			Allowed: false,
			Code:    ReasonBadName,
			Reason:  "invalid governor name",
		}
	}

	if ctx.Banned {
		return GuardResult{
			Allowed: false,
			Code:    ReasonBanned,
			Reason:  fmt.Sprintf("governor is banned from requesting %s", ctx.Kind),
		}
	}

	if ctx.HasOutstanding {
		return GuardResult{
			Allowed: false,
			Code:    ReasonDuplicate,
			Reason:  fmt.Sprintf("a request for %s is already pending or assigned", ctx.Kind),
		}
	}

	return GuardResult{Allowed: true}
}

// CompletionContext provides context for outcome reporting guards.
type CompletionContext struct {
	RequestID int64
	Status    models.TitleStatus
}

// CanComplete evaluates whether the agent may report an outcome.
// Only the currently assigned request can complete or fail.
func CanComplete(ctx CompletionContext) GuardResult {
	if ctx.Status != models.TitleAssigned {
		return GuardResult{
			Allowed: false,
			Reason:  fmt.Sprintf("request %d is %s, not assigned", ctx.RequestID, ctx.Status),
		}
	}
	return GuardResult{Allowed: true}
}

// CancelContext provides context for requester-initiated cancellation.
type CancelContext struct {
	RequestID  int64
	GovernorID int64
	OwnerID    int64 // governor the cancel request came from
	Status     models.TitleStatus
}

// CanCancel evaluates whether a requester may cancel their request.
// Only the owner of a still-pending request can pull it back; once
// assigned, the agent is already acting on it.
func CanCancel(ctx CancelContext) GuardResult {
	if ctx.GovernorID != ctx.OwnerID {
		return GuardResult{
			Allowed: false,
			Reason:  fmt.Sprintf("request %d does not belong to governor %d", ctx.RequestID, ctx.OwnerID),
		}
	}
	if ctx.Status != models.TitlePending {
		return GuardResult{
			Allowed: false,
			Reason:  fmt.Sprintf("can only cancel pending requests (current status: %s)", ctx.Status),
		}
	}
	return GuardResult{Allowed: true}
}
