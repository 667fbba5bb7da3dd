package models

import "errors"

// Sentinel errors shared across services and the HTTP layer.
// The HTTP layer maps these to reason codes; nothing here is fatal.
var (
	// ErrInvalidInput marks payloads that fail boundary validation
	// (unknown enum values, malformed names, bad parameters).
	ErrInvalidInput = errors.New("invalid input")

	// ErrDuplicateRequest is returned when a governor already has a
	// pending or assigned request for the same title kind.
	ErrDuplicateRequest = errors.New("duplicate title request")

	// ErrBanned is returned at admission time when the governor is
	// banned for the requested title kind.
	ErrBanned = errors.New("governor is banned")

	// ErrNoCommand is returned by poll-and-consume when the slot is
	// empty or another poller already took the command. Expected and
	// silently ignored by a well-behaved agent.
	ErrNoCommand = errors.New("no pending command")

	// ErrNoRequest is returned when the title queue has no eligible
	// entry to assign.
	ErrNoRequest = errors.New("no eligible title request")

	// ErrNotFound is returned for lookups of missing entities.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyBanned is returned when creating a ban that already
	// exists for the same (governor, ban type).
	ErrAlreadyBanned = errors.New("governor is already banned")

	// ErrDuplicateImport is returned when a scan file's fingerprint
	// has already produced a snapshot. Callers report it as skipped,
	// never as an error.
	ErrDuplicateImport = errors.New("scan file already imported")
)
