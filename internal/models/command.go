package models

import (
	"fmt"
	"time"
)

// CommandKind is a one-shot imperative layered on top of the mode.
type CommandKind string

const (
	// CommandStartScan tells the agent to begin the scan it was
	// prepared for. Carries a scan type and free-form options.
	CommandStartScan CommandKind = "start_scan"
	// CommandStop tells the agent to abandon its current activity
	// and report idle. Carries no parameters.
	CommandStop CommandKind = "stop"
)

// ParseCommandKind validates a command string from an owner action.
func ParseCommandKind(s string) (CommandKind, error) {
	switch k := CommandKind(s); k {
	case CommandStartScan, CommandStop:
		return k, nil
	}
	return "", fmt.Errorf("%w: unknown command %q", ErrInvalidInput, s)
}

// ScanType selects which scan the agent should run.
type ScanType string

const (
	ScanKingdom  ScanType = "kingdom"
	ScanAlliance ScanType = "alliance"
	ScanHonor    ScanType = "honor"
	ScanSeed     ScanType = "seed"
)

// ParseScanType validates a scan type string.
func ParseScanType(s string) (ScanType, error) {
	switch t := ScanType(s); t {
	case ScanKingdom, ScanAlliance, ScanHonor, ScanSeed:
		return t, nil
	}
	return "", fmt.Errorf("%w: unknown scan type %q", ErrInvalidInput, s)
}

// Command is the single-slot mailbox entry for a kingdom. Issuing a
// new command overwrites an unconsumed one (last write wins); the
// agent is only guaranteed to see the most recent command at poll
// time. Consumption is a single atomic check-and-set.
type Command struct {
	Kingdom  int
	Kind     CommandKind
	ScanType ScanType // only meaningful for start_scan
	Options  string   // JSON blob, passed through to the agent
	IssuedAt time.Time
	Consumed bool
}
