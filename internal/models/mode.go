// Package models contains domain types for the warden control plane.
// SQL persistence lives in internal/adapters/sqlite/*.go.
package models

import (
	"fmt"
	"time"
)

// BotMode is the owner-intended job for a kingdom's automation agent.
// It records intent only; the agent discovers it by polling and is
// responsible for unwinding whatever it was doing before switching.
type BotMode string

const (
	ModeIdle         BotMode = "idle"
	ModeTitleServing BotMode = "title_serving"
	ModeScanPrep     BotMode = "scan_preparing"
	ModePaused       BotMode = "paused"
)

// ParseBotMode validates a mode string from an external boundary.
func ParseBotMode(s string) (BotMode, error) {
	switch m := BotMode(s); m {
	case ModeIdle, ModeTitleServing, ModeScanPrep, ModePaused:
		return m, nil
	}
	return "", fmt.Errorf("%w: unknown mode %q", ErrInvalidInput, s)
}

// Valid reports whether the mode is one of the closed set.
func (m BotMode) Valid() bool {
	_, err := ParseBotMode(string(m))
	return err == nil
}

// ModeState is the per-kingdom mode record. One row per kingdom,
// overwritten in place on every owner transition.
type ModeState struct {
	Kingdom     int
	Mode        BotMode
	RequestedBy string
	UpdatedAt   time.Time
}
