package models

import (
	"fmt"
	"time"
)

// Activity is what the agent reports itself to be doing. The offline
// value is never written by the agent; it is synthesized on read when
// the last heartbeat is older than the staleness threshold.
type Activity string

const (
	ActivityOffline       Activity = "offline"
	ActivityIdle          Activity = "idle"
	ActivityNavigating    Activity = "navigating"
	ActivityScanning      Activity = "scanning"
	ActivityGrantingTitle Activity = "granting_titles"
	ActivityError         Activity = "error"
)

// ParseActivity validates an activity string from a heartbeat payload.
// Agents may not report offline; that is a derived fact.
func ParseActivity(s string) (Activity, error) {
	switch a := Activity(s); a {
	case ActivityIdle, ActivityNavigating, ActivityScanning, ActivityGrantingTitle, ActivityError:
		return a, nil
	case ActivityOffline:
		return "", fmt.Errorf("%w: offline is derived, not reported", ErrInvalidInput)
	}
	return "", fmt.Errorf("%w: unknown activity %q", ErrInvalidInput, s)
}

// AgentStatus is the latest heartbeat for a kingdom. Written only by
// the agent; last-write-wins by UpdatedAt so a stale process polling
// after a restart cannot roll the status backwards.
type AgentStatus struct {
	Kingdom   int
	Activity  Activity
	Message   string
	Progress  int
	Total     int
	UpdatedAt time.Time
}

// Stale reports whether the status is older than the given threshold
// at the given instant.
func (s *AgentStatus) Stale(now time.Time, threshold time.Duration) bool {
	return now.Sub(s.UpdatedAt) > threshold
}
