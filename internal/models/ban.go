package models

import (
	"fmt"
	"time"
)

// BanType scopes what a ban blocks. "titles" blocks title requests;
// "all" is the wildcard that additionally blocks every other privilege.
type BanType string

const (
	BanTitles BanType = "titles"
	BanAll    BanType = "all"
)

// ParseBanType validates a ban type string.
func ParseBanType(s string) (BanType, error) {
	switch b := BanType(s); b {
	case BanTitles, BanAll:
		return b, nil
	}
	return "", fmt.Errorf("%w: unknown ban type %q", ErrInvalidInput, s)
}

// Ban is a denylist entry consulted at request admission and again at
// assignment time. Removal deactivates rather than deletes, keeping
// the audit trail.
type Ban struct {
	ID           int64
	Kingdom      int
	GovernorID   int64
	GovernorName string
	Type         BanType
	Reason       string
	BannedBy     string
	Active       bool
	CreatedAt    time.Time
	ExpiresAt    time.Time // zero means permanent
}

// Expired reports whether the ban has lapsed at the given instant.
// Permanent bans never expire.
func (b *Ban) Expired(now time.Time) bool {
	return !b.ExpiresAt.IsZero() && b.ExpiresAt.Before(now)
}

// Blocks reports whether this ban suppresses a request for the given
// title kind at the given instant. An "all" ban blocks every kind.
func (b *Ban) Blocks(_ TitleKind, now time.Time) bool {
	if !b.Active || b.Expired(now) {
		return false
	}
	return b.Type == BanTitles || b.Type == BanAll
}
