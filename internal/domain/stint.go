package domain

import "time"

// Stint is one contiguous interval during which a ticket was owned by a
// single group. EndedAt is nil for the currently open stint. Stints are
// derived from the audit trail, never stored.
type Stint struct {
	GroupName string
	Tier      Tier
	Partner   *Partner
	StartedAt time.Time
	EndedAt   *time.Time
}

// Open reports whether the stint is still in progress.
func (s Stint) Open() bool {
	return s.EndedAt == nil
}

// Duration returns the stint length, clamping the open stint to now.
func (s Stint) Duration(now time.Time) time.Duration {
	end := now
	if s.EndedAt != nil {
		end = *s.EndedAt
	}
	if end.Before(s.StartedAt) {
		return 0
	}
	return end.Sub(s.StartedAt)
}
