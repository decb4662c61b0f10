package domain

import "time"

// ClockStatus is the discrete compliance state of one SLA clock.
type ClockStatus string

const (
	// ClockStatusMet is terminal: the clock was satisfied before its deadline
	// mattered. Met wins over late; LateMet on the Clock records lateness.
	ClockStatusMet ClockStatus = "met"

	ClockStatusGreen    ClockStatus = "green"
	ClockStatusAmber    ClockStatus = "amber"
	ClockStatusRed      ClockStatus = "red"
	ClockStatusBreached ClockStatus = "breached"

	// ClockStatusImmediate marks a clock escalated to "respond now" because a
	// coupled clock has already breached.
	ClockStatusImmediate ClockStatus = "immediate"

	// ClockStatusNotConfigured marks a clock with no SLA target defined. It is
	// not comparable on the severity ladder.
	ClockStatusNotConfigured ClockStatus = "not_configured"

	// Coarse three-state vocabulary, derived from the five-state one.
	ClockStatusHealthy ClockStatus = "healthy"
	ClockStatusNearing ClockStatus = "nearing"
)

// Coarse collapses the five-state profile into the legacy three-state view:
// green becomes healthy, amber and red merge into nearing, terminal and
// special states map through unchanged.
func (s ClockStatus) Coarse() ClockStatus {
	switch s {
	case ClockStatusGreen:
		return ClockStatusHealthy
	case ClockStatusAmber, ClockStatusRed:
		return ClockStatusNearing
	default:
		return s
	}
}

// ClockLabel names one SLA clock within an evaluation.
type ClockLabel string

const (
	ClockFirstResponse ClockLabel = "First Response"
	ClockNextResponse  ClockLabel = "Next Response"
	ClockResolution    ClockLabel = "Resolution"
)

// Clock is one evaluated SLA timer. Clocks are recomputed every tick, never
// persisted; BreachAt allows a pure retick without re-fetching source data.
type Clock struct {
	Label       ClockLabel
	Target      *time.Duration
	Elapsed     time.Duration
	BreachAt    *time.Time
	Status      ClockStatus
	Met         bool
	LateMet     bool
	Percentage  float64
	Placeholder bool
}

// Configured reports whether the clock has a numeric SLA target.
func (c Clock) Configured() bool {
	return c.Target != nil
}
