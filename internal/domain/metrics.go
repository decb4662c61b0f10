package domain

import "time"

// ClockBasis distinguishes which calendar the source's metric deadlines were
// computed against. The basis is selected once per ticket and reused for every
// access, never re-decided ad hoc.
type ClockBasis string

const (
	BusinessClock ClockBasis = "business"
	CalendarClock ClockBasis = "calendar"
)

// MetricWindow is one business- or calendar-based metric sub-record as
// reported by the source: a nullable breach instant and/or elapsed minutes.
type MetricWindow struct {
	BreachAt       *time.Time
	ElapsedMinutes *int
}

// Empty reports whether the window carries no usable values.
func (w *MetricWindow) Empty() bool {
	return w == nil || (w.BreachAt == nil && w.ElapsedMinutes == nil)
}

// Elapsed converts the reported minutes to a duration, if present.
func (w *MetricWindow) Elapsed() (time.Duration, bool) {
	if w == nil || w.ElapsedMinutes == nil {
		return 0, false
	}
	return time.Duration(*w.ElapsedMinutes) * time.Minute, true
}

// TicketMetric carries both variants of one source metric.
type TicketMetric struct {
	Business *MetricWindow
	Calendar *MetricWindow
}

// Select picks the window for the given basis, falling back to the other
// variant when the preferred one is empty.
func (m *TicketMetric) Select(basis ClockBasis) *MetricWindow {
	if m == nil {
		return nil
	}
	primary, secondary := m.Business, m.Calendar
	if basis == CalendarClock {
		primary, secondary = m.Calendar, m.Business
	}
	if !primary.Empty() {
		return primary
	}
	if !secondary.Empty() {
		return secondary
	}
	return nil
}

// TicketMetrics is the metrics record for one ticket.
type TicketMetrics struct {
	ReplyTime          *TicketMetric
	FullResolutionTime *TicketMetric
}

// Basis decides the clock basis for the ticket: business windows win when the
// source populated them, otherwise calendar.
func (m *TicketMetrics) Basis() ClockBasis {
	if m == nil {
		return CalendarClock
	}
	if (m.ReplyTime != nil && !m.ReplyTime.Business.Empty()) ||
		(m.FullResolutionTime != nil && !m.FullResolutionTime.Business.Empty()) {
		return BusinessClock
	}
	return CalendarClock
}
