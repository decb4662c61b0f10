package domain

import (
	"strings"
	"time"
)

// TicketStatus enumerates lifecycle states reported by the ticket data source.
type TicketStatus string

const (
	TicketStatusNew     TicketStatus = "new"
	TicketStatusOpen    TicketStatus = "open"
	TicketStatusPending TicketStatus = "pending"
	TicketStatusHold    TicketStatus = "hold"
	TicketStatusSolved  TicketStatus = "solved"
	TicketStatusClosed  TicketStatus = "closed"
)

// IsResolved reports whether the ticket reached a terminal resolution state.
func (s TicketStatus) IsResolved() bool {
	return s == TicketStatusSolved || s == TicketStatusClosed
}

// TicketPriority enumerates SLA urgency.
type TicketPriority string

const (
	TicketPriorityUrgent TicketPriority = "urgent"
	TicketPriorityHigh   TicketPriority = "high"
	TicketPriorityNormal TicketPriority = "normal"
	TicketPriorityLow    TicketPriority = "low"
)

// ParsePriority normalizes a raw priority value, defaulting to normal for
// unknown or missing input.
func ParsePriority(raw string) TicketPriority {
	switch TicketPriority(strings.ToLower(strings.TrimSpace(raw))) {
	case TicketPriorityUrgent:
		return TicketPriorityUrgent
	case TicketPriorityHigh:
		return TicketPriorityHigh
	case TicketPriorityLow:
		return TicketPriorityLow
	default:
		return TicketPriorityNormal
	}
}

// CustomField is an opaque key/value pair carried on a ticket. The engine only
// inspects the configured partner-selector field.
type CustomField struct {
	ID    int64
	Value *string
}

// Ticket is an immutable snapshot of a support ticket as fetched from the
// ticket data source. The engine never mutates it; each evaluation re-fetches.
type Ticket struct {
	ID           int64
	Priority     TicketPriority
	Status       TicketStatus
	CreatedAt    time.Time
	UpdatedAt    time.Time
	RequesterID  int64
	GroupID      *int64
	GroupName    *string
	CustomFields []CustomField
}

// AssignedGroupName returns the ticket's group name or empty when unassigned.
func (t *Ticket) AssignedGroupName() string {
	if t.GroupName == nil {
		return ""
	}
	return *t.GroupName
}

// PartnerFieldValue extracts the partner-selector custom field value, if any.
func (t *Ticket) PartnerFieldValue(fieldID int64) string {
	if fieldID == 0 {
		return ""
	}
	for _, f := range t.CustomFields {
		if f.ID == fieldID && f.Value != nil {
			return *f.Value
		}
	}
	return ""
}
