package domain

import "time"

// AuditFieldGroup is the only audit field the engine consumes.
const AuditFieldGroup = "group_id"

// AuditChange is one field mutation inside an audit entry.
type AuditChange struct {
	FieldName     string
	PreviousValue string
	Value         string
}

// AuditEvent is one audit-trail entry, carrying zero or more field changes
// applied at the same instant.
type AuditEvent struct {
	CreatedAt time.Time
	Changes   []AuditChange
}

// GroupChange returns the group reassignment in this event, if any.
func (e AuditEvent) GroupChange() (AuditChange, bool) {
	for _, ch := range e.Changes {
		if ch.FieldName == AuditFieldGroup {
			return ch, true
		}
	}
	return AuditChange{}, false
}
