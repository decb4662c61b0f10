package sla

import (
	"fmt"
	"sort"
	"time"

	"github.com/spec-kit/sla-engine/internal/domain"
)

// GroupNameLookup resolves a raw group id to its display name. A false return
// means the lookup failed; the builder substitutes a synthetic placeholder so
// one bad lookup never fails the whole timeline.
type GroupNameLookup func(groupID string) (string, bool)

// TimelineBuilder replays a ticket's audit trail into tier stints.
type TimelineBuilder struct {
	classifier *Classifier
}

// NewTimelineBuilder constructs a builder over the given classifier.
func NewTimelineBuilder(classifier *Classifier) *TimelineBuilder {
	return &TimelineBuilder{classifier: classifier}
}

// Build scans the audit events for group reassignments and constructs the
// canonical chronological stint list. The first stint starts at ticket
// creation under the group each first change moved away from; the last stint
// is open-ended. A ticket with no group changes yields an empty list.
func (b *TimelineBuilder) Build(events []domain.AuditEvent, createdAt time.Time, lookup GroupNameLookup) []domain.Stint {
	type groupChange struct {
		at       time.Time
		previous string
		next     string
	}

	changes := make([]groupChange, 0, len(events))
	for _, ev := range events {
		if ch, ok := ev.GroupChange(); ok {
			changes = append(changes, groupChange{at: ev.CreatedAt, previous: ch.PreviousValue, next: ch.Value})
		}
	}
	if len(changes) == 0 {
		return nil
	}
	sort.SliceStable(changes, func(i, j int) bool {
		return changes[i].at.Before(changes[j].at)
	})

	stints := make([]domain.Stint, 0, len(changes)+1)
	stints = append(stints, b.stint(changes[0].previous, createdAt, &changes[0].at, lookup))
	for i, ch := range changes {
		var end *time.Time
		if i+1 < len(changes) {
			end = &changes[i+1].at
		}
		stints = append(stints, b.stint(ch.next, ch.at, end, lookup))
	}
	return stints
}

func (b *TimelineBuilder) stint(groupID string, start time.Time, end *time.Time, lookup GroupNameLookup) domain.Stint {
	name := resolveGroupName(groupID, lookup)
	cls := b.classifier.ClassifyGroup(name)
	return domain.Stint{
		GroupName: name,
		Tier:      cls.Tier,
		Partner:   cls.Partner,
		StartedAt: start,
		EndedAt:   end,
	}
}

func resolveGroupName(groupID string, lookup GroupNameLookup) string {
	if groupID == "" {
		return ""
	}
	if lookup != nil {
		if name, ok := lookup(groupID); ok {
			return name
		}
	}
	return fmt.Sprintf("Group %s", groupID)
}

// RecentFirst derives the presentation ordering from the canonical
// chronological list: closed stints only, most recent first. The open stint
// is excluded because the consumer already renders "now" separately.
func RecentFirst(stints []domain.Stint) []domain.Stint {
	out := make([]domain.Stint, 0, len(stints))
	for i := len(stints) - 1; i >= 0; i-- {
		if stints[i].Open() {
			continue
		}
		out = append(out, stints[i])
	}
	return out
}
