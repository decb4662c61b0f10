package sla

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/sla-engine/internal/domain"
)

func groupChangeEvent(at time.Time, previous, next string) domain.AuditEvent {
	return domain.AuditEvent{
		CreatedAt: at,
		Changes: []domain.AuditChange{
			{FieldName: domain.AuditFieldGroup, PreviousValue: previous, Value: next},
		},
	}
}

func staticLookup(names map[string]string) GroupNameLookup {
	return func(groupID string) (string, bool) {
		name, ok := names[groupID]
		return name, ok
	}
}

// Scenario: one escalation from Frontline to Network Engineering 30 minutes
// after creation.
func TestBuildSingleEscalation(t *testing.T) {
	b := NewTimelineBuilder(NewClassifier(KeywordConfig{}))
	changeAt := t0.Add(30 * time.Minute)
	events := []domain.AuditEvent{groupChangeEvent(changeAt, "1", "2")}
	lookup := staticLookup(map[string]string{"1": "Frontline", "2": "Network Engineering"})

	stints := b.Build(events, t0, lookup)
	require.Len(t, stints, 2)

	assert.Equal(t, "Frontline", stints[0].GroupName)
	assert.Equal(t, domain.TierL0, stints[0].Tier)
	assert.Equal(t, t0, stints[0].StartedAt)
	require.NotNil(t, stints[0].EndedAt)
	assert.Equal(t, changeAt, *stints[0].EndedAt)

	assert.Equal(t, "Network Engineering", stints[1].GroupName)
	assert.Equal(t, domain.TierL1, stints[1].Tier)
	assert.Equal(t, changeAt, stints[1].StartedAt)
	assert.True(t, stints[1].Open())
}

func TestBuildNoGroupChanges(t *testing.T) {
	b := NewTimelineBuilder(NewClassifier(KeywordConfig{}))

	assert.Empty(t, b.Build(nil, t0, nil))

	// Non-group audit activity is ignored.
	events := []domain.AuditEvent{
		{CreatedAt: t0.Add(time.Minute), Changes: []domain.AuditChange{
			{FieldName: "priority", PreviousValue: "normal", Value: "urgent"},
		}},
	}
	assert.Empty(t, b.Build(events, t0, nil))
}

func TestBuildSubstitutesPlaceholderOnLookupFailure(t *testing.T) {
	b := NewTimelineBuilder(NewClassifier(KeywordConfig{}))
	events := []domain.AuditEvent{groupChangeEvent(t0.Add(time.Hour), "7", "8")}
	lookup := staticLookup(map[string]string{"8": "Tier 2 Support"})

	stints := b.Build(events, t0, lookup)
	require.Len(t, stints, 2)
	assert.Equal(t, "Group 7", stints[0].GroupName)
	assert.Equal(t, domain.TierL0, stints[0].Tier)
	assert.Equal(t, "Tier 2 Support", stints[1].GroupName)
	assert.Equal(t, domain.TierL2, stints[1].Tier)
}

// Stint intervals partition the ticket's lifetime: contiguous, first starts
// at creation, exactly one open stint, and durations sum to now - createdAt.
func TestBuildStintsPartitionLifetime(t *testing.T) {
	b := NewTimelineBuilder(NewClassifier(KeywordConfig{}))
	events := []domain.AuditEvent{
		groupChangeEvent(t0.Add(10*time.Minute), "1", "2"),
		groupChangeEvent(t0.Add(45*time.Minute), "2", "3"),
		groupChangeEvent(t0.Add(2*time.Hour), "3", "1"),
	}
	lookup := staticLookup(map[string]string{"1": "Frontline", "2": "Network Engineering", "3": "ConnectX Partners"})

	stints := b.Build(events, t0, lookup)
	require.Len(t, stints, 4)

	assert.Equal(t, t0, stints[0].StartedAt)
	open := 0
	for i, s := range stints {
		if s.Open() {
			open++
			assert.Equal(t, len(stints)-1, i, "only the last stint may be open")
			continue
		}
		require.Less(t, i+1, len(stints))
		assert.Equal(t, *s.EndedAt, stints[i+1].StartedAt, "stints must be contiguous")
	}
	assert.Equal(t, 1, open)

	now := t0.Add(3 * time.Hour)
	var total time.Duration
	for _, s := range stints {
		total += s.Duration(now)
	}
	assert.Equal(t, now.Sub(t0), total)
}

func TestBuildSortsOutOfOrderEvents(t *testing.T) {
	b := NewTimelineBuilder(NewClassifier(KeywordConfig{}))
	events := []domain.AuditEvent{
		groupChangeEvent(t0.Add(time.Hour), "2", "3"),
		groupChangeEvent(t0.Add(10*time.Minute), "1", "2"),
	}
	lookup := staticLookup(map[string]string{"1": "A", "2": "B", "3": "C"})

	stints := b.Build(events, t0, lookup)
	require.Len(t, stints, 3)
	assert.Equal(t, "A", stints[0].GroupName)
	assert.Equal(t, "B", stints[1].GroupName)
	assert.Equal(t, "C", stints[2].GroupName)
}

func TestRecentFirstExcludesOpenStint(t *testing.T) {
	b := NewTimelineBuilder(NewClassifier(KeywordConfig{}))
	events := []domain.AuditEvent{
		groupChangeEvent(t0.Add(10*time.Minute), "1", "2"),
		groupChangeEvent(t0.Add(30*time.Minute), "2", "3"),
	}
	lookup := staticLookup(map[string]string{"1": "A", "2": "B", "3": "C"})

	stints := b.Build(events, t0, lookup)
	recent := RecentFirst(stints)
	require.Len(t, recent, 2)
	assert.Equal(t, "B", recent[0].GroupName)
	assert.Equal(t, "A", recent[1].GroupName)

	assert.Empty(t, RecentFirst(nil))
}
