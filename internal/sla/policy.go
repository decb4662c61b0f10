package sla

import (
	"time"

	"github.com/spec-kit/sla-engine/internal/domain"
)

// TargetSet holds the internal-tier targets for one (tier, priority) row.
// A nil entry means no SLA is defined for that clock.
type TargetSet struct {
	FirstResponse *time.Duration
	NextResponse  *time.Duration
	Resolution    *time.Duration
	Handoff       *time.Duration
}

// PartnerTargets holds a partner's targets for one priority row.
type PartnerTargets struct {
	Response *time.Duration
	Resolve  *time.Duration
}

// PartnerPolicy is one partner's SLA table. Weekend, when present, overrides
// Weekday on Saturdays and Sundays; the split is decided by the evaluation
// instant, never by when the ticket was created.
type PartnerPolicy struct {
	Weekday map[domain.TicketPriority]PartnerTargets
	Weekend map[domain.TicketPriority]PartnerTargets
}

// Targets is the resolved target set for one classification at one instant.
type Targets struct {
	FirstResponse   *time.Duration
	NextResponse    *time.Duration
	Resolution      *time.Duration
	Handoff         *time.Duration
	PartnerResponse *time.Duration
	PartnerResolve  *time.Duration
	// PartnerConfigured is false when the ticket is partner-owned but the
	// partner has no numeric targets at all (placeholder partner).
	PartnerConfigured bool
}

// Policy is the single source of truth for SLA targets, injected as
// configuration rather than hard-coded per consumer.
type Policy struct {
	internal map[domain.Tier]map[domain.TicketPriority]TargetSet
	partners map[domain.Partner]PartnerPolicy
}

// DefaultPolicy returns the built-in SLA matrix.
func DefaultPolicy() *Policy {
	return &Policy{
		internal: map[domain.Tier]map[domain.TicketPriority]TargetSet{
			domain.TierL0: {
				domain.TicketPriorityUrgent: {FirstResponse: minutes(60), NextResponse: minutes(120), Resolution: hours(24)},
				domain.TicketPriorityHigh:   {FirstResponse: minutes(120), NextResponse: minutes(240), Resolution: hours(48)},
				domain.TicketPriorityNormal: {FirstResponse: minutes(240), NextResponse: minutes(480), Resolution: hours(72)},
				domain.TicketPriorityLow:    {FirstResponse: minutes(480), NextResponse: minutes(960), Resolution: hours(120)},
			},
			domain.TierL1: {
				domain.TicketPriorityUrgent: {FirstResponse: minutes(30), NextResponse: minutes(60), Resolution: hours(12), Handoff: minutes(30)},
				domain.TicketPriorityHigh:   {FirstResponse: minutes(60), NextResponse: minutes(120), Resolution: hours(24), Handoff: minutes(60)},
				domain.TicketPriorityNormal: {FirstResponse: minutes(120), NextResponse: minutes(240), Resolution: hours(48), Handoff: minutes(120)},
				domain.TicketPriorityLow:    {FirstResponse: minutes(240), NextResponse: minutes(480), Resolution: hours(96), Handoff: minutes(240)},
			},
		},
		partners: map[domain.Partner]PartnerPolicy{
			domain.PartnerConnectX: {
				Weekday: map[domain.TicketPriority]PartnerTargets{
					domain.TicketPriorityUrgent: {Response: hours(2), Resolve: hours(24)},
					domain.TicketPriorityHigh:   {Response: hours(4), Resolve: hours(48)},
					domain.TicketPriorityNormal: {Response: hours(8), Resolve: hours(96)},
					domain.TicketPriorityLow:    {Response: hours(16), Resolve: hours(192)},
				},
				Weekend: map[domain.TicketPriority]PartnerTargets{
					domain.TicketPriorityUrgent: {Response: hours(4), Resolve: hours(48)},
					domain.TicketPriorityHigh:   {Response: hours(8), Resolve: hours(96)},
					domain.TicketPriorityNormal: {Response: hours(16), Resolve: hours(192)},
					domain.TicketPriorityLow:    {Response: hours(32), Resolve: hours(384)},
				},
			},
			domain.PartnerAirvet: {
				Weekday: map[domain.TicketPriority]PartnerTargets{
					domain.TicketPriorityUrgent: {Response: hours(4), Resolve: hours(48)},
					domain.TicketPriorityHigh:   {Response: hours(8), Resolve: hours(96)},
					domain.TicketPriorityNormal: {Response: hours(16), Resolve: hours(192)},
					domain.TicketPriorityLow:    {Response: hours(32), Resolve: hours(384)},
				},
			},
			// AT&T is onboarded without a negotiated SLA yet; every lookup
			// resolves to "not configured".
			domain.PartnerATT: {},
		},
	}
}

// ResolveTargets looks up the applicable targets for a classification and
// priority. The reference instant decides the weekday/weekend branch for
// calendar-shift partners, so compliance can change as "now" crosses a day
// boundary.
func (p *Policy) ResolveTargets(cls domain.Classification, priority domain.TicketPriority, ref time.Time) Targets {
	var out Targets
	set := p.internalRow(cls.Tier, priority)
	out.FirstResponse = set.FirstResponse
	out.NextResponse = set.NextResponse
	out.Resolution = set.Resolution
	if cls.Tier.IsEscalated() {
		out.Handoff = set.Handoff
	}

	if cls.Partner != nil {
		pt := p.partnerRow(*cls.Partner, priority, ref)
		out.PartnerResponse = pt.Response
		out.PartnerResolve = pt.Resolve
		out.PartnerConfigured = pt.Response != nil || pt.Resolve != nil
	}
	return out
}

// internalRow resolves the internal table row, inheriting from the nearest
// defined tier (L3 -> L2 -> L1) and falling back to the normal priority row.
func (p *Policy) internalRow(tier domain.Tier, priority domain.TicketPriority) TargetSet {
	for {
		if rows, ok := p.internal[tier]; ok {
			if set, ok := rows[priority]; ok {
				return set
			}
			if set, ok := rows[domain.TicketPriorityNormal]; ok {
				return set
			}
			return TargetSet{}
		}
		switch tier {
		case domain.TierL3:
			tier = domain.TierL2
		case domain.TierL2:
			tier = domain.TierL1
		default:
			return TargetSet{}
		}
	}
}

func (p *Policy) partnerRow(partner domain.Partner, priority domain.TicketPriority, ref time.Time) PartnerTargets {
	policy, ok := p.partners[partner]
	if !ok {
		return PartnerTargets{}
	}
	table := policy.Weekday
	if isWeekend(ref) && policy.Weekend != nil {
		table = policy.Weekend
	}
	if table == nil {
		return PartnerTargets{}
	}
	if pt, ok := table[priority]; ok {
		return pt
	}
	return table[domain.TicketPriorityNormal]
}

func isWeekend(t time.Time) bool {
	wd := t.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

func minutes(n int) *time.Duration {
	d := time.Duration(n) * time.Minute
	return &d
}

func hours(n int) *time.Duration {
	d := time.Duration(n) * time.Hour
	return &d
}
