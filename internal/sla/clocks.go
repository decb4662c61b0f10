package sla

import (
	"time"

	"github.com/spec-kit/sla-engine/internal/domain"
)

// StatusThreshold pairs an upper percentage bound with a status.
type StatusThreshold struct {
	MaxPercent float64
	Status     domain.ClockStatus
}

// StatusProfile is an ordered percentage-to-status mapping. Both the five-
// and three-state profiles are instances of the same mechanism; the five-state
// profile is canonical and the three-state view is derived via
// ClockStatus.Coarse.
type StatusProfile []StatusThreshold

// DefaultProfile is the canonical five-state countdown profile.
var DefaultProfile = StatusProfile{
	{MaxPercent: 60, Status: domain.ClockStatusGreen},
	{MaxPercent: 85, Status: domain.ClockStatusAmber},
	{MaxPercent: 100, Status: domain.ClockStatusRed},
}

// StatusFor maps a completion percentage onto the profile. At or beyond 100%
// the clock is breached regardless of profile contents.
func (p StatusProfile) StatusFor(percentage float64) domain.ClockStatus {
	if percentage >= 100 {
		return domain.ClockStatusBreached
	}
	for _, t := range p {
		if percentage <= t.MaxPercent {
			return t.Status
		}
	}
	return domain.ClockStatusBreached
}

// Percentage computes completion clamped to [0, 100]. A non-positive target
// counts as fully consumed.
func Percentage(elapsed, target time.Duration) float64 {
	if target <= 0 {
		return 100
	}
	pct := float64(elapsed) / float64(target) * 100
	if pct < 0 {
		return 0
	}
	if pct > 100 {
		return 100
	}
	return pct
}

// RelativePercentage scales elapsed against a reference duration for
// comparative display (the MTTR bar), clamped to a wider ceiling for visual
// headroom. Only the rendered percentage is clamped, never the elapsed value.
func RelativePercentage(elapsed, reference time.Duration, ceiling float64) float64 {
	if reference <= 0 {
		return 0
	}
	pct := float64(elapsed) / float64(reference) * 100
	if pct < 0 {
		return 0
	}
	if ceiling > 0 && pct > ceiling {
		return ceiling
	}
	return pct
}

// RetickElapsed recovers elapsed time purely from the breach instant:
// elapsed = target - (breachAt - now), floored at zero. Past the breach
// instant elapsed keeps growing with now; only the rendered percentage is
// capped. This is the whole data dependency of a periodic re-tick.
func RetickElapsed(breachAt time.Time, target time.Duration, now time.Time) time.Duration {
	elapsed := target - breachAt.Sub(now)
	if elapsed < 0 {
		return 0
	}
	return elapsed
}

// EvaluationInput bundles the fetched data one clock evaluation runs over.
// Timeline may be nil when the audit trail was absent or inaccessible; the
// clocks that depend on it are then omitted.
type EvaluationInput struct {
	Ticket         *domain.Ticket
	Classification domain.Classification
	Comments       []domain.Comment
	Metrics        *domain.TicketMetrics
	Timeline       []domain.Stint
	Now            time.Time
}

// Evaluator computes the clock set for a ticket. It owns no state beyond the
// injected policy and profile and is safe for reuse across evaluations.
type Evaluator struct {
	policy  *Policy
	profile StatusProfile
}

// NewEvaluator constructs an evaluator with the given policy and profile.
func NewEvaluator(policy *Policy, profile StatusProfile) *Evaluator {
	if profile == nil {
		profile = DefaultProfile
	}
	return &Evaluator{policy: policy, profile: profile}
}

// EvaluateClocks produces a fresh clock set for one tick. Labels are unique
// within the returned slice and ordering is stable across ticks.
func (e *Evaluator) EvaluateClocks(in EvaluationInput) []domain.Clock {
	targets := e.policy.ResolveTargets(in.Classification, in.Ticket.Priority, in.Now)
	basis := in.Metrics.Basis()

	first := e.firstResponseClock(in, targets, basis)
	next := e.nextResponseClock(in, targets)
	next = coupleNextResponse(first, next)

	clocks := []domain.Clock{first, next, e.resolutionClock(in, targets, basis)}

	if in.Classification.Tier.IsEscalated() && in.Classification.Partner == nil {
		if clock, ok := e.handoffClock(in, targets); ok {
			clocks = append(clocks, clock)
		}
	}
	if in.Classification.Partner != nil {
		clocks = append(clocks, e.partnerClocks(in, targets)...)
	}
	return clocks
}

// Retick recomputes a single clock from (BreachAt, Target, now) alone.
// Terminal and placeholder clocks pass through untouched.
func (e *Evaluator) Retick(clock domain.Clock, now time.Time) domain.Clock {
	if clock.Met || clock.Placeholder || !clock.Configured() || clock.BreachAt == nil {
		return clock
	}
	clock.Elapsed = RetickElapsed(*clock.BreachAt, *clock.Target, now)
	clock.Percentage = Percentage(clock.Elapsed, *clock.Target)
	clock.Status = e.profile.StatusFor(clock.Percentage)
	return clock
}

// RetickAll recomputes every clock in a set and re-applies the escalation
// coupling, so a clock can flip into immediate mid-countdown.
func (e *Evaluator) RetickAll(clocks []domain.Clock, now time.Time) []domain.Clock {
	out := make([]domain.Clock, len(clocks))
	var first domain.Clock
	for i, clock := range clocks {
		out[i] = e.Retick(clock, now)
		if clock.Label == domain.ClockFirstResponse {
			first = out[i]
		}
	}
	for i, clock := range out {
		if clock.Label == domain.ClockNextResponse {
			out[i] = coupleNextResponse(first, clock)
		}
	}
	return out
}

func (e *Evaluator) firstResponseClock(in EvaluationInput, targets Targets, basis domain.ClockBasis) domain.Clock {
	clock := domain.Clock{Label: domain.ClockFirstResponse, Target: targets.FirstResponse}
	if !clock.Configured() {
		clock.Status = domain.ClockStatusNotConfigured
		clock.Placeholder = true
		return clock
	}

	if reply, ok := firstAgentReply(in.Comments, in.Ticket.RequesterID); ok {
		clock.Met = true
		clock.Status = domain.ClockStatusMet
		clock.Elapsed = reply.CreatedAt.Sub(in.Ticket.CreatedAt)
		clock.LateMet = clock.Elapsed > *clock.Target
		clock.Percentage = Percentage(clock.Elapsed, *clock.Target)
		return clock
	}

	clock.BreachAt = e.breachInstant(in.Ticket.CreatedAt, *clock.Target, replyWindow(in.Metrics, basis))
	clock.Elapsed = RetickElapsed(*clock.BreachAt, *clock.Target, in.Now)
	clock.Percentage = Percentage(clock.Elapsed, *clock.Target)
	clock.Status = e.profile.StatusFor(clock.Percentage)
	return clock
}

func (e *Evaluator) nextResponseClock(in EvaluationInput, targets Targets) domain.Clock {
	clock := domain.Clock{Label: domain.ClockNextResponse, Target: targets.NextResponse}
	awaiting, ok := awaitingCustomerMessage(in.Comments, in.Ticket.RequesterID)
	if !ok {
		// The last public word was the agent's (or the customer never spoke):
		// nothing is owed right now.
		clock.Met = true
		clock.Status = domain.ClockStatusMet
		return clock
	}
	if !clock.Configured() {
		clock.Status = domain.ClockStatusNotConfigured
		clock.Placeholder = true
		return clock
	}
	breach := awaiting.CreatedAt.Add(*clock.Target)
	clock.BreachAt = &breach
	clock.Elapsed = RetickElapsed(breach, *clock.Target, in.Now)
	clock.Percentage = Percentage(clock.Elapsed, *clock.Target)
	clock.Status = e.profile.StatusFor(clock.Percentage)
	return clock
}

func (e *Evaluator) resolutionClock(in EvaluationInput, targets Targets, basis domain.ClockBasis) domain.Clock {
	clock := domain.Clock{Label: domain.ClockResolution, Target: targets.Resolution}
	if in.Ticket.Status.IsResolved() {
		clock.Met = true
		clock.Status = domain.ClockStatusMet
		clock.Elapsed = resolvedElapsed(in.Ticket, resolutionWindow(in.Metrics, basis))
		if clock.Configured() {
			clock.LateMet = clock.Elapsed > *clock.Target
			clock.Percentage = Percentage(clock.Elapsed, *clock.Target)
		}
		return clock
	}
	if !clock.Configured() {
		clock.Status = domain.ClockStatusNotConfigured
		clock.Placeholder = true
		return clock
	}
	clock.BreachAt = e.breachInstant(in.Ticket.CreatedAt, *clock.Target, resolutionWindow(in.Metrics, basis))
	clock.Elapsed = RetickElapsed(*clock.BreachAt, *clock.Target, in.Now)
	clock.Percentage = Percentage(clock.Elapsed, *clock.Target)
	clock.Status = e.profile.StatusFor(clock.Percentage)
	return clock
}

func (e *Evaluator) handoffClock(in EvaluationInput, targets Targets) (domain.Clock, bool) {
	if targets.Handoff == nil {
		return domain.Clock{}, false
	}
	start, ok := lastTierChange(in.Timeline)
	if !ok {
		// Missing audit data: omit the clock rather than guess a start.
		return domain.Clock{}, false
	}
	clock := domain.Clock{Label: handoffLabel(in.Classification.Tier), Target: targets.Handoff}
	if reply, ok := firstAgentReplyAfter(in.Comments, in.Ticket.RequesterID, start); ok {
		clock.Met = true
		clock.Status = domain.ClockStatusMet
		clock.Elapsed = reply.CreatedAt.Sub(start)
		clock.LateMet = clock.Elapsed > *clock.Target
		clock.Percentage = Percentage(clock.Elapsed, *clock.Target)
		return clock, true
	}
	breach := start.Add(*clock.Target)
	clock.BreachAt = &breach
	clock.Elapsed = RetickElapsed(breach, *clock.Target, in.Now)
	clock.Percentage = Percentage(clock.Elapsed, *clock.Target)
	clock.Status = e.profile.StatusFor(clock.Percentage)
	return clock, true
}

func (e *Evaluator) partnerClocks(in EvaluationInput, targets Targets) []domain.Clock {
	partner := *in.Classification.Partner
	start, ok := lastTierChange(in.Timeline)
	if !ok {
		start = in.Ticket.CreatedAt
	}

	response := domain.Clock{Label: partnerLabel(partner, "Response"), Target: targets.PartnerResponse}
	resolve := domain.Clock{Label: partnerLabel(partner, "Resolve"), Target: targets.PartnerResolve}

	if response.Configured() {
		if reply, ok := firstAgentReplyAfter(in.Comments, in.Ticket.RequesterID, start); ok {
			response.Met = true
			response.Status = domain.ClockStatusMet
			response.Elapsed = reply.CreatedAt.Sub(start)
			response.LateMet = response.Elapsed > *response.Target
			response.Percentage = Percentage(response.Elapsed, *response.Target)
		} else {
			breach := start.Add(*response.Target)
			response.BreachAt = &breach
			response.Elapsed = RetickElapsed(breach, *response.Target, in.Now)
			response.Percentage = Percentage(response.Elapsed, *response.Target)
			response.Status = e.profile.StatusFor(response.Percentage)
		}
	} else {
		response.Status = domain.ClockStatusNotConfigured
		response.Placeholder = true
	}

	if resolve.Configured() {
		if in.Ticket.Status.IsResolved() {
			resolve.Met = true
			resolve.Status = domain.ClockStatusMet
			resolve.Elapsed = in.Ticket.UpdatedAt.Sub(start)
			resolve.LateMet = resolve.Elapsed > *resolve.Target
			resolve.Percentage = Percentage(resolve.Elapsed, *resolve.Target)
		} else {
			breach := start.Add(*resolve.Target)
			resolve.BreachAt = &breach
			resolve.Elapsed = RetickElapsed(breach, *resolve.Target, in.Now)
			resolve.Percentage = Percentage(resolve.Elapsed, *resolve.Target)
			resolve.Status = e.profile.StatusFor(resolve.Percentage)
		}
	} else {
		resolve.Status = domain.ClockStatusNotConfigured
		resolve.Placeholder = true
	}

	return []domain.Clock{response, resolve}
}

// coupleNextResponse forces Next Response into the immediate state while
// First Response is breached: an overdue first reply makes any further delay
// immediately critical. Re-applied on every tick.
func coupleNextResponse(first, next domain.Clock) domain.Clock {
	if first.Status != domain.ClockStatusBreached {
		return next
	}
	if next.Met || next.Placeholder {
		return next
	}
	next.Status = domain.ClockStatusImmediate
	next.Percentage = 100
	return next
}

// breachInstant prefers the source metric's breach instant when reported,
// otherwise derives one from the clock start and target.
func (e *Evaluator) breachInstant(start time.Time, target time.Duration, window *domain.MetricWindow) *time.Time {
	if window != nil && window.BreachAt != nil {
		return window.BreachAt
	}
	breach := start.Add(target)
	return &breach
}

func replyWindow(m *domain.TicketMetrics, basis domain.ClockBasis) *domain.MetricWindow {
	if m == nil {
		return nil
	}
	return m.ReplyTime.Select(basis)
}

func resolutionWindow(m *domain.TicketMetrics, basis domain.ClockBasis) *domain.MetricWindow {
	if m == nil {
		return nil
	}
	return m.FullResolutionTime.Select(basis)
}

func resolvedElapsed(ticket *domain.Ticket, window *domain.MetricWindow) time.Duration {
	if elapsed, ok := window.Elapsed(); ok {
		return elapsed
	}
	return ticket.UpdatedAt.Sub(ticket.CreatedAt)
}

func firstAgentReply(comments []domain.Comment, requesterID int64) (domain.Comment, bool) {
	for _, c := range comments {
		if c.Public && c.IsAgent(requesterID) {
			return c, true
		}
	}
	return domain.Comment{}, false
}

func firstAgentReplyAfter(comments []domain.Comment, requesterID int64, after time.Time) (domain.Comment, bool) {
	for _, c := range comments {
		if c.Public && c.IsAgent(requesterID) && c.CreatedAt.After(after) {
			return c, true
		}
	}
	return domain.Comment{}, false
}

// awaitingCustomerMessage finds the most recent public customer message with
// no subsequent public agent message.
func awaitingCustomerMessage(comments []domain.Comment, requesterID int64) (domain.Comment, bool) {
	var pending *domain.Comment
	for i := range comments {
		c := comments[i]
		if !c.Public {
			continue
		}
		if c.IsAgent(requesterID) {
			pending = nil
		} else {
			pending = &comments[i]
		}
	}
	if pending == nil {
		return domain.Comment{}, false
	}
	return *pending, true
}

// lastTierChange returns the start of the currently open stint, i.e. the most
// recent group reassignment. A single-stint (or empty) timeline has no change.
func lastTierChange(timeline []domain.Stint) (time.Time, bool) {
	if len(timeline) < 2 {
		return time.Time{}, false
	}
	return timeline[len(timeline)-1].StartedAt, true
}

func handoffLabel(tier domain.Tier) domain.ClockLabel {
	return domain.ClockLabel(string(tier) + " Handoff")
}

func partnerLabel(partner domain.Partner, suffix string) domain.ClockLabel {
	return domain.ClockLabel(string(partner) + " " + suffix)
}
