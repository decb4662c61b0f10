package dto

import (
	"fmt"
	"time"

	"github.com/spec-kit/sla-engine/internal/domain"
	"github.com/spec-kit/sla-engine/internal/service"
)

// ClockView is one rendered SLA clock.
type ClockView struct {
	Label         string     `json:"label"`
	Status        string     `json:"status"`
	CoarseStatus  string     `json:"coarse_status"`
	Percentage    float64    `json:"percentage"`
	HumanTimeText string     `json:"human_time_text"`
	IsPlaceholder bool       `json:"is_placeholder"`
	Met           bool       `json:"met"`
	LateMet       bool       `json:"late_met,omitempty"`
	BreachAt      *time.Time `json:"breach_at,omitempty"`
}

// EvaluationResponse is the full evaluation payload.
type EvaluationResponse struct {
	TicketID    int64       `json:"ticket_id"`
	Tier        string      `json:"tier"`
	PartnerName *string     `json:"partner_name"`
	PathLabel   string      `json:"path_label"`
	GroupName   string      `json:"group_name"`
	Basis       string      `json:"clock_basis"`
	EvaluatedAt time.Time   `json:"evaluated_at"`
	Clocks      []ClockView `json:"clocks"`
}

// StintView is one rendered tier stint.
type StintView struct {
	GroupName    string     `json:"group_name"`
	Tier         string     `json:"tier"`
	Partner      *string    `json:"partner,omitempty"`
	StartedAt    time.Time  `json:"started_at"`
	EndedAt      *time.Time `json:"ended_at"`
	DurationText string     `json:"duration_text"`
}

// TimelineResponse carries both orderings derived from the canonical
// chronological stint list.
type TimelineResponse struct {
	TicketID      int64       `json:"ticket_id"`
	Chronological []StintView `json:"chronological"`
	RecentFirst   []StintView `json:"recent_first"`
}

// MTTRResponse is the comparison summary, or a no-data marker.
type MTTRResponse struct {
	Available       bool    `json:"available"`
	MeanText        string  `json:"mean_text,omitempty"`
	MedianText      string  `json:"median_text,omitempty"`
	MeanSec         int64   `json:"mean_seconds,omitempty"`
	MedianSec       int64   `json:"median_seconds,omitempty"`
	SampleSize      int     `json:"sample_size,omitempty"`
	Scope           string  `json:"scope,omitempty"`
	Approximate     bool    `json:"approximate_resolved_at,omitempty"`
	CurrentText     string  `json:"current_text,omitempty"`
	CurrentSec      int64   `json:"current_seconds,omitempty"`
	RelativePercent float64 `json:"relative_percent,omitempty"`
}

// NewEvaluationResponse maps an evaluation onto the view contract.
func NewEvaluationResponse(eval *service.Evaluation) EvaluationResponse {
	clocks := make([]ClockView, 0, len(eval.Clocks))
	for _, clock := range eval.Clocks {
		clocks = append(clocks, newClockView(clock))
	}
	resp := EvaluationResponse{
		TicketID:    eval.TicketID,
		Tier:        string(eval.Classification.Tier),
		PathLabel:   eval.Classification.PathLabel(),
		GroupName:   eval.Classification.GroupName,
		Basis:       string(eval.Basis),
		EvaluatedAt: eval.EvaluatedAt,
		Clocks:      clocks,
	}
	if name := eval.Classification.PartnerName(); name != "" {
		resp.PartnerName = &name
	}
	return resp
}

func newClockView(clock domain.Clock) ClockView {
	view := ClockView{
		Label:         string(clock.Label),
		Status:        string(clock.Status),
		CoarseStatus:  string(clock.Status.Coarse()),
		Percentage:    clock.Percentage,
		IsPlaceholder: clock.Placeholder,
		Met:           clock.Met,
		LateMet:       clock.LateMet,
		BreachAt:      clock.BreachAt,
	}
	switch {
	case clock.Placeholder:
		view.HumanTimeText = "No SLA configured"
	case clock.Met:
		view.HumanTimeText = fmt.Sprintf("Met in %s", HumanDuration(clock.Elapsed))
	case clock.Status == domain.ClockStatusImmediate:
		view.HumanTimeText = "Respond now"
	case clock.Target != nil && clock.Elapsed >= *clock.Target:
		view.HumanTimeText = fmt.Sprintf("Overdue by %s", HumanDuration(clock.Elapsed-*clock.Target))
	case clock.Target != nil:
		view.HumanTimeText = fmt.Sprintf("%s left", HumanDuration(*clock.Target-clock.Elapsed))
	default:
		view.HumanTimeText = HumanDuration(clock.Elapsed)
	}
	return view
}

// NewTimelineResponse maps stints onto the view contract.
func NewTimelineResponse(ticketID int64, stints []domain.Stint, recentFirst []domain.Stint, now time.Time) TimelineResponse {
	return TimelineResponse{
		TicketID:      ticketID,
		Chronological: newStintViews(stints, now),
		RecentFirst:   newStintViews(recentFirst, now),
	}
}

func newStintViews(stints []domain.Stint, now time.Time) []StintView {
	views := make([]StintView, 0, len(stints))
	for _, s := range stints {
		view := StintView{
			GroupName:    s.GroupName,
			Tier:         string(s.Tier),
			StartedAt:    s.StartedAt,
			EndedAt:      s.EndedAt,
			DurationText: HumanDuration(s.Duration(now)),
		}
		if s.Partner != nil {
			name := string(*s.Partner)
			view.Partner = &name
		}
		views = append(views, view)
	}
	return views
}

// NewMTTRResponse maps a comparison, rendering the explicit no-data state for
// a nil comparison instead of zeroes.
func NewMTTRResponse(cmp *service.MTTRComparison) MTTRResponse {
	if cmp == nil || cmp.Summary == nil {
		return MTTRResponse{Available: false}
	}
	summary := cmp.Summary
	return MTTRResponse{
		Available:       true,
		MeanText:        HumanDuration(summary.Mean),
		MedianText:      HumanDuration(summary.Median),
		MeanSec:         int64(summary.Mean.Seconds()),
		MedianSec:       int64(summary.Median.Seconds()),
		SampleSize:      summary.SampleSize,
		Scope:           summary.Scope,
		Approximate:     summary.ApproximateResolvedAt,
		CurrentText:     HumanDuration(cmp.CurrentElapsed),
		CurrentSec:      int64(cmp.CurrentElapsed.Seconds()),
		RelativePercent: cmp.RelativePercent,
	}
}

// HumanDuration renders a duration in the "2d 3h 15m" style used across the
// dashboard surfaces.
func HumanDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	days := int(d.Hours()) / 24
	hours := int(d.Hours()) % 24
	minutes := int(d.Minutes()) % 60
	switch {
	case days > 0 && hours > 0:
		return fmt.Sprintf("%dd %dh", days, hours)
	case days > 0:
		return fmt.Sprintf("%dd", days)
	case hours > 0 && minutes > 0:
		return fmt.Sprintf("%dh %dm", hours, minutes)
	case hours > 0:
		return fmt.Sprintf("%dh", hours)
	default:
		return fmt.Sprintf("%dm", minutes)
	}
}
