package events

import (
	"time"

	"github.com/spec-kit/sla-engine/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventEvaluationCompleted EventType = "evaluation_completed"
	EventClockBreached       EventType = "clock_breached"
	EventSessionStarted      EventType = "session_started"
	EventSessionStopped      EventType = "session_stopped"
)

// Event represents an engine event emitted during evaluation.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	TicketID  int64       `json:"ticket_id"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// EvaluationCompletedPayload payload.
type EvaluationCompletedPayload struct {
	Tier       domain.Tier `json:"tier"`
	Partner    string      `json:"partner,omitempty"`
	PathLabel  string      `json:"path_label"`
	ClockCount int         `json:"clock_count"`
	Breaches   int         `json:"breaches"`
}

// ClockBreachedPayload payload.
type ClockBreachedPayload struct {
	Label      domain.ClockLabel  `json:"label"`
	Status     domain.ClockStatus `json:"status"`
	ElapsedSec int64              `json:"elapsed_seconds"`
	TargetSec  *int64             `json:"target_seconds,omitempty"`
}

// SessionPayload payload for session lifecycle events.
type SessionPayload struct {
	SessionID string `json:"session_id"`
}
