package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/sla-engine/internal/events"
)

// BreachMonitor observes engine events and logs breach activity. It stays
// in-process: the engine never sends outbound notifications.
type BreachMonitor struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// NewBreachMonitor creates the monitor.
func NewBreachMonitor(dispatcher events.Dispatcher, logger *zap.Logger) *BreachMonitor {
	return &BreachMonitor{dispatcher: dispatcher, logger: logger}
}

// RegisterHandlers subscribes to engine events.
func (b *BreachMonitor) RegisterHandlers() {
	if b.dispatcher == nil {
		return
	}
	b.dispatcher.Subscribe(events.EventClockBreached, b.handleClockBreached)
	b.dispatcher.Subscribe(events.EventEvaluationCompleted, b.handleEvaluationCompleted)
}

func (b *BreachMonitor) handleClockBreached(ctx context.Context, event events.Event) error {
	b.logger.Warn("ClockBreached", zap.Int64("ticket_id", event.TicketID), zap.Any("payload", event.Payload))
	return nil
}

func (b *BreachMonitor) handleEvaluationCompleted(ctx context.Context, event events.Event) error {
	b.logger.Debug("EvaluationCompleted", zap.Int64("ticket_id", event.TicketID), zap.Any("payload", event.Payload))
	return nil
}
