package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/sla-engine/internal/events"
)

// SnapshotFunc receives each fresh evaluation produced within a session.
type SnapshotFunc func(*Evaluation)

// Session owns the live countdown for one ticket: its ticker, its
// cancellation, and the evaluation it reticks. Stale results for a replaced
// session are discarded on arrival.
type Session struct {
	ID       string
	TicketID int64

	cancel context.CancelFunc
	done   chan struct{}
}

// Stop cancels the session and waits for its timer goroutine to exit.
func (s *Session) Stop() {
	if s == nil {
		return
	}
	s.cancel()
	<-s.done
}

// SessionManager enforces the single-live-timer rule: starting a session for
// a new ticket stops the previous one before the new ticker begins.
type SessionManager struct {
	engine     *EvaluationService
	dispatcher events.Dispatcher
	logger     *zap.Logger
	interval   time.Duration

	mu     sync.Mutex
	active *Session
}

// NewSessionManager constructs a manager ticking at the given interval.
func NewSessionManager(engine *EvaluationService, dispatcher events.Dispatcher, logger *zap.Logger, interval time.Duration) *SessionManager {
	if logger == nil {
		logger = zap.NewNop()
	}
	if interval <= 0 {
		interval = time.Second
	}
	return &SessionManager{
		engine:     engine,
		dispatcher: dispatcher,
		logger:     logger,
		interval:   interval,
	}
}

// Start begins a live evaluation session for a ticket, replacing any active
// session. The snapshot callback runs once after the initial full evaluation
// and then once per tick with purely recomputed clocks.
func (m *SessionManager) Start(ctx context.Context, ticketID int64, snapshot SnapshotFunc) *Session {
	m.mu.Lock()
	previous := m.active
	sessionCtx, cancel := context.WithCancel(ctx)
	session := &Session{
		ID:       uuid.NewString(),
		TicketID: ticketID,
		cancel:   cancel,
		done:     make(chan struct{}),
	}
	m.active = session
	m.mu.Unlock()

	// The old ticker must be gone before the new one starts.
	previous.Stop()

	go m.run(sessionCtx, session, snapshot)
	return session
}

// StopActive stops the current session, if any.
func (m *SessionManager) StopActive() {
	m.mu.Lock()
	active := m.active
	m.active = nil
	m.mu.Unlock()
	active.Stop()
}

func (m *SessionManager) run(ctx context.Context, session *Session, snapshot SnapshotFunc) {
	defer close(session.done)

	m.publishLifecycle(ctx, events.EventSessionStarted, session)
	defer m.publishLifecycle(context.Background(), events.EventSessionStopped, session)

	eval, err := m.engine.Evaluate(ctx, session.TicketID)
	if err != nil {
		m.logger.Error("session evaluation failed",
			zap.String("session_id", session.ID),
			zap.Int64("ticket_id", session.TicketID),
			zap.Error(err))
		return
	}
	// The subject may have changed while the fetch was in flight; a stale
	// result must not reach the consumer.
	if ctx.Err() != nil {
		return
	}
	if snapshot != nil {
		snapshot(eval)
	}

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			eval = m.engine.Retick(eval, now)
			if ctx.Err() != nil {
				return
			}
			if snapshot != nil {
				snapshot(eval)
			}
		}
	}
}

func (m *SessionManager) publishLifecycle(ctx context.Context, eventType events.EventType, session *Session) {
	if m.dispatcher == nil {
		return
	}
	_ = m.dispatcher.Publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		TicketID:  session.TicketID,
		Timestamp: time.Now(),
		Payload:   events.SessionPayload{SessionID: session.ID},
	})
}
