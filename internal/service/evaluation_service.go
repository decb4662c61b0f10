package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/sla-engine/internal/config"
	"github.com/spec-kit/sla-engine/internal/domain"
	"github.com/spec-kit/sla-engine/internal/events"
	"github.com/spec-kit/sla-engine/internal/observability"
	"github.com/spec-kit/sla-engine/internal/repository"
	"github.com/spec-kit/sla-engine/internal/sla"
	apperrors "github.com/spec-kit/sla-engine/pkg/util"
)

// Evaluation is the atomic result of one full refresh: classification,
// targets and clocks all derive from the same fetched snapshot, so consumers
// never see old clocks mixed with a new tier.
type Evaluation struct {
	TicketID       int64
	RequesterID    int64
	Classification domain.Classification
	Basis          domain.ClockBasis
	Clocks         []domain.Clock
	Timeline       []domain.Stint
	EvaluatedAt    time.Time
}

// EvaluationService composes the engine: classify tier, resolve targets,
// evaluate clocks, and on demand build the escalation timeline and the MTTR
// comparison. This is the engine's single public surface.
type EvaluationService struct {
	source     repository.TicketSource
	cache      repository.MTTRCache
	classifier *sla.Classifier
	evaluator  *sla.Evaluator
	timeline   *sla.TimelineBuilder
	dispatcher events.Dispatcher
	metrics    *observability.Metrics
	logger     *zap.Logger
	cfg        config.EngineConfig

	// now is swapped out in tests; evaluations are otherwise wall-clock bound.
	now func() time.Time
}

// EvaluationDependencies bundles collaborators for the evaluation service.
type EvaluationDependencies struct {
	Source     repository.TicketSource
	MTTRCache  repository.MTTRCache
	Classifier *sla.Classifier
	Evaluator  *sla.Evaluator
	Timeline   *sla.TimelineBuilder
	Dispatcher events.Dispatcher
	Metrics    *observability.Metrics
	Logger     *zap.Logger
}

// NewEvaluationService constructs the service.
func NewEvaluationService(cfg config.EngineConfig, deps EvaluationDependencies) *EvaluationService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EvaluationService{
		source:     deps.Source,
		cache:      deps.MTTRCache,
		classifier: deps.Classifier,
		evaluator:  deps.Evaluator,
		timeline:   deps.Timeline,
		dispatcher: deps.Dispatcher,
		metrics:    deps.Metrics,
		logger:     logger,
		cfg:        cfg,
		now:        time.Now,
	}
}

// Evaluate runs one full refresh for a ticket. The ticket fetch itself is
// required; metrics, comments and audit data degrade per clock when their
// fetches fail. Malformed source data fails the whole evaluation with a
// labeled error.
func (s *EvaluationService) Evaluate(ctx context.Context, ticketID int64) (*Evaluation, error) {
	ticket, err := s.fetchTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if ticket.CreatedAt.IsZero() {
		return nil, apperrors.NewEvaluationFailed(ticketID, fmt.Errorf("ticket %d has no creation timestamp", ticketID))
	}

	metrics, comments, audits := s.fetchAuxiliary(ctx, ticketID)
	now := s.now()

	cls := s.classifier.Classify(ticket.AssignedGroupName(), ticket.PartnerFieldValue(s.cfg.PartnerFieldID))
	timeline := s.timeline.Build(audits, ticket.CreatedAt, s.groupLookup(ctx))

	eval := &Evaluation{
		TicketID:       ticket.ID,
		RequesterID:    ticket.RequesterID,
		Classification: cls,
		Basis:          metrics.Basis(),
		Timeline:       timeline,
		EvaluatedAt:    now,
	}
	eval.Clocks = s.evaluator.EvaluateClocks(sla.EvaluationInput{
		Ticket:         ticket,
		Classification: cls,
		Comments:       comments,
		Metrics:        metrics,
		Timeline:       timeline,
		Now:            now,
	})

	s.metrics.RecordEvaluation()
	s.publishEvaluationEvents(ctx, eval)
	return eval, nil
}

// Retick recomputes an evaluation's clocks for a new instant using only the
// captured breach instants; no source data is re-fetched.
func (s *EvaluationService) Retick(eval *Evaluation, now time.Time) *Evaluation {
	next := *eval
	next.Clocks = s.evaluator.RetickAll(eval.Clocks, now)
	next.EvaluatedAt = now
	return &next
}

// BuildTimeline reconstructs the ticket's tier-assignment history on demand.
// An absent or inaccessible audit trail yields an empty timeline, not an
// error.
func (s *EvaluationService) BuildTimeline(ctx context.Context, ticketID int64) ([]domain.Stint, error) {
	ticket, err := s.fetchTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	audits, err := s.source.ListAuditEvents(ctx, ticketID)
	if err != nil {
		s.metrics.RecordUpstreamError("list_audits")
		s.logger.Warn("audit trail unavailable", zap.Int64("ticket_id", ticketID), zap.Error(err))
		return nil, nil
	}
	return s.timeline.Build(audits, ticket.CreatedAt, s.groupLookup(ctx)), nil
}

// mttrBarCeiling gives the comparison bar visual headroom past 100% without
// touching the underlying elapsed value.
const mttrBarCeiling = 150

// MTTRComparison pairs the aggregate summary with the current ticket's own
// resolution progress, scaled against the population mean for display.
type MTTRComparison struct {
	Summary         *domain.MTTRSummary
	CurrentElapsed  time.Duration
	RelativePercent float64
}

// ComputeMTTR returns the cached or freshly aggregated MTTR comparison for
// the ticket's requester. A nil comparison means no usable sample exists.
func (s *EvaluationService) ComputeMTTR(ctx context.Context, ticketID int64) (*MTTRComparison, error) {
	ticket, err := s.fetchTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	scope := fmt.Sprintf("requester:%d", ticket.RequesterID)
	summary, ok := s.cache.Get(ctx, scope)
	if !ok {
		samples, err := s.source.ListResolvedSamples(ctx, ticket.RequesterID, s.cfg.MTTRSampleLimit)
		if err != nil {
			// A failed sample fetch yields "unavailable", never an engine error.
			s.metrics.RecordUpstreamError("list_resolved_samples")
			s.logger.Warn("mttr sample fetch failed", zap.Int64("ticket_id", ticketID), zap.Error(err))
			return nil, nil
		}
		summary = sla.ComputeMTTR(samples, scope)
		if summary != nil {
			s.cache.Set(ctx, scope, summary, s.cfg.MTTRCacheTTL())
		}
	}
	if summary == nil {
		return nil, nil
	}

	elapsed := s.now().Sub(ticket.CreatedAt)
	if ticket.Status.IsResolved() {
		elapsed = ticket.UpdatedAt.Sub(ticket.CreatedAt)
	}
	return &MTTRComparison{
		Summary:         summary,
		CurrentElapsed:  elapsed,
		RelativePercent: sla.RelativePercentage(elapsed, summary.Mean, mttrBarCeiling),
	}, nil
}

// fetchTicket retrieves the required snapshot root. Errors the source already
// labeled (a missing ticket) pass through; anything else becomes an upstream
// failure.
func (s *EvaluationService) fetchTicket(ctx context.Context, ticketID int64) (*domain.Ticket, error) {
	ticket, err := s.source.GetTicket(ctx, ticketID)
	if err != nil {
		var domainErr *apperrors.DomainError
		if errors.As(err, &domainErr) {
			return nil, err
		}
		s.metrics.RecordUpstreamError("get_ticket")
		return nil, apperrors.NewUpstreamUnavailable("get_ticket", err)
	}
	return ticket, nil
}

// fetchAuxiliary runs the independent read-only fetches concurrently. Each
// failure degrades that input to nil; the state machine then falls back per
// clock.
func (s *EvaluationService) fetchAuxiliary(ctx context.Context, ticketID int64) (*domain.TicketMetrics, []domain.Comment, []domain.AuditEvent) {
	var (
		wg       sync.WaitGroup
		metrics  *domain.TicketMetrics
		comments []domain.Comment
		audits   []domain.AuditEvent
	)
	wg.Add(3)
	go func() {
		defer wg.Done()
		m, err := s.source.GetMetrics(ctx, ticketID)
		if err != nil {
			s.metrics.RecordUpstreamError("get_metrics")
			s.logger.Warn("metrics fetch failed; falling back to creation-time estimates",
				zap.Int64("ticket_id", ticketID), zap.Error(err))
			return
		}
		metrics = m
	}()
	go func() {
		defer wg.Done()
		c, err := s.source.ListComments(ctx, ticketID)
		if err != nil {
			s.metrics.RecordUpstreamError("list_comments")
			s.logger.Warn("comment fetch failed", zap.Int64("ticket_id", ticketID), zap.Error(err))
			return
		}
		comments = c
	}()
	go func() {
		defer wg.Done()
		a, err := s.source.ListAuditEvents(ctx, ticketID)
		if err != nil {
			s.metrics.RecordUpstreamError("list_audits")
			s.logger.Warn("audit fetch failed", zap.Int64("ticket_id", ticketID), zap.Error(err))
			return
		}
		audits = a
	}()
	wg.Wait()
	return metrics, comments, audits
}

// groupLookup adapts the source's group-name resolution for the timeline
// builder. Lookup failures surface as misses so a single unknown group never
// fails the whole timeline.
func (s *EvaluationService) groupLookup(ctx context.Context) sla.GroupNameLookup {
	return func(groupID string) (string, bool) {
		id, err := strconv.ParseInt(groupID, 10, 64)
		if err != nil {
			return "", false
		}
		name, err := s.source.GetGroupName(ctx, id)
		if err != nil {
			s.metrics.RecordUpstreamError("get_group_name")
			return "", false
		}
		return name, true
	}
}

func (s *EvaluationService) publishEvaluationEvents(ctx context.Context, eval *Evaluation) {
	breaches := 0
	for _, clock := range eval.Clocks {
		if clock.Status != domain.ClockStatusBreached && clock.Status != domain.ClockStatusImmediate {
			continue
		}
		breaches++
		s.metrics.RecordBreach(string(clock.Label))
		var targetSec *int64
		if clock.Target != nil {
			secs := int64(clock.Target.Seconds())
			targetSec = &secs
		}
		s.publish(ctx, events.Event{
			Type:     events.EventClockBreached,
			TicketID: eval.TicketID,
			Payload: events.ClockBreachedPayload{
				Label:      clock.Label,
				Status:     clock.Status,
				ElapsedSec: int64(clock.Elapsed.Seconds()),
				TargetSec:  targetSec,
			},
		})
	}
	s.publish(ctx, events.Event{
		Type:     events.EventEvaluationCompleted,
		TicketID: eval.TicketID,
		Payload: events.EvaluationCompletedPayload{
			Tier:       eval.Classification.Tier,
			Partner:    eval.Classification.PartnerName(),
			PathLabel:  eval.Classification.PathLabel(),
			ClockCount: len(eval.Clocks),
			Breaches:   breaches,
		},
	})
}

func (s *EvaluationService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}
