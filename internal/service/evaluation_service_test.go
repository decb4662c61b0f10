package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/sla-engine/internal/config"
	"github.com/spec-kit/sla-engine/internal/domain"
	"github.com/spec-kit/sla-engine/internal/events"
	"github.com/spec-kit/sla-engine/internal/observability"
	"github.com/spec-kit/sla-engine/internal/sla"
	apperrors "github.com/spec-kit/sla-engine/pkg/util"
)

var t0 = time.Date(2026, 8, 19, 9, 0, 0, 0, time.UTC)

type fakeSource struct {
	ticket      *domain.Ticket
	ticketErr   error
	metrics     *domain.TicketMetrics
	metricsErr  error
	comments    []domain.Comment
	commentsErr error
	audits      []domain.AuditEvent
	auditsErr   error
	groups      map[int64]string
	samples     []domain.ResolvedTicketSample
	samplesErr  error

	sampleCalls int
}

func (f *fakeSource) GetTicket(ctx context.Context, ticketID int64) (*domain.Ticket, error) {
	if f.ticketErr != nil {
		return nil, f.ticketErr
	}
	if f.ticket == nil {
		return nil, nil
	}
	ticket := *f.ticket
	ticket.ID = ticketID
	return &ticket, nil
}

func (f *fakeSource) GetMetrics(ctx context.Context, ticketID int64) (*domain.TicketMetrics, error) {
	return f.metrics, f.metricsErr
}

func (f *fakeSource) ListComments(ctx context.Context, ticketID int64) ([]domain.Comment, error) {
	return f.comments, f.commentsErr
}

func (f *fakeSource) ListAuditEvents(ctx context.Context, ticketID int64) ([]domain.AuditEvent, error) {
	return f.audits, f.auditsErr
}

func (f *fakeSource) GetGroupName(ctx context.Context, groupID int64) (string, error) {
	if name, ok := f.groups[groupID]; ok {
		return name, nil
	}
	return "", errors.New("group not found")
}

func (f *fakeSource) ListResolvedSamples(ctx context.Context, requesterID int64, limit int) ([]domain.ResolvedTicketSample, error) {
	f.sampleCalls++
	return f.samples, f.samplesErr
}

type fakeCache struct {
	entries map[string]*domain.MTTRSummary
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: map[string]*domain.MTTRSummary{}}
}

func (c *fakeCache) Get(ctx context.Context, scope string) (*domain.MTTRSummary, bool) {
	summary, ok := c.entries[scope]
	return summary, ok
}

func (c *fakeCache) Set(ctx context.Context, scope string, summary *domain.MTTRSummary, ttl time.Duration) {
	c.entries[scope] = summary
}

func testTicket(group string) *domain.Ticket {
	t := &domain.Ticket{
		ID:          42,
		Priority:    domain.TicketPriorityUrgent,
		Status:      domain.TicketStatusOpen,
		CreatedAt:   t0,
		UpdatedAt:   t0,
		RequesterID: 100,
	}
	if group != "" {
		t.GroupName = &group
	}
	return t
}

func newTestService(source *fakeSource, cache *fakeCache) *EvaluationService {
	classifier := sla.NewClassifier(sla.KeywordConfig{})
	return NewEvaluationService(config.EngineConfig{MTTRSampleLimit: 100, MTTRCacheTTLMinutes: 15}, EvaluationDependencies{
		Source:     source,
		MTTRCache:  cache,
		Classifier: classifier,
		Evaluator:  sla.NewEvaluator(sla.DefaultPolicy(), sla.DefaultProfile),
		Timeline:   sla.NewTimelineBuilder(classifier),
		Dispatcher: events.NewInMemoryDispatcher(),
		Metrics:    observability.NewMetrics(),
		Logger:     zap.NewNop(),
	})
}

func clockByLabel(t *testing.T, eval *Evaluation, label domain.ClockLabel) domain.Clock {
	t.Helper()
	for _, c := range eval.Clocks {
		if c.Label == label {
			return c
		}
	}
	t.Fatalf("clock %q not found", label)
	return domain.Clock{}
}

func TestEvaluateHappyPath(t *testing.T) {
	source := &fakeSource{ticket: testTicket("Frontline")}
	svc := newTestService(source, newFakeCache())

	eval, err := svc.Evaluate(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, int64(42), eval.TicketID)
	assert.Equal(t, domain.TierL0, eval.Classification.Tier)
	assert.Equal(t, domain.CalendarClock, eval.Basis)
	assert.Empty(t, eval.Timeline)

	first := clockByLabel(t, eval, domain.ClockFirstResponse)
	assert.False(t, first.Met)
	assert.NotNil(t, first.BreachAt)
}

func TestEvaluateTicketFetchFailureIsFatal(t *testing.T) {
	source := &fakeSource{ticketErr: errors.New("upstream down")}
	svc := newTestService(source, newFakeCache())

	_, err := svc.Evaluate(context.Background(), 42)
	require.Error(t, err)
	assert.Equal(t, "UPSTREAM_UNAVAILABLE", apperrors.ToDomainError(err).Code)
}

func TestEvaluateMissingTicketStaysNotFound(t *testing.T) {
	source := &fakeSource{ticketErr: apperrors.NewNotFound("ticket", nil)}
	svc := newTestService(source, newFakeCache())

	_, err := svc.Evaluate(context.Background(), 42)
	require.Error(t, err)
	assert.Equal(t, "NOT_FOUND", apperrors.ToDomainError(err).Code)
}

func TestEvaluateMalformedTicketFailsWholeEvaluation(t *testing.T) {
	ticket := testTicket("Frontline")
	ticket.CreatedAt = time.Time{}
	svc := newTestService(&fakeSource{ticket: ticket}, newFakeCache())

	_, err := svc.Evaluate(context.Background(), 42)
	require.Error(t, err)
	assert.Equal(t, "EVALUATION_FAILED", apperrors.ToDomainError(err).Code)
}

func TestEvaluateDegradesWhenAuxiliaryFetchesFail(t *testing.T) {
	source := &fakeSource{
		ticket:      testTicket("Network Engineering"),
		metricsErr:  errors.New("metrics down"),
		commentsErr: errors.New("comments down"),
		auditsErr:   errors.New("audits down"),
	}
	svc := newTestService(source, newFakeCache())

	eval, err := svc.Evaluate(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, domain.TierL1, eval.Classification.Tier)
	assert.Empty(t, eval.Timeline)

	// Without an audit trail there is no handoff start, so the clock is
	// omitted rather than guessed.
	for _, c := range eval.Clocks {
		assert.NotEqual(t, domain.ClockLabel("L1 Handoff"), c.Label)
	}
	first := clockByLabel(t, eval, domain.ClockFirstResponse)
	require.NotNil(t, first.BreachAt)
	assert.Equal(t, t0.Add(30*time.Minute), *first.BreachAt)
}

func TestEvaluateBuildsTimelineAndHandoff(t *testing.T) {
	changeAt := t0.Add(30 * time.Minute)
	source := &fakeSource{
		ticket: testTicket("Network Engineering"),
		audits: []domain.AuditEvent{{
			CreatedAt: changeAt,
			Changes: []domain.AuditChange{
				{FieldName: domain.AuditFieldGroup, PreviousValue: "1", Value: "2"},
			},
		}},
		groups: map[int64]string{1: "Frontline", 2: "Network Engineering"},
	}
	svc := newTestService(source, newFakeCache())

	eval, err := svc.Evaluate(context.Background(), 42)
	require.NoError(t, err)
	require.Len(t, eval.Timeline, 2)
	assert.Equal(t, "Frontline", eval.Timeline[0].GroupName)
	assert.True(t, eval.Timeline[1].Open())

	handoff := clockByLabel(t, eval, domain.ClockLabel("L1 Handoff"))
	assert.False(t, handoff.Met)
}

func TestEvaluatePlaceholderPartner(t *testing.T) {
	ticket := testTicket("AT&T NOC")
	ticket.Priority = domain.TicketPriorityLow
	svc := newTestService(&fakeSource{ticket: ticket}, newFakeCache())

	eval, err := svc.Evaluate(context.Background(), 42)
	require.NoError(t, err)
	require.NotNil(t, eval.Classification.Partner)

	response := clockByLabel(t, eval, domain.ClockLabel("AT&T Response"))
	assert.True(t, response.Placeholder)
	assert.Equal(t, domain.ClockStatusNotConfigured, response.Status)
}

func TestRetickAdvancesClocksWithoutRefetch(t *testing.T) {
	source := &fakeSource{ticket: testTicket("Frontline")}
	svc := newTestService(source, newFakeCache())
	svc.now = func() time.Time { return t0.Add(30 * time.Minute) }

	eval, err := svc.Evaluate(context.Background(), 42)
	require.NoError(t, err)
	before := clockByLabel(t, eval, domain.ClockFirstResponse)
	assert.Equal(t, 30*time.Minute, before.Elapsed)

	later := t0.Add(40 * time.Minute)
	ticked := svc.Retick(eval, later)
	after := clockByLabel(t, ticked, domain.ClockFirstResponse)

	assert.Equal(t, 40*time.Minute, after.Elapsed)
	assert.Equal(t, later, ticked.EvaluatedAt)
	// The original evaluation is untouched.
	assert.Equal(t, before, clockByLabel(t, eval, domain.ClockFirstResponse))
}

// An urgent ticket with a 60 minute first response target keeps counting past
// the breach: a tick at 70 minutes reports 70 minutes, not a frozen target.
func TestRetickKeepsCountingPastBreach(t *testing.T) {
	source := &fakeSource{ticket: testTicket("Frontline")}
	svc := newTestService(source, newFakeCache())
	svc.now = func() time.Time { return t0.Add(61 * time.Minute) }

	eval, err := svc.Evaluate(context.Background(), 42)
	require.NoError(t, err)
	first := clockByLabel(t, eval, domain.ClockFirstResponse)
	assert.Equal(t, domain.ClockStatusBreached, first.Status)
	assert.Equal(t, 61*time.Minute, first.Elapsed)

	ticked := svc.Retick(eval, t0.Add(70*time.Minute))
	first = clockByLabel(t, ticked, domain.ClockFirstResponse)
	assert.Equal(t, domain.ClockStatusBreached, first.Status)
	assert.Equal(t, 70*time.Minute, first.Elapsed)
}

func TestBuildTimelineMissingAuditTrailYieldsEmpty(t *testing.T) {
	source := &fakeSource{
		ticket:    testTicket("Frontline"),
		auditsErr: errors.New("no access"),
	}
	svc := newTestService(source, newFakeCache())

	stints, err := svc.BuildTimeline(context.Background(), 42)
	require.NoError(t, err)
	assert.Empty(t, stints)
}

func TestComputeMTTRCachesPerScope(t *testing.T) {
	source := &fakeSource{
		ticket: testTicket("Frontline"),
		samples: []domain.ResolvedTicketSample{
			{CreatedAt: t0, UpdatedAt: t0.Add(10 * time.Minute)},
			{CreatedAt: t0, UpdatedAt: t0.Add(30 * time.Minute)},
		},
	}
	svc := newTestService(source, newFakeCache())

	cmp, err := svc.ComputeMTTR(context.Background(), 42)
	require.NoError(t, err)
	require.NotNil(t, cmp)
	assert.Equal(t, 20*time.Minute, cmp.Summary.Mean)
	assert.Equal(t, "requester:100", cmp.Summary.Scope)
	assert.Positive(t, cmp.RelativePercent)
	assert.Equal(t, 1, source.sampleCalls)

	_, err = svc.ComputeMTTR(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, 1, source.sampleCalls, "second call must hit the cache")
}

func TestComputeMTTRSampleFetchFailureIsUnavailable(t *testing.T) {
	source := &fakeSource{
		ticket:     testTicket("Frontline"),
		samplesErr: errors.New("search down"),
	}
	svc := newTestService(source, newFakeCache())

	cmp, err := svc.ComputeMTTR(context.Background(), 42)
	require.NoError(t, err)
	assert.Nil(t, cmp)
}

func TestComputeMTTREmptyPopulationNotCached(t *testing.T) {
	source := &fakeSource{ticket: testTicket("Frontline")}
	cache := newFakeCache()
	svc := newTestService(source, cache)

	cmp, err := svc.ComputeMTTR(context.Background(), 42)
	require.NoError(t, err)
	assert.Nil(t, cmp)
	assert.Empty(t, cache.entries)
}
