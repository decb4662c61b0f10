package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/sla-engine/internal/domain"
	apperrors "github.com/spec-kit/sla-engine/pkg/util"
)

// TicketSource is the inbound contract the engine expects from the ticket
// data source collaborator. Transport concerns stay behind this interface;
// this package backs it with the organization's ticketing database.
type TicketSource interface {
	GetTicket(ctx context.Context, ticketID int64) (*domain.Ticket, error)
	GetMetrics(ctx context.Context, ticketID int64) (*domain.TicketMetrics, error)
	ListComments(ctx context.Context, ticketID int64) ([]domain.Comment, error)
	ListAuditEvents(ctx context.Context, ticketID int64) ([]domain.AuditEvent, error)
	GetGroupName(ctx context.Context, groupID int64) (string, error)
	ListResolvedSamples(ctx context.Context, requesterID int64, limit int) ([]domain.ResolvedTicketSample, error)
}

type ticketSourceRepository struct {
	pool *pgxpool.Pool
}

// NewTicketSourceRepository instantiates the pgx-backed source.
func NewTicketSourceRepository(pool *pgxpool.Pool) TicketSource {
	return &ticketSourceRepository{pool: pool}
}

func (r *ticketSourceRepository) GetTicket(ctx context.Context, ticketID int64) (*domain.Ticket, error) {
	const query = `
        SELECT t.id, t.priority, t.status, t.created_at, t.updated_at, t.requester_id,
               t.group_id, g.name
        FROM tickets t
        LEFT JOIN groups g ON g.id = t.group_id
        WHERE t.id = $1`

	var (
		ticket  domain.Ticket
		rawPrio string
		rawStat string
	)
	if err := r.pool.QueryRow(ctx, query, ticketID).Scan(
		&ticket.ID,
		&rawPrio,
		&rawStat,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
		&ticket.RequesterID,
		&ticket.GroupID,
		&ticket.GroupName,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
		}
		return nil, err
	}
	ticket.Priority = domain.ParsePriority(rawPrio)
	ticket.Status = domain.TicketStatus(rawStat)

	fields, err := r.listCustomFields(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	ticket.CustomFields = fields
	return &ticket, nil
}

func (r *ticketSourceRepository) listCustomFields(ctx context.Context, ticketID int64) ([]domain.CustomField, error) {
	const query = `
        SELECT field_id, value FROM ticket_custom_fields WHERE ticket_id = $1`
	rows, err := r.pool.Query(ctx, query, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var fields []domain.CustomField
	for rows.Next() {
		var f domain.CustomField
		if err := rows.Scan(&f.ID, &f.Value); err != nil {
			return nil, err
		}
		fields = append(fields, f)
	}
	return fields, rows.Err()
}

func (r *ticketSourceRepository) GetMetrics(ctx context.Context, ticketID int64) (*domain.TicketMetrics, error) {
	const query = `
        SELECT metric, basis, breach_at, elapsed_minutes
        FROM ticket_metrics WHERE ticket_id = $1`
	rows, err := r.pool.Query(ctx, query, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	metrics := &domain.TicketMetrics{}
	for rows.Next() {
		var (
			metric string
			basis  string
			window domain.MetricWindow
		)
		if err := rows.Scan(&metric, &basis, &window.BreachAt, &window.ElapsedMinutes); err != nil {
			return nil, err
		}
		attachMetricWindow(metrics, metric, basis, window)
	}
	return metrics, rows.Err()
}

func attachMetricWindow(metrics *domain.TicketMetrics, metric, basis string, window domain.MetricWindow) {
	var target **domain.TicketMetric
	switch metric {
	case "reply_time":
		target = &metrics.ReplyTime
	case "full_resolution_time":
		target = &metrics.FullResolutionTime
	default:
		return
	}
	if *target == nil {
		*target = &domain.TicketMetric{}
	}
	switch domain.ClockBasis(basis) {
	case domain.BusinessClock:
		(*target).Business = &window
	case domain.CalendarClock:
		(*target).Calendar = &window
	}
}

func (r *ticketSourceRepository) ListComments(ctx context.Context, ticketID int64) ([]domain.Comment, error) {
	const query = `
        SELECT author_id, public, created_at, body
        FROM ticket_comments WHERE ticket_id = $1
        ORDER BY created_at ASC`
	rows, err := r.pool.Query(ctx, query, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var comments []domain.Comment
	for rows.Next() {
		var c domain.Comment
		if err := rows.Scan(&c.AuthorID, &c.Public, &c.CreatedAt, &c.Body); err != nil {
			return nil, err
		}
		comments = append(comments, c)
	}
	return comments, rows.Err()
}

func (r *ticketSourceRepository) ListAuditEvents(ctx context.Context, ticketID int64) ([]domain.AuditEvent, error) {
	const query = `
        SELECT created_at, field_name, previous_value, value
        FROM ticket_audits WHERE ticket_id = $1
        ORDER BY created_at ASC`
	rows, err := r.pool.Query(ctx, query, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []domain.AuditEvent
	for rows.Next() {
		var (
			createdAt time.Time
			change    domain.AuditChange
		)
		if err := rows.Scan(&createdAt, &change.FieldName, &change.PreviousValue, &change.Value); err != nil {
			return nil, err
		}
		// Changes sharing one audit instant collapse into a single event.
		if n := len(events); n > 0 && events[n-1].CreatedAt.Equal(createdAt) {
			events[n-1].Changes = append(events[n-1].Changes, change)
			continue
		}
		events = append(events, domain.AuditEvent{CreatedAt: createdAt, Changes: []domain.AuditChange{change}})
	}
	return events, rows.Err()
}

func (r *ticketSourceRepository) GetGroupName(ctx context.Context, groupID int64) (string, error) {
	const query = `SELECT name FROM groups WHERE id = $1`
	var name string
	if err := r.pool.QueryRow(ctx, query, groupID).Scan(&name); err != nil {
		return "", err
	}
	return name, nil
}

func (r *ticketSourceRepository) ListResolvedSamples(ctx context.Context, requesterID int64, limit int) ([]domain.ResolvedTicketSample, error) {
	const query = `
        SELECT id, created_at, updated_at
        FROM tickets
        WHERE requester_id = $1 AND status IN ('solved', 'closed')
        ORDER BY updated_at DESC
        LIMIT $2`
	rows, err := r.pool.Query(ctx, query, requesterID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var samples []domain.ResolvedTicketSample
	for rows.Next() {
		var s domain.ResolvedTicketSample
		if err := rows.Scan(&s.TicketID, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, err
		}
		samples = append(samples, s)
	}
	return samples, rows.Err()
}
