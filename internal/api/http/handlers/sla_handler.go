package handlers

import (
	"bufio"
	"context"
	"encoding/json"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/sla-engine/internal/api/dto"
	"github.com/spec-kit/sla-engine/internal/service"
	"github.com/spec-kit/sla-engine/internal/sla"
	apperrors "github.com/spec-kit/sla-engine/pkg/util"
)

// SLAHandler serves evaluation results to host adapters (panel widget,
// dashboard cell). Rendering stays on their side.
type SLAHandler struct {
	engine   *service.EvaluationService
	sessions *service.SessionManager
}

// NewSLAHandler returns a new handler instance.
func NewSLAHandler(engine *service.EvaluationService, sessions *service.SessionManager) *SLAHandler {
	return &SLAHandler{engine: engine, sessions: sessions}
}

// Evaluate runs a full SLA evaluation for a ticket.
func (h *SLAHandler) Evaluate(c *fiber.Ctx) error {
	ticketID, err := parseTicketID(c)
	if err != nil {
		return err
	}
	eval, err := h.engine.Evaluate(c.UserContext(), ticketID)
	if err != nil {
		return err
	}
	return c.JSON(dto.NewEvaluationResponse(eval))
}

// Timeline reconstructs the ticket's tier-assignment history.
func (h *SLAHandler) Timeline(c *fiber.Ctx) error {
	ticketID, err := parseTicketID(c)
	if err != nil {
		return err
	}
	stints, err := h.engine.BuildTimeline(c.UserContext(), ticketID)
	if err != nil {
		return err
	}
	return c.JSON(dto.NewTimelineResponse(ticketID, stints, sla.RecentFirst(stints), time.Now()))
}

// MTTR returns the comparison summary for the ticket's requester.
func (h *SLAHandler) MTTR(c *fiber.Ctx) error {
	ticketID, err := parseTicketID(c)
	if err != nil {
		return err
	}
	comparison, err := h.engine.ComputeMTTR(c.UserContext(), ticketID)
	if err != nil {
		return err
	}
	return c.JSON(dto.NewMTTRResponse(comparison))
}

// Watch streams live clock snapshots as newline-delimited JSON for the
// duration of one countdown session. Starting a watch replaces any active
// session, so at most one timer runs at a time.
func (h *SLAHandler) Watch(c *fiber.Ctx) error {
	ticketID, err := parseTicketID(c)
	if err != nil {
		return err
	}
	seconds := c.QueryInt("seconds", 30)
	if seconds <= 0 || seconds > 300 {
		seconds = 30
	}

	c.Set(fiber.HeaderContentType, "application/x-ndjson")
	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		ctx, cancel := context.WithTimeout(context.Background(), time.Duration(seconds)*time.Second)
		defer cancel()

		snapshots := make(chan *service.Evaluation, 1)
		session := h.sessions.Start(ctx, ticketID, func(eval *service.Evaluation) {
			// Drop a frame rather than stall the ticker behind a slow reader.
			select {
			case snapshots <- eval:
			default:
			}
		})
		defer session.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case eval := <-snapshots:
				payload, err := json.Marshal(dto.NewEvaluationResponse(eval))
				if err != nil {
					return
				}
				if _, err := w.Write(append(payload, '\n')); err != nil {
					return
				}
				if err := w.Flush(); err != nil {
					return
				}
			}
		}
	})
	return nil
}

func parseTicketID(c *fiber.Ctx) (int64, error) {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return 0, apperrors.NewValidationError("invalid ticket id", map[string]any{"id": c.Params("id")})
	}
	return int64(id), nil
}
