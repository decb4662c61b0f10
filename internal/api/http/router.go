package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/sla-engine/internal/api/http/handlers"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health *handlers.HealthHandler
	SLA    *handlers.SLAHandler
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	tickets := app.Group("/tickets")
	tickets.Get("/:id/sla", cfg.SLA.Evaluate)
	tickets.Get("/:id/sla/watch", cfg.SLA.Watch)
	tickets.Get("/:id/timeline", cfg.SLA.Timeline)
	tickets.Get("/:id/mttr", cfg.SLA.MTTR)
}
