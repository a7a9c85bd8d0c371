package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/sla-ticket-service/internal/api/http/handlers"
	"github.com/spec-kit/sla-ticket-service/internal/auth"
)

// RouteConfig bundles dependencies for route registration. Auth may be
// nil, in which case no token endpoint is exposed.
type RouteConfig struct {
	Health          *handlers.HealthHandler
	Tickets         *handlers.TicketsHandler
	SLA             *handlers.SLAHandler
	Metrics         *handlers.MetricsHandler
	Auth            *handlers.AuthHandler
	ActorMiddleware *auth.ActorMiddleware
	Idempotency     fiber.Handler
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/metrics", cfg.Metrics.Snapshot)

	if cfg.Auth != nil {
		app.Post("/auth/token", cfg.Auth.IssueToken)
	}

	stack := []fiber.Handler{cfg.ActorMiddleware.Handle}
	if cfg.Idempotency != nil {
		stack = append(stack, cfg.Idempotency)
	}

	tickets := app.Group("/tickets", stack...)
	tickets.Post("/", cfg.Tickets.CreateTicket)
	tickets.Get("/", cfg.Tickets.ListTickets)
	tickets.Get("/:id", cfg.Tickets.GetTicket)
	tickets.Post("/:id/transitions", cfg.Tickets.ApplyTransition)
	tickets.Post("/:id/priority", cfg.Tickets.Reprioritize)
	tickets.Post("/:id/extensions", cfg.Tickets.Extend)
	tickets.Post("/:id/justification", cfg.Tickets.SubmitJustification)
	tickets.Post("/:id/justification/approve", cfg.Tickets.ApproveJustification)
	tickets.Post("/:id/justification/reject", cfg.Tickets.RejectJustification)

	policy := app.Group("/sla", stack...)
	policy.Get("/policy", cfg.SLA.GetPolicy)
	policy.Put("/policy", cfg.SLA.UpdatePolicy)
}
