package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-service/internal/api/http/handlers"
	"github.com/spec-kit/helpdesk-service/internal/auth"
	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Tickets        *handlers.TicketsHandler
	Notifications  *handlers.NotificationsHandler
	Approvers      *handlers.ApproversHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/metrics", cfg.Health.Metrics)

	api := app.Group("/api/v1", cfg.AuthMiddleware.Handle, auth.RequireActor())

	tickets := api.Group("/tickets")
	tickets.Post("/", cfg.Tickets.CreateTicket)
	tickets.Get("/", cfg.Tickets.ListTickets)
	tickets.Get("/counts", cfg.Tickets.Counts)
	tickets.Get("/:number", cfg.Tickets.GetTicket)
	tickets.Post("/:number/transitions", cfg.Tickets.Transition)
	tickets.Post("/:number/assign", auth.RequireRole(domain.RoleMISSupervisor), cfg.Tickets.Assign)

	notifications := api.Group("/notifications")
	notifications.Get("/", cfg.Notifications.List)
	notifications.Post("/read-all", cfg.Notifications.MarkAllRead)
	notifications.Post("/:id/read", cfg.Notifications.MarkRead)

	approvers := api.Group("/approvers")
	approvers.Get("/", cfg.Approvers.List)
	approvers.Get("/product-lines/:productLine", cfg.Approvers.ForProductLine)
	approvers.Post("/", auth.RequireRole(domain.RoleMISSupervisor), cfg.Approvers.Create)
	approvers.Delete("/:id", auth.RequireRole(domain.RoleMISSupervisor), cfg.Approvers.Delete)
}
