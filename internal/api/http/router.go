package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk/internal/api/http/handlers"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health  *handlers.HealthHandler
	Tickets *handlers.TicketsHandler
	Users   *handlers.UsersHandler
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	api := app.Group("/api")

	tickets := api.Group("/tickets")
	// static paths must register ahead of /:id
	tickets.Get("/stats", cfg.Tickets.Stats)
	tickets.Get("/meta", cfg.Tickets.Meta)
	tickets.Get("/", cfg.Tickets.List)
	tickets.Post("/", cfg.Tickets.Create)
	tickets.Get("/:id", cfg.Tickets.Get)
	tickets.Put("/:id", cfg.Tickets.Update)
	tickets.Delete("/:id", cfg.Tickets.Delete)
	tickets.Post("/:id/assign", cfg.Tickets.Assign)
	tickets.Post("/:id/close", cfg.Tickets.Close)
	tickets.Post("/:id/reopen", cfg.Tickets.Reopen)

	api.Get("/users/:userId/tickets", cfg.Users.Tickets)
}
