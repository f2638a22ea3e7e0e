package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ticketledger/ticket-ledger/internal/api/http/handlers"
	"github.com/ticketledger/ticket-ledger/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Ledger         *handlers.LedgerHandler
	Tickets        *handlers.TicketsHandler
	Staff          *handlers.StaffHandler
	Metrics        *handlers.MetricsHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/metrics", cfg.Metrics.Metrics)

	app.Post("/auth/login", cfg.Auth.Login)

	guard := []fiber.Handler{cfg.AuthMiddleware.Handle, auth.RequireAccount()}

	blocks := app.Group("/blocks", guard...)
	blocks.Post("", cfg.Ledger.SubmitBlock)
	blocks.Get("/:height", cfg.Ledger.GetBlock)

	contracts := app.Group("/contracts", guard...)
	contracts.Post("/:contract/read-only/:function", cfg.Ledger.CallReadOnly)

	tickets := app.Group("/tickets", guard...)
	tickets.Post("", cfg.Tickets.CreateTicket)
	tickets.Get("/:id", cfg.Tickets.GetTicket)
	tickets.Patch("/:id/status", cfg.Tickets.UpdateStatus)
	tickets.Get("/:id/history", cfg.Tickets.History)

	staff := app.Group("/staff", guard...)
	staff.Post("", cfg.Staff.AddStaff)
	staff.Delete("/:principal", cfg.Staff.RemoveStaff)
	staff.Get("/:principal", cfg.Staff.GetStaff)
}
