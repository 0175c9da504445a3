package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/issue-desk/internal/api/http/handlers"
	"github.com/spec-kit/issue-desk/internal/auth"
	"github.com/spec-kit/issue-desk/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Accounts       *handlers.AccountsHandler
	Tickets        *handlers.TicketsHandler
	Stats          *handlers.StatsHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	authGroup := app.Group("/auth")
	authGroup.Post("/login", cfg.Accounts.Login)

	adminAccounts := authGroup.Group("", cfg.AuthMiddleware.Handle, auth.RequireRole(domain.RoleAdmin))
	adminAccounts.Post("/register", cfg.Accounts.Register)
	adminAccounts.Get("/accounts", cfg.Accounts.List)
	adminAccounts.Delete("/accounts/:id", cfg.Accounts.Delete)

	tickets := app.Group("/tickets", cfg.AuthMiddleware.Handle)
	tickets.Post("", auth.RequireRole(domain.RoleReporter), cfg.Tickets.Create)
	tickets.Get("", auth.RequireRole(domain.RoleAdmin), cfg.Tickets.ListAll)
	tickets.Get("/reported", auth.RequireRole(domain.RoleReporter), cfg.Tickets.ListMine)
	tickets.Get("/assigned", auth.RequireRole(domain.RoleHandler), cfg.Tickets.ListAssigned)
	tickets.Get("/resolved", auth.RequireRole(domain.RoleHandler), cfg.Tickets.ListResolved)
	tickets.Patch("/:id/assign", auth.RequireRole(domain.RoleAdmin), cfg.Tickets.Assign)
	tickets.Patch("/:id/status", auth.RequireRole(domain.RoleHandler, domain.RoleAdmin), cfg.Tickets.UpdateStatus)
	tickets.Post("/:id/feedback", auth.RequireRole(domain.RoleReporter), cfg.Tickets.SubmitFeedback)

	feedbacks := app.Group("/feedbacks", cfg.AuthMiddleware.Handle)
	feedbacks.Get("", auth.RequireRole(domain.RoleAdmin), cfg.Tickets.ListFeedbacks)
	feedbacks.Get("/mine", auth.RequireRole(domain.RoleHandler), cfg.Tickets.ListMyFeedbacks)

	stats := app.Group("/stats", cfg.AuthMiddleware.Handle)
	stats.Get("", auth.RequireRole(domain.RoleAdmin), cfg.Stats.Overview)
	stats.Get("/handler", auth.RequireRole(domain.RoleHandler), cfg.Stats.HandlerOverview)
}
