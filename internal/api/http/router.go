package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/maxq/console/internal/api/http/handlers"
	"github.com/maxq/console/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Session        *handlers.SessionHandler
	Users          *handlers.UsersHandler
	Notifications  *handlers.NotificationsHandler
	Audit          *handlers.AuditHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	api := app.Group("", cfg.AuthMiddleware.Handle)

	api.Get("/session", cfg.Session.Current)
	api.Post("/session", cfg.Session.Create)
	api.Delete("/session", cfg.Session.Delete)

	protected := api.Group("", auth.RequireAuthenticated())
	protected.Get("/users", cfg.Users.ListUsers)
	protected.Get("/users/:id", cfg.Users.GetUser)
	protected.Patch("/users/:id/profile", cfg.Users.UpdateProfile)

	protected.Get("/notifications", cfg.Notifications.List)
	protected.Post("/notifications", cfg.Notifications.Register)
	protected.Delete("/notifications/:id", cfg.Notifications.Dismiss)
	protected.Post("/notifications/:id/swipe", cfg.Notifications.Swipe)

	admin := api.Group("", auth.RequireAdmin())
	admin.Post("/users/:id/roles", cfg.Users.AddRole)
	admin.Delete("/users/:id/roles/:roleId", cfg.Users.RemoveRole)
	admin.Get("/audit/mutations", cfg.Audit.Mutations)
	admin.Get("/metrics", cfg.Audit.Metrics)
}
