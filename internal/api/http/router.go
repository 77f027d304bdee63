package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"

	"github.com/portyard/port-ticket-service/internal/api/http/handlers"
	"github.com/portyard/port-ticket-service/internal/auth"
	"github.com/portyard/port-ticket-service/internal/domain"
	"github.com/portyard/port-ticket-service/internal/observability"
)

// RouteConfig bundles dependencies for route registration. Monitor is
// optional; its routes are skipped when nil.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Users          *handlers.UsersHandler
	Tickets        *handlers.TicketsHandler
	Containers     *handlers.ContainersHandler
	Fleet          *handlers.FleetHandler
	Zones          *handlers.ZonesHandler
	Notifications  *handlers.NotificationsHandler
	Dashboard      *handlers.DashboardHandler
	Monitor        *handlers.MonitorHandler
	Metrics        *observability.Metrics
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	if cfg.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(cfg.Metrics.Handler()))
	}

	app.Post("/auth/login", cfg.Auth.Login)

	api := app.Group("", cfg.AuthMiddleware.Handle, auth.RequireAnyRole())
	client := auth.RequireRole(domain.RoleClient)
	staff := auth.RequireStaff()
	admin := auth.RequireRole(domain.RoleAdmin)

	tickets := api.Group("/tickets")
	tickets.Post("/", auth.RequireRole(domain.RoleClient, domain.RoleAdmin), cfg.Tickets.CreateTicket)
	tickets.Get("/", cfg.Tickets.ListTickets)
	tickets.Get("/history", cfg.Tickets.ListHistory)
	tickets.Get("/:id", cfg.Tickets.GetTicket)
	tickets.Get("/:id/timeline", cfg.Tickets.Timeline)
	tickets.Post("/:id/enqueue", cfg.Tickets.Enqueue)
	tickets.Post("/:id/cancel", cfg.Tickets.Cancel)
	tickets.Post("/:id/validate", staff, cfg.Tickets.Validate)
	tickets.Post("/:id/entry", staff, cfg.Tickets.RegisterEntry)
	tickets.Post("/:id/handling", staff, cfg.Tickets.FinishHandling)
	tickets.Post("/:id/complete", staff, cfg.Tickets.Complete)
	tickets.Post("/:id/exit", staff, cfg.Tickets.RegisterExit)
	tickets.Delete("/:id", admin, cfg.Tickets.DeleteTicket)

	fleet := api.Group("/fleet")
	fleet.Get("/", cfg.Fleet.List)
	fleet.Post("/", client, cfg.Fleet.Create)
	fleet.Patch("/:id", cfg.Fleet.Update)
	fleet.Delete("/:id", cfg.Fleet.Delete)

	api.Get("/notifications", cfg.Notifications.List)
	api.Post("/notifications/:id/read", cfg.Notifications.MarkRead)

	api.Get("/dashboard/client", client, cfg.Dashboard.Client)
	api.Get("/dashboard/admin", admin, cfg.Dashboard.Admin)

	containers := api.Group("/containers")
	containers.Get("/", cfg.Containers.List)
	containers.Get("/:id", staff, cfg.Containers.Get)
	containers.Post("/", admin, cfg.Containers.Create)
	containers.Patch("/:id", admin, cfg.Containers.Update)
	containers.Delete("/:id", admin, cfg.Containers.Delete)

	users := api.Group("/users")
	users.Get("/", admin, cfg.Users.List)
	users.Post("/", admin, cfg.Users.Create)
	users.Get("/:id", cfg.Users.Get)
	users.Patch("/:id", admin, cfg.Users.Update)
	users.Delete("/:id", admin, cfg.Users.Delete)

	api.Get("/zones", cfg.Zones.ListZones)
	api.Get("/zones/:id", cfg.Zones.GetZone)
	api.Get("/slots", cfg.Zones.ListSlots)
	api.Get("/ships", cfg.Zones.Ships)
	api.Get("/roles", cfg.Zones.Roles)
	api.Get("/access-levels", cfg.Zones.AccessLevels)

	if cfg.Monitor != nil {
		monitor := api.Group("/monitor", staff)
		monitor.Get("/turns", cfg.Monitor.Turns)
		monitor.Post("/refresh", cfg.Monitor.Refresh)
	}
}
