package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/meinhoongagan/spa-booking/config"
	"github.com/meinhoongagan/spa-booking/controllers"
	"github.com/meinhoongagan/spa-booking/middleware"
)

// SetupServiceRoutes exposes the public catalogue and its admin management.
func SetupServiceRoutes(app *fiber.App, cfg *config.Config) {
	service := app.Group("/services")
	service.Get("/", controllers.GetAllServices)
	service.Get("/:id", controllers.GetService)

	protected := middleware.Protected(cfg.JWTSecret)
	service.Post("/", protected, middleware.RequirePermission("services", "create"), controllers.CreateService)
	service.Put("/:id", protected, middleware.RequirePermission("services", "update"), controllers.UpdateService)
	service.Delete("/:id", protected, middleware.RequirePermission("services", "delete"), controllers.DeleteService)
	service.Post("/:id/image", protected, middleware.RequirePermission("services", "update"), controllers.UploadServiceImage)
}

// SetupAdminRoutes configures schedule, blocked date and dashboard routes
func SetupAdminRoutes(app *fiber.App, cfg *config.Config) {
	admin := app.Group("/admin", middleware.Protected(cfg.JWTSecret))

	admin.Get("/schedules", middleware.RequirePermission("schedules", "read"), controllers.GetSchedules)
	admin.Put("/schedules/:day", middleware.RequirePermission("schedules", "update"), controllers.UpsertSchedule)

	admin.Get("/blocked-dates", middleware.RequirePermission("blocked-dates", "read"), controllers.GetBlockedDates)
	admin.Post("/blocked-dates", middleware.RequirePermission("blocked-dates", "create"), controllers.CreateBlockedDate)
	admin.Delete("/blocked-dates/:id", middleware.RequirePermission("blocked-dates", "delete"), controllers.DeleteBlockedDate)

	admin.Get("/services", middleware.RequirePermission("services", "update"), controllers.GetAllServices)

	admin.Get("/dashboard", middleware.RequirePermission("dashboard", "read"), controllers.GetDashboardOverview)
	admin.Get("/dashboard/recent", middleware.RequirePermission("dashboard", "read"), controllers.GetRecentAppointments)
	admin.Get("/dashboard/revenue", middleware.RequirePermission("dashboard", "read"), controllers.GetRevenueSummary)
}
