package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/meinhoongagan/spa-booking/config"
	"github.com/meinhoongagan/spa-booking/controllers"
	"github.com/meinhoongagan/spa-booking/middleware"
	"github.com/meinhoongagan/spa-booking/models"
)

// SetupAppointmentRoutes configures availability and appointment routes
func SetupAppointmentRoutes(app *fiber.App, cfg *config.Config) {
	app.Get("/availability", controllers.GetAvailability)

	appointment := app.Group("/appointments", middleware.Protected(cfg.JWTSecret))
	appointment.Post("/", middleware.RequirePermission("appointments", "create"), controllers.CreateAppointment)
	appointment.Get("/me", middleware.RequirePermission("appointments", "read"), controllers.GetMyAppointments)
	appointment.Get("/", middleware.RequireRole(models.RoleAdmin), controllers.GetAllAppointments)
	appointment.Get("/:id", middleware.RequirePermission("appointments", "read"), controllers.GetAppointment)
	appointment.Patch("/:id/cancel", middleware.RequirePermission("appointments", "read"), controllers.CancelAppointment)
	appointment.Patch("/:id/status", middleware.RequirePermission("appointments", "update"), controllers.UpdateAppointmentStatus)
	appointment.Patch("/:id/reschedule", middleware.RequirePermission("appointments", "update"), controllers.RescheduleAppointment)
}
