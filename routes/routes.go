package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/meinhoongagan/spa-booking/config"
	"github.com/meinhoongagan/spa-booking/db"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Setup mounts every route group. controllers.Configure must run first.
func Setup(app *fiber.App, cfg *config.Config) {
	app.Get("/health", health)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	SetupAuthRoutes(app, cfg)
	SetupRBACRoutes(app, cfg)
	SetupServiceRoutes(app, cfg)
	SetupAppointmentRoutes(app, cfg)
	SetupAdminRoutes(app, cfg)
}

func health(c *fiber.Ctx) error {
	status := fiber.Map{"status": "ok", "database": "ok"}
	sqlDB, err := db.DB.DB()
	if err == nil {
		err = sqlDB.PingContext(c.UserContext())
	}
	if err != nil {
		status["status"] = "degraded"
		status["database"] = err.Error()
		return c.Status(fiber.StatusServiceUnavailable).JSON(status)
	}
	return c.JSON(status)
}
