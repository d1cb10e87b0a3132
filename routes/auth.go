package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/meinhoongagan/spa-booking/config"
	"github.com/meinhoongagan/spa-booking/controllers"
	"github.com/meinhoongagan/spa-booking/middleware"
)

// SetupAuthRoutes configures all authentication related routes
func SetupAuthRoutes(app *fiber.App, cfg *config.Config) {
	auth := app.Group("/auth")
	limited := middleware.RateLimit(cfg.LoginRatePerMinute)

	// Public routes
	auth.Post("/register", limited, controllers.Register)
	auth.Post("/login", limited, controllers.Login)
	auth.Post("/refresh", controllers.RefreshToken)

	// Protected routes
	auth.Get("/me", middleware.Protected(cfg.JWTSecret), controllers.GetUserProfile)
	auth.Post("/logout", middleware.Protected(cfg.JWTSecret), controllers.Logout)
}
