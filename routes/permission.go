package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/meinhoongagan/spa-booking/config"
	"github.com/meinhoongagan/spa-booking/controllers"
	"github.com/meinhoongagan/spa-booking/middleware"
	"github.com/meinhoongagan/spa-booking/models"
)

// SetupRBACRoutes configures all RBAC related routes
func SetupRBACRoutes(app *fiber.App, cfg *config.Config) {
	rbac := app.Group("/rbac", middleware.Protected(cfg.JWTSecret))

	// Roles
	rbac.Post("/roles", middleware.RequireRole(models.RoleAdmin), controllers.CreateRole)
	rbac.Get("/roles", middleware.RequirePermission("roles", "read"), controllers.GetRoles)

	// Permissions
	rbac.Post("/permissions", middleware.RequireRole(models.RoleAdmin), controllers.CreatePermission)
	rbac.Get("/permissions", middleware.RequirePermission("permissions", "read"), controllers.GetPermissions)

	// Assignments
	rbac.Post("/users/role", middleware.RequireRole(models.RoleAdmin), controllers.AssignRoleToUser)
	rbac.Post("/roles/permission", middleware.RequireRole(models.RoleAdmin), controllers.AssignPermissionToRole)
}
