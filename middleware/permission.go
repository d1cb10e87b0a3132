package middleware

import (
	"github.com/gofiber/fiber/v2"
	"github.com/meinhoongagan/spa-booking/db"
	"github.com/meinhoongagan/spa-booking/models"
	"github.com/meinhoongagan/spa-booking/utils"
)

// RequirePermission checks the caller's role grants action on resource.
// Must run after Protected.
func RequirePermission(resource string, action string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var user models.User
		if err := db.DB.Preload("Role.Permissions").First(&user, CurrentUserID(c)).Error; err != nil {
			return unauthorized(c, "User not found")
		}

		if !user.Role.Can(resource, action) {
			return c.Status(fiber.StatusForbidden).JSON(utils.ErrorResponse{
				Message: "You don't have permission to perform this action",
				Error:   "Forbidden",
			})
		}
		return c.Next()
	}
}

// RequireRole checks the caller has the named role.
func RequireRole(roleName string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var user models.User
		if err := db.DB.Preload("Role").First(&user, CurrentUserID(c)).Error; err != nil {
			return unauthorized(c, "User not found")
		}

		if user.Role.Name != roleName {
			return c.Status(fiber.StatusForbidden).JSON(utils.ErrorResponse{
				Message: "You don't have the required role to perform this action",
				Error:   "Forbidden",
			})
		}
		return c.Next()
	}
}
