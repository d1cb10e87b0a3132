package controllers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/meinhoongagan/spa-booking/db"
	"github.com/meinhoongagan/spa-booking/models"
	"github.com/meinhoongagan/spa-booking/utils"
)

// CreateRole creates a new role
func CreateRole(c *fiber.Ctx) error {
	role := new(models.Role)
	if err := c.BodyParser(role); err != nil {
		return badRequest(c, "Cannot parse JSON", err)
	}
	if role.Name == "" {
		return c.Status(fiber.StatusBadRequest).JSON(utils.ErrorResponse{
			Message: "Role name is required",
			Error:   "missing name",
		})
	}

	var existing models.Role
	if db.DB.Where("name = ?", role.Name).Limit(1).Find(&existing).RowsAffected > 0 {
		return c.Status(fiber.StatusConflict).JSON(utils.ErrorResponse{
			Message: "Role with this name already exists",
			Error:   "duplicate role",
		})
	}

	created := models.Role{Name: role.Name, Description: role.Description}
	if err := db.DB.Create(&created).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(utils.ErrorResponse{
			Message: "Failed to create role",
			Error:   err.Error(),
		})
	}
	return c.Status(fiber.StatusCreated).JSON(created)
}

// GetRoles returns all roles with their permissions
func GetRoles(c *fiber.Ctx) error {
	var roles []models.Role
	if err := db.DB.Preload("Permissions").Find(&roles).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(utils.ErrorResponse{
			Message: "Failed to get roles",
			Error:   err.Error(),
		})
	}
	return c.JSON(roles)
}

// CreatePermission creates a new permission. Name defaults to "action_resource".
func CreatePermission(c *fiber.Ctx) error {
	input := new(models.Permission)
	if err := c.BodyParser(input); err != nil {
		return badRequest(c, "Cannot parse JSON", err)
	}
	if input.Resource == "" || input.Action == "" {
		return c.Status(fiber.StatusBadRequest).JSON(utils.ErrorResponse{
			Message: "Resource and action are required",
			Error:   "missing fields",
		})
	}

	permission := models.NewPermission(input.Resource, input.Action)
	if input.Name != "" {
		permission.Name = input.Name
	}
	if input.Description != "" {
		permission.Description = input.Description
	}

	var existing models.Permission
	if db.DB.Where("name = ?", permission.Name).Limit(1).Find(&existing).RowsAffected > 0 {
		return c.Status(fiber.StatusConflict).JSON(utils.ErrorResponse{
			Message: "Permission with this name already exists",
			Error:   "duplicate permission",
		})
	}

	if err := db.DB.Create(&permission).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(utils.ErrorResponse{
			Message: "Failed to create permission",
			Error:   err.Error(),
		})
	}
	return c.Status(fiber.StatusCreated).JSON(permission)
}

// GetPermissions returns all permissions
func GetPermissions(c *fiber.Ctx) error {
	var permissions []models.Permission
	if err := db.DB.Order("resource, action").Find(&permissions).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(utils.ErrorResponse{
			Message: "Failed to get permissions",
			Error:   err.Error(),
		})
	}
	return c.JSON(permissions)
}

// AssignRoleToUser assigns a role to a user
func AssignRoleToUser(c *fiber.Ctx) error {
	type AssignRoleInput struct {
		UserID uint `json:"user_id"`
		RoleID uint `json:"role_id"`
	}
	input := new(AssignRoleInput)
	if err := c.BodyParser(input); err != nil {
		return badRequest(c, "Cannot parse JSON", err)
	}

	var user models.User
	if err := db.DB.First(&user, input.UserID).Error; err != nil {
		return notFoundOr500(c, err, "User not found")
	}
	var role models.Role
	if err := db.DB.First(&role, input.RoleID).Error; err != nil {
		return notFoundOr500(c, err, "Role not found")
	}

	if err := db.DB.Model(&user).Update("role_id", role.ID).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(utils.ErrorResponse{
			Message: "Failed to assign role to user",
			Error:   err.Error(),
		})
	}
	return c.JSON(fiber.Map{
		"message": "Role assigned successfully",
	})
}

// AssignPermissionToRole assigns a permission to a role
func AssignPermissionToRole(c *fiber.Ctx) error {
	type AssignPermissionInput struct {
		RoleID       uint `json:"role_id"`
		PermissionID uint `json:"permission_id"`
	}
	input := new(AssignPermissionInput)
	if err := c.BodyParser(input); err != nil {
		return badRequest(c, "Cannot parse JSON", err)
	}

	var role models.Role
	if err := db.DB.Preload("Permissions").First(&role, input.RoleID).Error; err != nil {
		return notFoundOr500(c, err, "Role not found")
	}
	var permission models.Permission
	if err := db.DB.First(&permission, input.PermissionID).Error; err != nil {
		return notFoundOr500(c, err, "Permission not found")
	}

	for _, p := range role.Permissions {
		if p.ID == permission.ID {
			return c.Status(fiber.StatusConflict).JSON(utils.ErrorResponse{
				Message: "Permission already assigned to role",
				Error:   "duplicate assignment",
			})
		}
	}

	if err := db.DB.Model(&role).Association("Permissions").Append(&permission); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(utils.ErrorResponse{
			Message: "Failed to assign permission to role",
			Error:   err.Error(),
		})
	}
	return c.JSON(fiber.Map{
		"message": "Permission assigned successfully",
	})
}
