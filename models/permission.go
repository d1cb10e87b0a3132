package models

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

type Permission struct {
	ID          uint           `json:"id" gorm:"primaryKey"`
	Name        string         `json:"name" gorm:"unique"`
	Description string         `json:"description"`
	Resource    string         `json:"resource"` // "appointments", "schedules", "blocked-dates", "services", ...
	Action      string         `json:"action"`   // "create", "read", "update", "delete"
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
	Roles       []Role         `json:"roles,omitempty" gorm:"many2many:role_permissions;foreignKey:ID;joinForeignKey:PermissionID;references:ID;joinReferences:RoleID"`
}

func NewPermission(resource, action string) Permission {
	return Permission{
		Name:        fmt.Sprintf("%s_%s", action, resource),
		Description: fmt.Sprintf("%s %s", action, resource),
		Resource:    resource,
		Action:      action,
	}
}

// DefaultPermissions lists what a fresh install grants to each seeded role.
// Admin gets every permission in the table.
func DefaultPermissions() map[string][]Permission {
	var all []Permission
	for _, resource := range []string{"appointments", "schedules", "blocked-dates", "services", "roles", "permissions", "dashboard"} {
		for _, action := range []string{"create", "read", "update", "delete"} {
			all = append(all, NewPermission(resource, action))
		}
	}

	return map[string][]Permission{
		RoleAdmin: all,
		RoleClient: {
			NewPermission("appointments", "create"),
			NewPermission("appointments", "read"),
			NewPermission("services", "read"),
		},
	}
}
