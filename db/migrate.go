package db

import (
	"fmt"

	"github.com/meinhoongagan/spa-booking/models"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

func Migrate(database *gorm.DB) error {
	err := database.AutoMigrate(
		&models.Role{},
		&models.Permission{},
		&models.User{},
		&models.Service{},
		&models.WeeklySchedule{},
		&models.BlockedDate{},
		&models.Appointment{},
	)
	if err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	log.Info().Msg("migrations applied")
	return nil
}

// SeedRoles creates the admin and client roles with their default
// permissions. Safe to run on every start.
func SeedRoles(database *gorm.DB) error {
	descriptions := map[string]string{
		models.RoleAdmin:  "Back-office staff with full access",
		models.RoleClient: "Client who books appointments",
	}

	for roleName, perms := range models.DefaultPermissions() {
		role := models.Role{Name: roleName, Description: descriptions[roleName]}
		if err := database.Where("name = ?", roleName).FirstOrCreate(&role).Error; err != nil {
			return fmt.Errorf("seed role %s: %w", roleName, err)
		}

		granted := make([]models.Permission, 0, len(perms))
		for _, p := range perms {
			perm := p
			if err := database.Where("name = ?", perm.Name).FirstOrCreate(&perm).Error; err != nil {
				return fmt.Errorf("seed permission %s: %w", perm.Name, err)
			}
			granted = append(granted, perm)
		}

		if err := database.Model(&role).Association("Permissions").Replace(granted); err != nil {
			return fmt.Errorf("assign permissions to %s: %w", roleName, err)
		}
	}
	return nil
}
