package db

import (
	"fmt"

	"github.com/meinhoongagan/spa-booking/config"
	"github.com/rs/zerolog/log"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

// Open connects to postgres or sqlite. sqlite is meant for local runs and tests.
func Open(driver, dsn string) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch driver {
	case "postgres":
		dialector = postgres.Open(dsn)
	case "sqlite":
		dialector = sqlite.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	database, err := gorm.Open(dialector, &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		Logger:                                   logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, err
	}

	if driver == "sqlite" {
		// a single connection serialises writers and keeps in-memory databases alive
		sqlDB, err := database.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
	}
	return database, nil
}

// Init establishes the global DB connection without running migrations
func Init(cfg *config.Config) error {
	database, err := Open(cfg.DBDriver, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	DB = database
	log.Info().Str("driver", cfg.DBDriver).Msg("database connection established")
	return nil
}
