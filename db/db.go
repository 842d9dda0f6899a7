// Package db opens the gorm connection for the configured driver.
package db

import (
	"fmt"

	"tempora/setup"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Connect opens the database named by the config. SQLite serves development
// and tests; Postgres serves deployments.
func Connect(cfg setup.DatabaseConfig) (*gorm.DB, error) {
	opts := &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)}

	switch cfg.Driver {
	case "sqlite":
		return gorm.Open(sqlite.Open(cfg.DSN), opts)
	case "postgres":
		return gorm.Open(postgres.Open(cfg.DSN), opts)
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}
}
