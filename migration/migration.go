// Package migration runs schema migrations in registration-name order and
// records applied names so each runs once.
package migration

import (
	"fmt"
	"sort"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

type migrationFunc func(db *gorm.DB) error

var registry = map[string]migrationFunc{}

// Register adds a migration under a sortable name ("001_...", "002_...").
// Called from init in the migration files.
func Register(name string, fn migrationFunc) {
	registry[name] = fn
}

// SchemaMigration records one applied migration.
type SchemaMigration struct {
	Name string `gorm:"primaryKey;size:100"`
}

// Run applies every unapplied migration in name order.
func Run(db *gorm.DB) error {
	if err := db.AutoMigrate(&SchemaMigration{}); err != nil {
		return fmt.Errorf("migration bookkeeping: %w", err)
	}

	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		var applied SchemaMigration
		if result := db.Where("name = ?", name).First(&applied); result.Error == nil {
			continue
		}
		log.Info().Str("migration", name).Msg("applying migration")
		if err := registry[name](db); err != nil {
			return fmt.Errorf("migration %s: %w", name, err)
		}
		if result := db.Create(&SchemaMigration{Name: name}); result.Error != nil {
			return fmt.Errorf("recording migration %s: %w", name, result.Error)
		}
	}
	return nil
}
