package migration

import (
	"tempora/models"

	"gorm.io/gorm"
)

func init() {
	Register("001_core_schema", migrate001)
}

func migrate001(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Market{},
		&models.Security{},
		&models.SettlementDate{},
		&models.Trade{},
	)
}
