package migration

import (
	"gorm.io/gorm"
)

func init() {
	Register("002_pricing_model_backfill", migrate002)
}

// Markets created before the pricing model column existed default to the
// canonical cost-function model.
func migrate002(db *gorm.DB) error {
	return db.Exec("UPDATE markets SET pricing_model = 'lmsr' WHERE pricing_model IS NULL OR pricing_model = ''").Error
}
