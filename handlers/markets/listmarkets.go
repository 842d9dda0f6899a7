package markets

import (
	"encoding/json"
	"net/http"

	"tempora/models"
	"tempora/security"
	"tempora/setup"

	"gorm.io/gorm"
)

// ListMarketsHandler handles GET /v0/markets with optional category and
// status filters.
func ListMarketsHandler(db *gorm.DB, cfg *setup.Config) http.HandlerFunc {
	svc := security.NewSecurityService()
	return func(w http.ResponseWriter, r *http.Request) {
		query := db.Model(&models.Market{}).Preload("SettlementDates").Order("created_at DESC")
		if category := r.URL.Query().Get("category"); category != "" {
			query = query.Where("category = ?", category)
		}
		if status := r.URL.Query().Get("status"); status != "" {
			query = query.Where("status = ?", status)
		}

		var marketRows []models.Market
		if result := query.Find(&marketRows); result.Error != nil {
			http.Error(w, "Failed to fetch markets", http.StatusInternalServerError)
			return
		}

		items := make([]models.MarketOverview, 0, len(marketRows))
		for i := range marketRows {
			overview, err := buildOverview(db, cfg, svc, &marketRows[i])
			if err != nil {
				http.Error(w, "Failed to compute market state", statusForError(err))
				return
			}
			items = append(items, *overview)
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(models.MarketListResponse{Items: items, Count: len(items)})
	}
}
