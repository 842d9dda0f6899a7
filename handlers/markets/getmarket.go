package markets

import (
	"encoding/json"
	"net/http"
	"strconv"

	"tempora/models"
	"tempora/security"
	"tempora/setup"

	"github.com/gorilla/mux"
	"gorm.io/gorm"
)

// GetMarketHandler handles GET /v0/markets/{id}
func GetMarketHandler(db *gorm.DB, cfg *setup.Config) http.HandlerFunc {
	svc := security.NewSecurityService()
	return func(w http.ResponseWriter, r *http.Request) {
		vars := mux.Vars(r)
		marketID, err := strconv.ParseInt(vars["id"], 10, 64)
		if err != nil {
			http.Error(w, "Invalid market ID", http.StatusBadRequest)
			return
		}

		var market models.Market
		if result := db.Preload("SettlementDates").First(&market, marketID); result.Error != nil {
			if result.Error == gorm.ErrRecordNotFound {
				http.Error(w, "Market not found", http.StatusNotFound)
				return
			}
			http.Error(w, "Database error", http.StatusInternalServerError)
			return
		}

		overview, err := buildOverview(db, cfg, svc, &market)
		if err != nil {
			http.Error(w, "Failed to compute market state", statusForError(err))
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(overview)
	}
}

// ListSecuritiesHandler handles GET /v0/markets/{id}/securities
func ListSecuritiesHandler(db *gorm.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		vars := mux.Vars(r)
		marketID, err := strconv.ParseInt(vars["id"], 10, 64)
		if err != nil {
			http.Error(w, "Invalid market ID", http.StatusBadRequest)
			return
		}

		var market models.Market
		if result := db.First(&market, marketID); result.Error != nil {
			if result.Error == gorm.ErrRecordNotFound {
				http.Error(w, "Market not found", http.StatusNotFound)
				return
			}
			http.Error(w, "Database error", http.StatusInternalServerError)
			return
		}

		var securities []models.Security
		if result := db.Where("market_id = ?", marketID).Order("id ASC").Find(&securities); result.Error != nil {
			http.Error(w, "Failed to fetch securities", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"items": securities,
			"count": len(securities),
		})
	}
}
