package trades

import (
	"encoding/json"
	"net/http"
	"strconv"

	"tempora/middleware"
	"tempora/models"
	"tempora/setup"

	"gorm.io/gorm"
)

// ListTradesHandler handles GET /v0/trades: the authenticated user's trades,
// optionally filtered by marketId.
func ListTradesHandler(db *gorm.DB, cfg *setup.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, httpErr := middleware.ValidateTokenAndGetUser(r, db, cfg.JWTSecret)
		if httpErr != nil {
			http.Error(w, httpErr.Message, httpErr.StatusCode)
			return
		}

		query := db.Where("user_id = ?", user.ID).Order("placed_at DESC")
		if marketParam := r.URL.Query().Get("marketId"); marketParam != "" {
			marketID, err := strconv.ParseInt(marketParam, 10, 64)
			if err != nil {
				http.Error(w, "Invalid market ID", http.StatusBadRequest)
				return
			}
			query = query.Where("market_id = ?", marketID)
		}

		var items []models.Trade
		if result := query.Find(&items); result.Error != nil {
			http.Error(w, "Failed to fetch trades", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(models.TradeListResponse{Items: items, Count: len(items)})
	}
}
