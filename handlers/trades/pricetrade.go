package trades

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"tempora/handlers/math/quotes"
	"tempora/models"
	"tempora/setup"

	"gorm.io/gorm"
)

// PriceTradeHandler handles GET /v0/trades/price: dry-run pricing from query
// parameters, no ledger row written. Runs the same admission checks as
// execution so the quoted price is one the caller could actually trade at,
// up to concurrent fills.
func PriceTradeHandler(db *gorm.DB, cfg *setup.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()

		securityID, err := strconv.ParseInt(q.Get("securityId"), 10, 64)
		if err != nil || securityID <= 0 {
			http.Error(w, "securityId is required", http.StatusBadRequest)
			return
		}

		req := models.TradeCreateRequest{SecurityID: securityID}
		if v := q.Get("quantity"); v != "" {
			req.Quantity, err = strconv.ParseFloat(v, 64)
			if err != nil {
				http.Error(w, "Invalid quantity", http.StatusBadRequest)
				return
			}
		}
		if v := q.Get("stake"); v != "" {
			req.Stake, err = strconv.ParseFloat(v, 64)
			if err != nil {
				http.Error(w, "Invalid stake", http.StatusBadRequest)
				return
			}
		}
		if v := q.Get("limitPriceCents"); v != "" {
			limit, err := strconv.ParseFloat(v, 64)
			if err != nil {
				http.Error(w, "Invalid limit price", http.StatusBadRequest)
				return
			}
			req.LimitPriceCents = &limit
		}

		var security models.Security
		if result := db.First(&security, securityID); result.Error != nil {
			if result.Error == gorm.ErrRecordNotFound {
				http.Error(w, "Security not found", http.StatusNotFound)
				return
			}
			http.Error(w, "Database error", http.StatusInternalServerError)
			return
		}

		var market models.Market
		if result := db.First(&market, security.MarketID); result.Error != nil {
			http.Error(w, "Database error", http.StatusInternalServerError)
			return
		}

		if httpErr := admit(&market, req, cfg); httpErr != nil {
			http.Error(w, httpErr.Message, httpErr.StatusCode)
			return
		}

		var securities []models.Security
		if result := db.Where("market_id = ?", market.ID).Order("id ASC").Find(&securities); result.Error != nil {
			http.Error(w, "Database error", http.StatusInternalServerError)
			return
		}
		var ledger []models.Trade
		if result := db.Where("market_id = ?", market.ID).Find(&ledger); result.Error != nil {
			http.Error(w, "Database error", http.StatusInternalServerError)
			return
		}

		exec, err := quotes.PriceTrade(&market, securities, ledger, req, cfg.Pricing)
		if err != nil {
			http.Error(w, "Failed to price trade", statusForError(err))
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(models.TradePriceResponse{
			SecurityID: securityID,
			Quantity:   exec.Quantity,
			PriceCents: exec.PriceCents,
			Stake:      exec.Stake,
			PricedAt:   time.Now().UTC(),
		})
	}
}
