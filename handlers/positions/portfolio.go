// Package positions serves portfolio snapshots: a user's trade history
// reduced to holdings marked at current quotes.
package positions

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"tempora/errs"
	positionsmath "tempora/handlers/math/positions"
	"tempora/handlers/math/quotes"
	"tempora/middleware"
	"tempora/models"
	"tempora/setup"

	"gorm.io/gorm"
)

// GetPortfolioHandler handles GET /v0/users/me/portfolio.
func GetPortfolioHandler(db *gorm.DB, cfg *setup.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, httpErr := middleware.ValidateTokenAndGetUser(r, db, cfg.JWTSecret)
		if httpErr != nil {
			http.Error(w, httpErr.Message, httpErr.StatusCode)
			return
		}

		var userTrades []models.Trade
		if result := db.Where("user_id = ?", user.ID).Find(&userTrades); result.Error != nil {
			http.Error(w, "Failed to fetch trades", http.StatusInternalServerError)
			return
		}

		contexts, err := marketContexts(db, cfg, userTrades)
		if err != nil {
			http.Error(w, "Failed to compute portfolio", statusForError(err))
			return
		}

		snapshot, err := positionsmath.Build(userTrades, contexts)
		if err != nil {
			http.Error(w, "Failed to compute portfolio", statusForError(err))
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(snapshot)
	}
}

// marketContexts loads and quotes every market the user's trades touch. Mark
// prices come from the full market ledger, not just the user's own trades.
func marketContexts(db *gorm.DB, cfg *setup.Config, userTrades []models.Trade) (map[int64]positionsmath.MarketContext, error) {
	marketIDs := make(map[int64]bool)
	for _, t := range userTrades {
		marketIDs[t.MarketID] = true
	}

	now := time.Now().UTC()
	contexts := make(map[int64]positionsmath.MarketContext, len(marketIDs))
	for id := range marketIDs {
		var market models.Market
		if result := db.First(&market, id); result.Error != nil {
			return nil, result.Error
		}
		var securities []models.Security
		if result := db.Where("market_id = ?", id).Order("id ASC").Find(&securities); result.Error != nil {
			return nil, result.Error
		}
		var ledger []models.Trade
		if result := db.Where("market_id = ?", id).Find(&ledger); result.Error != nil {
			return nil, result.Error
		}

		qts, err := quotes.ForMarket(&market, securities, ledger, cfg.Pricing, now)
		if err != nil {
			return nil, err
		}

		ctx := positionsmath.MarketContext{
			Market:     market,
			Securities: make(map[int64]models.Security, len(securities)),
			Quotes:     make(map[int64]models.MarketQuote, len(qts)),
		}
		for _, s := range securities {
			ctx.Securities[s.ID] = s
		}
		for _, q := range qts {
			ctx.Quotes[q.SecurityID] = q
		}
		contexts[id] = ctx
	}
	return contexts, nil
}

func statusForError(err error) int {
	switch {
	case errors.Is(err, errs.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, errs.ErrInvalidInput):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
