package trades

import (
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"time"

	"tempora/errs"
	"tempora/exlock"
	"tempora/handlers/math/quotes"
	"tempora/middleware"
	"tempora/models"
	"tempora/setup"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

var validate = validator.New()

// marketLocks serializes pricing+booking per market inside this process.
// Trades on different markets share no state and run concurrently.
var marketLocks = exlock.NewMarkets()

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

// admit runs the pre-pricing input checks: market open, trade size above the
// minimum. Violations are rejected before any pricing computation.
func admit(market *models.Market, req models.TradeCreateRequest, cfg *setup.Config) *middleware.HTTPError {
	if market.Status != models.MarketOpen {
		return &middleware.HTTPError{StatusCode: http.StatusBadRequest, Message: "Market is not open for trading"}
	}

	switch market.PricingModel {
	case models.PricingModelLMSR:
		if req.Quantity == 0 {
			return &middleware.HTTPError{StatusCode: http.StatusBadRequest, Message: "Quantity must be nonzero"}
		}
		if math.Abs(req.Quantity) < cfg.Trading.MinimumTradeSize {
			return &middleware.HTTPError{StatusCode: http.StatusBadRequest, Message: "Quantity is below the minimum trade size"}
		}
	case models.PricingModelBlend:
		if req.Stake < cfg.Trading.MinimumTradeSize {
			return &middleware.HTTPError{StatusCode: http.StatusBadRequest, Message: "Stake is below the minimum trade size"}
		}
		if req.LimitPriceCents != nil &&
			(*req.LimitPriceCents < cfg.Trading.LimitFloorCents || *req.LimitPriceCents > cfg.Trading.LimitCeilingCents) {
			return &middleware.HTTPError{StatusCode: http.StatusBadRequest, Message: "Limit price outside the valid range"}
		}
	default:
		return &middleware.HTTPError{StatusCode: http.StatusInternalServerError, Message: "Market has an unknown pricing model"}
	}
	return nil
}

// PlaceTradeHandler handles POST /v0/trades. Pricing and booking are one
// atomic operation from the caller's perspective: the execution price is
// computed fresh from the current ledger inside the market's exclusive
// section, and either exactly one ledger row is appended or nothing is.
func PlaceTradeHandler(db *gorm.DB, cfg *setup.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		user, httpErr := middleware.ValidateTokenAndGetUser(r, db, cfg.JWTSecret)
		if httpErr != nil {
			http.Error(w, httpErr.Message, httpErr.StatusCode)
			return
		}

		var req models.TradeCreateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		if err := validate.Struct(req); err != nil {
			http.Error(w, "Invalid trade data: "+err.Error(), http.StatusBadRequest)
			return
		}

		// Retries after a timeout must not double-book: a replayed key
		// returns the originally booked trade.
		if req.IdempotencyKey != "" {
			var existing models.Trade
			if result := db.Where("idempotency_key = ?", req.IdempotencyKey).First(&existing); result.Error == nil {
				respond(w, db, cfg, &existing, http.StatusOK)
				return
			}
		}

		var security models.Security
		if result := db.First(&security, req.SecurityID); result.Error != nil {
			if result.Error == gorm.ErrRecordNotFound {
				http.Error(w, "Security not found", http.StatusNotFound)
				return
			}
			http.Error(w, "Database error", http.StatusInternalServerError)
			return
		}

		var market models.Market
		if result := db.First(&market, security.MarketID); result.Error != nil {
			if result.Error == gorm.ErrRecordNotFound {
				http.Error(w, "Market not found", http.StatusNotFound)
				return
			}
			http.Error(w, "Database error", http.StatusInternalServerError)
			return
		}

		if httpErr := admit(&market, req, cfg); httpErr != nil {
			http.Error(w, httpErr.Message, httpErr.StatusCode)
			return
		}

		// Exclusive section: concurrent trades on this market must not price
		// against the same pre-trade depth.
		unlock := marketLocks.Lock(market.ID)
		defer unlock()

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

		key := req.IdempotencyKey
		if key == "" {
			key = uuid.New().String()
		}

		trade := models.Trade{
			UserID:         user.ID,
			MarketID:       market.ID,
			SecurityID:     security.ID,
			Quantity:       exec.Quantity,
			PriceCents:     exec.PriceCents,
			Stake:          exec.Stake,
			IdempotencyKey: key,
			PlacedAt:       time.Now().UTC(),
		}

		tx := db.Begin()
		if result := tx.Create(&trade); result.Error != nil {
			tx.Rollback()
			// A duplicate key means a retry landed after the original write
			// committed; hand back the booked trade instead of failing.
			var existing models.Trade
			if lookup := db.Where("idempotency_key = ?", key).First(&existing); lookup.Error == nil {
				respond(w, db, cfg, &existing, http.StatusOK)
				return
			}
			log.Error().Err(result.Error).Int64("marketId", market.ID).Msg("trade insert failed")
			http.Error(w, "Failed to book trade", http.StatusInternalServerError)
			return
		}
		tx.Commit()

		log.Info().
			Int64("marketId", market.ID).
			Int64("securityId", security.ID).
			Float64("quantity", trade.Quantity).
			Float64("priceCents", trade.PriceCents).
			Msg("trade booked")

		respond(w, db, cfg, &trade, http.StatusCreated)
	}
}

// respond returns the trade plus the market state it left behind.
func respond(w http.ResponseWriter, db *gorm.DB, cfg *setup.Config, trade *models.Trade, status int) {
	var market models.Market
	if result := db.First(&market, trade.MarketID); result.Error != nil {
		http.Error(w, "Database error", http.StatusInternalServerError)
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

	qts, err := quotes.ForMarket(&market, securities, ledger, cfg.Pricing, time.Now().UTC())
	if err != nil {
		http.Error(w, "Failed to compute market state", statusForError(err))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(models.TradeResponse{Trade: *trade, Quotes: quotes.Display(qts)})
}
