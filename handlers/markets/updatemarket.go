package markets

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"tempora/middleware"
	"tempora/models"
	"tempora/security"
	"tempora/setup"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// UpdateMarketHandler handles PATCH /v0/markets/{id}. Resolved markets are
// immutable; status moves only forward through the lifecycle unless the
// request sets adminOverride.
func UpdateMarketHandler(db *gorm.DB, cfg *setup.Config) http.HandlerFunc {
	svc := security.NewSecurityService()
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPatch {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		_, httpErr := middleware.ValidateTokenAndGetUser(r, db, cfg.JWTSecret)
		if httpErr != nil {
			http.Error(w, httpErr.Message, httpErr.StatusCode)
			return
		}

		vars := mux.Vars(r)
		marketID, err := strconv.ParseInt(vars["id"], 10, 64)
		if err != nil {
			http.Error(w, "Invalid market ID", http.StatusBadRequest)
			return
		}

		var req models.MarketUpdateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		if err := validate.Struct(req); err != nil {
			http.Error(w, "Invalid market data: "+err.Error(), http.StatusBadRequest)
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

		if market.Status == models.MarketResolved && !req.AdminOverride {
			http.Error(w, "Resolved markets are immutable", http.StatusBadRequest)
			return
		}

		if req.Question != nil || req.Description != nil {
			title := market.Question
			if req.Question != nil {
				title = *req.Question
			}
			description := market.Description
			if req.Description != nil {
				description = *req.Description
			}
			sanitized, err := svc.ValidateAndSanitizeMarketInput(security.MarketInput{
				Title:       title,
				Description: description,
			})
			if err != nil {
				http.Error(w, "Invalid market data: "+err.Error(), http.StatusBadRequest)
				return
			}
			market.Question = sanitized.Title
			market.Description = sanitized.Description
		}
		if req.Category != nil {
			market.Category = *req.Category
		}
		if req.Tags != nil {
			market.Tags = strings.Join(req.Tags, ",")
		}
		if req.ResolutionDate != nil {
			market.ResolutionDate = *req.ResolutionDate
		}
		if req.Status != nil {
			next := models.MarketStatus(*req.Status)
			if !market.CanTransition(next) && !req.AdminOverride {
				http.Error(w, "Invalid status transition", http.StatusBadRequest)
				return
			}
			market.Status = next
		}

		if result := db.Save(&market); result.Error != nil {
			http.Error(w, "Failed to update market", http.StatusInternalServerError)
			return
		}

		log.Info().Int64("marketId", market.ID).Str("status", string(market.Status)).Msg("market updated")

		overview, err := buildOverview(db, cfg, svc, &market)
		if err != nil {
			http.Error(w, "Failed to compute market state", statusForError(err))
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(overview)
	}
}

// ResolveMarketRequest is the body for POST /v0/markets/{id}/resolve.
type ResolveMarketRequest struct {
	Outcome string `json:"outcome" validate:"required"`
}

// ResolveMarketHandler handles POST /v0/markets/{id}/resolve. Records the
// winning outcome and moves the market to its terminal status. No payout
// ledger is written; settlement is out of scope.
func ResolveMarketHandler(db *gorm.DB, cfg *setup.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		_, httpErr := middleware.ValidateTokenAndGetUser(r, db, cfg.JWTSecret)
		if httpErr != nil {
			http.Error(w, httpErr.Message, httpErr.StatusCode)
			return
		}

		vars := mux.Vars(r)
		marketID, err := strconv.ParseInt(vars["id"], 10, 64)
		if err != nil {
			http.Error(w, "Invalid market ID", http.StatusBadRequest)
			return
		}

		var req ResolveMarketRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		if err := validate.Struct(req); err != nil {
			http.Error(w, "Outcome is required", http.StatusBadRequest)
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

		if market.Status == models.MarketResolved {
			http.Error(w, "Market is already resolved", http.StatusBadRequest)
			return
		}

		var winning models.Security
		if result := db.Where("market_id = ? AND outcome = ?", marketID, req.Outcome).First(&winning); result.Error != nil {
			if result.Error == gorm.ErrRecordNotFound {
				http.Error(w, "Outcome not found on market", http.StatusNotFound)
				return
			}
			http.Error(w, "Database error", http.StatusInternalServerError)
			return
		}

		market.Status = models.MarketResolved
		market.ResolvedOutcome = winning.Outcome
		if result := db.Save(&market); result.Error != nil {
			http.Error(w, "Failed to resolve market", http.StatusInternalServerError)
			return
		}

		log.Info().Int64("marketId", market.ID).Str("outcome", winning.Outcome).Msg("market resolved")

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success":         true,
			"marketId":        market.ID,
			"resolvedOutcome": market.ResolvedOutcome,
		})
	}
}
