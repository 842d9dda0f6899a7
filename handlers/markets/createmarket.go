package markets

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"tempora/middleware"
	"tempora/models"
	"tempora/security"
	"tempora/setup"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

var validate = validator.New()

// settlementReviewLead is how far before final settlement the midpoint
// review checkpoint lands.
const settlementReviewLead = 90 * 24 * time.Hour

// CreateMarketHandler handles POST /v0/markets
func CreateMarketHandler(db *gorm.DB, cfg *setup.Config) http.HandlerFunc {
	svc := security.NewSecurityService()
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

		var req models.MarketCreateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		if err := validate.Struct(req); err != nil {
			http.Error(w, "Invalid market data: "+err.Error(), http.StatusBadRequest)
			return
		}

		model := models.PricingModel(req.PricingModel)
		if model == "" {
			model = models.PricingModelLMSR
		}
		if model == models.PricingModelBlend && len(req.Outcomes) != 2 {
			http.Error(w, "Blend markets must have exactly two outcomes", http.StatusBadRequest)
			return
		}

		if req.ResolutionDate.Before(time.Now().Add(time.Hour)) {
			http.Error(w, "Resolution date must be at least 1 hour in the future", http.StatusBadRequest)
			return
		}

		sanitized, err := svc.ValidateAndSanitizeMarketInput(security.MarketInput{
			Title:       req.Question,
			Description: req.Description,
		})
		if err != nil {
			http.Error(w, "Invalid market data: "+err.Error(), http.StatusBadRequest)
			return
		}

		category := strings.TrimSpace(req.Category)
		if category == "" {
			category = "general"
		}

		market := models.Market{
			Question:            sanitized.Title,
			Description:         sanitized.Description,
			Category:            category,
			Tags:                strings.Join(req.Tags, ","),
			Status:              models.MarketOpen,
			PricingModel:        model,
			LiquidityParameter:  req.LiquidityParameter,
			BaselineProbability: req.BaselineProbability,
			Boost:               req.Boost,
			ResolutionDate:      req.ResolutionDate,
			CreatorID:           user.ID,
		}

		tx := db.Begin()
		if result := tx.Create(&market); result.Error != nil {
			tx.Rollback()
			http.Error(w, "Failed to create market", http.StatusInternalServerError)
			return
		}

		// Outcomes become securities in the order given; blend markets treat
		// the first one as the YES side.
		for _, outcome := range req.Outcomes {
			s := models.Security{MarketID: market.ID, Outcome: strings.TrimSpace(outcome)}
			if result := tx.Create(&s); result.Error != nil {
				tx.Rollback()
				http.Error(w, "Failed to create security", http.StatusInternalServerError)
				return
			}
		}

		dates := []models.SettlementDate{
			{MarketID: market.ID, Label: "Midpoint Review", Date: req.ResolutionDate.Add(-settlementReviewLead)},
			{MarketID: market.ID, Label: "Final Settlement", Date: req.ResolutionDate},
		}
		for i := range dates {
			if result := tx.Create(&dates[i]); result.Error != nil {
				tx.Rollback()
				http.Error(w, "Failed to create settlement dates", http.StatusInternalServerError)
				return
			}
		}
		tx.Commit()

		log.Info().Int64("marketId", market.ID).Str("model", string(model)).Msg("market created")

		db.Where("market_id = ?", market.ID).Order("id ASC").Find(&market.SettlementDates)
		overview, err := buildOverview(db, cfg, svc, &market)
		if err != nil {
			http.Error(w, "Failed to compute market state", statusForError(err))
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(overview)
	}
}
