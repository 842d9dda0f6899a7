// Package seed populates a fresh database with demo users, markets and
// trades. Trades run through the real pricing path so the seeded ledger is
// internally consistent.
package seed

import (
	"fmt"
	"strings"
	"time"

	"tempora/handlers/math/quotes"
	"tempora/models"
	"tempora/setup"

	"github.com/brianvoe/gofakeit"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type demoMarket struct {
	question string
	category string
	tags     string
	model    models.PricingModel
	outcomes []string
	// blend-only fields
	baseline float64
	// lmsr liquidity; 0 selects the liquidity-sensitive rule
	liquidity float64
}

var demoMarkets = []demoMarket{
	{
		question:  "Will the US enter a recession before 2027?",
		category:  "economics",
		tags:      "macroeconomics,economy,us",
		model:     models.PricingModelBlend,
		outcomes:  []string{"YES", "NO"},
		baseline:  0.40,
		liquidity: 1000,
	},
	{
		question:  "Will Bitcoin reach $150,000 before 2026?",
		category:  "technology",
		tags:      "crypto,bitcoin",
		model:     models.PricingModelBlend,
		outcomes:  []string{"YES", "NO"},
		baseline:  0.30,
		liquidity: 500,
	},
	{
		question:  "Which party wins the next general election?",
		category:  "politics",
		tags:      "election",
		model:     models.PricingModelLMSR,
		outcomes:  []string{"Party A", "Party B", "Other"},
		liquidity: 100,
	},
	{
		question:  "Who hosts the 2036 Summer Olympics?",
		category:  "sports",
		tags:      "olympics",
		model:     models.PricingModelLMSR,
		outcomes:  []string{"India", "Indonesia", "Turkey", "Other"},
		liquidity: 0, // liquidity-sensitive
	},
}

// Run creates demo users, markets and a small trade history.
func Run(db *gorm.DB, cfg *setup.Config) error {
	gofakeit.Seed(42)

	users, err := seedUsers(db, 5)
	if err != nil {
		return err
	}

	for _, dm := range demoMarkets {
		market, securities, err := seedMarket(db, dm)
		if err != nil {
			return err
		}
		if err := seedTrades(db, cfg, market, securities, users); err != nil {
			return err
		}
	}
	return nil
}

func seedUsers(db *gorm.DB, n int) ([]models.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.MinCost)
	if err != nil {
		return nil, err
	}

	users := make([]models.User, 0, n)
	for i := 0; i < n; i++ {
		u := models.User{
			ID:           uuid.New().String(),
			Email:        fmt.Sprintf("demo%d@%s", i+1, gofakeit.DomainName()),
			DisplayName:  gofakeit.Name(),
			PasswordHash: string(hash),
			JoinedAt:     time.Now().UTC(),
		}
		if result := db.Create(&u); result.Error != nil {
			return nil, fmt.Errorf("seed user: %w", result.Error)
		}
		users = append(users, u)
	}
	return users, nil
}

func seedMarket(db *gorm.DB, dm demoMarket) (*models.Market, []models.Security, error) {
	market := models.Market{
		Question:            dm.question,
		Description:         gofakeit.Sentence(12),
		Category:            dm.category,
		Tags:                dm.tags,
		Status:              models.MarketOpen,
		PricingModel:        dm.model,
		LiquidityParameter:  dm.liquidity,
		BaselineProbability: dm.baseline,
		ResolutionDate:      time.Now().UTC().AddDate(1, 0, 0),
	}
	if result := db.Create(&market); result.Error != nil {
		return nil, nil, fmt.Errorf("seed market: %w", result.Error)
	}

	securities := make([]models.Security, 0, len(dm.outcomes))
	for _, outcome := range dm.outcomes {
		s := models.Security{MarketID: market.ID, Outcome: outcome}
		if result := db.Create(&s); result.Error != nil {
			return nil, nil, fmt.Errorf("seed security: %w", result.Error)
		}
		securities = append(securities, s)
	}

	dates := []models.SettlementDate{
		{MarketID: market.ID, Label: "Midpoint Review", Date: market.ResolutionDate.AddDate(0, -3, 0)},
		{MarketID: market.ID, Label: "Final Settlement", Date: market.ResolutionDate},
	}
	for i := range dates {
		if result := db.Create(&dates[i]); result.Error != nil {
			return nil, nil, fmt.Errorf("seed settlement date: %w", result.Error)
		}
	}

	log.Info().Int64("marketId", market.ID).Str("question", strings.TrimSpace(dm.question)).Msg("seeded market")
	return &market, securities, nil
}

func seedTrades(db *gorm.DB, cfg *setup.Config, market *models.Market, securities []models.Security, users []models.User) error {
	for i := 0; i < 12; i++ {
		user := users[gofakeit.Number(0, len(users)-1)]
		security := securities[gofakeit.Number(0, len(securities)-1)]

		req := models.TradeCreateRequest{SecurityID: security.ID}
		if market.PricingModel == models.PricingModelBlend {
			req.Stake = gofakeit.Float64Range(1, 25)
		} else {
			req.Quantity = gofakeit.Float64Range(1, 20)
			if gofakeit.Number(0, 3) == 0 {
				req.Quantity = -req.Quantity
			}
		}

		var ledger []models.Trade
		if result := db.Where("market_id = ?", market.ID).Find(&ledger); result.Error != nil {
			return result.Error
		}

		exec, err := quotes.PriceTrade(market, securities, ledger, req, cfg.Pricing)
		if err != nil {
			return fmt.Errorf("seed trade pricing: %w", err)
		}

		trade := models.Trade{
			UserID:         user.ID,
			MarketID:       market.ID,
			SecurityID:     security.ID,
			Quantity:       exec.Quantity,
			PriceCents:     exec.PriceCents,
			Stake:          exec.Stake,
			IdempotencyKey: uuid.New().String(),
			PlacedAt:       time.Now().UTC().Add(-time.Duration(gofakeit.Number(1, 72)) * time.Hour),
		}
		if result := db.Create(&trade); result.Error != nil {
			return fmt.Errorf("seed trade: %w", result.Error)
		}
	}
	return nil
}
