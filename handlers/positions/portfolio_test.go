package positions

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	positionsmath "tempora/handlers/math/positions"
	"tempora/middleware"
	"tempora/migration"
	"tempora/models"
	"tempora/setup"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const testSecret = "test-secret"

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, migration.Run(db))
	return db
}

func createTestUser(t *testing.T, db *gorm.DB, email string) (*models.User, string) {
	t.Helper()
	user := models.User{
		ID:           uuid.New().String(),
		Email:        email,
		PasswordHash: "x",
		JoinedAt:     time.Now().UTC(),
	}
	require.NoError(t, db.Create(&user).Error)
	token, err := middleware.CreateToken(user.ID, testSecret)
	require.NoError(t, err)
	return &user, token
}

func getPortfolio(t *testing.T, db *gorm.DB, cfg *setup.Config, token string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/v0/users/me/portfolio", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	GetPortfolioHandler(db, cfg)(rec, req)
	return rec
}

func TestPortfolioEmptyHistory(t *testing.T) {
	db := openTestDB(t)
	cfg := setup.Defaults()
	cfg.JWTSecret = testSecret
	_, token := createTestUser(t, db, "empty@example.com")

	rec := getPortfolio(t, db, cfg, token)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var snap positionsmath.Snapshot
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&snap))
	assert.Empty(t, snap.Holdings)
	assert.Zero(t, snap.Summary.CostBasisCents)
	assert.Zero(t, snap.Summary.ROIPercent)
}

func TestPortfolioMarksAgainstFullLedger(t *testing.T) {
	db := openTestDB(t)
	cfg := setup.Defaults()
	cfg.JWTSecret = testSecret
	user, token := createTestUser(t, db, "holder@example.com")
	other, _ := createTestUser(t, db, "other@example.com")

	market := models.Market{
		Question:           "Which team wins?",
		Status:             models.MarketOpen,
		PricingModel:       models.PricingModelLMSR,
		LiquidityParameter: 100,
		ResolutionDate:     time.Now().UTC().Add(14 * 24 * time.Hour),
	}
	require.NoError(t, db.Create(&market).Error)
	secA := models.Security{MarketID: market.ID, Outcome: "A"}
	secB := models.Security{MarketID: market.ID, Outcome: "B"}
	require.NoError(t, db.Create(&secA).Error)
	require.NoError(t, db.Create(&secB).Error)

	trades := []models.Trade{
		{UserID: user.ID, MarketID: market.ID, SecurityID: secA.ID, Quantity: 10, PriceCents: 512, Stake: 5.12, IdempotencyKey: uuid.New().String(), PlacedAt: time.Now().UTC()},
		{UserID: other.ID, MarketID: market.ID, SecurityID: secA.ID, Quantity: 30, PriceCents: 1660, Stake: 16.60, IdempotencyKey: uuid.New().String(), PlacedAt: time.Now().UTC()},
	}
	for i := range trades {
		require.NoError(t, db.Create(&trades[i]).Error)
	}

	rec := getPortfolio(t, db, cfg, token)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var snap positionsmath.Snapshot
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&snap))
	require.Len(t, snap.Holdings, 1)

	h := snap.Holdings[0]
	assert.Equal(t, secA.ID, h.SecurityID)
	assert.Equal(t, 10.0, h.Quantity)
	assert.Equal(t, 512.0, h.CostBasisCents)
	// The other user's buy moved the mark; this position shows a gain even
	// though its own trades are unchanged.
	assert.Greater(t, h.MarkPriceCents, h.AvgPriceCents)
	assert.Greater(t, snap.Summary.UnrealizedPnLCents, 0.0)
}

func TestPortfolioRequiresAuth(t *testing.T) {
	db := openTestDB(t)
	cfg := setup.Defaults()
	cfg.JWTSecret = testSecret

	req := httptest.NewRequest(http.MethodGet, "/v0/users/me/portfolio", nil)
	rec := httptest.NewRecorder()
	GetPortfolioHandler(db, cfg)(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
