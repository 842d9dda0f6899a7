package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"tempora/migration"
	"tempora/models"
	"tempora/setup"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestServer(t *testing.T) http.Handler {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, migration.Run(db))

	cfg := setup.Defaults()
	cfg.JWTSecret = "test-secret"
	cfg.Server.RequestsPerSecond = 1000
	cfg.Server.Burst = 1000
	return NewRouter(db, cfg)
}

func TestHealthEndpoint(t *testing.T) {
	handler := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/v0/health", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "ok", body["status"])
}

func TestFullTradeFlow(t *testing.T) {
	handler := newTestServer(t)

	post := func(target, token string, body any) *httptest.ResponseRecorder {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		req := httptest.NewRequest(http.MethodPost, target, bytes.NewReader(raw))
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec
	}

	rec := post("/v0/auth/register", "", models.RegisterRequest{
		Email:    "flow@example.com",
		Password: "hunter22",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var authResp models.AuthResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&authResp))
	token := authResp.AccessToken

	rec = post("/v0/markets", token, models.MarketCreateRequest{
		Question:           "Integration market?",
		Outcomes:           []string{"Yes", "No"},
		ResolutionDate:     time.Now().UTC().Add(48 * time.Hour),
		LiquidityParameter: 100,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var overview models.MarketOverview
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&overview))
	require.Len(t, overview.Quotes, 2)

	rec = post("/v0/trades", token, models.TradeCreateRequest{
		SecurityID: overview.Quotes[0].SecurityID,
		Quantity:   10,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var tradeResp models.TradeResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&tradeResp))
	assert.Equal(t, 10.0, tradeResp.Trade.Quantity)

	req := httptest.NewRequest(http.MethodGet, "/v0/users/me/portfolio", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	getRec := httptest.NewRecorder()
	handler.ServeHTTP(getRec, req)
	require.Equal(t, http.StatusOK, getRec.Code, getRec.Body.String())
}

func TestUnknownRoute(t *testing.T) {
	handler := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/v0/nonsense", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
