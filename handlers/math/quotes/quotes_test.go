package quotes

import (
	"math"
	"testing"
	"time"

	"tempora/errs"
	"tempora/models"
	"tempora/setup"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pricingDefaults() setup.PricingConfig {
	return setup.Defaults().Pricing
}

func lmsrMarket(liquidity float64) *models.Market {
	return &models.Market{
		ID:                 1,
		Question:           "Which candidate wins?",
		Status:             models.MarketOpen,
		PricingModel:       models.PricingModelLMSR,
		LiquidityParameter: liquidity,
	}
}

func blendMarket(baseline, liquidity float64) *models.Market {
	return &models.Market{
		ID:                  2,
		Question:            "Recession this year?",
		Status:              models.MarketOpen,
		PricingModel:        models.PricingModelBlend,
		LiquidityParameter:  liquidity,
		BaselineProbability: baseline,
	}
}

func twoSecurities(marketID int64) []models.Security {
	return []models.Security{
		{ID: 10, MarketID: marketID, Outcome: "Yes"},
		{ID: 11, MarketID: marketID, Outcome: "No"},
	}
}

func TestForMarketCostFunctionBuyRaisesPrice(t *testing.T) {
	m := lmsrMarket(100)
	secs := twoSecurities(m.ID)
	now := time.Now().UTC()

	before, err := ForMarket(m, secs, nil, pricingDefaults(), now)
	require.NoError(t, err)
	require.Len(t, before, 2)
	assert.InDelta(t, 0.5, before[0].ImpliedProbability, 1e-12)

	trades := []models.Trade{{MarketID: m.ID, SecurityID: 10, Quantity: 10, PriceCents: 502}}
	after, err := ForMarket(m, secs, trades, pricingDefaults(), now)
	require.NoError(t, err)

	assert.Greater(t, after[0].ImpliedProbability, after[1].ImpliedProbability)
	assert.Greater(t, after[0].ImpliedProbability, before[0].ImpliedProbability)
	assert.InDelta(t, 1.0, after[0].ImpliedProbability+after[1].ImpliedProbability, 1e-9)
}

func TestForMarketQuotesAreIdempotent(t *testing.T) {
	m := lmsrMarket(50)
	secs := twoSecurities(m.ID)
	trades := []models.Trade{
		{MarketID: m.ID, SecurityID: 10, Quantity: 7, PriceCents: 360},
		{MarketID: m.ID, SecurityID: 11, Quantity: -3, PriceCents: -140},
	}
	now := time.Now().UTC()

	a, err := ForMarket(m, secs, trades, pricingDefaults(), now)
	require.NoError(t, err)
	b, err := ForMarket(m, secs, trades, pricingDefaults(), now)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestForMarketBlendComplementarySides(t *testing.T) {
	m := blendMarket(0.40, 1000)
	secs := twoSecurities(m.ID)

	qts, err := ForMarket(m, secs, nil, pricingDefaults(), time.Now().UTC())
	require.NoError(t, err)
	require.Len(t, qts, 2)

	assert.InDelta(t, 100.0, qts[0].BuyUnitPriceCents+qts[1].BuyUnitPriceCents, 1e-9)
	assert.InDelta(t, 1.0, qts[0].ImpliedProbability+qts[1].ImpliedProbability, 1e-12)
	assert.Equal(t, "Yes", qts[0].Outcome)
}

func TestForMarketBlendRequiresTwoSecurities(t *testing.T) {
	m := blendMarket(0.5, 100)
	secs := []models.Security{{ID: 10, MarketID: m.ID, Outcome: "Yes"}}

	_, err := ForMarket(m, secs, nil, pricingDefaults(), time.Now().UTC())
	assert.ErrorIs(t, err, errs.ErrComputation)
}

func TestForMarketUnknownModel(t *testing.T) {
	m := lmsrMarket(100)
	m.PricingModel = "parimutuel"

	_, err := ForMarket(m, twoSecurities(m.ID), nil, pricingDefaults(), time.Now().UTC())
	assert.ErrorIs(t, err, errs.ErrComputation)
}

func TestPriceTradeChargesAverageCost(t *testing.T) {
	m := lmsrMarket(100)
	secs := twoSecurities(m.ID)
	req := models.TradeCreateRequest{SecurityID: 10, Quantity: 10}

	ex, err := PriceTrade(m, secs, nil, req, pricingDefaults())
	require.NoError(t, err)

	// b=100, buying 10 from a flat book: cost = b*ln((e^0.1+1)/2) in currency,
	// slightly above the 50c spot price per share.
	want := 100 * 100 * math.Log((math.Exp(0.1)+1)/2)
	assert.InDelta(t, want, ex.PriceCents, 1e-9)
	assert.Greater(t, ex.PriceCents, 500.0)
	assert.Less(t, ex.PriceCents, 100*10*0.525)
	assert.Equal(t, 10.0, ex.Quantity)
	assert.InDelta(t, ex.PriceCents/100, ex.Stake, 1e-12)
}

func TestPriceTradeSellReturnsProceeds(t *testing.T) {
	m := lmsrMarket(100)
	secs := twoSecurities(m.ID)
	book := []models.Trade{{MarketID: m.ID, SecurityID: 10, Quantity: 20, PriceCents: 1025}}
	req := models.TradeCreateRequest{SecurityID: 10, Quantity: -10}

	ex, err := PriceTrade(m, secs, book, req, pricingDefaults())
	require.NoError(t, err)

	assert.Less(t, ex.PriceCents, 0.0)
	assert.Greater(t, ex.Stake, 0.0)
	assert.InDelta(t, -ex.PriceCents/100, ex.Stake, 1e-12)
}

func TestPriceTradeBlendStakeAtQuote(t *testing.T) {
	m := blendMarket(0.50, 1000)
	secs := twoSecurities(m.ID)
	req := models.TradeCreateRequest{SecurityID: 10, Stake: 10}

	qts, err := ForMarket(m, secs, nil, pricingDefaults(), time.Now().UTC())
	require.NoError(t, err)
	unit := qts[0].BuyUnitPriceCents

	ex, err := PriceTrade(m, secs, nil, req, pricingDefaults())
	require.NoError(t, err)

	assert.InDelta(t, 10.0/unit*100, ex.Quantity, 1e-9)
	assert.Equal(t, 1000.0, ex.PriceCents)
	assert.Equal(t, 10.0, ex.Stake)
}

func TestPriceTradeBlendLimitOnlyImproves(t *testing.T) {
	m := blendMarket(0.50, 1000)
	secs := twoSecurities(m.ID)

	qts, err := ForMarket(m, secs, nil, pricingDefaults(), time.Now().UTC())
	require.NoError(t, err)
	unit := qts[0].BuyUnitPriceCents

	// A limit below the market price wins: the trade fills at the limit and
	// buys more shares for the same stake.
	better := unit - 5
	req := models.TradeCreateRequest{SecurityID: 10, Stake: 10, LimitPriceCents: &better}
	ex, err := PriceTrade(m, secs, nil, req, pricingDefaults())
	require.NoError(t, err)
	assert.InDelta(t, 10.0/better*100, ex.Quantity, 1e-9)

	// A limit above the market price is ignored; the trade fills at market.
	worse := unit + 5
	req.LimitPriceCents = &worse
	ex, err = PriceTrade(m, secs, nil, req, pricingDefaults())
	require.NoError(t, err)
	assert.InDelta(t, 10.0/unit*100, ex.Quantity, 1e-9)
}

func TestPriceTradeUnknownSecurity(t *testing.T) {
	m := lmsrMarket(100)
	req := models.TradeCreateRequest{SecurityID: 999, Quantity: 1}

	_, err := PriceTrade(m, twoSecurities(m.ID), nil, req, pricingDefaults())
	assert.ErrorIs(t, err, errs.ErrNotFound)
}

func TestDisplayRoundsCopies(t *testing.T) {
	qts := []models.MarketQuote{{
		SecurityID:         1,
		BuyUnitPriceCents:  52.34567,
		SellUnitPriceCents: 47.65432,
		ImpliedProbability: 0.523456,
		Quantity:           3.1415926,
	}}

	rounded := Display(qts)
	assert.Equal(t, 52.35, rounded[0].BuyUnitPriceCents)
	assert.Equal(t, 47.65, rounded[0].SellUnitPriceCents)
	assert.Equal(t, 0.5235, rounded[0].ImpliedProbability)
	assert.Equal(t, 3.1416, rounded[0].Quantity)

	// Source slice is untouched.
	assert.Equal(t, 52.34567, qts[0].BuyUnitPriceCents)
}
