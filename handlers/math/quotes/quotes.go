// Package quotes ties the pricing variants together: it turns a market's
// aggregated depth into per-security quotes and prices proposed trades. The
// variant is fixed per market at creation time via Market.PricingModel; the
// two cost models are never mixed for the same market.
package quotes

import (
	"fmt"
	"math"
	"time"

	"tempora/errs"
	marketmath "tempora/handlers/math/market"
	"tempora/handlers/math/probabilities/blend"
	"tempora/handlers/math/probabilities/lmsr"
	"tempora/models"
	"tempora/setup"
)

// makerFor builds the cost-function market maker for a market. A zero
// liquidity parameter selects the liquidity-sensitive rule.
func makerFor(m *models.Market, vec []float64, cfg setup.PricingConfig) *lmsr.LMSR {
	if m.LiquidityParameter > 0 {
		return lmsr.New(m.LiquidityParameter)
	}
	return lmsr.NewLiquiditySensitive(vec, cfg.Vig)
}

func blendConfig(cfg setup.PricingConfig) blend.Config {
	return blend.Config{
		BaselineWeight: cfg.BaselineWeight,
		MomentumWeight: cfg.MomentumWeight,
		BoostWeight:    cfg.BoostWeight,
		Sensitivity:    cfg.Sensitivity,
		FloorCents:     cfg.FloorCents,
		CeilingCents:   cfg.CeilingCents,
	}
}

// ForMarket recomputes one quote per security from the current trade ledger.
// Nothing is cached; idempotent for identical inputs up to the timestamp.
func ForMarket(m *models.Market, securities []models.Security, trades []models.Trade, cfg setup.PricingConfig, now time.Time) ([]models.MarketQuote, error) {
	depth := marketmath.Aggregate(securities, trades)

	switch m.PricingModel {
	case models.PricingModelLMSR:
		vec := depth.Vector()
		maker := makerFor(m, vec, cfg)
		prices := maker.Prices(vec)

		out := make([]models.MarketQuote, len(securities))
		for i, s := range securities {
			out[i] = models.MarketQuote{
				SecurityID:         s.ID,
				Outcome:            s.Outcome,
				Quantity:           vec[i],
				BuyUnitPriceCents:  100 * maker.UnitBuyCost(vec, i),
				SellUnitPriceCents: 100 * maker.UnitSellProceeds(vec, i),
				ImpliedProbability: prices[i],
				LastCalculatedAt:   now,
			}
		}
		return out, nil

	case models.PricingModelBlend:
		if len(securities) != 2 {
			return nil, fmt.Errorf("%w: blend market %d has %d securities, want 2", errs.ErrComputation, m.ID, len(securities))
		}
		// The first-created security is the YES side the baseline refers to.
		yes, no := securities[0], securities[1]
		q := blend.Calculate(blend.Inputs{
			BaselineProbability: m.BaselineProbability,
			YesShares:           depth.Quantities[yes.ID],
			NoShares:            depth.Quantities[no.ID],
			Liquidity:           m.LiquidityParameter,
			Boost:               m.Boost,
		}, blendConfig(cfg))

		return []models.MarketQuote{
			{
				SecurityID:         yes.ID,
				Outcome:            yes.Outcome,
				Quantity:           depth.Quantities[yes.ID],
				BuyUnitPriceCents:  q.YesPriceCents,
				SellUnitPriceCents: q.YesPriceCents,
				ImpliedProbability: q.ImpliedProbability,
				LastCalculatedAt:   now,
			},
			{
				SecurityID:         no.ID,
				Outcome:            no.Outcome,
				Quantity:           depth.Quantities[no.ID],
				BuyUnitPriceCents:  q.NoPriceCents,
				SellUnitPriceCents: q.NoPriceCents,
				ImpliedProbability: 1 - q.ImpliedProbability,
				LastCalculatedAt:   now,
			},
		}, nil

	default:
		return nil, fmt.Errorf("%w: unknown pricing model %q on market %d", errs.ErrComputation, m.PricingModel, m.ID)
	}
}

func round(v float64, places int) float64 {
	f := math.Pow10(places)
	return math.Round(v*f) / f
}

// Display rounds a copy of the quotes for serialization. The unrounded
// values stay behind for all downstream arithmetic.
func Display(qts []models.MarketQuote) []models.MarketQuote {
	out := make([]models.MarketQuote, len(qts))
	for i, q := range qts {
		q.BuyUnitPriceCents = round(q.BuyUnitPriceCents, 2)
		q.SellUnitPriceCents = round(q.SellUnitPriceCents, 2)
		q.ImpliedProbability = round(q.ImpliedProbability, 4)
		q.Quantity = round(q.Quantity, 4)
		out[i] = q
	}
	return out
}

// Execution is the priced form of a proposed trade, ready to book.
type Execution struct {
	Quantity   float64 // shares, signed
	PriceCents float64 // cost of the entire trade in cents, signed
	Stake      float64 // currency moved, always >= 0
}

// PriceTrade prices a proposed trade against the current ledger state.
//
// Cost-function markets charge the marginal cost 100*(C(q+delta) - C(q)) for
// the requested share delta: the average execution price over the trade's
// price impact, not the pre-trade point price. Blend markets execute the
// requested stake at the current quote for the chosen side; a limit price
// applies only when it improves on the market price, never worsens it, and
// every trade fills in full or is rejected upstream.
func PriceTrade(m *models.Market, securities []models.Security, trades []models.Trade, req models.TradeCreateRequest, cfg setup.PricingConfig) (Execution, error) {
	depth := marketmath.Aggregate(securities, trades)
	idx := depth.IndexOf(req.SecurityID)
	if idx < 0 {
		return Execution{}, fmt.Errorf("%w: security %d does not belong to market %d", errs.ErrNotFound, req.SecurityID, m.ID)
	}

	switch m.PricingModel {
	case models.PricingModelLMSR:
		vec := depth.Vector()
		maker := makerFor(m, vec, cfg)
		delta := make([]float64, len(vec))
		delta[idx] = req.Quantity
		costCents := 100 * maker.TradeCost(vec, delta)

		stake := costCents / 100
		if stake < 0 {
			stake = -stake
		}
		return Execution{Quantity: req.Quantity, PriceCents: costCents, Stake: stake}, nil

	case models.PricingModelBlend:
		all, err := ForMarket(m, securities, trades, cfg, time.Now().UTC())
		if err != nil {
			return Execution{}, err
		}
		unit := all[idx].BuyUnitPriceCents
		if req.LimitPriceCents != nil && *req.LimitPriceCents < unit {
			unit = *req.LimitPriceCents
		}
		shares := req.Stake / unit * 100
		return Execution{Quantity: shares, PriceCents: req.Stake * 100, Stake: req.Stake}, nil

	default:
		return Execution{}, fmt.Errorf("%w: unknown pricing model %q on market %d", errs.ErrComputation, m.PricingModel, m.ID)
	}
}
