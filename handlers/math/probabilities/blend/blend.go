// Package blend implements the two-outcome blended-probability market maker:
// the YES price is a weighted mix of a baseline prior, a logistic transform
// of order-flow skew, and an optional boost term, clamped to a configured
// floor/ceiling so the market stays tradable and never fully resolves before
// settlement. The NO price is always 100 minus the YES price.
package blend

import (
	"math"
)

// Config holds the blend weights and clamps. Passed in explicitly so pricing
// stays a pure function of (inputs, config) with no ambient state.
type Config struct {
	BaselineWeight float64 // weight of the market's baseline prior
	MomentumWeight float64 // weight of the order-flow momentum term
	BoostWeight    float64 // weight of the optional boost term
	Sensitivity    float64 // scales skew before the logistic transform
	FloorCents     float64 // lowest tradable YES price
	CeilingCents   float64 // highest tradable YES price
}

// Inputs is the market state the quote is computed from.
type Inputs struct {
	BaselineProbability float64 // decimal, 0..1
	YesShares           float64 // net signed quantity on the YES side
	NoShares            float64 // net signed quantity on the NO side
	Liquidity           float64 // floored at 1 to avoid division blow-up
	Boost               float64 // decimal, 0..1
}

// Quote is the derived YES/NO pricing. YesPriceCents + NoPriceCents == 100
// exactly.
type Quote struct {
	YesPriceCents      float64
	NoPriceCents       float64
	ImpliedProbability float64 // unrounded YES probability, 0..1
}

func logistic(v float64) float64 {
	return 1.0 / (1.0 + math.Exp(-v))
}

// Calculate converts market depth into tradable YES/NO prices. The returned
// ImpliedProbability is unrounded; rounding happens only at the wire.
func Calculate(in Inputs, cfg Config) Quote {
	liquidity := math.Max(in.Liquidity, 1.0)
	skew := (in.YesShares - in.NoShares) / liquidity
	momentum := logistic(skew * cfg.Sensitivity)

	probability := cfg.BaselineWeight*in.BaselineProbability +
		cfg.MomentumWeight*momentum +
		cfg.BoostWeight*in.Boost

	yes := probability * 100.0
	if yes < cfg.FloorCents {
		yes = cfg.FloorCents
	}
	if yes > cfg.CeilingCents {
		yes = cfg.CeilingCents
	}

	return Quote{
		YesPriceCents:      yes,
		NoPriceCents:       100.0 - yes,
		ImpliedProbability: yes / 100.0,
	}
}
