// Package lmsr implements the Logarithmic Market Scoring Rule (LMSR)
// originally developed by Robin Hanson for prediction markets, plus the
// liquidity-sensitive variant (LS-LMSR) where the liquidity parameter scales
// with traded volume.
//
// LMSR provides:
// - Bounded loss for the market maker (max loss = b * ln(n) for n outcomes)
// - Always available liquidity
// - Price = probability interpretation: prices sum to 1 by construction
//
// Reference: "Logarithmic Market Scoring Rules for Modular Combinatorial
// Information Aggregation" by Robin Hanson, 2003, George Mason University
package lmsr

import (
	"math"
)

// MinB is the floor for the liquidity parameter. Keeps the cost function
// defined when a market has seen no volume yet.
const MinB = 1.0

// LMSR implements the Logarithmic Market Scoring Rule over n >= 2 outcomes.
type LMSR struct {
	// B is the liquidity parameter (also called the "market depth" or
	// "subsidy"). Higher B = more stable prices, less slippage, but more
	// potential loss for the market maker.
	B float64
}

// New creates an LMSR market maker with the given liquidity parameter,
// floored at MinB.
func New(liquidity float64) *LMSR {
	if liquidity < MinB {
		liquidity = MinB
	}
	return &LMSR{B: liquidity}
}

// NewLiquiditySensitive derives b from current depth: b = alpha * sum(|q_i|)
// with alpha = vig / (n * ln n). At low volume this behaves like a fixed-b
// market; as volume grows the effective liquidity widens so prices do not
// sharpen too early. The result is floored at MinB.
func NewLiquiditySensitive(quantities []float64, vig float64) *LMSR {
	n := float64(len(quantities))
	if n < 2 {
		n = 2
	}
	alpha := vig / (n * math.Log(n))

	depth := 0.0
	for _, q := range quantities {
		depth += math.Abs(q)
	}
	return New(alpha * depth)
}

// Cost calculates the cost function C(q) = b * ln(sum of exp(q_i / b)).
// Defined for every finite quantity vector; uses the log-sum-exp trick for
// numerical stability.
func (l *LMSR) Cost(quantities []float64) float64 {
	maxQ := quantities[0]
	for _, q := range quantities[1:] {
		if q > maxQ {
			maxQ = q
		}
	}

	sum := 0.0
	for _, q := range quantities {
		sum += math.Exp((q - maxQ) / l.B)
	}
	return maxQ + l.B*math.Log(sum)
}

// Prices returns the instantaneous price (probability) of every outcome:
// p_i = dC/dq_i = exp(q_i/b) / sum(exp(q_j/b)), the softmax of q/b. The
// returned values sum to 1 and each lies strictly inside (0, 1).
func (l *LMSR) Prices(quantities []float64) []float64 {
	maxQ := quantities[0]
	for _, q := range quantities[1:] {
		if q > maxQ {
			maxQ = q
		}
	}

	exps := make([]float64, len(quantities))
	sum := 0.0
	for i, q := range quantities {
		exps[i] = math.Exp((q - maxQ) / l.B)
		sum += exps[i]
	}
	for i := range exps {
		exps[i] /= sum
	}
	return exps
}

// TradeCost calculates the marginal cost of moving the market from q to
// q + delta: C(q+delta) - C(q). For a nonzero-size trade this is the average
// execution price over the trade's impact, not the pre-trade point price,
// and it is the value executions must book at.
func (l *LMSR) TradeCost(quantities, delta []float64) float64 {
	after := make([]float64, len(quantities))
	for i, q := range quantities {
		after[i] = q + delta[i]
	}
	return l.Cost(after) - l.Cost(quantities)
}

// UnitBuyCost is the cost of buying one share of outcome idx.
func (l *LMSR) UnitBuyCost(quantities []float64, idx int) float64 {
	delta := make([]float64, len(quantities))
	delta[idx] = 1
	return l.TradeCost(quantities, delta)
}

// UnitSellProceeds is the amount returned for selling one share of outcome
// idx: C(q) - C(q - e_idx).
func (l *LMSR) UnitSellProceeds(quantities []float64, idx int) float64 {
	delta := make([]float64, len(quantities))
	delta[idx] = -1
	return -l.TradeCost(quantities, delta)
}

// MaxLoss returns the maximum possible loss for the market maker over n
// outcomes: b * ln(n).
func (l *LMSR) MaxLoss(n int) float64 {
	return l.B * math.Log(float64(n))
}
