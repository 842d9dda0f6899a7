// Package positionsmath reduces a user's trade history into current holdings
// with mark-to-market P&L. Everything is derived from the ledger on each
// request; nothing here is cached or persisted.
package positionsmath

import (
	"fmt"
	"sort"
	"time"

	"tempora/errs"
	"tempora/models"
)

// Holding is one position: a user's net exposure to one security.
type Holding struct {
	MarketID           int64     `json:"marketId"`
	SecurityID         int64     `json:"securityId"`
	Question           string    `json:"question"`
	Outcome            string    `json:"outcome"`
	Quantity           float64   `json:"quantity"`
	CostBasisCents     float64   `json:"costBasisCents"`
	AvgPriceCents      float64   `json:"avgPriceCents"`
	MarkPriceCents     float64   `json:"markPriceCents"`
	MarkValueCents     float64   `json:"markValueCents"`
	UnrealizedPnLCents float64   `json:"unrealizedPnLCents"`
	EndDate            time.Time `json:"endDate"`
}

// Summary aggregates across holdings. ROI is zero when there is no cost
// basis; the division never runs.
type Summary struct {
	CostBasisCents     float64 `json:"costBasisCents"`
	MarketValueCents   float64 `json:"marketValueCents"`
	UnrealizedPnLCents float64 `json:"unrealizedPnLCents"`
	ROIPercent         float64 `json:"roiPercent"`
}

// Snapshot is the full portfolio response.
type Snapshot struct {
	Holdings []Holding `json:"holdings"`
	Summary  Summary   `json:"summary"`
}

// MarketContext supplies the derived state of one market needed to mark the
// positions held in it: metadata plus a current quote per security.
type MarketContext struct {
	Market     models.Market
	Securities map[int64]models.Security
	Quotes     map[int64]models.MarketQuote
}

// Build groups trades by (market, security), nets quantities, sums cost
// basis and marks each position at the current quote. An empty trade history
// yields an empty holdings list and a zeroed summary.
func Build(trades []models.Trade, contexts map[int64]MarketContext) (Snapshot, error) {
	type key struct {
		marketID   int64
		securityID int64
	}
	type acc struct {
		quantity  float64
		costCents float64
	}

	byPosition := make(map[key]*acc)
	for _, t := range trades {
		k := key{t.MarketID, t.SecurityID}
		a, ok := byPosition[k]
		if !ok {
			a = &acc{}
			byPosition[k] = a
		}
		a.quantity += t.Quantity
		a.costCents += t.PriceCents
	}

	keys := make([]key, 0, len(byPosition))
	for k := range byPosition {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].marketID != keys[j].marketID {
			return keys[i].marketID < keys[j].marketID
		}
		return keys[i].securityID < keys[j].securityID
	})

	snap := Snapshot{Holdings: []Holding{}}
	for _, k := range keys {
		ctx, ok := contexts[k.marketID]
		if !ok {
			return Snapshot{}, fmt.Errorf("%w: market %d referenced by trades", errs.ErrNotFound, k.marketID)
		}
		security, ok := ctx.Securities[k.securityID]
		if !ok {
			return Snapshot{}, fmt.Errorf("%w: security %d referenced by trades", errs.ErrNotFound, k.securityID)
		}
		quote, ok := ctx.Quotes[k.securityID]
		if !ok {
			return Snapshot{}, fmt.Errorf("%w: no quote for security %d", errs.ErrComputation, k.securityID)
		}

		a := byPosition[k]
		markPrice := quote.ImpliedProbability * 100
		markValue := markPrice * a.quantity

		// A flat position has no meaningful average; fall back to the mark
		// so the caller never divides by zero.
		avgPrice := markPrice
		if a.quantity != 0 {
			avgPrice = a.costCents / a.quantity
		}

		snap.Holdings = append(snap.Holdings, Holding{
			MarketID:           k.marketID,
			SecurityID:         k.securityID,
			Question:           ctx.Market.Question,
			Outcome:            security.Outcome,
			Quantity:           a.quantity,
			CostBasisCents:     a.costCents,
			AvgPriceCents:      avgPrice,
			MarkPriceCents:     markPrice,
			MarkValueCents:     markValue,
			UnrealizedPnLCents: markValue - a.costCents,
			EndDate:            ctx.Market.ResolutionDate,
		})

		snap.Summary.CostBasisCents += a.costCents
		snap.Summary.MarketValueCents += markValue
	}

	snap.Summary.UnrealizedPnLCents = snap.Summary.MarketValueCents - snap.Summary.CostBasisCents
	if snap.Summary.CostBasisCents > 0 {
		snap.Summary.ROIPercent = snap.Summary.UnrealizedPnLCents / snap.Summary.CostBasisCents * 100
	}
	return snap, nil
}
