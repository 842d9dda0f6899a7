// Package marketmath reduces the raw trade ledger of one market into the
// aggregate state the pricing functions consume.
package marketmath

import (
	"math"

	"tempora/models"
)

// Depth is the reduced state of one market. Quantities is dense: every
// security of the market is present, zero when untraded. Omitting an
// untraded security would silently change the softmax denominator.
type Depth struct {
	// SecurityIDs in creation order; the quantity vector follows this order.
	SecurityIDs []int64
	Quantities  map[int64]float64
	// TotalVolume is the sum of absolute traded price across all trades, an
	// activity metric distinct from open interest.
	TotalVolume float64
	// OpenInterest is the sum of absolute quantities outstanding.
	OpenInterest float64
}

// Aggregate folds a market's trades into per-security net signed quantities
// plus volume and open interest. Trades referencing securities outside the
// given set are ignored; they belong to a different market.
func Aggregate(securities []models.Security, trades []models.Trade) Depth {
	d := Depth{
		SecurityIDs: make([]int64, 0, len(securities)),
		Quantities:  make(map[int64]float64, len(securities)),
	}
	for _, s := range securities {
		d.SecurityIDs = append(d.SecurityIDs, s.ID)
		d.Quantities[s.ID] = 0
	}

	for _, t := range trades {
		if _, ok := d.Quantities[t.SecurityID]; !ok {
			continue
		}
		d.Quantities[t.SecurityID] += t.Quantity
		d.TotalVolume += math.Abs(t.PriceCents)
		d.OpenInterest += math.Abs(t.Quantity)
	}
	return d
}

// Vector returns the quantity vector in security creation order, the shape
// the cost function takes.
func (d Depth) Vector() []float64 {
	vec := make([]float64, len(d.SecurityIDs))
	for i, id := range d.SecurityIDs {
		vec[i] = d.Quantities[id]
	}
	return vec
}

// IndexOf returns the position of a security in the quantity vector, or -1.
func (d Depth) IndexOf(securityID int64) int {
	for i, id := range d.SecurityIDs {
		if id == securityID {
			return i
		}
	}
	return -1
}
