package models

import (
	"time"

	"gorm.io/gorm"
)

// Trade is one row of the append-only ledger. Trades are never edited or
// deleted; depth, quotes and positions are all recomputed from these rows.
type Trade struct {
	gorm.Model
	ID         int64   `json:"id" gorm:"primary_key"`
	UserID     string  `json:"userId" gorm:"not null;index"`
	MarketID   int64   `json:"marketId" gorm:"not null;index"`
	SecurityID int64   `json:"securityId" gorm:"not null;index"`
	Quantity   float64 `json:"quantity" gorm:"not null"` // signed shares, + buy / - sell
	PriceCents float64 `json:"priceCents"`               // cost of the entire trade, signed
	Stake      float64 `json:"stake"`                    // currency paid, always >= 0
	// IdempotencyKey dedupes retries after a timeout. The server assigns one
	// when the client does not, so the unique index always holds.
	IdempotencyKey string    `json:"idempotencyKey" gorm:"uniqueIndex;size:36"`
	PlacedAt       time.Time `json:"placedAt" gorm:"not null;index"`
}

// TradeCreateRequest is the request body for booking (or dry-run pricing) a
// trade. Cost-function markets size trades in shares via Quantity; blend
// markets size them in currency via Stake.
type TradeCreateRequest struct {
	SecurityID      int64    `json:"securityId" validate:"required,gt=0"`
	Quantity        float64  `json:"quantity"`
	Stake           float64  `json:"stake"`
	LimitPriceCents *float64 `json:"limitPriceCents,omitempty" validate:"omitempty,gte=1,lte=99"`
	IdempotencyKey  string   `json:"idempotencyKey,omitempty" validate:"omitempty,uuid4"`
}

// TradeResponse is returned after booking a trade, with the market state the
// trade left behind.
type TradeResponse struct {
	Trade  Trade         `json:"trade"`
	Quotes []MarketQuote `json:"quotes"`
}

// TradeListResponse wraps a trade listing.
type TradeListResponse struct {
	Items []Trade `json:"items"`
	Count int     `json:"count"`
}

// TradePriceResponse is the dry-run pricing result: what the trade would cost
// right now, without writing a ledger row.
type TradePriceResponse struct {
	SecurityID int64     `json:"securityId"`
	Quantity   float64   `json:"quantity"`
	PriceCents float64   `json:"priceCents"`
	Stake      float64   `json:"stake"`
	PricedAt   time.Time `json:"pricedAt"`
}
