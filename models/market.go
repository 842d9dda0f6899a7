package models

import (
	"time"

	"gorm.io/gorm"
)

// MarketStatus is the linear market lifecycle. Transitions only move forward
// (open -> closed -> resolved, or open -> suspended) unless an admin override
// is supplied on the update request.
type MarketStatus string

const (
	MarketOpen      MarketStatus = "open"
	MarketClosed    MarketStatus = "closed"
	MarketResolved  MarketStatus = "resolved"
	MarketSuspended MarketStatus = "suspended"
)

// PricingModel selects the market maker variant at creation time. It is never
// changed afterwards and never inferred from the shape of the data.
type PricingModel string

const (
	// PricingModelLMSR is the canonical cost-function market maker. Works for
	// any number of outcomes >= 2; liquidityParameter == 0 means the
	// liquidity-sensitive variant (b scales with traded volume).
	PricingModelLMSR PricingModel = "lmsr"

	// PricingModelBlend is the legacy two-outcome blended-probability model:
	// a weighted mix of a baseline prior and order-flow momentum, clamped to
	// a configured floor/ceiling.
	PricingModelBlend PricingModel = "blend"
)

type Market struct {
	gorm.Model
	ID                  int64        `json:"id" gorm:"primary_key"`
	Question            string       `json:"question" gorm:"not null"`
	Description         string       `json:"description"`
	Category            string       `json:"category" gorm:"default:general;index"`
	Tags                string       `json:"tags"` // comma-separated
	Status              MarketStatus `json:"status" gorm:"default:open;index"`
	PricingModel        PricingModel `json:"pricingModel" gorm:"default:lmsr"`
	LiquidityParameter  float64      `json:"liquidityParameter"` // 0 = liquidity-sensitive
	BaselineProbability float64      `json:"baselineProbability"`
	Boost               float64      `json:"boost"`
	ResolutionDate      time.Time    `json:"resolutionDate" gorm:"not null"`
	ResolvedOutcome     string       `json:"resolvedOutcome,omitempty"`
	CreatorID           string       `json:"creatorId" gorm:"index"`

	Securities      []Security       `json:"securities,omitempty" gorm:"foreignKey:MarketID"`
	SettlementDates []SettlementDate `json:"settlementDates,omitempty" gorm:"foreignKey:MarketID"`
}

// Security is one tradable outcome of a market. Created together with the
// market, immutable afterwards.
type Security struct {
	gorm.Model
	ID       int64  `json:"id" gorm:"primary_key"`
	MarketID int64  `json:"marketId" gorm:"not null;index"`
	Outcome  string `json:"outcome" gorm:"not null"`
}

// SettlementDate is a named checkpoint in a market's life, generated at
// creation (midpoint review plus final settlement).
type SettlementDate struct {
	gorm.Model
	ID       int64     `json:"id" gorm:"primary_key"`
	MarketID int64     `json:"marketId" gorm:"not null;index"`
	Label    string    `json:"label" gorm:"not null"`
	Date     time.Time `json:"date" gorm:"not null"`
}

// MarketQuote is derived pricing state, recomputed from the trade ledger on
// every read and never persisted.
type MarketQuote struct {
	SecurityID         int64     `json:"securityId"`
	Outcome            string    `json:"outcome"`
	Quantity           float64   `json:"quantity"`
	BuyUnitPriceCents  float64   `json:"buyUnitPriceCents"`
	SellUnitPriceCents float64   `json:"sellUnitPriceCents"`
	ImpliedProbability float64   `json:"impliedProbability"`
	LastCalculatedAt   time.Time `json:"lastCalculatedAt"`
}

// MarketOverview is the wire shape for a market with its derived state
// attached.
type MarketOverview struct {
	Market          Market        `json:"market"`
	DescriptionHTML string        `json:"descriptionHtml,omitempty"`
	Quotes          []MarketQuote `json:"quotes"`
	TotalVolume     float64       `json:"totalVolume"`
	OpenInterest    float64       `json:"openInterest"`
}

// MarketCreateRequest is the request body for creating a market.
type MarketCreateRequest struct {
	Question            string    `json:"question" validate:"required,min=1,max=160"`
	Description         string    `json:"description" validate:"max=2000"`
	Category            string    `json:"category" validate:"max=50"`
	Tags                []string  `json:"tags" validate:"max=10,dive,max=30"`
	Outcomes            []string  `json:"outcomes" validate:"required,min=2,dive,required,max=20"`
	ResolutionDate      time.Time `json:"resolutionDate" validate:"required"`
	PricingModel        string    `json:"pricingModel" validate:"omitempty,oneof=lmsr blend"`
	LiquidityParameter  float64   `json:"liquidityParameter" validate:"gte=0"`
	BaselineProbability float64   `json:"baselineProbability" validate:"gte=0,lte=1"`
	Boost               float64   `json:"boost" validate:"gte=0,lte=1"`
}

// MarketUpdateRequest is the PATCH body. Nil fields are left untouched.
// Status moves only forward through the lifecycle unless AdminOverride is set.
type MarketUpdateRequest struct {
	Question       *string    `json:"question,omitempty" validate:"omitempty,min=1,max=160"`
	Description    *string    `json:"description,omitempty" validate:"omitempty,max=2000"`
	Category       *string    `json:"category,omitempty" validate:"omitempty,max=50"`
	Tags           []string   `json:"tags,omitempty" validate:"omitempty,max=10,dive,max=30"`
	ResolutionDate *time.Time `json:"resolutionDate,omitempty"`
	Status         *string    `json:"status,omitempty" validate:"omitempty,oneof=open closed resolved suspended"`
	AdminOverride  bool       `json:"adminOverride,omitempty"`
}

// MarketListResponse wraps a filtered market listing.
type MarketListResponse struct {
	Items []MarketOverview `json:"items"`
	Count int              `json:"count"`
}

// statusRank orders the lifecycle for forward-only transition checks.
var statusRank = map[MarketStatus]int{
	MarketOpen:      0,
	MarketSuspended: 1,
	MarketClosed:    2,
	MarketResolved:  3,
}

// CanTransition reports whether moving from the market's current status to
// next respects the linear lifecycle. Resolved is terminal.
func (m *Market) CanTransition(next MarketStatus) bool {
	if m.Status == MarketResolved {
		return false
	}
	cur, ok := statusRank[m.Status]
	if !ok {
		return false
	}
	nxt, ok := statusRank[next]
	if !ok {
		return false
	}
	return nxt >= cur
}
