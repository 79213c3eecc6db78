package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Recognized strategy types. The identifier only ever assigns one of these.
const (
	StrategyLongStock      = "long_stock"
	StrategyShortStock     = "short_stock"
	StrategyLongCall       = "long_call"
	StrategyLongPut        = "long_put"
	StrategyShortCall      = "short_call"
	StrategyShortPut       = "short_put"
	StrategyBullCallSpread = "bull_call_spread"
	StrategyBearCallSpread = "bear_call_spread"
	StrategyBullPutSpread  = "bull_put_spread"
	StrategyBearPutSpread  = "bear_put_spread"
	StrategyLongStraddle   = "long_straddle"
	StrategyShortStraddle  = "short_straddle"
	StrategyLongStrangle   = "long_strangle"
	StrategyShortStrangle  = "short_strangle"
	StrategyIronCondor     = "iron_condor"
	StrategyCoveredCall    = "covered_call"
	StrategyProtectivePut  = "protective_put"
	StrategyCashSecuredPut = "cash_secured_put"
	StrategyCustom         = "custom"
)

// Strategy lifecycle states.
const (
	StatusOpen            = "open"
	StatusPartiallyClosed = "partially_closed"
	StatusClosed          = "closed"
	StatusExpired         = "expired"
	StatusAssigned        = "assigned"
)

// TradingStrategy is a recognized multi-leg (or single-leg) position built
// from one identification group. OpenedDate is the minimum trade date among
// member transactions; ExpiryDate the minimum non-null leg expiry.
type TradingStrategy struct {
	ID               uint             `gorm:"primaryKey" json:"id"`
	UserID           uint             `gorm:"not null;index" json:"user_id"`
	CredentialID     *uint            `gorm:"index" json:"credential_id,omitempty"`
	AccountNumber    string           `gorm:"size:32;not null;index" json:"account_number"`
	StrategyType     string           `gorm:"size:32;not null" json:"strategy_type"`
	UnderlyingSymbol string           `gorm:"size:32;not null;index" json:"underlying_symbol"`
	Status           string           `gorm:"size:20;not null;default:open" json:"status"`
	IsSystemInferred bool             `gorm:"not null;default:false" json:"is_system_inferred"`
	ConfidenceScore  decimal.Decimal  `gorm:"type:numeric(5,2)" json:"confidence_score"`
	OpenedDate       time.Time        `gorm:"not null" json:"opened_date"`
	ClosedDate       *time.Time       `json:"closed_date,omitempty"`
	ExpiryDate       *time.Time       `json:"expiry_date,omitempty"`
	MaxProfit        *decimal.Decimal `gorm:"type:numeric(18,4)" json:"max_profit,omitempty"`
	MaxLoss          *decimal.Decimal `gorm:"type:numeric(18,4)" json:"max_loss,omitempty"`
	BreakevenPoints  map[string]any   `gorm:"type:jsonb;serializer:json" json:"breakeven_points,omitempty"`
	Notes            string           `gorm:"size:1024" json:"notes"`
	Tags             string           `gorm:"size:255" json:"tags"`
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`

	Legs         []StrategyLeg `gorm:"foreignKey:StrategyID;constraint:OnDelete:CASCADE" json:"legs,omitempty"`
	Transactions []Transaction `gorm:"foreignKey:StrategyID" json:"transactions,omitempty"`
	User         *User         `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

// StrategyLeg is the net position in one distinct instrument inside a
// strategy. It is a materialized view over the member transactions and is
// rebuilt whenever the transaction set changes, never edited directly.
type StrategyLeg struct {
	ID           uint             `gorm:"primaryKey" json:"id"`
	StrategyID   uint             `gorm:"not null;index" json:"strategy_id"`
	Symbol       string           `gorm:"size:64;not null" json:"symbol"`
	AssetType    string           `gorm:"size:16;not null" json:"asset_type"`
	Quantity     decimal.Decimal  `gorm:"type:numeric(18,4)" json:"quantity"`
	Expiry       *time.Time       `json:"expiry,omitempty"`
	Strike       *decimal.Decimal `gorm:"type:numeric(18,4)" json:"strike,omitempty"`
	OptionType   string           `gorm:"size:8" json:"option_type,omitempty"`
	AveragePrice *decimal.Decimal `gorm:"type:numeric(18,6)" json:"average_price,omitempty"`
	CreatedAt    time.Time        `json:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at"`

	Strategy *TradingStrategy `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}
