package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Asset types as reported by the broker sync.
const (
	AssetTypeStock  = "stock"
	AssetTypeOption = "option"
	AssetTypeOther  = "other"
)

// Option types. Empty string means the instrument is not an option.
const (
	OptionTypeCall = "call"
	OptionTypePut  = "put"
)

// Transaction is one normalized brokerage ledger entry. Quantity is signed:
// positive is a buy/long fill, negative a sell/short fill. Quantity, price,
// strike and expiry are frequently absent on non-trade rows (fees, money
// movement), so they stay nullable rather than zero-valued.
type Transaction struct {
	ID              uint             `gorm:"primaryKey" json:"id"`
	UserID          uint             `gorm:"not null;index" json:"user_id"`
	CredentialID    *uint            `gorm:"index" json:"credential_id,omitempty"`
	AccountNumber   string           `gorm:"size:32;not null;index" json:"account_number"`
	ExternalID      string           `gorm:"size:64;index:idx_txn_external,unique" json:"external_id"`
	TransactionType string           `gorm:"size:50" json:"transaction_type"`
	Symbol          string           `gorm:"size:64;index" json:"symbol"`
	Description     string           `gorm:"size:512" json:"description"`
	AssetType       string           `gorm:"size:16;not null;default:other" json:"asset_type"`
	Quantity        *decimal.Decimal `gorm:"type:numeric(18,4)" json:"quantity,omitempty"`
	Price           *decimal.Decimal `gorm:"type:numeric(18,6)" json:"price,omitempty"`
	Amount          *decimal.Decimal `gorm:"type:numeric(18,4)" json:"amount,omitempty"`
	Strike          *decimal.Decimal `gorm:"type:numeric(18,4)" json:"strike,omitempty"`
	Expiry          *time.Time       `json:"expiry,omitempty"`
	OptionType      string           `gorm:"size:8" json:"option_type,omitempty"`
	TradeDate       *time.Time       `gorm:"index" json:"trade_date,omitempty"`
	StrategyID      *uint            `gorm:"index" json:"strategy_id,omitempty"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`

	Strategy *TradingStrategy `gorm:"foreignKey:StrategyID" json:"-"`
}

// IsOption reports whether the row is an option fill with a usable option type.
func (t *Transaction) IsOption() bool {
	return t.AssetType == AssetTypeOption
}

// SignedQuantity returns the quantity or zero when the field is absent.
func (t *Transaction) SignedQuantity() decimal.Decimal {
	if t.Quantity == nil {
		return decimal.Zero
	}
	return *t.Quantity
}
