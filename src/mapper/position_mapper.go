package mapper

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"tastytracker/src/connectors"
	"tastytracker/src/model"
	"tastytracker/src/pricing"
	"tastytracker/src/symbols"
)

// Position is one open broker position with the option contract decomposed
// from its symbol and, for options, model greeks attached.
type Position struct {
	AccountNumber    string           `json:"account_number"`
	Symbol           string           `json:"symbol"`
	UnderlyingSymbol string           `json:"underlying_symbol"`
	InstrumentType   string           `json:"instrument_type"`
	Quantity         decimal.Decimal  `json:"quantity"`
	AverageOpenPrice *decimal.Decimal `json:"average_open_price,omitempty"`
	ClosePrice       *decimal.Decimal `json:"close_price,omitempty"`
	Strike           *decimal.Decimal `json:"strike,omitempty"`
	Expiry           *time.Time       `json:"expiry,omitempty"`
	OptionType       string           `json:"option_type,omitempty"`
	Greeks           *pricing.Greeks  `json:"greeks,omitempty"`
}

// MapPositionItem normalizes one broker position. The positions endpoint
// carries no strike or put/call fields, so option contract details come from
// the symbol. Greeks are attached when enough of the contract is known;
// anything else leaves them nil rather than failing the row.
func MapPositionItem(item connectors.PositionItem, accountNumber string, now time.Time) Position {
	pos := Position{
		AccountNumber:    accountNumber,
		Symbol:           item.Symbol,
		UnderlyingSymbol: symbols.ExtractUnderlying(item.Symbol),
		InstrumentType:   item.InstrumentType,
		AverageOpenPrice: parseDecimalSafe("average-open-price", item.AverageOpenPrice),
		ClosePrice:       parseDecimalSafe("close-price", item.ClosePrice),
	}

	if qty := parseDecimalSafe("quantity", item.Quantity); qty != nil {
		pos.Quantity = *qty
		if strings.EqualFold(item.QuantityDirecton, "Short") {
			pos.Quantity = pos.Quantity.Neg()
		}
	}

	if normalizeAssetType(item.InstrumentType) != model.AssetTypeOption {
		return pos
	}

	parsed, ok := symbols.ParseOptionSymbol(item.Symbol)
	if !ok {
		return pos
	}

	strike := parsed.Strike
	expiry := parsed.Expiry
	pos.Strike = &strike
	pos.Expiry = &expiry
	pos.OptionType = parsed.OptionType
	pos.UnderlyingSymbol = parsed.Underlying

	pos.Greeks = positionGreeks(&pos, now)
	return pos
}

func positionGreeks(pos *Position, now time.Time) *pricing.Greeks {
	if pos.Strike == nil || pos.Expiry == nil || pos.OptionType == "" {
		return nil
	}

	premium := 0.0
	if pos.ClosePrice != nil {
		premium, _ = pos.ClosePrice.Float64()
	} else if pos.AverageOpenPrice != nil {
		premium, _ = pos.AverageOpenPrice.Float64()
	}

	strike, _ := pos.Strike.Float64()
	if strike <= 0 {
		return nil
	}

	tte := pricing.YearsToExpiry(*pos.Expiry, now)
	spot := pricing.EstimateUnderlying(premium, strike, pos.OptionType, tte)
	vol := pricing.EstimateVolatility(pos.Symbol)

	greeks := pricing.BlackScholes(spot, strike, tte, pricing.DefaultRiskFreeRate, vol, pos.OptionType)
	return &greeks
}
