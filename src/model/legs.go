package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type legKey struct {
	symbol     string
	assetType  string
	expiry     string
	strike     string
	optionType string
}

// BuildLegs aggregates a strategy's transactions into StrategyLeg rows, one
// per distinct (symbol, asset type, expiry, strike, option type) instrument.
// Leg quantity is the signed sum of member quantities. Average price is the
// quantity-weighted mean over members carrying both price and quantity, and
// is left nil when the net quantity is zero or no member supplied both
// fields. Keys are emitted in first-appearance order so rebuilds are
// deterministic.
func BuildLegs(txns []Transaction) []StrategyLeg {
	index := make(map[legKey]int)
	legs := make([]StrategyLeg, 0, len(txns))
	totalValues := make([]decimal.Decimal, 0, len(txns))
	priced := make([]bool, 0, len(txns))

	for _, txn := range txns {
		key := legKey{
			symbol:     txn.Symbol,
			assetType:  txn.AssetType,
			optionType: txn.OptionType,
		}
		if txn.Expiry != nil {
			key.expiry = txn.Expiry.UTC().Format("2006-01-02")
		}
		if txn.Strike != nil {
			key.strike = txn.Strike.String()
		}

		pos, ok := index[key]
		if !ok {
			pos = len(legs)
			index[key] = pos
			legs = append(legs, StrategyLeg{
				Symbol:     txn.Symbol,
				AssetType:  txn.AssetType,
				OptionType: txn.OptionType,
				Strike:     copyDecimal(txn.Strike),
				Expiry:     copyTime(txn.Expiry),
			})
			totalValues = append(totalValues, decimal.Zero)
			priced = append(priced, false)
		}

		if txn.Quantity != nil {
			legs[pos].Quantity = legs[pos].Quantity.Add(*txn.Quantity)
			if txn.Price != nil {
				totalValues[pos] = totalValues[pos].Add(txn.Price.Mul(*txn.Quantity))
				priced[pos] = true
			}
		}
	}

	for i := range legs {
		if !priced[i] || legs[i].Quantity.IsZero() {
			continue
		}
		avg := totalValues[i].DivRound(legs[i].Quantity, 6)
		legs[i].AveragePrice = &avg
	}

	return legs
}

// EarliestExpiry returns the minimum non-null expiry among transactions, or
// nil when none carries one.
func EarliestExpiry(txns []Transaction) *time.Time {
	var earliest *time.Time
	for _, txn := range txns {
		if txn.Expiry == nil {
			continue
		}
		if earliest == nil || txn.Expiry.Before(*earliest) {
			earliest = copyTime(txn.Expiry)
		}
	}
	return earliest
}

// EarliestTradeDate returns the minimum non-null trade date, or nil.
func EarliestTradeDate(txns []Transaction) *time.Time {
	var earliest *time.Time
	for _, txn := range txns {
		if txn.TradeDate == nil {
			continue
		}
		if earliest == nil || txn.TradeDate.Before(*earliest) {
			earliest = copyTime(txn.TradeDate)
		}
	}
	return earliest
}

func copyDecimal(d *decimal.Decimal) *decimal.Decimal {
	if d == nil {
		return nil
	}
	v := *d
	return &v
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
