package identifier

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"tastytracker/src/model"
	"tastytracker/src/symbols"
)

// MatchResult carries the classification of one transaction group.
type MatchResult struct {
	StrategyType     string
	Confidence       decimal.Decimal
	UnderlyingSymbol string
	LegsCount        int
	Transactions     []model.Transaction
}

// optionLeg is the matcher's working view of one option transaction.
type optionLeg struct {
	strike     decimal.Decimal
	expiry     time.Time
	hasExpiry  bool
	optionType string
	quantity   decimal.Decimal
}

// MatchGroup classifies a transaction group into a strategy type with a
// confidence score. Rules are tried in a fixed order and the first match
// wins; unrecognized shapes fall back to custom with a low score, which is
// the designed outcome for ambiguity, not an error.
func MatchGroup(txns []model.Transaction) MatchResult {
	result := MatchResult{
		StrategyType: model.StrategyCustom,
		Confidence:   decimal.Zero,
		LegsCount:    len(txns),
		Transactions: txns,
	}
	if len(txns) == 0 {
		return result
	}

	result.UnderlyingSymbol = symbols.ExtractUnderlying(txns[0].Symbol)

	if len(txns) == 1 {
		result.StrategyType, result.Confidence = classifySingle(&txns[0])
		return result
	}

	var stockTxns, optionTxns []model.Transaction
	for _, txn := range txns {
		switch txn.AssetType {
		case model.AssetTypeStock:
			stockTxns = append(stockTxns, txn)
		case model.AssetTypeOption:
			optionTxns = append(optionTxns, txn)
		}
	}

	switch {
	case len(optionTxns) > 0:
		legs := parseOptionLegs(optionTxns)
		result.StrategyType, result.Confidence = matchOptionPattern(legs, stockTxns)
	case len(stockTxns) > 0:
		result.StrategyType, result.Confidence = classifyStockOnly(stockTxns)
	default:
		result.Confidence = score(60)
	}

	return result
}

// classifySingle maps a lone transaction onto a single-leg strategy.
func classifySingle(txn *model.Transaction) (string, decimal.Decimal) {
	long := txn.SignedQuantity().IsPositive()

	switch txn.AssetType {
	case model.AssetTypeStock:
		if long {
			return model.StrategyLongStock, score(95)
		}
		return model.StrategyShortStock, score(95)
	case model.AssetTypeOption:
		if long {
			if txn.OptionType == model.OptionTypeCall {
				return model.StrategyLongCall, score(95)
			}
			return model.StrategyLongPut, score(95)
		}
		if txn.OptionType == model.OptionTypeCall {
			return model.StrategyShortCall, score(95)
		}
		return model.StrategyShortPut, score(95)
	default:
		return model.StrategyCustom, decimal.Zero
	}
}

func matchOptionPattern(legs []optionLeg, stockTxns []model.Transaction) (string, decimal.Decimal) {
	switch {
	case len(legs) == 2:
		return matchTwoLeg(legs)
	case len(legs) == 4:
		return matchFourLeg(legs)
	case len(legs) == 1 && len(stockTxns) > 0:
		return matchStockOptionCombo(legs[0], stockTxns)
	}

	return model.StrategyCustom, score(60)
}

// matchTwoLeg recognizes vertical spreads, straddles and strangles. Spread
// patterns require same-expiry legs; a two-leg group with mismatched
// expiries is custom, never calendar/diagonal. A missing expiry on one leg
// counts as a mismatch.
func matchTwoLeg(legs []optionLeg) (string, decimal.Decimal) {
	leg1, leg2 := legs[0], legs[1]

	if leg1.hasExpiry != leg2.hasExpiry || (leg1.hasExpiry && !leg1.expiry.Equal(leg2.expiry)) {
		return model.StrategyCustom, score(50)
	}

	if leg1.optionType == leg2.optionType {
		// Vertical spread needs exactly one long and one short leg.
		var long, short *optionLeg
		switch {
		case leg1.quantity.IsPositive() && leg2.quantity.IsNegative():
			long, short = &leg1, &leg2
		case leg2.quantity.IsPositive() && leg1.quantity.IsNegative():
			long, short = &leg2, &leg1
		default:
			return model.StrategyCustom, score(60)
		}

		if leg1.optionType == model.OptionTypeCall {
			if long.strike.LessThan(short.strike) {
				return model.StrategyBullCallSpread, score(90)
			}
			return model.StrategyBearCallSpread, score(90)
		}
		if long.strike.GreaterThan(short.strike) {
			return model.StrategyBearPutSpread, score(90)
		}
		return model.StrategyBullPutSpread, score(90)
	}

	// One call and one put: straddle on a shared strike, strangle otherwise.
	long := leg1.quantity.IsPositive()
	if leg1.strike.Equal(leg2.strike) {
		if long {
			return model.StrategyLongStraddle, score(85)
		}
		return model.StrategyShortStraddle, score(85)
	}
	if long {
		return model.StrategyLongStrangle, score(85)
	}
	return model.StrategyShortStrangle, score(85)
}

// matchFourLeg recognizes the iron condor: two calls and two puts across
// four distinct strikes, long wings outside short body when strikes are
// sorted ascending.
func matchFourLeg(legs []optionLeg) (string, decimal.Decimal) {
	byStrike := make([]optionLeg, len(legs))
	copy(byStrike, legs)
	sort.SliceStable(byStrike, func(i, j int) bool {
		return byStrike[i].strike.LessThan(byStrike[j].strike)
	})

	calls, puts := 0, 0
	distinct := make(map[string]struct{}, 4)
	for _, leg := range byStrike {
		if leg.optionType == model.OptionTypeCall {
			calls++
		} else {
			puts++
		}
		distinct[leg.strike.String()] = struct{}{}
	}

	condorSigns := calls == 2 && puts == 2 && len(distinct) == 4 &&
		byStrike[0].quantity.IsPositive() &&
		byStrike[1].quantity.IsNegative() &&
		byStrike[2].quantity.IsNegative() &&
		byStrike[3].quantity.IsPositive()

	if condorSigns {
		return model.StrategyIronCondor, score(85)
	}
	return model.StrategyCustom, score(50)
}

// matchStockOptionCombo recognizes one-stock-plus-one-option shapes.
func matchStockOptionCombo(leg optionLeg, stockTxns []model.Transaction) (string, decimal.Decimal) {
	stockQty := decimal.Zero
	for _, txn := range stockTxns {
		stockQty = stockQty.Add(txn.SignedQuantity())
	}

	switch {
	case stockQty.IsPositive() && leg.quantity.IsNegative() && leg.optionType == model.OptionTypeCall:
		return model.StrategyCoveredCall, score(95)
	case stockQty.IsPositive() && leg.quantity.IsPositive() && leg.optionType == model.OptionTypePut:
		return model.StrategyProtectivePut, score(95)
	case leg.quantity.IsNegative() && leg.optionType == model.OptionTypePut:
		return model.StrategyCashSecuredPut, score(80)
	}

	return model.StrategyCustom, score(60)
}

// classifyStockOnly nets the stock fills and labels the direction.
func classifyStockOnly(stockTxns []model.Transaction) (string, decimal.Decimal) {
	total := decimal.Zero
	for _, txn := range stockTxns {
		total = total.Add(txn.SignedQuantity())
	}

	if total.IsPositive() {
		return model.StrategyLongStock, score(90)
	}
	return model.StrategyShortStock, score(90)
}

// parseOptionLegs projects option transactions into legs ordered by
// (expiry, strike), the order the two-leg rules are written against.
func parseOptionLegs(optionTxns []model.Transaction) []optionLeg {
	legs := make([]optionLeg, 0, len(optionTxns))

	for _, txn := range optionTxns {
		leg := optionLeg{
			optionType: txn.OptionType,
			quantity:   txn.SignedQuantity(),
		}
		if txn.Strike != nil {
			leg.strike = *txn.Strike
		}
		if txn.Expiry != nil {
			leg.expiry = *txn.Expiry
			leg.hasExpiry = true
		}
		legs = append(legs, leg)
	}

	sort.SliceStable(legs, func(i, j int) bool {
		if !legs[i].expiry.Equal(legs[j].expiry) {
			return legs[i].expiry.Before(legs[j].expiry)
		}
		return legs[i].strike.LessThan(legs[j].strike)
	})

	return legs
}

func score(n int64) decimal.Decimal {
	return decimal.NewFromInt(n)
}
