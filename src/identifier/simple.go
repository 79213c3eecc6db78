package identifier

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	logger "github.com/sirupsen/logrus"

	"tastytracker/src/model"
	"tastytracker/src/symbols"
)

// Display labels used by the read-only annotation path. This path keeps its
// own, looser scale and coarser labels on purpose: it annotates views, it
// never persists, and its numbers are not comparable with the batch
// identifier's canonical scale.
const (
	DisplayUnknown = "Unknown"
	DisplayError   = "Error"
)

// StrategyInfo is the strategy context attached to a displayed transaction.
type StrategyInfo struct {
	StrategyType     string          `json:"strategy_type"`
	UnderlyingSymbol string          `json:"underlying_symbol"`
	Confidence       decimal.Decimal `json:"confidence"`
	Description      string          `json:"description"`
	LegsCount        int             `json:"legs_count"`
}

// AnnotatedTransaction pairs a transaction with its inferred strategy info.
type AnnotatedTransaction struct {
	Transaction model.Transaction `json:"transaction"`
	Info        StrategyInfo      `json:"strategy_info"`
}

// AnnotateTransactions attaches strategy context to transactions for
// read-only display. It groups by underlying within a short session window
// and labels the resulting shapes. It never mutates persisted state and
// never fails: rows that cannot be grouped are annotated Unknown, and any
// internal failure degrades every row to an Error sentinel.
func AnnotateTransactions(txns []model.Transaction, window time.Duration) []AnnotatedTransaction {
	annotated, err := annotate(txns, window)
	if err != nil {
		logger.WithField("component", "simple_identifier").
			WithError(err).
			Error("Annotation degraded to error sentinels")

		fallback := make([]AnnotatedTransaction, 0, len(txns))
		for _, txn := range txns {
			fallback = append(fallback, AnnotatedTransaction{
				Transaction: txn,
				Info: StrategyInfo{
					StrategyType:     DisplayError,
					UnderlyingSymbol: fallbackUnderlying(txn),
					Confidence:       decimal.Zero,
					LegsCount:        1,
				},
			})
		}
		return fallback
	}

	return annotated
}

func annotate(txns []model.Transaction, window time.Duration) (result []AnnotatedTransaction, err error) {
	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = fmt.Errorf("annotation panic: %v", r)
		}
	}()

	infoByID := make(map[uint]StrategyInfo)
	for _, group := range GroupByTimeWindow(txns, window) {
		info := describeGroup(group)
		for _, txn := range group {
			infoByID[txn.ID] = info
		}
	}

	result = make([]AnnotatedTransaction, 0, len(txns))
	for _, txn := range txns {
		info, ok := infoByID[txn.ID]
		if !ok {
			// Missing trade date, or otherwise ungroupable.
			info = StrategyInfo{
				StrategyType:     DisplayUnknown,
				UnderlyingSymbol: fallbackUnderlying(txn),
				Confidence:       decimal.Zero,
				LegsCount:        1,
			}
		}
		result = append(result, AnnotatedTransaction{Transaction: txn, Info: info})
	}

	return result, nil
}

func describeGroup(group []model.Transaction) StrategyInfo {
	underlying := symbols.ExtractUnderlying(group[0].Symbol)

	var label string
	var confidence decimal.Decimal
	if len(group) == 1 {
		label, confidence = describeSingle(&group[0])
	} else {
		label, confidence = describeMulti(group)
	}

	return StrategyInfo{
		StrategyType:     label,
		UnderlyingSymbol: underlying,
		Confidence:       confidence,
		Description:      fmt.Sprintf("%s on %s", label, underlying),
		LegsCount:        len(group),
	}
}

// describeSingle labels a lone transaction. Zero or missing quantity means
// the direction is indeterminate, which earns a generic label and a low
// score.
func describeSingle(txn *model.Transaction) (string, decimal.Decimal) {
	qty := txn.SignedQuantity()

	if qty.IsZero() {
		if txn.OptionType == model.OptionTypeCall {
			return "Call Option", score(50)
		}
		if txn.OptionType == model.OptionTypePut {
			return "Put Option", score(50)
		}
		return "Stock Transaction", score(50)
	}

	long := qty.IsPositive()
	switch txn.OptionType {
	case model.OptionTypeCall:
		if long {
			return "Long Call", score(85)
		}
		return "Short Call", score(85)
	case model.OptionTypePut:
		if long {
			return "Long Put", score(85)
		}
		return "Short Put", score(85)
	default:
		if long {
			return "Long Stock", score(85)
		}
		return "Short Stock", score(85)
	}
}

func describeMulti(group []model.Transaction) (string, decimal.Decimal) {
	var callLegs, putLegs, stockLegs []model.Transaction
	for _, txn := range group {
		switch txn.OptionType {
		case model.OptionTypeCall:
			callLegs = append(callLegs, txn)
		case model.OptionTypePut:
			putLegs = append(putLegs, txn)
		default:
			stockLegs = append(stockLegs, txn)
		}
	}

	if len(group) == 2 {
		switch {
		case len(callLegs) == 2:
			return "Call Spread", score(85)
		case len(putLegs) == 2:
			return "Put Spread", score(85)
		case len(callLegs) == 1 && len(putLegs) == 1:
			return describeCallPutPair(callLegs[0], putLegs[0])
		case len(stockLegs) == 1 && len(callLegs) == 1:
			return "Covered Call", score(95)
		case len(stockLegs) == 1 && len(putLegs) == 1:
			if putLegs[0].SignedQuantity().IsNegative() {
				return "Cash-Secured Put", score(90)
			}
			return "Protective Put", score(90)
		}
	}

	if len(group) == 4 && len(callLegs) == 2 && len(putLegs) == 2 {
		return "Iron Condor", score(85)
	}

	return "Custom Strategy", score(60)
}

func describeCallPutPair(call, put model.Transaction) (string, decimal.Decimal) {
	if call.Strike == nil || put.Strike == nil {
		return "Call/Put Combination", score(90)
	}
	if call.Strike.Equal(*put.Strike) {
		return "Straddle", score(90)
	}
	return "Strangle", score(90)
}

func fallbackUnderlying(txn model.Transaction) string {
	if txn.Symbol == "" {
		return DisplayUnknown
	}
	return symbols.ExtractUnderlying(txn.Symbol)
}
