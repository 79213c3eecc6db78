package identifier

import (
	"sort"
	"time"

	logger "github.com/sirupsen/logrus"

	"tastytracker/src/model"
	"tastytracker/src/symbols"
)

// ContextKey identifies one candidate strategy group in batch mode. Legs of
// a multi-leg strategy are almost always filled against the same account and
// underlying on the same day, so that triple is the batch grouping unit.
type ContextKey struct {
	Underlying    string
	Day           string // trade day, YYYY-MM-DD
	AccountNumber string
}

// Group is an ephemeral, ordered set of transactions sharing a context key.
// Groups only live for the duration of one identification run.
type Group struct {
	Key          ContextKey
	Transactions []model.Transaction
}

// GroupByContext partitions transactions into groups keyed by
// (underlying, trade day, account). The walk is in ascending trade-date
// order and keys are emitted in first-appearance order, so the same input
// always produces the same partition. Transactions without a trade date
// cannot be keyed and are skipped.
func GroupByContext(txns []model.Transaction) []Group {
	ordered := sortByTradeDate(txns)

	index := make(map[ContextKey]int)
	groups := make([]Group, 0)

	for _, txn := range ordered {
		if txn.TradeDate == nil {
			logger.WithFields(map[string]interface{}{
				"component":      "grouper",
				"transaction_id": txn.ID,
			}).Debug("Skipping transaction without trade date")
			continue
		}

		key := ContextKey{
			Underlying:    symbols.ExtractUnderlying(txn.Symbol),
			Day:           txn.TradeDate.UTC().Format("2006-01-02"),
			AccountNumber: txn.AccountNumber,
		}

		pos, ok := index[key]
		if !ok {
			pos = len(groups)
			index[key] = pos
			groups = append(groups, Group{Key: key})
		}
		groups[pos].Transactions = append(groups[pos].Transactions, txn)
	}

	return groups
}

// GroupByTimeWindow partitions transactions into same-session groups: a
// transaction joins the current group iff it shares the group's underlying
// and trades within window of the previous member. This is a single greedy
// left-to-right pass with no backtracking, used by the display-only
// annotation path. Empty input yields an empty slice.
func GroupByTimeWindow(txns []model.Transaction, window time.Duration) [][]model.Transaction {
	ordered := make([]model.Transaction, 0, len(txns))
	for _, txn := range txns {
		if txn.TradeDate == nil {
			continue
		}
		ordered = append(ordered, txn)
	}
	ordered = sortByTradeDate(ordered)

	groups := make([][]model.Transaction, 0)
	var current []model.Transaction

	for _, txn := range ordered {
		if len(current) == 0 {
			current = []model.Transaction{txn}
			continue
		}

		last := current[len(current)-1]
		gap := txn.TradeDate.Sub(*last.TradeDate)
		if gap < 0 {
			gap = -gap
		}
		sameUnderlying := symbols.ExtractUnderlying(txn.Symbol) == symbols.ExtractUnderlying(last.Symbol)

		if sameUnderlying && gap <= window {
			current = append(current, txn)
		} else {
			groups = append(groups, current)
			current = []model.Transaction{txn}
		}
	}

	if len(current) > 0 {
		groups = append(groups, current)
	}

	return groups
}

func sortByTradeDate(txns []model.Transaction) []model.Transaction {
	ordered := make([]model.Transaction, len(txns))
	copy(ordered, txns)

	sort.SliceStable(ordered, func(i, j int) bool {
		ti, tj := ordered[i].TradeDate, ordered[j].TradeDate
		switch {
		case ti == nil:
			return tj != nil
		case tj == nil:
			return false
		default:
			return ti.Before(*tj)
		}
	})

	return ordered
}
