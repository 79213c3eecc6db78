package model

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func legTxn(symbol string, qty, price float64) Transaction {
	q := decimal.NewFromFloat(qty)
	p := decimal.NewFromFloat(price)
	traded := time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)
	return Transaction{
		Symbol:    symbol,
		AssetType: AssetTypeStock,
		Quantity:  &q,
		Price:     &p,
		TradeDate: &traded,
	}
}

func TestBuildLegsWeightedAverage(t *testing.T) {
	legs := BuildLegs([]Transaction{
		legTxn("XYZ", 5, 2.00),
		legTxn("XYZ", -2, 3.00),
	})

	if len(legs) != 1 {
		t.Fatalf("expected 1 leg, got %d", len(legs))
	}

	leg := legs[0]
	if !leg.Quantity.Equal(decimal.NewFromInt(3)) {
		t.Fatalf("quantity = %s, want 3", leg.Quantity)
	}
	if leg.AveragePrice == nil {
		t.Fatal("expected average price to be set")
	}

	// (5*2.00 + (-2)*3.00) / 3 = 4/3
	want := decimal.NewFromInt(4).DivRound(decimal.NewFromInt(3), 6)
	if !leg.AveragePrice.Equal(want) {
		t.Fatalf("average price = %s, want %s", leg.AveragePrice, want)
	}
}

func TestBuildLegsZeroNetQuantityHasNoAverage(t *testing.T) {
	legs := BuildLegs([]Transaction{
		legTxn("XYZ", 5, 2.00),
		legTxn("XYZ", -5, 3.00),
	})

	if len(legs) != 1 {
		t.Fatalf("expected 1 leg, got %d", len(legs))
	}
	if !legs[0].Quantity.IsZero() {
		t.Fatalf("quantity = %s, want 0", legs[0].Quantity)
	}
	if legs[0].AveragePrice != nil {
		t.Fatalf("expected nil average price, got %s", legs[0].AveragePrice)
	}
}

func TestBuildLegsIgnoresUnpricedRowsInAverage(t *testing.T) {
	priced := legTxn("XYZ", 4, 2.50)
	unpriced := legTxn("XYZ", 2, 0)
	unpriced.Price = nil

	legs := BuildLegs([]Transaction{priced, unpriced})
	if len(legs) != 1 {
		t.Fatalf("expected 1 leg, got %d", len(legs))
	}

	// Quantity still nets both rows.
	if !legs[0].Quantity.Equal(decimal.NewFromInt(6)) {
		t.Fatalf("quantity = %s, want 6", legs[0].Quantity)
	}

	// Average is value of priced rows over the net quantity.
	want := decimal.NewFromInt(10).DivRound(decimal.NewFromInt(6), 6)
	if legs[0].AveragePrice == nil || !legs[0].AveragePrice.Equal(want) {
		t.Fatalf("average price = %v, want %s", legs[0].AveragePrice, want)
	}
}

func TestBuildLegsSplitsDistinctInstruments(t *testing.T) {
	expiryNear := time.Date(2024, 4, 19, 0, 0, 0, 0, time.UTC)
	expiryFar := time.Date(2024, 5, 17, 0, 0, 0, 0, time.UTC)
	strike := decimal.NewFromInt(500)
	qty := decimal.NewFromInt(1)

	near := Transaction{
		Symbol:     "SPY240419C00500000",
		AssetType:  AssetTypeOption,
		OptionType: OptionTypeCall,
		Strike:     &strike,
		Expiry:     &expiryNear,
		Quantity:   &qty,
	}
	far := near
	far.Symbol = "SPY240517C00500000"
	far.Expiry = &expiryFar

	legs := BuildLegs([]Transaction{near, far})
	if len(legs) != 2 {
		t.Fatalf("expected 2 legs for distinct expiries, got %d", len(legs))
	}
}

func TestBuildLegsNoPricedRows(t *testing.T) {
	txn := legTxn("XYZ", 5, 0)
	txn.Price = nil

	legs := BuildLegs([]Transaction{txn})
	if len(legs) != 1 {
		t.Fatalf("expected 1 leg, got %d", len(legs))
	}
	if legs[0].AveragePrice != nil {
		t.Fatal("expected nil average price when no row carries a price")
	}
}

func TestEarliestHelpers(t *testing.T) {
	early := time.Date(2024, 3, 14, 9, 30, 0, 0, time.UTC)
	late := time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)
	expiry := time.Date(2024, 4, 19, 0, 0, 0, 0, time.UTC)

	txns := []Transaction{
		{TradeDate: &late, Expiry: &expiry},
		{TradeDate: &early},
	}

	if got := EarliestTradeDate(txns); got == nil || !got.Equal(early) {
		t.Fatalf("earliest trade date = %v, want %v", got, early)
	}
	if got := EarliestExpiry(txns); got == nil || !got.Equal(expiry) {
		t.Fatalf("earliest expiry = %v, want %v", got, expiry)
	}
	if got := EarliestExpiry(nil); got != nil {
		t.Fatalf("expected nil expiry for empty input, got %v", got)
	}
}
