package identifier

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"tastytracker/src/model"
)

func dec(v float64) *decimal.Decimal {
	d := decimal.NewFromFloat(v)
	return &d
}

func ts(hour, minute, second int) *time.Time {
	t := time.Date(2024, 3, 15, hour, minute, second, 0, time.UTC)
	return &t
}

func day(year int, month time.Month, d int) *time.Time {
	t := time.Date(year, month, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func optionTxn(id uint, symbol, optType string, qty, strike float64, expiry *time.Time) model.Transaction {
	return model.Transaction{
		ID:            id,
		UserID:        1,
		AccountNumber: "5WX01234",
		Symbol:        symbol,
		AssetType:     model.AssetTypeOption,
		OptionType:    optType,
		Quantity:      dec(qty),
		Strike:        dec(strike),
		Expiry:        expiry,
		TradeDate:     ts(10, 0, 0),
	}
}

func stockTxn(id uint, symbol string, qty float64) model.Transaction {
	return model.Transaction{
		ID:            id,
		UserID:        1,
		AccountNumber: "5WX01234",
		Symbol:        symbol,
		AssetType:     model.AssetTypeStock,
		Quantity:      dec(qty),
		TradeDate:     ts(10, 0, 0),
	}
}

func assertMatch(t *testing.T, txns []model.Transaction, wantType string, wantConfidence int64) {
	t.Helper()

	result := MatchGroup(txns)
	if result.StrategyType != wantType {
		t.Fatalf("strategy type = %q, want %q", result.StrategyType, wantType)
	}
	if !result.Confidence.Equal(decimal.NewFromInt(wantConfidence)) {
		t.Fatalf("confidence = %s, want %d", result.Confidence, wantConfidence)
	}
}

func TestMatchSingleLeg(t *testing.T) {
	expiry := day(2024, 4, 19)

	cases := []struct {
		name string
		txn  model.Transaction
		want string
	}{
		{"long stock", stockTxn(1, "AAPL", 100), model.StrategyLongStock},
		{"short stock", stockTxn(1, "AAPL", -100), model.StrategyShortStock},
		{"long call", optionTxn(1, "AAPL240419C00150000", model.OptionTypeCall, 1, 150, expiry), model.StrategyLongCall},
		{"long put", optionTxn(1, "AAPL240419P00150000", model.OptionTypePut, 1, 150, expiry), model.StrategyLongPut},
		{"short call", optionTxn(1, "AAPL240419C00150000", model.OptionTypeCall, -1, 150, expiry), model.StrategyShortCall},
		{"short put", optionTxn(1, "AAPL240419P00150000", model.OptionTypePut, -1, 150, expiry), model.StrategyShortPut},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assertMatch(t, []model.Transaction{tc.txn}, tc.want, 95)
		})
	}
}

func TestMatchVerticalSpreads(t *testing.T) {
	expiry := day(2024, 4, 19)

	t.Run("bull call spread", func(t *testing.T) {
		assertMatch(t, []model.Transaction{
			optionTxn(1, "SPY240419C00500000", model.OptionTypeCall, 1, 500, expiry),
			optionTxn(2, "SPY240419C00510000", model.OptionTypeCall, -1, 510, expiry),
		}, model.StrategyBullCallSpread, 90)
	})

	t.Run("bear call spread", func(t *testing.T) {
		assertMatch(t, []model.Transaction{
			optionTxn(1, "SPY240419C00500000", model.OptionTypeCall, -1, 500, expiry),
			optionTxn(2, "SPY240419C00510000", model.OptionTypeCall, 1, 510, expiry),
		}, model.StrategyBearCallSpread, 90)
	})

	t.Run("bear put spread", func(t *testing.T) {
		assertMatch(t, []model.Transaction{
			optionTxn(1, "SPY240419P00490000", model.OptionTypePut, -1, 490, expiry),
			optionTxn(2, "SPY240419P00500000", model.OptionTypePut, 1, 500, expiry),
		}, model.StrategyBearPutSpread, 90)
	})

	t.Run("bull put spread", func(t *testing.T) {
		assertMatch(t, []model.Transaction{
			optionTxn(1, "SPY240419P00490000", model.OptionTypePut, 1, 490, expiry),
			optionTxn(2, "SPY240419P00500000", model.OptionTypePut, -1, 500, expiry),
		}, model.StrategyBullPutSpread, 90)
	})

	t.Run("both legs long is not a spread", func(t *testing.T) {
		assertMatch(t, []model.Transaction{
			optionTxn(1, "SPY240419C00500000", model.OptionTypeCall, 1, 500, expiry),
			optionTxn(2, "SPY240419C00510000", model.OptionTypeCall, 1, 510, expiry),
		}, model.StrategyCustom, 60)
	})
}

func TestMatchMismatchedExpiryScoresBelowSpread(t *testing.T) {
	near := day(2024, 4, 19)
	far := day(2024, 5, 17)

	result := MatchGroup([]model.Transaction{
		optionTxn(1, "SPY240419C00500000", model.OptionTypeCall, 1, 500, near),
		optionTxn(2, "SPY240517C00510000", model.OptionTypeCall, -1, 510, far),
	})

	if result.StrategyType != model.StrategyCustom {
		t.Fatalf("strategy type = %q, want custom", result.StrategyType)
	}
	if !result.Confidence.Equal(decimal.NewFromInt(50)) {
		t.Fatalf("confidence = %s, want 50", result.Confidence)
	}

	spread := MatchGroup([]model.Transaction{
		optionTxn(1, "SPY240419C00500000", model.OptionTypeCall, 1, 500, near),
		optionTxn(2, "SPY240419C00510000", model.OptionTypeCall, -1, 510, near),
	})
	if !spread.Confidence.GreaterThanOrEqual(result.Confidence) {
		t.Fatalf("same-expiry spread (%s) must score at least mismatched group (%s)",
			spread.Confidence, result.Confidence)
	}
}

func TestMatchMissingExpiryIsNotASpread(t *testing.T) {
	expiry := day(2024, 4, 19)

	// One leg without an expiry never pairs into a vertical spread.
	assertMatch(t, []model.Transaction{
		optionTxn(1, "SPY240419C00500000", model.OptionTypeCall, 1, 500, expiry),
		optionTxn(2, "SPY240419C00510000", model.OptionTypeCall, -1, 510, nil),
	}, model.StrategyCustom, 50)

	assertMatch(t, []model.Transaction{
		optionTxn(1, "SPY240419C00500000", model.OptionTypeCall, 1, 500, nil),
		optionTxn(2, "SPY240419P00490000", model.OptionTypePut, 1, 490, expiry),
	}, model.StrategyCustom, 50)
}

func TestMatchStraddleAndStrangle(t *testing.T) {
	expiry := day(2024, 4, 19)

	t.Run("long straddle", func(t *testing.T) {
		assertMatch(t, []model.Transaction{
			optionTxn(1, "TSLA240419C00200000", model.OptionTypeCall, 1, 200, expiry),
			optionTxn(2, "TSLA240419P00200000", model.OptionTypePut, 1, 200, expiry),
		}, model.StrategyLongStraddle, 85)
	})

	t.Run("short straddle", func(t *testing.T) {
		assertMatch(t, []model.Transaction{
			optionTxn(1, "TSLA240419C00200000", model.OptionTypeCall, -1, 200, expiry),
			optionTxn(2, "TSLA240419P00200000", model.OptionTypePut, -1, 200, expiry),
		}, model.StrategyShortStraddle, 85)
	})

	t.Run("long strangle", func(t *testing.T) {
		assertMatch(t, []model.Transaction{
			optionTxn(1, "TSLA240419P00190000", model.OptionTypePut, 1, 190, expiry),
			optionTxn(2, "TSLA240419C00210000", model.OptionTypeCall, 1, 210, expiry),
		}, model.StrategyLongStrangle, 85)
	})

	t.Run("short strangle", func(t *testing.T) {
		assertMatch(t, []model.Transaction{
			optionTxn(1, "TSLA240419P00190000", model.OptionTypePut, -1, 190, expiry),
			optionTxn(2, "TSLA240419C00210000", model.OptionTypeCall, -1, 210, expiry),
		}, model.StrategyShortStrangle, 85)
	})
}

func TestMatchIronCondor(t *testing.T) {
	expiry := day(2024, 4, 19)

	assertMatch(t, []model.Transaction{
		optionTxn(1, "SPY240419C00090000", model.OptionTypeCall, 1, 90, expiry),
		optionTxn(2, "SPY240419C00095000", model.OptionTypeCall, -1, 95, expiry),
		optionTxn(3, "SPY240419P00105000", model.OptionTypePut, -1, 105, expiry),
		optionTxn(4, "SPY240419P00110000", model.OptionTypePut, 1, 110, expiry),
	}, model.StrategyIronCondor, 85)
}

func TestMatchFourLegWrongSignsIsCustom(t *testing.T) {
	expiry := day(2024, 4, 19)

	assertMatch(t, []model.Transaction{
		optionTxn(1, "SPY240419C00090000", model.OptionTypeCall, -1, 90, expiry),
		optionTxn(2, "SPY240419C00095000", model.OptionTypeCall, 1, 95, expiry),
		optionTxn(3, "SPY240419P00105000", model.OptionTypePut, 1, 105, expiry),
		optionTxn(4, "SPY240419P00110000", model.OptionTypePut, -1, 110, expiry),
	}, model.StrategyCustom, 50)
}

func TestMatchStockOptionCombos(t *testing.T) {
	expiry := day(2024, 4, 19)

	t.Run("covered call", func(t *testing.T) {
		assertMatch(t, []model.Transaction{
			stockTxn(1, "AAPL", 100),
			optionTxn(2, "AAPL240419C00180000", model.OptionTypeCall, -1, 180, expiry),
		}, model.StrategyCoveredCall, 95)
	})

	t.Run("protective put", func(t *testing.T) {
		assertMatch(t, []model.Transaction{
			stockTxn(1, "AAPL", 100),
			optionTxn(2, "AAPL240419P00160000", model.OptionTypePut, 1, 160, expiry),
		}, model.StrategyProtectivePut, 95)
	})

	t.Run("cash secured put", func(t *testing.T) {
		assertMatch(t, []model.Transaction{
			stockTxn(1, "AAPL", -10),
			optionTxn(2, "AAPL240419P00160000", model.OptionTypePut, -1, 160, expiry),
		}, model.StrategyCashSecuredPut, 80)
	})
}

func TestMatchStockOnlyAndFallbacks(t *testing.T) {
	expiry := day(2024, 4, 19)

	t.Run("stock only accumulation", func(t *testing.T) {
		assertMatch(t, []model.Transaction{
			stockTxn(1, "MSFT", 50),
			stockTxn(2, "MSFT", 25),
		}, model.StrategyLongStock, 90)
	})

	t.Run("three option legs", func(t *testing.T) {
		assertMatch(t, []model.Transaction{
			optionTxn(1, "SPY240419C00500000", model.OptionTypeCall, 1, 500, expiry),
			optionTxn(2, "SPY240419C00505000", model.OptionTypeCall, -2, 505, expiry),
			optionTxn(3, "SPY240419C00510000", model.OptionTypeCall, 1, 510, expiry),
		}, model.StrategyCustom, 60)
	})

	t.Run("empty group", func(t *testing.T) {
		result := MatchGroup(nil)
		if result.StrategyType != model.StrategyCustom || !result.Confidence.IsZero() {
			t.Fatalf("empty group classified as %q/%s", result.StrategyType, result.Confidence)
		}
	})
}
