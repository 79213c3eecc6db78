package symbols

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func decimalFromFloat(t *testing.T, v float64) decimal.Decimal {
	t.Helper()
	return decimal.NewFromFloat(v)
}

func TestExtractUnderlying(t *testing.T) {
	cases := []struct {
		name   string
		symbol string
		want   string
	}{
		{"bare equity ticker", "AAPL", "AAPL"},
		{"five char ticker", "GOOGL", "GOOGL"},
		{"occ option symbol", "AAPL240315C00150000", "AAPL"},
		{"spaced occ option symbol", "NVDA  250718C00180000", "NVDA"},
		{"futures option", "./GCQ5 OGQ5  250728C5000", "GCQ"},
		{"futures marker only", "./GCQ5", "GCQ5"},
		{"no alphabetic prefix", "240315C00150000", "240315C00150000"},
		{"empty", "", ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ExtractUnderlying(tc.symbol); got != tc.want {
				t.Fatalf("ExtractUnderlying(%q) = %q, want %q", tc.symbol, got, tc.want)
			}
		})
	}
}

func TestParseOptionSymbolEquity(t *testing.T) {
	parsed, ok := ParseOptionSymbol("NVDA  250718C00180000")
	if !ok {
		t.Fatal("expected parse to succeed")
	}

	if parsed.Underlying != "NVDA" {
		t.Fatalf("unexpected underlying %q", parsed.Underlying)
	}
	if !parsed.Expiry.Equal(time.Date(2025, 7, 18, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected expiry %v", parsed.Expiry)
	}
	if parsed.OptionType != "call" {
		t.Fatalf("unexpected option type %q", parsed.OptionType)
	}
	if !parsed.Strike.Equal(decimalFromFloat(t, 180)) {
		t.Fatalf("unexpected strike %s", parsed.Strike)
	}
}

func TestParseOptionSymbolFutures(t *testing.T) {
	parsed, ok := ParseOptionSymbol("./GCQ5 OGQ5  250728C5000")
	if !ok {
		t.Fatal("expected parse to succeed")
	}

	if parsed.Underlying != "GCQ5" {
		t.Fatalf("unexpected underlying %q", parsed.Underlying)
	}
	if !parsed.Expiry.Equal(time.Date(2025, 7, 28, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected expiry %v", parsed.Expiry)
	}
	if parsed.OptionType != "call" {
		t.Fatalf("unexpected option type %q", parsed.OptionType)
	}
	if !parsed.Strike.Equal(decimalFromFloat(t, 5000)) {
		t.Fatalf("unexpected strike %s", parsed.Strike)
	}
}

func TestParseOptionSymbolRejectsMalformed(t *testing.T) {
	malformed := []string{
		"",
		"AAPL",
		"NVDA  2507",
		"NVDA  250718X00180000",
		"NVDA  250718C",
		"./GCQ5 OGQ5",
	}

	for _, symbol := range malformed {
		if _, ok := ParseOptionSymbol(symbol); ok {
			t.Fatalf("expected parse of %q to fail", symbol)
		}
	}
}
