package symbols

import (
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// futuresMarker prefixes futures and futures-option symbols ("./GCQ5 ...").
const futuresMarker = "./"

// ExtractUnderlying derives the root underlying ticker from a raw instrument
// symbol. Short symbols (<= 5 chars) are assumed to already be bare equity
// tickers. Longer symbols are treated as option notation: the leading run of
// alphabetic characters is the underlying, everything from the first
// non-alphabetic character on is expiry/strike encoding.
//
// Known limitation: tickers that legitimately contain digits (certain futures
// root codes) are truncated at the first digit. Futures-marker symbols are
// stripped of the marker before extraction, but no further special-casing is
// done.
func ExtractUnderlying(symbol string) string {
	symbol = strings.TrimSpace(symbol)
	if strings.HasPrefix(symbol, futuresMarker) {
		symbol = symbol[len(futuresMarker):]
	}

	if len(symbol) <= 5 {
		return symbol
	}

	underlying := ""
	for _, ch := range symbol {
		if (ch >= 'A' && ch <= 'Z') || (ch >= 'a' && ch <= 'z') {
			underlying += string(ch)
		} else {
			break
		}
	}

	if underlying == "" {
		return symbol
	}
	return underlying
}

// OptionSymbol is the decomposition of an option instrument symbol.
type OptionSymbol struct {
	Underlying string
	Expiry     time.Time
	Strike     decimal.Decimal
	OptionType string // "call" or "put"
}

// ParseOptionSymbol decomposes an option symbol into underlying, expiry,
// strike and option type. Two notations are handled:
//
//	equity:  "NVDA  250718C00180000"
//	futures: "./GCQ5 OGQ5  250728C5000"
//
// Equity strikes carry three implied decimal places (OCC style); futures
// strikes are taken literally. Returns ok=false for anything that does not
// decompose cleanly.
func ParseOptionSymbol(symbol string) (OptionSymbol, bool) {
	var parsed OptionSymbol

	trimmed := strings.TrimSpace(symbol)
	parts := strings.Fields(trimmed)

	var optionPart string
	occStrike := true

	if strings.HasPrefix(trimmed, futuresMarker) {
		// "./GCQ5 OGQ5  250728C5000": root, option root, encoded leg.
		if len(parts) < 3 {
			return parsed, false
		}
		parsed.Underlying = strings.TrimPrefix(parts[0], futuresMarker)
		optionPart = parts[2]
		occStrike = false
	} else {
		if len(parts) < 2 {
			return parsed, false
		}
		parsed.Underlying = parts[0]
		optionPart = parts[1]
	}

	// YYMMDD expiry prefix.
	if len(optionPart) < 7 {
		return parsed, false
	}
	expiry, err := time.Parse("060102", optionPart[:6])
	if err != nil {
		return parsed, false
	}
	parsed.Expiry = expiry

	switch optionPart[6] {
	case 'C', 'c':
		parsed.OptionType = "call"
	case 'P', 'p':
		parsed.OptionType = "put"
	default:
		return parsed, false
	}

	strikeRaw := optionPart[7:]
	if strikeRaw == "" {
		return parsed, false
	}
	strikeInt, err := strconv.ParseInt(strikeRaw, 10, 64)
	if err != nil {
		return parsed, false
	}
	if occStrike {
		parsed.Strike = decimal.New(strikeInt, -3)
	} else {
		parsed.Strike = decimal.NewFromInt(strikeInt)
	}

	return parsed, true
}
