// Package pricing implements Black-Scholes option valuation and greeks used
// to annotate open positions. All math is float64; persisted money amounts
// stay decimal and are converted at the call site.
package pricing

import (
	"math"
	"strings"
	"time"
)

const (
	DefaultRiskFreeRate = 0.05
	DefaultVolatility   = 0.25
)

// Greeks holds the model price and first-order sensitivities for one option.
// Theta is per calendar day, vega per 1% change in volatility.
type Greeks struct {
	Price float64
	Delta float64
	Gamma float64
	Theta float64
	Vega  float64
}

// NormalCDF is the standard normal cumulative distribution function.
func NormalCDF(x float64) float64 {
	return 0.5 * (1 + math.Erf(x/math.Sqrt2))
}

// NormalPDF is the standard normal probability density function.
func NormalPDF(x float64) float64 {
	return math.Exp(-0.5*x*x) / math.Sqrt(2*math.Pi)
}

// BlackScholes prices a European option and returns its greeks.
// timeToExpiry is in years; optionType is "call" or "put". An expired option
// (timeToExpiry <= 0) prices at intrinsic value with zero greeks.
func BlackScholes(spot, strike, timeToExpiry, riskFreeRate, volatility float64, optionType string) Greeks {
	isCall := strings.EqualFold(optionType, "call") || strings.EqualFold(optionType, "c")

	if timeToExpiry <= 0 {
		intrinsic := spot - strike
		if !isCall {
			intrinsic = strike - spot
		}
		return Greeks{Price: math.Max(0, intrinsic)}
	}

	sqrtT := math.Sqrt(timeToExpiry)
	d1 := (math.Log(spot/strike) + (riskFreeRate+0.5*volatility*volatility)*timeToExpiry) / (volatility * sqrtT)
	d2 := d1 - volatility*sqrtT

	discount := math.Exp(-riskFreeRate * timeToExpiry)
	nd1 := NormalPDF(d1)

	var g Greeks
	if isCall {
		g.Price = spot*NormalCDF(d1) - strike*discount*NormalCDF(d2)
		g.Delta = NormalCDF(d1)
		g.Theta = (-spot*nd1*volatility/(2*sqrtT) - riskFreeRate*strike*discount*NormalCDF(d2)) / 365
	} else {
		g.Price = strike*discount*NormalCDF(-d2) - spot*NormalCDF(-d1)
		g.Delta = NormalCDF(d1) - 1
		g.Theta = (-spot*nd1*volatility/(2*sqrtT) + riskFreeRate*strike*discount*NormalCDF(-d2)) / 365
	}

	g.Gamma = nd1 / (spot * volatility * sqrtT)
	g.Vega = spot * nd1 * sqrtT / 100

	return g
}

// YearsToExpiry converts an expiry date into the year fraction BlackScholes
// expects, measured in whole days from now. Past dates return 0.
func YearsToExpiry(expiry time.Time, now time.Time) float64 {
	days := expiry.Sub(now).Hours() / 24
	if days <= 0 {
		return 0
	}
	return days / 365
}

// EstimateUnderlying guesses the underlying price from an option premium
// and strike. The broker quotes the option, not the underlying, so this is
// an ATM-style approximation good enough to feed the greeks heuristic.
// Expired options fall back to the strike.
func EstimateUnderlying(optionPrice, strike float64, optionType string, yearsToExpiry float64) float64 {
	if yearsToExpiry <= 0 {
		return strike
	}

	estimated := strike + optionPrice*10
	if !strings.EqualFold(optionType, "call") && !strings.EqualFold(optionType, "c") {
		estimated = strike - optionPrice*10
	}

	return math.Max(estimated, strike*0.5)
}

// EstimateVolatility guesses an implied volatility from the underlying
// symbol. Real quotes would be better; these buckets keep the greeks in a
// plausible range when no market data is available.
func EstimateVolatility(symbol string) float64 {
	lower := strings.ToLower(symbol)

	for _, s := range []string{"nvda", "tsla", "amd", "meta", "amzn", "nflx"} {
		if strings.Contains(lower, s) {
			return 0.50
		}
	}
	for _, s := range []string{"aapl", "msft", "googl", "goog"} {
		if strings.Contains(lower, s) {
			return 0.30
		}
	}
	for _, s := range []string{"spy", "qqq", "iwm", "dia", "vti", "bil"} {
		if strings.Contains(lower, s) {
			return 0.18
		}
	}

	return DefaultVolatility
}
