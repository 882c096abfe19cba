// Package pricing implements a minimal Black-Scholes model.
//
// It exists to stamp plausible mid prices onto synthetic option chains.
// The backtest engine itself never prices options theoretically; it only
// replays quotes that already exist in the historical chain.
package pricing

import "math"

// BlackScholesPrice calculates the price of a European option.
//
// Parameters:
//   - isCall: true for call option, false for put option
//   - S: spot price of the underlying asset
//   - K: strike price of the option
//   - T: time to expiry in years
//   - r: risk-free interest rate (annual)
//   - sigma: volatility of the underlying asset (annual, as a decimal)
//
// If time to expiry or volatility is zero or negative, the intrinsic
// value is returned instead.
func BlackScholesPrice(
	isCall bool,
	S float64,
	K float64,
	T float64,
	r float64,
	sigma float64,
) float64 {

	if T <= 0 || sigma <= 0 {
		if isCall {
			return math.Max(0, S-K)
		}
		return math.Max(0, K-S)
	}

	d1 := (math.Log(S/K) + (r+0.5*sigma*sigma)*T) / (sigma * math.Sqrt(T))
	d2 := d1 - sigma*math.Sqrt(T)

	if isCall {
		return S*normCDF(d1) - K*math.Exp(-r*T)*normCDF(d2)
	}
	return K*math.Exp(-r*T)*normCDF(-d2) - S*normCDF(-d1)
}

// normCDF is the standard normal cumulative distribution function,
// computed via the error function.
func normCDF(x float64) float64 {
	return 0.5 * (1.0 + math.Erf(x/math.Sqrt2))
}
