package backtest

import "errors"

// Typed errors allow callers and tests to detect failure categories
// without string matching. Wrapped instances carry the reason text.
var (
	// ErrNoDataInRange aborts a run whose filtered window has no trading days.
	ErrNoDataInRange = errors.New("no historical data in range")

	// ErrInvalidUnderlyingPrice aborts a run whose entry day carries a
	// zero or negative underlying price.
	ErrInvalidUnderlyingPrice = errors.New("invalid underlying price")

	// ErrInvalidMarketData marks bad resolver inputs (non-positive spot).
	ErrInvalidMarketData = errors.New("invalid market data")

	// ErrOptionNotFound is internal to leg matching. It is always absorbed
	// by the price fallback chain and never surfaces from Run.
	ErrOptionNotFound = errors.New("option not found")
)
