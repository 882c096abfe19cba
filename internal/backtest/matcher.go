package backtest

import (
	"fmt"
	"math"

	"github.com/chriseid/OptionBot/internal/data"
	"github.com/chriseid/OptionBot/internal/logger"
)

const (
	// priorDayTolerance bounds the strike drift accepted when retrying a
	// missing quote against earlier trading days.
	priorDayTolerance = 2.0

	// exitMatchTolerance bounds the strike drift accepted when closing a
	// leg, so drift cannot silently pick a wildly different contract.
	exitMatchTolerance = 2.0

	// nominalFallbackPrice stands in for a quote that cannot be found at
	// all: the contract expired near-worthless or sits deep in the money.
	nominalFallbackPrice = 0.05
)

// MatchResult is a resolved quote: the executable mid price and the
// actual strike it belongs to.
type MatchResult struct {
	Price  float64
	Strike float64
}

// MatchQuote scans one day's quotes for the contract closest to
// expectedStrike among those with the wanted option type and expiration.
//
// A wanted expiration of "0DTE" also accepts quotes tagged with the
// trading day's own date, since same-day expiry makes the two spellings
// equivalent. Tolerance > 0 rejects matches whose strike differs by more
// than that amount; tolerance 0 means unconstrained nearest-match.
//
// The selection is a strict minimum of |strike - expectedStrike|; on an
// exact tie the first quote seen wins, keeping results deterministic.
func MatchQuote(day data.TradingDay, expectedStrike float64, expiration string, optType data.OptionType, tolerance float64) (MatchResult, error) {
	best := MatchResult{}
	bestDiff := math.Inf(1)

	for _, q := range day.Quotes {
		if q.OptionType != optType {
			continue
		}
		if !expirationMatches(q.Expiration, expiration, day.Date) {
			continue
		}
		diff := math.Abs(q.Strike - expectedStrike)
		if diff < bestDiff {
			bestDiff = diff
			best = MatchResult{Price: q.Mid, Strike: q.Strike}
		}
	}

	if math.IsInf(bestDiff, 1) {
		return MatchResult{}, fmt.Errorf("%w: no %s quotes expiring %s on %s",
			ErrOptionNotFound, optType, expiration, day.Date)
	}
	if tolerance > 0 && bestDiff > tolerance {
		return MatchResult{}, fmt.Errorf("%w: nearest %s strike %.2f is %.2f away from %.2f (tolerance %.2f)",
			ErrOptionNotFound, optType, best.Strike, bestDiff, expectedStrike, tolerance)
	}
	return best, nil
}

func expirationMatches(quoteTag, wanted, dayDate string) bool {
	if quoteTag == wanted {
		return true
	}
	// 0DTE contracts expire on the trading day itself, so a quote tagged
	// with that date is the same contract.
	return wanted == data.Expiration0DTE && quoteTag == dayDate
}

// resolveWithFallback applies the three-tier price escalation:
//
//	tier 1: direct match on the target day (tolerance as given)
//	tier 2: nearest prior trading day with a usable quote within
//	        priorDayTolerance of the expected strike
//	tier 3: nominalFallbackPrice at the expected strike
//
// Tiers 2 and 3 mark the result as estimated so downstream reporting can
// distinguish fallback-priced trades from directly matched ones. The
// escalation never fails: sparse chain data costs estimation noise, not
// an aborted run.
func resolveWithFallback(days []data.TradingDay, dayIdx int, expectedStrike float64, expiration string, optType data.OptionType, tolerance float64) (MatchResult, bool) {
	day := days[dayIdx]

	if m, err := MatchQuote(day, expectedStrike, expiration, optType, tolerance); err == nil {
		return m, false
	}

	for i := dayIdx - 1; i >= 0; i-- {
		if m, err := MatchQuote(days[i], expectedStrike, expiration, optType, priorDayTolerance); err == nil {
			logger.Debugf("price fallback: %s %.2f %s matched on prior day %s",
				optType, expectedStrike, expiration, days[i].Date)
			return m, true
		}
	}

	logger.Debugf("price fallback: %s %.2f %s priced at nominal %.2f on %s",
		optType, expectedStrike, expiration, nominalFallbackPrice, day.Date)
	return MatchResult{Price: nominalFallbackPrice, Strike: expectedStrike}, true
}
