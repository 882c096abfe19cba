// Package backtest replays a strategy against historical option chain
// snapshots and produces a trade ledger with aggregate performance.
//
// The engine is synchronous: one Run processes one strategy over one
// date range to completion. The chain data is treated as an immutable
// in-memory snapshot for the duration of a run.
package backtest

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/chriseid/OptionBot/internal/data"
	"github.com/chriseid/OptionBot/internal/logger"
	"github.com/chriseid/OptionBot/internal/strategy"
)

// Result is the outcome of one backtest run. Trades are sorted by date;
// ties keep execution order, legs in definition order.
type Result struct {
	BacktestID     string  `json:"backtestId"`
	StrategyID     string  `json:"strategyId"`
	StartDate      string  `json:"startDate"`
	EndDate        string  `json:"endDate"`
	InitialCapital float64 `json:"initialCapital"`
	FinalCapital   float64 `json:"finalCapital"`
	TotalReturn    float64 `json:"totalReturn"`
	MaxDrawdown    float64 `json:"maxDrawdown"`
	SharpeRatio    float64 `json:"sharpeRatio"`
	Trades         []Trade `json:"trades"`
	CreatedAt      string  `json:"createdAt"`
}

// Engine runs backtests. It owns only the strike resolver; chain data
// arrives per invocation so one engine can serve many strategies.
type Engine struct {
	resolver *StrikeResolver
}

// NewEngine builds an engine around a compiled strike resolver.
func NewEngine(resolver *StrikeResolver) *Engine {
	return &Engine{resolver: resolver}
}

// entryPair couples an entry day index with its exit day index into the
// filtered window.
type entryPair struct {
	entry int
	exit  int
}

// Run replays the strategy over [startDate, endDate]. days must already
// be filtered to the strategy's symbol and sorted ascending by date.
//
// Returns ErrInvalidStrategy wrapped errors for bad definitions,
// ErrNoDataInRange when the window holds no trading days, and
// ErrInvalidUnderlyingPrice when an entry day's spot is not positive.
// Per-leg quote gaps never abort the run; they are absorbed by the
// price fallback chain and flagged on the trade.
func (e *Engine) Run(def *strategy.Definition, startDate, endDate string, initialCapital float64, days []data.TradingDay) (*Result, error) {
	if err := def.Validate(); err != nil {
		return nil, err
	}

	window := filterWindow(days, startDate, endDate)
	if len(window) == 0 {
		return nil, fmt.Errorf("%w: %s has no trading days in %s..%s",
			ErrNoDataInRange, def.Symbol, startDate, endDate)
	}

	pairs := selectEntryDates(def, window, startDate, endDate)

	var trades []Trade
	for _, p := range pairs {
		legTrades, err := e.simulateEntry(def, window, p)
		if err != nil {
			return nil, err
		}
		trades = append(trades, legTrades...)
	}

	sort.SliceStable(trades, func(i, j int) bool { return trades[i].Date < trades[j].Date })

	// Capital is a single fold over the sorted ledger, never a running
	// total updated out of order.
	finalCapital := initialCapital
	for _, t := range trades {
		finalCapital += t.PnL
	}

	series := capitalSeries(initialCapital, trades)
	res := &Result{
		BacktestID:     uuid.NewString(),
		StrategyID:     def.ID,
		StartDate:      startDate,
		EndDate:        endDate,
		InitialCapital: initialCapital,
		FinalCapital:   finalCapital,
		TotalReturn:    totalReturn(initialCapital, finalCapital),
		MaxDrawdown:    maxDrawdown(series),
		SharpeRatio:    sharpeRatio(series),
		Trades:         trades,
		CreatedAt:      time.Now().UTC().Format(time.RFC3339),
	}
	logger.Infof("backtest %s: %s %s..%s, %d trades, capital %.2f -> %.2f",
		res.BacktestID, def.Symbol, startDate, endDate, len(trades), initialCapital, finalCapital)
	return res, nil
}

// filterWindow keeps days with startDate <= date <= endDate. ISO date
// strings compare lexicographically in calendar order.
func filterWindow(days []data.TradingDay, startDate, endDate string) []data.TradingDay {
	var out []data.TradingDay
	for _, d := range days {
		if d.Date >= startDate && d.Date <= endDate {
			out = append(out, d)
		}
	}
	return out
}

// selectEntryDates applies the expiration regime.
//
// 0DTE is a rolling daily strategy: every day in the window is an entry,
// exiting the next trading day. The last day has no next day and exits
// same-day, a degenerate case that is logged rather than masked.
//
// Any other expiration tag is a single-shot trade: one entry on
// startDate if that day exists in the window, exiting at
// min(endDate, expiration).
func selectEntryDates(def *strategy.Definition, window []data.TradingDay, startDate, endDate string) []entryPair {
	if def.Expiration == data.Expiration0DTE {
		pairs := make([]entryPair, 0, len(window))
		for i := range window {
			exit := i + 1
			if exit == len(window) {
				exit = i
				logger.Infof("0DTE entry on last day %s: degenerate same-day exit", window[i].Date)
			}
			pairs = append(pairs, entryPair{entry: i, exit: exit})
		}
		return pairs
	}

	if window[0].Date != startDate {
		logger.Infof("no trading day on requested start date %s, nothing to enter", startDate)
		return nil
	}
	exitDate := endDate
	if def.Expiration < exitDate {
		exitDate = def.Expiration
	}
	exit := 0
	for i, d := range window {
		if d.Date > exitDate {
			break
		}
		exit = i
	}
	return []entryPair{{entry: 0, exit: exit}}
}

// simulateEntry opens every leg of the definition on the entry day and
// closes each on the exit day.
func (e *Engine) simulateEntry(def *strategy.Definition, window []data.TradingDay, p entryPair) ([]Trade, error) {
	entryDay := window[p.entry]
	exitDay := window[p.exit]

	if entryDay.UnderlyingPrice <= 0 {
		return nil, fmt.Errorf("%w: %s on %s has underlying price %.4f",
			ErrInvalidUnderlyingPrice, def.Symbol, entryDay.Date, entryDay.UnderlyingPrice)
	}

	var trades []Trade
	for _, leg := range def.TradeLegs() {
		expectedStrike, err := e.resolver.Resolve(leg.TargetDelta, leg.OptionType, entryDay.UnderlyingPrice)
		if err != nil {
			expectedStrike = fallbackStrike(leg.Role, entryDay.UnderlyingPrice)
			logger.Debugf("strike resolution failed for %s (%v), using role fallback %.2f",
				leg.Role, err, expectedStrike)
		}

		// Entry matching is unconstrained nearest-match: the expected
		// strike is itself approximate.
		entryMatch, entryEst := resolveWithFallback(window, p.entry, expectedStrike, def.Expiration, leg.OptionType, 0)
		entry := buildEntry(entryDay.Date, def.Symbol, leg, def.Expiration, entryMatch, def.Quantity, entryEst)

		exitMatch, exitEst := resolveWithFallback(window, p.exit, entry.Option.Strike, def.Expiration, leg.OptionType, exitMatchTolerance)
		exit := buildExit(exitDay.Date, entry, exitMatch, exitEst)

		trades = append(trades, entry, exit)
	}
	return trades, nil
}

// fallbackStrike gives each leg role a deterministic strike offset from
// spot, keeping runs reproducible when the resolver cannot produce one.
func fallbackStrike(role strategy.Role, underlyingPrice float64) float64 {
	var offset float64
	switch role {
	case strategy.RoleLongPut:
		offset = -0.10
	case strategy.RoleShortPut:
		offset = -0.05
	case strategy.RoleShortCall:
		offset = 0.05
	case strategy.RoleLongCall:
		offset = 0.10
	}
	return math.Round(underlyingPrice*(1+offset)*100) / 100
}
