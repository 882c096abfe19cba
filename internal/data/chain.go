// Package data owns the historical option-chain store.
//
// A chain is a sequence of per-day snapshots. Each snapshot carries the
// underlying price and the option quotes observed that day. The store is
// immutable once built; the backtest engine only ever reads from it.
package data

import (
	"sort"
	"strings"
)

// DateLayout is the calendar format used throughout the chain store.
// Dates are kept as ISO strings so that range filtering is a plain
// lexicographic comparison, matching the snapshot document format.
const DateLayout = "2006-01-02"

// Expiration0DTE marks a quote that expires on its own trading day.
const Expiration0DTE = "0DTE"

// OptionType is the contract side of a quote.
type OptionType string

const (
	OptionCall OptionType = "call"
	OptionPut  OptionType = "put"
)

// OptionQuote is one option quote inside a daily snapshot.
type OptionQuote struct {
	Strike     float64    `json:"strike"`
	Expiration string     `json:"expiration"` // "0DTE" or an ISO date
	OptionType OptionType `json:"optionType"`
	Mid        float64    `json:"mid"` // average of bid and ask
}

// TradingDay is one day's snapshot for one underlying.
type TradingDay struct {
	Symbol          string        `json:"symbol"`
	Date            string        `json:"date"`
	UnderlyingPrice float64       `json:"price"`
	Quotes          []OptionQuote `json:"options"`
}

// Store holds chain snapshots for any number of symbols,
// sorted by date within each symbol.
type Store struct {
	days []TradingDay
}

// NewStore builds a store from a slice of snapshots. The input is copied
// and sorted by (symbol, date); callers may discard or reuse it.
func NewStore(days []TradingDay) *Store {
	cp := make([]TradingDay, len(days))
	copy(cp, days)
	sort.SliceStable(cp, func(i, j int) bool {
		if cp[i].Symbol != cp[j].Symbol {
			return cp[i].Symbol < cp[j].Symbol
		}
		return cp[i].Date < cp[j].Date
	})
	return &Store{days: cp}
}

// Days returns the date-sorted snapshots for symbol within [start, end]
// inclusive. Symbol comparison is case-insensitive.
func (s *Store) Days(symbol, start, end string) []TradingDay {
	var out []TradingDay
	for _, d := range s.days {
		if !strings.EqualFold(d.Symbol, symbol) {
			continue
		}
		if d.Date < start || d.Date > end {
			continue
		}
		out = append(out, d)
	}
	return out
}

// Len reports the total number of snapshots held.
func (s *Store) Len() int { return len(s.days) }

// Symbols returns the distinct symbols present in the store.
func (s *Store) Symbols() []string {
	seen := map[string]bool{}
	var out []string
	for _, d := range s.days {
		if !seen[d.Symbol] {
			seen[d.Symbol] = true
			out = append(out, d.Symbol)
		}
	}
	return out
}
