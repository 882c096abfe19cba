package backtest

import (
	"errors"
	"math"
	"testing"

	"github.com/chriseid/OptionBot/internal/data"
	"github.com/chriseid/OptionBot/internal/strategy"
)

func testEngine(t *testing.T) *Engine {
	t.Helper()
	r, err := NewStrikeResolver(Calibration{})
	if err != nil {
		t.Fatalf("NewStrikeResolver: %v", err)
	}
	return NewEngine(r)
}

func condorDef(expiration string) *strategy.Definition {
	return &strategy.Definition{
		ID:         "s1",
		Name:       "condor",
		Symbol:     "SPY",
		Kind:       strategy.KindIronCondor,
		Expiration: expiration,
		Legs: map[strategy.Role]float64{
			strategy.RoleLongPut:   -0.30,
			strategy.RoleShortPut:  -0.15,
			strategy.RoleShortCall: 0.15,
			strategy.RoleLongCall:  0.30,
		},
		Quantity: 1,
	}
}

// gridDay builds a trading day with put and call quotes at every whole
// strike from spot-15 to spot+15, under each given expiration tag.
func gridDay(date string, spot float64, tags ...string) data.TradingDay {
	day := data.TradingDay{Symbol: "SPY", Date: date, UnderlyingPrice: spot}
	for _, tag := range tags {
		for k := spot - 15; k <= spot+15; k++ {
			day.Quotes = append(day.Quotes,
				data.OptionQuote{Strike: k, Expiration: tag, OptionType: data.OptionPut, Mid: 0.50 + (spot-k)/100},
				data.OptionQuote{Strike: k, Expiration: tag, OptionType: data.OptionCall, Mid: 0.50 + (k-spot)/100},
			)
		}
	}
	return day
}

func threeDays() []data.TradingDay {
	return []data.TradingDay{
		gridDay("2024-01-02", 100, data.Expiration0DTE),
		gridDay("2024-01-03", 101, data.Expiration0DTE),
		gridDay("2024-01-04", 99, data.Expiration0DTE),
	}
}

func TestRunCapitalConservation(t *testing.T) {
	res, err := testEngine(t).Run(condorDef("0DTE"), "2024-01-02", "2024-01-04", 10000, threeDays())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	sum := 0.0
	for _, tr := range res.Trades {
		sum += tr.PnL
	}
	if math.Abs(res.FinalCapital-(res.InitialCapital+sum)) > 1e-9 {
		t.Fatalf("capital not conserved: final=%.6f initial=%.6f sum=%.6f",
			res.FinalCapital, res.InitialCapital, sum)
	}
	if res.BacktestID == "" {
		t.Fatal("expected a backtest id")
	}
}

func TestRunPairingInvariant(t *testing.T) {
	res, err := testEngine(t).Run(condorDef("0DTE"), "2024-01-02", "2024-01-04", 10000, threeDays())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	assertPaired(t, res.Trades)
}

// assertPaired checks that each role's trades split evenly into entries
// and exits with opposite actions.
func assertPaired(t *testing.T, trades []Trade) {
	t.Helper()
	counts := map[strategy.Role]map[strategy.Action]int{}
	for _, tr := range trades {
		if counts[tr.Role] == nil {
			counts[tr.Role] = map[strategy.Action]int{}
		}
		counts[tr.Role][tr.Action]++
	}
	for role, byAction := range counts {
		if byAction[strategy.ActionBuy] != byAction[strategy.ActionSell] {
			t.Fatalf("role %s unpaired: %d buys vs %d sells",
				role, byAction[strategy.ActionBuy], byAction[strategy.ActionSell])
		}
	}
}

func TestRun0DTERollover(t *testing.T) {
	res, err := testEngine(t).Run(condorDef("0DTE"), "2024-01-02", "2024-01-04", 10000, threeDays())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	// 3 entry days x 4 legs x entry+exit
	if len(res.Trades) != 24 {
		t.Fatalf("expected 24 trades, got %d", len(res.Trades))
	}

	// D1 holds only the first entry's 4 legs; its exits land on D2. The
	// last day holds its own entries plus two exit sets (D2's entry and
	// the degenerate same-day exit).
	perDate := map[string]int{}
	for _, tr := range res.Trades {
		perDate[tr.Date]++
	}
	if perDate["2024-01-02"] != 4 || perDate["2024-01-03"] != 8 || perDate["2024-01-04"] != 12 {
		t.Fatalf("unexpected per-date trade counts: %v", perDate)
	}

	for i := 1; i < len(res.Trades); i++ {
		if res.Trades[i-1].Date > res.Trades[i].Date {
			t.Fatalf("trades not sorted by date at index %d", i)
		}
	}
}

func TestRunSingleDayDegenerateExit(t *testing.T) {
	days := []data.TradingDay{gridDay("2024-01-02", 100, data.Expiration0DTE)}
	res, err := testEngine(t).Run(condorDef("0DTE"), "2024-01-02", "2024-01-02", 10000, days)
	if err != nil {
		t.Fatalf("single-day window must not fail: %v", err)
	}
	if len(res.Trades) != 8 {
		t.Fatalf("expected 8 trades (4 entries, 4 same-day exits), got %d", len(res.Trades))
	}
	for _, tr := range res.Trades {
		if tr.Date != "2024-01-02" {
			t.Fatalf("all trades must land on the single day, got %s", tr.Date)
		}
	}
	assertPaired(t, res.Trades)
}

func TestRunEmptyRange(t *testing.T) {
	engine := testEngine(t)

	if _, err := engine.Run(condorDef("0DTE"), "2024-01-02", "2024-01-04", 10000, nil); !errors.Is(err, ErrNoDataInRange) {
		t.Fatalf("expected ErrNoDataInRange for nil data, got %v", err)
	}

	// data exists but entirely outside the window
	if _, err := engine.Run(condorDef("0DTE"), "2025-06-01", "2025-06-30", 10000, threeDays()); !errors.Is(err, ErrNoDataInRange) {
		t.Fatalf("expected ErrNoDataInRange for disjoint window, got %v", err)
	}
}

func TestRunInvalidStrategy(t *testing.T) {
	def := condorDef("0DTE")
	def.Legs[strategy.RoleShortCall] = -0.15

	_, err := testEngine(t).Run(def, "2024-01-02", "2024-01-04", 10000, threeDays())
	if !errors.Is(err, strategy.ErrInvalidStrategy) {
		t.Fatalf("expected ErrInvalidStrategy, got %v", err)
	}
}

func TestRunInvalidUnderlyingPrice(t *testing.T) {
	days := threeDays()
	days[0].UnderlyingPrice = 0

	_, err := testEngine(t).Run(condorDef("0DTE"), "2024-01-02", "2024-01-04", 10000, days)
	if !errors.Is(err, ErrInvalidUnderlyingPrice) {
		t.Fatalf("expected ErrInvalidUnderlyingPrice, got %v", err)
	}
}

func TestRunFallbackPricing(t *testing.T) {
	// days carry prices but no quotes at all: every leg escalates to the
	// nominal fallback, and the run still completes with paired trades
	days := []data.TradingDay{
		{Symbol: "SPY", Date: "2024-01-02", UnderlyingPrice: 100},
		{Symbol: "SPY", Date: "2024-01-03", UnderlyingPrice: 101},
	}
	res, err := testEngine(t).Run(condorDef("0DTE"), "2024-01-02", "2024-01-03", 10000, days)
	if err != nil {
		t.Fatalf("sparse data must not abort the run: %v", err)
	}
	if len(res.Trades) == 0 {
		t.Fatal("expected trades from fallback pricing")
	}
	for _, tr := range res.Trades {
		if tr.Price != nominalFallbackPrice {
			t.Fatalf("expected nominal price %.2f, got %.2f on %s", nominalFallbackPrice, tr.Price, tr.Date)
		}
		if !tr.Estimated {
			t.Fatalf("fallback-priced trade on %s must be flagged estimated", tr.Date)
		}
	}
	assertPaired(t, res.Trades)

	sum := 0.0
	for _, tr := range res.Trades {
		sum += tr.PnL
	}
	if math.Abs(res.FinalCapital-(res.InitialCapital+sum)) > 1e-9 {
		t.Fatal("capital conservation must hold under fallback pricing")
	}
}

func TestRunCalendarExpirationSingleShot(t *testing.T) {
	exp := "2024-02-16"
	days := []data.TradingDay{
		gridDay("2024-01-02", 100, exp),
		gridDay("2024-01-03", 101, exp),
		gridDay("2024-01-04", 99, exp),
	}

	res, err := testEngine(t).Run(condorDef(exp), "2024-01-02", "2024-01-04", 10000, days)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	// one entry on startDate, one exit per leg at min(endDate, expiration)
	if len(res.Trades) != 8 {
		t.Fatalf("expected 8 trades, got %d", len(res.Trades))
	}
	for _, tr := range res.Trades {
		if tr.Date != "2024-01-02" && tr.Date != "2024-01-04" {
			t.Fatalf("unexpected trade date %s", tr.Date)
		}
	}
	assertPaired(t, res.Trades)
}

func TestRunCalendarExpirationBeforeEnd(t *testing.T) {
	exp := "2024-01-03"
	days := []data.TradingDay{
		gridDay("2024-01-02", 100, exp),
		gridDay("2024-01-03", 101, exp),
		gridDay("2024-01-04", 99, exp),
	}

	res, err := testEngine(t).Run(condorDef(exp), "2024-01-02", "2024-01-04", 10000, days)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	for _, tr := range res.Trades {
		if tr.Date > exp {
			t.Fatalf("trade on %s lands after the expiration %s", tr.Date, exp)
		}
	}
}

func TestRunCalendarEntryDateAbsent(t *testing.T) {
	exp := "2024-02-16"
	days := []data.TradingDay{
		gridDay("2024-01-03", 101, exp),
		gridDay("2024-01-04", 99, exp),
	}

	// requested start 2024-01-02 has no trading day: nothing is entered
	res, err := testEngine(t).Run(condorDef(exp), "2024-01-02", "2024-01-04", 10000, days)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(res.Trades) != 0 {
		t.Fatalf("expected empty ledger, got %d trades", len(res.Trades))
	}
	if res.FinalCapital != res.InitialCapital {
		t.Fatal("capital must be untouched when no entry happens")
	}
}

func TestRunZeroInitialCapital(t *testing.T) {
	res, err := testEngine(t).Run(condorDef("0DTE"), "2024-01-02", "2024-01-04", 0, threeDays())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.TotalReturn != 0 {
		t.Fatalf("zero initial capital must yield totalReturn 0, got %.4f", res.TotalReturn)
	}
}

func TestRunExitSignConvention(t *testing.T) {
	days := []data.TradingDay{
		gridDay("2024-01-02", 100, data.Expiration0DTE),
		gridDay("2024-01-03", 100, data.Expiration0DTE),
	}
	res, err := testEngine(t).Run(condorDef("0DTE"), "2024-01-02", "2024-01-02", 10000, days[:1])
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	for _, tr := range res.Trades {
		want := tr.Price * float64(tr.Option.Quantity) * 100
		if tr.Action == strategy.ActionBuy {
			want = -want
		}
		if math.Abs(tr.PnL-want) > 1e-9 {
			t.Fatalf("%s %s: pnl %.4f, want %.4f", tr.Action, tr.Role, tr.PnL, want)
		}
	}
}
