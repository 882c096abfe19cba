package store

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/chriseid/OptionBot/internal/backtest"
	"github.com/chriseid/OptionBot/internal/strategy"
)

func testRepo(t *testing.T) *Repository {
	t.Helper()
	db, err := NewDatabase(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewDatabase: %v", err)
	}
	return NewRepository(db)
}

func sampleDefinition(id string) *strategy.Definition {
	return &strategy.Definition{
		ID:         id,
		Name:       "daily condor",
		Symbol:     "SPY",
		Kind:       strategy.KindIronCondor,
		Expiration: "0DTE",
		Legs: map[strategy.Role]float64{
			strategy.RoleLongPut:   -0.30,
			strategy.RoleShortPut:  -0.15,
			strategy.RoleShortCall: 0.15,
			strategy.RoleLongCall:  0.30,
		},
		Quantity: 1,
	}
}

func TestStrategyRoundTrip(t *testing.T) {
	repo := testRepo(t)
	def := sampleDefinition("s1")

	if err := repo.SaveStrategy(def); err != nil {
		t.Fatalf("SaveStrategy: %v", err)
	}

	got, err := repo.GetStrategy("s1")
	if err != nil {
		t.Fatalf("GetStrategy: %v", err)
	}
	if got.Name != def.Name || got.Symbol != def.Symbol || got.Kind != def.Kind || got.Quantity != def.Quantity {
		t.Fatalf("loaded strategy differs: %+v", got)
	}
	if len(got.Legs) != 4 || got.Legs[strategy.RoleShortPut] != -0.15 {
		t.Fatalf("legs not preserved: %v", got.Legs)
	}
	if err := got.Validate(); err != nil {
		t.Fatalf("loaded strategy fails validation: %v", err)
	}
}

func TestStrategyUpdateAndDelete(t *testing.T) {
	repo := testRepo(t)
	def := sampleDefinition("s1")
	if err := repo.SaveStrategy(def); err != nil {
		t.Fatalf("SaveStrategy: %v", err)
	}

	def.Name = "renamed"
	def.Quantity = 3
	if err := repo.UpdateStrategy(def); err != nil {
		t.Fatalf("UpdateStrategy: %v", err)
	}
	got, err := repo.GetStrategy("s1")
	if err != nil {
		t.Fatalf("GetStrategy: %v", err)
	}
	if got.Name != "renamed" || got.Quantity != 3 {
		t.Fatalf("update not persisted: %+v", got)
	}

	if err := repo.DeleteStrategy("s1"); err != nil {
		t.Fatalf("DeleteStrategy: %v", err)
	}
	if _, err := repo.GetStrategy("s1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestStrategyNotFound(t *testing.T) {
	repo := testRepo(t)

	if _, err := repo.GetStrategy("missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := repo.DeleteStrategy("missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on delete, got %v", err)
	}
	if err := repo.UpdateStrategy(sampleDefinition("missing")); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on update, got %v", err)
	}
}

func TestListStrategies(t *testing.T) {
	repo := testRepo(t)
	for _, id := range []string{"a", "b", "c"} {
		if err := repo.SaveStrategy(sampleDefinition(id)); err != nil {
			t.Fatalf("SaveStrategy(%s): %v", id, err)
		}
	}
	defs, err := repo.ListStrategies()
	if err != nil {
		t.Fatalf("ListStrategies: %v", err)
	}
	if len(defs) != 3 {
		t.Fatalf("expected 3 strategies, got %d", len(defs))
	}
}

func TestBacktestRoundTrip(t *testing.T) {
	repo := testRepo(t)

	res := &backtest.Result{
		BacktestID:     "b1",
		StrategyID:     "s1",
		StartDate:      "2024-01-02",
		EndDate:        "2024-01-04",
		InitialCapital: 10000,
		FinalCapital:   10120,
		TotalReturn:    1.2,
		MaxDrawdown:    -0.4,
		SharpeRatio:    1.1,
		Trades: []backtest.Trade{
			{Date: "2024-01-02", Action: strategy.ActionSell, Role: strategy.RoleShortPut, Price: 1.20, PnL: 120},
			{Date: "2024-01-03", Action: strategy.ActionBuy, Role: strategy.RoleShortPut, Price: 0.00, PnL: 0, Estimated: true},
		},
	}
	if err := repo.SaveBacktest(res); err != nil {
		t.Fatalf("SaveBacktest: %v", err)
	}

	got, err := repo.GetBacktest("b1")
	if err != nil {
		t.Fatalf("GetBacktest: %v", err)
	}
	if got.FinalCapital != 10120 || got.TotalReturn != 1.2 || got.MaxDrawdown != -0.4 {
		t.Fatalf("metrics not preserved: %+v", got)
	}
	if len(got.Trades) != 2 || !got.Trades[1].Estimated {
		t.Fatalf("trade ledger not preserved: %+v", got.Trades)
	}

	if _, err := repo.GetBacktest("missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestListBacktestsByStrategy(t *testing.T) {
	repo := testRepo(t)
	for i, sid := range []string{"s1", "s1", "s2"} {
		res := &backtest.Result{
			BacktestID: string(rune('a' + i)),
			StrategyID: sid,
			StartDate:  "2024-01-02",
			EndDate:    "2024-01-04",
		}
		if err := repo.SaveBacktest(res); err != nil {
			t.Fatalf("SaveBacktest: %v", err)
		}
	}

	all, err := repo.ListBacktests("")
	if err != nil {
		t.Fatalf("ListBacktests: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 results, got %d", len(all))
	}

	s1, err := repo.ListBacktests("s1")
	if err != nil {
		t.Fatalf("ListBacktests(s1): %v", err)
	}
	if len(s1) != 2 {
		t.Fatalf("expected 2 results for s1, got %d", len(s1))
	}
}
