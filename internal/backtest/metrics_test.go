package backtest

import (
	"math"
	"testing"
)

func TestTotalReturn(t *testing.T) {
	tests := []struct {
		initial, final, expected float64
	}{
		{10000, 11000, 10},
		{10000, 9000, -10},
		{10000, 10000, 0},
		{0, 500, 0}, // guarded, not a division fault
	}
	for _, test := range tests {
		if got := totalReturn(test.initial, test.final); math.Abs(got-test.expected) > 1e-9 {
			t.Fatalf("totalReturn(%.0f, %.0f) = %.4f, want %.4f", test.initial, test.final, got, test.expected)
		}
	}
}

func TestMaxDrawdown(t *testing.T) {
	tests := []struct {
		name     string
		series   []float64
		expected float64
	}{
		{"monotonic rise", []float64{100, 110, 120}, 0},
		{"single dip", []float64{100, 80, 120}, -20},
		{"later deeper dip", []float64{100, 90, 120, 60}, -50},
		{"empty", nil, 0},
	}
	for _, test := range tests {
		if got := maxDrawdown(test.series); math.Abs(got-test.expected) > 1e-9 {
			t.Fatalf("%s: maxDrawdown = %.4f, want %.4f", test.name, got, test.expected)
		}
	}
}

func TestSharpeRatio(t *testing.T) {
	if got := sharpeRatio([]float64{100}); got != 0 {
		t.Fatalf("too-short series must yield 0, got %.4f", got)
	}
	if got := sharpeRatio([]float64{100, 100, 100}); got != 0 {
		t.Fatalf("zero-variance series must yield 0, got %.4f", got)
	}

	rising := sharpeRatio([]float64{100, 101, 103, 104, 107})
	if rising <= 0 {
		t.Fatalf("rising series must have positive sharpe, got %.4f", rising)
	}
	falling := sharpeRatio([]float64{100, 99, 97, 96, 93})
	if falling >= 0 {
		t.Fatalf("falling series must have negative sharpe, got %.4f", falling)
	}
}

func TestCapitalSeries(t *testing.T) {
	trades := []Trade{
		{Date: "2024-01-02", PnL: 100},
		{Date: "2024-01-02", PnL: -30},
		{Date: "2024-01-03", PnL: 50},
	}
	series := capitalSeries(1000, trades)
	expected := []float64{1000, 1070, 1120}
	if len(series) != len(expected) {
		t.Fatalf("series length %d, want %d (%v)", len(series), len(expected), series)
	}
	for i := range expected {
		if math.Abs(series[i]-expected[i]) > 1e-9 {
			t.Fatalf("series[%d] = %.4f, want %.4f", i, series[i], expected[i])
		}
	}

	if got := capitalSeries(1000, nil); len(got) != 1 || got[0] != 1000 {
		t.Fatalf("empty ledger must yield the initial capital only, got %v", got)
	}
}
