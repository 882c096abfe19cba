package backtest

import "math"

const tradingDaysPerYear = 252

// capitalSeries folds the sorted trade ledger into one capital value per
// distinct trade date, starting from the initial capital.
func capitalSeries(initialCapital float64, trades []Trade) []float64 {
	series := []float64{initialCapital}
	capital := initialCapital
	lastDate := ""
	for _, t := range trades {
		if t.Date != lastDate && lastDate != "" {
			series = append(series, capital)
		}
		capital += t.PnL
		lastDate = t.Date
	}
	if lastDate != "" {
		series = append(series, capital)
	}
	return series
}

// totalReturn is the percentage gain over the run. A zero initial
// capital yields 0, not a division fault.
func totalReturn(initialCapital, finalCapital float64) float64 {
	if initialCapital == 0 {
		return 0
	}
	return (finalCapital - initialCapital) / initialCapital * 100
}

// maxDrawdown is the largest peak-to-trough decline across the capital
// series, as a negative percentage. A series that never declines, or has
// a non-positive peak, reports 0.
func maxDrawdown(series []float64) float64 {
	var worst float64
	peak := math.Inf(-1)
	for _, c := range series {
		if c > peak {
			peak = c
		}
		if peak <= 0 {
			continue
		}
		dd := (c - peak) / peak * 100
		if dd < worst {
			worst = dd
		}
	}
	return worst
}

// sharpeRatio annualizes the mean daily return over its standard
// deviation. Series too short to form a return, or with zero variance,
// report 0.
func sharpeRatio(series []float64) float64 {
	if len(series) < 2 {
		return 0
	}
	var returns []float64
	for i := 1; i < len(series); i++ {
		if series[i-1] == 0 {
			continue
		}
		returns = append(returns, (series[i]-series[i-1])/series[i-1])
	}
	if len(returns) < 2 {
		return 0
	}

	var mean float64
	for _, r := range returns {
		mean += r
	}
	mean /= float64(len(returns))

	var variance float64
	for _, r := range returns {
		variance += (r - mean) * (r - mean)
	}
	variance /= float64(len(returns) - 1)
	if variance == 0 {
		return 0
	}
	return mean / math.Sqrt(variance) * math.Sqrt(tradingDaysPerYear)
}
