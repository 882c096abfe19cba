package backtest

import (
	"fmt"
	"math"
	"sort"

	"github.com/Knetic/govaluate"

	"github.com/chriseid/OptionBot/internal/data"
	"github.com/chriseid/OptionBot/internal/logger"
)

// CalibrationPoint maps an absolute target delta to a strike offset
// expressed as a fraction of the underlying price.
type CalibrationPoint struct {
	Delta  float64 `yaml:"delta" json:"delta"`
	Offset float64 `yaml:"offset" json:"offset"`
}

// Calibration is the pluggable delta-to-strike mapping. Points drive a
// piecewise-linear heuristic; the optional expressions replace it
// entirely for one option type. Expressions see two variables:
// S (underlying price) and D (signed target delta).
type Calibration struct {
	Points   []CalibrationPoint `yaml:"points" json:"points"`
	PutExpr  string             `yaml:"put_expr" json:"putExpr,omitempty"`
	CallExpr string             `yaml:"call_expr" json:"callExpr,omitempty"`
}

// DefaultCalibration returns the built-in delta table. A 0.50 delta sits
// at the money; smaller deltas step further out of the money.
func DefaultCalibration() Calibration {
	return Calibration{
		Points: []CalibrationPoint{
			{Delta: 0.05, Offset: 0.070},
			{Delta: 0.10, Offset: 0.050},
			{Delta: 0.15, Offset: 0.040},
			{Delta: 0.20, Offset: 0.030},
			{Delta: 0.25, Offset: 0.025},
			{Delta: 0.30, Offset: 0.020},
			{Delta: 0.40, Offset: 0.010},
			{Delta: 0.50, Offset: 0.000},
		},
	}
}

// StrikeResolver converts a leg's target delta into an expected strike.
//
// It is a calibrated heuristic, not a pricing model: the table and the
// optional expressions can be recalibrated from configuration without
// touching the engine. Resolution is a pure function of its inputs.
type StrikeResolver struct {
	points   []CalibrationPoint // sorted ascending by Delta
	putExpr  *govaluate.EvaluableExpression
	callExpr *govaluate.EvaluableExpression
}

// NewStrikeResolver compiles a calibration. An empty point set falls
// back to DefaultCalibration.
func NewStrikeResolver(cal Calibration) (*StrikeResolver, error) {
	if len(cal.Points) == 0 {
		cal.Points = DefaultCalibration().Points
	}
	points := make([]CalibrationPoint, len(cal.Points))
	copy(points, cal.Points)
	sort.Slice(points, func(i, j int) bool { return points[i].Delta < points[j].Delta })

	r := &StrikeResolver{points: points}
	var err error
	if cal.PutExpr != "" {
		r.putExpr, err = govaluate.NewEvaluableExpression(cal.PutExpr)
		if err != nil {
			return nil, fmt.Errorf("compile put strike expression: %w", err)
		}
	}
	if cal.CallExpr != "" {
		r.callExpr, err = govaluate.NewEvaluableExpression(cal.CallExpr)
		if err != nil {
			return nil, fmt.Errorf("compile call strike expression: %w", err)
		}
	}
	return r, nil
}

// Resolve maps (targetDelta, optionType, underlyingPrice) to an expected
// strike. Puts land below spot, calls above, scaled by the calibrated
// offset for the delta magnitude. Identical inputs always produce
// identical strikes.
func (r *StrikeResolver) Resolve(targetDelta float64, optType data.OptionType, underlyingPrice float64) (float64, error) {
	if underlyingPrice <= 0 {
		return 0, fmt.Errorf("%w: underlying price must be positive, got %.4f", ErrInvalidMarketData, underlyingPrice)
	}

	if expr := r.override(optType); expr != nil {
		return r.evalOverride(expr, targetDelta, underlyingPrice)
	}

	offset := r.offsetFor(math.Abs(targetDelta))
	var strike float64
	if optType == data.OptionPut {
		strike = underlyingPrice * (1 - offset)
	} else {
		strike = underlyingPrice * (1 + offset)
	}
	return math.Round(strike*100) / 100, nil
}

func (r *StrikeResolver) override(optType data.OptionType) *govaluate.EvaluableExpression {
	if optType == data.OptionPut {
		return r.putExpr
	}
	return r.callExpr
}

func (r *StrikeResolver) evalOverride(expr *govaluate.EvaluableExpression, targetDelta, underlyingPrice float64) (float64, error) {
	result, err := expr.Evaluate(map[string]any{
		"S": underlyingPrice,
		"D": targetDelta,
	})
	if err != nil {
		return 0, fmt.Errorf("evaluate strike expression: %w", err)
	}
	strike, ok := result.(float64)
	if !ok || strike <= 0 {
		return 0, fmt.Errorf("%w: strike expression produced %v", ErrInvalidMarketData, result)
	}
	logger.Tracef("strike override D=%.2f S=%.2f -> %.2f", targetDelta, underlyingPrice, strike)
	return math.Round(strike*100) / 100, nil
}

// offsetFor interpolates the offset for a delta magnitude. Deltas beyond
// the calibrated range clamp to the nearest end point.
func (r *StrikeResolver) offsetFor(delta float64) float64 {
	pts := r.points
	if delta <= pts[0].Delta {
		return pts[0].Offset
	}
	if delta >= pts[len(pts)-1].Delta {
		return pts[len(pts)-1].Offset
	}
	for i := 1; i < len(pts); i++ {
		if delta <= pts[i].Delta {
			lo, hi := pts[i-1], pts[i]
			frac := (delta - lo.Delta) / (hi.Delta - lo.Delta)
			return lo.Offset + frac*(hi.Offset-lo.Offset)
		}
	}
	return pts[len(pts)-1].Offset
}
