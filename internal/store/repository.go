package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/chriseid/OptionBot/internal/backtest"
	"github.com/chriseid/OptionBot/internal/strategy"
)

// ErrNotFound reports a missing strategy or backtest record.
var ErrNotFound = errors.New("record not found")

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Strategies

func (r *Repository) SaveStrategy(def *strategy.Definition) error {
	rec, err := toStrategyRecord(def)
	if err != nil {
		return err
	}
	return r.db.Create(rec).Error
}

func (r *Repository) UpdateStrategy(def *strategy.Definition) error {
	rec, err := toStrategyRecord(def)
	if err != nil {
		return err
	}
	res := r.db.Model(&StrategyRecord{}).Where("id = ?", rec.ID).Updates(rec)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: strategy %s", ErrNotFound, def.ID)
	}
	return nil
}

func (r *Repository) GetStrategy(id string) (*strategy.Definition, error) {
	var rec StrategyRecord
	err := r.db.Where("id = ?", id).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: strategy %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return fromStrategyRecord(&rec)
}

func (r *Repository) ListStrategies() ([]*strategy.Definition, error) {
	var recs []StrategyRecord
	if err := r.db.Order("created_at DESC").Find(&recs).Error; err != nil {
		return nil, err
	}
	defs := make([]*strategy.Definition, 0, len(recs))
	for i := range recs {
		def, err := fromStrategyRecord(&recs[i])
		if err != nil {
			return nil, err
		}
		defs = append(defs, def)
	}
	return defs, nil
}

func (r *Repository) DeleteStrategy(id string) error {
	res := r.db.Where("id = ?", id).Delete(&StrategyRecord{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: strategy %s", ErrNotFound, id)
	}
	return nil
}

// Backtests

func (r *Repository) SaveBacktest(res *backtest.Result) error {
	rec, err := toBacktestRecord(res)
	if err != nil {
		return err
	}
	return r.db.Create(rec).Error
}

func (r *Repository) GetBacktest(id string) (*backtest.Result, error) {
	var rec BacktestRecord
	err := r.db.Where("id = ?", id).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: backtest %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return fromBacktestRecord(&rec)
}

func (r *Repository) ListBacktests(strategyID string) ([]*backtest.Result, error) {
	var recs []BacktestRecord
	q := r.db.Order("created_at DESC")
	if strategyID != "" {
		q = q.Where("strategy_id = ?", strategyID)
	}
	if err := q.Find(&recs).Error; err != nil {
		return nil, err
	}
	results := make([]*backtest.Result, 0, len(recs))
	for i := range recs {
		res, err := fromBacktestRecord(&recs[i])
		if err != nil {
			return nil, err
		}
		results = append(results, res)
	}
	return results, nil
}

// Converters

func toStrategyRecord(def *strategy.Definition) (*StrategyRecord, error) {
	legs, err := json.Marshal(def.Legs)
	if err != nil {
		return nil, fmt.Errorf("encode legs: %w", err)
	}
	return &StrategyRecord{
		ID:         def.ID,
		Name:       def.Name,
		Symbol:     def.Symbol,
		Kind:       string(def.Kind),
		Expiration: def.Expiration,
		Quantity:   def.Quantity,
		LegsJSON:   string(legs),
	}, nil
}

func fromStrategyRecord(rec *StrategyRecord) (*strategy.Definition, error) {
	legs := map[strategy.Role]float64{}
	if err := json.Unmarshal([]byte(rec.LegsJSON), &legs); err != nil {
		return nil, fmt.Errorf("decode legs for strategy %s: %w", rec.ID, err)
	}
	return &strategy.Definition{
		ID:         rec.ID,
		Name:       rec.Name,
		Symbol:     rec.Symbol,
		Kind:       strategy.Kind(rec.Kind),
		Expiration: rec.Expiration,
		Legs:       legs,
		Quantity:   rec.Quantity,
		CreatedAt:  rec.CreatedAt.UTC().Format(time.RFC3339),
	}, nil
}

func toBacktestRecord(res *backtest.Result) (*BacktestRecord, error) {
	trades, err := json.Marshal(res.Trades)
	if err != nil {
		return nil, fmt.Errorf("encode trades: %w", err)
	}
	return &BacktestRecord{
		ID:             res.BacktestID,
		StrategyID:     res.StrategyID,
		StartDate:      res.StartDate,
		EndDate:        res.EndDate,
		InitialCapital: res.InitialCapital,
		FinalCapital:   res.FinalCapital,
		TotalReturn:    res.TotalReturn,
		MaxDrawdown:    res.MaxDrawdown,
		SharpeRatio:    res.SharpeRatio,
		TradeCount:     len(res.Trades),
		TradesJSON:     string(trades),
	}, nil
}

func fromBacktestRecord(rec *BacktestRecord) (*backtest.Result, error) {
	var trades []backtest.Trade
	if rec.TradesJSON != "" {
		if err := json.Unmarshal([]byte(rec.TradesJSON), &trades); err != nil {
			return nil, fmt.Errorf("decode trades for backtest %s: %w", rec.ID, err)
		}
	}
	return &backtest.Result{
		BacktestID:     rec.ID,
		StrategyID:     rec.StrategyID,
		StartDate:      rec.StartDate,
		EndDate:        rec.EndDate,
		InitialCapital: rec.InitialCapital,
		FinalCapital:   rec.FinalCapital,
		TotalReturn:    rec.TotalReturn,
		MaxDrawdown:    rec.MaxDrawdown,
		SharpeRatio:    rec.SharpeRatio,
		Trades:         trades,
		CreatedAt:      rec.CreatedAt.UTC().Format(time.RFC3339),
	}, nil
}
