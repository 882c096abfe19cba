package store

import "time"

// StrategyRecord is a persisted strategy definition. Legs are stored as
// a JSON object keyed by role so the schema survives new strategy kinds
// without migration.
type StrategyRecord struct {
	ID        string    `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Name       string `gorm:"not null" json:"name"`
	Symbol     string `gorm:"index;not null" json:"symbol"`
	Kind       string `gorm:"not null" json:"strategy"`
	Expiration string `gorm:"not null" json:"expiration"`
	Quantity   int    `gorm:"not null" json:"quantity"`
	LegsJSON   string `gorm:"type:text;not null" json:"legs_json"`
}

// BacktestRecord is one completed backtest run. The full trade ledger is
// stored as JSON; the scalar metrics are also columns for querying.
type BacktestRecord struct {
	ID        string    `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`

	StrategyID     string  `gorm:"index;not null" json:"strategy_id"`
	StartDate      string  `gorm:"not null" json:"start_date"`
	EndDate        string  `gorm:"not null" json:"end_date"`
	InitialCapital float64 `json:"initial_capital"`
	FinalCapital   float64 `json:"final_capital"`
	TotalReturn    float64 `json:"total_return"`
	MaxDrawdown    float64 `gorm:"column:max_drawdown" json:"max_drawdown"`
	SharpeRatio    float64 `json:"sharpe_ratio"`
	TradeCount     int     `json:"trade_count"`
	TradesJSON     string  `gorm:"type:text" json:"trades_json"`
}
