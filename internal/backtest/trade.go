package backtest

import (
	"github.com/chriseid/OptionBot/internal/data"
	"github.com/chriseid/OptionBot/internal/strategy"
)

// LegSnapshot records the contract a trade touched, as it was priced at
// the moment of execution.
type LegSnapshot struct {
	Symbol     string          `json:"symbol"`
	Strike     float64         `json:"strike"`
	Expiration string          `json:"expiration"`
	OptionType data.OptionType `json:"optionType"`
	Premium    float64         `json:"premium"`
	Quantity   int             `json:"quantity"`
}

// Trade is one executed leg of the backtest ledger. PnL carries the cash
// flow convention used throughout: buying pays premium out (negative),
// selling collects it (positive), each scaled by quantity and the
// 100-share contract multiplier.
type Trade struct {
	Date      string          `json:"date"`
	Action    strategy.Action `json:"action"`
	Role      strategy.Role   `json:"role"`
	Option    LegSnapshot     `json:"option"`
	Price     float64         `json:"price"`
	PnL       float64         `json:"pnl"`
	Estimated bool            `json:"estimated,omitempty"`
}

const contractMultiplier = 100

func cashFlow(action strategy.Action, price float64, quantity int) float64 {
	flow := price * float64(quantity) * contractMultiplier
	if action == strategy.ActionBuy {
		return -flow
	}
	return flow
}

// buildEntry opens a leg using the role's natural action.
func buildEntry(date, symbol string, leg strategy.Leg, expiration string, m MatchResult, quantity int, estimated bool) Trade {
	return Trade{
		Date:   date,
		Action: leg.Action,
		Role:   leg.Role,
		Option: LegSnapshot{
			Symbol:     symbol,
			Strike:     m.Strike,
			Expiration: expiration,
			OptionType: leg.OptionType,
			Premium:    m.Price,
			Quantity:   quantity,
		},
		Price:     m.Price,
		PnL:       cashFlow(leg.Action, m.Price, quantity),
		Estimated: estimated,
	}
}

// buildExit closes a previously opened leg by reversing its action, so a
// bought leg is sold back (cash in) and a sold leg is bought back
// (cash out).
func buildExit(date string, entry Trade, m MatchResult, estimated bool) Trade {
	action := entry.Action.Opposite()
	opt := entry.Option
	opt.Strike = m.Strike
	opt.Premium = m.Price
	return Trade{
		Date:      date,
		Action:    action,
		Role:      entry.Role,
		Option:    opt,
		Price:     m.Price,
		PnL:       cashFlow(action, m.Price, opt.Quantity),
		Estimated: estimated,
	}
}
