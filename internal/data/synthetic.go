package data

import (
	"math"
	"math/rand"
	"time"

	"github.com/chriseid/OptionBot/internal/pricing"
)

// SyntheticConfig controls the deterministic chain generator.
type SyntheticConfig struct {
	Symbol     string  `yaml:"symbol"`
	Start      string  `yaml:"start"`
	End        string  `yaml:"end"`
	Seed       int64   `yaml:"seed"`
	StartPrice float64 `yaml:"start_price"`
	StrikeStep float64 `yaml:"strike_step"` // strike grid spacing
	GridWidth  int     `yaml:"grid_width"`  // strikes on each side of spot
	Volatility float64 `yaml:"volatility"`  // annualized, for quote mids
}

func (c *SyntheticConfig) applyDefaults() {
	if c.Symbol == "" {
		c.Symbol = "SPY"
	}
	if c.StartPrice == 0 {
		c.StartPrice = 100.0
	}
	if c.StrikeStep == 0 {
		c.StrikeStep = 1.0
	}
	if c.GridWidth == 0 {
		c.GridWidth = 15
	}
	if c.Volatility == 0 {
		c.Volatility = 0.20
	}
	if c.Seed == 0 {
		c.Seed = 1
	}
}

// GenerateSyntheticChain produces a random-walk underlying with a full
// strike grid of put and call quotes for every weekday in [start, end].
//
// Each strike carries quotes under two expirations: the same-day "0DTE"
// tag and the last weekday of the window as a calendar expiration. Mids
// come from Black-Scholes so spreads behave plausibly across the grid.
// Identical configs always generate identical chains.
func GenerateSyntheticChain(cfg SyntheticConfig) ([]TradingDay, error) {
	cfg.applyDefaults()

	start, err := time.Parse(DateLayout, cfg.Start)
	if err != nil {
		return nil, err
	}
	end, err := time.Parse(DateLayout, cfg.End)
	if err != nil {
		return nil, err
	}

	rng := rand.New(rand.NewSource(cfg.Seed))
	calendarExpiry := lastWeekday(end).Format(DateLayout)

	var out []TradingDay
	price := cfg.StartPrice
	for cur := start; !cur.After(end); cur = cur.AddDate(0, 0, 1) {
		if cur.Weekday() == time.Saturday || cur.Weekday() == time.Sunday {
			continue
		}
		price += rng.NormFloat64() * 0.01 * price
		if price < cfg.StrikeStep {
			price = cfg.StrikeStep
		}

		day := TradingDay{
			Symbol:          cfg.Symbol,
			Date:            cur.Format(DateLayout),
			UnderlyingPrice: math.Round(price*100) / 100,
		}

		atm := math.Round(price/cfg.StrikeStep) * cfg.StrikeStep
		for i := -cfg.GridWidth; i <= cfg.GridWidth; i++ {
			strike := atm + float64(i)*cfg.StrikeStep
			if strike <= 0 {
				continue
			}
			for _, tag := range []string{Expiration0DTE, calendarExpiry} {
				T := 1.0 / 252.0
				if tag != Expiration0DTE {
					exp, _ := time.Parse(DateLayout, tag)
					T = math.Max(exp.Sub(cur).Hours()/(24*365), 1.0/252.0)
				}
				for _, side := range []OptionType{OptionPut, OptionCall} {
					mid := pricing.BlackScholesPrice(side == OptionCall, day.UnderlyingPrice, strike, T, 0.02, cfg.Volatility)
					day.Quotes = append(day.Quotes, OptionQuote{
						Strike:     strike,
						Expiration: tag,
						OptionType: side,
						Mid:        math.Round(mid*100) / 100,
					})
				}
			}
		}
		out = append(out, day)
	}
	return out, nil
}

func lastWeekday(d time.Time) time.Time {
	for d.Weekday() == time.Saturday || d.Weekday() == time.Sunday {
		d = d.AddDate(0, 0, -1)
	}
	return d
}
