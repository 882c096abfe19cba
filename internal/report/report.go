package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/chriseid/OptionBot/internal/backtest"
)

func WriteJSON(res *backtest.Result, outdir string) error {
	b, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(outdir, "result.json"), b, 0644)
}

func WriteCSV(trades []backtest.Trade, outdir string) error {
	f, err := os.Create(filepath.Join(outdir, "trades.csv"))
	if err != nil {
		return err
	}
	defer f.Close()
	w := csv.NewWriter(f)
	defer w.Flush()
	headers := []string{"date", "action", "role", "option_type", "strike", "expiration", "quantity", "price", "pnl", "estimated"}
	if err := w.Write(headers); err != nil {
		return err
	}
	for _, t := range trades {
		row := []string{
			t.Date,
			string(t.Action),
			string(t.Role),
			string(t.Option.OptionType),
			fmt.Sprintf("%.2f", t.Option.Strike),
			t.Option.Expiration,
			fmt.Sprintf("%d", t.Option.Quantity),
			fmt.Sprintf("%.2f", t.Price),
			fmt.Sprintf("%.2f", t.PnL),
			fmt.Sprintf("%t", t.Estimated),
		}
		_ = w.Write(row)
	}
	return nil
}
