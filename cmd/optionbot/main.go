package main

import (
	"encoding/json"
	"flag"
	"log"
	"os"
	"time"

	"github.com/chriseid/OptionBot/internal/backtest"
	"github.com/chriseid/OptionBot/internal/config"
	"github.com/chriseid/OptionBot/internal/data"
	"github.com/chriseid/OptionBot/internal/httpapi"
	"github.com/chriseid/OptionBot/internal/logger"
	"github.com/chriseid/OptionBot/internal/report"
	"github.com/chriseid/OptionBot/internal/store"
	"github.com/chriseid/OptionBot/internal/strategy"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config (defaults apply when omitted)")
	serve := flag.Bool("serve", false, "run as REST server")
	strategyPath := flag.String("strategy", "", "path to a strategy definition JSON (one-shot mode)")
	start := flag.String("start", "", "backtest start date (YYYY-MM-DD)")
	end := flag.String("end", "", "backtest end date (YYYY-MM-DD)")
	capital := flag.Float64("capital", 10000, "initial capital")
	outdir := flag.String("out", "reports", "report output directory (one-shot mode)")
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			log.Fatalf("loading config: %v", err)
		}
		cfg = loaded
	}
	logger.SetVerbosity(cfg.Logging.Verbosity)

	days, err := cfg.LoadChain()
	if err != nil {
		log.Fatalf("loading chain data: %v", err)
	}
	chain := data.NewStore(days)
	logger.Infof("chain store loaded: %d trading days, symbols %v", chain.Len(), chain.Symbols())

	resolver, err := backtest.NewStrikeResolver(cfg.Calibration)
	if err != nil {
		log.Fatalf("building strike resolver: %v", err)
	}
	engine := backtest.NewEngine(resolver)

	if *serve {
		db, err := store.NewDatabase(cfg.Database.Path)
		if err != nil {
			log.Fatalf("opening database: %v", err)
		}
		repo := store.NewRepository(db)
		srv := httpapi.NewServer(engine, chain, repo)
		logger.Infof("listening on :%d", cfg.Server.Port)
		log.Fatal(srv.Run(cfg.Server.Port))
		return
	}

	if *strategyPath == "" || *start == "" || *end == "" {
		log.Fatal("one-shot mode requires -strategy, -start and -end (or use -serve)")
	}

	def, err := loadStrategy(*strategyPath)
	if err != nil {
		log.Fatalf("loading strategy: %v", err)
	}

	began := time.Now()
	res, err := engine.Run(def, *start, *end, *capital, chain.Days(def.Symbol, *start, *end))
	if err != nil {
		log.Fatalf("backtest failed: %v", err)
	}

	if err := os.MkdirAll(*outdir, 0755); err != nil {
		log.Fatalf("creating output dir %s: %v", *outdir, err)
	}
	if err := report.WriteJSON(res, *outdir); err != nil {
		log.Fatalf("writing result.json: %v", err)
	}
	if err := report.WriteCSV(res.Trades, *outdir); err != nil {
		log.Fatalf("writing trades.csv: %v", err)
	}
	logger.Infof("finished in %v, wrote %d trades to %s", time.Since(began), len(res.Trades), *outdir)
}

func loadStrategy(path string) (*strategy.Definition, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var def strategy.Definition
	if err := json.Unmarshal(raw, &def); err != nil {
		return nil, err
	}
	if def.ID == "" {
		def.ID = "adhoc"
	}
	return &def, nil
}
