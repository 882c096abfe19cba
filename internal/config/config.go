// Package config loads the application configuration from a YAML file.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/chriseid/OptionBot/internal/backtest"
	"github.com/chriseid/OptionBot/internal/data"
)

type Config struct {
	Server      ServerConfig         `yaml:"server"`
	Database    DatabaseConfig       `yaml:"database"`
	Data        DataConfig           `yaml:"data"`
	Calibration backtest.Calibration `yaml:"calibration"`
	Logging     LoggingConfig        `yaml:"logging"`
}

type ServerConfig struct {
	Port int `yaml:"port"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// DataConfig selects the chain source. Exactly one of HistoricalFile,
// Remote, or Synthetic feeds the chain store; HistoricalFile wins when
// more than one is set.
type DataConfig struct {
	HistoricalFile string               `yaml:"historical_file"`
	Remote         RemoteConfig         `yaml:"remote"`
	Synthetic      data.SyntheticConfig `yaml:"synthetic"`
}

type RemoteConfig struct {
	BaseURL string `yaml:"base_url"`
	APIKey  string `yaml:"api_key"`
	Symbol  string `yaml:"symbol"`
	Start   string `yaml:"start"`
	End     string `yaml:"end"`
}

type LoggingConfig struct {
	Verbosity int `yaml:"verbosity"`
}

// Load reads, defaults and validates the configuration file.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	setDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

// Default returns a runnable configuration without a file, backed by the
// synthetic chain generator.
func Default() *Config {
	cfg := &Config{}
	setDefaults(cfg)
	return cfg
}

func setDefaults(cfg *Config) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8000
	}
	if cfg.Database.Path == "" {
		cfg.Database.Path = "optionbot.db"
	}
	if cfg.Data.Synthetic.Start == "" {
		cfg.Data.Synthetic.Start = "2024-01-02"
	}
	if cfg.Data.Synthetic.End == "" {
		cfg.Data.Synthetic.End = "2024-03-28"
	}
	if len(cfg.Calibration.Points) == 0 {
		cfg.Calibration = backtest.Calibration{
			Points:   backtest.DefaultCalibration().Points,
			PutExpr:  cfg.Calibration.PutExpr,
			CallExpr: cfg.Calibration.CallExpr,
		}
	}
}

func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	if c.Data.Remote.BaseURL != "" {
		if c.Data.Remote.APIKey == "" {
			return fmt.Errorf("data.remote.api_key is required when data.remote.base_url is set")
		}
		if c.Data.Remote.Symbol == "" || c.Data.Remote.Start == "" || c.Data.Remote.End == "" {
			return fmt.Errorf("data.remote requires symbol, start and end")
		}
	}
	for _, p := range c.Calibration.Points {
		if p.Delta <= 0 || p.Delta > 1 {
			return fmt.Errorf("calibration delta %.4f out of (0, 1]", p.Delta)
		}
	}
	return nil
}

// LoadChain materializes trading days from the configured source.
func (c *Config) LoadChain() ([]data.TradingDay, error) {
	switch {
	case c.Data.HistoricalFile != "":
		return data.LoadSnapshotFile(c.Data.HistoricalFile)
	case c.Data.Remote.BaseURL != "":
		loader := data.NewRemoteLoader(c.Data.Remote.BaseURL, c.Data.Remote.APIKey)
		return loader.FetchDays(c.Data.Remote.Symbol, c.Data.Remote.Start, c.Data.Remote.End)
	default:
		return data.GenerateSyntheticChain(c.Data.Synthetic)
	}
}
