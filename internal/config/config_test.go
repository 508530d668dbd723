package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"FiboTrader/internal/backtest"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.DataSource.Provider != ProviderYahoo || cfg.DataSource.Symbol != "GOLD" || cfg.DataSource.Days != 365 {
		t.Errorf("unexpected data source defaults: %+v", cfg.DataSource)
	}
	bt := cfg.BacktestConfig()
	if bt != backtest.DefaultConfig() {
		t.Errorf("backtest defaults = %+v, want %+v", bt, backtest.DefaultConfig())
	}
	if cfg.Database.SQLitePath != "data/fibotrader.db" {
		t.Errorf("sqlite default = %q", cfg.Database.SQLitePath)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
	if cfg.TelegramEnabled() {
		t.Error("telegram should be disabled without credentials")
	}
}

func TestLoad_YAMLAndEnv(t *testing.T) {
	path := writeConfig(t, `
data_source:
  provider: binance
  symbol: BTCUSDT
  days: 500
backtest:
  initial_capital: 5000
  stop_loss_pct: 1.5
  close_on_end: true
sweep:
  stop_loss_pcts: [1, 2]
database:
  sqlite_path: ""
`)
	t.Setenv("TAKE_PROFIT_PCT", "7.5")
	t.Setenv("LOOKBACK", "30")

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.DataSource.Provider != ProviderBinance || cfg.DataSource.Symbol != "BTCUSDT" || cfg.DataSource.Days != 500 {
		t.Errorf("unexpected data source: %+v", cfg.DataSource)
	}
	bt := cfg.BacktestConfig()
	if bt.InitialCapital != 5000 || bt.StopLossPct != 1.5 || bt.TakeProfitPct != 7.5 || bt.Lookback != 30 || !bt.CloseOnEnd {
		t.Errorf("unexpected backtest config: %+v", bt)
	}
	if bt.TradeSizeFraction != backtest.DefaultTradeSizeFraction {
		t.Errorf("fraction default not applied: %v", bt.TradeSizeFraction)
	}
	if len(cfg.Sweep.StopLossPcts) != 2 || len(cfg.Sweep.TakeProfitPcts) != 3 {
		t.Errorf("unexpected sweep grid: %+v", cfg.Sweep)
	}
	if cfg.Database.SQLitePath != "" {
		t.Errorf("explicitly empty sqlite_path must disable recording, got %q", cfg.Database.SQLitePath)
	}
}

func TestLoad_BadEnv(t *testing.T) {
	t.Setenv("INITIAL_CAPITAL", "lots")
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for non-numeric INITIAL_CAPITAL")
	}
}

func TestLoad_BadYAML(t *testing.T) {
	if _, err := Load(writeConfig(t, "backtest: [1, 2")); err == nil {
		t.Error("expected parse error")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		invalid bool
	}{
		{"negative capital", func(c *Config) { c.Backtest.InitialCapital = -1 }, true},
		{"fraction above one", func(c *Config) { c.Backtest.TradeSizeFraction = 1.5 }, true},
		{"negative stop", func(c *Config) { c.Backtest.StopLossPct = -2 }, true},
		{"unknown provider", func(c *Config) { c.DataSource.Provider = "bloomberg" }, false},
		{"csv without path", func(c *Config) { c.DataSource.Provider = ProviderCSV }, false},
		{"too few days", func(c *Config) { c.DataSource.Days = 20 }, false},
		{"half telegram", func(c *Config) { c.Telegram.BotToken = "x" }, false},
		{"bad sweep", func(c *Config) { c.Sweep.TakeProfitPcts = []float64{0} }, false},
	}
	for _, tt := range tests {
		cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
		if err != nil {
			t.Fatal(err)
		}
		tt.mutate(cfg)
		err = cfg.Validate()
		if err == nil {
			t.Errorf("%s: expected validation error", tt.name)
			continue
		}
		if tt.invalid && !errors.Is(err, backtest.ErrInvalidConfig) {
			t.Errorf("%s: expected ErrInvalidConfig, got %v", tt.name, err)
		}
	}
}

func TestLoad_ExplicitZeroIsRejected(t *testing.T) {
	t.Run("yaml", func(t *testing.T) {
		cfg, err := Load(writeConfig(t, `
backtest:
  initial_capital: 0
  trade_size_fraction: 0
`))
		if err != nil {
			t.Fatal(err)
		}
		if cfg.Backtest.InitialCapital != 0 || cfg.Backtest.TradeSizeFraction != 0 {
			t.Fatalf("explicit zeros replaced by defaults: %+v", cfg.Backtest)
		}
		if err := cfg.Validate(); !errors.Is(err, backtest.ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}
	})

	envs := []string{"INITIAL_CAPITAL", "TRADE_SIZE_FRACTION", "STOP_LOSS_PCT", "TAKE_PROFIT_PCT", "LOOKBACK"}
	for _, key := range envs {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, "0")
			cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
			if err != nil {
				t.Fatal(err)
			}
			if err := cfg.Validate(); !errors.Is(err, backtest.ErrInvalidConfig) {
				t.Errorf("%s=0: expected ErrInvalidConfig, got %v", key, err)
			}
		})
	}
}

func TestLoad_AbsentKeysDefault(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
backtest:
  stop_loss_pct: 3
`))
	if err != nil {
		t.Fatal(err)
	}
	bt := cfg.BacktestConfig()
	if bt.StopLossPct != 3 || bt.InitialCapital != backtest.DefaultInitialCapital || bt.Lookback != backtest.DefaultLookback {
		t.Errorf("unexpected backtest config: %+v", bt)
	}
}
