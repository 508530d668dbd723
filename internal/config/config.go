package config

import (
	"fmt"
	"os"
	"strconv"

	"FiboTrader/internal/backtest"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Data providers.
const (
	ProviderYahoo   = "yahoo"
	ProviderBinance = "binance"
	ProviderCSV     = "csv"
)

// Config holds all application configuration.
type Config struct {
	DataSource struct {
		Provider  string `yaml:"provider"`
		Symbol    string `yaml:"symbol"`
		Days      int    `yaml:"days"`
		CSVPath   string `yaml:"csv_path"`
		APIKey    string `yaml:"api_key"`
		SecretKey string `yaml:"secret_key"`
	} `yaml:"data_source"`
	Backtest struct {
		InitialCapital    float64 `yaml:"initial_capital"`
		TradeSizeFraction float64 `yaml:"trade_size_fraction"`
		Lookback          int     `yaml:"lookback"`
		StopLossPct       float64 `yaml:"stop_loss_pct"`
		TakeProfitPct     float64 `yaml:"take_profit_pct"`
		RSIPeriod         int     `yaml:"rsi_period"`
		CloseOnEnd        bool    `yaml:"close_on_end"`
		ExitOnOpposite    bool    `yaml:"exit_on_opposite"`
	} `yaml:"backtest"`
	Sweep struct {
		StopLossPcts   []float64 `yaml:"stop_loss_pcts"`
		TakeProfitPcts []float64 `yaml:"take_profit_pcts"`
		Workers        int       `yaml:"workers"`
	} `yaml:"sweep"`
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	Schedule struct {
		Cron string `yaml:"cron"`
	} `yaml:"schedule"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Output struct {
		Dir string `yaml:"dir"`
	} `yaml:"output"`
	Proxy string `yaml:"proxy"`

	// set holds "section.key" for every value given by the file or the
	// environment, so an explicit zero is not replaced by a default.
	set map[string]bool
}

// Load reads an optional .env file and the YAML config, then applies
// environment variable overrides and defaults. A missing file is not an error.
func Load(path string) (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}
	cfg.set = presentKeys(data)

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyEnv() error {
	setString := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	setString("TELEGRAM_BOT_TOKEN", &c.Telegram.BotToken)
	setString("TELEGRAM_CHAT_ID", &c.Telegram.ChatID)
	setString("DATA_PROVIDER", &c.DataSource.Provider)
	setString("SYMBOL", &c.DataSource.Symbol)
	setString("CSV_PATH", &c.DataSource.CSVPath)
	setString("BINANCE_API_KEY", &c.DataSource.APIKey)
	setString("BINANCE_SECRET_KEY", &c.DataSource.SecretKey)
	setString("HTTPS_PROXY", &c.Proxy)
	setString("CRON_SCHEDULE", &c.Schedule.Cron)
	setString("SQLITE_PATH", &c.Database.SQLitePath)
	setString("OUTPUT_DIR", &c.Output.Dir)

	if c.set == nil {
		c.set = make(map[string]bool)
	}
	floats := []struct {
		key, field string
		dst        *float64
	}{
		{"INITIAL_CAPITAL", "backtest.initial_capital", &c.Backtest.InitialCapital},
		{"TRADE_SIZE_FRACTION", "backtest.trade_size_fraction", &c.Backtest.TradeSizeFraction},
		{"STOP_LOSS_PCT", "backtest.stop_loss_pct", &c.Backtest.StopLossPct},
		{"TAKE_PROFIT_PCT", "backtest.take_profit_pct", &c.Backtest.TakeProfitPct},
	}
	for _, f := range floats {
		if v := os.Getenv(f.key); v != "" {
			n, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return fmt.Errorf("invalid %s: %w", f.key, err)
			}
			*f.dst = n
			c.set[f.field] = true
		}
	}

	ints := []struct {
		key, field string
		dst        *int
	}{
		{"LOOKBACK", "backtest.lookback", &c.Backtest.Lookback},
		{"DAYS", "data_source.days", &c.DataSource.Days},
	}
	for _, i := range ints {
		if v := os.Getenv(i.key); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("invalid %s: %w", i.key, err)
			}
			*i.dst = n
			c.set[i.field] = true
		}
	}
	return nil
}

// applyDefaults fills fields that neither the file nor the environment set.
// Explicit zeros are kept and left to Validate.
func (c *Config) applyDefaults() {
	if c.DataSource.Provider == "" {
		c.DataSource.Provider = ProviderYahoo
	}
	if c.DataSource.Symbol == "" {
		c.DataSource.Symbol = "GOLD"
	}
	intDefault(c.set, "data_source.days", &c.DataSource.Days, 365)

	b := &c.Backtest
	floatDefault(c.set, "backtest.initial_capital", &b.InitialCapital, backtest.DefaultInitialCapital)
	floatDefault(c.set, "backtest.trade_size_fraction", &b.TradeSizeFraction, backtest.DefaultTradeSizeFraction)
	floatDefault(c.set, "backtest.stop_loss_pct", &b.StopLossPct, backtest.DefaultStopLossPct)
	floatDefault(c.set, "backtest.take_profit_pct", &b.TakeProfitPct, backtest.DefaultTakeProfitPct)
	intDefault(c.set, "backtest.lookback", &b.Lookback, backtest.DefaultLookback)
	intDefault(c.set, "backtest.rsi_period", &b.RSIPeriod, 14)

	if len(c.Sweep.StopLossPcts) == 0 {
		c.Sweep.StopLossPcts = []float64{1, 2, 3}
	}
	if len(c.Sweep.TakeProfitPcts) == 0 {
		c.Sweep.TakeProfitPcts = []float64{3, 5, 8}
	}

	if c.Schedule.Cron == "" {
		c.Schedule.Cron = "0 0 22 * * 1-5"
	}
	// an explicitly empty sqlite_path disables recording
	if c.Database.SQLitePath == "" && !c.set["database.sqlite_path"] {
		c.Database.SQLitePath = "data/fibotrader.db"
	}
}

func floatDefault(set map[string]bool, key string, dst *float64, def float64) {
	if !set[key] && *dst == 0 {
		*dst = def
	}
}

func intDefault(set map[string]bool, key string, dst *int, def int) {
	if !set[key] && *dst == 0 {
		*dst = def
	}
}

// presentKeys lists the "section.key" paths present in the YAML source,
// including keys with null or zero values.
func presentKeys(raw []byte) map[string]bool {
	keys := make(map[string]bool)
	var probe map[string]any
	if len(raw) == 0 || yaml.Unmarshal(raw, &probe) != nil {
		return keys
	}
	for section, v := range probe {
		keys[section] = true
		if m, ok := v.(map[string]any); ok {
			for k := range m {
				keys[section+"."+k] = true
			}
		}
	}
	return keys
}

// BacktestConfig converts the backtest section to simulator parameters.
func (c *Config) BacktestConfig() backtest.Config {
	return backtest.Config{
		InitialCapital:    c.Backtest.InitialCapital,
		TradeSizeFraction: c.Backtest.TradeSizeFraction,
		Lookback:          c.Backtest.Lookback,
		StopLossPct:       c.Backtest.StopLossPct,
		TakeProfitPct:     c.Backtest.TakeProfitPct,
		CloseOnEnd:        c.Backtest.CloseOnEnd,
		ExitOnOpposite:    c.Backtest.ExitOnOpposite,
	}
}

// Validate checks the configuration before any data is fetched.
func (c *Config) Validate() error {
	if err := c.BacktestConfig().Validate(); err != nil {
		return err
	}
	if c.Backtest.RSIPeriod < 1 {
		return fmt.Errorf("backtest.rsi_period must be >= 1")
	}
	switch c.DataSource.Provider {
	case ProviderYahoo, ProviderBinance:
	case ProviderCSV:
		if c.DataSource.CSVPath == "" {
			return fmt.Errorf("data_source.csv_path is required for the csv provider")
		}
	default:
		return fmt.Errorf("unknown data_source.provider %q", c.DataSource.Provider)
	}
	if c.DataSource.Days <= c.Backtest.Lookback {
		return fmt.Errorf("data_source.days (%d) must exceed backtest.lookback (%d)", c.DataSource.Days, c.Backtest.Lookback)
	}
	if (c.Telegram.BotToken == "") != (c.Telegram.ChatID == "") {
		return fmt.Errorf("telegram.bot_token and telegram.chat_id must be set together")
	}
	for _, v := range append(append([]float64{}, c.Sweep.StopLossPcts...), c.Sweep.TakeProfitPcts...) {
		if v <= 0 {
			return fmt.Errorf("sweep percentages must be positive, got %v", v)
		}
	}
	return nil
}

// TelegramEnabled reports whether notifications are configured.
func (c *Config) TelegramEnabled() bool {
	return c.Telegram.BotToken != "" && c.Telegram.ChatID != ""
}
