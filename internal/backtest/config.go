package backtest

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidConfig wraps every configuration validation failure.
	ErrInvalidConfig = errors.New("invalid backtest config")
	// ErrNoBars is returned when a run is started on an empty series.
	ErrNoBars = errors.New("no bars to simulate")
)

// Defaults used when the configuration leaves a field empty.
const (
	DefaultInitialCapital    = 10000.0
	DefaultTradeSizeFraction = 0.95
	DefaultLookback          = 50
	DefaultStopLossPct       = 2.0
	DefaultTakeProfitPct     = 5.0
)

// Config holds the parameters of one simulation.
type Config struct {
	InitialCapital    float64 `json:"initial_capital"`
	TradeSizeFraction float64 `json:"trade_size_fraction"`
	Lookback          int     `json:"lookback"`
	StopLossPct       float64 `json:"stop_loss_pct"`
	TakeProfitPct     float64 `json:"take_profit_pct"`

	// CloseOnEnd closes a position still open at the last bar with reason END_OF_DATA.
	CloseOnEnd bool `json:"close_on_end"`
	// ExitOnOpposite closes a position when the bar's signal points the other way.
	ExitOnOpposite bool `json:"exit_on_opposite"`
}

// DefaultConfig returns the parameters the original gold backtest ran with.
func DefaultConfig() Config {
	return Config{
		InitialCapital:    DefaultInitialCapital,
		TradeSizeFraction: DefaultTradeSizeFraction,
		Lookback:          DefaultLookback,
		StopLossPct:       DefaultStopLossPct,
		TakeProfitPct:     DefaultTakeProfitPct,
	}
}

// Validate rejects configurations the simulator cannot run with.
func (c Config) Validate() error {
	if c.InitialCapital <= 0 {
		return fmt.Errorf("%w: initial capital must be positive, got %v", ErrInvalidConfig, c.InitialCapital)
	}
	if c.TradeSizeFraction <= 0 || c.TradeSizeFraction > 1 {
		return fmt.Errorf("%w: trade size fraction must be in (0,1], got %v", ErrInvalidConfig, c.TradeSizeFraction)
	}
	if c.Lookback < 1 {
		return fmt.Errorf("%w: lookback must be >= 1, got %d", ErrInvalidConfig, c.Lookback)
	}
	if c.StopLossPct <= 0 {
		return fmt.Errorf("%w: stop loss pct must be positive, got %v", ErrInvalidConfig, c.StopLossPct)
	}
	if c.TakeProfitPct <= 0 {
		return fmt.Errorf("%w: take profit pct must be positive, got %v", ErrInvalidConfig, c.TakeProfitPct)
	}
	return nil
}
