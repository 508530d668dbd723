package strategy

import (
	"errors"
	"fmt"
	"log"

	"FiboTrader/internal/calculator"
	"FiboTrader/internal/model"
)

// LevelsFunc computes Fibonacci levels from a series prefix. The prefix ends
// at the bar being evaluated; implementations must not look past it.
type LevelsFunc func(prefix []model.Bar) (model.FibonacciLevels, error)

// TrailingLevels returns the default LevelsFunc: levels over the trailing
// `lookback` bars of the prefix.
func TrailingLevels(lookback int) LevelsFunc {
	return func(prefix []model.Bar) (model.FibonacciLevels, error) {
		return calculator.FibonacciLevels(prefix, lookback)
	}
}

// Generator annotates a series with signals.
type Generator struct {
	Lookback int
	Levels   LevelsFunc
	Verbose  bool
}

// NewGenerator creates a Generator. A nil levels function selects TrailingLevels.
func NewGenerator(lookback int, levels LevelsFunc) *Generator {
	if levels == nil {
		levels = TrailingLevels(lookback)
	}
	return &Generator{Lookback: lookback, Levels: levels}
}

// Generate is shorthand for NewGenerator(lookback, levels).Generate(bars).
func Generate(bars []model.Bar, lookback int, levels LevelsFunc) ([]model.Bar, error) {
	return NewGenerator(lookback, levels).Generate(bars)
}

// Generate returns a copy of bars with Signal set on every bar. The first
// Lookback bars are HOLD. A bar whose levels cannot be computed is HOLD.
func (g *Generator) Generate(bars []model.Bar) ([]model.Bar, error) {
	if g.Lookback < 1 {
		return nil, fmt.Errorf("lookback must be >= 1, got %d", g.Lookback)
	}
	if g.Levels == nil {
		return nil, errors.New("levels function is required")
	}

	out := make([]model.Bar, len(bars))
	copy(out, bars)
	for i := range out {
		out[i].Signal = model.SignalHold
		if i < g.Lookback {
			continue
		}
		lv, err := g.levelsAt(bars, i)
		if err != nil {
			if g.Verbose {
				log.Printf("[WARN] bar %d (%s): levels unavailable: %v", i, bars[i].Time.Format("2006-01-02"), err)
			}
			continue
		}
		out[i].Signal = Decide(bars[i].Close, bars[i].RSI, lv)
	}
	return out, nil
}

// levelsAt evaluates the levels function on bars[0..i]. The prefix has its
// capacity clipped so appends cannot reach later bars, and a panicking
// collaborator is reported as an error.
func (g *Generator) levelsAt(bars []model.Bar, i int) (lv model.FibonacciLevels, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("levels function panicked: %v", r)
		}
	}()
	return g.Levels(bars[: i+1 : i+1])
}

// Snapshot describes the last bar of the series for the market brief.
func (g *Generator) Snapshot(symbol string, bars []model.Bar) model.MarketSnapshot {
	if len(bars) == 0 {
		return model.MarketSnapshot{Symbol: symbol, Signal: model.SignalHold, LevelsErr: "no data"}
	}
	i := len(bars) - 1
	last := bars[i]
	snap := model.MarketSnapshot{
		Symbol:  symbol,
		Time:    last.Time,
		Price:   last.Close,
		RSI:     last.RSI,
		MACD:    last.MACD,
		HasMACD: last.HasMACD,
		Signal:  model.SignalHold,
	}
	lv, err := g.levelsAt(bars, i)
	if err != nil {
		snap.LevelsErr = err.Error()
		return snap
	}
	snap.Levels = lv
	if i >= g.Lookback {
		snap.Signal = Decide(last.Close, last.RSI, lv)
	}
	return snap
}
