package calculator

import (
	"errors"
	"math"

	"FiboTrader/internal/model"
)

var (
	// ErrEmptyWindow is returned when a window contains no bars.
	ErrEmptyWindow = errors.New("empty window")
	// ErrDegenerateRange is returned when a window's high equals its low.
	ErrDegenerateRange = errors.New("degenerate range: high equals low")
)

// WindowRange scans the trailing `lookback` bars and returns the highest high,
// the lowest low and the indices (into bars) where each was set. Ties keep the
// earliest bar. A non-positive lookback scans the whole slice.
func WindowRange(bars []model.Bar, lookback int) (high, low float64, highIdx, lowIdx int, err error) {
	n := len(bars)
	if n == 0 {
		return 0, 0, -1, -1, ErrEmptyWindow
	}
	start := 0
	if lookback > 0 && n > lookback {
		start = n - lookback
	}
	high = math.Inf(-1)
	low = math.Inf(1)
	for i := start; i < n; i++ {
		if bars[i].High > high {
			high = bars[i].High
			highIdx = i
		}
		if bars[i].Low < low {
			low = bars[i].Low
			lowIdx = i
		}
	}
	return high, low, highIdx, lowIdx, nil
}

// FibonacciLevels computes retracement levels over the trailing `lookback`
// bars of the prefix. The trend is up when the window low was set before the
// window high. Levels are high - diff*ratio for an up trend and
// low + diff*ratio for a down trend.
func FibonacciLevels(prefix []model.Bar, lookback int) (model.FibonacciLevels, error) {
	high, low, hi, lo, err := WindowRange(prefix, lookback)
	if err != nil {
		return model.FibonacciLevels{}, err
	}
	if high <= low {
		return model.FibonacciLevels{}, ErrDegenerateRange
	}

	lv := model.FibonacciLevels{
		High:      high,
		Low:       low,
		HighIndex: hi,
		LowIndex:  lo,
		Trend:     model.TrendDown,
	}
	if lo < hi {
		lv.Trend = model.TrendUp
	}

	diff := high - low
	for _, r := range model.FibRatios {
		price := low + diff*r.Ratio
		if lv.Trend == model.TrendUp {
			price = high - diff*r.Ratio
		}
		lv.SetLevel(r.Label, price)
	}
	return lv, nil
}
