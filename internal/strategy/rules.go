package strategy

import "FiboTrader/internal/model"

// RSI band inside which entries are allowed (exclusive on both ends).
const (
	RSILower = 30.0
	RSIUpper = 70.0
)

// Decide maps a bar's close and RSI against the window's levels to a signal.
// Up trend: a close below the 61.8% retracement is a BUY.
// Down trend: a close above the 38.2% retracement is a SELL.
// Both require a neutral RSI.
func Decide(close, rsi float64, lv model.FibonacciLevels) model.Signal {
	if rsi <= RSILower || rsi >= RSIUpper {
		return model.SignalHold
	}
	switch lv.Trend {
	case model.TrendUp:
		if close < lv.Level618 {
			return model.SignalBuy
		}
	case model.TrendDown:
		if close > lv.Level382 {
			return model.SignalSell
		}
	}
	return model.SignalHold
}
