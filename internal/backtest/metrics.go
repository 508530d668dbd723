package backtest

import (
	"math"

	"FiboTrader/internal/model"

	"github.com/shopspring/decimal"
)

// TradingDaysPerYear annualises the Sharpe ratio.
const TradingDaysPerYear = 252

// ComputeMetrics derives the performance summary from a closed-trade log and
// the per-bar equity curve. With no trades every field is zero.
func ComputeMetrics(trades []model.Trade, equity []float64, initialCapital float64) model.Metrics {
	if len(trades) == 0 {
		return model.Metrics{}
	}

	var m model.Metrics
	m.Trades = len(trades)

	var grossWin, grossLoss float64
	for _, t := range trades {
		if t.PnL > 0 {
			m.WinningTrades++
			grossWin += t.PnL
		} else {
			m.LosingTrades++
			grossLoss += t.PnL
		}
	}

	m.WinRate = 100 * float64(m.WinningTrades) / float64(m.Trades)
	if grossLoss != 0 {
		m.ProfitFactor = grossWin / math.Abs(grossLoss)
	}
	if m.WinningTrades > 0 {
		m.AvgWin = grossWin / float64(m.WinningTrades)
	}
	if m.LosingTrades > 0 {
		m.AvgLoss = grossLoss / float64(m.LosingTrades)
	}
	if m.AvgLoss != 0 {
		m.RiskRewardRatio = math.Abs(m.AvgWin / m.AvgLoss)
	}

	m.MaxDrawdown = MaxDrawdown(equity)
	m.SharpeRatio = SharpeRatio(equity)
	if len(equity) > 0 && initialCapital > 0 {
		m.TotalReturn = 100 * (equity[len(equity)-1] - initialCapital) / initialCapital
	}
	return m
}

// MaxDrawdown returns the deepest peak-to-trough decline of the curve as a
// non-positive percentage.
func MaxDrawdown(equity []float64) float64 {
	worst := 0.0
	peak := math.Inf(-1)
	for _, v := range equity {
		if v > peak {
			peak = v
		}
		if peak <= 0 {
			continue
		}
		if dd := (v - peak) / peak; dd < worst {
			worst = dd
		}
	}
	return 100 * worst
}

// SharpeRatio annualises mean/stddev of bar-to-bar returns. The standard
// deviation is the population one; zero volatility yields 0.
func SharpeRatio(equity []float64) float64 {
	returns := make([]float64, 0, len(equity))
	for i := 1; i < len(equity); i++ {
		if equity[i-1] == 0 {
			continue
		}
		returns = append(returns, equity[i]/equity[i-1]-1)
	}
	if len(returns) == 0 {
		return 0
	}

	var sum float64
	for _, r := range returns {
		sum += r
	}
	mean := sum / float64(len(returns))

	var sq float64
	for _, r := range returns {
		sq += (r - mean) * (r - mean)
	}
	std := math.Sqrt(sq / float64(len(returns)))
	if std == 0 {
		return 0
	}
	return mean / std * math.Sqrt(TradingDaysPerYear)
}

// Rounded returns a copy of m with every ratio rounded to two decimals for
// presentation.
func Rounded(m model.Metrics) model.Metrics {
	m.WinRate = round2(m.WinRate)
	m.ProfitFactor = round2(m.ProfitFactor)
	m.MaxDrawdown = round2(m.MaxDrawdown)
	m.SharpeRatio = round2(m.SharpeRatio)
	m.TotalReturn = round2(m.TotalReturn)
	m.AvgWin = round2(m.AvgWin)
	m.AvgLoss = round2(m.AvgLoss)
	m.RiskRewardRatio = round2(m.RiskRewardRatio)
	return m
}

func round2(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}
