package notifier

import (
	"fmt"
	"html"
	"strings"

	"FiboTrader/internal/backtest"
	"FiboTrader/internal/model"
	"FiboTrader/internal/recorder"
)

// FormatBacktestReport formats a finished run into a Telegram message.
func FormatBacktestReport(res *backtest.Result) string {
	var b strings.Builder
	m := backtest.Rounded(res.Metrics)
	cfg := res.Config

	b.WriteString(fmt.Sprintf("📊 <b>Backtest %s</b> | %s → %s\n\n",
		html.EscapeString(res.Symbol), res.Start.Format("2006-01-02"), res.End.Format("2006-01-02")))

	b.WriteString(fmt.Sprintf("Capital: %.2f → %.2f\n", cfg.InitialCapital, lastEquity(res)))
	b.WriteString(fmt.Sprintf("SL %.1f%% | TP %.1f%% | size %.0f%% | lookback %d\n\n",
		cfg.StopLossPct, cfg.TakeProfitPct, cfg.TradeSizeFraction*100, cfg.Lookback))

	b.WriteString("📈 <b>Performance:</b>\n")
	b.WriteString(fmt.Sprintf("  Trades: %d (%d W / %d L)\n", m.Trades, m.WinningTrades, m.LosingTrades))
	b.WriteString(fmt.Sprintf("  Win rate: %.2f%%\n", m.WinRate))
	b.WriteString(fmt.Sprintf("  Total return: %+.2f%%\n", m.TotalReturn))
	b.WriteString(fmt.Sprintf("  Profit factor: %.2f\n", m.ProfitFactor))
	b.WriteString(fmt.Sprintf("  Max drawdown: %.2f%%\n", m.MaxDrawdown))
	b.WriteString(fmt.Sprintf("  Sharpe: %.2f\n", m.SharpeRatio))
	b.WriteString(fmt.Sprintf("  Avg win / loss: %+.2f / %+.2f (R:R %.2f)\n", m.AvgWin, m.AvgLoss, m.RiskRewardRatio))

	if n := len(res.Trades); n > 0 {
		b.WriteString("\n🧾 <b>Last trades:</b>\n")
		start := n - 5
		if start < 0 {
			start = 0
		}
		for _, t := range res.Trades[start:] {
			b.WriteString(fmt.Sprintf("  %s %s %.2f → %.2f %+.2f%% (%s)\n",
				t.ExitTime.Format("2006-01-02"), t.Direction, t.EntryPrice, t.ExitPrice, t.PnLPct, t.Reason))
		}
	}

	if p := res.OpenPosition; p != nil {
		b.WriteString(fmt.Sprintf("\n⏳ Open %s since %s @ %.2f\n", p.Direction, p.EntryTime.Format("2006-01-02"), p.EntryPrice))
	}
	return b.String()
}

// FormatMarketBrief formats the latest-bar snapshot: price, RSI, trend and
// Fibonacci levels.
func FormatMarketBrief(s model.MarketSnapshot) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("🧭 <b>%s</b> | %s\n\n", html.EscapeString(s.Symbol), s.Time.Format("2006-01-02")))
	b.WriteString(fmt.Sprintf("Price: %.2f\n", s.Price))
	b.WriteString(fmt.Sprintf("RSI: %.1f (%s)\n", s.RSI, rsiZone(s.RSI)))
	if s.HasMACD {
		b.WriteString(fmt.Sprintf("MACD: %+.3f\n", s.MACD))
	}
	if s.LevelsErr != "" {
		b.WriteString(fmt.Sprintf("\nLevels unavailable: %s\n", html.EscapeString(s.LevelsErr)))
		return b.String()
	}

	lv := s.Levels
	b.WriteString(fmt.Sprintf("Trend: %s | range %.2f – %.2f\n\n", lv.Trend, lv.Low, lv.High))
	b.WriteString("📐 <b>Fibonacci levels:</b>\n")
	for _, r := range model.FibRatios {
		v, _ := lv.Level(r.Label)
		marker := ""
		if nearest(s.Price, lv) == r.Label {
			marker = " ◀"
		}
		b.WriteString(fmt.Sprintf("  %-7s %.2f%s\n", r.Label, v, marker))
	}
	b.WriteString(fmt.Sprintf("\nSignal: <b>%s</b>\n", s.Signal))
	return b.String()
}

// FormatSweep formats a parameter sweep as a compact table, best run marked.
func FormatSweep(results []*backtest.Result) string {
	var b strings.Builder
	b.WriteString("🧪 <b>Parameter sweep</b>\n\n<pre>")
	b.WriteString(fmt.Sprintf("%5s %5s %6s %7s %8s %7s\n", "SL%", "TP%", "trades", "win%", "return%", "maxDD%"))
	best := backtest.Best(results)
	for _, r := range results {
		m := backtest.Rounded(r.Metrics)
		mark := ""
		if r == best {
			mark = " *"
		}
		b.WriteString(fmt.Sprintf("%5.1f %5.1f %6d %7.2f %8.2f %7.2f%s\n",
			r.Config.StopLossPct, r.Config.TakeProfitPct, m.Trades, m.WinRate, m.TotalReturn, m.MaxDrawdown, mark))
	}
	b.WriteString("</pre>")
	return b.String()
}

// FormatRuns formats recorded run headers.
func FormatRuns(runs []recorder.RunSummary) string {
	if len(runs) == 0 {
		return "No recorded runs yet."
	}
	var b strings.Builder
	b.WriteString("🗂 <b>Recent runs</b>\n\n")
	for _, r := range runs {
		m := backtest.Rounded(r.Metrics)
		b.WriteString(fmt.Sprintf("%s %s %s: %d trades, %+.2f%%, DD %.2f%%\n",
			r.RecordedAt.Format("2006-01-02 15:04"), shortID(r.ID), html.EscapeString(r.Symbol),
			m.Trades, m.TotalReturn, m.MaxDrawdown))
	}
	return b.String()
}

func lastEquity(res *backtest.Result) float64 {
	if n := len(res.Equity); n > 0 {
		return res.Equity[n-1]
	}
	return res.FinalCapital
}

func rsiZone(rsi float64) string {
	switch {
	case rsi >= 70:
		return "overbought"
	case rsi <= 30:
		return "oversold"
	default:
		return "neutral"
	}
}

// nearest returns the label of the level closest to price.
func nearest(price float64, lv model.FibonacciLevels) string {
	label, dist := "", -1.0
	for _, r := range model.FibRatios {
		v, _ := lv.Level(r.Label)
		d := v - price
		if d < 0 {
			d = -d
		}
		if dist < 0 || d < dist {
			label, dist = r.Label, d
		}
	}
	return label
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
