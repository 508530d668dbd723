package backtest

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"FiboTrader/internal/model"
)

// SaveResultJSON writes the full result to a JSON file.
func SaveResultJSON(path string, res *Result) error {
	data, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

// WriteTradesCSV writes the trade log, one row per closed trade.
func WriteTradesCSV(path string, trades []model.Trade) error {
	rows := make([][]string, 0, len(trades)+1)
	rows = append(rows, []string{
		"direction", "entry_time", "entry_index", "entry_price",
		"exit_time", "exit_index", "exit_price", "quantity",
		"pnl", "pnl_pct", "reason", "capital_after",
	})
	for _, t := range trades {
		rows = append(rows, []string{
			string(t.Direction), t.EntryTime.Format(time.RFC3339), strconv.Itoa(t.EntryIndex), formatF(t.EntryPrice),
			t.ExitTime.Format(time.RFC3339), strconv.Itoa(t.ExitIndex), formatF(t.ExitPrice), formatF(t.Quantity),
			formatF(t.PnL), formatF(t.PnLPct), string(t.Reason), formatF(t.CapitalAfter),
		})
	}
	return writeCSV(path, rows)
}

// WriteSeriesCSV writes the annotated series with its SIGNAL and PORTFOLIO columns.
func WriteSeriesCSV(path string, bars []model.Bar) error {
	rows := make([][]string, 0, len(bars)+1)
	rows = append(rows, []string{"time", "open", "high", "low", "close", "volume", "rsi", "macd", "macd_signal", "signal", "portfolio"})
	for _, b := range bars {
		macd, macdSig := "", ""
		if b.HasMACD {
			macd, macdSig = formatF(b.MACD), formatF(b.MACDSignal)
		}
		rows = append(rows, []string{
			b.Time.Format(time.RFC3339), formatF(b.Open), formatF(b.High), formatF(b.Low), formatF(b.Close),
			formatF(b.Volume), formatF(b.RSI), macd, macdSig, string(b.Signal), formatF(b.Portfolio),
		})
	}
	return writeCSV(path, rows)
}

func writeCSV(path string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.WriteAll(rows); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func formatF(f float64) string { return strconv.FormatFloat(f, 'f', -1, 64) }
