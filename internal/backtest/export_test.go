package backtest

import (
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	return rows
}

func TestExport(t *testing.T) {
	res, err := Run(series(100.0, buy, 97.9, hold, 98.0, hold), testConfig())
	if err != nil {
		t.Fatal(err)
	}
	dir := t.TempDir()

	tradesPath := filepath.Join(dir, "trades.csv")
	if err := WriteTradesCSV(tradesPath, res.Trades); err != nil {
		t.Fatal(err)
	}
	rows := readCSV(t, tradesPath)
	if len(rows) != 2 || rows[1][0] != "LONG" || rows[1][10] != "STOP_LOSS" {
		t.Errorf("unexpected trade rows: %v", rows)
	}

	seriesPath := filepath.Join(dir, "series.csv")
	if err := WriteSeriesCSV(seriesPath, res.Bars); err != nil {
		t.Fatal(err)
	}
	rows = readCSV(t, seriesPath)
	if len(rows) != 4 {
		t.Fatalf("expected header + 3 rows, got %d", len(rows))
	}
	if rows[0][9] != "signal" || rows[0][10] != "portfolio" {
		t.Errorf("unexpected header: %v", rows[0])
	}
	if rows[1][9] != "BUY" || rows[1][10] != "10000" {
		t.Errorf("unexpected first row: %v", rows[1])
	}

	jsonPath := filepath.Join(dir, "result.json")
	if err := SaveResultJSON(jsonPath, res); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(jsonPath)
	if err != nil {
		t.Fatal(err)
	}
	var decoded struct {
		ID      string `json:"id"`
		Metrics struct {
			Trades int `json:"trades"`
		} `json:"metrics"`
	}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatal(err)
	}
	if decoded.ID != res.ID || decoded.Metrics.Trades != 1 {
		t.Errorf("unexpected json: id=%s trades=%d", decoded.ID, decoded.Metrics.Trades)
	}

	var raw struct {
		Trades []map[string]any `json:"trades"`
		Bars   []map[string]any `json:"bars"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatal(err)
	}
	if len(raw.Trades) != 1 || len(raw.Bars) != 3 {
		t.Fatalf("unexpected json shape: %d trades, %d bars", len(raw.Trades), len(raw.Bars))
	}
	for _, key := range []string{"entry_price", "exit_price", "pnl_pct", "reason", "capital_after"} {
		if _, ok := raw.Trades[0][key]; !ok {
			t.Errorf("trade json missing key %q: %v", key, raw.Trades[0])
		}
	}
	for _, key := range []string{"time", "close", "rsi", "signal", "portfolio"} {
		if _, ok := raw.Bars[0][key]; !ok {
			t.Errorf("bar json missing key %q: %v", key, raw.Bars[0])
		}
	}
	if _, ok := raw.Trades[0]["EntryPrice"]; ok {
		t.Error("trade json should use snake_case keys")
	}
}
