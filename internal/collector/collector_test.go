package collector

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"FiboTrader/internal/calculator"
	"FiboTrader/internal/model"

	"github.com/adshao/go-binance/v2/futures"
)

const yahooBody = `{"chart":{"result":[{"timestamp":[1704240000,1704153600,1704326400],
"indicators":{"quote":[{"open":[2050.1,2040.0,null],"high":[2060.5,2055.0,null],
"low":[2045.0,2035.5,null],"close":[2055.2,2050.0,null],"volume":[1200,1100,null]}]}}],"error":null}}`

func TestYahooFetcher_FetchDailyBars(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path + "?" + r.URL.RawQuery
		w.Write([]byte(yahooBody))
	}))
	defer srv.Close()

	f := NewYahooFetcher("")
	f.BaseURL = srv.URL
	bars, err := f.FetchDailyBars(context.Background(), "GOLD", 60)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(gotPath, "GC=F") || !strings.Contains(gotPath, "range=3mo") {
		t.Errorf("unexpected request: %s", gotPath)
	}
	if len(bars) != 2 {
		t.Fatalf("expected null bar skipped, got %d bars", len(bars))
	}
	if !bars[0].Time.Before(bars[1].Time) || bars[0].Close != 2050.0 {
		t.Errorf("bars not sorted oldest first: %+v", bars)
	}
}

func TestYahooFetcher_Errors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Path, "BAD") {
			w.Write([]byte(`{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found"}}}`))
			return
		}
		http.Error(w, "nope", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	f := NewYahooFetcher("")
	f.BaseURL = srv.URL
	if _, err := f.FetchDailyBars(context.Background(), "BAD", 10); err == nil || !strings.Contains(err.Error(), "No data found") {
		t.Errorf("expected api error, got %v", err)
	}
	if _, err := f.FetchDailyBars(context.Background(), "GOLD", 10); err == nil || !strings.Contains(err.Error(), "429") {
		t.Errorf("expected status error, got %v", err)
	}
}

func TestCSVFetcher(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gold.csv")
	data := "Time,Open,High,Low,Close,Volume\n" +
		"2024-01-03,2040,2050,2030,2045,10\n" +
		"2024-01-02,2030,2042,2025,2040,\n" +
		"2024-01-04T00:00:00Z,2045,2060,2044,2058,12\n"
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	bars, err := NewCSVFetcher(path).FetchDailyBars(context.Background(), "ignored", 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(bars) != 2 || bars[0].Close != 2045 || bars[1].Close != 2058 {
		t.Errorf("unexpected bars: %+v", bars)
	}

	if _, err := ParseCSV(strings.NewReader("time,open,close\n2024-01-01,1,2\n")); err == nil {
		t.Error("expected error for missing columns")
	}
	if _, err := ParseCSV(strings.NewReader("time,open,high,low,close\nyesterday,1,2,0.5,1\n")); err == nil {
		t.Error("expected error for bad timestamp")
	}
}

func TestKlinesToBars(t *testing.T) {
	klines := []*futures.Kline{
		{OpenTime: 1704153600000, Open: "42000.1", High: "43000", Low: "41500.5", Close: "42800", Volume: "1234.5"},
		nil,
	}
	bars, err := klinesToBars(klines)
	if err != nil {
		t.Fatal(err)
	}
	if len(bars) != 1 || bars[0].High != 43000 || !bars[0].Time.Equal(time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("unexpected bars: %+v", bars)
	}

	if _, err := klinesToBars([]*futures.Kline{{Open: "x"}}); err == nil {
		t.Error("expected parse error")
	}
}

func TestCollector_Collect(t *testing.T) {
	col := NewCollector(&MockFetcher{Price: 2000}, "GOLD", 60)
	series, err := col.Collect(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if series.Symbol != "GOLD" || len(series.Bars) != 60 {
		t.Fatalf("unexpected series: %s %d", series.Symbol, len(series.Bars))
	}
	for i := 0; i < DefaultRSIPeriod; i++ {
		if series.Bars[i].RSI != calculator.NeutralRSI {
			t.Errorf("bar %d: expected neutral RSI during warmup, got %.2f", i, series.Bars[i].RSI)
		}
	}
	last := series.Bars[len(series.Bars)-1]
	if last.RSI <= 50 {
		t.Errorf("rising mock series should have RSI above 50, got %.2f", last.RSI)
	}
	if !last.HasMACD || series.Bars[0].HasMACD {
		t.Error("MACD should only be present after warmup")
	}
}

func TestCollector_FetchError(t *testing.T) {
	col := NewCollector(&MockFetcher{Err: errors.New("offline")}, "GOLD", 10)
	if _, err := col.Collect(context.Background()); err == nil || !strings.Contains(err.Error(), "offline") {
		t.Errorf("expected wrapped fetch error, got %v", err)
	}
	col = NewCollector(&MockFetcher{DailyData: []model.OHLCV{}}, "GOLD", 10)
	if _, err := col.Collect(context.Background()); err == nil {
		t.Error("expected error for empty data")
	}
}

func TestDedupe(t *testing.T) {
	d := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	raw := []model.OHLCV{{Time: d, Close: 1}, {Time: d, Close: 2}, {Time: d.AddDate(0, 0, 1), Close: 3}}
	out := dedupe(raw)
	if len(out) != 2 || out[0].Close != 1 || out[1].Close != 3 {
		t.Errorf("unexpected dedupe result: %+v", out)
	}
}

func TestBinanceSymbol(t *testing.T) {
	f := NewBinanceFetcher("", "", "")
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"GOLD", "XAUUSDT", false},
		{"xauusd", "XAUUSDT", false},
		{"BTCUSDT", "BTCUSDT", false},
		{" ethusdt ", "ETHUSDT", false},
		{"GC=F", "", true},
		{"^GSPC", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		got, err := f.binanceSymbol(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("binanceSymbol(%q) = %q, %v; want %q, err=%v", tt.in, got, err, tt.want, tt.wantErr)
		}
	}

	if _, err := f.FetchDailyBars(context.Background(), "GC=F", 10); err == nil || !strings.Contains(err.Error(), "invalid futures symbol") {
		t.Errorf("expected symbol error before any request, got %v", err)
	}
}
