package collector

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"FiboTrader/internal/calculator"
	"FiboTrader/internal/model"
)

// Indicator periods.
const (
	DefaultRSIPeriod = 14
	MACDFast         = 12
	MACDSlow         = 26
	MACDSignal       = 9
)

// MockFetcher returns controllable fixed data for development and testing.
type MockFetcher struct {
	Price     float64
	DailyData []model.OHLCV
	Err       error
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) FetchDailyBars(_ context.Context, _ string, days int) ([]model.OHLCV, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	if m.DailyData != nil {
		return m.DailyData, nil
	}
	return generateMockBars(m.Price, days), nil
}

func generateMockBars(basePrice float64, count int) []model.OHLCV {
	bars := make([]model.OHLCV, count)
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < count; i++ {
		p := basePrice * (1 + float64(i-count/2)*0.001)
		bars[i] = model.OHLCV{
			Time:   start.AddDate(0, 0, i),
			Open:   p * 0.999,
			High:   p * 1.005,
			Low:    p * 0.995,
			Close:  p,
			Volume: 1000000,
		}
	}
	return bars
}

// Collector fetches a daily series and enriches it with indicators.
type Collector struct {
	Fetcher   Fetcher
	Symbol    string
	Days      int
	RSIPeriod int
}

// NewCollector creates a new Collector.
func NewCollector(fetcher Fetcher, symbol string, days int) *Collector {
	return &Collector{Fetcher: fetcher, Symbol: symbol, Days: days, RSIPeriod: DefaultRSIPeriod}
}

// Collect fetches market data and computes RSI and MACD for every bar.
// Indicator failures are logged and defaulted; only fetch errors are fatal.
func (c *Collector) Collect(ctx context.Context) (*model.PriceSeries, error) {
	raw, err := c.Fetcher.FetchDailyBars(ctx, c.Symbol, c.Days)
	if err != nil {
		return nil, fmt.Errorf("fetch daily bars: %w", err)
	}
	if len(raw) == 0 {
		return nil, errors.New("fetch daily bars: no data")
	}

	bars := Enrich(dedupe(raw), c.RSIPeriod)
	log.Printf("[INFO] collected %d bars for %s from %s (%s .. %s)", len(bars), c.Symbol, c.Fetcher.Name(),
		bars[0].Time.Format("2006-01-02"), bars[len(bars)-1].Time.Format("2006-01-02"))

	return &model.PriceSeries{
		Symbol:    c.Symbol,
		Bars:      bars,
		FetchedAt: time.Now(),
	}, nil
}

// Enrich converts raw candles to bars with RSI and MACD columns.
func Enrich(raw []model.OHLCV, rsiPeriod int) []model.Bar {
	bars := make([]model.Bar, len(raw))
	for i, r := range raw {
		bars[i] = model.Bar{
			Time:   r.Time,
			Open:   r.Open,
			High:   r.High,
			Low:    r.Low,
			Close:  r.Close,
			Volume: r.Volume,
			RSI:    calculator.NeutralRSI,
		}
	}
	closes := model.Closes(bars)

	if rsi, err := calculator.CalculateRSISeries(closes, rsiPeriod); err != nil {
		log.Printf("[WARN] RSI calculation failed: %v, defaulting to %.0f", err, calculator.NeutralRSI)
	} else {
		for i := range bars {
			bars[i].RSI = rsi[i]
		}
	}

	if macd, err := calculator.CalculateMACD(closes, MACDFast, MACDSlow, MACDSignal); err != nil {
		log.Printf("[WARN] MACD calculation failed: %v", err)
	} else {
		for i := range bars {
			if macd.Ready[i] {
				bars[i].MACD = macd.MACD[i]
				bars[i].MACDSignal = macd.Signal[i]
				bars[i].HasMACD = true
			}
		}
	}
	return bars
}

// dedupe drops bars whose timestamp does not strictly increase, keeping the
// first occurrence. Input is expected oldest first.
func dedupe(raw []model.OHLCV) []model.OHLCV {
	out := make([]model.OHLCV, 0, len(raw))
	for _, r := range raw {
		if n := len(out); n > 0 && !r.Time.After(out[n-1].Time) {
			continue
		}
		out = append(out, r)
	}
	if dropped := len(raw) - len(out); dropped > 0 {
		log.Printf("[WARN] dropped %d out-of-order or duplicate bars", dropped)
	}
	return out
}
