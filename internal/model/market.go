package model

import "time"

// OHLCV represents a single candlestick bar as delivered by a fetcher.
type OHLCV struct {
	Time   time.Time `json:"time"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
}

// Bar is one row of the backtest series: raw prices plus indicator and
// annotation columns. Signal and Portfolio are filled by later stages on
// copies of the series; the loaded sequence itself is never mutated.
type Bar struct {
	Time   time.Time `json:"time"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`

	RSI        float64 `json:"rsi"`
	MACD       float64 `json:"macd"`
	MACDSignal float64 `json:"macd_signal"`
	HasMACD    bool    `json:"has_macd"`

	Signal    Signal  `json:"signal"`
	Portfolio float64 `json:"portfolio"`
}

// PriceSeries holds raw price data for analysis.
type PriceSeries struct {
	Symbol    string
	Bars      []Bar
	FetchedAt time.Time
}

// Closes returns the close column of bars.
func Closes(bars []Bar) []float64 {
	closes := make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = b.Close
	}
	return closes
}
