package model

import "time"

// MarketSnapshot describes the latest bar in terms of the indicators the
// strategy looks at. It is the input for the market brief.
type MarketSnapshot struct {
	Symbol    string
	Time      time.Time
	Price     float64
	RSI       float64
	MACD      float64
	HasMACD   bool
	Levels    FibonacciLevels
	LevelsErr string // non-empty when levels could not be computed
	Signal    Signal
}
