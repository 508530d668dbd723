package model

// Signal is the discrete trading decision attached to a bar.
type Signal string

const (
	SignalBuy  Signal = "BUY"
	SignalSell Signal = "SELL"
	SignalHold Signal = "HOLD"
)

// Trend is the direction detected over a lookback window.
type Trend string

const (
	TrendUp   Trend = "up"
	TrendDown Trend = "down"
)

// Fibonacci ratio labels, in the order levels are reported.
const (
	Level236  = "23.6%"
	Level382  = "38.2%"
	Level500  = "50.0%"
	Level618  = "61.8%"
	Level1000 = "100.0%"
	Level1618 = "161.8%"
)

// FibRatio pairs a level label with its ratio.
type FibRatio struct {
	Label string
	Ratio float64
}

// FibRatios lists the ratios levels are computed for.
var FibRatios = []FibRatio{
	{Level236, 0.236},
	{Level382, 0.382},
	{Level500, 0.5},
	{Level618, 0.618},
	{Level1000, 1.0},
	{Level1618, 1.618},
}

// FibonacciLevels is the support/resistance set for one window.
type FibonacciLevels struct {
	Level236  float64
	Level382  float64
	Level500  float64
	Level618  float64
	Level1000 float64
	Level1618 float64

	High      float64
	Low       float64
	HighIndex int
	LowIndex  int
	Trend     Trend
}

// field maps a ratio label to its struct field, or nil for an unknown label.
func (f *FibonacciLevels) field(label string) *float64 {
	switch label {
	case Level236:
		return &f.Level236
	case Level382:
		return &f.Level382
	case Level500:
		return &f.Level500
	case Level618:
		return &f.Level618
	case Level1000:
		return &f.Level1000
	case Level1618:
		return &f.Level1618
	}
	return nil
}

// Level returns the price for a ratio label and whether the label is known.
func (f FibonacciLevels) Level(label string) (float64, bool) {
	if p := f.field(label); p != nil {
		return *p, true
	}
	return 0, false
}

// SetLevel stores the price for a ratio label. It reports false for an
// unknown label.
func (f *FibonacciLevels) SetLevel(label string, price float64) bool {
	p := f.field(label)
	if p == nil {
		return false
	}
	*p = price
	return true
}

// Map returns the levels keyed by label, for reporting.
func (f FibonacciLevels) Map() map[string]float64 {
	m := make(map[string]float64, len(FibRatios))
	for _, r := range FibRatios {
		v, _ := f.Level(r.Label)
		m[r.Label] = v
	}
	return m
}
