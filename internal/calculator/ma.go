package calculator

import (
	"errors"
)

// CalculateSMA computes the simple moving average of the given prices over the specified period.
func CalculateSMA(prices []float64, period int) (float64, error) {
	if period <= 0 {
		return 0, errors.New("period must be positive")
	}
	if len(prices) < period {
		return 0, errors.New("not enough data for SMA calculation")
	}
	sum := 0.0
	for i := len(prices) - period; i < len(prices); i++ {
		sum += prices[i]
	}
	return sum / float64(period), nil
}

// CalculateEMASeries returns the exponential moving average for every price.
// The series is seeded with the SMA of the first `period` prices; earlier
// entries are zero.
func CalculateEMASeries(prices []float64, period int) ([]float64, error) {
	if period <= 0 {
		return nil, errors.New("period must be positive")
	}
	out := make([]float64, len(prices))
	if len(prices) < period {
		return out, nil
	}
	seed, err := CalculateSMA(prices[:period], period)
	if err != nil {
		return nil, err
	}
	out[period-1] = seed
	k := 2.0 / float64(period+1)
	for i := period; i < len(prices); i++ {
		out[i] = prices[i]*k + out[i-1]*(1-k)
	}
	return out, nil
}

// MACDSeries holds the MACD line and its signal line, aligned with the input.
// Ready marks the entries where both values are defined.
type MACDSeries struct {
	MACD   []float64
	Signal []float64
	Ready  []bool
}

// CalculateMACD computes MACD(fast, slow, signal) over closes.
func CalculateMACD(closes []float64, fast, slow, signal int) (*MACDSeries, error) {
	if fast <= 0 || slow <= fast || signal <= 0 {
		return nil, errors.New("invalid MACD periods")
	}
	fastEMA, err := CalculateEMASeries(closes, fast)
	if err != nil {
		return nil, err
	}
	slowEMA, err := CalculateEMASeries(closes, slow)
	if err != nil {
		return nil, err
	}

	n := len(closes)
	res := &MACDSeries{
		MACD:   make([]float64, n),
		Signal: make([]float64, n),
		Ready:  make([]bool, n),
	}
	if n < slow {
		return res, nil
	}
	for i := slow - 1; i < n; i++ {
		res.MACD[i] = fastEMA[i] - slowEMA[i]
	}

	// Signal line is the EMA of the defined part of the MACD line.
	sig, err := CalculateEMASeries(res.MACD[slow-1:], signal)
	if err != nil {
		return nil, err
	}
	for j, v := range sig {
		i := j + slow - 1
		if j >= signal-1 {
			res.Signal[i] = v
			res.Ready[i] = true
		}
	}
	return res, nil
}
