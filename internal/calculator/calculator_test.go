package calculator

import (
	"errors"
	"math"
	"testing"

	"FiboTrader/internal/model"
)

func approx(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func bar(high, low float64) model.Bar {
	return model.Bar{High: high, Low: low, Close: (high + low) / 2}
}

func TestRSISeries_NeutralUntilWarm(t *testing.T) {
	closes := []float64{1, 2, 3, 4, 5}
	rsi, err := CalculateRSISeries(closes, 14)
	if err != nil {
		t.Fatal(err)
	}
	for i, v := range rsi {
		if v != NeutralRSI {
			t.Errorf("rsi[%d] = %.2f, expected neutral", i, v)
		}
	}
}

func TestRSISeries_Bounds(t *testing.T) {
	tests := []struct {
		name   string
		closes []float64
		want   float64
	}{
		{"all gains", []float64{1, 2, 3, 4, 5, 6}, 100},
		{"flat", []float64{5, 5, 5, 5, 5, 5}, NeutralRSI},
		{"all losses", []float64{6, 5, 4, 3, 2, 1}, 0},
	}
	for _, tt := range tests {
		rsi, err := CalculateRSISeries(tt.closes, 3)
		if err != nil {
			t.Fatalf("%s: %v", tt.name, err)
		}
		if got := rsi[len(rsi)-1]; !approx(got, tt.want) {
			t.Errorf("%s: last rsi = %.2f, want %.2f", tt.name, got, tt.want)
		}
		for i := 0; i < 3; i++ {
			if rsi[i] != NeutralRSI {
				t.Errorf("%s: rsi[%d] should be neutral", tt.name, i)
			}
		}
	}
}

func TestRSISeries_InvalidPeriod(t *testing.T) {
	if _, err := CalculateRSISeries([]float64{1, 2}, 0); err == nil {
		t.Error("expected error for zero period")
	}
}

func TestEMASeries(t *testing.T) {
	ema, err := CalculateEMASeries([]float64{1, 2, 3, 4}, 2)
	if err != nil {
		t.Fatal(err)
	}
	// seed = 1.5, k = 2/3
	if ema[0] != 0 || !approx(ema[1], 1.5) {
		t.Fatalf("unexpected seed: %v", ema)
	}
	if !approx(ema[2], 3*2.0/3+1.5/3) {
		t.Errorf("ema[2] = %f", ema[2])
	}
}

func TestMACD_ReadyAfterWarmup(t *testing.T) {
	closes := make([]float64, 40)
	for i := range closes {
		closes[i] = 100 + float64(i)
	}
	m, err := CalculateMACD(closes, 12, 26, 9)
	if err != nil {
		t.Fatal(err)
	}
	first := -1
	for i, r := range m.Ready {
		if r {
			first = i
			break
		}
	}
	if first != 26+9-2 {
		t.Errorf("first ready index = %d, want %d", first, 26+9-2)
	}
	if m.MACD[39] <= 0 {
		t.Errorf("expected positive MACD on a rising series, got %f", m.MACD[39])
	}
	if _, err := CalculateMACD(closes, 26, 12, 9); err == nil {
		t.Error("expected error when slow <= fast")
	}
}

func TestWindowRange_TrailingWindow(t *testing.T) {
	bars := []model.Bar{bar(200, 10), bar(12, 11), bar(15, 9), bar(14, 13)}
	high, low, hi, lo, err := WindowRange(bars, 3)
	if err != nil {
		t.Fatal(err)
	}
	if high != 15 || low != 9 || hi != 2 || lo != 2 {
		t.Errorf("got high=%v low=%v hi=%d lo=%d", high, low, hi, lo)
	}
	if _, _, _, _, err := WindowRange(nil, 3); !errors.Is(err, ErrEmptyWindow) {
		t.Errorf("expected ErrEmptyWindow, got %v", err)
	}
}

func TestFibonacciLevels_UpTrend(t *testing.T) {
	// low first, then high
	bars := []model.Bar{bar(105, 100), bar(150, 120), bar(200, 160)}
	lv, err := FibonacciLevels(bars, 10)
	if err != nil {
		t.Fatal(err)
	}
	if lv.Trend != model.TrendUp {
		t.Fatalf("trend = %s, want up", lv.Trend)
	}
	if !approx(lv.Level618, 200-100*0.618) {
		t.Errorf("61.8%% = %f", lv.Level618)
	}
	if !approx(lv.Level1000, 100) || !approx(lv.Level1618, 200-161.8) {
		t.Errorf("unexpected extension levels: %+v", lv)
	}
}

func TestFibonacciLevels_DownTrend(t *testing.T) {
	bars := []model.Bar{bar(200, 160), bar(150, 120), bar(105, 100)}
	lv, err := FibonacciLevels(bars, 10)
	if err != nil {
		t.Fatal(err)
	}
	if lv.Trend != model.TrendDown {
		t.Fatalf("trend = %s, want down", lv.Trend)
	}
	if !approx(lv.Level382, 100+100*0.382) {
		t.Errorf("38.2%% = %f", lv.Level382)
	}
	if got := lv.Map()[model.Level500]; !approx(got, 150) {
		t.Errorf("50%% via Map = %f", got)
	}
}

func TestFibonacciLevels_Degenerate(t *testing.T) {
	bars := []model.Bar{{High: 10, Low: 10}, {High: 10, Low: 10}}
	if _, err := FibonacciLevels(bars, 5); !errors.Is(err, ErrDegenerateRange) {
		t.Errorf("expected ErrDegenerateRange, got %v", err)
	}
}

func TestFibonacciLevels_EveryRatio(t *testing.T) {
	up := []model.Bar{bar(105, 100), bar(200, 160)}
	down := []model.Bar{bar(200, 160), bar(105, 100)}
	lvUp, err := FibonacciLevels(up, 10)
	if err != nil {
		t.Fatal(err)
	}
	lvDown, err := FibonacciLevels(down, 10)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		label string
		ratio float64
	}{
		{model.Level236, 0.236},
		{model.Level382, 0.382},
		{model.Level500, 0.5},
		{model.Level618, 0.618},
		{model.Level1000, 1.0},
		{model.Level1618, 1.618},
	}
	if len(model.FibRatios) != len(tests) {
		t.Fatalf("FibRatios has %d entries, want %d", len(model.FibRatios), len(tests))
	}
	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			if got, ok := lvUp.Level(tt.label); !ok || !approx(got, 200-100*tt.ratio) {
				t.Errorf("up level = %f (known=%v), want %f", got, ok, 200-100*tt.ratio)
			}
			if got, ok := lvDown.Level(tt.label); !ok || !approx(got, 100+100*tt.ratio) {
				t.Errorf("down level = %f (known=%v), want %f", got, ok, 100+100*tt.ratio)
			}
		})
	}

	if lvUp.SetLevel("12.0%", 1) {
		t.Error("unknown label should not be settable")
	}
	if _, ok := lvUp.Level("12.0%"); ok {
		t.Error("unknown label should not resolve")
	}
}
