package backtest

import (
	"context"
	"errors"
	"testing"

	"FiboTrader/internal/model"
)

func TestGrid(t *testing.T) {
	g := Grid([]float64{1, 2}, []float64{3, 4, 5})
	if len(g) != 6 {
		t.Fatalf("expected 6 points, got %d", len(g))
	}
	if g[0] != (Params{1, 3}) || g[5] != (Params{2, 5}) {
		t.Errorf("unexpected order: %v", g)
	}
}

func TestSweep_IndependentRuns(t *testing.T) {
	bars := series(100.0, buy, 97.0, hold, 104.0, hold, 106.0, hold)
	grid := Grid([]float64{2, 5}, []float64{3, 10})

	results, err := Sweep(context.Background(), bars, testConfig(), grid, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != len(grid) {
		t.Fatalf("expected %d results, got %d", len(grid), len(results))
	}
	for i, r := range results {
		if r.Config.StopLossPct != grid[i].StopLossPct || r.Config.TakeProfitPct != grid[i].TakeProfitPct {
			t.Errorf("result %d ran with %+v, want %+v", i, r.Config, grid[i])
		}
		if len(r.Equity) != len(bars) {
			t.Errorf("result %d: equity length %d", i, len(r.Equity))
		}
	}

	// sl=2 stops out on the -3% bar regardless of tp
	if results[0].Trades[0].Reason != model.ExitStopLoss || results[1].Trades[0].Reason != model.ExitStopLoss {
		t.Error("expected stop-outs for sl=2")
	}
	// sl=5,tp=3 survives the dip and takes profit at +4%
	if len(results[2].Trades) != 1 || results[2].Trades[0].Reason != model.ExitTakeProfit {
		t.Errorf("sl=5 tp=3: %+v", results[2].Trades)
	}
	// sl=5,tp=10 never exits
	if len(results[3].Trades) != 0 || results[3].OpenPosition == nil {
		t.Errorf("sl=5 tp=10 should stay open: %+v", results[3].Trades)
	}

	if best := Best(results); best != results[2] {
		t.Errorf("best run should be sl=5 tp=3, got %+v", best.Config)
	}
}

func TestSweep_PropagatesInvalidConfig(t *testing.T) {
	bars := series(100.0, buy)
	_, err := Sweep(context.Background(), bars, testConfig(), []Params{{2, 5}, {0, 5}}, 1)
	if !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig, got %v", err)
	}
}
