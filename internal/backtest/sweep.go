package backtest

import (
	"context"
	"fmt"
	"runtime"

	"FiboTrader/internal/model"

	"golang.org/x/sync/errgroup"
)

// Params is one point of a stop-loss/take-profit grid.
type Params struct {
	StopLossPct   float64
	TakeProfitPct float64
}

// Grid returns every combination of the given stop-loss and take-profit
// percentages, stop-loss major.
func Grid(stopLoss, takeProfit []float64) []Params {
	out := make([]Params, 0, len(stopLoss)*len(takeProfit))
	for _, sl := range stopLoss {
		for _, tp := range takeProfit {
			out = append(out, Params{StopLossPct: sl, TakeProfitPct: tp})
		}
	}
	return out
}

// Sweep runs one independent backtest per grid point over the same
// signal-annotated bars. Runs execute in parallel on at most `workers`
// goroutines; results keep the order of grid. The first failing run cancels
// the rest.
func Sweep(ctx context.Context, bars []model.Bar, base Config, grid []Params, workers int) ([]*Result, error) {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	results := make([]*Result, len(grid))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, p := range grid {
		i, p := i, p
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			cfg := base
			cfg.StopLossPct = p.StopLossPct
			cfg.TakeProfitPct = p.TakeProfitPct
			res, err := Run(bars, cfg)
			if err != nil {
				return fmt.Errorf("sweep sl=%.2f tp=%.2f: %w", p.StopLossPct, p.TakeProfitPct, err)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// Best returns the result with the highest total return, or nil.
func Best(results []*Result) *Result {
	var best *Result
	for _, r := range results {
		if r == nil {
			continue
		}
		if best == nil || r.Metrics.TotalReturn > best.Metrics.TotalReturn {
			best = r
		}
	}
	return best
}
