package recorder

import (
	"time"

	"FiboTrader/internal/backtest"
	"FiboTrader/internal/model"
)

// RunSummary is the stored header of one backtest run.
type RunSummary struct {
	ID             string
	Symbol         string
	RecordedAt     time.Time
	Start          time.Time
	End            time.Time
	Bars           int
	InitialCapital float64
	FinalEquity    float64
	StopLossPct    float64
	TakeProfitPct  float64
	Metrics        model.Metrics
}

// Recorder persists finished backtests for later analysis.
type Recorder interface {
	RecordRun(res *backtest.Result) error
	ListRuns(limit int) ([]RunSummary, error)
	Close() error
}
