package backtest

import (
	"fmt"
	"log"
	"time"

	"FiboTrader/internal/model"

	"github.com/google/uuid"
)

// Result is everything a run produces.
type Result struct {
	ID       string    `json:"id"`
	Symbol   string    `json:"symbol,omitempty"`
	Config   Config    `json:"config"`
	Start    time.Time `json:"start"`
	End      time.Time `json:"end"`
	Finished time.Time `json:"finished"`

	// Bars is the signal- and equity-annotated copy of the input.
	Bars         []model.Bar     `json:"bars"`
	Trades       []model.Trade   `json:"trades"`
	Equity       []float64       `json:"equity"`
	OpenPosition *model.Position `json:"open_position,omitempty"`
	FinalCapital float64         `json:"final_capital"`
	Metrics      model.Metrics   `json:"metrics"`
}

// Run replays a signal-annotated series through the position state machine
// and derives the metrics. Bars with an empty signal are treated as HOLD.
func Run(bars []model.Bar, cfg Config) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if len(bars) == 0 {
		return nil, ErrNoBars
	}

	acc := newAccount(cfg, len(bars))
	for i, b := range bars {
		acc.step(i, b)
	}

	last := len(bars) - 1
	if cfg.CloseOnEnd && acc.pos != nil {
		acc.close(last, bars[last], model.ExitEndOfData)
		acc.equity[last] = acc.capital
	}
	if len(acc.equity) != len(bars) {
		return nil, fmt.Errorf("equity curve has %d entries for %d bars", len(acc.equity), len(bars))
	}

	annotated := make([]model.Bar, len(bars))
	copy(annotated, bars)
	for i := range annotated {
		if annotated[i].Signal == "" {
			annotated[i].Signal = model.SignalHold
		}
		annotated[i].Portfolio = acc.equity[i]
	}

	res := &Result{
		ID:           uuid.NewString(),
		Config:       cfg,
		Start:        bars[0].Time,
		End:          bars[last].Time,
		Finished:     time.Now(),
		Bars:         annotated,
		Trades:       acc.trades,
		Equity:       acc.equity,
		OpenPosition: acc.pos,
		FinalCapital: acc.capital,
		Metrics:      ComputeMetrics(acc.trades, acc.equity, cfg.InitialCapital),
	}
	log.Printf("[INFO] backtest %s: %d bars, %d trades, final equity %.2f",
		res.ID[:8], len(bars), len(res.Trades), acc.equity[last])
	return res, nil
}
