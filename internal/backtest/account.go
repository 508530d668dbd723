package backtest

import (
	"log"

	"FiboTrader/internal/model"
)

// account is the mutable state of one simulation pass: realized capital, the
// open position if any, and the trade and equity logs. It is owned by a single
// Run call and never shared.
type account struct {
	cfg     Config
	capital float64
	pos     *model.Position
	trades  []model.Trade
	equity  []float64
}

func newAccount(cfg Config, bars int) *account {
	return &account{
		cfg:     cfg,
		capital: cfg.InitialCapital,
		trades:  make([]model.Trade, 0),
		equity:  make([]float64, 0, bars),
	}
}

// step applies the per-bar transition: exits first, then entries, then the
// equity entry for the bar.
func (a *account) step(i int, bar model.Bar) {
	if a.pos != nil {
		pct := a.pnlPct(bar.Close)
		switch {
		case pct < -a.cfg.StopLossPct:
			a.close(i, bar, model.ExitStopLoss)
		case pct > a.cfg.TakeProfitPct:
			a.close(i, bar, model.ExitTakeProfit)
		case a.cfg.ExitOnOpposite && opposes(a.pos.Direction, bar.Signal):
			a.close(i, bar, model.ExitSignalReversal)
		}
	}

	if a.pos == nil {
		switch bar.Signal {
		case model.SignalBuy:
			a.open(i, bar, model.Long)
		case model.SignalSell:
			a.open(i, bar, model.Short)
		}
	}

	a.equity = append(a.equity, a.value(bar.Close))
}

func (a *account) open(i int, bar model.Bar, dir model.Direction) {
	if bar.Close <= 0 {
		log.Printf("[WARN] bar %d: cannot open %s at non-positive price %v", i, dir, bar.Close)
		return
	}
	a.pos = &model.Position{
		Direction:  dir,
		EntryPrice: bar.Close,
		EntryIndex: i,
		EntryTime:  bar.Time,
		Quantity:   a.capital * a.cfg.TradeSizeFraction / bar.Close,
	}
}

func (a *account) close(i int, bar model.Bar, reason model.ExitReason) {
	p := a.pos
	pnl := p.Direction.Sign() * (bar.Close - p.EntryPrice) * p.Quantity
	a.capital += pnl
	a.trades = append(a.trades, model.Trade{
		Direction:    p.Direction,
		EntryPrice:   p.EntryPrice,
		EntryIndex:   p.EntryIndex,
		EntryTime:    p.EntryTime,
		ExitPrice:    bar.Close,
		ExitIndex:    i,
		ExitTime:     bar.Time,
		Quantity:     p.Quantity,
		PnL:          pnl,
		PnLPct:       a.pnlPct(bar.Close),
		Reason:       reason,
		CapitalAfter: a.capital,
	})
	a.pos = nil
}

// pnlPct is the open position's return at price, in percent, signed so that
// a gain is positive for both directions.
func (a *account) pnlPct(price float64) float64 {
	p := a.pos
	return p.Direction.Sign() * (price - p.EntryPrice) / p.EntryPrice * 100
}

// value is realized capital plus the open position's unrealized P&L at price.
func (a *account) value(price float64) float64 {
	if a.pos == nil {
		return a.capital
	}
	return a.capital + a.pos.Direction.Sign()*(price-a.pos.EntryPrice)*a.pos.Quantity
}

func opposes(dir model.Direction, sig model.Signal) bool {
	return (dir == model.Long && sig == model.SignalSell) || (dir == model.Short && sig == model.SignalBuy)
}
