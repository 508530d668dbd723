package model

import "time"

// Direction is the side of an open position.
type Direction string

const (
	Long  Direction = "LONG"
	Short Direction = "SHORT"
)

// Sign returns +1 for LONG and -1 for SHORT.
func (d Direction) Sign() float64 {
	if d == Short {
		return -1
	}
	return 1
}

// ExitReason tells why a position was closed.
type ExitReason string

const (
	ExitStopLoss       ExitReason = "STOP_LOSS"
	ExitTakeProfit     ExitReason = "TAKE_PROFIT"
	ExitSignalReversal ExitReason = "SIGNAL_REVERSAL"
	ExitEndOfData      ExitReason = "END_OF_DATA"
)

// Position is the single open position of a simulation.
type Position struct {
	Direction  Direction `json:"direction"`
	EntryPrice float64   `json:"entry_price"`
	EntryIndex int       `json:"entry_index"`
	EntryTime  time.Time `json:"entry_time"`
	Quantity   float64   `json:"quantity"`
}

// Trade is the immutable record of a closed position.
type Trade struct {
	Direction    Direction  `json:"direction"`
	EntryPrice   float64    `json:"entry_price"`
	EntryIndex   int        `json:"entry_index"`
	EntryTime    time.Time  `json:"entry_time"`
	ExitPrice    float64    `json:"exit_price"`
	ExitIndex    int        `json:"exit_index"`
	ExitTime     time.Time  `json:"exit_time"`
	Quantity     float64    `json:"quantity"`
	PnL          float64    `json:"pnl"`
	PnLPct       float64    `json:"pnl_pct"`
	Reason       ExitReason `json:"reason"`
	CapitalAfter float64    `json:"capital_after"`
}

// Metrics summarises a finished run.
type Metrics struct {
	Trades          int     `json:"trades"`
	WinningTrades   int     `json:"winning_trades"`
	LosingTrades    int     `json:"losing_trades"`
	WinRate         float64 `json:"win_rate"`
	ProfitFactor    float64 `json:"profit_factor"`
	MaxDrawdown     float64 `json:"max_drawdown"`
	SharpeRatio     float64 `json:"sharpe_ratio"`
	TotalReturn     float64 `json:"total_return"`
	AvgWin          float64 `json:"avg_win"`
	AvgLoss         float64 `json:"avg_loss"`
	RiskRewardRatio float64 `json:"risk_reward_ratio"`
}
