package recorder

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"FiboTrader/internal/backtest"

	_ "modernc.org/sqlite"
)

// SQLiteRecorder persists backtest runs to a SQLite database.
type SQLiteRecorder struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL mode so dashboards can read while a run is being written.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Printf("[INFO] sqlite recorder opened: %s", dbPath)
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS backtest_runs (
			id                TEXT PRIMARY KEY,
			recorded_at       INTEGER NOT NULL,
			symbol            TEXT,
			start_ts          INTEGER,
			end_ts            INTEGER,
			bars              INTEGER,
			initial_capital   REAL,
			trade_fraction    REAL,
			lookback          INTEGER,
			stop_loss_pct     REAL,
			take_profit_pct   REAL,
			close_on_end      INTEGER,
			exit_on_opposite  INTEGER,
			final_capital     REAL,
			final_equity      REAL,
			trades            INTEGER,
			winning_trades    INTEGER,
			losing_trades     INTEGER,
			win_rate          REAL,
			profit_factor     REAL,
			max_drawdown      REAL,
			sharpe_ratio      REAL,
			total_return      REAL,
			avg_win           REAL,
			avg_loss          REAL,
			risk_reward_ratio REAL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_recorded ON backtest_runs(recorded_at)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

// RecordRun stores the run header: configuration, final equity and metrics.
// The trade log and equity curve are not persisted.
func (r *SQLiteRecorder) RecordRun(res *backtest.Result) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cfg := res.Config
	m := res.Metrics
	finalEquity := 0.0
	if n := len(res.Equity); n > 0 {
		finalEquity = res.Equity[n-1]
	}
	if _, err := r.db.Exec(`INSERT INTO backtest_runs
		(id, recorded_at, symbol, start_ts, end_ts, bars,
		 initial_capital, trade_fraction, lookback, stop_loss_pct, take_profit_pct, close_on_end, exit_on_opposite,
		 final_capital, final_equity,
		 trades, winning_trades, losing_trades, win_rate, profit_factor, max_drawdown,
		 sharpe_ratio, total_return, avg_win, avg_loss, risk_reward_ratio)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		res.ID, time.Now().Unix(), res.Symbol, res.Start.Unix(), res.End.Unix(), len(res.Bars),
		cfg.InitialCapital, cfg.TradeSizeFraction, cfg.Lookback, cfg.StopLossPct, cfg.TakeProfitPct,
		boolInt(cfg.CloseOnEnd), boolInt(cfg.ExitOnOpposite),
		res.FinalCapital, finalEquity,
		m.Trades, m.WinningTrades, m.LosingTrades, m.WinRate, m.ProfitFactor, m.MaxDrawdown,
		m.SharpeRatio, m.TotalReturn, m.AvgWin, m.AvgLoss, m.RiskRewardRatio,
	); err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// ListRuns returns the most recent runs, newest first. limit <= 0 returns all.
func (r *SQLiteRecorder) ListRuns(limit int) ([]RunSummary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if limit <= 0 {
		limit = -1
	}
	rows, err := r.db.Query(`SELECT id, symbol, recorded_at, start_ts, end_ts, bars,
		initial_capital, final_equity, stop_loss_pct, take_profit_pct,
		trades, winning_trades, losing_trades, win_rate, profit_factor, max_drawdown,
		sharpe_ratio, total_return, avg_win, avg_loss, risk_reward_ratio
		FROM backtest_runs ORDER BY recorded_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var out []RunSummary
	for rows.Next() {
		var s RunSummary
		var recorded, start, end int64
		m := &s.Metrics
		if err := rows.Scan(&s.ID, &s.Symbol, &recorded, &start, &end, &s.Bars,
			&s.InitialCapital, &s.FinalEquity, &s.StopLossPct, &s.TakeProfitPct,
			&m.Trades, &m.WinningTrades, &m.LosingTrades, &m.WinRate, &m.ProfitFactor, &m.MaxDrawdown,
			&m.SharpeRatio, &m.TotalReturn, &m.AvgWin, &m.AvgLoss, &m.RiskRewardRatio,
		); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		s.RecordedAt = time.Unix(recorded, 0)
		s.Start = time.Unix(start, 0)
		s.End = time.Unix(end, 0)
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *SQLiteRecorder) Close() error {
	log.Println("[INFO] closing sqlite recorder")
	return r.db.Close()
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
