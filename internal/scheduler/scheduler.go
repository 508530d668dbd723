package scheduler

import (
	"context"
	"fmt"
	"log"
	"sync"

	"FiboTrader/internal/backtest"
	"FiboTrader/internal/collector"
	"FiboTrader/internal/model"
	"FiboTrader/internal/notifier"
	"FiboTrader/internal/recorder"
	"FiboTrader/internal/strategy"

	"github.com/robfig/cron/v3"
)

const sendRetries = 3

// Scheduler runs the collect, signal, backtest, record and notify pipeline,
// on a cron schedule or on demand.
type Scheduler struct {
	Cron      *cron.Cron
	Collector *collector.Collector
	Generator *strategy.Generator
	Backtest  backtest.Config
	Grid      []backtest.Params
	Workers   int
	Notifier  notifier.Notifier
	Recorder  recorder.Recorder
	Ctx       context.Context

	mu   sync.Mutex
	last *backtest.Result
}

// NewScheduler creates a new Scheduler. A nil notifier disables delivery.
func NewScheduler(ctx context.Context, col *collector.Collector, cfg backtest.Config, n notifier.Notifier, rec recorder.Recorder) *Scheduler {
	if rec == nil {
		rec = recorder.NewNoopRecorder()
	}
	return &Scheduler{
		Cron:      cron.New(cron.WithSeconds()),
		Collector: col,
		Generator: strategy.NewGenerator(cfg.Lookback, nil),
		Backtest:  cfg,
		Notifier:  n,
		Recorder:  rec,
		Ctx:       ctx,
	}
}

// Register schedules the backtest pipeline with a six-field cron expression.
func (s *Scheduler) Register(expr string) error {
	if _, err := s.Cron.AddFunc(expr, s.scheduledRun); err != nil {
		return fmt.Errorf("register backtest task %q: %w", expr, err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Println("[INFO] scheduler started")
}

// Stop stops the cron scheduler and waits for a running job to finish.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	log.Println("[INFO] scheduler stopped")
}

func (s *Scheduler) scheduledRun() {
	if _, err := s.RunOnce(s.Ctx); err != nil {
		log.Printf("[ERROR] scheduled backtest: %v", err)
		s.trySend(fmt.Sprintf("❌ Backtest failed: %v", err))
	}
}

// signals fetches the series and annotates it with signals.
func (s *Scheduler) signals(ctx context.Context) (*model.PriceSeries, []model.Bar, error) {
	series, err := s.Collector.Collect(ctx)
	if err != nil {
		return nil, nil, err
	}
	bars, err := s.Generator.Generate(series.Bars)
	if err != nil {
		return nil, nil, fmt.Errorf("generate signals: %w", err)
	}
	return series, bars, nil
}

// RunOnce executes one full backtest, records it and sends the report.
// Recording and delivery failures are logged, not returned.
func (s *Scheduler) RunOnce(ctx context.Context) (*backtest.Result, error) {
	log.Println("[INFO] running backtest")
	series, bars, err := s.signals(ctx)
	if err != nil {
		return nil, err
	}
	res, err := backtest.Run(bars, s.Backtest)
	if err != nil {
		return nil, fmt.Errorf("run backtest: %w", err)
	}
	res.Symbol = series.Symbol

	if err := s.Recorder.RecordRun(res); err != nil {
		log.Printf("[ERROR] record run: %v", err)
	}
	s.mu.Lock()
	s.last = res
	s.mu.Unlock()

	s.trySend(notifier.FormatBacktestReport(res))
	return res, nil
}

// RunSweep backtests every grid point over one fetched series. The best run
// is recorded.
func (s *Scheduler) RunSweep(ctx context.Context) ([]*backtest.Result, error) {
	if len(s.Grid) == 0 {
		return nil, fmt.Errorf("sweep grid is empty")
	}
	series, bars, err := s.signals(ctx)
	if err != nil {
		return nil, err
	}
	results, err := backtest.Sweep(ctx, bars, s.Backtest, s.Grid, s.Workers)
	if err != nil {
		return nil, err
	}
	for _, r := range results {
		r.Symbol = series.Symbol
	}
	if best := backtest.Best(results); best != nil {
		if err := s.Recorder.RecordRun(best); err != nil {
			log.Printf("[ERROR] record best sweep run: %v", err)
		}
	}
	return results, nil
}

// Brief returns the market snapshot for the latest bar.
func (s *Scheduler) Brief(ctx context.Context) (model.MarketSnapshot, error) {
	series, err := s.Collector.Collect(ctx)
	if err != nil {
		return model.MarketSnapshot{}, err
	}
	return s.Generator.Snapshot(series.Symbol, series.Bars), nil
}

// Last returns the most recent result produced by this process, or nil.
func (s *Scheduler) Last() *backtest.Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

// HandleCommand processes a chat command and returns a reply. The backtest
// command delivers its report itself and returns an empty reply.
func (s *Scheduler) HandleCommand(command string) string {
	switch command {
	case "/backtest":
		if _, err := s.RunOnce(s.Ctx); err != nil {
			return fmt.Sprintf("❌ Backtest failed: %v", err)
		}
		return ""
	case "/brief":
		snap, err := s.Brief(s.Ctx)
		if err != nil {
			return fmt.Sprintf("❌ Brief failed: %v", err)
		}
		return notifier.FormatMarketBrief(snap)
	case "/sweep":
		results, err := s.RunSweep(s.Ctx)
		if err != nil {
			return fmt.Sprintf("❌ Sweep failed: %v", err)
		}
		return notifier.FormatSweep(results)
	case "/last":
		runs, err := s.Recorder.ListRuns(5)
		if err != nil {
			return fmt.Sprintf("❌ Listing runs failed: %v", err)
		}
		if len(runs) == 0 {
			if res := s.Last(); res != nil {
				return notifier.FormatBacktestReport(res)
			}
		}
		return notifier.FormatRuns(runs)
	default:
		return "Commands:\n• /backtest run the backtest now\n• /brief price, RSI and Fibonacci levels\n• /sweep stop-loss / take-profit grid\n• /last recent runs"
	}
}

func (s *Scheduler) trySend(text string) {
	if s.Notifier == nil {
		return
	}
	if err := s.Notifier.SendWithRetry(s.Ctx, text, sendRetries); err != nil {
		log.Printf("[ERROR] send notification: %v", err)
	}
}
