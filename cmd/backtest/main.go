package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"FiboTrader/internal/backtest"
	"FiboTrader/internal/collector"
	"FiboTrader/internal/config"
	"FiboTrader/internal/notifier"
	"FiboTrader/internal/recorder"
	"FiboTrader/internal/scheduler"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	defaultCfg := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		defaultCfg = v
	}
	cfgPath := flag.String("config", defaultCfg, "path to the YAML config")
	sweep := flag.Bool("sweep", false, "run the stop-loss / take-profit grid instead of a single backtest")
	daemon := flag.Bool("daemon", false, "run on the cron schedule and answer Telegram commands")
	outDir := flag.String("out", "", "directory for JSON/CSV exports (overrides output.dir)")
	verbose := flag.Bool("verbose", false, "log bars whose levels could not be computed")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatalf("[FATAL] load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("[FATAL] config validation: %v", err)
	}
	if *outDir != "" {
		cfg.Output.Dir = *outDir
	}

	fetcher := newFetcher(cfg)
	log.Printf("[INFO] data source: %s, symbol %s", fetcher.Name(), cfg.DataSource.Symbol)
	col := collector.NewCollector(fetcher, cfg.DataSource.Symbol, cfg.DataSource.Days)
	col.RSIPeriod = cfg.Backtest.RSIPeriod

	rec := newRecorder(cfg)
	defer rec.Close()

	var tn *notifier.TelegramNotifier
	var n notifier.Notifier = notifier.NewConsoleNotifier(os.Stdout)
	if cfg.TelegramEnabled() {
		tn = notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy)
		n = tn
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	sched := scheduler.NewScheduler(ctx, col, cfg.BacktestConfig(), n, rec)
	sched.Generator.Verbose = *verbose
	sched.Grid = backtest.Grid(cfg.Sweep.StopLossPcts, cfg.Sweep.TakeProfitPcts)
	sched.Workers = cfg.Sweep.Workers

	switch {
	case *daemon:
		runDaemon(ctx, cfg, sched, tn)
	case *sweep:
		results, err := sched.RunSweep(ctx)
		if err != nil {
			log.Fatalf("[FATAL] sweep: %v", err)
		}
		if err := n.SendWithRetry(ctx, notifier.FormatSweep(results), 3); err != nil {
			log.Printf("[ERROR] send sweep report: %v", err)
		}
		if best := backtest.Best(results); best != nil {
			export(cfg.Output.Dir, best)
		}
	default:
		res, err := sched.RunOnce(ctx)
		if err != nil {
			log.Fatalf("[FATAL] backtest: %v", err)
		}
		export(cfg.Output.Dir, res)
	}
}

func newFetcher(cfg *config.Config) collector.Fetcher {
	switch cfg.DataSource.Provider {
	case config.ProviderBinance:
		return collector.NewBinanceFetcher(cfg.DataSource.APIKey, cfg.DataSource.SecretKey, cfg.Proxy)
	case config.ProviderCSV:
		return collector.NewCSVFetcher(cfg.DataSource.CSVPath)
	default:
		return collector.NewYahooFetcher(cfg.Proxy)
	}
}

func newRecorder(cfg *config.Config) recorder.Recorder {
	if cfg.Database.SQLitePath == "" {
		return recorder.NewNoopRecorder()
	}
	sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath)
	if err != nil {
		log.Printf("[WARN] init sqlite recorder failed, using noop: %v", err)
		return recorder.NewNoopRecorder()
	}
	return sr
}

func runDaemon(ctx context.Context, cfg *config.Config, sched *scheduler.Scheduler, tn *notifier.TelegramNotifier) {
	if err := sched.Register(cfg.Schedule.Cron); err != nil {
		log.Fatalf("[FATAL] register cron task: %v", err)
	}
	sched.Start()
	defer sched.Stop()

	if tn != nil {
		go tn.StartPolling(ctx, sched.HandleCommand)
		log.Println("[INFO] Telegram polling started")
	}
	if os.Getenv("RUN_ON_START") == "true" {
		log.Println("[INFO] RUN_ON_START enabled, running backtest now")
		go func() {
			if _, err := sched.RunOnce(ctx); err != nil {
				log.Printf("[ERROR] backtest: %v", err)
			}
		}()
	}

	log.Printf("[INFO] FiboTrader is running (%s). Press Ctrl+C to stop.", cfg.Schedule.Cron)
	<-ctx.Done()
	log.Println("[INFO] shutdown signal received, stopping...")
}

// export writes result.json, trades.csv and series.csv into dir. An empty
// dir disables export.
func export(dir string, res *backtest.Result) {
	if dir == "" {
		return
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		log.Printf("[ERROR] create output dir: %v", err)
		return
	}
	steps := []struct {
		name  string
		write func(string) error
	}{
		{"result.json", func(p string) error { return backtest.SaveResultJSON(p, res) }},
		{"trades.csv", func(p string) error { return backtest.WriteTradesCSV(p, res.Trades) }},
		{"series.csv", func(p string) error { return backtest.WriteSeriesCSV(p, res.Bars) }},
	}
	for _, s := range steps {
		p := filepath.Join(dir, s.name)
		if err := s.write(p); err != nil {
			log.Printf("[ERROR] export %s: %v", s.name, err)
			continue
		}
		fmt.Fprintf(os.Stderr, "wrote %s\n", p)
	}
}
