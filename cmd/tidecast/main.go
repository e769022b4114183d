package main

import (
	"context"
	"flag"
	"log/slog"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/adshao/go-binance/v2"

	"tidecast/internal/config"
	"tidecast/internal/forecast"
	"tidecast/internal/market"
	"tidecast/internal/performance"
	"tidecast/internal/portfolio"
	"tidecast/internal/scheduler"
	sig "tidecast/internal/signal"
	"tidecast/internal/store"
	"tidecast/internal/web"
)

func main() {
	configPath := flag.String("config", "config.toml", "Path to TOML configuration")
	flag.Parse()

	if p := os.Getenv("TIDECAST_CONFIG_PATH"); p != "" && *configPath == "config.toml" {
		*configPath = p
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Set up structured logging.
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel(cfg.General.LogLevel),
	})))

	slog.Info("tidecast starting", "symbol", cfg.Market.Symbol)

	// Initialize the session store.
	database, err := store.Open(cfg.General.DBPath)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer database.Close()

	if err := store.Migrate(database); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	st, err := store.NewSession(database, cfg.Market.Symbol, cfg.Trading)
	if err != nil {
		slog.Error("failed to create session", "error", err)
		os.Exit(1)
	}
	slog.Info("session created", "session_id", st.SessionID(), "db", cfg.General.DBPath)

	// Forecasting: a trained ONNX model when configured, random walk
	// otherwise.
	var model forecast.Forecaster
	if cfg.Forecast.ModelPath != "" {
		model, err = forecast.NewONNXForecaster(
			cfg.Forecast.ModelPath, cfg.Forecast.SequenceLength, cfg.Forecast.FeatureDim)
		if err != nil {
			slog.Error("failed to load forecast model", "path", cfg.Forecast.ModelPath, "error", err)
			os.Exit(1)
		}
		slog.Info("forecast model loaded", "path", cfg.Forecast.ModelPath)
	} else {
		model = forecast.RandomWalk{}
		slog.Warn("no model_path configured, using random-walk forecaster")
	}
	defer model.Close()

	seed := cfg.Forecast.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	ensemble := forecast.NewEnsemble(model, cfg.Forecast, rand.New(rand.NewSource(seed)))

	classifier, err := sig.NewClassifier(cfg.Signal)
	if err != nil {
		slog.Error("invalid signal thresholds", "error", err)
		os.Exit(1)
	}

	ledger := portfolio.NewLedger(cfg.Trading)
	tracker := performance.NewTracker(ledger)
	fetcher := market.NewFetcher(binance.NewClient("", ""), cfg.Market)

	sched := scheduler.New(fetcher, ensemble, classifier, ledger, tracker, st, cfg)

	// Graceful shutdown.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		s := <-sigCh
		slog.Info("received signal, shutting down", "signal", s)
		cancel()
	}()

	if cfg.Web.Enabled {
		srv := web.NewServer(cfg.Web.Addr, st.SessionID(), ledger, tracker)
		go func() {
			if err := srv.Run(ctx); err != nil && err != context.Canceled {
				slog.Error("web server error", "error", err)
			}
		}()
	}

	if err := sched.Run(ctx); err != nil && err != context.Canceled {
		slog.Error("scheduler error", "error", err)
		os.Exit(1)
	}

	slog.Info("tidecast stopped")
}

// loadConfig falls back to defaults when no config file exists, so the
// paper trader runs out of the box.
func loadConfig(path string) (*config.Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		cfg := config.DefaultConfig()
		return cfg, cfg.Validate()
	}
	return config.Load(path)
}

func logLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
