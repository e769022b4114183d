package scheduler

import (
	"context"
	"log/slog"
	"time"

	"tidecast/internal/config"
	"tidecast/internal/forecast"
	"tidecast/internal/market"
	"tidecast/internal/performance"
	"tidecast/internal/portfolio"
	"tidecast/internal/signal"
	"tidecast/internal/store"
)

// closeGrace is how long after an interval boundary we wait before
// fetching, so the exchange has finalized the candle.
const closeGrace = 10 * time.Second

// Scheduler drives the session: once per interval it fetches market data,
// obtains an ensemble forecast, classifies a signal, advances the ledger
// and persists the result. It is the ledger's only writer, which gives the
// engine its exactly-once-per-tick guarantee.
type Scheduler struct {
	fetcher    *market.Fetcher
	ensemble   *forecast.Ensemble
	classifier *signal.Classifier
	ledger     *portfolio.Ledger
	tracker    *performance.Tracker
	store      *store.Store

	forecastCfg config.ForecastConfig
	scheduleCfg config.ScheduleConfig
	marketCfg   config.MarketConfig

	lastTick time.Time
}

func New(
	fetcher *market.Fetcher,
	ensemble *forecast.Ensemble,
	classifier *signal.Classifier,
	ledger *portfolio.Ledger,
	tracker *performance.Tracker,
	st *store.Store,
	cfg *config.Config,
) *Scheduler {
	return &Scheduler{
		fetcher:     fetcher,
		ensemble:    ensemble,
		classifier:  classifier,
		ledger:      ledger,
		tracker:     tracker,
		store:       st,
		forecastCfg: cfg.Forecast,
		scheduleCfg: cfg.Schedule,
		marketCfg:   cfg.Market,
	}
}

// Run blocks until the context is cancelled, processing one tick per
// interval. A failed tick is logged and skipped; the session continues.
func (s *Scheduler) Run(ctx context.Context) error {
	slog.Info("scheduler starting",
		"symbol", s.marketCfg.Symbol,
		"tick_interval", s.scheduleCfg.TickInterval.Duration,
		"align", s.scheduleCfg.AlignToInterval,
	)

	lastReport := time.Now()
	for {
		if err := s.waitNext(ctx); err != nil {
			return err
		}

		s.runTick(ctx)

		if time.Since(lastReport) >= s.scheduleCfg.PerformanceInterval.Duration {
			performance.LogReport(s.tracker.Generate())
			lastReport = time.Now()
		}
	}
}

// waitNext sleeps until the next tick is due. With alignment on, ticks
// land just after each interval boundary, top of the hour plus a grace
// period at the default interval.
func (s *Scheduler) waitNext(ctx context.Context) error {
	interval := s.scheduleCfg.TickInterval.Duration
	var wait time.Duration
	if s.scheduleCfg.AlignToInterval {
		now := time.Now()
		next := now.Truncate(interval).Add(interval).Add(closeGrace)
		wait = next.Sub(now)
	} else {
		wait = interval
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(wait):
		return nil
	}
}

func (s *Scheduler) runTick(ctx context.Context) {
	primary, err := s.fetcher.Klines(ctx, s.marketCfg.Symbol)
	if err != nil {
		slog.Error("tick skipped: primary klines unavailable", "error", err)
		return
	}

	var reference []market.Candle
	if s.forecastCfg.FeatureDim > 1 {
		reference, err = s.fetcher.Klines(ctx, s.marketCfg.ReferenceSymbol)
		if err != nil {
			slog.Error("tick skipped: reference klines unavailable", "error", err)
			return
		}
	}

	last := primary[len(primary)-1]
	tick := market.Tick{Time: last.CloseTime, Price: last.Close, Volume: last.Volume}

	// The ledger must see each tick exactly once; if the exchange has not
	// produced a new candle yet, there is nothing to advance.
	if !tick.Time.After(s.lastTick) {
		slog.Info("no new candle, holding", "tick_at", tick.Time)
		return
	}

	window, err := forecast.Window(
		market.Closes(primary), market.Closes(reference),
		s.forecastCfg.SequenceLength, s.forecastCfg.FeatureDim, tick.Price,
	)
	if err != nil {
		slog.Error("tick skipped: building feature window", "error", err)
		return
	}

	samples, err := s.ensemble.Sample(window, tick.Price)
	if err != nil {
		slog.Error("tick skipped: ensemble sampling", "error", err)
		return
	}
	mean, std := forecast.Stats(samples)

	summary, err := forecast.Summarize(samples, tick.Price, forecast.Bins{
		ModerateEdge: s.forecastCfg.ModerateEdge,
		LargeEdge:    s.forecastCfg.LargeEdge,
	})
	if err != nil {
		slog.Error("tick skipped: summarizing distribution", "error", err)
		return
	}

	sig := s.classifier.Classify(summary)
	slog.Info("forecast summarized",
		"tick_at", tick.Time,
		"price", tick.Price,
		"ensemble_mean", mean,
		"ensemble_std", std,
		"p_up", summary.PUp,
		"p_up_moderate", summary.PUpModerate,
		"p_down", summary.PDown,
		"p_down_moderate", summary.PDownModerate,
		"signal", sig.String(),
	)

	result, err := s.ledger.Advance(tick.Time, tick.Price, sig)
	if err != nil {
		slog.Error("tick rejected by ledger", "tick_at", tick.Time, "error", err)
		return
	}
	s.lastTick = tick.Time

	slog.Info("tick applied",
		"action", result.Action,
		"delta_units", result.DeltaUnits,
		"realized_pnl", result.RealizedPnL,
		"units", result.Snapshot.Units,
		"cash", result.Snapshot.Cash,
		"portfolio_value", result.Snapshot.Value,
		"unrealized_pnl", result.Snapshot.UnrealizedPnL,
	)

	s.persist(result, sig)
}

func (s *Scheduler) persist(result portfolio.TickResult, sig signal.Signal) {
	report := s.tracker.Generate()
	if err := s.store.SaveSnapshot(result.Snapshot, report, sig); err != nil {
		slog.Error("snapshot save failed", "error", err)
	}
	if err := s.store.SaveTrades(s.ledger.Trades()); err != nil {
		slog.Error("trade log save failed", "error", err)
	}
}
