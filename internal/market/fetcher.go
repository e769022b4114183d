package market

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/adshao/go-binance/v2"

	"tidecast/internal/config"
)

// Candle is one closed kline of the tracked interval.
type Candle struct {
	OpenTime  time.Time
	CloseTime time.Time
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    float64
}

// Tick is the per-interval market update fed to the engine.
type Tick struct {
	Time   time.Time
	Price  float64
	Volume float64
}

// Fetcher pulls klines from Binance with bounded retries. Public kline
// endpoints need no API key.
type Fetcher struct {
	client *binance.Client
	cfg    config.MarketConfig
	cache  *Cache
}

func NewFetcher(client *binance.Client, cfg config.MarketConfig) *Fetcher {
	return &Fetcher{
		client: client,
		cfg:    cfg,
		cache:  NewCache(cfg.CacheTTL.Duration),
	}
}

// Klines fetches the most recent closed candles for symbol, newest last.
// The still-forming candle is dropped so every returned close is final.
func (f *Fetcher) Klines(ctx context.Context, symbol string) ([]Candle, error) {
	if cached, ok := f.cache.Get(symbol); ok {
		return cached, nil
	}

	var lastErr error
	for attempt := 0; attempt < f.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			slog.Warn("kline fetch retrying",
				"symbol", symbol,
				"attempt", attempt+1,
				"error", lastErr,
			)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(f.cfg.RetryDelay.Duration):
			}
		}

		klines, err := f.client.NewKlinesService().
			Symbol(symbol).
			Interval(f.cfg.Interval).
			Limit(f.cfg.LookbackBars + 1).
			Do(ctx)
		if err != nil {
			lastErr = err
			continue
		}
		if len(klines) < 2 {
			lastErr = fmt.Errorf("got %d klines for %s, need at least 2", len(klines), symbol)
			continue
		}

		candles := make([]Candle, 0, len(klines)-1)
		for _, k := range klines[:len(klines)-1] {
			candles = append(candles, Candle{
				OpenTime:  time.UnixMilli(k.OpenTime),
				CloseTime: time.UnixMilli(k.CloseTime),
				Open:      parseFloat(k.Open),
				High:      parseFloat(k.High),
				Low:       parseFloat(k.Low),
				Close:     parseFloat(k.Close),
				Volume:    parseFloat(k.Volume),
			})
		}

		f.cache.Set(symbol, candles)
		return candles, nil
	}
	return nil, fmt.Errorf("fetching %s klines after %d attempts: %w", symbol, f.cfg.MaxRetries, lastErr)
}

// Latest returns the newest closed candle of the tracked symbol as a tick.
func (f *Fetcher) Latest(ctx context.Context) (Tick, error) {
	candles, err := f.Klines(ctx, f.cfg.Symbol)
	if err != nil {
		return Tick{}, err
	}
	last := candles[len(candles)-1]
	return Tick{Time: last.CloseTime, Price: last.Close, Volume: last.Volume}, nil
}

// Closes extracts the close series from a candle slice, oldest first.
func Closes(candles []Candle) []float64 {
	closes := make([]float64, len(candles))
	for i, c := range candles {
		closes[i] = c.Close
	}
	return closes
}

func parseFloat(s string) float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}
