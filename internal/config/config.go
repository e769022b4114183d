package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

type Config struct {
	General  GeneralConfig  `toml:"general"`
	Trading  TradingConfig  `toml:"trading"`
	Signal   SignalConfig   `toml:"signal"`
	Forecast ForecastConfig `toml:"forecast"`
	Market   MarketConfig   `toml:"market"`
	Schedule ScheduleConfig `toml:"schedule"`
	Web      WebConfig      `toml:"web"`
}

type GeneralConfig struct {
	DBPath   string `toml:"db_path"`
	LogLevel string `toml:"log_level"`
}

// TradingConfig holds the capital parameters of the simulated portfolio.
type TradingConfig struct {
	InitialCapital float64 `toml:"initial_capital"`
	UnitSize       float64 `toml:"unit_size"`
	MaxUnits       float64 `toml:"max_units"`
}

// SignalConfig is the seven-rule classification threshold table. The same
// thresholds apply symmetrically to the bullish and bearish sides.
type SignalConfig struct {
	StrongDirectional   float64 `toml:"strong_directional"`
	StrongModerate      float64 `toml:"strong_moderate"`
	ModerateDirectional float64 `toml:"moderate_directional"`
	ModerateModerate    float64 `toml:"moderate_moderate"`
	WeakDirectional     float64 `toml:"weak_directional"`
}

type ForecastConfig struct {
	ModelPath      string  `toml:"model_path"`
	SequenceLength int     `toml:"sequence_length"`
	FeatureDim     int     `toml:"feature_dim"`
	Samples        int     `toml:"samples"`
	InputNoise     float64 `toml:"input_noise"`
	PriceJitterPct float64 `toml:"price_jitter_pct"`
	ModerateEdge   float64 `toml:"moderate_edge"`
	LargeEdge      float64 `toml:"large_edge"`
	Seed           int64   `toml:"seed"`
}

type MarketConfig struct {
	Symbol          string   `toml:"symbol"`
	ReferenceSymbol string   `toml:"reference_symbol"`
	Interval        string   `toml:"interval"`
	LookbackBars    int      `toml:"lookback_bars"`
	MaxRetries      int      `toml:"max_retries"`
	RetryDelay      Duration `toml:"retry_delay"`
	CacheTTL        Duration `toml:"cache_ttl"`
}

type ScheduleConfig struct {
	TickInterval        Duration `toml:"tick_interval"`
	PerformanceInterval Duration `toml:"performance_interval"`
	AlignToInterval     bool     `toml:"align_to_interval"`
}

type WebConfig struct {
	Enabled bool   `toml:"enabled"`
	Addr    string `toml:"addr"`
}

// Duration wraps time.Duration for TOML unmarshaling.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func DefaultConfig() *Config {
	return &Config{
		General: GeneralConfig{
			DBPath:   "./data/tidecast.db",
			LogLevel: "info",
		},
		Trading: TradingConfig{
			InitialCapital: 20_000.0,
			UnitSize:       2_500.0,
			MaxUnits:       5.0,
		},
		Signal: SignalConfig{
			StrongDirectional:   0.75,
			StrongModerate:      0.35,
			ModerateDirectional: 0.65,
			ModerateModerate:    0.20,
			WeakDirectional:     0.55,
		},
		Forecast: ForecastConfig{
			SequenceLength: 24,
			FeatureDim:     2,
			Samples:        200,
			InputNoise:     0.01,
			PriceJitterPct: 0.02,
			ModerateEdge:   0.05,
			LargeEdge:      0.10,
		},
		Market: MarketConfig{
			Symbol:          "ETHUSDT",
			ReferenceSymbol: "BTCUSDT",
			Interval:        "1h",
			LookbackBars:    100,
			MaxRetries:      5,
			RetryDelay:      Duration{10 * time.Second},
			CacheTTL:        Duration{10 * time.Minute},
		},
		Schedule: ScheduleConfig{
			TickInterval:        Duration{1 * time.Hour},
			PerformanceInterval: Duration{6 * time.Hour},
			AlignToInterval:     true,
		},
		Web: WebConfig{
			Enabled: true,
			Addr:    ":8080",
		},
	}
}

// Validate rejects configurations the engine cannot run with. Threshold and
// capital parameters come from user-edited TOML, so a malformed table must
// fail here rather than misclassify silently later.
func (c *Config) Validate() error {
	t := c.Trading
	if t.InitialCapital <= 0 {
		return fmt.Errorf("%w: initial_capital must be positive, got %v", ErrInvalidConfig, t.InitialCapital)
	}
	if t.UnitSize <= 0 {
		return fmt.Errorf("%w: unit_size must be positive, got %v", ErrInvalidConfig, t.UnitSize)
	}
	if t.MaxUnits <= 0 {
		return fmt.Errorf("%w: max_units must be positive, got %v", ErrInvalidConfig, t.MaxUnits)
	}

	if err := c.Signal.Validate(); err != nil {
		return err
	}

	f := c.Forecast
	if f.Samples < 1 {
		return fmt.Errorf("%w: forecast samples must be at least 1, got %d", ErrInvalidConfig, f.Samples)
	}
	if f.ModerateEdge <= 0 || f.LargeEdge <= f.ModerateEdge {
		return fmt.Errorf("%w: distribution bin edges must satisfy 0 < moderate_edge < large_edge", ErrInvalidConfig)
	}

	return nil
}

// Validate checks the classification threshold table on its own, so the
// classifier constructor can reject a malformed table without a full Config.
func (s SignalConfig) Validate() error {
	for name, v := range map[string]float64{
		"strong_directional":   s.StrongDirectional,
		"strong_moderate":      s.StrongModerate,
		"moderate_directional": s.ModerateDirectional,
		"moderate_moderate":    s.ModerateModerate,
		"weak_directional":     s.WeakDirectional,
	} {
		if v < 0 || v > 1 {
			return fmt.Errorf("%w: signal threshold %s must be in [0,1], got %v", ErrInvalidConfig, name, v)
		}
	}
	// The rule table is evaluated most-extreme-first; thresholds that are
	// not strictly ordered make a tier unreachable.
	if !(s.StrongDirectional > s.ModerateDirectional && s.ModerateDirectional > s.WeakDirectional) {
		return fmt.Errorf("%w: directional thresholds must be strictly decreasing (strong > moderate > weak)", ErrInvalidConfig)
	}
	if s.StrongModerate <= s.ModerateModerate {
		return fmt.Errorf("%w: strong_moderate must exceed moderate_moderate", ErrInvalidConfig)
	}
	// With a directional floor above 0.5 at most one side can fire, so the
	// bullish-first rule order never has to break a real tie.
	if s.WeakDirectional <= 0.5 {
		return fmt.Errorf("%w: weak_directional must exceed 0.5, got %v", ErrInvalidConfig, s.WeakDirectional)
	}
	return nil
}
