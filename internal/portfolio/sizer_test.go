package portfolio

import (
	"testing"

	"tidecast/internal/config"
	"tidecast/internal/signal"
)

func testTradingConfig() config.TradingConfig {
	return config.TradingConfig{
		InitialCapital: 20_000,
		UnitSize:       2_500,
		MaxUnits:       5,
	}
}

func TestDelta_TierTable(t *testing.T) {
	s := NewSizer(testTradingConfig())

	cases := []struct {
		sig   signal.Signal
		units float64
		cash  float64
		want  float64
	}{
		{signal.StrongBullish, 0, 20_000, 2},
		{signal.ModerateBullish, 0, 20_000, 1},
		{signal.WeakBullish, 0, 20_000, 0.5},
		{signal.Neutral, 0, 20_000, 0},
		{signal.WeakBearish, 2, 15_000, -0.5},
		{signal.ModerateBearish, 2, 15_000, -1},
		{signal.StrongBearish, 3, 12_500, -2},
	}

	for _, tc := range cases {
		if got := s.Delta(tc.sig, tc.units, tc.cash); got != tc.want {
			t.Errorf("%s units=%v: got %v, want %v", tc.sig, tc.units, got, tc.want)
		}
	}
}

func TestDelta_ClampsToUnitCapacity(t *testing.T) {
	s := NewSizer(testTradingConfig())

	// 4.5 units held, strong bullish wants 2, room for only 0.5.
	if got := s.Delta(signal.StrongBullish, 4.5, 20_000); got != 0.5 {
		t.Errorf("got %v, want 0.5", got)
	}
	// Full book buys nothing.
	if got := s.Delta(signal.StrongBullish, 5, 20_000); got != 0 {
		t.Errorf("full book: got %v, want 0", got)
	}
}

func TestDelta_ClampsToCash(t *testing.T) {
	s := NewSizer(testTradingConfig())

	// Cash covers 1.2 units, strong bullish wants 2.
	if got := s.Delta(signal.StrongBullish, 0, 3_000); got != 1.2 {
		t.Errorf("got %v, want 1.2", got)
	}
	// No cash buys nothing.
	if got := s.Delta(signal.ModerateBullish, 0, 0); got != 0 {
		t.Errorf("zero cash: got %v, want 0", got)
	}
}

func TestDelta_ClampsSellToHeldUnits(t *testing.T) {
	s := NewSizer(testTradingConfig())

	// Holding 1.5 units, strong bearish wants to sell 2.
	if got := s.Delta(signal.StrongBearish, 1.5, 10_000); got != -1.5 {
		t.Errorf("got %v, want -1.5", got)
	}
}

func TestDelta_BearishOnFlatBook(t *testing.T) {
	s := NewSizer(testTradingConfig())

	for _, sig := range []signal.Signal{signal.WeakBearish, signal.ModerateBearish, signal.StrongBearish} {
		if got := s.Delta(sig, 0, 20_000); got != 0 {
			t.Errorf("%s on flat book: got %v, want 0", sig, got)
		}
	}
}

func TestDelta_NeutralNeverTrades(t *testing.T) {
	s := NewSizer(testTradingConfig())

	for _, units := range []float64{0, 0.5, 2.5, 5} {
		if got := s.Delta(signal.Neutral, units, 20_000); got != 0 {
			t.Errorf("neutral with %v units: got %v, want 0", units, got)
		}
	}
}

func TestDelta_ResultStaysInBounds(t *testing.T) {
	s := NewSizer(testTradingConfig())
	signals := []signal.Signal{
		signal.StrongBullish, signal.ModerateBullish, signal.WeakBullish,
		signal.Neutral, signal.WeakBearish, signal.ModerateBearish, signal.StrongBearish,
	}

	for _, sig := range signals {
		for _, units := range []float64{0, 0.5, 1, 2.5, 4.5, 5} {
			for _, cash := range []float64{0, 1_000, 10_000, 20_000} {
				after := units + s.Delta(sig, units, cash)
				if after < 0 || after > 5 {
					t.Errorf("%s units=%v cash=%v: resulting units %v out of [0,5]", sig, units, cash, after)
				}
			}
		}
	}
}
