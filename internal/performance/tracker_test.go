package performance

import (
	"math"
	"testing"
	"time"

	"tidecast/internal/config"
	"tidecast/internal/portfolio"
	"tidecast/internal/signal"
)

var t0 = time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

func newTestLedger() *portfolio.Ledger {
	return portfolio.NewLedger(config.TradingConfig{
		InitialCapital: 20_000,
		UnitSize:       2_500,
		MaxUnits:       5,
	})
}

func advance(t *testing.T, l *portfolio.Ledger, hour int, price float64, sig signal.Signal) {
	t.Helper()
	if _, err := l.Advance(t0.Add(time.Duration(hour)*time.Hour), price, sig); err != nil {
		t.Fatal(err)
	}
}

func TestGenerate_FreshSession(t *testing.T) {
	tr := NewTracker(newTestLedger())

	r := tr.Generate()
	if r.PortfolioValue != 20_000 {
		t.Errorf("value: got %v, want 20000", r.PortfolioValue)
	}
	if r.TotalReturnRate != 0 || r.MaxDrawdown != 0 {
		t.Errorf("fresh session: return=%v drawdown=%v, want zeros", r.TotalReturnRate, r.MaxDrawdown)
	}
	// No closed trades must not divide by zero.
	if r.WinRate != 0 {
		t.Errorf("win rate with no trades: got %v, want 0", r.WinRate)
	}
}

func TestGenerate_ReturnRate(t *testing.T) {
	l := newTestLedger()
	tr := NewTracker(l)

	advance(t, l, 1, 2000, signal.StrongBullish)
	advance(t, l, 2, 2200, signal.Neutral)

	// unrealized = 2*2500*(2200-2000)/2000 = 500, value 20500.
	r := tr.Generate()
	if math.Abs(r.TotalReturnRate-2.5) > 1e-9 {
		t.Errorf("return rate: got %v, want 2.5", r.TotalReturnRate)
	}
}

func TestGenerate_WinRate(t *testing.T) {
	l := newTestLedger()
	tr := NewTracker(l)

	// Winning round trip.
	advance(t, l, 1, 2000, signal.ModerateBullish)
	advance(t, l, 2, 2400, signal.StrongBearish)
	// Losing round trip.
	advance(t, l, 3, 2400, signal.ModerateBullish)
	advance(t, l, 4, 2000, signal.StrongBearish)

	r := tr.Generate()
	if r.ClosedTrades != 2 {
		t.Fatalf("closed trades: got %d, want 2", r.ClosedTrades)
	}
	if r.ProfitableTrades != 1 {
		t.Errorf("profitable trades: got %d, want 1", r.ProfitableTrades)
	}
	if math.Abs(r.WinRate-0.5) > 1e-9 {
		t.Errorf("win rate: got %v, want 0.5", r.WinRate)
	}
}

func TestGenerate_DrawdownMonotone(t *testing.T) {
	l := newTestLedger()
	tr := NewTracker(l)

	advance(t, l, 1, 2000, signal.StrongBullish)

	prices := []float64{2100, 1900, 1700, 1850, 2300, 2000, 2400}
	var last float64
	for i, p := range prices {
		advance(t, l, i+2, p, signal.Neutral)
		r := tr.Generate()
		if r.MaxDrawdown < last-1e-12 {
			t.Fatalf("drawdown shrank from %v to %v at price %v", last, r.MaxDrawdown, p)
		}
		last = r.MaxDrawdown
	}
	if last == 0 {
		t.Error("expected non-zero drawdown after the dip")
	}
}

func TestGenerate_DrawdownValue(t *testing.T) {
	l := newTestLedger()
	tr := NewTracker(l)

	// Buy 2 units at 2000, then the price halves: unrealized -2500,
	// value 17500 against a 20000 peak -> 12.5% drawdown.
	advance(t, l, 1, 2000, signal.StrongBullish)
	advance(t, l, 2, 1000, signal.Neutral)

	r := tr.Generate()
	if math.Abs(r.MaxDrawdown-12.5) > 1e-9 {
		t.Errorf("drawdown: got %v, want 12.5", r.MaxDrawdown)
	}
	if r.PeakValue != 20_000 {
		t.Errorf("peak: got %v, want 20000", r.PeakValue)
	}
}

func TestDrawdownSeries_AlignsWithCurve(t *testing.T) {
	l := newTestLedger()

	advance(t, l, 1, 2000, signal.StrongBullish)
	advance(t, l, 2, 2200, signal.Neutral)
	advance(t, l, 3, 2000, signal.Neutral)

	curve := l.History()
	series := DrawdownSeries(curve, l.InitialCapital())
	if len(series) != len(curve) {
		t.Fatalf("series length %d != curve length %d", len(series), len(curve))
	}
	if series[0] != 0 {
		t.Errorf("first point drawdown: got %v, want 0", series[0])
	}
	if series[2] <= 0 {
		t.Errorf("post-peak point drawdown: got %v, want > 0", series[2])
	}
}
