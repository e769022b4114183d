package performance

import (
	"math"

	"tidecast/internal/portfolio"
)

// Tracker derives performance metrics from the ledger's history. It holds
// no mutable state of its own; every Generate call recomputes from scratch.
type Tracker struct {
	ledger *portfolio.Ledger
}

func NewTracker(ledger *portfolio.Ledger) *Tracker {
	return &Tracker{ledger: ledger}
}

// Report contains all derived performance metrics.
type Report struct {
	PortfolioValue   float64
	TotalReturnRate  float64 // percent over initial capital
	PeakValue        float64
	MaxDrawdown      float64 // percent off the running peak
	ClosedTrades     int
	ProfitableTrades int
	WinRate          float64 // fraction of closed trades with positive P&L
	RealizedPnL      float64
	AvgHoldingHours  float64
}

// Generate computes the full report from the current equity curve and
// trade log.
func (t *Tracker) Generate() Report {
	r := Report{}
	initial := t.ledger.InitialCapital()

	curve := t.ledger.History()
	r.PortfolioValue = initial
	if len(curve) > 0 {
		r.PortfolioValue = curve[len(curve)-1].Value
	}
	if initial > 0 {
		r.TotalReturnRate = (r.PortfolioValue/initial - 1) * 100
	}
	r.PeakValue, r.MaxDrawdown = drawdown(curve, initial)

	var holdingHours float64
	for _, trade := range t.ledger.Trades() {
		if !trade.Closed {
			continue
		}
		r.ClosedTrades++
		r.RealizedPnL += trade.RealizedPnL
		holdingHours += float64(trade.HoldingHours)
		if trade.RealizedPnL > 0 {
			r.ProfitableTrades++
		}
	}
	if r.ClosedTrades > 0 {
		r.WinRate = float64(r.ProfitableTrades) / float64(r.ClosedTrades)
		r.AvgHoldingHours = holdingHours / float64(r.ClosedTrades)
	}

	return r
}

// drawdown scans the equity curve once, tracking the running peak and the
// worst percentage decline from it. Seeding the peak with the initial
// capital keeps the figure monotone as history grows.
func drawdown(curve []portfolio.EquityPoint, initial float64) (peak, maxDD float64) {
	peak = initial
	for _, p := range curve {
		if p.Value > peak {
			peak = p.Value
		}
		if peak > 0 {
			dd := (peak - p.Value) / peak * 100
			maxDD = math.Max(maxDD, dd)
		}
	}
	return peak, maxDD
}

// DrawdownSeries returns the percentage drawdown at each curve point,
// aligned with the equity curve. Used by the query API.
func DrawdownSeries(curve []portfolio.EquityPoint, initial float64) []float64 {
	series := make([]float64, len(curve))
	peak := initial
	for i, p := range curve {
		if p.Value > peak {
			peak = p.Value
		}
		if peak > 0 {
			series[i] = (peak - p.Value) / peak * 100
		}
	}
	return series
}
