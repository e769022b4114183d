package portfolio

import (
	"fmt"
	"sync"
	"time"

	"tidecast/internal/config"
	"tidecast/internal/signal"
)

// unitEps is the tolerance for treating a fractional unit balance as zero.
const unitEps = 1e-9

// TradeRecord is one FIFO lot's lifecycle: opened by a buy, reduced by one
// or more sell legs, closed when no units remain. Exit fields stay zero
// while the lot is open.
type TradeRecord struct {
	ID             int
	EntryTime      time.Time
	EntryPrice     float64
	Units          float64
	RemainingUnits float64
	ExitTime       time.Time
	ExitPrice      float64 // unit-weighted average across exit legs
	RealizedPnL    float64
	ReturnRate     float64 // percent, entry to weighted exit
	HoldingHours   int
	Closed         bool
}

// EquityPoint is one appended sample of the equity curve.
type EquityPoint struct {
	Time          time.Time
	Value         float64
	Cash          float64
	PositionValue float64
	UnrealizedPnL float64
}

// Snapshot is a consistent read-only view of the book at one instant.
type Snapshot struct {
	Time          time.Time
	Price         float64
	Cash          float64
	Units         float64
	AvgEntryPrice float64
	CostBasis     float64
	PositionValue float64
	UnrealizedPnL float64
	Value         float64
}

// TickResult reports what one Advance call did.
type TickResult struct {
	Signal      signal.Signal
	Action      string // "buy", "sell" or "hold"
	DeltaUnits  float64
	RealizedPnL float64
	Snapshot    Snapshot
}

// lot is an open purchase tracked for FIFO realization.
type lot struct {
	units      float64
	entryPrice float64
	trade      *TradeRecord
}

// Ledger owns all mutable portfolio state: cash, open lots, the trade log
// and the equity curve. Advance is the only mutator and must be called
// exactly once per tick; all reads return copies, so a concurrent host
// never observes a torn write.
type Ledger struct {
	mu    sync.Mutex
	cfg   config.TradingConfig
	sizer *Sizer

	cash      float64
	lots      []*lot
	trades    []*TradeRecord
	curve     []EquityPoint
	lastTick  time.Time
	lastPrice float64
	nextID    int
}

func NewLedger(cfg config.TradingConfig) *Ledger {
	return &Ledger{
		cfg:    cfg,
		sizer:  NewSizer(cfg),
		cash:   cfg.InitialCapital,
		nextID: 1,
	}
}

// Advance marks the book to market at price, applies the sized position
// change for sig, and appends one equity-curve point. A rejected tick
// leaves the ledger untouched.
func (l *Ledger) Advance(ts time.Time, price float64, sig signal.Signal) (TickResult, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if price <= 0 {
		return TickResult{}, fmt.Errorf("%w: %v", ErrInvalidPrice, price)
	}
	if !l.lastTick.IsZero() && ts.Before(l.lastTick) {
		return TickResult{}, fmt.Errorf("%w: %s < %s", ErrStaleTick,
			ts.Format(time.RFC3339), l.lastTick.Format(time.RFC3339))
	}

	delta := l.sizer.Delta(sig, l.unitsLocked(), l.cash)

	// All failure paths are checked before any mutation.
	if delta > unitEps {
		if cost := delta * l.cfg.UnitSize; cost > l.cash+unitEps {
			return TickResult{}, fmt.Errorf("%w: buy of %.4f units needs %.2f, cash %.2f",
				ErrInsufficientCapital, delta, cost, l.cash)
		}
	}

	result := TickResult{Signal: sig, Action: "hold", DeltaUnits: delta}
	switch {
	case delta > unitEps:
		l.buyLocked(delta, price, ts)
		result.Action = "buy"
	case delta < -unitEps:
		result.RealizedPnL = l.sellLocked(-delta, price, ts)
		result.Action = "sell"
	default:
		result.DeltaUnits = 0
	}

	l.lastTick = ts
	l.lastPrice = price

	snap := l.snapshotLocked(ts, price)
	l.curve = append(l.curve, EquityPoint{
		Time:          ts,
		Value:         snap.Value,
		Cash:          snap.Cash,
		PositionValue: snap.PositionValue,
		UnrealizedPnL: snap.UnrealizedPnL,
	})

	result.Snapshot = snap
	return result, nil
}

// buyLocked opens a new FIFO lot of delta units at price.
func (l *Ledger) buyLocked(delta, price float64, ts time.Time) {
	l.cash -= delta * l.cfg.UnitSize

	trade := &TradeRecord{
		ID:             l.nextID,
		EntryTime:      ts,
		EntryPrice:     price,
		Units:          delta,
		RemainingUnits: delta,
	}
	l.nextID++
	l.trades = append(l.trades, trade)
	l.lots = append(l.lots, &lot{units: delta, entryPrice: price, trade: trade})
}

// sellLocked closes sellUnits against open lots oldest-first, crediting the
// freed lot cost plus realized P&L to cash. Returns the realized P&L.
func (l *Ledger) sellLocked(sellUnits, price float64, ts time.Time) float64 {
	var realized float64
	remaining := sellUnits

	kept := l.lots[:0]
	for _, lt := range l.lots {
		if remaining <= unitEps {
			kept = append(kept, lt)
			continue
		}

		take := lt.units
		if take > remaining {
			take = remaining
		}

		legPnL := take * l.cfg.UnitSize * (price - lt.entryPrice) / lt.entryPrice
		realized += legPnL
		l.applyExitLeg(lt.trade, take, price, legPnL, ts)

		lt.units -= take
		remaining -= take
		if lt.units > unitEps {
			kept = append(kept, lt)
		}
	}
	l.lots = kept

	l.cash += sellUnits*l.cfg.UnitSize + realized
	return realized
}

// applyExitLeg folds one partial exit into a trade record, keeping the exit
// price as a unit-weighted average across legs.
func (l *Ledger) applyExitLeg(t *TradeRecord, units, price, pnl float64, ts time.Time) {
	exited := t.Units - t.RemainingUnits
	if exited <= unitEps {
		t.ExitPrice = price
	} else {
		t.ExitPrice = (t.ExitPrice*exited + price*units) / (exited + units)
	}
	t.ExitTime = ts
	t.RemainingUnits -= units
	t.RealizedPnL += pnl
	t.ReturnRate = (t.ExitPrice - t.EntryPrice) / t.EntryPrice * 100
	t.HoldingHours = int(ts.Sub(t.EntryTime).Hours())
	if t.RemainingUnits <= unitEps {
		t.RemainingUnits = 0
		t.Closed = true
	}
}

func (l *Ledger) unitsLocked() float64 {
	var units float64
	for _, lt := range l.lots {
		units += lt.units
	}
	if units < unitEps {
		return 0
	}
	return units
}

// snapshotLocked values the book at price. Position value is per-lot cost
// basis scaled by the price ratio, so cash + position value always equals
// portfolio value.
func (l *Ledger) snapshotLocked(ts time.Time, price float64) Snapshot {
	var units, costBasis, posValue, weighted float64
	for _, lt := range l.lots {
		units += lt.units
		costBasis += lt.units * l.cfg.UnitSize
		posValue += lt.units * l.cfg.UnitSize * price / lt.entryPrice
		weighted += lt.units * lt.entryPrice
	}

	snap := Snapshot{
		Time:          ts,
		Price:         price,
		Cash:          l.cash,
		Units:         units,
		CostBasis:     costBasis,
		PositionValue: posValue,
		UnrealizedPnL: posValue - costBasis,
		Value:         l.cash + posValue,
	}
	if units > unitEps {
		snap.AvgEntryPrice = weighted / units
	}
	return snap
}

// Snapshot returns the book valued at the last accepted tick's price.
func (l *Ledger) Snapshot() Snapshot {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.snapshotLocked(l.lastTick, l.lastPrice)
}

// History returns a copy of the equity curve.
func (l *Ledger) History() []EquityPoint {
	l.mu.Lock()
	defer l.mu.Unlock()
	curve := make([]EquityPoint, len(l.curve))
	copy(curve, l.curve)
	return curve
}

// Trades returns value copies of every trade record, open and closed,
// oldest first.
func (l *Ledger) Trades() []TradeRecord {
	l.mu.Lock()
	defer l.mu.Unlock()
	trades := make([]TradeRecord, 0, len(l.trades))
	for _, t := range l.trades {
		trades = append(trades, *t)
	}
	return trades
}

// InitialCapital exposes the configured starting cash for derived metrics.
func (l *Ledger) InitialCapital() float64 {
	return l.cfg.InitialCapital
}
