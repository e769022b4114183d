package portfolio

import (
	"tidecast/internal/config"
	"tidecast/internal/signal"
)

// Sizer converts a signal plus the current book into a unit delta. Positive
// deltas buy, negative sell, zero holds. Requests are clamped to what the
// book can absorb, never rejected.
type Sizer struct {
	cfg config.TradingConfig
}

func NewSizer(cfg config.TradingConfig) *Sizer {
	return &Sizer{cfg: cfg}
}

// requestedUnits is the tier table: strong signals step two units, moderate
// one, weak half. Neutral holds and never closes an open position.
func requestedUnits(sig signal.Signal) float64 {
	switch sig {
	case signal.StrongBullish:
		return 2.0
	case signal.ModerateBullish:
		return 1.0
	case signal.WeakBullish:
		return 0.5
	case signal.WeakBearish:
		return -0.5
	case signal.ModerateBearish:
		return -1.0
	case signal.StrongBearish:
		return -2.0
	default:
		return 0
	}
}

// Delta returns the clamped unit adjustment for the given signal and book.
// Buys never exceed unit capacity or available cash; sells never exceed the
// units held, so a bearish signal on a flat book is a no-op.
func (s *Sizer) Delta(sig signal.Signal, unitsHeld, cash float64) float64 {
	delta := requestedUnits(sig)
	if delta == 0 {
		return 0
	}

	if delta > 0 {
		if room := s.cfg.MaxUnits - unitsHeld; delta > room {
			delta = room
		}
		if affordable := cash / s.cfg.UnitSize; delta > affordable {
			delta = affordable
		}
		if delta < 0 {
			delta = 0
		}
		return delta
	}

	if -delta > unitsHeld {
		delta = -unitsHeld
	}
	return delta
}
