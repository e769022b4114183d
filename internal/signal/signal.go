package signal

// Signal is the discrete directional classification of one forecast.
type Signal int

const (
	Neutral Signal = iota
	WeakBullish
	ModerateBullish
	StrongBullish
	WeakBearish
	ModerateBearish
	StrongBearish
)

var signalNames = map[Signal]string{
	Neutral:         "neutral",
	WeakBullish:     "weak_bullish",
	ModerateBullish: "moderate_bullish",
	StrongBullish:   "strong_bullish",
	WeakBearish:     "weak_bearish",
	ModerateBearish: "moderate_bearish",
	StrongBearish:   "strong_bearish",
}

func (s Signal) String() string {
	if name, ok := signalNames[s]; ok {
		return name
	}
	return "unknown"
}

// Bullish reports whether the signal requests accumulation.
func (s Signal) Bullish() bool {
	return s == WeakBullish || s == ModerateBullish || s == StrongBullish
}

// Bearish reports whether the signal requests reduction.
func (s Signal) Bearish() bool {
	return s == WeakBearish || s == ModerateBearish || s == StrongBearish
}

// Summary reduces an ensemble of future-price samples to four directional
// probabilities. Values are fractions in [0,1]; the moderate-or-more
// components never exceed their directional totals, and PUp+PDown <= 1
// (samples exactly at the reference price count as neither).
type Summary struct {
	PUp           float64
	PUpModerate   float64
	PDown         float64
	PDownModerate float64
}
