package signal

import (
	"fmt"

	"tidecast/internal/config"
)

// Classifier maps probability summaries to signals using a fixed,
// most-extreme-first rule table. It is pure and total: every well-formed
// Summary maps to exactly one Signal.
type Classifier struct {
	cfg config.SignalConfig
}

// NewClassifier validates the threshold table and returns a classifier.
// The table is user configuration, so a malformed one is rejected up front
// instead of producing ambiguous classifications at runtime.
func NewClassifier(cfg config.SignalConfig) (*Classifier, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("classifier thresholds: %w", err)
	}
	return &Classifier{cfg: cfg}, nil
}

// Classify evaluates the rule table in order, first match wins. Bullish
// rules are checked before bearish ones, so an internally inconsistent
// summary that satisfies both sides resolves bullish.
func (c *Classifier) Classify(s Summary) Signal {
	t := c.cfg

	switch {
	case s.PUp >= t.StrongDirectional && s.PUpModerate >= t.StrongModerate:
		return StrongBullish
	case s.PUp >= t.ModerateDirectional && s.PUpModerate >= t.ModerateModerate:
		return ModerateBullish
	case s.PUp >= t.WeakDirectional:
		return WeakBullish
	case s.PDown >= t.StrongDirectional && s.PDownModerate >= t.StrongModerate:
		return StrongBearish
	case s.PDown >= t.ModerateDirectional && s.PDownModerate >= t.ModerateModerate:
		return ModerateBearish
	case s.PDown >= t.WeakDirectional:
		return WeakBearish
	default:
		return Neutral
	}
}
