package signal

import (
	"errors"
	"testing"

	"tidecast/internal/config"
)

func newTestClassifier(t *testing.T) *Classifier {
	t.Helper()
	c, err := NewClassifier(config.DefaultConfig().Signal)
	if err != nil {
		t.Fatal(err)
	}
	return c
}

func TestClassify_AllTiers(t *testing.T) {
	c := newTestClassifier(t)

	cases := []struct {
		name    string
		summary Summary
		want    Signal
	}{
		{"strong bullish", Summary{PUp: 0.80, PUpModerate: 0.40}, StrongBullish},
		{"moderate bullish", Summary{PUp: 0.70, PUpModerate: 0.25}, ModerateBullish},
		{"weak bullish", Summary{PUp: 0.60, PUpModerate: 0.05}, WeakBullish},
		{"strong bearish", Summary{PDown: 0.80, PDownModerate: 0.40}, StrongBearish},
		{"moderate bearish", Summary{PDown: 0.70, PDownModerate: 0.25}, ModerateBearish},
		{"weak bearish", Summary{PDown: 0.60, PDownModerate: 0.05}, WeakBearish},
		{"neutral", Summary{PUp: 0.50, PDown: 0.50}, Neutral},
		{"empty", Summary{}, Neutral},
	}

	for _, tc := range cases {
		if got := c.Classify(tc.summary); got != tc.want {
			t.Errorf("%s: got %s, want %s", tc.name, got, tc.want)
		}
	}
}

func TestClassify_ExactThresholdsInclusive(t *testing.T) {
	c := newTestClassifier(t)

	// Rules use >=, so hitting the threshold exactly fires the rule.
	if got := c.Classify(Summary{PUp: 0.75, PUpModerate: 0.35}); got != StrongBullish {
		t.Errorf("exact strong thresholds: got %s, want strong_bullish", got)
	}
	if got := c.Classify(Summary{PUp: 0.55}); got != WeakBullish {
		t.Errorf("exact weak threshold: got %s, want weak_bullish", got)
	}
}

func TestClassify_HighDirectionalLowModerate(t *testing.T) {
	c := newTestClassifier(t)

	// Strong directional probability without the moderate-move component
	// falls through to the weak tier, not the strong one.
	if got := c.Classify(Summary{PUp: 0.90, PUpModerate: 0.10}); got != WeakBullish {
		t.Errorf("got %s, want weak_bullish", got)
	}
}

func TestClassify_BullishEvaluatedFirst(t *testing.T) {
	c := newTestClassifier(t)

	// An inconsistent summary satisfying both sides resolves bullish
	// because bullish rules come first.
	s := Summary{PUp: 0.80, PUpModerate: 0.40, PDown: 0.80, PDownModerate: 0.40}
	if got := c.Classify(s); got != StrongBullish {
		t.Errorf("got %s, want strong_bullish", got)
	}
}

func TestClassify_Deterministic(t *testing.T) {
	c := newTestClassifier(t)

	s := Summary{PUp: 0.68, PUpModerate: 0.22}
	first := c.Classify(s)
	for i := 0; i < 100; i++ {
		if got := c.Classify(s); got != first {
			t.Fatalf("classification changed between runs: %s then %s", first, got)
		}
	}
}

func TestNewClassifier_RejectsMalformedTable(t *testing.T) {
	bad := []config.SignalConfig{
		{StrongDirectional: 0.75, StrongModerate: 0.35, ModerateDirectional: 0.80, ModerateModerate: 0.20, WeakDirectional: 0.55},
		{StrongDirectional: 1.5, StrongModerate: 0.35, ModerateDirectional: 0.65, ModerateModerate: 0.20, WeakDirectional: 0.55},
		{StrongDirectional: 0.75, StrongModerate: 0.15, ModerateDirectional: 0.65, ModerateModerate: 0.20, WeakDirectional: 0.55},
		{StrongDirectional: 0.75, StrongModerate: 0.35, ModerateDirectional: 0.65, ModerateModerate: 0.20, WeakDirectional: 0.40},
	}
	for i, cfg := range bad {
		if _, err := NewClassifier(cfg); !errors.Is(err, config.ErrInvalidConfig) {
			t.Errorf("case %d: expected ErrInvalidConfig, got %v", i, err)
		}
	}
}

func TestSignal_String(t *testing.T) {
	if StrongBullish.String() != "strong_bullish" {
		t.Errorf("got %q", StrongBullish.String())
	}
	if Neutral.String() != "neutral" {
		t.Errorf("got %q", Neutral.String())
	}
	if Signal(99).String() != "unknown" {
		t.Errorf("got %q", Signal(99).String())
	}
}
