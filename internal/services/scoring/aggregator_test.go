package scoring

import (
	"testing"

	"github.com/adityamasineedi/mcpcrypto-sub001/internal/domain/models"
)

func bullishSnapshot() *models.MarketSnapshot {
	return &models.MarketSnapshot{
		Symbol:      "BTCUSDT",
		Price:       100.0,
		RSI:         25,
		MACDLine:    1.2,
		MACDSignal:  0.8,
		MACDHist:    0.4,
		EMAFast:     99.5,
		EMAMid:      98.0,
		EMASlow:     96.0,
		BBUpper:     110,
		BBMiddle:    100,
		BBLower:     90,
		VolumeRatio: 2.5,
		Support:     95,
		Resistance:  115,
		Regime:      models.RegimeBull,
	}
}

func TestEvaluateBullishAlignment(t *testing.T) {
	sig := NewAggregator().Evaluate(bullishSnapshot())

	if sig.Direction != models.DirectionLong {
		t.Fatalf("expected LONG, got %s", sig.Direction)
	}
	// EMA full 25 + RSI extreme 20 + MACD confirm 20 + volume spike 15 = 80
	if sig.Confidence != 80 {
		t.Fatalf("expected confidence 80, got %f", sig.Confidence)
	}
	if sig.Strength != models.StrengthMedium {
		t.Fatalf("expected MEDIUM, got %s", sig.Strength)
	}
	if len(sig.Observations) != 6 {
		t.Fatalf("expected 6 observations, got %d", len(sig.Observations))
	}
}

func TestEvaluateBearishAlignment(t *testing.T) {
	s := &models.MarketSnapshot{
		Symbol:      "ETHUSDT",
		Price:       100.0,
		RSI:         75,
		MACDLine:    -1.0,
		MACDSignal:  -0.5,
		MACDHist:    -0.5,
		EMAFast:     100.5,
		EMAMid:      101.0,
		EMASlow:     102.0,
		VolumeRatio: 2.1,
		Regime:      models.RegimeBear,
	}

	sig := NewAggregator().Evaluate(s)
	if sig.Direction != models.DirectionShort {
		t.Fatalf("expected SHORT, got %s", sig.Direction)
	}
	if sig.Strength == models.StrengthNone {
		t.Fatalf("expected a strength bucket for a directional signal")
	}
}

func TestEvaluateWeakMajorityHolds(t *testing.T) {
	// Only a partial EMA cross fires: 15 points, under the threshold.
	s := &models.MarketSnapshot{
		Symbol:      "BTCUSDT",
		Price:       100.0,
		RSI:         50,
		EMAFast:     100.2,
		EMAMid:      100.0,
		EMASlow:     100.5,
		VolumeRatio: 1.0,
		Regime:      models.RegimeNeutral,
	}

	sig := NewAggregator().Evaluate(s)
	if sig.Direction != models.DirectionHold {
		t.Fatalf("expected HOLD for weak majority, got %s", sig.Direction)
	}
	if sig.Strength != models.StrengthNone {
		t.Fatalf("expected NONE strength on HOLD, got %s", sig.Strength)
	}
	if sig.Confidence != 0 {
		t.Fatalf("expected zero confidence on HOLD, got %f", sig.Confidence)
	}
}

func TestEvaluateTieHolds(t *testing.T) {
	// Two long rules (RSI extreme, support bounce) against two short
	// rules (full EMA alignment, confirmed MACD). Equal counts hold.
	s := &models.MarketSnapshot{
		Symbol:      "BTCUSDT",
		Price:       100.0,
		RSI:         25,
		MACDLine:    -1,
		MACDSignal:  0,
		MACDHist:    -1,
		EMAFast:     90,
		EMAMid:      95,
		EMASlow:     100,
		Support:     100,
		VolumeRatio: 1.0,
		Regime:      models.RegimeNeutral,
	}

	sig := NewAggregator().Evaluate(s)
	if sig.Direction != models.DirectionHold {
		t.Fatalf("expected HOLD on tie, got %s (conf %f)", sig.Direction, sig.Confidence)
	}
}

func TestEntryPriceNudgesLong(t *testing.T) {
	s := bullishSnapshot()
	sig := NewAggregator().Evaluate(s)
	if sig.EntryPrice <= s.Price {
		t.Fatalf("expected long entry above price, got %f", sig.EntryPrice)
	}
}

func TestEvaluateStrongBucket(t *testing.T) {
	s := bullishSnapshot()
	s.Price = 90.2 // near the lower band too
	s.BBLower = 90
	s.Support = 90
	sig := NewAggregator().Evaluate(s)
	if sig.Direction != models.DirectionLong {
		t.Fatalf("expected LONG, got %s", sig.Direction)
	}
	if sig.Confidence <= 80 {
		t.Fatalf("expected confidence above 80, got %f", sig.Confidence)
	}
	if sig.Strength != models.StrengthStrong {
		t.Fatalf("expected STRONG, got %s", sig.Strength)
	}
}
