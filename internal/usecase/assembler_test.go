package usecase

import (
	"math"
	"testing"
	"time"

	"github.com/adityamasineedi/mcpcrypto-sub001/internal/domain/models"
	"github.com/adityamasineedi/mcpcrypto-sub001/pkg/config"
)

func newTestAssembler(mut func(*config.Config)) *Assembler {
	cfg := testConfig(mut)
	return NewAssembler(cfg, NewSettings(cfg))
}

func techSignal(d models.Direction, entry float64) *models.TechnicalSignal {
	return &models.TechnicalSignal{
		Symbol:     "BTCUSDT",
		Direction:  d,
		Strength:   models.StrengthMedium,
		Confidence: 75,
		EntryPrice: entry,
		Timestamp:  time.Now(),
	}
}

func closeTo(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestAssembleRiskReward(t *testing.T) {
	a := newTestAssembler(nil)
	snap := &models.MarketSnapshot{Regime: models.RegimeBull}

	sig := a.Assemble(techSignal(models.DirectionLong, 100), &models.Assessment{
		Confidence: 70,
		RiskTier:   models.RiskMedium,
		StopLoss:   98,
		TakeProfit: 106,
	}, snap)

	if sig == nil {
		t.Fatalf("expected a signal")
	}
	if !closeTo(sig.RiskRewardRatio, 3.0) {
		t.Fatalf("expected RR 3.0, got %f", sig.RiskRewardRatio)
	}
	if sig.FinalConfidence != 70 {
		t.Fatalf("assessment confidence must win, got %f", sig.FinalConfidence)
	}
	if sig.ID == "" {
		t.Fatalf("expected a signal id")
	}
	if sig.Regime != models.RegimeBull {
		t.Fatalf("expected regime carried over, got %s", sig.Regime)
	}
}

func TestAssemblePoorRiskReward(t *testing.T) {
	a := newTestAssembler(nil)
	sig := a.Assemble(techSignal(models.DirectionLong, 100), &models.Assessment{
		Confidence: 70,
		RiskTier:   models.RiskMedium,
		StopLoss:   95,
		TakeProfit: 102,
	}, &models.MarketSnapshot{})

	if sig == nil {
		t.Fatalf("expected a signal")
	}
	if !closeTo(sig.RiskRewardRatio, 0.4) {
		t.Fatalf("expected RR 0.4, got %f", sig.RiskRewardRatio)
	}
}

func TestAssembleBelowMinConfidence(t *testing.T) {
	a := newTestAssembler(nil) // min confidence 60
	sig := a.Assemble(techSignal(models.DirectionLong, 100), &models.Assessment{
		Confidence: 50,
		RiskTier:   models.RiskMedium,
	}, &models.MarketSnapshot{})

	if sig != nil {
		t.Fatalf("expected nil below min confidence, got %+v", sig)
	}
}

func TestAssembleHoldAndNilInputs(t *testing.T) {
	a := newTestAssembler(nil)
	snap := &models.MarketSnapshot{}

	if a.Assemble(techSignal(models.DirectionHold, 100), &models.Assessment{Confidence: 90}, snap) != nil {
		t.Fatalf("HOLD must not assemble")
	}
	if a.Assemble(nil, &models.Assessment{Confidence: 90}, snap) != nil {
		t.Fatalf("nil technical signal must not assemble")
	}
	if a.Assemble(techSignal(models.DirectionLong, 100), nil, snap) != nil {
		t.Fatalf("nil assessment must not assemble")
	}
}

func TestPositionSizeTiers(t *testing.T) {
	// capital 10000, 1% risk: base 100. Max clamp at 110.
	a := newTestAssembler(func(c *config.Config) { c.Trading.MaxTradeAmount = 110 })

	cases := []struct {
		tier models.RiskTier
		want float64
	}{
		{models.RiskLow, 110},    // 120 clamped to max
		{models.RiskMedium, 100},
		{models.RiskHigh, 70},
	}
	for _, tc := range cases {
		sig := a.Assemble(techSignal(models.DirectionLong, 100), &models.Assessment{
			Confidence: 70,
			RiskTier:   tc.tier,
			StopLoss:   98,
			TakeProfit: 106,
		}, &models.MarketSnapshot{})
		if sig == nil {
			t.Fatalf("%s: expected signal", tc.tier)
		}
		if !closeTo(sig.PositionSize, tc.want) {
			t.Fatalf("%s: expected size %f, got %f", tc.tier, tc.want, sig.PositionSize)
		}
	}
}

func TestPositionSizeMinClamp(t *testing.T) {
	a := newTestAssembler(func(c *config.Config) { c.Trading.RiskPerTradePct = 0.1 }) // base 10

	sig := a.Assemble(techSignal(models.DirectionLong, 100), &models.Assessment{
		Confidence: 70,
		RiskTier:   models.RiskMedium,
		StopLoss:   98,
		TakeProfit: 106,
	}, &models.MarketSnapshot{})
	if sig == nil {
		t.Fatalf("expected signal")
	}
	if !closeTo(sig.PositionSize, 50) {
		t.Fatalf("expected min trade amount 50, got %f", sig.PositionSize)
	}
}

func TestDefaultLevelsLong(t *testing.T) {
	a := newTestAssembler(nil) // stop 2%, target 6%

	sig := a.Assemble(techSignal(models.DirectionLong, 100), &models.Assessment{
		Confidence: 70,
		RiskTier:   models.RiskMedium,
	}, &models.MarketSnapshot{})
	if sig == nil {
		t.Fatalf("expected signal")
	}
	if !closeTo(sig.StopLoss, 98) {
		t.Fatalf("expected default stop 98, got %f", sig.StopLoss)
	}
	if !closeTo(sig.TakeProfit, 106) {
		t.Fatalf("expected default target 106, got %f", sig.TakeProfit)
	}
	if !closeTo(sig.RiskRewardRatio, 3.0) {
		t.Fatalf("expected RR 3.0 from defaults, got %f", sig.RiskRewardRatio)
	}
}

func TestDefaultLevelsShort(t *testing.T) {
	a := newTestAssembler(nil)

	sig := a.Assemble(techSignal(models.DirectionShort, 100), &models.Assessment{
		Confidence: 70,
		RiskTier:   models.RiskMedium,
	}, &models.MarketSnapshot{})
	if sig == nil {
		t.Fatalf("expected signal")
	}
	if !closeTo(sig.StopLoss, 102) {
		t.Fatalf("expected short stop above entry, got %f", sig.StopLoss)
	}
	if !closeTo(sig.TakeProfit, 94) {
		t.Fatalf("expected short target below entry, got %f", sig.TakeProfit)
	}
}
