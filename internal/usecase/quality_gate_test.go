package usecase

import (
	"testing"
	"time"

	"github.com/adityamasineedi/mcpcrypto-sub001/internal/domain/models"
	"github.com/adityamasineedi/mcpcrypto-sub001/internal/service/ratelimit"
	"github.com/adityamasineedi/mcpcrypto-sub001/pkg/config"
)

func newTestGate(t *testing.T, mut func(*config.Config)) (*QualityGate, *ratelimit.GapLimiter) {
	t.Helper()
	cfg := testConfig(mut)
	limiter := ratelimit.New()
	gate := NewQualityGate(cfg, NewSettings(cfg), limiter, nopMetrics{}, testLogger(t))
	return gate, limiter
}

func passingSignal() *models.Signal {
	return &models.Signal{
		ID:              "s1",
		Symbol:          "BTCUSDT",
		Direction:       models.DirectionLong,
		FinalConfidence: 80,
		EntryPrice:      100,
		StopLoss:        98,
		TakeProfit:      106,
		PositionSize:    100,
		RiskTier:        models.RiskMedium,
		RiskRewardRatio: 3,
		Regime:          models.RegimeBull,
	}
}

func hasCheck(failed []string, check string) bool {
	for _, f := range failed {
		if f == check {
			return true
		}
	}
	return false
}

func TestGatePasses(t *testing.T) {
	gate, _ := newTestGate(t, nil)

	res := gate.Check(passingSignal())
	if !res.Passed {
		t.Fatalf("expected pass, failed checks: %v", res.Failed)
	}
}

func TestGateMarksGapOnPassOnly(t *testing.T) {
	gate, _ := newTestGate(t, nil)

	if res := gate.Check(passingSignal()); !res.Passed {
		t.Fatalf("expected first signal to pass: %v", res.Failed)
	}

	// Same symbol immediately after an accepted signal trips the gap.
	res := gate.Check(passingSignal())
	if res.Passed {
		t.Fatalf("expected gap rejection")
	}
	if !hasCheck(res.Failed, CheckSignalGap) {
		t.Fatalf("expected signal_gap failure, got %v", res.Failed)
	}
}

func TestGateRejectedSignalDoesNotMarkGap(t *testing.T) {
	gate, _ := newTestGate(t, nil)

	bad := passingSignal()
	bad.FinalConfidence = 10
	if res := gate.Check(bad); res.Passed {
		t.Fatalf("expected rejection")
	}

	// The rejection above must not consume the symbol's gap window.
	if res := gate.Check(passingSignal()); !res.Passed {
		t.Fatalf("expected pass after rejected signal: %v", res.Failed)
	}
}

func TestGateReportsAllFailures(t *testing.T) {
	gate, _ := newTestGate(t, nil)

	s := passingSignal()
	s.FinalConfidence = 50 // below min 60, below counter-trend 75
	s.RiskRewardRatio = 1  // below 1.5
	s.StopLoss = 50
	s.PositionSize = 2000 // loss 1000 > 500
	s.Regime = models.RegimeBear

	res := gate.Check(s)
	if res.Passed {
		t.Fatalf("expected rejection")
	}
	for _, want := range []string{CheckConfidence, CheckRiskReward, CheckMaxLoss, CheckCounterTrend} {
		if !hasCheck(res.Failed, want) {
			t.Fatalf("missing %s in %v", want, res.Failed)
		}
	}
	if hasCheck(res.Failed, CheckSignalGap) {
		t.Fatalf("fresh symbol must not fail the gap check")
	}
}

func TestGateCounterTrend(t *testing.T) {
	gate, _ := newTestGate(t, nil) // counter-trend floor 75

	s := passingSignal()
	s.Direction = models.DirectionShort
	s.Regime = models.RegimeBull
	s.FinalConfidence = 70

	res := gate.Check(s)
	if res.Passed || !hasCheck(res.Failed, CheckCounterTrend) {
		t.Fatalf("expected counter-trend rejection, got %+v", res)
	}

	// High enough confidence clears the counter-trend floor.
	s2 := passingSignal()
	s2.ID = "s2"
	s2.Symbol = "ETHUSDT"
	s2.Direction = models.DirectionShort
	s2.Regime = models.RegimeBull
	s2.FinalConfidence = 80
	if res := gate.Check(s2); !res.Passed {
		t.Fatalf("expected pass, got %v", res.Failed)
	}
}

func TestGateNeutralRegimeNeverCounterTrend(t *testing.T) {
	gate, _ := newTestGate(t, nil)

	s := passingSignal()
	s.Direction = models.DirectionShort
	s.Regime = models.RegimeNeutral
	s.FinalConfidence = 65

	if res := gate.Check(s); !res.Passed {
		t.Fatalf("neutral regime flagged counter-trend: %v", res.Failed)
	}
}

func TestGateNilSignal(t *testing.T) {
	gate, _ := newTestGate(t, nil)
	if res := gate.Check(nil); res.Passed {
		t.Fatalf("nil signal must fail")
	}
}

func TestGateGapExpires(t *testing.T) {
	gate, limiter := newTestGate(t, func(c *config.Config) { c.Trading.SignalGap = 10 * time.Minute })

	base := time.Now()
	now := base
	limiter.SetClock(func() time.Time { return now })

	if res := gate.Check(passingSignal()); !res.Passed {
		t.Fatalf("expected first pass: %v", res.Failed)
	}

	now = base.Add(5 * time.Minute)
	if res := gate.Check(passingSignal()); res.Passed {
		t.Fatalf("expected gap rejection inside the window")
	}

	now = base.Add(10 * time.Minute)
	if res := gate.Check(passingSignal()); !res.Passed {
		t.Fatalf("expected pass after the gap elapsed: %v", res.Failed)
	}
}
