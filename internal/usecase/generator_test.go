package usecase

import (
	"context"
	"fmt"
	"testing"

	"github.com/adityamasineedi/mcpcrypto-sub001/internal/domain/models"
	domrepo "github.com/adityamasineedi/mcpcrypto-sub001/internal/domain/repository"
	"github.com/adityamasineedi/mcpcrypto-sub001/internal/service/ratelimit"
	"github.com/adityamasineedi/mcpcrypto-sub001/internal/services/scoring"
	"github.com/adityamasineedi/mcpcrypto-sub001/pkg/config"
)

// fakeIndicators serves canned snapshots per symbol.
type fakeIndicators struct {
	snaps map[string]*models.MarketSnapshot
}

func (f *fakeIndicators) Snapshot(_ context.Context, symbol string, _ domrepo.Timeframe) (*models.MarketSnapshot, error) {
	snap, ok := f.snaps[symbol]
	if !ok {
		return nil, fmt.Errorf("indicator service unavailable")
	}
	return snap, nil
}

// fakeAssessor returns a fixed assessment.
type fakeAssessor struct {
	assessment models.Assessment
	calls      int
}

func (f *fakeAssessor) Assess(_ context.Context, _ string, _ *models.TechnicalSignal, _ *models.MarketSnapshot) (*models.Assessment, error) {
	f.calls++
	a := f.assessment
	return &a, nil
}

func trendingSnapshot(symbol string) *models.MarketSnapshot {
	return &models.MarketSnapshot{
		Symbol:      symbol,
		Price:       100,
		RSI:         25,
		MACDLine:    1.2,
		MACDSignal:  0.8,
		MACDHist:    0.4,
		EMAFast:     99.5,
		EMAMid:      98,
		EMASlow:     96,
		VolumeRatio: 2.5,
		Regime:      models.RegimeBull,
	}
}

func flatSnapshot(symbol string) *models.MarketSnapshot {
	return &models.MarketSnapshot{Symbol: symbol, Price: 100, RSI: 50, Regime: models.RegimeNeutral}
}

func newTestGenerator(t *testing.T, symbols []string, ind *fakeIndicators, ass *fakeAssessor) *SignalGenerator {
	t.Helper()
	cfg := testConfig(func(c *config.Config) {
		c.Market.Symbols = symbols
		c.Approval.ManualEnabled = false // resolve approvals inline
	})
	log := testLogger(t)
	settings := NewSettings(cfg)
	router := NewEventRouter(nopMetrics{}, log)
	pipe := NewEventPipeline(router, nopMetrics{}, log, WithBufferSize(64))
	workflow := NewApprovalWorkflow(settings, pipe, nopMetrics{}, log)
	gate := NewQualityGate(cfg, settings, ratelimit.New(), nopMetrics{}, log)
	return NewSignalGenerator(cfg, ind, ass, scoring.NewAggregator(), NewAssembler(cfg, settings), gate, workflow, nil, nopMetrics{}, log)
}

func TestGenerateForSymbolProducesSignal(t *testing.T) {
	ind := &fakeIndicators{snaps: map[string]*models.MarketSnapshot{"BTCUSDT": trendingSnapshot("BTCUSDT")}}
	ass := &fakeAssessor{assessment: models.Assessment{
		Confidence: 80,
		RiskTier:   models.RiskMedium,
		StopLoss:   98,
		TakeProfit: 106,
	}}
	g := newTestGenerator(t, []string{"BTCUSDT"}, ind, ass)

	sig, err := g.GenerateForSymbol(context.Background(), "BTCUSDT")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if sig == nil {
		t.Fatalf("expected a signal")
	}
	if sig.Symbol != "BTCUSDT" || sig.Direction != models.DirectionLong {
		t.Fatalf("unexpected signal: %+v", sig)
	}
	if ass.calls != 1 {
		t.Fatalf("expected one assessment call, got %d", ass.calls)
	}
}

func TestGenerateForSymbolHoldSkipsAssessment(t *testing.T) {
	ind := &fakeIndicators{snaps: map[string]*models.MarketSnapshot{"BTCUSDT": flatSnapshot("BTCUSDT")}}
	ass := &fakeAssessor{assessment: models.Assessment{Confidence: 80}}
	g := newTestGenerator(t, []string{"BTCUSDT"}, ind, ass)

	sig, err := g.GenerateForSymbol(context.Background(), "BTCUSDT")
	if err != nil || sig != nil {
		t.Fatalf("expected no signal and no error, got %v, %v", sig, err)
	}
	if ass.calls != 0 {
		t.Fatalf("HOLD must not reach the assessor")
	}
}

func TestGenerateForSymbolLowConfidenceSkipped(t *testing.T) {
	ind := &fakeIndicators{snaps: map[string]*models.MarketSnapshot{"BTCUSDT": trendingSnapshot("BTCUSDT")}}
	ass := &fakeAssessor{assessment: models.Assessment{Confidence: 40, RiskTier: models.RiskMedium}}
	g := newTestGenerator(t, []string{"BTCUSDT"}, ind, ass)

	sig, err := g.GenerateForSymbol(context.Background(), "BTCUSDT")
	if err != nil || sig != nil {
		t.Fatalf("expected low confidence skip, got %v, %v", sig, err)
	}
}

func TestGenerateAllSettlesEverySymbol(t *testing.T) {
	ind := &fakeIndicators{snaps: map[string]*models.MarketSnapshot{
		"BTCUSDT": trendingSnapshot("BTCUSDT"),
		"ETHUSDT": flatSnapshot("ETHUSDT"),
		// SOLUSDT missing: snapshot fails
	}}
	ass := &fakeAssessor{assessment: models.Assessment{
		Confidence: 80,
		RiskTier:   models.RiskMedium,
		StopLoss:   98,
		TakeProfit: 106,
	}}
	g := newTestGenerator(t, []string{"BTCUSDT", "ETHUSDT", "SOLUSDT"}, ind, ass)

	report := g.GenerateAll(context.Background())

	if len(report.Signals) != 1 {
		t.Fatalf("expected 1 signal, got %d", len(report.Signals))
	}
	if len(report.Skipped) != 1 || report.Skipped[0] != "ETHUSDT" {
		t.Fatalf("expected ETHUSDT skipped, got %v", report.Skipped)
	}
	if _, ok := report.Errors["SOLUSDT"]; !ok || len(report.Errors) != 1 {
		t.Fatalf("expected SOLUSDT error, got %v", report.Errors)
	}
	if report.Timestamp.IsZero() {
		t.Fatalf("expected report timestamp")
	}
}
