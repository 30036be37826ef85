package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/adityamasineedi/mcpcrypto-sub001/internal/domain/models"
)

// fakeStream feeds scripted ticks through the collector.
type fakeStream struct {
	tickCh    chan *models.PriceTick
	errCh     chan error
	connected bool
}

func newFakeStream() *fakeStream {
	return &fakeStream{
		tickCh: make(chan *models.PriceTick, 16),
		errCh:  make(chan error, 1),
	}
}

func (f *fakeStream) Connect(context.Context) error   { f.connected = true; return nil }
func (f *fakeStream) Subscribe(context.Context) error { return nil }
func (f *fakeStream) Reconnect(context.Context) error { return nil }

func (f *fakeStream) Close() error      { f.connected = false; return nil }
func (f *fakeStream) IsConnected() bool { return f.connected }

func (f *fakeStream) Read(context.Context) (<-chan *models.PriceTick, <-chan error) {
	return f.tickCh, f.errCh
}

func waitLastPrice(t *testing.T, c *PriceCollector, symbol string, want float64) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if p, ok := c.LastPrice(symbol); ok && p == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("last price for %s never reached %v", symbol, want)
}

func TestPriceCollectorTracksLastPrice(t *testing.T) {
	stream := newFakeStream()
	c := NewPriceCollector(stream, nopMetrics{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := c.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer c.Stop()

	if _, ok := c.LastPrice("BTCUSDT"); ok {
		t.Fatalf("expected no price before any tick")
	}

	stream.tickCh <- &models.PriceTick{Symbol: "BTCUSDT", Price: 100.5}
	waitLastPrice(t, c, "BTCUSDT", 100.5)

	// Newer tick replaces the old one; other symbols are independent.
	stream.tickCh <- &models.PriceTick{Symbol: "BTCUSDT", Price: 101.25}
	stream.tickCh <- &models.PriceTick{Symbol: "ETHUSDT", Price: 3200}
	waitLastPrice(t, c, "BTCUSDT", 101.25)
	waitLastPrice(t, c, "ETHUSDT", 3200)

	if !c.IsConnected() {
		t.Fatalf("expected collector to report connected")
	}
}

func TestGeneratorFreshensSnapshotPrice(t *testing.T) {
	ind := &fakeIndicators{snaps: map[string]*models.MarketSnapshot{"BTCUSDT": trendingSnapshot("BTCUSDT")}}
	ass := &fakeAssessor{assessment: models.Assessment{
		Confidence: 80,
		RiskTier:   models.RiskMedium,
		StopLoss:   99,
		TakeProfit: 107,
	}}
	g := newTestGenerator(t, []string{"BTCUSDT"}, ind, ass)

	stream := newFakeStream()
	c := NewPriceCollector(stream, nopMetrics{})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := c.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer c.Stop()
	stream.tickCh <- &models.PriceTick{Symbol: "BTCUSDT", Price: 101}
	waitLastPrice(t, c, "BTCUSDT", 101)
	g.prices = c

	sig, err := g.GenerateForSymbol(context.Background(), "BTCUSDT")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if sig == nil {
		t.Fatalf("expected a signal")
	}
	// Snapshot price was 100; entry must derive from the 101 tick.
	if sig.EntryPrice <= 101 {
		t.Fatalf("expected entry above live price 101, got %v", sig.EntryPrice)
	}
}
