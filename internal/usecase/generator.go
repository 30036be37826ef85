package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/adityamasineedi/mcpcrypto-sub001/internal/domain/models"
	domrepo "github.com/adityamasineedi/mcpcrypto-sub001/internal/domain/repository"
	domsvc "github.com/adityamasineedi/mcpcrypto-sub001/internal/domain/service"
	"github.com/adityamasineedi/mcpcrypto-sub001/internal/services/scoring"
	"github.com/adityamasineedi/mcpcrypto-sub001/pkg/config"
	"github.com/adityamasineedi/mcpcrypto-sub001/pkg/logger"
)

// GenerateReport is the all-settle result of one batch scan. Per-symbol
// failures land in Errors and never abort the rest of the batch.
type GenerateReport struct {
	Signals   []*models.Signal  `json:"signals"`
	Skipped   []string          `json:"skipped,omitempty"`
	Errors    map[string]string `json:"errors,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
}

// SignalGenerator drives the per-symbol pipeline: indicator snapshot,
// rule scoring, external assessment, assembly and the quality gate.
// Signals that clear the gate are handed to the approval workflow.
type SignalGenerator struct {
	indicators domsvc.IndicatorProvider
	assessor   domsvc.Assessor
	scorer     *scoring.Aggregator
	assembler  *Assembler
	gate       *QualityGate
	workflow   *ApprovalWorkflow
	prices     *PriceCollector // nil when the stream is disabled
	metrics    domrepo.Metrics
	log        *logger.Logger

	symbols      []string
	timeframe    domrepo.Timeframe
	scanInterval time.Duration
	scanTimeout  time.Duration

	mu       sync.Mutex
	scanning bool
}

func NewSignalGenerator(
	cfg *config.Config,
	indicators domsvc.IndicatorProvider,
	assessor domsvc.Assessor,
	scorer *scoring.Aggregator,
	assembler *Assembler,
	gate *QualityGate,
	workflow *ApprovalWorkflow,
	prices *PriceCollector,
	metrics domrepo.Metrics,
	log *logger.Logger,
) *SignalGenerator {
	return &SignalGenerator{
		indicators:   indicators,
		assessor:     assessor,
		scorer:       scorer,
		assembler:    assembler,
		gate:         gate,
		workflow:     workflow,
		prices:       prices,
		metrics:      metrics,
		log:          log,
		symbols:      cfg.Market.Symbols,
		timeframe:    domrepo.NormalizeTimeframe(cfg.Market.Timeframe),
		scanInterval: cfg.Trading.ScanInterval,
		// one scan must finish before the next fires
		scanTimeout: cfg.Trading.ScanInterval,
	}
}

// GenerateForSymbol runs the full pipeline for one symbol. A nil signal
// with nil error means the symbol produced no tradeable setup.
func (g *SignalGenerator) GenerateForSymbol(ctx context.Context, symbol string) (*models.Signal, error) {
	start := time.Now()

	snap, err := g.indicators.Snapshot(ctx, symbol, g.timeframe)
	if err != nil {
		g.metrics.RecordError("indicator_snapshot")
		return nil, fmt.Errorf("snapshot %s: %w", symbol, err)
	}

	// Snapshot prices come from candle data and can lag the live market
	// by up to a candle interval. Prefer the streamed last price.
	if g.prices != nil {
		if p, ok := g.prices.LastPrice(symbol); ok && p > 0 {
			snap.Price = p
		}
	}

	tech := g.scorer.Evaluate(snap)
	if tech.Direction == models.DirectionHold {
		return nil, nil
	}

	assess, err := g.assessor.Assess(ctx, symbol, tech, snap)
	if err != nil {
		g.metrics.RecordError("assessment")
		return nil, fmt.Errorf("assess %s: %w", symbol, err)
	}

	signal := g.assembler.Assemble(tech, assess, snap)
	if signal == nil {
		return nil, nil
	}

	if res := g.gate.Check(signal); !res.Passed {
		return nil, nil
	}

	g.metrics.RecordSignalGenerated(signal.Symbol, string(signal.Direction))
	g.metrics.RecordLatency("generate", time.Since(start).Seconds())
	g.log.Info("signal generated",
		logger.String("signal_id", signal.ID),
		logger.String("symbol", signal.Symbol),
		logger.String("direction", string(signal.Direction)),
		logger.Any("confidence", signal.FinalConfidence))

	return signal, nil
}

// GenerateAll scans every configured symbol concurrently and settles
// all of them before returning. Signals that pass the gate enter the
// approval workflow in the background so a slow approval never holds
// up the next scan.
func (g *SignalGenerator) GenerateAll(ctx context.Context) *GenerateReport {
	report := &GenerateReport{
		Errors:    map[string]string{},
		Timestamp: time.Now(),
	}

	type item struct {
		symbol string
		sig    *models.Signal
		err    error
	}
	ch := make(chan item, len(g.symbols))
	var wg sync.WaitGroup

	for _, symbol := range g.symbols {
		wg.Add(1)
		go func(sym string) {
			defer wg.Done()
			sig, err := g.GenerateForSymbol(ctx, sym)
			ch <- item{sym, sig, err}
		}(symbol)
	}

	go func() { wg.Wait(); close(ch) }()

	for it := range ch {
		if it.err != nil {
			report.Errors[it.symbol] = it.err.Error()
			continue
		}
		if it.sig == nil {
			report.Skipped = append(report.Skipped, it.symbol)
			continue
		}
		report.Signals = append(report.Signals, it.sig)
		g.submit(ctx, it.sig)
	}

	if len(report.Errors) == 0 {
		report.Errors = nil
	}
	return report
}

// submit hands a signal to the approval workflow without blocking the
// scan loop. The outcome is terminal; there is no execution downstream
// of this service, so it is only recorded. The scan timeout must not
// cancel a pending approval, hence WithoutCancel.
func (g *SignalGenerator) submit(ctx context.Context, sig *models.Signal) {
	ctx = context.WithoutCancel(ctx)
	go func() {
		out, err := g.workflow.RequestApproval(ctx, sig)
		if err != nil {
			g.log.Warn("approval request failed",
				logger.String("signal_id", sig.ID),
				logger.Error(err))
			return
		}
		g.log.Info("approval resolved",
			logger.String("signal_id", sig.ID),
			logger.Bool("approved", out.Approved),
			logger.String("method", string(out.Method)),
			logger.Int64("processing_ms", out.ProcessingTimeMs))
	}()
}

// Run scans on the configured interval until ctx is cancelled. One scan
// runs immediately at startup.
func (g *SignalGenerator) Run(ctx context.Context) {
	g.scan(ctx)

	ticker := time.NewTicker(g.scanInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			g.log.Info("signal generator stopped")
			return
		case <-ticker.C:
			g.scan(ctx)
		}
	}
}

// scan runs one batch, skipping if the previous is still in flight.
func (g *SignalGenerator) scan(ctx context.Context) {
	g.mu.Lock()
	if g.scanning {
		g.mu.Unlock()
		g.log.Warn("previous scan still running, skipping")
		return
	}
	g.scanning = true
	g.mu.Unlock()

	defer func() {
		g.mu.Lock()
		g.scanning = false
		g.mu.Unlock()
	}()

	scanCtx := ctx
	if g.scanTimeout > 0 {
		var cancel context.CancelFunc
		scanCtx, cancel = context.WithTimeout(ctx, g.scanTimeout)
		defer cancel()
	}

	report := g.GenerateAll(scanCtx)
	g.log.Info("scan complete",
		logger.Int("signals", len(report.Signals)),
		logger.Int("skipped", len(report.Skipped)),
		logger.Int("errors", len(report.Errors)))
}
