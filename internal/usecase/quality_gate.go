package usecase

import (
	"math"

	"github.com/adityamasineedi/mcpcrypto-sub001/internal/domain/models"
	domrepo "github.com/adityamasineedi/mcpcrypto-sub001/internal/domain/repository"
	"github.com/adityamasineedi/mcpcrypto-sub001/internal/service/ratelimit"
	"github.com/adityamasineedi/mcpcrypto-sub001/pkg/config"
	"github.com/adityamasineedi/mcpcrypto-sub001/pkg/logger"
)

// Gate check names, reported on rejection.
const (
	CheckConfidence   = "confidence"
	CheckRiskReward   = "risk_reward"
	CheckMaxLoss      = "max_loss"
	CheckCounterTrend = "counter_trend"
	CheckSignalGap    = "signal_gap"
)

// QualityGate runs every assembled signal through a fixed sequence of
// checks. All checks are evaluated even after the first failure so the
// rejection report names everything that was wrong. The per-symbol gap
// is marked only when the signal passes.
type QualityGate struct {
	settings     *Settings
	limiter      *ratelimit.GapLimiter
	minRR        float64
	counterConf  float64
	maxTradeLoss float64
	metrics      domrepo.Metrics
	log          *logger.Logger
}

// GateResult reports a gate decision with the failed checks, if any.
type GateResult struct {
	Passed bool     `json:"passed"`
	Failed []string `json:"failed,omitempty"`
}

func NewQualityGate(cfg *config.Config, settings *Settings, limiter *ratelimit.GapLimiter, metrics domrepo.Metrics, log *logger.Logger) *QualityGate {
	return &QualityGate{
		settings:     settings,
		limiter:      limiter,
		minRR:        cfg.Trading.MinRiskReward,
		counterConf:  cfg.Trading.CounterTrendMinConf,
		maxTradeLoss: cfg.Trading.MaxTradeAmount / 2,
		metrics:      metrics,
		log:          log,
	}
}

// Check evaluates the signal. A nil signal fails outright.
func (g *QualityGate) Check(s *models.Signal) GateResult {
	if s == nil {
		return GateResult{Passed: false, Failed: []string{CheckConfidence}}
	}

	var failed []string

	if s.FinalConfidence < g.settings.MinConfidence() {
		failed = append(failed, CheckConfidence)
	}

	if s.RiskRewardRatio < g.minRR {
		failed = append(failed, CheckRiskReward)
	}

	// Worst-case loss at the stop must stay inside half the largest
	// allowed trade.
	if s.EntryPrice > 0 {
		loss := s.PositionSize * math.Abs(s.EntryPrice-s.StopLoss) / s.EntryPrice
		if loss > g.maxTradeLoss {
			failed = append(failed, CheckMaxLoss)
		}
	}

	if g.isCounterTrend(s) && s.FinalConfidence < g.counterConf {
		failed = append(failed, CheckCounterTrend)
	}

	if !g.limiter.Allow(s.Symbol, g.settings.SignalGap()) {
		failed = append(failed, CheckSignalGap)
	}

	if len(failed) > 0 {
		for _, check := range failed {
			g.metrics.RecordGateRejection(check)
		}
		g.log.Info("signal rejected by quality gate",
			logger.String("signal_id", s.ID),
			logger.String("symbol", s.Symbol),
			logger.Strings("failed", failed))
		return GateResult{Passed: false, Failed: failed}
	}

	g.limiter.Mark(s.Symbol)
	return GateResult{Passed: true}
}

// isCounterTrend is true when the signal trades against the prevailing
// regime. Neutral regimes never count as counter-trend.
func (g *QualityGate) isCounterTrend(s *models.Signal) bool {
	switch s.Regime {
	case models.RegimeBull:
		return s.Direction == models.DirectionShort
	case models.RegimeBear:
		return s.Direction == models.DirectionLong
	}
	return false
}
