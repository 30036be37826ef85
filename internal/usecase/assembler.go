package usecase

import (
	"math"
	"time"

	"github.com/adityamasineedi/mcpcrypto-sub001/internal/domain/models"
	"github.com/adityamasineedi/mcpcrypto-sub001/pkg/config"
)

// Risk tier multipliers applied to the base position size.
const (
	tierMultLow    = 1.2
	tierMultMedium = 1.0
	tierMultHigh   = 0.7
)

// Assembler merges a technical signal with its assessment into a
// tradeable Signal: final confidence, levels, sizing and risk/reward.
type Assembler struct {
	capital       float64
	riskPerTrade  float64 // fraction of capital risked per trade
	minTrade      float64
	maxTrade      float64
	stopLossPct   float64
	takeProfitPct float64
	settings      *Settings
	now           func() time.Time
}

func NewAssembler(cfg *config.Config, settings *Settings) *Assembler {
	return &Assembler{
		capital:       cfg.Trading.TotalCapital,
		riskPerTrade:  cfg.Trading.RiskPerTradePct / 100,
		minTrade:      cfg.Trading.MinTradeAmount,
		maxTrade:      cfg.Trading.MaxTradeAmount,
		stopLossPct:   cfg.Trading.StopLossPct / 100,
		takeProfitPct: cfg.Trading.TakeProfitPct / 100,
		settings:      settings,
		now:           time.Now,
	}
}

// Assemble builds the final signal. Returns nil when the assessment
// confidence falls below the configured minimum; such candidates never
// reach the quality gate.
func (a *Assembler) Assemble(tech *models.TechnicalSignal, assess *models.Assessment, snap *models.MarketSnapshot) *models.Signal {
	if tech == nil || assess == nil || tech.Direction == models.DirectionHold {
		return nil
	}
	if assess.Confidence < a.settings.MinConfidence() {
		return nil
	}

	entry := tech.EntryPrice
	stop := assess.StopLoss
	target := assess.TakeProfit

	// The assessor may decline to set levels; fall back to configured
	// percentage offsets around the entry.
	if stop <= 0 {
		stop = a.defaultStop(tech.Direction, entry)
	}
	if target <= 0 {
		target = a.defaultTarget(tech.Direction, entry)
	}

	risk := math.Abs(entry - stop)
	reward := math.Abs(target - entry)
	rr := 0.0
	if risk > 0 {
		rr = reward / risk
	}

	now := a.now()
	return &models.Signal{
		ID:              models.NewSignalID(tech.Symbol, now),
		Symbol:          tech.Symbol,
		Direction:       tech.Direction,
		Strength:        tech.Strength,
		TechConfidence:  tech.Confidence,
		FinalConfidence: assess.Confidence,
		EntryPrice:      entry,
		StopLoss:        stop,
		TakeProfit:      target,
		PositionSize:    a.positionSize(assess.RiskTier),
		RiskTier:        assess.RiskTier,
		RiskRewardRatio: rr,
		Regime:          snap.Regime,
		Reasoning:       assess.Reasoning,
		CreatedAt:       now,
	}
}

// positionSize scales the base risk budget by tier and clamps to the
// configured trade amount band.
func (a *Assembler) positionSize(tier models.RiskTier) float64 {
	base := a.capital * a.riskPerTrade
	switch tier {
	case models.RiskLow:
		base *= tierMultLow
	case models.RiskHigh:
		base *= tierMultHigh
	default:
		base *= tierMultMedium
	}
	if base < a.minTrade {
		base = a.minTrade
	}
	if a.maxTrade > 0 && base > a.maxTrade {
		base = a.maxTrade
	}
	return base
}

func (a *Assembler) defaultStop(d models.Direction, entry float64) float64 {
	if d == models.DirectionShort {
		return entry * (1 + a.stopLossPct)
	}
	return entry * (1 - a.stopLossPct)
}

func (a *Assembler) defaultTarget(d models.Direction, entry float64) float64 {
	if d == models.DirectionShort {
		return entry * (1 - a.takeProfitPct)
	}
	return entry * (1 + a.takeProfitPct)
}
