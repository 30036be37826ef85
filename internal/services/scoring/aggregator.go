package scoring

import (
	"time"

	"github.com/adityamasineedi/mcpcrypto-sub001/internal/domain/models"
)

// Rule weights. Fixed per rule; trend strength picks between the two
// values where a rule distinguishes full and partial setups.
const (
	weightEMAFull     = 25
	weightEMAPartial  = 15
	weightRSIExtreme  = 20
	weightRSIRegime   = 15
	weightMACDConfirm = 20
	weightMACDCross   = 12
	weightVolumeSpike = 15
	weightVolumeMild  = 10
	weightLevelBounce = 20
	weightBBEdge      = 15
)

// minTotalWeight is the directional weight required to leave HOLD.
const minTotalWeight = 60

// proximityPct is the distance to a support/resistance level, as a
// fraction of the level, that counts as "at the level".
const proximityPct = 0.01

// Aggregator turns one indicator snapshot into a technical signal.
// It holds no state; Evaluate is pure and deterministic.
type Aggregator struct{}

func NewAggregator() *Aggregator { return &Aggregator{} }

type rule func(s *models.MarketSnapshot) models.TechnicalObservation

func neutral(name string) models.TechnicalObservation {
	return models.TechnicalObservation{Indicator: name, Direction: models.DirectionHold, Weight: 0}
}

// emaRule scores EMA crossover ordering. Full alignment of all three
// EMAs carries more weight than a fast/mid cross alone.
func emaRule(s *models.MarketSnapshot) models.TechnicalObservation {
	const name = "ema_cross"
	switch {
	case s.EMAFast > s.EMAMid && s.EMAMid > s.EMASlow:
		return models.TechnicalObservation{Indicator: name, Direction: models.DirectionLong, Weight: weightEMAFull}
	case s.EMAFast < s.EMAMid && s.EMAMid < s.EMASlow:
		return models.TechnicalObservation{Indicator: name, Direction: models.DirectionShort, Weight: weightEMAFull}
	case s.EMAFast > s.EMAMid:
		return models.TechnicalObservation{Indicator: name, Direction: models.DirectionLong, Weight: weightEMAPartial}
	case s.EMAFast < s.EMAMid:
		return models.TechnicalObservation{Indicator: name, Direction: models.DirectionShort, Weight: weightEMAPartial}
	}
	return neutral(name)
}

// rsiRule scores RSI level against the prevailing regime. Extremes fire
// regardless of regime; softer levels only fire with the regime behind them.
func rsiRule(s *models.MarketSnapshot) models.TechnicalObservation {
	const name = "rsi"
	switch {
	case s.RSI > 0 && s.RSI < 30:
		return models.TechnicalObservation{Indicator: name, Direction: models.DirectionLong, Weight: weightRSIExtreme}
	case s.RSI > 70:
		return models.TechnicalObservation{Indicator: name, Direction: models.DirectionShort, Weight: weightRSIExtreme}
	case s.RSI > 0 && s.RSI < 40 && s.Regime == models.RegimeBull:
		return models.TechnicalObservation{Indicator: name, Direction: models.DirectionLong, Weight: weightRSIRegime}
	case s.RSI > 60 && s.Regime == models.RegimeBear:
		return models.TechnicalObservation{Indicator: name, Direction: models.DirectionShort, Weight: weightRSIRegime}
	}
	return neutral(name)
}

// macdRule scores MACD line vs signal line; a histogram agreeing with the
// cross confirms it.
func macdRule(s *models.MarketSnapshot) models.TechnicalObservation {
	const name = "macd"
	switch {
	case s.MACDLine > s.MACDSignal && s.MACDHist > 0:
		return models.TechnicalObservation{Indicator: name, Direction: models.DirectionLong, Weight: weightMACDConfirm}
	case s.MACDLine < s.MACDSignal && s.MACDHist < 0:
		return models.TechnicalObservation{Indicator: name, Direction: models.DirectionShort, Weight: weightMACDConfirm}
	case s.MACDLine > s.MACDSignal:
		return models.TechnicalObservation{Indicator: name, Direction: models.DirectionLong, Weight: weightMACDCross}
	case s.MACDLine < s.MACDSignal:
		return models.TechnicalObservation{Indicator: name, Direction: models.DirectionShort, Weight: weightMACDCross}
	}
	return neutral(name)
}

// volumeRule reads a volume spike in the direction price sits relative to
// the fast EMA.
func volumeRule(s *models.MarketSnapshot) models.TechnicalObservation {
	const name = "volume"
	if s.VolumeRatio < 1.5 || s.EMAFast <= 0 {
		return neutral(name)
	}
	w := float64(weightVolumeMild)
	if s.VolumeRatio >= 2.0 {
		w = weightVolumeSpike
	}
	switch {
	case s.Price > s.EMAFast:
		return models.TechnicalObservation{Indicator: name, Direction: models.DirectionLong, Weight: w}
	case s.Price < s.EMAFast:
		return models.TechnicalObservation{Indicator: name, Direction: models.DirectionShort, Weight: w}
	}
	return neutral(name)
}

// levelRule scores proximity to support/resistance combined with RSI bias.
func levelRule(s *models.MarketSnapshot) models.TechnicalObservation {
	const name = "support_resistance"
	if s.Support > 0 && s.Price <= s.Support*(1+proximityPct) && s.RSI > 0 && s.RSI < 45 {
		return models.TechnicalObservation{Indicator: name, Direction: models.DirectionLong, Weight: weightLevelBounce}
	}
	if s.Resistance > 0 && s.Price >= s.Resistance*(1-proximityPct) && s.RSI > 55 {
		return models.TechnicalObservation{Indicator: name, Direction: models.DirectionShort, Weight: weightLevelBounce}
	}
	return neutral(name)
}

// bollingerRule fires at the band edges.
func bollingerRule(s *models.MarketSnapshot) models.TechnicalObservation {
	const name = "bollinger"
	if s.BBLower > 0 && s.Price <= s.BBLower*(1+0.005) {
		return models.TechnicalObservation{Indicator: name, Direction: models.DirectionLong, Weight: weightBBEdge}
	}
	if s.BBUpper > 0 && s.Price >= s.BBUpper*(1-0.005) {
		return models.TechnicalObservation{Indicator: name, Direction: models.DirectionShort, Weight: weightBBEdge}
	}
	return neutral(name)
}

var rules = []rule{emaRule, rsiRule, macdRule, volumeRule, levelRule, bollingerRule}

// Evaluate runs all rules over the snapshot and aggregates observations
// into a TechnicalSignal. Ties between bullish and bearish rule counts
// resolve to HOLD, as does a majority too weak to clear minTotalWeight.
func (a *Aggregator) Evaluate(s *models.MarketSnapshot) *models.TechnicalSignal {
	obs := make([]models.TechnicalObservation, 0, len(rules))
	var longCount, shortCount int
	var longWeight, shortWeight float64

	for _, r := range rules {
		o := r(s)
		obs = append(obs, o)
		switch o.Direction {
		case models.DirectionLong:
			longCount++
			longWeight += o.Weight
		case models.DirectionShort:
			shortCount++
			shortWeight += o.Weight
		}
	}

	direction := models.DirectionHold
	weight := 0.0
	switch {
	case longCount > shortCount && longWeight > minTotalWeight:
		direction = models.DirectionLong
		weight = longWeight
	case shortCount > longCount && shortWeight > minTotalWeight:
		direction = models.DirectionShort
		weight = shortWeight
	}

	confidence := weight
	if confidence > 100 {
		confidence = 100
	}

	strength := models.StrengthNone
	if direction != models.DirectionHold {
		switch {
		case confidence > 80:
			strength = models.StrengthStrong
		case confidence > 70:
			strength = models.StrengthMedium
		default:
			strength = models.StrengthWeak
		}
	}

	return &models.TechnicalSignal{
		Symbol:       s.Symbol,
		Direction:    direction,
		Strength:     strength,
		Confidence:   confidence,
		EntryPrice:   entryPrice(direction, s.Price, s.EMAFast),
		Observations: obs,
		Timestamp:    time.Now(),
	}
}

// entryPrice nudges the proposed entry away from the current price to
// reduce slippage risk. It is not a fill guarantee.
func entryPrice(d models.Direction, price, emaFast float64) float64 {
	switch d {
	case models.DirectionLong:
		p := price * 1.001
		if e := emaFast * 1.002; e > p {
			p = e
		}
		return p
	case models.DirectionShort:
		p := price * 0.999
		if e := emaFast * 0.998; emaFast > 0 && e < p {
			p = e
		}
		return p
	}
	return price
}
