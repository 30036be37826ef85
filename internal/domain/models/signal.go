package models

import (
	"fmt"
	"strings"
	"time"
)

// Direction of a trade signal.
type Direction string

const (
	DirectionLong  Direction = "LONG"
	DirectionShort Direction = "SHORT"
	DirectionHold  Direction = "HOLD"
)

// Strength bucket derived from technical confidence.
type Strength string

const (
	StrengthStrong Strength = "STRONG"
	StrengthMedium Strength = "MEDIUM"
	StrengthWeak   Strength = "WEAK"
	StrengthNone   Strength = "NONE"
)

// RiskTier classifies a signal's risk appetite.
type RiskTier string

const (
	RiskLow    RiskTier = "LOW"
	RiskMedium RiskTier = "MEDIUM"
	RiskHigh   RiskTier = "HIGH"
)

// Regime is the prevailing market regime supplied with the snapshot.
type Regime string

const (
	RegimeBull    Regime = "BULL"
	RegimeBear    Regime = "BEAR"
	RegimeNeutral Regime = "NEUTRAL"
)

// MarketSnapshot carries the precomputed indicator values for one symbol
// at one instant. Produced by the indicator service, consumed read-only.
type MarketSnapshot struct {
	Symbol      string
	Timestamp   time.Time
	Price       float64
	RSI         float64
	MACDLine    float64
	MACDSignal  float64
	MACDHist    float64
	EMAFast     float64
	EMAMid      float64
	EMASlow     float64
	BBUpper     float64
	BBMiddle    float64
	BBLower     float64
	VolumeRatio float64
	Support     float64
	Resistance  float64
	Regime      Regime
}

// TechnicalObservation is one rule's verdict: direction plus weight.
// Ephemeral, produced fresh per evaluation.
type TechnicalObservation struct {
	Indicator string
	Direction Direction
	Weight    float64
}

// TechnicalSignal aggregates rule observations for one symbol.
// Immutable once produced.
type TechnicalSignal struct {
	Symbol       string
	Direction    Direction
	Strength     Strength
	Confidence   float64 // 0-100
	EntryPrice   float64
	Observations []TechnicalObservation
	Timestamp    time.Time
}

// Assessment is the qualitative verdict from the external assessor.
type Assessment struct {
	Confidence     float64 // 0-100, final arbiter over technical confidence
	Recommendation Direction
	RiskTier       RiskTier
	StopLoss       float64 // 0 when the assessor declined to set one
	TakeProfit     float64
	Reasoning      string
	TimeHorizon    string
}

// Signal is the unit that travels through the approval pipeline.
// Immutable after assembly; downstream only attaches an outcome.
type Signal struct {
	ID              string    `json:"id"`
	Symbol          string    `json:"symbol"`
	Direction       Direction `json:"direction"`
	Strength        Strength  `json:"strength"`
	TechConfidence  float64   `json:"techConfidence"`
	FinalConfidence float64   `json:"finalConfidence"`
	EntryPrice      float64   `json:"entryPrice"`
	StopLoss        float64   `json:"stopLoss"`
	TakeProfit      float64   `json:"takeProfit"`
	PositionSize    float64   `json:"positionSize"`
	RiskTier        RiskTier  `json:"riskTier"`
	RiskRewardRatio float64   `json:"riskRewardRatio"`
	Regime          Regime    `json:"regime"`
	Reasoning       string    `json:"reasoning,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
}

// NewSignalID derives a unique id from symbol and creation time.
func NewSignalID(symbol string, at time.Time) string {
	return fmt.Sprintf("%s-%d", strings.ToUpper(symbol), at.UnixMilli())
}
