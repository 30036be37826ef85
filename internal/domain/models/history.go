package models

import "time"

// PriceTick is one live price update from the exchange stream.
type PriceTick struct {
	Symbol    string
	Price     float64
	Volume    float64
	Timestamp int64 // unix seconds
}

// SignalRecord is one persisted row of signal history: the signal plus
// the outcome attached at resolution time.
type SignalRecord struct {
	SignalID   string    `json:"signalId"`
	Symbol     string    `json:"symbol"`
	Direction  Direction `json:"direction"`
	Confidence float64   `json:"confidence"`
	EntryPrice float64   `json:"entryPrice"`
	StopLoss   float64   `json:"stopLoss"`
	TakeProfit float64   `json:"takeProfit"`
	RiskTier   RiskTier  `json:"riskTier"`
	EventType  EventType `json:"eventType"`
	Approved   bool      `json:"approved"`
	Method     string    `json:"method"`
	Reason     string    `json:"reason"`
	ActorID    string    `json:"actorId"`
	CreatedAt  time.Time `json:"createdAt"`
	ResolvedAt time.Time `json:"resolvedAt"`
}
