package models

import "time"

// ApprovalMethod tells how a pending approval was resolved.
type ApprovalMethod string

const (
	MethodAuto    ApprovalMethod = "AUTO"
	MethodManual  ApprovalMethod = "MANUAL"
	MethodTimeout ApprovalMethod = "TIMEOUT"
)

// ApprovalOutcome is the terminal value released to the caller of
// RequestApproval. Produced exactly once per pending approval.
type ApprovalOutcome struct {
	Approved         bool           `json:"approved"`
	Method           ApprovalMethod `json:"method"`
	ActorID          string         `json:"actorId,omitempty"`
	Reason           string         `json:"reason,omitempty"`
	ProcessingTimeMs int64          `json:"processingTimeMs"`
}

// PendingView is the read-only projection of one pending approval.
type PendingView struct {
	ID              string    `json:"id"`
	Symbol          string    `json:"symbol"`
	Direction       Direction `json:"direction"`
	Confidence      float64   `json:"confidence"`
	RiskTier        RiskTier  `json:"riskTier"`
	RequestedAt     time.Time `json:"requestedAt"`
	Deadline        time.Time `json:"deadline"`
	TimeRemainingMs int64     `json:"timeRemainingMs"`
}

// QueueStatus summarizes the pending registry.
type QueueStatus struct {
	TotalPending    int               `json:"totalPending"`
	ByDirection     map[Direction]int `json:"byDirection"`
	ByRiskTier      map[RiskTier]int  `json:"byRiskTier"`
	AvgConfidence   float64           `json:"avgConfidence"`
	OldestPendingAt *time.Time        `json:"oldestPendingAt,omitempty"`
}

// BulkCriteria selects pending approvals for bulk approval.
// Zero-valued fields match everything.
type BulkCriteria struct {
	MinConfidence float64     `json:"minConfidence"`
	Directions    []Direction `json:"directions"`
	RiskTiers     []RiskTier  `json:"riskTiers"`
}

// Matches reports whether a signal satisfies all supplied criteria.
func (c BulkCriteria) Matches(s *Signal) bool {
	if s == nil {
		return false
	}
	if s.FinalConfidence < c.MinConfidence {
		return false
	}
	if len(c.Directions) > 0 && !containsDirection(c.Directions, s.Direction) {
		return false
	}
	if len(c.RiskTiers) > 0 && !containsTier(c.RiskTiers, s.RiskTier) {
		return false
	}
	return true
}

func containsDirection(ds []Direction, d Direction) bool {
	for _, x := range ds {
		if x == d {
			return true
		}
	}
	return false
}

func containsTier(ts []RiskTier, t RiskTier) bool {
	for _, x := range ts {
		if x == t {
			return true
		}
	}
	return false
}

// BulkResult reports one per-signal result of a bulk or emergency operation.
type BulkResult struct {
	SignalID string `json:"signalId"`
	Success  bool   `json:"success"`
}
