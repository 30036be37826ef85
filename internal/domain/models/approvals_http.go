package models

// Requests for the approvals HTTP endpoints. Defined in domain for
// consistency and reuse.

type DecisionRequest struct {
	ActorID string `json:"actorId" default:"dashboard"`
	Reason  string `json:"reason" validate:"max=500"`
}

type DelayRequest struct {
	Minutes int    `json:"minutes" default:"30" validate:"gte=1,lte=1440"`
	ActorID string `json:"actorId" default:"dashboard"`
}

type BulkApproveRequest struct {
	MinConfidence float64  `json:"minConfidence" validate:"gte=0,lte=100"`
	Directions    []string `json:"directions" validate:"dive,oneof=LONG SHORT"`
	RiskTiers     []string `json:"riskTiers" validate:"dive,oneof=LOW MEDIUM HIGH"`
}

type EmergencyStopRequest struct {
	Reason string `json:"reason" validate:"required,max=500"`
}

type SettingsRequest struct {
	Settings map[string]any `json:"settings" validate:"required"`
}

type HistoryRequest struct {
	Symbol string `query:"symbol" json:"symbol"`
	From   string `query:"from" json:"from"`
	To     string `query:"to" json:"to"`
	Limit  int    `query:"limit" json:"limit" default:"100" validate:"gte=1,lte=5000"`
}
