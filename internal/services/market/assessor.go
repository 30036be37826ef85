package market

import (
	"context"
	"fmt"

	"github.com/adityamasineedi/mcpcrypto-sub001/internal/domain/models"
	domsvc "github.com/adityamasineedi/mcpcrypto-sub001/internal/domain/service"
	"github.com/adityamasineedi/mcpcrypto-sub001/pkg/config"
)

// HTTPAssessor calls the external assessment service. Its confidence is
// the final arbiter over the technical score; StopLoss/TakeProfit may
// come back zero when the assessor declines to set levels.
type HTTPAssessor struct {
	*HTTPServiceBase
}

func NewHTTPAssessor(cfg *config.Config) *HTTPAssessor {
	return &HTTPAssessor{HTTPServiceBase: NewHTTPServiceBase(cfg)}
}

type assessRequest struct {
	Symbol         string  `json:"symbol"`
	Direction      string  `json:"direction"`
	TechConfidence float64 `json:"tech_confidence"`
	EntryPrice     float64 `json:"entry_price"`
	Price          float64 `json:"price"`
	RSI            float64 `json:"rsi"`
	VolumeRatio    float64 `json:"volume_ratio"`
	Regime         string  `json:"regime"`
}

type assessResponse struct {
	Confidence     float64 `json:"confidence"`
	Recommendation string  `json:"recommendation"`
	RiskTier       string  `json:"risk_tier"`
	StopLoss       float64 `json:"stop_loss"`
	TakeProfit     float64 `json:"take_profit"`
	Reasoning      string  `json:"reasoning"`
	TimeHorizon    string  `json:"time_horizon"`
}

func (a *HTTPAssessor) Assess(ctx context.Context, symbol string, tech *models.TechnicalSignal, snap *models.MarketSnapshot) (*models.Assessment, error) {
	if tech == nil || snap == nil {
		return nil, fmt.Errorf("nil technical signal or snapshot")
	}

	var resp assessResponse
	err := a.PostJSONWithRetry(ctx, "/assess", assessRequest{
		Symbol:         symbol,
		Direction:      string(tech.Direction),
		TechConfidence: tech.Confidence,
		EntryPrice:     tech.EntryPrice,
		Price:          snap.Price,
		RSI:            snap.RSI,
		VolumeRatio:    snap.VolumeRatio,
		Regime:         string(snap.Regime),
	}, &resp, 2)
	if err != nil {
		return nil, err
	}

	if resp.Confidence < 0 || resp.Confidence > 100 {
		return nil, fmt.Errorf("assess %s: confidence %f out of range", symbol, resp.Confidence)
	}

	tier := models.RiskTier(resp.RiskTier)
	switch tier {
	case models.RiskLow, models.RiskHigh:
	default:
		tier = models.RiskMedium
	}

	rec := models.Direction(resp.Recommendation)
	switch rec {
	case models.DirectionLong, models.DirectionShort:
	default:
		rec = models.DirectionHold
	}

	return &models.Assessment{
		Confidence:     resp.Confidence,
		Recommendation: rec,
		RiskTier:       tier,
		StopLoss:       resp.StopLoss,
		TakeProfit:     resp.TakeProfit,
		Reasoning:      resp.Reasoning,
		TimeHorizon:    resp.TimeHorizon,
	}, nil
}

var _ domsvc.Assessor = (*HTTPAssessor)(nil)
