package market

import (
	"context"
	"fmt"
	"time"

	"github.com/adityamasineedi/mcpcrypto-sub001/internal/domain/models"
	domrepo "github.com/adityamasineedi/mcpcrypto-sub001/internal/domain/repository"
	domsvc "github.com/adityamasineedi/mcpcrypto-sub001/internal/domain/service"
	"github.com/adityamasineedi/mcpcrypto-sub001/pkg/config"
)

// HTTPIndicatorProvider fetches precomputed indicator snapshots from the
// market data service.
type HTTPIndicatorProvider struct {
	*HTTPServiceBase
}

func NewHTTPIndicatorProvider(cfg *config.Config) *HTTPIndicatorProvider {
	return &HTTPIndicatorProvider{HTTPServiceBase: NewHTTPServiceBase(cfg)}
}

type snapshotRequest struct {
	Symbol    string `json:"symbol"`
	Timeframe string `json:"timeframe"`
}

type snapshotResponse struct {
	Symbol      string  `json:"symbol"`
	Timestamp   int64   `json:"timestamp"`
	Price       float64 `json:"price"`
	RSI         float64 `json:"rsi"`
	MACDLine    float64 `json:"macd_line"`
	MACDSignal  float64 `json:"macd_signal"`
	MACDHist    float64 `json:"macd_hist"`
	EMAFast     float64 `json:"ema_fast"`
	EMAMid      float64 `json:"ema_mid"`
	EMASlow     float64 `json:"ema_slow"`
	BBUpper     float64 `json:"bb_upper"`
	BBMiddle    float64 `json:"bb_middle"`
	BBLower     float64 `json:"bb_lower"`
	VolumeRatio float64 `json:"volume_ratio"`
	Support     float64 `json:"support"`
	Resistance  float64 `json:"resistance"`
	Regime      string  `json:"regime"`
}

func (p *HTTPIndicatorProvider) Snapshot(ctx context.Context, symbol string, tf domrepo.Timeframe) (*models.MarketSnapshot, error) {
	if symbol == "" {
		return nil, fmt.Errorf("symbol required")
	}

	var resp snapshotResponse
	err := p.PostJSONWithRetry(ctx, "/indicators/snapshot", snapshotRequest{
		Symbol:    symbol,
		Timeframe: string(tf),
	}, &resp, 2)
	if err != nil {
		return nil, err
	}
	if resp.Price <= 0 {
		return nil, fmt.Errorf("snapshot %s: invalid price %f", symbol, resp.Price)
	}

	regime := models.Regime(resp.Regime)
	switch regime {
	case models.RegimeBull, models.RegimeBear:
	default:
		regime = models.RegimeNeutral
	}

	return &models.MarketSnapshot{
		Symbol:      resp.Symbol,
		Timestamp:   time.Unix(resp.Timestamp, 0),
		Price:       resp.Price,
		RSI:         resp.RSI,
		MACDLine:    resp.MACDLine,
		MACDSignal:  resp.MACDSignal,
		MACDHist:    resp.MACDHist,
		EMAFast:     resp.EMAFast,
		EMAMid:      resp.EMAMid,
		EMASlow:     resp.EMASlow,
		BBUpper:     resp.BBUpper,
		BBMiddle:    resp.BBMiddle,
		BBLower:     resp.BBLower,
		VolumeRatio: resp.VolumeRatio,
		Support:     resp.Support,
		Resistance:  resp.Resistance,
		Regime:      regime,
	}, nil
}

var _ domsvc.IndicatorProvider = (*HTTPIndicatorProvider)(nil)
