package service

import (
	"context"

	"github.com/adityamasineedi/mcpcrypto-sub001/internal/domain/models"
	domrepo "github.com/adityamasineedi/mcpcrypto-sub001/internal/domain/repository"
)

// IndicatorProvider returns the precomputed indicator snapshot for a symbol.
// Indicator math lives in the external indicator service.
type IndicatorProvider interface {
	Snapshot(ctx context.Context, symbol string, tf domrepo.Timeframe) (*models.MarketSnapshot, error)
}

// Assessor produces a qualitative assessment of a technical signal.
// Implementations may be slow or network-bound; callers treat Assess as a
// suspending call and do not retry beyond the adapter's own policy.
type Assessor interface {
	Assess(ctx context.Context, symbol string, tech *models.TechnicalSignal, snap *models.MarketSnapshot) (*models.Assessment, error)
}
