package market

import (
	"context"
	"fmt"
	"time"

	"github.com/adityamasineedi/mcpcrypto-sub001/internal/domain/models"
	domsvc "github.com/adityamasineedi/mcpcrypto-sub001/internal/domain/service"
	"github.com/adityamasineedi/mcpcrypto-sub001/pkg/cache"
)

// CachedAssessor caches assessments per symbol and direction. Repeated
// scans within the TTL reuse the last verdict instead of re-hitting the
// assessment service. Cache failures degrade to a direct call.
type CachedAssessor struct {
	inner domsvc.Assessor
	cache cache.Service
	ttl   time.Duration
}

func NewCachedAssessor(inner domsvc.Assessor, c cache.Service, ttl time.Duration) *CachedAssessor {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &CachedAssessor{inner: inner, cache: c, ttl: ttl}
}

func (a *CachedAssessor) Assess(ctx context.Context, symbol string, tech *models.TechnicalSignal, snap *models.MarketSnapshot) (*models.Assessment, error) {
	if a.cache == nil || tech == nil {
		return a.inner.Assess(ctx, symbol, tech, snap)
	}

	key := fmt.Sprintf("mcpcrypto:assessment:%s:%s", symbol, tech.Direction)

	// Any cache error, miss or outage, falls through to the live call.
	var cached models.Assessment
	if err := a.cache.Get(ctx, key, &cached); err == nil {
		return &cached, nil
	}

	out, err := a.inner.Assess(ctx, symbol, tech, snap)
	if err != nil {
		return nil, err
	}
	_ = a.cache.Set(ctx, key, out, a.ttl)
	return out, nil
}

var _ domsvc.Assessor = (*CachedAssessor)(nil)
