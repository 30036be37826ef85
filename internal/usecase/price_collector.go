package usecase

import (
	"context"
	"sync"

	"github.com/adityamasineedi/mcpcrypto-sub001/internal/domain/models"
	domrepo "github.com/adityamasineedi/mcpcrypto-sub001/internal/domain/repository"
)

// PriceCollector consumes the live price stream and keeps a last-price
// map plus the Prometheus gauge fresh. The generator uses the map to
// freshen snapshot prices that may lag the live market.
type PriceCollector struct {
	stream  domrepo.PriceStream
	metrics domrepo.Metrics

	mu     sync.RWMutex
	prices map[string]float64
}

func NewPriceCollector(stream domrepo.PriceStream, metrics domrepo.Metrics) *PriceCollector {
	return &PriceCollector{
		stream:  stream,
		metrics: metrics,
		prices:  make(map[string]float64),
	}
}

// LastPrice returns the most recent tick price for symbol, if any.
func (c *PriceCollector) LastPrice(symbol string) (float64, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	p, ok := c.prices[symbol]
	return p, ok
}

// IsConnected reports whether the stream is up.
func (c *PriceCollector) IsConnected() bool {
	return c.stream.IsConnected()
}

func (c *PriceCollector) Start(ctx context.Context) error {
	if err := c.stream.Connect(ctx); err != nil {
		return err
	}
	if err := c.stream.Subscribe(ctx); err != nil {
		return err
	}
	tickCh, errCh := c.stream.Read(ctx)
	go c.consume(ctx, tickCh, errCh)
	return nil
}

func (c *PriceCollector) consume(ctx context.Context, tickCh <-chan *models.PriceTick, errCh <-chan error) {
	for {
		select {
		case <-ctx.Done():
			return
		case err := <-errCh:
			if err != nil {
				c.metrics.RecordError("stream")
				_ = c.stream.Reconnect(ctx)
			}
		case t := <-tickCh:
			if t == nil {
				continue
			}
			c.mu.Lock()
			c.prices[t.Symbol] = t.Price
			c.mu.Unlock()
			c.metrics.RecordLastPrice(t.Symbol, t.Price)
		}
	}
}

func (c *PriceCollector) Stop() error { return c.stream.Close() }
