package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/adityamasineedi/mcpcrypto-sub001/internal/domain/models"
	domrepo "github.com/adityamasineedi/mcpcrypto-sub001/internal/domain/repository"
	"github.com/adityamasineedi/mcpcrypto-sub001/pkg/logger"
)

// EventPipeline decouples the approval workflow from event delivery.
// Publish never blocks the caller; events are buffered and flushed by a
// background worker with exponential backoff on router failures. When
// the buffer is full the oldest behavior is to drop and count.
type EventPipeline struct {
	router  *EventRouter
	metrics domrepo.Metrics
	log     *logger.Logger

	bufCh   chan *models.Event
	stopCh  chan struct{}
	mu      sync.Mutex
	started bool
	wg      sync.WaitGroup
}

type PipelineOption func(*EventPipeline)

// WithBufferSize sets the in-memory event buffer size.
func WithBufferSize(n int) PipelineOption {
	return func(p *EventPipeline) {
		if n > 0 {
			p.bufCh = make(chan *models.Event, n)
		}
	}
}

func NewEventPipeline(router *EventRouter, metrics domrepo.Metrics, log *logger.Logger, opts ...PipelineOption) *EventPipeline {
	p := &EventPipeline{
		router:  router,
		metrics: metrics,
		log:     log,
		bufCh:   make(chan *models.Event, 1000),
		stopCh:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Start launches the background flusher.
func (p *EventPipeline) Start(ctx context.Context) {
	p.mu.Lock()
	if p.started {
		p.mu.Unlock()
		return
	}
	p.started = true
	p.mu.Unlock()

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		backoff := 50 * time.Millisecond
		for {
			select {
			case <-p.stopCh:
				p.drain(ctx)
				return
			case e := <-p.bufCh:
				if e == nil {
					continue
				}
				if err := p.router.Dispatch(ctx, e); err != nil {
					if backoff < 2*time.Second {
						backoff *= 2
					}
					p.metrics.RecordError("pipeline_flush")
					time.Sleep(backoff)
					// requeue if space; drop otherwise
					select {
					case p.bufCh <- e:
					default:
						p.metrics.RecordError("pipeline_buffer_drop")
					}
				} else {
					backoff = 50 * time.Millisecond
				}
			}
		}
	}()
}

// Publish enqueues an event without blocking. Full buffer drops the
// event and counts it.
func (p *EventPipeline) Publish(e *models.Event) {
	if e == nil {
		return
	}
	select {
	case p.bufCh <- e:
	default:
		p.metrics.RecordError("pipeline_buffer_full")
		p.log.Warn("event buffer full, dropping",
			logger.String("event", string(e.Type)))
	}
}

// Stop halts the flusher after a best-effort drain of buffered events.
func (p *EventPipeline) Stop() {
	p.mu.Lock()
	if !p.started {
		p.mu.Unlock()
		return
	}
	p.started = false
	p.mu.Unlock()
	close(p.stopCh)
	p.wg.Wait()
}

// drain pushes out whatever is still buffered, once per event, no retry.
func (p *EventPipeline) drain(ctx context.Context) {
	for {
		select {
		case e := <-p.bufCh:
			if e == nil {
				return
			}
			if err := p.router.Dispatch(ctx, e); err != nil {
				p.metrics.RecordError("pipeline_drain")
			}
		default:
			return
		}
	}
}
