package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/adityamasineedi/mcpcrypto-sub001/internal/domain/models"
	domrepo "github.com/adityamasineedi/mcpcrypto-sub001/internal/domain/repository"
	"github.com/adityamasineedi/mcpcrypto-sub001/pkg/logger"
)

// EventRouter fans one workflow event out to every registered notifier.
// A failing sink never blocks the others; errors are counted and logged,
// not propagated back into the workflow.
type EventRouter struct {
	sinks   []namedSink
	metrics domrepo.Metrics
	log     *logger.Logger
}

type namedSink struct {
	name     string
	notifier domrepo.Notifier
}

func NewEventRouter(metrics domrepo.Metrics, log *logger.Logger) *EventRouter {
	return &EventRouter{metrics: metrics, log: log}
}

// Register adds a delivery sink. Not safe to call after dispatch starts.
func (r *EventRouter) Register(name string, n domrepo.Notifier) {
	if n == nil {
		return
	}
	r.sinks = append(r.sinks, namedSink{name: name, notifier: n})
}

// Dispatch delivers the event to all sinks. Returns an error only when
// every sink failed, so the pipeline can retry the whole event.
func (r *EventRouter) Dispatch(ctx context.Context, e *models.Event) error {
	if e == nil {
		return fmt.Errorf("event is nil")
	}
	if len(r.sinks) == 0 {
		return nil
	}

	start := time.Now()
	failed := 0
	for _, s := range r.sinks {
		if err := s.notifier.Notify(ctx, e); err != nil {
			failed++
			r.metrics.RecordError("dispatch_" + s.name)
			r.log.Warn("event delivery failed",
				logger.String("sink", s.name),
				logger.String("event", string(e.Type)),
				logger.Error(err))
			continue
		}
		r.metrics.RecordEventDispatched(s.name, string(e.Type))
	}
	r.metrics.RecordLatency("event_dispatch", time.Since(start).Seconds())

	if failed == len(r.sinks) {
		return fmt.Errorf("all %d sinks failed for %s", failed, e.Type)
	}
	return nil
}

// Close closes all sinks.
func (r *EventRouter) Close() {
	for _, s := range r.sinks {
		_ = s.notifier.Close()
	}
}
