package usecase

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/adityamasineedi/mcpcrypto-sub001/internal/domain/models"
)

// captureNotifier records delivered events for assertions.
type captureNotifier struct {
	mu     sync.Mutex
	events []*models.Event
	closed bool
}

func (c *captureNotifier) Notify(_ context.Context, e *models.Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, e)
	return nil
}

func (c *captureNotifier) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *captureNotifier) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.events)
}

func (c *captureNotifier) find(t models.EventType) *models.Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, e := range c.events {
		if e.Type == t {
			return e
		}
	}
	return nil
}

type failingNotifier struct{}

func (failingNotifier) Notify(context.Context, *models.Event) error {
	return fmt.Errorf("sink down")
}
func (failingNotifier) Close() error { return nil }

func TestRouterDispatchFanOut(t *testing.T) {
	r := NewEventRouter(nopMetrics{}, testLogger(t))
	a := &captureNotifier{}
	b := &captureNotifier{}
	r.Register("a", a)
	r.Register("b", b)

	if err := r.Dispatch(context.Background(), models.NewEvent(models.EventSignalApproved)); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if a.count() != 1 || b.count() != 1 {
		t.Fatalf("expected both sinks to receive the event")
	}
}

func TestRouterPartialFailureIsNotAnError(t *testing.T) {
	r := NewEventRouter(nopMetrics{}, testLogger(t))
	ok := &captureNotifier{}
	r.Register("ok", ok)
	r.Register("down", failingNotifier{})

	if err := r.Dispatch(context.Background(), models.NewEvent(models.EventSignalRejected)); err != nil {
		t.Fatalf("one surviving sink must not error: %v", err)
	}
	if ok.count() != 1 {
		t.Fatalf("surviving sink missed the event")
	}
}

func TestRouterAllSinksFailed(t *testing.T) {
	r := NewEventRouter(nopMetrics{}, testLogger(t))
	r.Register("down", failingNotifier{})

	if err := r.Dispatch(context.Background(), models.NewEvent(models.EventSignalTimeout)); err == nil {
		t.Fatalf("expected error when every sink fails")
	}
}

func TestRouterNoSinksAndNilRegistration(t *testing.T) {
	r := NewEventRouter(nopMetrics{}, testLogger(t))
	r.Register("nil", nil)

	if err := r.Dispatch(context.Background(), models.NewEvent(models.EventApprovalRequested)); err != nil {
		t.Fatalf("no sinks must be a no-op: %v", err)
	}
	if err := r.Dispatch(context.Background(), nil); err == nil {
		t.Fatalf("nil event must error")
	}
}

func TestRouterClose(t *testing.T) {
	r := NewEventRouter(nopMetrics{}, testLogger(t))
	c := &captureNotifier{}
	r.Register("c", c)
	r.Close()
	if !c.closed {
		t.Fatalf("expected sink closed")
	}
}

func TestPipelineDeliversPublishedEvents(t *testing.T) {
	log := testLogger(t)
	r := NewEventRouter(nopMetrics{}, log)
	c := &captureNotifier{}
	r.Register("c", c)

	p := NewEventPipeline(r, nopMetrics{}, log, WithBufferSize(16))
	p.Start(context.Background())

	for i := 0; i < 3; i++ {
		p.Publish(models.NewEvent(models.EventSignalApproved))
	}

	deadline := time.Now().Add(2 * time.Second)
	for c.count() < 3 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if c.count() != 3 {
		t.Fatalf("expected 3 delivered events, got %d", c.count())
	}
	p.Stop()
}

func TestPipelineDrainsOnStop(t *testing.T) {
	log := testLogger(t)
	r := NewEventRouter(nopMetrics{}, log)
	c := &captureNotifier{}
	r.Register("c", c)

	p := NewEventPipeline(r, nopMetrics{}, log, WithBufferSize(16))

	// Buffered before the flusher starts; Stop must still push them out.
	p.Publish(models.NewEvent(models.EventSignalApproved))
	p.Publish(models.NewEvent(models.EventSignalRejected))

	p.Start(context.Background())
	p.Stop()

	if c.count() != 2 {
		t.Fatalf("expected 2 drained events, got %d", c.count())
	}
}

func TestPipelinePublishNeverBlocksWhenFull(t *testing.T) {
	log := testLogger(t)
	r := NewEventRouter(nopMetrics{}, log)
	p := NewEventPipeline(r, nopMetrics{}, log, WithBufferSize(1))

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 10; i++ {
			p.Publish(models.NewEvent(models.EventSignalApproved))
		}
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("publish blocked on a full buffer")
	}
}
