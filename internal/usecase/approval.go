package usecase

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/adityamasineedi/mcpcrypto-sub001/internal/domain/models"
	domrepo "github.com/adityamasineedi/mcpcrypto-sub001/internal/domain/repository"
	"github.com/adityamasineedi/mcpcrypto-sub001/pkg/logger"
)

var (
	ErrNotPending      = fmt.Errorf("signal is not pending")
	ErrQueueFull       = fmt.Errorf("pending queue is full")
	ErrDuplicateSignal = fmt.Errorf("signal id already pending")
	ErrShuttingDown    = fmt.Errorf("workflow is shutting down")
)

// pendingApproval is one in-flight approval. The outcome channel is
// buffered so the single resolving goroutine never blocks on delivery.
// gen guards the timer against firing after a delay re-armed it.
type pendingApproval struct {
	signal      *models.Signal
	requestedAt time.Time
	deadline    time.Time
	timer       *time.Timer
	gen         int
	done        chan models.ApprovalOutcome
}

// ApprovalWorkflow owns the pending-approval registry. A signal enters
// via RequestApproval and leaves exactly once, through manual decision,
// timeout, bulk approval, emergency stop or shutdown. Whoever removes
// the entry from the map under the lock wins the resolution race.
type ApprovalWorkflow struct {
	settings *Settings
	events   *EventPipeline
	metrics  domrepo.Metrics
	log      *logger.Logger

	mu       sync.Mutex
	pending  map[string]*pendingApproval
	shutdown bool

	now func() time.Time
}

func NewApprovalWorkflow(settings *Settings, events *EventPipeline, metrics domrepo.Metrics, log *logger.Logger) *ApprovalWorkflow {
	return &ApprovalWorkflow{
		settings: settings,
		events:   events,
		metrics:  metrics,
		log:      log,
		pending:  make(map[string]*pendingApproval),
		now:      time.Now,
	}
}

// RequestApproval registers the signal and blocks until it is resolved
// or ctx is cancelled. When manual approval is disabled the signal is
// auto-approved without entering the queue. Cancellation rejects the
// signal; the returned outcome is still the single authoritative one.
func (w *ApprovalWorkflow) RequestApproval(ctx context.Context, signal *models.Signal) (*models.ApprovalOutcome, error) {
	if signal == nil {
		return nil, fmt.Errorf("nil signal")
	}

	if !w.settings.ManualApproval() {
		out := &models.ApprovalOutcome{
			Approved: true,
			Method:   models.MethodAuto,
			ActorID:  "system",
		}
		w.metrics.RecordApprovalResolved(string(models.MethodAuto))
		w.emitResolved(models.EventSignalApproved, signal, out)
		return out, nil
	}

	timeout := w.settings.ApprovalTimeout()
	requestedAt := w.now()

	entry := &pendingApproval{
		signal:      signal,
		requestedAt: requestedAt,
		deadline:    requestedAt.Add(timeout),
		done:        make(chan models.ApprovalOutcome, 1),
	}

	w.mu.Lock()
	if w.shutdown {
		w.mu.Unlock()
		return nil, ErrShuttingDown
	}
	if max := w.settings.MaxPending(); max > 0 && len(w.pending) >= max {
		w.mu.Unlock()
		w.metrics.RecordError("queue_full")
		return nil, ErrQueueFull
	}
	if _, exists := w.pending[signal.ID]; exists {
		w.mu.Unlock()
		return nil, ErrDuplicateSignal
	}
	w.pending[signal.ID] = entry
	gen := entry.gen
	entry.timer = time.AfterFunc(timeout, func() { w.timeoutFire(signal.ID, gen, timeout) })
	pendingCount := len(w.pending)
	w.mu.Unlock()

	w.metrics.RecordPendingApprovals(pendingCount)
	w.log.Info("approval requested",
		logger.String("signal_id", signal.ID),
		logger.String("symbol", signal.Symbol),
		logger.String("direction", string(signal.Direction)),
		logger.Duration("timeout", timeout))

	ev := models.NewEvent(models.EventApprovalRequested)
	ev.Signal = signal
	w.events.Publish(ev)

	select {
	case out := <-entry.done:
		return &out, nil
	case <-ctx.Done():
		// Resolve as rejected; if the timer or an operator beat us the
		// entry is already gone and done carries the real outcome.
		cancelled := models.ApprovalOutcome{
			Approved: false,
			Method:   models.MethodManual,
			ActorID:  "system",
			Reason:   "request cancelled",
		}
		if won := w.resolve(signal.ID, anyGen, &cancelled); won != nil {
			w.emitResolved(models.EventSignalRejected, signal, &cancelled)
		}
		out := <-entry.done
		return &out, nil
	}
}

// anyGen matches every timer generation. Resolutions that are not
// timer callbacks resolve unconditionally.
const anyGen = -1

// resolve removes the entry and delivers the outcome, filling in
// ProcessingTimeMs. Returns the entry when this caller won the race,
// nil when the signal was not pending. A timer callback passes the
// generation it was armed with; the check and the removal happen under
// one lock so a delay that re-armed the timer can never be undone by
// the stale callback.
func (w *ApprovalWorkflow) resolve(id string, gen int, out *models.ApprovalOutcome) *pendingApproval {
	w.mu.Lock()
	entry, ok := w.pending[id]
	if !ok || (gen != anyGen && entry.gen != gen) {
		w.mu.Unlock()
		return nil
	}
	delete(w.pending, id)
	entry.gen++ // invalidate any in-flight timer callback
	if entry.timer != nil {
		entry.timer.Stop()
	}
	pendingCount := len(w.pending)
	w.mu.Unlock()

	elapsed := w.now().Sub(entry.requestedAt)
	out.ProcessingTimeMs = elapsed.Milliseconds()
	entry.done <- *out

	w.metrics.RecordPendingApprovals(pendingCount)
	w.metrics.RecordApprovalResolved(string(out.Method))
	w.metrics.RecordLatency("approval_resolution", elapsed.Seconds())
	return entry
}

func (w *ApprovalWorkflow) timeoutFire(id string, gen int, timeout time.Duration) {
	out := models.ApprovalOutcome{
		Approved: false,
		Method:   models.MethodTimeout,
		Reason:   fmt.Sprintf("approval timeout after %dms", timeout.Milliseconds()),
	}
	entry := w.resolve(id, gen, &out)
	if entry == nil {
		return
	}

	w.log.Warn("approval timed out",
		logger.String("signal_id", id),
		logger.String("symbol", entry.signal.Symbol))

	w.emitResolved(models.EventSignalTimeout, entry.signal, &out)
}

// Approve resolves a pending signal as approved.
func (w *ApprovalWorkflow) Approve(id, actorID, reason string) error {
	out := models.ApprovalOutcome{
		Approved: true,
		Method:   models.MethodManual,
		ActorID:  actorID,
		Reason:   reason,
	}
	entry := w.resolve(id, anyGen, &out)
	if entry == nil {
		return ErrNotPending
	}

	w.log.Info("signal approved",
		logger.String("signal_id", id),
		logger.String("actor", actorID))

	w.emitResolved(models.EventSignalApproved, entry.signal, &out)
	return nil
}

// Reject resolves a pending signal as rejected.
func (w *ApprovalWorkflow) Reject(id, actorID, reason string) error {
	out := models.ApprovalOutcome{
		Approved: false,
		Method:   models.MethodManual,
		ActorID:  actorID,
		Reason:   reason,
	}
	entry := w.resolve(id, anyGen, &out)
	if entry == nil {
		return ErrNotPending
	}

	w.log.Info("signal rejected",
		logger.String("signal_id", id),
		logger.String("actor", actorID),
		logger.String("reason", reason))

	w.emitResolved(models.EventSignalRejected, entry.signal, &out)
	return nil
}

// Delay pushes a pending signal's deadline out by the given duration
// from now and re-arms the timeout timer. The waiting caller keeps
// waiting; nothing is resolved.
func (w *ApprovalWorkflow) Delay(id string, d time.Duration, actorID string) error {
	if d <= 0 {
		return fmt.Errorf("delay must be positive")
	}

	w.mu.Lock()
	entry, ok := w.pending[id]
	if !ok {
		w.mu.Unlock()
		return ErrNotPending
	}
	entry.gen++
	gen := entry.gen
	if entry.timer != nil {
		entry.timer.Stop()
	}
	entry.deadline = w.now().Add(d)
	entry.timer = time.AfterFunc(d, func() { w.timeoutFire(id, gen, d) })
	sig := entry.signal
	w.mu.Unlock()

	w.log.Info("signal delayed",
		logger.String("signal_id", id),
		logger.Duration("delay", d),
		logger.String("actor", actorID))

	ev := models.NewEvent(models.EventSignalDelayed)
	ev.Signal = sig
	ev.Delay = &models.DelayInfo{Minutes: int(d / time.Minute), ActorID: actorID}
	w.events.Publish(ev)
	return nil
}

// BulkApprove approves every pending signal matching the criteria.
// Signals resolved concurrently by other actors simply drop out of the
// result set as failures.
func (w *ApprovalWorkflow) BulkApprove(criteria models.BulkCriteria, actorID string) []models.BulkResult {
	w.mu.Lock()
	ids := make([]string, 0, len(w.pending))
	for id, entry := range w.pending {
		if criteria.Matches(entry.signal) {
			ids = append(ids, id)
		}
	}
	w.mu.Unlock()
	sort.Strings(ids)

	results := make([]models.BulkResult, 0, len(ids))
	for _, id := range ids {
		err := w.Approve(id, actorID, "bulk approval")
		results = append(results, models.BulkResult{SignalID: id, Success: err == nil})
	}
	return results
}

// EmergencyRejectAll rejects every pending signal and emits a single
// emergency stop event on top of the per-signal rejections.
func (w *ApprovalWorkflow) EmergencyRejectAll(reason, actorID string) []models.BulkResult {
	w.mu.Lock()
	ids := make([]string, 0, len(w.pending))
	for id := range w.pending {
		ids = append(ids, id)
	}
	w.mu.Unlock()
	sort.Strings(ids)

	results := make([]models.BulkResult, 0, len(ids))
	rejected := 0
	for _, id := range ids {
		err := w.Reject(id, actorID, reason)
		if err == nil {
			rejected++
		}
		results = append(results, models.BulkResult{SignalID: id, Success: err == nil})
	}

	w.log.Warn("emergency stop",
		logger.String("reason", reason),
		logger.Int("rejected", rejected))

	ev := models.NewEvent(models.EventEmergencyStop)
	ev.Stop = &models.EmergencyStopInfo{Reason: reason, Count: rejected}
	w.events.Publish(ev)
	return results
}

// GetPendingApprovals lists pending approvals ordered by request time.
func (w *ApprovalWorkflow) GetPendingApprovals() []models.PendingView {
	now := w.now()

	w.mu.Lock()
	views := make([]models.PendingView, 0, len(w.pending))
	for id, entry := range w.pending {
		remaining := entry.deadline.Sub(now).Milliseconds()
		if remaining < 0 {
			remaining = 0
		}
		views = append(views, models.PendingView{
			ID:              id,
			Symbol:          entry.signal.Symbol,
			Direction:       entry.signal.Direction,
			Confidence:      entry.signal.FinalConfidence,
			RiskTier:        entry.signal.RiskTier,
			RequestedAt:     entry.requestedAt,
			Deadline:        entry.deadline,
			TimeRemainingMs: remaining,
		})
	}
	w.mu.Unlock()

	sort.Slice(views, func(i, j int) bool {
		if views[i].RequestedAt.Equal(views[j].RequestedAt) {
			return views[i].ID < views[j].ID
		}
		return views[i].RequestedAt.Before(views[j].RequestedAt)
	})
	return views
}

// GetQueueStatus aggregates the pending registry.
func (w *ApprovalWorkflow) GetQueueStatus() models.QueueStatus {
	w.mu.Lock()
	defer w.mu.Unlock()

	status := models.QueueStatus{
		TotalPending: len(w.pending),
		ByDirection:  make(map[models.Direction]int),
		ByRiskTier:   make(map[models.RiskTier]int),
	}

	var confSum float64
	var oldest *time.Time
	for _, entry := range w.pending {
		status.ByDirection[entry.signal.Direction]++
		status.ByRiskTier[entry.signal.RiskTier]++
		confSum += entry.signal.FinalConfidence
		if oldest == nil || entry.requestedAt.Before(*oldest) {
			t := entry.requestedAt
			oldest = &t
		}
	}
	if status.TotalPending > 0 {
		status.AvgConfidence = confSum / float64(status.TotalPending)
	}
	status.OldestPendingAt = oldest
	return status
}

// GetPendingSignal returns the full signal for a pending approval.
func (w *ApprovalWorkflow) GetPendingSignal(id string) (*models.Signal, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	entry, ok := w.pending[id]
	if !ok {
		return nil, false
	}
	return entry.signal, true
}

// Shutdown rejects everything still pending and refuses new requests.
func (w *ApprovalWorkflow) Shutdown() {
	w.mu.Lock()
	w.shutdown = true
	ids := make([]string, 0, len(w.pending))
	for id := range w.pending {
		ids = append(ids, id)
	}
	w.mu.Unlock()

	for _, id := range ids {
		_ = w.Reject(id, "system", "service shutting down")
	}
	w.log.Info("approval workflow stopped", logger.Int("rejected", len(ids)))
}

func (w *ApprovalWorkflow) emitResolved(t models.EventType, sig *models.Signal, out *models.ApprovalOutcome) {
	ev := models.NewEvent(t)
	ev.Signal = sig
	ev.Outcome = out
	w.events.Publish(ev)
}
