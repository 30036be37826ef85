package usecase

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/adityamasineedi/mcpcrypto-sub001/internal/domain/models"
	"github.com/adityamasineedi/mcpcrypto-sub001/pkg/config"
	"github.com/adityamasineedi/mcpcrypto-sub001/pkg/logger"
)

type nopMetrics struct{}

func (nopMetrics) RecordSignalGenerated(string, string) {}
func (nopMetrics) RecordGateRejection(string)           {}
func (nopMetrics) RecordApprovalResolved(string)        {}
func (nopMetrics) RecordPendingApprovals(int)           {}
func (nopMetrics) RecordEventDispatched(string, string) {}
func (nopMetrics) RecordLastPrice(string, float64)      {}
func (nopMetrics) RecordError(string)                   {}
func (nopMetrics) RecordLatency(string, float64)        {}

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New(&logger.Config{Level: "error", Format: "json", Output: "stdout"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return log
}

func testConfig(mut func(*config.Config)) *config.Config {
	cfg := &config.Config{}
	cfg.Approval.ManualEnabled = true
	cfg.Approval.Timeout = time.Minute
	cfg.Approval.MaxPending = 10
	cfg.Trading.TotalCapital = 10000
	cfg.Trading.RiskPerTradePct = 1
	cfg.Trading.MinTradeAmount = 50
	cfg.Trading.MaxTradeAmount = 1000
	cfg.Trading.StopLossPct = 2
	cfg.Trading.TakeProfitPct = 6
	cfg.Trading.MinConfidence = 60
	cfg.Trading.MinRiskReward = 1.5
	cfg.Trading.CounterTrendMinConf = 75
	cfg.Trading.SignalGap = 30 * time.Minute
	if mut != nil {
		mut(cfg)
	}
	return cfg
}

func testWorkflow(t *testing.T, mut func(*config.Config)) *ApprovalWorkflow {
	t.Helper()
	log := testLogger(t)
	router := NewEventRouter(nopMetrics{}, log)
	pipe := NewEventPipeline(router, nopMetrics{}, log, WithBufferSize(64))
	return NewApprovalWorkflow(NewSettings(testConfig(mut)), pipe, nopMetrics{}, log)
}

// observedWorkflow is a workflow whose events land in a capture sink.
func observedWorkflow(t *testing.T, mut func(*config.Config)) (*ApprovalWorkflow, *captureNotifier, *EventPipeline) {
	t.Helper()
	log := testLogger(t)
	router := NewEventRouter(nopMetrics{}, log)
	sink := &captureNotifier{}
	router.Register("sink", sink)
	pipe := NewEventPipeline(router, nopMetrics{}, log, WithBufferSize(64))
	pipe.Start(context.Background())
	t.Cleanup(pipe.Stop)
	return NewApprovalWorkflow(NewSettings(testConfig(mut)), pipe, nopMetrics{}, log), sink, pipe
}

func testSignal(id string) *models.Signal {
	return &models.Signal{
		ID:              id,
		Symbol:          "BTCUSDT",
		Direction:       models.DirectionLong,
		Strength:        models.StrengthMedium,
		FinalConfidence: 75,
		EntryPrice:      100,
		StopLoss:        98,
		TakeProfit:      106,
		PositionSize:    100,
		RiskTier:        models.RiskMedium,
		RiskRewardRatio: 3,
		Regime:          models.RegimeBull,
		CreatedAt:       time.Now(),
	}
}

// requestAsync submits the approval in the background and blocks until
// the signal shows up in the pending registry.
func requestAsync(t *testing.T, w *ApprovalWorkflow, ctx context.Context, sig *models.Signal) <-chan *models.ApprovalOutcome {
	t.Helper()
	ch := make(chan *models.ApprovalOutcome, 1)
	go func() {
		out, err := w.RequestApproval(ctx, sig)
		if err != nil {
			ch <- nil
			return
		}
		ch <- out
	}()
	waitPending(t, w, sig.ID)
	return ch
}

func waitPending(t *testing.T, w *ApprovalWorkflow, id string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if _, ok := w.GetPendingSignal(id); ok {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("signal %s never became pending", id)
}

func waitOutcome(t *testing.T, ch <-chan *models.ApprovalOutcome) *models.ApprovalOutcome {
	t.Helper()
	select {
	case out := <-ch:
		if out == nil {
			t.Fatalf("request returned error instead of outcome")
		}
		return out
	case <-time.After(3 * time.Second):
		t.Fatalf("no outcome delivered")
		return nil
	}
}

func TestAutoApproveWhenManualDisabled(t *testing.T) {
	w := testWorkflow(t, func(c *config.Config) { c.Approval.ManualEnabled = false })

	out, err := w.RequestApproval(context.Background(), testSignal("s1"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !out.Approved || out.Method != models.MethodAuto {
		t.Fatalf("expected auto approval, got %+v", out)
	}
	if out.ActorID != "system" {
		t.Fatalf("expected system actor, got %q", out.ActorID)
	}
	if len(w.GetPendingApprovals()) != 0 {
		t.Fatalf("auto approval must not enter the queue")
	}
}

func TestManualApprovalDeliversOutcome(t *testing.T) {
	w := testWorkflow(t, nil)
	sig := testSignal("s1")
	ch := requestAsync(t, w, context.Background(), sig)

	if err := w.Approve(sig.ID, "ops", "looks good"); err != nil {
		t.Fatalf("approve: %v", err)
	}

	out := waitOutcome(t, ch)
	if !out.Approved || out.Method != models.MethodManual || out.ActorID != "ops" {
		t.Fatalf("unexpected outcome: %+v", out)
	}
	if out.ProcessingTimeMs < 0 {
		t.Fatalf("negative processing time")
	}

	if err := w.Approve(sig.ID, "ops", "again"); err != ErrNotPending {
		t.Fatalf("expected ErrNotPending, got %v", err)
	}
	if err := w.Reject(sig.ID, "ops", "late"); err != ErrNotPending {
		t.Fatalf("expected ErrNotPending, got %v", err)
	}
}

func TestManualRejectDeliversOutcome(t *testing.T) {
	w := testWorkflow(t, nil)
	sig := testSignal("s1")
	ch := requestAsync(t, w, context.Background(), sig)

	if err := w.Reject(sig.ID, "ops", "too risky"); err != nil {
		t.Fatalf("reject: %v", err)
	}

	out := waitOutcome(t, ch)
	if out.Approved || out.Reason != "too risky" {
		t.Fatalf("unexpected outcome: %+v", out)
	}
}

func TestConcurrentResolutionExactlyOnce(t *testing.T) {
	w := testWorkflow(t, nil)
	sig := testSignal("s1")
	ch := requestAsync(t, w, context.Background(), sig)

	var success int32
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			var err error
			if i%2 == 0 {
				err = w.Approve(sig.ID, "a", "race")
			} else {
				err = w.Reject(sig.ID, "b", "race")
			}
			if err == nil {
				atomic.AddInt32(&success, 1)
			}
		}(i)
	}
	wg.Wait()

	if success != 1 {
		t.Fatalf("expected exactly one winner, got %d", success)
	}
	waitOutcome(t, ch)
}

func TestTimeoutResolvesAsTimedOut(t *testing.T) {
	w := testWorkflow(t, func(c *config.Config) { c.Approval.Timeout = 30 * time.Millisecond })
	sig := testSignal("s1")
	ch := requestAsync(t, w, context.Background(), sig)

	out := waitOutcome(t, ch)
	if out.Approved || out.Method != models.MethodTimeout {
		t.Fatalf("expected timeout rejection, got %+v", out)
	}
	if out.Reason != "approval timeout after 30ms" {
		t.Fatalf("unexpected reason: %q", out.Reason)
	}
	if len(w.GetPendingApprovals()) != 0 {
		t.Fatalf("timed out signal still pending")
	}
}

func TestTimeoutEventCarriesResolvedOutcome(t *testing.T) {
	w, sink, _ := observedWorkflow(t, func(c *config.Config) { c.Approval.Timeout = 30 * time.Millisecond })
	sig := testSignal("s1")
	ch := requestAsync(t, w, context.Background(), sig)

	out := waitOutcome(t, ch)

	var ev *models.Event
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if ev = sink.find(models.EventSignalTimeout); ev != nil {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	if ev == nil {
		t.Fatalf("no timeout event delivered")
	}
	if ev.Outcome == nil {
		t.Fatalf("timeout event missing outcome")
	}
	if ev.Outcome.Reason != out.Reason || ev.Outcome.ProcessingTimeMs != out.ProcessingTimeMs {
		t.Fatalf("event outcome %+v diverges from caller outcome %+v", ev.Outcome, out)
	}
}

func TestDelayRearmsTimeout(t *testing.T) {
	w := testWorkflow(t, func(c *config.Config) { c.Approval.Timeout = 40 * time.Millisecond })
	sig := testSignal("s1")
	ch := requestAsync(t, w, context.Background(), sig)

	if err := w.Delay(sig.ID, 200*time.Millisecond, "ops"); err != nil {
		t.Fatalf("delay: %v", err)
	}

	// Past the original deadline: the stale timer must not fire.
	time.Sleep(100 * time.Millisecond)
	if _, ok := w.GetPendingSignal(sig.ID); !ok {
		t.Fatalf("signal resolved by stale timer")
	}

	out := waitOutcome(t, ch)
	if out.Method != models.MethodTimeout {
		t.Fatalf("expected timeout after delay, got %+v", out)
	}
	if out.Reason != "approval timeout after 200ms" {
		t.Fatalf("expected the re-armed duration in the reason, got %q", out.Reason)
	}
}

func TestStaleTimerGenerationCannotResolve(t *testing.T) {
	w := testWorkflow(t, nil)
	sig := testSignal("s1")
	ch := requestAsync(t, w, context.Background(), sig)

	if err := w.Delay(sig.ID, time.Minute, "ops"); err != nil {
		t.Fatalf("delay: %v", err)
	}

	// A timer callback armed before the delay carries generation 0 and
	// must lose even though the entry is still pending.
	w.timeoutFire(sig.ID, 0, time.Minute)
	if _, ok := w.GetPendingSignal(sig.ID); !ok {
		t.Fatalf("stale timer resolved a delayed signal")
	}

	// The check and the removal share one critical section, so a stale
	// generation is refused inside resolve as well.
	stale := models.ApprovalOutcome{Approved: false, Method: models.MethodTimeout}
	if entry := w.resolve(sig.ID, 0, &stale); entry != nil {
		t.Fatalf("resolve accepted a stale generation")
	}

	if err := w.Approve(sig.ID, "ops", ""); err != nil {
		t.Fatalf("approve: %v", err)
	}
	out := waitOutcome(t, ch)
	if !out.Approved || out.Method != models.MethodManual {
		t.Fatalf("unexpected outcome: %+v", out)
	}
}

func TestApproveBeforeDeadlineSuppressesTimeout(t *testing.T) {
	w, sink, pipe := observedWorkflow(t, func(c *config.Config) { c.Approval.Timeout = 60 * time.Millisecond })
	sig := testSignal("s1")
	ch := requestAsync(t, w, context.Background(), sig)

	if err := w.Approve(sig.ID, "ops", "beat the clock"); err != nil {
		t.Fatalf("approve: %v", err)
	}
	out := waitOutcome(t, ch)
	if !out.Approved || out.Method != models.MethodManual {
		t.Fatalf("unexpected outcome: %+v", out)
	}

	// Well past the original deadline the cancelled timer must stay silent.
	time.Sleep(150 * time.Millisecond)
	pipe.Stop()

	if sink.find(models.EventSignalApproved) == nil {
		t.Fatalf("approved event not delivered")
	}
	if ev := sink.find(models.EventSignalTimeout); ev != nil {
		t.Fatalf("timeout emitted after manual approval: %+v", ev)
	}
}

func TestDelayValidation(t *testing.T) {
	w := testWorkflow(t, nil)
	if err := w.Delay("missing", time.Minute, "ops"); err != ErrNotPending {
		t.Fatalf("expected ErrNotPending, got %v", err)
	}
	if err := w.Delay("missing", 0, "ops"); err == nil {
		t.Fatalf("expected error for non-positive delay")
	}
}

func TestQueueFull(t *testing.T) {
	w := testWorkflow(t, func(c *config.Config) { c.Approval.MaxPending = 1 })
	ch := requestAsync(t, w, context.Background(), testSignal("s1"))

	_, err := w.RequestApproval(context.Background(), testSignal("s2"))
	if err != ErrQueueFull {
		t.Fatalf("expected ErrQueueFull, got %v", err)
	}

	if err := w.Approve("s1", "ops", ""); err != nil {
		t.Fatalf("approve: %v", err)
	}
	waitOutcome(t, ch)
}

func TestDuplicateSignalID(t *testing.T) {
	w := testWorkflow(t, nil)
	ch := requestAsync(t, w, context.Background(), testSignal("s1"))

	_, err := w.RequestApproval(context.Background(), testSignal("s1"))
	if err != ErrDuplicateSignal {
		t.Fatalf("expected ErrDuplicateSignal, got %v", err)
	}

	_ = w.Approve("s1", "ops", "")
	waitOutcome(t, ch)
}

func TestCancelledRequestRejects(t *testing.T) {
	w := testWorkflow(t, nil)
	sig := testSignal("s1")
	ctx, cancel := context.WithCancel(context.Background())
	ch := requestAsync(t, w, ctx, sig)

	cancel()

	out := waitOutcome(t, ch)
	if out.Approved {
		t.Fatalf("cancelled request must not approve")
	}
	if out.Reason != "request cancelled" {
		t.Fatalf("unexpected reason: %q", out.Reason)
	}
	if _, ok := w.GetPendingSignal(sig.ID); ok {
		t.Fatalf("cancelled signal still pending")
	}
}

func TestBulkApproveFilters(t *testing.T) {
	w := testWorkflow(t, nil)

	low := testSignal("s1")
	low.FinalConfidence = 50
	mid := testSignal("s2")
	mid.FinalConfidence = 70
	high := testSignal("s3")
	high.FinalConfidence = 90

	chans := []<-chan *models.ApprovalOutcome{
		requestAsync(t, w, context.Background(), low),
		requestAsync(t, w, context.Background(), mid),
		requestAsync(t, w, context.Background(), high),
	}

	results := w.BulkApprove(models.BulkCriteria{MinConfidence: 65}, "ops")
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	for _, r := range results {
		if !r.Success {
			t.Fatalf("bulk approval failed for %s", r.SignalID)
		}
	}
	if results[0].SignalID != "s2" || results[1].SignalID != "s3" {
		t.Fatalf("unexpected ids: %+v", results)
	}

	if _, ok := w.GetPendingSignal("s1"); !ok {
		t.Fatalf("low confidence signal must stay pending")
	}

	waitOutcome(t, chans[1])
	waitOutcome(t, chans[2])
	_ = w.Reject("s1", "ops", "cleanup")
	waitOutcome(t, chans[0])
}

func TestEmergencyRejectAll(t *testing.T) {
	w := testWorkflow(t, nil)
	ch1 := requestAsync(t, w, context.Background(), testSignal("s1"))
	ch2 := requestAsync(t, w, context.Background(), testSignal("s2"))

	results := w.EmergencyRejectAll("flash crash", "ops")
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	for _, r := range results {
		if !r.Success {
			t.Fatalf("emergency rejection failed for %s", r.SignalID)
		}
	}
	if w.GetQueueStatus().TotalPending != 0 {
		t.Fatalf("queue not empty after emergency stop")
	}

	for _, ch := range []<-chan *models.ApprovalOutcome{ch1, ch2} {
		out := waitOutcome(t, ch)
		if out.Approved || out.Reason != "flash crash" {
			t.Fatalf("unexpected outcome: %+v", out)
		}
	}
}

func TestShutdownRejectsPendingAndRefusesNew(t *testing.T) {
	w := testWorkflow(t, nil)
	ch := requestAsync(t, w, context.Background(), testSignal("s1"))

	w.Shutdown()

	out := waitOutcome(t, ch)
	if out.Approved || out.Reason != "service shutting down" {
		t.Fatalf("unexpected outcome: %+v", out)
	}

	_, err := w.RequestApproval(context.Background(), testSignal("s2"))
	if err != ErrShuttingDown {
		t.Fatalf("expected ErrShuttingDown, got %v", err)
	}
}

func TestPendingViewsOrderedByRequestTime(t *testing.T) {
	w := testWorkflow(t, nil)
	ch1 := requestAsync(t, w, context.Background(), testSignal("s1"))
	time.Sleep(5 * time.Millisecond)
	ch2 := requestAsync(t, w, context.Background(), testSignal("s2"))

	views := w.GetPendingApprovals()
	if len(views) != 2 {
		t.Fatalf("expected 2 pending, got %d", len(views))
	}
	if views[0].ID != "s1" || views[1].ID != "s2" {
		t.Fatalf("unexpected order: %s, %s", views[0].ID, views[1].ID)
	}
	if views[0].TimeRemainingMs <= 0 {
		t.Fatalf("expected positive time remaining")
	}

	_ = w.Approve("s1", "ops", "")
	_ = w.Approve("s2", "ops", "")
	waitOutcome(t, ch1)
	waitOutcome(t, ch2)
}

func TestQueueStatusAggregates(t *testing.T) {
	w := testWorkflow(t, nil)

	long := testSignal("s1")
	long.FinalConfidence = 80
	short := testSignal("s2")
	short.Direction = models.DirectionShort
	short.RiskTier = models.RiskHigh
	short.FinalConfidence = 60

	ch1 := requestAsync(t, w, context.Background(), long)
	ch2 := requestAsync(t, w, context.Background(), short)

	st := w.GetQueueStatus()
	if st.TotalPending != 2 {
		t.Fatalf("expected 2 pending, got %d", st.TotalPending)
	}
	if st.ByDirection[models.DirectionLong] != 1 || st.ByDirection[models.DirectionShort] != 1 {
		t.Fatalf("unexpected direction breakdown: %+v", st.ByDirection)
	}
	if st.ByRiskTier[models.RiskHigh] != 1 {
		t.Fatalf("unexpected tier breakdown: %+v", st.ByRiskTier)
	}
	if st.AvgConfidence != 70 {
		t.Fatalf("expected avg confidence 70, got %f", st.AvgConfidence)
	}
	if st.OldestPendingAt == nil {
		t.Fatalf("expected oldest pending timestamp")
	}

	w.EmergencyRejectAll("cleanup", "test")
	waitOutcome(t, ch1)
	waitOutcome(t, ch2)
}
