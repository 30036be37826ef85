package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	signalsGenerated *prometheus.CounterVec
	gateRejections   *prometheus.CounterVec
	approvals        *prometheus.CounterVec
	pendingGauge     prometheus.Gauge
	eventsDispatched *prometheus.CounterVec
	lastPrice        *prometheus.GaugeVec
	errorsTotal      *prometheus.CounterVec
	latency          *prometheus.HistogramVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		signalsGenerated: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mcpcrypto_signals_generated_total",
				Help: "Total signals that cleared the quality gate",
			},
			[]string{"symbol", "direction"},
		),
		gateRejections: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mcpcrypto_gate_rejections_total",
				Help: "Total quality gate rejections by check",
			},
			[]string{"check"},
		),
		approvals: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mcpcrypto_approvals_resolved_total",
				Help: "Total approvals resolved by method",
			},
			[]string{"method"},
		),
		pendingGauge: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "mcpcrypto_pending_approvals",
				Help: "Current number of pending approvals",
			},
		),
		eventsDispatched: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mcpcrypto_events_dispatched_total",
				Help: "Total workflow events delivered per sink",
			},
			[]string{"sink", "event"},
		),
		lastPrice: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "mcpcrypto_last_price",
				Help: "Last recorded price for a symbol",
			},
			[]string{"symbol"},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mcpcrypto_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		latency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "mcpcrypto_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

func (r *Recorder) RecordSignalGenerated(symbol, direction string) {
	r.signalsGenerated.WithLabelValues(symbol, direction).Inc()
}

func (r *Recorder) RecordGateRejection(check string) {
	r.gateRejections.WithLabelValues(check).Inc()
}

func (r *Recorder) RecordApprovalResolved(method string) {
	r.approvals.WithLabelValues(method).Inc()
}

func (r *Recorder) RecordPendingApprovals(n int) {
	r.pendingGauge.Set(float64(n))
}

func (r *Recorder) RecordEventDispatched(sink, eventType string) {
	r.eventsDispatched.WithLabelValues(sink, eventType).Inc()
}

func (r *Recorder) RecordLastPrice(symbol string, price float64) {
	r.lastPrice.WithLabelValues(symbol).Set(price)
}

func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}
