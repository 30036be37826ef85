package usecase

import (
	"context"
	"encoding/json"
	"time"

	"github.com/adityamasineedi/mcpcrypto-sub001/internal/domain/models"
	domrepo "github.com/adityamasineedi/mcpcrypto-sub001/internal/domain/repository"
	pkgkafka "github.com/adityamasineedi/mcpcrypto-sub001/pkg/kafka"
)

// KafkaEventsHandler consumes workflow events from Kafka and persists
// them to the history store. Running history writes off the consumer
// keeps the workflow's hot path free of storage latency.
type KafkaEventsHandler struct {
	topic   string
	store   domrepo.HistoryStore
	metrics domrepo.Metrics
}

func NewKafkaEventsHandler(topic string, store domrepo.HistoryStore, metrics domrepo.Metrics) *KafkaEventsHandler {
	return &KafkaEventsHandler{topic: topic, store: store, metrics: metrics}
}

func (h *KafkaEventsHandler) Topic() string { return h.topic }

func (h *KafkaEventsHandler) Handle(ctx context.Context, b []byte) error {
	var e models.Event
	if err := json.Unmarshal(b, &e); err != nil {
		h.metrics.RecordError("consumer_unmarshal")
		return err
	}
	if e.Type == "" {
		h.metrics.RecordError("consumer_empty_event")
		return nil
	}

	// E2E latency from emission to persistence.
	if !e.Timestamp.IsZero() {
		h.metrics.RecordLatency("event_e2e_seconds", time.Since(e.Timestamp).Seconds())
	}

	start := time.Now()
	err := h.store.StoreEvent(ctx, &e)
	h.metrics.RecordLatency("history_insert_seconds", time.Since(start).Seconds())
	if err != nil {
		h.metrics.RecordError("consumer_store")
		return err
	}
	return nil
}

var _ pkgkafka.MessageHandler = (*KafkaEventsHandler)(nil)
