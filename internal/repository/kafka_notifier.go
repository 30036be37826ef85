package repository

import (
	"context"

	"github.com/adityamasineedi/mcpcrypto-sub001/internal/domain/models"
	"github.com/adityamasineedi/mcpcrypto-sub001/internal/domain/repository"
	pkgkafka "github.com/adityamasineedi/mcpcrypto-sub001/pkg/kafka"
)

// KafkaNotifier publishes workflow events to the events topic. Events
// are keyed by signal id so per-signal ordering survives partitioning;
// events without a signal share a constant key.
type KafkaNotifier struct {
	producer *pkgkafka.Producer
	topic    string
}

func NewKafkaNotifier(producer *pkgkafka.Producer, topic string) repository.Notifier {
	return &KafkaNotifier{producer: producer, topic: topic}
}

func (n *KafkaNotifier) Notify(ctx context.Context, e *models.Event) error {
	key := "workflow"
	if e.Signal != nil {
		key = e.Signal.ID
	}
	return n.producer.Publish(ctx, n.topic, []byte(key), e)
}

func (n *KafkaNotifier) Close() error {
	if n.producer != nil {
		return n.producer.Close()
	}
	return nil
}
