package repository

import (
	"context"

	"github.com/adityamasineedi/mcpcrypto-sub001/internal/domain/models"
	"github.com/adityamasineedi/mcpcrypto-sub001/internal/domain/repository"
	"github.com/adityamasineedi/mcpcrypto-sub001/pkg/queue"
)

// TelegramNotifyType is the queue message type for outbound Telegram
// notifications.
const TelegramNotifyType = "telegram_notification"

// QueueNotifier hands workflow events to the Redis job queue so chat
// delivery, with its retries and dead-lettering, never runs on the
// workflow's goroutine.
type QueueNotifier struct {
	q queue.QueueService
}

func NewQueueNotifier(q queue.QueueService) repository.Notifier {
	return &QueueNotifier{q: q}
}

func (n *QueueNotifier) Notify(ctx context.Context, e *models.Event) error {
	return n.q.PublishMessage(ctx, TelegramNotifyType, e)
}

func (n *QueueNotifier) Close() error { return nil }
