package repository

import (
	"context"
	"time"

	"github.com/adityamasineedi/mcpcrypto-sub001/internal/domain/models"
)

// PriceStream delivers live last-trade prices over a persistent connection.
type PriceStream interface {
	Connect(ctx context.Context) error
	Subscribe(ctx context.Context) error
	Read(ctx context.Context) (<-chan *models.PriceTick, <-chan error)
	Reconnect(ctx context.Context) error
	Close() error
	IsConnected() bool
}

// Notifier delivers a workflow event to one external channel.
type Notifier interface {
	Notify(ctx context.Context, e *models.Event) error
	Close() error
}

// HistoryStore persists resolved signals and their outcomes.
type HistoryStore interface {
	Init(ctx context.Context) error
	StoreEvent(ctx context.Context, e *models.Event) error
	QuerySignals(ctx context.Context, symbol string, from, to time.Time, limit int) ([]*models.SignalRecord, error)
	Health(ctx context.Context) error
	Close() error
}

// Metrics records operational metrics for the pipeline and workflow.
type Metrics interface {
	RecordSignalGenerated(symbol string, direction string)
	RecordGateRejection(check string)
	RecordApprovalResolved(method string)
	RecordPendingApprovals(n int)
	RecordEventDispatched(sink string, eventType string)
	RecordLastPrice(symbol string, price float64)
	RecordError(kind string)
	RecordLatency(op string, seconds float64)
}
