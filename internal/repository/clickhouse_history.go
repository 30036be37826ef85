package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/adityamasineedi/mcpcrypto-sub001/internal/domain/models"
	"github.com/adityamasineedi/mcpcrypto-sub001/internal/domain/repository"
)

// ClickHouseHistory persists workflow events as an append-only signal
// history. One row per event; resolution state is denormalized onto the
// row so queries never need joins.
type ClickHouseHistory struct {
	db    *sql.DB
	table string
}

func NewClickHouseHistory(db *sql.DB, table string) repository.HistoryStore {
	return &ClickHouseHistory{db: db, table: table}
}

// Init creates the history table if missing.
func (s *ClickHouseHistory) Init(ctx context.Context) error {
	q := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		event_type   LowCardinality(String),
		signal_id    String,
		symbol       LowCardinality(String),
		direction    LowCardinality(String),
		confidence   Float64,
		entry_price  Float64,
		stop_loss    Float64,
		take_profit  Float64,
		risk_tier    LowCardinality(String),
		approved     UInt8,
		method       LowCardinality(String),
		reason       String,
		actor_id     String,
		created_at   DateTime64(3),
		resolved_at  DateTime64(3)
	) ENGINE = MergeTree()
	PARTITION BY toYYYYMM(resolved_at)
	ORDER BY (symbol, resolved_at)`, s.table)
	_, err := s.db.ExecContext(ctx, q)
	return err
}

func (s *ClickHouseHistory) StoreEvent(ctx context.Context, e *models.Event) error {
	if e == nil {
		return fmt.Errorf("event is nil")
	}

	var (
		signalID, symbol, direction, riskTier string
		confidence, entry, stop, target       float64
		createdAt                             time.Time
	)
	if e.Signal != nil {
		signalID = e.Signal.ID
		symbol = e.Signal.Symbol
		direction = string(e.Signal.Direction)
		riskTier = string(e.Signal.RiskTier)
		confidence = e.Signal.FinalConfidence
		entry = e.Signal.EntryPrice
		stop = e.Signal.StopLoss
		target = e.Signal.TakeProfit
		createdAt = e.Signal.CreatedAt
	}
	if createdAt.IsZero() {
		createdAt = e.Timestamp
	}

	approved := uint8(0)
	var method, reason, actorID string
	if e.Outcome != nil {
		if e.Outcome.Approved {
			approved = 1
		}
		method = string(e.Outcome.Method)
		reason = e.Outcome.Reason
		actorID = e.Outcome.ActorID
	}
	if e.Stop != nil && reason == "" {
		reason = e.Stop.Reason
	}

	q := fmt.Sprintf(`INSERT INTO %s
		(event_type, signal_id, symbol, direction, confidence, entry_price, stop_loss, take_profit, risk_tier, approved, method, reason, actor_id, created_at, resolved_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, s.table)
	_, err := s.db.ExecContext(ctx, q,
		string(e.Type),
		signalID,
		symbol,
		direction,
		confidence,
		entry,
		stop,
		target,
		riskTier,
		approved,
		method,
		reason,
		actorID,
		createdAt,
		e.Timestamp,
	)
	return err
}

// QuerySignals returns resolution events, newest first. Empty symbol
// matches all symbols.
func (s *ClickHouseHistory) QuerySignals(ctx context.Context, symbol string, from, to time.Time, limit int) ([]*models.SignalRecord, error) {
	if limit <= 0 {
		limit = 100
	}

	q := fmt.Sprintf(`SELECT event_type, signal_id, symbol, direction, confidence, entry_price, stop_loss, take_profit, risk_tier, approved, method, reason, actor_id, created_at, resolved_at
		FROM %s
		WHERE resolved_at >= ? AND resolved_at <= ?`, s.table)
	args := []interface{}{from, to}
	if symbol != "" {
		q += " AND symbol = ?"
		args = append(args, symbol)
	}
	q += " ORDER BY resolved_at DESC LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*models.SignalRecord
	for rows.Next() {
		var r models.SignalRecord
		var eventType, direction, riskTier string
		var approved uint8
		if err := rows.Scan(&eventType, &r.SignalID, &r.Symbol, &direction, &r.Confidence,
			&r.EntryPrice, &r.StopLoss, &r.TakeProfit, &riskTier, &approved,
			&r.Method, &r.Reason, &r.ActorID, &r.CreatedAt, &r.ResolvedAt); err != nil {
			return nil, err
		}
		r.EventType = models.EventType(eventType)
		r.Direction = models.Direction(direction)
		r.RiskTier = models.RiskTier(riskTier)
		r.Approved = approved == 1
		records = append(records, &r)
	}
	return records, rows.Err()
}

func (s *ClickHouseHistory) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *ClickHouseHistory) Close() error {
	return nil // pool owned by pkg client
}
