package postgres

import (
	"context"
	"errors"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmehra2102/inventory-service/internal/inventory/domain"
	"github.com/dmehra2102/inventory-service/pkg/outbox"
	"github.com/dmehra2102/inventory-service/pkg/tracing"
)

const (
	OutcomeAggregateType = "sales"
	OutcomeEventType     = "SalesConfirmation"
)

var outcomeHeaders = map[string]string{"source": "inventory-service"}

type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// recordOutcome marks the sale as processed and queues its outcome in the
// outbox. It reports false, writing nothing, when the sale was already
// marked.
func recordOutcome(ctx context.Context, q execer, outcome domain.Outcome) (bool, error) {
	ev, err := outbox.NewEvent(OutcomeAggregateType, outcome.SalesID, OutcomeEventType, outcome, outcomeHeaders)
	if err != nil {
		return false, err
	}
	ev.Traceparent = tracing.Traceparent(ctx)

	ct, err := q.Exec(ctx, `INSERT INTO processed_sales (sales_id, status) VALUES ($1,$2)
		ON CONFLICT (sales_id) DO NOTHING`, outcome.SalesID, string(outcome.Status))
	if err != nil {
		return false, err
	}
	if ct.RowsAffected() == 0 {
		return false, nil
	}
	_, err = q.Exec(ctx, `INSERT INTO outbox (aggregate_type, aggregate_id, type, payload, headers, traceparent, status)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		ev.AggregateType, ev.AggregateID, ev.Type, ev.Payload, ev.Headers, ev.Traceparent, string(ev.Status))
	return err == nil, err
}

// OutboxPublisher records outcomes in the outbox table; the relay ships them
// to Kafka. Approvals are already recorded by the stock transaction, so
// publishing them again is a no-op.
type OutboxPublisher struct {
	log  *slog.Logger
	pool *pgxpool.Pool
}

func NewOutboxPublisher(log *slog.Logger, pool *pgxpool.Pool) *OutboxPublisher {
	return &OutboxPublisher{log: log, pool: pool}
}

func (p *OutboxPublisher) Publish(ctx context.Context, outcome domain.Outcome) {
	log := p.log.With("sales_id", outcome.SalesID, "status", outcome.Status)
	tx, err := p.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		log.Error("outcome not recorded", "err", err)
		return
	}
	defer func() {
		if err := tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
			log.Warn("outcome tx rollback failed", "err", err)
		}
	}()

	fresh, err := recordOutcome(ctx, tx, outcome)
	if err != nil {
		log.Error("outcome not recorded", "err", err)
		return
	}
	if err := tx.Commit(ctx); err != nil {
		log.Error("outcome not recorded", "err", err)
		return
	}
	if !fresh {
		log.Debug("outcome already recorded")
		return
	}
	log.Info("outcome recorded")
}
