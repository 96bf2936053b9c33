package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmehra2102/inventory-service/internal/inventory/application"
	"github.com/dmehra2102/inventory-service/internal/inventory/domain"
)

// Ledger keeps product stock in the product_stock table. Writes take row
// locks with SELECT ... FOR UPDATE in ascending id order, so two commands
// touching the same product are serialized and the first to commit wins.
type Ledger struct {
	log  *slog.Logger
	pool *pgxpool.Pool
}

func NewLedger(log *slog.Logger, pool *pgxpool.Pool) *Ledger {
	return &Ledger{log: log, pool: pool}
}

func (l *Ledger) Get(ctx context.Context, productID int64) (domain.ProductStock, error) {
	var rec domain.ProductStock
	err := l.pool.QueryRow(ctx, `SELECT product_id, quantity_available FROM product_stock WHERE product_id=$1`, productID).
		Scan(&rec.ProductID, &rec.QuantityAvailable)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ProductStock{}, fmt.Errorf("product %d: %w", productID, domain.ErrNotFound)
	}
	if err != nil {
		return domain.ProductStock{}, err
	}
	return rec, nil
}

func (l *Ledger) GetMany(ctx context.Context, productIDs []int64) (map[int64]domain.ProductStock, error) {
	rows, err := l.pool.Query(ctx, `SELECT product_id, quantity_available FROM product_stock WHERE product_id = ANY($1)`, productIDs)
	if err != nil {
		return nil, err
	}
	return collectStock(rows, len(productIDs))
}

// Upsert sets the available quantity of a product.
func (l *Ledger) Upsert(ctx context.Context, rec domain.ProductStock) error {
	_, err := l.pool.Exec(ctx, `INSERT INTO product_stock (product_id, quantity_available) VALUES ($1,$2)
		ON CONFLICT (product_id) DO UPDATE SET quantity_available=$2, updated_at=now()`,
		rec.ProductID, rec.QuantityAvailable)
	return err
}

func (l *Ledger) WithinTx(ctx context.Context, fn func(ctx context.Context, tx application.StockTx) error) error {
	tx, err := l.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return err
	}
	defer func() {
		if err := tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
			l.log.Warn("stock tx rollback failed", "err", err)
		}
	}()

	if err := fn(ctx, stockTx{tx: tx}); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (l *Ledger) Processed(ctx context.Context, salesID string) (domain.Outcome, bool, error) {
	var status string
	err := l.pool.QueryRow(ctx, `SELECT status FROM processed_sales WHERE sales_id=$1`, salesID).Scan(&status)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Outcome{}, false, nil
	}
	if err != nil {
		return domain.Outcome{}, false, err
	}
	return domain.Outcome{SalesID: salesID, Status: domain.ReservationStatus(status)}, true, nil
}

type stockTx struct {
	tx pgx.Tx
}

func (t stockTx) LockMany(ctx context.Context, productIDs []int64) (map[int64]domain.ProductStock, error) {
	rows, err := t.tx.Query(ctx, `
		SELECT product_id, quantity_available
		FROM product_stock
		WHERE product_id = ANY($1)
		ORDER BY product_id
		FOR UPDATE`, productIDs)
	if err != nil {
		return nil, err
	}
	return collectStock(rows, len(productIDs))
}

func (t stockTx) Decrement(ctx context.Context, productID, quantity int64) error {
	ct, err := t.tx.Exec(ctx, `UPDATE product_stock
		SET quantity_available = quantity_available - $2, updated_at = now()
		WHERE product_id = $1 AND quantity_available >= $2`, productID, quantity)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("product %d: %w", productID, domain.ErrInsufficientStock)
	}
	return nil
}

// RecordOutcome writes the processed marker and the outbox row inside the
// stock transaction, so they commit or roll back with the decrements. A
// concurrent claim on the same sale blocks until the other transaction ends.
func (t stockTx) RecordOutcome(ctx context.Context, outcome domain.Outcome) error {
	fresh, err := recordOutcome(ctx, t.tx, outcome)
	if err != nil {
		return err
	}
	if !fresh {
		return fmt.Errorf("sale %s: %w", outcome.SalesID, domain.ErrAlreadyProcessed)
	}
	return nil
}

func collectStock(rows pgx.Rows, n int) (map[int64]domain.ProductStock, error) {
	defer rows.Close()
	out := make(map[int64]domain.ProductStock, n)
	for rows.Next() {
		var rec domain.ProductStock
		if err := rows.Scan(&rec.ProductID, &rec.QuantityAvailable); err != nil {
			return nil, err
		}
		out[rec.ProductID] = rec
	}
	return out, rows.Err()
}
