// Package memory is an in-process stock ledger. Transactions are serialized
// by one writer lock, which gives the same no-oversell guarantee as locking
// every row the command touches.
package memory

import (
	"context"
	"fmt"
	"maps"
	"sync"

	"github.com/dmehra2102/inventory-service/internal/inventory/application"
	"github.com/dmehra2102/inventory-service/internal/inventory/domain"
)

type Ledger struct {
	txMu      sync.Mutex
	mu        sync.RWMutex
	m         map[int64]int64
	processed map[string]domain.Outcome
}

func NewLedger() *Ledger {
	return &Ledger{m: make(map[int64]int64), processed: make(map[string]domain.Outcome)}
}

// Put sets the available quantity of a product, creating it if needed.
func (l *Ledger) Put(productID, quantity int64) {
	l.txMu.Lock()
	defer l.txMu.Unlock()
	l.mu.Lock()
	defer l.mu.Unlock()
	l.m[productID] = quantity
}

func (l *Ledger) Get(_ context.Context, productID int64) (domain.ProductStock, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	q, ok := l.m[productID]
	if !ok {
		return domain.ProductStock{}, fmt.Errorf("product %d: %w", productID, domain.ErrNotFound)
	}
	return domain.ProductStock{ProductID: productID, QuantityAvailable: q}, nil
}

func (l *Ledger) GetMany(_ context.Context, productIDs []int64) (map[int64]domain.ProductStock, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.read(productIDs), nil
}

// Snapshot copies the whole ledger.
func (l *Ledger) Snapshot() map[int64]int64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return maps.Clone(l.m)
}

// Processed reports the outcome recorded by a committed transaction. Only
// approvals are recorded here; rejections leave no state behind.
func (l *Ledger) Processed(_ context.Context, salesID string) (domain.Outcome, bool, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out, ok := l.processed[salesID]
	return out, ok, nil
}

func (l *Ledger) WithinTx(ctx context.Context, fn func(ctx context.Context, tx application.StockTx) error) error {
	l.txMu.Lock()
	defer l.txMu.Unlock()

	tx := &stockTx{ledger: l, pending: make(map[int64]int64)}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	return l.commit(tx)
}

func (l *Ledger) commit(tx *stockTx) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	for id, dec := range tx.pending {
		if l.m[id] < dec {
			return fmt.Errorf("product %d: %w", id, domain.ErrInsufficientStock)
		}
	}
	for _, out := range tx.outcomes {
		if _, ok := l.processed[out.SalesID]; ok {
			return fmt.Errorf("sale %s: %w", out.SalesID, domain.ErrAlreadyProcessed)
		}
	}
	for id, dec := range tx.pending {
		l.m[id] -= dec
	}
	for _, out := range tx.outcomes {
		l.processed[out.SalesID] = out
	}
	return nil
}

func (l *Ledger) read(ids []int64) map[int64]domain.ProductStock {
	out := make(map[int64]domain.ProductStock, len(ids))
	for _, id := range ids {
		if q, ok := l.m[id]; ok {
			out[id] = domain.ProductStock{ProductID: id, QuantityAvailable: q}
		}
	}
	return out
}

type stockTx struct {
	ledger   *Ledger
	pending  map[int64]int64
	outcomes []domain.Outcome
}

func (t *stockTx) LockMany(_ context.Context, productIDs []int64) (map[int64]domain.ProductStock, error) {
	t.ledger.mu.RLock()
	defer t.ledger.mu.RUnlock()
	return t.ledger.read(productIDs), nil
}

func (t *stockTx) Decrement(_ context.Context, productID, quantity int64) error {
	t.ledger.mu.RLock()
	q, ok := t.ledger.m[productID]
	t.ledger.mu.RUnlock()
	if !ok {
		return fmt.Errorf("product %d: %w", productID, domain.ErrNotFound)
	}
	if q-t.pending[productID] < quantity {
		return fmt.Errorf("product %d: %w", productID, domain.ErrInsufficientStock)
	}
	t.pending[productID] += quantity
	return nil
}

func (t *stockTx) RecordOutcome(_ context.Context, outcome domain.Outcome) error {
	t.ledger.mu.RLock()
	_, done := t.ledger.processed[outcome.SalesID]
	t.ledger.mu.RUnlock()
	if done {
		return fmt.Errorf("sale %s: %w", outcome.SalesID, domain.ErrAlreadyProcessed)
	}
	t.outcomes = append(t.outcomes, outcome)
	return nil
}
