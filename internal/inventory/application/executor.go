package application

import (
	"context"
	"fmt"

	"github.com/dmehra2102/inventory-service/internal/inventory/domain"
)

// Executor applies a validated command against the ledger as one unit.
type Executor struct {
	ledger StockLedger
}

func NewExecutor(ledger StockLedger) *Executor {
	return &Executor{ledger: ledger}
}

// Apply claims the sale, locks every referenced record, checks each line in
// input order and only then writes the decrements. Lines repeating a product
// are checked against their running total. Any failure leaves the ledger
// untouched, claim included.
func (e *Executor) Apply(ctx context.Context, cmd domain.ValidatedCommand) error {
	ids := cmd.ProductIDs()
	return e.ledger.WithinTx(ctx, func(ctx context.Context, tx StockTx) error {
		if err := tx.RecordOutcome(ctx, domain.Outcome{SalesID: cmd.SalesID, Status: domain.StatusApproved}); err != nil {
			return err
		}

		stock, err := tx.LockMany(ctx, ids)
		if err != nil {
			return fmt.Errorf("lock stock: %w", err)
		}

		requested := make(map[int64]int64, len(ids))
		for _, line := range cmd.Lines {
			rec, ok := stock[line.ProductID]
			if !ok {
				return domain.NewStockError(domain.ErrNotFound, line.ProductID)
			}
			requested[line.ProductID] += line.Quantity
			if requested[line.ProductID] > rec.QuantityAvailable {
				return domain.NewStockError(domain.ErrInsufficientStock, line.ProductID)
			}
		}

		for _, id := range ids {
			if err := tx.Decrement(ctx, id, requested[id]); err != nil {
				return fmt.Errorf("decrement product %d: %w", id, err)
			}
		}
		return nil
	})
}
