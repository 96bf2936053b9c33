package application

import (
	"context"
	"errors"

	"github.com/dmehra2102/inventory-service/internal/inventory/domain"
)

// Prechecker answers "would this sale fit right now" without mutating
// anything. Its answer is advisory: the executor re-checks under lock.
type Prechecker struct {
	ledger StockLedger
}

func NewPrechecker(ledger StockLedger) *Prechecker {
	return &Prechecker{ledger: ledger}
}

// Check stops at the first failing line.
func (p *Prechecker) Check(ctx context.Context, req domain.AvailabilityRequest) error {
	if len(req.Lines) == 0 {
		return domain.ErrEmptyLineSet
	}
	for i, line := range req.Lines {
		r, err := reservationFromLine(i, line)
		if err != nil {
			return err
		}
		rec, err := p.ledger.Get(ctx, r.ProductID)
		if errors.Is(err, domain.ErrNotFound) {
			return domain.NewStockError(domain.ErrNotFound, r.ProductID)
		}
		if err != nil {
			return err
		}
		if r.Quantity > rec.QuantityAvailable {
			return domain.NewStockError(domain.ErrOutOfStock, r.ProductID)
		}
	}
	return nil
}
