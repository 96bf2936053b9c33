package application

import (
	"context"

	"github.com/dmehra2102/inventory-service/internal/inventory/domain"
)

// StockLedger is the authoritative store of per-product available quantity.
// Reads outside WithinTx take no lock and may be stale.
type StockLedger interface {
	// Get returns domain.ErrNotFound (wrapped) when the product has no record.
	Get(ctx context.Context, productID int64) (domain.ProductStock, error)
	// GetMany omits unknown ids from the result.
	GetMany(ctx context.Context, productIDs []int64) (map[int64]domain.ProductStock, error)
	// WithinTx runs fn in one transaction. A nil return commits, anything else
	// rolls back. The transaction is released on every path, panics included.
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx StockTx) error) error
	// Processed returns the outcome on record for a sale, if any.
	Processed(ctx context.Context, salesID string) (domain.Outcome, bool, error)
}

// StockTx is the write side of the ledger, only valid inside WithinTx.
type StockTx interface {
	// LockMany reads and locks the records until the transaction ends.
	LockMany(ctx context.Context, productIDs []int64) (map[int64]domain.ProductStock, error)
	Decrement(ctx context.Context, productID, quantity int64) error
	// RecordOutcome claims the sale for this transaction. It returns
	// domain.ErrAlreadyProcessed when the sale already has an outcome.
	RecordOutcome(ctx context.Context, outcome domain.Outcome) error
}

// OutcomePublisher hands an outcome to the message bus. Delivery failures are
// the publisher's concern and are never reported back.
type OutcomePublisher interface {
	Publish(ctx context.Context, outcome domain.Outcome)
}

// SalesClient queries the sales API for the sales that include a product.
type SalesClient interface {
	FindSalesByProductID(ctx context.Context, productID int64) ([]string, error)
}
