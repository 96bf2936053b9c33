package application_test

import (
	"context"
	"sync"

	"github.com/dmehra2102/inventory-service/internal/inventory/application"
	"github.com/dmehra2102/inventory-service/internal/inventory/domain"
)

type recordingPublisher struct {
	mu       sync.Mutex
	outcomes []domain.Outcome
}

func (p *recordingPublisher) Publish(_ context.Context, o domain.Outcome) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.outcomes = append(p.outcomes, o)
}

func (p *recordingPublisher) all() []domain.Outcome {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]domain.Outcome(nil), p.outcomes...)
}

// faultyLedger wraps a ledger and misbehaves on demand.
type faultyLedger struct {
	application.StockLedger
	txErr        error
	txPanic      any
	processedErr error
}

func (l *faultyLedger) Processed(ctx context.Context, salesID string) (domain.Outcome, bool, error) {
	if l.processedErr != nil {
		return domain.Outcome{}, false, l.processedErr
	}
	return l.StockLedger.Processed(ctx, salesID)
}

func (l *faultyLedger) WithinTx(ctx context.Context, fn func(ctx context.Context, tx application.StockTx) error) error {
	if l.txPanic != nil {
		panic(l.txPanic)
	}
	if l.txErr != nil {
		return l.txErr
	}
	return l.StockLedger.WithinTx(ctx, fn)
}

type fakeSales struct {
	ids []string
	err error
}

func (f fakeSales) FindSalesByProductID(context.Context, int64) ([]string, error) {
	return f.ids, f.err
}

func ptr(v int64) *int64 { return &v }

func line(productID, quantity int64) domain.StockLine {
	return domain.NewStockLine(productID, quantity)
}
