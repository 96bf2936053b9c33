package application_test

import (
	"context"
	"errors"
	"maps"
	"testing"

	"github.com/dmehra2102/inventory-service/internal/inventory/application"
	"github.com/dmehra2102/inventory-service/internal/inventory/domain"
)

func TestPrechecker(t *testing.T) {
	stock := map[int64]int64{10: 5, 11: 2}
	tests := []struct {
		name    string
		lines   []domain.StockLine
		wantErr error
		wantID  int64
		checkID bool
	}{
		{name: "ok", lines: []domain.StockLine{line(10, 3)}},
		{name: "exact", lines: []domain.StockLine{line(10, 5), line(11, 2)}},
		{name: "empty", wantErr: domain.ErrEmptyLineSet},
		{name: "incomplete", lines: []domain.StockLine{{ProductID: ptr(10)}}, wantErr: domain.ErrIncompleteLine},
		{name: "unknown", lines: []domain.StockLine{line(42, 1)}, wantErr: domain.ErrNotFound, wantID: 42, checkID: true},
		{name: "first short wins", lines: []domain.StockLine{line(10, 6), line(11, 3)}, wantErr: domain.ErrOutOfStock, wantID: 10, checkID: true},
		{name: "incomplete before stock", lines: []domain.StockLine{line(11, 3), {Quantity: ptr(1)}}, wantErr: domain.ErrOutOfStock, wantID: 11, checkID: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ledger := newLedger(stock)
			err := application.NewPrechecker(ledger).Check(context.Background(), domain.AvailabilityRequest{Lines: tt.lines})
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
			if tt.checkID {
				var se *domain.StockError
				if !errors.As(err, &se) || se.ProductID != tt.wantID {
					t.Fatalf("expected product %d in %v", tt.wantID, err)
				}
			}
			if got := ledger.Snapshot(); !maps.Equal(got, stock) {
				t.Fatalf("precheck mutated stock: %v", got)
			}
		})
	}
}
