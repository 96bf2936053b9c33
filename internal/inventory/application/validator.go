package application

import (
	"strings"

	"github.com/dmehra2102/inventory-service/internal/inventory/domain"
)

// Validate checks the command is well formed. Stock sufficiency is not checked
// here; the executor re-reads it under lock.
func Validate(cmd domain.StockChangeCommand) (domain.ValidatedCommand, error) {
	if strings.TrimSpace(cmd.SalesID) == "" {
		return domain.ValidatedCommand{}, domain.ErrMissingSalesID
	}
	if len(cmd.Lines) == 0 {
		return domain.ValidatedCommand{}, domain.ErrEmptyLineSet
	}
	lines := make([]domain.Reservation, 0, len(cmd.Lines))
	for i, line := range cmd.Lines {
		r, err := reservationFromLine(i, line)
		if err != nil {
			return domain.ValidatedCommand{}, err
		}
		lines = append(lines, r)
	}
	return domain.ValidatedCommand{SalesID: cmd.SalesID, Lines: lines}, nil
}

func reservationFromLine(i int, line domain.StockLine) (domain.Reservation, error) {
	if line.ProductID == nil || line.Quantity == nil || *line.Quantity <= 0 {
		e := &domain.StockError{Kind: domain.ErrIncompleteLine, Line: i}
		if line.ProductID != nil {
			e.ProductID = *line.ProductID
		}
		return domain.Reservation{}, e
	}
	return domain.Reservation{ProductID: *line.ProductID, Quantity: *line.Quantity}, nil
}
