package domain

import "slices"

// ProductStock is the ledger record for one product. QuantityAvailable never
// goes below zero.
type ProductStock struct {
	ProductID         int64 `json:"productId"`
	QuantityAvailable int64 `json:"quantityAvailable"`
}

// StockLine is one product/quantity pair as received from upstream. Fields are
// pointers because a decoded message may omit either of them.
type StockLine struct {
	ProductID *int64 `json:"productId"`
	Quantity  *int64 `json:"quantity"`
}

func NewStockLine(productID, quantity int64) StockLine {
	return StockLine{ProductID: &productID, Quantity: &quantity}
}

// StockChangeCommand asks for the lines of a sale to be reserved as one unit.
type StockChangeCommand struct {
	SalesID string      `json:"salesId"`
	Lines   []StockLine `json:"lines"`
}

// Reservation is a validated line.
type Reservation struct {
	ProductID int64
	Quantity  int64
}

type ValidatedCommand struct {
	SalesID string
	Lines   []Reservation
}

// ProductIDs returns the distinct product ids of the command in ascending order.
func (c ValidatedCommand) ProductIDs() []int64 {
	seen := make(map[int64]struct{}, len(c.Lines))
	ids := make([]int64, 0, len(c.Lines))
	for _, l := range c.Lines {
		if _, ok := seen[l.ProductID]; ok {
			continue
		}
		seen[l.ProductID] = struct{}{}
		ids = append(ids, l.ProductID)
	}
	slices.Sort(ids)
	return ids
}

// AvailabilityRequest is the read-only counterpart of StockChangeCommand.
type AvailabilityRequest struct {
	Lines []StockLine `json:"lines"`
}
