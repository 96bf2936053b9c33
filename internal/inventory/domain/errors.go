package domain

import (
	"errors"
	"fmt"
)

var (
	ErrMissingSalesID    = errors.New("the product data and the sales id must be informed")
	ErrEmptyLineSet      = errors.New("the sales products must be informed")
	ErrIncompleteLine    = errors.New("the product id and the quantity must be informed")
	ErrNotFound          = errors.New("there is no product for the given id")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrOutOfStock        = errors.New("out of stock")
	ErrUnexpectedFailure = errors.New("unexpected failure")
	ErrSalesLookup       = errors.New("there was an error trying to get the product's sales")

	// ErrAlreadyProcessed means an outcome for the sale is already on record.
	ErrAlreadyProcessed = errors.New("sale already processed")
)

// StockError ties an error kind to the product that caused it.
type StockError struct {
	Kind      error
	ProductID int64
	Line      int
}

func (e *StockError) Error() string {
	switch {
	case errors.Is(e.Kind, ErrIncompleteLine):
		return fmt.Sprintf("line %d: %v", e.Line, e.Kind)
	case errors.Is(e.Kind, ErrOutOfStock), errors.Is(e.Kind, ErrInsufficientStock):
		return fmt.Sprintf("the product %d is out of stock", e.ProductID)
	default:
		return fmt.Sprintf("product %d: %v", e.ProductID, e.Kind)
	}
}

func (e *StockError) Unwrap() error { return e.Kind }

func NewStockError(kind error, productID int64) *StockError {
	return &StockError{Kind: kind, ProductID: productID}
}

// IsValidation reports whether err is one of the named failure kinds, as
// opposed to a collaborator fault.
func IsValidation(err error) bool {
	for _, kind := range []error{
		ErrMissingSalesID, ErrEmptyLineSet, ErrIncompleteLine, ErrNotFound,
		ErrInsufficientStock, ErrOutOfStock, ErrSalesLookup,
	} {
		if errors.Is(err, kind) {
			return true
		}
	}
	return false
}
