package billing

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyCart aborts a finalize before any network call is made.
	ErrEmptyCart = errors.New("cart is empty, nothing to finalize")

	// ErrBusy rejects a second finalize while a commit/render cycle is
	// still running on the same cart.
	ErrBusy = errors.New("finalize already in progress")

	// ErrDuplicateLine marks a contract violation: the items derived for
	// a stock commit contained the same product twice. The cart keeps a
	// single row per product, so this can only happen through a bug, and
	// the finalizer fails fast instead of silently summing quantities.
	ErrDuplicateLine = errors.New("duplicate product line in stock commit")
)

// ValidationError reports malformed operator input, e.g. a non-positive
// quantity. The cart is left unchanged.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

// NotFoundError reports a product or customer id that is absent from the
// current catalog snapshot. Callers typically trigger a refresh.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found in catalog snapshot", e.Kind, e.ID)
}

// StockError reports an oversell attempt. Stock is what the snapshot
// holds for the product, InCart what the cart already carries, so the
// operator sees both figures.
type StockError struct {
	ProductID   string
	ProductName string
	Requested   int
	InCart      int
	Stock       int
}

func (e *StockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s: only %d available, %d already in cart",
		e.ProductName, e.Stock, e.InCart)
}

// Available returns how many units can still be added.
func (e *StockError) Available() int {
	n := e.Stock - e.InCart
	if n < 0 {
		return 0
	}
	return n
}

// FinalizationError wraps a rejected or failed stock commit. The cart is
// preserved so the operator can retry or edit and retry.
type FinalizationError struct {
	Err error
}

func (e *FinalizationError) Error() string {
	return fmt.Sprintf("stock commit failed, bill not finalized: %v", e.Err)
}

func (e *FinalizationError) Unwrap() error {
	return e.Err
}

// RenderError wraps an artifact generation failure that happened after
// the stock commit already succeeded. The sale is recorded; only the
// artifact needs regenerating.
type RenderError struct {
	InvoiceNo string
	Err       error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("invoice %s committed but artifact generation failed: %v", e.InvoiceNo, e.Err)
}

func (e *RenderError) Unwrap() error {
	return e.Err
}
