package core

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound matches every NotFoundError.
	ErrNotFound = errors.New("not found")
	// ErrConflict means a transaction kept losing to concurrent writers. The
	// request can be retried as is.
	ErrConflict = errors.New("concurrent update, please retry")
	// ErrInvalidState matches state-machine violations.
	ErrInvalidState = errors.New("invalid state")

	ErrAlreadyCancelled = fmt.Errorf("sale is already cancelled: %w", ErrInvalidState)
	ErrAlreadyCompleted = fmt.Errorf("purchase is already completed: %w", ErrInvalidState)
	ErrSaleCancelled    = fmt.Errorf("sale is cancelled: %w", ErrInvalidState)

	// ErrOverpayment is returned when a payment would push amountPaid past the total.
	ErrOverpayment = errors.New("payment exceeds remaining balance")
)

// ValidationError reports input rejected before anything was persisted.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation failed: " + e.Message
	}
	return fmt.Sprintf("validation failed: %s: %s", e.Field, e.Message)
}

func invalid(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// NotFoundError reports a missing referenced document.
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

func notFound(entity, id string) *NotFoundError {
	return &NotFoundError{Entity: entity, ID: id}
}

// InsufficientStockError aborts a transaction whose request exceeds stock.
// RemainingStock is the stock on hand for the request and Requested the total
// asked of that supplier product across all lines.
type InsufficientStockError struct {
	SupplierProductID string
	ProductName       string
	RemainingStock    int64
	Requested         int64
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s: remaining %d, requested %d",
		e.ProductName, e.RemainingStock, e.Requested)
}
