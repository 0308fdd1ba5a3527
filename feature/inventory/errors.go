package inventory

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound means no item matched the identity predicate.
	ErrNotFound = errors.New("item not found")
	// ErrNoValidRows means a bulk source produced nothing to load.
	ErrNoValidRows = errors.New("no valid rows")
	// ErrEmptySource means a bulk source could not be read at all (no sheet, no header, no data).
	ErrEmptySource = errors.New("source is empty")
	// ErrNegativeQuantity rejects manual edits below zero.
	ErrNegativeQuantity = errors.New("scanned quantity cannot be negative")
	// ErrContainerRequired rejects Loots manual edits that do not name a box.
	ErrContainerRequired = errors.New("container is required in loots mode")
	// ErrStoreClosed is returned while a store file is being replaced or after Close.
	ErrStoreClosed = errors.New("store is closed")
)

// ValidationError reports input that was rejected before any state changed.
type ValidationError struct {
	Op  string
	Err error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed (%s): %v", e.Op, e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// TransactionError reports a bulk replace that failed and was rolled back.
type TransactionError struct {
	Mode Mode
	Err  error
}

func (e *TransactionError) Error() string {
	return fmt.Sprintf("transaction on %s store rolled back: %v", e.Mode, e.Err)
}

func (e *TransactionError) Unwrap() error {
	return e.Err
}

// PersistenceError reports a single write that failed.
type PersistenceError struct {
	Mode    Mode
	Barcode string
	Err     error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("failed to persist %s item %q: %v", e.Mode, e.Barcode, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}
